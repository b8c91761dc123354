// Package notify delivers operator notifications about accepted and paid proposals.
package notify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// Message is a notification with a subject and flat key/value fields
type Message struct {
	Subject string
	ReplyTo string
	Fields  map[string]string
}

// Text renders the fields as "key: value" lines in key order
func (m Message) Text() string {
	keys := make([]string, 0, len(m.Fields))
	for k := range m.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, m.Fields[k])
	}
	return b.String()
}

// Notifier sends a message to the operator
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Composite fans a message out to every notifier and joins their errors
type Composite struct {
	notifiers []Notifier
}

func NewComposite(notifiers ...Notifier) *Composite {
	c := &Composite{}
	for _, n := range notifiers {
		c.Add(n)
	}
	return c
}

// Add registers another notifier; nil is ignored
func (c *Composite) Add(n Notifier) {
	if n != nil {
		c.notifiers = append(c.notifiers, n)
	}
}

// Len returns the number of registered notifiers
func (c *Composite) Len() int {
	return len(c.notifiers)
}

func (c *Composite) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range c.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoggingNotifier writes messages to the log; used when nothing else is configured
type LoggingNotifier struct {
	logger *zap.Logger
}

func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	return &LoggingNotifier{logger: logger}
}

func (l *LoggingNotifier) Notify(_ context.Context, msg Message) error {
	fields := []zap.Field{zap.String("subject", msg.Subject)}
	for k, v := range msg.Fields {
		fields = append(fields, zap.String(k, v))
	}
	l.logger.Info("notification", fields...)
	return nil
}
