package kvstore

import (
	"context"
	"errors"
	"time"

	"github.com/devotionsim/proposal-api/internal/domain"
)

// serviceName identifies the store in upstream errors
const serviceName = "kv store"

// TimeoutStore bounds every call of an inner Store by a deadline.
// A deadline hit is reported as *domain.UpstreamTimeoutError.
type TimeoutStore struct {
	inner   Store
	timeout time.Duration
}

// WithTimeout wraps inner so each call gets at most timeout
func WithTimeout(inner Store, timeout time.Duration) *TimeoutStore {
	return &TimeoutStore{inner: inner, timeout: timeout}
}

// Unwrap returns the wrapped store
func (t *TimeoutStore) Unwrap() Store {
	return t.inner
}

func (t *TimeoutStore) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < t.timeout {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, t.timeout)
}

func mapTimeout(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &domain.UpstreamTimeoutError{Service: serviceName, Err: err}
	}
	return err
}

func (t *TimeoutStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	v, err := t.inner.Get(ctx, key)
	return v, mapTimeout(ctx, err)
}

func (t *TimeoutStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return mapTimeout(ctx, t.inner.Set(ctx, key, value, ttl))
}

func (t *TimeoutStore) Delete(ctx context.Context, keys ...string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return mapTimeout(ctx, t.inner.Delete(ctx, keys...))
}

func (t *TimeoutStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	v, err := t.inner.Keys(ctx, pattern)
	return v, mapTimeout(ctx, err)
}

func (t *TimeoutStore) PushAndTrim(ctx context.Context, listKey, value string, maxLen int64) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return mapTimeout(ctx, t.inner.PushAndTrim(ctx, listKey, value, maxLen))
}

func (t *TimeoutStore) Range(ctx context.Context, listKey string, start, stop int64) ([]string, error) {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	v, err := t.inner.Range(ctx, listKey, start, stop)
	return v, mapTimeout(ctx, err)
}

func (t *TimeoutStore) RemoveFromList(ctx context.Context, listKey, value string) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return mapTimeout(ctx, t.inner.RemoveFromList(ctx, listKey, value))
}

func (t *TimeoutStore) Ping(ctx context.Context) error {
	ctx, cancel := t.bound(ctx)
	defer cancel()
	return mapTimeout(ctx, t.inner.Ping(ctx))
}

func (t *TimeoutStore) Close() error {
	return t.inner.Close()
}
