package repository

import (
	"context"
	"errors"
	"time"

	"github.com/devotionsim/proposal-api/internal/kvstore"
)

// Counter is a windowed attempt counter
type Counter struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"resetAt"`
}

// CounterRepository tracks per-key usage such as AI suggestions per session
// and failed logins per IP. Updates are read-modify-write and not atomic.
type CounterRepository struct {
	store  kvstore.Store
	prefix string
}

func NewCounterRepository(store kvstore.Store, prefix string) *CounterRepository {
	return &CounterRepository{store: store, prefix: prefix}
}

func (r *CounterRepository) key(id string) string {
	return r.prefix + id
}

// Get returns the counter for id; a missing counter is zero
func (r *CounterRepository) Get(ctx context.Context, id string) (Counter, error) {
	var c Counter
	if err := getJSON(ctx, r.store, r.key(id), &c); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Counter{}, nil
		}
		return Counter{}, err
	}
	return c, nil
}

// Save stores the counter for ttl
func (r *CounterRepository) Save(ctx context.Context, id string, c Counter, ttl time.Duration) error {
	return setJSON(ctx, r.store, r.key(id), c, ttl)
}

// Reset clears the counter for id
func (r *CounterRepository) Reset(ctx context.Context, id string) error {
	return r.store.Delete(ctx, r.key(id))
}
