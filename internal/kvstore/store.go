// Package kvstore provides the key-value store proposals are persisted in.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/config"
	"github.com/devotionsim/proposal-api/internal/database"
)

// Store is the key-value contract. Get returns nil, nil for a missing or expired key.
// A zero ttl stores the value without expiry. Keys accepts a glob pattern where '*'
// matches any run of characters.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	// PushAndTrim prepends value to a list and keeps only the newest maxLen entries
	PushAndTrim(ctx context.Context, listKey, value string, maxLen int64) error
	// Range returns list entries start..stop inclusive, newest first; stop -1 means the end
	Range(ctx context.Context, listKey string, start, stop int64) ([]string, error)
	RemoveFromList(ctx context.Context, listKey, value string) error
	Ping(ctx context.Context) error
	Close() error
}

// Driver names accepted by NewStore
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// ErrUnsupportedDriver is returned for an unknown store driver
var ErrUnsupportedDriver = errors.New("unsupported store driver")

// NewStore creates the store selected by cfg.Store.Driver
func NewStore(cfg *config.Config, logger *zap.Logger) (Store, error) {
	switch cfg.Store.Driver {
	case DriverRedis:
		logger.Info("Using Redis key-value store", zap.String("addr", cfg.Store.RedisAddr))
		return NewRedisStore(&cfg.Store)
	case DriverPostgres:
		logger.Info("Using PostgreSQL key-value store", zap.String("host", cfg.Database.Host))
		db, err := database.NewDatabase(&cfg.Database)
		if err != nil {
			return nil, err
		}
		return NewSQLStore(db), nil
	case DriverSQLite:
		logger.Info("Using SQLite key-value store", zap.String("path", cfg.Store.SQLitePath))
		db, err := database.NewSQLiteDatabase(cfg.Store.SQLitePath)
		if err != nil {
			return nil, err
		}
		store := NewSQLStore(db)
		if err := store.AutoMigrate(); err != nil {
			return nil, err
		}
		return store, nil
	case DriverMemory:
		logger.Warn("Using in-memory key-value store; data is lost on restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, cfg.Store.Driver)
	}
}
