package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KVEntry is a row of the kv_entries table
type KVEntry struct {
	Key       string     `gorm:"primaryKey;size:255"`
	Value     []byte     `gorm:"not null"`
	ExpiresAt *time.Time `gorm:"index"`
	UpdatedAt time.Time
}

// TableName overrides the gorm default
func (KVEntry) TableName() string { return "kv_entries" }

// KVListItem is a row of the kv_list_items table; higher IDs are newer
type KVListItem struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	ListKey   string `gorm:"size:255;not null;index"`
	Value     string `gorm:"size:255;not null"`
	CreatedAt time.Time
}

// TableName overrides the gorm default
func (KVListItem) TableName() string { return "kv_list_items" }

// SQLStore is a Store on PostgreSQL or SQLite through gorm.
// Expired rows stay invisible to reads until DeleteExpired reaps them.
type SQLStore struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSQLStore wraps an open gorm connection
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// AutoMigrate creates the store tables; PostgreSQL deployments use goose migrations instead
func (s *SQLStore) AutoMigrate() error {
	if err := s.db.AutoMigrate(&KVEntry{}, &KVListItem{}); err != nil {
		return fmt.Errorf("failed to migrate kv tables: %w", err)
	}
	return nil
}

func (s *SQLStore) notExpired(db *gorm.DB) *gorm.DB {
	return db.Where("expires_at IS NULL OR expires_at > ?", s.now())
}

func (s *SQLStore) Get(ctx context.Context, key string) ([]byte, error) {
	var entry KVEntry
	err := s.notExpired(s.db.WithContext(ctx)).Where("key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sql get %s: %w", key, err)
	}
	return entry.Value, nil
}

func (s *SQLStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	entry := KVEntry{Key: key, Value: value, UpdatedAt: s.now()}
	if ttl > 0 {
		exp := s.now().Add(ttl)
		entry.ExpiresAt = &exp
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "expires_at", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return fmt.Errorf("sql set %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("key IN ?", keys).Delete(&KVEntry{}).Error; err != nil {
			return fmt.Errorf("sql delete: %w", err)
		}
		if err := tx.Where("list_key IN ?", keys).Delete(&KVListItem{}).Error; err != nil {
			return fmt.Errorf("sql delete lists: %w", err)
		}
		return nil
	})
}

// globToLike turns a '*' glob into a LIKE pattern with '\' as escape character
func globToLike(pattern string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`, `*`, `%`)
	return r.Replace(pattern)
}

func (s *SQLStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	err := s.notExpired(s.db.WithContext(ctx).Model(&KVEntry{})).
		Where(`key LIKE ? ESCAPE '\'`, globToLike(pattern)).
		Order("key").
		Pluck("key", &keys).Error
	if err != nil {
		return nil, fmt.Errorf("sql keys %s: %w", pattern, err)
	}
	return keys, nil
}

func (s *SQLStore) PushAndTrim(ctx context.Context, listKey, value string, maxLen int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&KVListItem{ListKey: listKey, Value: value, CreatedAt: s.now()}).Error; err != nil {
			return fmt.Errorf("sql push %s: %w", listKey, err)
		}
		if maxLen <= 0 {
			return nil
		}

		var stale []uint
		err := tx.Model(&KVListItem{}).
			Where("list_key = ?", listKey).
			Order("id DESC").
			Offset(int(maxLen)).
			Pluck("id", &stale).Error
		if err != nil {
			return fmt.Errorf("sql trim %s: %w", listKey, err)
		}
		if len(stale) == 0 {
			return nil
		}
		return tx.Where("id IN ?", stale).Delete(&KVListItem{}).Error
	})
}

func (s *SQLStore) Range(ctx context.Context, listKey string, start, stop int64) ([]string, error) {
	if start < 0 {
		start = 0
	}
	q := s.db.WithContext(ctx).Model(&KVListItem{}).
		Where("list_key = ?", listKey).
		Order("id DESC").
		Offset(int(start))
	if stop >= 0 {
		if stop < start {
			return []string{}, nil
		}
		q = q.Limit(int(stop - start + 1))
	}

	var values []string
	if err := q.Pluck("value", &values).Error; err != nil {
		return nil, fmt.Errorf("sql range %s: %w", listKey, err)
	}
	return values, nil
}

func (s *SQLStore) RemoveFromList(ctx context.Context, listKey, value string) error {
	err := s.db.WithContext(ctx).
		Where("list_key = ? AND value = ?", listKey, value).
		Delete(&KVListItem{}).Error
	if err != nil {
		return fmt.Errorf("sql remove %s: %w", listKey, err)
	}
	return nil
}

// DeleteExpired removes rows whose TTL has passed and returns how many were removed
func (s *SQLStore) DeleteExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).
		Delete(&KVEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("sql delete expired: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
