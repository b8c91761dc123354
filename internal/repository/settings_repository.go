package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/kvstore"
)

type SettingsRepository struct {
	store kvstore.Store
}

func NewSettingsRepository(store kvstore.Store) *SettingsRepository {
	return &SettingsRepository{store: store}
}

// Get returns the stored settings as raw JSON fields so callers can merge them over defaults.
// A missing record yields ErrNotFound.
func (r *SettingsRepository) Get(ctx context.Context) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := getJSON(ctx, r.store, SettingsKey, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Save replaces the settings record; it never expires
func (r *SettingsRepository) Save(ctx context.Context, s *domain.AdminSettings) error {
	if err := setJSON(ctx, r.store, SettingsKey, s, 0); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
