package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/devotionsim/proposal-api/internal/kvstore"
)

// Store keys
const (
	RecentProposalsKey = "proposals:list"
	SettingsKey        = "admin:settings"
)

// Retention of side records
const (
	PaymentRecordTTL    = 15 * 24 * time.Hour
	SettlementRecordTTL = 90 * 24 * time.Hour
	AcceptanceRecordTTL = 15 * 24 * time.Hour
	CheckoutTokenTTL    = 30 * time.Minute
)

// ErrNotFound is returned when a key holds no value
var ErrNotFound = errors.New("record not found")

func proposalKey(id string) string   { return "proposal:" + id }
func paymentKey(id string) string    { return "proposal:" + id + ":payment" }
func settlementKey(id string) string { return "proposal:" + id + ":paid" }
func acceptanceKey(id string) string { return "proposal:" + id + ":acceptance" }
func checkoutTokenKey(id, token string) string {
	return "checkout:idem:" + id + ":" + token
}

// checkoutTokenPattern matches every checkout token cached for a proposal
func checkoutTokenPattern(id string) string { return "checkout:idem:" + id + ":*" }

const paymentKeyPattern = "proposal:*:payment"

// proposalIDFromPaymentKey extracts the id from "proposal:{id}:payment"
func proposalIDFromPaymentKey(key string) string {
	const prefix, suffix = "proposal:", ":payment"
	if len(key) <= len(prefix)+len(suffix) {
		return ""
	}
	return key[len(prefix) : len(key)-len(suffix)]
}

func getJSON(ctx context.Context, store kvstore.Store, key string, dst interface{}) error {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if raw == nil {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return nil
}

func setJSON(ctx context.Context, store kvstore.Store, key string, v interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return store.Set(ctx, key, raw, ttl)
}
