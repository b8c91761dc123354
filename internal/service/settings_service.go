package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/devotionsim/proposal-api/internal/domain"
	"github.com/devotionsim/proposal-api/internal/repository"
)

// SettingsService manages the global pricing settings
type SettingsService struct {
	settingsRepo *repository.SettingsRepository
	logger       *zap.Logger
}

// NewSettingsService creates a new settings service
func NewSettingsService(settingsRepo *repository.SettingsRepository, logger *zap.Logger) *SettingsService {
	return &SettingsService{settingsRepo: settingsRepo, logger: logger}
}

// Get returns the stored settings merged over the defaults.
// Store failures fall back to the defaults so pricing keeps working.
func (s *SettingsService) Get(ctx context.Context) domain.AdminSettings {
	settings := domain.DefaultAdminSettings()

	fields, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			s.logger.Warn("failed to load settings, using defaults", zap.Error(err))
		}
		return settings
	}

	for name, raw := range fields {
		if string(raw) == "null" {
			delete(fields, name)
		}
	}
	merged, err := json.Marshal(fields)
	if err == nil {
		err = json.Unmarshal(merged, &settings)
	}
	if err != nil {
		s.logger.Warn("stored settings are malformed, using defaults", zap.Error(err))
		return domain.DefaultAdminSettings()
	}
	return settings
}

// Update replaces the rental values and any optional value that was sent
func (s *SettingsService) Update(ctx context.Context, req *domain.UpdateSettingsRequest) (domain.AdminSettings, error) {
	settings := s.Get(ctx)

	settings.TransportMultiplier = req.TransportMultiplier
	settings.StaffMultiplier = req.StaffMultiplier
	settings.SimulatorPrice = req.SimulatorPrice
	settings.SimulatorPriceVIP = req.SimulatorPriceVIP
	if req.PurchasePriceTimeAttack != nil {
		settings.PurchasePriceTimeAttack = *req.PurchasePriceTimeAttack
	}
	if req.PurchasePriceSlady != nil {
		settings.PurchasePriceSlady = *req.PurchasePriceSlady
	}
	if req.PurchasePriceTopGun != nil {
		settings.PurchasePriceTopGun = *req.PurchasePriceTopGun
	}
	if req.DownPaymentPercentage != nil {
		settings.DownPaymentPercentage = *req.DownPaymentPercentage
	}

	if err := s.settingsRepo.Save(ctx, &settings); err != nil {
		return domain.AdminSettings{}, fmt.Errorf("failed to update settings: %w", err)
	}

	s.logger.Info("pricing settings updated",
		zap.Float64("simulator_price", settings.SimulatorPrice),
		zap.Float64("simulator_price_vip", settings.SimulatorPriceVIP),
		zap.Float64("transport_multiplier", settings.TransportMultiplier),
		zap.Float64("staff_multiplier", settings.StaffMultiplier),
	)
	return settings, nil
}
