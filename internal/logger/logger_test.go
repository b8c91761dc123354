package logger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/devotionsim/proposal-api/internal/config"
	"github.com/devotionsim/proposal-api/internal/logger"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		logging   config.LoggingConfig
		env       string
		wantLevel zapcore.Level
	}{
		{"development console", config.LoggingConfig{Level: "debug", Format: "console"}, "development", zapcore.DebugLevel},
		{"production json", config.LoggingConfig{Level: "warn", Format: "json"}, "production", zapcore.WarnLevel},
		{"invalid level falls back to info", config.LoggingConfig{Level: "loud"}, "development", zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := logger.NewLogger(&tt.logging, &config.AppConfig{Name: "test", Environment: tt.env})
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.wantLevel))
			assert.False(t, log.Core().Enabled(tt.wantLevel-1))
		})
	}
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)
	fallback := zap.NewNop()

	assert.Same(t, fallback, logger.FromContext(context.Background(), fallback))

	reqLogger := logger.WithRequest(base, "GET", "/api/v1/proposals/abc", "req-1")
	ctx := logger.NewContext(context.Background(), reqLogger)

	logger.WithProposal(logger.FromContext(ctx, fallback), "abc").Info("read")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "abc", fields["proposal_id"])
}
