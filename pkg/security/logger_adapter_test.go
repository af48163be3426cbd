package security

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kevin07696/wayforpay/pkg/ports"
)

func TestZapLoggerAdapter_ForwardsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := NewZapLogger(zap.New(core))

	logger.Info("making request", ports.String("transaction_type", "REFUND"), ports.Int("status_code", 200))
	logger.Warn("slow", ports.Duration("elapsed_ms", 1500))
	logger.Error("failed", ports.Err(errors.New("boom")))
	logger.Debug("details")

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "REFUND", entries[0].ContextMap()["transaction_type"])
	assert.EqualValues(t, 200, entries[0].ContextMap()["status_code"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.EqualValues(t, 1500, entries[1].ContextMap()["elapsed_ms"])

	assert.Equal(t, zapcore.ErrorLevel, entries[2].Level)
	assert.Equal(t, "boom", entries[2].ContextMap()["error"])

	assert.Equal(t, zapcore.DebugLevel, entries[3].Level)
}

func TestNewZapLoggerFromConfig(t *testing.T) {
	logger, err := NewZapLoggerFromConfig("warn", false)
	require.NoError(t, err)
	assert.False(t, logger.Zap().Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Zap().Core().Enabled(zapcore.WarnLevel))

	dev, err := NewZapLoggerFromConfig("debug", true)
	require.NoError(t, err)
	assert.True(t, dev.Zap().Core().Enabled(zapcore.DebugLevel))

	_, err = NewZapLoggerFromConfig("loud", false)
	assert.Error(t, err)
}

func TestZapLoggerAdapter_ImplementsPort(t *testing.T) {
	var _ ports.Logger = NewZapLogger(zap.NewNop())
}
