package dbtrace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfigPresets(t *testing.T) {
	tests := []struct {
		name           string
		cfg            TracingConfig
		wantStatements bool
		wantParameters bool
		wantThreshold  time.Duration
		wantRowCounts  bool
	}{
		{
			name:          "given DefaultConfig, then logging is off with a 500ms threshold",
			cfg:           DefaultConfig(),
			wantThreshold: 500 * time.Millisecond,
			wantRowCounts: true,
		},
		{
			name:           "given DevelopmentConfig, then logging is on with a 100ms threshold",
			cfg:            DevelopmentConfig(),
			wantStatements: true,
			wantParameters: true,
			wantThreshold:  100 * time.Millisecond,
			wantRowCounts:  true,
		},
		{
			name:          "given ProductionConfig, then logging is off with a 1s threshold",
			cfg:           ProductionConfig(),
			wantThreshold: time.Second,
			wantRowCounts: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatements, tt.cfg.LogStatements())
			assert.Equal(t, tt.wantParameters, tt.cfg.LogParameters())
			assert.Equal(t, tt.wantThreshold, tt.cfg.SlowQueryThreshold())
			assert.Equal(t, tt.wantRowCounts, tt.cfg.RecordRowCounts())
			assert.Equal(t, DefaultTarget, tt.cfg.Target())

			_, ok := tt.cfg.DatabaseName()
			assert.False(t, ok)
			_, ok = tt.cfg.ServerAddress()
			assert.False(t, ok)
			_, ok = tt.cfg.ServerPort()
			assert.False(t, ok)
			_, ok = tt.cfg.PeerService()
			assert.False(t, ok)
		})
	}
}

func TestConfigBuilders(t *testing.T) {
	t.Run("given every builder, then each accessor returns the value set", func(t *testing.T) {
		cfg := DefaultConfig().
			WithStatementLogging(true).
			WithParameterLogging(true).
			WithSlowQueryThreshold(250 * time.Millisecond).
			WithRowCountRecording(false).
			WithTarget("billing").
			WithDatabaseName("ledger").
			WithServerAddress("10.0.0.5").
			WithServerPort(6432).
			WithPeerService("ledger-db")

		assert.True(t, cfg.LogStatements())
		assert.True(t, cfg.LogParameters())
		assert.Equal(t, 250*time.Millisecond, cfg.SlowQueryThreshold())
		assert.False(t, cfg.RecordRowCounts())
		assert.Equal(t, "billing", cfg.Target())

		name, ok := cfg.DatabaseName()
		assert.True(t, ok)
		assert.Equal(t, "ledger", name)

		addr, ok := cfg.ServerAddress()
		assert.True(t, ok)
		assert.Equal(t, "10.0.0.5", addr)

		port, ok := cfg.ServerPort()
		assert.True(t, ok)
		assert.Equal(t, 6432, port)

		peer, ok := cfg.PeerService()
		assert.True(t, ok)
		assert.Equal(t, "ledger-db", peer)
	})

	t.Run("given a builder call, then the receiver is left unchanged", func(t *testing.T) {
		base := DefaultConfig()

		derived := base.WithStatementLogging(true).WithDatabaseName("orders")

		assert.False(t, base.LogStatements())
		_, ok := base.DatabaseName()
		assert.False(t, ok)
		assert.True(t, derived.LogStatements())
	})

	t.Run("given an empty database name, then it is still reported as set", func(t *testing.T) {
		name, ok := DefaultConfig().WithDatabaseName("").DatabaseName()

		assert.True(t, ok)
		assert.Empty(t, name)
	})

	t.Run("given a zero threshold, then it is kept", func(t *testing.T) {
		assert.Zero(t, DefaultConfig().WithSlowQueryThreshold(0).SlowQueryThreshold())
	})
}
