package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SERVICE_NAME", "pool-service")

	cfg := Load()

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "9095", cfg.MetricsPort)
	assert.Equal(t, int64(100), cfg.MinStakeCents)
	assert.Equal(t, int64(100_000_000), cfg.MaxStakeCents)
	assert.Equal(t, "2", cfg.DefaultOdds.String())
	assert.Equal(t, "1.1", cfg.MinimumOdds.String())
	assert.Equal(t, 3, cfg.StoreRetryAttempts)
	assert.True(t, cfg.VerifyPools)
	assert.Equal(t, "wager_placed", cfg.TopicWagerPlaced)
	assert.Equal(t, "contest_snapshots", cfg.RedisSnapshotChannel)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SERVICE_NAME", "wager-audit-worker")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("STORE_TIMEOUT", "750ms")
	t.Setenv("STORE_RETRY_ATTEMPTS", "5")
	t.Setenv("MINIMUM_ODDS", "1.25")
	t.Setenv("VERIFY_POOLS", "false")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")

	cfg := Load()

	assert.Equal(t, "memory", cfg.StoreDriver)
	assert.Equal(t, "", cfg.HTTPPort)
	assert.Equal(t, "9097", cfg.MetricsPort)
	assert.Equal(t, "wager-audit-worker", cfg.KafkaGroupID)
	assert.Equal(t, 750*time.Millisecond, cfg.StoreTimeout)
	assert.Equal(t, 5, cfg.StoreRetryAttempts)
	assert.Equal(t, "1.25", cfg.MinimumOdds.StringFixed(2))
	assert.False(t, cfg.VerifyPools)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.WSAllowedOrigins)
}

func TestLoad_InvalidNumbersFallBack(t *testing.T) {
	t.Setenv("MIN_STAKE_CENTS", "abc")
	t.Setenv("DEFAULT_ODDS", "x")

	cfg := Load()

	assert.Equal(t, int64(100), cfg.MinStakeCents)
	assert.Equal(t, "2.00", cfg.DefaultOdds.StringFixed(2))
}
