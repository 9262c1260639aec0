package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_TYPE", "SQLite")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("LEDGER_SEED_DEFAULT_CHART", "yes")

	cfg := Load()

	assert.Equal(t, "sqlite", cfg.DBType)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.True(t, cfg.Bootstrap.SeedDefaultChart)
	assert.True(t, cfg.Bootstrap.AutoMigrate)
}

func TestLoadEnablesRateLimitWithRedis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("RATE_LIMIT_WRITE_BURST", "not-a-number")

	cfg := Load()

	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "localhost:6379", cfg.RateLimit.RedisAddr)
	assert.Equal(t, 40, cfg.RateLimit.WriteBurst)
}

func TestLoadTrustedProxies(t *testing.T) {
	t.Setenv("HTTP_TRUSTED_PROXIES", " 10.0.0.0/8, ,192.168.1.10 ")

	cfg := Load()

	assert.Equal(t, []string{"10.0.0.0/8", "192.168.1.10"}, cfg.TrustedProxies)
}

func TestLedgerConfigHolderDefaultsAndEnv(t *testing.T) {
	t.Setenv("GOLDBOOK_LEDGER_PAYABLE_ACCOUNT_CODE", "2100")

	holder, err := NewLedgerConfigHolder()
	require.NoError(t, err)

	cfg := holder.Get()
	assert.Equal(t, "2100", cfg.PayableAccountCode)
	assert.Equal(t, "1200", cfg.ReceivableAccountCode)
}

func TestLedgerConfigHolderNil(t *testing.T) {
	var holder *LedgerConfigHolder
	assert.Equal(t, DefaultLedgerConfig(), holder.Get())
}
