package main

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("BJ_TRIALS", "50")
	t.Setenv("BJ_HANDS", "10")
	t.Setenv("BJ_DEALER_STAND", "18")
	t.Setenv("BJ_WORKERS", "3")
	t.Setenv("DECK_SEED", "-1")
	t.Setenv("DATABASE_URL", "sqlite:///tmp/x.db")
	t.Setenv("AUTO_MIGRATE", "yes")
	t.Setenv("PORT", "")
	t.Setenv("MAX_SECONDS", "30")

	cfg := loadConfig()
	assert.Equal(t, 50, cfg.Judge.Trials)
	assert.Equal(t, 3, cfg.Judge.Workers)
	assert.Equal(t, 18, cfg.Judge.Rules.DealerStandsOn)
	assert.Equal(t, 10, cfg.Hands)
	assert.Equal(t, uint64(math.MaxUint64), cfg.Seed)
	assert.Equal(t, "sqlite:///tmp/x.db", cfg.DatabaseURL)
	assert.True(t, cfg.AutoMigrate)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 30, cfg.MaxSeconds)
}

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"BJ_TRIALS", "BJ_HANDS", "BJ_DEALER_STAND", "BJ_WORKERS", "DATABASE_URL", "AUTO_MIGRATE"} {
		t.Setenv(k, "")
	}
	t.Setenv("BJ_TRIALS", "lots")
	t.Setenv("DECK_SEED", "18446744073709551615")

	cfg := loadConfig()
	assert.Equal(t, 500, cfg.Judge.Trials)
	assert.Equal(t, 0, cfg.Judge.Workers)
	assert.Equal(t, 17, cfg.Judge.Rules.DealerStandsOn)
	assert.Equal(t, 1000, cfg.Hands)
	assert.Equal(t, uint64(math.MaxUint64), cfg.Seed)
	assert.Empty(t, cfg.DatabaseURL)
	assert.False(t, cfg.AutoMigrate)
}

func TestAsBool(t *testing.T) {
	for _, s := range []string{"1", "true", "YES", " on "} {
		assert.True(t, asBool(s), s)
	}
	for _, s := range []string{"", "0", "no", "off", "maybe"} {
		assert.False(t, asBool(s), s)
	}
}
