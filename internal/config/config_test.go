package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("JWT_SECRET_KEY", "test-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 60, cfg.Engine.DebounceSeconds)
	assert.Equal(t, 16, cfg.Engine.MaxIntervalHours)
	assert.Equal(t, []int{6, 7}, cfg.Engine.WeekendDays)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 48*time.Hour, cfg.Batch.WeekCloseGrace)
	assert.Equal(t, time.Hour, cfg.Batch.AbsentInterval)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.App.AllowedOrigins)

	rules := cfg.EngineRules()
	assert.Equal(t, time.Minute, rules.DebounceWindow)
	assert.Equal(t, 960, rules.MaxIntervalMinutes)
	assert.Equal(t, 0.5, rules.ShortShiftRatio)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE", "memory")
	t.Setenv("JWT_SECRET_KEY", "test-secret")
	t.Setenv("WEEKEND_DAYS", "5, 6")
	t.Setenv("DEBOUNCE_SECONDS", "30")
	t.Setenv("PENDING_INTERVAL", "90s")
	t.Setenv("WORKERS", "8")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://hr.example.com, https://ops.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []int{5, 6}, cfg.Engine.WeekendDays)
	assert.Equal(t, 30*time.Second, cfg.EngineRules().DebounceWindow)
	assert.Equal(t, 90*time.Second, cfg.Batch.PendingInterval)
	assert.Equal(t, 8, cfg.Batch.Workers)
	assert.Equal(t, []string{"https://hr.example.com", "https://ops.example.com"}, cfg.App.AllowedOrigins)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":    {"STORAGE": "memory"},
		"unknown storage":   {"STORAGE": "redis", "JWT_SECRET_KEY": "s"},
		"postgres password": {"STORAGE": "postgres", "JWT_SECRET_KEY": "s"},
		"bad weekend day":   {"STORAGE": "memory", "JWT_SECRET_KEY": "s", "WEEKEND_DAYS": "0"},
		"bad number":        {"STORAGE": "memory", "JWT_SECRET_KEY": "s", "WORKERS": "many"},
		"zero workers":      {"STORAGE": "memory", "JWT_SECRET_KEY": "s", "WORKERS": "0"},
		"bad duration":      {"STORAGE": "memory", "JWT_SECRET_KEY": "s", "WEEK_CLOSE_GRACE": "two days"},
		"bad ratio":         {"STORAGE": "memory", "JWT_SECRET_KEY": "s", "SHORT_SHIFT_RATIO": "1.5"},
		"bad timezone":      {"STORAGE": "memory", "JWT_SECRET_KEY": "s", "DEFAULT_TIMEZONE": "Nowhere/City"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("JWT_SECRET_KEY", "")
			t.Setenv("DB_PASSWORD", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
