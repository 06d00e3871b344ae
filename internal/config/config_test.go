package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("TICKET_NUMBER_STRATEGY", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("APP_TIMEZONE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMongo, cfg.Store.Driver)
	assert.Equal(t, NumberingStore, cfg.Tickets.NumberStrategy)
	assert.Equal(t, 100, cfg.Tickets.DefaultListLimit)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, time.Local, cfg.App.Location)
	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Memory")
	t.Setenv("TICKET_NUMBER_STRATEGY", "redis")
	t.Setenv("REDIS_ADDR", "127.0.0.1:6390")
	t.Setenv("CORS_ORIGINS", "https://desk.example.com, https://admin.example.com ,")
	t.Setenv("APP_TIMEZONE", "Europe/Berlin")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("TICKET_NUMBER_MAX_ATTEMPTS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, NumberingRedis, cfg.Tickets.NumberStrategy)
	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, []string{"https://desk.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, "Europe/Berlin", cfg.App.Location.String())
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, 50, cfg.Tickets.MaxNumberAttempts)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"STORE_DRIVER": "sqlite"}},
		{"unknown strategy", map[string]string{"TICKET_NUMBER_STRATEGY": "random"}},
		{"redis strategy without address", map[string]string{"TICKET_NUMBER_STRATEGY": "redis", "REDIS_ADDR": ""}},
		{"postgres without dsn", map[string]string{"STORE_DRIVER": "postgres", "POSTGRES_DSN": ""}},
		{"bad timezone", map[string]string{"APP_TIMEZONE": "Mars/Olympus"}},
		{"bad redis db", map[string]string{"REDIS_DB": "zero"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, val := range tt.env {
				t.Setenv(key, val)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
