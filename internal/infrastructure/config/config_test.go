package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, ":5000", cfg.Server.Address())
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, "data.json", cfg.Storage.DataFile)
	assert.False(t, cfg.Storage.RecoverCorrupt)
	assert.Equal(t, "*", cfg.Security.CORSAllowedOrigins)
	assert.Equal(t, 0, cfg.Security.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.Security.RateLimitWindow)
	assert.Equal(t, 120*time.Second, cfg.Server.IdleTimeout)
	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.App.IsDevelopment())
	assert.False(t, cfg.App.IsProduction())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DATA_FILE", "/tmp/customers.json")
	t.Setenv("STORAGE_RECOVER_CORRUPT", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("RATE_LIMIT_REQUESTS", "10")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "/tmp/customers.json", cfg.Storage.DataFile)
	assert.True(t, cfg.Storage.RecoverCorrupt)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.Equal(t, 10, cfg.Security.RateLimitRequests)
}

func TestLoadPortPrecedence(t *testing.T) {
	t.Setenv("SERVER_PORT", "7000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)

	t.Setenv("PORT", "7001")

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, 7001, cfg.Server.Port, "PORT wins over SERVER_PORT")
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"port out of range", map[string]string{"PORT": "70000"}},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "redis"}},
		{"negative rate limit", map[string]string{"RATE_LIMIT_REQUESTS": "-1"}},
		{"unknown log format", map[string]string{"LOG_FORMAT": "xml"}},
		{"unknown environment", map[string]string{"APP_ENVIRONMENT": "qa"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestGetDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "crm", Password: "secret", Name: "crm", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=crm password=secret dbname=crm sslmode=disable", cfg.GetDSN())
}
