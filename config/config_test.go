package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "postgresql://localhost:5432/bloomhouse_test")
	t.Setenv("ORDER_TX_TIMEOUT", "")
	t.Setenv("ORDER_MAX_ATTEMPTS", "")
	t.Setenv("DEFAULT_PAGE_SIZE", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("DATABASE_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.DatabaseDriver)
	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 3, cfg.OrderMaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.OrderTxTimeout)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.True(t, cfg.IsTest())
	assert.Same(t, cfg, GetConfig(), "Load should register the loaded config")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("GO_ENV", "test")
	t.Setenv("DATABASE_URL", "bloomhouse.db")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("ORDER_TX_TIMEOUT", "750ms")
	t.Setenv("ORDER_MAX_ATTEMPTS", "5")
	t.Setenv("DEFAULT_PAGE_SIZE", "50")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com, https://admin.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, 750*time.Millisecond, cfg.OrderTxTimeout)
	assert.Equal(t, 5, cfg.OrderMaxAttempts)
	assert.Equal(t, 50, cfg.DefaultPageSize)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORSAllowedOrigins)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": ""}},
		{"bad driver", map[string]string{"DATABASE_DRIVER": "mysql"}},
		{"bad timeout", map[string]string{"ORDER_TX_TIMEOUT": "soon"}},
		{"bad attempts", map[string]string{"ORDER_MAX_ATTEMPTS": "three"}},
		{"zero attempts", map[string]string{"ORDER_MAX_ATTEMPTS": "0"}},
		{"negative page size", map[string]string{"DEFAULT_PAGE_SIZE": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GO_ENV", "test")
			t.Setenv("DATABASE_URL", "postgresql://localhost:5432/bloomhouse_test")
			t.Setenv("DATABASE_DRIVER", "postgres")
			t.Setenv("ORDER_TX_TIMEOUT", "")
			t.Setenv("ORDER_MAX_ATTEMPTS", "")
			t.Setenv("DEFAULT_PAGE_SIZE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestEnvironmentPredicates(t *testing.T) {
	cfg := Default()

	cfg.GoEnv = "production"
	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())

	cfg.GoEnv = "development"
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsTest())
}

func TestInitLogger(t *testing.T) {
	original := L()
	defer SetLogger(original)

	cfg := Default()
	cfg.LogLevel = "debug"
	l, err := InitLogger(cfg)
	require.NoError(t, err)
	assert.Same(t, l, L())

	cfg.LogLevel = "loud"
	_, err = InitLogger(cfg)
	assert.Error(t, err)
}
