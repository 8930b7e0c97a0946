package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Juste Un Peu", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "resend", cfg.External.Email.Provider)
	assert.Equal(t, "contact@justeunpeu.fr", cfg.External.Email.FromEmail)
	assert.Equal(t, 30*24*time.Hour, cfg.Cart.DeviceCartTTL)
	assert.Equal(t, 24*time.Hour, cfg.Cart.PendingItemTTL)
	assert.Equal(t, time.Hour, cfg.Security.ResetTokenTTL)
	assert.Equal(t, 48*time.Hour, cfg.Security.VerifyTokenTTL)
	assert.True(t, cfg.JWT.RefreshTokenRotation)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("CART_DEVICE_TTL", "12h")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://justeunpeu.fr,https://www.justeunpeu.fr")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 12*time.Hour, cfg.Cart.DeviceCartTTL)
	assert.Equal(t, []string{"https://justeunpeu.fr", "https://www.justeunpeu.fr"}, cfg.Security.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	t.Run("short jwt secret", func(t *testing.T) {
		cfg := base()
		cfg.JWT.Secret = "too-short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing db host", func(t *testing.T) {
		cfg := base()
		cfg.Database.Host = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing redis host", func(t *testing.T) {
		cfg := base()
		cfg.Redis.Host = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing port", func(t *testing.T) {
		cfg := base()
		cfg.Server.Port = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero device cart ttl", func(t *testing.T) {
		cfg := base()
		cfg.Cart.DeviceCartTTL = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestGetDatabaseDSN(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{
			Host:     "db.internal",
			Port:     "5433",
			User:     "jup",
			Password: "secret",
			Name:     "storefront",
			SSLMode:  "require",
		},
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=jup password=secret dbname=storefront sslmode=require",
		cfg.GetDatabaseDSN())
}

func TestGetRedisAddr(t *testing.T) {
	cfg := &Config{
		Redis: RedisConfig{Host: "cache.internal", Port: "6380"},
	}

	assert.Equal(t, "cache.internal:6380", cfg.GetRedisAddr())
}
