package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"MKT_APP_NAME":                  os.Getenv("MKT_APP_NAME"),
		"MKT_APP_ENV":                   os.Getenv("MKT_APP_ENV"),
		"MKT_APP_PORT":                  os.Getenv("MKT_APP_PORT"),
		"MKT_DATABASE_HOST":             os.Getenv("MKT_DATABASE_HOST"),
		"MKT_DATABASE_PORT":             os.Getenv("MKT_DATABASE_PORT"),
		"MKT_DATABASE_PASSWORD":         os.Getenv("MKT_DATABASE_PASSWORD"),
		"MKT_DATABASE_SSLMODE":          os.Getenv("MKT_DATABASE_SSLMODE"),
		"MKT_DATABASE_MAX_OPEN_CONNS":   os.Getenv("MKT_DATABASE_MAX_OPEN_CONNS"),
		"MKT_DATABASE_MAX_IDLE_CONNS":   os.Getenv("MKT_DATABASE_MAX_IDLE_CONNS"),
		"MKT_COMMISSION_STANDARD_RATE":  os.Getenv("MKT_COMMISSION_STANDARD_RATE"),
		"MKT_TRANSACTION_MIN_AMOUNT":    os.Getenv("MKT_TRANSACTION_MIN_AMOUNT"),
		"MKT_TRANSACTION_MAX_AMOUNT":    os.Getenv("MKT_TRANSACTION_MAX_AMOUNT"),
		"MKT_INTEGRITY_ENABLED":         os.Getenv("MKT_INTEGRITY_ENABLED"),
		"MKT_INTEGRITY_SECRET":          os.Getenv("MKT_INTEGRITY_SECRET"),
		"MKT_WEBHOOK_ENABLED":           os.Getenv("MKT_WEBHOOK_ENABLED"),
		"MKT_WEBHOOK_URL":               os.Getenv("MKT_WEBHOOK_URL"),
		"MKT_PAYMENT_SIMULATED_SUCCESS_RATE": os.Getenv("MKT_PAYMENT_SIMULATED_SUCCESS_RATE"),
		"MKT_TELEMETRY_ENABLED":         os.Getenv("MKT_TELEMETRY_ENABLED"),
		"MKT_TELEMETRY_SAMPLING_RATIO":  os.Getenv("MKT_TELEMETRY_SAMPLING_RATIO"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "marketplace-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "marketplace", cfg.Database.DBName)
		assert.Equal(t, 0.05, cfg.Commission.StandardRate)
		assert.Equal(t, 0.03, cfg.Commission.PremiumRate)
		assert.Equal(t, 0.02, cfg.Commission.PromotionalRate)
		assert.Equal(t, 0.04, cfg.Commission.CategoryBasedRate)
		assert.Equal(t, float64(100), cfg.Transaction.MinAmount)
		assert.Equal(t, float64(10_000_000), cfg.Transaction.MaxAmount)
		assert.Equal(t, 0.95, cfg.Payment.SimulatedSuccessRate)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, "localhost:4317", cfg.Telemetry.CollectorEndpoint)
		assert.Equal(t, 1.0, cfg.Telemetry.SamplingRatio)
		assert.False(t, cfg.IsProduction())
	})

	t.Run("loads values from environment variables with MKT prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("MKT_APP_NAME", "test-app")
		os.Setenv("MKT_APP_PORT", "9000")
		os.Setenv("MKT_DATABASE_HOST", "testdb.local")
		os.Setenv("MKT_DATABASE_PORT", "5433")
		os.Setenv("MKT_COMMISSION_STANDARD_RATE", "0.08")
		os.Setenv("MKT_TRANSACTION_MIN_AMOUNT", "500")
		os.Setenv("MKT_INTEGRITY_ENABLED", "true")
		os.Setenv("MKT_INTEGRITY_SECRET", "a-secret-for-testing")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 0.08, cfg.Commission.StandardRate)
		assert.Equal(t, float64(500), cfg.Transaction.MinAmount)
		assert.True(t, cfg.Integrity.Enabled)
		assert.Equal(t, "a-secret-for-testing", cfg.Integrity.Secret)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("MKT_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("MKT_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
	})

	t.Run("rejects commission rate above 1", func(t *testing.T) {
		clearEnv()
		os.Setenv("MKT_COMMISSION_STANDARD_RATE", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "commission.standard_rate")
	})

	t.Run("rejects max amount below min amount", func(t *testing.T) {
		clearEnv()
		os.Setenv("MKT_TRANSACTION_MIN_AMOUNT", "5000")
		os.Setenv("MKT_TRANSACTION_MAX_AMOUNT", "1000")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "transaction.max_amount")
	})

	t.Run("rejects sampling ratio above 1", func(t *testing.T) {
		clearEnv()
		os.Setenv("MKT_TELEMETRY_SAMPLING_RATIO", "1.5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "telemetry.sampling_ratio")
	})

	t.Run("production requires integrity secret", func(t *testing.T) {
		clearEnv()
		os.Setenv("MKT_APP_ENV", "production")
		os.Setenv("MKT_DATABASE_PASSWORD", "prodpass")
		os.Setenv("MKT_DATABASE_SSLMODE", "require")
		os.Setenv("MKT_INTEGRITY_ENABLED", "true")
		os.Setenv("MKT_INTEGRITY_SECRET", "too-short")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "integrity.secret")
	})

	t.Run("production requires https webhook url", func(t *testing.T) {
		clearEnv()
		os.Setenv("MKT_APP_ENV", "production")
		os.Setenv("MKT_DATABASE_PASSWORD", "prodpass")
		os.Setenv("MKT_DATABASE_SSLMODE", "require")
		os.Setenv("MKT_INTEGRITY_ENABLED", "true")
		os.Setenv("MKT_INTEGRITY_SECRET", "0123456789abcdef0123456789abcdef")
		os.Setenv("MKT_WEBHOOK_ENABLED", "true")
		os.Setenv("MKT_WEBHOOK_URL", "http://insecure.example.com/hook")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "webhook.url")
	})
}

func TestDatabaseConfigDSN(t *testing.T) {
	d := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "p@ss word",
		DBName:   "marketplace",
		SSLMode:  "disable",
	}

	dsn := d.DSN()
	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "localhost:5432")
	assert.Contains(t, dsn, "sslmode=disable")
	// Special characters in the password must be escaped
	assert.NotContains(t, dsn, "p@ss word")
}

func TestRedisConfigAddr(t *testing.T) {
	r := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", r.Addr())
}
