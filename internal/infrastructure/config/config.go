package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	HTTP        HTTPConfig
	Commission  CommissionConfig
	Transaction TransactionConfig
	Integrity   IntegrityConfig
	Webhook     WebhookConfig
	Payment     PaymentConfig
	Telemetry   TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// CommissionConfig holds commission calculation settings.
// Rates are fractions of the order amount (0.05 = 5%).
type CommissionConfig struct {
	StandardRate        float64
	PremiumRate         float64
	PromotionalRate     float64
	CategoryBasedRate   float64
	BatchConcurrencyMin int // batch size at which calculation goes concurrent
	BatchMaxWorkers     int
}

// TransactionConfig holds settlement transaction settings
type TransactionConfig struct {
	MinAmount float64
	MaxAmount float64
}

// IntegrityConfig holds transaction integrity hashing settings
type IntegrityConfig struct {
	Enabled bool
	Secret  string
}

// WebhookConfig holds outbound webhook notification settings
type WebhookConfig struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

// PaymentConfig holds payment processor settings.
// The simulated success rate only applies outside production.
type PaymentConfig struct {
	SimulatedSuccessRate float64
}

// TelemetryConfig holds OpenTelemetry tracing settings.
// Spans export over OTLP gRPC to the collector endpoint.
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string
	SamplingRatio     float64
	Insecure          bool
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with MKT_ prefix (e.g., MKT_DATABASE_PASSWORD)
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("./backend")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("MKT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:      v.GetDuration("http.read_timeout"),
			WriteTimeout:     v.GetDuration("http.write_timeout"),
			IdleTimeout:      v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
			CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
		},
		Commission: CommissionConfig{
			StandardRate:        v.GetFloat64("commission.standard_rate"),
			PremiumRate:         v.GetFloat64("commission.premium_rate"),
			PromotionalRate:     v.GetFloat64("commission.promotional_rate"),
			CategoryBasedRate:   v.GetFloat64("commission.category_based_rate"),
			BatchConcurrencyMin: v.GetInt("commission.batch_concurrency_min"),
			BatchMaxWorkers:     v.GetInt("commission.batch_max_workers"),
		},
		Transaction: TransactionConfig{
			MinAmount: v.GetFloat64("transaction.min_amount"),
			MaxAmount: v.GetFloat64("transaction.max_amount"),
		},
		Integrity: IntegrityConfig{
			Enabled: v.GetBool("integrity.enabled"),
			Secret:  v.GetString("integrity.secret"),
		},
		Webhook: WebhookConfig{
			Enabled: v.GetBool("webhook.enabled"),
			URL:     v.GetString("webhook.url"),
			Timeout: v.GetDuration("webhook.timeout"),
		},
		Payment: PaymentConfig{
			SimulatedSuccessRate: v.GetFloat64("payment.simulated_success_rate"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			Insecure:          v.GetBool("telemetry.insecure"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "marketplace-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "marketplace"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	// NOTE: CORS origins are intentionally not given a default fallback to "*".
	// An empty list means no cross-origin requests are allowed until explicitly configured.
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}
	if cfg.Commission.StandardRate == 0 {
		cfg.Commission.StandardRate = 0.05
	}
	if cfg.Commission.PremiumRate == 0 {
		cfg.Commission.PremiumRate = 0.03
	}
	if cfg.Commission.PromotionalRate == 0 {
		cfg.Commission.PromotionalRate = 0.02
	}
	if cfg.Commission.CategoryBasedRate == 0 {
		cfg.Commission.CategoryBasedRate = 0.04
	}
	if cfg.Commission.BatchConcurrencyMin == 0 {
		cfg.Commission.BatchConcurrencyMin = 10
	}
	if cfg.Commission.BatchMaxWorkers == 0 {
		cfg.Commission.BatchMaxWorkers = 4
	}
	if cfg.Transaction.MinAmount == 0 {
		cfg.Transaction.MinAmount = 100
	}
	if cfg.Transaction.MaxAmount == 0 {
		cfg.Transaction.MaxAmount = 10_000_000
	}
	if cfg.Webhook.Timeout == 0 {
		cfg.Webhook.Timeout = 5 * time.Second
	}
	if cfg.Payment.SimulatedSuccessRate == 0 {
		cfg.Payment.SimulatedSuccessRate = 0.95
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Transaction.MinAmount <= 0 {
		return fmt.Errorf("transaction.min_amount must be positive")
	}
	if c.Transaction.MaxAmount <= c.Transaction.MinAmount {
		return fmt.Errorf("transaction.max_amount (%.2f) must exceed transaction.min_amount (%.2f)",
			c.Transaction.MaxAmount, c.Transaction.MinAmount)
	}
	for name, rate := range map[string]float64{
		"commission.standard_rate":       c.Commission.StandardRate,
		"commission.premium_rate":        c.Commission.PremiumRate,
		"commission.promotional_rate":    c.Commission.PromotionalRate,
		"commission.category_based_rate": c.Commission.CategoryBasedRate,
	} {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %f", name, rate)
		}
	}
	if c.Payment.SimulatedSuccessRate < 0 || c.Payment.SimulatedSuccessRate > 1 {
		return fmt.Errorf("payment.simulated_success_rate must be between 0 and 1, got %f",
			c.Payment.SimulatedSuccessRate)
	}
	if c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0 and 1, got %f",
			c.Telemetry.SamplingRatio)
	}

	// Production-specific validations
	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if !c.Integrity.Enabled {
			return fmt.Errorf("integrity.enabled must be true in production")
		}
		if len(c.Integrity.Secret) < 32 {
			return fmt.Errorf("integrity.secret must be at least 32 characters in production")
		}
		if c.Webhook.Enabled && !strings.HasPrefix(c.Webhook.URL, "https://") {
			return fmt.Errorf("webhook.url must use https in production")
		}
		for _, origin := range c.HTTP.CORSAllowOrigins {
			if origin == "*" {
				return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
			}
		}
	}

	return nil
}

// IsProduction returns true when running with the production environment profile
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port address for the Redis server
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
