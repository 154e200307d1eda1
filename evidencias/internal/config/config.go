package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Database backends.
const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds all configuration for the evidencias service
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Carriers  CarriersConfig  `mapstructure:"carriers"`
	Ingestion IngestionConfig `mapstructure:"ingestion"`
	Alerts    AlertsConfig    `mapstructure:"alerts"`
	Redis     RedisConfig     `mapstructure:"redis"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	NATS      NATSConfig      `mapstructure:"nats"`
	Auth      AuthConfig      `mapstructure:"auth"`
	CORS      CORSConfig      `mapstructure:"cors"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects and configures the record store
type DatabaseConfig struct {
	Backend  string         `mapstructure:"backend"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings. URL, when set, takes
// precedence over the individual fields.
type PostgresConfig struct {
	URL             string        `mapstructure:"url"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// ConnString returns the pgx connection string.
func (p PostgresConfig) ConnString() string {
	if p.URL != "" {
		return p.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     fmt.Sprintf("%s:%d", p.Host, p.Port),
		Path:     "/" + p.Database,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

// CarriersConfig locates the operator -> carrier mapping
type CarriersConfig struct {
	File    string         `mapstructure:"file"`
	Entries []CarrierEntry `mapstructure:"entries"`
}

// CarrierEntry maps one operator to their carrier.
type CarrierEntry struct {
	Operador      string `mapstructure:"operador"`
	Permisionario string `mapstructure:"permisionario"`
}

// Inline returns the configured entries as a map. Later entries win.
func (c CarriersConfig) Inline() map[string]string {
	mapping := make(map[string]string, len(c.Entries))
	for _, e := range c.Entries {
		mapping[e.Operador] = e.Permisionario
	}
	return mapping
}

// IngestionConfig holds webhook ingestion settings
type IngestionConfig struct {
	AcceptedMarkers []string `mapstructure:"accepted_markers"`
	MaxBodyBytes    int64    `mapstructure:"max_body_bytes"`
}

// AlertsConfig holds the stale-order alert threshold
type AlertsConfig struct {
	PendingDays int `mapstructure:"pending_days"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// RateLimitConfig holds webhook rate limiting settings
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// NATSConfig holds lifecycle event publishing settings
type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

// AuthConfig holds operator API authentication settings. An empty secret
// leaves the API open.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// CORSConfig holds dashboard CORS settings
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.backend", BackendPostgres)
	v.SetDefault("database.postgres.url", "")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "evidencias")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "evidencias")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.max_conns", 10)
	v.SetDefault("database.postgres.min_conns", 1)
	v.SetDefault("database.postgres.max_conn_lifetime", "1h")
	v.SetDefault("database.postgres.max_conn_idle_time", "30m")

	v.SetDefault("carriers.file", "permisionarios.json")

	v.SetDefault("ingestion.accepted_markers", []string{"STATUS: ENTREGADO"})
	v.SetDefault("ingestion.max_body_bytes", 65536)

	v.SetDefault("alerts.pending_days", 3)

	v.SetDefault("redis.url", "redis://localhost:6379/0")

	v.SetDefault("ratelimit.enabled", false)
	v.SetDefault("ratelimit.requests", 30)
	v.SetDefault("ratelimit.window", "1m")

	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("cors.allowed_origins", []string{})

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/evidencias")
	}

	// Environment variables override, e.g. EVIDENCIAS_SERVER_PORT
	v.SetEnvPrefix("EVIDENCIAS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Database.Backend {
	case BackendPostgres, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("database.backend must be %q or %q, got %q",
			BackendPostgres, BackendMemory, c.Database.Backend))
	}

	for i, e := range c.Carriers.Entries {
		if strings.TrimSpace(e.Operador) == "" {
			errs = append(errs, fmt.Errorf("carriers.entries[%d].operador is empty", i))
		}
	}

	if len(c.Ingestion.AcceptedMarkers) == 0 {
		errs = append(errs, errors.New("ingestion.accepted_markers must not be empty"))
	}
	if c.Ingestion.MaxBodyBytes <= 0 {
		errs = append(errs, fmt.Errorf("ingestion.max_body_bytes must be positive, got %d", c.Ingestion.MaxBodyBytes))
	}

	if c.Alerts.PendingDays <= 0 {
		errs = append(errs, fmt.Errorf("alerts.pending_days must be positive, got %d", c.Alerts.PendingDays))
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 {
			errs = append(errs, fmt.Errorf("ratelimit.requests must be positive, got %d", c.RateLimit.Requests))
		}
		if c.RateLimit.Window < time.Millisecond {
			errs = append(errs, fmt.Errorf("ratelimit.window must be at least 1ms, got %s", c.RateLimit.Window))
		}
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required when ratelimit.enabled"))
		}
	}

	if c.NATS.Enabled && c.NATS.URL == "" {
		errs = append(errs, errors.New("nats.url is required when nats.enabled"))
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
