package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MAILSVC_DATABASE_PASSWORD
const EnvPrefix = "MAILSVC"

// Config is the whole service configuration
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Log       LogConfig       `mapstructure:"log"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Mail      MailConfig      `mapstructure:"mail"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres or sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	SSLMode         string `mapstructure:"sslmode"`
	SQLitePath      string `mapstructure:"sqlite_path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN renders a postgres URL with user and password escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}

// CacheConfig selects the thread cache backend
type CacheConfig struct {
	Backend   string        `mapstructure:"backend"` // memory or redis
	TTL       time.Duration `mapstructure:"ttl"`
	KeyPrefix string        `mapstructure:"key_prefix"`
}

type JWTConfig struct {
	Secret                 string        `mapstructure:"secret"`
	RefreshSecret          string        `mapstructure:"refresh_secret"`
	AccessTokenExpiration  time.Duration `mapstructure:"access_token_expiration"`
	RefreshTokenExpiration time.Duration `mapstructure:"refresh_token_expiration"`
	Issuer                 string        `mapstructure:"issuer"`
}

type HTTPConfig struct {
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	IdleTimeout      time.Duration `mapstructure:"idle_timeout"`
	MaxHeaderBytes   int           `mapstructure:"max_header_bytes"`
	MaxBodySize      int64         `mapstructure:"max_body_size"`
	CORSAllowOrigins []string      `mapstructure:"cors_allow_origins"`
	CORSAllowMethods []string      `mapstructure:"cors_allow_methods"`
	CORSAllowHeaders []string      `mapstructure:"cors_allow_headers"`
	TrustedProxies   []string      `mapstructure:"trusted_proxies"`
}

// MailConfig seeds the messaging defaults and the bootstrap records
type MailConfig struct {
	Hostname       string `mapstructure:"hostname"`        // right side of generated Message-Id values
	CatchallDomain string `mapstructure:"catchall_domain"` // seeds mail.catchall.domain
	CatchallAlias  string `mapstructure:"catchall_alias"`  // seeds mail.catchall.alias
	CompanyName    string `mapstructure:"company_name"`
	AdminLogin     string `mapstructure:"admin_login"`
	AdminPassword  string `mapstructure:"admin_password"`
	AdminEmail     string `mapstructure:"admin_email"`
}

// StorageConfig holds the attachment store settings
type StorageConfig struct {
	Backend         string        `mapstructure:"backend"` // memory or s3
	Bucket          string        `mapstructure:"bucket"`
	Region          string        `mapstructure:"region"`
	Endpoint        string        `mapstructure:"endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	UsePathStyle    bool          `mapstructure:"use_path_style"`
	PresignExpiry   time.Duration `mapstructure:"presign_expiry"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	LogsEnabled       bool          `mapstructure:"logs_enabled"`
	MetricsEnabled    bool          `mapstructure:"metrics_enabled"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	DBSlowQueryThresh time.Duration `mapstructure:"db_slow_query_threshold"`

	ProfilingEnabled           bool   `mapstructure:"profiling_enabled"`
	ProfilingServerAddress     string `mapstructure:"profiling_server_address"`
	ProfilingBasicAuthUser     string `mapstructure:"profiling_basic_auth_user"`
	ProfilingBasicAuthPassword string `mapstructure:"profiling_basic_auth_password"`
}

// defaults lists every key. Viper only maps environment variables onto
// keys it knows, so keys without a useful default are listed empty.
func defaults() map[string]any {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "localhost"
	}
	return map[string]any{
		"app.name": "messaging",
		"app.env":  "development",
		"app.port": "8080",

		"database.driver":             "postgres",
		"database.host":               "localhost",
		"database.port":               5432,
		"database.user":               "postgres",
		"database.password":           "",
		"database.dbname":             "messaging",
		"database.sslmode":            "disable",
		"database.sqlite_path":        "messaging.db",
		"database.max_open_conns":     25,
		"database.max_idle_conns":     5,
		"database.conn_max_lifetime":  60,
		"database.conn_max_idle_time": 30,

		"redis.host":     "localhost",
		"redis.port":     6379,
		"redis.password": "",
		"redis.db":       0,

		"cache.backend":    "memory",
		"cache.ttl":        10 * time.Minute,
		"cache.key_prefix": "mail:thread:",

		"jwt.secret":                   "",
		"jwt.refresh_secret":           "",
		"jwt.access_token_expiration":  15 * time.Minute,
		"jwt.refresh_token_expiration": 7 * 24 * time.Hour,
		"jwt.issuer":                   "messaging",

		"log.level":  "info",
		"log.format": "console",
		"log.output": "stdout",

		"http.read_timeout":     15 * time.Second,
		"http.write_timeout":    15 * time.Second,
		"http.idle_timeout":     time.Minute,
		"http.max_header_bytes": 1 << 20,
		"http.max_body_size":    int64(25 << 20), // attachments travel in the body
		// no cross-origin access until origins are configured
		"http.cors_allow_origins": []string{},
		"http.cors_allow_methods": []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID"},
		"http.trusted_proxies":    []string{},

		"mail.hostname":        host,
		"mail.catchall_domain": "",
		"mail.catchall_alias":  "",
		"mail.company_name":    "YourCompany",
		"mail.admin_login":     "admin",
		"mail.admin_password":  "",
		"mail.admin_email":     "admin@example.com",

		"storage.backend":           "memory",
		"storage.bucket":            "",
		"storage.region":            "us-east-1",
		"storage.endpoint":          "",
		"storage.access_key_id":     "",
		"storage.secret_access_key": "",
		"storage.use_path_style":    false,
		"storage.presign_expiry":    15 * time.Minute,

		"telemetry.enabled":                 false,
		"telemetry.collector_endpoint":      "localhost:4317",
		"telemetry.sampling_ratio":          1.0,
		"telemetry.service_name":            "messaging",
		"telemetry.insecure":                false,
		"telemetry.logs_enabled":            false,
		"telemetry.metrics_enabled":         false,
		"telemetry.metrics_interval":        time.Minute,
		"telemetry.db_trace_enabled":        false,
		"telemetry.db_log_full_sql":         false,
		"telemetry.db_slow_query_threshold": 200 * time.Millisecond,

		"telemetry.profiling_enabled":             false,
		"telemetry.profiling_server_address":      "http://localhost:4040",
		"telemetry.profiling_basic_auth_user":     "",
		"telemetry.profiling_basic_auth_password": "",
	}
}

// Load reads config.toml from the working directory, /app or
// $MAILSVC_CONFIG_PATH, then applies MAILSVC_* environment overrides on
// top. A missing file is fine.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults() {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	if dir := os.Getenv(EnvPrefix + "_CONFIG_PATH"); dir != "" {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once
func (c *Config) Validate() error {
	var errs []error
	bad := func(format string, args ...any) { errs = append(errs, fmt.Errorf(format, args...)) }

	if !slices.Contains([]string{"postgres", "sqlite"}, c.Database.Driver) {
		bad("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.MaxOpenConns <= 0 {
		bad("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		bad("database.max_idle_conns cannot be negative")
	} else if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		bad("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if !slices.Contains([]string{"memory", "redis"}, c.Cache.Backend) {
		bad("cache.backend must be memory or redis, got %q", c.Cache.Backend)
	}
	switch c.Storage.Backend {
	case "memory":
	case "s3":
		if c.Storage.Bucket == "" {
			bad("storage.bucket is required for the s3 backend")
		}
	default:
		bad("storage.backend must be memory or s3, got %q", c.Storage.Backend)
	}
	if r := c.Telemetry.SamplingRatio; r < 0 || r > 1 {
		bad("telemetry.sampling_ratio must be within [0, 1], got %g", r)
	}
	if c.Telemetry.ProfilingEnabled && c.Telemetry.ProfilingServerAddress == "" {
		bad("telemetry.profiling_server_address is required when profiling is enabled")
	}

	if c.App.Env == "production" {
		if len(c.JWT.Secret) < 32 {
			bad("jwt.secret must be at least 32 characters in production")
		}
		if c.Database.Driver != "postgres" {
			bad("database.driver must be postgres in production")
		}
		if c.Database.Password == "" {
			bad("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			bad("database.sslmode cannot be disable in production")
		}
		if slices.Contains(c.HTTP.CORSAllowOrigins, "*") {
			bad("http.cors_allow_origins cannot contain * in production")
		}
		if c.Telemetry.DBLogFullSQL {
			bad("telemetry.db_log_full_sql would put statement values into traces and must be off in production")
		}
	}
	return errors.Join(errs...)
}
