package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	AES       AESConfig       `mapstructure:"aes"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Merchant  MerchantConfig  `mapstructure:"merchant"`
	Session   SessionConfig   `mapstructure:"session"`
	Events    EventsConfig    `mapstructure:"events"`
	Reconcile ReconcileConfig `mapstructure:"reconcile"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
)

type StorageConfig struct {
	Driver string `mapstructure:"driver"` // memory, postgres
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type RedisConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Password        string        `mapstructure:"password"`
	DB              int           `mapstructure:"db"`
	PoolSize        int           `mapstructure:"pool_size"` // 0 = go-redis default
	DialTimeout     time.Duration `mapstructure:"dial_timeout"`
	ConnectAttempts int           `mapstructure:"connect_attempts"`
}

// Addr returns the Redis address string.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret"`
	Expiry time.Duration `mapstructure:"expiry"`
	Issuer string        `mapstructure:"issuer"`
}

type AESConfig struct {
	Key string `mapstructure:"key"` // 32-byte hex-encoded key for AES-256
}

// AdminConfig is the single operator account. The password is hashed at startup.
type AdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type MerchantConfig struct {
	MonthlyFee string `mapstructure:"monthly_fee"` // decimal string, e.g. "25.00"
}

// Fee parses MonthlyFee. Negative fees and more than two decimals are rejected.
func (m MerchantConfig) Fee() (decimal.Decimal, error) {
	fee, err := decimal.NewFromString(strings.TrimSpace(m.MonthlyFee))
	if err != nil {
		return decimal.Zero, fmt.Errorf("merchant.monthly_fee %q: %w", m.MonthlyFee, err)
	}
	if fee.IsNegative() || !fee.Equal(fee.Truncate(2)) {
		return decimal.Zero, fmt.Errorf("merchant.monthly_fee %q must be a non-negative amount with at most 2 decimals", m.MonthlyFee)
	}
	return fee, nil
}

type SessionConfig struct {
	// TTL bounds how long a merchant's current-transaction slot survives in Redis.
	TTL time.Duration `mapstructure:"ttl"`
}

type EventsConfig struct {
	AMQPURL       string `mapstructure:"amqp_url"` // empty disables RabbitMQ publishing
	Exchange      string `mapstructure:"exchange"`
	SigningSecret string `mapstructure:"signing_secret"`
}

type ReconcileConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"` // cron spec, e.g. "@every 5m"
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// defaults apply when neither the config file nor the environment sets a key.
var defaults = map[string]interface{}{
	"server.host":                "0.0.0.0",
	"server.port":                8080,
	"server.mode":                "debug",
	"storage.driver":             DriverMemory,
	"database.host":              "localhost",
	"database.port":              5432,
	"database.user":              "postgres",
	"database.password":          "postgres",
	"database.dbname":            "change_aggregator",
	"database.sslmode":           "disable",
	"database.max_conns":         20,
	"database.min_conns":         5,
	"database.conn_max_lifetime": "30m",
	"redis.enabled":              false,
	"redis.host":                 "localhost",
	"redis.port":                 6379,
	"redis.password":             "",
	"redis.db":                   0,
	"redis.pool_size":            0,
	"redis.dial_timeout":         "5s",
	"redis.connect_attempts":     3,
	"jwt.secret":                 "",
	"jwt.expiry":                 "24h",
	"jwt.issuer":                 "change-aggregator",
	"aes.key":                    "",
	"admin.username":             "admin",
	"admin.password":             "",
	"merchant.monthly_fee":       "25.00",
	"session.ttl":                "12h",
	"events.amqp_url":            "",
	"events.exchange":            "change_events",
	"events.signing_secret":      "",
	"reconcile.enabled":          true,
	"reconcile.schedule":         "@every 5m",
	"log.level":                  "info",
	"log.pretty":                 false,
}

// Load merges defaults, an optional YAML file and CAG_* environment
// variables, in increasing precedence. Nested keys map to env names with
// underscores: database.host is CAG_DATABASE_HOST.
//
// With an empty path, config.yaml is looked up in . and ./config and may be
// absent. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("CAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverPostgres && c.AES.Key == "" {
		return errors.New("aes.key is required with the postgres driver")
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("jwt.expiry must be positive, got %s", c.JWT.Expiry)
	}
	if _, err := c.Merchant.Fee(); err != nil {
		return err
	}
	return nil
}
