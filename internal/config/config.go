package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/fundlock/escrow-ledger/internal/domain"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// NATSConfig holds NATS JetStream configuration for audit event publishing
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"`
	APIKeys      []string `mapstructure:"api_keys"`
}

// PolicyConfig holds the ledger guard-rail policy. These values are fixed at
// deployment; none of them are mutable through the API.
type PolicyConfig struct {
	MinAmount        uint64        `mapstructure:"min_amount"`
	MaxAmount        uint64        `mapstructure:"max_amount"`
	MinFundingPeriod time.Duration `mapstructure:"min_funding_period"`
	MaxFundingPeriod time.Duration `mapstructure:"max_funding_period"`
	CoolingPeriod    time.Duration `mapstructure:"cooling_period"`
	RateLimitWindow  time.Duration `mapstructure:"rate_limit_window"`
	RateLimitMaxOps  int           `mapstructure:"rate_limit_max_ops"`
	MaxInvestments   int           `mapstructure:"max_investments"`
	EmergencyDelay   time.Duration `mapstructure:"emergency_delay"`
	FeePercent       uint64        `mapstructure:"fee_percent"`

	AdminAccount domain.AccountID `mapstructure:"admin_account"`
	FeeCollector domain.AccountID `mapstructure:"fee_collector"`
}

// Fee returns the flat creation fee for the given amount, rounded down.
// Dividing first keeps the arithmetic exact without overflowing for amounts
// near the top of the uint64 range.
func (p PolicyConfig) Fee(amount uint64) uint64 {
	q, r := amount/100, amount%100
	return q*p.FeePercent + r*p.FeePercent/100
}

// APIConfig holds configuration for the API server binary
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Policy     PolicyConfig   `mapstructure:"policy"`
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "LEDGER_AUDIT")
	v.SetDefault("nats.connection_name", "escrow-ledger-api")
	v.SetDefault("policy.min_amount", 1)
	v.SetDefault("policy.max_amount", 1_000_000_000)
	v.SetDefault("policy.min_funding_period", "1h")
	v.SetDefault("policy.max_funding_period", "8760h") // 1 year
	v.SetDefault("policy.cooling_period", "24h")
	v.SetDefault("policy.rate_limit_window", "1h")
	v.SetDefault("policy.rate_limit_max_ops", 10)
	v.SetDefault("policy.max_investments", 100)
	v.SetDefault("policy.emergency_delay", "48h")
	v.SetDefault("policy.fee_percent", 1)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Policy.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks the policy for values that would make every operation fail.
func (p PolicyConfig) Validate() error {
	if p.MinAmount == 0 || p.MaxAmount < p.MinAmount {
		return errors.New("policy: amount bounds are invalid")
	}
	if p.MinFundingPeriod <= 0 || p.MaxFundingPeriod < p.MinFundingPeriod {
		return errors.New("policy: funding period bounds are invalid")
	}
	if p.RateLimitWindow <= 0 || p.RateLimitMaxOps <= 0 {
		return errors.New("policy: rate limit settings are invalid")
	}
	if p.FeePercent > 100 {
		return errors.New("policy: fee_percent must be at most 100")
	}
	if !p.AdminAccount.Valid() {
		return errors.New("policy: admin_account is required")
	}
	if !p.FeeCollector.Valid() {
		return errors.New("policy: fee_collector is required")
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("ESCROW_LEDGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// This is required for viper to map env vars to config struct fields when no config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Policy
		"policy.min_amount",
		"policy.max_amount",
		"policy.min_funding_period",
		"policy.max_funding_period",
		"policy.cooling_period",
		"policy.rate_limit_window",
		"policy.rate_limit_max_ops",
		"policy.max_investments",
		"policy.emergency_delay",
		"policy.fee_percent",
		"policy.admin_account",
		"policy.fee_collector",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
