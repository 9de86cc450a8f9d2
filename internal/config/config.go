package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendMemory   = "memory"
	BackendSheets   = "sheets"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	Auth       AuthConfig       `yaml:"auth"`
	Store      StoreConfig      `yaml:"store"`
	Sheets     SheetsConfig     `yaml:"sheets"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Cache      CacheConfig      `yaml:"cache"`
	Redis      RedisConfig      `yaml:"redis"`
	BGG        BGGConfig        `yaml:"bgg"`
	Collection CollectionConfig `yaml:"collection"`
	Sync       SyncConfig       `yaml:"sync"`
	Kafka      KafkaConfig      `yaml:"kafka"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	SyncRateLimit   int           `yaml:"sync_rate_limit"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// AuthConfig holds bearer token verification settings
type AuthConfig struct {
	JWTSecret     string `yaml:"jwt_secret"`
	Issuer        string `yaml:"issuer"`
	Disabled      bool   `yaml:"disabled"`
	LocalIdentity string `yaml:"local_identity"`
}

// StoreConfig selects the tabular store backend
type StoreConfig struct {
	Backend string `yaml:"backend"`
}

// SheetsConfig holds Google Sheets access settings
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	CredentialsFile string `yaml:"credentials_file"`
	ClientEmail     string `yaml:"client_email"`
	PrivateKey      string `yaml:"private_key"`
	PlaysSheet      string `yaml:"plays_sheet"`
	GamesSheet      string `yaml:"games_sheet"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// CacheConfig holds read-through cache configuration
type CacheConfig struct {
	Backend string        `yaml:"backend"`
	TTL     time.Duration `yaml:"ttl"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	KeyPrefix    string        `yaml:"key_prefix"`
}

// BGGConfig holds BoardGameGeek API configuration
type BGGConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Token     string        `yaml:"token"`
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	// SyncDelay spaces lookups during a collection sync. Unset means 400ms;
	// a negative value turns pacing off.
	SyncDelay time.Duration `yaml:"sync_delay"`
	Breaker   BreakerConfig `yaml:"breaker"`
}

// BreakerConfig holds circuit breaker thresholds
type BreakerConfig struct {
	MaxRequests  uint32        `yaml:"max_requests"`
	Interval     time.Duration `yaml:"interval"`
	Timeout      time.Duration `yaml:"timeout"`
	MinRequests  uint32        `yaml:"min_requests"`
	FailureRatio float64       `yaml:"failure_ratio"`
}

// CollectionConfig holds collection paging bounds
type CollectionConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// SyncConfig holds collection sync worker configuration
type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
	Enabled  bool          `yaml:"enabled"`
}

// KafkaConfig holds Kafka connection configuration
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	GroupID string   `yaml:"group_id"`
	Enabled bool     `yaml:"enabled"`
}

// LoadDotEnv loads variables from the given .env files into the process
// environment. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("loading %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	return Parse(data)
}

// Parse decodes YAML configuration after environment expansion
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// Collection sync runs inside the request
		c.Server.WriteTimeout = 5 * time.Minute
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.SyncRateLimit == 0 {
		c.Server.SyncRateLimit = 2
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Auth.LocalIdentity == "" {
		c.Auth.LocalIdentity = "local@playlog"
	}

	if c.Store.Backend == "" {
		c.Store.Backend = BackendMemory
	}

	// Sheets defaults
	if c.Sheets.PlaysSheet == "" {
		c.Sheets.PlaysSheet = "plays"
	}
	if c.Sheets.GamesSheet == "" {
		c.Sheets.GamesSheet = "games"
	}
	// Keys pasted through env vars carry literal \n sequences
	c.Sheets.PrivateKey = strings.ReplaceAll(c.Sheets.PrivateKey, `\n`, "\n")

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 10
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 1
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Cache defaults
	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendMemory
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 60 * time.Minute
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 2
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = "playlog:cache:"
	}

	// BGG defaults
	if c.BGG.BaseURL == "" {
		c.BGG.BaseURL = "https://boardgamegeek.com/xmlapi2"
	}
	if c.BGG.UserAgent == "" {
		c.BGG.UserAgent = "Mozilla/5.0 (compatible; playlog/1.0)"
	}
	if c.BGG.Timeout == 0 {
		c.BGG.Timeout = 15 * time.Second
	}
	if c.BGG.SyncDelay == 0 {
		c.BGG.SyncDelay = 400 * time.Millisecond
	}
	if c.BGG.Breaker.MaxRequests == 0 {
		c.BGG.Breaker.MaxRequests = 1
	}
	if c.BGG.Breaker.Interval == 0 {
		c.BGG.Breaker.Interval = time.Minute
	}
	if c.BGG.Breaker.Timeout == 0 {
		c.BGG.Breaker.Timeout = 30 * time.Second
	}
	if c.BGG.Breaker.MinRequests == 0 {
		c.BGG.Breaker.MinRequests = 5
	}
	if c.BGG.Breaker.FailureRatio == 0 {
		c.BGG.Breaker.FailureRatio = 0.6
	}

	// Collection defaults
	if c.Collection.DefaultLimit == 0 {
		c.Collection.DefaultLimit = 5
	}
	if c.Collection.MaxLimit == 0 {
		c.Collection.MaxLimit = 10
	}

	// Sync defaults
	if c.Sync.Interval == 0 {
		c.Sync.Interval = 24 * time.Hour
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "playlog-plays"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "playlog-consumer"
	}
}

// Validate checks backend specific required settings
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendMemory, BackendPostgres:
	case BackendSheets:
		if c.Sheets.SpreadsheetID == "" {
			errs = append(errs, errors.New("sheets.spreadsheet_id is required"))
		}
		if c.Sheets.CredentialsFile == "" && (c.Sheets.ClientEmail == "" || c.Sheets.PrivateKey == "") {
			errs = append(errs, errors.New("sheets.credentials_file or sheets.client_email and sheets.private_key are required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.backend %q", c.Store.Backend))
	}

	switch c.Cache.Backend {
	case BackendMemory, BackendRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown cache.backend %q", c.Cache.Backend))
	}

	if !c.Auth.Disabled && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required unless auth.disabled is set"))
	}

	if c.Collection.DefaultLimit > c.Collection.MaxLimit {
		errs = append(errs, errors.New("collection.default_limit exceeds collection.max_limit"))
	}

	return errors.Join(errs...)
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Auth.Disabled = true
	cfg.applyDefaults()
	return cfg
}
