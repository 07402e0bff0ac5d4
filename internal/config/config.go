// Package config loads settings of the client and the reference server.
//
// Sources are applied in order: built-in defaults, an optional YAML file,
// a .env file, POSYNC_* environment variables. Command line flags are
// applied by cmd/* on top of the result, then Validate is called.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvPrefix префикс переменных окружения
const EnvPrefix = "POSYNC_"

// Config полная конфигурация процесса
type Config struct {
	Client  ClientConfig  `yaml:"client"`
	Log     LogConfig     `yaml:"log"`
	Archive ArchiveConfig `yaml:"archive"`
	Cache   CacheConfig   `yaml:"cache"`
	Server  ServerConfig  `yaml:"server"`
	Metrics MetricsConfig `yaml:"metrics"`
	Sync    SyncConfig    `yaml:"sync"`
	Breaker BreakerConfig `yaml:"breaker"`
}

// ClientConfig настройки устройства
type ClientConfig struct {
	ServerURL string `yaml:"server_url" validate:"required,url"`
	DBPath    string `yaml:"db_path" validate:"required"`
	StoreID   string `yaml:"store_id"`
}

// SyncConfig настройки планировщика и outbox
type SyncConfig struct {
	Interval          time.Duration `yaml:"interval" validate:"gt=0"`
	BackoffBase       time.Duration `yaml:"backoff_base" validate:"gt=0"`
	BackoffMax        time.Duration `yaml:"backoff_max" validate:"gtefield=BackoffBase"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier" validate:"gte=1"`
	BatchSize         int           `yaml:"batch_size" validate:"gt=0,lte=1000"`
	PullLimit         int           `yaml:"pull_limit" validate:"gt=0,lte=5000"`
}

// BreakerConfig настройки circuit breaker
type BreakerConfig struct {
	Timeout          time.Duration `yaml:"timeout" validate:"gt=0"`
	FailureThreshold int           `yaml:"failure_threshold" validate:"gt=0"`
	SuccessThreshold int           `yaml:"success_threshold" validate:"gt=0"`
}

// Типы долговременного уровня кэша
const (
	CacheBackendBolt  = "bolt"
	CacheBackendRedis = "redis"
)

// CacheConfig настройки многоуровневого кэша
type CacheConfig struct {
	Backend       string        `yaml:"backend" validate:"oneof=bolt redis"`
	RedisAddr     string        `yaml:"redis_addr" validate:"required_if=Backend redis"`
	RedisPrefix   string        `yaml:"redis_prefix"`
	MemoryTTL     time.Duration `yaml:"memory_ttl" validate:"gt=0"`
	DurableTTL    time.Duration `yaml:"durable_ttl" validate:"gt=0"`
	SweepInterval time.Duration `yaml:"sweep_interval" validate:"gt=0"`
	MaxEntries    int           `yaml:"max_entries" validate:"gt=0"`
	RedisDB       int           `yaml:"redis_db" validate:"gte=0"`
}

// ArchiveConfig настройки выгрузки синхронизированных событий в S3
type ArchiveConfig struct {
	Bucket          string        `yaml:"bucket" validate:"required_if=Enabled true"`
	Region          string        `yaml:"region"`
	Endpoint        string        `yaml:"endpoint" validate:"omitempty,url"`
	Prefix          string        `yaml:"prefix"`
	AccessKeyID     string        `yaml:"access_key_id"`
	SecretAccessKey string        `yaml:"secret_access_key"`
	Passphrase      string        `yaml:"passphrase"` // пусто - архив не шифруется
	Retention       time.Duration `yaml:"retention" validate:"gte=0"`
	Enabled         bool          `yaml:"enabled"`
	UsePathStyle    bool          `yaml:"use_path_style"`
}

// MetricsConfig адрес /metrics демона
type MetricsConfig struct {
	Addr string `yaml:"addr" validate:"omitempty,hostname_port"`
}

// ServerConfig настройки эталонного сервера
type ServerConfig struct {
	Addr           string        `yaml:"addr" validate:"required,hostname_port"`
	DBPath         string        `yaml:"db_path" validate:"required"`
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl" validate:"gt=0"`
	RateLimit      int           `yaml:"rate_limit" validate:"gte=0"` // запросов в минуту на IP, 0 - без ограничения
	MaxBatchEvents int           `yaml:"max_batch_events" validate:"gt=0"`
	DBBusyTimeout  time.Duration `yaml:"db_busy_timeout" validate:"gte=0"`
	DBMaxConns     int           `yaml:"db_max_conns" validate:"gte=1"`
}

// LogConfig настройки slog
type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Default возвращает конфигурацию по умолчанию
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			ServerURL: "http://localhost:8080",
			DBPath:    "posync-client.db",
		},
		Sync: SyncConfig{
			Interval:          30 * time.Second,
			BackoffBase:       5 * time.Second,
			BackoffMax:        10 * time.Minute,
			BackoffMultiplier: 2,
			BatchSize:         100,
			PullLimit:         500,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          30 * time.Second,
		},
		Cache: CacheConfig{
			Backend:       CacheBackendBolt,
			RedisPrefix:   "posync:",
			MemoryTTL:     5 * time.Minute,
			DurableTTL:    30 * 24 * time.Hour,
			SweepInterval: time.Minute,
			MaxEntries:    1000,
		},
		Archive: ArchiveConfig{
			Region:    "us-east-1",
			Prefix:    "posync/",
			Retention: 7 * 24 * time.Hour,
		},
		Metrics: MetricsConfig{
			Addr: "127.0.0.1:9464",
		},
		Server: ServerConfig{
			Addr:           ":8080",
			DBPath:         "posync-server.db",
			TokenTTL:       365 * 24 * time.Hour,
			RateLimit:      600,
			MaxBatchEvents: 1000,
			DBBusyTimeout:  5 * time.Second,
			DBMaxConns:     4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load читает YAML файл (если path не пуст), затем .env и переменные окружения.
// Отсутствующий .env не является ошибкой.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate проверяет конфигурацию после применения всех источников
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	e := envReader{lookup: lookup}

	e.str("SERVER_URL", &c.Client.ServerURL)
	e.str("DB_PATH", &c.Client.DBPath)
	e.str("STORE_ID", &c.Client.StoreID)

	e.duration("SYNC_INTERVAL", &c.Sync.Interval)
	e.duration("SYNC_BACKOFF_BASE", &c.Sync.BackoffBase)
	e.duration("SYNC_BACKOFF_MAX", &c.Sync.BackoffMax)
	e.float("SYNC_BACKOFF_MULTIPLIER", &c.Sync.BackoffMultiplier)
	e.integer("SYNC_BATCH_SIZE", &c.Sync.BatchSize)
	e.integer("SYNC_PULL_LIMIT", &c.Sync.PullLimit)

	e.integer("BREAKER_FAILURE_THRESHOLD", &c.Breaker.FailureThreshold)
	e.integer("BREAKER_SUCCESS_THRESHOLD", &c.Breaker.SuccessThreshold)
	e.duration("BREAKER_TIMEOUT", &c.Breaker.Timeout)

	e.str("CACHE_BACKEND", &c.Cache.Backend)
	e.str("CACHE_REDIS_ADDR", &c.Cache.RedisAddr)
	e.integer("CACHE_REDIS_DB", &c.Cache.RedisDB)
	e.duration("CACHE_MEMORY_TTL", &c.Cache.MemoryTTL)
	e.duration("CACHE_DURABLE_TTL", &c.Cache.DurableTTL)
	e.integer("CACHE_MAX_ENTRIES", &c.Cache.MaxEntries)

	e.boolean("ARCHIVE_ENABLED", &c.Archive.Enabled)
	e.str("ARCHIVE_BUCKET", &c.Archive.Bucket)
	e.str("ARCHIVE_REGION", &c.Archive.Region)
	e.str("ARCHIVE_ENDPOINT", &c.Archive.Endpoint)
	e.str("ARCHIVE_PREFIX", &c.Archive.Prefix)
	e.str("ARCHIVE_ACCESS_KEY_ID", &c.Archive.AccessKeyID)
	e.str("ARCHIVE_SECRET_ACCESS_KEY", &c.Archive.SecretAccessKey)
	e.str("ARCHIVE_PASSPHRASE", &c.Archive.Passphrase)
	e.duration("ARCHIVE_RETENTION", &c.Archive.Retention)
	e.boolean("ARCHIVE_USE_PATH_STYLE", &c.Archive.UsePathStyle)

	e.str("METRICS_ADDR", &c.Metrics.Addr)

	e.str("SERVER_ADDR", &c.Server.Addr)
	e.str("SERVER_DB_PATH", &c.Server.DBPath)
	e.str("JWT_SECRET", &c.Server.JWTSecret)
	e.duration("TOKEN_TTL", &c.Server.TokenTTL)
	e.integer("RATE_LIMIT", &c.Server.RateLimit)
	e.integer("MAX_BATCH_EVENTS", &c.Server.MaxBatchEvents)
	e.duration("SERVER_DB_BUSY_TIMEOUT", &c.Server.DBBusyTimeout)
	e.integer("SERVER_DB_MAX_CONNS", &c.Server.DBMaxConns)

	e.str("LOG_LEVEL", &c.Log.Level)
	e.str("LOG_FORMAT", &c.Log.Format)

	return errors.Join(e.errs...)
}

// envReader собирает ошибки разбора, чтобы сообщить обо всех сразу
type envReader struct {
	lookup lookupFunc
	errs   []error
}

func (e *envReader) get(name string) (string, bool) {
	v, ok := e.lookup(EnvPrefix + name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

func (e *envReader) str(name string, dst *string) {
	if v, ok := e.get(name); ok {
		*dst = v
	}
}

func (e *envReader) integer(name string, dst *int) {
	if v, ok := e.get(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) float(name string, dst *float64) {
	if v, ok := e.get(name); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = f
	}
}

func (e *envReader) duration(name string, dst *time.Duration) {
	if v, ok := e.get(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = d
	}
}

func (e *envReader) boolean(name string, dst *bool) {
	if v, ok := e.get(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err))
			return
		}
		*dst = b
	}
}
