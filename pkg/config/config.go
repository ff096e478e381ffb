package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App         AppConfig
	API         APIConfig
	Storage     StorageConfig
	Redis       RedisConfig
	Cache       CacheConfig
	Feed        FeedConfig
	Publication PublicationConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Storage.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CAMPUSMARKET_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPUSMARKET_APP_PORT" default:"4173"`
	LogLevel     string `envconfig:"CAMPUSMARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPUSMARKET_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"CAMPUSMARKET_LOG_FORMAT" default:"json"`
	CORSOrigins  string `envconfig:"CAMPUSMARKET_CORS_ORIGINS" default:"http://localhost:5173"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// AllowedOrigins splits the comma separated CORS origin list.
func (a AppConfig) AllowedOrigins() []string {
	var out []string
	for _, origin := range strings.Split(a.CORSOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// APIConfig describes the remote marketplace backend this client talks to.
type APIConfig struct {
	BaseURL        string        `envconfig:"CAMPUSMARKET_API_BASE_URL" required:"true"`
	RequestTimeout time.Duration `envconfig:"CAMPUSMARKET_API_REQUEST_TIMEOUT" default:"10s"`
	RateLimitRPS   float64       `envconfig:"CAMPUSMARKET_API_RATE_LIMIT_RPS" default:"0"`
	RateLimitBurst int           `envconfig:"CAMPUSMARKET_API_RATE_LIMIT_BURST" default:"5"`
	UserAgent      string        `envconfig:"CAMPUSMARKET_API_USER_AGENT" default:"campusmarket-client/1.0"`
	LoginPath      string        `envconfig:"CAMPUSMARKET_LOGIN_PATH" default:"/login"`
}

func (a *APIConfig) validate() error {
	parsed, err := url.Parse(strings.TrimSpace(a.BaseURL))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", EnvAPIBaseURL, err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute url", EnvAPIBaseURL)
	}
	a.BaseURL = strings.TrimRight(parsed.String(), "/")
	if a.RequestTimeout <= 0 {
		a.RequestTimeout = DefaultRequestTimeout
	}
	if a.LoginPath == "" {
		a.LoginPath = "/login"
	}
	return nil
}

// StorageConfig selects the durable key-value backend that replaces browser storage.
type StorageConfig struct {
	Driver      string `envconfig:"CAMPUSMARKET_STORAGE_DRIVER" default:"sqlite"`
	SQLitePath  string `envconfig:"CAMPUSMARKET_STORAGE_SQLITE_PATH" default:"campusmarket.db"`
	DSN         string `envconfig:"CAMPUSMARKET_STORAGE_DSN"`
	AutoMigrate bool   `envconfig:"CAMPUSMARKET_STORAGE_AUTO_MIGRATE" default:"true"`

	MaxOpenConns    int           `envconfig:"CAMPUSMARKET_STORAGE_MAX_OPEN_CONNS" default:"4"`
	MaxIdleConns    int           `envconfig:"CAMPUSMARKET_STORAGE_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPUSMARKET_STORAGE_CONN_MAX_LIFETIME" default:"1h"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPUSMARKET_REDIS_URL"`
	Address      string        `envconfig:"CAMPUSMARKET_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPUSMARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPUSMARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPUSMARKET_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"CAMPUSMARKET_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"CAMPUSMARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPUSMARKET_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"CAMPUSMARKET_REDIS_WRITE_TIMEOUT" default:"3s"`
}

type CacheConfig struct {
	FavoritesStaleTime time.Duration `envconfig:"CAMPUSMARKET_CACHE_FAVORITES_STALE_TIME" default:"5m"`
	RatingsStaleTime   time.Duration `envconfig:"CAMPUSMARKET_CACHE_RATINGS_STALE_TIME" default:"1m"`
}

type FeedConfig struct {
	PageSize int `envconfig:"CAMPUSMARKET_FEED_PAGE_SIZE" default:"12"`
}

type PublicationConfig struct {
	MaxImages     int           `envconfig:"CAMPUSMARKET_PUBLICATION_MAX_IMAGES" default:"5"`
	MaxImageBytes int64         `envconfig:"CAMPUSMARKET_PUBLICATION_MAX_IMAGE_BYTES" default:"5242880"`
	RedirectDelay time.Duration `envconfig:"CAMPUSMARKET_PUBLICATION_REDIRECT_DELAY" default:"1500ms"`
}

// NormalizedDriver lowercases the storage driver and falls back to sqlite.
func (s StorageConfig) NormalizedDriver() string {
	driver := strings.ToLower(strings.TrimSpace(s.Driver))
	if driver == "" {
		return StorageDriverSQLite
	}
	return driver
}

func (s *StorageConfig) ensureDSN() error {
	switch s.NormalizedDriver() {
	case StorageDriverSQLite:
		if s.DSN == "" {
			if s.SQLitePath == "" {
				return fmt.Errorf("%s is required for the sqlite driver", EnvStorageSQLitePath)
			}
			s.DSN = fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", s.SQLitePath)
		}
	case StorageDriverPostgres:
		if s.DSN == "" {
			return fmt.Errorf("%s is required for the postgres driver", EnvStorageDSN)
		}
	case StorageDriverRedis, StorageDriverMemory:
	default:
		return fmt.Errorf("unsupported storage driver %q", s.Driver)
	}
	return nil
}
