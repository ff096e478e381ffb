package config

import "time"

const EnvPrefix = "CAMPUSMARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
	StorageDriverRedis    = "redis"
	StorageDriverMemory   = "memory"
)

// DefaultRequestTimeout bounds every backend call.
const DefaultRequestTimeout = 10 * time.Second

const (
	EnvAppEnv            = "CAMPUSMARKET_APP_ENV"
	EnvPort              = "CAMPUSMARKET_APP_PORT"
	EnvLogLevel          = "CAMPUSMARKET_LOG_LEVEL"
	EnvAPIBaseURL        = "CAMPUSMARKET_API_BASE_URL"
	EnvAPIRequestTimeout = "CAMPUSMARKET_API_REQUEST_TIMEOUT"
	EnvStorageDriver     = "CAMPUSMARKET_STORAGE_DRIVER"
	EnvStorageSQLitePath = "CAMPUSMARKET_STORAGE_SQLITE_PATH"
	EnvStorageDSN        = "CAMPUSMARKET_STORAGE_DSN"
	EnvRedisURL          = "CAMPUSMARKET_REDIS_URL"
	EnvFeedPageSize      = "CAMPUSMARKET_FEED_PAGE_SIZE"
	EnvMaxImages         = "CAMPUSMARKET_PUBLICATION_MAX_IMAGES"
)
