package config

const (
	EnvPrefix = "PORTAL"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	DefaultSQLiteDSN = "file:database.db?_busy_timeout=5000&_journal_mode=WAL"
)

const (
	EnvAppEnv      = "PORTAL_APP_ENV"
	EnvPort        = "PORTAL_APP_PORT"
	EnvLogLevel    = "PORTAL_LOG_LEVEL"
	EnvDBDriver    = "PORTAL_DB_DRIVER"
	EnvDBDSN       = "PORTAL_DB_DSN"
	EnvDBHost      = "PORTAL_DB_HOST"
	EnvDBUser      = "PORTAL_DB_USER"
	EnvDBName      = "PORTAL_DB_NAME"
	EnvStorageRoot = "PORTAL_STORAGE_ROOT"
	EnvRedisURL    = "PORTAL_REDIS_URL"
	EnvJWTSecret   = "PORTAL_JWT_SECRET"
	EnvJWTIssuer   = "PORTAL_JWT_ISSUER"
	EnvJWTExpMins  = "PORTAL_JWT_EXPIRATION_MINUTES"
	EnvForceShadow = "PORTAL_STORAGE_FORCE_SHADOW"
	EnvOrigins     = "PORTAL_ALLOWED_ORIGINS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
