package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Storage       StorageConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Auth          AuthConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Metrics       MetricsConfig
	IDs           IDConfig
	Maintenance   MaintenanceConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if cfg.Storage.Root == "" {
		return nil, fmt.Errorf("%s must not be empty", EnvStorageRoot)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env            string        `envconfig:"PORTAL_APP_ENV" required:"true"`
	Port           string        `envconfig:"PORTAL_APP_PORT" default:"3000"`
	LogLevel       string        `envconfig:"PORTAL_LOG_LEVEL" default:"info"`
	LogWarnStack   bool          `envconfig:"PORTAL_LOG_WARN_STACK" default:"false"`
	LogFile        string        `envconfig:"PORTAL_LOG_FILE"`
	LogMaxAge      time.Duration `envconfig:"PORTAL_LOG_MAX_AGE" default:"168h"`
	AllowedOrigins []string      `envconfig:"PORTAL_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DBConfig points at the registry store. SQLite is the default; Postgres is
// selected with PORTAL_DB_DRIVER=postgres.
type DBConfig struct {
	DSN    string `envconfig:"PORTAL_DB_DSN"`
	Driver string `envconfig:"PORTAL_DB_DRIVER" default:"sqlite"`

	LegacyHost     string `envconfig:"PORTAL_DB_HOST"`
	LegacyPort     int    `envconfig:"PORTAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PORTAL_DB_USER"`
	LegacyPassword string `envconfig:"PORTAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"PORTAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"PORTAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PORTAL_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"PORTAL_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"PORTAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PORTAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

func (db DBConfig) IsPostgres() bool {
	return strings.EqualFold(db.Driver, DriverPostgres)
}

// StorageConfig controls the per-workspace and per-target SQLite files.
type StorageConfig struct {
	Root        string        `envconfig:"PORTAL_STORAGE_ROOT" default:"Workspaces"`
	BusyTimeout time.Duration `envconfig:"PORTAL_STORAGE_BUSY_TIMEOUT" default:"5s"`
	JournalMode string        `envconfig:"PORTAL_STORAGE_JOURNAL_MODE" default:"WAL"`
	ForceShadow bool          `envconfig:"PORTAL_STORAGE_FORCE_SHADOW" default:"false"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PORTAL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PORTAL_REDIS_ADDR"`
	Password     string        `envconfig:"PORTAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"PORTAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PORTAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PORTAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PORTAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PORTAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PORTAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PORTAL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PORTAL_JWT_ISSUER" default:"branding-pirates-portal"`
	ExpirationMinutes      int    `envconfig:"PORTAL_JWT_EXPIRATION_MINUTES" default:"120"`
	RefreshTokenTTLMinutes int    `envconfig:"PORTAL_REFRESH_TOKEN_TTL_MINUTES" default:"10080"`
}

// AccessTokenTTL returns the access token lifetime configured in minutes.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PORTAL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PORTAL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PORTAL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PORTAL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PORTAL_ARGON_KEY_LEN" default:"32"`
}

type AuthConfig struct {
	MaxFailedAttempts int    `envconfig:"PORTAL_AUTH_MAX_FAILED_ATTEMPTS" default:"5"`
	CookieName        string `envconfig:"PORTAL_AUTH_COOKIE_NAME" default:"authToken"`
	MinPasswordLen    int    `envconfig:"PORTAL_AUTH_MIN_PASSWORD_LEN" default:"4"`
	MinSelfPassLen    int    `envconfig:"PORTAL_AUTH_MIN_SELF_PASSWORD_LEN" default:"8"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"PORTAL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"15m"`
	LoginEmailLimit int           `envconfig:"PORTAL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"20"`
	LoginIPLimit    int           `envconfig:"PORTAL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"100"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"PORTAL_AUTO_MIGRATE" default:"false"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"PORTAL_METRICS_ENABLED" default:"true"`
	Path    string `envconfig:"PORTAL_METRICS_PATH" default:"/metrics"`
}

type IDConfig struct {
	SnowflakeNode int64 `envconfig:"PORTAL_SNOWFLAKE_NODE" default:"1"`
}

// MaintenanceConfig drives cmd/maintenance-worker.
type MaintenanceConfig struct {
	RepairInterval time.Duration `envconfig:"PORTAL_MAINTENANCE_REPAIR_INTERVAL" default:"6h"`
	LockTTL        time.Duration `envconfig:"PORTAL_MAINTENANCE_LOCK_TTL" default:"1h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}
	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}
	db.DSN = u.String()
	return nil
}
