package db

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/config"
	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Client wraps the registry GORM connection.
type Client struct {
	conn    *gorm.DB
	dialect string
}

// New boots the registry client for the configured driver.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	var dialector gorm.Dialector
	switch {
	case cfg.IsPostgres():
		dialector = postgres.New(postgres.Config{
			DSN:                  cfg.DSN,
			PreferSimpleProtocol: true,
		})
	case cfg.IsSQLite():
		if err := ensureSQLiteDir(cfg.DSN); err != nil {
			return nil, err
		}
		dialector = sqlite.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	conn, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("opening db connection: %w", err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql db handle: %w", err)
	}
	applyPoolSettings(sqlDB, cfg)

	if logg != nil {
		logg.Info(logg.WithField(ctx, "driver", cfg.Driver), "registry connection established")
	}

	return &Client{conn: conn, dialect: strings.ToLower(cfg.Driver)}, nil
}

// FromGorm wraps an existing connection, mostly for tests and tools.
func FromGorm(conn *gorm.DB) *Client {
	dialect := config.DriverSQLite
	if conn != nil && conn.Dialector != nil && conn.Dialector.Name() == "postgres" {
		dialect = config.DriverPostgres
	}
	return &Client{conn: conn, dialect: dialect}
}

// GormConfig is shared by the registry and the per-target stores.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		Logger: gormlogger.New(
			log.New(io.Discard, "", log.LstdFlags),
			gormlogger.Config{LogLevel: gormlogger.Silent},
		),
		SkipDefaultTransaction: true,
	}
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.DBConfig) {
	maxOpen := cfg.MaxOpenConns
	if cfg.IsSQLite() {
		// single writer; readers queue on busy_timeout
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

func ensureSQLiteDir(dsn string) error {
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	if path == "" || path == ":memory:" || strings.HasPrefix(path, ":memory:") {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating registry directory %s: %w", dir, err)
	}
	return nil
}

// DB returns the underlying GORM connection.
func (c *Client) DB() *gorm.DB {
	return c.conn
}

// Dialect reports the goose dialect name of the registry.
func (c *Client) Dialect() string {
	if c.dialect == config.DriverPostgres {
		return "postgres"
	}
	return "sqlite3"
}

// Ping verifies the datasource is reachable.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close shuts down the pooled connections.
func (c *Client) Close() error {
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx executes fn inside a transaction, rolling back on error/panic.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return RunTx(c.conn.WithContext(ctx), fn)
}

// RunTx is the transaction helper behind Client.WithTx, reused by the
// per-target stores.
func RunTx(conn *gorm.DB, fn func(tx *gorm.DB) error) (err error) {
	tx := conn.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit().Error
}
