package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Jerry-Sag/branding-pirates-portal-server/pkg/db"
	pkgerrors "github.com/Jerry-Sag/branding-pirates-portal-server/pkg/errors"
	"go.uber.org/multierr"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Mode selects how a store file is opened.
type Mode int

const (
	// ModeReadWrite requires the file to exist.
	ModeReadWrite Mode = iota
	// ModeReadOnly requires the file to exist and never writes.
	ModeReadOnly
	// ModeCreate creates parent folders and the file when missing.
	ModeCreate
)

// Options are the pragmas applied to every store connection.
type Options struct {
	BusyTimeout time.Duration
	JournalMode string
}

// Opener opens isolated SQLite stores. Handles are per operation; nothing is
// cached between calls.
type Opener struct {
	opts Options
}

func NewOpener(opts Options) *Opener {
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	if opts.JournalMode == "" {
		opts.JournalMode = "WAL"
	}
	return &Opener{opts: opts}
}

// Store is a single open store file.
type Store struct {
	conn *gorm.DB
	path string
}

func (s *Store) DB() *gorm.DB { return s.conn }

func (s *Store) Path() string { return s.path }

// WithTx runs fn in one immediate transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return db.RunTx(s.conn.WithContext(ctx), fn)
}

func (s *Store) Close() error {
	sqlDB, err := s.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ErrStorageMissing builds the error returned when a recorded store file is gone.
func ErrStorageMissing(path string) error {
	return pkgerrors.New(pkgerrors.CodeStorageMissing, "storage file not found").
		WithDetails(map[string]any{"file": filepath.Base(path)})
}

// Open opens path in the given mode.
func (o *Opener) Open(ctx context.Context, path string, mode Mode) (*Store, error) {
	if path == "" {
		return nil, ErrStorageMissing(path)
	}
	switch mode {
	case ModeCreate:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store folder: %w", err)
		}
	default:
		info, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrStorageMissing(path)
		}
		if err != nil {
			return nil, fmt.Errorf("stat store: %w", err)
		}
		if info.IsDir() {
			return nil, ErrStorageMissing(path)
		}
	}

	conn, err := gorm.Open(sqlite.Open(o.dsn(path, mode)), db.GormConfig())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("store handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	return &Store{conn: conn, path: path}, nil
}

// Use opens path, runs fn, and closes the store. A close failure is reported
// alongside fn's error.
func (o *Opener) Use(ctx context.Context, path string, mode Mode, fn func(*Store) error) (err error) {
	store, err := o.Open(ctx, path, mode)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, store.Close())
	}()
	return fn(store)
}

func (o *Opener) dsn(path string, mode Mode) string {
	q := url.Values{}
	q.Set("_busy_timeout", strconv.FormatInt(o.opts.BusyTimeout.Milliseconds(), 10))
	switch mode {
	case ModeReadOnly:
		q.Set("mode", "ro")
	case ModeCreate:
		q.Set("mode", "rwc")
	default:
		q.Set("mode", "rw")
	}
	if mode != ModeReadOnly {
		q.Set("_journal_mode", o.opts.JournalMode)
		q.Set("_synchronous", "NORMAL")
		q.Set("_txlock", "immediate")
	}
	return "file:" + filepath.ToSlash(path) + "?" + q.Encode()
}
