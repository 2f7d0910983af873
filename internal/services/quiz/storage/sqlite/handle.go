// Package sqlite provides the SQLite-backed quiz history store: a caller-owned
// connection handle, the row codec, and the repository built on both.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"

	apperrors "github.com/louisbranch/countryquiz/internal/platform/errors"
	"github.com/louisbranch/countryquiz/internal/platform/storage/sqlitemigrate"
	"github.com/louisbranch/countryquiz/internal/services/quiz/storage"
	_ "modernc.org/sqlite"
)

const dsnPragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)"

// Handle owns the single connection to a quiz database file. A Handle is not
// safe for concurrent use.
type Handle struct {
	path   string
	schema fs.FS
	logger *log.Logger
	sqlDB  *sql.DB
}

// HandleOption configures a Handle.
type HandleOption func(*Handle)

// WithSchema applies the migrations in fsys every time the handle opens.
func WithSchema(fsys fs.FS) HandleOption {
	return func(h *Handle) {
		h.schema = fsys
	}
}

// WithLogger routes handle and repository log lines to logger.
func WithLogger(logger *log.Logger) HandleOption {
	return func(h *Handle) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandle binds a handle to the database file at path. Nothing is opened
// until Open is called.
func NewHandle(path string, opts ...HandleOption) *Handle {
	h := &Handle{
		path:   strings.TrimSpace(path),
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Path returns the database location the handle is bound to.
func (h *Handle) Path() string {
	if h == nil {
		return ""
	}
	return h.path
}

// Open acquires a writable connection. Calling Open on an open handle keeps
// the existing connection.
func (h *Handle) Open(ctx context.Context) error {
	if h == nil {
		return fmt.Errorf("open: %w", storage.ErrHandleNotOpen)
	}
	if h.sqlDB != nil {
		return nil
	}
	if h.path == "" {
		return apperrors.Wrap(apperrors.CodeStoreUnavailable, "open", fmt.Errorf("storage path is required"))
	}
	if ctx == nil {
		ctx = context.Background()
	}

	sqlDB, err := sql.Open("sqlite", filepath.Clean(h.path)+dsnPragmas)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStoreUnavailable, "open sqlite db", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return apperrors.Wrap(apperrors.CodeStoreUnavailable, "ping sqlite db", err)
	}
	if h.schema != nil {
		if err := sqlitemigrate.ApplyMigrations(ctx, sqlDB, h.schema, ""); err != nil {
			_ = sqlDB.Close()
			return apperrors.Wrap(apperrors.CodeStoreUnavailable, "apply schema", err)
		}
	}

	h.sqlDB = sqlDB
	h.logf("quiz db open: %s", h.path)
	return nil
}

// Close releases the connection. It is a no-op when the handle was never
// opened or is already closed.
func (h *Handle) Close() error {
	if h == nil || h.sqlDB == nil {
		return nil
	}
	sqlDB := h.sqlDB
	h.sqlDB = nil
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close sqlite db: %w", err)
	}
	h.logf("quiz db closed: %s", h.path)
	return nil
}

// IsOpen reports whether the handle currently holds a connection.
func (h *Handle) IsOpen() bool {
	return h != nil && h.sqlDB != nil
}

// Ping checks that the open connection still reaches the database.
func (h *Handle) Ping(ctx context.Context) error {
	sqlDB, err := h.conn()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apperrors.Wrap(apperrors.CodeStoreUnavailable, "ping sqlite db", err)
	}
	return nil
}

func (h *Handle) conn() (*sql.DB, error) {
	if !h.IsOpen() {
		return nil, storage.ErrHandleNotOpen
	}
	return h.sqlDB, nil
}

func (h *Handle) logf(format string, args ...any) {
	if h == nil || h.logger == nil {
		log.Printf(format, args...)
		return
	}
	h.logger.Printf(format, args...)
}
