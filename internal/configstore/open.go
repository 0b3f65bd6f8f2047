package configstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/gophlock/internal/common"
	"github.com/dmitrijs2005/gophlock/internal/configstore/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Driver names accepted by Open.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// ErrInvalidValue means a stored setting could not be decoded.
var ErrInvalidValue = errors.New("invalid stored value")

// Settings is a lock settings store that can also be provisioned.
type Settings interface {
	UseBiometric(ctx context.Context) (bool, error)
	PasswordHash(ctx context.Context) (string, error)
	SetUseBiometric(ctx context.Context, use bool) error
	SetPasswordHash(ctx context.Context, hash string) error
}

// Handle is an open store together with its connection pool.
type Handle struct {
	Settings

	db   *sql.DB
	bind func(DBTX) Settings
}

// Close releases the connection pool.
func (h *Handle) Close() error {
	return h.db.Close()
}

// Provision stores both settings in one transaction.
func (h *Handle) Provision(ctx context.Context, useBiometric bool, passwordHash string) error {
	return WithTx(ctx, h.db, nil, func(ctx context.Context, tx DBTX) error {
		s := h.bind(tx)
		if err := s.SetPasswordHash(ctx, passwordHash); err != nil {
			return err
		}
		return s.SetUseBiometric(ctx, useBiometric)
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded migrations for driver.
func Migrate(ctx context.Context, db *sql.DB, driver string) error {
	var (
		fsys    fs.FS
		dialect string
		dir     string
	)
	switch driver {
	case DriverSQLite:
		fsys, dialect, dir = migrations.SQLite, "sqlite3", "sqlite"
	case DriverPostgres:
		fsys, dialect, dir = migrations.Postgres, "pgx", "postgres"
	default:
		return fmt.Errorf("%w: %q", common.ErrUnknownDriver, driver)
	}

	goose.SetBaseFS(fsys)
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, db, dir); err != nil {
		return fmt.Errorf("migrate %s: %w", driver, err)
	}
	return nil
}

// Open connects to the store named by driver, migrates it and returns a
// handle. profile selects the lock_settings row for postgres and is ignored
// by sqlite.
func Open(ctx context.Context, driver, dsn, profile string) (*Handle, error) {
	var (
		sqlDriver string
		bind      func(DBTX) Settings
	)
	switch driver {
	case DriverSQLite:
		sqlDriver = "sqlite"
		bind = func(db DBTX) Settings { return NewSQLiteStore(db) }
	case DriverPostgres:
		sqlDriver = "pgx"
		bind = func(db DBTX) Settings { return NewPostgresStore(db, profile) }
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrUnknownDriver, driver)
	}

	db, err := sql.Open(sqlDriver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// a single writer keeps :memory: databases on one connection
		db.SetMaxOpenConns(1)
	}

	if err := Migrate(ctx, db, driver); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Handle{Settings: bind(db), db: db, bind: bind}, nil
}
