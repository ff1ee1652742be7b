package storage

import (
	"authcore/internal/config"
	"authcore/internal/models"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"authcore/internal/storage/migrations"

	"github.com/pressly/goose/v3"
)

const (
	usersTable = "users"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrUnavailable  = errors.New("storage unavailable")
	ErrInvalidField = errors.New("field contains control characters")
)

// Storage persists identity records keyed uniquely by username. CreateUser
// must enforce uniqueness atomically: of any number of concurrent calls for
// one username exactly one succeeds and the rest get ErrUserExists.
type Storage interface {
	CreateUser(ctx context.Context, username, passwordHash string) (userID int64, err error)
	GetCredentialsByUsername(ctx context.Context, username string) (models.Credentials, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	CountUsers(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}

// New opens the medium selected by cfg.Driver and brings its schema up to date.
func New(ctx context.Context, cfg config.Storage) (Storage, error) {
	const op = "storage.New"

	var (
		st  Storage
		err error
	)

	switch cfg.Driver {
	case config.DriverSQLite:
		st, err = NewSQLiteStorage(ctx, cfg.Path)
	case config.DriverPostgres:
		st, err = NewPostgresStorage(ctx, cfg.DSN)
	case config.DriverFile:
		st, err = NewFileStorage(cfg.Path)
	default:
		err = fmt.Errorf("unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}

func migrate(ctx context.Context, dialect goose.Dialect, db *sql.DB, dir string) error {
	const op = "storage.migrate"

	fsys, err := fs.Sub(migrations.FS, dir)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
