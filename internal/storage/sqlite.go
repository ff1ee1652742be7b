package storage

import (
	"authcore/internal/models"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteStorage keeps identity records in a single embedded database file.
// The UNIQUE constraint on username makes CreateUser atomic.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(ctx context.Context, path string) (*SQLiteStorage, error) {
	const op = "storage.NewSQLiteStorage"

	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("%s: storage path is required", op)
	}

	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(FULL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	if err := migrate(ctx, goose.DialectSQLite3, db, "sqlite"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// SQLite admits one writer at a time; a single connection keeps writers
	// from contending on the file lock.
	db.SetMaxOpenConns(1)

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	const op = "storage.CreateUser"

	query := fmt.Sprintf("INSERT INTO %s (username, password_hash, created_at) VALUES (?, ?, ?)", usersTable)

	res, err := s.db.ExecContext(ctx, query, username, passwordHash, time.Now().UTC().UnixMilli())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return 0, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	userID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	return userID, nil
}

func (s *SQLiteStorage) GetCredentialsByUsername(ctx context.Context, username string) (models.Credentials, error) {
	const op = "storage.GetCredentialsByUsername"

	var cred models.Credentials
	query := fmt.Sprintf("SELECT id, password_hash FROM %s WHERE username = ?", usersTable)

	err := s.db.QueryRowContext(ctx, query, username).Scan(&cred.UserID, &cred.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return cred, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return cred, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	return cred, nil
}

func (s *SQLiteStorage) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	const op = "storage.GetUserByUsername"

	var (
		user      models.User
		createdAt int64
	)
	query := fmt.Sprintf("SELECT id, username, password_hash, created_at FROM %s WHERE username = ?", usersTable)

	err := s.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return user, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}
	user.CreatedAt = time.UnixMilli(createdAt).UTC()

	return user, nil
}

func (s *SQLiteStorage) CountUsers(ctx context.Context) (int64, error) {
	const op = "storage.CountUsers"

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", usersTable)

	if err := s.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	return count, nil
}

func (s *SQLiteStorage) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("storage.Ping: %w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
