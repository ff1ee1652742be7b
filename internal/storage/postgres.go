package storage

import (
	"authcore/internal/models"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// pgxPool is the subset of *pgxpool.Pool the store needs.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

type PostgresStorage struct {
	db pgxPool
}

func NewPostgresStorage(ctx context.Context, dsn string) (*PostgresStorage, error) {
	const op = "storage.NewPostgresStorage"

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	db := stdlib.OpenDBFromPool(pool)
	err = migrate(ctx, goose.DialectPostgres, db, "postgres")
	_ = db.Close()
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return newPostgresStorage(pool), nil
}

func newPostgresStorage(db pgxPool) *PostgresStorage {
	return &PostgresStorage{
		db: db,
	}
}

func (p *PostgresStorage) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	const op = "storage.CreateUser"

	var userID int64
	query := fmt.Sprintf("INSERT INTO %s (username, password_hash) VALUES ($1, $2) RETURNING id", usersTable)

	err := p.db.QueryRow(ctx, query, username, passwordHash).Scan(&userID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return 0, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	return userID, nil
}

func (p *PostgresStorage) GetCredentialsByUsername(ctx context.Context, username string) (models.Credentials, error) {
	const op = "storage.GetCredentialsByUsername"

	var cred models.Credentials
	query := fmt.Sprintf("SELECT id, password_hash FROM %s WHERE username = $1", usersTable)

	err := p.db.QueryRow(ctx, query, username).Scan(&cred.UserID, &cred.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cred, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return cred, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	return cred, nil
}

func (p *PostgresStorage) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	const op = "storage.GetUserByUsername"

	var user models.User
	query := fmt.Sprintf("SELECT id, username, password_hash, created_at FROM %s WHERE username = $1", usersTable)

	err := p.db.QueryRow(ctx, query, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return user, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	return user, nil
}

func (p *PostgresStorage) CountUsers(ctx context.Context) (int64, error) {
	const op = "storage.CountUsers"

	var count int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", usersTable)

	if err := p.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	return count, nil
}

func (p *PostgresStorage) Ping(ctx context.Context) error {
	if err := p.db.Ping(ctx); err != nil {
		return fmt.Errorf("storage.Ping: %w: %w", ErrUnavailable, err)
	}
	return nil
}

func (p *PostgresStorage) Close() error {
	p.db.Close()
	return nil
}
