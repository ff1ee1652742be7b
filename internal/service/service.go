package service

import (
	"authcore/internal/auth"
	"authcore/internal/metrics"
	"authcore/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
)

type Service interface {
	SignUp(ctx context.Context, username, password string) error
	LogIn(ctx context.Context, username, password string) (string, error)
	Authorize(ctx context.Context, token string) (string, error)
	Stats(ctx context.Context) (Stats, error)
}

// Stats is the non-sensitive state reported by health checks.
type Stats struct {
	Users int64 `json:"users"`
}

var _ Service = (*AuthService)(nil)

type AuthService struct {
	credentials *Credentials
	storage     storage.Storage
	tokens      *auth.TokenManager
	metrics     *metrics.Metrics
	log         *slog.Logger
}

func NewService(st storage.Storage, hasher *auth.Hasher, tokens *auth.TokenManager, m *metrics.Metrics, lgr *slog.Logger) *AuthService {
	return &AuthService{
		credentials: NewCredentials(st, hasher, m),
		storage:     st,
		tokens:      tokens,
		metrics:     m,
		log:         lgr,
	}
}

func (s *AuthService) SignUp(ctx context.Context, username, password string) error {
	const op = "service.SignUp"

	log := s.log.With(slog.String("op", op), slog.String("username", username))

	id, err := s.credentials.Register(ctx, username, password)
	if err != nil {
		switch {
		case errors.Is(err, ErrStorageUnavailable):
			s.metrics.SignUps.WithLabelValues(metrics.ResultUnavailable).Inc()
			log.Error("failed to register user", slog.Any("error", err))
		default:
			s.metrics.SignUps.WithLabelValues(metrics.ResultRejected).Inc()
			log.Info("sign up rejected", slog.Any("error", err))
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.SignUps.WithLabelValues(metrics.ResultOK).Inc()
	log.Info("user registered", slog.Int64("user_id", id))

	return nil
}

// LogIn checks the credentials and, if they match, issues a token for
// username. Any credential failure is reported as ErrInvalidCredentials.
func (s *AuthService) LogIn(ctx context.Context, username, password string) (string, error) {
	const op = "service.LogIn"

	log := s.log.With(slog.String("op", op), slog.String("username", username))

	if _, err := s.credentials.Verify(ctx, username, password); err != nil {
		if errors.Is(err, ErrStorageUnavailable) {
			s.metrics.LogIns.WithLabelValues(metrics.ResultUnavailable).Inc()
			log.Error("failed to check credentials", slog.Any("error", err))
			return "", fmt.Errorf("%s: %w", op, ErrStorageUnavailable)
		}

		s.metrics.LogIns.WithLabelValues(metrics.ResultRejected).Inc()
		log.Info("login rejected", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	token, err := s.tokens.Issue(username)
	if err != nil {
		s.metrics.LogIns.WithLabelValues(metrics.ResultUnavailable).Inc()
		log.Error("failed to issue token", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.metrics.LogIns.WithLabelValues(metrics.ResultOK).Inc()
	log.Info("token issued")

	return token, nil
}

// Authorize returns the username a valid token asserts. Every token failure
// is reported as ErrUnauthorized.
func (s *AuthService) Authorize(ctx context.Context, token string) (string, error) {
	const op = "service.Authorize"

	username, err := s.tokens.Validate(token)
	if err != nil {
		s.metrics.Authorizations.WithLabelValues(metrics.ResultRejected).Inc()
		s.log.DebugContext(ctx, "token rejected", slog.String("op", op), slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, ErrUnauthorized)
	}

	s.metrics.Authorizations.WithLabelValues(metrics.ResultOK).Inc()

	return username, nil
}

func (s *AuthService) Stats(ctx context.Context) (Stats, error) {
	const op = "service.Stats"

	if err := s.storage.Ping(ctx); err != nil {
		return Stats{}, fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}

	count, err := s.storage.CountUsers(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("%s: %w: %w", op, ErrStorageUnavailable, err)
	}

	return Stats{Users: count}, nil
}
