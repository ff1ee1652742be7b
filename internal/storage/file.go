package storage

import (
	"authcore/internal/models"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"
)

var fileHeader = []string{"id", "username", "password_hash", "created_at"}

// FileStorage keeps identity records in an append-only CSV file. Every writer
// goes through one lock; the in-memory index is updated only after a record
// has been fully appended and synced, so readers never see a partial record.
// Fields never contain control characters, so each record is exactly one
// line and reads back byte for byte.
type FileStorage struct {
	mu     sync.RWMutex
	f      *os.File
	size   int64
	lastID int64
	users  map[string]models.User
}

func NewFileStorage(path string) (*FileStorage, error) {
	const op = "storage.NewFileStorage"

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	st := &FileStorage{
		f:     f,
		users: make(map[string]models.User),
	}

	if err := st.load(); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return st, nil
}

// load rebuilds the index and drops a trailing record left incomplete by a
// crash mid-append. Records are single lines, so the last newline is the end
// of the last complete record.
func (s *FileStorage) load() error {
	data, err := io.ReadAll(s.f)
	if err != nil {
		return err
	}

	if n := bytes.LastIndexByte(data, '\n'); n+1 != len(data) {
		data = data[:n+1]
		if err := s.f.Truncate(int64(len(data))); err != nil {
			return err
		}
	}
	s.size = int64(len(data))

	if len(data) == 0 {
		return s.append(fileHeader)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = len(fileHeader)

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if header[0] != fileHeader[0] || header[1] != fileHeader[1] {
		return fmt.Errorf("unexpected header %v", header)
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}

		user, err := decodeRecord(rec)
		if err != nil {
			return err
		}
		if _, ok := s.users[user.Username]; ok {
			return fmt.Errorf("duplicate username %q at id %d", user.Username, user.ID)
		}
		s.users[user.Username] = user
		s.lastID = max(s.lastID, user.ID)
	}
}

// append writes one record at the end of the file and syncs it. On failure
// the file is cut back to its previous length.
func (s *FileStorage) append(rec []string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(rec); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}

	if _, err := s.f.WriteAt(buf.Bytes(), s.size); err != nil {
		_ = s.f.Truncate(s.size)
		return err
	}
	if err := s.f.Sync(); err != nil {
		_ = s.f.Truncate(s.size)
		return err
	}
	s.size += int64(buf.Len())

	return nil
}

func (s *FileStorage) CreateUser(_ context.Context, username, passwordHash string) (int64, error) {
	const op = "storage.CreateUser"

	if hasControl(username) || hasControl(passwordHash) {
		return 0, fmt.Errorf("%s: %w", op, ErrInvalidField)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[username]; ok {
		return 0, fmt.Errorf("%s: %w", op, ErrUserExists)
	}

	user := models.User{
		ID:           s.lastID + 1,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.append(encodeRecord(user)); err != nil {
		return 0, fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
	}

	s.users[username] = user
	s.lastID = user.ID

	return user.ID, nil
}

func (s *FileStorage) GetCredentialsByUsername(ctx context.Context, username string) (models.Credentials, error) {
	const op = "storage.GetCredentialsByUsername"

	user, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return models.Credentials{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Credentials{UserID: user.ID, PasswordHash: user.PasswordHash}, nil
}

func (s *FileStorage) GetUserByUsername(_ context.Context, username string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[username]
	if !ok {
		return models.User{}, fmt.Errorf("storage.GetUserByUsername: %w", ErrUserNotFound)
	}

	return user, nil
}

func (s *FileStorage) CountUsers(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return int64(len(s.users)), nil
}

func (s *FileStorage) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.f.Stat(); err != nil {
		return fmt.Errorf("storage.Ping: %w: %w", ErrUnavailable, err)
	}
	return nil
}

func (s *FileStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.f.Close()
}

func hasControl(s string) bool {
	return strings.ContainsFunc(s, unicode.IsControl)
}

func encodeRecord(u models.User) []string {
	return []string{
		strconv.FormatInt(u.ID, 10),
		u.Username,
		u.PasswordHash,
		u.CreatedAt.Format(time.RFC3339Nano),
	}
}

func decodeRecord(rec []string) (models.User, error) {
	id, err := strconv.ParseInt(rec[0], 10, 64)
	if err != nil {
		return models.User{}, fmt.Errorf("parse id %q: %w", rec[0], err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, rec[3])
	if err != nil {
		return models.User{}, fmt.Errorf("parse created_at %q: %w", rec[3], err)
	}

	return models.User{
		ID:           id,
		Username:     rec[1],
		PasswordHash: rec[2],
		CreatedAt:    createdAt,
	}, nil
}
