package credentials

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrNoToken is returned when no bearer token has been stored.
	ErrNoToken = errors.New("not logged in")
	// ErrTokenExpired is returned when the stored token carries an exp claim in the past.
	ErrTokenExpired = errors.New("login session expired")
)

// Leeway tolerated when comparing a token's exp claim against the clock.
const expirySkew = 30 * time.Second

// Store holds the bearer token shared by every API call in the process.
// It is written on login and cleared on logout or authentication failure.
type Store interface {
	// Token returns the stored token, ErrNoToken or ErrTokenExpired.
	Token() (string, error)
	Set(token string) error
	Clear() error
}

var nowFunc = time.Now

// checkExpiry reads the exp claim without verifying the signature; the
// server does that. Opaque (non-JWT) tokens are accepted as-is.
func checkExpiry(token string) error {
	if strings.Count(token, ".") != 2 {
		return nil
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil
	}

	var exp int64
	switch v := claims["exp"].(type) {
	case float64:
		exp = int64(v)
	case int64:
		exp = v
	default:
		return nil
	}

	if nowFunc().After(time.Unix(exp, 0).Add(expirySkew)) {
		return ErrTokenExpired
	}
	return nil
}

// MemoryStore keeps the token in memory only
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Token() (string, error) {
	s.mu.RLock()
	token := s.token
	s.mu.RUnlock()

	if token == "" {
		return "", ErrNoToken
	}
	if err := checkExpiry(token); err != nil {
		return "", err
	}
	return token, nil
}

func (s *MemoryStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = strings.TrimSpace(token)
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}

// FileStore persists the token in a single file readable only by the user
type FileStore struct {
	mu   sync.Mutex
	path string
}

// DefaultPath returns the token file location under the user config dir
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "faceattend", "token")
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultPath()
	}
	return &FileStore{path: path}
}

// Path returns the file backing the store
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Token() (string, error) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()

	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", ErrNoToken
	}
	if err := checkExpiry(token); err != nil {
		return "", err
	}
	return token, nil
}

func (s *FileStore) Set(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}
