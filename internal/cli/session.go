package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const sessionTTL = 7 * 24 * time.Hour

var (
	ErrNotLoggedIn    = errors.New("not logged in, run: taskctl login")
	ErrSessionExpired = errors.New("session expired, run: taskctl login")
)

// Session is the login state persisted between CLI invocations.
type Session struct {
	UserID    int64     `yaml:"user_id"`
	Username  string    `yaml:"username"`
	Token     string    `yaml:"token"`
	ExpiresAt time.Time `yaml:"expires_at"`
}

func sessionPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "session.yaml"), nil
}

// LoadSession reads the session file and refuses expired sessions.
func LoadSession(now time.Time) (Session, error) {
	path, err := sessionPath()
	if err != nil {
		return Session{}, err
	}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Session{}, ErrNotLoggedIn
	}
	if err != nil {
		return Session{}, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Session{}, fmt.Errorf("decode session: %w", err)
	}
	if s.UserID <= 0 {
		return Session{}, ErrNotLoggedIn
	}
	if !now.Before(s.ExpiresAt) {
		return Session{}, ErrSessionExpired
	}
	return s, nil
}

// SaveSession writes the session file readable only by the current user.
func SaveSession(s Session) error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	b, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return os.WriteFile(path, b, 0o600)
}

// ClearSession removes the session file. A missing file is not an error.
func ClearSession() error {
	path, err := sessionPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
