package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "session:"
	sessionTTL       = 7 * 24 * time.Hour
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side record behind the session cookie. Token is the
// remote service token obtained at login; it never leaves the server.
type Session struct {
	ID        string    `json:"-"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store manages sessions in Redis.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

type StoreOption func(*Store)

// WithSecureCookies marks the cookies the store issues as Secure.
func WithSecureCookies(secure bool) StoreOption {
	return func(s *Store) { s.secure = secure }
}

// NewStore returns a new session store.
func NewStore(rdb *redis.Client, ttl time.Duration, opts ...StoreOption) *Store {
	if ttl <= 0 {
		ttl = sessionTTL
	}
	s := &Store{rdb: rdb, ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) TTL() time.Duration { return s.ttl }

// Create stores a new session for the user and returns it.
func (s *Store) Create(ctx context.Context, userID int64, username, token string) (Session, error) {
	id, err := newSessionID()
	if err != nil {
		return Session{}, err
	}
	now := s.now().UTC()
	sess := Session{
		ID:        id,
		UserID:    userID,
		Username:  username,
		Token:     token,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.save(ctx, sess); err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Get loads a session. Missing, expired and undecodable records all yield
// ErrSessionNotFound.
func (s *Store) Get(ctx context.Context, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrSessionNotFound
	}
	raw, err := s.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return Session{}, ErrSessionNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session get: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(raw, &sess); err != nil {
		_ = s.Delete(ctx, id)
		return Session{}, ErrSessionNotFound
	}
	sess.ID = id
	if !s.now().Before(sess.ExpiresAt) {
		_ = s.Delete(ctx, id)
		return Session{}, ErrSessionNotFound
	}
	return sess, nil
}

// Touch extends the session when less than half of its lifetime remains.
// It reports whether the session was extended.
func (s *Store) Touch(ctx context.Context, sess *Session) (bool, error) {
	now := s.now().UTC()
	if sess.ExpiresAt.Sub(now) >= s.ttl/2 {
		return false, nil
	}
	sess.ExpiresAt = now.Add(s.ttl)
	if err := s.save(ctx, *sess); err != nil {
		return false, err
	}
	return true, nil
}

// Rename updates the username stored in a session, keeping its expiry.
func (s *Store) Rename(ctx context.Context, id, username string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	sess.Username = username
	return s.save(ctx, sess)
}

// Delete removes a session by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKeyPrefix+id).Err()
}

func (s *Store) save(ctx context.Context, sess Session) error {
	ttl := sess.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return ErrSessionNotFound
	}
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("session encode: %w", err)
	}
	if err := s.rdb.Set(ctx, sessionKeyPrefix+sess.ID, b, ttl).Err(); err != nil {
		return fmt.Errorf("session save: %w", err)
	}
	return nil
}

func newSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b), nil
}
