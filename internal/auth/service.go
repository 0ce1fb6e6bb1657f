package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"bankena/internal/redis"
)

// TokenStore is the session token backend. The redis client satisfies it;
// tests substitute an in-memory map.
type TokenStore interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// Service issues, validates, and revokes session tokens. Authentication is
// simulated: any username and password pair is accepted, and a user row is
// created on first sight.
type Service struct {
	tokens         TokenStore
	db             *sql.DB
	tokenTTL       time.Duration
	cookieName     string
	headerName     string
	csrfCookieName string
	csrfHeaderName string
}

// NewService constructs an auth service with the supplied token lifetime.
func NewService(tokens TokenStore, db *sql.DB, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		tokens:         tokens,
		db:             db,
		tokenTTL:       ttl,
		cookieName:     "auth_token",
		headerName:     "Authorization",
		csrfCookieName: "csrf_token",
		csrfHeaderName: "X-CSRF-Token",
	}
}

// Login accepts the credentials, records the user if new, and mints a
// session token bound to the username.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)
	if username == "" || password == "" {
		return "", errors.New("username and password are required")
	}

	if err := s.ensureUser(ctx, username, password); err != nil {
		return "", err
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}
	if err := s.tokens.Set(ctx, tokenKey(token), username, s.tokenTTL); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// ValidateToken resolves a token to its username.
func (s *Service) ValidateToken(ctx context.Context, authToken string) (string, error) {
	if authToken == "" {
		return "", errors.New("token required")
	}
	username, err := s.tokens.Get(ctx, tokenKey(authToken))
	if err != nil {
		if errors.Is(err, redis.ErrCacheMiss) {
			return "", errors.New("invalid token")
		}
		return "", fmt.Errorf("lookup token: %w", err)
	}
	return username, nil
}

// RevokeToken deletes a single token.
func (s *Service) RevokeToken(ctx context.Context, authToken string) error {
	if authToken == "" {
		return nil
	}
	if err := s.tokens.Del(ctx, tokenKey(authToken)); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// NewCSRFToken returns a random token used for CSRF protection.
func (s *Service) NewCSRFToken() (string, error) {
	return generateToken()
}

func (s *Service) ensureUser(ctx context.Context, username, password string) error {
	if s.db == nil {
		return nil
	}
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("lookup user: %w", err)
	}
	if exists {
		return nil
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, hashPassword(password), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func tokenKey(token string) string {
	return "auth:token:" + token
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// AuthCookieName returns the cookie name storing auth tokens.
func (s *Service) AuthCookieName() string {
	return s.cookieName
}

// CSRFCookieName returns the cookie used for CSRF tokens.
func (s *Service) CSRFCookieName() string {
	return s.csrfCookieName
}

// CSRFHeaderName returns the CSRF header name.
func (s *Service) CSRFHeaderName() string {
	return s.csrfHeaderName
}

// TokenTTL reports the configured token lifetime.
func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}
