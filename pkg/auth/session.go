package auth

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionDirName   = ".point-rota/sessions"
	sessionFilePerms = 0600 // Read/write for owner only
	sessionDirPerms  = 0700
)

var ErrInvalidToken = errors.New("invalid or expired session token")

// Session is the opaque identity of the person running this process
type Session struct {
	UID       string
	Token     string
	ExpiresAt time.Time
}

// Authenticated reports whether the session can be used for writes
func (s *Session) Authenticated() bool {
	return s != nil && s.UID != "" && time.Now().Before(s.ExpiresAt)
}

// Provider supplies a session at startup
type Provider interface {
	SignIn(ctx context.Context) (*Session, error)
}

// Claims are the JWT claims of an anonymous session
type Claims struct {
	Anonymous bool `json:"anon"`
	jwt.RegisteredClaims
}

// AnonymousProvider issues HS256 session tokens for a random uid, scoped to one tenant.
// The token is persisted so the same uid is reused until it expires.
type AnonymousProvider struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	tokenPath string
	logger    *zap.Logger
	now       func() time.Time
}

// NewAnonymousProvider creates a provider. An empty tokenPath disables persistence.
func NewAnonymousProvider(secret, issuer string, ttl time.Duration, tokenPath string, logger *zap.Logger) *AnonymousProvider {
	return &AnonymousProvider{
		secretKey: []byte(secret),
		issuer:    issuer,
		ttl:       ttl,
		tokenPath: tokenPath,
		logger:    logger,
		now:       time.Now,
	}
}

// SignIn reuses a persisted valid token or signs in anonymously with a new uid
func (p *AnonymousProvider) SignIn(ctx context.Context) (*Session, error) {
	if p.tokenPath != "" {
		data, err := os.ReadFile(p.tokenPath)
		switch {
		case err == nil:
			session, verr := p.Verify(strings.TrimSpace(string(data)))
			if verr == nil {
				p.logger.Debug("Reusing persisted session", zap.String("uid", session.UID))
				return session, nil
			}
			p.logger.Info("Persisted session is no longer valid, signing in again", zap.Error(verr))
		case !errors.Is(err, os.ErrNotExist):
			p.logger.Warn("Failed to read persisted session", zap.Error(err))
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	session, err := p.issue(uuid.New().String())
	if err != nil {
		return nil, err
	}

	if p.tokenPath != "" {
		if err := saveToken(p.tokenPath, session.Token); err != nil {
			// The session still works for this process
			p.logger.Warn("Failed to persist session", zap.Error(err))
		}
	}

	p.logger.Info("Signed in anonymously", zap.String("uid", session.UID))
	return session, nil
}

// Verify parses a token and returns its session
func (p *AnonymousProvider) Verify(token string) (*Session, error) {
	parsed, err := jwt.ParseWithClaims(
		token,
		&Claims{},
		func(t *jwt.Token) (interface{}, error) {
			return p.secretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, ErrInvalidToken
	}

	return &Session{
		UID:       claims.Subject,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (p *AnonymousProvider) issue(uid string) (*Session, error) {
	now := p.now()
	expiresAt := now.Add(p.ttl)
	claims := &Claims{
		Anonymous: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secretKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}

	return &Session{UID: uid, Token: token, ExpiresAt: expiresAt}, nil
}

// TokenPath returns the per-environment session file under the user's home directory
func TokenPath(env string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	name := "session.jwt"
	if env != "" {
		name = env + ".jwt"
	}
	return filepath.Join(homeDir, sessionDirName, name), nil
}

func saveToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), sessionDirPerms); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token), sessionFilePerms); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}
