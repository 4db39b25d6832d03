package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestAnonymousProvider_SignInWithoutPersistence(t *testing.T) {
	p := NewAnonymousProvider(testSecret, "point-test", time.Hour, "", zap.NewNop())

	first, err := p.SignIn(context.Background())
	require.NoError(t, err)
	second, err := p.SignIn(context.Background())
	require.NoError(t, err)

	assert.True(t, first.Authenticated())
	assert.NotEmpty(t, first.Token)
	assert.NotEqual(t, first.UID, second.UID, "each anonymous sign-in gets a new uid")
}

func TestAnonymousProvider_ReusesPersistedSession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions", "test.jwt")
	p := NewAnonymousProvider(testSecret, "point-test", time.Hour, path, zap.NewNop())

	first, err := p.SignIn(context.Background())
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(sessionFilePerms), info.Mode().Perm())

	second, err := p.SignIn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.UID, second.UID)
}

func TestAnonymousProvider_ExpiredSessionIsReplaced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.jwt")
	p := NewAnonymousProvider(testSecret, "point-test", time.Hour, path, zap.NewNop())

	p.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, err := p.SignIn(context.Background())
	require.NoError(t, err)

	p.now = time.Now
	fresh, err := p.SignIn(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, old.UID, fresh.UID)
	assert.True(t, fresh.Authenticated())
}

func TestAnonymousProvider_VerifyRejectsForeignTokens(t *testing.T) {
	p := NewAnonymousProvider(testSecret, "point-test", time.Hour, "", zap.NewNop())
	session, err := p.SignIn(context.Background())
	require.NoError(t, err)

	otherSecret := NewAnonymousProvider("fedcba9876543210fedcba9876543210", "point-test", time.Hour, "", zap.NewNop())
	_, err = otherSecret.Verify(session.Token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	otherTenant := NewAnonymousProvider(testSecret, "another-point", time.Hour, "", zap.NewNop())
	_, err = otherTenant.Verify(session.Token)
	assert.True(t, errors.Is(err, ErrInvalidToken))

	_, err = p.Verify("not-a-token")
	assert.True(t, errors.Is(err, ErrInvalidToken))

	verified, err := p.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.UID, verified.UID)
}

func TestSession_Authenticated(t *testing.T) {
	var nilSession *Session
	assert.False(t, nilSession.Authenticated())
	assert.False(t, (&Session{UID: "u", ExpiresAt: time.Now().Add(-time.Minute)}).Authenticated())
	assert.False(t, (&Session{ExpiresAt: time.Now().Add(time.Minute)}).Authenticated())
	assert.True(t, (&Session{UID: "u", ExpiresAt: time.Now().Add(time.Minute)}).Authenticated())
}

func TestTokenPath(t *testing.T) {
	path, err := TokenPath("prod")
	require.NoError(t, err)
	assert.Equal(t, "prod.jwt", filepath.Base(path))
	assert.Contains(t, path, filepath.Join(".point-rota", "sessions"))
}
