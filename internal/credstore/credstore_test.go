package credstore

import (
	"os"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tasker/internal/model"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "a@b.com",
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func TestFileStore_RoundTrip(t *testing.T) {
	t.Setenv(EnvToken, "")
	s := NewFileStore(t.TempDir())

	_, ok := s.Token()
	assert.False(t, ok, "fresh store should have no token")

	require.NoError(t, s.SetToken("Bearer t1"))
	tok, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "t1", tok)

	st, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	require.NoError(t, s.ClearToken())
	_, ok = s.Token()
	assert.False(t, ok)

	// clearing twice is fine
	assert.NoError(t, s.ClearToken())
}

func TestFileStore_SurvivesNewInstance(t *testing.T) {
	t.Setenv(EnvToken, "")
	dir := t.TempDir()

	require.NoError(t, NewFileStore(dir).SetToken("persisted"))

	tok, ok := NewFileStore(dir).Token()
	assert.True(t, ok)
	assert.Equal(t, "persisted", tok)
}

func TestFileStore_ProfileIsSessionScoped(t *testing.T) {
	t.Setenv(EnvToken, "")
	dir := t.TempDir()
	s := NewFileStore(dir)
	s.SetProfile(model.Profile{Name: "Ann", Email: "a@b.com"})

	p, ok := s.Profile()
	require.True(t, ok)
	assert.Equal(t, "Ann", p.Name)

	_, ok = NewFileStore(dir).Profile()
	assert.False(t, ok, "profile must not outlive the process session")

	s.ClearProfile()
	_, ok = s.Profile()
	assert.False(t, ok)
}

func TestFileStore_EnvOverride(t *testing.T) {
	t.Setenv(EnvToken, "bearer from-env")
	s := NewFileStore(t.TempDir())

	ti, err := s.Info()
	require.NoError(t, err)
	require.NotNil(t, ti)
	assert.Equal(t, SourceEnv, ti.Source)
	assert.Equal(t, "from-env", ti.Token)
}

func TestFileStore_SetTokenBeatsEnv(t *testing.T) {
	t.Setenv(EnvToken, "bob-token")
	dir := t.TempDir()
	s := NewFileStore(dir)

	require.NoError(t, s.SetToken("ann-token"))

	tok, ok := s.Token()
	assert.True(t, ok)
	assert.Equal(t, "ann-token", tok)

	// a fresh process starts from the env again
	tok, _ = NewFileStore(dir).Token()
	assert.Equal(t, "bob-token", tok)
}

func TestFileStore_ClearTokenIgnoresEnv(t *testing.T) {
	t.Setenv(EnvToken, "bob-token")
	s := NewFileStore(t.TempDir())
	_, ok := s.Token()
	require.True(t, ok)

	require.NoError(t, s.ClearToken())

	_, ok = s.Token()
	assert.False(t, ok)
}

func TestFileStore_RejectsEmptyToken(t *testing.T) {
	s := NewFileStore(t.TempDir())
	assert.ErrorIs(t, s.SetToken("  "), ErrEmptyToken)
}

func TestFileStore_RecordsJWTExpiry(t *testing.T) {
	t.Setenv(EnvToken, "")
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	s := NewFileStore(t.TempDir())
	require.NoError(t, s.SetToken(signedToken(t, exp)))

	ti, err := s.Info()
	require.NoError(t, err)
	require.NotNil(t, ti.ExpiresAt)
	assert.True(t, exp.Equal(*ti.ExpiresAt))
	assert.False(t, ti.Expired(time.Now()))
	assert.True(t, ti.Expired(exp.Add(time.Minute)))
}

func TestTokenExpiry_OpaqueToken(t *testing.T) {
	assert.Nil(t, TokenExpiry("not-a-jwt"))
}

func TestMemoryStore(t *testing.T) {
	m := NewMemoryStore()
	require.NoError(t, m.SetToken("t1"))
	tok, ok := m.Token()
	assert.True(t, ok)
	assert.Equal(t, "t1", tok)

	ti, err := m.Info()
	require.NoError(t, err)
	assert.Equal(t, SourceMemory, ti.Source)

	require.NoError(t, m.ClearToken())
	_, ok = m.Token()
	assert.False(t, ok)

	ti, err = m.Info()
	require.NoError(t, err)
	assert.Nil(t, ti)
}
