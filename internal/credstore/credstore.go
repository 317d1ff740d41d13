// Package credstore keeps the bearer token and the cached user profile.
//
// The token lives in a durable tier that survives restarts. The profile
// lives in a session tier that only lasts as long as the process.
package credstore

import (
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Makepad-fr/tasker/internal/model"
)

// Store is what the session controller and task store need from
// credential storage. Implementations must be safe for concurrent use.
type Store interface {
	SetToken(token string) error
	Token() (string, bool)
	ClearToken() error

	SetProfile(p model.Profile)
	Profile() (model.Profile, bool)
	ClearProfile()
}

// Token sources reported by Info.
const (
	SourceEnv    = "env"
	SourceFile   = "file"
	SourceMemory = "memory"
)

// TokenInfo describes the stored token.
type TokenInfo struct {
	Token     string     `json:"token"`
	Source    string     `json:"source"`     // env | file | memory
	CreatedAt time.Time  `json:"created_at"` // when we saved it
	ExpiresAt *time.Time `json:"expires_at"` // from the JWT exp claim, if any
}

// Expired reports whether the token carries an expiry in the past.
func (ti *TokenInfo) Expired(now time.Time) bool {
	return ti != nil && ti.ExpiresAt != nil && now.After(*ti.ExpiresAt)
}

// sessionTier is the short-lived profile cache shared by both stores.
type sessionTier struct {
	mu      sync.Mutex
	profile *model.Profile
}

func (s *sessionTier) SetProfile(p model.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = &p
}

func (s *sessionTier) Profile() (model.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.profile == nil {
		return model.Profile{}, false
	}
	return *s.profile, true
}

func (s *sessionTier) ClearProfile() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = nil
}

// MemoryStore keeps both tiers in memory.
type MemoryStore struct {
	sessionTier

	tmu   sync.Mutex
	token string
	saved time.Time
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) SetToken(token string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return ErrEmptyToken
	}
	m.tmu.Lock()
	defer m.tmu.Unlock()
	m.token = token
	m.saved = time.Now()
	return nil
}

func (m *MemoryStore) Token() (string, bool) {
	m.tmu.Lock()
	defer m.tmu.Unlock()
	return m.token, m.token != ""
}

func (m *MemoryStore) ClearToken() error {
	m.tmu.Lock()
	defer m.tmu.Unlock()
	m.token = ""
	return nil
}

// Info returns nil when no token is held.
func (m *MemoryStore) Info() (*TokenInfo, error) {
	m.tmu.Lock()
	defer m.tmu.Unlock()
	if m.token == "" {
		return nil, nil
	}
	return &TokenInfo{Token: m.token, Source: SourceMemory, CreatedAt: m.saved, ExpiresAt: TokenExpiry(m.token)}, nil
}

// TokenExpiry reads the exp claim of a JWT without verifying it.
// Opaque tokens yield nil.
func TokenExpiry(token string) *time.Time {
	claims, err := Claims(token)
	if err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	t := exp.Time
	return &t
}

// Claims decodes a JWT payload without checking the signature.
func Claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func stripBearer(s string) string {
	if strings.HasPrefix(strings.ToLower(s), "bearer ") {
		return strings.TrimSpace(s[7:])
	}
	return s
}
