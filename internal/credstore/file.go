package credstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const credFileName = "credentials.json"

// EnvToken overrides the stored token when set.
const EnvToken = "TASKER_TOKEN"

var (
	// ErrEmptyToken is returned when asked to store a blank token.
	ErrEmptyToken = errors.New("empty token")
	// ErrNoToken means an authenticated operation ran with nobody logged in.
	// Callers send the user to the login view instead of showing it.
	ErrNoToken = errors.New("not logged in")
)

// FileStore persists the token as JSON under dir and keeps the profile
// in memory. TASKER_TOKEN wins over the file until this process sets or
// clears a token itself; from then on only the file counts.
type FileStore struct {
	sessionTier

	dir    string
	fmu    sync.Mutex
	envOff bool
}

// NewFileStore stores credentials in dir (created 0700 on first write).
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// DefaultDir is ~/.tasker.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, ".tasker"), nil
}

// Path is the credentials file location.
func (f *FileStore) Path() string { return filepath.Join(f.dir, credFileName) }

// Info returns nil, nil when nobody is logged in.
func (f *FileStore) Info() (*TokenInfo, error) {
	f.fmu.Lock()
	defer f.fmu.Unlock()

	// 1) env override
	if env := strings.TrimSpace(os.Getenv(EnvToken)); env != "" && !f.envOff {
		tok := stripBearer(env)
		return &TokenInfo{Token: tok, Source: SourceEnv, ExpiresAt: TokenExpiry(tok)}, nil
	}

	// 2) file
	b, err := os.ReadFile(f.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	var ti TokenInfo
	if err := json.Unmarshal(b, &ti); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	ti.Token = stripBearer(ti.Token)
	if ti.Token == "" {
		return nil, nil
	}
	return &ti, nil
}

func (f *FileStore) Token() (string, bool) {
	ti, err := f.Info()
	if err != nil || ti == nil {
		return "", false
	}
	return ti.Token, true
}

func (f *FileStore) SetToken(token string) error {
	token = stripBearer(strings.TrimSpace(token))
	if token == "" {
		return ErrEmptyToken
	}
	f.fmu.Lock()
	defer f.fmu.Unlock()
	f.envOff = true
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	ti := TokenInfo{
		Token:     token,
		Source:    SourceFile,
		CreatedAt: time.Now(),
		ExpiresAt: TokenExpiry(token),
	}
	b, err := json.MarshalIndent(ti, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	// owner-only
	if err := os.WriteFile(f.Path(), b, 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// ClearToken removes the file and stops honouring the env token for the
// rest of the process. The variable itself is left alone.
func (f *FileStore) ClearToken() error {
	f.fmu.Lock()
	defer f.fmu.Unlock()
	f.envOff = true
	if err := os.Remove(f.Path()); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
