// Package session drives login, logout and registration.
//
// A login stores the token first, then fetches the profile (best effort)
// and the task list (required). A failed task fetch leaves the token
// stored but keeps the session out of the Authenticated state.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tasker/internal/credstore"
	"github.com/Makepad-fr/tasker/internal/model"
)

// ErrLoginInProgress rejects a second login while one is in flight.
var ErrLoginInProgress = errors.New("login already in progress")

// State of the login state machine.
type State int

const (
	Idle State = iota
	Authenticating
	Authenticated
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Backend is the part of the API client the controller calls.
type Backend interface {
	Login(ctx context.Context, creds model.Credentials) (string, error)
	Register(ctx context.Context, reg model.Registration) error
	Me(ctx context.Context, token string) (model.Profile, error)
}

// TaskLoader is the part of the task store the controller drives.
type TaskLoader interface {
	LoadAll(ctx context.Context) error
	Reset()
}

// Controller owns the session state.
type Controller struct {
	api   Backend
	creds credstore.Store
	tasks TaskLoader
	log   *log.Logger

	mu    sync.Mutex
	state State
	err   error
}

// New creates an Idle controller. A nil logger discards output.
func New(api Backend, creds credstore.Store, tasks TaskLoader, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Controller{api: api, creds: creds, tasks: tasks, log: logger}
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err is the error that moved the session to Failed, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Controller) begin() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Authenticating {
		return ErrLoginInProgress
	}
	c.state = Authenticating
	c.err = nil
	return nil
}

func (c *Controller) finish(st State, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = st
	c.err = err
	return err
}

// Login exchanges credentials for a token and establishes the session.
func (c *Controller) Login(ctx context.Context, creds model.Credentials) error {
	creds.Email = strings.TrimSpace(creds.Email)
	if err := ValidateCredentials(creds); err != nil {
		return err
	}
	if err := c.begin(); err != nil {
		return err
	}
	l := c.log.With("login", uuid.NewString())
	l.Debug("login started", "email", creds.Email)

	token, err := c.api.Login(ctx, creds)
	if err != nil {
		l.Info("login rejected", "err", err)
		return c.finish(Failed, err)
	}
	if err := c.creds.SetToken(token); err != nil {
		return c.finish(Failed, fmt.Errorf("save token: %w", err))
	}

	// Profile is a nice-to-have: its failure never fails the login.
	if p, err := c.api.Me(ctx, token); err != nil {
		l.Error("Failed to fetch user profile", "err", err)
	} else {
		c.creds.SetProfile(p)
	}

	// The token stays stored even if this fails.
	if err := c.tasks.LoadAll(ctx); err != nil {
		l.Error("login blocked by task fetch", "err", err)
		return c.finish(Failed, err)
	}

	l.Debug("login complete")
	return c.finish(Authenticated, nil)
}

// Resume reuses a stored token after a restart. It loads the task list
// and marks the session Authenticated.
func (c *Controller) Resume(ctx context.Context) error {
	if _, ok := c.creds.Token(); !ok {
		return credstore.ErrNoToken
	}
	if err := c.begin(); err != nil {
		return err
	}
	if err := c.tasks.LoadAll(ctx); err != nil {
		return c.finish(Failed, err)
	}
	return c.finish(Authenticated, nil)
}

// Logout forgets the token, the profile and the cached tasks. No request
// is sent.
func (c *Controller) Logout() error {
	err := c.creds.ClearToken()
	c.creds.ClearProfile()
	c.tasks.Reset()
	c.finish(Idle, nil)
	if err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	return nil
}

// Register validates the sign-up form, then creates the account.
func (c *Controller) Register(ctx context.Context, reg model.Registration) error {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := ValidateRegistration(reg); err != nil {
		return err
	}
	if err := c.api.Register(ctx, reg); err != nil {
		c.log.Warn("registration failed", "email", reg.Email, "err", err)
		return err
	}
	return nil
}

// RefreshProfile fetches and caches the profile.
func (c *Controller) RefreshProfile(ctx context.Context) (model.Profile, error) {
	tok, ok := c.creds.Token()
	if !ok {
		return model.Profile{}, credstore.ErrNoToken
	}
	p, err := c.api.Me(ctx, tok)
	if err != nil {
		return model.Profile{}, err
	}
	c.creds.SetProfile(p)
	return p, nil
}

// HasToken reports whether a token is stored, e.g. from a previous run.
func (c *Controller) HasToken() bool {
	_, ok := c.creds.Token()
	return ok
}

// Profile returns the cached profile.
func (c *Controller) Profile() (model.Profile, bool) {
	return c.creds.Profile()
}

// DisplayName is the cached profile name, or "User".
func (c *Controller) DisplayName() string {
	if p, ok := c.creds.Profile(); ok && p.Name != "" {
		return p.Name
	}
	return "User"
}
