// Package tasks caches the logged-in user's tasks.
//
// The cache mirrors server state. Creates and updates take the server's
// returned object; completion flips the cached flag without a refetch.
// HTTP calls run unlocked so independent operations can overlap; each
// result is applied to the cache under the store's mutex.
package tasks

import (
	"context"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tasker/internal/credstore"
	"github.com/Makepad-fr/tasker/internal/model"
)

// Backend is the subset of the API client the store uses.
type Backend interface {
	Tasks(ctx context.Context, token string) ([]model.Task, error)
	CompletedTasks(ctx context.Context, token string) ([]model.Task, error)
	CreateTask(ctx context.Context, token string, d model.Draft) (model.Task, error)
	UpdateTask(ctx context.Context, token string, id int64, d model.Draft) (model.Task, error)
	CompleteTask(ctx context.Context, token string, id int64) error
}

// TokenSource yields the current bearer token.
type TokenSource interface {
	Token() (string, bool)
}

// Store owns the in-memory task lists for one session.
type Store struct {
	api   Backend
	creds TokenSource
	log   *log.Logger

	mu        sync.RWMutex
	tasks     []model.Task
	completed []model.Task
	err       error
}

// New creates an empty store. A nil logger discards output.
func New(api Backend, creds TokenSource, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Store{api: api, creds: creds, log: logger}
}

func (s *Store) token() (string, error) {
	tok, ok := s.creds.Token()
	if !ok || tok == "" {
		return "", credstore.ErrNoToken
	}
	return tok, nil
}

// fail records err as the most recent error and returns it.
func (s *Store) fail(op string, err error) error {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
	s.log.Warn("task operation failed", "op", op, "err", err)
	return err
}

// LoadAll replaces the task list with the server's.
func (s *Store) LoadAll(ctx context.Context) error {
	tok, err := s.token()
	if err != nil {
		return err
	}
	ts, err := s.api.Tasks(ctx, tok)
	if err != nil {
		return s.fail("load", err)
	}
	s.mu.Lock()
	s.tasks = ts
	s.mu.Unlock()
	s.log.Debug("tasks loaded", "count", len(ts))
	return nil
}

// LoadCompleted replaces the completed list with the server's.
func (s *Store) LoadCompleted(ctx context.Context) error {
	tok, err := s.token()
	if err != nil {
		return err
	}
	ts, err := s.api.CompletedTasks(ctx, tok)
	if err != nil {
		return s.fail("load completed", err)
	}
	s.mu.Lock()
	s.completed = ts
	s.mu.Unlock()
	s.log.Debug("completed tasks loaded", "count", len(ts))
	return nil
}

// Create sends the draft and appends the server's copy. A blank title is
// rejected before any request is made.
func (s *Store) Create(ctx context.Context, d model.Draft) (model.Task, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return model.Task{}, err
	}
	tok, err := s.token()
	if err != nil {
		return model.Task{}, err
	}
	t, err := s.api.CreateTask(ctx, tok, d)
	if err != nil {
		return model.Task{}, s.fail("create", err)
	}
	s.mu.Lock()
	s.tasks = append(s.tasks, t)
	s.mu.Unlock()
	return t, nil
}

// Update sends a full replacement and swaps in the server's copy.
func (s *Store) Update(ctx context.Context, id int64, d model.Draft) (model.Task, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return model.Task{}, err
	}
	tok, err := s.token()
	if err != nil {
		return model.Task{}, err
	}
	t, err := s.api.UpdateTask(ctx, tok, id, d)
	if err != nil {
		return model.Task{}, s.fail("update", err)
	}
	s.mu.Lock()
	replace(s.tasks, id, t)
	replace(s.completed, id, t)
	s.mu.Unlock()
	return t, nil
}

// Complete marks id done on the server, then sets Completed on the cached
// entry. Calls for the same id are not deduplicated.
func (s *Store) Complete(ctx context.Context, id int64) error {
	tok, err := s.token()
	if err != nil {
		return err
	}
	if err := s.api.CompleteTask(ctx, tok, id); err != nil {
		return s.fail("complete", err)
	}
	s.mu.Lock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Completed = true
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// Tasks returns a copy of the task list.
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Task{}, s.tasks...)
}

// Completed returns a copy of the completed list.
func (s *Store) Completed() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Task{}, s.completed...)
}

// Find looks id up in the task list.
func (s *Store) Find(id int64) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

// Err is the most recent failure. Later successes do not clear it.
func (s *Store) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// ClearErr forgets the recorded failure.
func (s *Store) ClearErr() {
	s.mu.Lock()
	s.err = nil
	s.mu.Unlock()
}

// Reset drops everything, e.g. on logout.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks, s.completed, s.err = nil, nil, nil
}

// Stats counts done and pending tasks in the task list.
func (s *Store) Stats() (done, pending int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, t := range s.tasks {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}

func replace(ts []model.Task, id int64, t model.Task) {
	for i := range ts {
		if ts[i].ID == id {
			ts[i] = t
			return
		}
	}
}
