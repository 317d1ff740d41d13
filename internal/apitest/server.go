// Package apitest runs an in-process smart-tasker backend for tests.
//
// It implements the same routes as the hosted API, issues signed JWTs on
// login, records every request it sees and can be told to fail a route.
package apitest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"

	"github.com/Makepad-fr/tasker/internal/model"
)

// Route keys accepted by Fail and Count.
const (
	RouteLogin     = "POST /auth/login"
	RouteRegister  = "POST /auth/register"
	RouteMe        = "GET /auth/me"
	RouteTasks     = "GET /tasks"
	RouteCompleted = "GET /tasks/completed"
	RouteCreate    = "POST /task"
	RouteUpdate    = "PUT /task/{id}"
	RouteComplete  = "PATCH /task/{id}/complete"
	RouteDelete    = "DELETE /task/{id}"
)

var signingKey = []byte("apitest-signing-key")

// Request is a recorded inbound request.
type Request struct {
	Route  string
	Path   string
	Header http.Header
	Body   []byte
}

type failure struct {
	status int
	body   string
}

type user struct {
	name, email, password string
}

// Server is a fake backend. Zero value is not usable; call New.
type Server struct {
	*httptest.Server

	// UpdateHook, when set, rewrites the task returned by PUT /task/{id}
	// after it is stored.
	UpdateHook func(model.Task) model.Task

	// OmitToken makes login answer 200 with no token field.
	OmitToken bool

	mu       sync.Mutex
	users    map[string]user
	tasks    map[int64]model.Task
	owners   map[int64]string
	nextID   int64
	fails    map[string]failure
	requests []Request
}

// New starts a server and closes it when the test ends.
func New(tb testing.TB) *Server {
	tb.Helper()
	s := &Server{
		users:  map[string]user{},
		tasks:  map[int64]model.Task{},
		owners: map[int64]string{},
		fails:  map[string]failure{},
	}
	s.Server = httptest.NewServer(s.router())
	tb.Cleanup(s.Close)
	return s
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)

	r.HandleFunc("/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)

	authed := r.NewRoute().Subrouter()
	authed.Use(s.requireToken)
	authed.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	authed.HandleFunc("/tasks", s.handleList(false)).Methods(http.MethodGet)
	authed.HandleFunc("/tasks/completed", s.handleList(true)).Methods(http.MethodGet)
	authed.HandleFunc("/task", s.handleCreate).Methods(http.MethodPost)
	authed.HandleFunc("/task/{id:[0-9]+}", s.handleUpdate).Methods(http.MethodPut)
	authed.HandleFunc("/task/{id:[0-9]+}/complete", s.handleComplete).Methods(http.MethodPatch)
	authed.HandleFunc("/task/{id:[0-9]+}", s.handleDelete).Methods(http.MethodDelete)
	return r
}

// AddUser registers an account directly.
func (s *Server) AddUser(name, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = user{name: name, email: email, password: password}
}

// Seed stores a task for email and returns it with its assigned id.
func (s *Server) Seed(email string, t model.Task) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	t.ID = s.nextID
	if t.Priority == "" {
		t.Priority = model.PriorityLow
	}
	s.tasks[t.ID] = t
	s.owners[t.ID] = email
	return t
}

// Task returns the server's copy of a task.
func (s *Server) Task(id int64) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

// Fail makes route answer status with {"message": message}. An empty
// message sends a body without that field.
func (s *Server) Fail(route string, status int, message string) {
	body := `{"error":"boom"}`
	if message != "" {
		b, _ := json.Marshal(map[string]string{"message": message})
		body = string(b)
	}
	s.FailRaw(route, status, body)
}

// FailRaw makes route answer status with a literal body.
func (s *Server) FailRaw(route string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fails[route] = failure{status: status, body: body}
}

// Recover removes an injected failure.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fails, route)
}

// Requests returns everything received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Count reports how many requests hit route.
func (s *Server) Count(route string) int {
	n := 0
	for _, r := range s.Requests() {
		if r.Route == route {
			n++
		}
	}
	return n
}

// Last returns the most recent request to route.
func (s *Server) Last(route string) (Request, bool) {
	reqs := s.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Route == route {
			return reqs[i], true
		}
	}
	return Request{}, false
}

// Token mints a token for email the same way login does.
func (s *Server) Token(email string) string {
	tok, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   email,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(signingKey)
	return tok
}

// record logs the request and short-circuits injected failures.
func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := r.Method + " " + r.URL.Path
		if cr := mux.CurrentRoute(r); cr != nil {
			if tpl, err := cr.GetPathTemplate(); err == nil {
				route = r.Method + " " + strings.ReplaceAll(tpl, ":[0-9]+", "")
			}
		}
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.requests = append(s.requests, Request{Route: route, Path: r.URL.Path, Header: r.Header.Clone(), Body: body})
		f, failing := s.fails[route]
		s.mu.Unlock()

		if failing {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = io.WriteString(w, f.body)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type ctxEmail struct{}

func emailOf(r *http.Request) string {
	email, _ := r.Context().Value(ctxEmail{}).(string)
	return email
}

func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Missing token"})
			return
		}
		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return signingKey, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxEmail{}, claims.Subject)))
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds model.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	s.mu.Lock()
	u, ok := s.users[creds.Email]
	s.mu.Unlock()
	if !ok || u.password != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}
	if s.OmitToken {
		writeJSON(w, http.StatusOK, map[string]string{})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": s.Token(u.email)})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg model.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[reg.Email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "Email already registered"})
		return
	}
	s.users[reg.Email] = user{name: reg.Name, email: reg.Email, password: reg.Password}
	writeJSON(w, http.StatusCreated, map[string]string{"name": reg.Name, "email": reg.Email})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	email := emailOf(r)
	s.mu.Lock()
	u, ok := s.users[email]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}
	writeJSON(w, http.StatusOK, model.Profile{Name: u.name, Email: u.email})
}

func (s *Server) handleList(completedOnly bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := emailOf(r)
		s.mu.Lock()
		out := []model.Task{}
		for id, t := range s.tasks {
			if s.owners[id] != email || (completedOnly && !t.Completed) {
				continue
			}
			out = append(out, t)
		}
		s.mu.Unlock()
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var d model.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil || strings.TrimSpace(d.Title) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Title is required"})
		return
	}
	t := s.Seed(emailOf(r), model.Task{
		Title:       d.Title,
		Description: d.Description,
		DueDate:     d.DueDate,
		Priority:    d.Priority,
	})
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) owned(w http.ResponseWriter, r *http.Request) (model.Task, bool) {
	id, _ := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	s.mu.Lock()
	t, ok := s.tasks[id]
	owner := s.owners[id]
	s.mu.Unlock()
	if !ok || owner != emailOf(r) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Task not found"})
		return model.Task{}, false
	}
	return t, true
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	t, ok := s.owned(w, r)
	if !ok {
		return
	}
	var d model.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}
	t.Title, t.Description, t.DueDate, t.Priority = d.Title, d.Description, d.DueDate, d.Priority
	if s.UpdateHook != nil {
		t = s.UpdateHook(t)
	}
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	t, ok := s.owned(w, r)
	if !ok {
		return
	}
	t.Completed = true
	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	t, ok := s.owned(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.tasks, t.ID)
	delete(s.owners, t.ID)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
