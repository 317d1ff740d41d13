package session

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tasker/internal/api"
	"github.com/Makepad-fr/tasker/internal/apitest"
	"github.com/Makepad-fr/tasker/internal/credstore"
	"github.com/Makepad-fr/tasker/internal/model"
	"github.com/Makepad-fr/tasker/internal/tasks"
)

type fixture struct {
	srv   *apitest.Server
	creds *credstore.MemoryStore
	tasks *tasks.Store
	ctl   *Controller
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser("Ann", "a@b.com", "x")
	client := api.New(srv.URL)
	creds := credstore.NewMemoryStore()
	ts := tasks.New(client, creds, nil)
	return &fixture{srv: srv, creds: creds, tasks: ts, ctl: New(client, creds, ts, nil)}
}

var ann = model.Credentials{Email: "a@b.com", Password: "x"}

func TestLogin_ExampleScenario(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctl.Login(context.Background(), ann))

	assert.Equal(t, Authenticated, f.ctl.State())
	tok, ok := f.creds.Token()
	assert.True(t, ok)
	assert.NotEmpty(t, tok)
	p, ok := f.creds.Profile()
	require.True(t, ok)
	assert.Equal(t, model.Profile{Name: "Ann", Email: "a@b.com"}, p)
	assert.Empty(t, f.tasks.Tasks())
	assert.Equal(t, "Ann", f.ctl.DisplayName())
}

func TestLogin_LoadsTasks(t *testing.T) {
	f := newFixture(t)
	f.srv.Seed("a@b.com", model.Task{Title: "first"})

	require.NoError(t, f.ctl.Login(context.Background(), ann))

	require.Len(t, f.tasks.Tasks(), 1)
	assert.Equal(t, "first", f.tasks.Tasks()[0].Title)
}

func TestLogin_TaskFetchFailureKeepsTokenButBlocksSession(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(apitest.RouteTasks, http.StatusInternalServerError, "")

	err := f.ctl.Login(context.Background(), ann)

	require.EqualError(t, err, "Failed to fetch tasks")
	assert.Equal(t, Failed, f.ctl.State())
	assert.Equal(t, err, f.ctl.Err())
	_, ok := f.creds.Token()
	assert.True(t, ok, "token is not rolled back")
}

func TestLogin_ProfileFailureIsSwallowed(t *testing.T) {
	f := newFixture(t)
	f.srv.Fail(apitest.RouteMe, http.StatusInternalServerError, "")

	require.NoError(t, f.ctl.Login(context.Background(), ann))

	assert.Equal(t, Authenticated, f.ctl.State())
	_, ok := f.creds.Profile()
	assert.False(t, ok)
	assert.Equal(t, "User", f.ctl.DisplayName())
}

func TestLogin_RejectedStoresNothing(t *testing.T) {
	f := newFixture(t)

	err := f.ctl.Login(context.Background(), model.Credentials{Email: "a@b.com", Password: "nope"})

	var aerr *api.AuthError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "Invalid email or password", aerr.Message)
	assert.Equal(t, Failed, f.ctl.State())
	_, ok := f.creds.Token()
	assert.False(t, ok)
	assert.Equal(t, 0, f.srv.Count(apitest.RouteMe))
	assert.Equal(t, 0, f.srv.Count(apitest.RouteTasks))
}

func TestLogin_BlankFieldsMakeNoRequest(t *testing.T) {
	f := newFixture(t)

	err := f.ctl.Login(context.Background(), model.Credentials{Email: "  "})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Email is required", verr.Field("email"))
	assert.Equal(t, "Password is required", verr.Field("password"))
	assert.Empty(t, f.srv.Requests())
	assert.Equal(t, Idle, f.ctl.State())
}

// blockingBackend parks Login until released.
type blockingBackend struct {
	entered chan struct{}
	release chan struct{}
}

func (b *blockingBackend) Login(ctx context.Context, _ model.Credentials) (string, error) {
	close(b.entered)
	<-b.release
	return "t1", nil
}

func (b *blockingBackend) Register(context.Context, model.Registration) error { return nil }

func (b *blockingBackend) Me(context.Context, string) (model.Profile, error) {
	return model.Profile{Name: "Ann"}, nil
}

type stubLoader struct{ loads int }

func (s *stubLoader) LoadAll(context.Context) error { s.loads++; return nil }
func (s *stubLoader) Reset()                        {}

func TestLogin_SecondAttemptWhileInFlightIsRejected(t *testing.T) {
	b := &blockingBackend{entered: make(chan struct{}), release: make(chan struct{})}
	loader := &stubLoader{}
	ctl := New(b, credstore.NewMemoryStore(), loader, nil)

	done := make(chan error, 1)
	go func() { done <- ctl.Login(context.Background(), ann) }()
	<-b.entered

	assert.Equal(t, Authenticating, ctl.State())
	assert.ErrorIs(t, ctl.Login(context.Background(), ann), ErrLoginInProgress)

	close(b.release)
	require.NoError(t, <-done)
	assert.Equal(t, Authenticated, ctl.State())
	assert.Equal(t, 1, loader.loads)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.srv.Seed("a@b.com", model.Task{Title: "t"})
	require.NoError(t, f.ctl.Login(context.Background(), ann))
	before := len(f.srv.Requests())

	require.NoError(t, f.ctl.Logout())

	assert.Equal(t, Idle, f.ctl.State())
	_, ok := f.creds.Token()
	assert.False(t, ok)
	_, ok = f.creds.Profile()
	assert.False(t, ok)
	assert.Empty(t, f.tasks.Tasks())
	assert.Len(t, f.srv.Requests(), before, "logout makes no server call")
}

func TestResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	assert.ErrorIs(t, f.ctl.Resume(ctx), credstore.ErrNoToken)

	require.NoError(t, f.creds.SetToken(f.srv.Token("a@b.com")))
	f.srv.Seed("a@b.com", model.Task{Title: "t"})
	require.NoError(t, f.ctl.Resume(ctx))

	assert.Equal(t, Authenticated, f.ctl.State())
	assert.Len(t, f.tasks.Tasks(), 1)
}

func TestRefreshProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.ctl.RefreshProfile(ctx)
	assert.ErrorIs(t, err, credstore.ErrNoToken)

	require.NoError(t, f.creds.SetToken(f.srv.Token("a@b.com")))
	p, err := f.ctl.RefreshProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Ann", p.Name)
	cached, ok := f.ctl.Profile()
	assert.True(t, ok)
	assert.Equal(t, p, cached)

	f.srv.Fail(apitest.RouteMe, http.StatusInternalServerError, "")
	_, err = f.ctl.RefreshProfile(ctx)
	assert.EqualError(t, err, "Failed to fetch user profile")
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.ctl.Register(ctx, model.Registration{Name: "B", Email: "bad", Password: "123", ConfirmPassword: "321"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Fields, 4)
	assert.Equal(t, "Name must be at least 2 characters", verr.Field("name"))
	assert.Equal(t, "Please enter a valid email address", verr.Field("email"))
	assert.Equal(t, "Password must be at least 6 characters", verr.Field("password"))
	assert.Equal(t, "Passwords do not match", verr.Field("confirmPassword"))
	assert.Empty(t, f.srv.Requests())

	reg := model.Registration{Name: "Bob", Email: "bob@b.com", Password: "secret1", ConfirmPassword: "secret1"}
	require.NoError(t, f.ctl.Register(ctx, reg))
	assert.Equal(t, Idle, f.ctl.State(), "registering does not log in")

	require.NoError(t, f.ctl.Login(ctx, model.Credentials{Email: "bob@b.com", Password: "secret1"}))
	assert.Equal(t, "Bob", f.ctl.DisplayName())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "authenticating", Authenticating.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestLogin_OverridesEnvTokenForThisProcess(t *testing.T) {
	srv := apitest.New(t)
	srv.AddUser("Ann", "a@b.com", "x")
	srv.AddUser("Bob", "bob@b.com", "y")
	srv.Seed("bob@b.com", model.Task{Title: "bob's task"})
	srv.Seed("a@b.com", model.Task{Title: "ann's task"})
	t.Setenv(credstore.EnvToken, srv.Token("bob@b.com"))

	client := api.New(srv.URL)
	creds := credstore.NewFileStore(t.TempDir())
	ts := tasks.New(client, creds, nil)
	ctl := New(client, creds, ts, nil)

	require.NoError(t, ctl.Login(context.Background(), ann))

	assert.Equal(t, Authenticated, ctl.State())
	assert.Equal(t, "Ann", ctl.DisplayName())
	require.Len(t, ts.Tasks(), 1)
	assert.Equal(t, "ann's task", ts.Tasks()[0].Title)

	require.NoError(t, ctl.Logout())
	assert.Equal(t, Idle, ctl.State())
	assert.False(t, ctl.HasToken())
}
