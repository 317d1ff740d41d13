package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tasker/internal/apitest"
	"github.com/Makepad-fr/tasker/internal/model"
)

func newTestClient(t *testing.T) (*Client, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t)
	srv.AddUser("Ann", "a@b.com", "x")
	return New(srv.URL), srv
}

func TestURL(t *testing.T) {
	c := New("http://example.test/api/")

	assert.Equal(t, "http://example.test/api/tasks", c.URL(EndpointTasks))
	assert.Equal(t, "http://example.test/api/task/42", c.URL(EndpointTask, 42))
	assert.Equal(t, "http://example.test/api/task/42/complete", c.URL(EndpointCompleteTask, 42))
}

func TestNew_DefaultBaseURL(t *testing.T) {
	assert.Equal(t, DefaultBaseURL+"/auth/login", New("").URL(EndpointLogin))
}

func TestHeaders_DependOnBodyAndToken(t *testing.T) {
	c, srv := newTestClient(t)
	ctx := context.Background()

	_, err := c.Login(ctx, model.Credentials{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)
	login, ok := srv.Last(apitest.RouteLogin)
	require.True(t, ok)
	assert.Equal(t, "*/*", login.Header.Get("Accept"))
	assert.Equal(t, "application/json", login.Header.Get("Content-Type"))
	assert.Empty(t, login.Header.Get("Authorization"))

	tok := srv.Token("a@b.com")
	_, err = c.Tasks(ctx, tok)
	require.NoError(t, err)
	list, ok := srv.Last(apitest.RouteTasks)
	require.True(t, ok)
	assert.Equal(t, "*/*", list.Header.Get("Accept"))
	assert.Empty(t, list.Header.Get("Content-Type"), "no body, no content type")
	assert.Equal(t, "Bearer "+tok, list.Header.Get("Authorization"))
	assert.Empty(t, list.Body)
}

func TestLogin_Success(t *testing.T) {
	c, srv := newTestClient(t)

	tok, err := c.Login(context.Background(), model.Credentials{Email: "a@b.com", Password: "x"})
	require.NoError(t, err)
	assert.NotEmpty(t, tok)

	req, _ := srv.Last(apitest.RouteLogin)
	var sent model.Credentials
	require.NoError(t, json.Unmarshal(req.Body, &sent))
	assert.Equal(t, model.Credentials{Email: "a@b.com", Password: "x"}, sent)
}

func TestLogin_RejectedCarriesServerMessage(t *testing.T) {
	c, _ := newTestClient(t)

	_, err := c.Login(context.Background(), model.Credentials{Email: "a@b.com", Password: "wrong"})

	var aerr *AuthError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "Invalid email or password", aerr.Error())

	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusUnauthorized, herr.StatusCode)
}

func TestLogin_FallbackMessageWhenBodyUnparsable(t *testing.T) {
	c, srv := newTestClient(t)
	srv.FailRaw(apitest.RouteLogin, http.StatusInternalServerError, "<html>oops</html>")

	_, err := c.Login(context.Background(), model.Credentials{Email: "a@b.com", Password: "x"})

	var aerr *AuthError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "Login failed", aerr.Message)
}

func TestLogin_MissingToken(t *testing.T) {
	c, srv := newTestClient(t)
	srv.OmitToken = true

	_, err := c.Login(context.Background(), model.Credentials{Email: "a@b.com", Password: "x"})

	var aerr *AuthError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "No token received", aerr.Message)
}

func TestHTTPError_FallbackPerOperation(t *testing.T) {
	c, srv := newTestClient(t)
	tok := srv.Token("a@b.com")
	ctx := context.Background()

	srv.Fail(apitest.RouteTasks, http.StatusInternalServerError, "")
	_, err := c.Tasks(ctx, tok)
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "Failed to fetch tasks", herr.Message)
	assert.Equal(t, http.StatusInternalServerError, herr.StatusCode)

	srv.Fail(apitest.RouteCompleted, http.StatusBadGateway, "")
	_, err = c.CompletedTasks(ctx, tok)
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "Failed to fetch completed tasks", herr.Message)

	srv.Fail(apitest.RouteMe, http.StatusForbidden, "account disabled")
	_, err = c.Me(ctx, tok)
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "account disabled", herr.Message)
}

func TestTaskLifecycle(t *testing.T) {
	c, srv := newTestClient(t)
	tok := srv.Token("a@b.com")
	ctx := context.Background()

	created, err := c.CreateTask(ctx, tok, model.Draft{Title: "write docs", Description: "api", Priority: model.PriorityHigh})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "write docs", created.Title)

	updated, err := c.UpdateTask(ctx, tok, created.ID, model.Draft{Title: "write more docs", Priority: model.PriorityLow})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "write more docs", updated.Title)
	upd, _ := srv.Last(apitest.RouteUpdate)
	assert.Equal(t, "/task/1", upd.Path)

	require.NoError(t, c.CompleteTask(ctx, tok, created.ID))
	done, _ := srv.Last(apitest.RouteComplete)
	assert.Empty(t, done.Body)
	assert.Empty(t, done.Header.Get("Content-Type"))

	completed, err := c.CompletedTasks(ctx, tok)
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.True(t, completed[0].Completed)

	require.NoError(t, c.DeleteTask(ctx, tok, created.ID))
	all, err := c.Tasks(ctx, tok)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.NotNil(t, all)
}

func TestRegister(t *testing.T) {
	c, srv := newTestClient(t)

	err := c.Register(context.Background(), model.Registration{Name: "Bob", Email: "bob@b.com", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)

	req, _ := srv.Last(apitest.RouteRegister)
	assert.NotContains(t, string(req.Body), "ConfirmPassword")

	err = c.Register(context.Background(), model.Registration{Name: "Bob", Email: "bob@b.com", Password: "secret1"})
	var herr *HTTPError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, http.StatusConflict, herr.StatusCode)
}

func TestTransportErrorUsesFallback(t *testing.T) {
	srv := apitest.New(t)
	c := New(srv.URL)
	srv.Close()

	_, err := c.Tasks(context.Background(), "t")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to fetch tasks")
	var herr *HTTPError
	assert.False(t, errors.As(err, &herr))
}
