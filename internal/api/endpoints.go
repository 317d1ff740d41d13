package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Makepad-fr/tasker/internal/model"
)

type loginResponse struct {
	Token string `json:"token"`
}

// Login exchanges credentials for a bearer token. Rejections and
// token-less responses come back as *AuthError.
func (c *Client) Login(ctx context.Context, creds model.Credentials) (string, error) {
	var out loginResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: EndpointLogin,
		body:     creds,
		fallback: "Login failed",
	}, &out)
	if err != nil {
		var herr *HTTPError
		if errors.As(err, &herr) {
			return "", &AuthError{Message: herr.Message, Err: err}
		}
		return "", err
	}
	if strings.TrimSpace(out.Token) == "" {
		return "", &AuthError{Message: "No token received"}
	}
	return out.Token, nil
}

// Register creates an account. It does not log in.
func (c *Client) Register(ctx context.Context, reg model.Registration) error {
	return c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: EndpointRegister,
		body:     reg,
		fallback: "Registration failed. Please try again.",
	}, nil)
}

// Me fetches the logged-in user's profile.
func (c *Client) Me(ctx context.Context, token string) (model.Profile, error) {
	var p model.Profile
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: EndpointMe,
		token:    token,
		fallback: "Failed to fetch user profile",
	}, &p)
	return p, err
}

// Tasks lists every task of the user.
func (c *Client) Tasks(ctx context.Context, token string) ([]model.Task, error) {
	out := []model.Task{}
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: EndpointTasks,
		token:    token,
		fallback: "Failed to fetch tasks",
	}, &out)
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// CompletedTasks lists completed tasks from the dedicated endpoint.
func (c *Client) CompletedTasks(ctx context.Context, token string) ([]model.Task, error) {
	out := []model.Task{}
	err := c.do(ctx, call{
		method:   http.MethodGet,
		endpoint: EndpointCompleted,
		token:    token,
		fallback: "Failed to fetch completed tasks",
	}, &out)
	if err != nil {
		return nil, err
	}
	return nonNil(out), nil
}

// CreateTask returns the server's copy, with its id.
func (c *Client) CreateTask(ctx context.Context, token string, d model.Draft) (model.Task, error) {
	var t model.Task
	err := c.do(ctx, call{
		method:   http.MethodPost,
		endpoint: EndpointCreateTask,
		token:    token,
		body:     d,
		fallback: "Failed to create task",
	}, &t)
	return t, err
}

// UpdateTask sends a full replacement and returns the server's copy.
func (c *Client) UpdateTask(ctx context.Context, token string, id int64, d model.Draft) (model.Task, error) {
	var t model.Task
	err := c.do(ctx, call{
		method:   http.MethodPut,
		endpoint: EndpointTask,
		ids:      []int64{id},
		token:    token,
		body:     d,
		fallback: "Failed to update task",
	}, &t)
	return t, err
}

// CompleteTask marks a task done. The response body is ignored.
func (c *Client) CompleteTask(ctx context.Context, token string, id int64) error {
	return c.do(ctx, call{
		method:   http.MethodPatch,
		endpoint: EndpointCompleteTask,
		ids:      []int64{id},
		token:    token,
		fallback: "Failed to mark task as completed",
	}, nil)
}

// DeleteTask removes a task on the server.
func (c *Client) DeleteTask(ctx context.Context, token string, id int64) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		endpoint: EndpointTask,
		ids:      []int64{id},
		token:    token,
		fallback: "Failed to delete task",
	}, nil)
}

// a JSON null decodes to a nil slice
func nonNil(ts []model.Task) []model.Task {
	if ts == nil {
		return []model.Task{}
	}
	return ts
}
