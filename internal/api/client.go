// Package api talks to the smart-tasker HTTP API.
//
// Every call is a single request: no retries, no client-side timeout.
// Cancellation only comes from the caller's context.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
)

// DefaultBaseURL is the hosted backend.
const DefaultBaseURL = "https://smart-tasker-p95e.onrender.com/smart-tasker/api"

// Endpoint templates. Parameterised ones take a task id.
const (
	EndpointLogin        = "/auth/login"
	EndpointRegister     = "/auth/register"
	EndpointMe           = "/auth/me"
	EndpointTasks        = "/tasks"
	EndpointCompleted    = "/tasks/completed"
	EndpointCreateTask   = "/task"
	EndpointTask         = "/task/%d"
	EndpointCompleteTask = "/task/%d/complete"
)

// Client builds URLs against a fixed base and executes requests.
type Client struct {
	baseURL string
	client  *http.Client
	log     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient swaps the transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New creates a client. An empty baseURL means DefaultBaseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{},
		log:     log.New(io.Discard),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// BaseURL returns the configured base.
func (c *Client) BaseURL() string { return c.baseURL }

// URL joins the base and an endpoint template, substituting ids in order.
func (c *Client) URL(endpoint string, ids ...int64) string {
	if len(ids) > 0 {
		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		endpoint = fmt.Sprintf(endpoint, args...)
	}
	return c.baseURL + endpoint
}

// call describes one request.
type call struct {
	method   string
	endpoint string
	ids      []int64
	token    string
	body     any
	fallback string // message used when the error body has none
}

type errorBody struct {
	Message string `json:"message"`
}

// do issues the request and decodes a successful JSON body into out
// (nil out discards it).
func (c *Client) do(ctx context.Context, cl call, out any) error {
	var rdr io.Reader
	if cl.body != nil {
		b, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	url := c.URL(cl.endpoint, cl.ids...)
	req, err := http.NewRequestWithContext(ctx, cl.method, url, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "*/*")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.log.Debug("request failed", "method", cl.method, "url", url, "err", err)
		return fmt.Errorf("%s: %w", cl.fallback, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	c.log.Debug("request", "method", cl.method, "url", url, "status", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := cl.fallback
		var eb errorBody
		if json.Unmarshal(respBody, &eb) == nil && strings.TrimSpace(eb.Message) != "" {
			msg = eb.Message
		}
		herr := &HTTPError{StatusCode: resp.StatusCode, Message: msg}
		c.log.Debug("request rejected", "method", cl.method, "url", url, "err", herr.Detail())
		return herr
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
