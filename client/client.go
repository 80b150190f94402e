// Package client is a typed HTTP client for the planner REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/GoCodeAlone/planner/agent"
	"github.com/GoCodeAlone/planner/apperr"
	"github.com/GoCodeAlone/planner/dashboard"
	"github.com/GoCodeAlone/planner/task"
)

// DefaultServer is the address plannerd listens on by default.
const DefaultServer = "http://localhost:9090"

// Client holds HTTP client state for API calls.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// New returns a client for baseURL with a 15s request timeout.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// APIError is a non-2xx response decoded from the server's error body.
type APIError struct {
	StatusCode int
	Message    string
	Field      string // set on 422
	ID         string // set on 404
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Unwrap maps 404 and 422 onto the apperr sentinels so callers can use errors.Is.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return apperr.ErrNotFound
	case http.StatusUnprocessableEntity:
		return apperr.ErrValidation
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	e := &APIError{StatusCode: resp.StatusCode}
	if gjson.ValidBytes(body) {
		res := gjson.GetManyBytes(body, "error", "field", "id")
		e.Message, e.Field, e.ID = res[0].String(), res[1].String(), res[2].String()
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.Message == "" {
		e.Message = http.StatusText(resp.StatusCode)
	}
	return e
}

// do sends a request with an optional JSON body and decodes the JSON response into v (may be nil).
func (c *Client) do(ctx context.Context, method, path string, in, v any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Status returns the server status map ("status", "version").
func (c *Client) Status(ctx context.Context) (map[string]string, error) {
	var out map[string]string
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

// --- agents ---

func (c *Client) ListAgents(ctx context.Context) ([]agent.Agent, error) {
	var out []agent.Agent
	if err := c.do(ctx, http.MethodGet, "/api/agents", nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) CreateAgent(ctx context.Context, name, role string) (agent.Agent, error) {
	var out agent.Agent
	in := map[string]string{"name": name, "role": role}
	if err := c.do(ctx, http.MethodPost, "/api/agents", in, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) GetAgent(ctx context.Context, id string) (agent.Agent, error) {
	var out agent.Agent
	if err := c.do(ctx, http.MethodGet, "/api/agents/"+url.PathEscape(id), nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

// --- tasks ---

// ListTasks lists tasks matching every non-nil filter field.
func (c *Client) ListTasks(ctx context.Context, f task.Filter) ([]task.Task, error) {
	q := url.Values{}
	if f.Status != nil {
		q.Set("status", string(*f.Status))
	}
	if f.Priority != nil {
		q.Set("priority", string(*f.Priority))
	}
	if f.AssignedTo != nil {
		q.Set("assigned_to", *f.AssignedTo)
	}
	path := "/api/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var out []task.Task
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) CreateTask(ctx context.Context, in task.NewTask) (task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", in, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodGet, taskPath(id), nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) UpdateTask(ctx context.Context, id string, p task.Patch) (task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPut, taskPath(id), p, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

func (c *Client) SetStatus(ctx context.Context, id, status string) (task.Task, error) {
	var out task.Task
	in := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, taskPath(id)+"/status", in, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) Assign(ctx context.Context, id, agentID string) (task.Task, error) {
	var out task.Task
	in := map[string]string{"agent_id": agentID}
	if err := c.do(ctx, http.MethodPatch, taskPath(id)+"/assign", in, &out); err != nil {
		return out, err
	}
	return out, nil
}

func (c *Client) Unassign(ctx context.Context, id string) (task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodDelete, taskPath(id)+"/assign", nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

// --- board ---

func (c *Client) Dashboard(ctx context.Context) (dashboard.Summary, error) {
	var out dashboard.Summary
	if err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, &out); err != nil {
		return out, err
	}
	return out, nil
}

// Reset clears the board. The server must run with reset enabled.
func (c *Client) Reset(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/admin/reset", nil, nil)
}

func taskPath(id string) string { return "/api/tasks/" + url.PathEscape(id) }
