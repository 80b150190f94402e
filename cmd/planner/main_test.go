package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoCodeAlone/planner/agent"
	"github.com/GoCodeAlone/planner/board"
	"github.com/GoCodeAlone/planner/dashboard"
	"github.com/GoCodeAlone/planner/server/api"
	"github.com/GoCodeAlone/planner/task"
)

func newTestServer(t *testing.T) string {
	t.Helper()
	b := board.NewMemory()
	mux := http.NewServeMux()
	(&api.Handlers{
		Agents:  b.Agents,
		Tasks:   b.Tasks,
		Reset:   b.Reset,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Version: "v-test",
	}).RegisterRoutes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts.URL
}

// run executes the CLI with fresh global flags and returns stdout.
func run(t *testing.T, serverURL string, args ...string) (string, error) {
	t.Helper()
	flagJSON, flagNoColor = false, false
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--server", serverURL, "--no-color"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func runJSON[T any](t *testing.T, serverURL string, args ...string) T {
	t.Helper()
	out, err := run(t, serverURL, append([]string{"--json"}, args...)...)
	require.NoError(t, err, out)
	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func TestCLI_Workflow(t *testing.T) {
	srv := newTestServer(t)

	alice := runJSON[agent.Agent](t, srv, "agents", "create", "Alice", "Senior Dev")
	require.NotEmpty(t, alice.ID)

	created := runJSON[task.Task](t, srv, "tasks", "create", "Fix login bug", "-p", "high", "-d", "users locked out")
	assert.Equal(t, task.PriorityHigh, created.Priority)
	assert.Equal(t, "users locked out", created.Description)

	out, err := run(t, srv, "tasks", "assign", created.ID, alice.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "assigned to Alice")

	out, err = run(t, srv, "tasks", "move", created.ID, "in_progress")
	require.NoError(t, err)
	assert.Contains(t, out, "is now in_progress")

	updated := runJSON[task.Task](t, srv, "tasks", "update", created.ID, "--title", "Fix SSO login")
	assert.Equal(t, "Fix SSO login", updated.Title)
	assert.Equal(t, "users locked out", updated.Description, "unset flags leave fields alone")

	mine := runJSON[[]task.Task](t, srv, "tasks", "list", "--assignee", alice.ID, "--status", "in_progress")
	require.Len(t, mine, 1)

	sum := runJSON[dashboard.Summary](t, srv, "dashboard")
	assert.Equal(t, 1, sum.ByStatus[task.StatusInProgress])

	out, err = run(t, srv, "board")
	require.NoError(t, err)
	assert.Contains(t, out, "In Progress (1)")
	assert.Contains(t, out, "Fix SSO login")

	unassigned := runJSON[task.Task](t, srv, "tasks", "unassign", created.ID)
	assert.Nil(t, unassigned.AssignedTo)

	_, err = run(t, srv, "tasks", "delete", created.ID)
	require.NoError(t, err)
	_, err = run(t, srv, "tasks", "get", created.ID)
	assert.ErrorContains(t, err, "task not found")
}

func TestCLI_Errors(t *testing.T) {
	srv := newTestServer(t)

	_, err := run(t, srv, "tasks", "create", "x", "-p", "urgent")
	assert.ErrorContains(t, err, "422")

	_, err = run(t, srv, "agents", "get", "ghost")
	assert.ErrorContains(t, err, "agent not found")

	_, err = run(t, srv, "reset")
	assert.ErrorContains(t, err, "--yes")

	out, err := run(t, srv, "reset", "--yes")
	require.NoError(t, err)
	assert.Equal(t, "board reset\n", out)
}

func TestCLI_Status(t *testing.T) {
	srv := newTestServer(t)
	out, err := run(t, srv, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "version: v-test")
}

func TestRenderTasks(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	printTasks(&buf, nil)
	assert.Equal(t, "no tasks\n", buf.String())

	buf.Reset()
	printTasks(&buf, []task.Task{{
		ID: "t-1", Title: "Fix login bug", Status: task.StatusReview, Priority: task.PriorityHigh,
		CreatedAt: time.Now(), AssignedTo: &task.Assignee{ID: "a-1", Name: "Alice", Role: "dev"},
	}})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Index(lines[0], "STATUS"), strings.Index(lines[2], "review"))
	assert.Equal(t, strings.Index(lines[0], "PRIORITY"), strings.Index(lines[2], "high"))
	assert.True(t, strings.HasSuffix(lines[2], "Alice"))
}

func TestColumnTitle(t *testing.T) {
	assert.Equal(t, "Todo", columnTitle(task.StatusTodo))
	assert.Equal(t, "In Progress", columnTitle(task.StatusInProgress))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
}
