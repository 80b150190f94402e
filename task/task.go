// Package task defines the Kanban task model and the stores that manage its lifecycle.
package task

import (
	"time"

	"github.com/GoCodeAlone/planner/agent"
)

// Status is the Kanban column a task sits in.
// Any status may move to any other; the store enforces no workflow order.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in_progress"
	StatusReview     Status = "review"
	StatusDone       Status = "done"
)

// Statuses lists every status in board order.
var Statuses = []Status{StatusTodo, StatusInProgress, StatusReview, StatusDone}

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Assignee is a copy of an agent's identity taken when the task was assigned.
// It is not kept in sync with the agent store afterwards.
type Assignee struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Task is a unit of work on the board.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"` // nil until the first mutation
	AssignedTo  *Assignee  `json:"assigned_to"`
}

// NewTask is the input accepted by Store.Create.
// Status and assignment are not part of it: new tasks always start unassigned in todo.
type NewTask struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Priority    *Priority `json:"priority,omitempty"` // nil => medium
}

// Patch is a partial update. A nil field leaves the stored value unchanged.
type Patch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
}

// Filter selects tasks for List. Every non-nil field must match (logical AND).
// Values are not validated: an unknown status simply matches nothing.
type Filter struct {
	Status     *Status   `json:"status,omitempty"`
	Priority   *Priority `json:"priority,omitempty"`
	AssignedTo *string   `json:"assigned_to,omitempty"` // agent ID
}

// AgentLookup resolves agents during assignment. agent.Store satisfies it.
type AgentLookup interface {
	Get(id string) (agent.Agent, error)
}

// Lister is the read-only view of a store used by aggregations.
type Lister interface {
	List(filter Filter) ([]*Task, error)
}

// Store manages the task lifecycle.
type Store interface {
	Lister

	// Create stores a new task in todo with no assignee.
	Create(in NewTask) (*Task, error)

	// Get retrieves a task by ID.
	Get(id string) (*Task, error)

	// Update applies the non-nil fields of patch and refreshes UpdatedAt.
	Update(id string, patch Patch) (*Task, error)

	// Delete removes a task by ID.
	Delete(id string) error

	// SetStatus moves a task to status.
	SetStatus(id string, status string) (*Task, error)

	// Assign snapshots the agent agentID onto the task.
	Assign(id, agentID string) (*Task, error)

	// Unassign clears the task's assignee.
	Unassign(id string) (*Task, error)

	// Reset removes all tasks.
	Reset() error
}

// Ptr returns a pointer to v. Handy for building filters and patches.
func Ptr[T any](v T) *T { return &v }
