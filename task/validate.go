package task

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/GoCodeAlone/planner/agent"
	"github.com/GoCodeAlone/planner/apperr"
)

// ParseStatus converts s to a Status, rejecting values outside the board columns.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !slices.Contains(Statuses, st) {
		return "", apperr.Validation("status", fmt.Sprintf("must be one of %s", joinValues(Statuses)))
	}
	return st, nil
}

// ParsePriority converts s to a Priority, rejecting values outside low/medium/high.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !slices.Contains(Priorities, p) {
		return "", apperr.Validation("priority", fmt.Sprintf("must be one of %s", joinValues(Priorities)))
	}
	return p, nil
}

// Validate checks in and returns the effective priority.
func (in NewTask) Validate() (Priority, error) {
	if err := validateTitle(in.Title); err != nil {
		return "", err
	}
	if in.Priority == nil {
		return PriorityMedium, nil
	}
	return ParsePriority(string(*in.Priority))
}

// Validate checks the fields present in p.
func (p Patch) Validate() error {
	if p.Title != nil {
		if err := validateTitle(*p.Title); err != nil {
			return err
		}
	}
	if p.Priority != nil {
		if _, err := ParsePriority(string(*p.Priority)); err != nil {
			return err
		}
	}
	return nil
}

// Match reports whether t satisfies every constraint in f.
func (f Filter) Match(t *Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.AssignedTo != nil && (t.AssignedTo == nil || t.AssignedTo.ID != *f.AssignedTo) {
		return false
	}
	return true
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return apperr.Validation("title", "must not be empty")
	}
	return nil
}

func joinValues[T ~string](vals []T) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}

// timeNow is the store clock.
var timeNow = func() time.Time { return time.Now().UTC() }

// build creates a task from validated input.
func build(id string, in NewTask, priority Priority, now time.Time) *Task {
	return &Task{
		ID:          id,
		Title:       in.Title,
		Description: in.Description,
		Priority:    priority,
		Status:      StatusTodo,
		CreatedAt:   now,
	}
}

// applyPatch copies the non-nil fields of a validated patch onto t.
func applyPatch(t *Task, p Patch) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
}

// touch records a mutation at now. UpdatedAt never moves backwards.
func touch(t *Task, now time.Time) {
	if t.UpdatedAt != nil && now.Before(*t.UpdatedAt) {
		now = *t.UpdatedAt
	}
	if now.Before(t.CreatedAt) {
		now = t.CreatedAt
	}
	t.UpdatedAt = &now
}

func snapshot(a agent.Agent) *Assignee {
	return &Assignee{ID: a.ID, Name: a.Name, Role: a.Role}
}

// clone returns a deep copy so callers never share state with the store.
func (t *Task) clone() *Task {
	c := *t
	if t.UpdatedAt != nil {
		u := *t.UpdatedAt
		c.UpdatedAt = &u
	}
	if t.AssignedTo != nil {
		a := *t.AssignedTo
		c.AssignedTo = &a
	}
	return &c
}
