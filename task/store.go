package task

import (
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/GoCodeAlone/planner/apperr"
)

// MemoryStore is a thread-safe in-process task store.
// Each method holds the store lock for its whole read-modify-write.
type MemoryStore struct {
	mu     sync.RWMutex
	tasks  map[string]*Task
	order  []string // insertion order of IDs
	agents AgentLookup
}

// NewMemoryStore returns an empty MemoryStore that resolves assignees through agents.
func NewMemoryStore(agents AgentLookup) *MemoryStore {
	return &MemoryStore{
		tasks:  make(map[string]*Task),
		agents: agents,
	}
}

// Create validates in and stores a new todo task.
func (s *MemoryStore) Create(in NewTask) (*Task, error) {
	priority, err := in.Validate()
	if err != nil {
		return nil, err
	}
	t := build(uuid.NewString(), in, priority, timeNow())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = t
	s.order = append(s.order, t.ID)
	return t.clone(), nil
}

// Get retrieves a task by ID.
func (s *MemoryStore) Get(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, apperr.NotFound("task", id)
	}
	return t.clone(), nil
}

// List returns the tasks matching filter in insertion order.
func (s *MemoryStore) List(filter Filter) ([]*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Task{}
	for _, id := range s.order {
		if t := s.tasks[id]; filter.Match(t) {
			out = append(out, t.clone())
		}
	}
	return out, nil
}

// Update applies patch to the task.
func (s *MemoryStore) Update(id string, patch Patch) (*Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(id, func(t *Task) error {
		applyPatch(t, patch)
		return nil
	})
}

// Delete removes a task.
func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return apperr.NotFound("task", id)
	}
	delete(s.tasks, id)
	if i := slices.Index(s.order, id); i >= 0 {
		s.order = slices.Delete(s.order, i, i+1)
	}
	return nil
}

// SetStatus moves the task to status. The status is checked before the task is looked up.
func (s *MemoryStore) SetStatus(id string, status string) (*Task, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	return s.mutate(id, func(t *Task) error {
		t.Status = st
		return nil
	})
}

// Assign copies the agent's identity onto the task.
func (s *MemoryStore) Assign(id, agentID string) (*Task, error) {
	return s.mutate(id, func(t *Task) error {
		a, err := s.agents.Get(agentID)
		if err != nil {
			return err
		}
		t.AssignedTo = snapshot(a)
		return nil
	})
}

// Unassign clears the task's assignee.
func (s *MemoryStore) Unassign(id string) (*Task, error) {
	return s.mutate(id, func(t *Task) error {
		t.AssignedTo = nil
		return nil
	})
}

// Reset drops every task.
func (s *MemoryStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = make(map[string]*Task)
	s.order = nil
	return nil
}

// mutate runs fn on a copy of the task and commits it with a fresh UpdatedAt
// only if fn succeeds.
func (s *MemoryStore) mutate(id string, fn func(t *Task) error) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.tasks[id]
	if !ok {
		return nil, apperr.NotFound("task", id)
	}
	next := cur.clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	touch(next, timeNow())
	s.tasks[id] = next
	return next.clone(), nil
}
