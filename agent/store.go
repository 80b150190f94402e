package agent

import (
	"sync"

	"github.com/google/uuid"

	"github.com/GoCodeAlone/planner/apperr"
)

// MemoryStore is a thread-safe in-process agent registry.
type MemoryStore struct {
	mu     sync.RWMutex
	agents map[string]Agent
	order  []string // insertion order of IDs
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{agents: make(map[string]Agent)}
}

// Create validates and registers a new agent.
func (s *MemoryStore) Create(name, role string) (Agent, error) {
	if err := Validate(name, role); err != nil {
		return Agent{}, err
	}
	a := Agent{ID: uuid.NewString(), Name: name, Role: role}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents[a.ID] = a
	s.order = append(s.order, a.ID)
	return a, nil
}

// Get retrieves an agent by ID.
func (s *MemoryStore) Get(id string) (Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	if !ok {
		return Agent{}, apperr.NotFound("agent", id)
	}
	return a, nil
}

// List returns all agents in the order they were created.
func (s *MemoryStore) List() ([]Agent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Agent, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.agents[id])
	}
	return out, nil
}

// Reset drops every agent.
func (s *MemoryStore) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agents = make(map[string]Agent)
	s.order = nil
	return nil
}
