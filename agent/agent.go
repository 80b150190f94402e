// Package agent defines planner team members and the stores that register them.
// Agents are write-once: there is no update or delete.
package agent

import (
	"strings"

	"github.com/GoCodeAlone/planner/apperr"
)

// Agent is a team member that tasks can be assigned to.
type Agent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Store registers agents for the lifetime of the process.
type Store interface {
	// Create registers a new agent with a generated ID.
	Create(name, role string) (Agent, error)

	// Get retrieves an agent by ID.
	Get(id string) (Agent, error)

	// List returns every agent in insertion order.
	List() ([]Agent, error)

	// Reset removes all agents.
	Reset() error
}

// Validate checks the fields required to create an agent.
func Validate(name, role string) error {
	if strings.TrimSpace(name) == "" {
		return apperr.Validation("name", "must not be empty")
	}
	if strings.TrimSpace(role) == "" {
		return apperr.Validation("role", "must not be empty")
	}
	return nil
}
