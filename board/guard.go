package board

import (
	"sync"

	"github.com/GoCodeAlone/planner/agent"
	"github.com/GoCodeAlone/planner/task"
)

// Writes hold gate shared; Board.Reset holds it exclusively. Reads are not gated.

type gatedAgents struct {
	agent.Store
	gate *sync.RWMutex
}

func (g gatedAgents) Create(name, role string) (agent.Agent, error) {
	g.gate.RLock()
	defer g.gate.RUnlock()
	return g.Store.Create(name, role)
}

type gatedTasks struct {
	task.Store
	gate *sync.RWMutex
}

func (g gatedTasks) Create(in task.NewTask) (*task.Task, error) {
	g.gate.RLock()
	defer g.gate.RUnlock()
	return g.Store.Create(in)
}

func (g gatedTasks) Update(id string, patch task.Patch) (*task.Task, error) {
	g.gate.RLock()
	defer g.gate.RUnlock()
	return g.Store.Update(id, patch)
}

func (g gatedTasks) Delete(id string) error {
	g.gate.RLock()
	defer g.gate.RUnlock()
	return g.Store.Delete(id)
}

func (g gatedTasks) SetStatus(id, status string) (*task.Task, error) {
	g.gate.RLock()
	defer g.gate.RUnlock()
	return g.Store.SetStatus(id, status)
}

func (g gatedTasks) Assign(id, agentID string) (*task.Task, error) {
	g.gate.RLock()
	defer g.gate.RUnlock()
	return g.Store.Assign(id, agentID)
}

func (g gatedTasks) Unassign(id string) (*task.Task, error) {
	g.gate.RLock()
	defer g.gate.RUnlock()
	return g.Store.Unassign(id)
}
