// Package board wires the agent and task stores into one explicitly owned unit.
package board

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/GoCodeAlone/planner/agent"
	"github.com/GoCodeAlone/planner/config"
	"github.com/GoCodeAlone/planner/task"
)

// Board owns the stores for one process. Construct it once and pass it to
// whatever layer needs the stores.
type Board struct {
	Agents agent.Store
	Tasks  task.Store

	gate sync.RWMutex // writes shared, Reset exclusive
	db   *sql.DB      // nil for the memory driver
}

// newBoard wraps agents and tasks so that their writes are gated by Reset.
func newBoard(agents agent.Store, tasks task.Store, db *sql.DB) *Board {
	b := &Board{db: db}
	b.Agents = gatedAgents{Store: agents, gate: &b.gate}
	b.Tasks = gatedTasks{Store: tasks, gate: &b.gate}
	return b
}

// NewMemory returns a Board backed by plain in-process maps.
func NewMemory() *Board {
	agents := agent.NewMemoryStore()
	return newBoard(agents, task.NewMemoryStore(agents), nil)
}

// NewSQLite returns a Board backed by a private in-memory SQLite database.
// The database disappears when the Board is closed or the process exits.
func NewSQLite() (*Board, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	agents, err := agent.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	tasks, err := task.NewSQLiteStore(db, agents)
	if err != nil {
		db.Close()
		return nil, err
	}
	return newBoard(agents, tasks, db), nil
}

// Open builds a Board for the configured storage driver and registers the seed agents.
func Open(cfg *config.Config) (*Board, error) {
	var (
		b   *Board
		err error
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory, "":
		b = NewMemory()
	case config.DriverSQLite:
		if b, err = NewSQLite(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	for _, a := range cfg.SeedAgents {
		if _, err := b.Agents.Create(a.Name, a.Role); err != nil {
			b.Close()
			return nil, fmt.Errorf("seed agent %q: %w", a.Name, err)
		}
	}
	return b, nil
}

// Reset empties both stores. Tasks are cleared before agents, and no store
// write runs while a reset is in progress, so nothing created concurrently
// survives half a reset.
func (b *Board) Reset() error {
	b.gate.Lock()
	defer b.gate.Unlock()
	if err := b.Tasks.Reset(); err != nil {
		return fmt.Errorf("reset board: %w", err)
	}
	if err := b.Agents.Reset(); err != nil {
		return fmt.Errorf("reset board: %w", err)
	}
	return nil
}

// Close releases the backing database, if any.
func (b *Board) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
