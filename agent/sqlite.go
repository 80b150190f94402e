package agent

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/GoCodeAlone/planner/apperr"
)

const schema = `
CREATE TABLE IF NOT EXISTS agents (
	seq  INTEGER PRIMARY KEY AUTOINCREMENT,
	id   TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL,
	role TEXT NOT NULL
);
`

// SQLiteStore keeps agents in a SQLite database shared with the task store.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore ensures the agents table exists on db.
// The caller owns db and is responsible for closing it.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create agents schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Create validates and inserts a new agent.
func (s *SQLiteStore) Create(name, role string) (Agent, error) {
	if err := Validate(name, role); err != nil {
		return Agent{}, err
	}
	a := Agent{ID: uuid.NewString(), Name: name, Role: role}
	if _, err := s.db.Exec(`INSERT INTO agents (id, name, role) VALUES (?,?,?)`, a.ID, a.Name, a.Role); err != nil {
		return Agent{}, fmt.Errorf("insert agent: %w", err)
	}
	return a, nil
}

// Get retrieves an agent by ID.
func (s *SQLiteStore) Get(id string) (Agent, error) {
	var a Agent
	err := s.db.QueryRow(`SELECT id, name, role FROM agents WHERE id = ?`, id).Scan(&a.ID, &a.Name, &a.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return Agent{}, apperr.NotFound("agent", id)
	}
	if err != nil {
		return Agent{}, fmt.Errorf("get agent: %w", err)
	}
	return a, nil
}

// List returns all agents in insertion order.
func (s *SQLiteStore) List() ([]Agent, error) {
	rows, err := s.db.Query(`SELECT id, name, role FROM agents ORDER BY seq ASC`)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}
	defer rows.Close()

	out := []Agent{}
	for rows.Next() {
		var a Agent
		if err := rows.Scan(&a.ID, &a.Name, &a.Role); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Reset deletes every agent.
func (s *SQLiteStore) Reset() error {
	if _, err := s.db.Exec(`DELETE FROM agents`); err != nil {
		return fmt.Errorf("reset agents: %w", err)
	}
	return nil
}
