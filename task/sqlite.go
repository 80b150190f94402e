package task

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GoCodeAlone/planner/apperr"
)

const schema = `
CREATE TABLE IF NOT EXISTS tasks (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL UNIQUE,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	priority      TEXT NOT NULL,
	status        TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	updated_at    TEXT,
	assignee_id   TEXT,
	assignee_name TEXT,
	assignee_role TEXT
);
`

const columns = `id, title, description, priority, status, created_at, updated_at,
	assignee_id, assignee_name, assignee_role`

// SQLiteStore keeps tasks in a SQLite database.
// Mutations are serialized so that each read-modify-write is atomic.
type SQLiteStore struct {
	db     *sql.DB
	agents AgentLookup
	mu     sync.Mutex
}

// NewSQLiteStore ensures the tasks table exists on db.
// The caller owns db and is responsible for closing it.
func NewSQLiteStore(db *sql.DB, agents AgentLookup) (*SQLiteStore, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create tasks schema: %w", err)
	}
	return &SQLiteStore{db: db, agents: agents}, nil
}

// Create validates in and inserts a new todo task.
func (s *SQLiteStore) Create(in NewTask) (*Task, error) {
	priority, err := in.Validate()
	if err != nil {
		return nil, err
	}
	t := build(uuid.NewString(), in, priority, timeNow())

	_, err = s.db.Exec(`INSERT INTO tasks (`+columns+`) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		t.ID, t.Title, t.Description, string(t.Priority), string(t.Status),
		formatTime(t.CreatedAt), nil, nil, nil, nil,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

// Get retrieves a task by ID.
func (s *SQLiteStore) Get(id string) (*Task, error) {
	row := s.db.QueryRow(`SELECT `+columns+` FROM tasks WHERE id = ?`, id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("task", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns tasks matching the filter in insertion order.
func (s *SQLiteStore) List(filter Filter) ([]*Task, error) {
	q := strings.Builder{}
	q.WriteString("SELECT " + columns + " FROM tasks WHERE 1=1")
	args := []any{}

	if filter.Status != nil {
		q.WriteString(" AND status=?")
		args = append(args, string(*filter.Status))
	}
	if filter.Priority != nil {
		q.WriteString(" AND priority=?")
		args = append(args, string(*filter.Priority))
	}
	if filter.AssignedTo != nil {
		q.WriteString(" AND assignee_id=?")
		args = append(args, *filter.AssignedTo)
	}
	q.WriteString(" ORDER BY seq ASC")

	rows, err := s.db.Query(q.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Update applies patch to the task.
func (s *SQLiteStore) Update(id string, patch Patch) (*Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return s.mutate(id, func(t *Task) error {
		applyPatch(t, patch)
		return nil
	})
}

// Delete removes a task by ID.
func (s *SQLiteStore) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM tasks WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("task", id)
	}
	return nil
}

// SetStatus moves the task to status.
func (s *SQLiteStore) SetStatus(id string, status string) (*Task, error) {
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
func (s *SQLiteStore) Assign(id, agentID string) (*Task, error) {
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
func (s *SQLiteStore) Unassign(id string) (*Task, error) {
	return s.mutate(id, func(t *Task) error {
		t.AssignedTo = nil
		return nil
	})
}

// Reset deletes every task.
func (s *SQLiteStore) Reset() error {
	if _, err := s.db.Exec(`DELETE FROM tasks`); err != nil {
		return fmt.Errorf("reset tasks: %w", err)
	}
	return nil
}

func (s *SQLiteStore) mutate(id string, fn func(t *Task) error) (*Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if err := fn(t); err != nil {
		return nil, err
	}
	touch(t, timeNow())

	var aID, aName, aRole any
	if t.AssignedTo != nil {
		aID, aName, aRole = t.AssignedTo.ID, t.AssignedTo.Name, t.AssignedTo.Role
	}
	res, err := s.db.Exec(`
		UPDATE tasks SET
			title=?, description=?, priority=?, status=?, updated_at=?,
			assignee_id=?, assignee_name=?, assignee_role=?
		WHERE id=?`,
		t.Title, t.Description, string(t.Priority), string(t.Status), formatTime(*t.UpdatedAt),
		aID, aName, aRole,
		t.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rows == 0 {
		return nil, apperr.NotFound("task", id)
	}
	return t, nil
}

// scanner abstracts sql.Row and sql.Rows for scanTask.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(s scanner) (*Task, error) {
	var t Task
	var priority, status, createdAt string
	var updatedAt, aID, aName, aRole sql.NullString

	err := s.Scan(
		&t.ID, &t.Title, &t.Description, &priority, &status,
		&createdAt, &updatedAt,
		&aID, &aName, &aRole,
	)
	if err != nil {
		return nil, err
	}
	t.Priority = Priority(priority)
	t.Status = Status(status)

	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		u, err := parseTime(updatedAt.String)
		if err != nil {
			return nil, err
		}
		t.UpdatedAt = &u
	}
	if aID.Valid {
		t.AssignedTo = &Assignee{ID: aID.String, Name: aName.String, Role: aRole.String}
	}
	return &t, nil
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339Nano) }

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t.UTC(), nil
}
