// Package dashboard computes board-wide task counts.
package dashboard

import (
	"fmt"

	"github.com/GoCodeAlone/planner/task"
)

// Summary is the aggregate view of every task on the board.
// ByStatus and ByPriority always carry every key, zero when unused.
type Summary struct {
	Total      int                   `json:"total"`
	ByStatus   map[task.Status]int   `json:"by_status"`
	ByPriority map[task.Priority]int `json:"by_priority"`
}

// Summarize counts the tasks currently in tasks. It is recomputed on every call.
func Summarize(tasks task.Lister) (Summary, error) {
	all, err := tasks.List(task.Filter{})
	if err != nil {
		return Summary{}, fmt.Errorf("summarize tasks: %w", err)
	}

	s := Summary{
		Total:      len(all),
		ByStatus:   make(map[task.Status]int, len(task.Statuses)),
		ByPriority: make(map[task.Priority]int, len(task.Priorities)),
	}
	for _, st := range task.Statuses {
		s.ByStatus[st] = 0
	}
	for _, p := range task.Priorities {
		s.ByPriority[p] = 0
	}
	for _, t := range all {
		s.ByStatus[t.Status]++
		s.ByPriority[t.Priority]++
	}
	return s, nil
}
