package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/GoCodeAlone/planner/agent"
	"github.com/GoCodeAlone/planner/dashboard"
	"github.com/GoCodeAlone/planner/task"
)

var (
	bold   = color.New(color.Bold).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()

	titleCase = cases.Title(language.English)
)

func colorStatus(s task.Status) string {
	switch s {
	case task.StatusTodo:
		return dim(string(s))
	case task.StatusInProgress:
		return cyan(string(s))
	case task.StatusReview:
		return yellow(string(s))
	case task.StatusDone:
		return green(string(s))
	}
	return string(s)
}

func colorPriority(p task.Priority) string {
	switch p {
	case task.PriorityHigh:
		return red(string(p))
	case task.PriorityMedium:
		return yellow(string(p))
	}
	return string(p)
}

// columnTitle turns "in_progress" into "In Progress".
func columnTitle(s task.Status) string {
	return titleCase.String(strings.ReplaceAll(string(s), "_", " "))
}

func assigneeName(t task.Task) string {
	if t.AssignedTo == nil {
		return "-"
	}
	return t.AssignedTo.Name
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printAgents(w io.Writer, agents []agent.Agent) {
	if len(agents) == 0 {
		fmt.Fprintln(w, "no agents")
		return
	}
	fmt.Fprintf(w, "%-36s %-20s %-20s\n", "ID", "NAME", "ROLE")
	fmt.Fprintln(w, strings.Repeat("-", 78))
	for _, a := range agents {
		fmt.Fprintf(w, "%-36s %-20s %-20s\n", a.ID, truncate(a.Name, 20), truncate(a.Role, 20))
	}
}

func printTasks(w io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "no tasks")
		return
	}
	fmt.Fprintf(w, "%-36s %-30s %-12s %-8s %s\n", "ID", "TITLE", "STATUS", "PRIORITY", "ASSIGNEE")
	fmt.Fprintln(w, strings.Repeat("-", 100))
	for _, t := range tasks {
		// Padding is computed on the plain text; escape codes have no width.
		fmt.Fprintf(w, "%-36s %-30s %s %s %s\n",
			t.ID,
			truncate(t.Title, 30),
			colorStatus(t.Status)+pad(string(t.Status), 12),
			colorPriority(t.Priority)+pad(string(t.Priority), 8),
			assigneeName(t),
		)
	}
}

func printTask(w io.Writer, t task.Task) {
	fmt.Fprintf(w, "%s %s\n", bold(t.Title), dim("("+t.ID+")"))
	if t.Description != "" {
		fmt.Fprintf(w, "  %s\n", t.Description)
	}
	fmt.Fprintf(w, "  status:   %s\n", colorStatus(t.Status))
	fmt.Fprintf(w, "  priority: %s\n", colorPriority(t.Priority))
	if t.AssignedTo != nil {
		fmt.Fprintf(w, "  assignee: %s (%s)\n", t.AssignedTo.Name, t.AssignedTo.Role)
	} else {
		fmt.Fprintln(w, "  assignee: -")
	}
	fmt.Fprintf(w, "  created:  %s\n", t.CreatedAt.Format("2006-01-02 15:04:05"))
	if t.UpdatedAt != nil {
		fmt.Fprintf(w, "  updated:  %s\n", t.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
}

func printSummary(w io.Writer, s dashboard.Summary) {
	fmt.Fprintf(w, "%s %d\n\n", bold("Total tasks:"), s.Total)
	fmt.Fprintln(w, bold("By status"))
	for _, st := range task.Statuses {
		fmt.Fprintf(w, "  %s %d\n", colorStatus(st)+pad(string(st), 12), s.ByStatus[st])
	}
	fmt.Fprintln(w, bold("By priority"))
	for _, p := range task.Priorities {
		fmt.Fprintf(w, "  %s %d\n", colorPriority(p)+pad(string(p), 12), s.ByPriority[p])
	}
}

// printBoard renders tasks grouped into one column section per status.
func printBoard(w io.Writer, tasks []task.Task) {
	columns := make(map[task.Status][]task.Task, len(task.Statuses))
	for _, t := range tasks {
		columns[t.Status] = append(columns[t.Status], t)
	}
	for i, st := range task.Statuses {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s %s\n", bold(columnTitle(st)), dim(fmt.Sprintf("(%d)", len(columns[st]))))
		for _, t := range columns[st] {
			fmt.Fprintf(w, "  [%s] %s %s\n", colorPriority(t.Priority), truncate(t.Title, 40), dim("@"+assigneeName(t)))
		}
	}
}

func pad(s string, n int) string {
	if len(s) >= n {
		return ""
	}
	return strings.Repeat(" ", n-len(s))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
