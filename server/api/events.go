// Package api defines the REST API handlers for the planner server.
package api

import "github.com/GoCodeAlone/planner/server/ws"

// Event types broadcast after successful mutations.
const (
	EventAgentCreated      = "agent.created"
	EventTaskCreated       = "task.created"
	EventTaskUpdated       = "task.updated"
	EventTaskDeleted       = "task.deleted"
	EventTaskStatusChanged = "task.status_changed"
	EventTaskAssigned      = "task.assigned"
	EventTaskUnassigned    = "task.unassigned"
	EventBoardReset        = "board.reset"
)

// EventSink receives change events. Implemented by *ws.Hub.
type EventSink interface {
	Broadcast(event ws.Event)
}
