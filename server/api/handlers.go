package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/GoCodeAlone/planner/agent"
	"github.com/GoCodeAlone/planner/apperr"
	"github.com/GoCodeAlone/planner/dashboard"
	"github.com/GoCodeAlone/planner/server/ws"
	"github.com/GoCodeAlone/planner/task"
)

// Handlers bundles all REST API handler dependencies.
type Handlers struct {
	Agents  agent.Store
	Tasks   task.Store
	Events  EventSink    // may be nil
	Reset   func() error // nil disables POST /api/admin/reset
	Logger  *slog.Logger
	Version string
}

// RegisterRoutes registers all API routes on the given mux.
func (h *Handlers) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/agents", h.listAgents)
	mux.HandleFunc("POST /api/agents", h.createAgent)
	mux.HandleFunc("GET /api/agents/{id}", h.getAgent)

	mux.HandleFunc("GET /api/tasks", h.listTasks)
	mux.HandleFunc("POST /api/tasks", h.createTask)
	mux.HandleFunc("GET /api/tasks/{id}", h.getTask)
	mux.HandleFunc("PUT /api/tasks/{id}", h.updateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.deleteTask)
	mux.HandleFunc("PATCH /api/tasks/{id}/status", h.setTaskStatus)
	mux.HandleFunc("PATCH /api/tasks/{id}/assign", h.assignTask)
	mux.HandleFunc("DELETE /api/tasks/{id}/assign", h.unassignTask)

	mux.HandleFunc("GET /api/dashboard", h.dashboard)

	if h.Reset != nil {
		mux.HandleFunc("POST /api/admin/reset", h.reset)
	}

	mux.HandleFunc("GET /api/status", h.status)
	mux.HandleFunc("GET /api/version", h.version)
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeStoreError maps store error kinds to HTTP responses.
func (h *Handlers) writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		nf *apperr.NotFoundError
		ve *apperr.ValidationError
	)
	switch {
	case errors.As(err, &nf):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": nf.Kind + " not found",
			"id":    nf.ID,
		})
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": ve.Error(),
			"field": ve.Field,
		})
	default:
		h.Logger.Error("store failure",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// decodeBody decodes exactly one JSON value from the request body into v.
// It answers 413 when the body exceeds maxBodyBytes and 400 on any other failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	err := dec.Decode(v)
	if err == nil && dec.Decode(&struct{}{}) != io.EOF {
		err = errors.New("unexpected data after JSON value")
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit))
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (h *Handlers) publish(eventType string, payload any) {
	if h.Events != nil {
		h.Events.Broadcast(ws.Event{Type: eventType, Payload: payload})
	}
}

// --- Agent handlers ---

type createAgentRequest struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

func (h *Handlers) listAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.Agents.List()
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, agents)
}

func (h *Handlers) createAgent(w http.ResponseWriter, r *http.Request) {
	var req createAgentRequest
	if !decodeBody(w, r, &req) {
		return
	}
	a, err := h.Agents.Create(req.Name, req.Role)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.publish(EventAgentCreated, a)
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handlers) getAgent(w http.ResponseWriter, r *http.Request) {
	a, err := h.Agents.Get(r.PathValue("id"))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// --- Task handlers ---

type statusRequest struct {
	Status string `json:"status"`
}

type assignRequest struct {
	AgentID string `json:"agent_id"`
}

// filterFromQuery builds a task filter from status, priority and assigned_to.
// A key that is absent imposes no constraint.
func filterFromQuery(r *http.Request) task.Filter {
	q := r.URL.Query()
	var f task.Filter
	if q.Has("status") {
		f.Status = task.Ptr(task.Status(q.Get("status")))
	}
	if q.Has("priority") {
		f.Priority = task.Ptr(task.Priority(q.Get("priority")))
	}
	if q.Has("assigned_to") {
		f.AssignedTo = task.Ptr(q.Get("assigned_to"))
	}
	return f
}

func (h *Handlers) listTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.List(filterFromQuery(r))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (h *Handlers) createTask(w http.ResponseWriter, r *http.Request) {
	var in task.NewTask
	if !decodeBody(w, r, &in) {
		return
	}
	t, err := h.Tasks.Create(in)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.publish(EventTaskCreated, t)
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handlers) getTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tasks.Get(r.PathValue("id"))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) updateTask(w http.ResponseWriter, r *http.Request) {
	var patch task.Patch
	if !decodeBody(w, r, &patch) {
		return
	}
	t, err := h.Tasks.Update(r.PathValue("id"), patch)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.publish(EventTaskUpdated, t)
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) deleteTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.Tasks.Delete(id); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.publish(EventTaskDeleted, map[string]string{"id": id})
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) setTaskStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := h.Tasks.SetStatus(r.PathValue("id"), req.Status)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.publish(EventTaskStatusChanged, t)
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) assignTask(w http.ResponseWriter, r *http.Request) {
	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	t, err := h.Tasks.Assign(r.PathValue("id"), req.AgentID)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.publish(EventTaskAssigned, t)
	writeJSON(w, http.StatusOK, t)
}

func (h *Handlers) unassignTask(w http.ResponseWriter, r *http.Request) {
	t, err := h.Tasks.Unassign(r.PathValue("id"))
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.publish(EventTaskUnassigned, t)
	writeJSON(w, http.StatusOK, t)
}

// --- Dashboard ---

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	s, err := dashboard.Summarize(h.Tasks)
	if err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// --- Admin ---

func (h *Handlers) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.Reset(); err != nil {
		h.writeStoreError(w, r, err)
		return
	}
	h.Logger.Warn("board reset", slog.String("remote", r.RemoteAddr))
	h.publish(EventBoardReset, nil)
	w.WriteHeader(http.StatusNoContent)
}

// --- Status / version ---

func (h *Handlers) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.Version,
	})
}

func (h *Handlers) version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": h.Version,
	})
}
