package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Strob0t/Principal/internal/domain"
	"github.com/Strob0t/Principal/internal/domain/request"
	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/port/specialist"
)

const maxTaskBodySize = 1 << 20

// Queue is the async dispatch surface A2A tasks are submitted to.
type Queue interface {
	Submit(ctx context.Context, req *request.Request) (response.Ack, error)
	Poll(ctx context.Context, processingID string) (response.DispatchStatus, error)
}

// Members lists the registered specialists for the agent card.
type Members interface {
	Members() []specialist.Member
}

// Handler serves the A2A protocol endpoints.
type Handler struct {
	name    string
	baseURL string
	queue   Queue
	members Members
}

// NewHandler creates an A2A handler.
func NewHandler(name, baseURL string, queue Queue, members Members) *Handler {
	return &Handler{name: name, baseURL: baseURL, queue: queue, members: members}
}

// MountRoutes registers A2A routes on the given chi router.
// These are mounted at the root level, not under /api/v1.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/.well-known/agent.json", h.handleAgentCard)
	r.Post("/a2a/tasks", h.handleCreateTask)
	r.Get("/a2a/tasks/{id}", h.handleGetTask)
}

func (h *Handler) handleAgentCard(w http.ResponseWriter, _ *http.Request) {
	var members []specialist.Member
	if h.members != nil {
		members = h.members.Members()
	}
	writeJSON(w, http.StatusOK, BuildAgentCard(h.name, h.baseURL, members))
}

func (h *Handler) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var tr TaskRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxTaskBodySize)
	if err := json.NewDecoder(r.Body).Decode(&tr); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if tr.ID == "" {
		writeError(w, http.StatusBadRequest, "id is required")
		return
	}

	ack, err := h.queue.Submit(r.Context(), requestFromTask(&tr))
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	slog.Info("a2a task queued", "req_id", tr.ID, "skill", tr.Skill, "processing_id", ack.ProcessingID)
	writeJSON(w, http.StatusAccepted, TaskResponse{
		ID:        ack.ProcessingID,
		RequestID: ack.RequestID,
		Status:    string(response.DispatchQueued),
	})
}

func (h *Handler) handleGetTask(w http.ResponseWriter, r *http.Request) {
	st, err := h.queue.Poll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "task not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, http.StatusOK, taskFromStatus(st))
}

// requestFromTask maps an A2A task onto a request. The skill names the
// request type.
func requestFromTask(tr *TaskRequest) *request.Request {
	req := &request.Request{
		ID:   tr.ID,
		Type: request.Type(tr.Skill),
	}
	req.UserID, _ = tr.Input["user_id"].(string)
	req.Description, _ = tr.Input["description"].(string)
	if p, ok := tr.Input["priority"].(string); ok {
		req.Priority = request.Priority(p)
	}
	if md, ok := tr.Input["metadata"].(map[string]any); ok {
		req.Metadata = md
	}
	return req
}

func taskFromStatus(st response.DispatchStatus) TaskResponse {
	tr := TaskResponse{
		ID:        st.ProcessingID,
		RequestID: st.RequestID,
		Status:    string(st.State),
		Error:     st.Error,
	}
	if st.Response != nil {
		tr.Output = map[string]any{
			"publication_status":       st.Response.PublicationStatus,
			"approved_for_publication": st.Response.ApprovedForPublication,
			"response":                 st.Response,
		}
	}
	return tr
}

func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrDuplicateRequest):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrQueueSaturated):
		w.Header().Set("Retry-After", "1")
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("a2a submit failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
