package http

import (
	"context"
	"net/http"

	"github.com/Strob0t/Principal/internal/domain/request"
	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/port/recorder"
	"github.com/Strob0t/Principal/internal/port/specialist"
	"github.com/Strob0t/Principal/internal/service"
)

// Orchestrator is the synchronous processing surface of the principal.
type Orchestrator interface {
	Process(ctx context.Context, req *request.Request) (*response.Response, error)
	Status(q service.QueueStats) service.Status
	Initialized() bool
	AddSpecialist(ctx context.Context, name string, opts map[string]string) (specialist.Member, error)
	RemoveSpecialist(ctx context.Context, name string) error
}

// Dispatcher is the async dispatch queue.
type Dispatcher interface {
	service.QueueStats
	Submit(ctx context.Context, req *request.Request) (response.Ack, error)
	Poll(ctx context.Context, processingID string) (response.DispatchStatus, error)
	Cancel(ctx context.Context, processingID string) (response.DispatchStatus, error)
}

// Handlers holds the HTTP handler dependencies. Queue and Responses are
// optional; their routes answer 503 when unset.
type Handlers struct {
	Orchestrator Orchestrator
	Queue        Dispatcher
	Responses    recorder.Reader
	Version      string
}

type healthResponse struct {
	Status      string `json:"status"`
	Initialized bool   `json:"initialized"`
	Version     string `json:"version,omitempty"`
}

// Health reports liveness and whether specialists finished initializing.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Initialized: h.Orchestrator.Initialized(), Version: h.Version}
	status := http.StatusOK
	if !resp.Initialized {
		resp.Status = "starting"
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// ProcessRequest handles POST /api/v1/process.
func (h *Handlers) ProcessRequest(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[request.Request](w, r)
	if !ok {
		return
	}
	resp, err := h.Orchestrator.Process(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "request not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// SubmitRequest handles POST /api/v1/requests.
func (h *Handlers) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	if !h.queueConfigured(w) {
		return
	}
	req, ok := readJSON[request.Request](w, r)
	if !ok {
		return
	}
	ack, err := h.Queue.Submit(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err, "request not found")
		return
	}
	w.Header().Set("Location", "/api/v1/requests/"+ack.ProcessingID)
	writeJSON(w, http.StatusAccepted, ack)
}

// PollRequest handles GET /api/v1/requests/{processingID}.
func (h *Handlers) PollRequest(w http.ResponseWriter, r *http.Request) {
	if !h.queueConfigured(w) {
		return
	}
	st, err := h.Queue.Poll(r.Context(), urlParam(r, "processingID"))
	if err != nil {
		writeDomainError(w, err, "processing id not found")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// CancelRequest handles DELETE /api/v1/requests/{processingID}.
func (h *Handlers) CancelRequest(w http.ResponseWriter, r *http.Request) {
	if !h.queueConfigured(w) {
		return
	}
	if _, err := h.Queue.Cancel(r.Context(), urlParam(r, "processingID")); err != nil {
		writeDomainError(w, err, "processing id not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recentResponses struct {
	Responses []*response.Response `json:"responses"`
	Count     int                  `json:"count"`
}

// ListResponses handles GET /api/v1/responses?limit=N.
func (h *Handlers) ListResponses(w http.ResponseWriter, r *http.Request) {
	if h.Responses == nil {
		writeError(w, http.StatusServiceUnavailable, "response store not configured")
		return
	}
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	list, err := h.Responses.Recent(r.Context(), recorder.ClampLimit(limit))
	if err != nil {
		writeInternalError(w, err)
		return
	}
	if list == nil {
		list = []*response.Response{}
	}
	writeJSON(w, http.StatusOK, recentResponses{Responses: list, Count: len(list)})
}

// GetResponse handles GET /api/v1/responses/{requestID}.
func (h *Handlers) GetResponse(w http.ResponseWriter, r *http.Request) {
	if h.Responses == nil {
		writeError(w, http.StatusServiceUnavailable, "response store not configured")
		return
	}
	resp, err := h.Responses.Get(r.Context(), urlParam(r, "requestID"))
	if err != nil {
		writeDomainError(w, err, "response not found")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// AgentsStatus handles GET /api/v1/agents/status.
func (h *Handlers) AgentsStatus(w http.ResponseWriter, _ *http.Request) {
	var q service.QueueStats
	if h.Queue != nil {
		q = h.Queue
	}
	writeJSON(w, http.StatusOK, h.Orchestrator.Status(q))
}

type addSpecialistRequest struct {
	Name    string            `json:"name"`
	Options map[string]string `json:"options,omitempty"`
}

// AddSpecialist handles POST /api/v1/agents.
func (h *Handlers) AddSpecialist(w http.ResponseWriter, r *http.Request) {
	body, ok := readJSON[addSpecialistRequest](w, r)
	if !ok || !requireField(w, body.Name, "name") {
		return
	}
	m, err := h.Orchestrator.AddSpecialist(r.Context(), body.Name, body.Options)
	if err != nil {
		writeDomainError(w, err, "unknown specialist "+body.Name)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// RemoveSpecialist handles DELETE /api/v1/agents/{name}.
func (h *Handlers) RemoveSpecialist(w http.ResponseWriter, r *http.Request) {
	name := urlParam(r, "name")
	if err := h.Orchestrator.RemoveSpecialist(r.Context(), name); err != nil {
		writeDomainError(w, err, "specialist "+name+" not registered")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) queueConfigured(w http.ResponseWriter) bool {
	if h.Queue == nil {
		writeError(w, http.StatusServiceUnavailable, "dispatch queue not configured")
		return false
	}
	return true
}
