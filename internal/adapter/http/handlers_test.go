package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	phttp "github.com/Strob0t/Principal/internal/adapter/http"
	"github.com/Strob0t/Principal/internal/domain"
	"github.com/Strob0t/Principal/internal/domain/analysis"
	"github.com/Strob0t/Principal/internal/domain/request"
	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/middleware"
	"github.com/Strob0t/Principal/internal/port/specialist"
	"github.com/Strob0t/Principal/internal/service"
)

// --- Mocks ---

type mockOrchestrator struct {
	resp        *response.Response
	err         error
	initialized bool
	members     map[string]specialist.Member
	gotQueue    service.QueueStats
}

func (m *mockOrchestrator) Process(_ context.Context, req *request.Request) (*response.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	if _, err := req.Accept(req.AcceptedAt); err != nil {
		return nil, err
	}
	return m.resp, nil
}

func (m *mockOrchestrator) Status(q service.QueueStats) service.Status {
	m.gotQueue = q
	st := service.Status{Name: "principal", Initialized: m.initialized}
	if q != nil {
		st.Queue = &service.QueueStatus{Depth: q.Depth(), Running: q.Running(), Capacity: q.Capacity()}
	}
	return st
}

func (m *mockOrchestrator) Initialized() bool { return m.initialized }

func (m *mockOrchestrator) AddSpecialist(_ context.Context, name string, _ map[string]string) (specialist.Member, error) {
	if name != "vehicle" {
		return specialist.Member{}, fmt.Errorf("%w: unknown specialist %q", domain.ErrNotFound, name)
	}
	if _, ok := m.members[name]; ok {
		return specialist.Member{}, fmt.Errorf("%w: specialist %q already registered", domain.ErrConflict, name)
	}
	mem := specialist.Member{Name: name, RequestType: request.TypeVehicle, Initialized: true}
	m.members[name] = mem
	return mem, nil
}

func (m *mockOrchestrator) RemoveSpecialist(_ context.Context, name string) error {
	if _, ok := m.members[name]; !ok {
		return fmt.Errorf("specialist %q: %w", name, domain.ErrNotFound)
	}
	delete(m.members, name)
	return nil
}

type mockQueue struct {
	statuses map[string]response.DispatchStatus
	err      error
}

func (q *mockQueue) Depth() int    { return len(q.statuses) }
func (q *mockQueue) Running() int  { return 0 }
func (q *mockQueue) Capacity() int { return 2 }

func (q *mockQueue) Submit(_ context.Context, req *request.Request) (response.Ack, error) {
	if q.err != nil {
		return response.Ack{}, q.err
	}
	if _, err := req.Accept(req.AcceptedAt); err != nil {
		return response.Ack{}, err
	}
	pid := "p-" + req.ID
	q.statuses[pid] = response.DispatchStatus{ProcessingID: pid, RequestID: req.ID, State: response.DispatchQueued}
	return response.Ack{RequestID: req.ID, Status: "accepted", ProcessingID: pid}, nil
}

func (q *mockQueue) Poll(_ context.Context, id string) (response.DispatchStatus, error) {
	st, ok := q.statuses[id]
	if !ok {
		return st, domain.ErrNotFound
	}
	return st, nil
}

func (q *mockQueue) Cancel(ctx context.Context, id string) (response.DispatchStatus, error) {
	st, err := q.Poll(ctx, id)
	if err != nil {
		return st, err
	}
	if st.State.Terminal() {
		return st, fmt.Errorf("%w: already %s", domain.ErrConflict, st.State)
	}
	st.State = response.DispatchCancelled
	q.statuses[id] = st
	return st, nil
}

type mockReader struct {
	responses []*response.Response
	gotLimit  int
}

func (m *mockReader) Recent(_ context.Context, limit int) ([]*response.Response, error) {
	m.gotLimit = limit
	if limit < len(m.responses) {
		return m.responses[:limit], nil
	}
	return m.responses, nil
}

func (m *mockReader) Get(_ context.Context, id string) (*response.Response, error) {
	for _, r := range m.responses {
		if r.RequestID == id {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

// --- Helpers ---

type fixture struct {
	router http.Handler
	orch   *mockOrchestrator
	queue  *mockQueue
	reader *mockReader
}

const adminKey = "let-me-in"

func newFixture(t *testing.T) *fixture {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(adminKey), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	f := &fixture{
		orch: &mockOrchestrator{
			initialized: true,
			resp:        &response.Response{RequestID: "req_1", PublicationStatus: response.StatusPublished, ApprovedForPublication: true},
			members:     map[string]specialist.Member{},
		},
		queue: &mockQueue{statuses: map[string]response.DispatchStatus{}},
		reader: &mockReader{responses: []*response.Response{
			{RequestID: "req_2", PublicationStatus: response.StatusRejected},
			{
				RequestID:         "req_1",
				PublicationStatus: response.StatusPublished,
				ExpertResults: map[string]*analysis.Result{
					"financial": {Domain: "financial", Recommendations: []string{"Review the budget"}},
				},
			},
		}},
	}
	h := &phttp.Handlers{Orchestrator: f.orch, Queue: f.queue, Responses: f.reader, Version: "test"}
	r := chi.NewRouter()
	phttp.MountRoutes(r, h, phttp.RouteOptions{AdminKeyHash: string(hash)})
	f.router = r
	return f
}

func (f *fixture) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

const validBody = `{"request_id":"req_1","user_id":"u1","request_type":"financial_health","description":"analyze spending"}`

// --- Tests ---

func TestHealth(t *testing.T) {
	f := newFixture(t)
	if w := f.do(http.MethodGet, "/health", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	f.orch.initialized = false
	w := f.do(http.MethodGet, "/health", "")
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "starting") {
		t.Fatalf("expected 503 starting, got %d %s", w.Code, w.Body.String())
	}
}

func TestVersionEndpoint(t *testing.T) {
	w := newFixture(t).do(http.MethodGet, "/api/v1/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"version":"test"`) {
		t.Fatalf("unexpected version response %d %s", w.Code, w.Body.String())
	}
}

func TestProcessRequest(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodPost, "/api/v1/process", validBody)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp response.Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.PublicationStatus != response.StatusPublished {
		t.Errorf("expected published, got %s", resp.PublicationStatus)
	}
}

func TestProcessRequestErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"invalid body", "{", nil, http.StatusBadRequest},
		{"validation", `{"request_id":"r","user_id":"u","request_type":"weather","description":"d"}`, nil, http.StatusBadRequest},
		{"unknown domain", validBody, fmt.Errorf("route: %w", domain.ErrUnknownDomain), http.StatusUnprocessableEntity},
		{"not initialized", validBody, domain.ErrNotInitialized, http.StatusServiceUnavailable},
		{"cancelled", validBody, domain.ErrCancelled, 499},
		{"internal", validBody, fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.orch.err = tt.err
			w := f.do(http.MethodPost, "/api/v1/process", tt.body)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestProcessRequestValidationMessage(t *testing.T) {
	w := newFixture(t).do(http.MethodPost, "/api/v1/process", `{"request_id":"r","request_type":"general","description":"d"}`)
	if !strings.Contains(w.Body.String(), "user_id is required") {
		t.Errorf("expected validation detail, got %s", w.Body.String())
	}
}

func TestSubmitPollCancel(t *testing.T) {
	f := newFixture(t)

	w := f.do(http.MethodPost, "/api/v1/requests", validBody)
	if w.Code != http.StatusAccepted {
		t.Fatalf("submit: expected 202, got %d: %s", w.Code, w.Body.String())
	}
	var ack response.Ack
	if err := json.NewDecoder(w.Body).Decode(&ack); err != nil {
		t.Fatal(err)
	}
	if ack.ProcessingID != "p-req_1" || w.Header().Get("Location") != "/api/v1/requests/p-req_1" {
		t.Fatalf("unexpected ack %+v location %q", ack, w.Header().Get("Location"))
	}

	w = f.do(http.MethodGet, "/api/v1/requests/p-req_1", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"state":"queued"`) {
		t.Fatalf("poll: unexpected %d %s", w.Code, w.Body.String())
	}

	if w = f.do(http.MethodDelete, "/api/v1/requests/p-req_1", ""); w.Code != http.StatusNoContent {
		t.Fatalf("cancel: expected 204, got %d", w.Code)
	}
	if w = f.do(http.MethodDelete, "/api/v1/requests/p-req_1", ""); w.Code != http.StatusConflict {
		t.Fatalf("second cancel: expected 409, got %d", w.Code)
	}
	if w = f.do(http.MethodGet, "/api/v1/requests/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("poll unknown: expected 404, got %d", w.Code)
	}
	if w = f.do(http.MethodDelete, "/api/v1/requests/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("cancel unknown: expected 404, got %d", w.Code)
	}
}

func TestSubmitErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		want       int
		retryAfter bool
	}{
		{"saturated", fmt.Errorf("%w: 2 queued", domain.ErrQueueSaturated), http.StatusServiceUnavailable, true},
		{"duplicate", domain.ErrDuplicateRequest, http.StatusConflict, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.queue.err = tt.err
			w := f.do(http.MethodPost, "/api/v1/requests", validBody)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, w.Code)
			}
			if got := w.Header().Get("Retry-After") != ""; got != tt.retryAfter {
				t.Errorf("Retry-After present=%v, want %v", got, tt.retryAfter)
			}
		})
	}
}

func TestQueueNotConfigured(t *testing.T) {
	h := &phttp.Handlers{Orchestrator: &mockOrchestrator{initialized: true}}
	r := chi.NewRouter()
	phttp.MountRoutes(r, h, phttp.RouteOptions{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/requests"},
		{http.MethodGet, "/api/v1/requests/x"},
		{http.MethodDelete, "/api/v1/requests/x"},
		{http.MethodGet, "/api/v1/responses"},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, strings.NewReader(validBody)))
		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("%s %s: expected 503, got %d", tc.method, tc.path, w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/agents/status", http.NoBody))
	if w.Code != http.StatusOK || strings.Contains(w.Body.String(), `"queue"`) {
		t.Errorf("status without queue: %d %s", w.Code, w.Body.String())
	}
}

func TestListResponses(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		query     string
		wantCode  int
		wantLimit int
		wantCount int
	}{
		{"", http.StatusOK, 100, 2},
		{"?limit=1", http.StatusOK, 1, 1},
		{"?limit=5000", http.StatusOK, 1000, 2},
		{"?limit=abc", http.StatusBadRequest, 0, 0},
		{"?limit=-1", http.StatusBadRequest, 0, 0},
	}
	for _, tt := range tests {
		f.reader.gotLimit = 0
		w := f.do(http.MethodGet, "/api/v1/responses"+tt.query, "")
		if w.Code != tt.wantCode {
			t.Errorf("%q: expected %d, got %d", tt.query, tt.wantCode, w.Code)
			continue
		}
		if tt.wantCode != http.StatusOK {
			continue
		}
		var body struct {
			Responses []*response.Response `json:"responses"`
			Count     int                  `json:"count"`
		}
		if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if f.reader.gotLimit != tt.wantLimit || body.Count != tt.wantCount || len(body.Responses) != tt.wantCount {
			t.Errorf("%q: limit %d count %d, want %d/%d", tt.query, f.reader.gotLimit, body.Count, tt.wantLimit, tt.wantCount)
		}
	}
}

func TestListResponses_FullBodies(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/api/v1/responses", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var body struct {
		Responses []map[string]json.RawMessage `json:"responses"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Responses) != 2 {
		t.Fatalf("got %d responses, want 2", len(body.Responses))
	}
	for i, r := range body.Responses {
		if _, ok := r["expert_results"]; !ok {
			t.Errorf("responses[%d] has no expert_results: %v", i, r)
		}
	}
	var experts map[string]analysis.Result
	if err := json.Unmarshal(body.Responses[1]["expert_results"], &experts); err != nil {
		t.Fatal(err)
	}
	if got := experts["financial"].Recommendations; len(got) != 1 || got[0] != "Review the budget" {
		t.Errorf("financial recommendations = %v", got)
	}
}

func TestGetResponse(t *testing.T) {
	f := newFixture(t)
	if w := f.do(http.MethodGet, "/api/v1/responses/req_1", ""); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w := f.do(http.MethodGet, "/api/v1/responses/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestAgentsStatus(t *testing.T) {
	f := newFixture(t)
	w := f.do(http.MethodGet, "/api/v1/agents/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var st service.Status
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.Queue == nil || st.Queue.Capacity != 2 {
		t.Errorf("expected queue stats, got %+v", st.Queue)
	}
}

func TestSpecialistManagement(t *testing.T) {
	f := newFixture(t)
	auth := []string{"X-Admin-Key", adminKey}

	if w := f.do(http.MethodPost, "/api/v1/agents", `{"name":"vehicle"}`); w.Code != http.StatusUnauthorized {
		t.Fatalf("no key: expected 401, got %d", w.Code)
	}
	if w := f.do(http.MethodPost, "/api/v1/agents", `{"name":"vehicle"}`, "X-Admin-Key", "wrong"); w.Code != http.StatusForbidden {
		t.Fatalf("wrong key: expected 403, got %d", w.Code)
	}
	if w := f.do(http.MethodPost, "/api/v1/agents", `{"name":"vehicle"}`, auth...); w.Code != http.StatusCreated {
		t.Fatalf("add: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if w := f.do(http.MethodPost, "/api/v1/agents", `{"name":"vehicle"}`, auth...); w.Code != http.StatusConflict {
		t.Fatalf("add twice: expected 409, got %d", w.Code)
	}
	if w := f.do(http.MethodPost, "/api/v1/agents", `{"name":"weather"}`, auth...); w.Code != http.StatusNotFound {
		t.Fatalf("unknown: expected 404, got %d", w.Code)
	}
	if w := f.do(http.MethodPost, "/api/v1/agents", `{}`, auth...); w.Code != http.StatusBadRequest {
		t.Fatalf("missing name: expected 400, got %d", w.Code)
	}
	if w := f.do(http.MethodDelete, "/api/v1/agents/vehicle", "", auth...); w.Code != http.StatusNoContent {
		t.Fatalf("remove: expected 204, got %d", w.Code)
	}
	if w := f.do(http.MethodDelete, "/api/v1/agents/vehicle", "", auth...); w.Code != http.StatusNotFound {
		t.Fatalf("remove twice: expected 404, got %d", w.Code)
	}
}

func TestRateLimitedSubmission(t *testing.T) {
	f := newFixture(t)
	h := &phttp.Handlers{Orchestrator: f.orch, Queue: f.queue}
	r := chi.NewRouter()
	phttp.MountRoutes(r, h, phttp.RouteOptions{RateLimit: middleware.NewRateLimiter(0.001, 1)})

	send := func(path string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(validBody)))
		return w.Code
	}
	if code := send("/api/v1/process"); code != http.StatusOK {
		t.Fatalf("first: expected 200, got %d", code)
	}
	if code := send("/api/v1/requests"); code != http.StatusTooManyRequests {
		t.Fatalf("second: expected 429, got %d", code)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/agents/status", http.NoBody))
	if w.Code != http.StatusOK {
		t.Errorf("status route should not be limited, got %d", w.Code)
	}
}
