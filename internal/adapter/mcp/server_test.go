package mcp_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	pmcp "github.com/Strob0t/Principal/internal/adapter/mcp"
	"github.com/Strob0t/Principal/internal/domain"
	"github.com/Strob0t/Principal/internal/domain/request"
	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/service"
)

// --- Mocks ---

type mockOrchestrator struct {
	resp     *response.Response
	err      error
	gotReq   *request.Request
	gotQueue service.QueueStats
}

func (m *mockOrchestrator) Process(_ context.Context, req *request.Request) (*response.Response, error) {
	m.gotReq = req
	return m.resp, m.err
}

func (m *mockOrchestrator) Status(q service.QueueStats) service.Status {
	m.gotQueue = q
	st := service.Status{Name: "principal", Initialized: true, Processed: 3}
	if q != nil {
		st.Queue = &service.QueueStatus{Depth: q.Depth(), Running: q.Running(), Capacity: q.Capacity()}
	}
	return st
}

type mockDispatcher struct {
	statuses map[string]response.DispatchStatus
}

func (m *mockDispatcher) Depth() int    { return len(m.statuses) }
func (m *mockDispatcher) Running() int  { return 0 }
func (m *mockDispatcher) Capacity() int { return 100 }

func (m *mockDispatcher) Submit(_ context.Context, req *request.Request) (response.Ack, error) {
	if _, err := req.Accept(req.AcceptedAt); err != nil {
		return response.Ack{}, err
	}
	m.statuses["p-"+req.ID] = response.DispatchStatus{ProcessingID: "p-" + req.ID, RequestID: req.ID, State: response.DispatchQueued}
	return response.Ack{RequestID: req.ID, Status: "accepted", ProcessingID: "p-" + req.ID}, nil
}

func (m *mockDispatcher) Poll(_ context.Context, id string) (response.DispatchStatus, error) {
	st, ok := m.statuses[id]
	if !ok {
		return st, domain.ErrNotFound
	}
	return st, nil
}

func (m *mockDispatcher) Cancel(ctx context.Context, id string) (response.DispatchStatus, error) {
	st, err := m.Poll(ctx, id)
	if err != nil {
		return st, err
	}
	st.State = response.DispatchCancelled
	m.statuses[id] = st
	return st, nil
}

// --- Helpers ---

func callTool(t *testing.T, s *pmcp.Server, name string, args map[string]any) *mcplib.CallToolResult {
	t.Helper()
	tool, ok := s.MCPServer().ListTools()[name]
	if !ok {
		t.Fatalf("%s tool not found", name)
	}
	result, err := tool.Handler(context.Background(), mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{Name: name, Arguments: args},
	})
	if err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return result
}

func decodeText(t *testing.T, result *mcplib.CallToolResult, v any) {
	t.Helper()
	if result.IsError {
		t.Fatalf("tool returned error: %v", result.Content)
	}
	text, ok := result.Content[0].(mcplib.TextContent)
	if !ok {
		t.Fatal("expected TextContent")
	}
	if err := json.Unmarshal([]byte(text.Text), v); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
}

func req1Args() map[string]any {
	return map[string]any{
		"request_id":   "req_1",
		"user_id":      "user_1",
		"request_type": "financial_health",
		"description":  "analyze spending",
		"metadata":     map[string]any{"monthly_income": 5000.0},
	}
}

// --- Tests ---

func TestNewServer(t *testing.T) {
	s := pmcp.NewServer(pmcp.ServerConfig{Addr: ":3001", Name: "test-server", Version: "0.1.0"}, pmcp.ServerDeps{})
	if s == nil {
		t.Fatal("NewServer returned nil")
	}
	if s.MCPServer() == nil {
		t.Fatal("MCPServer() returned nil")
	}
}

func TestServerStartStop(t *testing.T) {
	s := pmcp.NewServer(pmcp.ServerConfig{Addr: "127.0.0.1:0", Name: "test-server", Version: "0.1.0"}, pmcp.ServerDeps{})

	if err := s.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
}

func TestToolRegistration(t *testing.T) {
	s := pmcp.NewServer(pmcp.ServerConfig{Name: "test", Version: "0.1.0"}, pmcp.ServerDeps{})

	tools := s.MCPServer().ListTools()
	expected := map[string]bool{
		"process_request":  false,
		"submit_request":   false,
		"poll_request":     false,
		"cancel_request":   false,
		"agents_status":    false,
		"recent_responses": false,
	}
	if len(tools) != len(expected) {
		t.Fatalf("expected %d tools, got %d", len(expected), len(tools))
	}
	for name := range tools {
		if _, ok := expected[name]; ok {
			expected[name] = true
		} else {
			t.Errorf("unexpected tool: %s", name)
		}
	}
	for name, found := range expected {
		if !found {
			t.Errorf("expected tool %q not registered", name)
		}
	}
}

func TestHandleProcessRequest(t *testing.T) {
	orch := &mockOrchestrator{resp: &response.Response{
		RequestID:              "req_1",
		PublicationStatus:      response.StatusPublished,
		ApprovedForPublication: true,
	}}
	s := pmcp.NewServer(pmcp.ServerConfig{Name: "test", Version: "0.1.0"}, pmcp.ServerDeps{Orchestrator: orch})

	var resp response.Response
	decodeText(t, callTool(t, s, "process_request", req1Args()), &resp)
	if resp.PublicationStatus != response.StatusPublished {
		t.Errorf("expected published, got %s", resp.PublicationStatus)
	}
	if orch.gotReq.Type != request.TypeFinancial || orch.gotReq.Metadata["monthly_income"] != 5000.0 {
		t.Errorf("request not built from arguments: %+v", orch.gotReq)
	}
}

func TestHandleProcessRequestError(t *testing.T) {
	orch := &mockOrchestrator{err: domain.ErrUnknownDomain}
	s := pmcp.NewServer(pmcp.ServerConfig{Name: "test", Version: "0.1.0"}, pmcp.ServerDeps{Orchestrator: orch})

	if result := callTool(t, s, "process_request", req1Args()); !result.IsError {
		t.Fatal("expected error result")
	}
}

func TestSubmitPollCancel(t *testing.T) {
	q := &mockDispatcher{statuses: map[string]response.DispatchStatus{}}
	s := pmcp.NewServer(pmcp.ServerConfig{Name: "test", Version: "0.1.0"}, pmcp.ServerDeps{Queue: q})

	var ack response.Ack
	decodeText(t, callTool(t, s, "submit_request", req1Args()), &ack)
	if ack.ProcessingID != "p-req_1" {
		t.Fatalf("unexpected ack %+v", ack)
	}

	var st response.DispatchStatus
	decodeText(t, callTool(t, s, "poll_request", map[string]any{"processing_id": ack.ProcessingID}), &st)
	if st.State != response.DispatchQueued {
		t.Errorf("expected queued, got %s", st.State)
	}

	decodeText(t, callTool(t, s, "cancel_request", map[string]any{"processing_id": ack.ProcessingID}), &st)
	if st.State != response.DispatchCancelled {
		t.Errorf("expected cancelled, got %s", st.State)
	}

	if result := callTool(t, s, "poll_request", nil); !result.IsError {
		t.Error("expected error result for missing processing_id")
	}
	if result := callTool(t, s, "poll_request", map[string]any{"processing_id": "nope"}); !result.IsError {
		t.Error("expected error result for unknown processing_id")
	}

	bad := req1Args()
	delete(bad, "description")
	if result := callTool(t, s, "submit_request", bad); !result.IsError {
		t.Error("expected error result for invalid request")
	}
}

func TestHandleAgentsStatus(t *testing.T) {
	orch := &mockOrchestrator{}
	q := &mockDispatcher{statuses: map[string]response.DispatchStatus{}}
	s := pmcp.NewServer(pmcp.ServerConfig{Name: "test", Version: "0.1.0"}, pmcp.ServerDeps{Orchestrator: orch, Queue: q})

	var st service.Status
	decodeText(t, callTool(t, s, "agents_status", nil), &st)
	if st.Processed != 3 || st.Queue == nil || st.Queue.Capacity != 100 {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestHandleNilDeps(t *testing.T) {
	s := pmcp.NewServer(pmcp.ServerConfig{Name: "test", Version: "0.1.0"}, pmcp.ServerDeps{})

	for _, name := range []string{"process_request", "submit_request", "poll_request", "agents_status", "recent_responses"} {
		if result := callTool(t, s, name, req1Args()); !result.IsError {
			t.Errorf("%s: expected error result when deps are nil", name)
		}
	}
}

func TestAuthMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	h := pmcp.AuthMiddleware("secret", ok)

	tests := []struct {
		header string
		want   int
	}{
		{"", http.StatusUnauthorized},
		{"Bearer wrong", http.StatusForbidden},
		{"Bearer secret", http.StatusNoContent},
		{"secret", http.StatusNoContent},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		if w.Code != tt.want {
			t.Errorf("header %q: expected %d, got %d", tt.header, tt.want, w.Code)
		}
	}

	if pmcp.AuthMiddleware("", ok) == nil {
		t.Error("disabled auth should pass through")
	}
}
