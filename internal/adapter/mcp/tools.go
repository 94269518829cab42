package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/Strob0t/Principal/internal/domain/request"
	"github.com/Strob0t/Principal/internal/port/recorder"
)

// registerTools registers all MCP tools on the server.
func (s *Server) registerTools() {
	s.mcpServer.AddTools(
		s.processRequestTool(),
		s.submitRequestTool(),
		s.pollRequestTool(),
		s.cancelRequestTool(),
		s.agentsStatusTool(),
		s.recentResponsesTool(),
	)
}

func requestToolOptions(description string) []mcplib.ToolOption {
	return []mcplib.ToolOption{
		mcplib.WithDescription(description),
		mcplib.WithString("request_id", mcplib.Required(), mcplib.Description("Caller-chosen unique request ID")),
		mcplib.WithString("user_id", mcplib.Required(), mcplib.Description("ID of the requesting user")),
		mcplib.WithString("request_type",
			mcplib.Required(),
			mcplib.Description("Which specialists handle the request"),
			mcplib.Enum(string(request.TypeFinancial), string(request.TypeUtility), string(request.TypeVehicle), string(request.TypeGeneral)),
		),
		mcplib.WithString("description", mcplib.Required(), mcplib.Description("What the user needs")),
		mcplib.WithString("priority", mcplib.Description("low, medium or high; defaults to medium")),
		mcplib.WithObject("metadata", mcplib.Description("Optional domain data passed to the specialists")),
	}
}

func (s *Server) processRequestTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool:    mcplib.NewTool("process_request", requestToolOptions("Run a request through the specialists and return the synthesized, quality-gated response")...),
		Handler: s.handleProcessRequest,
	}
}

func (s *Server) submitRequestTool() mcpserver.ServerTool {
	return mcpserver.ServerTool{
		Tool:    mcplib.NewTool("submit_request", requestToolOptions("Queue a request for background processing and return its processing ID")...),
		Handler: s.handleSubmitRequest,
	}
}

func (s *Server) pollRequestTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("poll_request",
		mcplib.WithDescription("Get the state of a queued request, including the response once completed"),
		mcplib.WithString("processing_id",
			mcplib.Required(),
			mcplib.Description("The processing ID returned by submit_request"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handlePollRequest}
}

func (s *Server) cancelRequestTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("cancel_request",
		mcplib.WithDescription("Cancel a queued or running request"),
		mcplib.WithString("processing_id",
			mcplib.Required(),
			mcplib.Description("The processing ID returned by submit_request"),
		),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleCancelRequest}
}

func (s *Server) agentsStatusTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("agents_status",
		mcplib.WithDescription("Report the principal agent, its specialists and recent activity"),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleAgentsStatus}
}

func (s *Server) recentResponsesTool() mcpserver.ServerTool {
	tool := mcplib.NewTool("recent_responses",
		mcplib.WithDescription("List recently recorded responses, newest first"),
		mcplib.WithNumber("limit", mcplib.Description("Maximum number of responses, 1 to 1000")),
	)
	return mcpserver.ServerTool{Tool: tool, Handler: s.handleRecentResponses}
}

// requestFromArgs builds a request from tool arguments. Validation happens
// when the request is accepted.
func requestFromArgs(args map[string]any) *request.Request {
	str := func(k string) string {
		v, _ := args[k].(string)
		return v
	}
	req := &request.Request{
		ID:          str("request_id"),
		UserID:      str("user_id"),
		Type:        request.Type(str("request_type")),
		Description: str("description"),
		Priority:    request.Priority(str("priority")),
	}
	if md, ok := args["metadata"].(map[string]any); ok {
		req.Metadata = md
	}
	return req
}

func jsonResult(v any, what string) *mcplib.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to marshal "+what, err)
	}
	return toolResultJSON(string(data))
}

func (s *Server) handleProcessRequest(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Orchestrator == nil {
		return mcplib.NewToolResultError("orchestrator not configured"), nil
	}
	resp, err := s.deps.Orchestrator.Process(ctx, requestFromArgs(req.GetArguments()))
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to process request", err), nil
	}
	return jsonResult(resp, "response"), nil
}

func (s *Server) handleSubmitRequest(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Queue == nil {
		return mcplib.NewToolResultError("dispatch queue not configured"), nil
	}
	ack, err := s.deps.Queue.Submit(ctx, requestFromArgs(req.GetArguments()))
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to submit request", err), nil
	}
	return jsonResult(ack, "acknowledgement"), nil
}

func processingID(req mcplib.CallToolRequest) (string, bool) { //nolint:gocritic // hugeParam: mcp-go handler signature
	id, ok := req.GetArguments()["processing_id"].(string)
	return id, ok && id != ""
}

func (s *Server) handlePollRequest(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Queue == nil {
		return mcplib.NewToolResultError("dispatch queue not configured"), nil
	}
	id, ok := processingID(req)
	if !ok {
		return mcplib.NewToolResultError("processing_id is required"), nil
	}
	st, err := s.deps.Queue.Poll(ctx, id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to poll %s", id), err), nil
	}
	return jsonResult(st, "status"), nil
}

func (s *Server) handleCancelRequest(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Queue == nil {
		return mcplib.NewToolResultError("dispatch queue not configured"), nil
	}
	id, ok := processingID(req)
	if !ok {
		return mcplib.NewToolResultError("processing_id is required"), nil
	}
	st, err := s.deps.Queue.Cancel(ctx, id)
	if err != nil {
		return mcplib.NewToolResultErrorFromErr(fmt.Sprintf("failed to cancel %s", id), err), nil
	}
	return jsonResult(st, "status"), nil
}

func (s *Server) handleAgentsStatus(_ context.Context, _ mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Orchestrator == nil {
		return mcplib.NewToolResultError("orchestrator not configured"), nil
	}
	return jsonResult(s.status(), "status"), nil
}

func (s *Server) handleRecentResponses(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) { //nolint:gocritic // hugeParam: mcp-go handler signature
	if s.deps.Responses == nil {
		return mcplib.NewToolResultError("response store not configured"), nil
	}
	limit := 0
	if v, ok := req.GetArguments()["limit"].(float64); ok {
		limit = int(v)
	}
	recent, err := s.deps.Responses.Recent(ctx, recorder.ClampLimit(limit))
	if err != nil {
		return mcplib.NewToolResultErrorFromErr("failed to list responses", err), nil
	}
	return jsonResult(recent, "responses"), nil
}
