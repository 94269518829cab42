package mcp

import (
	"context"
	"encoding/json"

	mcplib "github.com/mark3labs/mcp-go/mcp"

	"github.com/Strob0t/Principal/internal/port/recorder"
	"github.com/Strob0t/Principal/internal/service"
)

// Resource URIs.
const (
	URIAgents          = "principal://agents"
	URIRecentResponses = "principal://responses/recent"
)

// registerResources registers all MCP resources on the server.
func (s *Server) registerResources() {
	s.mcpServer.AddResource(
		mcplib.NewResource(
			URIAgents,
			"Agents",
			mcplib.WithResourceDescription("The principal agent, its specialists and circuit states"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleAgentsResource,
	)

	s.mcpServer.AddResource(
		mcplib.NewResource(
			URIRecentResponses,
			"Recent Responses",
			mcplib.WithResourceDescription("The most recently recorded responses"),
			mcplib.WithMIMEType("application/json"),
		),
		s.handleRecentResource,
	)
}

// status reads the orchestrator status with queue load when available.
func (s *Server) status() service.Status {
	if s.deps.Queue == nil {
		return s.deps.Orchestrator.Status(nil)
	}
	return s.deps.Orchestrator.Status(s.deps.Queue)
}

func jsonResource(uri string, v any) ([]mcplib.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func notConfigured(uri, what string) []mcplib.ResourceContents {
	return []mcplib.ResourceContents{
		mcplib.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     `{"error":"` + what + ` not configured"}`,
		},
	}
}

func (s *Server) handleAgentsResource(_ context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Orchestrator == nil {
		return notConfigured(req.Params.URI, "orchestrator"), nil
	}
	return jsonResource(req.Params.URI, s.status())
}

func (s *Server) handleRecentResource(ctx context.Context, req mcplib.ReadResourceRequest) ([]mcplib.ResourceContents, error) {
	if s.deps.Responses == nil {
		return notConfigured(req.Params.URI, "response store"), nil
	}
	recent, err := s.deps.Responses.Recent(ctx, recorder.DefaultLimit)
	if err != nil {
		return nil, err
	}
	return jsonResource(req.Params.URI, recent)
}
