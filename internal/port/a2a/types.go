package a2a

// AgentCard describes an agent's capabilities per the A2A protocol.
type AgentCard struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	URL          string  `json:"url"`
	Version      string  `json:"version"`
	Skills       []Skill `json:"skills"`
	Capabilities struct {
		Streaming bool `json:"streaming"`
	} `json:"capabilities"`
}

// Skill describes a single capability of the agent. Its ID is the request
// type a task must name to reach it.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	InputModes  []string `json:"inputModes"`
	OutputModes []string `json:"outputModes"`
}

// TaskRequest represents an incoming A2A task request. Input carries the
// request fields: user_id, description, priority and metadata.
type TaskRequest struct {
	ID      string         `json:"id"`
	Skill   string         `json:"skill"`
	Input   map[string]any `json:"input"`             //nolint:gosec // A2A protocol requires flexible input
	Context map[string]any `json:"context,omitempty"` //nolint:gosec // A2A protocol requires flexible context
}

// TaskResponse represents an A2A task response. ID is the processing ID to
// poll.
type TaskResponse struct {
	ID        string         `json:"id"`
	RequestID string         `json:"request_id"`
	Status    string         `json:"status"`           // "queued", "running", "completed", "failed", "cancelled"
	Output    map[string]any `json:"output,omitempty"` //nolint:gosec // A2A protocol requires flexible output
	Error     string         `json:"error,omitempty"`
}
