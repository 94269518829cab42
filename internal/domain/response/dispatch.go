package response

import "time"

// DispatchState is the lifecycle state of a queued request.
type DispatchState string

const (
	DispatchQueued    DispatchState = "queued"
	DispatchRunning   DispatchState = "running"
	DispatchCompleted DispatchState = "completed"
	DispatchFailed    DispatchState = "failed"
	DispatchCancelled DispatchState = "cancelled"
)

// Terminal reports whether s is a final state.
func (s DispatchState) Terminal() bool {
	return s == DispatchCompleted || s == DispatchFailed || s == DispatchCancelled
}

// Ack is returned immediately when a request is accepted for async processing.
type Ack struct {
	RequestID    string    `json:"request_id"`
	Status       string    `json:"status"`
	Message      string    `json:"message"`
	Timestamp    time.Time `json:"timestamp"`
	ProcessingID string    `json:"processing_id"`
}

// DispatchStatus is the pollable state of one async request.
type DispatchStatus struct {
	ProcessingID string        `json:"processing_id"`
	RequestID    string        `json:"request_id"`
	State        DispatchState `json:"state"`
	SubmittedAt  time.Time     `json:"submitted_at"`
	StartedAt    *time.Time    `json:"started_at,omitempty"`
	CompletedAt  *time.Time    `json:"completed_at,omitempty"`
	Response     *Response     `json:"response,omitempty"`
	Error        string        `json:"error,omitempty"`
}
