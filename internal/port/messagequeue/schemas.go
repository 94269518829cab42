package messagequeue

import (
	"time"

	"github.com/Strob0t/Principal/internal/domain/request"
)

// ResponsePayload is the schema for responses.published and
// responses.rejected messages. It is a compact view of a processed request;
// the full response lives in the response store.
type ResponsePayload struct {
	RequestID         string             `json:"request_id"`
	RequestType       string             `json:"request_type"`
	UserID            string             `json:"user_id"`
	PublicationStatus string             `json:"publication_status"`
	Approved          bool               `json:"approved_for_publication"`
	FinalScore        float64            `json:"final_score"`
	Domains           []string           `json:"domains"`
	DomainScores      map[string]float64 `json:"domain_scores"`
	FailedExperts     map[string]string  `json:"failed_experts,omitempty"`
	ProcessingTime    float64            `json:"processing_time"`
	CreatedAt         time.Time          `json:"created_at"`
}

// RequestSubmitPayload is the schema for requests.submit messages.
type RequestSubmitPayload struct {
	request.Request
}

// RequestAcceptedPayload is the schema for requests.accepted messages.
type RequestAcceptedPayload struct {
	RequestID    string `json:"request_id"`
	ProcessingID string `json:"processing_id"`
}
