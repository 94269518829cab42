package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Strob0t/Principal/internal/domain/response"
	"github.com/Strob0t/Principal/internal/port/messagequeue"
)

// Recorder publishes a compact view of each response on
// responses.published (published and partial) or responses.rejected.
type Recorder struct {
	q messagequeue.Queue
}

// NewRecorder creates a recorder publishing through q.
func NewRecorder(q messagequeue.Queue) *Recorder {
	return &Recorder{q: q}
}

// Record implements recorder.Recorder.
func (r *Recorder) Record(ctx context.Context, resp *response.Response) error {
	data, err := json.Marshal(Payload(resp))
	if err != nil {
		return fmt.Errorf("marshal response payload: %w", err)
	}
	return r.q.Publish(ctx, SubjectFor(resp), data)
}

// SubjectFor returns the subject resp is published on.
func SubjectFor(resp *response.Response) string {
	if resp.PublicationStatus == response.StatusRejected {
		return messagequeue.SubjectResponseRejected
	}
	return messagequeue.SubjectResponsePublished
}

// Payload builds the wire payload for resp.
func Payload(resp *response.Response) messagequeue.ResponsePayload {
	p := messagequeue.ResponsePayload{
		RequestID:         resp.RequestID,
		RequestType:       string(resp.RequestType),
		UserID:            resp.UserID,
		PublicationStatus: string(resp.PublicationStatus),
		Approved:          resp.ApprovedForPublication,
		Domains:           resp.Dispatched,
		DomainScores:      make(map[string]float64, len(resp.QualityAssessments)),
		FailedExperts:     resp.FailedExperts,
		ProcessingTime:    resp.ProcessingTime.Seconds(),
		CreatedAt:         resp.CreatedAt,
	}
	for d, rep := range resp.QualityAssessments {
		p.DomainScores[d] = rep.OverallScore
	}
	if resp.FinalQualityReport != nil {
		p.FinalScore = resp.FinalQualityReport.OverallScore
	}
	return p
}
