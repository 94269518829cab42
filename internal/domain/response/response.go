// Package response defines the assembled orchestrator output and the
// dispatch queue status records.
package response

import (
	"time"

	"github.com/Strob0t/Principal/internal/domain/analysis"
	"github.com/Strob0t/Principal/internal/domain/quality"
	"github.com/Strob0t/Principal/internal/domain/request"
)

// PublicationStatus is the publish/reject verdict of a response.
type PublicationStatus string

const (
	// StatusPublished means the synthesis was approved and every dispatched
	// specialist contributed an approved result.
	StatusPublished PublicationStatus = "published"
	// StatusPartial means the synthesis was approved but at least one
	// dispatched specialist failed or was not approved.
	StatusPartial PublicationStatus = "partial"
	// StatusRejected means nothing was approved for publication.
	StatusRejected PublicationStatus = "rejected"
)

// Response is the complete outcome of processing one request.
type Response struct {
	RequestID              string                      `json:"request_id"`
	RequestType            request.Type                `json:"request_type"`
	UserID                 string                      `json:"user_id"`
	ProcessingTime         time.Duration               `json:"processing_time"`
	PrincipalAgent         string                      `json:"principal_agent"`
	Dispatched             []string                    `json:"dispatched"`
	ExpertResults          map[string]*analysis.Result `json:"expert_results"`
	QualityAssessments     map[string]*quality.Report  `json:"quality_assessments"`
	FailedExperts          map[string]string           `json:"failed_experts,omitempty"`
	Synthesis              *Synthesis                  `json:"synthesis,omitempty"`
	FinalQualityReport     *quality.Report             `json:"final_quality_report,omitempty"`
	ApprovedForPublication bool                        `json:"approved_for_publication"`
	PublicationStatus      PublicationStatus           `json:"publication_status"`
	CreatedAt              time.Time                   `json:"created_at"`
}

// Approved returns the domains whose results were approved, in dispatch order.
func (r *Response) Approved() []string {
	var out []string
	for _, d := range r.Dispatched {
		if rep, ok := r.QualityAssessments[d]; ok && rep.ApprovedForPublication {
			out = append(out, d)
		}
	}
	return out
}

// Verdict derives the publication status from the final approval flag and
// how many of the dispatched domains were approved.
func Verdict(finalApproved bool, approved, dispatched int) PublicationStatus {
	switch {
	case !finalApproved || approved == 0:
		return StatusRejected
	case approved < dispatched:
		return StatusPartial
	default:
		return StatusPublished
	}
}

// Summary is the compact form of a response kept in workflow history.
type Summary struct {
	RequestID         string            `json:"request_id"`
	RequestType       request.Type      `json:"request_type"`
	PublicationStatus PublicationStatus `json:"publication_status"`
	FinalScore        float64           `json:"final_score"`
	Dispatched        int               `json:"dispatched"`
	Failed            int               `json:"failed"`
	ProcessingTime    time.Duration     `json:"processing_time"`
	CreatedAt         time.Time         `json:"created_at"`
}

// Summarize returns the compact form of r.
func (r *Response) Summarize() Summary {
	s := Summary{
		RequestID:         r.RequestID,
		RequestType:       r.RequestType,
		PublicationStatus: r.PublicationStatus,
		Dispatched:        len(r.Dispatched),
		Failed:            len(r.FailedExperts),
		ProcessingTime:    r.ProcessingTime,
		CreatedAt:         r.CreatedAt,
	}
	if r.FinalQualityReport != nil {
		s.FinalScore = r.FinalQualityReport.OverallScore
	}
	return s
}
