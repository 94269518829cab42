// Package analysis defines specialist output and failure types.
package analysis

import (
	"fmt"
	"time"

	"github.com/Strob0t/Principal/internal/domain/quality"
	"github.com/Strob0t/Principal/internal/domain/request"
)

// Standard list fields every specialist result exposes to the assessor.
const (
	FieldKeyIssues        = "key_issues"
	FieldRecommendations  = "recommendations"
	FieldExpectedOutcomes = "expected_outcomes"
	FieldPriorityActions  = "priority_actions"
	FieldEstimatedSavings = "estimated_savings"
	FieldTimeline         = "implementation_timeline"
	FieldPriority         = "priority"
	FieldRiskLevel        = "risk_level"
)

// Result is the structured analysis produced by one specialist.
type Result struct {
	Domain                 string              `json:"domain"`
	AnalysisType           string              `json:"analysis_type"`
	KeyIssues              []string            `json:"key_issues"`
	Recommendations        []string            `json:"recommendations"`
	Sections               map[string][]string `json:"sections,omitempty"`
	ExpectedOutcomes       []string            `json:"expected_outcomes,omitempty"`
	PriorityActions        []string            `json:"priority_actions,omitempty"`
	EstimatedSavings       string              `json:"estimated_savings,omitempty"`
	ImplementationTimeline string              `json:"implementation_timeline,omitempty"`
	Priority               request.Priority    `json:"priority"`
	RiskLevel              string              `json:"risk_level,omitempty"`
	HealthScore            string              `json:"health_score,omitempty"`
	ProcessingTime         time.Duration       `json:"processing_time"`
}

// Empty reports whether r carries no findings at all.
func (r *Result) Empty() bool {
	if r == nil {
		return true
	}
	if len(r.KeyIssues) > 0 || len(r.Recommendations) > 0 ||
		len(r.ExpectedOutcomes) > 0 || len(r.PriorityActions) > 0 {
		return false
	}
	for _, s := range r.Sections {
		if len(s) > 0 {
			return false
		}
	}
	return true
}

// Content returns the assessable view of r for req.
func (r *Result) Content(req *request.Request) quality.Content {
	lists := map[string][]string{
		FieldKeyIssues:        r.KeyIssues,
		FieldRecommendations:  r.Recommendations,
		FieldExpectedOutcomes: r.ExpectedOutcomes,
		FieldPriorityActions:  r.PriorityActions,
	}
	for name, items := range r.Sections {
		lists[name] = items
	}
	return quality.Content{
		Kind:         quality.KindAnalysis,
		Subject:      r.Domain,
		AnalysisType: r.AnalysisType,
		RequestType:  string(req.Type),
		RequestText:  req.Description,
		Lists:        lists,
		Values: map[string]string{
			FieldEstimatedSavings: r.EstimatedSavings,
			FieldTimeline:         r.ImplementationTimeline,
			FieldPriority:         string(r.Priority),
			FieldRiskLevel:        r.RiskLevel,
		},
		Elapsed: r.ProcessingTime,
	}
}

// Failure is a specialist that did not produce a usable result.
type Failure struct {
	Domain string
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("specialist %s: %s: %v", f.Domain, f.Reason, f.Err)
	}
	return fmt.Sprintf("specialist %s: %s", f.Domain, f.Reason)
}

func (f *Failure) Unwrap() error { return f.Err }

// Failure reasons.
const (
	ReasonError       = "error"
	ReasonTimeout     = "timeout"
	ReasonCancelled   = "cancelled"
	ReasonPanic       = "panic"
	ReasonEmpty       = "empty result"
	ReasonCircuitOpen = "circuit open"
)
