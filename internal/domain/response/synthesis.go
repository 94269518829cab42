package response

import (
	"strconv"

	"github.com/Strob0t/Principal/internal/domain/quality"
	"github.com/Strob0t/Principal/internal/domain/request"
)

// Synthesis list and value fields exposed to the final assessor.
const (
	FieldSummary         = "summary"
	FieldRecommendations = "recommendations"
	FieldKeyIssues       = "key_issues"
	FieldDomains         = "domains"
	FieldActions         = "priority_actions"
	FieldSavings         = "estimated_savings"
	FieldExpertCount     = "expert_count"
	FieldSuccessful      = "successful_experts"
	FieldFailed          = "failed_experts"
)

// AttributedItem is a deduplicated recommendation or issue with its source.
type AttributedItem struct {
	Text     string           `json:"text"`
	Domain   string           `json:"domain"`
	Priority request.Priority `json:"priority"`
	AlsoFrom []string         `json:"also_from,omitempty"`
}

// DomainInsight keeps the per-domain view that deduplication would otherwise hide.
type DomainInsight struct {
	AnalysisType     string           `json:"analysis_type"`
	Priority         request.Priority `json:"priority"`
	QualityScore     float64          `json:"quality_score"`
	EstimatedSavings string           `json:"estimated_savings,omitempty"`
	Timeline         string           `json:"implementation_timeline,omitempty"`
	PriorityActions  []string         `json:"priority_actions,omitempty"`
	ExpectedOutcomes []string         `json:"expected_outcomes,omitempty"`
}

// Synthesis is the merged answer built from approved specialist results.
type Synthesis struct {
	Summary           string                   `json:"summary"`
	RequestType       request.Type             `json:"request_type"`
	Domains           []string                 `json:"domains"`
	Recommendations   []AttributedItem         `json:"recommendations"`
	KeyIssues         []AttributedItem         `json:"key_issues"`
	Insights          map[string]DomainInsight `json:"insights"`
	OverallPriority   request.Priority         `json:"overall_priority"`
	ExpertCount       int                      `json:"expert_count"`
	SuccessfulExperts int                      `json:"successful_experts"`
	FailedExperts     []string                 `json:"failed_experts,omitempty"`
	DuplicatesMerged  int                      `json:"duplicates_merged"`
}

// Content returns the assessable view of s for req.
func (s *Synthesis) Content(req *request.Request) quality.Content {
	var actions, savings []string
	for _, d := range s.Domains {
		in := s.Insights[d]
		actions = append(actions, in.PriorityActions...)
		if in.EstimatedSavings != "" {
			savings = append(savings, in.EstimatedSavings)
		}
	}
	return quality.Content{
		Kind:        quality.KindSynthesis,
		Subject:     "synthesis",
		RequestType: string(req.Type),
		RequestText: req.Description,
		Lists: map[string][]string{
			FieldRecommendations: texts(s.Recommendations),
			FieldKeyIssues:       texts(s.KeyIssues),
			FieldDomains:         s.Domains,
			FieldActions:         actions,
			FieldSavings:         savings,
			FieldFailed:          s.FailedExperts,
		},
		Values: map[string]string{
			FieldSummary:     s.Summary,
			FieldExpertCount: strconv.Itoa(s.ExpertCount),
			FieldSuccessful:  strconv.Itoa(s.SuccessfulExperts),
		},
	}
}

func texts(items []AttributedItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Text
	}
	return out
}
