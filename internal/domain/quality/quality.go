// Package quality defines quality metrics, reports and level classification.
package quality

import (
	"fmt"
	"time"
)

// Level is the qualitative band of an overall score.
type Level string

const (
	LevelExcellent        Level = "excellent"
	LevelGood             Level = "good"
	LevelSatisfactory     Level = "satisfactory"
	LevelNeedsImprovement Level = "needs_improvement"
	LevelPoor             Level = "poor"
)

// Cutoffs holds the inclusive lower bound of each level. Scores below
// NeedsImprovement are poor.
type Cutoffs struct {
	Excellent        float64 `json:"excellent"`
	Good             float64 `json:"good"`
	Satisfactory     float64 `json:"satisfactory"`
	NeedsImprovement float64 `json:"needs_improvement"`
}

// DefaultCutoffs returns the standard 0.9/0.8/0.7/0.6 bands.
func DefaultCutoffs() Cutoffs {
	return Cutoffs{Excellent: 0.9, Good: 0.8, Satisfactory: 0.7, NeedsImprovement: 0.6}
}

// Level classifies score.
func (c Cutoffs) Level(score float64) Level {
	switch {
	case score >= c.Excellent:
		return LevelExcellent
	case score >= c.Good:
		return LevelGood
	case score >= c.Satisfactory:
		return LevelSatisfactory
	case score >= c.NeedsImprovement:
		return LevelNeedsImprovement
	default:
		return LevelPoor
	}
}

// Metric is the score of one rubric dimension.
type Metric struct {
	Dimension       string   `json:"dimension"`
	Score           float64  `json:"score"`
	Weight          float64  `json:"weight"`
	Description     string   `json:"description"`
	Issues          []string `json:"issues,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// Report is the scored evaluation of one piece of content.
// ApprovedForPublication implies PassedThreshold.
type Report struct {
	AgentName              string    `json:"agent_name"`
	RequestID              string    `json:"request_id"`
	OverallScore           float64   `json:"overall_score"`
	Level                  Level     `json:"quality_level"`
	Threshold              float64   `json:"threshold"`
	Metrics                []Metric  `json:"metrics"`
	Summary                string    `json:"assessment_summary"`
	Timestamp              time.Time `json:"timestamp"`
	PassedThreshold        bool      `json:"passed_threshold"`
	ApprovedForPublication bool      `json:"approved_for_publication"`
	TotalIssues            int       `json:"total_issues"`
	TotalRecommendations   int       `json:"total_recommendations"`
	Downgrades             []string  `json:"downgrades,omitempty"`
}

// Downgrade withdraws publication approval and records why. There is no
// inverse operation.
func (r *Report) Downgrade(reason string) {
	r.ApprovedForPublication = false
	r.Downgrades = append(r.Downgrades, reason)
}

// LowestMetric returns the metric with the smallest score, or false when
// the report has none.
func (r *Report) LowestMetric() (Metric, bool) {
	if len(r.Metrics) == 0 {
		return Metric{}, false
	}
	low := r.Metrics[0]
	for _, m := range r.Metrics[1:] {
		if m.Score < low.Score {
			low = m
		}
	}
	return low, true
}

// WeightedScore returns sum(score*weight)/sum(weight), clamped to [0,1].
// It returns 0 when the total weight is zero.
func WeightedScore(metrics []Metric) float64 {
	var sum, weights float64
	for _, m := range metrics {
		sum += Clamp(m.Score) * m.Weight
		weights += m.Weight
	}
	if weights <= 0 {
		return 0
	}
	return Clamp(sum / weights)
}

// Clamp bounds f to [0,1].
func Clamp(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}

// Policy is a set of publication rules applied after scoring. A rule can
// withdraw approval but never grant it. Zero values disable a rule.
type Policy struct {
	MaxIssues   int     `json:"max_issues"`
	MetricFloor float64 `json:"metric_floor"`
}

// Apply downgrades r when it violates p. It returns true if r was downgraded.
func (p Policy) Apply(r *Report) bool {
	if !r.ApprovedForPublication {
		return false
	}
	if p.MaxIssues > 0 && r.TotalIssues > p.MaxIssues {
		r.Downgrade(fmt.Sprintf("%d issues exceed the limit of %d", r.TotalIssues, p.MaxIssues))
		return true
	}
	if p.MetricFloor > 0 {
		if low, ok := r.LowestMetric(); ok && low.Score < p.MetricFloor {
			r.Downgrade(fmt.Sprintf("%s scored %.2f, below the floor of %.2f", low.Dimension, low.Score, p.MetricFloor))
			return true
		}
	}
	return false
}
