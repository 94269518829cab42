package assess

import (
	"fmt"
	"time"

	"github.com/Strob0t/Principal/internal/domain/quality"
)

// Assessor scores content against one rubric. It holds no mutable state and
// is safe for concurrent use.
type Assessor struct {
	rubric  Rubric
	cutoffs quality.Cutoffs
	now     func() time.Time // for testing
}

// NewAssessor creates an Assessor for a fully resolved rubric.
func NewAssessor(r Rubric, cutoffs quality.Cutoffs) *Assessor {
	return &Assessor{rubric: r, cutoffs: cutoffs, now: time.Now}
}

// Rubric returns the resolved rubric.
func (a *Assessor) Rubric() Rubric { return a.rubric }

// Threshold returns the resolved pass threshold.
func (a *Assessor) Threshold() float64 { return a.rubric.Threshold }

// Assess scores c and returns a report. It never fails: content that cannot
// be scored yields a zero-score report carrying the reason as an issue.
// Approval starts equal to PassedThreshold; callers may only downgrade it.
func (a *Assessor) Assess(subject, requestID string, c quality.Content) *quality.Report {
	rep := &quality.Report{
		AgentName: subject,
		RequestID: requestID,
		Threshold: a.rubric.Threshold,
		Timestamp: a.now(),
	}

	for _, field := range a.rubric.Required {
		if !c.Has(field) {
			return a.malformed(rep, fmt.Sprintf("missing required field %q", field))
		}
	}

	metrics := make([]quality.Metric, 0, len(a.rubric.Dimensions))
	for _, d := range a.rubric.Dimensions {
		ev, err := score(d, c)
		if err != nil {
			return a.malformed(rep, err.Error())
		}
		metrics = append(metrics, quality.Metric{
			Dimension:       d.Name,
			Score:           quality.Clamp(ev.Score),
			Weight:          d.Weight,
			Description:     ev.Description,
			Issues:          ev.Issues,
			Recommendations: ev.Recommendations,
		})
		rep.TotalIssues += len(ev.Issues)
		rep.TotalRecommendations += len(ev.Recommendations)
	}

	rep.Metrics = metrics
	rep.OverallScore = quality.WeightedScore(metrics)
	rep.Level = a.cutoffs.Level(rep.OverallScore)
	rep.PassedThreshold = rep.OverallScore >= a.rubric.Threshold
	rep.ApprovedForPublication = rep.PassedThreshold
	rep.Summary = summarize(rep)
	return rep
}

// score runs one dimension, converting a panic into an error.
func score(d Dimension, c quality.Content) (ev Evaluation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dimension %s: %v", d.Name, r)
		}
	}()
	if d.Score == nil {
		return Evaluation{}, fmt.Errorf("dimension %s has no scorer", d.Name)
	}
	return d.Score(c), nil
}

func (a *Assessor) malformed(rep *quality.Report, reason string) *quality.Report {
	rep.OverallScore = 0
	rep.Level = a.cutoffs.Level(0)
	rep.TotalIssues = 1
	rep.PassedThreshold = false
	rep.ApprovedForPublication = false
	rep.Summary = "malformed content: " + reason
	rep.Metrics = []quality.Metric{{
		Dimension:   "content",
		Description: "content could not be assessed",
		Issues:      []string{"malformed content: " + reason},
	}}
	return rep
}

func summarize(rep *quality.Report) string {
	verdict := "below"
	if rep.PassedThreshold {
		verdict = "meets"
	}
	s := fmt.Sprintf("%s scored %.2f (%s), %s the %.2f threshold", rep.AgentName, rep.OverallScore, rep.Level, verdict, rep.Threshold)
	if rep.TotalIssues > 0 {
		s += fmt.Sprintf("; %d issue(s) identified", rep.TotalIssues)
	}
	return s
}
