// Package assess scores content against weighted rubrics and produces
// quality reports.
package assess

import (
	"maps"
	"slices"

	"github.com/Strob0t/Principal/internal/config"
	"github.com/Strob0t/Principal/internal/domain/quality"
)

// Evaluation is the outcome of scoring one dimension.
type Evaluation struct {
	Score           float64
	Description     string
	Issues          []string
	Recommendations []string
}

// ScoreFunc scores one dimension of c. It must be deterministic.
type ScoreFunc func(c quality.Content) Evaluation

// Dimension is one weighted criterion of a rubric.
type Dimension struct {
	Name   string
	Weight float64
	Score  ScoreFunc
}

// Rubric is a named set of weighted dimensions with a pass threshold.
// A zero Threshold means the configured default applies.
type Rubric struct {
	Name       string
	Threshold  float64
	Required   []string // content fields that must be present
	Dimensions []Dimension
}

// Weights returns the dimension weights keyed by name.
func (r Rubric) Weights() map[string]float64 {
	out := make(map[string]float64, len(r.Dimensions))
	for _, d := range r.Dimensions {
		out[d.Name] = d.Weight
	}
	return out
}

// Settings holds operator overrides applied to every rubric.
type Settings struct {
	DefaultThreshold float64
	Thresholds       map[string]float64
	Weights          map[string]map[string]float64
	Cutoffs          quality.Cutoffs
}

// DefaultSettings returns settings with the standard level bands and a 0.6
// default threshold.
func DefaultSettings() Settings {
	return Settings{DefaultThreshold: 0.6, Cutoffs: quality.DefaultCutoffs()}
}

// SettingsFromConfig converts the quality configuration section.
func SettingsFromConfig(q config.Quality) Settings {
	return Settings{
		DefaultThreshold: q.DefaultThreshold,
		Thresholds:       maps.Clone(q.Thresholds),
		Weights:          q.Weights,
		Cutoffs: quality.Cutoffs{
			Excellent:        q.Levels.Excellent,
			Good:             q.Levels.Good,
			Satisfactory:     q.Levels.Satisfactory,
			NeedsImprovement: q.Levels.NeedsImprovement,
		},
	}
}

// Apply returns a copy of r with threshold and weight overrides resolved.
// Precedence for the threshold: Thresholds[r.Name] > r.Threshold > DefaultThreshold.
func (s Settings) Apply(r Rubric) Rubric {
	out := r
	out.Dimensions = slices.Clone(r.Dimensions)
	if th, ok := s.Thresholds[r.Name]; ok {
		out.Threshold = th
	} else if out.Threshold == 0 {
		out.Threshold = s.DefaultThreshold
	}
	if w, ok := s.Weights[r.Name]; ok {
		for i, d := range out.Dimensions {
			if v, ok := w[d.Name]; ok {
				out.Dimensions[i].Weight = v
			}
		}
	}
	return out
}

// Assessor returns an Assessor for r with s applied.
func (s Settings) Assessor(r Rubric) *Assessor {
	return NewAssessor(s.Apply(r), s.Cutoffs)
}
