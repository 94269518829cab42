package quality

import (
	"math"
	"testing"
)

func TestCutoffsLevel(t *testing.T) {
	c := DefaultCutoffs()
	tests := []struct {
		score float64
		want  Level
	}{
		{1, LevelExcellent},
		{0.9, LevelExcellent},
		{0.85, LevelGood},
		{0.8, LevelGood},
		{0.7, LevelSatisfactory},
		{0.65, LevelNeedsImprovement},
		{0.59, LevelPoor},
		{0, LevelPoor},
	}
	for _, tt := range tests {
		if got := c.Level(tt.score); got != tt.want {
			t.Errorf("Level(%v) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestWeightedScore(t *testing.T) {
	tests := []struct {
		name    string
		metrics []Metric
		want    float64
	}{
		{"empty", nil, 0},
		{"zero weights", []Metric{{Score: 1, Weight: 0}}, 0},
		{"single", []Metric{{Score: 0.8, Weight: 1}}, 0.8},
		{"weighted", []Metric{{Score: 1, Weight: 0.75}, {Score: 0, Weight: 0.25}}, 0.75},
		{"unnormalized weights", []Metric{{Score: 1, Weight: 2}, {Score: 0.5, Weight: 2}}, 0.75},
		{"out of range scores are clamped", []Metric{{Score: 3, Weight: 1}, {Score: -1, Weight: 1}}, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightedScore(tt.metrics)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if got < 0 || got > 1 {
				t.Errorf("score %v out of bounds", got)
			}
		})
	}
}

func TestPolicyOnlyDowngrades(t *testing.T) {
	p := Policy{MaxIssues: 2, MetricFloor: 0.3}

	notApproved := &Report{PassedThreshold: false, TotalIssues: 0}
	if p.Apply(notApproved) || notApproved.ApprovedForPublication {
		t.Fatal("policy must never grant approval")
	}

	tooMany := &Report{PassedThreshold: true, ApprovedForPublication: true, TotalIssues: 3}
	if !p.Apply(tooMany) || tooMany.ApprovedForPublication {
		t.Error("expected downgrade for too many issues")
	}
	if len(tooMany.Downgrades) != 1 {
		t.Errorf("expected one downgrade reason, got %v", tooMany.Downgrades)
	}
	if !tooMany.PassedThreshold {
		t.Error("downgrade must not change PassedThreshold")
	}

	lowMetric := &Report{
		PassedThreshold: true, ApprovedForPublication: true,
		Metrics: []Metric{{Dimension: "accuracy", Score: 0.9}, {Dimension: "clarity", Score: 0.1}},
	}
	if !p.Apply(lowMetric) {
		t.Error("expected downgrade for metric below floor")
	}

	clean := &Report{PassedThreshold: true, ApprovedForPublication: true, Metrics: []Metric{{Score: 0.5}}}
	if p.Apply(clean) || !clean.ApprovedForPublication {
		t.Error("clean report should stay approved")
	}

	if (Policy{}).Apply(tooMany) {
		t.Error("zero policy should never downgrade")
	}
}

func TestContentHas(t *testing.T) {
	c := Content{Lists: map[string][]string{"key_issues": {}}, Values: map[string]string{"priority": ""}}
	if !c.Has("key_issues") || !c.Has("priority") {
		t.Error("present but empty fields must count as present")
	}
	if c.Has("recommendations") {
		t.Error("absent field reported present")
	}
}
