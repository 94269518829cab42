package utility

import (
	"context"
	"testing"

	"github.com/Strob0t/Principal/internal/assess"
	"github.com/Strob0t/Principal/internal/domain/request"
)

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name       string
		desc       string
		wantIssues int
	}{
		{"energy and water", "reduce electricity and water bills", 2},
		{"efficiency", "utility efficiency review", 1},
		{"nothing specific", "help me", 1},
	}
	s := New()
	a := assess.DefaultSettings().Assessor(s.Rubric())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &request.Request{ID: "r", Type: request.TypeUtility, Description: tt.desc}
			res, err := s.Analyze(context.Background(), req)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.KeyIssues) != tt.wantIssues {
				t.Errorf("expected %d issues, got %v", tt.wantIssues, res.KeyIssues)
			}
			if res.Empty() {
				t.Error("result should not be empty")
			}
			rep := a.Assess(s.Name(), req.ID, res.Content(req))
			if rep.OverallScore <= 0 || rep.OverallScore > 1 {
				t.Errorf("score %v out of range", rep.OverallScore)
			}
		})
	}
}

func TestFocusedRequestPasses(t *testing.T) {
	s := New()
	req := &request.Request{ID: "r", Type: request.TypeUtility, Description: "reduce electricity and water bills"}
	res, _ := s.Analyze(context.Background(), req)
	rep := assess.DefaultSettings().Assessor(s.Rubric()).Assess(s.Name(), req.ID, res.Content(req))
	if !rep.PassedThreshold || rep.Threshold != 0.7 {
		t.Errorf("expected pass against 0.7, got %.3f / %v", rep.OverallScore, rep.Threshold)
	}
}
