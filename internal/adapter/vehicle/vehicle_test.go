package vehicle

import (
	"context"
	"testing"

	"github.com/Strob0t/Principal/internal/assess"
	"github.com/Strob0t/Principal/internal/domain/request"
)

func TestAnalyzeMaintenanceAndSafety(t *testing.T) {
	s := New()
	req := &request.Request{ID: "r", Type: request.TypeVehicle, Description: "car maintenance and brake safety", Priority: request.PriorityLow}

	res, err := s.Analyze(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.KeyIssues) != 3 {
		t.Errorf("expected 3 issues, got %v", res.KeyIssues)
	}
	if res.Priority != request.PriorityHigh {
		t.Errorf("safety findings should escalate priority, got %s", res.Priority)
	}
	if res.Recommendations[0] != "Regular brake system inspections" {
		t.Errorf("expected safety recommendations first, got %v", res.Recommendations)
	}

	rep := assess.DefaultSettings().Assessor(s.Rubric()).Assess(s.Name(), req.ID, res.Content(req))
	if !rep.PassedThreshold {
		t.Errorf("expected pass, got %.3f: %s", rep.OverallScore, rep.Summary)
	}
	if rep.Threshold != 0.65 {
		t.Errorf("expected 0.65 threshold, got %v", rep.Threshold)
	}
}

func TestAnalyzeHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Analyze(ctx, &request.Request{Description: "car"}); err == nil {
		t.Fatal("expected cancellation error")
	}
}
