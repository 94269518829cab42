// Package keyword implements rule-driven analysis shared by the built-in
// specialists: each rule fires when the request text mentions one of its
// triggers and contributes findings to the result.
package keyword

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Strob0t/Principal/internal/domain/analysis"
	"github.com/Strob0t/Principal/internal/domain/request"
)

// Rule is one trigger-to-findings mapping.
type Rule struct {
	Triggers []string
	Issue    string
	Sections map[string][]string // section name -> items appended
	Outcome  string
	Action   string
	Escalate bool // raises the result priority to high
}

// Matches reports whether text (already lowercased) mentions a trigger.
func (r Rule) Matches(text string) bool {
	for _, t := range r.Triggers {
		if strings.Contains(text, t) {
			return true
		}
	}
	return false
}

// Profile is the static description of a keyword-driven specialist.
type Profile struct {
	Domain       string
	AnalysisType string
	Sections     []string // every section the result always carries
	Actionable   []string // sections whose items become recommendations
	Savings      string
	Timeline     string
	RiskLevel    string
	HealthScore  string
	Rules        []Rule
	Fallback     Rule // applied when no rule matches
}

// Analyze applies p to req. It returns ctx.Err() if ctx is already done.
func (p *Profile) Analyze(ctx context.Context, req *request.Request, now func() time.Time) (*analysis.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, fmt.Errorf("%s: nil request", p.Domain)
	}
	start := now()
	text := strings.ToLower(req.Description)

	res := &analysis.Result{
		Domain:                 p.Domain,
		AnalysisType:           p.AnalysisType,
		KeyIssues:              []string{},
		Recommendations:        []string{},
		Sections:               make(map[string][]string, len(p.Sections)),
		ExpectedOutcomes:       []string{},
		PriorityActions:        []string{},
		EstimatedSavings:       p.Savings,
		ImplementationTimeline: p.Timeline,
		Priority:               req.Priority,
		RiskLevel:              p.RiskLevel,
		HealthScore:            p.HealthScore,
	}
	for _, s := range p.Sections {
		res.Sections[s] = []string{}
	}

	matched := false
	for _, r := range p.Rules {
		if r.Matches(text) {
			p.apply(res, r)
			matched = true
		}
	}
	if !matched {
		p.apply(res, p.Fallback)
	}

	for _, s := range p.Actionable {
		for _, it := range res.Sections[s] {
			if !slices.Contains(res.Recommendations, it) {
				res.Recommendations = append(res.Recommendations, it)
			}
		}
	}
	if res.Priority == "" {
		res.Priority = request.PriorityMedium
	}
	res.ProcessingTime = now().Sub(start)
	return res, nil
}

func (p *Profile) apply(res *analysis.Result, r Rule) {
	if r.Issue != "" {
		res.KeyIssues = append(res.KeyIssues, r.Issue)
	}
	for name, items := range r.Sections {
		res.Sections[name] = append(res.Sections[name], items...)
	}
	if r.Outcome != "" {
		res.ExpectedOutcomes = append(res.ExpectedOutcomes, r.Outcome)
	}
	if r.Action != "" {
		res.PriorityActions = append(res.PriorityActions, r.Action)
	}
	if r.Escalate {
		res.Priority = request.PriorityHigh
	}
}
