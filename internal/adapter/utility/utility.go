// Package utility provides the utility management specialist.
package utility

import (
	"context"
	"time"

	"github.com/Strob0t/Principal/internal/adapter/keyword"
	"github.com/Strob0t/Principal/internal/assess"
	"github.com/Strob0t/Principal/internal/domain/analysis"
	"github.com/Strob0t/Principal/internal/domain/request"
	"github.com/Strob0t/Principal/internal/port/specialist"
)

// Name is the domain tag of this specialist.
const Name = "utility"

const (
	sectionOptimization = "optimization_opportunities"
	sectionCostSavings  = "cost_savings_recommendations"
	sectionTechnology   = "technology_recommendations"
	sectionRisk         = "risk_considerations"
)

var (
	accuracyKeywords  = []string{"energy", "water", "electricity", "gas", "utility", "consumption", "efficiency"}
	relevanceKeywords = []string{"utility", "energy", "water", "electricity", "gas", "bills", "consumption"}
)

var profile = keyword.Profile{
	Domain:       Name,
	AnalysisType: string(request.TypeUtility),
	Sections:     []string{sectionOptimization, sectionCostSavings, sectionTechnology, sectionRisk},
	Actionable:   []string{sectionCostSavings, sectionTechnology, sectionOptimization},
	Savings:      "5-15%",
	Timeline:     "3-6 months",
	Rules: []keyword.Rule{
		{
			Triggers: []string{"energy", "electricity", "power", "consumption"},
			Issue:    "High energy consumption patterns detected",
			Sections: map[string][]string{
				sectionOptimization: {"Implement smart energy monitoring systems"},
				sectionCostSavings:  {"Switch to energy-efficient appliances"},
				sectionTechnology:   {"Smart meters and energy monitoring devices"},
			},
			Outcome: "15-25% reduction in energy costs",
			Action:  "Conduct energy audit and identify high-consumption areas",
		},
		{
			Triggers: []string{"water", "usage", "bills", "leak"},
			Issue:    "Water usage optimization needed",
			Sections: map[string][]string{
				sectionOptimization: {"Install water-efficient fixtures"},
				sectionCostSavings:  {"Implement leak detection systems"},
				sectionTechnology:   {"Smart water meters and leak detectors"},
				sectionRisk:         {"Undetected leaks can cause property damage"},
			},
			Outcome: "10-20% reduction in water costs",
			Action:  "Audit water usage patterns and identify leaks",
		},
		{
			Triggers: []string{"optimization", "efficiency"},
			Issue:    "Overall utility efficiency improvement needed",
			Sections: map[string][]string{
				sectionOptimization: {"Implement comprehensive utility monitoring"},
				sectionCostSavings:  {"Bundle utility services for better rates"},
				sectionTechnology:   {"Integrated utility management platform"},
			},
			Outcome: "20-30% overall utility cost reduction",
			Action:  "Develop utility management strategy and timeline",
		},
	},
	Fallback: keyword.Rule{
		Issue: "General utility management improvement opportunity",
		Sections: map[string][]string{
			sectionOptimization: {"Implement comprehensive utility monitoring and optimization"},
			sectionCostSavings:  {"Audit all utility services for optimization opportunities"},
			sectionTechnology:   {"Smart utility monitoring and management systems"},
		},
		Outcome: "10-25% overall utility cost reduction",
		Action:  "Conduct comprehensive utility audit and develop optimization plan",
	},
}

// Specialist analyzes household utility requests.
type Specialist struct {
	now func() time.Time
}

// New creates a utility specialist.
func New() *Specialist {
	return &Specialist{now: time.Now}
}

func init() {
	specialist.Register(Name, func(map[string]string) (specialist.Specialist, error) {
		return New(), nil
	})
}

func (s *Specialist) Name() string              { return Name }
func (s *Specialist) RequestType() request.Type { return request.TypeUtility }

// Rubric returns the utility rubric with a 0.7 threshold.
func (s *Specialist) Rubric() assess.Rubric {
	r := assess.SpecialistRubric(Name, "utility", string(request.TypeUtility), accuracyKeywords,
		[]string{analysis.FieldKeyIssues, sectionOptimization, sectionCostSavings, analysis.FieldPriorityActions, analysis.FieldExpectedOutcomes, sectionTechnology},
		[]string{sectionCostSavings, sectionTechnology})
	r.Dimensions[2] = assess.RequestRelevance(0.20, "utility", relevanceKeywords)
	r.Threshold = 0.7
	return r
}

// Analyze produces a utility management analysis for req.
func (s *Specialist) Analyze(ctx context.Context, req *request.Request) (*analysis.Result, error) {
	return profile.Analyze(ctx, req, s.now)
}
