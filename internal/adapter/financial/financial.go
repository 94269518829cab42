// Package financial provides the financial health specialist.
package financial

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
const Name = "financial"

const (
	sectionBudget     = "budget_optimization"
	sectionInvestment = "investment_recommendations"
	sectionDebt       = "debt_management"
	sectionRisk       = "risk_assessment"
)

var keywords = []string{"budget", "investment", "debt", "savings", "financial", "money", "expense", "income"}

var profile = keyword.Profile{
	Domain:       Name,
	AnalysisType: string(request.TypeFinancial),
	Sections:     []string{sectionBudget, sectionInvestment, sectionDebt, sectionRisk},
	Actionable:   []string{sectionBudget, sectionInvestment, sectionDebt},
	Savings:      "10-25%",
	Timeline:     "3-12 months",
	RiskLevel:    "moderate",
	HealthScore:  "good",
	Rules: []keyword.Rule{
		{
			Triggers: []string{"budget", "spending", "expenses", "cost"},
			Issue:    "Budget optimization needed",
			Sections: map[string][]string{sectionBudget: {
				"Implement 50/30/20 budgeting rule",
				"Track all expenses for 30 days",
				"Identify and reduce discretionary spending",
			}},
			Outcome: "15-25% reduction in unnecessary expenses",
			Action:  "Set up expense tracking system",
		},
		{
			Triggers: []string{"investment", "portfolio", "savings", "retirement"},
			Issue:    "Investment strategy optimization needed",
			Sections: map[string][]string{sectionInvestment: {
				"Diversify investment portfolio",
				"Increase retirement contributions",
				"Consider index fund investments",
			}},
			Outcome: "8-12% annual investment returns",
			Action:  "Review and rebalance investment portfolio",
		},
		{
			Triggers: []string{"debt", "credit", "loan", "payment"},
			Issue:    "Debt management strategy needed",
			Sections: map[string][]string{
				sectionDebt: {
					"Prioritize high-interest debt repayment",
					"Consider debt consolidation options",
					"Negotiate lower interest rates",
				},
				sectionRisk: {"High-interest debt increases exposure to rate changes"},
			},
			Outcome:  "20-40% reduction in debt payments",
			Action:   "Create debt repayment plan",
			Escalate: true,
		},
		{
			Triggers: []string{"financial", "money", "finance"},
			Issue:    "Comprehensive financial health improvement needed",
			Sections: map[string][]string{
				sectionBudget:     {"Implement comprehensive financial planning"},
				sectionInvestment: {"Develop long-term investment strategy"},
				sectionDebt:       {"Create debt reduction timeline"},
			},
			Outcome: "25-35% overall financial improvement",
			Action:  "Conduct comprehensive financial audit",
		},
	},
	Fallback: keyword.Rule{
		Issue: "General financial health assessment needed",
		Sections: map[string][]string{
			sectionBudget:     {"Implement basic budgeting system"},
			sectionInvestment: {"Start emergency fund savings"},
			sectionDebt:       {"Review all outstanding debts"},
		},
		Outcome: "10-20% overall financial improvement",
		Action:  "Schedule financial health assessment",
	},
}

// Specialist analyzes personal finance requests.
type Specialist struct {
	now func() time.Time
}

// New creates a financial specialist.
func New() *Specialist {
	return &Specialist{now: time.Now}
}

func init() {
	specialist.Register(Name, func(map[string]string) (specialist.Specialist, error) {
		return New(), nil
	})
}

// Name returns "financial".
func (s *Specialist) Name() string { return Name }

// RequestType returns financial_health.
func (s *Specialist) RequestType() request.Type { return request.TypeFinancial }

// Rubric returns the financial rubric. Financial advice carries a stricter
// 0.75 threshold.
func (s *Specialist) Rubric() assess.Rubric {
	r := assess.SpecialistRubric(Name, "financial", string(request.TypeFinancial), keywords,
		[]string{analysis.FieldKeyIssues, sectionBudget, sectionInvestment, sectionDebt, analysis.FieldExpectedOutcomes, analysis.FieldPriorityActions},
		[]string{sectionBudget, sectionInvestment, sectionDebt})
	r.Threshold = 0.75
	return r
}

// Analyze produces a financial health analysis for req.
func (s *Specialist) Analyze(ctx context.Context, req *request.Request) (*analysis.Result, error) {
	return profile.Analyze(ctx, req, s.now)
}
