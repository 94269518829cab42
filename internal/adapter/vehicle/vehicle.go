// Package vehicle provides the vehicle management specialist.
package vehicle

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
const Name = "vehicle"

const (
	sectionMaintenance = "maintenance_recommendations"
	sectionCost        = "cost_optimization"
	sectionSafety      = "safety_improvements"
	sectionEfficiency  = "efficiency_enhancements"
)

var (
	accuracyKeywords  = []string{"maintenance", "fuel", "safety", "cost", "vehicle", "car", "tire", "oil", "brake"}
	relevanceKeywords = []string{"vehicle", "car", "auto", "maintenance", "fuel", "safety", "cost", "tire", "oil"}
)

var profile = keyword.Profile{
	Domain:       Name,
	AnalysisType: string(request.TypeVehicle),
	Sections:     []string{sectionMaintenance, sectionCost, sectionSafety, sectionEfficiency},
	Actionable:   []string{sectionSafety, sectionMaintenance, sectionCost, sectionEfficiency},
	Savings:      "15-30%",
	Timeline:     "1-6 months",
	RiskLevel:    "low",
	HealthScore:  "good",
	Rules: []keyword.Rule{
		{
			Triggers: []string{"maintenance", "service", "repair", "oil", "tire"},
			Issue:    "Vehicle maintenance optimization needed",
			Sections: map[string][]string{sectionMaintenance: {
				"Implement preventive maintenance schedule",
				"Regular oil changes and filter replacements",
				"Tire rotation and alignment checks",
			}},
			Outcome: "Extended vehicle lifespan and reduced repair costs",
			Action:  "Schedule comprehensive vehicle inspection",
		},
		{
			Triggers: []string{"fuel", "gas", "mileage", "efficiency", "consumption"},
			Issue:    "Fuel efficiency optimization needed",
			Sections: map[string][]string{sectionEfficiency: {
				"Optimize driving behavior and routes",
				"Maintain proper tire pressure",
				"Reduce vehicle weight and aerodynamic drag",
			}},
			Outcome: "20-30% improvement in fuel efficiency",
			Action:  "Implement fuel tracking and monitoring system",
		},
		{
			Triggers: []string{"cost", "budget", "expense", "insurance", "registration"},
			Issue:    "Vehicle cost optimization needed",
			Sections: map[string][]string{sectionCost: {
				"Shop around for better insurance rates",
				"Compare fuel prices and use rewards programs",
				"Consider carpooling or ride-sharing options",
			}},
			Outcome: "15-25% reduction in vehicle operating costs",
			Action:  "Conduct comprehensive cost analysis",
		},
		{
			Triggers: []string{"safety", "brake", "light", "seat", "airbag"},
			Issue:    "Vehicle safety improvements needed",
			Sections: map[string][]string{sectionSafety: {
				"Regular brake system inspections",
				"Ensure all lights and signals work properly",
				"Check seat belts and airbag systems",
			}},
			Outcome:  "Enhanced vehicle and passenger safety",
			Action:   "Schedule safety inspection and repairs",
			Escalate: true,
		},
		{
			Triggers: []string{"vehicle", "car", "auto"},
			Issue:    "Comprehensive vehicle management optimization needed",
			Sections: map[string][]string{
				sectionMaintenance: {"Implement comprehensive maintenance program"},
				sectionCost:        {"Develop vehicle cost management strategy"},
				sectionSafety:      {"Establish regular safety check protocols"},
			},
			Outcome: "25-35% overall vehicle cost and efficiency improvement",
			Action:  "Create comprehensive vehicle management plan",
		},
	},
	Fallback: keyword.Rule{
		Issue: "General vehicle management assessment needed",
		Sections: map[string][]string{
			sectionMaintenance: {"Establish regular maintenance schedule"},
			sectionCost:        {"Track all vehicle-related expenses"},
			sectionSafety:      {"Schedule regular safety inspections"},
		},
		Outcome: "10-20% overall vehicle improvement",
		Action:  "Schedule comprehensive vehicle assessment",
	},
}

// Specialist analyzes vehicle ownership requests.
type Specialist struct {
	now func() time.Time
}

// New creates a vehicle specialist.
func New() *Specialist {
	return &Specialist{now: time.Now}
}

func init() {
	specialist.Register(Name, func(map[string]string) (specialist.Specialist, error) {
		return New(), nil
	})
}

func (s *Specialist) Name() string              { return Name }
func (s *Specialist) RequestType() request.Type { return request.TypeVehicle }

// Rubric returns the vehicle rubric with a 0.65 threshold.
func (s *Specialist) Rubric() assess.Rubric {
	r := assess.SpecialistRubric(Name, "vehicle", string(request.TypeVehicle), accuracyKeywords,
		[]string{analysis.FieldKeyIssues, sectionMaintenance, sectionCost, sectionSafety, sectionEfficiency, analysis.FieldExpectedOutcomes, analysis.FieldPriorityActions},
		[]string{sectionMaintenance, sectionCost, sectionSafety})
	r.Dimensions[2] = assess.RequestRelevance(0.20, "vehicle", relevanceKeywords)
	r.Threshold = 0.65
	return r
}

// Analyze produces a vehicle management analysis for req.
func (s *Specialist) Analyze(ctx context.Context, req *request.Request) (*analysis.Result, error) {
	return profile.Analyze(ctx, req, s.now)
}
