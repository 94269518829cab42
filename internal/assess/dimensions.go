package assess

import (
	"fmt"
	"strings"
	"time"

	"github.com/Strob0t/Principal/internal/domain/analysis"
	"github.com/Strob0t/Principal/internal/domain/quality"
	"github.com/Strob0t/Principal/internal/domain/response"
)

// Dimension names.
const (
	Accuracy      = "accuracy"
	Completeness  = "completeness"
	Relevance     = "relevance"
	Timeliness    = "timeliness"
	Consistency   = "consistency"
	Clarity       = "clarity"
	Actionability = "actionability"
)

// tier maps a count to one of three scores.
func tier(n, high, mid int, hi, md, lo float64) float64 {
	switch {
	case n >= high:
		return hi
	case n >= mid:
		return md
	default:
		return lo
	}
}

func countKeywords(text string, keywords []string) int {
	text = strings.ToLower(text)
	n := 0
	for _, k := range keywords {
		if strings.Contains(text, k) {
			n++
		}
	}
	return n
}

// contentText flattens every field name and value of c into one string.
func contentText(c quality.Content) string {
	var b strings.Builder
	for name, items := range c.Lists {
		b.WriteString(name)
		b.WriteByte(' ')
		for _, it := range items {
			b.WriteString(it)
			b.WriteByte(' ')
		}
	}
	for name, v := range c.Values {
		b.WriteString(name)
		b.WriteByte(' ')
		b.WriteString(v)
		b.WriteByte(' ')
	}
	return b.String()
}

// KeywordAccuracy scores how many domain concepts appear in the content.
// Content whose analysis type is not analysisType scores 0.3 outright; an
// empty analysisType skips that check. Otherwise four or more concepts
// score 0.9, two or more 0.7, and fewer 0.4.
func KeywordAccuracy(weight float64, label, analysisType string, keywords []string) Dimension {
	return Dimension{Name: Accuracy, Weight: weight, Score: func(c quality.Content) Evaluation {
		if analysisType != "" && c.AnalysisType != analysisType {
			return Evaluation{
				Score:           0.3,
				Description:     "Analysis type mismatch: not " + label + " focused",
				Issues:          []string{"Analysis type does not match " + label + " expertise"},
				Recommendations: []string{"Ensure analysis focuses on " + label + " aspects"},
			}
		}
		n := countKeywords(contentText(c), keywords)
		ev := Evaluation{Score: tier(n, 4, 2, 0.9, 0.7, 0.4)}
		switch {
		case n >= 4:
			ev.Description = fmt.Sprintf("High accuracy: %d %s concepts identified", n, label)
		case n >= 2:
			ev.Description = fmt.Sprintf("Moderate accuracy: %d %s concepts identified", n, label)
			ev.Issues = []string{"Limited " + label + "-specific analysis"}
			ev.Recommendations = []string{"Include more " + label + "-specific recommendations"}
		default:
			ev.Description = "Low accuracy: no " + label + "-specific analysis detected"
			ev.Issues = []string{"No " + label + "-specific analysis provided"}
			ev.Recommendations = []string{"Focus analysis on " + label + " aspects"}
		}
		return ev
	}}
}

// SectionCompleteness scores how many of the named sections are non-empty.
// None missing scores 1.0, up to two missing 0.8, otherwise 0.5.
func SectionCompleteness(weight float64, sections ...string) Dimension {
	return Dimension{Name: Completeness, Weight: weight, Score: func(c quality.Content) Evaluation {
		var missing []string
		for _, s := range sections {
			if len(c.List(s)) == 0 && c.Value(s) == "" {
				missing = append(missing, s)
			}
		}
		list := strings.Join(missing, ", ")
		switch {
		case len(missing) == 0:
			return Evaluation{Score: 1.0, Description: "Complete analysis: all required sections present"}
		case len(missing) <= 2:
			return Evaluation{
				Score:           0.8,
				Description:     fmt.Sprintf("Mostly complete: missing %d sections", len(missing)),
				Issues:          []string{"Missing sections: " + list},
				Recommendations: []string{"Add missing sections: " + list},
			}
		default:
			return Evaluation{
				Score:           0.5,
				Description:     fmt.Sprintf("Incomplete analysis: missing %d sections", len(missing)),
				Issues:          []string{"Multiple missing sections: " + list},
				Recommendations: []string{"Complete all required analysis sections"},
			}
		}
	}}
}

// RequestRelevance scores how clearly the request text targets the domain.
// Two or more keywords score 0.9, one 0.7, none 0.4.
func RequestRelevance(weight float64, label string, keywords []string) Dimension {
	return Dimension{Name: Relevance, Weight: weight, Score: func(c quality.Content) Evaluation {
		n := countKeywords(c.RequestText, keywords)
		switch {
		case n >= 2:
			return Evaluation{Score: 0.9, Description: "Highly relevant: request clearly " + label + "-focused"}
		case n >= 1:
			return Evaluation{
				Score:           0.7,
				Description:     "Moderately relevant: some " + label + " aspects in request",
				Issues:          []string{"Request could be more " + label + "-specific"},
				Recommendations: []string{"Clarify " + label + "-specific requirements"},
			}
		default:
			return Evaluation{
				Score:           0.4,
				Description:     "Low relevance: request not clearly " + label + "-focused",
				Issues:          []string{"Request lacks " + label + "-specific context"},
				Recommendations: []string{"Provide more " + label + "-specific context in request"},
			}
		}
	}}
}

// SavingsConsistency checks that the savings estimate is echoed by the
// expected outcomes.
func SavingsConsistency(weight float64) Dimension {
	return Dimension{Name: Consistency, Weight: weight, Score: func(c quality.Content) Evaluation {
		estimate := c.Value(analysis.FieldEstimatedSavings) != ""
		mentioned := false
		for _, o := range c.List(analysis.FieldExpectedOutcomes) {
			lo := strings.ToLower(o)
			if strings.Contains(lo, "reduction") || strings.Contains(lo, "%") || strings.Contains(lo, "saving") {
				mentioned = true
				break
			}
		}
		switch {
		case estimate && mentioned:
			return Evaluation{Score: 0.9, Description: "Consistent savings estimates across analysis"}
		case estimate || mentioned:
			return Evaluation{
				Score:           0.7,
				Description:     "Partial savings consistency",
				Issues:          []string{"Savings estimates not consistently mentioned"},
				Recommendations: []string{"Ensure savings estimates are consistent throughout"},
			}
		default:
			return Evaluation{
				Score:           0.5,
				Description:     "No consistent savings estimates found",
				Issues:          []string{"No savings estimates provided"},
				Recommendations: []string{"Include consistent savings estimates"},
			}
		}
	}}
}

// StepClarity scores whether priority actions and a timeline are given.
func StepClarity(weight float64) Dimension {
	return Dimension{Name: Clarity, Weight: weight, Score: func(c quality.Content) Evaluation {
		actions := len(c.List(analysis.FieldPriorityActions))
		timeline := c.Value(analysis.FieldTimeline) != ""
		switch {
		case actions >= 2 && timeline:
			return Evaluation{Score: 0.9, Description: "Clear priority actions and timeline provided"}
		case actions >= 1:
			return Evaluation{
				Score:           0.7,
				Description:     "Some priority actions provided",
				Issues:          []string{"Limited implementation guidance"},
				Recommendations: []string{"Provide more detailed priority actions and timeline"},
			}
		default:
			return Evaluation{
				Score:           0.4,
				Description:     "No clear priority actions",
				Issues:          []string{"No implementation guidance provided"},
				Recommendations: []string{"Include clear priority actions and timeline"},
			}
		}
	}}
}

// ActionableItems scores the number of concrete recommendations across the
// named sections. Four or more score 0.9, two or more 0.7, otherwise 0.4.
func ActionableItems(weight float64, sections ...string) Dimension {
	return Dimension{Name: Actionability, Weight: weight, Score: func(c quality.Content) Evaluation {
		n := len(c.Items(sections...))
		switch {
		case n >= 4:
			return Evaluation{Score: 0.9, Description: fmt.Sprintf("Highly actionable: %d specific recommendations", n)}
		case n >= 2:
			return Evaluation{
				Score:           0.7,
				Description:     fmt.Sprintf("Somewhat actionable: %d recommendations", n),
				Issues:          []string{"Limited actionable recommendations"},
				Recommendations: []string{"Provide more specific actionable recommendations"},
			}
		default:
			return Evaluation{
				Score:           0.4,
				Description:     "Not actionable: no specific recommendations",
				Issues:          []string{"No actionable recommendations provided"},
				Recommendations: []string{"Include specific actionable recommendations"},
			}
		}
	}}
}

// Tiers are the response time bounds for the timeliness dimension.
type Tiers struct {
	Excellent, Good, Satisfactory, NeedsImprovement time.Duration
}

// DefaultTiers returns the 5s/15s/30s/60s bounds.
func DefaultTiers() Tiers {
	return Tiers{Excellent: 5 * time.Second, Good: 15 * time.Second, Satisfactory: 30 * time.Second, NeedsImprovement: time.Minute}
}

// ResponseTime scores the content's elapsed processing time against t.
func ResponseTime(weight float64, t Tiers) Dimension {
	return Dimension{Name: Timeliness, Weight: weight, Score: func(c quality.Content) Evaluation {
		d := c.Elapsed
		secs := d.Seconds()
		var ev Evaluation
		switch {
		case d <= t.Excellent:
			ev = Evaluation{Score: 1.0, Description: fmt.Sprintf("Excellent response time: %.2fs", secs)}
		case d <= t.Good:
			ev = Evaluation{Score: 0.8, Description: fmt.Sprintf("Good response time: %.2fs", secs)}
		case d <= t.Satisfactory:
			ev = Evaluation{Score: 0.6, Description: fmt.Sprintf("Satisfactory response time: %.2fs", secs)}
		case d <= t.NeedsImprovement:
			ev = Evaluation{Score: 0.4, Description: fmt.Sprintf("Response time needs improvement: %.2fs", secs)}
		default:
			ev = Evaluation{Score: 0.2, Description: fmt.Sprintf("Poor response time: %.2fs", secs)}
		}
		if d > t.Good {
			ev.Issues = []string{fmt.Sprintf("Response time (%.2fs) exceeds optimal threshold", secs)}
			ev.Recommendations = []string{"Optimize processing to reduce response time"}
		}
		return ev
	}}
}

// SpecialistRubric builds the standard seven-dimension rubric used by the
// domain specialists: accuracy .30, completeness .20, relevance .20,
// timeliness .10, consistency .10, clarity .05, actionability .05.
// analysisType is the analysis a result must declare to be scored on its
// content for accuracy.
func SpecialistRubric(name, label, analysisType string, keywords, sections, actionable []string) Rubric {
	return Rubric{
		Name:     name,
		Required: []string{analysis.FieldKeyIssues, analysis.FieldRecommendations},
		Dimensions: []Dimension{
			KeywordAccuracy(0.30, label, analysisType, keywords),
			SectionCompleteness(0.20, sections...),
			RequestRelevance(0.20, label, keywords),
			ResponseTime(0.10, DefaultTiers()),
			SavingsConsistency(0.10),
			StepClarity(0.05),
			ActionableItems(0.05, actionable...),
		},
	}
}

// SynthesisRubricName is the rubric name used for threshold and weight overrides.
const SynthesisRubricName = "synthesis"

// SynthesisRubric returns the rubric applied to the merged answer: accuracy
// .25, completeness .25, relevance .20, consistency .15, clarity .10,
// actionability .05, with a 0.7 threshold.
func SynthesisRubric() Rubric {
	return Rubric{
		Name:      SynthesisRubricName,
		Threshold: 0.7,
		Required:  []string{response.FieldSummary, response.FieldRecommendations, response.FieldDomains},
		Dimensions: []Dimension{
			{Name: Accuracy, Weight: 0.25, Score: synthesisAccuracy},
			{Name: Completeness, Weight: 0.25, Score: synthesisCompleteness},
			{Name: Relevance, Weight: 0.20, Score: synthesisRelevance},
			{Name: Consistency, Weight: 0.15, Score: crossDomainConsistency},
			{Name: Clarity, Weight: 0.10, Score: summaryClarity},
			{Name: Actionability, Weight: 0.05, Score: synthesisActionability},
		},
	}
}

func synthesisAccuracy(c quality.Content) Evaluation {
	ev := Evaluation{Score: 0.8, Description: "Synthesis accuracy assessment"}
	if len(c.List(response.FieldDomains)) == 0 {
		ev.Score -= 0.3
		ev.Issues = append(ev.Issues, "No specialist results available for synthesis")
	}
	if failed := len(c.List(response.FieldFailed)); failed > 0 {
		ev.Score -= 0.2 * float64(failed)
		ev.Issues = append(ev.Issues, fmt.Sprintf("%d specialist(s) failed during processing", failed))
	}
	if ev.Score < 0.5 {
		ev.Recommendations = append(ev.Recommendations, "Review specialist configuration and retry processing")
	}
	return ev
}

func synthesisCompleteness(c quality.Content) Evaluation {
	ev := Evaluation{Score: 0.9, Description: "Synthesis completeness assessment"}
	check := func(present bool, field string) {
		if !present {
			ev.Score -= 0.2
			ev.Issues = append(ev.Issues, "Missing or empty "+field+" in synthesis")
		}
	}
	check(c.Value(response.FieldSummary) != "", "summary")
	check(len(c.List(response.FieldDomains)) > 0, "insights")
	check(len(c.List(response.FieldRecommendations)) > 0, "recommendations")
	if ev.Score < 0.6 {
		ev.Recommendations = append(ev.Recommendations, "Ensure all synthesis components are generated")
	}
	return ev
}

func synthesisRelevance(c quality.Content) Evaluation {
	ev := Evaluation{Score: 0.85, Description: "Synthesis relevance assessment"}
	summary := strings.ToLower(c.Value(response.FieldSummary))
	if c.RequestType != "" && !strings.Contains(summary, strings.ToLower(c.RequestType)) {
		ev.Score -= 0.2
		ev.Issues = append(ev.Issues, "Synthesis may not directly address the request type")
	}
	return ev
}

func crossDomainConsistency(c quality.Content) Evaluation {
	ev := Evaluation{Score: 0.8, Description: "Cross-domain consistency assessment"}
	seen := make(map[string]bool)
	for _, r := range c.List(response.FieldRecommendations) {
		k := NormalizeText(r)
		if seen[k] {
			ev.Score -= 0.1
			ev.Issues = append(ev.Issues, "Some recommendations are redundant across specialists")
			break
		}
		seen[k] = true
	}
	return ev
}

func summaryClarity(c quality.Content) Evaluation {
	ev := Evaluation{Score: 0.85, Description: "Synthesis clarity assessment"}
	if len(c.Value(response.FieldSummary)) < 50 {
		ev.Score -= 0.2
		ev.Issues = append(ev.Issues, "Synthesis summary may be too brief")
		ev.Recommendations = append(ev.Recommendations, "Provide a more detailed synthesis summary")
	}
	return ev
}

func synthesisActionability(c quality.Content) Evaluation {
	ev := Evaluation{Score: 0.8, Description: "Synthesis actionability assessment"}
	if len(c.List(response.FieldRecommendations)) == 0 {
		ev.Score -= 0.3
		ev.Issues = append(ev.Issues, "No actionable recommendations provided")
		ev.Recommendations = append(ev.Recommendations, "Include specific, actionable recommendations")
	}
	return ev
}
