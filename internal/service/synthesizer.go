package service

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Strob0t/Principal/internal/assess"
	"github.com/Strob0t/Principal/internal/domain"
	"github.com/Strob0t/Principal/internal/domain/analysis"
	"github.com/Strob0t/Principal/internal/domain/quality"
	"github.com/Strob0t/Principal/internal/domain/request"
	"github.com/Strob0t/Principal/internal/domain/response"
)

// Synthesizer merges approved specialist results into one payload. It is
// stateless and safe for concurrent use.
type Synthesizer struct{}

// source is one candidate occurrence of a recommendation or issue.
type source struct {
	text     string
	domain   string
	priority request.Priority
	score    float64
}

// outranks reports whether a should be kept over b: higher priority first,
// then higher quality score, then the lexically smaller domain.
func (a source) outranks(b source) bool {
	if ra, rb := a.priority.Rank(), b.priority.Rank(); ra != rb {
		return ra > rb
	}
	if a.score != b.score {
		return a.score > b.score
	}
	return a.domain < b.domain
}

// group collects every source sharing one normalized key.
type group struct {
	best   source
	others []string
}

// Synthesize merges approved results. reports holds the report of every
// scored domain, approved or not, and supplies the tie-break score; failed
// lists the dispatched domains that produced no result. An empty approved
// set returns domain.ErrSynthesisEmpty.
func (Synthesizer) Synthesize(req *request.Request, approved map[string]*analysis.Result, reports map[string]*quality.Report, failed []string) (*response.Synthesis, error) {
	if len(approved) == 0 {
		return nil, domain.ErrSynthesisEmpty
	}

	domains := make([]string, 0, len(approved))
	for d := range approved {
		domains = append(domains, d)
	}
	slices.Sort(domains)

	syn := &response.Synthesis{
		RequestType:       req.Type,
		Domains:           domains,
		Insights:          make(map[string]response.DomainInsight, len(domains)),
		OverallPriority:   request.PriorityLow,
		ExpertCount:       max(len(domains), len(reports)) + len(failed),
		SuccessfulExperts: len(domains),
		FailedExperts:     slices.Sorted(slices.Values(failed)),
	}

	var recs, issues []source
	for _, d := range domains {
		res := approved[d]
		var score float64
		if rep := reports[d]; rep != nil {
			score = rep.OverallScore
		}
		prio := res.Priority
		if prio.Rank() == 0 {
			prio = request.PriorityMedium
		}
		if prio.Rank() > syn.OverallPriority.Rank() {
			syn.OverallPriority = prio
		}
		for _, t := range res.Recommendations {
			recs = append(recs, source{text: t, domain: d, priority: prio, score: score})
		}
		for _, t := range res.KeyIssues {
			issues = append(issues, source{text: t, domain: d, priority: prio, score: score})
		}
		syn.Insights[d] = response.DomainInsight{
			AnalysisType:     res.AnalysisType,
			Priority:         prio,
			QualityScore:     score,
			EstimatedSavings: res.EstimatedSavings,
			Timeline:         res.ImplementationTimeline,
			PriorityActions:  slices.Clone(res.PriorityActions),
			ExpectedOutcomes: slices.Clone(res.ExpectedOutcomes),
		}
	}

	var merged int
	syn.Recommendations, merged = dedupe(recs)
	syn.DuplicatesMerged += merged
	syn.KeyIssues, merged = dedupe(issues)
	syn.DuplicatesMerged += merged

	syn.Summary = summary(syn)
	return syn, nil
}

// dedupe merges sources whose normalized text matches. Groups keep the order
// in which their key first appeared. It returns the merged items and how many
// sources were folded into another.
func dedupe(sources []source) ([]response.AttributedItem, int) {
	var (
		order  []string
		groups = make(map[string]*group)
		merged int
	)
	for _, s := range sources {
		key := assess.NormalizeText(s.text)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			groups[key] = &group{best: s}
			order = append(order, key)
			continue
		}
		merged++
		loser := s.domain
		if s.outranks(g.best) {
			loser = g.best.domain
			g.best = s
		}
		if loser != g.best.domain && !slices.Contains(g.others, loser) {
			g.others = append(g.others, loser)
		}
	}

	out := make([]response.AttributedItem, 0, len(order))
	for _, key := range order {
		g := groups[key]
		others := slices.DeleteFunc(g.others, func(d string) bool { return d == g.best.domain })
		slices.Sort(others)
		out = append(out, response.AttributedItem{
			Text:     g.best.text,
			Domain:   g.best.domain,
			Priority: g.best.priority,
			AlsoFrom: others,
		})
	}
	return out, merged
}

func summary(s *response.Synthesis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Synthesis for %s request from %d of %d specialist(s) (%s): ",
		s.RequestType, s.SuccessfulExperts, s.ExpertCount, strings.Join(s.Domains, ", "))
	fmt.Fprintf(&b, "%d recommendation(s) and %d key issue(s), overall priority %s.",
		len(s.Recommendations), len(s.KeyIssues), s.OverallPriority)
	if s.DuplicatesMerged > 0 {
		fmt.Fprintf(&b, " %d overlapping item(s) merged across domains.", s.DuplicatesMerged)
	}
	if len(s.FailedExperts) > 0 {
		fmt.Fprintf(&b, " Not included: %s.", strings.Join(s.FailedExperts, ", "))
	}
	return b.String()
}
