package quality

import "time"

// Content kinds.
const (
	KindAnalysis  = "analysis"
	KindSynthesis = "synthesis"
)

// Content is the structured view of an artifact that rubric dimensions score.
// Lists hold itemized sections such as key_issues, Values hold scalar fields
// such as estimated_savings. AnalysisType is the kind of analysis the
// producer declares, e.g. financial_health.
type Content struct {
	Kind         string              `json:"kind"`
	Subject      string              `json:"subject"`
	AnalysisType string              `json:"analysis_type,omitempty"`
	RequestType  string              `json:"request_type"`
	RequestText  string              `json:"request_text"`
	Lists        map[string][]string `json:"lists"`
	Values       map[string]string   `json:"values"`
	Elapsed      time.Duration       `json:"elapsed"`
}

// List returns the named list or nil.
func (c Content) List(name string) []string { return c.Lists[name] }

// Value returns the named scalar or "".
func (c Content) Value(name string) string { return c.Values[name] }

// Has reports whether a field with the given name is present, regardless
// of whether it is empty.
func (c Content) Has(name string) bool {
	if _, ok := c.Lists[name]; ok {
		return true
	}
	_, ok := c.Values[name]
	return ok
}

// Items returns the concatenation of the named lists.
func (c Content) Items(names ...string) []string {
	var out []string
	for _, n := range names {
		out = append(out, c.Lists[n]...)
	}
	return out
}

// AllItems returns every list item, in no particular order.
func (c Content) AllItems() []string {
	var out []string
	for _, l := range c.Lists {
		out = append(out, l...)
	}
	return out
}
