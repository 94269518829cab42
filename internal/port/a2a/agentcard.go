package a2a

import (
	"slices"
	"strings"

	"github.com/Strob0t/Principal/internal/domain/request"
	"github.com/Strob0t/Principal/internal/port/specialist"
)

// Version is advertised in the agent card.
const Version = "0.1.0"

// BuildAgentCard returns the AgentCard for a principal named name. Each
// registered specialist becomes a skill keyed by its request type, plus the
// "general" skill that fans out to all of them.
func BuildAgentCard(name, baseURL string, members []specialist.Member) AgentCard {
	skills := make([]Skill, 0, len(members)+1)
	for _, m := range members {
		skills = append(skills, Skill{
			ID:          string(m.RequestType),
			Name:        titleCase(m.Name) + " Analysis",
			Description: "Analyze a " + strings.ReplaceAll(string(m.RequestType), "_", " ") + " request with the " + m.Name + " specialist",
			InputModes:  []string{"text", "data"},
			OutputModes: []string{"data"},
		})
	}
	slices.SortFunc(skills, func(a, b Skill) int { return strings.Compare(a.ID, b.ID) })
	if len(members) > 0 {
		skills = append(skills, Skill{
			ID:          string(request.TypeGeneral),
			Name:        "General Analysis",
			Description: "Consult every specialist and synthesize a combined report",
			InputModes:  []string{"text", "data"},
			OutputModes: []string{"data"},
		})
	}

	return AgentCard{
		Name:        name,
		Description: "Household principal agent: routes requests to specialists, gates quality and publishes a synthesized response",
		URL:         baseURL,
		Version:     Version,
		Skills:      skills,
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
