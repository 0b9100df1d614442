package schema

import (
	"strings"

	"boundary/internal/analysis"
)

const (
	hookActionDiscount   = 0.7
	effectActionDiscount = 0.8
)

// mineActions extracts intents: reducer action constants, synthetic
// hook queries, and events named after non-trivial effects.
func mineActions(patterns []analysis.DetectedPattern) []minedAction {
	var out []minedAction
	for _, p := range patterns {
		switch p.Type {
		case analysis.PatternReducer:
			for _, constant := range p.Metadata.Actions {
				name := snakeToLowerCamel(constant)
				if name == "" {
					continue
				}
				out = append(out, minedAction{
					Name:       name,
					Kind:       classifyAction(constant),
					Confidence: p.Confidence,
					Source:     analysis.FieldFromHeuristic,
				})
			}

		case analysis.PatternHook:
			if !p.Metadata.IsCustomHook {
				continue
			}
			base := strings.TrimPrefix(p.Name, "use")
			if base == "" || base == p.Name {
				continue
			}
			out = append(out, minedAction{
				Name:       "get" + upperCamel(base),
				Kind:       "query",
				Confidence: p.Confidence * hookActionDiscount,
				Source:     analysis.FieldFromHeuristic,
			})

		case analysis.PatternEffect:
			if p.Confidence < 0.5 || p.Name == "" || p.Name == "useEffect" {
				continue
			}
			out = append(out, minedAction{
				Name:       lowerCamel(p.Name),
				Kind:       "event",
				Confidence: p.Confidence * effectActionDiscount,
				Source:     analysis.FieldFromHeuristic,
			})
		}
	}
	return out
}

// classifyAction types a reducer constant by its vocabulary:
// completion suffixes mean an event happened, retrieval verbs mean a
// query, everything else is a command.
func classifyAction(constant string) string {
	upper := strings.ToUpper(constant)
	switch {
	case strings.Contains(upper, "SUCCESS"), strings.Contains(upper, "FAILURE"), strings.Contains(upper, "ERROR"):
		return "event"
	case strings.Contains(upper, "FETCH"), strings.Contains(upper, "GET"), strings.Contains(upper, "LOAD"):
		return "query"
	default:
		return "command"
	}
}

// snakeToLowerCamel: "LOGIN_SUCCESS" -> "loginSuccess".
func snakeToLowerCamel(constant string) string {
	parts := strings.Split(strings.ToLower(constant), "_")
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(kept[0])
	for _, p := range kept[1:] {
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	return b.String()
}

// dedupeActions keeps one action per lowercase name with the maximum
// confidence.
func dedupeActions(actions []minedAction) []minedAction {
	byName := make(map[string]int)
	var out []minedAction
	for _, a := range actions {
		key := strings.ToLower(a.Name)
		idx, ok := byName[key]
		if !ok {
			byName[key] = len(out)
			out = append(out, a)
			continue
		}
		if a.Confidence > out[idx].Confidence {
			out[idx] = a
		}
	}
	return out
}
