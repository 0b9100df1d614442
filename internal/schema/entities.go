package schema

import (
	"encoding/json"
	"sort"
	"strings"

	"boundary/internal/analysis"
)

// mineEntities extracts entity shapes from the domain's patterns:
// component prop lists, context value shapes, reducer state shapes and
// explicit structural-type declarations.
func mineEntities(patterns []analysis.DetectedPattern) []minedEntity {
	var out []minedEntity
	for _, p := range patterns {
		switch p.Type {
		case analysis.PatternComponent:
			if len(p.Metadata.Props) == 0 {
				continue
			}
			e := minedEntity{
				Name:       p.Name + "Props",
				Confidence: p.Confidence,
				Source:     analysis.FieldFromHeuristic,
			}
			for _, prop := range p.Metadata.Props {
				e.Fields = append(e.Fields, minedField{
					Name:        prop,
					Type:        "any",
					Description: "optional component prop",
				})
			}
			out = append(out, e)

		case analysis.PatternContext:
			name := p.Metadata.ContextName
			if name == "" {
				name = p.Name
			}
			name = strings.TrimSuffix(strings.TrimSuffix(name, "Provider"), "Context")
			fields := parseValueShape(p.Metadata.ContextValue)
			if name == "" || len(fields) == 0 {
				continue
			}
			out = append(out, minedEntity{
				Name:        upperCamel(name),
				Fields:      fields,
				Confidence:  p.Confidence,
				Source:      analysis.FieldFromHeuristic,
				fromContext: true,
			})

		case analysis.PatternReducer:
			if p.Name == "initialState" || len(p.Metadata.StateShape) == 0 {
				continue
			}
			e := minedEntity{
				Name:       upperCamel(strings.TrimSuffix(p.Name, "Reducer")) + "State",
				Confidence: p.Confidence,
				Source:     analysis.FieldFromHeuristic,
			}
			for _, name := range sortedShapeKeys(p.Metadata.StateShape) {
				e.Fields = append(e.Fields, minedField{
					Name:        name,
					Type:        p.Metadata.StateShape[name],
					Description: "reducer state field",
				})
			}
			out = append(out, e)

		default:
			if !p.Metadata.IsEntity || len(p.Metadata.EntityFields) == 0 {
				continue
			}
			e := minedEntity{
				Name:       upperCamel(p.Name),
				Confidence: p.Confidence,
				Source:     analysis.FieldFromHeuristic,
			}
			for _, name := range sortedShapeKeys(p.Metadata.EntityFields) {
				e.Fields = append(e.Fields, minedField{
					Name: name,
					Type: p.Metadata.EntityFields[name],
				})
			}
			out = append(out, e)
		}
	}
	return out
}

// parseValueShape reads a declared context value. Structured data gets
// the first try; when that fails, a brace-delimited "key: Type" text
// scan runs over whatever the detector captured.
func parseValueShape(raw string) []minedField {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var structured map[string]string
	if err := json.Unmarshal([]byte(raw), &structured); err == nil && len(structured) > 0 {
		out := make([]minedField, 0, len(structured))
		for _, name := range sortedShapeKeys(structured) {
			out = append(out, minedField{Name: name, Type: structured[name], Description: "context value field"})
		}
		return out
	}

	open := strings.Index(raw, "{")
	close := strings.LastIndex(raw, "}")
	if open == -1 || close <= open {
		return nil
	}

	var out []minedField
	for _, part := range splitTopLevel(raw[open+1 : close]) {
		name, typ, ok := strings.Cut(part, ":")
		name = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(name), "?"))
		if !ok || name == "" || strings.ContainsAny(name, "(){}") {
			continue
		}
		out = append(out, minedField{
			Name:        name,
			Type:        strings.TrimSpace(typ),
			Description: "context value field",
		})
	}
	return out
}

// splitTopLevel splits on commas and semicolons outside nested braces,
// so "user: { id: string }, login: Function" keeps the object intact.
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '{', '(', '<':
			depth++
		case '}', ')', '>':
			depth--
		case ',', ';', '\n':
			if depth == 0 {
				if part := strings.TrimSpace(s[start:i]); part != "" {
					parts = append(parts, part)
				}
				start = i + 1
			}
		}
	}
	if part := strings.TrimSpace(s[start:]); part != "" {
		parts = append(parts, part)
	}
	return parts
}

// dedupeEntities keeps one entity per lowercase name: the
// highest-confidence copy, with fields only it is missing merged in.
func dedupeEntities(entities []minedEntity) []minedEntity {
	byName := make(map[string]int)
	var out []minedEntity
	for _, e := range entities {
		key := strings.ToLower(e.Name)
		idx, ok := byName[key]
		if !ok {
			byName[key] = len(out)
			out = append(out, e)
			continue
		}
		keeper := &out[idx]
		if e.Confidence > keeper.Confidence {
			e.Fields, keeper.Fields = mergeFields(e.Fields, keeper.Fields), nil
			e.fromContext = e.fromContext || keeper.fromContext
			*keeper = e
		} else {
			keeper.Fields = mergeFields(keeper.Fields, e.Fields)
			keeper.fromContext = keeper.fromContext || e.fromContext
		}
	}
	return out
}

func mergeFields(keep, extra []minedField) []minedField {
	have := make(map[string]bool, len(keep))
	for _, f := range keep {
		have[strings.ToLower(f.Name)] = true
	}
	for _, f := range extra {
		if !have[strings.ToLower(f.Name)] {
			have[strings.ToLower(f.Name)] = true
			keep = append(keep, f)
		}
	}
	return keep
}

func sortedShapeKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func upperCamel(name string) string {
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
