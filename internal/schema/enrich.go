package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"boundary/internal/analysis"
	"boundary/internal/llm"
)

const llmConfidence = 0.7

type llmEntity struct {
	Name   string `json:"name"`
	Fields []struct {
		Name string `json:"name"`
		Type string `json:"type"`
	} `json:"fields"`
}

type llmAction struct {
	Name string `json:"name"`
	Type string `json:"type"` // command, query, event
}

type llmExtraction struct {
	Entities []llmEntity `json:"entities"`
	Actions  []llmAction `json:"actions"`
}

// enrich asks the language model to independently extract entities and
// actions from the same patterns, then merges by name: missing items
// are added outright, richer field lists replace the heuristic's for
// matching entities, and confidence takes the max of both. Every
// failure mode is swallowed; the heuristic result always stands.
func (s *Synthesizer) enrich(ctx context.Context, domain analysis.DomainSummary, patterns []analysis.DetectedPattern, entities []minedEntity, actions []minedAction) ([]minedEntity, []minedAction) {
	prompt, err := buildExtractionPrompt(domain, patterns)
	if err != nil {
		slog.Debug("llm enrichment skipped", "domain", domain.Name, "error", err)
		return entities, actions
	}

	raw, err := s.svc.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}}, s.opts)
	if err != nil {
		slog.Warn("llm enrichment call failed, heuristic result stands", "domain", domain.Name, "error", err)
		return entities, actions
	}

	extraction, err := parseExtraction(raw)
	if err != nil {
		slog.Warn("llm enrichment response unparseable, heuristic result stands", "domain", domain.Name, "error", err)
		return entities, actions
	}

	return mergeLLMEntities(entities, extraction.Entities), mergeLLMActions(actions, extraction.Actions)
}

func buildExtractionPrompt(domain analysis.DomainSummary, patterns []analysis.DetectedPattern) (string, error) {
	encoded, err := json.MarshalIndent(patterns, "", "  ")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`You are analyzing the %q domain of a component-based UI codebase.
From the detected patterns below, extract the domain's entities and actions.

Respond with JSON only, in this shape:
{"entities":[{"name":"User","fields":[{"name":"id","type":"string"}]}],"actions":[{"name":"loginSuccess","type":"event"}]}

Action types must be one of: command, query, event.

Detected patterns:
%s`, domain.Name, encoded), nil
}

// parseExtraction tolerates fenced responses and leading prose by
// trimming code fences and slicing from the first brace to the last.
func parseExtraction(raw string) (*llmExtraction, error) {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	}
	open := strings.Index(cleaned, "{")
	close := strings.LastIndex(cleaned, "}")
	if open == -1 || close <= open {
		return nil, fmt.Errorf("no JSON object in response")
	}

	var out llmExtraction
	if err := json.Unmarshal([]byte(cleaned[open:close+1]), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func mergeLLMEntities(entities []minedEntity, fromLLM []llmEntity) []minedEntity {
	index := make(map[string]int, len(entities))
	for i, e := range entities {
		index[strings.ToLower(e.Name)] = i
	}

	for _, le := range fromLLM {
		if le.Name == "" {
			continue
		}
		var fields []minedField
		for _, f := range le.Fields {
			if f.Name != "" {
				fields = append(fields, minedField{Name: f.Name, Type: f.Type, Description: "extracted by language model"})
			}
		}

		idx, ok := index[strings.ToLower(le.Name)]
		if !ok {
			if len(fields) == 0 {
				continue
			}
			index[strings.ToLower(le.Name)] = len(entities)
			entities = append(entities, minedEntity{
				Name:       upperCamel(le.Name),
				Fields:     fields,
				Confidence: llmConfidence,
				Source:     analysis.FieldFromLLM,
			})
			continue
		}

		keeper := &entities[idx]
		if len(fields) > len(keeper.Fields) {
			keeper.Fields = fields
			keeper.Source = analysis.FieldFromLLM
		}
		if llmConfidence > keeper.Confidence {
			keeper.Confidence = llmConfidence
		}
	}
	return entities
}

func mergeLLMActions(actions []minedAction, fromLLM []llmAction) []minedAction {
	index := make(map[string]int, len(actions))
	for i, a := range actions {
		index[strings.ToLower(a.Name)] = i
	}

	for _, la := range fromLLM {
		if la.Name == "" {
			continue
		}
		kind := la.Type
		switch kind {
		case "command", "query", "event":
		default:
			kind = "command"
		}

		idx, ok := index[strings.ToLower(la.Name)]
		if !ok {
			index[strings.ToLower(la.Name)] = len(actions)
			actions = append(actions, minedAction{
				Name:       lowerCamel(la.Name),
				Kind:       kind,
				Confidence: llmConfidence,
				Source:     analysis.FieldFromLLM,
			})
			continue
		}
		if llmConfidence > actions[idx].Confidence {
			actions[idx].Confidence = llmConfidence
		}
	}
	return actions
}
