// Package schema turns a domain summary plus its detected patterns
// into a confidence-scored schema proposal: entities, state fields and
// intents addressed by "<domain>.<section>..." paths. A heuristic
// miner always runs; a language-model pass optionally enriches it and
// fails open.
package schema

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"boundary/internal/analysis"
	"boundary/internal/llm"
)

type Synthesizer struct {
	reviewThreshold float64
	svc             llm.Service // nil disables enrichment
	opts            llm.Options
}

func NewSynthesizer(reviewThreshold float64, svc llm.Service, opts llm.Options) *Synthesizer {
	return &Synthesizer{reviewThreshold: reviewThreshold, svc: svc, opts: opts}
}

type minedField struct {
	Name        string
	Type        string
	Description string
}

type minedEntity struct {
	Name        string
	Fields      []minedField
	Confidence  float64
	Source      analysis.FieldSource
	fromContext bool // context-value shapes double as domain state
}

type minedAction struct {
	Name       string
	Kind       string // command, query, event
	Confidence float64
	Source     analysis.FieldSource
}

// Synthesize builds the proposal for one domain. relatedDomains are
// ids from relationship analysis, reported as a review note.
func (s *Synthesizer) Synthesize(ctx context.Context, domain analysis.DomainSummary, patterns []analysis.DetectedPattern, relatedDomains []string) analysis.SchemaProposal {
	entities := dedupeEntities(mineEntities(patterns))
	actions := dedupeActions(mineActions(patterns))

	if s.svc != nil {
		entities, actions = s.enrich(ctx, domain, patterns, entities, actions)
	}

	p := analysis.SchemaProposal{
		ID:         uuid.NewString(),
		DomainID:   domain.ID,
		DomainName: domain.Name,
	}
	s.flatten(&p, entities, actions)
	s.score(&p, relatedDomains)
	return p
}

// flatten converts mined shapes into path-addressed fields. Paths are
// deduped keeping the highest-confidence claimant, so a field the
// reducer and the context both declare appears once.
func (s *Synthesizer) flatten(p *analysis.SchemaProposal, entities []minedEntity, actions []minedAction) {
	seen := make(map[string]int) // path -> index into the section slice, encoded below

	addField := func(section *[]analysis.SchemaFieldProposal, f analysis.SchemaFieldProposal) {
		if idx, ok := seen[f.Path]; ok {
			if f.Confidence > (*section)[idx].Confidence {
				(*section)[idx] = f
			}
			return
		}
		seen[f.Path] = len(*section)
		*section = append(*section, f)
	}

	for _, e := range entities {
		entityKey := lowerCamel(e.Name)
		for _, f := range e.Fields {
			addField(&p.Entities, analysis.SchemaFieldProposal{
				Path:        fmt.Sprintf("%s.entities.%s.%s", p.DomainName, entityKey, f.Name),
				Type:        f.Type,
				Description: f.Description,
				Source:      e.Source,
				Confidence:  e.Confidence,
			})
		}
	}

	// State mirrors reducer/context shapes at domain level; the path
	// dedupe above cannot help across sections, so dedupe locally.
	seen = make(map[string]int)
	for _, e := range entities {
		if !strings.HasSuffix(e.Name, "State") && !e.fromContext {
			continue
		}
		for _, f := range e.Fields {
			addField(&p.State, analysis.SchemaFieldProposal{
				Path:        fmt.Sprintf("%s.state.%s", p.DomainName, f.Name),
				Type:        f.Type,
				Description: f.Description,
				Source:      e.Source,
				Confidence:  e.Confidence,
			})
		}
	}

	seen = make(map[string]int)
	for _, a := range actions {
		addField(&p.Intents, analysis.SchemaFieldProposal{
			Path:        fmt.Sprintf("%s.intents.%s", p.DomainName, a.Name),
			Type:        a.Kind,
			Description: fmt.Sprintf("%s intent mined from detected patterns", a.Kind),
			Source:      a.Source,
			Confidence:  a.Confidence,
		})
	}
}

func (s *Synthesizer) score(p *analysis.SchemaProposal, relatedDomains []string) {
	fields := p.Fields()
	if len(fields) == 0 {
		p.Confidence = 0
	} else {
		sum := 0.0
		for _, f := range fields {
			sum += f.Confidence
		}
		p.Confidence = sum / float64(len(fields))
	}

	if len(p.Entities) == 0 {
		p.ReviewNotes = append(p.ReviewNotes, "no entities could be mined for this domain")
	}
	if len(p.Intents) == 0 {
		p.ReviewNotes = append(p.ReviewNotes, "no intents could be mined for this domain")
	}
	below := 0
	for _, f := range fields {
		if f.Confidence < s.reviewThreshold {
			below++
		}
	}
	if below > 0 {
		p.ReviewNotes = append(p.ReviewNotes, fmt.Sprintf("%d fields below confidence threshold %.2f", below, s.reviewThreshold))
	}
	if len(relatedDomains) > 0 {
		sorted := append([]string(nil), relatedDomains...)
		sort.Strings(sorted)
		p.ReviewNotes = append(p.ReviewNotes, fmt.Sprintf("related domains: %s", strings.Join(sorted, ", ")))
	}

	p.NeedsReview = p.Confidence < s.reviewThreshold || len(p.ReviewNotes) > 2
}

func lowerCamel(name string) string {
	if name == "" {
		return name
	}
	return strings.ToLower(name[:1]) + name[1:]
}
