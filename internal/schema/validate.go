package schema

import (
	"fmt"
	"strings"

	"boundary/internal/analysis"
)

// ValidationResult is how structural failures surface: a value the
// caller can hold for review, never a thrown error.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// ValidateSchemaProposal rejects a proposal when any path escapes the
// domain namespace, two paths collide, or the proposal is entirely
// empty.
func ValidateSchemaProposal(p *analysis.SchemaProposal) ValidationResult {
	var errs []string

	fields := p.Fields()
	if len(fields) == 0 {
		errs = append(errs, "proposal has no entities, state fields or intents")
	}

	prefix := p.DomainName + "."
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !strings.HasPrefix(f.Path, prefix) {
			errs = append(errs, fmt.Sprintf("path %q does not start with %q", f.Path, prefix))
		}
		if seen[f.Path] {
			errs = append(errs, fmt.Sprintf("duplicate path %q", f.Path))
		}
		seen[f.Path] = true
	}

	return ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// MergeSchemaProposals unions proposals for one domain: the
// highest-confidence field wins each path, review notes union, and
// needsReview is the OR across inputs. An empty merge set is a
// structural failure, reported in the result rather than thrown.
func MergeSchemaProposals(proposals []analysis.SchemaProposal) (*analysis.SchemaProposal, ValidationResult) {
	if len(proposals) == 0 {
		return nil, ValidationResult{Valid: false, Errors: []string{"no proposals to merge"}}
	}
	domain := proposals[0].DomainName
	for _, p := range proposals[1:] {
		if p.DomainName != domain {
			return nil, ValidationResult{Valid: false, Errors: []string{
				fmt.Sprintf("cannot merge proposals across domains %q and %q", domain, p.DomainName),
			}}
		}
	}

	merged := analysis.SchemaProposal{
		ID:         proposals[0].ID,
		DomainID:   proposals[0].DomainID,
		DomainName: domain,
	}

	mergeSection := func(pick func(p *analysis.SchemaProposal) []analysis.SchemaFieldProposal) []analysis.SchemaFieldProposal {
		byPath := make(map[string]int)
		var out []analysis.SchemaFieldProposal
		for i := range proposals {
			for _, f := range pick(&proposals[i]) {
				idx, ok := byPath[f.Path]
				if !ok {
					byPath[f.Path] = len(out)
					out = append(out, f)
					continue
				}
				if f.Confidence > out[idx].Confidence {
					out[idx] = f
				}
			}
		}
		return out
	}

	merged.Entities = mergeSection(func(p *analysis.SchemaProposal) []analysis.SchemaFieldProposal { return p.Entities })
	merged.State = mergeSection(func(p *analysis.SchemaProposal) []analysis.SchemaFieldProposal { return p.State })
	merged.Intents = mergeSection(func(p *analysis.SchemaProposal) []analysis.SchemaFieldProposal { return p.Intents })

	noteSeen := make(map[string]bool)
	for _, p := range proposals {
		merged.NeedsReview = merged.NeedsReview || p.NeedsReview
		for _, n := range p.ReviewNotes {
			if !noteSeen[n] {
				noteSeen[n] = true
				merged.ReviewNotes = append(merged.ReviewNotes, n)
			}
		}
		for _, a := range p.Alternatives {
			merged.Alternatives = append(merged.Alternatives, a)
		}
	}

	fields := merged.Fields()
	if len(fields) > 0 {
		sum := 0.0
		for _, f := range fields {
			sum += f.Confidence
		}
		merged.Confidence = sum / float64(len(fields))
	}

	return &merged, ValidateSchemaProposal(&merged)
}
