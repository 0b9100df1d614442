package relations

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"boundary/internal/analysis"
)

// DetectConflicts collects ownership, naming and boundary conflicts
// across summaries, relationships and detected cycles. Conflicts are
// findings, never errors: accumulating them does not halt a run.
func DetectConflicts(domains []analysis.DomainSummary, rels []analysis.DomainRelationship, cycles [][]string) []analysis.DomainConflict {
	var out []analysis.DomainConflict
	out = append(out, ownershipConflicts(domains)...)
	out = append(out, namingConflicts(domains)...)
	out = append(out, couplingConflicts(domains, rels)...)
	out = append(out, cycleConflicts(domains, cycles)...)
	return out
}

// ownershipConflicts: any file claimed by more than one summary.
func ownershipConflicts(domains []analysis.DomainSummary) []analysis.DomainConflict {
	type claim struct {
		ids   []string
		names []string
	}
	claims := make(map[string]*claim)
	for _, d := range domains {
		for _, f := range d.SourceFiles {
			c, ok := claims[f]
			if !ok {
				c = &claim{}
				claims[f] = c
			}
			c.ids = append(c.ids, d.ID)
			c.names = append(c.names, d.Name)
		}
	}

	files := make([]string, 0, len(claims))
	for f := range claims {
		files = append(files, f)
	}
	sort.Strings(files)

	var out []analysis.DomainConflict
	for _, f := range files {
		c := claims[f]
		if len(c.ids) < 2 {
			continue
		}
		var resolutions []analysis.SuggestedResolution
		for i, id := range c.ids {
			resolutions = append(resolutions, analysis.SuggestedResolution{
				Action:      "reassign_file",
				Description: fmt.Sprintf("keep %s in domain %q only", f, c.names[i]),
				Target:      id,
			})
		}
		out = append(out, analysis.DomainConflict{
			ID:                   uuid.NewString(),
			Type:                 analysis.ConflictOwnership,
			Domains:              c.ids,
			File:                 f,
			Description:          fmt.Sprintf("file %s claimed by %d domains: %s", f, len(c.names), strings.Join(c.names, ", ")),
			SuggestedResolutions: resolutions,
		})
	}
	return out
}

// namingConflicts: two summaries whose normalized names collide.
func namingConflicts(domains []analysis.DomainSummary) []analysis.DomainConflict {
	var out []analysis.DomainConflict
	for i := 0; i < len(domains); i++ {
		for j := i + 1; j < len(domains); j++ {
			if analysis.NormalizeName(domains[i].Name) != analysis.NormalizeName(domains[j].Name) {
				continue
			}
			out = append(out, analysis.DomainConflict{
				ID:          uuid.NewString(),
				Type:        analysis.ConflictNaming,
				Domains:     []string{domains[i].ID, domains[j].ID},
				Description: fmt.Sprintf("domains %q and %q normalize to the same name", domains[i].Name, domains[j].Name),
				SuggestedResolutions: []analysis.SuggestedResolution{
					{Action: "merge_domains", Description: "merge the two domains into one", Target: domains[i].ID},
					{Action: "rename_domain", Description: fmt.Sprintf("rename %q to something distinct", domains[j].Name), Target: domains[j].ID},
				},
			})
		}
	}
	return out
}

// couplingConflicts: relationship strength above 0.7 means the
// boundary between the two domains is probably wrong.
func couplingConflicts(domains []analysis.DomainSummary, rels []analysis.DomainRelationship) []analysis.DomainConflict {
	names := nameIndex(domains)
	var out []analysis.DomainConflict
	for _, r := range rels {
		if r.Strength <= strongCoupling {
			continue
		}
		out = append(out, analysis.DomainConflict{
			ID:          uuid.NewString(),
			Type:        analysis.ConflictBoundary,
			Domains:     []string{r.From, r.To},
			Description: fmt.Sprintf("domains %q and %q are strongly coupled (strength %.2f)", names[r.From], names[r.To], r.Strength),
			SuggestedResolutions: []analysis.SuggestedResolution{
				{Action: "merge_domains", Description: "merge the coupled domains", Target: r.From},
				{Action: "acknowledge", Description: "accept the coupling as intentional"},
			},
		})
	}
	return out
}

func cycleConflicts(domains []analysis.DomainSummary, cycles [][]string) []analysis.DomainConflict {
	names := nameIndex(domains)
	var out []analysis.DomainConflict
	for _, cycle := range cycles {
		display := make([]string, len(cycle))
		for i, id := range cycle {
			display[i] = names[id]
		}
		out = append(out, analysis.DomainConflict{
			ID:          uuid.NewString(),
			Type:        analysis.ConflictBoundary,
			Domains:     append([]string(nil), cycle...),
			Description: fmt.Sprintf("cyclic dependency: %s", strings.Join(append(display, display[0]), " -> ")),
			SuggestedResolutions: []analysis.SuggestedResolution{
				{Action: "merge_domains", Description: "merge the cycle members into one domain", Target: cycle[0]},
				{Action: "acknowledge", Description: "accept the cycle and break it manually later"},
			},
		})
	}
	return out
}

func nameIndex(domains []analysis.DomainSummary) map[string]string {
	out := make(map[string]string, len(domains))
	for _, d := range domains {
		out[d.ID] = d.Name
	}
	return out
}
