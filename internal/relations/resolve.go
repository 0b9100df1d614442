package relations

import (
	"sort"

	"boundary/internal/analysis"
	"boundary/internal/apperr"
)

// Resolution is a chosen action for one conflict, either picked from
// the conflict's suggestions or supplied by the reviewer.
type Resolution struct {
	ConflictID string
	Action     string // merge_domains, reassign_file, rename_domain, anything else just clears
	Target     string // action dependent: surviving domain id, or new name
	NewName    string // rename_domain only
}

// ApplyResolution reshapes the summaries per the chosen action and
// removes the conflict record. Unknown actions still remove the
// record: resolving always deletes, repair is the optional part.
func ApplyResolution(domains []analysis.DomainSummary, conflicts []analysis.DomainConflict, res Resolution) ([]analysis.DomainSummary, []analysis.DomainConflict, error) {
	var conflict *analysis.DomainConflict
	remaining := make([]analysis.DomainConflict, 0, len(conflicts))
	for i := range conflicts {
		if conflicts[i].ID == res.ConflictID {
			c := conflicts[i]
			conflict = &c
			continue
		}
		remaining = append(remaining, conflicts[i])
	}
	if conflict == nil {
		return domains, conflicts, apperr.Newf(apperr.CodeNotFound, "conflict %s not found", res.ConflictID)
	}

	switch res.Action {
	case "merge_domains":
		domains = mergeDomains(domains, conflict.Domains, res.Target)
	case "reassign_file":
		domains = reassignFile(domains, conflict.File, res.Target)
	case "rename_domain":
		for i := range domains {
			if domains[i].ID == res.Target && res.NewName != "" {
				domains[i].Name = analysis.HyphenName(res.NewName)
			}
		}
	}
	return domains, remaining, nil
}

// mergeDomains folds the listed domains into the survivor: files,
// entities and actions union, confidence max.
func mergeDomains(domains []analysis.DomainSummary, ids []string, survivorID string) []analysis.DomainSummary {
	members := make(map[string]bool, len(ids))
	for _, id := range ids {
		members[id] = true
	}
	if survivorID == "" || !members[survivorID] {
		survivorID = ids[0]
	}

	var survivor *analysis.DomainSummary
	for i := range domains {
		if domains[i].ID == survivorID {
			survivor = &domains[i]
			break
		}
	}
	if survivor == nil {
		return domains
	}

	files := toSet(survivor.SourceFiles)
	entities := toSet(survivor.Entities)
	actions := toSet(survivor.Actions)

	out := make([]analysis.DomainSummary, 0, len(domains))
	for _, d := range domains {
		if d.ID == survivorID || !members[d.ID] {
			if d.ID != survivorID {
				out = append(out, d)
			}
			continue
		}
		for _, f := range d.SourceFiles {
			files[f] = true
		}
		for _, e := range d.Entities {
			entities[e] = true
		}
		for _, a := range d.Actions {
			actions[a] = true
		}
		if d.Confidence > survivor.Confidence {
			survivor.Confidence = d.Confidence
		}
	}

	survivor.SourceFiles = fromSet(files)
	survivor.Entities = fromSet(entities)
	survivor.Actions = fromSet(actions)
	out = append(out, *survivor)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// reassignFile keeps the file in the target domain only. The filtered
// file lists are fresh slices; the caller's backing arrays are never
// rewritten.
func reassignFile(domains []analysis.DomainSummary, file, targetID string) []analysis.DomainSummary {
	if file == "" || targetID == "" {
		return domains
	}
	for i := range domains {
		if domains[i].ID == targetID {
			continue
		}
		kept := make([]string, 0, len(domains[i].SourceFiles))
		for _, f := range domains[i].SourceFiles {
			if f != file {
				kept = append(kept, f)
			}
		}
		domains[i].SourceFiles = kept
	}
	return domains
}

func toSet(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

func fromSet(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
