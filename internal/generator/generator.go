// Package generator renders accepted schema proposals to disk: a YAML
// document per domain plus an optional OpenAPI export. Writes are
// backed up first so a bad run can be rolled back.
package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"boundary/internal/analysis"
)

type Generator struct {
	dir string
}

func New(dir string) *Generator {
	return &Generator{dir: dir}
}

// Document is the on-disk shape of one domain schema. Section maps are
// keyed by the path segment after the section name, so the domain
// prefix and section are carried by position, not repeated per field.
type Document struct {
	Domain      string           `yaml:"domain"`
	Confidence  float64          `yaml:"confidence"`
	NeedsReview bool             `yaml:"needsReview,omitempty"`
	Notes       []string         `yaml:"notes,omitempty"`
	Entities    map[string]Field `yaml:"entities,omitempty"`
	State       map[string]Field `yaml:"state,omitempty"`
	Intents     map[string]Field `yaml:"intents,omitempty"`
}

type Field struct {
	Type        string  `yaml:"type"`
	Description string  `yaml:"description,omitempty"`
	Source      string  `yaml:"source"`
	Confidence  float64 `yaml:"confidence"`
}

// WriteAll renders every accepted proposal into dir, one file per
// domain, backing up files it is about to replace. Proposals still
// flagged for review are held back until a reviewer accepts them. On
// any write error the already written files are restored from their
// backups.
func (g *Generator) WriteAll(proposals []analysis.SchemaProposal) (written []string, err error) {
	if err := os.MkdirAll(g.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	backups := make(map[string]string)
	defer func() {
		if err != nil {
			g.rollback(written, backups)
			written = nil
		}
	}()

	for i := range proposals {
		if proposals[i].NeedsReview {
			continue
		}
		path := filepath.Join(g.dir, proposals[i].DomainName+".schema.yaml")
		backup, berr := g.backup(path)
		if berr != nil {
			return written, berr
		}
		if backup != "" {
			backups[path] = backup
		}
		if werr := g.writeDocument(path, &proposals[i]); werr != nil {
			return written, werr
		}
		written = append(written, path)
	}
	return written, nil
}

func (g *Generator) writeDocument(path string, p *analysis.SchemaProposal) error {
	doc := Document{
		Domain:      p.DomainName,
		Confidence:  p.Confidence,
		NeedsReview: p.NeedsReview,
		Notes:       p.ReviewNotes,
		Entities:    sectionMap(p.DomainName, "entities", p.Entities),
		State:       sectionMap(p.DomainName, "state", p.State),
		Intents:     sectionMap(p.DomainName, "intents", p.Intents),
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal schema for %s: %w", p.DomainName, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// backup copies an existing file aside before it is overwritten and
// returns the backup path, or "" when there was nothing to back up.
func (g *Generator) backup(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read existing %s: %w", path, err)
	}
	backup := fmt.Sprintf("%s.%s.bak", path, time.Now().UTC().Format("20060102T150405"))
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return "", fmt.Errorf("back up %s: %w", path, err)
	}
	return backup, nil
}

func (g *Generator) rollback(written []string, backups map[string]string) {
	for _, path := range written {
		if backup, ok := backups[path]; ok {
			if data, err := os.ReadFile(backup); err == nil {
				os.WriteFile(path, data, 0o644)
			}
			continue
		}
		os.Remove(path)
	}
}

// sectionMap strips "<domain>.<section>." from each field path so the
// YAML nesting carries it instead.
func sectionMap(domain, section string, fields []analysis.SchemaFieldProposal) map[string]Field {
	if len(fields) == 0 {
		return nil
	}
	prefix := domain + "." + section + "."
	out := make(map[string]Field, len(fields))
	for _, f := range fields {
		key := strings.TrimPrefix(f.Path, prefix)
		out[key] = Field{
			Type:        f.Type,
			Description: f.Description,
			Source:      string(f.Source),
			Confidence:  f.Confidence,
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
