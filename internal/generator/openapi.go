package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"boundary/internal/analysis"
)

// WriteOpenAPI exports the accepted proposals' entities as component
// schemas of a single OpenAPI document. The document carries no paths; it
// exists so downstream tooling can consume the discovered shapes with
// standard OpenAPI machinery. The document is validated before it is
// written.
func (g *Generator) WriteOpenAPI(ctx context.Context, proposals []analysis.SchemaProposal) (string, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:   "Discovered domain schemas",
			Version: "0.1.0",
		},
		Paths:      openapi3.NewPaths(),
		Components: &openapi3.Components{Schemas: openapi3.Schemas{}},
	}

	for i := range proposals {
		if proposals[i].NeedsReview {
			continue
		}
		addComponentSchemas(doc.Components.Schemas, &proposals[i])
	}
	if len(doc.Components.Schemas) == 0 {
		return "", fmt.Errorf("no accepted entities to export")
	}

	if err := doc.Validate(ctx); err != nil {
		return "", fmt.Errorf("openapi document invalid: %w", err)
	}

	// the openapi3 types only guarantee JSON marshaling, so render
	// JSON first and re-encode as YAML
	jsonData, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshal openapi document: %w", err)
	}
	var tree any
	if err := yaml.Unmarshal(jsonData, &tree); err != nil {
		return "", fmt.Errorf("re-encode openapi document: %w", err)
	}
	data, err := yaml.Marshal(tree)
	if err != nil {
		return "", fmt.Errorf("re-encode openapi document: %w", err)
	}
	path := filepath.Join(g.dir, "openapi.yaml")
	if _, err := g.backup(path); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// addComponentSchemas registers one object schema per entity, named
// "<Domain><Entity>" so domains cannot collide in the shared
// components namespace.
func addComponentSchemas(schemas openapi3.Schemas, p *analysis.SchemaProposal) {
	byEntity := make(map[string]map[string]analysis.SchemaFieldProposal)
	prefix := p.DomainName + ".entities."
	for _, f := range p.Entities {
		rest := strings.TrimPrefix(f.Path, prefix)
		entity, field, ok := strings.Cut(rest, ".")
		if !ok {
			continue
		}
		if byEntity[entity] == nil {
			byEntity[entity] = make(map[string]analysis.SchemaFieldProposal)
		}
		byEntity[entity][field] = f
	}

	for _, entity := range sortedKeys(byEntity) {
		obj := openapi3.NewObjectSchema()
		obj.Description = fmt.Sprintf("Entity mined from the %s domain.", p.DomainName)
		for _, field := range sortedKeys(byEntity[entity]) {
			obj.Properties[field] = fieldSchema(byEntity[entity][field])
		}
		name := exportName(p.DomainName) + exportName(entity)
		schemas[name] = obj.NewRef()
	}
}

func fieldSchema(f analysis.SchemaFieldProposal) *openapi3.SchemaRef {
	var s *openapi3.Schema
	switch f.Type {
	case "string":
		s = openapi3.NewStringSchema()
	case "number":
		s = openapi3.NewFloat64Schema()
	case "boolean":
		s = openapi3.NewBoolSchema()
	case "array":
		s = openapi3.NewArraySchema()
		s.Items = openapi3.NewSchema().NewRef()
	case "object":
		s = openapi3.NewObjectSchema()
	default:
		// unknown or "any": unconstrained schema
		s = openapi3.NewSchema()
	}
	if f.Description != "" {
		s.Description = f.Description
	}
	return s.NewRef()
}

func exportName(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == '-' || r == '_' || r == '.' })
	var b strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
