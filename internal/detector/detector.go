// Package detector is the upstream pattern detector: it walks a
// component-based UI codebase, parses JS/TS sources with tree-sitter,
// and emits one FileAnalysis per file. The discovery pipeline consumes
// its output and never touches the filesystem itself.
package detector

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"boundary/internal/analysis"
)

type Detector struct {
	excludeDirs  []glob.Glob
	excludeFiles []glob.Glob
	languages    map[string]*sitter.Language
}

func New(excludeDirs, excludeFiles []glob.Glob) *Detector {
	return &Detector{
		excludeDirs:  excludeDirs,
		excludeFiles: excludeFiles,
		languages: map[string]*sitter.Language{
			".js":  sitter.NewLanguage(tree_sitter_javascript.Language()),
			".jsx": sitter.NewLanguage(tree_sitter_javascript.Language()),
			".mjs": sitter.NewLanguage(tree_sitter_javascript.Language()),
			".cjs": sitter.NewLanguage(tree_sitter_javascript.Language()),
			".ts":  sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
			".tsx": sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		},
	}
}

// Scan walks root and analyzes every supported source file. Files that
// fail to parse are logged and skipped; a scan only errors when the
// walk itself does. Relative paths always use forward slashes.
func (d *Detector) Scan(root string) ([]analysis.FileAnalysis, error) {
	var out []analysis.FileAnalysis

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() {
			if path != root && d.matchesAny(d.excludeDirs, name) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.matchesAny(d.excludeFiles, name) {
			return nil
		}
		if _, ok := d.languages[strings.ToLower(filepath.Ext(name))]; !ok {
			return nil
		}

		fa, err := d.AnalyzeFile(root, path)
		if err != nil {
			slog.Warn("failed to analyze file", "path", path, "error", err)
			return nil
		}
		out = append(out, *fa)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %q: %w", root, err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].RelativePath < out[j].RelativePath })
	return out, nil
}

// AnalyzeFile parses one source file and extracts its imports, exports
// and implementation patterns.
func (d *Detector) AnalyzeFile(root, path string) (*analysis.FileAnalysis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lang := d.languages[strings.ToLower(filepath.Ext(path))]
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(lang); err != nil {
		return nil, err
	}

	tree := parser.Parse(content, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse failed: %s", path)
	}
	defer tree.Close()

	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}

	ex := newExtraction(filepath.ToSlash(rel), content)
	ex.walk(tree.RootNode())
	ex.finish()

	fa := ex.file
	fa.Path = path
	fa.LineCount = strings.Count(string(content), "\n") + 1
	return fa, nil
}

func (d *Detector) matchesAny(globs []glob.Glob, name string) bool {
	for _, g := range globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}
