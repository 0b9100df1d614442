package detector

import (
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"boundary/internal/analysis"
)

// extraction accumulates one file's analysis during the tree walk.
type extraction struct {
	file     *analysis.FileAnalysis
	source   []byte
	contexts []int // indexes into file.Patterns needing provider checks
	reducers []int // indexes into file.Patterns needing a state shape
	// initialState-style object literals found in the file, by name.
	stateShapes map[string]map[string]string
}

func newExtraction(relPath string, source []byte) *extraction {
	return &extraction{
		file: &analysis.FileAnalysis{
			RelativePath: relPath,
			AnalyzedAt:   time.Now().UTC(),
		},
		source:      source,
		stateShapes: make(map[string]map[string]string),
	}
}

func (e *extraction) walk(node *sitter.Node) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "import_statement":
		e.extractImport(node)
	case "export_statement":
		e.extractExport(node)
	case "lexical_declaration", "variable_declaration":
		e.extractDeclaration(node)
	case "function_declaration":
		e.extractFunction(node)
	case "call_expression":
		e.extractCall(node)
	}

	for i := uint(0); i < node.ChildCount(); i++ {
		e.walk(node.Child(i))
	}
}

// finish resolves deferred work: provider usage for contexts and
// initialState shapes for reducers that lacked a typed parameter.
func (e *extraction) finish() {
	text := string(e.source)
	for _, idx := range e.contexts {
		p := &e.file.Patterns[idx]
		name := p.Metadata.ContextName
		if strings.Contains(text, name+".Provider") {
			p.Metadata.HasProvider = true
			p.Confidence = 0.95
		}
	}
	for _, idx := range e.reducers {
		p := &e.file.Patterns[idx]
		if len(p.Metadata.StateShape) == 0 {
			if shape, ok := e.stateShapes["initialState"]; ok {
				p.Metadata.StateShape = shape
			}
		}
	}
}

func (e *extraction) text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(e.source[node.StartByte():node.EndByte()])
}

func (e *extraction) location(node *sitter.Node) analysis.Location {
	return analysis.Location{
		File:   e.file.RelativePath,
		Line:   int(node.StartPosition().Row) + 1,
		Column: int(node.StartPosition().Column) + 1,
	}
}

func (e *extraction) extractImport(node *sitter.Node) {
	source := trimQuotes(e.text(node.ChildByFieldName("source")))
	if source == "" {
		return
	}

	imp := analysis.ImportStatement{
		Source:     source,
		IsTypeOnly: strings.HasPrefix(e.text(node), "import type"),
	}

	var collect func(*sitter.Node)
	collect = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "import_specifier":
			imp.Specifiers = append(imp.Specifiers, strings.TrimSpace(e.text(n)))
			return
		case "namespace_import":
			imp.Specifiers = append(imp.Specifiers, strings.TrimSpace(strings.TrimPrefix(e.text(n), "* as")))
			return
		case "identifier":
			if n.Parent() != nil && n.Parent().Kind() == "import_clause" {
				imp.Specifiers = append(imp.Specifiers, e.text(n))
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			collect(n.Child(i))
		}
	}
	collect(node)

	e.file.Imports = append(e.file.Imports, imp)
}

func (e *extraction) extractExport(node *sitter.Node) {
	// Re-exports contribute an import edge with IsReexport set.
	if source := trimQuotes(e.text(node.ChildByFieldName("source"))); source != "" {
		e.file.Imports = append(e.file.Imports, analysis.ImportStatement{
			Source:     source,
			IsReexport: true,
		})
	}

	var collect func(*sitter.Node)
	collect = func(n *sitter.Node) {
		if n == nil {
			return
		}
		switch n.Kind() {
		case "export_specifier":
			raw := strings.TrimSpace(e.text(n))
			if idx := strings.Index(raw, " as "); idx != -1 {
				raw = strings.TrimSpace(raw[idx+4:])
			}
			e.addExport(raw)
			return
		case "function_declaration", "generator_function_declaration", "class_declaration":
			e.addExport(e.text(n.ChildByFieldName("name")))
			return
		case "variable_declarator":
			e.addExport(e.text(n.ChildByFieldName("name")))
			return
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			collect(n.Child(i))
		}
	}
	collect(node)
}

func (e *extraction) addExport(name string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	for _, existing := range e.file.Exports {
		if existing == name {
			return
		}
	}
	e.file.Exports = append(e.file.Exports, name)
}

// extractDeclaration inspects const/let declarators for the idioms the
// pipeline cares about: createContext containers, arrow-function
// hooks, components and reducers, and initialState object shapes.
func (e *extraction) extractDeclaration(node *sitter.Node) {
	for i := uint(0); i < node.ChildCount(); i++ {
		decl := node.Child(i)
		if decl.Kind() != "variable_declarator" {
			continue
		}
		name := e.text(decl.ChildByFieldName("name"))
		value := decl.ChildByFieldName("value")
		if name == "" || value == nil {
			continue
		}

		switch value.Kind() {
		case "call_expression":
			fn := e.text(value.ChildByFieldName("function"))
			if fn == "createContext" || fn == "React.createContext" {
				e.addContextPattern(name, value)
			}
		case "arrow_function", "function_expression", "function":
			e.classifyFunction(name, value)
		case "object":
			if name == "initialState" || strings.HasSuffix(name, "InitialState") {
				e.stateShapes["initialState"] = e.objectShape(value)
			}
		}
	}
}

func (e *extraction) extractFunction(node *sitter.Node) {
	name := e.text(node.ChildByFieldName("name"))
	if name == "" {
		return
	}
	e.classifyFunction(name, node)
}

// classifyFunction decides whether a named function is a custom hook,
// a reducer or a component, and records the matching pattern.
func (e *extraction) classifyFunction(name string, fn *sitter.Node) {
	switch {
	case isHookName(name):
		e.file.Patterns = append(e.file.Patterns, analysis.DetectedPattern{
			Type:       analysis.PatternHook,
			Name:       name,
			Location:   e.location(fn),
			Confidence: 0.85,
			Metadata:   analysis.PatternMetadata{IsCustomHook: true},
		})

	case looksLikeReducer(name, e.paramCount(fn)):
		idx := len(e.file.Patterns)
		e.file.Patterns = append(e.file.Patterns, analysis.DetectedPattern{
			Type:       analysis.PatternReducer,
			Name:       name,
			Location:   e.location(fn),
			Confidence: 0.9,
			Metadata: analysis.PatternMetadata{
				Actions: e.caseConstants(fn),
			},
		})
		e.reducers = append(e.reducers, idx)

	case isComponentName(name):
		hasJSX := containsKind(fn, "jsx_element", "jsx_self_closing_element", "jsx_fragment")
		confidence := 0.9
		needsReview := false
		if !hasJSX {
			if !containsText(e, fn, "createElement") {
				return
			}
			confidence = 0.7
			needsReview = true
		}
		e.file.Patterns = append(e.file.Patterns, analysis.DetectedPattern{
			Type:        analysis.PatternComponent,
			Name:        name,
			Location:    e.location(fn),
			Confidence:  confidence,
			NeedsReview: needsReview,
			Metadata:    analysis.PatternMetadata{Props: e.propNames(fn)},
		})
	}
}

func (e *extraction) addContextPattern(name string, call *sitter.Node) {
	value := ""
	if args := call.ChildByFieldName("arguments"); args != nil && args.NamedChildCount() > 0 {
		value = e.text(args.NamedChild(0))
	}
	idx := len(e.file.Patterns)
	e.file.Patterns = append(e.file.Patterns, analysis.DetectedPattern{
		Type:       analysis.PatternContext,
		Name:       name,
		Location:   e.location(call),
		Confidence: 0.9,
		Metadata: analysis.PatternMetadata{
			ContextName:  name,
			ContextValue: value,
		},
	})
	e.contexts = append(e.contexts, idx)
}

func (e *extraction) extractCall(node *sitter.Node) {
	fn := e.text(node.ChildByFieldName("function"))
	if fn != "useEffect" && fn != "React.useEffect" {
		return
	}
	name := e.enclosingFunctionName(node)
	confidence := 0.6
	if name == "" {
		name = "useEffect"
		confidence = 0.4
	}
	e.file.Patterns = append(e.file.Patterns, analysis.DetectedPattern{
		Type:        analysis.PatternEffect,
		Name:        name,
		Location:    e.location(node),
		Confidence:  confidence,
		NeedsReview: confidence < 0.5,
	})
}

func (e *extraction) enclosingFunctionName(node *sitter.Node) string {
	for n := node.Parent(); n != nil; n = n.Parent() {
		switch n.Kind() {
		case "function_declaration":
			return e.text(n.ChildByFieldName("name"))
		case "variable_declarator":
			return e.text(n.ChildByFieldName("name"))
		}
	}
	return ""
}

func (e *extraction) paramCount(fn *sitter.Node) int {
	params := fn.ChildByFieldName("parameters")
	if params == nil {
		return 0
	}
	return int(params.NamedChildCount())
}

// propNames reads destructured prop names from the first parameter:
// function LoginForm({ user, onSubmit }) -> [user, onSubmit].
func (e *extraction) propNames(fn *sitter.Node) []string {
	params := fn.ChildByFieldName("parameters")
	if params == nil || params.NamedChildCount() == 0 {
		return nil
	}
	first := params.NamedChild(0)
	if first.Kind() == "required_parameter" && first.NamedChildCount() > 0 {
		first = first.NamedChild(0) // TSX wraps the pattern
	}
	if first.Kind() != "object_pattern" {
		return nil
	}

	var props []string
	for i := uint(0); i < first.NamedChildCount(); i++ {
		child := first.NamedChild(i)
		switch child.Kind() {
		case "shorthand_property_identifier_pattern":
			props = append(props, e.text(child))
		case "pair_pattern":
			props = append(props, e.text(child.ChildByFieldName("key")))
		case "object_assignment_pattern":
			if child.NamedChildCount() > 0 {
				props = append(props, e.text(child.NamedChild(0)))
			}
		}
	}
	return props
}

// caseConstants collects switch-case labels inside a reducer body:
// string literals keep their text, identifiers keep their name.
func (e *extraction) caseConstants(fn *sitter.Node) []string {
	var out []string
	seen := make(map[string]bool)
	var walk func(*sitter.Node)
	walk = func(n *sitter.Node) {
		if n == nil {
			return
		}
		if n.Kind() == "switch_case" {
			if v := n.ChildByFieldName("value"); v != nil {
				constant := trimQuotes(e.text(v))
				if dot := strings.LastIndex(constant, "."); dot != -1 {
					constant = constant[dot+1:] // ActionTypes.LOGIN -> LOGIN
				}
				if constant != "" && !seen[constant] {
					seen[constant] = true
					out = append(out, constant)
				}
			}
		}
		for i := uint(0); i < n.ChildCount(); i++ {
			walk(n.Child(i))
		}
	}
	walk(fn)
	return out
}

// objectShape infers a field->type map from an object literal.
func (e *extraction) objectShape(obj *sitter.Node) map[string]string {
	shape := make(map[string]string)
	for i := uint(0); i < obj.NamedChildCount(); i++ {
		pair := obj.NamedChild(i)
		if pair.Kind() != "pair" {
			continue
		}
		key := trimQuotes(e.text(pair.ChildByFieldName("key")))
		if key == "" {
			continue
		}
		shape[key] = inferLiteralType(e.text(pair.ChildByFieldName("value")))
	}
	return shape
}

func inferLiteralType(value string) string {
	value = strings.TrimSpace(value)
	switch {
	case value == "true" || value == "false":
		return "boolean"
	case value == "null" || value == "undefined":
		return "unknown"
	case strings.HasPrefix(value, "'") || strings.HasPrefix(value, "\"") || strings.HasPrefix(value, "`"):
		return "string"
	case strings.HasPrefix(value, "["):
		return "array"
	case strings.HasPrefix(value, "{"):
		return "object"
	case value != "" && (value[0] == '-' || (value[0] >= '0' && value[0] <= '9')):
		return "number"
	default:
		return "unknown"
	}
}

func isHookName(name string) bool {
	return len(name) > 3 && strings.HasPrefix(name, "use") && name[3] >= 'A' && name[3] <= 'Z'
}

func isComponentName(name string) bool {
	return name != "" && name[0] >= 'A' && name[0] <= 'Z'
}

func looksLikeReducer(name string, params int) bool {
	return strings.HasSuffix(name, "Reducer") || (params == 2 && strings.Contains(strings.ToLower(name), "reducer"))
}

func containsKind(node *sitter.Node, kinds ...string) bool {
	if node == nil {
		return false
	}
	for _, k := range kinds {
		if node.Kind() == k {
			return true
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if containsKind(node.Child(i), kinds...) {
			return true
		}
	}
	return false
}

func containsText(e *extraction, node *sitter.Node, substr string) bool {
	return strings.Contains(e.text(node), substr)
}

func trimQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
