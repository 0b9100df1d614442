package analysis

import "time"

// FileAnalysis is the per-file record supplied by the upstream pattern
// detector. The pipeline never reads source files itself; everything it
// knows about a file arrives through this struct.
type FileAnalysis struct {
	Path         string            `json:"path"`
	RelativePath string            `json:"relativePath"`
	Imports      []ImportStatement `json:"imports"`
	Exports      []string          `json:"exports"`
	Patterns     []DetectedPattern `json:"patterns"`
	LineCount    int               `json:"lineCount"`
	AnalyzedAt   time.Time         `json:"analyzedAt"`
}

type ImportStatement struct {
	Source     string   `json:"source"` // raw specifier as written
	Specifiers []string `json:"specifiers"`
	IsTypeOnly bool     `json:"isTypeOnly"`
	IsReexport bool     `json:"isReexport"` // export ... from '...'
}

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
	TaskSkipped    TaskStatus = "skipped"
	TaskFailed     TaskStatus = "failed"
)

// FileTask carries the advisory processing order for one file.
type FileTask struct {
	Path         string     `json:"path"`
	RelativePath string     `json:"relativePath"`
	Priority     int        `json:"priority"` // 0..100
	Dependencies []string   `json:"dependencies"`
	Status       TaskStatus `json:"status"`
}

type PatternType string

const (
	PatternComponent PatternType = "component"
	PatternHook      PatternType = "hook"
	PatternContext   PatternType = "context"
	PatternReducer   PatternType = "reducer"
	PatternEffect    PatternType = "effect"
	PatternUnknown   PatternType = "unknown"
)

type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// PatternMetadata is the closed set of optional fields the detector may
// attach to a pattern. Which fields are meaningful depends on the
// pattern type; absent fields stay at their zero value.
type PatternMetadata struct {
	Props        []string          `json:"props,omitempty"`        // component
	ContextName  string            `json:"contextName,omitempty"`  // context
	ContextValue string            `json:"contextValue,omitempty"` // context value shape, raw text
	HasProvider  bool              `json:"hasProvider,omitempty"`  // context
	StateShape   map[string]string `json:"stateShape,omitempty"`   // reducer: field -> declared type
	Actions      []string          `json:"actions,omitempty"`      // reducer action constants
	IsCustomHook bool              `json:"isCustomHook,omitempty"` // hook
	IsEntity     bool              `json:"isEntity,omitempty"`     // structural type declaration
	EntityFields map[string]string `json:"entityFields,omitempty"`
	IsActionType bool              `json:"isActionType,omitempty"`
}

type DetectedPattern struct {
	Type        PatternType     `json:"type"`
	Name        string          `json:"name"`
	Location    Location        `json:"location"`
	Confidence  float64         `json:"confidence"` // 0..1
	Metadata    PatternMetadata `json:"metadata"`
	NeedsReview bool            `json:"needsReview"`
}

type CandidateSource string

const (
	SourceContext       CandidateSource = "context"
	SourceReducer       CandidateSource = "reducer"
	SourceHook          CandidateSource = "hook"
	SourceFileStructure CandidateSource = "file_structure"
	SourceLLM           CandidateSource = "llm"
)

// DomainCandidate is one heuristic's proposal for a bounded context.
// Candidates with the same normalized name are merged before clustering.
type DomainCandidate struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	SuggestedBy   CandidateSource   `json:"suggestedBy"`
	SourceFiles   []string          `json:"sourceFiles"`
	Patterns      []DetectedPattern `json:"patterns"`
	Confidence    float64           `json:"confidence"`
	Relationships []string          `json:"relationships"`
}

type AmbiguityReason string

const (
	AmbiguityLowConfidence  AmbiguityReason = "low_confidence"
	AmbiguityFlaggedReview  AmbiguityReason = "flagged_for_review"
	AmbiguityMultiCandidate AmbiguityReason = "multiple_candidates"
)

// AmbiguousPattern is a HITL-eligible finding raised before clustering.
type AmbiguousPattern struct {
	File        string           `json:"file"`
	Pattern     *DetectedPattern `json:"pattern,omitempty"`
	Reason      AmbiguityReason  `json:"reason"`
	Description string           `json:"description"`
	Candidates  []string         `json:"candidates,omitempty"` // candidate names claiming the file
}

// FileCluster exists only while the clustering engine runs.
type FileCluster struct {
	ID               string   `json:"id"`
	Files            []string `json:"files"`
	Centroid         string   `json:"centroid"`
	Density          float64  `json:"density"`
	DomainCandidates []string `json:"domainCandidates"` // candidate ids by file overlap
}

// DomainBoundaries records what crosses this domain's edge: which
// domains it imports from, exports to, and the shared-state entity
// names it has in common with others.
type DomainBoundaries struct {
	Imports     []string `json:"imports"`
	Exports     []string `json:"exports"`
	SharedState []string `json:"sharedState"`
}

// DomainSummary is the authoritative description of one discovered
// domain. Boundary analysis and explicit user merges mutate it; nothing
// else does.
type DomainSummary struct {
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	SourceFiles []string         `json:"sourceFiles"`
	Entities    []string         `json:"entities"`
	Actions     []string         `json:"actions"`
	Boundaries  DomainBoundaries `json:"boundaries"`
	SuggestedBy CandidateSource  `json:"suggestedBy"`
	Confidence  float64          `json:"confidence"`
	NeedsReview bool             `json:"needsReview"`
	ReviewNotes []string         `json:"reviewNotes"`
}

type RelationshipType string

const (
	RelDependency  RelationshipType = "dependency"
	RelSharedState RelationshipType = "shared_state"
	RelEventFlow   RelationshipType = "event_flow"
	RelComposition RelationshipType = "composition"
)

// DomainRelationship links two domains. At most one exists per
// unordered pair, and only when strength >= 0.1.
type DomainRelationship struct {
	ID          string           `json:"id"`
	Type        RelationshipType `json:"type"`
	From        string           `json:"from"` // domain id
	To          string           `json:"to"`
	Strength    float64          `json:"strength"` // 0..1
	Evidence    []string         `json:"evidence"`
	Description string           `json:"description"`
}

type ConflictType string

const (
	ConflictOwnership ConflictType = "ownership"
	ConflictNaming    ConflictType = "naming"
	ConflictBoundary  ConflictType = "boundary"
)

type SuggestedResolution struct {
	Action      string `json:"action"` // merge_domains, reassign_file, rename_domain, keep_both, acknowledge
	Description string `json:"description"`
	Target      string `json:"target,omitempty"` // domain id or new name, action dependent
}

// DomainConflict is removed, not repaired, when a resolution applies.
type DomainConflict struct {
	ID                   string                `json:"id"`
	Type                 ConflictType          `json:"type"`
	Domains              []string              `json:"domains"` // domain ids
	File                 string                `json:"file,omitempty"`
	Description          string                `json:"description"`
	SuggestedResolutions []SuggestedResolution `json:"suggestedResolutions"`
}

type FieldSource string

const (
	FieldFromHeuristic FieldSource = "heuristic"
	FieldFromLLM       FieldSource = "llm"
)

// SchemaFieldProposal is one path-addressed field of a proposal. Paths
// are always "<domainName>.<section>...." and unique per proposal.
type SchemaFieldProposal struct {
	Path        string      `json:"path"`
	Type        string      `json:"type"`
	Description string      `json:"description"`
	Source      FieldSource `json:"source"`
	Confidence  float64     `json:"confidence"`
}

type SchemaProposal struct {
	ID           string                `json:"id"`
	DomainID     string                `json:"domainId"`
	DomainName   string                `json:"domainName"`
	Entities     []SchemaFieldProposal `json:"entities"`
	State        []SchemaFieldProposal `json:"state"`
	Intents      []SchemaFieldProposal `json:"intents"`
	Confidence   float64               `json:"confidence"`
	Alternatives []string              `json:"alternatives"`
	ReviewNotes  []string              `json:"reviewNotes"`
	NeedsReview  bool                  `json:"needsReview"`
}

// Fields returns entities, state and intents as one slice, in that
// order. Callers must not mutate the returned elements.
func (p *SchemaProposal) Fields() []SchemaFieldProposal {
	out := make([]SchemaFieldProposal, 0, len(p.Entities)+len(p.State)+len(p.Intents))
	out = append(out, p.Entities...)
	out = append(out, p.State...)
	out = append(out, p.Intents...)
	return out
}
