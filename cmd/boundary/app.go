package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"boundary/internal/config"
	"boundary/internal/detector"
	"boundary/internal/generator"
	"boundary/internal/llm"
	"boundary/internal/pipeline"
	"boundary/internal/review"
	"boundary/internal/session"
	"boundary/internal/watcher"
)

// App bundles the long-lived pieces: detector, pipeline, persistence
// and output. One App serves the whole process, rescans included.
type App struct {
	cfg      *config.Config
	detector *detector.Detector
	pipe     *pipeline.Pipeline
	gen      *generator.Generator
	store    *session.Store
	watcher  *watcher.Watcher

	sessionID string
}

func NewApp(cfg *config.Config) (*App, error) {
	dirs, files := cfg.ExcludeMatchers()

	var store *session.Store
	if cfg.Session.DBPath != "" {
		var err error
		store, err = session.Open(cfg.Session.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
	}

	var svc llm.Service
	if cfg.LLM.Enabled {
		if os.Getenv("ANTHROPIC_API_KEY") == "" {
			slog.Warn("llm enrichment enabled but ANTHROPIC_API_KEY is not set; proceeding heuristics-only")
		} else {
			svc = llm.NewAnthropicService(cfg.LLM.RatePerSecond, cfg.LLM.Burst)
		}
	}

	app := &App{
		cfg:      cfg,
		detector: detector.New(dirs, files),
		pipe:     pipeline.New(cfg, store, svc),
		gen:      generator.New(cfg.Output.Dir),
		store:    store,
	}

	if store != nil {
		sess, err := store.CreateSession(cfg.Root)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		app.sessionID = sess.ID
	}
	return app, nil
}

func (a *App) Close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
	if a.store != nil {
		a.store.Close()
	}
}

// Discover runs one full scan-plus-pipeline pass over the configured
// root.
func (a *App) Discover(ctx context.Context) (*pipeline.Result, error) {
	files, err := a.detector.Scan(a.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", a.cfg.Root, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no analyzable source files under %s", a.cfg.Root)
	}
	slog.Info("scan complete", "root", a.cfg.Root, "files", len(files))

	result, err := a.pipe.Run(ctx, a.sessionID, files)
	if err != nil {
		return nil, err
	}
	if err := a.pipe.SaveResult(result); err != nil {
		slog.Warn("failed to persist run result", "error", err)
	}
	return result, nil
}

// Review runs the terminal gate over the result and folds whatever the
// user committed back in.
func (a *App) Review(result *pipeline.Result) error {
	if result.PendingReviews() == 0 {
		return nil
	}
	outcome, err := review.Run(result.Conflicts, result.Proposals, result.Ambiguities)
	if err != nil {
		return err
	}
	if !outcome.Committed {
		slog.Info("review session discarded, result unchanged")
		return nil
	}
	result.Domains, result.Conflicts, result.Proposals, result.Ambiguities, err = review.Apply(
		outcome, result.Domains, result.Conflicts, result.Proposals, result.Ambiguities)
	if err != nil {
		return err
	}
	return a.pipe.SaveResult(result)
}

// GenerateOutputs writes the schema documents, plus the OpenAPI export
// when configured. Proposals still flagged for review never reach
// disk; they wait for a review session.
func (a *App) GenerateOutputs(ctx context.Context, result *pipeline.Result) error {
	written, err := a.gen.WriteAll(result.Proposals)
	if err != nil {
		return err
	}
	slog.Info("schema documents written", "count", len(written), "dir", a.cfg.Output.Dir)
	if held := len(result.Proposals) - len(written); held > 0 {
		slog.Info("proposals held for review", "count", held, "hint", "run with -ui to resolve")
	}

	if a.cfg.Output.OpenAPIExport && len(written) > 0 {
		path, err := a.gen.WriteOpenAPI(ctx, result.Proposals)
		if err != nil {
			slog.Warn("openapi export failed", "error", err)
		} else {
			slog.Info("openapi document written", "path", path)
		}
	}
	return nil
}

// StartWatcher rescans on debounced source changes.
func (a *App) StartWatcher(ctx context.Context) error {
	w, err := watcher.New(a.cfg.Watch.Debounce, a.cfg.Exclude.Dirs, a.cfg.Exclude.Files, func(changed []string) {
		slog.Info("source change detected, rescanning", "changed", len(changed))
		result, err := a.Discover(ctx)
		if err != nil {
			slog.Error("rescan failed", "error", err)
			return
		}
		if err := a.GenerateOutputs(ctx, result); err != nil {
			slog.Error("failed to regenerate outputs", "error", err)
		}
	})
	if err != nil {
		return err
	}
	if err := w.Watch(a.cfg.Root); err != nil {
		w.Close()
		return err
	}
	a.watcher = w
	return nil
}

func (a *App) PrintSummary(result *pipeline.Result) {
	var b strings.Builder
	fmt.Fprintf(&b, "Discovered %d domains across %d ranked files\n", len(result.Domains), len(result.Tasks))
	for _, d := range result.Domains {
		flag := ""
		if d.NeedsReview {
			flag = " (needs review)"
		}
		fmt.Fprintf(&b, "  %-20s confidence=%.2f files=%d%s\n", d.Name, d.Confidence, len(d.SourceFiles), flag)
	}
	if len(result.Relationships) > 0 {
		fmt.Fprintf(&b, "Relationships: %d", len(result.Relationships))
		if len(result.Cycles) > 0 {
			fmt.Fprintf(&b, " (%d cyclic)", len(result.Cycles))
		}
		b.WriteString("\n")
	}
	if len(result.Conflicts) > 0 {
		fmt.Fprintf(&b, "Conflicts: %d\n", len(result.Conflicts))
		for _, c := range result.Conflicts {
			fmt.Fprintf(&b, "  [%s] %s\n", c.Type, c.Description)
		}
	}
	if n := result.PendingReviews(); n > 0 {
		fmt.Fprintf(&b, "Pending review items: %d (run with --ui to resolve)\n", n)
	}
	fmt.Print(b.String())
}
