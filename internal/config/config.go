package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gobwas/glob"
)

type Config struct {
	Root       string     `toml:"root"` // codebase under analysis
	Exclude    Exclude    `toml:"exclude"`
	Discovery  Discovery  `toml:"discovery"`
	Clustering Clustering `toml:"clustering"`
	LLM        LLM        `toml:"llm"`
	Session    Session    `toml:"session"`
	Output     Output     `toml:"output"`
	Watch      Watch      `toml:"watch"`
	Telemetry  Telemetry  `toml:"telemetry"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type Discovery struct {
	// Directory name conventions marking feature-style code. Files in
	// two different feature directories never share a cluster.
	FeatureDirs []string `toml:"feature_dirs"`
	// Directory names treated as shared/common code.
	SharedDirs []string `toml:"shared_dirs"`
	// Entry-point basenames for priority scoring.
	EntryNames []string `toml:"entry_names"`
	// Custom hooks too generic to name a domain.
	GenericHooks []string `toml:"generic_hooks"`
	// Patterns below this confidence are flagged for review.
	ReviewThreshold float64 `toml:"review_threshold"`
}

type Clustering struct {
	SimilarityThreshold float64 `toml:"similarity_threshold"`
	MinClusterSize      int     `toml:"min_cluster_size"`
}

type LLM struct {
	Enabled       bool    `toml:"enabled"`
	Model         string  `toml:"model"`
	MaxTokens     int     `toml:"max_tokens"`
	RatePerSecond float64 `toml:"rate_per_second"`
	Burst         int     `toml:"burst"`
}

type Session struct {
	DBPath string `toml:"db_path"`
}

type Output struct {
	Dir           string `toml:"dir"`
	OpenAPIExport bool   `toml:"openapi_export"`
}

type Watch struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
}

type Telemetry struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

func Default() *Config {
	return &Config{
		Root: ".",
		Exclude: Exclude{
			Dirs:  []string{"node_modules", "dist", "build", "coverage", ".git"},
			Files: []string{"*.test.*", "*.spec.*", "*.stories.*", "*.d.ts"},
		},
		Discovery: Discovery{
			FeatureDirs:     []string{"features", "modules", "domains", "pages", "views", "screens"},
			SharedDirs:      []string{"shared", "common", "lib", "utils", "components"},
			EntryNames:      []string{"index", "main", "app"},
			GenericHooks:    []string{"useState", "useEffect", "useMemo", "useCallback", "useRef", "useDebounce", "useToggle", "useLocalStorage", "usePrevious", "useInterval", "useFetch", "useAsync", "useWindowSize", "useMediaQuery", "useOnClickOutside"},
			ReviewThreshold: 0.5,
		},
		Clustering: Clustering{
			SimilarityThreshold: 0.5,
			MinClusterSize:      2,
		},
		LLM: LLM{
			Enabled:       false,
			Model:         "claude-sonnet-4-5",
			MaxTokens:     2048,
			RatePerSecond: 0.5,
			Burst:         2,
		},
		Session: Session{DBPath: ".boundary/sessions.db"},
		Output:  Output{Dir: ".boundary/schemas"},
		Watch:   Watch{Debounce: 500 * time.Millisecond},
	}
}

// Load reads TOML config from path, filling unset keys with defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Clustering.SimilarityThreshold < 0 || c.Clustering.SimilarityThreshold > 1 {
		return fmt.Errorf("clustering.similarity_threshold %v outside [0,1]", c.Clustering.SimilarityThreshold)
	}
	if c.Clustering.MinClusterSize < 2 {
		return fmt.Errorf("clustering.min_cluster_size %d must be at least 2", c.Clustering.MinClusterSize)
	}
	if c.Discovery.ReviewThreshold < 0 || c.Discovery.ReviewThreshold > 1 {
		return fmt.Errorf("discovery.review_threshold %v outside [0,1]", c.Discovery.ReviewThreshold)
	}
	for _, p := range append(append([]string{}, c.Exclude.Dirs...), c.Exclude.Files...) {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 500 * time.Millisecond
	}
	return nil
}

// ExcludeMatchers compiles the exclude globs. Validate has already
// checked them, so compile errors are skipped here.
func (c *Config) ExcludeMatchers() (dirs, files []glob.Glob) {
	for _, p := range c.Exclude.Dirs {
		if g, err := glob.Compile(p); err == nil {
			dirs = append(dirs, g)
		}
	}
	for _, p := range c.Exclude.Files {
		if g, err := glob.Compile(p); err == nil {
			files = append(files, g)
		}
	}
	return dirs, files
}
