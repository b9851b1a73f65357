package config

import (
	"os"
	"path/filepath"

	"github.com/standardbeagle/tagsense/internal/types"
)

// File names searched in the project root and the home directory
const (
	KDLFileName  = ".tagsense.kdl"
	TOMLFileName = ".tagsense.toml"
)

type Config struct {
	Version    int
	Project    Project
	Schemas    Schemas
	Completion Completion
	Watch      Watch
	Server     Server
}

type Project struct {
	Root string
	Name string
}

type Schemas struct {
	Include          []string // doublestar globs relative to the project root
	Exclude          []string
	Catalog          string   // namespace catalog YAML
	TagDirs          []string // directories of fragment files, one namespace each
	MaxFileSize      int64
	MaxFiles         int
	RespectGitignore bool // Skip schema files matched by .gitignore
}

type Completion struct {
	Fuzzy            bool
	FuzzyThreshold   float64 // Jaro-Winkler similarity needed to keep a non-prefix match
	MaxResults       int
	StrictLookup     bool // No fallback to the document element's namespace
	StripFileSuffix  bool // Drop ".ext" when renaming tags bound to files
	ClosingTagPrefix bool // Closing-tag variants always carry the prefix
}

type Watch struct {
	Enabled    bool
	DebounceMs int // Debounce time for schema change events
}

type Server struct {
	MetricsAddr string // Prometheus listen address; empty disables
}

func Load(path string) (*Config, error) {
	return LoadWithRoot(path, "")
}

// LoadWithRoot loads the configuration for the project at rootDir. An
// explicit path wins; otherwise the home directory config is the base and
// the project config overrides it.
func LoadWithRoot(path string, rootDir string) (*Config, error) {
	searchDir := "."
	if rootDir != "" {
		searchDir = rootDir
	}

	if path != "" {
		return LoadFile(path)
	}

	// Step 1: global base config from ~/.tagsense.kdl (if exists)
	var baseConfig *Config
	if homeDir, err := os.UserHomeDir(); err == nil {
		if globalCfg, err := loadDir(homeDir); err == nil && globalCfg != nil {
			baseConfig = globalCfg
		}
	}

	// Step 2: project config
	projectConfig, err := loadDir(searchDir)
	if err != nil {
		return nil, err
	}

	// Step 3: merge (project overrides base, base exclusions are kept)
	switch {
	case baseConfig != nil && projectConfig != nil:
		return mergeConfigs(baseConfig, projectConfig), nil
	case projectConfig != nil:
		return projectConfig, nil
	case baseConfig != nil:
		baseConfig.Project.Root = absOrSelf(searchDir)
		return baseConfig, nil
	}
	return Default(absOrSelf(searchDir)), nil
}

// LoadFile loads one configuration file, choosing the format by extension
func LoadFile(path string) (*Config, error) {
	if filepath.Ext(path) == ".toml" {
		return loadTOMLFile(path, filepath.Dir(path))
	}
	return loadKDLFile(path, filepath.Dir(path))
}

// loadDir returns the KDL config of dir, else its TOML config, else nil
func loadDir(dir string) (*Config, error) {
	cfg, err := LoadKDL(dir)
	if err != nil || cfg != nil {
		return cfg, err
	}
	return LoadTOML(dir)
}

func absOrSelf(dir string) string {
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return dir
}

// Default returns the configuration used when no file is present
func Default(root string) *Config {
	return &Config{
		Version: 1,
		Project: Project{
			Root: root,
			Name: filepath.Base(root),
		},
		Schemas: Schemas{
			Include: []string{"**/*.xsd"},
			Exclude: []string{
				"**/.git/**",
				"**/node_modules/**",
				"**/vendor/**",
				"**/testdata/**",
			},
			MaxFileSize:      types.DefaultMaxFileSize,
			MaxFiles:         types.DefaultMaxSchemaFiles,
			RespectGitignore: true,
		},
		Completion: Completion{
			Fuzzy:            true,
			FuzzyThreshold:   0.7,
			MaxResults:       types.DefaultMaxResults,
			StrictLookup:     false,
			StripFileSuffix:  true,
			ClosingTagPrefix: false,
		},
		Watch: Watch{
			Enabled:    true,
			DebounceMs: 300, // 300ms debounce for schema changes
		},
	}
}

// resolveRoot makes cfg.Project.Root absolute, relative to the directory
// holding the config file. An empty root becomes that directory.
func resolveRoot(cfg *Config, configDir string) {
	switch {
	case cfg.Project.Root == "":
		cfg.Project.Root = absOrSelf(configDir)
	case !filepath.IsAbs(cfg.Project.Root):
		cfg.Project.Root = filepath.Clean(filepath.Join(absOrSelf(configDir), cfg.Project.Root))
	default:
		cfg.Project.Root = filepath.Clean(cfg.Project.Root)
	}
	if cfg.Project.Name == "" {
		cfg.Project.Name = filepath.Base(cfg.Project.Root)
	}
}

// mergeConfigs merges a base config with a project config.
// Project config takes precedence, but base exclusions are preserved.
func mergeConfigs(base, project *Config) *Config {
	merged := *project

	if len(base.Schemas.Exclude) > 0 {
		merged.Schemas.Exclude = DeduplicatePatterns(append(append([]string{}, base.Schemas.Exclude...), project.Schemas.Exclude...))
	}

	// Inclusions: project overrides base completely if specified
	if len(project.Schemas.Include) == 0 && len(base.Schemas.Include) > 0 {
		merged.Schemas.Include = base.Schemas.Include
	}
	if project.Schemas.Catalog == "" {
		merged.Schemas.Catalog = base.Schemas.Catalog
	}
	if len(project.Schemas.TagDirs) == 0 {
		merged.Schemas.TagDirs = base.Schemas.TagDirs
	}
	if project.Server.MetricsAddr == "" {
		merged.Server.MetricsAddr = base.Server.MetricsAddr
	}
	return &merged
}

// DeduplicatePatterns removes duplicate patterns, keeping first occurrence order
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}

// ResolvePath makes p absolute against the project root
func (c *Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Project.Root, filepath.FromSlash(p))
}
