package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// tomlFile mirrors the .tagsense.toml layout. Pointer fields distinguish
// "unset" from the zero value so defaults survive.
type tomlFile struct {
	Version int `toml:"version"`
	Project struct {
		Root string `toml:"root"`
		Name string `toml:"name"`
	} `toml:"project"`
	Schemas struct {
		Include          []string `toml:"include"`
		Exclude          []string `toml:"exclude"`
		Catalog          string   `toml:"catalog"`
		TagDirs          []string `toml:"tagdirs"`
		MaxFileSize      string   `toml:"max_file_size"`
		MaxFiles         *int     `toml:"max_files"`
		RespectGitignore *bool    `toml:"respect_gitignore"`
	} `toml:"schemas"`
	Completion struct {
		Fuzzy            *bool    `toml:"fuzzy"`
		FuzzyThreshold   *float64 `toml:"fuzzy_threshold"`
		MaxResults       *int     `toml:"max_results"`
		StrictLookup     *bool    `toml:"strict_lookup"`
		StripFileSuffix  *bool    `toml:"strip_file_suffix"`
		ClosingTagPrefix *bool    `toml:"closing_tag_prefix"`
	} `toml:"completion"`
	Watch struct {
		Enabled    *bool `toml:"enabled"`
		DebounceMs *int  `toml:"debounce_ms"`
	} `toml:"watch"`
	Server struct {
		MetricsAddr string `toml:"metrics_addr"`
	} `toml:"server"`
}

// LoadTOML loads .tagsense.toml from projectRoot, returning nil when absent
func LoadTOML(projectRoot string) (*Config, error) {
	path := filepath.Join(projectRoot, TOMLFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	return loadTOMLFile(path, projectRoot)
}

func loadTOMLFile(path, configDir string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg, err := parseTOML(content)
	if err != nil {
		return nil, err
	}
	resolveRoot(cfg, configDir)
	return cfg, nil
}

func parseTOML(content []byte) (*Config, error) {
	var f tomlFile
	if err := toml.Unmarshal(content, &f); err != nil {
		return nil, fmt.Errorf("failed to parse TOML config: %w", err)
	}

	cfg := Default("")
	cfg.Project.Name = f.Project.Name
	cfg.Project.Root = f.Project.Root
	if f.Version != 0 {
		cfg.Version = f.Version
	}

	if len(f.Schemas.Include) > 0 {
		cfg.Schemas.Include = f.Schemas.Include
	}
	if f.Schemas.Exclude != nil {
		cfg.Schemas.Exclude = f.Schemas.Exclude
	}
	cfg.Schemas.Catalog = f.Schemas.Catalog
	cfg.Schemas.TagDirs = f.Schemas.TagDirs
	if f.Schemas.MaxFileSize != "" {
		sz, err := parseSize(f.Schemas.MaxFileSize)
		if err != nil {
			return nil, fmt.Errorf("invalid max_file_size %q: %w", f.Schemas.MaxFileSize, err)
		}
		cfg.Schemas.MaxFileSize = sz
	}
	setInt(&cfg.Schemas.MaxFiles, f.Schemas.MaxFiles)
	setBool(&cfg.Schemas.RespectGitignore, f.Schemas.RespectGitignore)

	setBool(&cfg.Completion.Fuzzy, f.Completion.Fuzzy)
	if f.Completion.FuzzyThreshold != nil {
		cfg.Completion.FuzzyThreshold = *f.Completion.FuzzyThreshold
	}
	setInt(&cfg.Completion.MaxResults, f.Completion.MaxResults)
	setBool(&cfg.Completion.StrictLookup, f.Completion.StrictLookup)
	setBool(&cfg.Completion.StripFileSuffix, f.Completion.StripFileSuffix)
	setBool(&cfg.Completion.ClosingTagPrefix, f.Completion.ClosingTagPrefix)

	setBool(&cfg.Watch.Enabled, f.Watch.Enabled)
	setInt(&cfg.Watch.DebounceMs, f.Watch.DebounceMs)

	cfg.Server.MetricsAddr = f.Server.MetricsAddr
	return cfg, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
