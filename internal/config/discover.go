package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// SchemaFiles expands the include globs under the project root and drops
// excluded and gitignored paths. Results are absolute, sorted and capped at
// MaxFiles; truncated reports whether the cap was hit.
func SchemaFiles(cfg *Config) (files []string, truncated bool, err error) {
	root := cfg.Project.Root
	fsys := os.DirFS(root)

	var gi *GitignoreParser
	if cfg.Schemas.RespectGitignore {
		gi = NewGitignoreParser()
		if err := gi.LoadGitignore(root); err != nil {
			return nil, false, err
		}
	}

	seen := make(map[string]bool)
	var rel []string
	for _, pattern := range cfg.Schemas.Include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, false, fmt.Errorf("include pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if seen[m] || isExcluded(cfg.Schemas.Exclude, m) {
				continue
			}
			if gi != nil && gi.ShouldIgnore(m, false) {
				continue
			}
			seen[m] = true
			rel = append(rel, m)
		}
	}
	sort.Strings(rel)

	if limit := cfg.Schemas.MaxFiles; limit > 0 && len(rel) > limit {
		rel = rel[:limit]
		truncated = true
	}

	files = make([]string, 0, len(rel))
	for _, m := range rel {
		files = append(files, filepath.Join(root, filepath.FromSlash(m)))
	}
	return files, truncated, nil
}

func isExcluded(patterns []string, path string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// TagDirs returns the configured tag directories made absolute
func TagDirs(cfg *Config) []string {
	out := make([]string, 0, len(cfg.Schemas.TagDirs))
	for _, d := range cfg.Schemas.TagDirs {
		out = append(out, cfg.ResolvePath(d))
	}
	return out
}

// CatalogPath returns the absolute catalog path, or "" when unset
func CatalogPath(cfg *Config) string {
	return cfg.ResolvePath(cfg.Schemas.Catalog)
}
