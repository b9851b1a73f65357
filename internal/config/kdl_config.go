package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// LoadKDL attempts to load configuration from the .tagsense.kdl file in projectRoot
func LoadKDL(projectRoot string) (*Config, error) {
	kdlPath := filepath.Join(projectRoot, KDLFileName)
	if _, err := os.Stat(kdlPath); os.IsNotExist(err) {
		return nil, nil // No KDL config found, use defaults
	}
	return loadKDLFile(kdlPath, projectRoot)
}

func loadKDLFile(path, configDir string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	cfg, err := parseKDL(string(content))
	if err != nil {
		return nil, err
	}
	resolveRoot(cfg, configDir)
	return cfg, nil
}

// parseKDL reads KDL configuration on top of the defaults:
//
//	project { root "." name "demo" }
//	schemas { include "schemas/**/*.xsd"; catalog "catalog.yaml"; tagdir "tags" }
//	completion { fuzzy true; fuzzy_threshold 0.7; max_results 200 }
//	watch { enabled true; debounce_ms 300 }
func parseKDL(content string) (*Config, error) {
	cfg := Default("")
	cfg.Project.Name = ""
	cfg.Schemas.Include = nil

	doc, err := kdl.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse KDL config: %w", err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "version":
			if v, ok := firstIntArg(n); ok {
				cfg.Version = v
			}
		case "project":
			for _, cn := range n.Children { // project { root "." name "foo" }
				assignSimpleString(cn, "root", func(v string) { cfg.Project.Root = v })
				assignSimpleString(cn, "name", func(v string) { cfg.Project.Name = v })
			}
		case "schemas":
			parseSchemasSection(cfg, n)
		case "completion":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "fuzzy":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Completion.Fuzzy = b
					}
				case "fuzzy_threshold":
					if v, ok := firstFloatArg(cn); ok {
						cfg.Completion.FuzzyThreshold = v
					}
				case "max_results":
					if v, ok := firstIntArg(cn); ok {
						cfg.Completion.MaxResults = v
					}
				case "strict_lookup":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Completion.StrictLookup = b
					}
				case "strip_file_suffix":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Completion.StripFileSuffix = b
					}
				case "closing_tag_prefix":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Completion.ClosingTagPrefix = b
					}
				}
			}
		case "watch":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Watch.Enabled = b
					}
				case "debounce_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Watch.DebounceMs = v
					}
				}
			}
		case "server":
			for _, cn := range n.Children {
				assignSimpleString(cn, "metrics_addr", func(v string) { cfg.Server.MetricsAddr = v })
			}
		}
	}

	if len(cfg.Schemas.Include) == 0 {
		cfg.Schemas.Include = Default("").Schemas.Include
	}
	return cfg, nil
}

func parseSchemasSection(cfg *Config, n *document.Node) {
	excludeSeen := false
	for _, cn := range n.Children {
		switch nodeName(cn) {
		case "include":
			cfg.Schemas.Include = append(cfg.Schemas.Include, collectStringArgs(cn)...)
		case "exclude":
			// An exclude block replaces the default exclusions
			if !excludeSeen {
				cfg.Schemas.Exclude = nil
				excludeSeen = true
			}
			cfg.Schemas.Exclude = append(cfg.Schemas.Exclude, collectStringArgs(cn)...)
		case "catalog":
			if s, ok := firstStringArg(cn); ok {
				cfg.Schemas.Catalog = s
			}
		case "tagdir":
			cfg.Schemas.TagDirs = append(cfg.Schemas.TagDirs, collectStringArgs(cn)...)
		case "max_file_size":
			if v, ok := firstIntArg(cn); ok {
				cfg.Schemas.MaxFileSize = int64(v)
			}
			if s, ok := firstStringArg(cn); ok {
				if sz, err := parseSize(s); err == nil {
					cfg.Schemas.MaxFileSize = sz
				}
			}
		case "max_files":
			if v, ok := firstIntArg(cn); ok {
				cfg.Schemas.MaxFiles = v
			}
		case "respect_gitignore":
			if b, ok := firstBoolArg(cn); ok {
				cfg.Schemas.RespectGitignore = b
			}
		}
	}
}

// Helper functions over the kdl-go document model
func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}
func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	if s, ok := n.Arguments[0].Value.(string); ok {
		return s, true
	}
	return "", false
}
func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	if b, ok := n.Arguments[0].Value.(bool); ok {
		return b, true
	}
	return false, false
}
func firstFloatArg(n *document.Node) (float64, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		log.Printf("WARNING: invalid float value for '%s' in KDL config, expected number but got %T", nodeName(n), n.Arguments[0].Value)
		return 0, false
	}
}
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}

	// Block format: include { "a/**/*.xsd" "b/*.xsd" } has one child node per string
	if len(out) == 0 && len(n.Children) > 0 {
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}
func assignSimpleString(n *document.Node, target string, set func(string)) {
	if nodeName(n) == target {
		if s, ok := firstStringArg(n); ok {
			set(s)
		}
	}
}

// parseSize handles size strings like "10MB", "500KB", "1GB"
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "KB")
	case strings.HasSuffix(s, "B"):
		numStr = strings.TrimSuffix(s, "B")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}
