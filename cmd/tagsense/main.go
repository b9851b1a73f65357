package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/standardbeagle/tagsense/internal/config"
	"github.com/standardbeagle/tagsense/internal/debug"
	"github.com/standardbeagle/tagsense/internal/version"
	"github.com/standardbeagle/tagsense/internal/workspace"

	"github.com/urfave/cli/v2"
)

var Version = version.Version

// loadConfigWithOverrides loads configuration and applies CLI flag overrides
func loadConfigWithOverrides(c *cli.Context) (*config.Config, error) {
	root := c.String("root")
	if root != "" {
		absRoot, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root path %q: %w", root, err)
		}
		root = absRoot
	}

	configPath := c.String("config")
	cfg, err := config.LoadWithRoot(configPath, root)
	if err != nil {
		if configPath == "" {
			configPath = "project config"
		}
		return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
	}
	if root != "" {
		cfg.Project.Root = root
	}

	if includeFlags := c.StringSlice("include"); len(includeFlags) > 0 {
		cfg.Schemas.Include = includeFlags
	}
	if excludeFlags := c.StringSlice("exclude"); len(excludeFlags) > 0 {
		cfg.Schemas.Exclude = append(cfg.Schemas.Exclude, excludeFlags...)
	}
	if tagDirs := c.StringSlice("tag-dir"); len(tagDirs) > 0 {
		cfg.Schemas.TagDirs = append(cfg.Schemas.TagDirs, tagDirs...)
	}

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadWorkspace builds a workspace and loads its schemas. Schema problems
// are printed as warnings; the loaded part stays usable.
func loadWorkspace(c *cli.Context) (*workspace.Workspace, error) {
	cfg, err := loadConfigWithOverrides(c)
	if err != nil {
		return nil, err
	}
	ws := workspace.New(cfg)
	status, err := ws.LoadSchemas(context.Background())
	if err != nil && status == nil {
		return nil, fmt.Errorf("failed to load schemas: %w", err)
	}
	if err != nil {
		fmt.Fprintf(c.App.ErrWriter, "Warning: %v\n", err)
	}
	debug.LogSchema("loaded %d schema files from %s\n", len(ws.Status().Files), cfg.Project.Root)
	return ws, nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:                   "tagsense",
		Usage:                  "Schema-aware XML tag name completion, navigation and renaming",
		Version:                Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Config file path (.kdl or .toml); default searches the project root and home directory",
			},
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "Project root directory (overrides config)",
			},
			&cli.StringSliceFlag{
				Name:  "include",
				Usage: "Schema files matching glob patterns (e.g., --include 'schemas/**/*.xsd')",
			},
			&cli.StringSliceFlag{
				Name:  "exclude",
				Usage: "Exclude schema files matching glob patterns",
			},
			&cli.StringSliceFlag{
				Name:  "tag-dir",
				Usage: "Directory of tag files forming one namespace (repeatable)",
			},
			&cli.BoolFlag{
				Name:    "json",
				Aliases: []string{"j"},
				Usage:   "Output as JSON",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "complete",
				Aliases:   []string{"c"},
				Usage:     "Complete the tag name at a position",
				ArgsUsage: "FILE POSITION",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "typed",
						Usage: "Text to rank against (default: the name before the caret)",
					},
				},
				Action: completeCommand,
			},
			{
				Name:      "resolve",
				Aliases:   []string{"def"},
				Usage:     "Show the declaration a tag name refers to",
				ArgsUsage: "FILE POSITION",
				Action:    resolveCommand,
			},
			{
				Name:      "rename",
				Usage:     "Rename the tag at a position",
				ArgsUsage: "FILE POSITION NEW_NAME",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "write",
						Aliases: []string{"w"},
						Usage:   "Write the result back to FILE instead of printing it",
					},
				},
				Action: renameCommand,
			},
			{
				Name:      "bind",
				Usage:     "Make the tag at a position refer to a schema element or tag file",
				ArgsUsage: "FILE POSITION TARGET",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "element",
						Aliases: []string{"e"},
						Usage:   "Element declared in TARGET; empty binds to the file itself",
					},
					&cli.BoolFlag{
						Name:    "write",
						Aliases: []string{"w"},
						Usage:   "Write the result back to FILE instead of printing it",
					},
				},
				Action: bindCommand,
			},
			{
				Name:      "tags",
				Usage:     "List the tags allowed inside the tag at a position",
				ArgsUsage: "FILE POSITION",
				Action:    tagsCommand,
			},
			{
				Name:      "namespaces",
				Aliases:   []string{"ns"},
				Usage:     "List the namespaces that may be bound to a prefix at a position",
				ArgsUsage: "FILE POSITION",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "prefix",
						Aliases: []string{"p"},
						Usage:   "Prefix being bound",
					},
					&cli.StringFlag{
						Name:    "tag",
						Aliases: []string{"t"},
						Usage:   "Keep only namespaces declaring an element of this name",
					},
				},
				Action: namespacesCommand,
			},
			{
				Name:      "usages",
				Aliases:   []string{"refs"},
				Usage:     "List the tags in FILE that refer to the same declaration as the tag at a position",
				ArgsUsage: "FILE POSITION",
				Action:    usagesCommand,
			},
			{
				Name:      "match",
				Usage:     "Find the partner of the tag name at a position",
				ArgsUsage: "FILE POSITION",
				Action:    matchCommand,
			},
			{
				Name:      "tree",
				Aliases:   []string{"t"},
				Usage:     "Outline the tags of a document",
				ArgsUsage: "FILE",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "max-depth",
						Aliases: []string{"d"},
						Usage:   "Maximum depth (0 = unlimited)",
					},
					&cli.BoolFlag{
						Name:    "show-lines",
						Aliases: []string{"l"},
						Usage:   "Show line:column positions",
					},
					&cli.BoolFlag{
						Name:  "compact",
						Usage: "One-line nested output",
					},
				},
				Action: treeCommand,
			},
			{
				Name:      "check",
				Usage:     "Report parse problems of a document",
				ArgsUsage: "FILE",
				Action:    checkCommand,
			},
			{
				Name:   "status",
				Usage:  "Show the loaded schema files and namespaces",
				Action: statusCommand,
			},
			{
				Name:  "mcp",
				Usage: "Serve the tag tools over MCP on stdio",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "metrics-addr",
						Usage: "Serve Prometheus metrics on this address (e.g., 127.0.0.1:9464)",
					},
					&cli.BoolFlag{
						Name:  "no-watch",
						Usage: "Do not reload schemas when they change on disk",
					},
				},
				Action: mcpCommand,
			},
		},
		Before: func(c *cli.Context) error {
			if debug.IsDebugEnabled() {
				debug.SetDebugOutput(c.App.ErrWriter)
			}
			return nil
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}
