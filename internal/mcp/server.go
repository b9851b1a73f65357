package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/tagsense/internal/config"
	tagdebug "github.com/standardbeagle/tagsense/internal/debug"
	"github.com/standardbeagle/tagsense/internal/version"
	"github.com/standardbeagle/tagsense/internal/workspace"
)

type toolHandler func(context.Context, *mcp.CallToolRequest) (*mcp.CallToolResult, error)

// Server exposes a workspace's tag name operations as MCP tools
type Server struct {
	ws               *workspace.Workspace
	cfg              *config.Config
	server           *mcp.Server
	diagnosticLogger *DiagnosticLogger // File-based in MCP mode, never stdout

	handlers map[string]toolHandler // Registered tools by name

	mu          sync.Mutex
	cancel      context.CancelFunc
	watcher     *workspace.Watcher
	metrics     *http.Server
	metricsAddr string
}

// ServerOption configures a Server
type ServerOption func(*Server)

// WithDiagnosticLogger replaces the file-backed diagnostic logger
func WithDiagnosticLogger(dl *DiagnosticLogger) ServerOption {
	return func(s *Server) { s.diagnosticLogger = dl }
}

// NewServer creates an MCP server for ws. Schemas are loaded by Start.
func NewServer(ws *workspace.Workspace, opts ...ServerOption) (*Server, error) {
	if ws == nil {
		return nil, errors.New("mcp server requires a workspace")
	}
	s := &Server{
		ws:       ws,
		cfg:      ws.Config(),
		handlers: make(map[string]toolHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.diagnosticLogger == nil {
		s.diagnosticLogger = NewDiagnosticLogger(true)
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: version.Version,
	}, nil)
	s.registerTools()

	s.diagnosticLogger.Printf("MCP server initialized for %s", s.cfg.Project.Root)
	return s, nil
}

// positionProperties are the schema fields shared by every position-based tool
func positionProperties(extra map[string]*jsonschema.Schema) map[string]*jsonschema.Schema {
	props := map[string]*jsonschema.Schema{
		"file": {
			Type:        "string",
			Description: "Document path, absolute or relative to the project root",
		},
		"offset": {
			Type:        "integer",
			Description: "0-based byte offset of the caret; takes precedence over line/column",
		},
		"line": {
			Type:        "integer",
			Description: "1-based line of the caret",
		},
		"column": {
			Type:        "integer",
			Description: "1-based column of the caret (default 1)",
		},
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

func (s *Server) registerTools() {
	s.addTool(&mcp.Tool{
		Name:        "info",
		Description: "Help for the tag tools. Use 'info' for an overview, 'info <tool>' for one tool, 'info status' for the loaded schemas or 'info version'.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"tool": {
					Type:        "string",
					Description: "Tool name, 'status' or 'version'",
				},
			},
		},
	}, s.handleInfo)

	s.addTool(&mcp.Tool{
		Name:        "complete_tag",
		Description: "Complete the XML tag name at a position. Variants come from the XSD schemas and tag directories visible at the tag.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: positionProperties(map[string]*jsonschema.Schema{
				"typed": {
					Type:        "string",
					Description: "Text to rank against; defaults to the name before the caret",
				},
			}),
			Required: []string{"file"},
		},
	}, s.handleComplete)

	s.addTool(&mcp.Tool{
		Name:        "resolve_tag",
		Description: "Find the declaration a tag name refers to: an xs:element, a tag file, or the tag itself under wildcard content.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: positionProperties(nil),
			Required:   []string{"file"},
		},
	}, s.handleResolve)

	s.addTool(&mcp.Tool{
		Name:        "rename_tag",
		Description: "Rename the tag at a position. A 'prefix:name' switches namespace prefix; a plain name keeps the current prefix.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: positionProperties(map[string]*jsonschema.Schema{
				"new_name": {
					Type:        "string",
					Description: "New tag name",
				},
				"write": {
					Type:        "boolean",
					Description: "Write the edited document back to disk",
				},
			}),
			Required: []string{"file", "new_name"},
		},
	}, s.handleRename)

	s.addTool(&mcp.Tool{
		Name:        "bind_tag",
		Description: "Make the tag at a position refer to an element declared in a schema file, or to a tag file when 'element' is empty.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: positionProperties(map[string]*jsonschema.Schema{
				"target": {
					Type:        "string",
					Description: "Schema or tag file to bind to",
				},
				"element": {
					Type:        "string",
					Description: "Element name declared in target",
				},
				"write": {
					Type:        "boolean",
					Description: "Write the edited document back to disk",
				},
			}),
			Required: []string{"file", "target"},
		},
	}, s.handleBind)

	s.addTool(&mcp.Tool{
		Name:        "available_tags",
		Description: "List the tags allowed inside the tag at a position, with their namespaces.",
		InputSchema: &jsonschema.Schema{
			Type:       "object",
			Properties: positionProperties(nil),
			Required:   []string{"file"},
		},
	}, s.handleAvailableTags)

	s.addTool(&mcp.Tool{
		Name:        "tag_tree",
		Description: "Outline the tags of a document. Unknown tags (no schema descriptor) are marked with '?'.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"file": {
					Type:        "string",
					Description: "Document path, absolute or relative to the project root",
				},
				"format": {
					Type:        "string",
					Enum:        []any{"text", "compact", "json"},
					Description: "Output format (default text)",
				},
				"max_depth": {
					Type:        "integer",
					Description: "Maximum depth to show; 0 shows everything",
				},
				"show_lines": {
					Type:        "boolean",
					Description: "Append line:column positions",
				},
			},
			Required: []string{"file"},
		},
	}, s.handleTagTree)
}

func (s *Server) addTool(tool *mcp.Tool, handler toolHandler) {
	s.handlers[tool.Name] = handler
	s.server.AddTool(tool, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return s.recoverFromPanic(tool.Name, func() (*mcp.CallToolResult, error) {
			return handler(ctx, req)
		})
	})
}

// recoverFromPanic turns a handler panic into an error result so one bad
// document cannot take the server down
func (s *Server) recoverFromPanic(operation string, handler func() (*mcp.CallToolResult, error)) (result *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.diagnosticLogger.Errorf("PANIC RECOVERED in %s: %v", operation, r)
			s.diagnosticLogger.Printf("Stack trace: %s", debug.Stack())

			var m runtime.MemStats
			runtime.ReadMemStats(&m)
			s.diagnosticLogger.Printf("Memory stats - Alloc: %d KB, Sys: %d KB, NumGC: %d",
				m.Alloc/1024, m.Sys/1024, m.NumGC)

			result, err = createSmartErrorResponse(operation, fmt.Errorf("internal error: %v", r), map[string]interface{}{
				"timestamp": time.Now().Format(time.RFC3339),
			})
		}
	}()

	result, err = handler()
	if err != nil {
		s.diagnosticLogger.Printf("Error in %s: %v", operation, err)
		return createErrorResponse(operation, err)
	}
	return result, nil
}

// Start loads the schemas, starts the schema watcher and the metrics
// listener when configured, and serves MCP over stdio until ctx is done or
// the client disconnects
func (s *Server) Start(ctx context.Context) error {
	tagdebug.SetMCPMode(true)
	if err := s.prepare(ctx); err != nil {
		return err
	}
	s.diagnosticLogger.Printf("Starting MCP server with stdio transport")
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// prepare does everything Start does except serving stdio
func (s *Server) prepare(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	status, err := s.ws.LoadSchemas(ctx)
	if err != nil {
		// Broken schema files are reported, the rest stays usable
		s.diagnosticLogger.Errorf("schema load: %v", err)
	}
	if status != nil {
		s.diagnosticLogger.Printf("Loaded %d schema files, %d namespaces", len(status.Files), len(status.Namespaces))
	}

	if s.cfg.Watch.Enabled {
		w, err := s.ws.Watch(ctx, func(st *workspace.SchemaStatus, err error) {
			if err != nil {
				s.diagnosticLogger.Errorf("schema reload: %v", err)
			}
			if st != nil {
				s.diagnosticLogger.Printf("Reloaded %d schema files", len(st.Files))
			}
		})
		if err != nil {
			s.diagnosticLogger.Errorf("schema watcher disabled: %v", err)
		} else {
			s.mu.Lock()
			s.watcher = w
			s.mu.Unlock()
		}
	}

	if addr := s.cfg.Server.MetricsAddr; addr != "" {
		if err := s.startMetrics(addr); err != nil {
			cancel()
			return fmt.Errorf("metrics listener: %w", err)
		}
	}
	return nil
}

func (s *Server) startMetrics(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.ws.Metrics().Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	s.mu.Lock()
	s.metrics = srv
	s.metricsAddr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.diagnosticLogger.Errorf("metrics server: %v", err)
		}
	}()
	s.diagnosticLogger.Printf("Serving metrics on http://%s/metrics", s.metricsAddr)
	return nil
}

// MetricsAddr returns the address the metrics listener is bound to, or ""
func (s *Server) MetricsAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metricsAddr
}

// Shutdown stops the watcher and the metrics listener and closes the log
func (s *Server) Shutdown(ctx context.Context) error {
	s.diagnosticLogger.Printf("Shutting down MCP server...")

	s.mu.Lock()
	cancel, watcher, metrics := s.cancel, s.watcher, s.metrics
	s.cancel, s.watcher, s.metrics = nil, nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if watcher != nil {
		watcher.Wait()
	}

	var errs []error
	if metrics != nil {
		shutdownCtx, done := context.WithTimeout(ctx, MetricsShutdownTimeoutSeconds*time.Second)
		defer done()
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
	}

	s.diagnosticLogger.Printf("MCP server shutdown complete")
	if err := s.diagnosticLogger.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
