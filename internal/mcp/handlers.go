package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/tagsense/internal/display"
	"github.com/standardbeagle/tagsense/internal/types"
	"github.com/standardbeagle/tagsense/internal/version"
	"github.com/standardbeagle/tagsense/internal/workspace"
)

// Position locates a caret by byte offset or by line and column
type Position struct {
	File   string `json:"file"`
	Offset *int   `json:"offset,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

var positionFields = []string{"file", "offset", "line", "column"}

type InfoParams struct {
	Tool string `json:"tool,omitempty"`
}

type CompleteParams struct {
	Position
	Typed string `json:"typed,omitempty"`
}

type RenameParams struct {
	Position
	NewName string `json:"new_name"`
	Write   bool   `json:"write,omitempty"`
}

type BindParams struct {
	Position
	Target  string `json:"target"`
	Element string `json:"element,omitempty"`
	Write   bool   `json:"write,omitempty"`
}

type TreeParams struct {
	File      string `json:"file"`
	Format    string `json:"format,omitempty"`
	MaxDepth  int    `json:"max_depth,omitempty"`
	ShowLines bool   `json:"show_lines,omitempty"`
}

// decodeParams unmarshals tool arguments into dst without rejecting unknown
// fields; those come back as warnings
func decodeParams(data json.RawMessage, dst interface{}, fields ...string) ([]string, error) {
	known := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		known[f] = struct{}{}
	}
	_, unknown, err := collectUnknownFields(data, known)
	if err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, dst); err != nil {
			return nil, fmt.Errorf("invalid parameters: %w", err)
		}
	}
	return warningMessages(unknown), nil
}

func withPosition(fields ...string) []string {
	return append(append([]string(nil), positionFields...), fields...)
}

// offset reads the document from disk, refreshing the cache, and converts
// the position to a byte offset in it
func (s *Server) offset(ctx context.Context, p Position) (int, error) {
	if p.File == "" {
		return 0, errors.New("file is required")
	}
	doc, err := s.ws.Open(ctx, p.File)
	if err != nil {
		return 0, err
	}
	if p.Offset != nil {
		return *p.Offset, nil
	}
	if p.Line == 0 {
		return 0, errors.New("offset or line is required")
	}
	col := p.Column
	if col == 0 {
		col = 1
	}
	text := doc.Text()
	off, ok := types.OffsetAt(types.LineOffsets(text), len(text), types.LineColumn{Line: p.Line, Column: col})
	if !ok {
		return 0, fmt.Errorf("line %d column %d outside document", p.Line, col)
	}
	return off, nil
}

func (s *Server) handleInfo(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params InfoParams
	warnings, err := decodeParams(req.Params.Arguments, &params, "tool")
	if err != nil {
		return createSmartErrorResponse("info", err, map[string]interface{}{
			"help": "Use: {\"tool\": \"complete_tag\"} or {\"tool\": \"status\"} or {\"tool\": \"version\"}",
		})
	}

	tool := strings.ToLower(strings.TrimSpace(params.Tool))
	switch tool {
	case "":
		tools := make(map[string]string)
		for name := range s.handlers {
			if help := getOperationHelp(name); help != "" {
				tools[name] = help
			}
		}
		return createResponseWithWarnings(map[string]interface{}{
			"server":    ServerName,
			"project":   s.cfg.Project.Name,
			"tools":     tools,
			"positions": "Give either 'offset' (0-based byte offset) or 'line' and 'column' (1-based)",
		}, warnings)

	case "version":
		return createResponseWithWarnings(map[string]interface{}{
			"server_name":    ServerName,
			"server_version": version.FullInfo(),
			"build_id":       version.BuildID(),
			"mcp_version":    MCPProtocolVersion,
			"go_version":     runtime.Version(),
			"platform":       runtime.GOOS + "/" + runtime.GOARCH,
		}, warnings)

	case "status":
		return createResponseWithWarnings(s.ws.Status(), warnings)
	}

	help := getOperationHelp(tool)
	if help == "" {
		return createErrorResponse("info", fmt.Errorf("unknown tool: %s", params.Tool))
	}
	return createResponseWithWarnings(map[string]interface{}{
		"name":        tool,
		"description": help,
		"related":     getRelatedOperations(tool),
	}, warnings)
}

func (s *Server) handleComplete(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params CompleteParams
	warnings, err := decodeParams(req.Params.Arguments, &params, withPosition("typed")...)
	if err != nil {
		return createErrorResponse("complete_tag", err)
	}
	offset, err := s.offset(ctx, params.Position)
	if err != nil {
		return createErrorResponse("complete_tag", err)
	}

	result, err := s.ws.Complete(ctx, params.File, offset, params.Typed)
	if err != nil {
		return createErrorResponse("complete_tag", err)
	}
	return createResponseWithWarnings(result, warnings)
}

func (s *Server) handleResolve(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params Position
	warnings, err := decodeParams(req.Params.Arguments, &params, positionFields...)
	if err != nil {
		return createErrorResponse("resolve_tag", err)
	}
	offset, err := s.offset(ctx, params)
	if err != nil {
		return createErrorResponse("resolve_tag", err)
	}

	loc, err := s.ws.Resolve(ctx, params.File, offset)
	if err != nil {
		return createErrorResponse("resolve_tag", err)
	}
	return createResponseWithWarnings(map[string]interface{}{
		"resolved": loc != nil,
		"location": loc,
	}, warnings)
}

func (s *Server) handleRename(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params RenameParams
	warnings, err := decodeParams(req.Params.Arguments, &params, withPosition("new_name", "write")...)
	if err != nil {
		return createErrorResponse("rename_tag", err)
	}
	if params.NewName == "" {
		return createErrorResponse("rename_tag", errors.New("new_name is required"))
	}
	offset, err := s.offset(ctx, params.Position)
	if err != nil {
		return createErrorResponse("rename_tag", err)
	}

	edit, err := s.ws.Rename(ctx, params.File, offset, params.NewName)
	if err != nil {
		return createErrorResponse("rename_tag", err)
	}
	return s.editResponse("rename_tag", edit, params.Write, warnings)
}

func (s *Server) handleBind(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params BindParams
	warnings, err := decodeParams(req.Params.Arguments, &params, withPosition("target", "element", "write")...)
	if err != nil {
		return createErrorResponse("bind_tag", err)
	}
	if params.Target == "" {
		return createErrorResponse("bind_tag", errors.New("target is required"))
	}
	offset, err := s.offset(ctx, params.Position)
	if err != nil {
		return createErrorResponse("bind_tag", err)
	}

	edit, err := s.ws.Bind(ctx, params.File, offset, params.Target, params.Element)
	if err != nil {
		return createErrorResponse("bind_tag", err)
	}
	return s.editResponse("bind_tag", edit, params.Write, warnings)
}

func (s *Server) editResponse(operation string, edit *workspace.Edit, write bool, warnings []string) (*mcp.CallToolResult, error) {
	written := false
	if write && edit.Changed {
		if err := os.WriteFile(edit.Path, []byte(edit.Text), 0o644); err != nil {
			return createErrorResponse(operation, err)
		}
		written = true
	}
	return createResponseWithWarnings(map[string]interface{}{
		"edit":    edit,
		"written": written,
	}, warnings)
}

func (s *Server) handleAvailableTags(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params Position
	warnings, err := decodeParams(req.Params.Arguments, &params, positionFields...)
	if err != nil {
		return createErrorResponse("available_tags", err)
	}
	offset, err := s.offset(ctx, params)
	if err != nil {
		return createErrorResponse("available_tags", err)
	}

	tags, err := s.ws.AvailableTags(ctx, params.File, offset)
	if err != nil {
		return createErrorResponse("available_tags", err)
	}
	return createResponseWithWarnings(map[string]interface{}{
		"count": len(tags),
		"tags":  tags,
	}, warnings)
}

func (s *Server) handleTagTree(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := TreeParams{Format: TreeDefaultFormat, MaxDepth: TreeDefaultMaxDepth}
	warnings, err := decodeParams(req.Params.Arguments, &params, "file", "format", "max_depth", "show_lines")
	if err != nil {
		return createErrorResponse("tag_tree", err)
	}
	if params.File == "" {
		return createErrorResponse("tag_tree", errors.New("file is required"))
	}
	if _, err := s.ws.Open(ctx, params.File); err != nil {
		return createErrorResponse("tag_tree", err)
	}

	tree, err := s.ws.Tree(ctx, params.File)
	if err != nil {
		return createErrorResponse("tag_tree", err)
	}
	if params.Format == "json" {
		return createResponseWithWarnings(tree, warnings)
	}

	formatter := display.NewTreeFormatter(display.FormatterOptions{
		Format:    params.Format,
		ShowLines: params.ShowLines,
		MaxDepth:  params.MaxDepth,
	})
	result := createTextResponse(formatter.Format(tree))
	addWarningsToResponse(result, warnings)
	return result, nil
}
