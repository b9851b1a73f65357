package mcp

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	tagerrors "github.com/standardbeagle/tagsense/internal/errors"
	"github.com/standardbeagle/tagsense/internal/workspace"
)

// createJSONResponse creates a standardized JSON response for MCP tools
func createJSONResponse(data interface{}) (*mcp.CallToolResult, error) {
	content, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response data: %v", err)
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(content)},
		},
	}, nil
}

// createTextResponse returns preformatted text, used for tag trees
func createTextResponse(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}
}

// createErrorResponse creates a standardized error response for MCP tools
func createErrorResponse(operation string, err error) (*mcp.CallToolResult, error) {
	return createSmartErrorResponse(operation, err, nil)
}

// createSmartErrorResponse creates an error response with suggestions for
// the caller. Tool errors are reported in the result with IsError set, not
// as protocol errors, so the client model can see them and correct itself.
func createSmartErrorResponse(operation string, err error, context map[string]interface{}) (*mcp.CallToolResult, error) {
	errorData := map[string]interface{}{
		"success":   false,
		"error":     err.Error(),
		"operation": operation,
	}

	if suggestions := generateErrorSuggestions(operation, err); len(suggestions) > 0 {
		errorData["suggestions"] = suggestions
	}
	if help := getOperationHelp(operation); help != "" {
		errorData["help"] = help
	}
	if related := getRelatedOperations(operation); len(related) > 0 {
		errorData["related_operations"] = related
	}
	if len(context) > 0 {
		errorData["context"] = context
	}

	response, marshalErr := createJSONResponse(errorData)
	if marshalErr != nil {
		return nil, marshalErr
	}
	response.IsError = true
	return response, nil
}

// generateErrorSuggestions maps common failures to next steps
func generateErrorSuggestions(operation string, err error) []string {
	var suggestions []string

	var nameErr *tagerrors.InvalidNameError
	var bindErr *tagerrors.UnsupportedBindError
	switch {
	case errors.Is(err, workspace.ErrNoReference):
		suggestions = append(suggestions, "Place the offset (or line/column) on a tag name, e.g. just after '<' or '</'")
	case errors.Is(err, os.ErrNotExist):
		suggestions = append(suggestions, "Paths are resolved against the project root; check the file exists")
	case errors.As(err, &nameErr):
		suggestions = append(suggestions, "Tag names must be XML names, optionally with one 'prefix:'")
	case errors.As(err, &bindErr):
		suggestions = append(suggestions, "Bind to an element declaration inside a schema, or to a file by leaving 'element' empty")
	case strings.Contains(err.Error(), "is not declared"):
		suggestions = append(suggestions, "Use available_tags to list the declared elements")
	case strings.Contains(err.Error(), "outside document"):
		suggestions = append(suggestions, "Offsets are byte offsets from 0; line and column are 1-based")
	}

	if operation == "complete_tag" && len(suggestions) == 0 {
		suggestions = append(suggestions, "Check that the schemas are loaded with info {\"tool\": \"status\"}")
	}
	return suggestions
}

// getOperationHelp provides helpful information about each operation
func getOperationHelp(operation string) string {
	helpMap := map[string]string{
		"complete_tag":   "Lists the tag names that may be typed at a position, ranked against the typed text.",
		"resolve_tag":    "Finds the schema declaration, tag file or wildcard a tag name refers to.",
		"rename_tag":     "Renames the tag at a position, keeping or changing its namespace prefix.",
		"bind_tag":       "Makes a tag refer to another declaration or tag file.",
		"available_tags": "Lists the tags the schemas allow inside the tag at a position.",
		"tag_tree":       "Outlines the tags of a document.",
	}
	return helpMap[operation]
}

// getRelatedOperations suggests related operations that might be helpful
func getRelatedOperations(operation string) []string {
	relatedMap := map[string][]string{
		"complete_tag":   {"available_tags", "resolve_tag"},
		"resolve_tag":    {"complete_tag", "bind_tag"},
		"rename_tag":     {"resolve_tag", "bind_tag"},
		"bind_tag":       {"resolve_tag", "available_tags"},
		"available_tags": {"complete_tag", "tag_tree"},
		"tag_tree":       {"available_tags"},
	}
	return relatedMap[operation]
}

// addWarningsToResponse adds a "warnings" field to a JSON response, or
// appends the warnings as text when the content is not a JSON object
func addWarningsToResponse(result *mcp.CallToolResult, warnings []string) {
	if result == nil || len(warnings) == 0 || len(result.Content) == 0 {
		return
	}
	textContent, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		return
	}

	var responseData map[string]interface{}
	if err := json.Unmarshal([]byte(textContent.Text), &responseData); err == nil {
		responseData["warnings"] = warnings
		if updatedJSON, err := json.Marshal(responseData); err == nil {
			result.Content[0] = &mcp.TextContent{Text: string(updatedJSON)}
			return
		}
	}

	var sb strings.Builder
	sb.WriteString("\n\nWarnings:\n")
	for _, warning := range warnings {
		fmt.Fprintf(&sb, "- %s\n", warning)
	}
	textContent.Text += sb.String()
}

// createResponseWithWarnings creates an MCP response with warnings included
func createResponseWithWarnings(data interface{}, warnings []string) (*mcp.CallToolResult, error) {
	response, err := createJSONResponse(data)
	if err != nil {
		return nil, err
	}
	addWarningsToResponse(response, warnings)
	return response, nil
}
