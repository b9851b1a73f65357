package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/tagsense/internal/config"
	"github.com/standardbeagle/tagsense/internal/workspace"
)

const booksXSD = `<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" targetNamespace="urn:books" elementFormDefault="qualified">
  <xs:element name="library">
    <xs:complexType><xs:sequence>
      <xs:element name="book"/>
      <xs:element name="owner"/>
    </xs:sequence></xs:complexType>
  </xs:element>
</xs:schema>`

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// newTestServer builds a prepared server over a project holding one schema
// and one tag directory. tweak may adjust the config before use.
func newTestServer(t *testing.T, tweak func(*config.Config)) (*Server, string) {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "schemas/books.xsd", booksXSD)
	writeFile(t, root, "tags/card.tag", "<div/>")

	cfg := config.Default(root)
	cfg.Schemas.TagDirs = []string{"tags"}
	cfg.Watch.Enabled = false
	if tweak != nil {
		tweak(cfg)
	}

	s, err := NewServer(workspace.New(cfg), WithDiagnosticLogger(NoOpLogger))
	require.NoError(t, err)
	require.NoError(t, s.prepare(context.Background()))
	t.Cleanup(func() { require.NoError(t, s.Shutdown(context.Background())) })
	return s, root
}

// callTool invokes a registered tool in process, bypassing the stdio transport
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	handler, ok := s.handlers[name]
	require.True(t, ok, "tool %s not registered", name)

	data, err := json.Marshal(args)
	require.NoError(t, err)
	req := &mcp.CallToolRequest{
		Params: &mcp.CallToolParamsRaw{Name: name, Arguments: data},
	}
	result, err := s.recoverFromPanic(name, func() (*mcp.CallToolResult, error) {
		return handler(context.Background(), req)
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "content is not text")
	return text.Text
}

func resultJSON(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	return out
}
