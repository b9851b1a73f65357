package mcp

import (
	"context"
	"io"
	"net/http"
	"sort"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/tagsense/internal/config"
)

func TestNewServer(t *testing.T) {
	_, err := NewServer(nil)
	assert.Error(t, err)

	s, _ := newTestServer(t, nil)
	assert.NotNil(t, s.server)
	assert.NotNil(t, s.diagnosticLogger)
	assert.Equal(t, s.ws.Config(), s.cfg)

	var names []string
	for name := range s.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"available_tags", "bind_tag", "complete_tag", "info",
		"rename_tag", "resolve_tag", "tag_tree",
	}, names)
}

func TestPrepare_LoadsSchemas(t *testing.T) {
	s, _ := newTestServer(t, nil)
	status := s.ws.Status()
	assert.Len(t, status.Files, 1)
	assert.Contains(t, status.Namespaces, "urn:books")
	assert.Empty(t, s.MetricsAddr(), "metrics are off by default")
}

func TestRecoverFromPanic(t *testing.T) {
	s, _ := newTestServer(t, nil)

	result, err := s.recoverFromPanic("complete_tag", func() (*mcp.CallToolResult, error) {
		panic("boom")
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "internal error: boom")
}

func TestMetricsEndpoint(t *testing.T) {
	s, root := newTestServer(t, func(cfg *config.Config) {
		cfg.Server.MetricsAddr = "127.0.0.1:0"
	})
	require.NotEmpty(t, s.MetricsAddr())

	writeFile(t, root, "page.xml", `<library xmlns="urn:books"/>`)
	callTool(t, s, "tag_tree", map[string]interface{}{"file": "page.xml"})

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + s.MetricsAddr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "tagsense_schemas_files_loaded 1")
	assert.Contains(t, string(body), `tagsense_workspace_requests_total{op="tree",outcome="ok"} 1`)
}

func TestShutdown_Idempotent(t *testing.T) {
	s, _ := newTestServer(t, func(cfg *config.Config) {
		cfg.Watch.Enabled = true
		cfg.Watch.DebounceMs = 10
	})
	require.NoError(t, s.Shutdown(context.Background()))
	assert.NoError(t, s.Shutdown(context.Background()), "second shutdown is a no-op")
}
