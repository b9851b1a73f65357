package debug

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture enables tracing into a buffer and restores the package state after t
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	prevBuild, prevMode := EnableDebug, InMCPMode()
	t.Cleanup(func() {
		EnableDebug = prevBuild
		SetMCPMode(prevMode)
		SetDebugOutput(nil)
	})
	var buf bytes.Buffer
	SetDebugOutput(&buf)
	EnableDebug = "true"
	SetMCPMode(false)
	return &buf
}

func TestIsDebugEnabled(t *testing.T) {
	capture(t)
	t.Setenv("DEBUG", "")

	assert.True(t, IsDebugEnabled())

	EnableDebug = "false"
	assert.False(t, IsDebugEnabled())

	t.Setenv("DEBUG", "1")
	assert.True(t, IsDebugEnabled())

	SetMCPMode(true)
	assert.True(t, InMCPMode())
	assert.False(t, IsDebugEnabled(), "MCP mode always wins")
}

func TestLogHelpers(t *testing.T) {
	tests := []struct {
		name    string
		logFunc func(string, ...interface{})
		prefix  string
	}{
		{"LogSchema", LogSchema, "[DEBUG:SCHEMA] "},
		{"LogResolve", LogResolve, "[DEBUG:RESOLVE] "},
		{"LogComplete", LogComplete, "[DEBUG:COMPLETE] "},
		{"LogMCP", LogMCP, "[DEBUG:MCP] "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t)
			tt.logFunc("value %d\n", 7)
			assert.Equal(t, tt.prefix+"value 7\n", buf.String())
		})
	}
}

func TestLog_Suppressed(t *testing.T) {
	buf := capture(t)
	SetMCPMode(true)
	Log("TEST", "hidden")
	assert.Empty(t, buf.String())

	SetMCPMode(false)
	SetDebugOutput(nil)
	assert.NotPanics(t, func() { Log("TEST", "dropped") })
}

func TestFatal(t *testing.T) {
	buf := capture(t)
	EnableDebug = "false"

	err := Fatal("load: %s", "boom")
	require.Error(t, err)
	assert.Equal(t, "fatal error: load: boom", err.Error())
	assert.Equal(t, "[FATAL] load: boom", buf.String(), "written even with tracing off")

	buf.Reset()
	SetMCPMode(true)
	require.Error(t, Fatal("quiet"))
	assert.Empty(t, buf.String())
}
