// Package debug writes component-tagged trace output while DEBUG is set.
// Nothing is written while serving MCP, where stdio carries the protocol.
package debug

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
)

// EnableDebug forces tracing on at build time:
//
//	go build -ldflags "-X github.com/standardbeagle/tagsense/internal/debug.EnableDebug=true"
var EnableDebug = "false"

var (
	mcpMode atomic.Bool

	outMu sync.Mutex
	out   io.Writer // nil drops everything
)

// SetMCPMode suppresses all output while enabled
func SetMCPMode(enabled bool) { mcpMode.Store(enabled) }

// InMCPMode reports whether SetMCPMode(true) is in effect
func InMCPMode() bool { return mcpMode.Load() }

// SetDebugOutput sets where trace lines go; nil disables output
func SetDebugOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	out = w
}

// IsDebugEnabled reports whether tracing is on: DEBUG=1|true or the build
// flag, never in MCP mode
func IsDebugEnabled() bool {
	if mcpMode.Load() {
		return false
	}
	if EnableDebug == "true" {
		return true
	}
	v := os.Getenv("DEBUG")
	return v == "1" || v == "true"
}

func write(prefix, format string, args ...interface{}) {
	outMu.Lock()
	defer outMu.Unlock()
	if out == nil {
		return
	}
	fmt.Fprintf(out, prefix+format, args...)
}

// Log writes one trace line tagged with component
func Log(component, format string, args ...interface{}) {
	if !IsDebugEnabled() {
		return
	}
	write("[DEBUG:"+component+"] ", format, args...)
}

func LogSchema(format string, args ...interface{})   { Log("SCHEMA", format, args...) }
func LogResolve(format string, args ...interface{})  { Log("RESOLVE", format, args...) }
func LogComplete(format string, args ...interface{}) { Log("COMPLETE", format, args...) }
func LogMCP(format string, args ...interface{})      { Log("MCP", format, args...) }

// Fatal records msg unless in MCP mode and returns it as an error
func Fatal(format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if !mcpMode.Load() {
		write("[FATAL] ", "%s", msg)
	}
	return fmt.Errorf("fatal error: %s", msg)
}
