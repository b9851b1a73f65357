package mcp

// Server identity reported to clients
const (
	ServerName = "tagsense-mcp-server"

	// MCPProtocolVersion is the protocol revision the server was built against
	MCPProtocolVersion = "2025-06-18"
)

// Defaults applied when a tool call leaves a field out
const (
	// TreeDefaultFormat keeps tree output readable in a chat transcript
	TreeDefaultFormat = "text"

	// TreeDefaultMaxDepth of zero prints the whole tree
	TreeDefaultMaxDepth = 0

	// MetricsShutdownTimeoutSeconds bounds the metrics listener's graceful stop
	MetricsShutdownTimeoutSeconds = 5
)
