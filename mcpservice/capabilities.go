// Package mcpservice defines the capability interfaces an MCP server exposes to
// a transport, together with the building blocks used to implement them: a
// typed tool constructor that reflects input schemas from Go structs, a tools
// container that dispatches calls by name, and a logging capability bound to a
// slog.LevelVar.
//
// Conventions used throughout this package:
//   - Capability discovery methods return (cap, ok, err). A false ok indicates
//     that the capability is not supported for the given session; err should be
//     reserved for transient or internal failures while determining support.
//   - All methods accept a context.Context which MUST be honored for
//     cancellation.
//   - Pagination uses the Page[T] type in this package; a nil cursor requests
//     the first page.
package mcpservice

import (
	"context"

	"github.com/ggoodman/discord-mcp-go/mcp"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

// ServerCapabilities is what a transport consults while serving a session.
type ServerCapabilities interface {
	// GetServerInfo returns static implementation information about the server
	// that is surfaced in initialize results (name, version, etc.).
	GetServerInfo(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, error)

	// GetPreferredProtocolVersion returns the server's preferred MCP protocol
	// version. If ok is false, the transport falls back to the client's
	// requested version when it is supported.
	GetPreferredProtocolVersion(ctx context.Context) (version string, ok bool, err error)

	// GetInstructions returns optional human-readable instructions that should be
	// surfaced to the client during initialization.
	GetInstructions(ctx context.Context, session sessions.Session) (instructions string, ok bool, err error)

	// GetToolsCapability returns the tools capability if supported by the server.
	GetToolsCapability(ctx context.Context, session sessions.Session) (cap ToolsCapability, ok bool, err error)

	// GetLoggingCapability returns the logging capability if supported by the server.
	GetLoggingCapability(ctx context.Context, session sessions.Session) (cap LoggingCapability, ok bool, err error)
}

// ToolsCapability defines the server's tools surface area. All methods MUST be
// safe for concurrent use.
type ToolsCapability interface {
	// ListTools returns a (possibly paginated) list of tools available to the session.
	ListTools(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Tool], error)

	// CallTool invokes a named tool. An unknown name yields an error wrapping
	// ErrToolNotFound; failures the caller can act on are reported as a result
	// with IsError set rather than as an error.
	CallTool(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)
}

// LoggingCapability allows the client to adjust the server's logging level.
type LoggingCapability interface {
	SetLevel(ctx context.Context, session sessions.Session, level mcp.LoggingLevel) error
}
