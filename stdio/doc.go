// Package stdio implements a single-connection MCP transport over stdin and
// stdout. The server runs as a subprocess of the MCP client, which writes one
// JSON-RPC message per line and reads responses the same way.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Auth             : OS user (lightweight implicit principal)
//	Sessions         : One in-memory session, created at startup
//	Transport        : Newline-delimited JSON-RPC 2.0
//
// Logging never touches stdout. Pass a logger writing to stderr, or rely on
// slog.Default which does.
//
// Example:
//
//	srv := mcpservice.NewServer(
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "discord-mcp", Version: "0.1.0"}),
//	    mcpservice.WithToolsCapability(tools),
//	)
//	h := stdio.NewHandler(srv)
//	if err := h.Serve(ctx); err != nil { ... }
package stdio
