// Package mcp contains the Model Context Protocol wire types used by this
// server: the initialize handshake, tool listing and invocation, logging level
// control and ping. Types mirror the JSON shape of the protocol with exported
// structs and json tags.
//
// The package holds no transport logic. The stdio package frames these types
// as JSON-RPC messages and mcpservice builds them from Go values.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsListMethod) so that dispatch code never spells them by hand.
//
// # Tool Schemas
//
// ToolInputSchema is deliberately a narrow subset of JSON Schema: an object
// with typed properties, enumerations, numeric bounds and defaults. That is the
// shape MCP clients render into tool-calling prompts.
package mcp
