// Package logctx decorates slog records with request-scoped attributes carried
// on the context: the MCP session, the JSON-RPC message being handled and the
// tool call in flight.
package logctx

import (
	"context"
	"log/slog"
)

// Handler wraps an slog.Handler and appends context groups to each record.
type Handler struct {
	slog.Handler
}

// New wraps h. Passing a nil handler panics, matching slog.New.
func New(h slog.Handler) *slog.Logger {
	return slog.New(Handler{Handler: h})
}

func (h Handler) Handle(ctx context.Context, r slog.Record) error {
	if sd, ok := ctx.Value(sessionDataKey{}).(*SessionData); ok {
		r.AddAttrs(slog.Group("sess",
			slog.String("id", sd.SessionID),
			slog.String("user_id", sd.UserID),
			slog.String("protocol_version", sd.ProtocolVersion),
			slog.String("client", sd.ClientName),
		))
	}

	if msg, ok := ctx.Value(rpcMsg{}).(*RPCMessage); ok {
		r.AddAttrs(slog.Group("rpc",
			slog.String("method", msg.Method),
			slog.String("id", msg.ID),
			slog.String("type", msg.Type),
		))
	}

	if td, ok := ctx.Value(toolCallDataKey{}).(*ToolCallData); ok {
		r.AddAttrs(slog.Group("tool",
			slog.String("name", td.ToolName),
			slog.String("call_id", td.CallID),
		))
	}

	return h.Handler.Handle(ctx, r)
}

// WithAttrs and WithGroup keep the wrapper in place so derived loggers still
// pick up context groups.
func (h Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return Handler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h Handler) WithGroup(name string) slog.Handler {
	return Handler{Handler: h.Handler.WithGroup(name)}
}

type rpcMsg struct{}

type RPCMessage struct {
	Method string
	ID     string
	Type   string
}

func WithRPCMessage(ctx context.Context, msg *RPCMessage) context.Context {
	return context.WithValue(ctx, rpcMsg{}, msg)
}

type sessionDataKey struct{}

type SessionData struct {
	SessionID       string
	UserID          string
	ProtocolVersion string
	ClientName      string
}

func WithSessionData(ctx context.Context, data *SessionData) context.Context {
	return context.WithValue(ctx, sessionDataKey{}, data)
}

type toolCallDataKey struct{}

type ToolCallData struct {
	ToolName string
	CallID   string
}

func WithToolCallData(ctx context.Context, data *ToolCallData) context.Context {
	return context.WithValue(ctx, toolCallDataKey{}, data)
}

// ToolCallFrom returns the tool call data attached to ctx, if any.
func ToolCallFrom(ctx context.Context) (*ToolCallData, bool) {
	td, ok := ctx.Value(toolCallDataKey{}).(*ToolCallData)
	return td, ok
}
