package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ggoodman/discord-mcp-go/internal/jsonrpc"
	"github.com/ggoodman/discord-mcp-go/internal/logctx"
	"github.com/ggoodman/discord-mcp-go/mcp"
	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

// maxLineSize bounds a single inbound JSON-RPC message.
const maxLineSize = 8 << 20

var errNotInitialized = jsonrpc.NewError(jsonrpc.ErrorCodeInvalidRequest, "session not initialized")

// Handler is a single-connection stdio transport that reads newline-delimited
// JSON-RPC messages from an io.Reader and writes responses to an io.Writer. By
// default, it uses os.Stdin and os.Stdout. The peer is identified using a
// UserProvider, which defaults to the current OS user.
//
// The handler is transport-only; it delegates all MCP semantics to the provided
// mcpservice.ServerCapabilities.
type Handler struct {
	srv          mcpservice.ServerCapabilities
	r            io.Reader
	w            io.Writer
	l            *slog.Logger
	userProvider UserProvider

	writeMu sync.Mutex
	session *sessions.LocalSession
	ready   atomic.Bool
}

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(srv mcpservice.ServerCapabilities, opts ...Option) *Handler {
	h := &Handler{
		srv:          srv,
		r:            os.Stdin,
		w:            os.Stdout,
		l:            slog.Default(),
		userProvider: OSUserProvider{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve runs the stdio event loop until EOF on the reader or the context is
// canceled. It is safe to call at most once per Handler. Requests are handled
// concurrently; Serve waits for in-flight requests before returning.
func (h *Handler) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	userID, err := h.userProvider.CurrentUserID()
	if err != nil {
		h.l.WarnContext(ctx, "stdio.user.err", slog.String("err", err.Error()))
		userID = "unknown"
	}
	h.session = sessions.NewLocalSession(userID)

	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		br := bufio.NewReaderSize(h.r, 64<<10)
		for {
			line, err := readLine(br)
			if len(bytes.TrimSpace(line)) > 0 {
				select {
				case lines <- line:
				case <-ctx.Done():
					return
				}
			}
			if err != nil {
				readErr <- err
				return
			}
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	h.l.InfoContext(ctx, "stdio.serve.start", slog.String("session_id", h.session.SessionID()))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			if errors.Is(err, io.EOF) {
				h.l.InfoContext(ctx, "stdio.serve.eof")
				return nil
			}
			return fmt.Errorf("stdio: read: %w", err)
		case line := <-lines:
			h.dispatch(ctx, line, &wg)
		}
	}
}

// readLine reads one newline-terminated message, refusing lines longer than
// maxLineSize.
func readLine(br *bufio.Reader) ([]byte, error) {
	var buf []byte
	for {
		chunk, isPrefix, err := br.ReadLine()
		buf = append(buf, chunk...)
		if len(buf) > maxLineSize {
			return nil, fmt.Errorf("message exceeds %d bytes", maxLineSize)
		}
		if err != nil || !isPrefix {
			return buf, err
		}
	}
}

func (h *Handler) dispatch(ctx context.Context, line []byte, wg *sync.WaitGroup) {
	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal(line, &msg); err != nil {
		h.l.WarnContext(ctx, "stdio.decode.err", slog.String("err", err.Error()))
		h.write(ctx, jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "parse error", nil))
		return
	}

	switch msg.Type() {
	case "notification":
		h.handleNotification(ctx, msg.AsRequest())
	case "request":
		req := msg.AsRequest()
		wg.Add(1)
		go func() {
			defer wg.Done()
			h.handleRequest(ctx, req)
		}()
	default:
		// The server never issues requests of its own.
		h.l.DebugContext(ctx, "stdio.response.ignored", slog.String("id", msg.ID.String()))
	}
}

func (h *Handler) handleNotification(ctx context.Context, n *jsonrpc.Request) {
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: n.Method, Type: "notification"})
	switch mcp.Method(n.Method) {
	case mcp.InitializedNotificationMethod:
		h.l.DebugContext(ctx, "stdio.initialized")
	case mcp.CancelledNotificationMethod:
		// Tool calls run to completion once started.
		h.l.DebugContext(ctx, "stdio.cancelled.ignored")
	default:
		h.l.DebugContext(ctx, "stdio.notification.unhandled")
	}
}

func (h *Handler) handleRequest(ctx context.Context, req *jsonrpc.Request) {
	start := time.Now()
	ctx = h.sessionContext(ctx)
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{Method: req.Method, ID: req.ID.String(), Type: "request"})

	result, err := h.route(ctx, req)
	if err != nil {
		rpcErr := h.toRPCError(ctx, err)
		h.l.InfoContext(ctx, "stdio.handle_request.err",
			slog.String("code", rpcErr.Code.String()),
			slog.String("err", err.Error()),
			slog.Int64("dur_ms", time.Since(start).Milliseconds()),
		)
		h.write(ctx, jsonrpc.NewErrorResponse(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data))
		return
	}

	resp, err := jsonrpc.NewResultResponse(req.ID, result)
	if err != nil {
		h.l.ErrorContext(ctx, "stdio.encode.err", slog.String("err", err.Error()))
		h.write(ctx, jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "internal error", nil))
		return
	}
	h.l.DebugContext(ctx, "stdio.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	h.write(ctx, resp)
}

func (h *Handler) sessionContext(ctx context.Context) context.Context {
	client := h.session.Client()
	return logctx.WithSessionData(ctx, &logctx.SessionData{
		SessionID:       h.session.SessionID(),
		UserID:          h.session.UserID(),
		ProtocolVersion: h.session.ProtocolVersion(),
		ClientName:      client.Name,
	})
}

func (h *Handler) route(ctx context.Context, req *jsonrpc.Request) (any, error) {
	method := mcp.Method(req.Method)
	switch method {
	case mcp.InitializeMethod:
		return h.initialize(ctx, req.Params)
	case mcp.PingMethod:
		return mcp.EmptyResult{}, nil
	}

	if !h.ready.Load() {
		return nil, errNotInitialized
	}

	switch method {
	case mcp.ToolsListMethod:
		return h.listTools(ctx, req.Params)
	case mcp.ToolsCallMethod:
		return h.callTool(ctx, req.Params)
	case mcp.LoggingSetLevelMethod:
		return h.setLevel(ctx, req.Params)
	default:
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "method not found: %s", req.Method)
	}
}

func (h *Handler) initialize(ctx context.Context, params json.RawMessage) (*mcp.InitializeResult, error) {
	var req mcp.InitializeRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}

	version := mcp.LatestProtocolVersion
	if pref, ok, err := h.srv.GetPreferredProtocolVersion(ctx); err != nil {
		return nil, err
	} else if ok {
		version = pref
	} else if mcp.IsSupportedProtocolVersion(req.ProtocolVersion) {
		version = req.ProtocolVersion
	}

	info, err := h.srv.GetServerInfo(ctx, h.session)
	if err != nil {
		return nil, err
	}

	res := &mcp.InitializeResult{ProtocolVersion: version, ServerInfo: info}
	if instr, ok, err := h.srv.GetInstructions(ctx, h.session); err != nil {
		return nil, err
	} else if ok {
		res.Instructions = instr
	}
	if _, ok, err := h.srv.GetToolsCapability(ctx, h.session); err != nil {
		return nil, err
	} else if ok {
		res.Capabilities.Tools = &struct {
			ListChanged bool `json:"listChanged"`
		}{}
	}
	if _, ok, err := h.srv.GetLoggingCapability(ctx, h.session); err != nil {
		return nil, err
	} else if ok {
		res.Capabilities.Logging = &struct{}{}
	}

	h.session.Negotiate(version, sessions.ClientInfo{Name: req.ClientInfo.Name, Version: req.ClientInfo.Version})
	h.ready.Store(true)
	h.l.InfoContext(ctx, "stdio.initialize.ok",
		slog.String("client", req.ClientInfo.Name),
		slog.String("client_version", req.ClientInfo.Version),
		slog.String("protocol_version", version),
	)
	return res, nil
}

func (h *Handler) listTools(ctx context.Context, params json.RawMessage) (*mcp.ListToolsResult, error) {
	toolsCap, ok, err := h.srv.GetToolsCapability(ctx, h.session)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "tools not supported")
	}

	var req mcp.ListToolsRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	var cursor *string
	if req.Cursor != "" {
		cursor = &req.Cursor
	}
	page, err := toolsCap.ListTools(ctx, h.session, cursor)
	if err != nil {
		return nil, err
	}
	res := &mcp.ListToolsResult{Tools: page.Items}
	if page.NextCursor != nil {
		res.NextCursor = *page.NextCursor
	}
	return res, nil
}

func (h *Handler) callTool(ctx context.Context, params json.RawMessage) (*mcp.CallToolResult, error) {
	toolsCap, ok, err := h.srv.GetToolsCapability(ctx, h.session)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "tools not supported")
	}

	var req mcp.CallToolRequestReceived
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	res, err := toolsCap.CallTool(ctx, h.session, &req)
	if errors.Is(err, mcpservice.ErrToolNotFound) {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, "Unknown tool: %s", req.Name)
	}
	return res, err
}

func (h *Handler) setLevel(ctx context.Context, params json.RawMessage) (*mcp.EmptyResult, error) {
	logCap, ok, err := h.srv.GetLoggingCapability(ctx, h.session)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.ErrorCodeMethodNotFound, "logging not supported")
	}

	var req mcp.SetLevelRequest
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	if err := logCap.SetLevel(ctx, h.session, req.Level); err != nil {
		if errors.Is(err, mcpservice.ErrInvalidLoggingLevel) {
			return nil, jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, "invalid logging level: %q", req.Level)
		}
		return nil, err
	}
	return &mcp.EmptyResult{}, nil
}

func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return jsonrpc.NewError(jsonrpc.ErrorCodeInvalidParams, "invalid params: %v", err)
	}
	return nil
}

func (h *Handler) toRPCError(ctx context.Context, err error) *jsonrpc.Error {
	if rpcErr, ok := jsonrpc.AsError(err); ok {
		return rpcErr
	}
	h.l.ErrorContext(ctx, "stdio.internal.err", slog.String("err", err.Error()))
	return &jsonrpc.Error{Code: jsonrpc.ErrorCodeInternalError, Message: "internal error"}
}

func (h *Handler) write(ctx context.Context, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		h.l.ErrorContext(ctx, "stdio.encode.err", slog.String("err", err.Error()))
		return
	}
	b = append(b, '\n')

	h.writeMu.Lock()
	defer h.writeMu.Unlock()
	if _, err := h.w.Write(b); err != nil {
		h.l.ErrorContext(ctx, "stdio.write.err", slog.String("err", err.Error()))
	}
}
