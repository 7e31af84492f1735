// Package tools is the Discord command catalog and the dispatcher that runs
// it. Every command is a typed mcpservice tool: the dispatcher looks the
// command up, binds and validates its arguments, lets the handler resolve
// identifiers and call the platform, and normalizes any failure into a single
// error message.
package tools

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ggoodman/discord-mcp-go/internal/logctx"
	"github.com/ggoodman/discord-mcp-go/internal/platform"
	"github.com/ggoodman/discord-mcp-go/internal/resolve"
	"github.com/ggoodman/discord-mcp-go/mcp"
	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

// Dispatcher serves the command catalog as an MCP tools capability.
type Dispatcher struct {
	tools   *mcpservice.ToolsContainer
	log     *slog.Logger
	metrics *Metrics
}

var _ mcpservice.ToolsCapability = (*Dispatcher)(nil)

type Option func(*dispatcherConfig)

type dispatcherConfig struct {
	log      *slog.Logger
	metrics  *Metrics
	disabled map[string]bool
}

func WithLogger(l *slog.Logger) Option {
	return func(c *dispatcherConfig) { c.log = l }
}

func WithMetrics(m *Metrics) Option {
	return func(c *dispatcherConfig) { c.metrics = m }
}

// WithDisabled removes the named commands from the catalog.
func WithDisabled(names ...string) Option {
	return func(c *dispatcherConfig) {
		for _, n := range names {
			c.disabled[n] = true
		}
	}
}

// New builds the catalog over c. The catalog is fixed for the lifetime of the
// Dispatcher. A nil c yields a catalog that can be listed but not called.
func New(c platform.Client, opts ...Option) *Dispatcher {
	cfg := dispatcherConfig{log: slog.Default(), disabled: map[string]bool{}}
	for _, opt := range opts {
		opt(&cfg)
	}
	d := &Dispatcher{log: cfg.log, metrics: cfg.metrics}

	var defs []mcpservice.StaticTool
	for _, t := range catalog(&handlers{c: c, r: resolve.New(c)}) {
		if cfg.disabled[t.Descriptor.Name] {
			continue
		}
		defs = append(defs, t.Wrap(d.instrument))
	}
	d.tools = mcpservice.NewToolsContainer(defs...)
	// One page holds the whole catalog.
	d.tools.SetPageSize(len(defs))
	return d
}

// Descriptors lists the catalog in registration order.
func (d *Dispatcher) Descriptors() []mcp.Tool { return d.tools.Snapshot() }

func (d *Dispatcher) ListTools(ctx context.Context, session sessions.Session, cursor *string) (mcpservice.Page[mcp.Tool], error) {
	return d.tools.ListTools(ctx, session, cursor)
}

// CallTool runs a command. Unknown names are returned as an error wrapping
// mcpservice.ErrToolNotFound; every other failure becomes an IsError result.
func (d *Dispatcher) CallTool(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	res, err := d.tools.Call(ctx, session, req)
	if err != nil && Classify(err) == UnknownCommand {
		name := ""
		if req != nil {
			name = req.Name
		}
		d.metrics.observe(name, UnknownCommand.String(), 0)
		d.log.WarnContext(ctx, "tools.call.unknown", slog.String("tool", name))
	}
	return res, err
}

func (d *Dispatcher) instrument(tool mcp.Tool, next mcpservice.ToolHandler) mcpservice.ToolHandler {
	return func(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
		ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: tool.Name, CallID: uuid.NewString()})
		start := time.Now()

		res, err := next(ctx, session, req)
		dur := time.Since(start)
		if err != nil {
			code := Classify(err)
			if kind, ok := failedKind(err); ok {
				d.metrics.resolveFailure(kind.String(), code)
			}
			d.metrics.observe(tool.Name, code.String(), dur)
			d.log.InfoContext(ctx, "tools.call.err",
				slog.String("code", code.String()),
				slog.String("err", err.Error()),
				slog.Int64("dur_ms", dur.Milliseconds()),
			)
			return mcpservice.Errorf("%s", message(err)), nil
		}

		d.metrics.observe(tool.Name, "ok", dur)
		d.log.DebugContext(ctx, "tools.call.ok", slog.Int64("dur_ms", dur.Milliseconds()))
		return res, nil
	}
}

// handlers carries what every command needs. Each group of commands lives in
// its own file as methods on handlers.
type handlers struct {
	c platform.Client
	r *resolve.Resolver
}

func catalog(h *handlers) []mcpservice.StaticTool {
	var out []mcpservice.StaticTool
	for _, group := range [][]mcpservice.StaticTool{
		h.messageTools(),
		h.serverTools(),
		h.channelTools(),
		h.roleTools(),
		h.memberTools(),
		h.webhookTools(),
		h.inviteTools(),
		h.threadTools(),
		h.forumTools(),
		h.botTools(),
		h.emojiTools(),
		h.eventTools(),
		h.moderationTools(),
	} {
		out = append(out, group...)
	}
	return out
}
