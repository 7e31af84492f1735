package mcpservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/ggoodman/discord-mcp-go/mcp"
	"github.com/ggoodman/discord-mcp-go/sessions"
	"github.com/invopop/jsonschema"
)

// ErrToolNotFound is returned by ToolsContainer.Call when no tool is
// registered under the requested name.
var ErrToolNotFound = errors.New("tool not found")

// ToolHandler is the function signature used to handle a tool invocation.
type ToolHandler func(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error)

// StaticTool pairs an MCP tool descriptor with its handler.
type StaticTool struct {
	Descriptor mcp.Tool
	Handler    ToolHandler
}

// Wrap returns a copy of the tool whose handler is decorated by mw.
func (t StaticTool) Wrap(mw func(mcp.Tool, ToolHandler) ToolHandler) StaticTool {
	return StaticTool{Descriptor: t.Descriptor, Handler: mw(t.Descriptor, t.Handler)}
}

// ToolRequest is the container for tool call input and request metadata.
// It is generic over the typed argument struct A.
type ToolRequest[A any] struct {
	name string
	raw  json.RawMessage
	args A
}

func (r *ToolRequest[A]) Name() string                  { return r.name }
func (r *ToolRequest[A]) RawArguments() json.RawMessage { return r.raw }
func (r *ToolRequest[A]) Args() A                       { return r.args }

// ToolOption configures NewTool behavior.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description               string
	title                     string
	annotations               *mcp.ToolAnnotations
	allowAdditionalProperties bool
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// WithToolTitle sets a human-friendly display title.
func WithToolTitle(title string) ToolOption {
	return func(c *toolConfig) { c.title = title }
}

// WithToolReadOnly marks the tool as free of side effects.
func WithToolReadOnly() ToolOption {
	return func(c *toolConfig) {
		c.annotations = &mcp.ToolAnnotations{ReadOnlyHint: true}
	}
}

// WithToolDestructive marks the tool as deleting or irreversibly changing state.
func WithToolDestructive() ToolOption {
	return func(c *toolConfig) {
		c.annotations = &mcp.ToolAnnotations{DestructiveHint: true}
	}
}

// WithToolAllowAdditionalProperties controls whether unknown fields are allowed.
// When false (default), binding reports each unknown key as a violation.
// When true, unknown keys are ignored.
func WithToolAllowAdditionalProperties(allow bool) ToolOption {
	return func(c *toolConfig) { c.allowAdditionalProperties = allow }
}

// NewTool constructs a StaticTool from a typed args struct A. It:
//   - Reflects a JSON Schema from A using invopop/jsonschema and down-converts
//     it to MCP's simplified ToolInputSchema
//   - Binds incoming arguments with Bind, which applies defaults and validates
//     `validate` struct tags
//   - Hands the typed request to fn along with a ToolResponseWriter
//
// Binding failures are returned as *ArgumentsError so that callers can
// classify them; errors returned by fn are passed through unchanged.
func NewTool[A any](name string, fn func(ctx context.Context, session sessions.Session, w ToolResponseWriter, r *ToolRequest[A]) error, opts ...ToolOption) StaticTool {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	desc := mcp.Tool{
		Name:        name,
		Title:       cfg.title,
		Description: cfg.description,
		InputSchema: reflectToMCPInputSchema[A](cfg.allowAdditionalProperties),
		Annotations: cfg.annotations,
	}

	handler := func(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
		a, err := Bind[A](req.Arguments, !cfg.allowAdditionalProperties)
		if err != nil {
			return nil, err
		}
		w := newToolResponseWriter(ctx)
		r := &ToolRequest[A]{name: req.Name, raw: req.Arguments, args: a}
		if err := fn(ctx, session, w, r); err != nil {
			return nil, err
		}
		return w.Result(), nil
	}

	return StaticTool{Descriptor: desc, Handler: handler}
}

// reflectToMCPInputSchema reflects a Go type A into a jsonschema.Schema, and
// converts it to the simplified mcp.ToolInputSchema. Only fields tagged
// `jsonschema:"required"` are listed as required.
func reflectToMCPInputSchema[A any](allowAdditional bool) mcp.ToolInputSchema {
	r := &jsonschema.Reflector{
		DoNotReference:             true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  allowAdditional,
		RequiredFromJSONSchemaTags: true,
	}
	s := r.Reflect(new(A))

	out := mcp.ToolInputSchema{
		Type:                 "object",
		Properties:           map[string]mcp.SchemaProperty{},
		AdditionalProperties: allowAdditional,
	}
	if s == nil || s.Type != "object" {
		return out
	}
	if s.Properties != nil {
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			out.Properties[el.Key] = toMCPProperty(el.Value)
		}
	}
	if len(s.Required) > 0 {
		out.Required = append([]string(nil), s.Required...)
	}
	return out
}

// toMCPProperty recursively maps a jsonschema.Schema to the simplified MCP SchemaProperty.
func toMCPProperty(s *jsonschema.Schema) mcp.SchemaProperty {
	if s == nil {
		return mcp.SchemaProperty{}
	}
	p := mcp.SchemaProperty{
		Type:        s.Type,
		Description: s.Description,
		Default:     s.Default,
		MinItems:    s.MinItems,
	}
	if len(s.Enum) > 0 {
		p.Enum = s.Enum
	}
	if f, err := s.Minimum.Float64(); err == nil && s.Minimum != "" {
		p.Minimum = &f
	}
	if f, err := s.Maximum.Float64(); err == nil && s.Maximum != "" {
		p.Maximum = &f
	}
	if s.Type == "array" && s.Items != nil {
		item := toMCPProperty(s.Items)
		p.Items = &item
	}
	if s.Type == "object" && s.Properties != nil {
		m := make(map[string]mcp.SchemaProperty, s.Properties.Len())
		for el := s.Properties.Oldest(); el != nil; el = el.Next() {
			m[el.Key] = toMCPProperty(el.Value)
		}
		p.Properties = m
		p.Required = append([]string(nil), s.Required...)
	}
	return p
}

// ToolsContainer owns a threadsafe set of tool descriptors and handlers and
// dispatches calls by name. Descriptors are listed in registration order.
type ToolsContainer struct {
	mu       sync.RWMutex
	tools    []mcp.Tool             // descriptors for listing
	handlers map[string]ToolHandler // name -> handler

	pageSize int // pagination size for ListTools (default 50)
}

var _ ToolsCapability = (*ToolsContainer)(nil)

// NewToolsContainer constructs a new ToolsContainer with the given tool definitions.
func NewToolsContainer(defs ...StaticTool) *ToolsContainer {
	st := &ToolsContainer{pageSize: 50}
	st.Replace(defs...)
	return st
}

// SetPageSize sets the pagination size used by ListTools.
// A non-positive value is ignored.
func (st *ToolsContainer) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	st.mu.Lock()
	st.pageSize = n
	st.mu.Unlock()
}

// Snapshot returns a copy of the current tool descriptors.
func (st *ToolsContainer) Snapshot() []mcp.Tool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]mcp.Tool, len(st.tools))
	copy(out, st.tools)
	return out
}

// Names returns the registered tool names in sorted order.
func (st *ToolsContainer) Names() []string {
	st.mu.RLock()
	defer st.mu.RUnlock()
	out := make([]string, 0, len(st.handlers))
	for name := range st.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Replace atomically replaces the entire tool set. A later definition with a
// duplicate name replaces the earlier one in place.
func (st *ToolsContainer) Replace(defs ...StaticTool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.tools = make([]mcp.Tool, 0, len(defs))
	st.handlers = make(map[string]ToolHandler, len(defs))
	index := make(map[string]int, len(defs))
	for _, d := range defs {
		name := d.Descriptor.Name
		if i, dup := index[name]; dup {
			st.tools[i] = d.Descriptor
		} else {
			index[name] = len(st.tools)
			st.tools = append(st.tools, d.Descriptor)
		}
		if d.Handler != nil {
			st.handlers[name] = d.Handler
		}
	}
}

// Call dispatches a request to the named tool if present. No handler runs
// for an unknown name.
func (st *ToolsContainer) Call(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	if req == nil || req.Name == "" {
		return nil, fmt.Errorf("%w: missing name", ErrToolNotFound)
	}
	st.mu.RLock()
	h := st.handlers[req.Name]
	st.mu.RUnlock()
	if h == nil {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, req.Name)
	}
	return h(ctx, session, req)
}

// ListTools implements ToolsCapability with offset-based pagination.
func (st *ToolsContainer) ListTools(ctx context.Context, session sessions.Session, cursor *string) (Page[mcp.Tool], error) {
	st.mu.RLock()
	all := make([]mcp.Tool, len(st.tools))
	copy(all, st.tools)
	pageSize := st.pageSize
	st.mu.RUnlock()

	start := parseCursor(cursor)
	if start > len(all) {
		start = 0
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	items := make([]mcp.Tool, end-start)
	copy(items, all[start:end])
	if end < len(all) {
		return NewPage(items, WithNextCursor[mcp.Tool](strconv.Itoa(end))), nil
	}
	return NewPage(items), nil
}

// CallTool implements ToolsCapability (delegates to Call).
func (st *ToolsContainer) CallTool(ctx context.Context, session sessions.Session, req *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
	return st.Call(ctx, session, req)
}

// TextResult is a small helper to build a text CallToolResult.
func TextResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: "text", Text: s}}}
}

// Errorf returns an error CallToolResult with a single text block and IsError=true.
func Errorf(format string, a ...any) *mcp.CallToolResult {
	msg := fmt.Sprintf(format, a...)
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: "text", Text: msg}}, IsError: true}
}
