package mcpservice

import (
	"context"

	"github.com/ggoodman/discord-mcp-go/mcp"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

// ServerOption configures a concrete ServerCapabilities implementation.
type ServerOption func(*server)

type server struct {
	info            mcp.ImplementationInfo
	protocolVersion string
	instructions    *string

	toolsCap   ToolsCapability
	loggingCap LoggingCapability
}

// NewServer builds a ServerCapabilities using functional options.
func NewServer(opts ...ServerOption) ServerCapabilities {
	s := &server{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithServerInfo sets the server info reported during initialize.
func WithServerInfo(info mcp.ImplementationInfo) ServerOption {
	return func(s *server) { s.info = info }
}

// WithPreferredProtocolVersion pins the protocol version offered to clients.
func WithPreferredProtocolVersion(version string) ServerOption {
	return func(s *server) { s.protocolVersion = version }
}

// WithInstructions sets human-readable instructions returned during initialize.
// An empty string leaves instructions unset.
func WithInstructions(instr string) ServerOption {
	return func(s *server) {
		if instr != "" {
			s.instructions = &instr
		}
	}
}

// WithToolsCapability wires a ToolsCapability used for all sessions.
func WithToolsCapability(cap ToolsCapability) ServerOption {
	return func(s *server) { s.toolsCap = cap }
}

// WithLoggingCapability wires a LoggingCapability used for all sessions.
func WithLoggingCapability(cap LoggingCapability) ServerOption {
	return func(s *server) { s.loggingCap = cap }
}

func (s *server) GetServerInfo(ctx context.Context, session sessions.Session) (mcp.ImplementationInfo, error) {
	return s.info, nil
}

func (s *server) GetPreferredProtocolVersion(ctx context.Context) (string, bool, error) {
	if s.protocolVersion != "" {
		return s.protocolVersion, true, nil
	}
	return "", false, nil
}

func (s *server) GetInstructions(ctx context.Context, session sessions.Session) (string, bool, error) {
	if s.instructions != nil {
		return *s.instructions, true, nil
	}
	return "", false, nil
}

func (s *server) GetToolsCapability(ctx context.Context, session sessions.Session) (ToolsCapability, bool, error) {
	if s.toolsCap != nil {
		return s.toolsCap, true, nil
	}
	return nil, false, nil
}

func (s *server) GetLoggingCapability(ctx context.Context, session sessions.Session) (LoggingCapability, bool, error) {
	if s.loggingCap != nil {
		return s.loggingCap, true, nil
	}
	return nil, false, nil
}
