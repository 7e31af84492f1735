package sessions

import (
	"sync"

	"github.com/google/uuid"
)

// Session represents a negotiated MCP session. Implementations MUST be safe
// for concurrent use.
type Session interface {
	SessionID() string
	UserID() string
	// ProtocolVersion is the negotiated MCP protocol version baked into the session.
	ProtocolVersion() string
	// Client identifies the peer as reported during initialize.
	Client() ClientInfo
}

// ClientInfo identifies the client connecting to the server.
type ClientInfo struct {
	Name    string
	Version string
}

var _ Session = (*LocalSession)(nil)

// LocalSession is an in-memory Session for single-connection transports.
type LocalSession struct {
	id     string
	userID string

	mu              sync.RWMutex
	protocolVersion string
	client          ClientInfo
}

// NewLocalSession creates a session with a fresh random ID.
func NewLocalSession(userID string) *LocalSession {
	return &LocalSession{id: uuid.NewString(), userID: userID}
}

func (s *LocalSession) SessionID() string { return s.id }

func (s *LocalSession) UserID() string { return s.userID }

func (s *LocalSession) ProtocolVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.protocolVersion
}

func (s *LocalSession) Client() ClientInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client
}

// Negotiate records the outcome of the initialize handshake.
func (s *LocalSession) Negotiate(protocolVersion string, client ClientInfo) {
	s.mu.Lock()
	s.protocolVersion = protocolVersion
	s.client = client
	s.mu.Unlock()
}
