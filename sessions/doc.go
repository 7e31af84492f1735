// Package sessions defines the session abstraction shared by the transport and
// capability code. A session records the negotiated protocol version, the
// local principal and the connecting client's identity. Capability code treats
// the session as the unit of isolation when deciding what to expose.
//
// The stdio transport creates exactly one session per process, once the
// initialize handshake completes.
package sessions
