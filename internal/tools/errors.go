package tools

import (
	"errors"

	"github.com/bwmarrin/discordgo"

	"github.com/ggoodman/discord-mcp-go/internal/resolve"
	"github.com/ggoodman/discord-mcp-go/mcpservice"
)

// Code is the normalized category of a failed tool call.
type Code int

const (
	// RemoteOperation covers everything that is not a resolution or input
	// failure: Discord rejected the request or could not be reached.
	RemoteOperation Code = iota
	InvalidArguments
	AmbiguousScope
	Ambiguous
	NotFound
	UnknownCommand
)

func (c Code) String() string {
	switch c {
	case InvalidArguments:
		return "invalid_arguments"
	case AmbiguousScope:
		return "ambiguous_scope"
	case Ambiguous:
		return "ambiguous"
	case NotFound:
		return "not_found"
	case UnknownCommand:
		return "unknown_command"
	default:
		return "remote_operation"
	}
}

// invalidArg reports input that passed schema validation but cannot be used,
// such as an unparseable time or colour. It reads like a binding failure.
func invalidArg(field, reason string) error {
	return &mcpservice.ArgumentsError{Violations: []mcpservice.Violation{{Field: field, Reason: reason}}}
}

// Classify maps an error returned by a tool handler to its Code.
func Classify(err error) Code {
	var argErr *mcpservice.ArgumentsError
	switch {
	case errors.As(err, &argErr):
		return InvalidArguments
	case errors.Is(err, resolve.ErrAmbiguousScope):
		return AmbiguousScope
	case errors.Is(err, resolve.ErrAmbiguous):
		return Ambiguous
	case errors.Is(err, resolve.ErrNotFound):
		return NotFound
	case errors.Is(err, mcpservice.ErrToolNotFound):
		return UnknownCommand
	}
	return RemoteOperation
}

// failedKind reports the entity kind a resolution error is about.
func failedKind(err error) (resolve.Kind, bool) {
	var nf *resolve.NotFoundError
	if errors.As(err, &nf) {
		return nf.Kind, true
	}
	var amb *resolve.AmbiguousError
	if errors.As(err, &amb) {
		return amb.Kind, true
	}
	if errors.Is(err, resolve.ErrAmbiguousScope) {
		return resolve.KindServer, true
	}
	return 0, false
}

// message renders err for the caller. Discord REST failures surface the
// platform's own message when it sent one.
func message(err error) string {
	var rest *discordgo.RESTError
	if errors.As(err, &rest) && rest.Message != nil && rest.Message.Message != "" {
		return rest.Message.Message
	}
	return err.Error()
}
