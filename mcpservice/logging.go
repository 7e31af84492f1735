package mcpservice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/ggoodman/discord-mcp-go/mcp"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

// ErrInvalidLoggingLevel indicates the provided level is not one of the
// protocol-defined LoggingLevel values.
var ErrInvalidLoggingLevel = errors.New("invalid logging level")

// NewSlogLevelVarLogging returns a LoggingCapability that maps MCP LoggingLevel
// to a provided slog.LevelVar. This adjusts process-wide slog level when used
// with handlers created from the same LevelVar.
func NewSlogLevelVarLogging(lv *slog.LevelVar) LoggingCapability {
	return &slogLevelVarLogging{lv: lv}
}

type slogLevelVarLogging struct{ lv *slog.LevelVar }

func (l *slogLevelVarLogging) SetLevel(ctx context.Context, _ sessions.Session, level mcp.LoggingLevel) error {
	slogLevel, ok := SlogLevel(level)
	if !ok {
		return ErrInvalidLoggingLevel
	}
	if l.lv != nil {
		l.lv.Set(slogLevel)
	}
	return nil
}

// SlogLevel maps an MCP logging level onto the nearest slog level. Notice folds
// into info and everything above error folds into error.
func SlogLevel(level mcp.LoggingLevel) (slog.Level, bool) {
	switch level {
	case mcp.LoggingLevelDebug:
		return slog.LevelDebug, true
	case mcp.LoggingLevelInfo, mcp.LoggingLevelNotice:
		return slog.LevelInfo, true
	case mcp.LoggingLevelWarning:
		return slog.LevelWarn, true
	case mcp.LoggingLevelError, mcp.LoggingLevelCritical, mcp.LoggingLevelAlert, mcp.LoggingLevelEmergency:
		return slog.LevelError, true
	default:
		return 0, false
	}
}
