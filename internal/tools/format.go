package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ggoodman/discord-mcp-go/mcpservice"
)

// describe returns the options every command shares. Unknown argument keys
// are ignored rather than rejected.
func describe(desc string, extra ...mcpservice.ToolOption) []mcpservice.ToolOption {
	return append([]mcpservice.ToolOption{
		mcpservice.WithToolDescription(desc),
		mcpservice.WithToolAllowAdditionalProperties(true),
	}, extra...)
}

// writeJSON renders v with two-space indentation.
func writeJSON(w mcpservice.ToolResponseWriter, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return w.AppendText(string(b))
}

func writef(w mcpservice.ToolResponseWriter, format string, a ...any) error {
	return w.AppendText(fmt.Sprintf(format, a...))
}

// withReason appends ". Reason: r" when a reason was given.
func withReason(s, reason string) string {
	if reason == "" {
		return s
	}
	return s + ". Reason: " + reason
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func isoTimePtr(t *time.Time) *string {
	if t == nil || t.IsZero() {
		return nil
	}
	s := isoTime(*t)
	return &s
}

// createdAt derives an entity's creation time from its snowflake.
func createdAt(id string) string {
	ts, err := discordgo.SnowflakeTimestamp(id)
	if err != nil {
		return ""
	}
	return isoTime(ts)
}

// parseTime accepts RFC 3339 timestamps with or without fractional seconds.
func parseTime(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, invalidArg(field, fmt.Sprintf("Expected ISO 8601 timestamp, received %q", s))
	}
	return t, nil
}

func hexColor(c int) string {
	return fmt.Sprintf("#%06x", c)
}

func tag(u *discordgo.User) string {
	if u == nil {
		return ""
	}
	return u.String()
}

// isNone reports whether s asks to clear an association.
func isNone(s string) bool {
	return strings.EqualFold(s, "none")
}

// roleNames maps role IDs to names, skipping @everyone and unknown IDs.
func roleNames(g *discordgo.Guild, roles []*discordgo.Role, ids []string) []string {
	byID := make(map[string]string, len(roles))
	for _, r := range roles {
		byID[r.ID] = r.Name
	}
	out := []string{}
	for _, id := range ids {
		if id == g.ID {
			continue
		}
		if name, ok := byID[id]; ok && name != "@everyone" {
			out = append(out, name)
		}
	}
	return out
}

func (h *handlers) guild(ctx context.Context, server string) (*discordgo.Guild, error) {
	return h.r.Server(ctx, server)
}
