package tools

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

type createEmojiArgs struct {
	Server string   `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Name   string   `json:"name" jsonschema:"required,description=Emoji name" validate:"required"`
	URL    string   `json:"url" jsonschema:"required,description=Image URL (PNG or GIF or JPEG up to 256KB)" validate:"required,url"`
	Roles  []string `json:"roles,omitempty" jsonschema:"description=Role names or IDs allowed to use the emoji"`
	Reason string   `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type deleteEmojiArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Emoji  string `json:"emoji" jsonschema:"required,description=Emoji name or ID" validate:"required"`
	Reason string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

func (h *handlers) emojiTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("list-emojis", h.listEmojis, describe("List custom emojis in a server", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("create-emoji", h.createEmoji, describe("Create a custom emoji from an image URL")...),
		mcpservice.NewTool("delete-emoji", h.deleteEmoji, describe("Delete a custom emoji", mcpservice.WithToolDestructive())...),
	}
}

func emojiURL(e *discordgo.Emoji) string {
	if e.Animated {
		return discordgo.EndpointEmojiAnimated(e.ID)
	}
	return discordgo.EndpointEmoji(e.ID)
}

type emojiView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Animated bool     `json:"animated"`
	URL      string   `json:"url"`
	Roles    []string `json:"roles"`
}

func (h *handlers) listEmojis(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[serverArgs]) error {
	g, err := h.guild(ctx, r.Args().Server)
	if err != nil {
		return err
	}
	emojis, err := h.c.GuildEmojis(ctx, g.ID)
	if err != nil {
		return err
	}
	var roles []*discordgo.Role
	for _, e := range emojis {
		if len(e.Roles) > 0 {
			if roles, err = h.c.GuildRoles(ctx, g.ID); err != nil {
				return err
			}
			break
		}
	}
	out := make([]emojiView, 0, len(emojis))
	for _, e := range emojis {
		out = append(out, emojiView{
			ID:       e.ID,
			Name:     e.Name,
			Animated: e.Animated,
			URL:      emojiURL(e),
			Roles:    roleNames(g, roles, e.Roles),
		})
	}
	return writeJSON(w, out)
}

func (h *handlers) createEmoji(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[createEmojiArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	var roleIDs []string
	for _, ident := range a.Roles {
		role, err := h.r.Role(ctx, g, ident)
		if err != nil {
			return err
		}
		roleIDs = append(roleIDs, role.ID)
	}
	e, err := h.c.CreateEmoji(ctx, g.ID, a.Name, a.URL, roleIDs, a.Reason)
	if err != nil {
		return err
	}
	return writef(w, "Emoji %q created. ID: %s", e.Name, e.ID)
}

func (h *handlers) deleteEmoji(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[deleteEmojiArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	e, err := h.r.Emoji(ctx, g, a.Emoji)
	if err != nil {
		return err
	}
	if err := h.c.DeleteEmoji(ctx, g.ID, e.ID, a.Reason); err != nil {
		return err
	}
	return writef(w, "Emoji %q deleted", e.Name)
}
