package tools

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

type botNicknameArgs struct {
	Server   string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Nickname string `json:"nickname,omitempty" jsonschema:"description=New nickname (omit to clear)"`
}

type botActivityArgs struct {
	Type   string `json:"type" jsonschema:"required,enum=playing,enum=watching,enum=listening,enum=competing,description=Activity type" validate:"required,oneof=playing watching listening competing"`
	Name   string `json:"name" jsonschema:"required,description=Activity name" validate:"required"`
	Status string `json:"status" jsonschema:"default=online,enum=online,enum=idle,enum=dnd,enum=invisible,description=Presence status" validate:"oneof=online idle dnd invisible"`
}

var activityTypes = map[string]discordgo.ActivityType{
	"playing":   discordgo.ActivityTypeGame,
	"listening": discordgo.ActivityTypeListening,
	"watching":  discordgo.ActivityTypeWatching,
	"competing": discordgo.ActivityTypeCompeting,
}

func (h *handlers) botTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("set-bot-nickname", h.setBotNickname, describe("Set or clear the bot's nickname in a server")...),
		mcpservice.NewTool("set-bot-activity", h.setBotActivity, describe("Set the bot's activity and presence status")...),
	}
}

func (h *handlers) setBotNickname(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[botNicknameArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	if err := h.c.SetNickname(ctx, g.ID, "@me", a.Nickname, ""); err != nil {
		return err
	}
	if a.Nickname == "" {
		return writef(w, "Bot nickname cleared")
	}
	return writef(w, "Bot nickname set to %q", a.Nickname)
}

func (h *handlers) setBotActivity(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[botActivityArgs]) error {
	a := r.Args()
	activity := discordgo.Activity{Name: a.Name, Type: activityTypes[a.Type]}
	if err := h.c.SetPresence(ctx, activity, discordgo.Status(a.Status)); err != nil {
		return err
	}
	return writef(w, "Bot activity set to %s %q with status %s", a.Type, a.Name, a.Status)
}
