package tools

import (
	"context"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/ggoodman/discord-mcp-go/internal/permissions"
	"github.com/ggoodman/discord-mcp-go/internal/platform"
	"github.com/ggoodman/discord-mcp-go/internal/resolve"
	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

var channelTypes = map[string]discordgo.ChannelType{
	"text":         discordgo.ChannelTypeGuildText,
	"voice":        discordgo.ChannelTypeGuildVoice,
	"category":     discordgo.ChannelTypeGuildCategory,
	"announcement": discordgo.ChannelTypeGuildNews,
	"forum":        discordgo.ChannelTypeGuildForum,
	"stage":        discordgo.ChannelTypeGuildStageVoice,
}

type createChannelArgs struct {
	Server           string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Name             string `json:"name" jsonschema:"required,description=Channel name" validate:"required"`
	Type             string `json:"type" jsonschema:"default=text,enum=text,enum=voice,enum=category,enum=announcement,enum=forum,enum=stage,description=Channel type" validate:"oneof=text voice category announcement forum stage"`
	Category         string `json:"category,omitempty" jsonschema:"description=Category name or ID to place the channel in"`
	Topic            string `json:"topic,omitempty" jsonschema:"description=Channel topic (for text channels)"`
	NSFW             *bool  `json:"nsfw,omitempty" jsonschema:"description=Whether the channel is NSFW"`
	Bitrate          *int   `json:"bitrate,omitempty" jsonschema:"minimum=8000,maximum=384000,description=Bitrate for voice channels (8000-96000 without boosts)" validate:"omitempty,min=8000,max=384000"`
	UserLimit        *int   `json:"userLimit,omitempty" jsonschema:"minimum=0,maximum=99,description=User limit for voice channels (0-99; 0 = unlimited)" validate:"omitempty,min=0,max=99"`
	RateLimitPerUser *int   `json:"rateLimitPerUser,omitempty" jsonschema:"minimum=0,maximum=21600,description=Slowmode in seconds (0-21600)" validate:"omitempty,min=0,max=21600"`
	Position         *int   `json:"position,omitempty" jsonschema:"minimum=0,description=Position of the channel" validate:"omitempty,min=0"`
	Reason           string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type editChannelArgs struct {
	Server           string  `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel          string  `json:"channel" jsonschema:"required,description=Channel name or ID to edit" validate:"required"`
	Name             string  `json:"name,omitempty" jsonschema:"description=New channel name"`
	Topic            *string `json:"topic,omitempty" jsonschema:"description=New channel topic"`
	NSFW             *bool   `json:"nsfw,omitempty" jsonschema:"description=Whether the channel is NSFW"`
	Bitrate          *int    `json:"bitrate,omitempty" jsonschema:"minimum=8000,maximum=384000,description=Bitrate for voice channels" validate:"omitempty,min=8000,max=384000"`
	UserLimit        *int    `json:"userLimit,omitempty" jsonschema:"minimum=0,maximum=99,description=User limit for voice channels" validate:"omitempty,min=0,max=99"`
	RateLimitPerUser *int    `json:"rateLimitPerUser,omitempty" jsonschema:"minimum=0,maximum=21600,description=Slowmode in seconds" validate:"omitempty,min=0,max=21600"`
	Position         *int    `json:"position,omitempty" jsonschema:"minimum=0,description=New position" validate:"omitempty,min=0"`
	Category         string  `json:"category,omitempty" jsonschema:"description=Category to move the channel to (use \"none\" to remove from category)"`
	Reason           string  `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type deleteChannelArgs struct {
	Server  string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel string `json:"channel" jsonschema:"required,description=Channel name or ID to delete" validate:"required"`
	Reason  string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type createCategoryArgs struct {
	Server   string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Name     string `json:"name" jsonschema:"required,description=Category name" validate:"required"`
	Position *int   `json:"position,omitempty" jsonschema:"minimum=0,description=Category position" validate:"omitempty,min=0"`
	Reason   string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type moveChannelArgs struct {
	Server   string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel  string `json:"channel" jsonschema:"required,description=Channel name or ID" validate:"required"`
	Category string `json:"category" jsonschema:"required,description=Category name or ID (use \"none\" to remove from category)" validate:"required"`
}

type channelPermissionsArgs struct {
	Server     string   `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel    string   `json:"channel" jsonschema:"required,description=Channel name or ID" validate:"required"`
	Target     string   `json:"target" jsonschema:"required,description=Role or member name/ID to set permissions for" validate:"required"`
	TargetType string   `json:"targetType" jsonschema:"default=role,enum=role,enum=member,description=Whether target is a role or member" validate:"oneof=role member"`
	Allow      []string `json:"allow,omitempty" jsonschema:"description=Permissions to allow (e.g. SEND_MESSAGES)"`
	Deny       []string `json:"deny,omitempty" jsonschema:"description=Permissions to deny (e.g. VIEW_CHANNEL)"`
	Reason     string   `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

func (h *handlers) channelTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("list-channels", h.listChannels, describe("List all channels in a Discord server", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("create-channel", h.createChannel, describe("Create a new channel in a Discord server")...),
		mcpservice.NewTool("edit-channel", h.editChannel, describe("Edit an existing channel")...),
		mcpservice.NewTool("delete-channel", h.deleteChannel, describe("Delete a channel from a Discord server", mcpservice.WithToolDestructive())...),
		mcpservice.NewTool("create-category", h.createCategory, describe("Create a new category in a Discord server")...),
		mcpservice.NewTool("move-channel-to-category", h.moveChannel, describe("Move a channel to a category")...),
		mcpservice.NewTool("set-channel-permissions", h.setChannelPermissions, describe("Set permissions for a role or member on a channel")...),
	}
}

type channelView struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Position   int     `json:"position"`
	ParentID   *string `json:"parentId"`
	ParentName *string `json:"parentName,omitempty"`
}

func (h *handlers) listChannels(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[serverArgs]) error {
	g, err := h.guild(ctx, r.Args().Server)
	if err != nil {
		return err
	}
	channels, err := h.c.GuildChannels(ctx, g.ID)
	if err != nil {
		return err
	}
	names := make(map[string]string, len(channels))
	for _, c := range channels {
		names[c.ID] = c.Name
	}
	sorted := append([]*discordgo.Channel(nil), channels...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })

	out := make([]channelView, 0, len(sorted))
	for _, c := range sorted {
		v := channelView{ID: c.ID, Name: c.Name, Type: resolve.ChannelTypeName(c.Type), Position: c.Position}
		if c.ParentID != "" {
			parent := c.ParentID
			v.ParentID = &parent
			if name, ok := names[parent]; ok {
				v.ParentName = &name
			}
		}
		out = append(out, v)
	}
	return writeJSON(w, out)
}

func (h *handlers) createChannel(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[createChannelArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	data := discordgo.GuildChannelCreateData{Name: a.Name, Type: channelTypes[a.Type], Topic: a.Topic}
	if a.Category != "" {
		cat, err := h.r.Category(ctx, g, a.Category)
		if err != nil {
			return err
		}
		data.ParentID = cat.ID
	}
	if a.NSFW != nil {
		data.NSFW = *a.NSFW
	}
	if a.Bitrate != nil {
		data.Bitrate = *a.Bitrate
	}
	if a.UserLimit != nil {
		data.UserLimit = *a.UserLimit
	}
	if a.RateLimitPerUser != nil {
		data.RateLimitPerUser = *a.RateLimitPerUser
	}
	if a.Position != nil {
		data.Position = *a.Position
	}
	ch, err := h.c.CreateChannel(ctx, g.ID, data, a.Reason)
	if err != nil {
		return err
	}
	return writef(w, "Channel %q (%s) created successfully. ID: %s", ch.Name, resolve.ChannelTypeName(ch.Type), ch.ID)
}

func (h *handlers) editChannel(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[editChannelArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.Channel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	p := platform.ChannelPatch{
		Topic:            platform.From(a.Topic),
		NSFW:             platform.From(a.NSFW),
		Bitrate:          platform.From(a.Bitrate),
		UserLimit:        platform.From(a.UserLimit),
		RateLimitPerUser: platform.From(a.RateLimitPerUser),
		Position:         platform.From(a.Position),
	}
	if a.Name != "" {
		p.Name = platform.Set(a.Name)
	}
	if a.Category != "" {
		if p.ParentID, err = h.parentField(ctx, g, a.Category); err != nil {
			return err
		}
	}
	if _, err := h.c.EditChannel(ctx, ch.ID, p, a.Reason); err != nil {
		return err
	}
	return writef(w, "Channel %q updated successfully", ch.Name)
}

// parentField resolves a category argument into a parent patch; "none"
// detaches the channel from its category.
func (h *handlers) parentField(ctx context.Context, g *discordgo.Guild, category string) (platform.Field[string], error) {
	if isNone(category) {
		return platform.Clear[string](), nil
	}
	cat, err := h.r.Category(ctx, g, category)
	if err != nil {
		return platform.Field[string]{}, err
	}
	return platform.Set(cat.ID), nil
}

func (h *handlers) deleteChannel(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[deleteChannelArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.Channel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	if err := h.c.DeleteChannel(ctx, ch.ID, a.Reason); err != nil {
		return err
	}
	return writef(w, "Channel %q deleted successfully", ch.Name)
}

func (h *handlers) createCategory(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[createCategoryArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	data := discordgo.GuildChannelCreateData{Name: a.Name, Type: discordgo.ChannelTypeGuildCategory}
	if a.Position != nil {
		data.Position = *a.Position
	}
	cat, err := h.c.CreateChannel(ctx, g.ID, data, a.Reason)
	if err != nil {
		return err
	}
	return writef(w, "Category %q created successfully. ID: %s", cat.Name, cat.ID)
}

func (h *handlers) moveChannel(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[moveChannelArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.Channel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	if isNone(a.Category) {
		if _, err := h.c.EditChannel(ctx, ch.ID, platform.ChannelPatch{ParentID: platform.Clear[string]()}, ""); err != nil {
			return err
		}
		return writef(w, "Channel %q removed from its category", ch.Name)
	}
	cat, err := h.r.Category(ctx, g, a.Category)
	if err != nil {
		return err
	}
	if _, err := h.c.EditChannel(ctx, ch.ID, platform.ChannelPatch{ParentID: platform.Set(cat.ID)}, ""); err != nil {
		return err
	}
	return writef(w, "Channel %q moved to category %q", ch.Name, cat.Name)
}

func (h *handlers) setChannelPermissions(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[channelPermissionsArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.Channel(ctx, g, a.Channel)
	if err != nil {
		return err
	}

	var (
		targetID   string
		targetType discordgo.PermissionOverwriteType
	)
	if a.TargetType == "member" {
		m, err := h.r.Member(ctx, g, a.Target)
		if err != nil {
			return err
		}
		targetID, targetType = m.User.ID, discordgo.PermissionOverwriteTypeMember
	} else {
		role, err := h.r.Role(ctx, g, a.Target)
		if err != nil {
			return err
		}
		targetID, targetType = role.ID, discordgo.PermissionOverwriteTypeRole
	}

	var allow, deny int64
	for _, ow := range ch.PermissionOverwrites {
		if ow.ID == targetID {
			allow, deny = ow.Allow, ow.Deny
			break
		}
	}
	allow, deny = permissions.ApplyOverwrite(allow, deny, permissions.ToOverwriteOptions(a.Allow, a.Deny))
	if err := h.c.SetChannelPermission(ctx, ch.ID, targetID, targetType, allow, deny, a.Reason); err != nil {
		return err
	}
	return writef(w, "Permissions updated for %s %q on channel %q. Allowed: %s, Denied: %s",
		a.TargetType, a.Target, ch.Name, listOrNone(a.Allow), listOrNone(a.Deny))
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ", ")
}
