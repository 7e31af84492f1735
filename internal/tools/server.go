package tools

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/ggoodman/discord-mcp-go/internal/platform"
	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

type noArgs struct{}

type serverArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
}

type setServerNameArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Name   string `json:"name" jsonschema:"required,description=New server name" validate:"required"`
	Reason string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type editServerArgs struct {
	Server                string  `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Name                  string  `json:"name,omitempty" jsonschema:"description=New server name"`
	Description           *string `json:"description,omitempty" jsonschema:"description=Server description"`
	Icon                  string  `json:"icon,omitempty" jsonschema:"description=Icon image URL"`
	SystemChannel         string  `json:"systemChannel,omitempty" jsonschema:"description=System channel name or ID"`
	AFKChannel            string  `json:"afkChannel,omitempty" jsonschema:"description=AFK voice channel name or ID"`
	AFKTimeout            *int    `json:"afkTimeout,omitempty" jsonschema:"enum=60,enum=300,enum=900,enum=1800,enum=3600,description=AFK timeout in seconds" validate:"omitempty,oneof=60 300 900 1800 3600"`
	VerificationLevel     string  `json:"verificationLevel,omitempty" jsonschema:"enum=none,enum=low,enum=medium,enum=high,enum=very_high,description=Verification level" validate:"omitempty,oneof=none low medium high very_high"`
	DefaultNotifications  string  `json:"defaultNotifications,omitempty" jsonschema:"enum=all,enum=mentions,description=Default notification setting" validate:"omitempty,oneof=all mentions"`
	ExplicitContentFilter string  `json:"explicitContentFilter,omitempty" jsonschema:"enum=disabled,enum=members_without_roles,enum=all_members,description=Explicit content filter" validate:"omitempty,oneof=disabled members_without_roles all_members"`
	Reason                string  `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

var (
	verificationLevels = map[string]discordgo.VerificationLevel{
		"none":      discordgo.VerificationLevelNone,
		"low":       discordgo.VerificationLevelLow,
		"medium":    discordgo.VerificationLevelMedium,
		"high":      discordgo.VerificationLevelHigh,
		"very_high": discordgo.VerificationLevelVeryHigh,
	}
	notificationLevels = map[string]discordgo.MessageNotifications{
		"all":      discordgo.MessageNotificationsAllMessages,
		"mentions": discordgo.MessageNotificationsOnlyMentions,
	}
	contentFilterLevels = map[string]discordgo.ExplicitContentFilterLevel{
		"disabled":              discordgo.ExplicitContentFilterDisabled,
		"members_without_roles": discordgo.ExplicitContentFilterMembersWithoutRoles,
		"all_members":           discordgo.ExplicitContentFilterAllMembers,
	}
)

func (h *handlers) serverTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("list-servers", h.listServers, describe("List all Discord servers the bot is in", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("get-server-info", h.serverInfo, describe("Get detailed information about a Discord server", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("set-server-name", h.setServerName, describe("Change the server name")...),
		mcpservice.NewTool("edit-server", h.editServer, describe("Edit server settings (name, description, icon, verification, notifications and more)")...),
	}
}

type serverView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"memberCount"`
	OwnerID     string `json:"ownerId"`
}

func (h *handlers) listServers(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, _ *mcpservice.ToolRequest[noArgs]) error {
	guilds, err := h.c.Guilds(ctx)
	if err != nil {
		return err
	}
	out := make([]serverView, 0, len(guilds))
	for _, g := range guilds {
		out = append(out, serverView{ID: g.ID, Name: g.Name, MemberCount: g.MemberCount, OwnerID: g.OwnerID})
	}
	return writeJSON(w, out)
}

type serverInfoView struct {
	ID                       string                   `json:"id"`
	Name                     string                   `json:"name"`
	Description              string                   `json:"description"`
	MemberCount              int                      `json:"memberCount"`
	OwnerID                  string                   `json:"ownerId"`
	CreatedAt                string                   `json:"createdAt"`
	Icon                     string                   `json:"icon"`
	Banner                   string                   `json:"banner"`
	Features                 []discordgo.GuildFeature `json:"features"`
	VerificationLevel        int                      `json:"verificationLevel"`
	PremiumTier              int                      `json:"premiumTier"`
	PremiumSubscriptionCount int                      `json:"premiumSubscriptionCount"`
	ChannelCount             int                      `json:"channelCount"`
	RoleCount                int                      `json:"roleCount"`
	EmojiCount               int                      `json:"emojiCount"`
}

func (h *handlers) serverInfo(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[serverArgs]) error {
	g, err := h.guild(ctx, r.Args().Server)
	if err != nil {
		return err
	}
	full, err := h.c.GuildWithCounts(ctx, g.ID)
	if err != nil {
		return err
	}
	channels, err := h.c.GuildChannels(ctx, g.ID)
	if err != nil {
		return err
	}
	members := full.ApproximateMemberCount
	if members == 0 {
		members = g.MemberCount
	}
	features := full.Features
	if features == nil {
		features = []discordgo.GuildFeature{}
	}
	return writeJSON(w, serverInfoView{
		ID:                       full.ID,
		Name:                     full.Name,
		Description:              full.Description,
		MemberCount:              members,
		OwnerID:                  full.OwnerID,
		CreatedAt:                createdAt(full.ID),
		Icon:                     full.IconURL(""),
		Banner:                   full.BannerURL(""),
		Features:                 features,
		VerificationLevel:        int(full.VerificationLevel),
		PremiumTier:              int(full.PremiumTier),
		PremiumSubscriptionCount: full.PremiumSubscriptionCount,
		ChannelCount:             len(channels),
		RoleCount:                len(full.Roles),
		EmojiCount:               len(full.Emojis),
	})
}

func (h *handlers) setServerName(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[setServerNameArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	if _, err := h.c.EditGuild(ctx, g.ID, platform.GuildPatch{Name: platform.Set(a.Name)}, a.Reason); err != nil {
		return err
	}
	return writef(w, "Server name changed from %q to %q", g.Name, a.Name)
}

func (h *handlers) editServer(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[editServerArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	p := platform.GuildPatch{
		Description: platform.From(a.Description),
		AFKTimeout:  platform.From(a.AFKTimeout),
	}
	if a.Name != "" {
		p.Name = platform.Set(a.Name)
	}
	if a.Icon != "" {
		p.IconURL = platform.Set(a.Icon)
	}
	if a.SystemChannel != "" {
		ch, err := h.r.TextChannel(ctx, g, a.SystemChannel)
		if err != nil {
			return err
		}
		p.SystemChannelID = platform.Set(ch.ID)
	}
	if a.AFKChannel != "" {
		ch, err := h.r.Channel(ctx, g, a.AFKChannel)
		if err != nil {
			return err
		}
		p.AFKChannelID = platform.Set(ch.ID)
	}
	if v, ok := verificationLevels[a.VerificationLevel]; ok {
		p.VerificationLevel = platform.Set(v)
	}
	if v, ok := notificationLevels[a.DefaultNotifications]; ok {
		p.DefaultMessageNotifications = platform.Set(v)
	}
	if v, ok := contentFilterLevels[a.ExplicitContentFilter]; ok {
		p.ExplicitContentFilter = platform.Set(v)
	}
	if _, err := h.c.EditGuild(ctx, g.ID, p, a.Reason); err != nil {
		return err
	}
	return writef(w, "Server %q settings updated", g.Name)
}
