package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

type createWebhookArgs struct {
	Server  string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel string `json:"channel" jsonschema:"required,description=Channel name or ID" validate:"required"`
	Name    string `json:"name" jsonschema:"required,description=Webhook name" validate:"required"`
	Avatar  string `json:"avatar,omitempty" jsonschema:"description=Avatar image URL"`
	Reason  string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type listWebhooksArgs struct {
	Server  string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel string `json:"channel,omitempty" jsonschema:"description=Channel name or ID (lists all server webhooks if omitted)"`
}

type deleteWebhookArgs struct {
	Server    string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	WebhookID string `json:"webhookId" jsonschema:"required,description=Webhook ID to delete" validate:"required"`
	Reason    string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type createInviteArgs struct {
	Server    string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel   string `json:"channel" jsonschema:"required,description=Channel name or ID" validate:"required"`
	MaxAge    *int   `json:"maxAge,omitempty" jsonschema:"minimum=0,maximum=604800,description=Max age in seconds (0 = never expires; defaults to 86400)" validate:"omitempty,min=0,max=604800"`
	MaxUses   *int   `json:"maxUses,omitempty" jsonschema:"minimum=0,maximum=100,description=Max uses (0 = unlimited)" validate:"omitempty,min=0,max=100"`
	Temporary bool   `json:"temporary,omitempty" jsonschema:"description=Whether membership is temporary"`
	Unique    bool   `json:"unique,omitempty" jsonschema:"description=Whether to create a unique invite"`
	Reason    string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type deleteInviteArgs struct {
	Code   string `json:"code" jsonschema:"required,description=Invite code to delete" validate:"required"`
	Reason string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

// defaultInviteMaxAge is Discord's own expiry for invites created without
// max_age. ChannelInviteCreate always sends the field, so it is filled here.
const defaultInviteMaxAge = 86400

// ErrInviteUnsupported is returned for channels that cannot carry invites.
var ErrInviteUnsupported = errors.New("Cannot create invite for this channel type")

func (h *handlers) webhookTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("create-webhook", h.createWebhook, describe("Create a webhook for a channel")...),
		mcpservice.NewTool("list-webhooks", h.listWebhooks, describe("List webhooks in a server or channel", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("delete-webhook", h.deleteWebhook, describe("Delete a webhook", mcpservice.WithToolDestructive())...),
	}
}

func (h *handlers) inviteTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("create-invite", h.createInvite, describe("Create an invite link for a channel")...),
		mcpservice.NewTool("list-invites", h.listInvites, describe("List all invites in a server", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("delete-invite", h.deleteInvite, describe("Delete an invite", mcpservice.WithToolDestructive())...),
	}
}

func webhookURL(wh *discordgo.Webhook) string {
	if wh.Token == "" {
		return ""
	}
	return "https://discord.com/api/webhooks/" + wh.ID + "/" + wh.Token
}

func (h *handlers) createWebhook(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[createWebhookArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.TextChannel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	wh, err := h.c.CreateWebhook(ctx, ch.ID, a.Name, a.Avatar, a.Reason)
	if err != nil {
		return err
	}
	return writef(w, "Webhook %q created successfully.\nID: %s\nURL: %s", wh.Name, wh.ID, webhookURL(wh))
}

type webhookView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	ChannelID string  `json:"channelId"`
	URL       string  `json:"url"`
	Avatar    *string `json:"avatar"`
}

func (h *handlers) listWebhooks(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[listWebhooksArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	var hooks []*discordgo.Webhook
	if a.Channel != "" {
		ch, err := h.r.TextChannel(ctx, g, a.Channel)
		if err != nil {
			return err
		}
		hooks, err = h.c.ChannelWebhooks(ctx, ch.ID)
		if err != nil {
			return err
		}
	} else {
		hooks, err = h.c.GuildWebhooks(ctx, g.ID)
		if err != nil {
			return err
		}
	}
	out := make([]webhookView, 0, len(hooks))
	for _, wh := range hooks {
		v := webhookView{ID: wh.ID, Name: wh.Name, ChannelID: wh.ChannelID, URL: webhookURL(wh)}
		if wh.Avatar != "" {
			url := discordgo.EndpointCDN + "avatars/" + wh.ID + "/" + wh.Avatar + ".png"
			v.Avatar = &url
		}
		out = append(out, v)
	}
	return writeJSON(w, out)
}

func (h *handlers) deleteWebhook(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[deleteWebhookArgs]) error {
	a := r.Args()
	wh, err := h.c.Webhook(ctx, a.WebhookID)
	if err != nil {
		return err
	}
	if err := h.c.DeleteWebhook(ctx, wh.ID, a.Reason); err != nil {
		return err
	}
	return writef(w, "Webhook %q deleted successfully", wh.Name)
}

// invitable reports whether Discord accepts invites to channels of type t.
func invitable(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildText, discordgo.ChannelTypeGuildVoice, discordgo.ChannelTypeGuildNews,
		discordgo.ChannelTypeGuildStageVoice, discordgo.ChannelTypeGuildForum, discordgo.ChannelTypeGuildMedia:
		return true
	}
	return false
}

func (h *handlers) createInvite(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[createInviteArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.Channel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	if !invitable(ch.Type) {
		return ErrInviteUnsupported
	}
	params := discordgo.Invite{
		MaxAge:    defaultInviteMaxAge,
		Temporary: a.Temporary,
		Unique:    a.Unique,
	}
	if a.MaxAge != nil {
		params.MaxAge = *a.MaxAge
	}
	if a.MaxUses != nil {
		params.MaxUses = *a.MaxUses
	}
	inv, err := h.c.CreateInvite(ctx, ch.ID, params, a.Reason)
	if err != nil {
		return err
	}
	return writef(w, "Invite created: https://discord.gg/%s\nMax age: %s\nMax uses: %s", inv.Code, maxAgeText(inv.MaxAge), maxUsesText(inv.MaxUses))
}

func maxAgeText(seconds int) string {
	if seconds == 0 {
		return "Never"
	}
	return fmt.Sprintf("%d seconds", seconds)
}

func maxUsesText(n int) string {
	if n == 0 {
		return "Unlimited"
	}
	return fmt.Sprint(n)
}

type inviteView struct {
	Code        string  `json:"code"`
	URL         string  `json:"url"`
	ChannelName *string `json:"channelName,omitempty"`
	Inviter     *string `json:"inviter,omitempty"`
	Uses        int     `json:"uses"`
	MaxUses     any     `json:"maxUses"`
	MaxAge      string  `json:"maxAge"`
	Temporary   bool    `json:"temporary"`
	CreatedAt   string  `json:"createdAt"`
}

func (h *handlers) listInvites(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[serverArgs]) error {
	g, err := h.guild(ctx, r.Args().Server)
	if err != nil {
		return err
	}
	invites, err := h.c.GuildInvites(ctx, g.ID)
	if err != nil {
		return err
	}
	out := make([]inviteView, 0, len(invites))
	for _, inv := range invites {
		v := inviteView{
			Code:      inv.Code,
			URL:       "https://discord.gg/" + inv.Code,
			Uses:      inv.Uses,
			MaxAge:    maxAgeText(inv.MaxAge),
			Temporary: inv.Temporary,
			CreatedAt: isoTime(inv.CreatedAt),
		}
		if inv.MaxUses == 0 {
			v.MaxUses = "Unlimited"
		} else {
			v.MaxUses = inv.MaxUses
		}
		if inv.Channel != nil {
			name := inv.Channel.Name
			v.ChannelName = &name
		}
		if inv.Inviter != nil {
			t := tag(inv.Inviter)
			v.Inviter = &t
		}
		out = append(out, v)
	}
	return writeJSON(w, out)
}

func (h *handlers) deleteInvite(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[deleteInviteArgs]) error {
	a := r.Args()
	if err := h.c.DeleteInvite(ctx, a.Code, a.Reason); err != nil {
		return err
	}
	return writef(w, "Invite %s deleted successfully", a.Code)
}
