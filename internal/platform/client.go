// Package platform is the Discord collaborator: the read side the resolver
// needs plus one mutation per tool. Every operation takes IDs that have
// already been resolved and a context that bounds the underlying REST call.
//
// Operations that Discord records in the audit log take a reason; an empty
// reason sends no X-Audit-Log-Reason header.
package platform

import (
	"context"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ggoodman/discord-mcp-go/internal/resolve"
)

// Client is implemented by *Discord and by test fakes.
type Client interface {
	resolve.Directory

	GuildWithCounts(ctx context.Context, guildID string) (*discordgo.Guild, error)
	EditGuild(ctx context.Context, guildID string, p GuildPatch, reason string) (*discordgo.Guild, error)

	Messages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error)
	SendMessage(ctx context.Context, channelID, content string) (*discordgo.Message, error)
	DeleteMessage(ctx context.Context, channelID, messageID, reason string) error
	// BulkDeleteMessages deletes up to count recent messages younger than
	// two weeks and reports how many were deleted.
	BulkDeleteMessages(ctx context.Context, channelID string, count int, reason string) (int, error)
	PinMessage(ctx context.Context, channelID, messageID string) error
	UnpinMessage(ctx context.Context, channelID, messageID string) error
	PinnedMessages(ctx context.Context, channelID string) ([]*discordgo.Message, error)

	CreateChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData, reason string) (*discordgo.Channel, error)
	EditChannel(ctx context.Context, channelID string, p ChannelPatch, reason string) (*discordgo.Channel, error)
	DeleteChannel(ctx context.Context, channelID, reason string) error
	SetChannelPermission(ctx context.Context, channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, reason string) error

	CreateRole(ctx context.Context, guildID string, p RolePatch, reason string) (*discordgo.Role, error)
	EditRole(ctx context.Context, guildID, roleID string, p RolePatch, reason string) (*discordgo.Role, error)
	DeleteRole(ctx context.Context, guildID, roleID, reason string) error
	AddMemberRole(ctx context.Context, guildID, userID, roleID, reason string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID, reason string) error

	// ListMembers returns the first limit members, at most 1000.
	ListMembers(ctx context.Context, guildID string, limit int) ([]*discordgo.Member, error)
	Kick(ctx context.Context, guildID, userID, reason string) error
	Ban(ctx context.Context, guildID, userID, reason string, deleteMessageDays int) error
	Unban(ctx context.Context, guildID, userID, reason string) error
	// Timeout disables communication until the given time; nil lifts it.
	Timeout(ctx context.Context, guildID, userID string, until *time.Time, reason string) error
	Bans(ctx context.Context, guildID string) ([]*discordgo.GuildBan, error)
	// SetNickname sets a member's nickname; "" resets it and userID "@me"
	// targets the bot itself.
	SetNickname(ctx context.Context, guildID, userID, nickname, reason string) error

	CreateWebhook(ctx context.Context, channelID, name, avatarURL, reason string) (*discordgo.Webhook, error)
	ChannelWebhooks(ctx context.Context, channelID string) ([]*discordgo.Webhook, error)
	GuildWebhooks(ctx context.Context, guildID string) ([]*discordgo.Webhook, error)
	Webhook(ctx context.Context, webhookID string) (*discordgo.Webhook, error)
	DeleteWebhook(ctx context.Context, webhookID, reason string) error

	CreateInvite(ctx context.Context, channelID string, inv discordgo.Invite, reason string) (*discordgo.Invite, error)
	GuildInvites(ctx context.Context, guildID string) ([]*discordgo.Invite, error)
	DeleteInvite(ctx context.Context, code, reason string) error

	// StartThread starts a thread in channelID, attached to messageID when
	// it is not empty.
	StartThread(ctx context.Context, channelID, messageID string, data discordgo.ThreadStart, reason string) (*discordgo.Channel, error)
	ArchivedThreads(ctx context.Context, channelID string) ([]*discordgo.Channel, error)
	CreateForumPost(ctx context.Context, channelID string, data discordgo.ThreadStart, content string) (*discordgo.Channel, error)

	SetPresence(ctx context.Context, activity discordgo.Activity, status discordgo.Status) error

	CreateEmoji(ctx context.Context, guildID, name, imageURL string, roles []string, reason string) (*discordgo.Emoji, error)
	DeleteEmoji(ctx context.Context, guildID, emojiID, reason string) error

	// CreateEvent creates a scheduled event; a non-empty imageURL is
	// downloaded and attached as the cover image.
	CreateEvent(ctx context.Context, guildID string, params discordgo.GuildScheduledEventParams, imageURL string) (*discordgo.GuildScheduledEvent, error)
	EditEvent(ctx context.Context, guildID, eventID string, p EventPatch) (*discordgo.GuildScheduledEvent, error)
	DeleteEvent(ctx context.Context, guildID, eventID string) error

	// AuditLog returns up to limit entries. Zero userID or action means no
	// filter.
	AuditLog(ctx context.Context, guildID, userID string, action discordgo.AuditLogAction, limit int) (*discordgo.GuildAuditLog, error)

	CreateAutoModRule(ctx context.Context, guildID string, rule discordgo.AutoModerationRule, reason string) (*discordgo.AutoModerationRule, error)
	EditAutoModRule(ctx context.Context, guildID, ruleID string, rule discordgo.AutoModerationRule, reason string) (*discordgo.AutoModerationRule, error)
	DeleteAutoModRule(ctx context.Context, guildID, ruleID, reason string) error
}
