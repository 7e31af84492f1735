package platform

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

var auditActions = []struct {
	name   string
	action discordgo.AuditLogAction
}{
	{"GuildUpdate", discordgo.AuditLogActionGuildUpdate},
	{"ChannelCreate", discordgo.AuditLogActionChannelCreate},
	{"ChannelUpdate", discordgo.AuditLogActionChannelUpdate},
	{"ChannelDelete", discordgo.AuditLogActionChannelDelete},
	{"ChannelOverwriteCreate", discordgo.AuditLogActionChannelOverwriteCreate},
	{"ChannelOverwriteUpdate", discordgo.AuditLogActionChannelOverwriteUpdate},
	{"ChannelOverwriteDelete", discordgo.AuditLogActionChannelOverwriteDelete},
	{"MemberKick", discordgo.AuditLogActionMemberKick},
	{"MemberPrune", discordgo.AuditLogActionMemberPrune},
	{"MemberBanAdd", discordgo.AuditLogActionMemberBanAdd},
	{"MemberBanRemove", discordgo.AuditLogActionMemberBanRemove},
	{"MemberUpdate", discordgo.AuditLogActionMemberUpdate},
	{"MemberRoleUpdate", discordgo.AuditLogActionMemberRoleUpdate},
	{"MemberMove", discordgo.AuditLogActionMemberMove},
	{"MemberDisconnect", discordgo.AuditLogActionMemberDisconnect},
	{"BotAdd", discordgo.AuditLogActionBotAdd},
	{"RoleCreate", discordgo.AuditLogActionRoleCreate},
	{"RoleUpdate", discordgo.AuditLogActionRoleUpdate},
	{"RoleDelete", discordgo.AuditLogActionRoleDelete},
	{"InviteCreate", discordgo.AuditLogActionInviteCreate},
	{"InviteUpdate", discordgo.AuditLogActionInviteUpdate},
	{"InviteDelete", discordgo.AuditLogActionInviteDelete},
	{"WebhookCreate", discordgo.AuditLogActionWebhookCreate},
	{"WebhookUpdate", discordgo.AuditLogActionWebhookUpdate},
	{"WebhookDelete", discordgo.AuditLogActionWebhookDelete},
	{"EmojiCreate", discordgo.AuditLogActionEmojiCreate},
	{"EmojiUpdate", discordgo.AuditLogActionEmojiUpdate},
	{"EmojiDelete", discordgo.AuditLogActionEmojiDelete},
	{"MessageDelete", discordgo.AuditLogActionMessageDelete},
	{"MessageBulkDelete", discordgo.AuditLogActionMessageBulkDelete},
	{"MessagePin", discordgo.AuditLogActionMessagePin},
	{"MessageUnpin", discordgo.AuditLogActionMessageUnpin},
	{"IntegrationCreate", discordgo.AuditLogActionIntegrationCreate},
	{"IntegrationUpdate", discordgo.AuditLogActionIntegrationUpdate},
	{"IntegrationDelete", discordgo.AuditLogActionIntegrationDelete},
	{"StageInstanceCreate", discordgo.AuditLogActionStageInstanceCreate},
	{"StageInstanceUpdate", discordgo.AuditLogActionStageInstanceUpdate},
	{"StageInstanceDelete", discordgo.AuditLogActionStageInstanceDelete},
	{"StickerCreate", discordgo.AuditLogActionStickerCreate},
	{"StickerUpdate", discordgo.AuditLogActionStickerUpdate},
	{"StickerDelete", discordgo.AuditLogActionStickerDelete},
	{"GuildScheduledEventCreate", discordgo.AuditLogAction(100)},
	{"GuildScheduledEventUpdate", discordgo.AuditLogAction(101)},
	{"GuildScheduledEventDelete", discordgo.AuditLogAction(102)},
	{"ThreadCreate", discordgo.AuditLogActionThreadCreate},
	{"ThreadUpdate", discordgo.AuditLogActionThreadUpdate},
	{"ThreadDelete", discordgo.AuditLogActionThreadDelete},
	{"ApplicationCommandPermissionUpdate", discordgo.AuditLogActionApplicationCommandPermissionUpdate},
	{"AutoModerationRuleCreate", discordgo.AuditLogActionAutoModerationRuleCreate},
	{"AutoModerationRuleUpdate", discordgo.AuditLogActionAutoModerationRuleUpdate},
	{"AutoModerationRuleDelete", discordgo.AuditLogActionAutoModerationRuleDelete},
	{"AutoModerationBlockMessage", discordgo.AuditLogActionAutoModerationBlockMessage},
	{"AutoModerationFlagToChannel", discordgo.AuditLogActionAutoModerationFlagToChannel},
	{"AutoModerationUserCommunicationDisabled", discordgo.AuditLogActionAutoModerationUserCommunicationDisabled},
}

// AuditAction looks up an audit log action by name, case-insensitively.
func AuditAction(name string) (discordgo.AuditLogAction, bool) {
	for _, a := range auditActions {
		if strings.EqualFold(a.name, name) {
			return a.action, true
		}
	}
	return 0, false
}

// AuditActionName is the inverse of AuditAction. Unknown actions render as
// "Unknown".
func AuditActionName(action discordgo.AuditLogAction) string {
	for _, a := range auditActions {
		if a.action == action {
			return a.name
		}
	}
	return "Unknown"
}

// AuditActionNames lists every recognized action name.
func AuditActionNames() []string {
	out := make([]string, len(auditActions))
	for i, a := range auditActions {
		out[i] = a.name
	}
	return out
}
