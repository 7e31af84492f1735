// Package permissions translates between the UPPER_SNAKE permission names
// accepted by tools and Discord's native permission bit flags.
//
// The table is fixed at compile time. Names not in the table are ignored by
// every translation, never substituted.
package permissions

import (
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Permission is one row of the translation table.
type Permission struct {
	// Name is the canonical upper-snake-case spelling, e.g. SEND_MESSAGES.
	Name string
	// Native is the platform's PascalCase spelling, e.g. SendMessages.
	Native string
	// Flag is the single bit this permission occupies.
	Flag int64
}

var table = []Permission{
	{"CREATE_INSTANT_INVITE", "CreateInstantInvite", discordgo.PermissionCreateInstantInvite},
	{"KICK_MEMBERS", "KickMembers", discordgo.PermissionKickMembers},
	{"BAN_MEMBERS", "BanMembers", discordgo.PermissionBanMembers},
	{"ADMINISTRATOR", "Administrator", discordgo.PermissionAdministrator},
	{"MANAGE_CHANNELS", "ManageChannels", discordgo.PermissionManageChannels},
	{"MANAGE_GUILD", "ManageGuild", discordgo.PermissionManageServer},
	{"ADD_REACTIONS", "AddReactions", discordgo.PermissionAddReactions},
	{"VIEW_AUDIT_LOG", "ViewAuditLog", discordgo.PermissionViewAuditLogs},
	{"PRIORITY_SPEAKER", "PrioritySpeaker", discordgo.PermissionVoicePrioritySpeaker},
	{"STREAM", "Stream", discordgo.PermissionVoiceStreamVideo},
	{"VIEW_CHANNEL", "ViewChannel", discordgo.PermissionViewChannel},
	{"SEND_MESSAGES", "SendMessages", discordgo.PermissionSendMessages},
	{"SEND_TTS_MESSAGES", "SendTTSMessages", discordgo.PermissionSendTTSMessages},
	{"MANAGE_MESSAGES", "ManageMessages", discordgo.PermissionManageMessages},
	{"EMBED_LINKS", "EmbedLinks", discordgo.PermissionEmbedLinks},
	{"ATTACH_FILES", "AttachFiles", discordgo.PermissionAttachFiles},
	{"READ_MESSAGE_HISTORY", "ReadMessageHistory", discordgo.PermissionReadMessageHistory},
	{"MENTION_EVERYONE", "MentionEveryone", discordgo.PermissionMentionEveryone},
	{"USE_EXTERNAL_EMOJIS", "UseExternalEmojis", discordgo.PermissionUseExternalEmojis},
	{"VIEW_GUILD_INSIGHTS", "ViewGuildInsights", discordgo.PermissionViewGuildInsights},
	{"CONNECT", "Connect", discordgo.PermissionVoiceConnect},
	{"SPEAK", "Speak", discordgo.PermissionVoiceSpeak},
	{"MUTE_MEMBERS", "MuteMembers", discordgo.PermissionVoiceMuteMembers},
	{"DEAFEN_MEMBERS", "DeafenMembers", discordgo.PermissionVoiceDeafenMembers},
	{"MOVE_MEMBERS", "MoveMembers", discordgo.PermissionVoiceMoveMembers},
	{"USE_VAD", "UseVAD", discordgo.PermissionVoiceUseVAD},
	{"CHANGE_NICKNAME", "ChangeNickname", discordgo.PermissionChangeNickname},
	{"MANAGE_NICKNAMES", "ManageNicknames", discordgo.PermissionManageNicknames},
	{"MANAGE_ROLES", "ManageRoles", discordgo.PermissionManageRoles},
	{"MANAGE_WEBHOOKS", "ManageWebhooks", discordgo.PermissionManageWebhooks},
	{"MANAGE_EMOJIS_AND_STICKERS", "ManageGuildExpressions", discordgo.PermissionManageEmojis},
	{"USE_APPLICATION_COMMANDS", "UseApplicationCommands", discordgo.PermissionUseSlashCommands},
	{"REQUEST_TO_SPEAK", "RequestToSpeak", discordgo.PermissionVoiceRequestToSpeak},
	{"MANAGE_EVENTS", "ManageEvents", discordgo.PermissionManageEvents},
	{"MANAGE_THREADS", "ManageThreads", discordgo.PermissionManageThreads},
	{"CREATE_PUBLIC_THREADS", "CreatePublicThreads", discordgo.PermissionCreatePublicThreads},
	{"CREATE_PRIVATE_THREADS", "CreatePrivateThreads", discordgo.PermissionCreatePrivateThreads},
	{"USE_EXTERNAL_STICKERS", "UseExternalStickers", discordgo.PermissionUseExternalStickers},
	{"SEND_MESSAGES_IN_THREADS", "SendMessagesInThreads", discordgo.PermissionSendMessagesInThreads},
	{"USE_EMBEDDED_ACTIVITIES", "UseEmbeddedActivities", discordgo.PermissionUseActivities},
	{"MODERATE_MEMBERS", "ModerateMembers", discordgo.PermissionModerateMembers},
}

var byName = func() map[string]Permission {
	m := make(map[string]Permission, len(table))
	for _, p := range table {
		m[p.Name] = p
	}
	return m
}()

// All returns a copy of the translation table in bit order.
func All() []Permission {
	return append([]Permission(nil), table...)
}

// Lookup finds a permission by canonical name, ignoring case.
func Lookup(name string) (Permission, bool) {
	p, ok := byName[strings.ToUpper(strings.TrimSpace(name))]
	return p, ok
}

// ToFlagSet ORs together the flags of every recognized name.
func ToFlagSet(names []string) int64 {
	var flags int64
	for _, n := range names {
		if p, ok := Lookup(n); ok {
			flags |= p.Flag
		}
	}
	return flags
}

// ToOverwriteOptions builds a native-name keyed override set. Allowed names map
// to true and denied names to false; deny is applied last and so wins when a
// name appears in both lists.
func ToOverwriteOptions(allow, deny []string) map[string]bool {
	opts := make(map[string]bool, len(allow)+len(deny))
	for _, n := range allow {
		if p, ok := Lookup(n); ok {
			opts[p.Native] = true
		}
	}
	for _, n := range deny {
		if p, ok := Lookup(n); ok {
			opts[p.Native] = false
		}
	}
	return opts
}

// Names lists the native names of every table flag set in flags, in bit
// order. Bits outside the table are ignored.
func Names(flags int64) []string {
	var out []string
	for _, p := range table {
		if flags&p.Flag != 0 {
			out = append(out, p.Native)
		}
	}
	return out
}

// ApplyOverwrite merges override options into an existing allow/deny pair.
// A true option grants the bit and clears any deny; a false option denies it
// and clears any grant. Permissions absent from opts keep their prior state.
func ApplyOverwrite(allow, deny int64, opts map[string]bool) (int64, int64) {
	for _, p := range table {
		v, ok := opts[p.Native]
		if !ok {
			continue
		}
		if v {
			allow |= p.Flag
			deny &^= p.Flag
		} else {
			deny |= p.Flag
			allow &^= p.Flag
		}
	}
	return allow, deny
}
