package resolve

import "github.com/bwmarrin/discordgo"

// Kind tags every entity the resolver can return. Channel kinds are derived
// from the channel type value, never from the Go type of the entity.
type Kind int

const (
	KindServer Kind = iota + 1
	KindTextChannel
	KindChannel
	KindCategory
	KindRole
	KindMember
	KindThread
	KindForum
	KindEmoji
	KindEvent
	KindAutoModRule
)

type kindInfo struct {
	name   string // metric label
	label  string // "Channel" in `Channel "x" not found`
	plural string // "channels" in `Available channels: ...`
	noun   string // "channel" in `Please specify the channel ID`
}

var kinds = map[Kind]kindInfo{
	KindServer:      {"server", "Server", "servers", "server"},
	KindTextChannel: {"text_channel", "Channel", "channels", "channel"},
	KindChannel:     {"channel", "Channel", "channels", "channel"},
	KindCategory:    {"category", "Category", "categories", "category"},
	KindRole:        {"role", "Role", "roles", "role"},
	KindMember:      {"member", "Member", "members", "member"},
	KindThread:      {"thread", "Thread", "active threads", "thread"},
	KindForum:       {"forum", "Forum channel", "forums", "channel"},
	KindEmoji:       {"emoji", "Emoji", "emojis", "emoji"},
	KindEvent:       {"event", "Scheduled event", "events", "event"},
	KindAutoModRule: {"automod_rule", "AutoMod rule", "rules", "rule"},
}

func (k Kind) String() string {
	if ki, ok := kinds[k]; ok {
		return ki.name
	}
	return "unknown"
}

func (k Kind) info() kindInfo {
	if ki, ok := kinds[k]; ok {
		return ki
	}
	return kindInfo{"unknown", "Entity", "entities", "entity"}
}

// channelLike reports whether identifiers of this kind may carry a leading '#'.
func (k Kind) channelLike() bool {
	switch k {
	case KindTextChannel, KindChannel, KindCategory, KindThread, KindForum:
		return true
	}
	return false
}

// ChannelKind classifies a channel type value. Threads of every flavour map
// to KindThread; types without a narrower kind map to KindChannel.
func ChannelKind(t discordgo.ChannelType) Kind {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return KindTextChannel
	case discordgo.ChannelTypeGuildCategory:
		return KindCategory
	case discordgo.ChannelTypeGuildForum:
		return KindForum
	case discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread, discordgo.ChannelTypeGuildNewsThread:
		return KindThread
	default:
		return KindChannel
	}
}

// Matches reports whether a channel of type t satisfies a lookup for kind k.
// KindChannel accepts every guild channel.
func (k Kind) Matches(t discordgo.ChannelType) bool {
	if k == KindChannel {
		return true
	}
	return ChannelKind(t) == k
}

// ChannelTypeName renders a channel type the way list-channels reports it.
func ChannelTypeName(t discordgo.ChannelType) string {
	switch t {
	case discordgo.ChannelTypeGuildText:
		return "text"
	case discordgo.ChannelTypeGuildVoice:
		return "voice"
	case discordgo.ChannelTypeGuildCategory:
		return "category"
	case discordgo.ChannelTypeGuildNews:
		return "announcement"
	case discordgo.ChannelTypeGuildForum:
		return "forum"
	case discordgo.ChannelTypeGuildStageVoice:
		return "stage"
	case discordgo.ChannelTypeGuildPublicThread, discordgo.ChannelTypeGuildPrivateThread, discordgo.ChannelTypeGuildNewsThread:
		return "thread"
	default:
		return "unknown"
	}
}
