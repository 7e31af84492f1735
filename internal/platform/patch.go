package platform

import (
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
)

type fieldState uint8

const (
	unset fieldState = iota
	present
	cleared
)

// Field is one optional value of a patch. The zero Field is "not mentioned"
// and leaves the remote value alone. Clear sends an explicit JSON null.
type Field[T any] struct {
	v     T
	state fieldState
}

// Set returns a Field carrying v.
func Set[T any](v T) Field[T] { return Field[T]{v: v, state: present} }

// Clear returns a Field that resets the remote value.
func Clear[T any]() Field[T] { return Field[T]{state: cleared} }

// From returns Set(*p), or the zero Field when p is nil.
func From[T any](p *T) Field[T] {
	if p == nil {
		return Field[T]{}
	}
	return Set(*p)
}

// Get returns the carried value and whether the field was Set.
func (f Field[T]) Get() (T, bool) { return f.v, f.state == present }

func (f Field[T]) IsCleared() bool { return f.state == cleared }

// IsZero reports whether the field was not mentioned.
func (f Field[T]) IsZero() bool { return f.state == unset }

func (f Field[T]) put(body map[string]any, key string) {
	switch f.state {
	case present:
		body[key] = f.v
	case cleared:
		body[key] = nil
	}
}

// ChannelPatch edits a guild channel, thread or forum.
type ChannelPatch struct {
	Name             Field[string]
	Topic            Field[string]
	NSFW             Field[bool]
	Bitrate          Field[int]
	UserLimit        Field[int]
	RateLimitPerUser Field[int]
	Position         Field[int]
	// ParentID moves the channel into a category. Clear removes it from
	// its category.
	ParentID Field[string]

	Archived            Field[bool]
	Locked              Field[bool]
	AutoArchiveDuration Field[int]

	AvailableTags Field[[]discordgo.ForumTag]
}

func (p ChannelPatch) body() map[string]any {
	b := map[string]any{}
	p.Name.put(b, "name")
	p.Topic.put(b, "topic")
	p.NSFW.put(b, "nsfw")
	p.Bitrate.put(b, "bitrate")
	p.UserLimit.put(b, "user_limit")
	p.RateLimitPerUser.put(b, "rate_limit_per_user")
	p.Position.put(b, "position")
	p.ParentID.put(b, "parent_id")
	p.Archived.put(b, "archived")
	p.Locked.put(b, "locked")
	p.AutoArchiveDuration.put(b, "auto_archive_duration")
	p.AvailableTags.put(b, "available_tags")
	return b
}

// GuildPatch edits server settings. IconURL is downloaded and sent as a data
// URI; Clear removes the icon.
type GuildPatch struct {
	Name                        Field[string]
	Description                 Field[string]
	IconURL                     Field[string]
	SystemChannelID             Field[string]
	AFKChannelID                Field[string]
	AFKTimeout                  Field[int]
	VerificationLevel           Field[discordgo.VerificationLevel]
	DefaultMessageNotifications Field[discordgo.MessageNotifications]
	ExplicitContentFilter       Field[discordgo.ExplicitContentFilterLevel]
}

// body renders everything but the icon, which needs a download first.
func (p GuildPatch) body() map[string]any {
	b := map[string]any{}
	p.Name.put(b, "name")
	p.Description.put(b, "description")
	p.SystemChannelID.put(b, "system_channel_id")
	p.AFKChannelID.put(b, "afk_channel_id")
	p.AFKTimeout.put(b, "afk_timeout")
	p.VerificationLevel.put(b, "verification_level")
	p.DefaultMessageNotifications.put(b, "default_message_notifications")
	p.ExplicitContentFilter.put(b, "explicit_content_filter")
	return b
}

// RolePatch creates or edits a role. Position is applied with a separate
// reorder request after the role exists.
type RolePatch struct {
	Name        Field[string]
	Color       Field[int]
	Hoist       Field[bool]
	Mentionable Field[bool]
	Permissions Field[int64]
	Position    Field[int]
}

func (p RolePatch) body() map[string]any {
	b := map[string]any{}
	p.Name.put(b, "name")
	p.Color.put(b, "color")
	p.Hoist.put(b, "hoist")
	p.Mentionable.put(b, "mentionable")
	// Discord serializes permission sets as decimal strings.
	if v, ok := p.Permissions.Get(); ok {
		b["permissions"] = strconv.FormatInt(v, 10)
	}
	return b
}

// EventPatch edits a scheduled event.
type EventPatch struct {
	Name        Field[string]
	Description Field[string]
	StartTime   Field[time.Time]
	EndTime     Field[time.Time]
	Location    Field[string]
	Status      Field[discordgo.GuildScheduledEventStatus]
}

func (p EventPatch) body() map[string]any {
	b := map[string]any{}
	p.Name.put(b, "name")
	p.Description.put(b, "description")
	p.StartTime.put(b, "scheduled_start_time")
	p.EndTime.put(b, "scheduled_end_time")
	p.Status.put(b, "status")
	if v, ok := p.Location.Get(); ok {
		b["entity_metadata"] = map[string]string{"location": v}
	}
	return b
}
