// Package resolve turns a free-form identifier plus an optional server scope
// into exactly one Discord entity, or into an error that enumerates what was
// available.
//
// Every lookup follows the same rule: try the identifier as an ID first, then
// fall back to case-insensitive exact name matching among entities of the
// requested kind inside the scope. Zero matches is a *NotFoundError, one match
// is the result, more than one is an *AmbiguousError. There is no fuzzy
// matching and nothing is cached here; the Directory decides how fresh its
// answers are.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Directory is the read side of the Discord session the resolver works
// against. Implementations return only entities visible to the session.
type Directory interface {
	// Guilds lists the servers the session belongs to.
	Guilds(ctx context.Context) ([]*discordgo.Guild, error)
	Guild(ctx context.Context, guildID string) (*discordgo.Guild, error)
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error)
	// GuildRoles and GuildMembers always refresh from the remote side.
	GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error)
	GuildMembers(ctx context.Context, guildID string) ([]*discordgo.Member, error)
	GuildEmojis(ctx context.Context, guildID string) ([]*discordgo.Emoji, error)
	GuildScheduledEvents(ctx context.Context, guildID string) ([]*discordgo.GuildScheduledEvent, error)
	AutoModRules(ctx context.Context, guildID string) ([]*discordgo.AutoModerationRule, error)
	// ActiveThreads lists the guild's non-archived threads.
	ActiveThreads(ctx context.Context, guildID string) ([]*discordgo.Channel, error)
}

// Resolver resolves identifiers against a Directory. It holds no mutable
// state and is safe for concurrent use.
type Resolver struct {
	dir Directory
}

func New(dir Directory) *Resolver {
	return &Resolver{dir: dir}
}

// Server resolves the scope. An empty identifier succeeds only when the
// session belongs to exactly one server.
func (r *Resolver) Server(ctx context.Context, ident string) (*discordgo.Guild, error) {
	if ident == "" {
		guilds, err := r.dir.Guilds(ctx)
		if err != nil {
			return nil, fmt.Errorf("list servers: %w", err)
		}
		if len(guilds) == 1 {
			return guilds[0], nil
		}
		names := make([]string, len(guilds))
		for i, g := range guilds {
			names[i] = quote(g.Name)
		}
		return nil, &AmbiguousScopeError{Servers: names}
	}

	if IsSnowflake(ident) {
		if g, err := r.dir.Guild(ctx, ident); err == nil && g != nil {
			return g, nil
		}
	}

	guilds, err := r.dir.Guilds(ctx)
	if err != nil {
		return nil, fmt.Errorf("list servers: %w", err)
	}
	return pick(match[*discordgo.Guild]{
		kind:  KindServer,
		ident: ident,
		items: guilds,
		id:    func(g *discordgo.Guild) string { return g.ID },
		keys:  func(g *discordgo.Guild) []string { return []string{g.Name} },
		label: func(g *discordgo.Guild) string { return g.Name },
	})
}

// TextChannel resolves a text channel in g.
func (r *Resolver) TextChannel(ctx context.Context, g *discordgo.Guild, ident string) (*discordgo.Channel, error) {
	return r.channel(ctx, g, ident, KindTextChannel)
}

// Channel resolves any guild channel in g.
func (r *Resolver) Channel(ctx context.Context, g *discordgo.Guild, ident string) (*discordgo.Channel, error) {
	return r.channel(ctx, g, ident, KindChannel)
}

// Category resolves a category channel in g.
func (r *Resolver) Category(ctx context.Context, g *discordgo.Guild, ident string) (*discordgo.Channel, error) {
	return r.channel(ctx, g, ident, KindCategory)
}

// Forum resolves a forum channel in g.
func (r *Resolver) Forum(ctx context.Context, g *discordgo.Guild, ident string) (*discordgo.Channel, error) {
	return r.channel(ctx, g, ident, KindForum)
}

func (r *Resolver) channel(ctx context.Context, g *discordgo.Guild, ident string, kind Kind) (*discordgo.Channel, error) {
	if IsSnowflake(ident) {
		// A hit in another server or of another kind falls through to the
		// name search instead of failing outright.
		if ch, err := r.dir.Channel(ctx, ident); err == nil && ch != nil && ch.GuildID == g.ID && kind.Matches(ch.Type) {
			return ch, nil
		}
	}

	all, err := r.dir.GuildChannels(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	var items []*discordgo.Channel
	for _, ch := range all {
		if kind.Matches(ch.Type) {
			items = append(items, ch)
		}
	}
	return pick(match[*discordgo.Channel]{
		kind:  kind,
		ident: ident,
		scope: g.Name,
		items: items,
		id:    func(c *discordgo.Channel) string { return c.ID },
		keys:  func(c *discordgo.Channel) []string { return []string{c.Name} },
		label: func(c *discordgo.Channel) string {
			if kind == KindTextChannel {
				return "#" + c.Name
			}
			return c.Name
		},
		available: func(c *discordgo.Channel) string {
			switch kind {
			case KindTextChannel:
				return quote("#" + c.Name)
			case KindChannel:
				return quote(c.Name) + " (" + ChannelTypeName(c.Type) + ")"
			}
			return quote(c.Name)
		},
	})
}

// Thread resolves a thread in g. Name matching only considers active
// threads; archived threads are reachable by ID alone.
func (r *Resolver) Thread(ctx context.Context, g *discordgo.Guild, ident string) (*discordgo.Channel, error) {
	if IsSnowflake(ident) {
		if ch, err := r.dir.Channel(ctx, ident); err == nil && ch != nil && ch.GuildID == g.ID && ch.IsThread() {
			return ch, nil
		}
	}

	threads, err := r.dir.ActiveThreads(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list active threads: %w", err)
	}
	return pick(match[*discordgo.Channel]{
		kind:  KindThread,
		ident: ident,
		scope: g.Name,
		items: threads,
		id:    func(c *discordgo.Channel) string { return c.ID },
		keys:  func(c *discordgo.Channel) []string { return []string{c.Name} },
		label: func(c *discordgo.Channel) string { return c.Name },
	})
}

// Role resolves a role in g after refreshing the role list. The @everyone
// role resolves by ID but is never listed as available.
func (r *Resolver) Role(ctx context.Context, g *discordgo.Guild, ident string) (*discordgo.Role, error) {
	roles, err := r.dir.GuildRoles(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return pick(match[*discordgo.Role]{
		kind:  KindRole,
		ident: ident,
		scope: g.Name,
		items: roles,
		id:    func(ro *discordgo.Role) string { return ro.ID },
		keys:  func(ro *discordgo.Role) []string { return []string{ro.Name} },
		label: func(ro *discordgo.Role) string { return ro.Name },
		listed: func(ro *discordgo.Role) bool {
			return ro.ID != g.ID && ro.Name != "@everyone"
		},
	})
}

// Member resolves a member of g after refreshing the member list. Username,
// display name and tag are equivalent keys.
func (r *Resolver) Member(ctx context.Context, g *discordgo.Guild, ident string) (*discordgo.Member, error) {
	members, err := r.dir.GuildMembers(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	var items []*discordgo.Member
	for _, m := range members {
		if m.User != nil {
			items = append(items, m)
		}
	}
	return pick(match[*discordgo.Member]{
		kind:  KindMember,
		ident: ident,
		scope: g.Name,
		items: items,
		id:    func(m *discordgo.Member) string { return m.User.ID },
		keys: func(m *discordgo.Member) []string {
			return []string{m.User.Username, DisplayName(m), m.User.String()}
		},
		label: func(m *discordgo.Member) string { return m.User.String() },
	})
}

// Emoji resolves a custom emoji of g.
func (r *Resolver) Emoji(ctx context.Context, g *discordgo.Guild, ident string) (*discordgo.Emoji, error) {
	emojis, err := r.dir.GuildEmojis(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list emojis: %w", err)
	}
	return pick(match[*discordgo.Emoji]{
		kind:  KindEmoji,
		ident: ident,
		scope: g.Name,
		items: emojis,
		id:    func(e *discordgo.Emoji) string { return e.ID },
		keys:  func(e *discordgo.Emoji) []string { return []string{e.Name} },
		label: func(e *discordgo.Emoji) string { return e.Name },
	})
}

// Event resolves a scheduled event of g.
func (r *Resolver) Event(ctx context.Context, g *discordgo.Guild, ident string) (*discordgo.GuildScheduledEvent, error) {
	events, err := r.dir.GuildScheduledEvents(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list scheduled events: %w", err)
	}
	return pick(match[*discordgo.GuildScheduledEvent]{
		kind:  KindEvent,
		ident: ident,
		scope: g.Name,
		items: events,
		id:    func(e *discordgo.GuildScheduledEvent) string { return e.ID },
		keys:  func(e *discordgo.GuildScheduledEvent) []string { return []string{e.Name} },
		label: func(e *discordgo.GuildScheduledEvent) string { return e.Name },
	})
}

// AutoModRule resolves an auto moderation rule of g.
func (r *Resolver) AutoModRule(ctx context.Context, g *discordgo.Guild, ident string) (*discordgo.AutoModerationRule, error) {
	rules, err := r.dir.AutoModRules(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("list automod rules: %w", err)
	}
	return pick(match[*discordgo.AutoModerationRule]{
		kind:  KindAutoModRule,
		ident: ident,
		scope: g.Name,
		items: rules,
		id:    func(ru *discordgo.AutoModerationRule) string { return ru.ID },
		keys:  func(ru *discordgo.AutoModerationRule) []string { return []string{ru.Name} },
		label: func(ru *discordgo.AutoModerationRule) string { return ru.Name },
	})
}

// match describes one cardinality-rule lookup over items of a single kind.
type match[T any] struct {
	kind  Kind
	ident string
	scope string
	items []T

	id    func(T) string
	keys  func(T) []string
	label func(T) string
	// available renders an entry of NotFoundError.Available. Defaults to the
	// quoted label.
	available func(T) string
	// listed filters entries out of NotFoundError.Available. Defaults to all.
	listed func(T) bool
}

func pick[T any](m match[T]) (T, error) {
	var zero T

	for _, it := range m.items {
		if m.id(it) == m.ident {
			return it, nil
		}
	}

	want := strings.ToLower(m.ident)
	stripped := want
	if m.kind.channelLike() {
		stripped = strings.TrimPrefix(want, "#")
	}

	var hits []T
	for _, it := range m.items {
		for _, k := range m.keys(it) {
			k = strings.ToLower(k)
			if k != "" && (k == want || k == stripped) {
				hits = append(hits, it)
				break
			}
		}
	}

	switch len(hits) {
	case 1:
		return hits[0], nil
	case 0:
		avail := make([]string, 0, len(m.items))
		for _, it := range m.items {
			if m.listed != nil && !m.listed(it) {
				continue
			}
			if m.available != nil {
				avail = append(avail, m.available(it))
			} else {
				avail = append(avail, quote(m.label(it)))
			}
		}
		return zero, &NotFoundError{Kind: m.kind, Identifier: m.ident, Scope: m.scope, Available: avail}
	default:
		cands := make([]Candidate, len(hits))
		for i, it := range hits {
			cands[i] = Candidate{Name: m.label(it), ID: m.id(it)}
		}
		return zero, &AmbiguousError{Kind: m.kind, Identifier: m.ident, Scope: m.scope, Candidates: cands}
	}
}

// IsSnowflake reports whether s has the shape of a Discord ID: 17 to 20
// decimal digits.
func IsSnowflake(s string) bool {
	if len(s) < 17 || len(s) > 20 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// DisplayName is the member's nickname, falling back to the account's global
// display name and then to the username.
func DisplayName(m *discordgo.Member) string {
	if m.Nick != "" {
		return m.Nick
	}
	if m.User == nil {
		return ""
	}
	if m.User.GlobalName != "" {
		return m.User.GlobalName
	}
	return m.User.Username
}

func quote(s string) string { return `"` + s + `"` }
