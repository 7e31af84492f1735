package resolve

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/bwmarrin/discordgo"
)

const (
	alphaID   = "100000000000000001"
	betaID    = "100000000000000002"
	generalID = "200000000000000001"
	voiceID   = "200000000000000002"
	catID     = "200000000000000003"
	forumID   = "200000000000000004"
	betaGenID = "200000000000000005"
	dupAID    = "200000000000000006"
	dupBID    = "200000000000000007"
	threadID  = "300000000000000001"
	oldThread = "300000000000000002"
)

type fakeDirectory struct {
	guilds   []*discordgo.Guild
	channels []*discordgo.Channel
	roles    map[string][]*discordgo.Role
	members  map[string][]*discordgo.Member
	emojis   map[string][]*discordgo.Emoji
	events   map[string][]*discordgo.GuildScheduledEvent
	rules    map[string][]*discordgo.AutoModerationRule

	calls []string
}

func (f *fakeDirectory) Guilds(ctx context.Context) ([]*discordgo.Guild, error) {
	f.calls = append(f.calls, "Guilds")
	return f.guilds, nil
}

func (f *fakeDirectory) Guild(ctx context.Context, id string) (*discordgo.Guild, error) {
	f.calls = append(f.calls, "Guild")
	for _, g := range f.guilds {
		if g.ID == id {
			return g, nil
		}
	}
	return nil, errors.New("HTTP 404 Not Found")
}

func (f *fakeDirectory) Channel(ctx context.Context, id string) (*discordgo.Channel, error) {
	f.calls = append(f.calls, "Channel")
	for _, c := range f.channels {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, errors.New("HTTP 404 Not Found")
}

func (f *fakeDirectory) GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	f.calls = append(f.calls, "GuildChannels")
	var out []*discordgo.Channel
	for _, c := range f.channels {
		if c.GuildID == guildID && !c.IsThread() {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeDirectory) GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error) {
	f.calls = append(f.calls, "GuildRoles")
	return f.roles[guildID], nil
}

func (f *fakeDirectory) GuildMembers(ctx context.Context, guildID string) ([]*discordgo.Member, error) {
	f.calls = append(f.calls, "GuildMembers")
	return f.members[guildID], nil
}

func (f *fakeDirectory) GuildEmojis(ctx context.Context, guildID string) ([]*discordgo.Emoji, error) {
	return f.emojis[guildID], nil
}

func (f *fakeDirectory) GuildScheduledEvents(ctx context.Context, guildID string) ([]*discordgo.GuildScheduledEvent, error) {
	return f.events[guildID], nil
}

func (f *fakeDirectory) AutoModRules(ctx context.Context, guildID string) ([]*discordgo.AutoModerationRule, error) {
	return f.rules[guildID], nil
}

func (f *fakeDirectory) ActiveThreads(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	var out []*discordgo.Channel
	for _, c := range f.channels {
		if c.GuildID == guildID && c.IsThread() && (c.ThreadMetadata == nil || !c.ThreadMetadata.Archived) {
			out = append(out, c)
		}
	}
	return out, nil
}

func newFixture() *fakeDirectory {
	alpha := &discordgo.Guild{ID: alphaID, Name: "Alpha"}
	beta := &discordgo.Guild{ID: betaID, Name: "Beta"}
	return &fakeDirectory{
		guilds: []*discordgo.Guild{alpha, beta},
		channels: []*discordgo.Channel{
			{ID: generalID, GuildID: alphaID, Name: "general", Type: discordgo.ChannelTypeGuildText},
			{ID: voiceID, GuildID: alphaID, Name: "lounge", Type: discordgo.ChannelTypeGuildVoice},
			{ID: catID, GuildID: alphaID, Name: "Projects", Type: discordgo.ChannelTypeGuildCategory},
			{ID: forumID, GuildID: alphaID, Name: "help", Type: discordgo.ChannelTypeGuildForum},
			{ID: dupAID, GuildID: alphaID, Name: "dup", Type: discordgo.ChannelTypeGuildText},
			{ID: dupBID, GuildID: alphaID, Name: "DUP", Type: discordgo.ChannelTypeGuildText},
			{ID: betaGenID, GuildID: betaID, Name: "general", Type: discordgo.ChannelTypeGuildText},
			{ID: threadID, GuildID: alphaID, Name: "release-plan", Type: discordgo.ChannelTypeGuildPublicThread, ParentID: generalID},
			{ID: oldThread, GuildID: alphaID, Name: "old-news", Type: discordgo.ChannelTypeGuildPublicThread, ThreadMetadata: &discordgo.ThreadMetadata{Archived: true}},
		},
		roles: map[string][]*discordgo.Role{
			alphaID: {
				{ID: alphaID, Name: "@everyone"},
				{ID: "400000000000000001", Name: "Moderator"},
				{ID: "400000000000000002", Name: "Member"},
			},
		},
		members: map[string][]*discordgo.Member{
			alphaID: {
				{User: &discordgo.User{ID: "500000000000000001", Username: "ada", GlobalName: "Ada L", Discriminator: "0"}},
				{User: &discordgo.User{ID: "500000000000000002", Username: "grace", Discriminator: "1906"}, Nick: "Admiral"},
				{User: &discordgo.User{ID: "500000000000000003", Username: "ada2", Discriminator: "0"}, Nick: "Ada L"},
			},
		},
		emojis: map[string][]*discordgo.Emoji{
			alphaID: {{ID: "600000000000000001", Name: "party"}},
		},
		events: map[string][]*discordgo.GuildScheduledEvent{
			alphaID: {{ID: "700000000000000001", Name: "Town Hall"}},
		},
		rules: map[string][]*discordgo.AutoModerationRule{
			alphaID: {{ID: "800000000000000001", Name: "No spam"}},
		},
	}
}

func TestServerScope(t *testing.T) {
	ctx := context.Background()

	t.Run("single server is implicit", func(t *testing.T) {
		dir := newFixture()
		dir.guilds = dir.guilds[:1]
		r := New(dir)
		g, err := r.Server(ctx, "")
		if err != nil {
			t.Fatalf("Server: %v", err)
		}
		if g.Name != "Alpha" {
			t.Fatalf("got %q, want Alpha", g.Name)
		}
		ch, err := r.TextChannel(ctx, g, "general")
		if err != nil {
			t.Fatalf("TextChannel: %v", err)
		}
		if ch.ID != generalID {
			t.Fatalf("got %s, want %s", ch.ID, generalID)
		}
	})

	t.Run("multiple servers require a scope", func(t *testing.T) {
		r := New(newFixture())
		_, err := r.Server(ctx, "")
		var scopeErr *AmbiguousScopeError
		if !errors.As(err, &scopeErr) {
			t.Fatalf("expected AmbiguousScopeError, got %v", err)
		}
		if !errors.Is(err, ErrAmbiguousScope) {
			t.Fatalf("errors.Is(ErrAmbiguousScope) = false")
		}
		want := []string{`"Alpha"`, `"Beta"`}
		if !reflect.DeepEqual(scopeErr.Servers, want) {
			t.Fatalf("servers = %v, want %v", scopeErr.Servers, want)
		}
	})

	t.Run("by id then by name", func(t *testing.T) {
		r := New(newFixture())
		for _, ident := range []string{betaID, "beta", "BETA"} {
			g, err := r.Server(ctx, ident)
			if err != nil {
				t.Fatalf("Server(%q): %v", ident, err)
			}
			if g.ID != betaID {
				t.Fatalf("Server(%q) = %s", ident, g.ID)
			}
		}
	})

	t.Run("unknown server lists all", func(t *testing.T) {
		r := New(newFixture())
		_, err := r.Server(ctx, "Gamma")
		var nf *NotFoundError
		if !errors.As(err, &nf) {
			t.Fatalf("expected NotFoundError, got %v", err)
		}
		want := `Server "Gamma" not found. Available servers: "Alpha", "Beta"`
		if err.Error() != want {
			t.Fatalf("message = %q, want %q", err.Error(), want)
		}
	})

	t.Run("duplicate server names are ambiguous", func(t *testing.T) {
		dir := newFixture()
		dir.guilds = append(dir.guilds, &discordgo.Guild{ID: "100000000000000003", Name: "alpha"})
		_, err := New(dir).Server(ctx, "Alpha")
		var amb *AmbiguousError
		if !errors.As(err, &amb) {
			t.Fatalf("expected AmbiguousError, got %v", err)
		}
		if len(amb.Candidates) != 2 {
			t.Fatalf("candidates = %v", amb.Candidates)
		}
	})
}

func TestChannelKinds(t *testing.T) {
	ctx := context.Background()
	dir := newFixture()
	r := New(dir)
	alpha := dir.guilds[0]

	tests := []struct {
		name    string
		resolve func(string) (*discordgo.Channel, error)
		ident   string
		wantID  string
		wantErr error
	}{
		{"text by name", func(s string) (*discordgo.Channel, error) { return r.TextChannel(ctx, alpha, s) }, "general", generalID, nil},
		{"text with hash", func(s string) (*discordgo.Channel, error) { return r.TextChannel(ctx, alpha, s) }, "#general", generalID, nil},
		{"text case-insensitive", func(s string) (*discordgo.Channel, error) { return r.TextChannel(ctx, alpha, s) }, "#GENERAL", generalID, nil},
		{"text by id", func(s string) (*discordgo.Channel, error) { return r.TextChannel(ctx, alpha, s) }, generalID, generalID, nil},
		{"text rejects voice id", func(s string) (*discordgo.Channel, error) { return r.TextChannel(ctx, alpha, s) }, voiceID, "", ErrNotFound},
		{"text rejects other server id", func(s string) (*discordgo.Channel, error) { return r.TextChannel(ctx, alpha, s) }, betaGenID, "", ErrNotFound},
		{"text ambiguous", func(s string) (*discordgo.Channel, error) { return r.TextChannel(ctx, alpha, s) }, "dup", "", ErrAmbiguous},
		{"generic finds voice", func(s string) (*discordgo.Channel, error) { return r.Channel(ctx, alpha, s) }, "lounge", voiceID, nil},
		{"category by name", func(s string) (*discordgo.Channel, error) { return r.Category(ctx, alpha, s) }, "projects", catID, nil},
		{"category rejects text", func(s string) (*discordgo.Channel, error) { return r.Category(ctx, alpha, s) }, "general", "", ErrNotFound},
		{"forum by name", func(s string) (*discordgo.Channel, error) { return r.Forum(ctx, alpha, s) }, "help", forumID, nil},
		{"thread by name", func(s string) (*discordgo.Channel, error) { return r.Thread(ctx, alpha, s) }, "release-plan", threadID, nil},
		{"archived thread by id", func(s string) (*discordgo.Channel, error) { return r.Thread(ctx, alpha, s) }, oldThread, oldThread, nil},
		{"archived thread not by name", func(s string) (*discordgo.Channel, error) { return r.Thread(ctx, alpha, s) }, "old-news", "", ErrNotFound},
		{"thread rejects channel id", func(s string) (*discordgo.Channel, error) { return r.Thread(ctx, alpha, s) }, generalID, "", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := tt.resolve(tt.ident)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ch.ID != tt.wantID {
				t.Fatalf("got %s, want %s", ch.ID, tt.wantID)
			}
		})
	}
}

func TestNotFoundListsEveryCandidateOfKind(t *testing.T) {
	ctx := context.Background()
	dir := newFixture()
	r := New(dir)
	alpha := dir.guilds[0]

	_, err := r.TextChannel(ctx, alpha, "random")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	want := []string{`"#general"`, `"#dup"`, `"#DUP"`}
	if !reflect.DeepEqual(nf.Available, want) {
		t.Fatalf("available = %v, want %v", nf.Available, want)
	}
	if nf.Scope != "Alpha" {
		t.Fatalf("scope = %q", nf.Scope)
	}

	_, err = r.Thread(ctx, alpha, "missing")
	if got, want := err.Error(), `Thread "missing" not found in server "Alpha". Available active threads: "release-plan"`; got != want {
		t.Fatalf("thread message = %q, want %q", got, want)
	}

	_, err = r.Forum(ctx, alpha, "nothing")
	if !errors.As(err, &nf) || !reflect.DeepEqual(nf.Available, []string{`"help"`}) {
		t.Fatalf("forum not found = %v", err)
	}
}

func TestAmbiguousListsExactlyTheMatches(t *testing.T) {
	ctx := context.Background()
	dir := newFixture()
	alpha := dir.guilds[0]

	_, err := New(dir).TextChannel(ctx, alpha, "#dup")
	var amb *AmbiguousError
	if !errors.As(err, &amb) {
		t.Fatalf("expected AmbiguousError, got %v", err)
	}
	want := []Candidate{{Name: "#dup", ID: dupAID}, {Name: "#DUP", ID: dupBID}}
	if !reflect.DeepEqual(amb.Candidates, want) {
		t.Fatalf("candidates = %v, want %v", amb.Candidates, want)
	}
	msg := `Multiple channels found with name "#dup" in server "Alpha": #dup (ID: 200000000000000006), #DUP (ID: 200000000000000007). Please specify the channel ID.`
	if err.Error() != msg {
		t.Fatalf("message = %q", err.Error())
	}

	// An ID is unique even when names collide.
	ch, err := New(dir).TextChannel(ctx, alpha, dupBID)
	if err != nil || ch.ID != dupBID {
		t.Fatalf("by id = %v, %v", ch, err)
	}
}

func TestRoles(t *testing.T) {
	ctx := context.Background()
	dir := newFixture()
	r := New(dir)
	alpha := dir.guilds[0]

	ro, err := r.Role(ctx, alpha, "moderator")
	if err != nil || ro.Name != "Moderator" {
		t.Fatalf("Role = %v, %v", ro, err)
	}
	if dir.calls[len(dir.calls)-1] != "GuildRoles" {
		t.Fatalf("roles were not refreshed: %v", dir.calls)
	}

	everyone, err := r.Role(ctx, alpha, alphaID)
	if err != nil || everyone.Name != "@everyone" {
		t.Fatalf("@everyone by id = %v, %v", everyone, err)
	}

	_, err = r.Role(ctx, alpha, "Admin")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if want := []string{`"Moderator"`, `"Member"`}; !reflect.DeepEqual(nf.Available, want) {
		t.Fatalf("available = %v, want %v", nf.Available, want)
	}
}

func TestMembers(t *testing.T) {
	ctx := context.Background()
	dir := newFixture()
	r := New(dir)
	alpha := dir.guilds[0]

	tests := []struct {
		ident  string
		wantID string
		err    error
	}{
		{"ADA", "500000000000000001", nil},
		{"admiral", "500000000000000002", nil},
		{"grace#1906", "500000000000000002", nil},
		{"500000000000000003", "500000000000000003", nil},
		{"Ada L", "", ErrAmbiguous},
		{"linus", "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.ident, func(t *testing.T) {
			m, err := r.Member(ctx, alpha, tt.ident)
			if tt.err != nil {
				if !errors.Is(err, tt.err) {
					t.Fatalf("err = %v, want %v", err, tt.err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.User.ID != tt.wantID {
				t.Fatalf("got %s, want %s", m.User.ID, tt.wantID)
			}
		})
	}
}

func TestListBasedKinds(t *testing.T) {
	ctx := context.Background()
	dir := newFixture()
	r := New(dir)
	alpha := dir.guilds[0]

	if e, err := r.Emoji(ctx, alpha, "PARTY"); err != nil || e.ID != "600000000000000001" {
		t.Fatalf("Emoji = %v, %v", e, err)
	}
	if ev, err := r.Event(ctx, alpha, "town hall"); err != nil || ev.ID != "700000000000000001" {
		t.Fatalf("Event = %v, %v", ev, err)
	}
	if ru, err := r.AutoModRule(ctx, alpha, "800000000000000001"); err != nil || ru.Name != "No spam" {
		t.Fatalf("AutoModRule = %v, %v", ru, err)
	}

	beta := dir.guilds[1]
	_, err := r.Emoji(ctx, beta, "party")
	if got, want := err.Error(), `Emoji "party" not found in server "Beta". Available emojis: none`; got != want {
		t.Fatalf("message = %q, want %q", got, want)
	}
}

func TestIsSnowflake(t *testing.T) {
	tests := map[string]bool{
		"12345678901234567":     true,
		"12345678901234567890":  true,
		"1234567890123456":      false,
		"123456789012345678901": false,
		"general":               false,
		"1234567890123456a":     false,
	}
	for in, want := range tests {
		if got := IsSnowflake(in); got != want {
			t.Errorf("IsSnowflake(%q) = %v, want %v", in, got, want)
		}
	}
}
