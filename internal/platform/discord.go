package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Intents are the gateway intents the bot identifies with. Members,
// presences and message content are privileged and must be enabled for the
// application in the developer portal.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsMessageContent |
	discordgo.IntentsGuildPresences |
	discordgo.IntentsGuildScheduledEvents |
	discordgo.IntentAutoModerationConfiguration

// bulkDeleteWindow is how old a message may be and still be bulk deleted.
const bulkDeleteWindow = 14 * 24 * time.Hour

// Discord is a Client backed by a discordgo session.
type Discord struct {
	s    *discordgo.Session
	log  *slog.Logger
	http *http.Client
	now  func() time.Time
}

var _ Client = (*Discord)(nil)

type Option func(*Discord)

// WithLogger routes session and gateway diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(d *Discord) { d.log = l }
}

// WithHTTPClient sets the client used for REST calls and image downloads.
func WithHTTPClient(hc *http.Client) Option {
	return func(d *Discord) { d.http = hc }
}

// New prepares a bot session for token. It does not connect; call Open.
func New(token string, opts ...Option) (*Discord, error) {
	if !strings.HasPrefix(token, "Bot ") {
		token = "Bot " + token
	}
	s, err := discordgo.New(token)
	if err != nil {
		return nil, fmt.Errorf("discord session: %w", err)
	}
	d := &Discord{s: s, log: slog.Default(), http: &http.Client{Timeout: 30 * time.Second}, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	s.Client = d.http
	s.Identify.Intents = Intents
	s.StateEnabled = true
	s.ShouldRetryOnRateLimit = true
	return d, nil
}

// Open connects to the gateway and blocks until the Ready event arrives, so
// that the server list is populated before any tool runs.
func (d *Discord) Open(ctx context.Context) error {
	ready := make(chan *discordgo.Ready, 1)
	remove := d.s.AddHandlerOnce(func(_ *discordgo.Session, r *discordgo.Ready) {
		ready <- r
	})
	defer remove()

	start := time.Now()
	if err := d.s.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	select {
	case r := <-ready:
		d.log.InfoContext(ctx, "discord.ready",
			slog.String("user", r.User.String()),
			slog.Int("guilds", len(r.Guilds)),
			slog.Int64("dur_ms", time.Since(start).Milliseconds()),
		)
		return nil
	case <-ctx.Done():
		_ = d.s.Close()
		return ctx.Err()
	}
}

func (d *Discord) Close() error {
	return d.s.Close()
}

// LogBridge adapts discordgo's package-level logger to l. discordgo only
// supports one global logger, so callers install it once at startup.
func LogBridge(l *slog.Logger) func(msgL, caller int, format string, a ...any) {
	return func(msgL, caller int, format string, a ...any) {
		level := slog.LevelDebug
		switch msgL {
		case discordgo.LogError:
			level = slog.LevelError
		case discordgo.LogWarning:
			level = slog.LevelWarn
		case discordgo.LogInformational:
			level = slog.LevelInfo
		}
		l.Log(context.Background(), level, "discordgo", slog.String("msg", fmt.Sprintf(format, a...)))
	}
}

func opts(ctx context.Context, reason string) []discordgo.RequestOption {
	o := []discordgo.RequestOption{discordgo.WithContext(ctx)}
	if reason != "" {
		o = append(o, discordgo.WithAuditLogReason(url.PathEscape(reason)))
	}
	return o
}

// request sends a raw body so that patch bodies can carry explicit nulls,
// which discordgo's omitempty parameter structs cannot express.
func (d *Discord) request(ctx context.Context, method, endpoint, bucket string, body any, reason string, out any) error {
	resp, err := d.s.RequestWithBucketID(method, endpoint, body, bucket, opts(ctx, reason)...)
	if err != nil {
		return err
	}
	if out == nil || len(resp) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, endpoint, err)
	}
	return nil
}

// --- Directory ---

func (d *Discord) Guilds(ctx context.Context) ([]*discordgo.Guild, error) {
	d.s.State.RLock()
	guilds := make([]*discordgo.Guild, 0, len(d.s.State.Guilds))
	var pending []string
	for _, g := range d.s.State.Guilds {
		if g.Name == "" {
			// Unavailable guild from Ready whose GUILD_CREATE has not landed.
			pending = append(pending, g.ID)
			continue
		}
		guilds = append(guilds, g)
	}
	d.s.State.RUnlock()

	for _, id := range pending {
		g, err := d.s.Guild(id, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("fetch guild %s: %w", id, err)
		}
		guilds = append(guilds, g)
	}
	return guilds, nil
}

func (d *Discord) Guild(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	return d.s.Guild(guildID, discordgo.WithContext(ctx))
}

func (d *Discord) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	return d.s.Channel(channelID, discordgo.WithContext(ctx))
}

func (d *Discord) GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	return d.s.GuildChannels(guildID, discordgo.WithContext(ctx))
}

func (d *Discord) GuildRoles(ctx context.Context, guildID string) ([]*discordgo.Role, error) {
	return d.s.GuildRoles(guildID, discordgo.WithContext(ctx))
}

// GuildMembers pages through the whole member list.
func (d *Discord) GuildMembers(ctx context.Context, guildID string) ([]*discordgo.Member, error) {
	const page = 1000
	var (
		all   []*discordgo.Member
		after string
	)
	for {
		ms, err := d.s.GuildMembers(guildID, after, page, discordgo.WithContext(ctx))
		if err != nil {
			return nil, err
		}
		all = append(all, ms...)
		if len(ms) < page {
			return all, nil
		}
		after = ms[len(ms)-1].User.ID
	}
}

func (d *Discord) GuildEmojis(ctx context.Context, guildID string) ([]*discordgo.Emoji, error) {
	return d.s.GuildEmojis(guildID, discordgo.WithContext(ctx))
}

func (d *Discord) GuildScheduledEvents(ctx context.Context, guildID string) ([]*discordgo.GuildScheduledEvent, error) {
	return d.s.GuildScheduledEvents(guildID, true, discordgo.WithContext(ctx))
}

func (d *Discord) AutoModRules(ctx context.Context, guildID string) ([]*discordgo.AutoModerationRule, error) {
	return d.s.AutoModerationRules(guildID, discordgo.WithContext(ctx))
}

func (d *Discord) ActiveThreads(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	tl, err := d.s.GuildThreadsActive(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return tl.Threads, nil
}

// --- Server ---

func (d *Discord) GuildWithCounts(ctx context.Context, guildID string) (*discordgo.Guild, error) {
	return d.s.GuildWithCounts(guildID, discordgo.WithContext(ctx))
}

func (d *Discord) EditGuild(ctx context.Context, guildID string, p GuildPatch, reason string) (*discordgo.Guild, error) {
	body := p.body()
	if u, ok := p.IconURL.Get(); ok {
		icon, err := fetchImage(ctx, d.http, u)
		if err != nil {
			return nil, err
		}
		body["icon"] = icon
	} else if p.IconURL.IsCleared() {
		body["icon"] = nil
	}
	var g discordgo.Guild
	ep := discordgo.EndpointGuild(guildID)
	if err := d.request(ctx, http.MethodPatch, ep, ep, body, reason, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// --- Messages ---

func (d *Discord) Messages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	return d.s.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
}

func (d *Discord) SendMessage(ctx context.Context, channelID, content string) (*discordgo.Message, error) {
	return d.s.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
}

func (d *Discord) DeleteMessage(ctx context.Context, channelID, messageID, reason string) error {
	return d.s.ChannelMessageDelete(channelID, messageID, opts(ctx, reason)...)
}

func (d *Discord) BulkDeleteMessages(ctx context.Context, channelID string, count int, reason string) (int, error) {
	msgs, err := d.s.ChannelMessages(channelID, count, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return 0, err
	}
	cutoff := d.now().Add(-bulkDeleteWindow)
	ids := make([]string, 0, len(msgs))
	for _, m := range msgs {
		ts, err := discordgo.SnowflakeTimestamp(m.ID)
		if err != nil || ts.Before(cutoff) {
			continue
		}
		ids = append(ids, m.ID)
	}
	if err := d.s.ChannelMessagesBulkDelete(channelID, ids, opts(ctx, reason)...); err != nil {
		return 0, err
	}
	return len(ids), nil
}

func (d *Discord) PinMessage(ctx context.Context, channelID, messageID string) error {
	return d.s.ChannelMessagePin(channelID, messageID, discordgo.WithContext(ctx))
}

func (d *Discord) UnpinMessage(ctx context.Context, channelID, messageID string) error {
	return d.s.ChannelMessageUnpin(channelID, messageID, discordgo.WithContext(ctx))
}

func (d *Discord) PinnedMessages(ctx context.Context, channelID string) ([]*discordgo.Message, error) {
	return d.s.ChannelMessagesPinned(channelID, discordgo.WithContext(ctx))
}

// --- Channels ---

func (d *Discord) CreateChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData, reason string) (*discordgo.Channel, error) {
	return d.s.GuildChannelCreateComplex(guildID, data, opts(ctx, reason)...)
}

func (d *Discord) EditChannel(ctx context.Context, channelID string, p ChannelPatch, reason string) (*discordgo.Channel, error) {
	var ch discordgo.Channel
	ep := discordgo.EndpointChannel(channelID)
	if err := d.request(ctx, http.MethodPatch, ep, ep, p.body(), reason, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

func (d *Discord) DeleteChannel(ctx context.Context, channelID, reason string) error {
	_, err := d.s.ChannelDelete(channelID, opts(ctx, reason)...)
	return err
}

func (d *Discord) SetChannelPermission(ctx context.Context, channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, reason string) error {
	return d.s.ChannelPermissionSet(channelID, targetID, targetType, allow, deny, opts(ctx, reason)...)
}

// --- Roles ---

func (d *Discord) CreateRole(ctx context.Context, guildID string, p RolePatch, reason string) (*discordgo.Role, error) {
	var role discordgo.Role
	ep := discordgo.EndpointGuildRoles(guildID)
	if err := d.request(ctx, http.MethodPost, ep, ep, p.body(), reason, &role); err != nil {
		return nil, err
	}
	if pos, ok := p.Position.Get(); ok {
		if err := d.moveRole(ctx, guildID, role.ID, pos, reason); err != nil {
			return nil, fmt.Errorf("role %s created but not moved: %w", role.ID, err)
		}
		role.Position = pos
	}
	return &role, nil
}

func (d *Discord) EditRole(ctx context.Context, guildID, roleID string, p RolePatch, reason string) (*discordgo.Role, error) {
	var role discordgo.Role
	if body := p.body(); len(body) > 0 {
		ep := discordgo.EndpointGuildRole(guildID, roleID)
		if err := d.request(ctx, http.MethodPatch, ep, discordgo.EndpointGuildRole(guildID, ""), body, reason, &role); err != nil {
			return nil, err
		}
	} else {
		role.ID = roleID
	}
	if pos, ok := p.Position.Get(); ok {
		if err := d.moveRole(ctx, guildID, roleID, pos, reason); err != nil {
			return nil, err
		}
		role.Position = pos
	}
	return &role, nil
}

func (d *Discord) moveRole(ctx context.Context, guildID, roleID string, position int, reason string) error {
	_, err := d.s.GuildRoleReorder(guildID, []*discordgo.Role{{ID: roleID, Position: position}}, opts(ctx, reason)...)
	return err
}

func (d *Discord) DeleteRole(ctx context.Context, guildID, roleID, reason string) error {
	return d.s.GuildRoleDelete(guildID, roleID, opts(ctx, reason)...)
}

func (d *Discord) AddMemberRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return d.s.GuildMemberRoleAdd(guildID, userID, roleID, opts(ctx, reason)...)
}

func (d *Discord) RemoveMemberRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	return d.s.GuildMemberRoleRemove(guildID, userID, roleID, opts(ctx, reason)...)
}

// --- Members ---

func (d *Discord) ListMembers(ctx context.Context, guildID string, limit int) ([]*discordgo.Member, error) {
	return d.s.GuildMembers(guildID, "", limit, discordgo.WithContext(ctx))
}

func (d *Discord) Kick(ctx context.Context, guildID, userID, reason string) error {
	return d.s.GuildMemberDeleteWithReason(guildID, userID, reason, discordgo.WithContext(ctx))
}

func (d *Discord) Ban(ctx context.Context, guildID, userID, reason string, deleteMessageDays int) error {
	return d.s.GuildBanCreateWithReason(guildID, userID, reason, deleteMessageDays, discordgo.WithContext(ctx))
}

func (d *Discord) Unban(ctx context.Context, guildID, userID, reason string) error {
	return d.s.GuildBanDelete(guildID, userID, opts(ctx, reason)...)
}

func (d *Discord) Timeout(ctx context.Context, guildID, userID string, until *time.Time, reason string) error {
	return d.s.GuildMemberTimeout(guildID, userID, until, opts(ctx, reason)...)
}

func (d *Discord) Bans(ctx context.Context, guildID string) ([]*discordgo.GuildBan, error) {
	return d.s.GuildBans(guildID, 1000, "", "", discordgo.WithContext(ctx))
}

func (d *Discord) SetNickname(ctx context.Context, guildID, userID, nickname, reason string) error {
	return d.s.GuildMemberNickname(guildID, userID, nickname, opts(ctx, reason)...)
}

// --- Webhooks ---

func (d *Discord) CreateWebhook(ctx context.Context, channelID, name, avatarURL, reason string) (*discordgo.Webhook, error) {
	avatar := ""
	if avatarURL != "" {
		var err error
		if avatar, err = fetchImage(ctx, d.http, avatarURL); err != nil {
			return nil, err
		}
	}
	return d.s.WebhookCreate(channelID, name, avatar, opts(ctx, reason)...)
}

func (d *Discord) ChannelWebhooks(ctx context.Context, channelID string) ([]*discordgo.Webhook, error) {
	return d.s.ChannelWebhooks(channelID, discordgo.WithContext(ctx))
}

func (d *Discord) GuildWebhooks(ctx context.Context, guildID string) ([]*discordgo.Webhook, error) {
	return d.s.GuildWebhooks(guildID, discordgo.WithContext(ctx))
}

func (d *Discord) Webhook(ctx context.Context, webhookID string) (*discordgo.Webhook, error) {
	return d.s.Webhook(webhookID, discordgo.WithContext(ctx))
}

func (d *Discord) DeleteWebhook(ctx context.Context, webhookID, reason string) error {
	return d.s.WebhookDelete(webhookID, opts(ctx, reason)...)
}

// --- Invites ---

func (d *Discord) CreateInvite(ctx context.Context, channelID string, inv discordgo.Invite, reason string) (*discordgo.Invite, error) {
	return d.s.ChannelInviteCreate(channelID, inv, opts(ctx, reason)...)
}

func (d *Discord) GuildInvites(ctx context.Context, guildID string) ([]*discordgo.Invite, error) {
	return d.s.GuildInvites(guildID, discordgo.WithContext(ctx))
}

func (d *Discord) DeleteInvite(ctx context.Context, code, reason string) error {
	_, err := d.s.InviteDelete(code, opts(ctx, reason)...)
	return err
}

// --- Threads and forums ---

func (d *Discord) StartThread(ctx context.Context, channelID, messageID string, data discordgo.ThreadStart, reason string) (*discordgo.Channel, error) {
	if messageID != "" {
		return d.s.MessageThreadStartComplex(channelID, messageID, &data, opts(ctx, reason)...)
	}
	return d.s.ThreadStartComplex(channelID, &data, opts(ctx, reason)...)
}

func (d *Discord) ArchivedThreads(ctx context.Context, channelID string) ([]*discordgo.Channel, error) {
	tl, err := d.s.ThreadsArchived(channelID, nil, 0, discordgo.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return tl.Threads, nil
}

func (d *Discord) CreateForumPost(ctx context.Context, channelID string, data discordgo.ThreadStart, content string) (*discordgo.Channel, error) {
	return d.s.ForumThreadStartComplex(channelID, &data, &discordgo.MessageSend{Content: content}, discordgo.WithContext(ctx))
}

// --- Bot presence ---

func (d *Discord) SetPresence(ctx context.Context, activity discordgo.Activity, status discordgo.Status) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{&activity},
		Status:     string(status),
	})
}

// --- Emojis ---

func (d *Discord) CreateEmoji(ctx context.Context, guildID, name, imageURL string, roles []string, reason string) (*discordgo.Emoji, error) {
	image, err := fetchImage(ctx, d.http, imageURL)
	if err != nil {
		return nil, err
	}
	return d.s.GuildEmojiCreate(guildID, &discordgo.EmojiParams{Name: name, Image: image, Roles: roles}, opts(ctx, reason)...)
}

func (d *Discord) DeleteEmoji(ctx context.Context, guildID, emojiID, reason string) error {
	return d.s.GuildEmojiDelete(guildID, emojiID, opts(ctx, reason)...)
}

// --- Scheduled events ---

func (d *Discord) CreateEvent(ctx context.Context, guildID string, params discordgo.GuildScheduledEventParams, imageURL string) (*discordgo.GuildScheduledEvent, error) {
	if imageURL != "" {
		image, err := fetchImage(ctx, d.http, imageURL)
		if err != nil {
			return nil, err
		}
		params.Image = image
	}
	return d.s.GuildScheduledEventCreate(guildID, &params, discordgo.WithContext(ctx))
}

func (d *Discord) EditEvent(ctx context.Context, guildID, eventID string, p EventPatch) (*discordgo.GuildScheduledEvent, error) {
	var ev discordgo.GuildScheduledEvent
	ep := discordgo.EndpointGuildScheduledEvent(guildID, eventID)
	if err := d.request(ctx, http.MethodPatch, ep, ep, p.body(), "", &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

func (d *Discord) DeleteEvent(ctx context.Context, guildID, eventID string) error {
	return d.s.GuildScheduledEventDelete(guildID, eventID, discordgo.WithContext(ctx))
}

// --- Audit log and auto moderation ---

func (d *Discord) AuditLog(ctx context.Context, guildID, userID string, action discordgo.AuditLogAction, limit int) (*discordgo.GuildAuditLog, error) {
	return d.s.GuildAuditLog(guildID, userID, "", int(action), limit, discordgo.WithContext(ctx))
}

func (d *Discord) CreateAutoModRule(ctx context.Context, guildID string, rule discordgo.AutoModerationRule, reason string) (*discordgo.AutoModerationRule, error) {
	return d.s.AutoModerationRuleCreate(guildID, &rule, opts(ctx, reason)...)
}

func (d *Discord) EditAutoModRule(ctx context.Context, guildID, ruleID string, rule discordgo.AutoModerationRule, reason string) (*discordgo.AutoModerationRule, error) {
	return d.s.AutoModerationRuleEdit(guildID, ruleID, &rule, opts(ctx, reason)...)
}

func (d *Discord) DeleteAutoModRule(ctx context.Context, guildID, ruleID, reason string) error {
	return d.s.AutoModerationRuleDelete(guildID, ruleID, opts(ctx, reason)...)
}
