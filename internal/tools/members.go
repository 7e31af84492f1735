package tools

import (
	"context"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ggoodman/discord-mcp-go/internal/permissions"
	"github.com/ggoodman/discord-mcp-go/internal/resolve"
	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

type listMembersArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Limit  int    `json:"limit" jsonschema:"default=100,minimum=1,maximum=1000,description=Maximum number of members to list (1-1000)" validate:"min=1,max=1000"`
}

type memberArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Member string `json:"member" jsonschema:"required,description=Member username or display name or ID" validate:"required"`
}

type kickArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Member string `json:"member" jsonschema:"required,description=Member to kick" validate:"required"`
	Reason string `json:"reason,omitempty" jsonschema:"description=Reason for kick"`
}

type banArgs struct {
	Server            string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Member            string `json:"member" jsonschema:"required,description=Member to ban" validate:"required"`
	Reason            string `json:"reason,omitempty" jsonschema:"description=Reason for ban"`
	DeleteMessageDays int    `json:"deleteMessageDays,omitempty" jsonschema:"minimum=0,maximum=7,description=Days of messages to delete (0-7)" validate:"min=0,max=7"`
}

type unbanArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	UserID string `json:"userId" jsonschema:"required,description=User ID to unban" validate:"required"`
	Reason string `json:"reason,omitempty" jsonschema:"description=Reason for unban"`
}

type timeoutArgs struct {
	Server   string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Member   string `json:"member" jsonschema:"required,description=Member to timeout" validate:"required"`
	Duration *int   `json:"duration" jsonschema:"required,minimum=0,maximum=40320,description=Timeout duration in minutes (0 to remove timeout)" validate:"required,min=0,max=40320"`
	Reason   string `json:"reason,omitempty" jsonschema:"description=Reason for timeout"`
}

type setNicknameArgs struct {
	Server   string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Member   string `json:"member" jsonschema:"required,description=Member username or display name or ID" validate:"required"`
	Nickname string `json:"nickname,omitempty" jsonschema:"description=New nickname (omit to clear)"`
	Reason   string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

func (h *handlers) memberTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("list-members", h.listMembers, describe("List members in a Discord server", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("get-member-info", h.memberInfo, describe("Get detailed information about a server member", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("kick-member", h.kickMember, describe("Kick a member from the server", mcpservice.WithToolDestructive())...),
		mcpservice.NewTool("ban-member", h.banMember, describe("Ban a member from the server", mcpservice.WithToolDestructive())...),
		mcpservice.NewTool("unban-member", h.unbanMember, describe("Unban a user from the server")...),
		mcpservice.NewTool("timeout-member", h.timeoutMember, describe("Timeout (mute) a member for a specified duration")...),
		mcpservice.NewTool("list-bans", h.listBans, describe("List all banned users in the server", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("set-nickname", h.setNickname, describe("Set or clear a member's nickname")...),
	}
}

type memberView struct {
	ID          string   `json:"id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"displayName"`
	Tag         string   `json:"tag"`
	Bot         bool     `json:"bot"`
	JoinedAt    string   `json:"joinedAt"`
	Roles       []string `json:"roles"`
}

func (h *handlers) listMembers(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[listMembersArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	members, err := h.c.ListMembers(ctx, g.ID, a.Limit)
	if err != nil {
		return err
	}
	roles, err := h.c.GuildRoles(ctx, g.ID)
	if err != nil {
		return err
	}
	out := make([]memberView, 0, len(members))
	for _, m := range members {
		if m.User == nil {
			continue
		}
		out = append(out, memberView{
			ID:          m.User.ID,
			Username:    m.User.Username,
			DisplayName: resolve.DisplayName(m),
			Tag:         tag(m.User),
			Bot:         m.User.Bot,
			JoinedAt:    isoTime(m.JoinedAt),
			Roles:       roleNames(g, roles, m.Roles),
		})
	}
	return writeJSON(w, out)
}

type memberRoleView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

type memberInfoView struct {
	ID                         string           `json:"id"`
	Username                   string           `json:"username"`
	DisplayName                string           `json:"displayName"`
	Tag                        string           `json:"tag"`
	Bot                        bool             `json:"bot"`
	Avatar                     *string          `json:"avatar"`
	JoinedAt                   string           `json:"joinedAt"`
	CreatedAt                  string           `json:"createdAt"`
	Roles                      []memberRoleView `json:"roles"`
	Permissions                []string         `json:"permissions"`
	Nickname                   *string          `json:"nickname"`
	CommunicationDisabledUntil *string          `json:"communicationDisabledUntil"`
	Pending                    bool             `json:"pending"`
	PremiumSince               *string          `json:"premiumSince"`
}

func (h *handlers) memberInfo(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[memberArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	m, err := h.r.Member(ctx, g, a.Member)
	if err != nil {
		return err
	}
	roles, err := h.c.GuildRoles(ctx, g.ID)
	if err != nil {
		return err
	}

	v := memberInfoView{
		ID:                         m.User.ID,
		Username:                   m.User.Username,
		DisplayName:                resolve.DisplayName(m),
		Tag:                        tag(m.User),
		Bot:                        m.User.Bot,
		JoinedAt:                   isoTime(m.JoinedAt),
		CreatedAt:                  createdAt(m.User.ID),
		Roles:                      []memberRoleView{},
		Permissions:                permissions.Names(memberPermissions(g, roles, m)),
		CommunicationDisabledUntil: isoTimePtr(m.CommunicationDisabledUntil),
		Pending:                    m.Pending,
		PremiumSince:               isoTimePtr(m.PremiumSince),
	}
	if m.User.Avatar != "" {
		url := m.User.AvatarURL("")
		v.Avatar = &url
	}
	if m.Nick != "" {
		nick := m.Nick
		v.Nickname = &nick
	}
	if v.Permissions == nil {
		v.Permissions = []string{}
	}
	held := make(map[string]bool, len(m.Roles))
	for _, id := range m.Roles {
		held[id] = true
	}
	for _, role := range roles {
		if held[role.ID] && role.ID != g.ID {
			v.Roles = append(v.Roles, memberRoleView{ID: role.ID, Name: role.Name, Color: hexColor(role.Color)})
		}
	}
	return writeJSON(w, v)
}

// memberPermissions computes a member's guild-level permissions from the
// roles it holds. The owner and administrators hold every permission.
func memberPermissions(g *discordgo.Guild, roles []*discordgo.Role, m *discordgo.Member) int64 {
	var all int64
	for _, p := range permissions.All() {
		all |= p.Flag
	}
	if g.OwnerID != "" && g.OwnerID == m.User.ID {
		return all
	}
	held := make(map[string]bool, len(m.Roles)+1)
	held[g.ID] = true
	for _, id := range m.Roles {
		held[id] = true
	}
	var flags int64
	for _, role := range roles {
		if held[role.ID] {
			flags |= role.Permissions
		}
	}
	if flags&discordgo.PermissionAdministrator != 0 {
		return all
	}
	return flags
}

func (h *handlers) kickMember(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[kickArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	m, err := h.r.Member(ctx, g, a.Member)
	if err != nil {
		return err
	}
	if err := h.c.Kick(ctx, g.ID, m.User.ID, a.Reason); err != nil {
		return err
	}
	return w.AppendText(withReason(tag(m.User)+" has been kicked from the server", a.Reason))
}

func (h *handlers) banMember(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[banArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	m, err := h.r.Member(ctx, g, a.Member)
	if err != nil {
		return err
	}
	if err := h.c.Ban(ctx, g.ID, m.User.ID, a.Reason, a.DeleteMessageDays); err != nil {
		return err
	}
	return w.AppendText(withReason(tag(m.User)+" has been banned from the server", a.Reason))
}

func (h *handlers) unbanMember(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[unbanArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	if err := h.c.Unban(ctx, g.ID, a.UserID, a.Reason); err != nil {
		return err
	}
	return w.AppendText(withReason("User "+a.UserID+" has been unbanned", a.Reason))
}

func (h *handlers) timeoutMember(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[timeoutArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	m, err := h.r.Member(ctx, g, a.Member)
	if err != nil {
		return err
	}
	minutes := *a.Duration
	if minutes == 0 {
		if err := h.c.Timeout(ctx, g.ID, m.User.ID, nil, a.Reason); err != nil {
			return err
		}
		return writef(w, "Timeout removed from %s", tag(m.User))
	}
	until := time.Now().Add(time.Duration(minutes) * time.Minute)
	if err := h.c.Timeout(ctx, g.ID, m.User.ID, &until, a.Reason); err != nil {
		return err
	}
	return w.AppendText(withReason(tag(m.User)+" has been timed out for "+strconv.Itoa(minutes)+" minutes", a.Reason))
}

type banView struct {
	UserID   string  `json:"userId"`
	Username string  `json:"username"`
	Tag      string  `json:"tag"`
	Reason   *string `json:"reason"`
}

func (h *handlers) listBans(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[serverArgs]) error {
	g, err := h.guild(ctx, r.Args().Server)
	if err != nil {
		return err
	}
	bans, err := h.c.Bans(ctx, g.ID)
	if err != nil {
		return err
	}
	out := make([]banView, 0, len(bans))
	for _, b := range bans {
		if b.User == nil {
			continue
		}
		v := banView{UserID: b.User.ID, Username: b.User.Username, Tag: tag(b.User)}
		if b.Reason != "" {
			reason := b.Reason
			v.Reason = &reason
		}
		out = append(out, v)
	}
	return writeJSON(w, out)
}

func (h *handlers) setNickname(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[setNicknameArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	m, err := h.r.Member(ctx, g, a.Member)
	if err != nil {
		return err
	}
	if err := h.c.SetNickname(ctx, g.ID, m.User.ID, a.Nickname, a.Reason); err != nil {
		return err
	}
	if a.Nickname == "" {
		return writef(w, "Nickname cleared for %s", tag(m.User))
	}
	return writef(w, "Nickname for %s set to %q", tag(m.User), a.Nickname)
}
