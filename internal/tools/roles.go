package tools

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/ggoodman/discord-mcp-go/internal/permissions"
	"github.com/ggoodman/discord-mcp-go/internal/platform"
	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

type createRoleArgs struct {
	Server      string   `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Name        string   `json:"name" jsonschema:"required,description=Role name" validate:"required"`
	Color       string   `json:"color,omitempty" jsonschema:"description=Role color (hex code like #FF0000 or a color name like Red)"`
	Hoist       *bool    `json:"hoist,omitempty" jsonschema:"description=Whether to display role members separately"`
	Mentionable *bool    `json:"mentionable,omitempty" jsonschema:"description=Whether the role can be mentioned"`
	Permissions []string `json:"permissions,omitempty" jsonschema:"description=Permission names such as SEND_MESSAGES or MANAGE_CHANNELS"`
	Position    *int     `json:"position,omitempty" jsonschema:"minimum=1,description=Role position" validate:"omitempty,min=1"`
	Reason      string   `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type editRoleArgs struct {
	Server      string   `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Role        string   `json:"role" jsonschema:"required,description=Role name or ID to edit" validate:"required"`
	Name        string   `json:"name,omitempty" jsonschema:"description=New role name"`
	Color       string   `json:"color,omitempty" jsonschema:"description=New role color"`
	Hoist       *bool    `json:"hoist,omitempty" jsonschema:"description=Whether to display role members separately"`
	Mentionable *bool    `json:"mentionable,omitempty" jsonschema:"description=Whether the role can be mentioned"`
	Permissions []string `json:"permissions,omitempty" jsonschema:"description=Permission names replacing the current set"`
	Position    *int     `json:"position,omitempty" jsonschema:"minimum=1,description=New role position" validate:"omitempty,min=1"`
	Reason      string   `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type deleteRoleArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Role   string `json:"role" jsonschema:"required,description=Role name or ID to delete" validate:"required"`
	Reason string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type memberRoleArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Member string `json:"member" jsonschema:"required,description=Member username or display name or ID" validate:"required"`
	Role   string `json:"role" jsonschema:"required,description=Role name or ID" validate:"required"`
	Reason string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

func (h *handlers) roleTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("list-roles", h.listRoles, describe("List all roles in a Discord server", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("create-role", h.createRole, describe("Create a new role in a Discord server")...),
		mcpservice.NewTool("edit-role", h.editRole, describe("Edit an existing role")...),
		mcpservice.NewTool("delete-role", h.deleteRole, describe("Delete a role from a Discord server", mcpservice.WithToolDestructive())...),
		mcpservice.NewTool("assign-role", h.assignRole, describe("Assign a role to a member")...),
		mcpservice.NewTool("remove-role", h.removeRole, describe("Remove a role from a member")...),
	}
}

type roleView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color"`
	Position    int    `json:"position"`
	Hoist       bool   `json:"hoist"`
	Mentionable bool   `json:"mentionable"`
	MemberCount int    `json:"memberCount"`
	Managed     bool   `json:"managed"`
}

func (h *handlers) listRoles(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[serverArgs]) error {
	g, err := h.guild(ctx, r.Args().Server)
	if err != nil {
		return err
	}
	roles, err := h.c.GuildRoles(ctx, g.ID)
	if err != nil {
		return err
	}
	members, err := h.c.GuildMembers(ctx, g.ID)
	if err != nil {
		return err
	}
	counts := make(map[string]int, len(roles))
	for _, m := range members {
		for _, id := range m.Roles {
			counts[id]++
		}
	}
	// Every member implicitly holds @everyone.
	counts[g.ID] = len(members)

	sorted := append([]*discordgo.Role(nil), roles...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position > sorted[j].Position })
	out := make([]roleView, 0, len(sorted))
	for _, role := range sorted {
		out = append(out, roleView{
			ID:          role.ID,
			Name:        role.Name,
			Color:       hexColor(role.Color),
			Position:    role.Position,
			Hoist:       role.Hoist,
			Mentionable: role.Mentionable,
			MemberCount: counts[role.ID],
			Managed:     role.Managed,
		})
	}
	return writeJSON(w, out)
}

func (h *handlers) createRole(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[createRoleArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	p := platform.RolePatch{
		Name:        platform.Set(a.Name),
		Hoist:       platform.From(a.Hoist),
		Mentionable: platform.From(a.Mentionable),
		Position:    platform.From(a.Position),
	}
	if a.Color != "" {
		c, err := parseColor(a.Color)
		if err != nil {
			return err
		}
		p.Color = platform.Set(c)
	}
	if a.Permissions != nil {
		p.Permissions = platform.Set(permissions.ToFlagSet(a.Permissions))
	}
	role, err := h.c.CreateRole(ctx, g.ID, p, a.Reason)
	if err != nil {
		return err
	}
	return writef(w, "Role %q created successfully. ID: %s", role.Name, role.ID)
}

func (h *handlers) editRole(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[editRoleArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	role, err := h.r.Role(ctx, g, a.Role)
	if err != nil {
		return err
	}
	p := platform.RolePatch{
		Hoist:       platform.From(a.Hoist),
		Mentionable: platform.From(a.Mentionable),
		Position:    platform.From(a.Position),
	}
	if a.Name != "" {
		p.Name = platform.Set(a.Name)
	}
	if a.Color != "" {
		c, err := parseColor(a.Color)
		if err != nil {
			return err
		}
		p.Color = platform.Set(c)
	}
	if a.Permissions != nil {
		p.Permissions = platform.Set(permissions.ToFlagSet(a.Permissions))
	}
	if _, err := h.c.EditRole(ctx, g.ID, role.ID, p, a.Reason); err != nil {
		return err
	}
	name := role.Name
	if a.Name != "" {
		name = a.Name
	}
	return writef(w, "Role %q updated successfully", name)
}

func (h *handlers) deleteRole(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[deleteRoleArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	role, err := h.r.Role(ctx, g, a.Role)
	if err != nil {
		return err
	}
	if err := h.c.DeleteRole(ctx, g.ID, role.ID, a.Reason); err != nil {
		return err
	}
	return writef(w, "Role %q deleted successfully", role.Name)
}

func (h *handlers) assignRole(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[memberRoleArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	m, err := h.r.Member(ctx, g, a.Member)
	if err != nil {
		return err
	}
	role, err := h.r.Role(ctx, g, a.Role)
	if err != nil {
		return err
	}
	if err := h.c.AddMemberRole(ctx, g.ID, m.User.ID, role.ID, a.Reason); err != nil {
		return err
	}
	return writef(w, "Role %q assigned to %s", role.Name, tag(m.User))
}

func (h *handlers) removeRole(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[memberRoleArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	m, err := h.r.Member(ctx, g, a.Member)
	if err != nil {
		return err
	}
	role, err := h.r.Role(ctx, g, a.Role)
	if err != nil {
		return err
	}
	if err := h.c.RemoveMemberRole(ctx, g.ID, m.User.ID, role.ID, a.Reason); err != nil {
		return err
	}
	return writef(w, "Role %q removed from %s", role.Name, tag(m.User))
}

// namedColors is the palette role colours may be given by name.
var namedColors = map[string]int{
	"default":           0x000000,
	"white":             0xffffff,
	"aqua":              0x1abc9c,
	"green":             0x57f287,
	"blue":              0x3498db,
	"yellow":            0xfee75c,
	"purple":            0x9b59b6,
	"luminousvividpink": 0xe91e63,
	"fuchsia":           0xeb459e,
	"gold":              0xf1c40f,
	"orange":            0xe67e22,
	"red":               0xed4245,
	"grey":              0x95a5a6,
	"navy":              0x34495e,
	"darkaqua":          0x11806a,
	"darkgreen":         0x1f8b4c,
	"darkblue":          0x206694,
	"darkpurple":        0x71368a,
	"darkvividpink":     0xad1457,
	"darkgold":          0xc27c0e,
	"darkorange":        0xa84300,
	"darkred":           0x992d22,
	"darkgrey":          0x979c9f,
	"darkergrey":        0x7f8c8d,
	"lightgrey":         0xbcc0c0,
	"darknavy":          0x2c3e50,
	"blurple":           0x5865f2,
	"greyple":           0x99aab5,
	"darkbutnotblack":   0x2c2f33,
	"notquiteblack":     0x23272a,
}

// parseColor accepts "#RRGGBB", "RRGGBB" or a palette name, ignoring case,
// spaces and underscores in names.
func parseColor(s string) (int, error) {
	key := strings.NewReplacer(" ", "", "_", "").Replace(strings.ToLower(strings.TrimSpace(s)))
	if c, ok := namedColors[key]; ok {
		return c, nil
	}
	hex := strings.TrimPrefix(key, "#")
	if len(hex) == 6 {
		if v, err := strconv.ParseUint(hex, 16, 32); err == nil {
			return int(v), nil
		}
	}
	return 0, invalidArg("color", fmt.Sprintf("Expected hex color like #FF0000 or a color name, received %q", s))
}
