package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/ggoodman/discord-mcp-go/internal/platform"
	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

type auditLogArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Limit  int    `json:"limit" jsonschema:"default=10,minimum=1,maximum=100,description=Number of entries to fetch (1-100)" validate:"min=1,max=100"`
	Type   string `json:"type,omitempty" jsonschema:"description=Action type such as ChannelCreate or MemberBanAdd"`
	User   string `json:"user,omitempty" jsonschema:"description=Only entries made by this member (name or ID)"`
}

type automodActionArgs struct {
	Type     string `json:"type" jsonschema:"required,enum=block,enum=alert,enum=timeout,description=Action to take" validate:"required,oneof=block alert timeout"`
	Channel  string `json:"channel,omitempty" jsonschema:"description=Alert channel (alert only)"`
	Duration int    `json:"duration,omitempty" jsonschema:"minimum=1,maximum=2419200,description=Timeout in seconds (timeout only)" validate:"omitempty,min=1,max=2419200"`
}

type createAutomodArgs struct {
	Server        string              `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Name          string              `json:"name" jsonschema:"required,description=Rule name" validate:"required"`
	TriggerType   string              `json:"triggerType" jsonschema:"required,enum=keyword,enum=spam,enum=keyword_preset,enum=mention_spam,description=What triggers the rule" validate:"required,oneof=keyword spam keyword_preset mention_spam"`
	Keywords      []string            `json:"keywords,omitempty" jsonschema:"description=Keywords to match (keyword trigger)"`
	RegexPatterns []string            `json:"regexPatterns,omitempty" jsonschema:"description=Regular expressions to match (keyword trigger)"`
	Presets       []string            `json:"presets,omitempty" jsonschema:"enum=profanity,enum=sexual_content,enum=slurs,description=Word lists to match (keyword_preset trigger)" validate:"omitempty,dive,oneof=profanity sexual_content slurs"`
	MentionLimit  int                 `json:"mentionLimit,omitempty" jsonschema:"minimum=1,maximum=50,description=Unique mentions allowed per message (mention_spam trigger)" validate:"omitempty,min=1,max=50"`
	Actions       []automodActionArgs `json:"actions" jsonschema:"required,description=Actions taken when the rule triggers" validate:"required,min=1,dive"`
	Enabled       *bool               `json:"enabled,omitempty" jsonschema:"default=true,description=Whether the rule is enabled"`
	Reason        string              `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type editAutomodArgs struct {
	Server        string              `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Rule          string              `json:"rule" jsonschema:"required,description=Rule name or ID" validate:"required"`
	Name          string              `json:"name,omitempty" jsonschema:"description=New rule name"`
	Enabled       *bool               `json:"enabled,omitempty" jsonschema:"description=Whether the rule is enabled"`
	Keywords      []string            `json:"keywords,omitempty" jsonschema:"description=Keywords replacing the current list"`
	RegexPatterns []string            `json:"regexPatterns,omitempty" jsonschema:"description=Regular expressions replacing the current list"`
	Actions       []automodActionArgs `json:"actions,omitempty" jsonschema:"description=Actions replacing the current list" validate:"omitempty,dive"`
	Reason        string              `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type automodRefArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Rule   string `json:"rule" jsonschema:"required,description=Rule name or ID" validate:"required"`
	Reason string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

// triggerMentionSpam is not named by discordgo.
const triggerMentionSpam discordgo.AutoModerationRuleTriggerType = 5

var (
	triggerTypes = map[string]discordgo.AutoModerationRuleTriggerType{
		"keyword":        discordgo.AutoModerationEventTriggerKeyword,
		"spam":           discordgo.AutoModerationEventTriggerSpam,
		"keyword_preset": discordgo.AutoModerationEventTriggerKeywordPreset,
		"mention_spam":   triggerMentionSpam,
	}
	keywordPresets = map[string]discordgo.AutoModerationKeywordPreset{
		"profanity":      discordgo.AutoModerationKeywordPresetProfanity,
		"sexual_content": discordgo.AutoModerationKeywordPresetSexualContent,
		"slurs":          discordgo.AutoModerationKeywordPresetSlurs,
	}
	actionTypes = map[string]discordgo.AutoModerationActionType{
		"block":   discordgo.AutoModerationRuleActionBlockMessage,
		"alert":   discordgo.AutoModerationRuleActionSendAlertMessage,
		"timeout": discordgo.AutoModerationRuleActionTimeout,
	}
)

func nameOf[K comparable](m map[string]K, v K) string {
	for name, k := range m {
		if k == v {
			return name
		}
	}
	return "unknown"
}

func (h *handlers) moderationTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("get-audit-log", h.auditLog, describe("Read recent audit log entries", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("list-automod-rules", h.listAutomodRules, describe("List auto moderation rules", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("create-automod-rule", h.createAutomodRule, describe("Create an auto moderation rule")...),
		mcpservice.NewTool("edit-automod-rule", h.editAutomodRule, describe("Edit an auto moderation rule")...),
		mcpservice.NewTool("delete-automod-rule", h.deleteAutomodRule, describe("Delete an auto moderation rule", mcpservice.WithToolDestructive())...),
	}
}

type auditChangeView struct {
	Key string `json:"key"`
	Old any    `json:"old,omitempty"`
	New any    `json:"new,omitempty"`
}

type auditEntryView struct {
	ID        string            `json:"id"`
	Action    string            `json:"action"`
	Executor  *string           `json:"executor"`
	TargetID  *string           `json:"targetId"`
	Reason    *string           `json:"reason"`
	Changes   []auditChangeView `json:"changes"`
	CreatedAt string            `json:"createdAt"`
}

func (h *handlers) auditLog(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[auditLogArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	var action discordgo.AuditLogAction
	if a.Type != "" {
		var ok bool
		if action, ok = platform.AuditAction(a.Type); !ok {
			return invalidArg("type", fmt.Sprintf("Unknown action %q. Expected one of: %s", a.Type, strings.Join(platform.AuditActionNames(), ", ")))
		}
	}
	var userID string
	if a.User != "" {
		m, err := h.r.Member(ctx, g, a.User)
		if err != nil {
			return err
		}
		userID = m.User.ID
	}
	log, err := h.c.AuditLog(ctx, g.ID, userID, action, a.Limit)
	if err != nil {
		return err
	}
	users := make(map[string]*discordgo.User, len(log.Users))
	for _, u := range log.Users {
		users[u.ID] = u
	}
	out := make([]auditEntryView, 0, len(log.AuditLogEntries))
	for _, e := range log.AuditLogEntries {
		v := auditEntryView{ID: e.ID, Action: "Unknown", Changes: []auditChangeView{}, CreatedAt: createdAt(e.ID)}
		if e.ActionType != nil {
			v.Action = platform.AuditActionName(*e.ActionType)
		}
		if e.UserID != "" {
			executor := e.UserID
			if u, ok := users[e.UserID]; ok {
				executor = tag(u)
			}
			v.Executor = &executor
		}
		if e.TargetID != "" {
			id := e.TargetID
			v.TargetID = &id
		}
		if e.Reason != "" {
			reason := e.Reason
			v.Reason = &reason
		}
		for _, c := range e.Changes {
			if c.Key == nil {
				continue
			}
			v.Changes = append(v.Changes, auditChangeView{Key: string(*c.Key), Old: c.OldValue, New: c.NewValue})
		}
		out = append(out, v)
	}
	return writeJSON(w, out)
}

type automodActionView struct {
	Type     string `json:"type"`
	Channel  string `json:"channelId,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type automodRuleView struct {
	ID            string              `json:"id"`
	Name          string              `json:"name"`
	Enabled       bool                `json:"enabled"`
	TriggerType   string              `json:"triggerType"`
	Keywords      []string            `json:"keywords,omitempty"`
	RegexPatterns []string            `json:"regexPatterns,omitempty"`
	Presets       []string            `json:"presets,omitempty"`
	MentionLimit  int                 `json:"mentionLimit,omitempty"`
	Actions       []automodActionView `json:"actions"`
}

func (h *handlers) listAutomodRules(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[serverArgs]) error {
	g, err := h.guild(ctx, r.Args().Server)
	if err != nil {
		return err
	}
	rules, err := h.c.AutoModRules(ctx, g.ID)
	if err != nil {
		return err
	}
	out := make([]automodRuleView, 0, len(rules))
	for _, rule := range rules {
		v := automodRuleView{
			ID:          rule.ID,
			Name:        rule.Name,
			Enabled:     rule.Enabled != nil && *rule.Enabled,
			TriggerType: nameOf(triggerTypes, rule.TriggerType),
			Actions:     []automodActionView{},
		}
		if md := rule.TriggerMetadata; md != nil {
			v.Keywords = md.KeywordFilter
			v.RegexPatterns = md.RegexPatterns
			v.MentionLimit = md.MentionTotalLimit
			for _, p := range md.Presets {
				v.Presets = append(v.Presets, nameOf(keywordPresets, p))
			}
		}
		for _, act := range rule.Actions {
			av := automodActionView{Type: nameOf(actionTypes, act.Type)}
			if act.Metadata != nil {
				av.Channel = act.Metadata.ChannelID
				av.Duration = act.Metadata.Duration
			}
			v.Actions = append(v.Actions, av)
		}
		out = append(out, v)
	}
	return writeJSON(w, out)
}

// automodActions converts action arguments, resolving alert channels in g.
func (h *handlers) automodActions(ctx context.Context, g *discordgo.Guild, in []automodActionArgs) ([]discordgo.AutoModerationAction, error) {
	out := make([]discordgo.AutoModerationAction, 0, len(in))
	for i, a := range in {
		act := discordgo.AutoModerationAction{Type: actionTypes[a.Type]}
		switch a.Type {
		case "alert":
			if a.Channel == "" {
				return nil, invalidArg(fmt.Sprintf("actions[%d].channel", i), "Required for alert actions")
			}
			ch, err := h.r.TextChannel(ctx, g, a.Channel)
			if err != nil {
				return nil, err
			}
			act.Metadata = &discordgo.AutoModerationActionMetadata{ChannelID: ch.ID}
		case "timeout":
			if a.Duration == 0 {
				return nil, invalidArg(fmt.Sprintf("actions[%d].duration", i), "Required for timeout actions")
			}
			act.Metadata = &discordgo.AutoModerationActionMetadata{Duration: a.Duration}
		}
		out = append(out, act)
	}
	return out, nil
}

func (h *handlers) createAutomodRule(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[createAutomodArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	actions, err := h.automodActions(ctx, g, a.Actions)
	if err != nil {
		return err
	}
	enabled := a.Enabled == nil || *a.Enabled
	rule := discordgo.AutoModerationRule{
		Name:        a.Name,
		EventType:   discordgo.AutoModerationEventMessageSend,
		TriggerType: triggerTypes[a.TriggerType],
		Actions:     actions,
		Enabled:     &enabled,
	}
	switch a.TriggerType {
	case "keyword":
		if len(a.Keywords) == 0 && len(a.RegexPatterns) == 0 {
			return invalidArg("keywords", "Keyword rules need keywords or regexPatterns")
		}
		rule.TriggerMetadata = &discordgo.AutoModerationTriggerMetadata{KeywordFilter: a.Keywords, RegexPatterns: a.RegexPatterns}
	case "keyword_preset":
		if len(a.Presets) == 0 {
			return invalidArg("presets", "Required for keyword_preset rules")
		}
		md := &discordgo.AutoModerationTriggerMetadata{}
		for _, p := range a.Presets {
			md.Presets = append(md.Presets, keywordPresets[p])
		}
		rule.TriggerMetadata = md
	case "mention_spam":
		if a.MentionLimit == 0 {
			return invalidArg("mentionLimit", "Required for mention_spam rules")
		}
		rule.TriggerMetadata = &discordgo.AutoModerationTriggerMetadata{MentionTotalLimit: a.MentionLimit}
	}
	created, err := h.c.CreateAutoModRule(ctx, g.ID, rule, a.Reason)
	if err != nil {
		return err
	}
	return writef(w, "Automod rule %q created. ID: %s", created.Name, created.ID)
}

func (h *handlers) editAutomodRule(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[editAutomodArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	existing, err := h.r.AutoModRule(ctx, g, a.Rule)
	if err != nil {
		return err
	}
	patch := discordgo.AutoModerationRule{Name: a.Name, Enabled: a.Enabled}
	if a.Keywords != nil || a.RegexPatterns != nil {
		md := discordgo.AutoModerationTriggerMetadata{}
		if existing.TriggerMetadata != nil {
			md = *existing.TriggerMetadata
		}
		if a.Keywords != nil {
			md.KeywordFilter = a.Keywords
		}
		if a.RegexPatterns != nil {
			md.RegexPatterns = a.RegexPatterns
		}
		patch.TriggerMetadata = &md
	}
	if len(a.Actions) > 0 {
		if patch.Actions, err = h.automodActions(ctx, g, a.Actions); err != nil {
			return err
		}
	}
	updated, err := h.c.EditAutoModRule(ctx, g.ID, existing.ID, patch, a.Reason)
	if err != nil {
		return err
	}
	return writef(w, "Automod rule %q updated", updated.Name)
}

func (h *handlers) deleteAutomodRule(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[automodRefArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	rule, err := h.r.AutoModRule(ctx, g, a.Rule)
	if err != nil {
		return err
	}
	if err := h.c.DeleteAutoModRule(ctx, g.ID, rule.ID, a.Reason); err != nil {
		return err
	}
	return writef(w, "Automod rule %q deleted", rule.Name)
}
