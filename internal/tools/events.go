package tools

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/ggoodman/discord-mcp-go/internal/platform"
	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

type createEventArgs struct {
	Server      string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Name        string `json:"name" jsonschema:"required,description=Event name" validate:"required"`
	StartTime   string `json:"startTime" jsonschema:"required,description=Start time as an ISO 8601 timestamp" validate:"required"`
	EndTime     string `json:"endTime,omitempty" jsonschema:"description=End time as an ISO 8601 timestamp (required for external events)"`
	Description string `json:"description,omitempty" jsonschema:"description=Event description"`
	Channel     string `json:"channel,omitempty" jsonschema:"description=Voice or stage channel hosting the event"`
	Location    string `json:"location,omitempty" jsonschema:"description=Location of an external event"`
	Image       string `json:"image,omitempty" jsonschema:"description=Cover image URL"`
}

type editEventArgs struct {
	Server      string  `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Event       string  `json:"event" jsonschema:"required,description=Event name or ID" validate:"required"`
	Name        string  `json:"name,omitempty" jsonschema:"description=New event name"`
	Description *string `json:"description,omitempty" jsonschema:"description=New description"`
	StartTime   string  `json:"startTime,omitempty" jsonschema:"description=New start time as an ISO 8601 timestamp"`
	EndTime     string  `json:"endTime,omitempty" jsonschema:"description=New end time as an ISO 8601 timestamp"`
	Location    string  `json:"location,omitempty" jsonschema:"description=New location (external events)"`
	Status      string  `json:"status,omitempty" jsonschema:"enum=scheduled,enum=active,enum=completed,enum=canceled,description=New status" validate:"omitempty,oneof=scheduled active completed canceled"`
}

type eventRefArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Event  string `json:"event" jsonschema:"required,description=Event name or ID" validate:"required"`
}

var eventStatuses = map[string]discordgo.GuildScheduledEventStatus{
	"scheduled": discordgo.GuildScheduledEventStatusScheduled,
	"active":    discordgo.GuildScheduledEventStatusActive,
	"completed": discordgo.GuildScheduledEventStatusCompleted,
	"canceled":  discordgo.GuildScheduledEventStatusCanceled,
}

func eventStatusName(s discordgo.GuildScheduledEventStatus) string {
	for name, v := range eventStatuses {
		if v == s {
			return name
		}
	}
	return "unknown"
}

func eventTypeName(t discordgo.GuildScheduledEventEntityType) string {
	switch t {
	case discordgo.GuildScheduledEventEntityTypeStageInstance:
		return "stage"
	case discordgo.GuildScheduledEventEntityTypeVoice:
		return "voice"
	case discordgo.GuildScheduledEventEntityTypeExternal:
		return "external"
	}
	return "unknown"
}

func (h *handlers) eventTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("create-event", h.createEvent, describe("Create a scheduled event in a voice or stage channel or at an external location")...),
		mcpservice.NewTool("list-events", h.listEvents, describe("List scheduled events in a server", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("edit-event", h.editEvent, describe("Edit a scheduled event")...),
		mcpservice.NewTool("delete-event", h.deleteEvent, describe("Delete a scheduled event", mcpservice.WithToolDestructive())...),
	}
}

func (h *handlers) createEvent(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[createEventArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	start, err := parseTime("startTime", a.StartTime)
	if err != nil {
		return err
	}
	params := discordgo.GuildScheduledEventParams{
		Name:               a.Name,
		Description:        a.Description,
		ScheduledStartTime: &start,
		PrivacyLevel:       discordgo.GuildScheduledEventPrivacyLevelGuildOnly,
	}
	if a.EndTime != "" {
		end, err := parseTime("endTime", a.EndTime)
		if err != nil {
			return err
		}
		params.ScheduledEndTime = &end
	}

	if a.Channel != "" {
		ch, err := h.r.Channel(ctx, g, a.Channel)
		if err != nil {
			return err
		}
		switch ch.Type {
		case discordgo.ChannelTypeGuildVoice:
			params.EntityType = discordgo.GuildScheduledEventEntityTypeVoice
		case discordgo.ChannelTypeGuildStageVoice:
			params.EntityType = discordgo.GuildScheduledEventEntityTypeStageInstance
		default:
			return invalidArg("channel", "Event channel must be a voice or stage channel")
		}
		params.ChannelID = ch.ID
	} else {
		if a.Location == "" {
			return invalidArg("location", "Required for events without a channel")
		}
		if params.ScheduledEndTime == nil {
			return invalidArg("endTime", "Required for events without a channel")
		}
		params.EntityType = discordgo.GuildScheduledEventEntityTypeExternal
		params.EntityMetadata = &discordgo.GuildScheduledEventEntityMetadata{Location: a.Location}
	}

	ev, err := h.c.CreateEvent(ctx, g.ID, params, a.Image)
	if err != nil {
		return err
	}
	return writef(w, "Event %q created. ID: %s", ev.Name, ev.ID)
}

type eventView struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	StartTime   string  `json:"startTime"`
	EndTime     *string `json:"endTime"`
	ChannelID   *string `json:"channelId"`
	Location    *string `json:"location"`
	Creator     *string `json:"creator"`
	UserCount   int     `json:"userCount"`
}

func (h *handlers) listEvents(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[serverArgs]) error {
	g, err := h.guild(ctx, r.Args().Server)
	if err != nil {
		return err
	}
	events, err := h.c.GuildScheduledEvents(ctx, g.ID)
	if err != nil {
		return err
	}
	out := make([]eventView, 0, len(events))
	for _, ev := range events {
		v := eventView{
			ID:          ev.ID,
			Name:        ev.Name,
			Description: ev.Description,
			Type:        eventTypeName(ev.EntityType),
			Status:      eventStatusName(ev.Status),
			StartTime:   isoTime(ev.ScheduledStartTime),
			EndTime:     isoTimePtr(ev.ScheduledEndTime),
			UserCount:   ev.UserCount,
		}
		if ev.ChannelID != "" {
			id := ev.ChannelID
			v.ChannelID = &id
		}
		if loc := ev.EntityMetadata.Location; loc != "" {
			v.Location = &loc
		}
		if ev.Creator != nil {
			c := tag(ev.Creator)
			v.Creator = &c
		}
		out = append(out, v)
	}
	return writeJSON(w, out)
}

func (h *handlers) editEvent(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[editEventArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ev, err := h.r.Event(ctx, g, a.Event)
	if err != nil {
		return err
	}
	p := platform.EventPatch{Description: platform.From(a.Description)}
	if a.Name != "" {
		p.Name = platform.Set(a.Name)
	}
	if a.StartTime != "" {
		t, err := parseTime("startTime", a.StartTime)
		if err != nil {
			return err
		}
		p.StartTime = platform.Set(t)
	}
	if a.EndTime != "" {
		t, err := parseTime("endTime", a.EndTime)
		if err != nil {
			return err
		}
		p.EndTime = platform.Set(t)
	}
	if a.Location != "" {
		p.Location = platform.Set(a.Location)
	}
	if s, ok := eventStatuses[a.Status]; ok {
		p.Status = platform.Set(s)
	}
	updated, err := h.c.EditEvent(ctx, g.ID, ev.ID, p)
	if err != nil {
		return err
	}
	return writef(w, "Event %q updated", updated.Name)
}

func (h *handlers) deleteEvent(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[eventRefArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ev, err := h.r.Event(ctx, g, a.Event)
	if err != nil {
		return err
	}
	if err := h.c.DeleteEvent(ctx, g.ID, ev.ID); err != nil {
		return err
	}
	return writef(w, "Event %q deleted", ev.Name)
}
