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

type createThreadArgs struct {
	Server              string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel             string `json:"channel" jsonschema:"required,description=Channel name or ID" validate:"required"`
	Name                string `json:"name" jsonschema:"required,description=Thread name" validate:"required"`
	Message             string `json:"message,omitempty" jsonschema:"description=Message ID to start the thread from"`
	AutoArchiveDuration int    `json:"autoArchiveDuration,omitempty" jsonschema:"enum=60,enum=1440,enum=4320,enum=10080,description=Minutes of inactivity before the thread archives" validate:"omitempty,oneof=60 1440 4320 10080"`
	Type                string `json:"type" jsonschema:"default=public,enum=public,enum=private,description=Thread type" validate:"oneof=public private"`
	Reason              string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type listThreadsArgs struct {
	Server   string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel  string `json:"channel" jsonschema:"required,description=Channel name or ID" validate:"required"`
	Archived bool   `json:"archived,omitempty" jsonschema:"default=false,description=Include archived threads"`
}

type threadMessageArgs struct {
	Server  string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Thread  string `json:"thread" jsonschema:"required,description=Thread name or ID" validate:"required"`
	Message string `json:"message" jsonschema:"required,description=Message content to send" validate:"required"`
}

type archiveThreadArgs struct {
	Server   string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Thread   string `json:"thread" jsonschema:"required,description=Thread name or ID" validate:"required"`
	Archived *bool  `json:"archived,omitempty" jsonschema:"default=true,description=true to archive and false to unarchive"`
}

type deleteThreadArgs struct {
	Server string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Thread string `json:"thread" jsonschema:"required,description=Thread name or ID" validate:"required"`
	Reason string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type editThreadArgs struct {
	Server              string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Thread              string `json:"thread" jsonschema:"required,description=Thread name or ID" validate:"required"`
	Name                string `json:"name,omitempty" jsonschema:"description=New thread name"`
	AutoArchiveDuration *int   `json:"autoArchiveDuration,omitempty" jsonschema:"enum=60,enum=1440,enum=4320,enum=10080,description=Minutes of inactivity before the thread archives" validate:"omitempty,oneof=60 1440 4320 10080"`
	RateLimitPerUser    *int   `json:"rateLimitPerUser,omitempty" jsonschema:"minimum=0,maximum=21600,description=Slowmode in seconds (0-21600)" validate:"omitempty,min=0,max=21600"`
	Locked              *bool  `json:"locked,omitempty" jsonschema:"description=Whether only moderators can unarchive the thread"`
	Reason              string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type forumPostArgs struct {
	Server  string   `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel string   `json:"channel" jsonschema:"required,description=Forum channel name or ID" validate:"required"`
	Name    string   `json:"name" jsonschema:"required,description=Post title" validate:"required"`
	Content string   `json:"content" jsonschema:"required,description=Post content" validate:"required"`
	Tags    []string `json:"tags,omitempty" jsonschema:"description=Tag names to apply"`
}

type manageForumTagsArgs struct {
	Server    string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel   string `json:"channel" jsonschema:"required,description=Forum channel name or ID" validate:"required"`
	Action    string `json:"action" jsonschema:"required,enum=create,enum=edit,enum=delete,description=What to do with the tag" validate:"required,oneof=create edit delete"`
	Name      string `json:"name" jsonschema:"required,description=Tag name" validate:"required"`
	NewName   string `json:"newName,omitempty" jsonschema:"description=New tag name (edit only)"`
	Emoji     string `json:"emoji,omitempty" jsonschema:"description=Unicode emoji for the tag"`
	Moderated *bool  `json:"moderated,omitempty" jsonschema:"description=Whether only moderators can apply the tag"`
}

func (h *handlers) threadTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("create-thread", h.createThread, describe("Create a thread in a channel, optionally from a message")...),
		mcpservice.NewTool("list-threads", h.listThreads, describe("List threads in a channel", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("send-thread-message", h.sendThreadMessage, describe("Send a message to a thread")...),
		mcpservice.NewTool("archive-thread", h.archiveThread, describe("Archive or unarchive a thread")...),
		mcpservice.NewTool("delete-thread", h.deleteThread, describe("Delete a thread", mcpservice.WithToolDestructive())...),
		mcpservice.NewTool("edit-thread", h.editThread, describe("Edit thread settings")...),
	}
}

func (h *handlers) forumTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("create-forum-post", h.createForumPost, describe("Create a post in a forum channel")...),
		mcpservice.NewTool("list-forum-tags", h.listForumTags, describe("List the tags available in a forum channel", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("manage-forum-tags", h.manageForumTags, describe("Create, edit or delete forum tags")...),
	}
}

func (h *handlers) createThread(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[createThreadArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.TextChannel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	data := discordgo.ThreadStart{
		Name:                a.Name,
		AutoArchiveDuration: a.AutoArchiveDuration,
		Type:                discordgo.ChannelTypeGuildPublicThread,
	}
	if a.Type == "private" {
		data.Type = discordgo.ChannelTypeGuildPrivateThread
	}
	thread, err := h.c.StartThread(ctx, ch.ID, a.Message, data, a.Reason)
	if err != nil {
		return err
	}
	if a.Message != "" {
		return writef(w, "Thread %q created from message. ID: %s", thread.Name, thread.ID)
	}
	return writef(w, "Thread %q created. ID: %s", thread.Name, thread.ID)
}

type threadView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Archived     bool   `json:"archived"`
	Locked       bool   `json:"locked"`
	MessageCount int    `json:"messageCount"`
	MemberCount  int    `json:"memberCount"`
	CreatedAt    string `json:"createdAt"`
}

func (h *handlers) listThreads(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[listThreadsArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.TextChannel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	active, err := h.c.ActiveThreads(ctx, g.ID)
	if err != nil {
		return err
	}
	var threads []*discordgo.Channel
	for _, t := range active {
		if t.ParentID == ch.ID {
			threads = append(threads, t)
		}
	}
	if a.Archived {
		archived, err := h.c.ArchivedThreads(ctx, ch.ID)
		if err != nil {
			return err
		}
		threads = append(threads, archived...)
	}
	out := make([]threadView, 0, len(threads))
	for _, t := range threads {
		v := threadView{
			ID:           t.ID,
			Name:         t.Name,
			MessageCount: t.MessageCount,
			MemberCount:  t.MemberCount,
			CreatedAt:    createdAt(t.ID),
		}
		if md := t.ThreadMetadata; md != nil {
			v.Archived = md.Archived
			v.Locked = md.Locked
		}
		out = append(out, v)
	}
	return writeJSON(w, out)
}

func (h *handlers) sendThreadMessage(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[threadMessageArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	thread, err := h.r.Thread(ctx, g, a.Thread)
	if err != nil {
		return err
	}
	msg, err := h.c.SendMessage(ctx, thread.ID, a.Message)
	if err != nil {
		return err
	}
	return writef(w, "Message sent to thread %q. Message ID: %s", thread.Name, msg.ID)
}

func (h *handlers) archiveThread(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[archiveThreadArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	thread, err := h.r.Thread(ctx, g, a.Thread)
	if err != nil {
		return err
	}
	archived := a.Archived == nil || *a.Archived
	if _, err := h.c.EditChannel(ctx, thread.ID, platform.ChannelPatch{Archived: platform.Set(archived)}, ""); err != nil {
		return err
	}
	state := "unarchived"
	if archived {
		state = "archived"
	}
	return writef(w, "Thread %q %s", thread.Name, state)
}

func (h *handlers) deleteThread(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[deleteThreadArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	thread, err := h.r.Thread(ctx, g, a.Thread)
	if err != nil {
		return err
	}
	if err := h.c.DeleteChannel(ctx, thread.ID, a.Reason); err != nil {
		return err
	}
	return writef(w, "Thread %q deleted", thread.Name)
}

func (h *handlers) editThread(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[editThreadArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	thread, err := h.r.Thread(ctx, g, a.Thread)
	if err != nil {
		return err
	}
	p := platform.ChannelPatch{
		AutoArchiveDuration: platform.From(a.AutoArchiveDuration),
		RateLimitPerUser:    platform.From(a.RateLimitPerUser),
		Locked:              platform.From(a.Locked),
	}
	if a.Name != "" {
		p.Name = platform.Set(a.Name)
	}
	updated, err := h.c.EditChannel(ctx, thread.ID, p, a.Reason)
	if err != nil {
		return err
	}
	return writef(w, "Thread %q updated", updated.Name)
}

func (h *handlers) createForumPost(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[forumPostArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	forum, err := h.r.Forum(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	// Unknown tag names are skipped.
	applied := []string{}
	for _, t := range forum.AvailableTags {
		for _, want := range a.Tags {
			if strings.EqualFold(t.Name, want) {
				applied = append(applied, t.ID)
				break
			}
		}
	}
	post, err := h.c.CreateForumPost(ctx, forum.ID, discordgo.ThreadStart{Name: a.Name, AppliedTags: applied}, a.Content)
	if err != nil {
		return err
	}
	return writef(w, "Forum post %q created. ID: %s", post.Name, post.ID)
}

type forumTagView struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Emoji     *string `json:"emoji"`
	Moderated bool    `json:"moderated"`
}

func (h *handlers) listForumTags(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[channelArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	forum, err := h.r.Forum(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	out := make([]forumTagView, 0, len(forum.AvailableTags))
	for _, t := range forum.AvailableTags {
		v := forumTagView{ID: t.ID, Name: t.Name, Moderated: t.Moderated}
		switch {
		case t.EmojiName != "":
			e := t.EmojiName
			v.Emoji = &e
		case t.EmojiID != "":
			e := t.EmojiID
			v.Emoji = &e
		}
		out = append(out, v)
	}
	return writeJSON(w, out)
}

func (h *handlers) manageForumTags(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[manageForumTagsArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	forum, err := h.r.Forum(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	tags, err := editTags(forum.AvailableTags, a)
	if err != nil {
		return err
	}
	if _, err := h.c.EditChannel(ctx, forum.ID, platform.ChannelPatch{AvailableTags: platform.Set(tags)}, ""); err != nil {
		return err
	}
	switch a.Action {
	case "create":
		return writef(w, "Tag %q created on forum %q", a.Name, forum.Name)
	case "edit":
		return writef(w, "Tag %q updated", a.Name)
	default:
		return writef(w, "Tag %q deleted from forum %q", a.Name, forum.Name)
	}
}

// editTags returns a copy of tags with the requested change applied. Tags
// are matched by name, ignoring case.
func editTags(tags []discordgo.ForumTag, a manageForumTagsArgs) ([]discordgo.ForumTag, error) {
	out := append([]discordgo.ForumTag{}, tags...)
	switch a.Action {
	case "create":
		t := discordgo.ForumTag{Name: a.Name, EmojiName: a.Emoji}
		if a.Moderated != nil {
			t.Moderated = *a.Moderated
		}
		return append(out, t), nil
	case "edit":
		for i := range out {
			if !strings.EqualFold(out[i].Name, a.Name) {
				continue
			}
			if a.NewName != "" {
				out[i].Name = a.NewName
			}
			if a.Emoji != "" {
				out[i].EmojiID = ""
				out[i].EmojiName = a.Emoji
			}
			if a.Moderated != nil {
				out[i].Moderated = *a.Moderated
			}
			return out, nil
		}
		return nil, fmt.Errorf("Tag %q not found", a.Name)
	default:
		kept := out[:0]
		for _, t := range out {
			if !strings.EqualFold(t.Name, a.Name) {
				kept = append(kept, t)
			}
		}
		return kept, nil
	}
}
