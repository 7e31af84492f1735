package tools

import (
	"context"

	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

type sendMessageArgs struct {
	Server  string `json:"server,omitempty" jsonschema:"description=Server name or ID (optional if bot is only in one server)"`
	Channel string `json:"channel" jsonschema:"required,description=Channel name or ID" validate:"required"`
	Message string `json:"message" jsonschema:"required,description=Message content to send" validate:"required"`
}

type readMessagesArgs struct {
	Server  string `json:"server,omitempty" jsonschema:"description=Server name or ID (optional if bot is only in one server)"`
	Channel string `json:"channel" jsonschema:"required,description=Channel name or ID" validate:"required"`
	Limit   int    `json:"limit" jsonschema:"default=50,minimum=1,maximum=100,description=Number of messages to fetch (1-100)" validate:"min=1,max=100"`
}

type messageRefArgs struct {
	Server    string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel   string `json:"channel" jsonschema:"required,description=Channel name or ID" validate:"required"`
	MessageID string `json:"messageId" jsonschema:"required,description=Message ID" validate:"required"`
}

type deleteMessageArgs struct {
	Server    string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel   string `json:"channel" jsonschema:"required,description=Channel name or ID" validate:"required"`
	MessageID string `json:"messageId" jsonschema:"required,description=Message ID to delete" validate:"required"`
	Reason    string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type bulkDeleteArgs struct {
	Server  string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel string `json:"channel" jsonschema:"required,description=Channel name or ID" validate:"required"`
	Count   int    `json:"count" jsonschema:"required,minimum=2,maximum=100,description=Number of messages to delete (2-100)" validate:"required,min=2,max=100"`
	Reason  string `json:"reason,omitempty" jsonschema:"description=Reason recorded in the audit log"`
}

type channelArgs struct {
	Server  string `json:"server,omitempty" jsonschema:"description=Server name or ID"`
	Channel string `json:"channel" jsonschema:"required,description=Channel name or ID" validate:"required"`
}

func (h *handlers) messageTools() []mcpservice.StaticTool {
	return []mcpservice.StaticTool{
		mcpservice.NewTool("send-message", h.sendMessage, describe("Send a message to a Discord channel")...),
		mcpservice.NewTool("read-messages", h.readMessages, describe("Read recent messages from a Discord channel", mcpservice.WithToolReadOnly())...),
		mcpservice.NewTool("delete-message", h.deleteMessage, describe("Delete a specific message", mcpservice.WithToolDestructive())...),
		mcpservice.NewTool("bulk-delete-messages", h.bulkDeleteMessages, describe("Delete multiple recent messages (2-100; messages must be less than 14 days old)", mcpservice.WithToolDestructive())...),
		mcpservice.NewTool("pin-message", h.pinMessage, describe("Pin a message in a channel")...),
		mcpservice.NewTool("unpin-message", h.unpinMessage, describe("Unpin a message in a channel")...),
		mcpservice.NewTool("get-pinned-messages", h.pinnedMessages, describe("Get all pinned messages in a channel", mcpservice.WithToolReadOnly())...),
	}
}

func (h *handlers) sendMessage(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[sendMessageArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.TextChannel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	msg, err := h.c.SendMessage(ctx, ch.ID, a.Message)
	if err != nil {
		return err
	}
	return writef(w, "Message sent successfully to #%s in %s. Message ID: %s", ch.Name, g.Name, msg.ID)
}

type messageView struct {
	ID          string   `json:"id"`
	Channel     string   `json:"channel"`
	Server      string   `json:"server"`
	Author      string   `json:"author"`
	Content     string   `json:"content"`
	Timestamp   string   `json:"timestamp"`
	Attachments []string `json:"attachments,omitempty"`
}

func (h *handlers) readMessages(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[readMessagesArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.TextChannel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	msgs, err := h.c.Messages(ctx, ch.ID, a.Limit)
	if err != nil {
		return err
	}
	// Discord returns newest first.
	out := make([]messageView, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		v := messageView{
			ID:        m.ID,
			Channel:   "#" + ch.Name,
			Server:    g.Name,
			Author:    tag(m.Author),
			Content:   m.Content,
			Timestamp: isoTime(m.Timestamp),
		}
		for _, att := range m.Attachments {
			v.Attachments = append(v.Attachments, att.URL)
		}
		out = append(out, v)
	}
	return writeJSON(w, out)
}

func (h *handlers) deleteMessage(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[deleteMessageArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.TextChannel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	if err := h.c.DeleteMessage(ctx, ch.ID, a.MessageID, a.Reason); err != nil {
		return err
	}
	return writef(w, "Message %s deleted successfully from #%s", a.MessageID, ch.Name)
}

func (h *handlers) bulkDeleteMessages(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[bulkDeleteArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.TextChannel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	n, err := h.c.BulkDeleteMessages(ctx, ch.ID, a.Count, a.Reason)
	if err != nil {
		return err
	}
	return writef(w, "Successfully deleted %d messages from #%s", n, ch.Name)
}

func (h *handlers) pinMessage(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[messageRefArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.TextChannel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	if err := h.c.PinMessage(ctx, ch.ID, a.MessageID); err != nil {
		return err
	}
	return writef(w, "Message %s pinned successfully in #%s", a.MessageID, ch.Name)
}

func (h *handlers) unpinMessage(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[messageRefArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.TextChannel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	if err := h.c.UnpinMessage(ctx, ch.ID, a.MessageID); err != nil {
		return err
	}
	return writef(w, "Message %s unpinned successfully in #%s", a.MessageID, ch.Name)
}

type pinnedView struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func (h *handlers) pinnedMessages(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[channelArgs]) error {
	a := r.Args()
	g, err := h.guild(ctx, a.Server)
	if err != nil {
		return err
	}
	ch, err := h.r.TextChannel(ctx, g, a.Channel)
	if err != nil {
		return err
	}
	msgs, err := h.c.PinnedMessages(ctx, ch.ID)
	if err != nil {
		return err
	}
	out := make([]pinnedView, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, pinnedView{ID: m.ID, Author: tag(m.Author), Content: m.Content, Timestamp: isoTime(m.Timestamp)})
	}
	return writeJSON(w, out)
}
