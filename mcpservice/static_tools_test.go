package mcpservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/ggoodman/discord-mcp-go/mcp"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

type echoArgs struct {
	Message string `json:"message" jsonschema:"required,description=Text to echo" validate:"required"`
	Times   int    `json:"times" jsonschema:"default=1,minimum=1,maximum=3" validate:"min=1,max=3"`
}

func echoTool(name string) StaticTool {
	return NewTool[echoArgs](name, func(ctx context.Context, _ sessions.Session, w ToolResponseWriter, r *ToolRequest[echoArgs]) error {
		for i := 0; i < r.Args().Times; i++ {
			if err := w.AppendText(r.Args().Message); err != nil {
				return err
			}
		}
		return nil
	}, WithToolDescription("Echo a message"), WithToolReadOnly())
}

func TestNewToolSchema(t *testing.T) {
	tool := echoTool("echo")
	schema := tool.Descriptor.InputSchema
	if schema.Type != "object" {
		t.Fatalf("type = %q", schema.Type)
	}
	if len(schema.Required) != 1 || schema.Required[0] != "message" {
		t.Fatalf("required = %v", schema.Required)
	}
	times := schema.Properties["times"]
	if times.Type != "integer" || times.Minimum == nil || *times.Minimum != 1 || times.Maximum == nil || *times.Maximum != 3 {
		t.Fatalf("times property = %+v", times)
	}
	if schema.Properties["message"].Description != "Text to echo" {
		t.Fatalf("message description = %q", schema.Properties["message"].Description)
	}
	if tool.Descriptor.Annotations == nil || !tool.Descriptor.Annotations.ReadOnlyHint {
		t.Fatalf("annotations = %+v", tool.Descriptor.Annotations)
	}
}

func TestToolsContainerCall(t *testing.T) {
	tc := NewToolsContainer(echoTool("echo"))
	res, err := tc.CallTool(context.Background(), nil, &mcp.CallToolRequestReceived{
		Name:      "echo",
		Arguments: json.RawMessage(`{"message":"hi","times":2}`),
	})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if len(res.Content) != 2 || res.Content[0].Text != "hi" {
		t.Fatalf("content = %+v", res.Content)
	}

	_, err = tc.CallTool(context.Background(), nil, &mcp.CallToolRequestReceived{Name: "echo", Arguments: json.RawMessage(`{}`)})
	var argErr *ArgumentsError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected ArgumentsError, got %v", err)
	}
}

func TestToolsContainerUnknownTool(t *testing.T) {
	called := false
	tool := StaticTool{
		Descriptor: mcp.Tool{Name: "known"},
		Handler: func(context.Context, sessions.Session, *mcp.CallToolRequestReceived) (*mcp.CallToolResult, error) {
			called = true
			return TextResult("ok"), nil
		},
	}
	tc := NewToolsContainer(tool)
	_, err := tc.CallTool(context.Background(), nil, &mcp.CallToolRequestReceived{Name: "unknown"})
	if !errors.Is(err, ErrToolNotFound) {
		t.Fatalf("expected ErrToolNotFound, got %v", err)
	}
	if called {
		t.Fatalf("no handler should run for an unknown tool")
	}
}

func TestToolsContainerPagination(t *testing.T) {
	var defs []StaticTool
	for i := 0; i < 5; i++ {
		defs = append(defs, echoTool(fmt.Sprintf("echo-%d", i)))
	}
	tc := NewToolsContainer(defs...)
	tc.SetPageSize(2)

	var names []string
	var cursor *string
	for pages := 0; pages < 10; pages++ {
		page, err := tc.ListTools(context.Background(), nil, cursor)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		for _, tool := range page.Items {
			names = append(names, tool.Name)
		}
		if page.NextCursor == nil {
			break
		}
		cursor = page.NextCursor
	}
	if len(names) != 5 || names[0] != "echo-0" || names[4] != "echo-4" {
		t.Fatalf("names = %v", names)
	}
}

func TestToolsContainerReplaceDeduplicates(t *testing.T) {
	tc := NewToolsContainer(echoTool("a"), echoTool("b"), echoTool("a"))
	if got := len(tc.Snapshot()); got != 2 {
		t.Fatalf("snapshot size = %d", got)
	}
	if names := tc.Names(); len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("names = %v", names)
	}
}
