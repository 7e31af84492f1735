package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
)

func TestHandlerAddsContextGroups(t *testing.T) {
	var buf bytes.Buffer
	log := New(slog.NewJSONHandler(&buf, nil)).With(slog.String("component", "test"))

	ctx := WithSessionData(context.Background(), &SessionData{SessionID: "s1", UserID: "u1"})
	ctx = WithRPCMessage(ctx, &RPCMessage{Method: "tools/call", ID: "7", Type: "request"})
	ctx = WithToolCallData(ctx, &ToolCallData{ToolName: "send-message", CallID: "c1"})

	log.InfoContext(ctx, "tools.call.ok")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("decode log line: %v", err)
	}
	if rec["component"] != "test" {
		t.Fatalf("derived attrs lost: %v", rec)
	}
	tool, _ := rec["tool"].(map[string]any)
	if tool["name"] != "send-message" || tool["call_id"] != "c1" {
		t.Fatalf("tool group = %v", rec["tool"])
	}
	rpc, _ := rec["rpc"].(map[string]any)
	if rpc["method"] != "tools/call" {
		t.Fatalf("rpc group = %v", rec["rpc"])
	}
	sess, _ := rec["sess"].(map[string]any)
	if sess["id"] != "s1" {
		t.Fatalf("sess group = %v", rec["sess"])
	}
}
