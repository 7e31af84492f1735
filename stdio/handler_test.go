package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/discord-mcp-go/internal/jsonrpc"
	"github.com/ggoodman/discord-mcp-go/mcp"
	"github.com/ggoodman/discord-mcp-go/mcpservice"
	"github.com/ggoodman/discord-mcp-go/sessions"
)

// testHarness encapsulates pipes and collected output for stdio handler tests.
type testHarness struct {
	t      *testing.T
	stdinW io.WriteCloser
	outMu  sync.Mutex
	lines  []string
	done   chan error
}

func defaultInitializeRequest() mcp.InitializeRequest {
	return mcp.InitializeRequest{
		ProtocolVersion: mcp.LatestProtocolVersion,
		ClientInfo:      mcp.ImplementationInfo{Name: "client", Version: "0.0.1"},
	}
}

func newHarness(t *testing.T, srv mcpservice.ServerCapabilities) *testHarness {
	t.Helper()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	h := NewHandler(srv, WithIO(inR, outW), WithLogger(slog.Default()), WithUserProvider(StaticUserProvider("tester")))

	ctx, cancel := context.WithCancel(context.Background())
	th := &testHarness{t: t, stdinW: inW, done: make(chan error, 1)}

	go func() {
		th.done <- h.Serve(ctx)
	}()

	go func() {
		sc := bufio.NewScanner(outR)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			t.Logf("OUT: %s", line)
			th.outMu.Lock()
			th.lines = append(th.lines, line)
			th.outMu.Unlock()
		}
	}()

	t.Cleanup(func() {
		cancel()
		_ = inW.Close()
		_ = outW.Close()
	})
	return th
}

func (th *testHarness) sendRaw(s string) {
	th.t.Helper()
	if _, err := th.stdinW.Write([]byte(s + "\n")); err != nil {
		th.t.Fatalf("write stdin: %v", err)
	}
}

func (th *testHarness) send(req *jsonrpc.Request) {
	th.t.Helper()
	b, err := json.Marshal(req)
	if err != nil {
		th.t.Fatalf("marshal: %v", err)
	}
	th.sendRaw(string(b))
}

func (th *testHarness) nextLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		th.outMu.Lock()
		if len(th.lines) > 0 {
			s := th.lines[0]
			th.lines = th.lines[1:]
			th.outMu.Unlock()
			return s, nil
		}
		th.outMu.Unlock()
		time.Sleep(2 * time.Millisecond)
	}
	return "", fmt.Errorf("timeout waiting for output line")
}

func (th *testHarness) expectResponse() *jsonrpc.Response {
	th.t.Helper()
	line, err := th.nextLine(time.Second)
	if err != nil {
		th.t.Fatalf("expect response: %v", err)
	}
	var msg jsonrpc.AnyMessage
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		th.t.Fatalf("decode response: %v", err)
	}
	if msg.Type() != "response" {
		th.t.Fatalf("expected response, got %s", msg.Type())
	}
	return msg.AsResponse()
}

func (th *testHarness) call(id string, method mcp.Method, params any) *jsonrpc.Response {
	th.t.Helper()
	req := &jsonrpc.Request{
		JSONRPCVersion: jsonrpc.ProtocolVersion,
		Method:         string(method),
		ID:             jsonrpc.NewRequestID(id),
	}
	if params != nil {
		req.Params = mustJSON(th.t, params)
	}
	th.send(req)
	return th.expectResponse()
}

func (th *testHarness) initialize(t *testing.T) *mcp.InitializeResult {
	t.Helper()
	res := th.call("init", mcp.InitializeMethod, defaultInitializeRequest())
	if res.Error != nil {
		t.Fatalf("initialize failed: %+v", res.Error)
	}
	var initRes mcp.InitializeResult
	if err := json.Unmarshal(res.Result, &initRes); err != nil {
		t.Fatalf("decode initialize result: %v", err)
	}
	return &initRes
}

func mustJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

type greetArgs struct {
	Name string `json:"name" jsonschema:"required" validate:"required"`
}

func newTestServer(lv *slog.LevelVar) mcpservice.ServerCapabilities {
	greet := mcpservice.NewTool[greetArgs]("greet", func(ctx context.Context, _ sessions.Session, w mcpservice.ToolResponseWriter, r *mcpservice.ToolRequest[greetArgs]) error {
		return w.AppendText("hello " + r.Args().Name)
	}, mcpservice.WithToolDescription("Say hello"))

	return mcpservice.NewServer(
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "test-server", Version: "1.0.0"}),
		mcpservice.WithInstructions("be nice"),
		mcpservice.WithToolsCapability(mcpservice.NewToolsContainer(greet)),
		mcpservice.WithLoggingCapability(mcpservice.NewSlogLevelVarLogging(lv)),
	)
}

func TestInitializeAdvertisesCapabilities(t *testing.T) {
	th := newHarness(t, newTestServer(new(slog.LevelVar)))
	res := th.initialize(t)

	if res.ServerInfo.Name != "test-server" {
		t.Fatalf("server info = %+v", res.ServerInfo)
	}
	if res.ProtocolVersion != mcp.LatestProtocolVersion {
		t.Fatalf("protocol version = %q", res.ProtocolVersion)
	}
	if res.Capabilities.Tools == nil || res.Capabilities.Logging == nil {
		t.Fatalf("capabilities = %+v", res.Capabilities)
	}
	if res.Instructions != "be nice" {
		t.Fatalf("instructions = %q", res.Instructions)
	}
}

func TestRequestsBeforeInitializeAreRejected(t *testing.T) {
	th := newHarness(t, newTestServer(new(slog.LevelVar)))

	res := th.call("1", mcp.ToolsListMethod, nil)
	if res.Error == nil || res.Error.Code != jsonrpc.ErrorCodeInvalidRequest {
		t.Fatalf("expected invalid request, got %+v", res)
	}

	if res := th.call("2", mcp.PingMethod, nil); res.Error != nil {
		t.Fatalf("ping should work before initialize: %+v", res.Error)
	}
}

func TestToolsListAndCall(t *testing.T) {
	th := newHarness(t, newTestServer(new(slog.LevelVar)))
	th.initialize(t)

	res := th.call("list", mcp.ToolsListMethod, mcp.ListToolsRequest{})
	if res.Error != nil {
		t.Fatalf("tools/list: %+v", res.Error)
	}
	var list mcp.ListToolsResult
	if err := json.Unmarshal(res.Result, &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Tools) != 1 || list.Tools[0].Name != "greet" {
		t.Fatalf("tools = %+v", list.Tools)
	}

	res = th.call("call", mcp.ToolsCallMethod, map[string]any{"name": "greet", "arguments": map[string]any{"name": "Ada"}})
	if res.Error != nil {
		t.Fatalf("tools/call: %+v", res.Error)
	}
	var out mcp.CallToolResult
	if err := json.Unmarshal(res.Result, &out); err != nil {
		t.Fatalf("decode call: %v", err)
	}
	if out.IsError || len(out.Content) != 1 || out.Content[0].Text != "hello Ada" {
		t.Fatalf("result = %+v", out)
	}
}

func TestUnknownToolIsInvalidParams(t *testing.T) {
	th := newHarness(t, newTestServer(new(slog.LevelVar)))
	th.initialize(t)

	res := th.call("x", mcp.ToolsCallMethod, map[string]any{"name": "nope"})
	if res.Error == nil || res.Error.Code != jsonrpc.ErrorCodeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", res)
	}
	if res.Error.Message != "Unknown tool: nope" {
		t.Fatalf("message = %q", res.Error.Message)
	}
	if res.ID.String() != "x" {
		t.Fatalf("id = %q", res.ID.String())
	}
}

func TestSetLevel(t *testing.T) {
	lv := new(slog.LevelVar)
	th := newHarness(t, newTestServer(lv))
	th.initialize(t)

	if res := th.call("lvl", mcp.LoggingSetLevelMethod, mcp.SetLevelRequest{Level: mcp.LoggingLevelDebug}); res.Error != nil {
		t.Fatalf("setLevel: %+v", res.Error)
	}
	if lv.Level() != slog.LevelDebug {
		t.Fatalf("level = %v", lv.Level())
	}

	res := th.call("bad", mcp.LoggingSetLevelMethod, mcp.SetLevelRequest{Level: "loud"})
	if res.Error == nil || res.Error.Code != jsonrpc.ErrorCodeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", res)
	}
}

func TestUnknownMethodAndParseError(t *testing.T) {
	th := newHarness(t, newTestServer(new(slog.LevelVar)))
	th.initialize(t)

	res := th.call("m", "resources/list", nil)
	if res.Error == nil || res.Error.Code != jsonrpc.ErrorCodeMethodNotFound {
		t.Fatalf("expected method not found, got %+v", res)
	}

	th.sendRaw(`{not json`)
	res = th.expectResponse()
	if res.Error == nil || res.Error.Code != jsonrpc.ErrorCodeParseError {
		t.Fatalf("expected parse error, got %+v", res)
	}
	if !res.ID.IsNil() {
		t.Fatalf("parse error id should be null, got %q", res.ID.String())
	}
}

func TestServeReturnsOnEOF(t *testing.T) {
	th := newHarness(t, newTestServer(new(slog.LevelVar)))
	th.initialize(t)
	_ = th.stdinW.Close()

	select {
	case err := <-th.done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("serve did not return after EOF")
	}
}
