package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ggoodman/discord-mcp-go/internal/tools"
	"github.com/ggoodman/discord-mcp-go/mcp"
)

func TestToolsCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"tools", "--disable-tool", "ban-member"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var got []mcp.Tool
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v\n%s", err, out.String())
	}
	if len(got) != len(tools.New(nil).Descriptors())-1 {
		t.Fatalf("got %d tools", len(got))
	}
	for _, tool := range got {
		if tool.Name == "ban-member" {
			t.Fatal("ban-member should be disabled")
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Fatalf("output = %q", out.String())
	}
}

func TestMetricsRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := tools.NewMetrics(reg)
	d := tools.New(nil, tools.WithMetrics(m))
	_, _ = d.CallTool(t.Context(), nil, &mcp.CallToolRequestReceived{Name: "nope"})

	srv := httptest.NewServer(metricsRouter(reg))
	defer srv.Close()

	tests := []struct {
		path string
		want string
	}{
		{"/healthz", "ok"},
		{"/metrics", `discord_mcp_tool_calls_total{outcome="unknown_command",tool="nope"} 1`},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatalf("GET: %v", err)
			}
			defer res.Body.Close()
			var body bytes.Buffer
			_, _ = body.ReadFrom(res.Body)
			if res.StatusCode != http.StatusOK || !strings.Contains(body.String(), tt.want) {
				t.Fatalf("status %d body:\n%s", res.StatusCode, body.String())
			}
		})
	}
}
