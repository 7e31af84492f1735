package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"DISCORD_TOKEN", "ALFRED_DISCORD_BOT_TOKEN", "DISCORD_MCP_LOG_LEVEL",
		"DISCORD_MCP_LOG_FORMAT", "DISCORD_MCP_CONFIG", "DISCORD_MCP_METRICS_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "discord-mcp.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "tok")

	cfg, err := Load(Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &Config{Token: "tok", LogLevel: "info", LogFormat: "text"}
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestLoadTokenFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("ALFRED_DISCORD_BOT_TOKEN", "legacy")

	cfg, err := Load(Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "legacy" {
		t.Fatalf("token = %q", cfg.Token)
	}

	t.Setenv("DISCORD_TOKEN", "primary")
	cfg, err = Load(Overrides{})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Token != "primary" {
		t.Fatalf("token = %q", cfg.Token)
	}
}

func TestLoadMissingToken(t *testing.T) {
	clearEnv(t)
	if _, err := Load(Overrides{}); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("err = %v, want ErrMissingToken", err)
	}
}

func TestLoadPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeFile(t, t.TempDir(), `
log_level: debug
log_format: json
metrics_addr: ":9100"
disabled_tools: [ban-member, kick-member]
instructions: Be careful.
`)
	t.Setenv("DISCORD_TOKEN", "tok")
	t.Setenv("DISCORD_MCP_CONFIG", path)
	t.Setenv("DISCORD_MCP_LOG_LEVEL", "warn")

	cfg, err := Load(Overrides{MetricsAddr: "127.0.0.1:9200"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &Config{
		Token:         "tok",
		LogLevel:      "warn",
		LogFormat:     "json",
		ConfigFile:    path,
		MetricsAddr:   "127.0.0.1:9200",
		DisabledTools: []string{"ban-member", "kick-member"},
		Instructions:  "Be careful.",
	}
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("cfg = %+v\nwant %+v", cfg, want)
	}

	cfg, err = Load(Overrides{LogLevel: "error", DisabledTools: []string{"delete-channel"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LogLevel != "error" || !reflect.DeepEqual(cfg.DisabledTools, []string{"delete-channel"}) {
		t.Fatalf("flags did not win: %+v", cfg)
	}
}

func TestLoadBadFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("DISCORD_TOKEN", "tok")

	if _, err := Load(Overrides{ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")}); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := writeFile(t, t.TempDir(), "log_level: [")
	if _, err := Load(Overrides{ConfigFile: path}); err == nil || !strings.Contains(err.Error(), "parse config file") {
		t.Fatalf("err = %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{"ok", Config{Token: "t", LogLevel: "DEBUG", LogFormat: "json"}, ""},
		{"no token", Config{LogLevel: "info", LogFormat: "text"}, "DISCORD_TOKEN environment variable is required"},
		{"bad level", Config{Token: "t", LogLevel: "verbose", LogFormat: "text"}, `invalid log level "verbose"`},
		{"bad format", Config{Token: "t", LogLevel: "info", LogFormat: "xml"}, `invalid log format "xml"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.HasPrefix(err.Error(), tt.wantErr) {
				t.Fatalf("err = %v, want prefix %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"Info":  slog.LevelInfo,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Fatal("expected error for trace")
	}
}

func TestWatchReloadsLevel(t *testing.T) {
	path := writeFile(t, t.TempDir(), "log_level: info\n")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	levels := make(chan slog.Level, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, log, func(l slog.Level) { levels <- l })
	}()

	// The watcher may not be registered yet; keep rewriting until a reload lands.
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		select {
		case l := <-levels:
			if l != slog.LevelDebug {
				t.Fatalf("level = %v, want debug", l)
			}
			cancel()
			if err := <-done; err != nil {
				t.Fatalf("Watch: %v", err)
			}
			return
		case <-tick.C:
			if err := os.WriteFile(path, []byte("log_level: debug\n"), 0o600); err != nil {
				t.Fatalf("rewrite: %v", err)
			}
		case <-deadline:
			t.Fatal("no reload observed")
		}
	}
}
