package platform

import (
	"encoding/json"
	"testing"
	"time"
)

func TestFieldStates(t *testing.T) {
	var unsetField Field[string]
	if !unsetField.IsZero() || unsetField.IsCleared() {
		t.Fatalf("zero field should be unset")
	}
	if v, ok := Set("x").Get(); !ok || v != "x" {
		t.Fatalf("Set(x).Get() = %q, %v", v, ok)
	}
	if _, ok := Clear[string]().Get(); ok {
		t.Fatalf("cleared field should not report a value")
	}
	if !Clear[int]().IsCleared() {
		t.Fatalf("Clear should be cleared")
	}
	if !From[int](nil).IsZero() {
		t.Fatalf("From(nil) should be unset")
	}
	n := 3
	if v, ok := From(&n).Get(); !ok || v != 3 {
		t.Fatalf("From(&3).Get() = %d, %v", v, ok)
	}
}

func render(t *testing.T, body map[string]any) string {
	t.Helper()
	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(b)
}

func TestChannelPatchBody(t *testing.T) {
	cases := []struct {
		name  string
		patch ChannelPatch
		want  string
	}{
		{"empty", ChannelPatch{}, `{}`},
		{"move to category", ChannelPatch{ParentID: Set("123")}, `{"parent_id":"123"}`},
		{"remove from category", ChannelPatch{ParentID: Clear[string]()}, `{"parent_id":null}`},
		{"false is sent", ChannelPatch{NSFW: Set(false), Topic: Set("")}, `{"nsfw":false,"topic":""}`},
		{"thread fields", ChannelPatch{Archived: Set(true), Locked: Set(true), AutoArchiveDuration: Set(60)},
			`{"archived":true,"auto_archive_duration":60,"locked":true}`},
		{"slowmode", ChannelPatch{RateLimitPerUser: Set(30)}, `{"rate_limit_per_user":30}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := render(t, tc.patch.body()); got != tc.want {
				t.Fatalf("body = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestGuildPatchBodyOmitsIcon(t *testing.T) {
	p := GuildPatch{Name: Set("Alpha"), IconURL: Set("https://example.com/a.png"), AFKChannelID: Clear[string]()}
	if got, want := render(t, p.body()), `{"afk_channel_id":null,"name":"Alpha"}`; got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}

func TestRolePatchBody(t *testing.T) {
	p := RolePatch{Name: Set("mods"), Permissions: Set(int64(1 << 40)), Position: Set(4)}
	if got, want := render(t, p.body()), `{"name":"mods","permissions":"1099511627776"}`; got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
	if got := render(t, RolePatch{Permissions: Set(int64(0))}.body()); got != `{"permissions":"0"}` {
		t.Fatalf("zero permissions should still be sent, got %s", got)
	}
}

func TestEventPatchBody(t *testing.T) {
	start := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	p := EventPatch{StartTime: Set(start), Location: Set("Park"), Description: Clear[string]()}
	want := `{"description":null,"entity_metadata":{"location":"Park"},"scheduled_start_time":"2026-05-01T18:00:00Z"}`
	if got := render(t, p.body()); got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
}
