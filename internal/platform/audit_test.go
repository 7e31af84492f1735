package platform

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestAuditAction(t *testing.T) {
	cases := []struct {
		name string
		want discordgo.AuditLogAction
		ok   bool
	}{
		{"MemberBanAdd", discordgo.AuditLogActionMemberBanAdd, true},
		{"memberbanadd", discordgo.AuditLogActionMemberBanAdd, true},
		{"ChannelCreate", discordgo.AuditLogActionChannelCreate, true},
		{"GuildScheduledEventCreate", 100, true},
		{"Teleport", 0, false},
	}
	for _, tc := range cases {
		got, ok := AuditAction(tc.name)
		if got != tc.want || ok != tc.ok {
			t.Fatalf("AuditAction(%q) = %d, %v; want %d, %v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}

func TestAuditActionNamesRoundTrip(t *testing.T) {
	for _, name := range AuditActionNames() {
		a, ok := AuditAction(name)
		if !ok {
			t.Fatalf("%s not found", name)
		}
		if got := AuditActionName(a); got != name {
			t.Fatalf("AuditActionName(%d) = %s, want %s", a, got, name)
		}
	}
	if got := AuditActionName(9999); got != "Unknown" {
		t.Fatalf("unknown action rendered as %q", got)
	}
}
