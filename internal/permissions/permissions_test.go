package permissions

import (
	"reflect"
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestToFlagSet(t *testing.T) {
	const sendMessages, manageChannels = int64(discordgo.PermissionSendMessages), int64(discordgo.PermissionManageChannels)

	cases := []struct {
		name  string
		input []string
		want  int64
	}{
		{"two names", []string{"SEND_MESSAGES", "MANAGE_CHANNELS"}, sendMessages | manageChannels},
		{"order independent", []string{"MANAGE_CHANNELS", "SEND_MESSAGES"}, sendMessages | manageChannels},
		{"case insensitive", []string{"send_messages", "Manage_Channels"}, sendMessages | manageChannels},
		{"unknown dropped", []string{"SEND_MESSAGES", "FLY"}, sendMessages},
		{"all unknown", []string{"FLY", "TELEPORT"}, 0},
		{"empty", nil, 0},
		{"duplicates", []string{"SEND_MESSAGES", "send_messages"}, sendMessages},
		{"high bit", []string{"MODERATE_MEMBERS"}, 1 << 40},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToFlagSet(tc.input); got != tc.want {
				t.Fatalf("ToFlagSet(%v) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestToOverwriteOptionsDenyWins(t *testing.T) {
	got := ToOverwriteOptions([]string{"VIEW_CHANNEL"}, []string{"VIEW_CHANNEL"})
	want := map[string]bool{"ViewChannel": false}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestToOverwriteOptions(t *testing.T) {
	got := ToOverwriteOptions([]string{"send_messages", "BOGUS"}, []string{"ATTACH_FILES"})
	want := map[string]bool{"SendMessages": true, "AttachFiles": false}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got := ToOverwriteOptions(nil, nil); len(got) != 0 {
		t.Fatalf("expected empty options, got %v", got)
	}
}

func TestTableIsBijective(t *testing.T) {
	names, natives, flags := map[string]bool{}, map[string]bool{}, map[int64]bool{}
	for _, p := range All() {
		if names[p.Name] || natives[p.Native] || flags[p.Flag] {
			t.Fatalf("duplicate entry %+v", p)
		}
		names[p.Name], natives[p.Native], flags[p.Flag] = true, true, true
		if p.Flag&(p.Flag-1) != 0 {
			t.Fatalf("%s is not a single bit", p.Name)
		}
	}
}

func TestNamesInvertsFlagSet(t *testing.T) {
	flags := ToFlagSet([]string{"KICK_MEMBERS", "ADMINISTRATOR", "MANAGE_EMOJIS_AND_STICKERS"})
	got := Names(flags | 1<<55)
	want := []string{"KickMembers", "Administrator", "ManageGuildExpressions"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
}

func TestApplyOverwrite(t *testing.T) {
	view, send, attach := int64(1<<10), int64(1<<11), int64(1<<15)
	allow, deny := view, send|attach

	opts := ToOverwriteOptions([]string{"SEND_MESSAGES"}, []string{"VIEW_CHANNEL"})
	gotAllow, gotDeny := ApplyOverwrite(allow, deny, opts)

	if gotAllow != send {
		t.Fatalf("allow = %b, want %b", gotAllow, send)
	}
	if gotDeny != view|attach {
		t.Fatalf("deny = %b, want %b", gotDeny, view|attach)
	}
}

func TestTableFollowsBitOrder(t *testing.T) {
	for i, p := range table {
		if p.Flag != int64(1)<<i {
			t.Errorf("%s: flag %#x, want bit %d", p.Name, p.Flag, i)
		}
	}
	if got := byName["MANAGE_EMOJIS_AND_STICKERS"].Flag; got != discordgo.PermissionManageEmojis {
		t.Errorf("MANAGE_EMOJIS_AND_STICKERS = %#x", got)
	}
}
