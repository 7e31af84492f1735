package mcpservice

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

type bindArgs struct {
	Channel string   `json:"channel" jsonschema:"required" validate:"required"`
	Limit   int      `json:"limit" jsonschema:"default=50,minimum=1,maximum=100" validate:"min=1,max=100"`
	Kind    string   `json:"kind" jsonschema:"default=text,enum=text,enum=voice" validate:"oneof=text voice"`
	Days    *int     `json:"days,omitempty" validate:"omitempty,min=0,max=7"`
	Flag    *bool    `json:"flag,omitempty"`
	Tags    []string `json:"tags,omitempty" validate:"omitempty,dive,oneof=a b"`
}

func TestBindAppliesDefaults(t *testing.T) {
	got, err := Bind[bindArgs](json.RawMessage(`{"channel":"general"}`), true)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if got.Channel != "general" || got.Limit != 50 || got.Kind != "text" {
		t.Fatalf("unexpected args: %+v", got)
	}
	if got.Days != nil || got.Flag != nil {
		t.Fatalf("optional fields should stay unset: %+v", got)
	}
}

func TestBindMissingRequiredNamesField(t *testing.T) {
	_, err := Bind[bindArgs](json.RawMessage(`{}`), true)
	var argErr *ArgumentsError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected ArgumentsError, got %v", err)
	}
	if got := argErr.Error(); got != "Invalid arguments: channel: Required" {
		t.Fatalf("message = %q", got)
	}

	if _, err := Bind[bindArgs](json.RawMessage(`{"channel":"x"}`), true); err != nil {
		t.Fatalf("supplying the field should succeed: %v", err)
	}
}

func TestBindCollectsEveryViolation(t *testing.T) {
	raw := json.RawMessage(`{"channel":5,"limit":500,"kind":"forum","days":9,"tags":["a","z"],"extra":true}`)
	_, err := Bind[bindArgs](raw, true)
	var argErr *ArgumentsError
	if !errors.As(err, &argErr) {
		t.Fatalf("expected ArgumentsError, got %v", err)
	}
	fields := map[string]string{}
	for _, v := range argErr.Violations {
		fields[v.Field] = v.Reason
	}
	want := map[string]string{
		"channel": "Expected string, received number",
		"limit":   "Number must be less than or equal to 100",
		"days":    "Number must be less than or equal to 7",
		"extra":   "Unrecognized key",
	}
	for f, reason := range want {
		if fields[f] != reason {
			t.Errorf("%s: got %q, want %q", f, fields[f], reason)
		}
	}
	if !strings.HasPrefix(fields["kind"], "Invalid enum value. Expected 'text' | 'voice'") {
		t.Errorf("kind: %q", fields["kind"])
	}
	if _, ok := fields["tags[1]"]; !ok {
		t.Errorf("expected tags[1] violation, got %v", fields)
	}
}

func TestBindLenientIgnoresUnknownKeys(t *testing.T) {
	if _, err := Bind[bindArgs](json.RawMessage(`{"channel":"c","whatever":1}`), false); err != nil {
		t.Fatalf("lenient bind: %v", err)
	}
}

func TestBindRejectsNonObject(t *testing.T) {
	_, err := Bind[bindArgs](json.RawMessage(`[1,2]`), true)
	if err == nil || !strings.Contains(err.Error(), "Expected object, received array") {
		t.Fatalf("got %v", err)
	}
}

func TestBindPointerZeroSatisfiesRequired(t *testing.T) {
	type args struct {
		Duration *float64 `json:"duration" validate:"required,gte=0"`
	}
	got, err := Bind[args](json.RawMessage(`{"duration":0}`), true)
	if err != nil {
		t.Fatalf("bind: %v", err)
	}
	if got.Duration == nil || *got.Duration != 0 {
		t.Fatalf("duration = %v", got.Duration)
	}
}

func TestBindAcceptsPresentEmptyString(t *testing.T) {
	got, err := Bind[bindArgs](json.RawMessage(`{"channel":""}`), true)
	if err != nil {
		t.Fatalf("empty string should satisfy required: %v", err)
	}
	if got.Channel != "" {
		t.Fatalf("channel = %q", got.Channel)
	}

	_, err = Bind[bindArgs](json.RawMessage(`{"channel":null}`), true)
	var argErr *ArgumentsError
	if !errors.As(err, &argErr) || argErr.Error() != "Invalid arguments: channel: Required" {
		t.Fatalf("null channel: %v", err)
	}
}
