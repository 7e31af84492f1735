package jsonrpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
)

func TestAnyMessageClassification(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		want    string
		wantErr bool
	}{
		{name: "request", in: `{"jsonrpc":"2.0","id":1,"method":"ping"}`, want: "request"},
		{name: "string id", in: `{"jsonrpc":"2.0","id":"a","method":"tools/list"}`, want: "request"},
		{name: "notification", in: `{"jsonrpc":"2.0","method":"notifications/initialized"}`, want: "notification"},
		{name: "response", in: `{"jsonrpc":"2.0","id":1,"result":{}}`, want: "response"},
		{name: "bad version", in: `{"jsonrpc":"1.0","id":1,"method":"ping"}`, wantErr: true},
		{name: "request with result", in: `{"jsonrpc":"2.0","id":1,"method":"ping","result":{}}`, wantErr: true},
		{name: "empty response", in: `{"jsonrpc":"2.0","id":1}`, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var m AnyMessage
			err := json.Unmarshal([]byte(tc.in), &m)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if got := m.Type(); got != tc.want {
				t.Fatalf("type = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	for _, in := range []string{`7`, `"abc"`, `null`} {
		var id RequestID
		if err := json.Unmarshal([]byte(in), &id); err != nil {
			t.Fatalf("unmarshal %s: %v", in, err)
		}
		out, err := json.Marshal(&id)
		if err != nil {
			t.Fatalf("marshal %s: %v", in, err)
		}
		if string(out) != in {
			t.Fatalf("round trip %s -> %s", in, out)
		}
	}
}

func TestAsErrorUnwraps(t *testing.T) {
	base := NewError(ErrorCodeInvalidParams, "Unknown tool: %s", "nope")
	wrapped := fmt.Errorf("call: %w", base)
	got, ok := AsError(wrapped)
	if !ok || got.Code != ErrorCodeInvalidParams || got.Message != "Unknown tool: nope" {
		t.Fatalf("AsError = %+v, %v", got, ok)
	}
	if _, ok := AsError(errors.New("plain")); ok {
		t.Fatalf("plain error should not match")
	}
}
