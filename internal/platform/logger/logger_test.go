package logger

import (
	"strings"
	"testing"
)

func TestScrubberRewritesSensitiveFields(t *testing.T) {
	s := &scrubber{enabled: true, salt: "pepper"}

	tests := []struct {
		name string
		key  string
		val  any
		want any
	}{
		{"email dropped", "email", "ada@example.com", "[REDACTED]"},
		{"password dropped", "password", "hunter2", "[REDACTED]"},
		{"refresh token dropped", "refresh_token", "abc", "[REDACTED]"},
		{"jwt under harmless key dropped", "note", "eyJhbGci.eyJzdWIi.sig", "[REDACTED]"},
		{"plain field untouched", "topic", "anger", "anger"},
		{"count untouched", "parts_count", 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := s.fields([]any{tt.key, tt.val})
			if out[1] != tt.want {
				t.Errorf("got %v, want %v", out[1], tt.want)
			}
		})
	}
}

func TestScrubberDigestsTenantIDs(t *testing.T) {
	s := &scrubber{enabled: true, salt: "pepper"}
	id := "2b1f9a34-9f1c-4a7a-9f43-9a8f8f4d3c21"

	out := s.fields([]any{"user_id", id})
	got, ok := out[1].(string)
	if !ok || !strings.HasPrefix(got, "hash:") {
		t.Fatalf("expected digest, got %v", out[1])
	}
	if strings.Contains(got, id) {
		t.Errorf("digest leaks the raw id: %s", got)
	}

	again := s.fields([]any{"user_id", id})
	if again[1] != got {
		t.Errorf("digest is not deterministic: %v vs %v", again[1], got)
	}

	other := &scrubber{enabled: true, salt: "different"}
	if other.fields([]any{"user_id", id})[1] == got {
		t.Error("digest should depend on the salt")
	}
}

func TestScrubberDisabledPassesThrough(t *testing.T) {
	s := &scrubber{enabled: false}
	out := s.fields([]any{"email", "ada@example.com"})
	if out[1] != "ada@example.com" {
		t.Errorf("expected pass-through, got %v", out[1])
	}
}
