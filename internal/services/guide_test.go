package services

import (
	"fmt"
	"strings"
	"testing"
)

func TestCleanGuideReply(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "What are you noticing inside?", "What are you noticing inside?"},
		{"guide prefix", "Guide: What does that part feel?", "What does that part feel?"},
		{"assistant prefix lowercase", "assistant: Take a breath.", "Take a breath."},
		{"quoted", `"Maybe you could ask that part."`, "Maybe you could ask that part."},
		{"artifact", "Guide's Response: Notice the feeling.", "Notice the feeling."},
		{"whitespace collapse", "Stay   with\n that.", "Stay with that."},
		{"empty", "", ""},
		{"only quotes", `""`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanGuideReply(tt.raw); got != tt.want {
				t.Errorf("cleanGuideReply(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestBuildGuidePromptIncludesParts(t *testing.T) {
	parts := []map[string]any{
		{"name": "Inner Critic", "role": "Protector", "description": "Harsh voice", "feelings": []any{"anger", "fear"}},
	}
	prompt := buildGuidePrompt(nil, parts, nil)
	for _, want := range []string{"Inner Critic", "Role='Protector'", "Feels='anger, fear'", "No specific part is currently the focus"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildGuidePromptFocusAndEmptyHistory(t *testing.T) {
	focus := map[string]any{"name": "Exile"}
	prompt := buildGuidePrompt(nil, nil, focus)
	if !strings.Contains(prompt, "focusing on the part named 'Exile'") {
		t.Error("prompt missing focus part")
	}
	if !strings.Contains(prompt, "No parts defined yet.") {
		t.Error("prompt missing empty-parts marker")
	}
	if !strings.Contains(prompt, "This is the beginning of the session.") {
		t.Error("prompt missing empty-history marker")
	}
}

func TestBuildGuidePromptTruncatesHistory(t *testing.T) {
	var history []map[string]any
	for i := 0; i < 20; i++ {
		history = append(history, map[string]any{"role": "user", "content": msgContent(i)})
	}
	prompt := buildGuidePrompt(history, nil, nil)
	if strings.Contains(prompt, msgContent(0)) {
		t.Error("oldest message should have been dropped from the prompt")
	}
	if !strings.Contains(prompt, msgContent(19)) {
		t.Error("newest message missing from the prompt")
	}
	if !strings.Contains(prompt, msgContent(5)) {
		t.Error("15th-from-last message should still be present")
	}
}

func msgContent(i int) string {
	return fmt.Sprintf("marker-%02d.", i)
}
