package services

import (
	"strings"
	"testing"
)

func TestGenerateTopicKeywordsTooFewTexts(t *testing.T) {
	if got := GenerateTopicKeywords(nil); got != "" {
		t.Errorf("expected empty topic for no texts, got %q", got)
	}
	if got := GenerateTopicKeywords([]string{"anxiety about work"}); got != "" {
		t.Errorf("expected empty topic for a single text, got %q", got)
	}
}

func TestGenerateTopicKeywordsFillerOnly(t *testing.T) {
	texts := []string{"yes okay thanks", "sure, thanks! okay?"}
	if got := GenerateTopicKeywords(texts); got != "" {
		t.Errorf("expected empty topic for filler-only texts, got %q", got)
	}
}

func TestGenerateTopicKeywordsPicksDominantTerms(t *testing.T) {
	texts := []string{
		"My inner critic is loud about work again.",
		"The critic says my work is never enough.",
		"I feel the critic most at work deadlines.",
	}
	got := GenerateTopicKeywords(texts)
	if got == "" {
		t.Fatal("expected a topic, got empty string")
	}
	if !strings.Contains(got, "critic") {
		t.Errorf("expected topic to contain %q, got %q", "critic", got)
	}
	if !strings.Contains(got, "work") {
		t.Errorf("expected topic to contain %q, got %q", "work", got)
	}
	if n := len(strings.Split(got, ", ")); n > 3 {
		t.Errorf("expected at most 3 keywords, got %d in %q", n, got)
	}
}

func TestGenerateTopicKeywordsIgnoresPunctuationAndCase(t *testing.T) {
	texts := []string{"ANXIETY!!! anxiety...", "Anxiety, again; anxiety."}
	got := GenerateTopicKeywords(texts)
	if !strings.Contains(got, "anxiety") {
		t.Errorf("expected normalized term %q in topic, got %q", "anxiety", got)
	}
}
