package entities

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestDedupe_PreservesOrder(t *testing.T) {
	in := []Entity{
		{Text: "Acme", Label: "ORG"},
		{Text: "Berlin", Label: "GPE"},
		{Text: "Acme", Label: "ORG"},
		{Text: "Acme", Label: "PERSON"},
		{Text: "", Label: "ORG"},
	}
	got := Dedupe(in)
	if len(got) != 3 {
		t.Fatalf("expected 3 entities, got %d: %v", len(got), got)
	}
	if got[0].Text != "Acme" || got[1].Text != "Berlin" {
		t.Fatalf("order not preserved: %v", got)
	}
	if got[2].Label != "PERSON" {
		t.Fatalf("same text with new label must survive: %v", got)
	}
}

func TestProseAnnotator_ReturnsWithoutError(t *testing.T) {
	a := &ProseAnnotator{}
	got, err := a.Annotate(context.Background(), "Maria Fernandez joined Acme Corporation in Toronto last spring.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, e := range got {
		for _, other := range got[i+1:] {
			if e == other {
				t.Fatalf("duplicate entity survived dedupe: %v", e)
			}
		}
	}
}

func TestProseAnnotator_TruncatesLongInput(t *testing.T) {
	a := &ProseAnnotator{MaxChars: 64}
	long := strings.Repeat("plain filler text without names ", 100)
	if _, err := a.Annotate(context.Background(), long); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTruncateAtRune(t *testing.T) {
	s := "héllo wörld"
	got := truncateAtRune(s, 2)
	if got != "h" {
		t.Fatalf("expected cut before split rune, got %q", got)
	}
	if truncateAtRune("abc", 10) != "abc" {
		t.Fatalf("short strings must pass through")
	}
}

func TestLLMAnnotator_ParsesCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := "```json\n[{\"text\": \"Acme\", \"label\": \"ORG\"}, {\"text\": \"Oslo\", \"label\": \"GPE\"}]\n```"
		resp := openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: body}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	a := &LLMAnnotator{Client: openai.NewClientWithConfig(cfg), Model: "test-model"}

	got, err := a.Annotate(context.Background(), "Acme opened an office in Oslo.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || got[0].Text != "Acme" || got[1].Label != "GPE" {
		t.Fatalf("unexpected entities: %v", got)
	}
}

func TestLLMAnnotator_Unconfigured(t *testing.T) {
	var a *LLMAnnotator
	if _, err := a.Annotate(context.Background(), "text"); err == nil {
		t.Fatalf("expected error for unconfigured annotator")
	}
}
