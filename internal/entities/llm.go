package entities

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// LLMAnnotator extracts entities with an OpenAI-compatible chat model. It is
// the opt-in heavier alternative to ProseAnnotator for text the statistical
// tagger handles poorly.
type LLMAnnotator struct {
	Client *openai.Client
	Model  string
	// MaxChars caps the text sent to the model. Zero means default.
	MaxChars int
}

const llmSystemPrompt = `You extract named entities from text. Respond with only a JSON array of objects, each {"text": "...", "label": "..."}. Labels: PERSON, ORG, GPE, LOC, PRODUCT, EVENT, DATE, MONEY. No commentary, no markdown fences.`

func (l *LLMAnnotator) Annotate(ctx context.Context, text string) ([]Entity, error) {
	if l == nil || l.Client == nil || strings.TrimSpace(l.Model) == "" {
		return nil, errors.New("llm annotator not configured")
	}
	maxChars := defaultAnnotateChars
	if l.MaxChars > 0 {
		maxChars = l.MaxChars
	}
	if len(text) > maxChars {
		text = truncateAtRune(text, maxChars)
	}

	resp, err := l.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: l.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llmSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		Temperature: 0,
		N:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("entity completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("entity completion: no choices")
	}

	raw := stripFences(resp.Choices[0].Message.Content)
	var out []Entity
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse entity list: %w", err)
	}
	return Dedupe(out), nil
}

// stripFences tolerates models that wrap JSON in a markdown code block
// despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
