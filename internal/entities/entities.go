package entities

import (
	"context"

	prose "github.com/jdkato/prose/v2"
)

// Entity is a named real-world object detected in extracted text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// Annotator extracts named entities from text. Annotation is a best-effort
// downstream step: callers degrade to an empty entity list on error rather
// than failing the record.
type Annotator interface {
	Annotate(ctx context.Context, text string) ([]Entity, error)
}

// ProseAnnotator runs the prose NLP pipeline's named-entity recognizer.
type ProseAnnotator struct {
	// MaxChars caps the text handed to the tagger; long pages dominate
	// annotation cost without adding many new entities. Zero means default.
	MaxChars int
}

const defaultAnnotateChars = 20_000

func (p *ProseAnnotator) Annotate(_ context.Context, text string) ([]Entity, error) {
	maxChars := defaultAnnotateChars
	if p != nil && p.MaxChars > 0 {
		maxChars = p.MaxChars
	}
	if len(text) > maxChars {
		text = truncateAtRune(text, maxChars)
	}
	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, err
	}
	out := make([]Entity, 0, 16)
	for _, ent := range doc.Entities() {
		out = append(out, Entity{Text: ent.Text, Label: ent.Label})
	}
	return Dedupe(out), nil
}

// Dedupe removes repeated (text, label) pairs while preserving first-seen order.
func Dedupe(in []Entity) []Entity {
	seen := make(map[Entity]struct{}, len(in))
	out := make([]Entity, 0, len(in))
	for _, e := range in {
		if e.Text == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

// truncateAtRune cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncateAtRune(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xC0 == 0x80 {
		n--
	}
	return s[:n]
}
