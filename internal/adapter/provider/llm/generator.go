// Package llm generates example sentences with a chat-completion model.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/havliksimon/anki-card-creator/internal/domain"
	"github.com/havliksimon/anki-card-creator/internal/provider"
)

// Completer sends a single-turn prompt and returns the model's text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator asks a Completer for a fixed number of example sentences.
type Generator struct {
	completer Completer
	count     int
	log       *slog.Logger
}

// NewGenerator creates a Generator that requests count sentences per term.
func NewGenerator(completer Completer, count int, logger *slog.Logger) *Generator {
	if count < 1 {
		count = 1
	}
	return &Generator{
		completer: completer,
		count:     count,
		log:       logger.With("adapter", "llm"),
	}
}

// Generate returns exactly the configured number of sentences using term.
// A reply that does not parse into that many complete sentences is an
// ErrMalformedResponse; partial results are never returned.
func (g *Generator) Generate(ctx context.Context, term string) ([]provider.Sentence, error) {
	g.log.DebugContext(ctx, "llm request", slog.String("term", term), slog.Int("count", g.count))

	reply, err := g.completer.Complete(ctx, buildPrompt(term, g.count))
	if err != nil {
		g.log.ErrorContext(ctx, "llm request failed", slog.String("term", term), slog.String("error", err.Error()))
		return nil, fmt.Errorf("llm: complete %q: %w: %w", term, domain.ErrSourceUnavailable, err)
	}

	sentences, err := parseSentences(reply)
	if err != nil {
		return nil, fmt.Errorf("llm: %q: %w", term, err)
	}
	if len(sentences) != g.count {
		return nil, fmt.Errorf("llm: %q: got %d sentences, want %d: %w", term, len(sentences), g.count, domain.ErrMalformedResponse)
	}
	for i, s := range sentences {
		if strings.TrimSpace(s.Chinese) == "" || strings.TrimSpace(s.English) == "" {
			return nil, fmt.Errorf("llm: %q: sentence %d incomplete: %w", term, i, domain.ErrMalformedResponse)
		}
	}

	return sentences, nil
}

func buildPrompt(term string, count int) string {
	return fmt.Sprintf(`Please provide %d exemplary Chinese sentences using the word "%s". Ensure that the vocabulary used in these sentences is at the same or a lower HSK level than "%s".
Return the result as a JSON array where each element is an object with "chinese", "pinyin", and "english" keys.
Output ONLY the JSON array, no markdown, no explanations.`, count, term, term)
}

var (
	reChinese = regexp.MustCompile(`"chinese":\s*"(.*?)"`)
	rePinyin  = regexp.MustCompile(`"pinyin":\s*"(.*?)"`)
	reEnglish = regexp.MustCompile(`"english":\s*"(.*?)"`)
)

// parseSentences reads the JSON array embedded in reply. When the array does
// not decode, it falls back to matching key/value pairs line by line, which
// recovers replies with trailing commas or unescaped quotes elsewhere.
func parseSentences(reply string) ([]provider.Sentence, error) {
	if arr, ok := extractJSONArray(reply); ok {
		var out []provider.Sentence
		if err := json.Unmarshal([]byte(arr), &out); err == nil {
			return out, nil
		}
	}

	var (
		out []provider.Sentence
		cur provider.Sentence
	)
	for _, line := range strings.Split(reply, "\n") {
		if m := reChinese.FindStringSubmatch(line); m != nil {
			cur.Chinese = m[1]
		}
		if m := rePinyin.FindStringSubmatch(line); m != nil {
			cur.Pinyin = m[1]
		}
		if m := reEnglish.FindStringSubmatch(line); m != nil {
			cur.English = m[1]
			out = append(out, cur)
			cur = provider.Sentence{}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sentences in reply: %w", domain.ErrMalformedResponse)
	}
	return out, nil
}

// extractJSONArray returns the text between the first '[' and the last ']'.
func extractJSONArray(s string) (string, bool) {
	start := strings.Index(s, "[")
	end := strings.LastIndex(s, "]")
	if start == -1 || end == -1 || end <= start {
		return "", false
	}
	return s[start : end+1], true
}
