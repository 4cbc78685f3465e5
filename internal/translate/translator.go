// Package translate sends text to an LLM translation provider, chunking
// long input and batching arrays of short strings.
package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/romajiapi/internal/chunker"
)

var (
	ErrEmptyText     = errors.New("empty text")
	ErrIncomplete    = errors.New("translation did not complete")
	ErrCountMismatch = errors.New("translation count mismatch")
	ErrNotConfigured = errors.New("translation provider not configured")
)

// IncompleteMarker is appended to a partial translation.
const IncompleteMarker = "===TRANSLATION DID NOT COMPLETE==="

const (
	textSystemPrompt  = "You are a highly accurate translation assistant. Respond with only the translated text, no explanations."
	arraySystemPrompt = `You are a highly accurate translation assistant. Return ONLY a JSON array containing the translated texts in order, with no additional text or explanations. Example format: ["translation1", "translation2"]`
)

// Translator splits work into provider-sized requests.
type Translator struct {
	client      Chatter
	chunkSize   int
	concurrency int
	log         *slog.Logger
	backoff     func(int) time.Duration
}

// NewTranslator returns a Translator. chunkSize and concurrency fall back to
// chunker.DefaultChunkSize and 1.
func NewTranslator(client Chatter, chunkSize, concurrency int, log *slog.Logger) *Translator {
	if chunkSize <= 0 {
		chunkSize = chunker.DefaultChunkSize
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	if log == nil {
		log = slog.Default()
	}
	return &Translator{
		client:      client,
		chunkSize:   chunkSize,
		concurrency: concurrency,
		log:         log,
		backoff:     Backoff,
	}
}

// Text translates text into target, optionally from source. When a chunk
// fails, the translated prefix is returned with IncompleteMarker appended
// and an error wrapping ErrIncomplete.
func (t *Translator) Text(ctx context.Context, text, target, source string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	target = NormalizeTarget(target)
	source = NormalizeSource(source)

	chunks := chunker.Partition(text, t.chunkSize)
	out := make([]string, len(chunks))
	errs := make([]error, len(chunks))

	var g errgroup.Group
	g.SetLimit(t.concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			out[i], errs[i] = t.Chunk(ctx, chunk, target, source)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err == nil {
			continue
		}
		if errors.Is(err, ErrNotConfigured) {
			return "", err
		}
		t.log.Warn("chunk translation failed", "chunk", i, "chunks", len(chunks), "error", err)
		partial := strings.Join(out[:i], "\n") + "\n\n" + IncompleteMarker
		return partial, fmt.Errorf("%w: chunk %d of %d: %w", ErrIncomplete, i+1, len(chunks), err)
	}
	return strings.Join(out, "\n"), nil
}

// Chunk translates one already-bounded piece of text, retrying transient
// provider errors. target and source must already be normalized.
func (t *Translator) Chunk(ctx context.Context, chunk, target, source string) (string, error) {
	req := ChatRequest{
		System: textSystemPrompt,
		User:   instruction("Translate the following text", target, source) + ":\n\n" + chunk,
	}
	return retry(ctx, t.backoff, func() (string, error) {
		return t.client.Chat(ctx, req)
	})
}

// Array translates every element of texts. The result has the same length
// and order as texts.
func (t *Translator) Array(ctx context.Context, texts []string, target, source string) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	target = NormalizeTarget(target)
	source = NormalizeSource(source)

	groups := chunker.Group(texts, t.chunkSize)
	out := make([]string, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.concurrency)
	offset := 0
	for idx, group := range groups {
		start := offset
		offset += len(group)
		g.Go(func() error {
			translated, err := t.group(gctx, group, target, source)
			if err != nil {
				return fmt.Errorf("group %d: %w", idx+1, err)
			}
			copy(out[start:], translated)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *Translator) group(ctx context.Context, group []string, target, source string) ([]string, error) {
	var sb strings.Builder
	for i, text := range group {
		if i > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%d. %s", i+1, text)
	}

	temp := 0.1
	req := ChatRequest{
		System:      arraySystemPrompt,
		User:        instruction("Translate each of the following numbered texts", target, source) + ". Return only the translations as a JSON array in the exact same order:\n\n" + sb.String(),
		JSON:        true,
		Temperature: &temp,
	}
	content, err := retry(ctx, t.backoff, func() (string, error) {
		return t.client.Chat(ctx, req)
	})
	if err != nil {
		return nil, err
	}

	translations, err := parseTranslations(content)
	if err != nil {
		return nil, err
	}
	if len(translations) != len(group) {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrCountMismatch, len(group), len(translations))
	}
	return translations, nil
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

// parseTranslations accepts a JSON array, or an object holding the array
// under "translations", "results" or "text".
func parseTranslations(content string) ([]string, error) {
	content = stripCodeBlock(content)

	var raw any
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return nil, fmt.Errorf("parse translations json: %w (raw: %s)", err, truncate(content, 200))
	}

	if obj, ok := raw.(map[string]any); ok {
		raw = nil
		for _, key := range []string{"translations", "results", "text"} {
			if v, ok := obj[key]; ok {
				raw = v
				break
			}
		}
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case nil:
	case string:
		if v != "" {
			items = []any{v}
		}
	default:
		items = []any{v}
	}

	out := make([]string, 0, len(items))
	for _, it := range items {
		s, ok := it.(string)
		if !ok {
			s = fmt.Sprint(it)
		}
		out = append(out, strings.TrimSpace(s))
	}
	return out, nil
}
