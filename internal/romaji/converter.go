// Package romaji turns Japanese text into spaced Hepburn romaji, slugs,
// furigana markup and per-word reading tables.
package romaji

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/romajiapi/internal/markup"
	"github.com/dgallion1/romajiapi/internal/morph"
	"github.com/dgallion1/romajiapi/internal/spacing"
)

// Converter romanizes text with a Tagger and an exception table. It is
// safe for concurrent use when its Tagger is.
type Converter struct {
	tagger     morph.Tagger
	exceptions Exceptions
}

// NewConverter returns a Converter. A nil exceptions table is allowed.
func NewConverter(tagger morph.Tagger, exceptions Exceptions) *Converter {
	if exceptions == nil {
		exceptions = Exceptions{}
	}
	return &Converter{tagger: tagger, exceptions: exceptions}
}

// Romaji returns text in spaced romaji with particles kept and the first
// letter of every line capitalized. Line breaks are preserved.
func (c *Converter) Romaji(ctx context.Context, text string) (string, error) {
	lines := strings.Split(norm.NFKC.String(text), "\n")
	for i, line := range lines {
		out, err := c.romajiLine(ctx, line)
		if err != nil {
			return "", err
		}
		lines[i] = capitalize(out)
	}
	return strings.Join(lines, "\n"), nil
}

func (c *Converter) romajiLine(ctx context.Context, line string) (string, error) {
	ms, err := c.tag(ctx, line)
	if err != nil {
		return "", err
	}
	for i := range ms {
		// Out-of-dictionary words keep their best-effort reading.
		ms[i].IsUnknown = false
	}
	return spacing.Join(spacing.Tokens(ms, true)), nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug returns a lowercase, dash-separated romaji form of text.
func (c *Converter) Slug(ctx context.Context, text string) (string, error) {
	out, err := c.Romaji(ctx, text)
	if err != nil {
		return "", err
	}
	out = nonSlug.ReplaceAllString(strings.ToLower(out), "-")
	return strings.Trim(out, "-"), nil
}

// Tokenize splits text into spaced words using the source surfaces
// instead of their romanization. Unknown words are dropped.
func (c *Converter) Tokenize(ctx context.Context, text string, withParticles bool) ([]string, error) {
	ms, err := c.tagger.Tag(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	return spacing.Surfaces(ms, withParticles), nil
}

// RomajiHTML romanizes every text node of doc and keeps the markup.
func (c *Converter) RomajiHTML(ctx context.Context, doc string) (string, error) {
	return c.rewrite(ctx, doc, func(text, roma string) string {
		return html.EscapeString(roma)
	})
}

// FuriganaHTML wraps every text node of doc in a ruby annotation carrying
// its romaji reading.
func (c *Converter) FuriganaHTML(ctx context.Context, doc string) (string, error) {
	return c.rewrite(ctx, doc, func(text, roma string) string {
		return "<ruby>" + html.EscapeString(text) + "<rt>" + html.EscapeString(roma) + "</rt></ruby>"
	})
}

func (c *Converter) rewrite(ctx context.Context, doc string, wrap func(text, roma string) string) (string, error) {
	var convErr error
	out, err := markup.Rewrite(doc, func(text string) (string, bool) {
		if convErr != nil {
			return "", false
		}
		roma, err := c.Romaji(ctx, text)
		if err != nil {
			convErr = err
			return "", false
		}
		if strings.TrimSpace(roma) == "" {
			return "", false
		}
		return wrap(text, roma), true
	})
	if err != nil {
		return "", err
	}
	if convErr != nil {
		return "", convErr
	}
	return out, nil
}

// tag runs the tagger and applies the exception table.
func (c *Converter) tag(ctx context.Context, text string) ([]morph.Morpheme, error) {
	ms, err := c.tagger.Tag(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	for i := range ms {
		if to, ok := c.exceptions[ms[i].Surface]; ok {
			ms[i].Romanized = to
			ms[i].IsForeign = false
		}
	}
	return ms, nil
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || !unicode.IsLower(r) {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
