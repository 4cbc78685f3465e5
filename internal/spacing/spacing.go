// Package spacing rebuilds word spacing for romanized Japanese from a
// sequence of tagged morphemes.
package spacing

import (
	"strings"

	"github.com/dgallion1/romajiapi/internal/morph"
)

// Token is one output word and whether a space follows it.
type Token struct {
	Text       string
	SpaceAfter bool
}

// Reconstruct returns the spaced output words for morphemes. Particles are
// dropped unless keepParticles is set.
func Reconstruct(morphemes []morph.Morpheme, keepParticles bool) []string {
	return Words(Tokens(morphemes, keepParticles))
}

// Tokens runs the spacing rules and returns the raw token list with every
// geminate marker removed.
func Tokens(morphemes []morph.Morpheme, keepParticles bool) []Token {
	out := run(morphemes, keepParticles, true)
	for i := range out {
		out[i].Text = strings.ReplaceAll(out[i].Text, morph.GeminateMarker, "")
	}
	return out
}

// Surfaces spaces the source surfaces of morphemes instead of their
// romanization. Kana is left untouched.
func Surfaces(morphemes []morph.Morpheme, keepParticles bool) []string {
	ms := make([]morph.Morpheme, len(morphemes))
	for i, m := range morphemes {
		m.Romanized = m.Surface
		ms[i] = m
	}
	return Words(run(ms, keepParticles, false))
}

func run(morphemes []morph.Morpheme, keepParticles, fuse bool) []Token {
	c := &cursor{
		morphemes:     morphemes,
		keepParticles: keepParticles,
		fuse:          fuse,
		out:           make([]Token, 0, len(morphemes)),
	}
	for i := range morphemes {
		c.advance(i)
		for _, r := range rules {
			if r.match(c) {
				r.apply(c)
				break
			}
		}
	}
	return c.out
}

// Words joins tokens into a single string and splits it back on spaces.
// Zero-width tokens never produce an empty word.
func Words(tokens []Token) []string {
	var sb strings.Builder
	for _, t := range tokens {
		sb.WriteString(t.Text)
		if t.SpaceAfter {
			sb.WriteByte(' ')
		}
	}
	joined := strings.TrimSpace(sb.String())

	words := make([]string, 0, len(tokens))
	for _, w := range strings.Split(joined, " ") {
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// Join returns the final romanized string for tokens.
func Join(tokens []Token) string {
	return strings.Join(Words(tokens), " ")
}

// cursor is the per-call state of a Tokens pass.
type cursor struct {
	morphemes     []morph.Morpheme
	keepParticles bool
	fuse          bool
	out           []Token

	word    morph.Morpheme
	next    *morph.Morpheme
	emitted string
}

func (c *cursor) advance(i int) {
	c.word = c.morphemes[i]
	c.next = nil
	if i+1 < len(c.morphemes) {
		c.next = &c.morphemes[i+1]
	}
	c.emitted = emittedText(c.word, c.keepParticles)

	// A trailing small tsu on the previous word fuses into our first consonant.
	if c.fuse && c.emitted != "" {
		if prev := c.prev(); prev != nil && strings.HasSuffix(prev.Text, morph.GeminateMarker) {
			first := []rune(c.emitted)[0]
			prev.Text = strings.TrimSuffix(prev.Text, morph.GeminateMarker) + string(first)
		}
	}
}

func (c *cursor) prev() *Token {
	if len(c.out) == 0 {
		return nil
	}
	return &c.out[len(c.out)-1]
}

func (c *cursor) emit(text string, space bool) *Token {
	c.out = append(c.out, Token{Text: text, SpaceAfter: space})
	return &c.out[len(c.out)-1]
}

func emittedText(m morph.Morpheme, keepParticles bool) string {
	switch {
	case m.IsUnknown:
		return ""
	case m.POS1 == morph.POSPunct:
		return ""
	case m.POS1 == morph.POSParticle && !keepParticles:
		return ""
	}
	return m.Romanized
}
