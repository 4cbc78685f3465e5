package romaji

import (
	"context"
	"fmt"
	"strings"

	"github.com/dgallion1/romajiapi/internal/morph"
)

// Word is one morpheme of a Line with its hiragana reading, if it needs one.
type Word struct {
	Text     string  `json:"text"`
	Furigana *string `json:"furigana"`
}

// Line is a source line broken into words for reading aids.
type Line struct {
	Origin      string  `json:"origin"`
	Translation *string `json:"translation"`
	Words       []Word  `json:"words"`
}

// TransformLine tags line and attaches furigana to every word that
// contains kanji. Punctuation, particles, foreign words and ascii get none.
func (c *Converter) TransformLine(ctx context.Context, line string) (Line, error) {
	ms, err := c.tagger.Tag(ctx, line)
	if err != nil {
		return Line{}, fmt.Errorf("tag: %w", err)
	}

	out := Line{Origin: line, Words: make([]Word, 0, len(ms))}
	for _, m := range ms {
		out.Words = append(out.Words, Word{Text: m.Surface, Furigana: furigana(m)})
	}
	return out, nil
}

// TransformText runs TransformLine over every non-empty line of text.
func (c *Converter) TransformText(ctx context.Context, text string) ([]Line, error) {
	lines := make([]Line, 0)
	for _, l := range strings.Split(text, "\n") {
		if l == "" {
			continue
		}
		tl, err := c.TransformLine(ctx, l)
		if err != nil {
			return nil, err
		}
		lines = append(lines, tl)
	}
	return lines, nil
}

func furigana(m morph.Morpheme) *string {
	switch {
	case !morph.HasKanji(m.Surface),
		m.POS1 == morph.POSPunct,
		m.POS1 == morph.POSParticle,
		m.IsForeign,
		morph.IsASCII(m.Surface),
		m.Kana == "":
		return nil
	}
	kana := morph.KatakanaToHiragana(m.Kana)
	return &kana
}
