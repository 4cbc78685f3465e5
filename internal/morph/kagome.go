package morph

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/ikawaha/kagome-dict/uni"
	"github.com/ikawaha/kagome/v2/tokenizer"
)

// UniDic feature columns, e.g.
// 名詞,普通名詞,一般,*,*,*,カツレツ,カツレツ-cutlet,カツレツ,カツレツ,...
const (
	uniPOS1  = 0
	uniPOS2  = 1
	uniCType = 4
	uniLForm = 6
	uniLemma = 7
	uniPron  = 9
)

// KagomeTagger tags text with kagome over the UniDic dictionary.
type KagomeTagger struct {
	t *tokenizer.Tokenizer
}

// NewKagomeTagger loads the embedded UniDic dictionary.
func NewKagomeTagger() (*KagomeTagger, error) {
	t, err := tokenizer.New(uni.Dict(), tokenizer.OmitBosEos())
	if err != nil {
		return nil, fmt.Errorf("init kagome: %w", err)
	}
	return &KagomeTagger{t: t}, nil
}

// Tag implements Tagger.
func (k *KagomeTagger) Tag(ctx context.Context, text string) ([]Morpheme, error) {
	if text == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src := []rune(text)
	toks := k.t.Tokenize(text)
	out := make([]Morpheme, 0, len(toks))
	pendingSpace := false
	prevEnd := 0

	for _, tok := range toks {
		if tok.Class == tokenizer.DUMMY {
			continue
		}
		if tok.Start > prevEnd && prevEnd <= len(src) && tok.Start <= len(src) &&
			strings.TrimSpace(string(src[prevEnd:tok.Start])) == "" {
			pendingSpace = true
		}
		prevEnd = tok.End

		features := tok.Features()
		pos1 := featureAt(features, uniPOS1)
		if strings.TrimSpace(tok.Surface) == "" || pos1 == POSWhitespace {
			pendingSpace = true
			continue
		}

		m := newMorpheme(tok.Surface, features, tok.Class == tokenizer.UNKNOWN)
		m.LeadingSpace = pendingSpace
		pendingSpace = false
		out = append(out, m)
	}
	return out, nil
}

func newMorpheme(surface string, features []string, unknown bool) Morpheme {
	m := Morpheme{
		Surface:          surface,
		POS1:             featureAt(features, uniPOS1),
		POS2:             featureAt(features, uniPOS2),
		Lemma:            featureAt(features, uniLemma),
		IsUnknown:        unknown,
		CharClass:        ClassifyChars(surface),
		TrailingGeminate: strings.HasSuffix(surface, GeminateMarker) || strings.HasSuffix(surface, "ッ"),
	}

	// Inflecting words carry the lemma reading in lForm, so use the surface
	// pronunciation for them instead.
	if featureAt(features, uniCType) == "" {
		m.Kana = featureAt(features, uniLForm)
	}
	if m.Kana == "" {
		m.Kana = featureAt(features, uniPron)
	}

	if !unknown {
		if spelling, ok := ForeignSpelling(m.Lemma); ok {
			m.IsForeign = true
			m.Romanized = spelling
			return m
		}
	}

	switch {
	case IsASCII(surface):
		m.Romanized = surface
	case m.Kana != "":
		m.Romanized = Romanize(m.Kana)
	case isKanaOnly(surface):
		m.Romanized = Romanize(surface)
	default:
		m.Romanized = surface
	}
	return m
}

// featureAt returns the feature at i, or "" when absent or "*".
func featureAt(features []string, i int) string {
	if i >= len(features) || features[i] == "*" {
		return ""
	}
	return features[i]
}

func isKanaOnly(s string) bool {
	for _, r := range s {
		if !unicode.In(r, unicode.Hiragana, unicode.Katakana) && r != 'ー' {
			return false
		}
	}
	return s != ""
}
