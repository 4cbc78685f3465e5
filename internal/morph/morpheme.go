package morph

import (
	"context"
	"strings"
	"unicode"
)

// UniDic part-of-speech tags used by the spacing rules.
const (
	POSPunct      = "補助記号"
	POSParticle   = "助詞"
	POSPrefix     = "接頭辞"
	POSSuffix     = "接尾辞"
	POSAuxVerb    = "助動詞"
	POSVerb       = "動詞"
	POSAdjective  = "形容詞"
	POSWhitespace = "空白"

	// POSConnective is a minor tag (POS2) under POSParticle.
	POSConnective = "接続助詞"
)

const (
	// GeminateMarker is the small tsu that doubles the following consonant.
	GeminateMarker = "っ"
	// PoliteCopula is the auxiliary verb form that keeps its leading space.
	PoliteCopula = "です"
)

// CharClass classifies the characters of a surface.
type CharClass int

const (
	CharOther CharClass = iota
	CharAlpha
	CharDigit
)

func (c CharClass) String() string {
	switch c {
	case CharAlpha:
		return "alpha"
	case CharDigit:
		return "digit"
	}
	return "other"
}

// Morpheme is one tagged unit produced by a Tagger.
type Morpheme struct {
	Surface   string    `json:"surface"`
	Romanized string    `json:"romanized"`
	Kana      string    `json:"kana,omitempty"`
	POS1      string    `json:"pos1"`
	POS2      string    `json:"pos2,omitempty"`
	Lemma     string    `json:"lemma,omitempty"`
	IsUnknown bool      `json:"is_unknown,omitempty"`
	IsForeign bool      `json:"is_foreign,omitempty"`
	CharClass CharClass `json:"char_class"`

	// LeadingSpace reports whitespace before this morpheme in the source.
	LeadingSpace bool `json:"leading_space,omitempty"`
	// TrailingGeminate reports a surface ending in a small tsu. Informational
	// only: spacing fuses on the emitted text, which exceptions may rewrite.
	TrailingGeminate bool `json:"trailing_geminate,omitempty"`
}

// Tagger splits text into morphemes.
type Tagger interface {
	Tag(ctx context.Context, text string) ([]Morpheme, error)
}

// ClassifyChars returns CharAlpha for latin letters only, CharDigit for
// decimal digits only and CharOther for anything else, including "".
func ClassifyChars(s string) CharClass {
	if s == "" {
		return CharOther
	}
	alpha, digit := true, true
	for _, r := range s {
		if !unicode.IsLetter(r) || !unicode.In(r, unicode.Latin) {
			alpha = false
		}
		if !unicode.IsDigit(r) {
			digit = false
		}
	}
	switch {
	case alpha:
		return CharAlpha
	case digit:
		return CharDigit
	}
	return CharOther
}

// IsASCII reports whether s only holds ASCII characters. The empty string is ASCII.
func IsASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// IsDigits reports whether s is a non-empty run of decimal digits.
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// IsKanji reports whether r is in the CJK Unified Ideographs block.
func IsKanji(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// HasKanji reports whether s contains at least one kanji.
func HasKanji(s string) bool {
	return strings.IndexFunc(s, IsKanji) >= 0
}

// ForeignSpelling extracts the ascii spelling from a UniDic loanword lemma
// such as "カツレツ-cutlet".
func ForeignSpelling(lemma string) (string, bool) {
	_, word, ok := strings.Cut(lemma, "-")
	if !ok || word == "" || !IsASCII(word) {
		return "", false
	}
	return word, true
}
