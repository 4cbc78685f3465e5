package spacing

import (
	"strings"

	"github.com/dgallion1/romajiapi/internal/morph"
)

// rule is one entry of the spacing cascade. Rules are tried in order and the
// first match decides how the current morpheme is emitted.
type rule struct {
	name  string
	match func(c *cursor) bool
	apply func(c *cursor)
}

var rules = []rule{
	{name: "possessive", match: isPossessive, apply: emitPossessive},
	{name: "open-quote", match: isOpenQuote, apply: emitOpening},
	{name: "open-bracket", match: isOpenBracket, apply: emitOpening},
	{name: "slash", match: isSlash, apply: emitTight},
	{name: "ascii-run", match: isASCIIRun, apply: emitASCII},
	{name: "default", match: always, apply: emitDefault},
}

// suppression vetoes the trailing space chosen by the default rule.
type suppression struct {
	name  string
	match func(c *cursor) bool
}

var suppressions = []suppression{
	{name: "after-prefix", match: func(c *cursor) bool {
		return c.word.POS1 == morph.POSPrefix
	}},
	{name: "before-punct-or-suffix", match: func(c *cursor) bool {
		return c.next != nil && (c.next.POS1 == morph.POSPunct || c.next.POS1 == morph.POSSuffix)
	}},
	{name: "before-comma", match: func(c *cursor) bool {
		return c.next != nil && c.next.Surface == ","
	}},
	{name: "foreign-hyphen", match: func(c *cursor) bool {
		return c.word.IsForeign && strings.HasSuffix(c.emitted, "-")
	}},
	{name: "before-connective", match: func(c *cursor) bool {
		return c.next != nil && c.next.POS2 == morph.POSConnective
	}},
	{name: "digit-run", match: func(c *cursor) bool {
		return c.next != nil && morph.IsDigits(c.word.Surface) && morph.IsDigits(c.next.Surface)
	}},
	{name: "aux-chain", match: func(c *cursor) bool {
		if c.next == nil || c.next.POS1 != morph.POSAuxVerb || c.next.Surface == morph.PoliteCopula {
			return false
		}
		switch c.word.POS1 {
		case morph.POSVerb, morph.POSAuxVerb, morph.POSAdjective:
			return true
		}
		return false
	}},
}

func isPossessive(c *cursor) bool {
	return c.word.Surface == "'" && !c.word.LeadingSpace &&
		c.next != nil && c.next.CharClass == morph.CharAlpha && !c.next.LeadingSpace
}

func emitPossessive(c *cursor) {
	if prev := c.prev(); prev != nil {
		prev.SpaceAfter = false
	}
	c.emit(c.word.Surface, false)
}

func isOpenQuote(c *cursor) bool {
	return c.word.Surface == "「" || c.word.Surface == "『"
}

func isOpenBracket(c *cursor) bool {
	return c.emitted == "(" || c.emitted == "["
}

func emitOpening(c *cursor) {
	if prev := c.prev(); prev != nil {
		prev.SpaceAfter = true
	}
	c.emit(c.emitted, false)
}

func isSlash(c *cursor) bool {
	return c.emitted == "/"
}

func emitTight(c *cursor) {
	c.emit(c.emitted, false)
}

// isASCIIRun keeps the source spacing between two ascii morphemes.
func isASCIIRun(c *cursor) bool {
	return c.next != nil && morph.IsASCII(c.word.Surface) && morph.IsASCII(c.next.Surface)
}

func emitASCII(c *cursor) {
	c.emit(c.word.Surface, c.next.LeadingSpace)
}

func always(*cursor) bool { return true }

func emitDefault(c *cursor) {
	tok := c.emit(c.emitted, false)
	for _, s := range suppressions {
		if s.match(c) {
			return
		}
	}
	tok.SpaceAfter = true
}
