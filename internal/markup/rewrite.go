// Package markup rewrites the text nodes of an HTML fragment while keeping
// its tag structure.
package markup

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ErrMalformedMarkup is returned when a document cannot be read as a
// balanced tag stream.
var ErrMalformedMarkup = errors.New("malformed markup")

// TransformFunc maps a text node to its replacement. The argument is the
// entity-decoded text; the result is written verbatim as markup, so it must
// escape any text it carries over. Returning false or an empty string drops
// the node.
type TransformFunc func(text string) (string, bool)

// VoidElements never take a closing tag.
var VoidElements = map[string]bool{
	"img":   true,
	"input": true,
	"br":    true,
	"hr":    true,
	"meta":  true,
}

// Rewrite streams doc through an HTML tokenizer, applies fn to every text
// node and re-serializes the result. Either the whole document is rewritten
// or an error wrapping ErrMalformedMarkup is returned.
func Rewrite(doc string, fn TransformFunc) (string, error) {
	w := &rewriter{fn: fn}
	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", fmt.Errorf("%w: %v", ErrMalformedMarkup, err)
			}
			if len(w.stack) > 0 {
				return "", fmt.Errorf("%w: unclosed <%s>", ErrMalformedMarkup, w.stack[len(w.stack)-1])
			}
			return string(w.out), nil

		case html.StartTagToken:
			name, attrs := readTag(z)
			w.openTag(name, attrs)

		case html.SelfClosingTagToken:
			name, attrs := readTag(z)
			if !VoidElements[name] {
				return "", fmt.Errorf("%w: self-closing <%s/> is not a void element", ErrMalformedMarkup, name)
			}
			w.writeVoid(name, attrs)

		case html.EndTagToken:
			name, _ := z.TagName()
			if err := w.closeTag(string(name)); err != nil {
				return "", err
			}

		case html.TextToken:
			w.text(string(z.Text()))
		}
		// Comments and doctypes are dropped.
	}
}

type attr struct {
	key, val string
}

func readTag(z *html.Tokenizer) (string, []attr) {
	name, more := z.TagName()
	var attrs []attr
	for more {
		var k, v []byte
		k, v, more = z.TagAttr()
		attrs = append(attrs, attr{key: string(k), val: string(v)})
	}
	return string(name), attrs
}

// rewriter holds the output buffer and open-tag stack of one Rewrite call.
type rewriter struct {
	fn    TransformFunc
	out   []byte
	stack []string
}

// openTag writes a start tag. Void elements are written but not pushed, since
// no close tag will pop them.
func (w *rewriter) openTag(name string, attrs []attr) {
	if VoidElements[name] {
		w.writeVoid(name, attrs)
		return
	}
	w.out = append(w.out, '<')
	w.out = append(w.out, name...)
	for _, a := range attrs {
		w.out = append(w.out, ' ')
		w.out = appendAttr(w.out, a)
	}
	w.out = append(w.out, '>')
	w.stack = append(w.stack, name)
}

// writeVoid renders <name attr="v" > with a space after the name and after
// every attribute.
func (w *rewriter) writeVoid(name string, attrs []attr) {
	w.out = append(w.out, '<')
	w.out = append(w.out, name...)
	w.out = append(w.out, ' ')
	for _, a := range attrs {
		w.out = appendAttr(w.out, a)
		w.out = append(w.out, ' ')
	}
	w.out = append(w.out, '>')
}

func (w *rewriter) closeTag(name string) error {
	if VoidElements[name] {
		return nil
	}
	if len(w.stack) == 0 {
		return fmt.Errorf("%w: </%s> without matching open tag", ErrMalformedMarkup, name)
	}
	popped := w.stack[len(w.stack)-1]
	if popped != name {
		return fmt.Errorf("%w: </%s> closes <%s>", ErrMalformedMarkup, name, popped)
	}
	w.stack = w.stack[:len(w.stack)-1]

	// Keep adjacent inline elements from collapsing together.
	if len(w.stack) > 0 && w.stack[len(w.stack)-1] != popped {
		w.out = append(w.out, ' ')
	}
	w.out = append(w.out, "</"...)
	w.out = append(w.out, name...)
	w.out = append(w.out, '>')
	return nil
}

func (w *rewriter) text(data string) {
	replaced, ok := w.fn(data)
	if !ok || replaced == "" {
		return
	}
	w.out = append(w.out, strings.TrimSpace(replaced)...)
	w.out = append(w.out, ' ')
	if len(w.stack) > 0 {
		w.out = append(bytes.TrimRight(w.out, " \t\r\n\f"), ' ')
	}
}

func appendAttr(b []byte, a attr) []byte {
	b = append(b, a.key...)
	b = append(b, `="`...)
	b = append(b, html.EscapeString(a.val)...)
	return append(b, '"')
}

// Identity is a TransformFunc that keeps every text node, re-escaped.
func Identity(text string) (string, bool) {
	return html.EscapeString(text), true
}
