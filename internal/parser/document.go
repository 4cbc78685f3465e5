package parser

import (
	"path/filepath"
	"strings"
)

// Section is one headed block of a document. Heading is empty for text that
// precedes the first heading or for formats without headings.
type Section struct {
	Heading string `json:"heading,omitempty"`
	Level   int    `json:"level,omitempty"`
	Page    int    `json:"page,omitempty"`
	Text    string `json:"text"`
}

// Document is the flattened text content of an uploaded file.
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Text returns the headings and bodies of all sections, one block per
// paragraph, separated by blank lines.
func (d *Document) Text() string {
	var blocks []string
	for _, s := range d.Sections {
		if s.Heading != "" {
			blocks = append(blocks, s.Heading)
		}
		if t := strings.TrimSpace(s.Text); t != "" {
			blocks = append(blocks, t)
		}
	}
	return strings.Join(blocks, "\n\n")
}

// Lines returns every non-blank line of Text, trimmed.
func (d *Document) Lines() []string {
	var lines []string
	for _, l := range strings.Split(d.Text(), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

// outline collects paragraphs under the most recent heading.
type outline struct {
	doc     Document
	current *Section
	paras   []string
}

func newOutline(title string) *outline {
	return &outline{doc: Document{Title: title}}
}

func (o *outline) heading(level int, title string) {
	o.flush()
	o.current = &Section{Heading: title, Level: level}
}

func (o *outline) paragraph(text string) {
	if text = strings.TrimSpace(text); text != "" {
		o.paras = append(o.paras, text)
	}
}

func (o *outline) flush() {
	if o.current == nil && len(o.paras) == 0 {
		return
	}
	s := Section{}
	if o.current != nil {
		s = *o.current
	}
	s.Text = strings.Join(o.paras, "\n\n")
	o.doc.Sections = append(o.doc.Sections, s)
	o.current = nil
	o.paras = nil
}

func (o *outline) document() *Document {
	o.flush()
	return &o.doc
}

// titleFromName strips the directory and extension from filename.
func titleFromName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
