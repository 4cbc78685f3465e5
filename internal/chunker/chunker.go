// Package chunker splits long text into bounded pieces for the translation
// provider.
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxSize bounds a chunk when the caller passes no size.
	DefaultMaxSize = 120000

	// DefaultChunkSize is the per-request budget used for translation.
	DefaultChunkSize = 50000
)

// Partition splits text into ordered chunks of at most maxSize runes.
// Lines are packed first; a line that is too long on its own is packed by
// words. A single word longer than maxSize is emitted alone.
//
// Text that already fits is returned as one chunk. It comes back unchanged
// unless it carries blank or padded lines, which are stripped.
func Partition(text string, maxSize int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if runeLen(text) <= maxSize {
		norm := normalizeLines(text)
		switch {
		case norm == text:
			return []string{text}
		case norm == "":
			return nil
		}
		return []string{norm}
	}

	var (
		chunks  []string
		current []string
		size    int
	)
	flush := func() {
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, "\n"))
		}
		current = nil
		size = 0
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		n := runeLen(line)

		switch {
		case n > maxSize:
			flush()
			chunks = append(chunks, packWords(line, maxSize)...)

		case size+n+1 > maxSize:
			flush()
			current = []string{line}
			size = n

		default:
			current = append(current, line)
			size += n + 1
		}
	}
	flush()

	return chunks
}

// packWords greedily packs the whitespace-separated words of line into
// space-joined pieces.
func packWords(line string, maxSize int) []string {
	var (
		out  []string
		buf  []string
		size int
	)
	for _, word := range strings.Fields(line) {
		n := runeLen(word)
		if size+n+1 > maxSize && len(buf) > 0 {
			out = append(out, strings.Join(buf, " "))
			buf = nil
			size = 0
		}
		buf = append(buf, word)
		size += n + 1
	}
	if len(buf) > 0 {
		out = append(out, strings.Join(buf, " "))
	}
	return out
}

// Group batches texts for one translation request each. A new group is
// started once the running size would pass half of chunkSize.
func Group(texts []string, chunkSize int) [][]string {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	limit := chunkSize / 2

	var (
		groups  [][]string
		current []string
		size    int
	)
	for _, text := range texts {
		n := runeLen(text)
		if size+n > limit {
			if len(current) > 0 {
				groups = append(groups, current)
			}
			current = []string{text}
			size = n
			continue
		}
		current = append(current, text)
		size += n
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// normalizeLines trims every line and drops the blank ones.
func normalizeLines(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
