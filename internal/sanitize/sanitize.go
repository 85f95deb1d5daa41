// Package sanitize cleans stored text before it is handed to MCP clients.
// Category and stat names come from a snapshot that may have been edited or
// restored from a backup, so they are treated as untrusted when they end up
// in agent context.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxCellLength bounds a markdown table cell, in runes.
const MaxCellLength = 64

// MaxLineLength bounds a single text line, in runes.
const MaxLineLength = 512

var (
	// reXMLTag matches XML/HTML tags, with attributes or self-closing,
	// and processing instructions like <?xml ...?>.
	reXMLTag = regexp.MustCompile(`<[/?!]?[a-zA-Z][a-zA-Z0-9]*(?:\s+[^>]*)?/?>|<\?[^?]*\?>`)

	// reBackticks matches runs of two or more backticks.
	reBackticks = regexp.MustCompile("`{2,}")

	reSpaces = regexp.MustCompile(`\s{2,}`)
)

// TableCell makes s safe to place in one markdown table cell: control
// characters become spaces, tags are removed, pipes are escaped and the
// result is truncated to MaxCellLength runes.
func TableCell(s string) string {
	s = Line(s)
	s = strings.ReplaceAll(s, "|", `\|`)
	return truncate(s, MaxCellLength)
}

// Line flattens s to a single line without tags or code fences, truncated
// to MaxLineLength runes.
func Line(s string) string {
	if s == "" {
		return ""
	}
	s = replaceControlChars(s)
	s = reXMLTag.ReplaceAllString(s, "")
	s = reBackticks.ReplaceAllString(s, "`")
	s = reSpaces.ReplaceAllString(s, " ")
	return truncate(strings.TrimSpace(s), MaxLineLength)
}

// replaceControlChars maps ASCII control characters and DEL to spaces.
func replaceControlChars(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, s)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
