package util

import (
	"html"
	"regexp"
	"strings"
)

var (
	tagRe       = regexp.MustCompile(`<[^>]*>`)
	breakRe     = regexp.MustCompile(`(?i)<br\s*/?\s*>|</?(?:p|div|li|tr|h[1-6])(?:\s[^>]*)?\s*>`)
	spacesRe    = regexp.MustCompile(`[^\S\n]+`)
	blankLineRe = regexp.MustCompile(`\n{2,}`)
)

// HTMLToText flattens an event description to plain lines. Calendar
// descriptions edited in the web UI arrive as HTML; block tags and <br>
// become line breaks, anchors keep only their text.
func HTMLToText(s string) string {
	if s == "" {
		return s
	}
	s = strings.NewReplacer("\r\n", "\n", "\r", "\n").Replace(s)
	s = breakRe.ReplaceAllString(s, "\n")
	s = tagRe.ReplaceAllString(s, "")
	s = strings.ReplaceAll(html.UnescapeString(s), "\u00a0", " ")
	s = spacesRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	return strings.TrimSpace(blankLineRe.ReplaceAllString(s, "\n"))
}

// FieldValue returns the text after "<label>:" on the first line that starts
// with one of labels (case-insensitive), e.g. "Docenti: Rossi, Bianchi".
func FieldValue(text string, labels ...string) (string, bool) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		for _, label := range labels {
			prefix := label + ":"
			if len(line) >= len(prefix) && strings.EqualFold(line[:len(prefix)], prefix) {
				return strings.TrimSpace(line[len(prefix):]), true
			}
		}
	}
	return "", false
}
