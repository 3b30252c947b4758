package util

import "fmt"

// MakeHyperlink wraps text in an OSC 8 escape so terminals render it as a
// link. Terminals without support print the bare text.
func MakeHyperlink(url, text string) string {
	if url == "" {
		return text
	}
	return fmt.Sprintf("\033]8;;%s\a%s\033]8;;\a", url, text)
}

// TruncateText shortens s to maxLen runes, ending with "…" when cut.
func TruncateText(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen == 1 {
		return "…"
	}
	return string(runes[:maxLen-1]) + "…"
}
