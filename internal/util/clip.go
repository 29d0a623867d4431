package util

import "strings"

// ClipText returns at most maxRunes runes of text, cutting at a word boundary
// when one is close, with an ellipsis marker when anything was dropped.
func ClipText(text string, maxRunes int) string {
	text = strings.TrimSpace(text)
	if maxRunes <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	cut := string(runes[:maxRunes])
	if idx := strings.LastIndexAny(cut, " \n\t"); idx > maxRunes/2 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut) + " [...]"
}
