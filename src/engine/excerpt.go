package engine

import (
	"strings"
	"unicode/utf8"
)

// Excerpt returns text around the first occurrence of sel, keeping up to
// before runes ahead of it and after runes behind it. Non-positive limits keep
// the whole side. ok is false when sel does not occur in text.
func Excerpt(text, sel string, before, after int) (string, bool) {
	if sel == "" {
		return "", false
	}
	i := strings.Index(text, sel)
	if i < 0 {
		return "", false
	}
	start := 0
	if before > 0 {
		start = i
		for n := 0; n < before && start > 0; n++ {
			_, size := utf8.DecodeLastRuneInString(text[:start])
			start -= size
		}
	}
	end := len(text)
	if after > 0 {
		end = i + len(sel)
		for n := 0; n < after && end < len(text); n++ {
			_, size := utf8.DecodeRuneInString(text[end:])
			end += size
		}
	}
	return text[start:end], true
}
