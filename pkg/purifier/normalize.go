package purifier

import (
	"strings"
	"unicode"
)

// NormalizeWord prepares a banned word for insertion: every whitespace rune
// is removed, the result is trimmed and then lowercased rune by rune.
func NormalizeWord(word string) []rune {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, word)
	stripped = strings.TrimSpace(stripped)

	return lowerRunes(stripped)
}

// lowerRunes lowercases s one code point at a time. The result always has
// exactly one rune per rune of s, so offsets into it are offsets into s.
func lowerRunes(s string) []rune {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, unicode.ToLower(r))
	}
	return out
}
