package purifier

import "unicode"

// Span is one match inside a scanned text. Start and Length are counted in
// runes of the original text; Length includes any whitespace skipped inside
// the match.
type Span struct {
	Start  int `json:"start"`
	Length int `json:"length"`
}

// End returns the offset one past the last rune of the span.
func (s Span) End() int {
	return s.Start + s.Length
}

// Matcher finds banned words of a Trie inside texts.
type Matcher struct {
	trie *Trie
}

// NewMatcher returns a Matcher reading from t. The trie must not be
// modified while a scan is running.
func NewMatcher(t *Trie) *Matcher {
	return &Matcher{trie: t}
}

// Scan returns every match in text in ascending Start order.
//
// A walk is started from every non-whitespace rune. Whitespace inside a walk
// is skipped, so "polit ics" matches "politics". Each start yields at most
// one span, the longest word reachable from it. Spans of different starts
// are neither merged nor deduplicated and may overlap.
func (m *Matcher) Scan(text string) []Span {
	var spans []Span
	m.walk(lowerRunes(text), func(s Span) bool {
		spans = append(spans, s)
		return true
	})
	return spans
}

// First returns the first span Scan would return, without scanning the
// rest of the text.
func (m *Matcher) First(text string) (Span, bool) {
	var (
		first Span
		found bool
	)
	m.walk(lowerRunes(text), func(s Span) bool {
		first, found = s, true
		return false
	})
	return first, found
}

// walk calls emit for every span in chars until emit returns false.
func (m *Matcher) walk(chars []rune, emit func(Span) bool) {
	root := m.trie.Root()
	size := len(chars)

	for i := 0; i < size; i++ {
		if unicode.IsSpace(chars[i]) {
			continue
		}

		node := root
		end := -1
		for j := i; j < size; j++ {
			c := chars[j]
			if unicode.IsSpace(c) {
				continue
			}

			node = m.trie.ChildFor(node, c)
			if node == nil {
				break
			}
			if node.IsTerminal() {
				end = j
			}
		}

		if end >= 0 {
			if !emit(Span{Start: i, Length: end - i + 1}) {
				return
			}
		}
	}
}
