package purifier

import (
	"strings"
	"unicode/utf8"
)

// Mask describes what replaces a matched span: either a literal string, or
// a single rune written once or repeated to the span's length.
type Mask struct {
	text      string
	char      rune
	matchSize bool
	literal   bool
}

// MaskString returns a Mask that replaces every span with s verbatim.
func MaskString(s string) Mask {
	return Mask{text: s, literal: true}
}

// MaskRune returns a Mask that replaces every span with r, repeated once per
// rune of the span when matchSize is true and written once otherwise.
func MaskRune(r rune, matchSize bool) Mask {
	return Mask{char: r, matchSize: matchSize}
}

// MatchesSize reports whether rendered masks are exactly as long as the span
// they replace.
func (m Mask) MatchesSize() bool {
	return !m.literal && m.matchSize
}

func (m Mask) render(length int) []rune {
	if m.literal {
		return []rune(m.text)
	}
	if !m.matchSize {
		return []rune{m.char}
	}
	out := make([]rune, length)
	for i := range out {
		out[i] = m.char
	}
	return out
}

// Strategy selects how spans are written into the text.
type Strategy int

const (
	// StrategyRebuild copies the original text once, left to right, emitting
	// a mask in place of each span. It is correct for any mask length.
	StrategyRebuild Strategy = iota
	// StrategyLegacy replaces spans one after the other inside the text
	// being rewritten, using offsets computed on the original text. Offsets
	// go stale as soon as a mask differs in length from its span; use it only
	// when output must match older deployments byte for byte.
	StrategyLegacy
)

func (s Strategy) String() string {
	switch s {
	case StrategyLegacy:
		return "legacy"
	default:
		return "rebuild"
	}
}

// ParseStrategy maps a configuration value to a Strategy. Unknown values
// fall back to StrategyRebuild.
func ParseStrategy(name string) Strategy {
	if name == "legacy" {
		return StrategyLegacy
	}
	return StrategyRebuild
}

// Masker rewrites texts with masks.
type Masker struct {
	strategy Strategy
}

// NewMasker returns a Masker using the given strategy.
func NewMasker(strategy Strategy) *Masker {
	return &Masker{strategy: strategy}
}

// Apply replaces every span of text with mask. Spans must be in ascending
// Start order, as returned by Matcher.Scan.
func (k *Masker) Apply(text string, spans []Span, mask Mask) string {
	if len(spans) == 0 {
		return text
	}
	if k.strategy == StrategyLegacy {
		return applyLegacy(text, spans, mask)
	}
	return applyRebuild(text, spans, mask)
}

// applyRebuild writes unmatched runes through and masks in place of spans.
// A span lying inside text that is already masked is skipped; a span that
// starts inside it and reaches further only covers the extra runes, which
// get one mask rune each in match-size mode and nothing otherwise.
// Unmatched text is copied byte for byte, invalid UTF-8 included.
func applyRebuild(text string, spans []Span, mask Mask) string {
	offsets := runeOffsets(text)
	size := len(offsets) - 1
	var out strings.Builder
	out.Grow(len(text))
	cursor := 0

	for _, s := range spans {
		start, end := s.Start, s.End()
		if start < 0 || start >= size || s.Length <= 0 {
			continue
		}
		if end > size {
			end = size
		}
		if end <= cursor {
			continue
		}

		if start < cursor {
			if mask.MatchesSize() {
				out.WriteString(string(mask.render(end - cursor)))
			}
			cursor = end
			continue
		}

		out.WriteString(text[offsets[cursor]:offsets[start]])
		out.WriteString(string(mask.render(end - start)))
		cursor = end
	}
	out.WriteString(text[offsets[cursor]:])

	return out.String()
}

// applyLegacy replaces spans sequentially with their original offsets.
// Offsets past the current end are skipped and lengths are clamped.
func applyLegacy(text string, spans []Span, mask Mask) string {
	chars := runeSegments(text)

	for _, s := range spans {
		start := s.Start
		if start < 0 || start > len(chars) {
			continue
		}
		end := start + s.Length
		if end > len(chars) {
			end = len(chars)
		}

		repl := mask.render(s.Length)
		next := make([]string, 0, len(chars)-(end-start)+len(repl))
		next = append(next, chars[:start]...)
		for _, r := range repl {
			next = append(next, string(r))
		}
		next = append(next, chars[end:]...)
		chars = next
	}

	return strings.Join(chars, "")
}

// runeOffsets returns the byte offset of every rune of text, plus len(text).
// An invalid UTF-8 byte counts as one rune, as it does when ranging over a
// string, so the indexes agree with the spans Scan reports.
func runeOffsets(text string) []int {
	offsets := make([]int, 0, len(text)+1)
	for i := 0; i < len(text); {
		offsets = append(offsets, i)
		_, w := utf8.DecodeRuneInString(text[i:])
		i += w
	}
	return append(offsets, len(text))
}

// runeSegments splits text into the raw bytes of each rune.
func runeSegments(text string) []string {
	offsets := runeOffsets(text)
	segs := make([]string, len(offsets)-1)
	for i := range segs {
		segs[i] = text[offsets[i]:offsets[i+1]]
	}
	return segs
}
