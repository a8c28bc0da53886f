// Package purifier finds banned words in text and masks them.
//
// Words are normalized (whitespace removed, lowercased) and stored in a
// Trie. A Matcher walks the trie from every position of a text, skipping
// whitespace, and reports the longest word starting there. A Masker then
// rewrites the matched spans.
//
// Usage:
//
//	p := purifier.New(purifier.WithWords("foo", "bar baz"))
//	p.Check("a Foo b")                              // true
//	p.PurifyRune("a foo b", '*', true)              // "a *** b"
//	p.Purify("bar  baz!", purifier.MaskString("#")) // "#!"
package purifier

import (
	"sync"
	"sync/atomic"
)

// Option configures a Purifier.
type Option func(p *Purifier)

// WithStrategy selects the masking strategy. The default is StrategyRebuild.
func WithStrategy(s Strategy) Option {
	return func(p *Purifier) {
		p.masker = NewMasker(s)
	}
}

// WithWords inserts the given words at construction time.
func WithWords(words ...string) Option {
	return func(p *Purifier) {
		for _, w := range words {
			p.trie.Insert(w)
		}
	}
}

// Purifier combines a Trie, a Matcher and a Masker behind a lock so words
// can be added while other goroutines scan. Scans share a read lock;
// insertions take the write lock.
type Purifier struct {
	mu      sync.RWMutex
	trie    *Trie
	matcher *Matcher
	masker  *Masker

	generation atomic.Uint64
}

// New returns a Purifier.
func New(opts ...Option) *Purifier {
	t := NewTrie()
	p := &Purifier{
		trie:    t,
		matcher: NewMatcher(t),
		masker:  NewMasker(StrategyRebuild),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Add inserts words into the current word list.
func (p *Purifier) Add(words ...string) {
	if len(words) == 0 {
		return
	}
	p.mu.Lock()
	for _, w := range words {
		p.trie.Insert(w)
	}
	p.mu.Unlock()
	p.generation.Add(1)
}

// Replace swaps the whole word list. The new trie is built before the lock
// is taken, so scans are only blocked for the swap itself.
func (p *Purifier) Replace(words []string) {
	t := NewTrie()
	for _, w := range words {
		t.Insert(w)
	}

	p.mu.Lock()
	p.trie = t
	p.matcher = NewMatcher(t)
	p.mu.Unlock()
	p.generation.Add(1)
}

// Len returns the number of distinct normalized words.
func (p *Purifier) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trie.Len()
}

// Generation changes every time the word list is modified.
func (p *Purifier) Generation() uint64 {
	return p.generation.Load()
}

// Strategy returns the masking strategy in use.
func (p *Purifier) Strategy() Strategy {
	return p.masker.strategy
}

// Scan returns every match in text. See Matcher.Scan.
func (p *Purifier) Scan(text string) []Span {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.matcher.Scan(text)
}

// Check reports whether text contains at least one banned word.
func (p *Purifier) Check(text string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, found := p.matcher.First(text)
	return found
}

// Purify returns text with every match replaced by mask.
func (p *Purifier) Purify(text string, mask Mask) string {
	return p.Apply(text, p.Scan(text), mask)
}

// PurifyString replaces every match with the literal mask.
func (p *Purifier) PurifyString(text, mask string) string {
	return p.Purify(text, MaskString(mask))
}

// PurifyRune replaces every match with r, repeated to the match length when
// matchSize is true.
func (p *Purifier) PurifyRune(text string, r rune, matchSize bool) string {
	return p.Purify(text, MaskRune(r, matchSize))
}

// Apply masks spans previously returned by Scan on the same text.
func (p *Purifier) Apply(text string, spans []Span, mask Mask) string {
	return p.masker.Apply(text, spans, mask)
}
