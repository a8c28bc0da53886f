package control

import (
	"sort"
	"sync"

	"purifygate/pkg/metrics"
	"purifygate/pkg/purifier"
)

// Word sources.
const (
	SourceConfig = "config"
	SourceFile   = "file"
	SourceRedis  = "redis"
	SourceAPI    = "api"
)

// WordSources keeps the latest word list of every source and loads their
// union into the purifier, so a reload of one source never drops words
// contributed by another.
type WordSources struct {
	mu       sync.Mutex
	purifier *purifier.Purifier
	sets     map[string][]string
}

func NewWordSources(p *purifier.Purifier) *WordSources {
	return &WordSources{
		purifier: p,
		sets:     make(map[string][]string),
	}
}

// Set replaces the words of one source and rebuilds the purifier.
func (s *WordSources) Set(source string, words []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[source] = append([]string(nil), words...)
	s.rebuild()
}

// Add appends words to one source. The purifier is extended in place.
func (s *WordSources) Add(source string, words ...string) {
	if len(words) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[source] = append(s.sets[source], words...)
	s.purifier.Add(words...)
	metrics.Words.Set(float64(s.purifier.Len()))
}

// Remove drops words from one source and rebuilds the purifier. Words
// are compared in normalized form, so "Foo Bar" removes "foobar". It
// returns how many entries were removed.
func (s *WordSources) Remove(source string, words ...string) int {
	if len(words) == 0 {
		return 0
	}
	drop := make(map[string]struct{}, len(words))
	for _, w := range words {
		drop[string(purifier.NormalizeWord(w))] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.sets[source][:0:0]
	for _, w := range s.sets[source] {
		if _, ok := drop[string(purifier.NormalizeWord(w))]; !ok {
			kept = append(kept, w)
		}
	}
	removed := len(s.sets[source]) - len(kept)
	if removed > 0 {
		s.sets[source] = kept
		s.rebuild()
	}
	return removed
}

// Sources lists the sources that currently hold words.
func (s *WordSources) Sources() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.sets))
	for name, words := range s.sets {
		if len(words) > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (s *WordSources) rebuild() {
	var all []string
	for _, words := range s.sets {
		all = append(all, words...)
	}
	s.purifier.Replace(all)
	metrics.Words.Set(float64(s.purifier.Len()))
}
