package engine

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"purifygate/pkg/metrics"
	"purifygate/pkg/purifier"
	"purifygate/pkg/textenc"
)

// PurifyConfig holds configuration for creating a PurifyProcessor.
type PurifyConfig struct {
	Name      string
	Mask      purifier.Mask
	Codec     *textenc.Codec // nil for UTF-8 entries
	CacheSize int            // 0 disables the result cache
}

// PurifyProcessor masks banned words anywhere in the entry.
type PurifyProcessor struct {
	name     string
	purifier *purifier.Purifier
	mask     purifier.Mask
	codec    *textenc.Codec

	// cache maps raw entries to their purified form. It is purged whenever
	// the purifier's word list changes.
	cache    *lru.Cache[string, cachedEntry]
	cacheGen atomic.Uint64
}

type cachedEntry struct {
	out     []byte
	matches int
}

func NewPurifyProcessor(cfg PurifyConfig, p *purifier.Purifier) (*PurifyProcessor, error) {
	if p == nil {
		return nil, errors.New("purify processor needs a purifier")
	}
	proc := &PurifyProcessor{
		name:     cfg.Name,
		purifier: p,
		mask:     cfg.Mask,
		codec:    cfg.Codec,
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, cachedEntry](cfg.CacheSize)
		if err != nil {
			return nil, errors.Wrap(err, "purify cache")
		}
		proc.cache = cache
		proc.cacheGen.Store(p.Generation())
	}
	return proc, nil
}

func (r *PurifyProcessor) Name() string {
	return r.name
}

// Process returns the entry with every banned word masked. Entries without
// a match are returned unchanged, without allocation of a new slice.
func (r *PurifyProcessor) Process(ctx *ProcessingContext, entry []byte) ([]byte, bool, error) {
	if r.cache == nil {
		out, _, err := r.purify(entry)
		return out, false, err
	}

	if gen := r.purifier.Generation(); r.cacheGen.Swap(gen) != gen {
		r.cache.Purge()
	}

	key := string(entry)
	if hit, ok := r.cache.Get(key); ok {
		if hit.matches == 0 {
			return entry, false, nil
		}
		metrics.Matches.WithLabelValues(r.name).Add(float64(hit.matches))
		return hit.out, false, nil
	}

	out, matches, err := r.purify(entry)
	if err != nil {
		return entry, false, err
	}
	if matches == 0 {
		r.cache.Add(key, cachedEntry{})
	} else {
		r.cache.Add(key, cachedEntry{out: out, matches: matches})
		ctx.logger().Debug("entry purified", zap.String("processor", r.name), zap.Int("matches", matches))
	}
	return out, false, nil
}

func (r *PurifyProcessor) purify(entry []byte) ([]byte, int, error) {
	text, err := r.codec.Decode(entry)
	if err != nil {
		return entry, 0, err
	}

	spans := r.purifier.Scan(text)
	if len(spans) == 0 {
		return entry, 0, nil
	}
	metrics.Matches.WithLabelValues(r.name).Add(float64(len(spans)))

	out, err := r.codec.Encode(r.purifier.Apply(text, spans, r.mask))
	if err != nil {
		return entry, 0, err
	}
	return out, len(spans), nil
}
