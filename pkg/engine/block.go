package engine

import (
	"purifygate/pkg/metrics"
	"purifygate/pkg/purifier"
	"purifygate/pkg/textenc"
)

// BlockProcessor drops entries that contain any banned word.
type BlockProcessor struct {
	name     string
	purifier *purifier.Purifier
	codec    *textenc.Codec
}

// NewBlockProcessor drops entries matched by p. codec may be nil for UTF-8
// entries.
func NewBlockProcessor(name string, p *purifier.Purifier, codec *textenc.Codec) *BlockProcessor {
	return &BlockProcessor{
		name:     name,
		purifier: p,
		codec:    codec,
	}
}

// NewBlockListProcessor builds a private purifier from words, for rules
// that carry their own block list.
func NewBlockListProcessor(name string, words []string) *BlockProcessor {
	return NewBlockProcessor(name, purifier.New(purifier.WithWords(words...)), nil)
}

func (f *BlockProcessor) Name() string {
	return f.name
}

func (f *BlockProcessor) Process(ctx *ProcessingContext, entry []byte) ([]byte, bool, error) {
	text, err := f.codec.Decode(entry)
	if err != nil {
		return entry, false, err
	}
	if f.purifier.Check(text) {
		metrics.Matches.WithLabelValues(f.name).Inc()
		return entry, true, nil // DROP
	}
	return entry, false, nil
}
