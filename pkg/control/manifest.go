package control

import (
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"purifygate/pkg/config"
	"purifygate/pkg/engine"
	"purifygate/pkg/output"
	"purifygate/pkg/purifier"
	"purifygate/pkg/textenc"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Processor rule types.
const (
	TypePurify = "purify"
	TypeBlock  = "block"
	TypeField  = "field"
)

type Manifest struct {
	Version   string           `json:"version"`
	Pipelines []PipelineConfig `json:"pipelines"`
}

type PipelineConfig struct {
	Name       string          `json:"name"`
	Processors []ProcessorRule `json:"processors"`
	Outputs    []OutputTarget  `json:"outputs"`
	BatchSize  int             `json:"batch_size"`
}

type ProcessorRule struct {
	ID     string            `json:"id"`
	Type   string            `json:"type"`
	Params map[string]string `json:"params"`
}

type OutputTarget struct {
	Type    string            `json:"type"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// ParseManifest decodes a manifest and returns its first pipeline.
func ParseManifest(data []byte) (*PipelineConfig, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, errors.Wrap(err, "invalid manifest JSON")
	}
	// Only the first pipeline is served
	if len(manifest.Pipelines) == 0 {
		return nil, errors.New("manifest has no pipelines")
	}
	return &manifest.Pipelines[0], nil
}

// Builder turns manifest rules into processors and outputs that share one
// purifier.
type Builder struct {
	purifier *purifier.Purifier
	mask     purifier.Mask
	logger   *zap.Logger
}

// NewBuilder uses mask for rules that do not name their own.
func NewBuilder(p *purifier.Purifier, mask purifier.Mask, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{purifier: p, mask: mask, logger: logger}
}

// Chain builds the processors in rule order. Invalid rules are logged and
// skipped.
func (b *Builder) Chain(rules []ProcessorRule) *engine.ProcessorChain {
	processors := make([]engine.Processor, 0, len(rules))
	for _, rule := range rules {
		proc, err := b.Processor(rule)
		if err != nil {
			b.logger.Warn("skipping processor rule",
				zap.String("id", rule.ID), zap.String("type", rule.Type), zap.Error(err))
			continue
		}
		processors = append(processors, proc)
	}
	return engine.NewProcessorChain(processors...)
}

// Processor builds a single rule.
func (b *Builder) Processor(rule ProcessorRule) (engine.Processor, error) {
	params := rule.Params
	switch rule.Type {
	case TypePurify:
		// Params: mask | mask_char + match_size, encoding, cache_size
		mask, err := MaskFromParams(params, b.mask)
		if err != nil {
			return nil, err
		}
		codec, err := textenc.Lookup(params["encoding"])
		if err != nil {
			return nil, err
		}
		cacheSize := 0
		if v := params["cache_size"]; v != "" {
			if cacheSize, err = strconv.Atoi(v); err != nil {
				return nil, errors.Wrap(err, "cache_size")
			}
		}
		return engine.NewPurifyProcessor(engine.PurifyConfig{
			Name:      rule.ID,
			Mask:      mask,
			Codec:     codec,
			CacheSize: cacheSize,
		}, b.purifier)

	case TypeBlock:
		// Params: words (comma separated, optional), encoding
		codec, err := textenc.Lookup(params["encoding"])
		if err != nil {
			return nil, err
		}
		p := b.purifier
		if words := splitWords(params["words"]); len(words) > 0 {
			p = purifier.New(purifier.WithWords(words...))
		}
		return engine.NewBlockProcessor(rule.ID, p, codec), nil

	case TypeField:
		// Params: attribute OR path, action, mask | mask_char + match_size
		mask, err := MaskFromParams(params, b.mask)
		if err != nil {
			return nil, err
		}
		return engine.NewFieldProcessor(engine.FieldConfig{
			Name:      rule.ID,
			Attribute: params["attribute"],
			Path:      params["path"],
			Action:    engine.FieldAction(params["action"]),
			Mask:      mask,
		}, b.purifier)
	}
	return nil, errors.Errorf("unknown processor type %q", rule.Type)
}

// Outputs builds the targets, defaulting to console if none are usable.
func (b *Builder) Outputs(targets []OutputTarget) *output.FanOutOutput {
	var outputs []output.Output
	for _, target := range targets {
		switch target.Type {
		case "console":
			outputs = append(outputs, output.NewConsoleOutput())
		case "http":
			if target.URL == "" {
				b.logger.Warn("skipping http output without url")
				continue
			}
			outputs = append(outputs, output.NewHTTPOutput(target.URL, target.Headers))
		default:
			b.logger.Warn("skipping unknown output", zap.String("type", target.Type))
		}
	}
	if len(outputs) == 0 {
		outputs = append(outputs, output.NewConsoleOutput())
	}
	return output.NewFanOutOutput(outputs...)
}

// DefaultMask returns the mask configured for the instance.
func DefaultMask(cfg config.PurifierConfig) (purifier.Mask, error) {
	return MaskFromParams(maskParams(cfg), purifier.MaskRune('*', true))
}

// ConfigRules returns the rules the instance runs before any manifest is
// loaded: an optional block rule followed by a purify rule.
func ConfigRules(cfg config.PurifierConfig) []ProcessorRule {
	var rules []ProcessorRule
	if len(cfg.BlockWords) > 0 {
		rules = append(rules, ProcessorRule{
			ID:     "block",
			Type:   TypeBlock,
			Params: map[string]string{
				"words":    strings.Join(cfg.BlockWords, ","),
				"encoding": cfg.Encoding,
			},
		})
	}
	params := maskParams(cfg)
	params["encoding"] = cfg.Encoding
	if cfg.CacheSize > 0 {
		params["cache_size"] = strconv.Itoa(cfg.CacheSize)
	}
	return append(rules, ProcessorRule{ID: "purify", Type: TypePurify, Params: params})
}

func maskParams(cfg config.PurifierConfig) map[string]string {
	if cfg.Mask != "" {
		return map[string]string{"mask": cfg.Mask}
	}
	return map[string]string{
		"mask_char":  cfg.MaskChar,
		"match_size": strconv.FormatBool(cfg.MatchSize),
	}
}

// MaskFromParams reads "mask" (literal, wins) or "mask_char" and
// "match_size". Without any of them def is returned.
func MaskFromParams(params map[string]string, def purifier.Mask) (purifier.Mask, error) {
	if m, ok := params["mask"]; ok && m != "" {
		return purifier.MaskString(m), nil
	}

	char, hasChar := params["mask_char"]
	size, hasSize := params["match_size"]
	hasChar = hasChar && char != ""
	hasSize = hasSize && size != ""
	if !hasChar && !hasSize {
		return def, nil
	}

	r := '*'
	if hasChar {
		runes := []rune(char)
		if len(runes) != 1 {
			return purifier.Mask{}, errors.Errorf("mask_char must be a single character, got %q", char)
		}
		r = runes[0]
	}
	matchSize := true
	if hasSize {
		var err error
		if matchSize, err = strconv.ParseBool(size); err != nil {
			return purifier.Mask{}, errors.Wrap(err, "match_size")
		}
	}
	return purifier.MaskRune(r, matchSize), nil
}

func splitWords(s string) []string {
	var words []string
	for _, w := range strings.Split(s, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}
