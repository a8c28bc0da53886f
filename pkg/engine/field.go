package engine

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"purifygate/pkg/metrics"
	"purifygate/pkg/purifier"
)

// FieldAction is what happens to a JSON entry whose field holds a banned word.
type FieldAction string

const (
	ActionMask FieldAction = "mask"
	ActionDrop FieldAction = "drop"
)

// fieldSearchPaths defines common locations for well-known text attributes.
// When user specifies an "attribute" (not explicit "path"), we search these locations.
var fieldSearchPaths = map[string][]string{
	// Log/OTel record bodies
	"message": {
		"message",
		"msg",
		"body",
		"body.message",
		"attributes.message",
		"log",
	},
	"body": {
		"body",
		"body.stringValue",
		"Body",
	},

	// Chat payloads
	"content": {
		"content",
		"text",
		"message.content",
		"data.content",
	},
	"nickname": {
		"nickname",
		"user.nickname",
		"user.name",
		"attributes.user\\.name",
	},
}

// genericSearchPaths are tried for any attribute not in fieldSearchPaths
var genericSearchPaths = []string{
	"%s",                     // top-level as-is
	"attributes.%s",          // OTel log attributes
	"resource.attributes.%s", // OTel resource attributes
	"body.%s",                // inside body
}

// FieldProcessor scans one string field of JSON entries and masks it, or
// drops the entry, when it holds a banned word.
type FieldProcessor struct {
	name     string
	attr     string // well-known attribute name (auto-search mode)
	path     string // explicit gjson path (explicit mode)
	action   FieldAction
	mask     purifier.Mask
	purifier *purifier.Purifier
}

// FieldConfig holds configuration for creating a FieldProcessor
type FieldConfig struct {
	Name      string
	Attribute string // use this for well-known attributes (auto-search)
	Path      string // use this for explicit path, segments separated by '/'
	Action    FieldAction
	Mask      purifier.Mask
}

// NewFieldProcessor creates a new field processor.
// Either Attribute or Path must be specified, not both.
func NewFieldProcessor(cfg FieldConfig, p *purifier.Purifier) (*FieldProcessor, error) {
	if cfg.Attribute == "" && cfg.Path == "" {
		return nil, errors.New("either attribute or path must be specified")
	}
	if cfg.Attribute != "" && cfg.Path != "" {
		return nil, errors.New("cannot specify both attribute and path")
	}
	if p == nil {
		return nil, errors.New("field processor needs a purifier")
	}

	f := &FieldProcessor{
		name:     cfg.Name,
		attr:     cfg.Attribute,
		action:   cfg.Action,
		mask:     cfg.Mask,
		purifier: p,
	}
	if cfg.Path != "" {
		f.path = convertToGjsonPath(cfg.Path)
	}

	// Default action
	switch f.action {
	case "":
		f.action = ActionMask
	case ActionMask, ActionDrop:
	default:
		return nil, errors.Errorf("unknown field action %q", cfg.Action)
	}

	return f, nil
}

func (f *FieldProcessor) Name() string {
	return f.name
}

// Process scans the configured field.
// Non-JSON entries, missing fields and non-string values pass through (fail-open).
func (f *FieldProcessor) Process(ctx *ProcessingContext, entry []byte) ([]byte, bool, error) {
	if !gjson.ValidBytes(entry) {
		return entry, false, nil
	}

	path, value := f.resolve(entry)
	if !value.Exists() || value.Type != gjson.String {
		return entry, false, nil
	}

	spans := f.purifier.Scan(value.Str)
	if len(spans) == 0 {
		return entry, false, nil
	}
	metrics.Matches.WithLabelValues(f.name).Add(float64(len(spans)))

	if f.action == ActionDrop {
		return entry, true, nil
	}

	out, err := sjson.SetBytes(entry, path, f.purifier.Apply(value.Str, spans, f.mask))
	if err != nil {
		return entry, false, errors.Wrapf(err, "rewrite %s", path)
	}
	return out, false, nil
}

// resolve returns the path the field was found at and its value.
func (f *FieldProcessor) resolve(entry []byte) (string, gjson.Result) {
	if f.path != "" {
		return f.path, gjson.GetBytes(entry, f.path)
	}

	// First, try well-known paths for this attribute
	if paths, ok := fieldSearchPaths[f.attr]; ok {
		for _, path := range paths {
			if result := gjson.GetBytes(entry, path); result.Exists() {
				return path, result
			}
		}
	}

	// Fall back to generic search paths
	// Escape dots in attribute name for gjson
	escapedAttr := strings.ReplaceAll(f.attr, ".", "\\.")
	for _, pathTemplate := range genericSearchPaths {
		path := fmt.Sprintf(pathTemplate, escapedAttr)
		if result := gjson.GetBytes(entry, path); result.Exists() {
			return path, result
		}
	}

	return "", gjson.Result{} // not found
}

// convertToGjsonPath converts user-friendly path (using /) to gjson path.
// Example: "resource/attributes/user.name" -> "resource.attributes.user\.name"
func convertToGjsonPath(userPath string) string {
	parts := strings.Split(userPath, "/")
	for i, part := range parts {
		// Escape dots within each part (they're literal key names)
		parts[i] = strings.ReplaceAll(part, ".", "\\.")
	}
	return strings.Join(parts, ".")
}
