// Package textenc converts ingested entries between their wire charset and
// the UTF-8 strings the purifier works on.
package textenc

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

var ErrUnknownEncoding = errors.New("unknown encoding")

// Codec decodes entries to UTF-8 and encodes results back.
type Codec struct {
	name string
	enc  encoding.Encoding
}

// Lookup resolves a WHATWG encoding label such as "gbk", "big5",
// "shift_jis", "utf-16le" or "latin1". An empty label or UTF-8 returns a
// nil Codec, which passes bytes through untouched.
func Lookup(label string) (*Codec, error) {
	label = strings.TrimSpace(strings.ToLower(label))
	if label == "" {
		return nil, nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, errors.Wrapf(ErrUnknownEncoding, "%q", label)
	}
	name, _ := htmlindex.Name(enc)
	if name == "utf-8" {
		return nil, nil
	}
	return &Codec{name: name, enc: enc}, nil
}

// Name returns the canonical name of the encoding, "utf-8" for a nil Codec.
func (c *Codec) Name() string {
	if c == nil {
		return "utf-8"
	}
	return c.name
}

// Decode converts b to a UTF-8 string.
func (c *Codec) Decode(b []byte) (string, error) {
	if c == nil {
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", errors.Wrapf(err, "decode %s", c.name)
	}
	return string(out), nil
}

// Encode converts s back to the codec's charset. Runes the charset cannot
// represent are replaced with the charset's substitution character.
func (c *Codec) Encode(s string) ([]byte, error) {
	if c == nil {
		return []byte(s), nil
	}
	out, err := encoding.ReplaceUnsupported(c.enc.NewEncoder()).Bytes([]byte(s))
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s", c.name)
	}
	return out, nil
}
