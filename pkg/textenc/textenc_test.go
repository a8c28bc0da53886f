package textenc

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func TestLookup_UTF8IsPassthrough(t *testing.T) {
	for _, label := range []string{"", "utf-8", "UTF8", " utf-8 "} {
		c, err := Lookup(label)
		require.NoError(t, err, label)
		assert.Nil(t, c, label)
	}

	var c *Codec
	s, err := c.Decode([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, "abc", s)
	b, err := c.Encode("abc")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), b)
	assert.Equal(t, "utf-8", c.Name())
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("klingon")
	assert.True(t, errors.Is(err, ErrUnknownEncoding))
}

func TestCodec_GBKRoundTrip(t *testing.T) {
	c, err := Lookup("GBK")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "gbk", c.Name())

	raw, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("＜政治甲＞"))
	require.NoError(t, err)

	s, err := c.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, "＜政治甲＞", s)

	back, err := c.Encode(s)
	require.NoError(t, err)
	assert.Equal(t, raw, back)
}

func TestCodec_EncodeReplacesUnsupported(t *testing.T) {
	c, err := Lookup("latin1")
	require.NoError(t, err)

	out, err := c.Encode("a禁b")
	require.NoError(t, err)
	assert.Len(t, out, 3)
	assert.Equal(t, byte('a'), out[0])
	assert.Equal(t, byte('b'), out[2])
}
