package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ErrWriter = &out
	app.ExitErrHandler = func(*cli.Context, error) {}
	err := app.Run(append([]string{"purifygate"}, args...))
	return out.String(), err
}

func TestPurifyCommand(t *testing.T) {
	out, err := run(t, "", "purify", "--word", "禁言", "你被禁言了")
	require.NoError(t, err)
	assert.Equal(t, "你被**了\n", out)

	out, err = run(t, "", "purify", "--word", "禁言", "--mask", "*禁言*", "你被禁言了")
	require.NoError(t, err)
	assert.Equal(t, "你被*禁言*了\n", out)

	out, err = run(t, "", "purify", "--word", "禁言", "--mask-char", "#", "--match-size=false", "你被禁言了")
	require.NoError(t, err)
	assert.Equal(t, "你被#了\n", out)
}

func TestPurifyCommand_Stdin(t *testing.T) {
	dir := t.TempDir()
	words := filepath.Join(dir, "words.txt")
	require.NoError(t, os.WriteFile(words, []byte("foo\nbar\n"), 0o644))

	out, err := run(t, "a foo\nclean\nB A R\n", "purify", "--words", words)
	require.NoError(t, err)
	assert.Equal(t, "a ***\nclean\n*****\n", out)
}

func TestCheckCommand(t *testing.T) {
	out, err := run(t, "", "check", "--word", "abc", "xyz")
	require.NoError(t, err)
	assert.Equal(t, "false\txyz\n", out)

	out, err = run(t, "", "check", "--word", "abc", "x", "a", "b", "c", "x")
	require.Error(t, err)
	assert.Equal(t, "true\tx a b c x\n", out)
}

func TestScanCommand(t *testing.T) {
	out, err := run(t, "xabcx\nnothing\n", "scan", "--word", "abc")
	require.NoError(t, err)
	assert.Equal(t, "[{\"start\":1,\"length\":3}]\n[]\n", out)
}

func TestCommands_NeedWords(t *testing.T) {
	_, err := run(t, "", "scan", "text")
	assert.Error(t, err)
}
