// Package wordlist loads banned word lists from files and Redis.
package wordlist

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
)

// LoadFile reads a word list file. See Parse for the format.
func LoadFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open word list")
	}
	defer f.Close()

	words, err := Parse(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read word list %s", path)
	}
	return words, nil
}

// Parse reads one word per line. Lines are trimmed; empty lines and lines
// starting with '#' are skipped. Interior whitespace is kept, the purifier
// strips it when the word is inserted.
func Parse(r io.Reader) ([]string, error) {
	var words []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return words, nil
}
