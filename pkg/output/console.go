package output

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
)

// Output defines where the processed entries go.
type Output interface {
	WriteBatch(ctx context.Context, entries [][]byte) error
}

// ConsoleOutput writes entries to a writer, stdout by default, one per
// line. An entry that already ends in a newline is not given another.
type ConsoleOutput struct {
	mu sync.Mutex
	w  *bufio.Writer
}

func NewConsoleOutput() *ConsoleOutput {
	return NewWriterOutput(os.Stdout)
}

// NewWriterOutput writes to w instead of stdout.
func NewWriterOutput(w io.Writer) *ConsoleOutput {
	return &ConsoleOutput{w: bufio.NewWriter(w)}
}

func (c *ConsoleOutput) WriteBatch(_ context.Context, entries [][]byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range entries {
		if _, err := c.w.Write(entry); err != nil {
			return err
		}
		if !terminated(entry) {
			if err := c.w.WriteByte('\n'); err != nil {
				return err
			}
		}
	}
	return c.w.Flush()
}

// frame appends every entry to buf followed by exactly one newline.
func frame(buf []byte, entries [][]byte) []byte {
	for _, entry := range entries {
		buf = append(buf, entry...)
		if !terminated(entry) {
			buf = append(buf, '\n')
		}
	}
	return buf
}

func terminated(entry []byte) bool {
	return len(entry) > 0 && entry[len(entry)-1] == '\n'
}
