package output

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FanOutOutput writes to multiple outputs in parallel.
type FanOutOutput struct {
	outputs []Output
}

func NewFanOutOutput(outputs ...Output) *FanOutOutput {
	return &FanOutOutput{
		outputs: outputs,
	}
}

// WriteBatch waits for every output and returns the first error.
// A failing output does not cancel the others.
func (f *FanOutOutput) WriteBatch(ctx context.Context, entries [][]byte) error {
	var g errgroup.Group
	for _, out := range f.outputs {
		out := out
		g.Go(func() error {
			return out.WriteBatch(ctx, entries)
		})
	}
	return g.Wait()
}

// Len returns the number of wrapped outputs.
func (f *FanOutOutput) Len() int {
	return len(f.outputs)
}
