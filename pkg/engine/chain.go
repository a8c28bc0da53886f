package engine

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ProcessorChain manages a sequential list of processors.
type ProcessorChain struct {
	processors []Processor
}

// NewProcessorChain creates a chain with the given list of processors.
func NewProcessorChain(processors ...Processor) *ProcessorChain {
	return &ProcessorChain{
		processors: processors,
	}
}

// Process runs the entry through all processors in the chain.
// It stops if a processor returns drop=true or an error.
func (c *ProcessorChain) Process(ctx *ProcessingContext, entry []byte) ([]byte, bool, error) {
	var drop bool
	var err error

	for _, p := range c.processors {
		entry, drop, err = p.Process(ctx, entry)
		if err != nil {
			return entry, false, errors.Wrapf(err, "processor %s", p.Name())
		}
		if drop {
			ctx.logger().Debug("entry dropped", zap.String("processor", p.Name()))
			return entry, true, nil
		}
	}

	return entry, false, nil
}

// Names lists the processors in chain order.
func (c *ProcessorChain) Names() []string {
	names := make([]string, len(c.processors))
	for i, p := range c.processors {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of processors.
func (c *ProcessorChain) Len() int {
	return len(c.processors)
}
