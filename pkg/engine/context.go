package engine

import (
	"context"

	"go.uber.org/zap"
)

// ProcessingContext holds per-worker state shared by every processor call.
// It wraps standard context.Context.
type ProcessingContext struct {
	context.Context

	// Logger is never nil once the pipeline hands the context out.
	Logger *zap.Logger
}

// NewProcessingContext returns a context for calling processors outside a
// pipeline, e.g. from the API or the CLI.
func NewProcessingContext(ctx context.Context, logger *zap.Logger) *ProcessingContext {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProcessingContext{Context: ctx, Logger: logger}
}

func (c *ProcessingContext) logger() *zap.Logger {
	if c == nil || c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}
