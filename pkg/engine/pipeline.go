package engine

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"purifygate/pkg/metrics"
	"purifygate/pkg/output"
)

// PipelineOptions tunes the worker. Zero values fall back to defaults.
type PipelineOptions struct {
	BatchSize     int
	FlushInterval time.Duration
	BypassRatio   float64
	Logger        *zap.Logger
}

// Pipeline connects the Ingest Buffer -> ProcessorChain -> Output.
type Pipeline struct {
	buffer *RingBuffer
	chain  atomic.Pointer[ProcessorChain] // Hot-swappable chain
	output atomic.Pointer[output.FanOutOutput]

	batchSize     atomic.Int64
	flushInterval time.Duration
	bypassRatio   float64
	logger        *zap.Logger
}

func NewPipeline(buf *RingBuffer, chain *ProcessorChain, out output.Output, opts PipelineOptions) *Pipeline {
	p := &Pipeline{
		buffer:        buf,
		flushInterval: opts.FlushInterval,
		bypassRatio:   opts.BypassRatio,
		logger:        opts.Logger,
	}
	if p.flushInterval <= 0 {
		p.flushInterval = 100 * time.Millisecond
	}
	if p.bypassRatio <= 0 || p.bypassRatio > 1 {
		p.bypassRatio = 0.80
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	p.logger = p.logger.Named("pipeline")
	p.UpdateBatchSize(int64(opts.BatchSize))

	if chain == nil {
		chain = NewProcessorChain()
	}
	p.chain.Store(chain)
	p.UpdateOutput(out)

	return p
}

// UpdateChain hot-swaps the processor chain safely.
func (p *Pipeline) UpdateChain(chain *ProcessorChain) {
	p.chain.Store(chain)
	p.logger.Info("processor chain hot-swapped", zap.Strings("processors", chain.Names()))
}

// UpdateOutput hot-swaps the output provider safely.
// Single outputs are wrapped in a FanOutOutput.
func (p *Pipeline) UpdateOutput(out output.Output) {
	fanOut, ok := out.(*output.FanOutOutput)
	if !ok {
		fanOut = output.NewFanOutOutput(out)
	}
	p.output.Store(fanOut)
	p.logger.Info("output provider hot-swapped", zap.Int("outputs", fanOut.Len()))
}

// UpdateBatchSize changes the flush threshold. Values below 1 mean 100.
func (p *Pipeline) UpdateBatchSize(n int64) {
	if n < 1 {
		n = 100
	}
	p.batchSize.Store(n)
}

// Chain returns the processor chain currently in use.
func (p *Pipeline) Chain() *ProcessorChain {
	return p.chain.Load()
}

// Start runs the single worker until ctx is done. The returned channel is
// closed once the final batch has been flushed.
func (p *Pipeline) Start(ctx context.Context) <-chan struct{} {
	p.logger.Info("starting processing pipeline")
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.worker(ctx)
	}()
	return done
}

func (p *Pipeline) worker(ctx context.Context) {
	// Reusable batch slice
	batch := make([][]byte, 0, p.batchSize.Load())
	pCtx := &ProcessingContext{Context: ctx, Logger: p.logger}

	ticker := time.NewTicker(p.flushInterval)
	defer ticker.Stop()

	flush := func(ctx context.Context) {
		if len(batch) > 0 {
			if err := p.output.Load().WriteBatch(ctx, batch); err != nil {
				metrics.OutputErrors.Inc()
				p.logger.Error("output error", zap.Error(err), zap.Int("entries", len(batch)))
			}
			// Reset batch slice (keep capacity)
			batch = batch[:0]
		}
	}

	for {
		select {
		case <-ctx.Done():
			p.drain(pCtx, &batch, func() { flush(context.Background()) })
			flush(context.Background())
			return
		case <-ticker.C:
			flush(ctx)
		case <-p.buffer.Ready():
			p.drain(pCtx, &batch, func() { flush(ctx) })
		}
	}
}

// drain pops until the buffer is empty, flushing every full batch.
func (p *Pipeline) drain(pCtx *ProcessingContext, batch *[][]byte, flush func()) {
	for {
		item := p.buffer.Pop()
		if item == nil {
			return
		}

		// Fail-Open Check (Circuit Breaker)
		// If buffer is above the bypass ratio, skip processing to drain quicker.
		usage := p.buffer.Usage()
		capacity := p.buffer.Capacity()

		if float64(usage) > float64(capacity)*p.bypassRatio {
			metrics.EntriesBypassed.Inc()
			*batch = append(*batch, item)
		} else {
			processed, drop, err := p.chain.Load().Process(pCtx, item)
			metrics.EntriesProcessed.Inc()
			if err != nil {
				metrics.EntriesDropped.WithLabelValues(metrics.ReasonError).Inc()
				p.logger.Warn("process error", zap.Error(err))
				continue
			}
			if drop {
				metrics.EntriesDropped.WithLabelValues(metrics.ReasonBlocked).Inc()
				continue
			}
			*batch = append(*batch, processed)
		}

		if int64(len(*batch)) >= p.batchSize.Load() {
			flush()
		}
	}
}
