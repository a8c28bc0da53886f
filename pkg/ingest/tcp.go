package ingest

import (
	"bufio"
	"context"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"purifygate/pkg/engine"
	"purifygate/pkg/metrics"
)

// TCPIngestor listens for TCP connections and pushes newline-delimited
// entries to the buffer.
type TCPIngestor struct {
	addr   string
	buffer *engine.RingBuffer
	logger *zap.Logger

	mu       sync.Mutex
	listener net.Listener
}

func NewTCPIngestor(addr string, buffer *engine.RingBuffer, logger *zap.Logger) *TCPIngestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TCPIngestor{
		addr:   addr,
		buffer: buffer,
		logger: logger.Named("tcp"),
	}
}

// Listen binds the address and returns the bound address. Start calls it
// when the ingestor is not yet listening.
func (t *TCPIngestor) Listen() (net.Addr, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.listener != nil {
		return t.listener.Addr(), nil
	}
	listener, err := net.Listen("tcp", t.addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen tcp %s", t.addr)
	}
	t.listener = listener
	t.logger.Info("TCP ingestor listening", zap.Stringer("addr", listener.Addr()))
	return listener.Addr(), nil
}

// Start accepts connections until ctx is done. Blocking call.
func (t *TCPIngestor) Start(ctx context.Context) error {
	if _, err := t.Listen(); err != nil {
		return err
	}
	t.mu.Lock()
	listener := t.listener
	t.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { _ = listener.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			t.logger.Warn("error accepting connection", zap.Error(err))
			continue
		}
		// Handle each connection in a lightweight goroutine
		wg.Add(1)
		go func() {
			defer wg.Done()
			t.handleConnection(ctx, conn)
		}()
	}
}

func (t *TCPIngestor) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadBytes('\n')
		if len(line) > 0 {
			push(t.buffer, line)
		}
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				t.logger.Debug("read error", zap.Error(err))
			}
			return
		}
	}
}

// push drops the entry when the buffer is full (tail drop strategy).
// Logging every drop would kill performance, so only the counter moves.
func push(buffer *engine.RingBuffer, entry []byte) {
	if err := buffer.Push(entry); err != nil {
		metrics.EntriesDropped.WithLabelValues(metrics.ReasonBufferFull).Inc()
	}
}
