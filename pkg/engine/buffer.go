package engine

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
)

var (
	ErrBufferFull = errors.New("buffer is full")
)

// RingBuffer is a fixed-size circular buffer for byte slices.
// It is safe for a single reader (the pipeline worker). Pushes are
// serialized by a mutex, so several ingestors may share one buffer.
type RingBuffer struct {
	pushMu sync.Mutex

	data [][]byte
	head uint64
	tail uint64
	mask uint64
	size uint64

	// ready holds at most one pending wake-up for the reader
	ready chan struct{}

	// Metrics
	dropped uint64
}

// NewRingBuffer creates a ring buffer with the specified size (must be power of 2).
func NewRingBuffer(size uint64) (*RingBuffer, error) {
	if size == 0 || (size&(size-1)) != 0 {
		return nil, errors.New("size must be a power of 2")
	}
	return &RingBuffer{
		data:  make([][]byte, size),
		mask:  size - 1,
		size:  size,
		ready: make(chan struct{}, 1),
	}, nil
}

// Push adds an item to the buffer.
// If the buffer is full, it drops the item and returns ErrBufferFull.
func (rb *RingBuffer) Push(item []byte) error {
	rb.pushMu.Lock()
	head := atomic.LoadUint64(&rb.head)
	tail := atomic.LoadUint64(&rb.tail)

	if head-tail >= rb.size {
		rb.pushMu.Unlock()
		atomic.AddUint64(&rb.dropped, 1)
		return ErrBufferFull
	}

	rb.data[head&rb.mask] = item
	atomic.StoreUint64(&rb.head, head+1)
	rb.pushMu.Unlock()

	select {
	case rb.ready <- struct{}{}:
	default:
	}
	return nil
}

// Pop removes an item from the buffer.
// Returns nil if empty.
func (rb *RingBuffer) Pop() []byte {
	tail := atomic.LoadUint64(&rb.tail)
	head := atomic.LoadUint64(&rb.head)

	if tail == head {
		return nil
	}

	idx := tail & rb.mask
	item := rb.data[idx]
	rb.data[idx] = nil

	atomic.StoreUint64(&rb.tail, tail+1)
	return item
}

// Ready fires after a Push. A single signal may stand for several items, so
// the reader should Pop until the buffer is empty.
func (rb *RingBuffer) Ready() <-chan struct{} {
	return rb.ready
}

// DroppedCount returns the number of dropped events.
func (rb *RingBuffer) DroppedCount() uint64 {
	return atomic.LoadUint64(&rb.dropped)
}

// Usage returns the number of items currently in the buffer.
func (rb *RingBuffer) Usage() uint64 {
	return atomic.LoadUint64(&rb.head) - atomic.LoadUint64(&rb.tail)
}

// Capacity returns the total size of the buffer.
func (rb *RingBuffer) Capacity() uint64 {
	return rb.size
}
