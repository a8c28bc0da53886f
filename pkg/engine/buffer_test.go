package engine

import (
	"bytes"
	"sync"
	"testing"
)

func TestRingBuffer_NormalOperation(t *testing.T) {
	// Size 4 (must be power of 2)
	rb, err := NewRingBuffer(4)
	if err != nil {
		t.Fatalf("Failed to create buffer: %v", err)
	}

	data1 := []byte("msg1")
	data2 := []byte("msg2")

	if err := rb.Push(data1); err != nil {
		t.Errorf("Push failed: %v", err)
	}
	if err := rb.Push(data2); err != nil {
		t.Errorf("Push failed: %v", err)
	}

	out1 := rb.Pop()
	if !bytes.Equal(out1, data1) {
		t.Errorf("Expected %s, got %s", data1, out1)
	}
	out2 := rb.Pop()
	if !bytes.Equal(out2, data2) {
		t.Errorf("Expected %s, got %s", data2, out2)
	}

	if out3 := rb.Pop(); out3 != nil {
		t.Errorf("Expected nil (empty), got %s", out3)
	}
}

func TestRingBuffer_FullDrop(t *testing.T) {
	// Small buffer to test overflow easily
	rb, _ := NewRingBuffer(2)

	_ = rb.Push([]byte("1"))
	_ = rb.Push([]byte("2"))

	// Third push should fail (Buffer Full)
	err := rb.Push([]byte("3"))
	if err != ErrBufferFull {
		t.Errorf("Expected ErrBufferFull, got %v", err)
	}

	if dropped := rb.DroppedCount(); dropped != 1 {
		t.Errorf("Expected 1 dropped item, got %d", dropped)
	}

	// Should still read 1 and 2
	if string(rb.Pop()) != "1" {
		t.Error("Order corrupted")
	}
	if string(rb.Pop()) != "2" {
		t.Error("Order corrupted")
	}
}

func TestRingBuffer_ReadySignal(t *testing.T) {
	rb, _ := NewRingBuffer(4)

	select {
	case <-rb.Ready():
		t.Fatal("Ready fired before any push")
	default:
	}

	_ = rb.Push([]byte("a"))
	_ = rb.Push([]byte("b"))

	// Two pushes collapse into one pending signal
	select {
	case <-rb.Ready():
	default:
		t.Fatal("Expected a ready signal after push")
	}
	select {
	case <-rb.Ready():
		t.Fatal("Expected a single pending signal")
	default:
	}

	if rb.Usage() != 2 {
		t.Errorf("Expected usage 2, got %d", rb.Usage())
	}
}

func TestRingBuffer_ConcurrentPush(t *testing.T) {
	rb, _ := NewRingBuffer(1024)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = rb.Push([]byte("x"))
			}
		}()
	}
	wg.Wait()

	n := 0
	for rb.Pop() != nil {
		n++
	}
	if n != 400 {
		t.Errorf("Expected 400 items, got %d", n)
	}
}

func TestNewRingBuffer_RejectsNonPowerOfTwo(t *testing.T) {
	if _, err := NewRingBuffer(3); err == nil {
		t.Error("Expected error for size 3")
	}
	if _, err := NewRingBuffer(0); err == nil {
		t.Error("Expected error for size 0")
	}
}
