package interview

import (
	"context"
	"sync"
)

// Latch is a one-shot, level-triggered signal. Once set it stays set, and
// any number of goroutines may wait on it.
type Latch struct {
	once sync.Once
	ch   chan struct{}
}

func NewLatch() *Latch {
	return &Latch{ch: make(chan struct{})}
}

// Set releases all current and future waiters. Extra calls are no-ops.
func (l *Latch) Set() {
	l.once.Do(func() { close(l.ch) })
}

func (l *Latch) IsSet() bool {
	select {
	case <-l.ch:
		return true
	default:
		return false
	}
}

// Wait blocks until the latch is set or ctx is done.
func (l *Latch) Wait(ctx context.Context) error {
	select {
	case <-l.ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
