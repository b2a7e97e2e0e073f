package batch

import "sync"

// orderedBuffer hands results from any number of workers to a single
// reader in index order.
type orderedBuffer[T any] struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending map[int]T
}

func newOrderedBuffer[T any]() *orderedBuffer[T] {
	b := &orderedBuffer[T]{pending: make(map[int]T)}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Put publishes the result for index i.
func (b *orderedBuffer[T]) Put(i int, v T) {
	b.mu.Lock()
	b.pending[i] = v
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Take blocks until the result for index i is available and removes it.
func (b *orderedBuffer[T]) Take(i int) T {
	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		if v, ok := b.pending[i]; ok {
			delete(b.pending, i)
			return v
		}
		b.cond.Wait()
	}
}
