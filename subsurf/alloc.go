package subsurf

import (
	"sync"

	"github.com/gorustyt/gosubsurf/common"
)

// Allocator supplies the sample and attribute buffers of vertices, edges and
// faces. Buffers returned by Alloc and Realloc are zeroed.
type Allocator[T any] interface {
	Alloc(n int) ([]T, error)
	// Realloc resizes buf to n elements, keeping the common prefix.
	Realloc(buf []T, n int) ([]T, error)
	Free(buf []T)
}

// HeapAllocator allocates straight from the Go heap.
type HeapAllocator[T any] struct{}

func (HeapAllocator[T]) Alloc(n int) ([]T, error) {
	return make([]T, n), nil
}

func (HeapAllocator[T]) Realloc(buf []T, n int) ([]T, error) {
	if n <= cap(buf) {
		old := len(buf)
		buf = buf[:n]
		if n > old {
			clear(buf[old:])
		}
		return buf, nil
	}
	res := make([]T, n)
	copy(res, buf)
	return res, nil
}

func (HeapAllocator[T]) Free([]T) {}

// PoolAllocator recycles freed buffers in power-of-two size classes. It is
// safe for concurrent use.
type PoolAllocator[T any] struct {
	mu   sync.Mutex
	free map[int][][]T
}

func NewPoolAllocator[T any]() *PoolAllocator[T] {
	return &PoolAllocator[T]{free: make(map[int][][]T)}
}

func sizeClass(n int) int {
	if n <= 1 {
		return 1
	}
	return int(common.NextPow2(uint32(n)))
}

func (p *PoolAllocator[T]) Alloc(n int) ([]T, error) {
	if n == 0 {
		return nil, nil
	}
	class := sizeClass(n)
	p.mu.Lock()
	bufs := p.free[class]
	if k := len(bufs); k > 0 {
		buf := bufs[k-1]
		p.free[class] = bufs[:k-1]
		p.mu.Unlock()
		buf = buf[:n]
		clear(buf)
		return buf, nil
	}
	p.mu.Unlock()
	return make([]T, n, class), nil
}

func (p *PoolAllocator[T]) Realloc(buf []T, n int) ([]T, error) {
	if buf != nil && n <= cap(buf) {
		old := len(buf)
		buf = buf[:n]
		if n > old {
			clear(buf[old:])
		}
		return buf, nil
	}
	res, err := p.Alloc(n)
	if err != nil {
		return buf, err
	}
	copy(res, buf)
	p.Free(buf)
	return res, nil
}

func (p *PoolAllocator[T]) Free(buf []T) {
	if cap(buf) == 0 {
		return
	}
	class := cap(buf)
	if sizeClass(class) != class {
		// Not one of ours.
		return
	}
	p.mu.Lock()
	p.free[class] = append(p.free[class], buf[:0])
	p.mu.Unlock()
}

// Pooled returns the number of buffers waiting for reuse.
func (p *PoolAllocator[T]) Pooled() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, bufs := range p.free {
		n += len(bufs)
	}
	return n
}

// LimitAllocator caps the number of live elements handed out by Inner and
// fails with ErrOutOfMemory beyond it.
type LimitAllocator[T any] struct {
	Inner Allocator[T]
	Limit int

	mu   sync.Mutex
	used int
}

func NewLimitAllocator[T any](inner Allocator[T], limit int) *LimitAllocator[T] {
	if inner == nil {
		inner = HeapAllocator[T]{}
	}
	return &LimitAllocator[T]{Inner: inner, Limit: limit}
}

func (l *LimitAllocator[T]) reserve(n int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.used+n > l.Limit {
		return ErrOutOfMemory
	}
	l.used += n
	return nil
}

func (l *LimitAllocator[T]) release(n int) {
	l.mu.Lock()
	l.used -= n
	l.mu.Unlock()
}

func (l *LimitAllocator[T]) Alloc(n int) ([]T, error) {
	if err := l.reserve(n); err != nil {
		return nil, err
	}
	buf, err := l.Inner.Alloc(n)
	if err != nil {
		l.release(n)
		return nil, err
	}
	return buf, nil
}

func (l *LimitAllocator[T]) Realloc(buf []T, n int) ([]T, error) {
	delta := n - len(buf)
	if delta > 0 {
		if err := l.reserve(delta); err != nil {
			return buf, err
		}
	}
	res, err := l.Inner.Realloc(buf, n)
	if err != nil {
		if delta > 0 {
			l.release(delta)
		}
		return buf, err
	}
	if delta < 0 {
		l.release(-delta)
	}
	return res, nil
}

func (l *LimitAllocator[T]) Free(buf []T) {
	l.release(len(buf))
	l.Inner.Free(buf)
}

// Used returns the number of live elements.
func (l *LimitAllocator[T]) Used() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used
}
