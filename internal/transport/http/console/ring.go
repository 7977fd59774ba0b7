package consolehttp

import "sync"

// Ring 是固定容量的环形缓冲，写满后覆盖最旧的元素。
type Ring[T any] struct {
	mu    sync.Mutex
	items []T
	next  int
	full  bool
}

func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Ring[T]{items: make([]T, capacity)}
}

func (r *Ring[T]) Add(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[r.next] = v
	r.next = (r.next + 1) % len(r.items)
	if r.next == 0 {
		r.full = true
	}
}

func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.items)
	}
	return r.next
}

// Recent 按时间顺序返回最近 limit 个元素；limit <= 0 返回全部。
func (r *Ring[T]) Recent(limit int) []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	size := r.next
	start := 0
	if r.full {
		size = len(r.items)
		start = r.next
	}
	if limit <= 0 || limit > size {
		limit = size
	}
	out := make([]T, 0, limit)
	for i := size - limit; i < size; i++ {
		out = append(out, r.items[(start+i)%len(r.items)])
	}
	return out
}
