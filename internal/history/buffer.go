package history

// Buffer is an append-only series with a soft cap. When the cap is exceeded
// only the trailing half is kept, so callers see a sawtooth length rather than
// a sliding window.
type Buffer[T any] struct {
	items []T
	limit int
}

// NewBuffer returns a buffer capped at limit items. A limit <= 0 disables eviction.
func NewBuffer[T any](limit int, seed ...T) *Buffer[T] {
	b := &Buffer[T]{limit: limit}
	b.items = append(b.items, seed...)
	return b
}

func (b *Buffer[T]) Append(v T) {
	b.items = append(b.items, v)
	if b.limit > 0 && len(b.items) > b.limit {
		keep := max(1, b.limit/2)
		trimmed := make([]T, keep)
		copy(trimmed, b.items[len(b.items)-keep:])
		b.items = trimmed
	}
}

func (b *Buffer[T]) Len() int { return len(b.items) }

// Last returns a copy of the newest n items (fewer if the buffer is shorter).
func (b *Buffer[T]) Last(n int) []T {
	if n < 0 || n > len(b.items) {
		n = len(b.items)
	}
	out := make([]T, n)
	copy(out, b.items[len(b.items)-n:])
	return out
}

func (b *Buffer[T]) All() []T {
	return b.Last(len(b.items))
}

func (b *Buffer[T]) Tail() (T, bool) {
	var zero T
	if len(b.items) == 0 {
		return zero, false
	}
	return b.items[len(b.items)-1], true
}

// Reset drops every item and re-seeds the buffer.
func (b *Buffer[T]) Reset(seed ...T) {
	b.items = append(b.items[:0:0], seed...)
}
