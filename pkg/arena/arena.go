// Package arena provides scoped, append-only storage for the objects a
// translation unit owns: types, blocks, and instructions. Everything an
// arena hands out shares the arena's lifetime; there is no individual
// free, only the arena going out of scope with its owning unit.
package arena

// Arena hands out stable pointers into a growable backing store. Unlike a
// plain slice, appending to an Arena never invalidates pointers returned
// by earlier Alloc calls, because the backing store is a slice of
// pointers rather than a slice of values.
type Arena[T any] struct {
	items []*T
}

// New creates an empty arena.
func New[T any]() *Arena[T] {
	return &Arena[T]{}
}

// Alloc copies v into the arena and returns a stable pointer to the copy.
func (a *Arena[T]) Alloc(v T) *T {
	p := new(T)
	*p = v
	a.items = append(a.items, p)
	return p
}

// Len returns the number of items allocated so far.
func (a *Arena[T]) Len() int {
	return len(a.items)
}

// All returns the items in allocation order. Callers must not retain the
// returned slice past further Alloc calls.
func (a *Arena[T]) All() []*T {
	return a.items
}
