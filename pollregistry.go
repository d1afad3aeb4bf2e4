package cosmos

import (
	"github.com/ferrocore/cosmos/internal/fdtable"
)

// Watchers is a dense registry mapping a Poller's opaque per-event user
// value back to whatever Go value a caller wants associated with a
// watched descriptor (a callback, a connection object, ...), since the
// epoll user-data slot epoll itself hands back is only a bare 64 bit
// integer.
type Watchers[T any] struct {
	table fdtable.Table[uint32, T]
}

// Register stores object and returns the key to pass as the user value
// to Poller.Add/Modify.
func (w *Watchers[T]) Register(object T) uint64 {
	return uint64(w.table.Insert(object))
}

// Lookup retrieves the object registered under key, as returned in a
// PollEvent's User field.
func (w *Watchers[T]) Lookup(key uint64) (T, bool) {
	return w.table.Lookup(uint32(key))
}

// Unregister removes the object registered under key, typically once its
// descriptor has been removed from the Poller.
func (w *Watchers[T]) Unregister(key uint64) {
	w.table.Delete(uint32(key))
}

// Len returns the number of objects currently registered.
func (w *Watchers[T]) Len() int {
	return w.table.Len()
}

// Range calls f for each currently registered object and the key it was
// registered under, in arbitrary order. f may return false to stop the
// iteration early.
func (w *Watchers[T]) Range(f func(key uint64, object T) bool) {
	w.table.Range(func(d uint32, o T) bool {
		return f(uint64(d), o)
	})
}
