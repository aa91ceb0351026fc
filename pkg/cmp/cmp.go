// Package cmp defines the comparator and allocator contracts shared by
// every ordered container in this module (spec's "C1"). Every
// order-dependent component takes a Comparator instead of requiring its
// element type to implement an interface, matching tlx's free-function
// Compare template parameter.
package cmp

import (
	"golang.org/x/exp/constraints"

	"github.com/tlx/tlx-sub000/internal/arena"
)

// Comparator implements a strict weak ordering: Less(a, b) reports
// whether a sorts strictly before b. Equality between a and b is defined
// as !Less(a, b) && !Less(b, a) — neither side strictly precedes the
// other. Comparators must be side-effect free and re-entrant; containers
// call them from arbitrary internal orderings and, in the parallel
// merge, from multiple goroutines concurrently.
type Comparator[T any] func(a, b T) bool

// Equal reports whether a and b are equivalent under less.
func Equal[T any](less Comparator[T], a, b T) bool {
	return !less(a, b) && !less(b, a)
}

// Ordered builds a Comparator from a constraints.Ordered type's natural
// "<" order. Most callers with plain scalar or string keys use this
// instead of writing their own closure.
func Ordered[T constraints.Ordered]() Comparator[T] {
	return func(a, b T) bool { return a < b }
}

// Reverse builds a Comparator that orders the opposite way to less.
func Reverse[T any](less Comparator[T]) Comparator[T] {
	return func(a, b T) bool { return less(b, a) }
}

// Allocator describes index-addressed node allocation (spec §6).
// *arena.Arena[T] satisfies it, growing a plain slice on the process
// heap. The B+ tree does not take an Allocator: it always allocates its
// nodes from an arena.Arena of its own. The contract carries no
// capacity hint.
type Allocator[T any] interface {
	Alloc(v T) arena.Handle
	Free(h arena.Handle)
	Get(h arena.Handle) T
	Set(h arena.Handle, v T)
}
