// Package daryheap implements a d-ary heap (spec component C6): a
// binary-heap generalization where each node has Arity children instead
// of 2, trading comparisons-per-level for tree height.
//
// Grounded directly on tlx/container/d_ary_heap.hpp: push/pop via
// sift_up/sift_down over a flat slice, left(k) = arity*k+1, parent(k) =
// (k-1)/arity.
package daryheap

import (
	"github.com/tlx/tlx-sub000/internal/die"
	"github.com/tlx/tlx-sub000/pkg/cmp"
)

// Heap is a d-ary min-heap (under Less) over arbitrary element type T.
type Heap[T any] struct {
	less  cmp.Comparator[T]
	arity int
	data  []T
}

// New creates an empty heap with the given arity (branching factor) and
// ordering. Arity must be at least 1.
func New[T any](arity int, less cmp.Comparator[T]) *Heap[T] {
	die.Unless(arity >= 1, "daryheap: arity must be >= 1, got %d", arity)
	die.Unless(less != nil, "daryheap: less must not be nil")
	return &Heap[T]{less: less, arity: arity}
}

// Len returns the number of elements in the heap.
func (h *Heap[T]) Len() int { return len(h.data) }

// Empty reports whether the heap has no elements.
func (h *Heap[T]) Empty() bool { return len(h.data) == 0 }

// Push inserts v.
func (h *Heap[T]) Push(v T) {
	h.data = append(h.data, v)
	h.siftUp(len(h.data) - 1)
}

// Top returns the minimum element without removing it. Calling this on
// an empty heap is a caller bug.
func (h *Heap[T]) Top() T {
	die.Unless(len(h.data) > 0, "daryheap: Top on empty heap")
	return h.data[0]
}

// Pop removes the minimum element.
func (h *Heap[T]) Pop() {
	die.Unless(len(h.data) > 0, "daryheap: Pop on empty heap")
	last := len(h.data) - 1
	h.data[0] = h.data[last]
	h.data = h.data[:last]
	if last > 0 {
		h.siftDown(0)
	}
}

// ExtractTop removes and returns the minimum element.
func (h *Heap[T]) ExtractTop() T {
	top := h.Top()
	h.Pop()
	return top
}

// Clear discards every element.
func (h *Heap[T]) Clear() {
	h.data = h.data[:0]
}

func (h *Heap[T]) left(k int) int   { return h.arity*k + 1 }
func (h *Heap[T]) parent(k int) int { return (k - 1) / h.arity }

func (h *Heap[T]) siftUp(k int) {
	value := h.data[k]
	p := h.parent(k)
	for k > 0 && !h.less(h.data[p], value) {
		h.data[k] = h.data[p]
		k = p
		p = h.parent(k)
	}
	h.data[k] = value
}

func (h *Heap[T]) siftDown(k int) {
	value := h.data[k]
	n := len(h.data)
	for {
		l := h.left(k)
		if l >= n {
			break
		}
		c := l
		right := l + h.arity
		if right > n {
			right = n
		}
		for l++; l < right; l++ {
			if h.less(h.data[l], h.data[c]) {
				c = l
			}
		}
		if !h.less(h.data[c], value) {
			break
		}
		h.data[k] = h.data[c]
		k = c
	}
	h.data[k] = value
}
