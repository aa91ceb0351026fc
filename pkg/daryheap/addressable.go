package daryheap

import (
	"golang.org/x/exp/constraints"

	"github.com/tlx/tlx-sub000/internal/die"
)

// notPresent marks a key absent from the handles table. Grounded on
// tlx's not_present() == static_cast<key_type>(-1): the all-ones bit
// pattern of an unsigned type.
func notPresent[K constraints.Unsigned]() K {
	return K(0) - K(1)
}

// AddressableHeap is a d-ary min-heap over unique unsigned integer keys
// that supports O(1) containment checks and O(log n) removal/update by
// key, at the cost of a handles table sized to the largest key pushed
// (tlx/container/d_ary_addressable_int_heap.hpp).
type AddressableHeap[K constraints.Unsigned] struct {
	less    func(a, b K) bool
	arity   int
	heap    []K
	handles []K // handles[key] = position of key in heap, or notPresent()
}

// NewAddressable creates an empty addressable heap with the given arity
// and ordering.
func NewAddressable[K constraints.Unsigned](arity int, less func(a, b K) bool) *AddressableHeap[K] {
	die.Unless(arity >= 1, "daryheap: arity must be >= 1, got %d", arity)
	die.Unless(less != nil, "daryheap: less must not be nil")
	return &AddressableHeap[K]{less: less, arity: arity}
}

// Reserve grows the handles table to hold at least newSize keys without
// further reallocation, mirroring tlx's reserve().
func (h *AddressableHeap[K]) Reserve(newSize int) {
	if len(h.handles) < newSize {
		grown := make([]K, newSize)
		copy(grown, h.handles)
		for i := len(h.handles); i < newSize; i++ {
			grown[i] = notPresent[K]()
		}
		h.handles = grown
	}
}

// Len returns the number of keys in the heap.
func (h *AddressableHeap[K]) Len() int { return len(h.heap) }

// Empty reports whether the heap has no keys.
func (h *AddressableHeap[K]) Empty() bool { return len(h.heap) == 0 }

// Clear empties the heap, keeping the handles table allocated.
func (h *AddressableHeap[K]) Clear() {
	for i := range h.handles {
		h.handles[i] = notPresent[K]()
	}
	h.heap = h.heap[:0]
}

// Contains reports whether key is currently in the heap.
func (h *AddressableHeap[K]) Contains(key K) bool {
	if int(key) >= len(h.handles) {
		return false
	}
	return h.handles[key] != notPresent[K]()
}

// Push inserts key, which must not already be present.
func (h *AddressableHeap[K]) Push(key K) {
	die.Unless(key != notPresent[K](), "daryheap: key value collides with the absent-key sentinel")
	if int(key) >= len(h.handles) {
		h.Reserve(int(key) + 1)
	} else {
		die.Unless(h.handles[key] == notPresent[K](), "daryheap: key %v already present", key)
	}
	h.handles[key] = K(len(h.heap))
	h.heap = append(h.heap, key)
	h.siftUpAddr(len(h.heap) - 1)
}

// Top returns the minimum key without removing it.
func (h *AddressableHeap[K]) Top() K {
	die.Unless(len(h.heap) > 0, "daryheap: Top on empty heap")
	return h.heap[0]
}

// Remove deletes key from the heap; key must be present.
func (h *AddressableHeap[K]) Remove(key K) {
	die.Unless(h.Contains(key), "daryheap: Remove of absent key %v", key)
	pos := int(h.handles[key])
	last := len(h.heap) - 1
	h.heap[pos] = h.heap[last]
	h.handles[h.heap[pos]] = K(pos)
	h.handles[key] = notPresent[K]()
	h.heap = h.heap[:last]

	if pos < len(h.heap) {
		if pos > 0 && h.less(h.heap[pos], h.heap[h.parent(pos)]) {
			h.siftUpAddr(pos)
		} else {
			h.siftDownAddr(pos)
		}
	}
}

// Pop removes the minimum key.
func (h *AddressableHeap[K]) Pop() {
	die.Unless(len(h.heap) > 0, "daryheap: Pop on empty heap")
	h.Remove(h.heap[0])
}

// ExtractTop removes and returns the minimum key.
func (h *AddressableHeap[K]) ExtractTop() K {
	top := h.Top()
	h.Pop()
	return top
}

// Update restores the heap property after key's priority changed
// externally (the comparator reads priority data outside the heap
// itself), inserting key if it was not already present. Calling this
// when no priority actually changed is harmless but wasteful.
func (h *AddressableHeap[K]) Update(key K) {
	if int(key) >= len(h.handles) || h.handles[key] == notPresent[K]() {
		h.Push(key)
		return
	}
	pos := int(h.handles[key])
	if pos > 0 && h.less(h.heap[pos], h.heap[h.parent(pos)]) {
		h.siftUpAddr(pos)
	} else {
		h.siftDownAddr(pos)
	}
}

func (h *AddressableHeap[K]) left(k int) int   { return h.arity*k + 1 }
func (h *AddressableHeap[K]) parent(k int) int { return (k - 1) / h.arity }

func (h *AddressableHeap[K]) siftUpAddr(k int) {
	value := h.heap[k]
	p := h.parent(k)
	for k > 0 && !h.less(h.heap[p], value) {
		h.heap[k] = h.heap[p]
		h.handles[h.heap[k]] = K(k)
		k = p
		p = h.parent(k)
	}
	h.handles[value] = K(k)
	h.heap[k] = value
}

func (h *AddressableHeap[K]) siftDownAddr(k int) {
	value := h.heap[k]
	n := len(h.heap)
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
			if h.less(h.heap[l], h.heap[c]) {
				c = l
			}
		}
		if !h.less(h.heap[c], value) {
			break
		}
		h.heap[k] = h.heap[c]
		h.handles[h.heap[k]] = K(k)
		k = c
	}
	h.handles[value] = K(k)
	h.heap[k] = value
}

// SanityCheck walks the heap from the root verifying the heap property
// and handle-table consistency, matching tlx's sanity_check() debugging
// aid. It returns false instead of panicking, since callers use it
// inside test assertions rather than as a precondition.
func (h *AddressableHeap[K]) SanityCheck() bool {
	if len(h.heap) == 0 {
		return true
	}
	mark := make([]bool, len(h.handles))
	queue := []int{0}
	mark[h.heap[0]] = true
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		l := h.left(s)
		for i := 0; i < h.arity && l < len(h.heap); i++ {
			if h.less(h.heap[l], h.heap[s]) {
				return false
			}
			if h.handles[h.heap[l]] != K(l) {
				return false
			}
			mark[h.heap[l]] = true
			queue = append(queue, l)
			l++
		}
	}
	for i := range mark {
		if mark[i] != (h.handles[i] != notPresent[K]()) {
			return false
		}
	}
	return true
}
