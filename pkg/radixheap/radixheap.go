// Package radixheap implements a monotone radix heap (spec component
// C7): a priority queue that only ever needs to extract keys in
// non-decreasing order ("monotone"), bucketed by the position of the
// highest bit at which a candidate key differs from the last extracted
// key. Pushing a key smaller than the last extraction is a programmer
// error that Push catches with a panic rather than an error return
// (spec §9), grounded on
// tlx/container/radix_heap.hpp's IntegerRank/BucketComputation split.
package radixheap

import (
	"math/bits"

	"github.com/tlx/tlx-sub000/internal/die"
)

// numBuckets is 65: bucket 0 holds keys equal to the current floor,
// buckets 1..64 hold keys whose rank differs from the floor's rank at
// bit position (bucket-1), covering every possible uint64 rank.
const numBuckets = 65

// Entry pairs a key with an arbitrary payload.
type Entry[K any, V any] struct {
	Key   K
	Value V
}

// RadixHeap is a monotone priority queue over keys of type K, ranked
// into a uint64 total order by rank. Use Uint64Rank/Int64Rank (or a
// custom function following tlx's IntegerRank scheme: an order-
// preserving bijection to uint64) to build rank for common key types.
type RadixHeap[K any, V any] struct {
	rank func(K) uint64

	buckets   [numBuckets][]Entry[K, V]
	bucketMin [numBuckets]uint64

	last    uint64
	hasLast bool
	size    int
}

// New creates an empty radix heap using rank to map keys to a uint64
// total order matching K's natural order (rank(a) < rank(b) iff a sorts
// before b).
func New[K any, V any](rank func(K) uint64) *RadixHeap[K, V] {
	die.Unless(rank != nil, "radixheap: rank function must not be nil")
	h := &RadixHeap[K, V]{rank: rank}
	for i := range h.bucketMin {
		h.bucketMin[i] = ^uint64(0)
	}
	return h
}

// Uint64Rank is the identity rank for unsigned integer keys already in
// the order matching K.
func Uint64Rank(k uint64) uint64 { return k }

// Int64Rank maps int64 to uint64 order-preservingly by flipping the
// sign bit, tlx's IntegerRank for signed types.
func Int64Rank(k int64) uint64 { return uint64(k) ^ (uint64(1) << 63) }

// Len returns the number of entries in the heap.
func (h *RadixHeap[K, V]) Len() int { return h.size }

// Empty reports whether the heap has no entries.
func (h *RadixHeap[K, V]) Empty() bool { return h.size == 0 }

func (h *RadixHeap[K, V]) bucketIndex(r uint64) int {
	if !h.hasLast || r == h.last {
		return 0
	}
	diff := r ^ h.last
	return bits.Len64(diff) // in [1,64] since diff != 0
}

// Push inserts key/value. key's rank must be >= the current floor (the
// heap is monotone): rank 0 until the first Top, PeekTopKey or Pop, then
// the rank of the minimum key those calls last exposed or extracted.
// Violating this is undefined behavior per spec §9 and is checked here
// via internal/die rather than returned as an error.
func (h *RadixHeap[K, V]) Push(key K, value V) {
	r := h.rank(key)
	if !h.hasLast {
		h.last = 0
		h.hasLast = true
	}
	die.Unless(r >= h.last, "radixheap: pushed key ranks below the last extracted key")

	idx := h.bucketIndex(r)
	h.buckets[idx] = append(h.buckets[idx], Entry[K, V]{Key: key, Value: value})
	if r < h.bucketMin[idx] {
		h.bucketMin[idx] = r
	}
	h.size++
}

// PeekTopKey returns the smallest key currently in the heap without
// removing it. Calling this on an empty heap is a caller bug.
func (h *RadixHeap[K, V]) PeekTopKey() K {
	h.ensureBucketZero()
	b := h.buckets[0]
	return b[len(b)-1].Key
}

// Top returns the entry with the smallest key without removing it.
func (h *RadixHeap[K, V]) Top() Entry[K, V] {
	h.ensureBucketZero()
	b := h.buckets[0]
	return b[len(b)-1]
}

// Pop removes the entry with the smallest key and advances the
// monotone floor to its rank.
func (h *RadixHeap[K, V]) Pop() {
	h.ensureBucketZero()
	b := h.buckets[0]
	n := len(b) - 1
	h.buckets[0] = b[:n]
	h.size--
	if n == 0 {
		h.bucketMin[0] = ^uint64(0)
	}
}

// ExtractTop removes and returns the entry with the smallest key.
func (h *RadixHeap[K, V]) ExtractTop() Entry[K, V] {
	top := h.Top()
	h.Pop()
	return top
}

// ensureBucketZero redistributes the lowest-indexed non-empty bucket
// into the new floor if bucket 0 is currently empty, so Top/Pop always
// have a ready bucket 0. Called with at least one entry in the heap.
func (h *RadixHeap[K, V]) ensureBucketZero() {
	die.Unless(h.size > 0, "radixheap: Top/Pop on empty heap")
	if len(h.buckets[0]) > 0 {
		return
	}

	idx := 1
	for len(h.buckets[idx]) == 0 {
		idx++
	}

	entries := h.buckets[idx]
	newFloor := h.bucketMin[idx]
	h.buckets[idx] = nil
	h.bucketMin[idx] = ^uint64(0)

	h.last = newFloor
	for _, e := range entries {
		r := h.rank(e.Key)
		target := h.bucketIndex(r)
		h.buckets[target] = append(h.buckets[target], e)
		if r < h.bucketMin[target] {
			h.bucketMin[target] = r
		}
	}
}

// Clear discards every entry.
func (h *RadixHeap[K, V]) Clear() {
	for i := range h.buckets {
		h.buckets[i] = nil
		h.bucketMin[i] = ^uint64(0)
	}
	h.hasLast = false
	h.size = 0
}
