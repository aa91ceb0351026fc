// Package losertree implements a k-way tournament tree used to find the
// current minimum among k input streams in O(log k) per step (spec
// component C2).
//
// Go's generics collapse tlx's "copy vs pointer" axis into one type:
// instantiate LoserTree[BigRecord] for the copy variant (keys stored by
// value at each internal node, good locality for small keys) or
// LoserTree[*BigRecord] for the pointer variant (good for heavy keys) —
// the tree itself does not change. "Guarded vs unguarded" and
// "stable vs unstable" remain genuine behavioral axes and are
// Config fields rather than separate types, since both only change a
// handful of comparisons inside play().
package losertree

import (
	"github.com/tlx/tlx-sub000/internal/die"
	"github.com/tlx/tlx-sub000/pkg/cmp"
)

// Config selects a loser tree variant.
type Config[T any] struct {
	// Less is the strict weak ordering used to compare keys.
	Less cmp.Comparator[T]

	// Stable makes ties broken by the lower source id. Unstable leaves
	// the winner among equal keys unspecified (spec §4.4).
	Stable bool

	// Guarded tracks per-source end-of-stream with an explicit flag and
	// compares it before keys. Unguarded skips the flag entirely and
	// assumes every stream — including the padding slots this tree adds
	// to round capacity up to a power of two — carries a Sentinel key
	// strictly greater than any real key (spec §4.4, §9 open question:
	// violating this precondition is undefined, not checked).
	Guarded bool

	// Sentinel is required when Guarded is false; it fills padding
	// leaves and is compared like any other key.
	Sentinel T
}

type leaf[T any] struct {
	key    T
	source int
	done   bool
}

// LoserTree is a k-way tournament tree over sources numbered 0..k-1.
type LoserTree[T any] struct {
	cfg Config[T]
	ik  int // number of real sources (capacity)
	k   int // padded size, smallest power of two >= ik

	leaves []leaf[T]
	loser  []int // loser[i], i in [1,k-1]; loser[0] holds the overall winner's leaf index
	built  bool
}

// New allocates a tree for up to capacity sources. Capacity must be
// positive.
func New[T any](capacity int, cfg Config[T]) *LoserTree[T] {
	die.Unless(capacity > 0, "losertree: capacity must be positive, got %d", capacity)
	die.Unless(cfg.Less != nil, "losertree: Config.Less must not be nil")

	k := 1
	for k < capacity {
		k <<= 1
	}

	t := &LoserTree[T]{
		cfg:    cfg,
		ik:     capacity,
		k:      k,
		leaves: make([]leaf[T], k),
		loser:  make([]int, k),
	}
	for i := capacity; i < k; i++ {
		if cfg.Guarded {
			t.leaves[i] = leaf[T]{source: i, done: true}
		} else {
			t.leaves[i] = leaf[T]{key: cfg.Sentinel, source: i}
		}
	}
	return t
}

// InsertStart supplies the initial element for source. Call this once
// per source in [0, capacity) before Init. A source with no element at
// all is marked empty via isSentinel (guarded) or must itself carry
// cfg.Sentinel as key (unguarded).
func (t *LoserTree[T]) InsertStart(key T, source int, isSentinel bool) {
	die.Unless(source >= 0 && source < t.ik, "losertree: source %d out of range [0,%d)", source, t.ik)
	t.leaves[source] = leaf[T]{key: key, source: source, done: t.cfg.Guarded && isSentinel}
}

// Init builds the tournament from the elements supplied via
// InsertStart. Must be called exactly once, after all InsertStart
// calls and before any MinSource/DeleteMinInsert call.
func (t *LoserTree[T]) Init() {
	if t.k == 1 {
		t.loser[0] = 0
		t.built = true
		return
	}
	t.loser[0] = t.build(1)
	t.built = true
}

// build returns the winning leaf index of the subtree rooted at
// internal node (1-indexed, children 2*node and 2*node+1), recording
// the loser of that node's match in t.loser[node].
func (t *LoserTree[T]) build(node int) int {
	left, right := 2*node, 2*node+1

	var leftWinner, rightWinner int
	if left >= t.k {
		leftWinner = left - t.k
	} else {
		leftWinner = t.build(left)
	}
	if right >= t.k {
		rightWinner = right - t.k
	} else {
		rightWinner = t.build(right)
	}

	winner, loser := t.play(leftWinner, rightWinner)
	t.loser[node] = loser
	return winner
}

// play returns (winner, loser) among leaf slots a and b.
func (t *LoserTree[T]) play(a, b int) (winner, loser int) {
	if t.cfg.Guarded {
		aDone, bDone := t.leaves[a].done, t.leaves[b].done
		if aDone || bDone {
			if aDone && bDone {
				if t.tieBreak(a, b) {
					return a, b
				}
				return b, a
			}
			if aDone {
				return b, a
			}
			return a, b
		}
	}

	ka, kb := t.leaves[a].key, t.leaves[b].key
	switch {
	case t.cfg.Less(ka, kb):
		return a, b
	case t.cfg.Less(kb, ka):
		return b, a
	default:
		if t.tieBreak(a, b) {
			return a, b
		}
		return b, a
	}
}

// tieBreak reports whether a should win over b when neither dominates
// (equal keys, or both exhausted in the guarded variant).
func (t *LoserTree[T]) tieBreak(a, b int) bool {
	if t.cfg.Stable {
		return t.leaves[a].source <= t.leaves[b].source
	}
	return true
}

// MinSource returns the source id of the current overall winner.
func (t *LoserTree[T]) MinSource() int {
	die.Unless(t.built, "losertree: Init must be called before MinSource")
	return t.leaves[t.loser[0]].source
}

// MinKey returns the current overall winner's key.
func (t *LoserTree[T]) MinKey() T {
	die.Unless(t.built, "losertree: Init must be called before MinKey")
	return t.leaves[t.loser[0]].key
}

// DeleteMinInsert replaces the current winner's element with the next
// element from the same source (or marks that source exhausted) and
// restores the tournament property in O(log k).
func (t *LoserTree[T]) DeleteMinInsert(key T, isSentinel bool) {
	die.Unless(t.built, "losertree: Init must be called before DeleteMinInsert")

	winnerSlot := t.loser[0]
	t.leaves[winnerSlot] = leaf[T]{
		key:    key,
		source: t.leaves[winnerSlot].source,
		done:   t.cfg.Guarded && isSentinel,
	}

	if t.k == 1 {
		return
	}

	// Replay every node on the path from the changed leaf to the root,
	// each time playing the new candidate against the recorded loser and
	// keeping the new loser in place.
	node := (winnerSlot + t.k) / 2
	candidate := winnerSlot
	for node >= 1 {
		storedLoser := t.loser[node]
		winner, loser := t.play(candidate, storedLoser)
		t.loser[node] = loser
		candidate = winner
		node /= 2
	}
	t.loser[0] = candidate
}

// Capacity returns the number of real sources the tree was built for.
func (t *LoserTree[T]) Capacity() int {
	return t.ik
}
