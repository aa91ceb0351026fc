// Package multiway implements the sequential multiway merge (spec
// component C3): merging k sorted input runs into one sorted output,
// picking an algorithm by k the way tlx's multiway_merge.hpp does.
package multiway

import (
	"github.com/tlx/tlx-sub000/internal/die"
	"github.com/tlx/tlx-sub000/pkg/cmp"
	"github.com/tlx/tlx-sub000/pkg/losertree"
)

// smallKThreshold is the largest k for which the bubble (linear-scan)
// merger is chosen automatically instead of a loser tree (spec §4.5).
const smallKThreshold = 4

// Sequence is one input run. Data holds the run's remaining, unconsumed
// elements in sorted order; Merge re-slices Data from the front as
// elements are consumed, so a Sequence observed after Merge returns
// reflects exactly what was not written to the output (spec: "input
// cursors advance to reflect consumed elements").
type Sequence[T any] struct {
	Data []T
}

// Algorithm selects how the merge is carried out.
type Algorithm int

const (
	// AlgoAuto picks an algorithm from k, matching tlx's default
	// dispatch: k<=1 degenerate, k==2 two-way, k<=smallKThreshold
	// bubble, otherwise loser tree.
	AlgoAuto Algorithm = iota
	// AlgoBubble maintains the winner by a linear scan of k keys; only
	// worthwhile for very small k.
	AlgoBubble
	// AlgoLoserTree merges via a guarded loser tree (tracks per-source
	// exhaustion with a flag).
	AlgoLoserTree
	// AlgoLoserTreeCombined is the same guarded loser tree; tlx fuses
	// the inner-loop compare with the write to save one branch per
	// element, a micro-optimization with no Go analogue at this
	// abstraction level, so this tag is implemented identically to
	// AlgoLoserTree (see DESIGN.md).
	AlgoLoserTreeCombined
	// AlgoLoserTreeSentinel merges via an unguarded loser tree. Every
	// Sequence passed to Merge with this tag MUST carry, as its last
	// element, a sentinel strictly greater than any real key (Options.Sentinel);
	// violating this precondition is undefined behavior, not a checked
	// error (spec §9).
	AlgoLoserTreeSentinel
)

// Options configures a merge.
type Options[T any] struct {
	Less cmp.Comparator[T]
	// Stable preserves the relative order of equal keys across inputs
	// when all inputs are individually stable-sorted.
	Stable    bool
	Algorithm Algorithm
	// Sentinel is read only when Algorithm == AlgoLoserTreeSentinel.
	Sentinel T
}

// Merge writes min(n, total available) elements in non-decreasing order
// to out[:written] and returns written. Each seqs[i] is advanced to
// reflect what it contributed.
func Merge[T any](seqs []*Sequence[T], out []T, n int, opts Options[T]) int {
	die.Unless(opts.Less != nil, "multiway: Options.Less must not be nil")
	die.Unless(len(out) >= n, "multiway: out must have room for n=%d elements", n)

	k := len(seqs)
	if k == 0 || n == 0 {
		return 0
	}
	if k == 1 {
		return mergeOne(seqs[0], out, n)
	}

	alg := opts.Algorithm
	if alg == AlgoAuto {
		switch {
		case k == 2:
			return mergeTwoWay(seqs[0], seqs[1], out, n, opts.Less)
		case k <= smallKThreshold:
			alg = AlgoBubble
		default:
			alg = AlgoLoserTree
		}
	}

	switch alg {
	case AlgoBubble:
		return mergeBubble(seqs, out, n, opts.Less)
	case AlgoLoserTreeSentinel:
		return mergeLoserTreeSentinel(seqs, out, n, opts.Less, opts.Stable, opts.Sentinel)
	default:
		return mergeLoserTree(seqs, out, n, opts.Less, opts.Stable)
	}
}

func mergeOne[T any](s *Sequence[T], out []T, n int) int {
	m := len(s.Data)
	if m > n {
		m = n
	}
	copy(out[:m], s.Data[:m])
	s.Data = s.Data[m:]
	return m
}

// mergeTwoWay is tlx's specialized two-input merge: a plain interleave
// with no tournament bookkeeping. Ties favor seqA, which is both the
// cheapest implementation and incidentally the stable choice.
func mergeTwoWay[T any](seqA, seqB *Sequence[T], out []T, n int, less cmp.Comparator[T]) int {
	i, j, written := 0, 0, 0
	for written < n && i < len(seqA.Data) && j < len(seqB.Data) {
		if less(seqB.Data[j], seqA.Data[i]) {
			out[written] = seqB.Data[j]
			j++
		} else {
			out[written] = seqA.Data[i]
			i++
		}
		written++
	}
	for written < n && i < len(seqA.Data) {
		out[written] = seqA.Data[i]
		i++
		written++
	}
	for written < n && j < len(seqB.Data) {
		out[written] = seqB.Data[j]
		j++
		written++
	}
	seqA.Data = seqA.Data[i:]
	seqB.Data = seqB.Data[j:]
	return written
}

// mergeBubble maintains the winner across all live sources by a linear
// scan each step. Scanning left to right and replacing the incumbent
// only on a strict improvement already yields the stable tie-break (the
// lowest-indexed source wins among equal keys), so Stable needs no
// special handling here.
func mergeBubble[T any](seqs []*Sequence[T], out []T, n int, less cmp.Comparator[T]) int {
	k := len(seqs)
	cursors := make([]int, k)
	written := 0
	for written < n {
		best := -1
		for i := 0; i < k; i++ {
			if cursors[i] >= len(seqs[i].Data) {
				continue
			}
			if best == -1 || less(seqs[i].Data[cursors[i]], seqs[best].Data[cursors[best]]) {
				best = i
			}
		}
		if best == -1 {
			break
		}
		out[written] = seqs[best].Data[cursors[best]]
		cursors[best]++
		written++
	}
	for i := range seqs {
		seqs[i].Data = seqs[i].Data[cursors[i]:]
	}
	return written
}

// mergeLoserTree drives a guarded loser tree: each source's exhaustion
// is tracked by the tree's own done flag, so no sentinel is required
// from the caller.
func mergeLoserTree[T any](seqs []*Sequence[T], out []T, n int, less cmp.Comparator[T], stable bool) int {
	k := len(seqs)
	var zero T

	lt := losertree.New[T](k, losertree.Config[T]{Less: less, Stable: stable, Guarded: true})
	cursors := make([]int, k)
	live := 0
	for i, s := range seqs {
		if len(s.Data) > 0 {
			lt.InsertStart(s.Data[0], i, false)
			live++
		} else {
			lt.InsertStart(zero, i, true)
		}
	}
	lt.Init()

	written := 0
	for written < n && live > 0 {
		src := lt.MinSource()
		out[written] = lt.MinKey()
		written++
		cursors[src]++
		if cursors[src] < len(seqs[src].Data) {
			lt.DeleteMinInsert(seqs[src].Data[cursors[src]], false)
		} else {
			lt.DeleteMinInsert(zero, true)
			live--
		}
	}
	for i := range seqs {
		seqs[i].Data = seqs[i].Data[cursors[i]:]
	}
	return written
}

// mergeLoserTreeSentinel drives an unguarded loser tree. Each seqs[i].Data
// must carry a trailing sentinel beyond its real elements; the merge
// never reads past it as long as n does not exceed the true total.
func mergeLoserTreeSentinel[T any](seqs []*Sequence[T], out []T, n int, less cmp.Comparator[T], stable bool, sentinel T) int {
	k := len(seqs)
	lt := losertree.New[T](k, losertree.Config[T]{Less: less, Stable: stable, Guarded: false, Sentinel: sentinel})
	cursors := make([]int, k)
	for i, s := range seqs {
		die.Unless(len(s.Data) > 0, "multiway: sentinel algorithm requires source %d to carry a trailing sentinel", i)
		lt.InsertStart(s.Data[0], i, false)
	}
	lt.Init()

	for written := 0; written < n; written++ {
		src := lt.MinSource()
		out[written] = lt.MinKey()
		cursors[src]++
		lt.DeleteMinInsert(seqs[src].Data[cursors[src]], false)
	}
	for i := range seqs {
		seqs[i].Data = seqs[i].Data[cursors[i]:]
	}
	return n
}
