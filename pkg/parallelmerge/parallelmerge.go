// Package parallelmerge implements the parallel multiway merge (spec
// component C4): partition k sorted runs into p balanced output tiles
// and merge each tile on its own goroutine.
//
// tlx's parallel_multiway_merge_base forks one OpenMP thread per tile
// after computing a shared split table on a single thread, then joins.
// This package replaces OpenMP with golang.org/x/sync/errgroup (adopted
// from the Orizon and plakar example repos — the teacher has no
// worker-pool code of its own), but keeps the same two-phase shape:
// partition once, fan out, join, then advance the shared input cursors.
package parallelmerge

import (
	"context"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/tlx/tlx-sub000/internal/die"
	"github.com/tlx/tlx-sub000/pkg/cmp"
	"github.com/tlx/tlx-sub000/pkg/multiway"
)

// SplitAlgorithm selects how tile boundaries are computed.
type SplitAlgorithm int

const (
	// SplitExact binary-searches all k inputs simultaneously for the
	// unique configuration summing to each boundary rank (spec §4.6).
	SplitExact SplitAlgorithm = iota
	// SplitSampling draws a pooled random sample, sorts it, and uses
	// the rank-appropriate sample element as an approximate boundary
	// key, then corrects tile sizes to be exact.
	SplitSampling
)

// Options configures a parallel merge.
type Options[T any] struct {
	Less   cmp.Comparator[T]
	Stable bool
	// Threads is the requested tile count p. It is clamped to
	// [1, min(n, total available, runtime.NumCPU())].
	Threads   int
	Split     SplitAlgorithm
	Algorithm multiway.Algorithm
	// Oversample scales the sample pool size used by SplitSampling: the
	// pool drawn is roughly Threads*Oversample elements. Defaults to 8.
	Oversample int
	// Rand drives SplitSampling's sampling; defaults to a
	// deterministically seeded generator so results are reproducible
	// across runs with the same inputs.
	Rand *rand.Rand
}

// Merge writes min(n, total available) elements in non-decreasing order
// to out[:written] and advances every seqs[i] to reflect what it
// contributed, exactly like multiway.Merge. For SplitExact, the output
// is bitwise identical to multiway.Merge on the same input (spec §5);
// for SplitSampling, it is a correctly sorted merge but not guaranteed
// identical element-for-element on ties.
func Merge[T any](seqs []*multiway.Sequence[T], out []T, n int, opts Options[T]) (int, error) {
	die.Unless(opts.Less != nil, "parallelmerge: Options.Less must not be nil")
	die.Unless(len(out) >= n, "parallelmerge: out must have room for n=%d elements", n)

	if len(seqs) == 0 || n == 0 {
		return 0, nil
	}

	type source struct {
		seq *multiway.Sequence[T]
	}
	var live []source
	totalSize := 0
	for _, s := range seqs {
		if len(s.Data) > 0 {
			live = append(live, source{s})
			totalSize += len(s.Data)
		}
	}
	if len(live) == 0 {
		return 0, nil
	}
	if n > totalSize {
		n = totalSize
	}

	liveSeqs := make([]*multiway.Sequence[T], len(live))
	for i, s := range live {
		liveSeqs[i] = s.seq
	}

	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}
	if threads > n {
		threads = n
	}
	if threads > totalSize {
		threads = totalSize
	}
	if cpus := runtime.NumCPU(); threads > cpus {
		threads = cpus
	}

	oversample := opts.Oversample
	if oversample <= 0 {
		oversample = 8
	}
	rnd := opts.Rand
	if rnd == nil {
		rnd = rand.New(rand.NewSource(1))
	}

	// boundaries[j] = ceil(jN/p) is the global output rank where tile j
	// starts and tile j-1 ends: tile j covers
	// out[boundaries[j]:boundaries[j+1]], sized ceil((j+1)N/p) -
	// ceil(jN/p) (spec §4.6).
	boundaries := make([]int, threads+1)
	for j := 0; j <= threads; j++ {
		b := (j*n + threads - 1) / threads
		if b > n {
			b = n
		}
		boundaries[j] = b
	}

	splits := make([][]int, threads+1)
	splits[0] = make([]int, len(liveSeqs))
	for j := 1; j <= threads; j++ {
		var cut []int
		if opts.Split == SplitSampling {
			cut = samplingSplit(liveSeqs, opts.Less, boundaries[j], totalSize, threads*oversample, rnd)
			correctSplit(liveSeqs, opts.Less, cut, boundaries[j])
		} else {
			cut = exactSplit(liveSeqs, opts.Less, boundaries[j])
		}
		splits[j] = cut
	}

	g, _ := errgroup.WithContext(context.Background())
	for j := 0; j < threads; j++ {
		j := j
		g.Go(func() error {
			tileLen := boundaries[j+1] - boundaries[j]
			if tileLen <= 0 {
				return nil
			}
			tileSeqs := make([]*multiway.Sequence[T], len(liveSeqs))
			for i, s := range liveSeqs {
				lo, hi := splits[j][i], splits[j+1][i]
				tileSeqs[i] = &multiway.Sequence[T]{Data: s.Data[lo:hi]}
			}
			written := multiway.Merge(tileSeqs, out[boundaries[j]:boundaries[j+1]], tileLen, multiway.Options[T]{
				Less:      opts.Less,
				Stable:    opts.Stable,
				Algorithm: opts.Algorithm,
			})
			die.Unless(written == tileLen, "parallelmerge: tile %d wrote %d of %d expected", j, written, tileLen)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	for i, s := range live {
		s.seq.Data = s.seq.Data[splits[threads][i]:]
	}

	return n, nil
}

// lowerBound returns the number of elements of data strictly less than
// pivot under less (the position where pivot would be inserted to keep
// data sorted, before any existing equal elements).
func lowerBound[T any](data []T, pivot T, less cmp.Comparator[T]) int {
	lo, hi := 0, len(data)
	for lo < hi {
		mid := (lo + hi) / 2
		if less(data[mid], pivot) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// exactSplit computes, for each of seqs, the cut position si such that
// sum(si) == rank and the configuration is consistent with a k-way
// merge: a generalized multisequence binary search. At each step it
// shrinks the widest remaining [lo,hi) search window by picking its
// midpoint as a pivot candidate, counting how many elements across all
// sequences precede it in stable merge order (equal elements of
// lower-indexed sequences first), and moving the window past the pivot
// if that count is below rank, or below the pivot otherwise.
func exactSplit[T any](seqs []*multiway.Sequence[T], less cmp.Comparator[T], rank int) []int {
	k := len(seqs)
	lo := make([]int, k)
	hi := make([]int, k)
	for i, s := range seqs {
		hi[i] = len(s.Data)
	}

	for {
		widest, widestWidth := -1, 0
		for i := 0; i < k; i++ {
			if w := hi[i] - lo[i]; w > widestWidth {
				widest, widestWidth = i, w
			}
		}
		if widest == -1 {
			break
		}

		mid := (lo[widest] + hi[widest]) / 2
		pivot := seqs[widest].Data[mid]

		total := mid
		for j := 0; j < k; j++ {
			switch {
			case j < widest:
				d := seqs[j].Data
				total += sort.Search(len(d), func(i int) bool { return less(pivot, d[i]) })
			case j > widest:
				total += lowerBound(seqs[j].Data, pivot, less)
			}
		}

		if total < rank {
			lo[widest] = mid + 1
		} else {
			hi[widest] = mid
		}
	}
	return lo
}

// samplingSplit draws a deterministic pseudorandom sample pooled from
// all sequences, sorts it, and uses the rank-appropriate sample element
// as an approximate boundary key.
func samplingSplit[T any](seqs []*multiway.Sequence[T], less cmp.Comparator[T], rank, totalSize, sampleTarget int, rnd *rand.Rand) []int {
	var sample []T
	for _, s := range seqs {
		n := len(s.Data)
		if n == 0 {
			continue
		}
		take := sampleTarget * n / totalSize
		if take < 1 {
			take = 1
		}
		if take > n {
			take = n
		}
		for t := 0; t < take; t++ {
			sample = append(sample, s.Data[rnd.Intn(n)])
		}
	}

	splits := make([]int, len(seqs))
	if len(sample) == 0 || totalSize == 0 {
		return splits
	}

	sort.Slice(sample, func(i, j int) bool { return less(sample[i], sample[j]) })
	sampleIdx := rank * len(sample) / totalSize
	if sampleIdx >= len(sample) {
		sampleIdx = len(sample) - 1
	}
	pivot := sample[sampleIdx]

	for i, s := range seqs {
		splits[i] = lowerBound(s.Data, pivot, less)
	}
	return splits
}

// correctSplit adjusts an approximate split (from samplingSplit) so the
// cut positions sum to exactly rank, by walking the boundary forward or
// backward one element at a time in merge order.
func correctSplit[T any](seqs []*multiway.Sequence[T], less cmp.Comparator[T], splits []int, rank int) {
	sum := 0
	for _, v := range splits {
		sum += v
	}

	for sum < rank {
		best := -1
		for i, s := range seqs {
			if splits[i] >= len(s.Data) {
				continue
			}
			if best == -1 || less(s.Data[splits[i]], seqs[best].Data[splits[best]]) {
				best = i
			}
		}
		if best == -1 {
			break
		}
		splits[best]++
		sum++
	}

	for sum > rank {
		best := -1
		for i := range seqs {
			if splits[i] <= 0 {
				continue
			}
			if best == -1 || !less(seqs[i].Data[splits[i]-1], seqs[best].Data[splits[best]-1]) {
				best = i
			}
		}
		if best == -1 {
			break
		}
		splits[best]--
		sum--
	}
}
