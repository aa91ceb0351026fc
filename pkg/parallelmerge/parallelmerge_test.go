package parallelmerge

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlx/tlx-sub000/pkg/cmp"
	"github.com/tlx/tlx-sub000/pkg/multiway"
)

func makeSortedRuns(rnd *rand.Rand, k, maxLen int) ([]*multiway.Sequence[int], []int) {
	seqs := make([]*multiway.Sequence[int], k)
	var all []int
	for i := 0; i < k; i++ {
		n := rnd.Intn(maxLen + 1)
		vals := make([]int, n)
		for j := range vals {
			vals[j] = rnd.Intn(1000)
		}
		sort.Ints(vals)
		seqs[i] = &multiway.Sequence[int]{Data: vals}
		all = append(all, vals...)
	}
	sort.Ints(all)
	return seqs, all
}

func cloneSeqs(seqs []*multiway.Sequence[int]) []*multiway.Sequence[int] {
	out := make([]*multiway.Sequence[int], len(seqs))
	for i, s := range seqs {
		out[i] = &multiway.Sequence[int]{Data: append([]int(nil), s.Data...)}
	}
	return out
}

func TestParallelMergeExactMatchesSequential(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	base, want := makeSortedRuns(rnd, 16, 500)

	seqs := cloneSeqs(base)
	out := make([]int, len(want))
	n, err := Merge(seqs, out, len(want), Options[int]{
		Less: cmp.Ordered[int](), Threads: 8, Split: SplitExact,
	})
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
	assert.Equal(t, want, out)
	for _, s := range seqs {
		assert.Empty(t, s.Data)
	}
}

func TestParallelMergeSamplingIsCorrectlySorted(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	base, want := makeSortedRuns(rnd, 16, 2000)

	seqs := cloneSeqs(base)
	out := make([]int, len(want))
	n, err := Merge(seqs, out, len(want), Options[int]{
		Less: cmp.Ordered[int](), Threads: 8, Split: SplitSampling, Rand: rand.New(rand.NewSource(3)),
	})
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
	assert.True(t, sort.IntsAreSorted(out))

	gotSorted := append([]int(nil), out...)
	wantSorted := append([]int(nil), want...)
	sort.Ints(gotSorted)
	sort.Ints(wantSorted)
	assert.Equal(t, wantSorted, gotSorted)
}

func TestParallelMergePartialN(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	base, want := makeSortedRuns(rnd, 10, 200)
	total := len(want)
	n := total / 2

	seqs := cloneSeqs(base)
	out := make([]int, n)
	written, err := Merge(seqs, out, n, Options[int]{Less: cmp.Ordered[int](), Threads: 4})
	require.NoError(t, err)
	assert.Equal(t, n, written)
	assert.Equal(t, want[:n], out)

	var remaining []int
	for _, s := range seqs {
		remaining = append(remaining, s.Data...)
	}
	sort.Ints(remaining)
	assert.Equal(t, want[n:], remaining)
}

func TestParallelMergeSingleThread(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	base, want := makeSortedRuns(rnd, 5, 100)
	seqs := cloneSeqs(base)
	out := make([]int, len(want))
	n, err := Merge(seqs, out, len(want), Options[int]{Less: cmp.Ordered[int](), Threads: 1})
	require.NoError(t, err)
	assert.Equal(t, len(want), n)
	assert.Equal(t, want, out)
}
