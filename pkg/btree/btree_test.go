package btree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tlx/tlx-sub000/pkg/cmp"
)

func newIntTree() *Tree[int, string] {
	cfg := DefaultConfig[int](cmp.Ordered[int]())
	cfg.LeafMax, cfg.LeafMin = 4, 2
	cfg.InnerMax, cfg.InnerMin = 4, 2
	return New[int, string](cfg)
}

func TestInsertFindBasic(t *testing.T) {
	tr := newIntTree()
	assert.True(t, tr.Insert(5, "five"))
	assert.True(t, tr.Insert(3, "three"))
	assert.True(t, tr.Insert(8, "eight"))

	v, ok := tr.Find(5)
	require.True(t, ok)
	assert.Equal(t, "five", v)

	_, ok = tr.Find(99)
	assert.False(t, ok)
}

func TestInsertRejectsDuplicateByDefault(t *testing.T) {
	tr := newIntTree()
	assert.True(t, tr.Insert(1, "a"))
	assert.False(t, tr.Insert(1, "b"))
	v, _ := tr.Find(1)
	assert.Equal(t, "a", v)
	assert.Equal(t, 1, tr.Len())
}

func TestAllowDuplicates(t *testing.T) {
	cfg := DefaultConfig[int](cmp.Ordered[int]())
	cfg.AllowDuplicates = true
	cfg.LeafMax, cfg.LeafMin = 4, 2
	tr := New[int, int](cfg)
	for i := 0; i < 3; i++ {
		tr.Insert(7, i)
	}
	assert.Equal(t, 3, tr.Count(7))
	assert.Equal(t, 3, tr.Len())
}

func TestOrderedIteration(t *testing.T) {
	tr := newIntTree()
	values := []int{50, 20, 80, 10, 30, 70, 90, 5, 15}
	for _, v := range values {
		tr.Insert(v, "")
	}

	want := append([]int(nil), values...)
	sort.Ints(want)

	var got []int
	for c := tr.First(); c.Valid(); c.Next() {
		got = append(got, c.Key())
	}
	assert.Equal(t, want, got)

	var gotRev []int
	for c := tr.Last(); c.Valid(); c.Prev() {
		gotRev = append(gotRev, c.Key())
	}
	for i, j := 0, len(gotRev)-1; i < j; i, j = i+1, j-1 {
		gotRev[i], gotRev[j] = gotRev[j], gotRev[i]
	}
	assert.Equal(t, want, gotRev)
}

func TestLowerUpperBoundAndEqualRange(t *testing.T) {
	cfg := DefaultConfig[int](cmp.Ordered[int]())
	cfg.AllowDuplicates = true
	cfg.LeafMax, cfg.LeafMin = 4, 2
	tr := New[int, int](cfg)
	for _, v := range []int{1, 2, 2, 2, 3, 5} {
		tr.Insert(v, v)
	}

	lb := tr.LowerBound(2)
	require.True(t, lb.Valid())
	assert.Equal(t, 2, lb.Key())

	ub := tr.UpperBound(2)
	require.True(t, ub.Valid())
	assert.Equal(t, 3, ub.Key())

	from, to := tr.EqualRange(2)
	n := 0
	for c := from; c.Valid() && *c != *to; c.Next() {
		n++
	}
	assert.Equal(t, 3, n)

	assert.False(t, tr.UpperBound(5).Valid())
	assert.False(t, tr.LowerBound(100).Valid())
}

func TestEraseOneAndErase(t *testing.T) {
	cfg := DefaultConfig[int](cmp.Ordered[int]())
	cfg.AllowDuplicates = true
	tr := New[int, int](cfg)
	for _, v := range []int{1, 2, 2, 3} {
		tr.Insert(v, v)
	}

	assert.True(t, tr.EraseOne(2))
	assert.Equal(t, 1, tr.Count(2))

	n := tr.Erase(2)
	assert.Equal(t, 1, n)
	assert.Equal(t, 0, tr.Count(2))
	assert.False(t, tr.EraseOne(2))
}

func TestBulkLoadFindAndIterate(t *testing.T) {
	var pairs []Pair[int, int]
	for i := 0; i < 200; i++ {
		pairs = append(pairs, Pair[int, int]{Key: i, Value: i * 2})
	}
	bulk := New[int, int](DefaultConfig[int](cmp.Ordered[int]()))
	bulk.BulkLoad(pairs)
	bulk.Verify()

	assert.Equal(t, 200, bulk.Len())
	for i := 0; i < 200; i++ {
		v, ok := bulk.Find(i)
		require.True(t, ok)
		assert.Equal(t, i*2, v)
	}

	var got []int
	for c := bulk.First(); c.Valid(); c.Next() {
		got = append(got, c.Key())
	}
	require.Len(t, got, 200)
	assert.True(t, sort.IntsAreSorted(got))
}

// TestAgainstReferenceMultiset mirrors the spec's reference scenario: a
// seeded sequence of random inserts and erases checked against a plain
// sorted-slice model.
func TestAgainstReferenceMultiset(t *testing.T) {
	cfg := DefaultConfig[int](cmp.Ordered[int]())
	cfg.AllowDuplicates = true
	cfg.LeafMax, cfg.LeafMin = 8, 4
	cfg.InnerMax, cfg.InnerMin = 8, 4
	tr := New[int, int](cfg)

	rnd := rand.New(rand.NewSource(34234235))
	var model []int

	for i := 0; i < 3200; i++ {
		if len(model) == 0 || rnd.Intn(3) != 0 {
			key := rnd.Intn(500)
			tr.Insert(key, key)
			model = append(model, key)
			sort.Ints(model)
		} else {
			idx := rnd.Intn(len(model))
			key := model[idx]
			tr.EraseOne(key)
			model = append(model[:idx], model[idx+1:]...)
		}
	}

	tr.Verify()
	require.Equal(t, len(model), tr.Len())

	var got []int
	for c := tr.First(); c.Valid(); c.Next() {
		got = append(got, c.Key())
	}
	assert.Equal(t, model, got)
}

func TestClear(t *testing.T) {
	tr := newIntTree()
	tr.Insert(1, "a")
	tr.Insert(2, "b")
	tr.Clear()
	assert.Equal(t, 0, tr.Len())
	assert.True(t, tr.Empty())
	assert.False(t, tr.First().Valid())
}
