// Package btree implements a cache-conscious in-memory B+ tree (spec
// component C5): an ordered set/multiset/map/multimap over block-sized
// nodes, with all leaves threaded into a doubly linked chain for fast
// ordered iteration.
//
// The teacher's pkg/btree stored nodes as SQLite-style byte pages
// addressed by on-disk page number, with cells packed and varint-
// encoded inside each page. This package keeps the same "block of
// sorted keys, no parent back-pointer, leaf chain for iteration" shape
// but drops the byte layout entirely: nodes are Go structs holding
// []K/[]V slices directly, addressed by arena.Handle instead of a page
// number, since there is no disk to serialize to (spec §9: "arena-
// allocated nodes addressed by index; prev/next are indices").
package btree

import (
	"github.com/tlx/tlx-sub000/internal/arena"
	"github.com/tlx/tlx-sub000/internal/die"
	"github.com/tlx/tlx-sub000/pkg/cmp"
)

// Config controls node fanout and duplicate handling. Zero value is not
// usable directly; use DefaultConfig and override fields as needed.
type Config[K any] struct {
	Less cmp.Comparator[K]

	// LeafMax/InnerMax bound how many keys a leaf or inner node holds
	// before it splits; LeafMin/InnerMin bound how few it holds before
	// it merges or borrows from a sibling. Both follow the classic
	// B+ tree constraint Min <= Max/2 < Max.
	LeafMax, LeafMin   int
	InnerMax, InnerMin int

	// AllowDuplicates makes the tree a multiset/multimap: Insert always
	// succeeds and equal keys are stored in insertion order among
	// themselves. When false, Insert on an existing key is a no-op that
	// reports false.
	AllowDuplicates bool
}

// DefaultConfig returns a Config with tlx-typical fanout (16-way nodes)
// and no duplicates allowed.
func DefaultConfig[K any](less cmp.Comparator[K]) Config[K] {
	return Config[K]{
		Less:     less,
		LeafMax:  16, LeafMin: 8,
		InnerMax: 16, InnerMin: 8,
	}
}

type node[K, V any] struct {
	leaf bool

	keys   []K
	values []V // leaf only, parallel to keys

	children []arena.Handle // inner only, len == len(keys)+1

	prev, next arena.Handle // leaf only: doubly linked chain
}

// Tree is an ordered B+ tree over keys K with associated values V. Use
// struct{} as V to build a pure ordered set.
type Tree[K, V any] struct {
	cfg   Config[K]
	nodes *arena.Arena[node[K, V]]
	root  arena.Handle
	first arena.Handle // leftmost leaf
	last  arena.Handle // rightmost leaf
	size  int
}

// New creates an empty tree.
func New[K, V any](cfg Config[K]) *Tree[K, V] {
	die.Unless(cfg.Less != nil, "btree: Config.Less must not be nil")
	die.Unless(cfg.LeafMax >= 2 && cfg.LeafMin >= 1 && cfg.LeafMin <= cfg.LeafMax/2, "btree: invalid leaf bounds [%d,%d]", cfg.LeafMin, cfg.LeafMax)
	die.Unless(cfg.InnerMax >= 2 && cfg.InnerMin >= 1 && cfg.InnerMin <= cfg.InnerMax/2, "btree: invalid inner bounds [%d,%d]", cfg.InnerMin, cfg.InnerMax)

	t := &Tree[K, V]{cfg: cfg, nodes: arena.New[node[K, V]]()}
	root := t.nodes.Alloc(node[K, V]{leaf: true})
	t.root = root
	t.first = root
	t.last = root
	return t
}

// Len returns the number of stored entries, counting duplicates.
func (t *Tree[K, V]) Len() int { return t.size }

// Empty reports whether the tree holds no entries.
func (t *Tree[K, V]) Empty() bool { return t.size == 0 }

// Clear discards every entry, leaving the tree empty.
func (t *Tree[K, V]) Clear() {
	t.nodes.Reset()
	root := t.nodes.Alloc(node[K, V]{leaf: true})
	t.root = root
	t.first = root
	t.last = root
	t.size = 0
}

func (t *Tree[K, V]) less(a, b K) bool { return t.cfg.Less(a, b) }

// lowerBoundIn returns the first index i in keys with !less(keys[i], key),
// i.e. the insertion point that keeps keys sorted and places key before
// any existing duplicates.
func (t *Tree[K, V]) lowerBoundIn(keys []K, key K) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.less(keys[mid], key) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// upperBoundIn returns the first index i with less(key, n.keys[i]), i.e.
// one past the last existing duplicate of key.
func (t *Tree[K, V]) upperBoundIn(keys []K, key K) int {
	lo, hi := 0, len(keys)
	for lo < hi {
		mid := (lo + hi) / 2
		if t.less(key, keys[mid]) {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// Exists reports whether key is present.
func (t *Tree[K, V]) Exists(key K) bool {
	leaf, idx := t.findLeaf(key)
	n := t.nodes.Get(leaf)
	return idx < len(n.keys) && cmp.Equal(t.cfg.Less, n.keys[idx], key)
}

// Find returns the first value stored under key, if any.
func (t *Tree[K, V]) Find(key K) (V, bool) {
	c := t.LowerBound(key)
	if c.Valid() && cmp.Equal(t.cfg.Less, c.Key(), key) {
		return c.Value(), true
	}
	var zero V
	return zero, false
}

// Count returns the number of entries equal to key.
func (t *Tree[K, V]) Count(key K) int {
	c := 0
	cur := t.LowerBound(key)
	for cur.Valid() && cmp.Equal(t.cfg.Less, cur.Key(), key) {
		c++
		cur.Next()
	}
	return c
}

// findLeaf descends from the root to the leaf that would contain key,
// returning it along with the lower-bound index of key within it.
func (t *Tree[K, V]) findLeaf(key K) (arena.Handle, int) {
	h := t.root
	for {
		n := t.nodes.Get(h)
		if n.leaf {
			return h, t.lowerBoundIn(n.keys, key)
		}
		idx := t.upperBoundIn(n.keys, key)
		h = n.children[idx]
	}
}

// Insert adds key/value. If AllowDuplicates is false and key already
// exists, it reports false and leaves the tree unchanged.
func (t *Tree[K, V]) Insert(key K, value V) bool {
	if !t.cfg.AllowDuplicates && t.Exists(key) {
		return false
	}
	split := t.insert(t.root, key, value)
	if split != nil {
		t.root = t.nodes.Alloc(node[K, V]{
			keys:     []K{split.key},
			children: []arena.Handle{t.root, split.right},
		})
	}
	t.size++
	return true
}

// splitResult carries the separator key and new right sibling produced
// when a node overflows during insertion.
type splitResult[K any] struct {
	key   K
	right arena.Handle
}

func (t *Tree[K, V]) insert(h arena.Handle, key K, value V) *splitResult[K] {
	n := t.nodes.Get(h)
	if n.leaf {
		idx := t.upperBoundIn(n.keys, key)
		if !t.cfg.AllowDuplicates {
			idx = t.lowerBoundIn(n.keys, key)
		}
		n.keys = insertAt(n.keys, idx, key)
		n.values = insertAt(n.values, idx, value)
		t.nodes.Set(h, n)
		if len(n.keys) <= t.cfg.LeafMax {
			return nil
		}
		return t.splitLeaf(h)
	}

	idx := t.upperBoundIn(n.keys, key)
	child := n.children[idx]
	split := t.insert(child, key, value)
	if split == nil {
		return nil
	}
	n = t.nodes.Get(h)
	n.keys = insertAt(n.keys, idx, split.key)
	n.children = insertAt(n.children, idx+1, split.right)
	t.nodes.Set(h, n)
	if len(n.keys) <= t.cfg.InnerMax {
		return nil
	}
	return t.splitInner(h)
}

func (t *Tree[K, V]) splitLeaf(h arena.Handle) *splitResult[K] {
	n := t.nodes.Get(h)
	mid := len(n.keys) / 2

	right := node[K, V]{
		leaf:   true,
		keys:   append([]K(nil), n.keys[mid:]...),
		values: append([]V(nil), n.values[mid:]...),
		next:   n.next,
	}
	n.keys = n.keys[:mid]
	n.values = n.values[:mid]

	rh := t.nodes.Alloc(right)
	n.next = rh
	t.nodes.Set(h, n)

	rightNode := t.nodes.Get(rh)
	rightNode.prev = h
	if rightNode.next != arena.Nil {
		next := t.nodes.Get(rightNode.next)
		next.prev = rh
		t.nodes.Set(rightNode.next, next)
	} else {
		t.last = rh
	}
	t.nodes.Set(rh, rightNode)

	return &splitResult[K]{key: rightNode.keys[0], right: rh}
}

func (t *Tree[K, V]) splitInner(h arena.Handle) *splitResult[K] {
	n := t.nodes.Get(h)
	mid := len(n.keys) / 2
	upKey := n.keys[mid]

	right := node[K, V]{
		keys:     append([]K(nil), n.keys[mid+1:]...),
		children: append([]arena.Handle(nil), n.children[mid+1:]...),
	}
	n.keys = n.keys[:mid]
	n.children = n.children[:mid+1]

	rh := t.nodes.Alloc(right)
	t.nodes.Set(h, n)

	return &splitResult[K]{key: upKey, right: rh}
}

func insertAt[T any](s []T, idx int, v T) []T {
	var zero T
	s = append(s, zero)
	copy(s[idx+1:], s[idx:])
	s[idx] = v
	return s
}

func removeAt[T any](s []T, idx int) []T {
	copy(s[idx:], s[idx+1:])
	return s[:len(s)-1]
}

// EraseOne removes a single entry equal to key, if present, and reports
// whether anything was removed. Underflow is repaired from the leaf
// upward: a node below its minimum fill first tries to shift an entry
// from an immediate sibling with surplus, then falls back to merging
// with a sibling, collapsing the root if that leaves it with a single
// child.
func (t *Tree[K, V]) EraseOne(key K) bool {
	removed, _ := t.eraseOne(t.root, key)
	if !removed {
		return false
	}
	t.size--

	root := t.nodes.Get(t.root)
	if !root.leaf && len(root.children) == 1 {
		old := t.root
		t.root = root.children[0]
		t.nodes.Free(old)
	}
	return true
}

// eraseOne removes one entry equal to key (the first one in the leaf that
// the upper-bound descent reaches) from the subtree rooted at h,
// repairing any underflow in h's children before returning.
// underflow reports whether h itself is now below its own minimum fill,
// for the caller (h's parent) to repair in turn.
func (t *Tree[K, V]) eraseOne(h arena.Handle, key K) (removed, underflow bool) {
	n := t.nodes.Get(h)
	if n.leaf {
		idx := t.lowerBoundIn(n.keys, key)
		if idx >= len(n.keys) || !cmp.Equal(t.cfg.Less, n.keys[idx], key) {
			return false, false
		}
		n.keys = removeAt(n.keys, idx)
		n.values = removeAt(n.values, idx)
		t.nodes.Set(h, n)
		return true, len(n.keys) < t.cfg.LeafMin
	}

	idx := t.upperBoundIn(n.keys, key)
	removed, childUnderflow := t.eraseOne(n.children[idx], key)
	if !removed {
		return false, false
	}
	// Keep the separator in front of the child equal to its minimum, which
	// the erase may have removed; the repair copies that separator down.
	refresh := func() {
		n := t.nodes.Get(h)
		if idx == 0 || idx >= len(n.children) {
			return
		}
		if c := t.nodes.Get(n.children[idx]); !c.leaf || len(c.keys) > 0 {
			n.keys[idx-1] = t.subtreeMin(n.children[idx])
			t.nodes.Set(h, n)
		}
	}
	refresh()
	if childUnderflow {
		t.repairUnderflow(h, idx)
		refresh()
	}
	n = t.nodes.Get(h)
	return true, len(n.keys) < t.cfg.InnerMin
}

// repairUnderflow restores the minimum fill of n.children[idx] (held by
// node h), which has just dropped below its minimum, by borrowing from
// whichever immediate sibling has surplus, or else merging with one.
func (t *Tree[K, V]) repairUnderflow(h arena.Handle, idx int) {
	n := t.nodes.Get(h)
	child := t.nodes.Get(n.children[idx])
	min := t.cfg.InnerMin
	if child.leaf {
		min = t.cfg.LeafMin
	}

	if idx > 0 {
		left := t.nodes.Get(n.children[idx-1])
		if len(left.keys) > min {
			t.shiftFromLeftSibling(h, idx)
			return
		}
	}
	if idx+1 < len(n.children) {
		right := t.nodes.Get(n.children[idx+1])
		if len(right.keys) > min {
			t.shiftFromRightSibling(h, idx)
			return
		}
	}
	if idx > 0 {
		t.mergeSiblings(h, idx-1)
	} else {
		t.mergeSiblings(h, idx)
	}
}

// shiftFromLeftSibling moves the last entry of n.children[idx-1] to the
// front of n.children[idx], adjusting the separator at n.keys[idx-1].
func (t *Tree[K, V]) shiftFromLeftSibling(h arena.Handle, idx int) {
	n := t.nodes.Get(h)
	leftH, childH := n.children[idx-1], n.children[idx]
	left := t.nodes.Get(leftH)
	child := t.nodes.Get(childH)

	if child.leaf {
		key := left.keys[len(left.keys)-1]
		value := left.values[len(left.values)-1]
		left.keys = left.keys[:len(left.keys)-1]
		left.values = left.values[:len(left.values)-1]

		child.keys = insertAt(child.keys, 0, key)
		child.values = insertAt(child.values, 0, value)
		n.keys[idx-1] = child.keys[0]
	} else {
		lastChild := left.children[len(left.children)-1]
		lastKey := left.keys[len(left.keys)-1]
		left.keys = left.keys[:len(left.keys)-1]
		left.children = left.children[:len(left.children)-1]

		child.keys = insertAt(child.keys, 0, n.keys[idx-1])
		child.children = insertAt(child.children, 0, lastChild)
		n.keys[idx-1] = lastKey
	}

	t.nodes.Set(leftH, left)
	t.nodes.Set(childH, child)
	t.nodes.Set(h, n)
}

// shiftFromRightSibling moves the first entry of n.children[idx+1] to
// the end of n.children[idx], adjusting the separator at n.keys[idx].
func (t *Tree[K, V]) shiftFromRightSibling(h arena.Handle, idx int) {
	n := t.nodes.Get(h)
	childH, rightH := n.children[idx], n.children[idx+1]
	child := t.nodes.Get(childH)
	right := t.nodes.Get(rightH)

	if child.leaf {
		key := right.keys[0]
		value := right.values[0]
		right.keys = removeAt(right.keys, 0)
		right.values = removeAt(right.values, 0)

		child.keys = append(child.keys, key)
		child.values = append(child.values, value)
		n.keys[idx] = right.keys[0]
	} else {
		firstChild := right.children[0]
		firstKey := right.keys[0]
		right.keys = removeAt(right.keys, 0)
		right.children = removeAt(right.children, 0)

		child.keys = append(child.keys, n.keys[idx])
		child.children = append(child.children, firstChild)
		n.keys[idx] = firstKey
	}

	t.nodes.Set(childH, child)
	t.nodes.Set(rightH, right)
	t.nodes.Set(h, n)
}

// mergeSiblings merges n.children[sepIdx+1] into n.children[sepIdx],
// folding down the separator at n.keys[sepIdx] for inner children, and
// removes the now-absorbed child and separator from h itself.
func (t *Tree[K, V]) mergeSiblings(h arena.Handle, sepIdx int) {
	n := t.nodes.Get(h)
	leftH, rightH := n.children[sepIdx], n.children[sepIdx+1]
	left := t.nodes.Get(leftH)
	right := t.nodes.Get(rightH)

	if left.leaf {
		left.keys = append(left.keys, right.keys...)
		left.values = append(left.values, right.values...)
		left.next = right.next
		if right.next != arena.Nil {
			next := t.nodes.Get(right.next)
			next.prev = leftH
			t.nodes.Set(right.next, next)
		} else {
			t.last = leftH
		}
	} else {
		left.keys = append(left.keys, n.keys[sepIdx])
		left.keys = append(left.keys, right.keys...)
		left.children = append(left.children, right.children...)
	}
	t.nodes.Set(leftH, left)
	t.nodes.Free(rightH)

	n.keys = removeAt(n.keys, sepIdx)
	n.children = removeAt(n.children, sepIdx+1)
	t.nodes.Set(h, n)
}

// Erase removes every entry equal to key and reports how many were
// removed.
func (t *Tree[K, V]) Erase(key K) int {
	n := 0
	for t.EraseOne(key) {
		n++
		if !t.cfg.AllowDuplicates {
			break
		}
	}
	return n
}

// Pair is one bulk-load input entry.
type Pair[K, V any] struct {
	Key   K
	Value V
}

// BulkLoad replaces the tree's contents with pairs, which the caller
// must supply already sorted by key (ascending, honoring AllowDuplicates
// for any repeats). This builds the leaf chain in one linear pass and
// the inner levels bottom-up, far cheaper than len(pairs) individual
// Insert calls.
func (t *Tree[K, V]) BulkLoad(pairs []Pair[K, V]) {
	t.Clear()
	if len(pairs) == 0 {
		return
	}

	fill := t.cfg.LeafMax
	if fill > t.cfg.LeafMin*2 {
		fill = t.cfg.LeafMin * 2
	}
	if fill < 1 {
		fill = 1
	}

	var leaves []arena.Handle
	var seps []K
	var prev arena.Handle
	for i := 0; i < len(pairs); i += fill {
		end := i + fill
		if end > len(pairs) {
			end = len(pairs)
		}
		keys := make([]K, end-i)
		vals := make([]V, end-i)
		for j := i; j < end; j++ {
			keys[j-i] = pairs[j].Key
			vals[j-i] = pairs[j].Value
		}
		h := t.nodes.Alloc(node[K, V]{leaf: true, keys: keys, values: vals, prev: prev})
		if prev != arena.Nil {
			pn := t.nodes.Get(prev)
			pn.next = h
			t.nodes.Set(prev, pn)
		}
		prev = h
		leaves = append(leaves, h)
		if i > 0 {
			seps = append(seps, keys[0])
		}
	}

	t.first = leaves[0]
	t.last = leaves[len(leaves)-1]
	t.size = len(pairs)
	t.root = t.buildInnerLevel(leaves, seps)
}

// buildInnerLevel groups children (with the separator key preceding
// each child after the first) into inner nodes bounded by InnerMax,
// recursing until a single root handle remains.
func (t *Tree[K, V]) buildInnerLevel(children []arena.Handle, seps []K) arena.Handle {
	if len(children) == 1 {
		return children[0]
	}

	fanout := t.cfg.InnerMax
	if fanout > t.cfg.InnerMin*2 {
		fanout = t.cfg.InnerMin * 2
	}
	if fanout < 2 {
		fanout = 2
	}

	var nextChildren []arena.Handle
	var nextSeps []K
	i := 0
	for i < len(children) {
		end := i + fanout
		if end > len(children) {
			end = len(children)
		}
		nodeKeys := append([]K(nil), seps[i:end-1]...)
		nodeChildren := append([]arena.Handle(nil), children[i:end]...)
		h := t.nodes.Alloc(node[K, V]{keys: nodeKeys, children: nodeChildren})
		nextChildren = append(nextChildren, h)
		if i+fanout < len(children) {
			nextSeps = append(nextSeps, seps[end-1])
		}
		i = end
	}
	return t.buildInnerLevel(nextChildren, nextSeps)
}

// subtreeMin returns the minimum key stored anywhere in the subtree
// rooted at h.
func (t *Tree[K, V]) subtreeMin(h arena.Handle) K {
	n := t.nodes.Get(h)
	if n.leaf {
		die.Unless(len(n.keys) > 0, "btree: empty leaf has no minimum key")
		return n.keys[0]
	}
	return t.subtreeMin(n.children[0])
}

// Verify walks the whole tree checking key order within nodes, fanout
// bounds, separator correctness, and leaf-chain consistency, panicking
// via internal/die on the first violation found. It is a debugging aid,
// not called on any hot path.
func (t *Tree[K, V]) Verify() {
	t.verifyNode(t.root, true)

	count := 0
	h := t.first
	var prevHandle arena.Handle
	for h != arena.Nil {
		n := t.nodes.Get(h)
		die.Unless(n.prev == prevHandle, "btree: leaf chain prev pointer broken")
		count += len(n.keys)
		prevHandle = h
		h = n.next
	}
	die.Unless(count == t.size, "btree: leaf chain holds %d entries, want %d", count, t.size)
}

func (t *Tree[K, V]) verifyNode(h arena.Handle, isRoot bool) {
	n := t.nodes.Get(h)
	for i := 1; i < len(n.keys); i++ {
		die.Unless(!t.less(n.keys[i], n.keys[i-1]), "btree: keys out of order within node")
	}
	if n.leaf {
		if !isRoot {
			die.Unless(len(n.keys) >= t.cfg.LeafMin, "btree: leaf underflow")
		}
		die.Unless(len(n.keys) <= t.cfg.LeafMax, "btree: leaf overflow")
		return
	}
	if !isRoot {
		die.Unless(len(n.keys) >= t.cfg.InnerMin, "btree: inner underflow")
	}
	die.Unless(len(n.keys) <= t.cfg.InnerMax, "btree: inner overflow")
	die.Unless(len(n.children) == len(n.keys)+1, "btree: inner child/key count mismatch")
	for i, k := range n.keys {
		die.Unless(cmp.Equal(t.cfg.Less, k, t.subtreeMin(n.children[i+1])), "btree: separator does not equal right-subtree minimum")
	}
	for _, c := range n.children {
		t.verifyNode(c, false)
	}
}
