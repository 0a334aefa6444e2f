package btree

import (
	"errors"
	"fmt"

	"github.com/joycemuthiani/The-Pesapal-Junior-Dev-Challenge-26/internal/record"
)

var (
	ErrDuplicateKey = errors.New("btree: duplicate key in unique tree")
	ErrKeyNotFound  = errors.New("btree: key not found")
)

// DefaultDegree is the minimum degree used when the caller passes t < 2.
const DefaultDegree = 3

// entry is one key with the row ids stored under it. Unique trees hold
// exactly one id per key; secondary trees hold a set.
type entry struct {
	key  []any
	refs []int64
}

type node struct {
	leaf     bool
	entries  []entry
	children []*node
}

// Tree is a classic B-tree with minimum degree t: every non-root node holds
// between t-1 and 2t-1 keys, internal nodes with k keys have k+1 children,
// and all leaves sit at the same depth. Keys are composite values ordered
// by record.CompareKeys.
type Tree struct {
	t      int
	unique bool
	root   *node
	size   int // distinct keys
}

func NewTree(t int, unique bool) *Tree {
	if t < 2 {
		t = DefaultDegree
	}
	return &Tree{
		t:      t,
		unique: unique,
		root:   &node{leaf: true},
	}
}

// Len returns the number of distinct keys.
func (tr *Tree) Len() int { return tr.size }

// Degree returns the minimum degree t.
func (tr *Tree) Degree() int { return tr.t }

func (n *node) full(t int) bool { return len(n.entries) == 2*t-1 }

// find returns the position of the first entry >= key and whether it is an
// exact match.
func (n *node) find(key []any) (int, bool) {
	lo, hi := 0, len(n.entries)
	for lo < hi {
		mid := (lo + hi) / 2
		if record.CompareKeys(n.entries[mid].key, key) < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(n.entries) && record.CompareKeys(n.entries[lo].key, key) == 0 {
		return lo, true
	}
	return lo, false
}

// Search returns the row ids stored under key, or nil if absent.
func (tr *Tree) Search(key []any) []int64 {
	n := tr.root
	for {
		i, ok := n.find(key)
		if ok {
			out := make([]int64, len(n.entries[i].refs))
			copy(out, n.entries[i].refs)
			return out
		}
		if n.leaf {
			return nil
		}
		n = n.children[i]
	}
}

// Insert adds (key, ref). For an existing key a unique tree fails with
// ErrDuplicateKey; a secondary tree adds ref to the key's set. Constraint
// checks happen before the tree is touched, so ErrDuplicateKey here means a
// caller bug rather than a user error.
func (tr *Tree) Insert(key []any, ref int64) error {
	// Existing-key path never restructures the tree.
	n := tr.root
	for {
		i, ok := n.find(key)
		if ok {
			if tr.unique {
				return ErrDuplicateKey
			}
			n.entries[i].refs = append(n.entries[i].refs, ref)
			return nil
		}
		if n.leaf {
			break
		}
		n = n.children[i]
	}

	if tr.root.full(tr.t) {
		newRoot := &node{children: []*node{tr.root}}
		newRoot.splitChild(0, tr.t)
		tr.root = newRoot
	}
	tr.insertNonFull(tr.root, key, ref)
	tr.size++
	return nil
}

func (tr *Tree) insertNonFull(n *node, key []any, ref int64) {
	for {
		i, _ := n.find(key)
		if n.leaf {
			n.entries = append(n.entries, entry{})
			copy(n.entries[i+1:], n.entries[i:])
			n.entries[i] = entry{key: key, refs: []int64{ref}}
			return
		}
		if n.children[i].full(tr.t) {
			n.splitChild(i, tr.t)
			if record.CompareKeys(key, n.entries[i].key) > 0 {
				i++
			}
		}
		n = n.children[i]
	}
}

// splitChild splits the full child at index i, promoting its median entry.
func (n *node) splitChild(i, t int) {
	child := n.children[i]
	mid := child.entries[t-1]

	right := &node{leaf: child.leaf}
	right.entries = append(right.entries, child.entries[t:]...)
	child.entries = child.entries[:t-1]
	if !child.leaf {
		right.children = append(right.children, child.children[t:]...)
		child.children = child.children[:t]
	}

	n.entries = append(n.entries, entry{})
	copy(n.entries[i+1:], n.entries[i:])
	n.entries[i] = mid

	n.children = append(n.children, nil)
	copy(n.children[i+2:], n.children[i+1:])
	n.children[i+1] = right
}

// Delete removes ref from key. The key disappears from the tree only when
// its last ref is removed; the structural delete then rebalances with
// borrow-from-sibling or merge, collapsing the root when it empties.
func (tr *Tree) Delete(key []any, ref int64) error {
	n := tr.root
	for {
		i, ok := n.find(key)
		if ok {
			e := &n.entries[i]
			pos := -1
			for j, r := range e.refs {
				if r == ref {
					pos = j
					break
				}
			}
			if pos < 0 {
				return ErrKeyNotFound
			}
			if len(e.refs) > 1 {
				e.refs = append(e.refs[:pos], e.refs[pos+1:]...)
				return nil
			}
			break
		}
		if n.leaf {
			return ErrKeyNotFound
		}
		n = n.children[i]
	}

	tr.deleteKey(tr.root, key)
	tr.size--
	if len(tr.root.entries) == 0 && !tr.root.leaf {
		tr.root = tr.root.children[0]
	}
	return nil
}

// deleteKey removes key from the subtree rooted at n. n is guaranteed to
// hold at least t keys on entry (or be the root).
func (tr *Tree) deleteKey(n *node, key []any) {
	t := tr.t
	i, ok := n.find(key)

	if ok && n.leaf {
		n.entries = append(n.entries[:i], n.entries[i+1:]...)
		return
	}

	if ok {
		left, right := n.children[i], n.children[i+1]
		switch {
		case len(left.entries) >= t:
			pred := maxEntry(left)
			n.entries[i] = pred
			tr.deleteKey(left, pred.key)
		case len(right.entries) >= t:
			succ := minEntry(right)
			n.entries[i] = succ
			tr.deleteKey(right, succ.key)
		default:
			n.mergeChildren(i)
			tr.deleteKey(left, key)
		}
		return
	}

	if n.leaf {
		return // not present; Delete already verified existence
	}

	// Descend, topping the child up to t keys first.
	child := n.children[i]
	if len(child.entries) < t {
		i = n.fixChild(i, t)
		child = n.children[i]
	}
	tr.deleteKey(child, key)
}

// fixChild guarantees children[i] has at least t entries by borrowing from a
// sibling or merging. Returns the (possibly shifted) child index to descend.
func (n *node) fixChild(i, t int) int {
	if i > 0 && len(n.children[i-1].entries) >= t {
		n.borrowFromLeft(i)
		return i
	}
	if i < len(n.children)-1 && len(n.children[i+1].entries) >= t {
		n.borrowFromRight(i)
		return i
	}
	if i > 0 {
		n.mergeChildren(i - 1)
		return i - 1
	}
	n.mergeChildren(i)
	return i
}

func (n *node) borrowFromLeft(i int) {
	child, left := n.children[i], n.children[i-1]

	child.entries = append(child.entries, entry{})
	copy(child.entries[1:], child.entries)
	child.entries[0] = n.entries[i-1]

	n.entries[i-1] = left.entries[len(left.entries)-1]
	left.entries = left.entries[:len(left.entries)-1]

	if !child.leaf {
		child.children = append(child.children, nil)
		copy(child.children[1:], child.children)
		child.children[0] = left.children[len(left.children)-1]
		left.children = left.children[:len(left.children)-1]
	}
}

func (n *node) borrowFromRight(i int) {
	child, right := n.children[i], n.children[i+1]

	child.entries = append(child.entries, n.entries[i])
	n.entries[i] = right.entries[0]
	right.entries = append(right.entries[:0], right.entries[1:]...)

	if !child.leaf {
		child.children = append(child.children, right.children[0])
		right.children = append(right.children[:0], right.children[1:]...)
	}
}

// mergeChildren folds entries[i] and children[i+1] into children[i].
func (n *node) mergeChildren(i int) {
	left, right := n.children[i], n.children[i+1]
	left.entries = append(left.entries, n.entries[i])
	left.entries = append(left.entries, right.entries...)
	left.children = append(left.children, right.children...)

	n.entries = append(n.entries[:i], n.entries[i+1:]...)
	n.children = append(n.children[:i+1], n.children[i+2:]...)
}

func maxEntry(n *node) entry {
	for !n.leaf {
		n = n.children[len(n.children)-1]
	}
	return n.entries[len(n.entries)-1]
}

func minEntry(n *node) entry {
	for !n.leaf {
		n = n.children[0]
	}
	return n.entries[0]
}

// RangeSearch returns the row ids for all keys in [lo, hi], ascending.
func (tr *Tree) RangeSearch(lo, hi []any) []int64 {
	var out []int64
	tr.root.rangeWalk(lo, hi, &out)
	return out
}

func (n *node) rangeWalk(lo, hi []any, out *[]int64) {
	for i, e := range n.entries {
		if !n.leaf && record.CompareKeys(lo, e.key) < 0 {
			n.children[i].rangeWalk(lo, hi, out)
		}
		if record.CompareKeys(e.key, lo) >= 0 && record.CompareKeys(e.key, hi) <= 0 {
			*out = append(*out, e.refs...)
		}
		if record.CompareKeys(e.key, hi) > 0 {
			return
		}
	}
	if !n.leaf {
		n.children[len(n.children)-1].rangeWalk(lo, hi, out)
	}
}

// Ascend walks all entries in key order until fn returns false.
func (tr *Tree) Ascend(fn func(key []any, refs []int64) bool) {
	tr.root.ascend(fn)
}

func (n *node) ascend(fn func(key []any, refs []int64) bool) bool {
	for i, e := range n.entries {
		if !n.leaf && !n.children[i].ascend(fn) {
			return false
		}
		if !fn(e.key, e.refs) {
			return false
		}
	}
	if !n.leaf {
		return n.children[len(n.children)-1].ascend(fn)
	}
	return true
}

// Validate checks the structural invariants: key-count bounds, equal leaf
// depth, child counts, and globally ascending key order. Used by tests.
func (tr *Tree) Validate() error {
	leafDepth := -1
	var prev *[]any

	var walk func(n *node, depth int, isRoot bool) error
	walk = func(n *node, depth int, isRoot bool) error {
		if !isRoot && (len(n.entries) < tr.t-1 || len(n.entries) > 2*tr.t-1) {
			return fmt.Errorf("btree: node has %d keys, want [%d, %d]",
				len(n.entries), tr.t-1, 2*tr.t-1)
		}
		if !n.leaf && len(n.children) != len(n.entries)+1 {
			return fmt.Errorf("btree: node has %d keys but %d children",
				len(n.entries), len(n.children))
		}
		if n.leaf {
			if leafDepth == -1 {
				leafDepth = depth
			} else if depth != leafDepth {
				return fmt.Errorf("btree: leaf at depth %d, want %d", depth, leafDepth)
			}
		}
		for i := range n.entries {
			if !n.leaf {
				if err := walk(n.children[i], depth+1, false); err != nil {
					return err
				}
			}
			k := n.entries[i].key
			if prev != nil && record.CompareKeys(*prev, k) >= 0 {
				return fmt.Errorf("btree: keys not strictly ascending at %v", k)
			}
			prev = &n.entries[i].key
		}
		if !n.leaf {
			return walk(n.children[len(n.children)-1], depth+1, false)
		}
		return nil
	}

	return walk(tr.root, 0, true)
}
