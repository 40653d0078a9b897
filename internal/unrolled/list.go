// Package unrolled implements an unrolled, doubly linked list of fixed-size
// chunks with tombstone deletion. It is the storage backbone of the
// synteny engine's editable sequence: insertion and erasure run in time
// proportional to the affected region, and iterators outside an erased
// range keep pointing at the same logical element. An Insert that splits
// a chunk moves the live slots after the insertion point within that
// chunk to a new chunk; iterators to those slots no longer name them, and
// Insert reports the move through its notify callbacks.
//
// A slot's identity is the pair (chunk pointer, index within chunk). Two
// Iterators compare equal iff they name the same slot. This is what lets
// an external index (see package bifstore) cache anchors across edits
// without re-scanning the sequence.
package unrolled

import "unsafe"

// NodeSize is the number of slots per chunk. It trades off per-chunk
// memory amortization against the cost of the linear scan a chunk split
// performs during Insert.
const NodeSize = 64

// Elem is one slot: a character plus the position it occupied in the
// original input. Char == 0 marks a tombstone (or a not-yet-written slot
// in the tail chunk, which is indistinguishable from a tombstone and is
// correctly skipped by iteration either way).
type Elem struct {
	Char byte
	Orig uint32
}

func (e Elem) live() bool { return e.Char != 0 }

type chunk struct {
	data       [NodeSize]Elem
	count      int // number of live (non-tombstone) slots
	isEnd      bool
	prev, next *chunk
}

// List is one chromosome's editable character sequence.
type List struct {
	first, last *chunk
	size        int
}

// New builds a List from chars/origs, filled left to right with no
// tombstones, chunked into fixed-size nodes.
func New(chars []byte, origs []uint32) *List {
	l := &List{}
	if len(chars) == 0 {
		return l
	}
	for i := 0; i < len(chars); i++ {
		if i%NodeSize == 0 {
			c := &chunk{}
			l.appendChunk(c)
		}
		c := l.last
		pos := i % NodeSize
		c.data[pos] = Elem{Char: chars[i], Orig: origs[i]}
		c.count++
	}
	l.size = len(chars)
	return l
}

// Size returns the number of live elements.
func (l *List) Size() int { return l.size }

func (l *List) appendChunk(c *chunk) {
	if l.last != nil {
		l.last.isEnd = false
		l.last.next = c
		c.prev = l.last
	} else {
		l.first = c
	}
	l.last = c
	c.isEnd = true
}

// linkAfter inserts a fresh chunk nc immediately after c.
func (l *List) linkAfter(c, nc *chunk) {
	nc.prev = c
	nc.next = c.next
	if c.next != nil {
		c.next.prev = nc
	} else {
		l.last = nc
		c.isEnd = false
		nc.isEnd = true
	}
	c.next = nc
}

// linkBefore inserts a fresh chunk nc immediately before c.
func (l *List) linkBefore(c, nc *chunk) {
	nc.next = c
	nc.prev = c.prev
	if c.prev != nil {
		c.prev.next = nc
	} else {
		l.first = nc
	}
	c.prev = nc
}

func (l *List) removeChunk(c *chunk) {
	if c.prev != nil {
		c.prev.next = c.next
	} else {
		l.first = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	} else {
		l.last = c.prev
		if l.last != nil {
			l.last.isEnd = true
		}
	}
	c.prev, c.next = nil, nil
}

// Iterator is a stable reference to a slot: (chunk, index-within-chunk).
// The zero value does not name a valid slot; use List.Begin/End/RBegin/REnd.
//
// c == nil, idx == 0 denotes the forward end-of-list sentinel (one past
// the last live element). c == nil, idx == -1 denotes the sentinel before
// the first live element (used when iterating in the reverse direction).
type Iterator struct {
	list *List
	c    *chunk
	idx  int
}

// IsEnd reports whether it is the forward end-of-list sentinel.
func (it Iterator) IsEnd() bool { return it.c == nil && it.idx == 0 }

// IsREnd reports whether it is the before-first-element sentinel.
func (it Iterator) IsREnd() bool { return it.c == nil && it.idx == -1 }

// Valid reports whether it names a live slot.
func (it Iterator) Valid() bool { return it.c != nil }

// Equal reports whether it and other name the same slot.
func (it Iterator) Equal(other Iterator) bool {
	return it.c == other.c && it.idx == other.idx
}

// Read returns the character at it. It panics if !it.Valid().
func (it Iterator) Read() byte { return it.c.data[it.idx].Char }

// OriginalPos returns the original input coordinate recorded when the
// slot was created.
func (it Iterator) OriginalPos() uint32 { return it.c.data[it.idx].Orig }

// ElementID returns a stable, dense-ish identity for the slot, suitable as
// a hash key. It packs the chunk's address with the in-chunk index.
func (it Iterator) ElementID() uint64 {
	if it.c == nil {
		return 0
	}
	return uint64(uintptr(unsafe.Pointer(it.c)))<<6 | uint64(it.idx)
}

// Begin returns an iterator at the first live element, or End() if empty.
func (l *List) Begin() Iterator {
	if l.first == nil {
		return l.End()
	}
	it := Iterator{list: l, c: l.first, idx: -1}
	it.stepForward()
	return it
}

// End returns the forward end-of-list sentinel.
func (l *List) End() Iterator { return Iterator{list: l, idx: 0} }

// RBegin returns an iterator at the last live element, or REnd() if empty.
func (l *List) RBegin() Iterator {
	if l.last == nil {
		return l.REnd()
	}
	it := Iterator{list: l, c: l.last, idx: NodeSize}
	it.stepBackward()
	return it
}

// REnd returns the before-first-element sentinel.
func (l *List) REnd() Iterator { return Iterator{list: l, idx: -1} }

// Next advances it to the next live slot, skipping tombstones. It returns
// false if it becomes the end sentinel.
func (it *Iterator) Next() bool {
	if it.IsEnd() {
		return false
	}
	if it.IsREnd() {
		*it = it.list.Begin()
		return it.Valid()
	}
	return it.stepForward()
}

// Prev retreats it to the previous live slot, skipping tombstones. It
// returns false if it becomes the rend sentinel.
func (it *Iterator) Prev() bool {
	if it.IsREnd() {
		return false
	}
	if it.IsEnd() {
		*it = it.list.RBegin()
		return it.Valid()
	}
	return it.stepBackward()
}

func (it *Iterator) stepForward() bool {
	c, idx := it.c, it.idx
	for {
		idx++
		if idx == NodeSize {
			c = c.next
			idx = 0
			if c == nil {
				it.c, it.idx = nil, 0
				return false
			}
		}
		if c.data[idx].live() {
			it.c, it.idx = c, idx
			return true
		}
	}
}

func (it *Iterator) stepBackward() bool {
	c, idx := it.c, it.idx
	for {
		idx--
		if idx < 0 {
			c = c.prev
			idx = NodeSize - 1
			if c == nil {
				it.c, it.idx = nil, -1
				return false
			}
		}
		if c.data[idx].live() {
			it.c, it.idx = c, idx
			return true
		}
	}
}

// Range names a half-open span [Lo, Hi) of slots within one chunk. It is
// how Insert reports the live slots it displaced to a notify callback,
// without forcing the caller to materialize a slice of Iterators.
type Range struct {
	list   *List
	c      *chunk
	lo, hi int
}

// ForEach calls fn for every live slot in the range, in order.
func (r Range) ForEach(fn func(Iterator)) {
	if r.c == nil {
		return
	}
	for i := r.lo; i < r.hi; i++ {
		if r.c.data[i].live() {
			fn(Iterator{list: r.list, c: r.c, idx: i})
		}
	}
}

// NotifyFunc is called with the range of live slots about to move (or
// that just arrived) during Insert's chunk-splitting.
type NotifyFunc func(Range)

// Erase replaces every slot in [begin, end) with a tombstone, frees any
// chunk whose live count drops to zero, and returns end. Per the package
// invariant, end itself is never touched by this call (the range is
// half-open), so the returned iterator is always valid without
// recomputation.
func (l *List) Erase(begin, end Iterator) Iterator {
	cur := begin
	for !cur.Equal(end) {
		c, idx := cur.c, cur.idx
		nxt := cur
		nxt.Next()
		if c.data[idx].live() {
			c.data[idx] = Elem{}
			c.count--
			l.size--
			if c.count == 0 {
				l.removeChunk(c)
			}
		}
		cur = nxt
	}
	return end
}

// Insert writes chars/origs starting at target, which may be the end
// sentinel (append). If target names a tombstone, the first value
// overwrites it in place; if target is the first slot of its chunk, a
// fresh chunk is linked before it and nothing moves; otherwise Insert
// splits target's chunk, moving the live suffix of the chunk into a
// freshly linked chunk so the new values have room. before is called with the live slots about to move,
// immediately before they move; after is called with their new location
// immediately after. Insert returns an iterator at the first inserted
// value.
func (l *List) Insert(target Iterator, chars []byte, origs []uint32, before, after NotifyFunc) Iterator {
	if len(chars) == 0 {
		return target
	}

	var c *chunk
	idx := 0
	if target.IsEnd() {
		c = &chunk{}
		l.appendChunk(c)
	} else {
		c, idx = target.c, target.idx
	}

	var first Iterator
	haveFirst := false
	split := false

	for vi := 0; vi < len(chars); {
		if idx == NodeSize {
			if c.next == nil {
				nc := &chunk{}
				l.linkAfter(c, nc)
			}
			c = c.next
			idx = 0
		}

		if c.data[idx].live() {
			if idx == 0 {
				nc := &chunk{}
				l.linkBefore(c, nc)
				c = nc
			} else if !split {
				split = true
				if before != nil {
					before(Range{list: l, c: c, lo: idx, hi: NodeSize})
				}
				nc := &chunk{}
				l.linkAfter(c, nc)
				w := 0
				for r := idx; r < NodeSize; r++ {
					if c.data[r].live() {
						nc.data[w] = c.data[r]
						nc.count++
						w++
						c.data[r] = Elem{}
						c.count--
					}
				}
				if after != nil && w > 0 {
					after(Range{list: l, c: nc, lo: 0, hi: w})
				}
			}
			// idx is now a tombstone in c (either freshly freed by the
			// split above, or c is the brand-new empty chunk from the
			// idx==0 branch); fall through to write it.
		}

		c.data[idx] = Elem{Char: chars[vi], Orig: origs[vi]}
		c.count++
		l.size++
		if !haveFirst {
			first = Iterator{list: l, c: c, idx: idx}
			haveFirst = true
		}
		vi++
		idx++
	}
	return first
}
