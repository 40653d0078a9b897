// Package editableseq is component A of the synteny engine: a per-genome,
// strand-aware wrapper around package unrolled that tracks, for every
// chromosome, both the positive (forward) and negative (reverse
// complement) reading of its live characters, while preserving original
// input coordinates across edits.
package editableseq

import (
	"github.com/grailbio/bio-synteny/dnaseq"
	"github.com/grailbio/bio-synteny/internal/unrolled"
)

// EditableSeq holds one unrolled.List per chromosome.
type EditableSeq struct {
	chrs []*unrolled.List
}

// New builds an EditableSeq from input chromosome records. Each
// chromosome is seeded with the identity coordinate map (slot i holds
// original position i).
func New(chrs []dnaseq.Chromosome) *EditableSeq {
	es := &EditableSeq{chrs: make([]*unrolled.List, len(chrs))}
	for i, c := range chrs {
		orig := make([]uint32, len(c.Sequence))
		for j := range orig {
			orig[j] = uint32(j)
		}
		es.chrs[i] = unrolled.New(c.Sequence, orig)
	}
	return es
}

// ChrNumber returns the number of chromosomes.
func (es *EditableSeq) ChrNumber() int { return len(es.chrs) }

// Len returns the current (live) length of chromosome chr.
func (es *EditableSeq) Len(chr uint32) int { return es.chrs[chr].Size() }

// Underlying exposes the raw physical list for chr. It is used by the
// simplifier, which must rewrite storage directly rather than through the
// strand view, and by anything projecting positions back to input
// coordinates.
func (es *EditableSeq) Underlying(chr uint32) *unrolled.List { return es.chrs[chr] }

// StrandIterator reads a chromosome's live characters on one strand.
// Positive shares storage with the physical list directly; Negative reads
// the complement of each character walking the storage back to front.
type StrandIterator struct {
	it  unrolled.Iterator
	dir dnaseq.Direction
	chr uint32
}

// Begin returns an iterator at the first character of chr in direction
// dir (the 5' end of that strand).
func (es *EditableSeq) Begin(chr uint32, dir dnaseq.Direction) StrandIterator {
	l := es.chrs[chr]
	if dir == dnaseq.Positive {
		return StrandIterator{it: l.Begin(), dir: dir, chr: chr}
	}
	return StrandIterator{it: l.RBegin(), dir: dir, chr: chr}
}

// End returns the end-of-chromosome sentinel for direction dir.
func (es *EditableSeq) End(chr uint32, dir dnaseq.Direction) StrandIterator {
	l := es.chrs[chr]
	if dir == dnaseq.Positive {
		return StrandIterator{it: l.End(), dir: dir, chr: chr}
	}
	return StrandIterator{it: l.REnd(), dir: dir, chr: chr}
}

// Chr returns the chromosome this iterator walks.
func (s StrandIterator) Chr() uint32 { return s.chr }

// Direction returns the strand this iterator reads.
func (s StrandIterator) Direction() dnaseq.Direction { return s.dir }

// Valid reports whether s names a live character.
func (s StrandIterator) Valid() bool { return s.it.Valid() }

// Read returns the character at s, complemented if s reads the negative
// strand.
func (s StrandIterator) Read() byte {
	c := s.it.Read()
	if s.dir == dnaseq.Negative {
		return dnaseq.Complement(c)
	}
	return c
}

// OriginalPos returns the original input coordinate of the underlying
// slot (not strand-adjusted).
func (s StrandIterator) OriginalPos() uint32 { return s.it.OriginalPos() }

// ElementID returns the stable slot identity, independent of strand.
func (s StrandIterator) ElementID() uint64 { return s.it.ElementID() }

// Equal reports whether s and o name the same character on the same
// strand of the same chromosome.
func (s StrandIterator) Equal(o StrandIterator) bool {
	return s.chr == o.chr && s.dir == o.dir && s.it.Equal(o.it)
}

// Physical exposes the underlying physical iterator, for callers (the
// simplifier, the bifurcation store) that must reason about storage
// order rather than strand order.
func (s StrandIterator) Physical() unrolled.Iterator { return s.it }

// Next advances s by one character in its strand's reading direction. It
// returns false once s reaches the end of the chromosome on that strand.
func (s *StrandIterator) Next() bool {
	if s.dir == dnaseq.Positive {
		return s.it.Next()
	}
	return s.it.Prev()
}

// ReadKmer reads k characters starting at (and including) s without
// consuming s, returning false if fewer than k characters remain on this
// strand.
func ReadKmer(s StrandIterator, k int) ([]byte, bool) {
	buf := make([]byte, k)
	cur := s
	for i := 0; i < k; i++ {
		if !cur.Valid() {
			return nil, false
		}
		buf[i] = cur.Read()
		if i < k-1 {
			if !cur.Next() {
				return nil, false
			}
		}
	}
	return buf, true
}

// WrapPhysical builds a StrandIterator over a physical slot already in
// hand, for callers (the simplifier) that walk storage directly and need
// to query or update per-strand indexes keyed on StrandIterator.
func WrapPhysical(chr uint32, dir dnaseq.Direction, it unrolled.Iterator) StrandIterator {
	return StrandIterator{it: it, dir: dir, chr: chr}
}

// PhysicalRange converts a strand-ordered span [from, to) — to exclusive,
// read in from's direction — into the physically ascending, half-open
// unrolled.Iterator range covering the same slots. from and to must share
// a chromosome and direction.
func PhysicalRange(from, to StrandIterator) (lo, hi unrolled.Iterator) {
	if from.dir == dnaseq.Positive {
		return from.it, to.it
	}
	lo = to.it
	lo.Next()
	hi = from.it
	hi.Next()
	return lo, hi
}
