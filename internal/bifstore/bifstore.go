// Package bifstore is component B of the synteny engine: a bidirectional
// index between bifurcation ids and the (strand, chromosome, position)
// anchors where their canonical k-mer occurs.
package bifstore

import (
	"github.com/grailbio/bio-synteny/dnaseq"
	"github.com/grailbio/bio-synteny/internal/editableseq"
)

// token is the position-token key BifStore indexes by: a strand plus the
// stable slot identity of the character the anchor's k-mer starts at.
// Keying by slot identity (rather than integer offset) is what makes
// lookups survive edits elsewhere in the sequence without a rescan.
type token struct {
	strand dnaseq.Direction
	elem   uint64
}

func tokenOf(it editableseq.StrandIterator) token {
	return token{strand: it.Direction(), elem: it.ElementID()}
}

// Anchor is one occurrence of a bifurcation k-mer.
type Anchor struct {
	BifID  uint32
	Strand dnaseq.Direction
	Chr    uint32
	It     editableseq.StrandIterator
}

// Store is the bidirectional bifurcation index described in spec §4.B: for
// every bifId, an ordered (by construction) list of anchors; for every
// anchored position token, the bifId anchored there.
type Store struct {
	maxID     uint32
	byID      map[uint32][]Anchor // construction order; removed entries tombstoned
	removed   map[uint32]map[int]bool
	byToken   map[token]uint32
	anchorLoc map[token]struct{ bifID uint32; idx int }
}

// New constructs an empty store sized for ids in [0, maxID).
func New(maxID uint32) *Store {
	return &Store{
		maxID:     maxID,
		byID:      make(map[uint32][]Anchor, maxID),
		removed:   make(map[uint32]map[int]bool),
		byToken:   make(map[token]uint32),
		anchorLoc: make(map[token]struct{ bifID uint32; idx int }),
	}
}

// MaxID returns the exclusive upper bound on bifurcation ids.
func (s *Store) MaxID() uint32 { return s.maxID }

// Add registers it's position token under bifID.
func (s *Store) Add(it editableseq.StrandIterator, bifID uint32) {
	tk := tokenOf(it)
	idx := len(s.byID[bifID])
	s.byID[bifID] = append(s.byID[bifID], Anchor{BifID: bifID, Strand: it.Direction(), Chr: it.Chr(), It: it})
	s.byToken[tk] = bifID
	s.anchorLoc[tk] = struct {
		bifID uint32
		idx   int
	}{bifID, idx}
}

// Erase removes the anchor at it, if any.
func (s *Store) Erase(it editableseq.StrandIterator) {
	tk := tokenOf(it)
	loc, ok := s.anchorLoc[tk]
	if !ok {
		return
	}
	if s.removed[loc.bifID] == nil {
		s.removed[loc.bifID] = make(map[int]bool)
	}
	s.removed[loc.bifID][loc.idx] = true
	delete(s.byToken, tk)
	delete(s.anchorLoc, tk)
}

// Lookup returns the bifId anchored at it, if any.
func (s *Store) Lookup(it editableseq.StrandIterator) (uint32, bool) {
	id, ok := s.byToken[tokenOf(it)]
	return id, ok
}

// Count returns the number of live anchors for bifID.
func (s *Store) Count(bifID uint32) int {
	all := s.byID[bifID]
	removed := s.removed[bifID]
	return len(all) - len(removed)
}

// AnchorsOf calls fn for every live anchor of bifID, in construction
// order.
func (s *Store) AnchorsOf(bifID uint32, fn func(Anchor)) {
	all := s.byID[bifID]
	removed := s.removed[bifID]
	for i, a := range all {
		if removed != nil && removed[i] {
			continue
		}
		fn(a)
	}
}

// SnapshotAnchors returns a copy of bifID's live anchors, for callers (the
// simplifier) that must iterate a fixed view while mutating the store.
func (s *Store) SnapshotAnchors(bifID uint32) []Anchor {
	var out []Anchor
	s.AnchorsOf(bifID, func(a Anchor) { out = append(out, a) })
	return out
}
