// Package simplify is component D of the synteny engine: the iterative
// bulge-removal loop that collapses short divergent branches between
// pairs of bifurcations, converging the de Bruijn graph toward its
// simplified (non-branching) form.
package simplify

import (
	"github.com/grailbio/bio-synteny/biosimd"
	"github.com/grailbio/bio-synteny/dnaseq"
	"github.com/grailbio/bio-synteny/internal/bifstore"
	"github.com/grailbio/bio-synteny/internal/editableseq"
	"github.com/grailbio/bio-synteny/internal/unrolled"
)

// ProgressState mirrors the three-phase lifecycle of one simplification
// pass, reported to an optional progress callback.
type ProgressState int

const (
	StateStart ProgressState = iota
	StateRun
	StateEnd
)

// ProgressFunc is invoked at most once per pass boundary. It must not
// mutate engine state; the simplifier does not inspect its return value,
// so it cannot be used to cancel a run.
type ProgressFunc func(passIndex int, state ProgressState)

// Options configures one simplification run.
type Options struct {
	K             int
	MinBranchSize int
	MaxIterations int
}

// visit records one anchor's candidate path to an end vertex, found by
// scanning forward from that anchor's k-mer for at most MinBranchSize
// characters.
type visit struct {
	anchor   bifstore.Anchor
	endID    uint32
	distance int // characters between the end of anchor's k-mer and the end vertex's start
	endIt    editableseq.StrandIterator
}

// restriction holds, per physical slot, a set of end-vertex ids that
// walkForward skips at that slot. collapseBulge carries a slot's entries
// along when it re-registers that slot's anchor; no code path adds a new
// entry, so the map starts empty and stays empty.
type restriction struct {
	byElem map[uint64]map[uint32]bool
}

func newRestriction() *restriction {
	return &restriction{byElem: make(map[uint64]map[uint32]bool)}
}

func (r *restriction) add(elem uint64, bifID uint32) {
	s := r.byElem[elem]
	if s == nil {
		s = make(map[uint32]bool)
		r.byElem[elem] = s
	}
	s[bifID] = true
}

func (r *restriction) has(elem uint64, bifID uint32) bool {
	return r.byElem[elem] != nil && r.byElem[elem][bifID]
}

func (r *restriction) remove(elem uint64) map[uint32]bool {
	s := r.byElem[elem]
	delete(r.byElem, elem)
	return s
}

// Run drives the bulge-removal loop described in spec §4.D: for up to
// MaxIterations passes, sweep every bifurcation id in ascending order and
// greedily collapse bulges anchored there, until a full pass collapses
// nothing. It returns the number of passes actually executed.
func Run(es *editableseq.EditableSeq, store *bifstore.Store, opts Options, progress ProgressFunc) int {
	restricted := newRestriction()
	pass := 0
	for pass = 0; pass < opts.MaxIterations; pass++ {
		if progress != nil {
			progress(pass, StateStart)
		}
		collapsedAny := false
		for bifID := uint32(0); bifID < store.MaxID(); bifID++ {
			if removeBulges(es, store, restricted, opts.K, opts.MinBranchSize, bifID) {
				collapsedAny = true
			}
		}
		if progress != nil {
			progress(pass, StateEnd)
		}
		if !collapsedAny {
			pass++
			break
		}
	}
	return pass
}

// removeBulges processes a single bifurcation id's snapshot of anchors:
// anchors that reach the same end vertex within MinBranchSize characters
// are grouped, the first in each group becomes the source, and every
// other anchor in the group is collapsed into it.
func removeBulges(es *editableseq.EditableSeq, store *bifstore.Store, restricted *restriction, k, minBranchSize int, bifID uint32) bool {
	anchors := store.SnapshotAnchors(bifID)
	if len(anchors) < 2 {
		return false
	}

	byEnd := make(map[uint32][]visit)
	for _, a := range anchors {
		endID, dist, endIt, ok := walkForward(store, restricted, a.It, k, minBranchSize)
		if !ok {
			continue
		}
		byEnd[endID] = append(byEnd[endID], visit{anchor: a, endID: endID, distance: dist, endIt: endIt})
	}

	collapsed := false
	for _, group := range byEnd {
		if len(group) < 2 {
			continue
		}
		source := group[0]
		for _, target := range group[1:] {
			if collapseBulge(es, store, restricted, k, source, target) {
				collapsed = true
			}
		}
	}
	return collapsed
}

// walkForward scans forward from anchor a's k-mer for up to maxDist
// characters, looking for another anchored bifurcation whose own id is
// not restricted at that slot. It returns the id found, the internal
// distance (0 if u immediately follows a's k-mer), and an iterator
// positioned at u's k-mer start.
func walkForward(store *bifstore.Store, restricted *restriction, a editableseq.StrandIterator, k, maxDist int) (id uint32, dist int, at editableseq.StrandIterator, ok bool) {
	cur := a
	for i := 0; i < k; i++ {
		if !cur.Valid() || !cur.Next() {
			return 0, 0, cur, false
		}
	}
	for d := 0; d < maxDist; d++ {
		if !cur.Valid() {
			return 0, 0, cur, false
		}
		if foundID, found := store.Lookup(cur); found && !restricted.has(cur.ElementID(), foundID) {
			return foundID, d, cur, true
		}
		if !cur.Next() {
			return 0, 0, cur, false
		}
	}
	return 0, 0, cur, false
}

// readForward reads the n characters beginning at (and including) from,
// in from's own reading direction, without consuming from.
func readForward(from editableseq.StrandIterator, n int) []byte {
	out := make([]byte, 0, n)
	cur := from
	for i := 0; i < n; i++ {
		if !cur.Valid() {
			break
		}
		out = append(out, cur.Read())
		cur.Next()
	}
	return out
}

// pendingAnchor records an anchor that was deregistered because its slot
// fell inside a range about to be erased, so it can be re-registered at
// the corresponding new slot once the replacement has been inserted.
type pendingAnchor struct {
	offset  int // index within the erased range, 0-based
	strand  dnaseq.Direction
	bifID   uint32
	restSet map[uint32]bool
}

// deregisterRange walks the physical, ascending range [lo, hi) and
// removes any anchor (on either strand) found there, returning them
// tagged with their offset into the range so the caller can re-register
// them against the replacement once it is in place.
func deregisterRange(store *bifstore.Store, restricted *restriction, chr uint32, lo, hi unrolled.Iterator) []pendingAnchor {
	var out []pendingAnchor
	offset := 0
	for cur := lo; !cur.Equal(hi); {
		for _, dir := range [2]dnaseq.Direction{dnaseq.Positive, dnaseq.Negative} {
			sit := editableseq.WrapPhysical(chr, dir, cur)
			if id, ok := store.Lookup(sit); ok {
				elem := cur.ElementID()
				store.Erase(sit)
				out = append(out, pendingAnchor{offset: offset, strand: dir, bifID: id, restSet: restricted.remove(elem)})
			}
		}
		offset++
		if !cur.Next() {
			break
		}
	}
	return out
}

// collapseBulge rewrites target's internal stretch (the characters
// strictly between its k-mer and its end vertex) so that, read in
// target's own direction, it matches source's internal stretch. A
// zero-length side (source or target immediately adjacent to the end
// vertex) is treated as a no-op, per the engine's design notes.
func collapseBulge(es *editableseq.EditableSeq, store *bifstore.Store, restricted *restriction, k int, source, target visit) bool {
	if source.distance == 0 || target.distance == 0 {
		return false
	}

	srcStart := source.anchor.It
	for i := 0; i < k; i++ {
		srcStart.Next()
	}
	replacement := readForward(srcStart, source.distance)

	tgtStart := target.anchor.It
	for i := 0; i < k; i++ {
		tgtStart.Next()
	}
	tgtEnd := target.endIt

	if source.distance == target.distance {
		current := readForward(tgtStart, target.distance)
		if string(current) == string(replacement) {
			return false
		}
	}

	// replacement is read in source's own direction; physBytes must hold
	// the same logical content but laid out in target's ascending
	// physical order. Whether that requires a reverse-complement depends
	// only on target's own strand: a positive-strand target reads
	// physical storage ascending with no complement, so physBytes is a
	// direct copy; a negative-strand target reads descending and
	// complemented, so the ascending physical bytes must be the
	// reverse-complement of replacement. Source's strand has already been
	// folded into replacement (readForward read it via a StrandIterator,
	// which complements for a negative-strand source) and plays no
	// further part here.
	physBytes := make([]byte, len(replacement))
	if target.anchor.Strand == dnaseq.Positive {
		copy(physBytes, replacement)
	} else {
		biosimd.ReverseComp8(physBytes, replacement)
	}

	origs := make([]uint32, len(physBytes))
	srcOrigWalk := srcStart
	for i := range origs {
		origs[i] = srcOrigWalk.OriginalPos()
		srcOrigWalk.Next()
	}
	if target.anchor.Strand == dnaseq.Negative {
		for i, j := 0, len(origs)-1; i < j; i, j = i+1, j-1 {
			origs[i], origs[j] = origs[j], origs[i]
		}
	}

	chr := target.anchor.Chr
	lo, hi := editableseq.PhysicalRange(tgtStart, tgtEnd)
	list := es.Underlying(chr)

	pending := deregisterRange(store, restricted, chr, lo, hi)
	insertAt := list.Erase(lo, hi)
	afterIt := list.Insert(insertAt, physBytes, origs, nil, nil)

	walker := afterIt
	step := 0
	for _, p := range pending {
		if p.offset >= len(physBytes) {
			continue
		}
		for step < p.offset {
			walker.Next()
			step++
		}
		sit := editableseq.WrapPhysical(chr, p.strand, walker)
		store.Add(sit, p.bifID)
		for bid := range p.restSet {
			restricted.add(walker.ElementID(), bid)
		}
	}

	return true
}
