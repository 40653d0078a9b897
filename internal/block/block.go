// Package block is component E of the synteny engine: it projects a
// (possibly simplified) graph's anchored edges into synteny blocks.
package block

import (
	"sort"

	"github.com/grailbio/bio-synteny/dnaseq"
	"github.com/grailbio/bio-synteny/internal/bifstore"
	"github.com/grailbio/bio-synteny/internal/editableseq"
)

// Edge is one out-label between two consecutive anchors on a chromosome
// strand, per spec §4.E.
type Edge struct {
	Chr           uint32
	Direction     dnaseq.Direction
	StartVertex   uint32
	EndVertex     uint32
	ActualPos     uint32
	ActualLen     uint32
	OriginalPos   uint32
	OriginalLen   uint32
	FirstChar     byte
}

// Instance is one emitted synteny block occurrence. SignedBlockID is
// negative for a reverse-strand occurrence; End is exclusive.
type Instance struct {
	SignedBlockID int32
	Chr           uint32
	Start         uint32
	End           uint32
}

// ListEdges scans every chromosome and direction in anchor order,
// emitting one edge between each pair of consecutive anchors. Edges
// whose original length is shorter than k are discarded: such an edge
// cannot extend beyond the bifurcation k-mer itself and carries no
// unique content.
func ListEdges(es *editableseq.EditableSeq, store *bifstore.Store, maxID uint32, k int) []Edge {
	type seen struct {
		bifID uint32
		it    editableseq.StrandIterator
	}
	var edges []Edge
	for chr := 0; chr < es.ChrNumber(); chr++ {
		for _, dir := range [2]dnaseq.Direction{dnaseq.Positive, dnaseq.Negative} {
			var prev *seen
			for it := es.Begin(uint32(chr), dir); it.Valid(); it.Next() {
				id, ok := store.Lookup(it)
				if !ok {
					continue
				}
				if prev != nil {
					actualLen, originalLen := span(prev.it, it, k)
					firstChar := advanceRead(prev.it, k)
					e := Edge{
						Chr:         uint32(chr),
						Direction:   dir,
						StartVertex: prev.bifID,
						EndVertex:   id,
						ActualPos:   0, // actual (live) positions are not meaningful across edits; callers use original coordinates
						ActualLen:   actualLen,
						OriginalPos: prev.it.OriginalPos(),
						OriginalLen: originalLen,
						FirstChar:   firstChar,
					}
					if e.OriginalLen >= uint32(k) {
						edges = append(edges, e)
					}
				}
				cur := it
				prev = &seen{bifID: id, it: cur}
			}
		}
	}
	return edges
}

// span returns the actual and original lengths of the edge between
// anchors from and to, both measured as to's start plus k minus from's
// start (the out-label spans the whole gap plus the destination k-mer).
func span(from, to editableseq.StrandIterator, k int) (actualLen, originalLen uint32) {
	// Actual length: count live characters strictly between from and to,
	// plus k. Since live-position counting requires a walk, and original
	// coordinates are monotonic by construction, originalLen is computed
	// directly; actualLen mirrors it for unedited (pre-simplification)
	// sequence and is otherwise advisory.
	origLen := to.OriginalPos() + uint32(k) - from.OriginalPos()
	return origLen, origLen
}

// advanceRead returns the character k positions after it, without
// consuming it. This is the out-label's first content character, i.e.
// the byte immediately following the starting anchor's k-mer.
func advanceRead(it editableseq.StrandIterator, k int) byte {
	cur := it
	for i := 0; i < k; i++ {
		if !cur.Valid() {
			return 0
		}
		cur.Next()
	}
	if !cur.Valid() {
		return 0
	}
	return cur.Read()
}

type coord struct {
	pos uint32
	ln  uint32
}

func edgeKeyLess(a, b Edge) bool {
	if a.StartVertex != b.StartVertex {
		return a.StartVertex < b.StartVertex
	}
	if a.EndVertex != b.EndVertex {
		return a.EndVertex < b.EndVertex
	}
	if a.FirstChar != b.FirstChar {
		return a.FirstChar < b.FirstChar
	}
	if a.Direction != b.Direction {
		return a.Direction < b.Direction
	}
	return a.Chr < b.Chr
}

// coincide groups edges that share a block identity. Per the engine's
// design, chromosome is a sort tie-breaker only — two edges coincide
// (and may land in the same block) whenever their (startVertex,
// endVertex, firstChar, direction) tuple matches, regardless of chr.
func coincide(a, b Edge) bool {
	return a.StartVertex == b.StartVertex && a.EndVertex == b.EndVertex &&
		a.FirstChar == b.FirstChar && a.Direction == b.Direction
}

func overlaps(a, b Edge) bool {
	if a.Chr != b.Chr {
		return false
	}
	aEnd := a.OriginalPos + a.OriginalLen
	bEnd := b.OriginalPos + b.OriginalLen
	return a.OriginalPos < bEnd && b.OriginalPos < aEnd
}

// GenerateBlocks sorts edges by (startVertex, endVertex, firstChar,
// direction, chr), groups coinciding runs, and emits one synteny block
// per qualifying positive-direction group, per spec §4.E.
func GenerateBlocks(edges []Edge, chrNumber int, minSize int, sharedOnly bool) []Instance {
	filtered := edges[:0:0]
	for _, e := range edges {
		if int(e.OriginalLen) >= minSize {
			filtered = append(filtered, e)
		}
	}
	edges = filtered

	sort.Slice(edges, func(i, j int) bool { return edgeKeyLess(edges[i], edges[j]) })

	visited := make([]map[coord]bool, chrNumber)
	for i := range visited {
		visited[i] = make(map[coord]bool)
	}

	var blocks []Instance
	blockCount := int32(1)
	n := len(edges)
	for now := 0; now < n; {
		prev := now
		occurPerChr := make(map[uint32]int)
		hit := false
		for now < n && coincide(edges[prev], edges[now]) {
			e := edges[now]
			occurPerChr[e.Chr]++
			if visited[e.Chr][coord{e.OriginalPos, e.OriginalLen}] {
				hit = true
			}
			now++
		}

		if hit || edges[prev].Direction != dnaseq.Positive || now-prev <= 1 {
			continue
		}
		if sharedOnly && !keepSharedOnly(occurPerChr, chrNumber) {
			continue
		}

		var group []Edge
		for i := prev; i < now; i++ {
			e := edges[i]
			dup := false
			for _, kept := range group {
				if overlaps(e, kept) {
					dup = true
					break
				}
			}
			if !dup {
				group = append(group, e)
			}
		}

		if len(group) <= 1 {
			continue
		}

		for _, e := range group {
			visited[e.Chr][coord{e.OriginalPos, e.OriginalLen}] = true
			strand := int32(1)
			if e.Direction != dnaseq.Positive {
				strand = -1
			}
			blocks = append(blocks, Instance{
				SignedBlockID: blockCount * strand,
				Chr:           e.Chr,
				Start:         e.OriginalPos,
				End:           e.OriginalPos + e.OriginalLen,
			})
		}
		blockCount++
	}

	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Chr != blocks[j].Chr {
			return blocks[i].Chr < blocks[j].Chr
		}
		return blocks[i].Start < blocks[j].Start
	})
	return blocks
}

// keepSharedOnly reports whether a group's per-chromosome occurrence
// counts match the "each input chromosome contributes exactly one
// member" requirement.
func keepSharedOnly(occurPerChr map[uint32]int, chrNumber int) bool {
	if len(occurPerChr) != chrNumber {
		return false
	}
	for _, n := range occurPerChr {
		if n != 1 {
			return false
		}
	}
	return true
}
