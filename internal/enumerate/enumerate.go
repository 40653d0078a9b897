// Package enumerate is component C of the synteny engine: it scans every
// sequence on both strands and assigns a dense bifurcation id to each
// k-mer that bifurcates the implicit de Bruijn graph (branches, or
// touches a chromosome boundary).
//
// Two interchangeable strategies find the same anchors and the same
// groups: Hash collects k-mer occurrences with per-chromosome sliding
// windows and groups them by a farmhash bucket (the engine's legacy path,
// kept for small inputs and as a crosscheck); SuffixArray collects them
// in the order of a suffix array of the concatenated corpus and then
// groups them by exact content in a map. The numeric id given to each
// group follows map iteration order, so it can differ between runs and
// between strategies. Both are driven from a runtime Strategy value
// rather than a build tag, per the engine's design notes.
package enumerate

import (
	"sort"

	farm "github.com/dgryski/go-farm"
	"github.com/flanglet/kanzi-go/transform"
	"github.com/pkg/errors"

	"github.com/grailbio/bio-synteny/dnaseq"
	"github.com/grailbio/bio-synteny/internal/editableseq"
)

// Strategy selects the bifurcation-grouping algorithm.
type Strategy int

const (
	// SuffixArray lists k-mer occurrences via a suffix array over the
	// concatenated, separator-delimited corpus, then groups them by exact
	// content.
	SuffixArray Strategy = iota
	// Hash groups k-mers with a farmhash-bucketed map. Simpler and
	// sufficient for small inputs; kept for comparison and as a fallback
	// when scratch memory for a suffix array is unavailable.
	Hash
)

// Instance is one anchored occurrence of a bifurcation k-mer: the id it
// was assigned, and the chromosome/position where its canonical k-mer
// starts on a given strand.
type Instance struct {
	BifID uint32
	Chr   uint32
	Pos   uint32
}

// Result is the output of Enumerate: per-strand anchor lists sorted by
// (Chr, Pos), and the exclusive upper bound on assigned ids.
type Result struct {
	Positive []Instance
	Negative []Instance
	MaxID    uint32
}

type occurrence struct {
	strand  dnaseq.Direction
	chr     uint32
	pos     uint32
	content string
	prev    byte // 0 if this occurrence starts at a chromosome boundary
	next    byte // 0 if this occurrence ends at a chromosome boundary
}

// Enumerate runs bifurcation enumeration over es with k-mer length k.
func Enumerate(es *editableseq.EditableSeq, k int, strategy Strategy) (Result, error) {
	if k <= 0 {
		return Result{}, errors.Errorf("enumerate: k must be > 0, got %d", k)
	}
	var occs []occurrence
	switch strategy {
	case Hash:
		occs = collectOccurrences(es, k)
	case SuffixArray:
		var err error
		occs, err = collectOccurrencesSA(es, k)
		if err != nil {
			return Result{}, err
		}
	default:
		return Result{}, errors.Errorf("enumerate: unknown strategy %d", strategy)
	}

	var groups map[string][]int
	switch strategy {
	case Hash:
		groups = groupByHash(occs)
	default:
		groups = groupByContent(occs)
	}

	idOf := make(map[string]uint32)
	var nextID uint32 = 1 // id 0 is reserved, per §3
	result := Result{}
	for content, idxs := range groups {
		if !isBifurcation(occs, idxs) {
			continue
		}
		canon := dnaseq.Canonical([]byte(content))
		id, ok := idOf[canon]
		if !ok {
			id = nextID
			nextID++
			idOf[canon] = id
		}
		for _, idx := range idxs {
			o := occs[idx]
			inst := Instance{BifID: id, Chr: o.chr, Pos: o.pos}
			if o.strand == dnaseq.Positive {
				result.Positive = append(result.Positive, inst)
			} else {
				result.Negative = append(result.Negative, inst)
			}
		}
	}
	result.MaxID = nextID

	sort.Slice(result.Positive, func(i, j int) bool { return less(result.Positive[i], result.Positive[j]) })
	sort.Slice(result.Negative, func(i, j int) bool { return less(result.Negative[i], result.Negative[j]) })
	return result, nil
}

func less(a, b Instance) bool {
	if a.Chr != b.Chr {
		return a.Chr < b.Chr
	}
	return a.Pos < b.Pos
}

func isBifurcation(occs []occurrence, idxs []int) bool {
	var prevSeen, nextSeen byte
	for _, idx := range idxs {
		o := occs[idx]
		if o.prev == 0 || o.next == 0 {
			return true // chromosome boundary
		}
		if prevSeen == 0 {
			prevSeen = o.prev
		} else if prevSeen != o.prev {
			return true // in-branch
		}
		if nextSeen == 0 {
			nextSeen = o.next
		} else if nextSeen != o.next {
			return true // out-branch
		}
	}
	return false
}

// collectOccurrences slides a length-k window across every chromosome on
// both strands.
func collectOccurrences(es *editableseq.EditableSeq, k int) []occurrence {
	var occs []occurrence
	for chr := 0; chr < es.ChrNumber(); chr++ {
		for _, dir := range [2]dnaseq.Direction{dnaseq.Positive, dnaseq.Negative} {
			n := es.Len(uint32(chr))
			if n < k {
				continue
			}
			window := make([]byte, 0, k+2)
			it := es.Begin(uint32(chr), dir)
			var prevChar byte
			for pos := 0; pos+k <= n; pos++ {
				kmer, ok := editableseq.ReadKmer(it, k)
				if !ok {
					break
				}
				var nextChar byte
				if pos+k < n {
					peek := it
					for s := 0; s < k; s++ {
						peek.Next()
					}
					nextChar = peek.Read()
				}
				window = window[:0]
				window = append(window, kmer...)
				o := occurrence{
					strand:  dir,
					chr:     uint32(chr),
					pos:     uint32(pos),
					content: string(window),
					prev:    prevChar,
					next:    nextChar,
				}
				occs = append(occs, o)
				prevChar = it.Read()
				it.Next()
			}
		}
	}
	return occs
}

// groupByHash buckets occurrences by a 64-bit farmhash of their content,
// then splits each bucket by exact content equality to resolve the rare
// collision. The resulting groups are the same as groupByContent's.
func groupByHash(occs []occurrence) map[string][]int {
	buckets := make(map[uint64]map[string][]int)
	for i, o := range occs {
		h := farm.Hash64([]byte(o.content))
		bucket := buckets[h]
		if bucket == nil {
			bucket = make(map[string][]int, 1)
			buckets[h] = bucket
		}
		bucket[o.content] = append(bucket[o.content], i)
	}
	groups := make(map[string][]int, len(occs))
	for _, bucket := range buckets {
		for content, idxs := range bucket {
			groups[content] = idxs
		}
	}
	return groups
}

func groupByContent(occs []occurrence) map[string][]int {
	groups := make(map[string][]int, len(occs))
	for i, o := range occs {
		groups[o.content] = append(groups[o.content], i)
	}
	return groups
}

// collectOccurrencesSA builds the same occurrence list as
// collectOccurrences, but derives it from a suffix array of the
// concatenated, separator-delimited corpus rather than per-chromosome
// sliding windows. The suffix array only fixes the order in which
// occurrences are listed; each occurrence is still extracted by direct
// indexing into the corpus, and Enumerate groups them afterwards by exact
// content (groupByContent), not by suffix-array adjacency.
func collectOccurrencesSA(es *editableseq.EditableSeq, k int) ([]occurrence, error) {
	type segment struct {
		chr    uint32
		dir    dnaseq.Direction
		start  int
		length int
	}
	var corpus []byte
	var segs []segment
	for chr := 0; chr < es.ChrNumber(); chr++ {
		for _, dir := range [2]dnaseq.Direction{dnaseq.Positive, dnaseq.Negative} {
			n := es.Len(uint32(chr))
			start := len(corpus)
			for it := es.Begin(uint32(chr), dir); it.Valid(); it.Next() {
				corpus = append(corpus, it.Read())
			}
			corpus = append(corpus, dnaseq.SeparationChar)
			segs = append(segs, segment{chr: uint32(chr), dir: dir, start: start, length: n})
		}
	}
	if len(corpus) == 0 {
		return nil, nil
	}

	sa := make([]int32, len(corpus))
	dss, err := transform.NewDivSufSort()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate: suffix array construction")
	}
	dss.ComputeSuffixArray(corpus, sa)

	segFor := func(offset int) (segment, int, bool) {
		for _, s := range segs {
			if offset >= s.start && offset < s.start+s.length {
				return s, offset - s.start, true
			}
		}
		return segment{}, 0, false
	}

	var occs []occurrence
	for _, off32 := range sa {
		off := int(off32)
		seg, pos, ok := segFor(off)
		if !ok || pos+k > seg.length {
			continue
		}
		content := corpus[off : off+k]
		var prevChar, nextChar byte
		if pos > 0 {
			prevChar = corpus[off-1]
		}
		if pos+k < seg.length {
			nextChar = corpus[off+k]
		}
		occs = append(occs, occurrence{
			strand:  seg.dir,
			chr:     seg.chr,
			pos:     uint32(pos),
			content: string(content),
			prev:    prevChar,
			next:    nextChar,
		})
	}
	return occs, nil
}
