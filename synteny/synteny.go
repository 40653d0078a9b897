// Package synteny is the engine's external API: it wires together the
// bifurcation enumerator, the strand-aware editable sequence, the
// bifurcation store, the graph simplifier, and the block emitter behind
// a single BlockFinder, per the engine's external interfaces design.
package synteny

import (
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/pkg/errors"

	"github.com/grailbio/bio-synteny/dnaseq"
	"github.com/grailbio/bio-synteny/internal/bifstore"
	"github.com/grailbio/bio-synteny/internal/block"
	"github.com/grailbio/bio-synteny/internal/editableseq"
	"github.com/grailbio/bio-synteny/internal/enumerate"
	"github.com/grailbio/bio-synteny/internal/simplify"
)

// ProgressState mirrors simplify.ProgressState for callers that don't
// want to import the internal package directly.
type ProgressState = simplify.ProgressState

const (
	StateStart = simplify.StateStart
	StateRun   = simplify.StateRun
	StateEnd   = simplify.StateEnd
)

// ProgressCallBack is invoked between simplification passes and between
// major phases of synteny-block generation. It must not mutate engine
// state and its return value is ignored: the core has no cancellation
// primitive, per the engine's concurrency design.
type ProgressCallBack func(passIndex int, state ProgressState)

// BlockInstance is one emitted synteny block occurrence. SignedBlockID
// is negative for a reverse-strand occurrence; End is exclusive.
type BlockInstance = block.Instance

// BlockFinder holds one genome's editable sequence and its current
// bifurcation index, and drives simplification and block generation
// over them.
type BlockFinder struct {
	chromosomes []dnaseq.Chromosome
	tempDir     string // set by NewWithTemp; not read by any code path
	es          *editableseq.EditableSeq
	store       *bifstore.Store
	k           int
	strategy    enumerate.Strategy
}

// New constructs a BlockFinder over chromosomes, validated eagerly
// against the DNA alphabet (the k-length check in dnaseq.Validate is
// deferred until the first call that supplies a k). All state is held
// in memory.
func New(chromosomes []dnaseq.Chromosome) (*BlockFinder, error) {
	if err := dnaseq.Validate(chromosomes, 0); err != nil {
		return nil, err
	}
	return &BlockFinder{
		chromosomes: chromosomes,
		es:          editableseq.New(chromosomes),
		strategy:    enumerate.SuffixArray,
	}, nil
}

// NewWithTemp is like New and also records tempDir. Enumeration still
// uses the in-memory SuffixArray strategy and holds the full suffix
// array resident; tempDir is not read and no scratch files are written
// there (see DESIGN.md).
func NewWithTemp(chromosomes []dnaseq.Chromosome, tempDir string) (*BlockFinder, error) {
	bf, err := New(chromosomes)
	if err != nil {
		return nil, err
	}
	bf.tempDir = tempDir
	return bf, nil
}

// enumerateIfNeeded runs bifurcation enumeration at k-mer length k if it hasn't
// already been run at that length, (re)building the bifurcation store.
func (bf *BlockFinder) enumerateIfNeeded(k int) error {
	if bf.store != nil && bf.k == k {
		return nil
	}
	if err := dnaseq.Validate(bf.chromosomes, k); err != nil {
		return err
	}
	result, err := enumerate.Enumerate(bf.es, k, bf.strategy)
	if err != nil {
		return errors.Wrap(err, "synteny: enumerate")
	}
	store := bifstore.New(result.MaxID)
	for _, inst := range result.Positive {
		it := findAnchorIterator(bf.es, dnaseq.Positive, inst)
		store.Add(it, inst.BifID)
	}
	for _, inst := range result.Negative {
		it := findAnchorIterator(bf.es, dnaseq.Negative, inst)
		store.Add(it, inst.BifID)
	}
	bf.store = store
	bf.k = k
	return nil
}

// findAnchorIterator walks chr's strand to the live position holding
// inst's anchor. Enumerate and the store agree on position by
// construction order (no edits have happened yet at this point), so a
// direct walk from the start is always correct here.
func findAnchorIterator(es *editableseq.EditableSeq, dir dnaseq.Direction, inst enumerate.Instance) editableseq.StrandIterator {
	it := es.Begin(inst.Chr, dir)
	for i := uint32(0); i < inst.Pos; i++ {
		it.Next()
	}
	return it
}

// PerformGraphSimplifications runs bifurcation enumeration followed by
// iterative bulge removal, per spec §4.C–D.
func (bf *BlockFinder) PerformGraphSimplifications(k, minBranchSize, maxIterations int, progress ProgressCallBack) error {
	if err := bf.enumerateIfNeeded(k); err != nil {
		return err
	}
	var cb simplify.ProgressFunc
	if progress != nil {
		cb = func(pass int, state simplify.ProgressState) { progress(pass, state) }
	}
	passes := simplify.Run(bf.es, bf.store, simplify.Options{K: k, MinBranchSize: minBranchSize, MaxIterations: maxIterations}, cb)
	log.Debug.Printf("synteny: graph simplification converged after %d pass(es)", passes)
	return nil
}

// GenerateSyntenyBlocks runs bifurcation enumeration (if not already
// done) and edge listing/block emission, per spec §4.C + §4.E. Calling
// it before PerformGraphSimplifications yields blocks over the
// unsimplified graph.
func (bf *BlockFinder) GenerateSyntenyBlocks(k, minSize int, sharedOnly bool, progress ProgressCallBack) ([]BlockInstance, error) {
	if err := bf.enumerateIfNeeded(k); err != nil {
		return nil, err
	}
	if progress != nil {
		progress(0, StateStart)
	}
	edges := block.ListEdges(bf.es, bf.store, bf.store.MaxID(), k)
	blocks := block.GenerateBlocks(edges, len(bf.chromosomes), minSize, sharedOnly)
	if progress != nil {
		progress(0, StateEnd)
	}
	return blocks, nil
}

// SerializeGraph writes a textual dump of the current bifurcation graph:
// one row per edge, (chr, direction, startVertex, endVertex,
// originalPos, originalLen, firstChar).
func (bf *BlockFinder) SerializeGraph(k int, w io.Writer) error {
	if err := bf.enumerateIfNeeded(k); err != nil {
		return err
	}
	edges := block.ListEdges(bf.es, bf.store, bf.store.MaxID(), k)
	return writeEdges(w, edges)
}

// SerializeCondensedGraph is like SerializeGraph, but runs graph
// simplification first so the dump reflects the condensed (bulge-free)
// graph. A full PerformGraphSimplifications call with the given k and
// conservative defaults drives the condensation.
func (bf *BlockFinder) SerializeCondensedGraph(k int, w io.Writer, progress ProgressCallBack) error {
	const defaultMinBranchSize = 100
	const defaultMaxIterations = 4
	if err := bf.PerformGraphSimplifications(k, defaultMinBranchSize, defaultMaxIterations, progress); err != nil {
		return err
	}
	edges := block.ListEdges(bf.es, bf.store, bf.store.MaxID(), k)
	return writeEdges(w, edges)
}

func writeEdges(w io.Writer, edges []block.Edge) (err error) {
	tsvw := tsv.NewWriter(w)
	tsvw.WriteString("#chr\tdirection\tstartVertex\tendVertex\toriginalPos\toriginalLen\tfirstChar")
	if err = tsvw.EndLine(); err != nil {
		return errors.Wrap(err, "synteny: write graph header")
	}
	for _, e := range edges {
		tsvw.WriteUint32(e.Chr)
		tsvw.WriteString(e.Direction.String())
		tsvw.WriteString(strconv.FormatUint(uint64(e.StartVertex), 10))
		tsvw.WriteString(strconv.FormatUint(uint64(e.EndVertex), 10))
		tsvw.WriteUint32(e.OriginalPos)
		tsvw.WriteUint32(e.OriginalLen)
		if e.FirstChar == 0 {
			tsvw.WriteString(".")
		} else {
			tsvw.WriteByte(e.FirstChar)
		}
		if err = tsvw.EndLine(); err != nil {
			return errors.Wrap(err, "synteny: write graph row")
		}
	}
	return errors.Wrap(tsvw.Flush(), "synteny: flush graph writer")
}

// FormatBlock renders a block instance as "chr\tstart\tend\tsignedBlockId",
// the row format emitted by the CLI collaborator.
func FormatBlock(b BlockInstance) string {
	return fmt.Sprintf("%d\t%d\t%d\t%d", b.Chr, b.Start, b.End, b.SignedBlockID)
}
