package editableseq_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/bio-synteny/dnaseq"
	"github.com/grailbio/bio-synteny/internal/editableseq"
)

func newSeq(t *testing.T, seqs ...string) *editableseq.EditableSeq {
	t.Helper()
	var chrs []dnaseq.Chromosome
	for i, s := range seqs {
		chrs = append(chrs, dnaseq.Chromosome{ID: uint32(i), Sequence: []byte(s)})
	}
	return editableseq.New(chrs)
}

func readStrand(s editableseq.StrandIterator) string {
	var buf []byte
	for s.Valid() {
		buf = append(buf, s.Read())
		s.Next()
	}
	return string(buf)
}

func TestPositiveStrandReadsForward(t *testing.T) {
	es := newSeq(t, "ACGTT")
	require.Equal(t, 5, es.Len(0))
	it := es.Begin(0, dnaseq.Positive)
	require.Equal(t, "ACGTT", readStrand(it))
}

func TestNegativeStrandReadsReverseComplement(t *testing.T) {
	es := newSeq(t, "ACGTT")
	it := es.Begin(0, dnaseq.Negative)
	require.Equal(t, "AACGT", readStrand(it))
}

func TestReadKmer(t *testing.T) {
	es := newSeq(t, "ACGTAC")
	it := es.Begin(0, dnaseq.Positive)
	kmer, ok := editableseq.ReadKmer(it, 3)
	require.True(t, ok)
	require.Equal(t, "ACG", string(kmer))
	// it itself should not have been consumed.
	require.Equal(t, "ACGTAC", readStrand(it))

	it2 := es.Begin(0, dnaseq.Positive)
	_, ok = editableseq.ReadKmer(it2, 100)
	require.False(t, ok)
}

func TestOriginalPosTracksInputCoordinate(t *testing.T) {
	es := newSeq(t, "ACGT")
	it := es.Begin(0, dnaseq.Positive)
	for i := 0; i < 4; i++ {
		require.Equal(t, uint32(i), it.OriginalPos())
		it.Next()
	}
}

func TestStrandIteratorEqual(t *testing.T) {
	es := newSeq(t, "ACGT")
	a := es.Begin(0, dnaseq.Positive)
	b := es.Begin(0, dnaseq.Positive)
	require.True(t, a.Equal(b))
	a.Next()
	require.False(t, a.Equal(b))
}

func TestPhysicalRangePositive(t *testing.T) {
	es := newSeq(t, "ACGTAC")
	from := es.Begin(0, dnaseq.Positive)
	from.Next() // index 1
	to := from
	to.Next()
	to.Next() // index 3

	lo, hi := editableseq.PhysicalRange(from, to)
	var got []byte
	for cur := lo; !cur.Equal(hi); cur.Next() {
		got = append(got, cur.Read())
	}
	require.Equal(t, "CG", string(got))
}

func TestPhysicalRangeNegative(t *testing.T) {
	es := newSeq(t, "ACGTAC")
	// On the negative strand, "from" reads right-to-left; picking a span
	// there should still translate to an ascending physical range.
	from := es.Begin(0, dnaseq.Negative)
	from.Next() // physically index 4
	to := from
	to.Next()
	to.Next() // physically index 2

	lo, hi := editableseq.PhysicalRange(from, to)
	var got []byte
	for cur := lo; !cur.Equal(hi); cur.Next() {
		got = append(got, cur.Read())
	}
	require.Equal(t, "TA", string(got))
}
