package enumerate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/bio-synteny/dnaseq"
	"github.com/grailbio/bio-synteny/internal/editableseq"
	"github.com/grailbio/bio-synteny/internal/enumerate"
)

func hasPos(insts []enumerate.Instance, chr, pos uint32) bool {
	for _, i := range insts {
		if i.Chr == chr && i.Pos == pos {
			return true
		}
	}
	return false
}

func TestEnumerateRejectsNonPositiveK(t *testing.T) {
	es := editableseq.New([]dnaseq.Chromosome{{ID: 0, Sequence: []byte("ACGTACGA")}})
	_, err := enumerate.Enumerate(es, 0, enumerate.Hash)
	require.Error(t, err)
}

func TestEnumerateRejectsUnknownStrategy(t *testing.T) {
	es := editableseq.New([]dnaseq.Chromosome{{ID: 0, Sequence: []byte("ACGTACGA")}})
	_, err := enumerate.Enumerate(es, 3, enumerate.Strategy(99))
	require.Error(t, err)
}

func TestEnumerateBoundaryWindowsAlwaysBifurcate(t *testing.T) {
	seq := "ACGTACGA"
	k := 3
	n := len(seq)

	for _, strategy := range []enumerate.Strategy{enumerate.Hash, enumerate.SuffixArray} {
		es := editableseq.New([]dnaseq.Chromosome{{ID: 0, Sequence: []byte(seq)}})
		result, err := enumerate.Enumerate(es, k, strategy)
		require.NoError(t, err)
		require.True(t, result.MaxID > 1)

		// The first and last window of every strand touches a chromosome
		// boundary and is therefore always a bifurcation anchor.
		require.True(t, hasPos(result.Positive, 0, 0) || hasPos(result.Negative, 0, 0))
		require.True(t, hasPos(result.Positive, 0, uint32(n-k)) || hasPos(result.Negative, 0, uint32(n-k)))
	}
}

func TestEnumerateIDZeroNeverAssigned(t *testing.T) {
	es := editableseq.New([]dnaseq.Chromosome{{ID: 0, Sequence: []byte("ACGTACGA")}})
	result, err := enumerate.Enumerate(es, 3, enumerate.SuffixArray)
	require.NoError(t, err)
	for _, i := range result.Positive {
		require.NotEqual(t, uint32(0), i.BifID)
	}
	for _, i := range result.Negative {
		require.NotEqual(t, uint32(0), i.BifID)
	}
}

func TestEnumerateSortedByChrThenPos(t *testing.T) {
	es := editableseq.New([]dnaseq.Chromosome{{ID: 0, Sequence: []byte("ACGTACGA")}})
	result, err := enumerate.Enumerate(es, 3, enumerate.Hash)
	require.NoError(t, err)
	for i := 1; i < len(result.Positive); i++ {
		prev, cur := result.Positive[i-1], result.Positive[i]
		require.True(t, prev.Chr < cur.Chr || (prev.Chr == cur.Chr && prev.Pos <= cur.Pos))
	}
}
