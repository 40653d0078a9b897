package bifstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/bio-synteny/dnaseq"
	"github.com/grailbio/bio-synteny/internal/bifstore"
	"github.com/grailbio/bio-synteny/internal/editableseq"
)

func seqAt(es *editableseq.EditableSeq, chr uint32, n int) editableseq.StrandIterator {
	it := es.Begin(chr, dnaseq.Positive)
	for i := 0; i < n; i++ {
		it.Next()
	}
	return it
}

func TestAddLookupErase(t *testing.T) {
	es := editableseq.New([]dnaseq.Chromosome{{ID: 0, Sequence: []byte("ACGTACGT")}})
	store := bifstore.New(3)

	a0 := seqAt(es, 0, 0)
	a3 := seqAt(es, 0, 3)
	store.Add(a0, 1)
	store.Add(a3, 2)

	id, ok := store.Lookup(seqAt(es, 0, 0))
	require.True(t, ok)
	require.Equal(t, uint32(1), id)

	id, ok = store.Lookup(seqAt(es, 0, 3))
	require.True(t, ok)
	require.Equal(t, uint32(2), id)

	_, ok = store.Lookup(seqAt(es, 0, 1))
	require.False(t, ok)

	store.Erase(seqAt(es, 0, 0))
	_, ok = store.Lookup(seqAt(es, 0, 0))
	require.False(t, ok)
	require.Equal(t, 0, store.Count(1))
	require.Equal(t, 1, store.Count(2))
}

func TestAnchorsOfSkipsRemoved(t *testing.T) {
	es := editableseq.New([]dnaseq.Chromosome{{ID: 0, Sequence: []byte("ACGTACGT")}})
	store := bifstore.New(2)

	store.Add(seqAt(es, 0, 0), 1)
	store.Add(seqAt(es, 0, 4), 1)
	require.Equal(t, 2, store.Count(1))

	store.Erase(seqAt(es, 0, 0))
	require.Equal(t, 1, store.Count(1))

	anchors := store.SnapshotAnchors(1)
	require.Len(t, anchors, 1)
	require.Equal(t, uint32(4), anchors[0].It.OriginalPos())
}

func TestTokensDistinguishStrand(t *testing.T) {
	es := editableseq.New([]dnaseq.Chromosome{{ID: 0, Sequence: []byte("ACGTACGT")}})
	store := bifstore.New(2)

	pos := es.Begin(0, dnaseq.Positive)
	for i := 0; i < 2; i++ {
		pos.Next()
	}
	neg := editableseq.WrapPhysical(0, dnaseq.Negative, pos.Physical())

	store.Add(pos, 1)
	store.Add(neg, 2)

	id, ok := store.Lookup(pos)
	require.True(t, ok)
	require.Equal(t, uint32(1), id)

	id, ok = store.Lookup(neg)
	require.True(t, ok)
	require.Equal(t, uint32(2), id)
}
