package unrolled_test

import (
	"testing"

	"github.com/grailbio/testutil/assert"

	"github.com/grailbio/bio-synteny/internal/unrolled"
)

func origsFor(n int) []uint32 {
	o := make([]uint32, n)
	for i := range o {
		o[i] = uint32(i)
	}
	return o
}

func readAll(l *unrolled.List) string {
	var buf []byte
	for it := l.Begin(); it.Valid(); it.Next() {
		buf = append(buf, it.Read())
	}
	return string(buf)
}

func TestRoundTrip(t *testing.T) {
	seq := "ACGTACGTACGT"
	l := unrolled.New([]byte(seq), origsFor(len(seq)))
	assert.EQ(t, l.Size(), len(seq))
	assert.EQ(t, readAll(l), seq)

	pos := 0
	for it := l.Begin(); it.Valid(); it.Next() {
		assert.EQ(t, int(it.OriginalPos()), pos)
		pos++
	}
}

func TestEraseTombstonesAndSkipsOnIteration(t *testing.T) {
	seq := "ACGTACGT"
	l := unrolled.New([]byte(seq), origsFor(len(seq)))

	it := l.Begin()
	it.Next()
	it.Next() // pointing at index 2 ('G')
	after := it
	after.Next()
	after.Next() // index 4 ('A')

	l.Erase(it, after)
	assert.EQ(t, readAll(l), "ACACGT")
	assert.EQ(t, l.Size(), 6)
}

func TestIteratorsOutsideRangeSurviveErase(t *testing.T) {
	seq := "ACGTACGTACGT"
	l := unrolled.New([]byte(seq), origsFor(len(seq)))

	first := l.Begin()
	last := l.Begin()
	for i := 0; i < len(seq)-1; i++ {
		last.Next()
	}
	assert.EQ(t, last.Read(), byte('T'))

	mid := l.Begin()
	mid.Next()
	mid.Next()
	mid.Next()
	mid.Next() // index 4
	midEnd := mid
	midEnd.Next()
	midEnd.Next() // index 6, exclusive end

	l.Erase(mid, midEnd)

	assert.EQ(t, first.Read(), byte('A'))
	assert.EQ(t, last.Read(), byte('T'))
	assert.EQ(t, int(last.OriginalPos()), len(seq)-1)
}

func TestInsertOverTombstoneReusesSlot(t *testing.T) {
	seq := "ACGT"
	l := unrolled.New([]byte(seq), origsFor(len(seq)))

	it := l.Begin()
	it.Next() // index 1 ('C')
	after := it
	after.Next() // index 2

	l.Erase(it, after) // tombstone index 1

	// it still names the tombstoned slot.
	l.Insert(it, []byte{'X'}, []uint32{99}, nil, nil)
	assert.EQ(t, readAll(l), "AXGT")
}

func TestInsertSplitsChunkAndNotifies(t *testing.T) {
	seq := make([]byte, unrolled.NodeSize)
	for i := range seq {
		seq[i] = 'A'
	}
	l := unrolled.New(seq, origsFor(len(seq)))

	target := l.Begin()
	for i := 0; i < 5; i++ {
		target.Next()
	}

	var beforeCount, afterCount int
	l.Insert(target, []byte("GG"), []uint32{1000, 1001},
		func(r unrolled.Range) { r.ForEach(func(unrolled.Iterator) { beforeCount++ }) },
		func(r unrolled.Range) { r.ForEach(func(unrolled.Iterator) { afterCount++ }) },
	)
	assert.EQ(t, beforeCount, unrolled.NodeSize-5)
	assert.EQ(t, afterCount, unrolled.NodeSize-5)
	assert.EQ(t, l.Size(), unrolled.NodeSize+2)
}

func TestEmptyList(t *testing.T) {
	l := unrolled.New(nil, nil)
	assert.EQ(t, l.Size(), 0)
	assert.EQ(t, l.Begin().IsEnd(), true)
	assert.EQ(t, l.RBegin().IsREnd(), true)
}
