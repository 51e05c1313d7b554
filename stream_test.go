package bfevfl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWritePlaceholderPtrIf(t *testing.T) {
	w := newWriteStream()
	p := w.WritePlaceholderPtrIf(false, false)
	require.Nil(t, p)
	require.Empty(t, w.pointers)

	w2 := newWriteStream()
	p2 := w2.WritePlaceholderPtrIf(false, true)
	require.Nil(t, p2)
	require.Contains(t, w2.pointers, 0)

	w3 := newWriteStream()
	p3 := w3.WritePlaceholderPtrIf(true, false)
	require.NotNil(t, p3)
	require.Contains(t, w3.pointers, 0)
}

func TestWriteStreamPatch(t *testing.T) {
	w := newWriteStream()
	ph := w.WritePlaceholderU32()
	w.WriteU32(0xAABBCCDD)
	ph.patchU32(w, 42)

	require.Equal(t, uint32(42), u32At(w.Bytes(), 0))
	require.Equal(t, uint32(0xAABBCCDD), u32At(w.Bytes(), 4))
}

func u32At(b []byte, off int) uint32 {
	s := newReadStream(b)
	s.Seek(off)
	v, _ := s.ReadU32()
	return v
}

func TestAlignUp(t *testing.T) {
	cases := []struct{ n, align, want int }{
		{0, 8, 0}, {1, 8, 8}, {8, 8, 8}, {9, 8, 16}, {3, 2, 4}, {4, 2, 4},
	}
	for _, c := range cases {
		require.Equal(t, c.want, alignUp(c.n, c.align))
	}
}

func TestStringSortKeyGroupsByLowBits(t *testing.T) {
	// "a" (0x61 = 110 0001) reversed is 100 0011, "b" (0x62 = 110 0010)
	// reversed is 010 0011; low bits come first in the sort key, which
	// flips their relative order versus a byte-wise comparison.
	ka := stringSortKey("a")
	kb := stringSortKey("b")
	require.Less(t, kb, ka)
}

// TestWriteInvariants exercises part of P7: after writing a small container
// of a string and an int array, every registered pointer site lands inside
// the container's data region, and a "RELT" section starts at the offset
// Finalise returns.
func TestWriteInvariants(t *testing.T) {
	c := &Container{Entries: []ContainerEntry{
		{Key: "name", Value: StringValue("hello")},
		{Key: "nums", Value: ContainerValue{Kind: ContainerIntArray, IntArray: []int32{1, 2, 3}}},
	}}
	w := newWriteStream()
	c.write(w)
	dataEnd := w.Tell()
	reltOffset := w.Finalise()

	require.Less(t, reltOffset, len(w.Bytes()))
	for p := range w.pointers {
		require.GreaterOrEqual(t, p, 0)
		require.Less(t, p, dataEnd, "pointer site %d must fall before the RELT section", p)
	}

	s := newReadStream(w.Bytes())
	s.Seek(reltOffset)
	magic, err := s.readBytes(4)
	require.NoError(t, err)
	require.Equal(t, "RELT", string(magic))
}
