package bfevfl

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDicTreeSearchReachability(t *testing.T) {
	keys := []string{"Always", "Rejection", "Before_FirstTouchdown", "FirstTouchdown"}
	tree := newDicTree()
	for _, k := range keys {
		tree.insert(k)
	}
	for _, k := range keys {
		data := new(big.Int).SetBytes([]byte(k))
		node := tree.search(data, false)
		require.Equal(t, 0, node.data.Cmp(data), "search(%q) did not reach its own key", k)
	}
}

func TestDicInsertionOrder(t *testing.T) {
	keys := []string{"Zebra", "Apple", "Mango", "Banana"}
	tree := newDicTree()
	for _, k := range keys {
		tree.insert(k)
	}
	table := tree.indexTable()
	require.Equal(t, "", table[0].name, "row 0 is the sentinel root")
	var got []string
	for _, row := range table[1:] {
		got = append(got, row.name)
	}
	require.Equal(t, keys, got)
}

func TestDicEngineCompatibility(t *testing.T) {
	t.Run("flags", func(t *testing.T) {
		keys := []string{
			"Always", "Rejection", "Before_FirstTouchdown", "FirstTouchdown",
			"FindDungeon_Activated", "FindDungeon_Finish", "FindDungeon_1stClear",
			"IsPlayed_Demo103_0",
		}
		tree := newDicTree()
		for _, k := range keys {
			tree.insert(k)
		}
		table := tree.indexTable()

		wantBitIdx := []int{-1, 0, 1, 0xB, 0x70, 2, 3, 2, 4}
		wantIdx0 := []int{1, 2, 5, 4, 4, 6, 8, 7, 0}
		wantIdx1 := []int{0, 1, 7, 2, 3, 5, 6, 3, 8}

		require.Len(t, table, len(wantBitIdx))
		for i, row := range table {
			require.Equal(t, wantBitIdx[i], row.compactBitIdx, "row %d compact_bit_idx", i)
			require.Equal(t, wantIdx0[i], row.idx0, "row %d idx0", i)
			require.Equal(t, wantIdx1[i], row.idx1, "row %d idx1", i)
		}
	})

	t.Run("vectors", func(t *testing.T) {
		keys := []string{
			"CreateMode", "IsGrounding", "IsWorld", "PosX", "PosY", "PosZ",
			"RotX", "RotY", "RotZ",
		}
		tree := newDicTree()
		for _, k := range keys {
			tree.insert(k)
		}
		table := tree.indexTable()

		wantBitIdx := []int{-1, 0, 1, 2, 3, 2, 1, 8, 8, 8}
		wantIdx0 := []int{1, 6, 5, 4, 0, 8, 3, 7, 8, 9}
		wantIdx1 := []int{0, 2, 2, 3, 7, 1, 9, 4, 5, 6}

		require.Len(t, table, len(wantBitIdx))
		for i, row := range table {
			require.Equal(t, wantBitIdx[i], row.compactBitIdx, "row %d compact_bit_idx", i)
			require.Equal(t, wantIdx0[i], row.idx0, "row %d idx0", i)
			require.Equal(t, wantIdx1[i], row.idx1, "row %d idx1", i)
		}
	})
}

func TestDicWriteReadRoundTrip(t *testing.T) {
	keys := []string{"Always", "Rejection", "Before_FirstTouchdown", "FirstTouchdown"}
	w := newWriteStream()
	dic := newDicWriter()
	for _, k := range keys {
		dic.Insert(k)
	}
	dic.Write(w)
	w.Finalise()

	s := newReadStream(w.Bytes())
	got, err := readDic(s)
	require.NoError(t, err)
	require.Equal(t, keys, got)
}
