package bfevfl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPascalStringEncode(t *testing.T) {
	require.Equal(t,
		[]byte{0x05, 0x00, 'H', 'e', 'l', 'l', 'o', 0x00},
		pascalStringBytes("Hello"))

	want := []byte{
		0x1A, 0x00,
		0x52, 0x6F, 0x6F, 0x74, 0x2F, 0x54, 0x69, 0x6D, 0x65, 0x6C, 0x69, 0x6E, 0x65,
		0x2F, 0x53, 0x6C, 0x65, 0x65, 0x70, 0x2F, 0xE5, 0x88, 0xB0, 0xE7, 0x9D, 0x80,
		0x00,
	}
	require.Equal(t, want, pascalStringBytes("Root/Timeline/Sleep/到着"))
}

func TestPascalStringRoundTrip(t *testing.T) {
	cases := []string{
		"",
		"Hello",
		"Root/Timeline/Sleep/到着",
		"Always",
		"FindDungeon_Activated",
	}
	for _, s := range cases {
		encoded := pascalStringBytes(s)
		got, err := readPascalString(encoded, 0)
		require.NoError(t, err)
		require.Equal(t, s, got)
	}
}

func TestReadPascalStringTruncated(t *testing.T) {
	_, err := readPascalString([]byte{0x05, 0x00, 'H', 'i'}, 0)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindTruncated, kind)
}
