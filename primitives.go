package bfevfl

import (
	"encoding/binary"
	"math"
)

// alignUp rounds n up to the next multiple of align (align must be a power
// of two, matching the engine's own alignment discipline).
func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

func putU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }
func putU64(b []byte, v uint64) { binary.LittleEndian.PutUint64(b, v) }
func putS32(b []byte, v int32)  { binary.LittleEndian.PutUint32(b, uint32(v)) }
func putF32(b []byte, v float32) {
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func u16Bytes(v uint16) []byte {
	b := make([]byte, 2)
	putU16(b, v)
	return b
}

func u32Bytes(v uint32) []byte {
	b := make([]byte, 4)
	putU32(b, v)
	return b
}

func u64Bytes(v uint64) []byte {
	b := make([]byte, 8)
	putU64(b, v)
	return b
}

func s32Bytes(v int32) []byte {
	b := make([]byte, 4)
	putS32(b, v)
	return b
}

func f32Bytes(v float32) []byte {
	b := make([]byte, 4)
	putF32(b, v)
	return b
}

// pascalStringBytes encodes s as the engine's Pascal string record: a u16
// byte length, the raw UTF-8 bytes, and a trailing NUL that is not counted
// in the length.
func pascalStringBytes(s string) []byte {
	raw := []byte(s)
	out := make([]byte, 0, 2+len(raw)+1)
	out = append(out, u16Bytes(uint16(len(raw)))...)
	out = append(out, raw...)
	out = append(out, 0)
	return out
}

// readCString decodes a plain NUL-terminated string at offset within data,
// with no length prefix. Used only for the file header's own name field,
// which (unlike every other string reference in this format) points
// directly at raw character data rather than a Pascal string record.
func readCString(data []byte, offset int) (string, error) {
	if offset < 0 || offset > len(data) {
		return "", wrap("readCString", KindTruncated, nil)
	}
	end := offset
	for end < len(data) && data[end] != 0 {
		end++
	}
	if end == len(data) {
		return "", wrap("readCString", KindTruncated, nil)
	}
	return string(data[offset:end]), nil
}

// readPascalString decodes a Pascal string record located at offset within
// data: a u16 length followed by that many UTF-8 bytes (the trailing NUL is
// not part of the decoded value).
func readPascalString(data []byte, offset int) (string, error) {
	if offset < 0 || offset+2 > len(data) {
		return "", wrap("readPascalString", KindTruncated, nil)
	}
	length := int(binary.LittleEndian.Uint16(data[offset : offset+2]))
	start := offset + 2
	end := start + length
	if end > len(data) {
		return "", wrap("readPascalString", KindTruncated, nil)
	}
	return string(data[start:end]), nil
}
