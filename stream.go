package bfevfl

import (
	"encoding/binary"
	"math"
	"math/big"
	"sort"
)

// ReadStream is a cursor over an in-memory file image. Every read advances
// the cursor; withSeek is the only way to read from elsewhere without
// losing the caller's place.
type ReadStream struct {
	data []byte
	pos  int
}

func newReadStream(data []byte) *ReadStream {
	return &ReadStream{data: data}
}

func (s *ReadStream) Tell() int { return s.pos }

func (s *ReadStream) Seek(abs int) {
	s.pos = abs
}

func (s *ReadStream) Skip(n int) {
	s.pos += n
}

func (s *ReadStream) Align(n int) {
	s.pos = alignUp(s.pos, n)
}

// withSeek runs fn with the cursor temporarily at offset, then restores it.
func (s *ReadStream) withSeek(offset int64, fn func() error) error {
	saved := s.pos
	s.pos = int(offset)
	err := fn()
	s.pos = saved
	return err
}

func (s *ReadStream) readBytes(n int) ([]byte, error) {
	if n < 0 || s.pos+n > len(s.data) {
		return nil, wrap("ReadStream.readBytes", KindTruncated, nil)
	}
	b := s.data[s.pos : s.pos+n]
	s.pos += n
	return b, nil
}

func (s *ReadStream) ReadU8() (uint8, error) {
	b, err := s.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (s *ReadStream) ReadU16() (uint16, error) {
	b, err := s.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (s *ReadStream) ReadU32() (uint32, error) {
	b, err := s.readBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (s *ReadStream) ReadU64() (uint64, error) {
	b, err := s.readBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (s *ReadStream) ReadS32() (int32, error) {
	v, err := s.ReadU32()
	return int32(v), err
}

func (s *ReadStream) ReadF32() (float32, error) {
	v, err := s.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// ReadStringRef reads a u64 absolute offset; 0 decodes to the empty string,
// anything else points at a Pascal string record elsewhere in the file.
func (s *ReadStream) ReadStringRef() (string, error) {
	ptr, err := s.ReadU64()
	if err != nil {
		return "", err
	}
	if ptr == 0 {
		return "", nil
	}
	return readPascalString(s.data, int(ptr))
}

// readPtrObject reads a u64 absolute offset and, if non-zero, seeks there
// and decodes a single T, restoring the cursor afterward. A zero offset
// yields a nil *T and no error.
func readPtrObject[T any, PT interface {
	*T
	readFrom(*ReadStream) error
}](s *ReadStream) (*T, error) {
	ptr, err := s.ReadU64()
	if err != nil {
		return nil, err
	}
	if ptr == 0 {
		return nil, nil
	}
	v := new(T)
	err = s.withSeek(int64(ptr), func() error {
		return PT(v).readFrom(s)
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// readPtrObjects reads a u64 absolute base offset followed by n contiguous
// Ts at that base. n == 0 yields a nil slice.
func readPtrObjects[T any, PT interface {
	*T
	readFrom(*ReadStream) error
}](s *ReadStream, n int) ([]*T, error) {
	base, err := s.ReadU64()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	out := make([]*T, n)
	err = s.withSeek(int64(base), func() error {
		for i := 0; i < n; i++ {
			v := new(T)
			if err := PT(v).readFrom(s); err != nil {
				return err
			}
			out[i] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// WriteStream is a growable, zero-filled memory image with a cursor, a
// pending string pool, and a pointer-site registry for the relocation
// table. Writes past the current end grow the buffer with zero bytes, so a
// Seek/Skip past the end behaves like writing reserved padding.
type WriteStream struct {
	buf      []byte
	pos      int
	pointers map[int]bool

	strings     map[string][]stringRef
	stringOrder []string
}

type stringRef struct {
	offset       int
	isHeaderName bool
}

func newWriteStream() *WriteStream {
	w := &WriteStream{
		pointers: make(map[int]bool),
		strings:  make(map[string][]stringRef),
	}
	// The empty string is always a member of the pool, matching the
	// engine's own writer: even a file where every string field happens
	// to be non-empty still carries a spurious zero-length entry.
	w.strings[""] = nil
	w.stringOrder = append(w.stringOrder, "")
	return w
}

func (w *WriteStream) Tell() int { return w.pos }

func (w *WriteStream) ensureLen(n int) {
	if n > len(w.buf) {
		w.buf = append(w.buf, make([]byte, n-len(w.buf))...)
	}
}

func (w *WriteStream) Write(data []byte) {
	w.ensureLen(w.pos + len(data))
	copy(w.buf[w.pos:], data)
	w.pos += len(data)
}

func (w *WriteStream) Seek(abs int) {
	w.pos = abs
	w.ensureLen(abs)
}

func (w *WriteStream) Skip(n int) {
	w.Seek(w.pos + n)
}

func (w *WriteStream) Align(n int) {
	w.Seek(alignUp(w.pos, n))
}

func (w *WriteStream) WriteU8(v uint8)     { w.Write([]byte{v}) }
func (w *WriteStream) WriteU16(v uint16)   { w.Write(u16Bytes(v)) }
func (w *WriteStream) WriteU32(v uint32)   { w.Write(u32Bytes(v)) }
func (w *WriteStream) WriteU64(v uint64)   { w.Write(u64Bytes(v)) }
func (w *WriteStream) WriteS32(v int32)    { w.Write(s32Bytes(v)) }
func (w *WriteStream) WriteF32(v float32)  { w.Write(f32Bytes(v)) }

// registerPointer marks offset as a pointer site that belongs in the
// relocation table.
func (w *WriteStream) registerPointer(offset int) {
	w.pointers[offset] = true
}

// WriteNullPtr writes an 8-byte zero pointer, optionally registering it as
// a relocation site (a null entry still occupies a slot the engine may
// patch in place later).
func (w *WriteStream) WriteNullPtr(register bool) {
	if register {
		w.registerPointer(w.pos)
	}
	w.WriteU64(0)
}

// placeholder is a deferred write site: a fixed-size gap already written to
// the stream, to be overwritten in place once the real value is known.
type placeholder struct {
	offset int
	size   int
}

func (w *WriteStream) writePlaceholder(size int) placeholder {
	p := placeholder{offset: w.pos, size: size}
	w.Write(make([]byte, size))
	return p
}

// WritePlaceholderPtr writes an 8-byte placeholder and registers it as a
// pointer site.
func (w *WriteStream) WritePlaceholderPtr() placeholder {
	w.registerPointer(w.pos)
	return w.writePlaceholder(8)
}

// WritePlaceholderPtrIf writes a placeholder pointer when cond holds, or a
// null pointer otherwise. The null branch registers its slot as a pointer
// site only when registerIfNull is set: some fields keep a relocation entry
// for an always-absent pointer purely to preserve alignment, others don't.
// Returns nil when cond is false, matching the "nothing to patch later"
// case.
func (w *WriteStream) WritePlaceholderPtrIf(cond bool, registerIfNull bool) *placeholder {
	if !cond {
		w.WriteNullPtr(registerIfNull)
		return nil
	}
	p := w.WritePlaceholderPtr()
	return &p
}

// WritePlaceholderU16/U32/U64 write sized placeholders without registering
// them as pointers (for counts and non-pointer deferred fields).
func (w *WriteStream) WritePlaceholderU16() placeholder { return w.writePlaceholder(2) }
func (w *WriteStream) WritePlaceholderU32() placeholder { return w.writePlaceholder(4) }
func (w *WriteStream) WritePlaceholderU64() placeholder { return w.writePlaceholder(8) }

func (w *WriteStream) patch(p placeholder, data []byte) {
	if len(data) != p.size {
		panic("bfevfl: placeholder size mismatch")
	}
	cur := w.pos
	w.pos = p.offset
	w.Write(data)
	w.pos = cur
}

func (p placeholder) patchU16(w *WriteStream, v uint16) { w.patch(p, u16Bytes(v)) }
func (p placeholder) patchU32(w *WriteStream, v uint32) { w.patch(p, u32Bytes(v)) }
func (p placeholder) patchU64(w *WriteStream, v uint64) { w.patch(p, u64Bytes(v)) }

// patchCurrentOffset patches a pointer placeholder with the stream's
// current position, the common "I am about to write the pointee here"
// idiom used throughout the format.
func (p placeholder) patchCurrentOffset(w *WriteStream) {
	p.patchU64(w, uint64(w.pos))
}

// WriteStringRef records a deferred reference to s in the pool and writes
// a placeholder at the current position: a u32 for header names (relative
// to the header's own base, hence +2 to skip past the length prefix) or a
// u64 pointer everywhere else.
func (w *WriteStream) WriteStringRef(s string, isHeaderName bool) {
	if _, ok := w.strings[s]; !ok {
		w.stringOrder = append(w.stringOrder, s)
	}
	w.strings[s] = append(w.strings[s], stringRef{offset: w.pos, isHeaderName: isHeaderName})
	if isHeaderName {
		w.WriteU32(0xffffffff)
	} else {
		w.registerPointer(w.pos)
		w.WriteU64(0xffffffffffffffff)
	}
}

// stringSortKey reproduces the engine's canonical string pool order: the
// UTF-8 bytes are read as a big-endian integer, rendered as a binary digit
// string with no leading zeros, then reversed bit-for-bit. Sorting
// ascending by this key groups strings by their low bits first rather than
// their high bits, an intentional quirk of the original tool that must be
// reproduced exactly for byte-identical output.
func stringSortKey(s string) string {
	n := new(big.Int).SetBytes([]byte(s))
	bits := n.Text(2)
	out := make([]byte, len(bits))
	for i := 0; i < len(bits); i++ {
		out[i] = bits[len(bits)-1-i]
	}
	return string(out)
}

// writeStringPool emits the "STR " section header followed by every
// pooled string in canonical sort order, patching all of its deferred
// references to the offset it ends up at.
func (w *WriteStream) writeStringPool() {
	w.Write([]byte("STR "))
	w.WriteU32(0) // reserved
	w.WriteU64(0) // reserved
	w.WriteU32(w.UniqueStringCount())

	type entry struct {
		key     string
		sortKey string
	}
	entries := make([]entry, len(w.stringOrder))
	for i, k := range w.stringOrder {
		entries[i] = entry{key: k, sortKey: stringSortKey(k)}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].sortKey < entries[j].sortKey
	})

	for _, e := range entries {
		offset := w.pos
		for _, ref := range w.strings[e.key] {
			w.pos = ref.offset
			if ref.isHeaderName {
				w.Write(u32Bytes(uint32(offset + 2)))
			} else {
				w.Write(u64Bytes(uint64(offset)))
			}
		}
		w.pos = offset
		w.Write(pascalStringBytes(e.key))
		w.Align(2)
	}
}

// UniqueStringCount is the header's "unique non-empty string count" field:
// the pool's key count minus the always-present empty string.
func (w *WriteStream) UniqueStringCount() uint32 {
	return uint32(len(w.strings) - 1)
}

// writeRelocationTable emits the "RELT" section describing every
// registered pointer site as a sequence of (base offset, 32-bit bitmap)
// entries, each bitmap covering up to 32 consecutive 8-byte-stride
// candidate slots starting at its base.
func (w *WriteStream) writeRelocationTable(dataEnd int) {
	remaining := make(map[int]bool, len(w.pointers))
	sites := make([]int, 0, len(w.pointers))
	for off := range w.pointers {
		remaining[off] = true
		sites = append(sites, off)
	}
	sort.Ints(sites)

	tableOffset := w.pos
	w.Write([]byte("RELT"))
	w.WriteU32(uint32(tableOffset))
	w.WriteU32(1) // section count
	w.WriteU32(0) // reserved

	w.WriteU64(0) // alternate offset, unused by the engine
	w.WriteU32(0) // base
	w.WriteU32(uint32(dataEnd))
	w.WriteU32(0) // entries to skip
	countPlaceholder := w.WritePlaceholderU32()

	count := 0
	for _, p := range sites {
		if !remaining[p] {
			continue // already covered by an earlier entry's bitmap
		}
		var bitmap uint32
		for i := 0; i < 32; i++ {
			addr := p + 8*i
			if remaining[addr] {
				bitmap |= 1 << uint(i)
				delete(remaining, addr)
			}
		}
		w.WriteU32(uint32(p))
		w.WriteU32(bitmap)
		count++
	}
	countPlaceholder.patchU32(w, uint32(count))
}

// Finalise appends the string pool and relocation table, the two sections
// every top-level write defers to the very end of the file, and returns
// the byte offset the RELT section starts at (for the file header).
func (w *WriteStream) Finalise() int {
	w.Align(8)
	w.writeStringPool()
	dataEnd := w.pos
	w.Align(8)
	reltOffset := w.pos
	w.writeRelocationTable(dataEnd)
	return reltOffset
}

// Bytes returns the finished image. Call only after Finalise.
func (w *WriteStream) Bytes() []byte {
	return w.buf
}
