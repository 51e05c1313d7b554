package bfevfl

import "math/big"

// dicNode is one node of the engine's binary radix search tree. Unlike a
// classic PATRICIA trie, nodes are not pure branch points: every inserted
// key gets its own node, which doubles as the branch test at its bit_idx.
// A node's children default to itself (a self-loop), the signal that
// traversal has reached this key's own position; insertion overwrites
// exactly one of the two child slots.
type dicNode struct {
	data   *big.Int
	bitIdx int
	child  [2]*dicNode
	parent *dicNode
}

func newDicNode(data *big.Int, bitIdx int, parent *dicNode) *dicNode {
	n := &dicNode{data: data, bitIdx: bitIdx, parent: parent}
	n.child = [2]*dicNode{n, n}
	return n
}

func dicBit(n *big.Int, b int) int {
	if b < 0 {
		return 0
	}
	return int(n.Bit(b))
}

// dicBitMismatch returns the index of the first bit at which a and b
// differ, or -1 if they are equal.
func dicBitMismatch(a, b *big.Int) int {
	max := a.BitLen()
	if b.BitLen() > max {
		max = b.BitLen()
	}
	for i := 0; i < max; i++ {
		if a.Bit(i) != b.Bit(i) {
			return i
		}
	}
	return -1
}

// dicFirst1Bit returns the index of the least significant set bit.
func dicFirst1Bit(n *big.Int) int {
	for i := 0; i < n.BitLen(); i++ {
		if n.Bit(i) == 1 {
			return i
		}
	}
	panic("bfevfl: dicFirst1Bit called with zero value")
}

// dicTree builds the engine's radix search tree one key at a time and
// derives the on-disk index table from it. It is not meant for lookups.
type dicTree struct {
	root    *dicNode
	entries map[string]int // data.String() -> insertion ordinal
	order   []*dicNode      // insertion ordinal -> node, root first
}

func newDicTree() *dicTree {
	root := newDicNode(big.NewInt(0), -1, nil)
	root.parent = root
	t := &dicTree{
		root:    root,
		entries: map[string]int{"0": 0},
		order:   []*dicNode{root},
	}
	return t
}

func (t *dicTree) search(data *big.Int, prev bool) *dicNode {
	if t.root.child[0] == t.root {
		return t.root
	}
	node := t.root.child[0]
	var prevNode *dicNode
	for {
		prevNode = node
		node = node.child[dicBit(data, node.bitIdx)]
		if node.bitIdx <= prevNode.bitIdx {
			break
		}
	}
	if prev {
		return prevNode
	}
	return node
}

func (t *dicTree) insertEntry(data *big.Int, node *dicNode) {
	t.entries[data.String()] = len(t.order)
	t.order = append(t.order, node)
}

func (t *dicTree) ordinalOf(data *big.Int) int {
	return t.entries[data.String()]
}

// insert adds name to the tree, following the engine's exact construction
// algorithm (see dic_test.go for the reference fixtures this must match
// bit-for-bit).
func (t *dicTree) insert(name string) {
	data := new(big.Int).SetBytes([]byte(name))

	current := t.search(data, true)
	bitIdx := dicBitMismatch(current.data, data)
	for bitIdx < current.parent.bitIdx {
		current = current.parent
	}

	switch {
	case bitIdx < current.bitIdx:
		newNode := newDicNode(data, bitIdx, current.parent)
		newNode.child[dicBit(data, bitIdx)^1] = current
		oldParent := current.parent
		oldParent.child[dicBit(data, oldParent.bitIdx)] = newNode
		current.parent = newNode
		t.insertEntry(data, newNode)

	case bitIdx > current.bitIdx:
		newNode := newDicNode(data, bitIdx, current)
		if dicBit(current.data, bitIdx) == dicBit(data, bitIdx)^1 {
			newNode.child[dicBit(data, bitIdx)^1] = current
		} else {
			newNode.child[dicBit(data, bitIdx)^1] = t.root
		}
		current.child[dicBit(data, current.bitIdx)] = newNode
		t.insertEntry(data, newNode)

	default:
		newBitIdx := dicFirst1Bit(data)
		other := current.child[dicBit(data, bitIdx)]
		if other != t.root {
			newBitIdx = dicBitMismatch(other.data, data)
		}
		newNode := newDicNode(data, newBitIdx, current)
		newNode.child[dicBit(data, newBitIdx)^1] = other
		current.child[dicBit(data, bitIdx)] = newNode
		t.insertEntry(data, newNode)
	}
}

type dicIndexEntry struct {
	name          string
	compactBitIdx int
	idx0, idx1    int
}

func dicNodeName(n *dicNode) string {
	if n.data.Sign() == 0 {
		return ""
	}
	return string(n.data.Bytes())
}

// compactBitIdx is the root's bit_idx (-1) for the root row, and otherwise
// numerically identical to bit_idx itself: splitting it into a byte index
// and a sub-byte bit and re-combining it is a no-op, but is kept explicit
// to mirror the engine's own field derivation.
func compactBitIdx(n *dicNode, isRoot bool) int {
	if isRoot {
		return -1
	}
	byteIdx := n.bitIdx / 8
	return (byteIdx << 3) | (n.bitIdx - 8*byteIdx)
}

// indexTable returns every row, root first, in insertion order.
func (t *dicTree) indexTable() []dicIndexEntry {
	out := make([]dicIndexEntry, len(t.order))
	for i, node := range t.order {
		out[i] = dicIndexEntry{
			name:          dicNodeName(node),
			compactBitIdx: compactBitIdx(node, node == t.root),
			idx0:          t.ordinalOf(node.child[0].data),
			idx1:          t.ordinalOf(node.child[1].data),
		}
	}
	return out
}

// DicWriter accumulates keys and emits the engine-compatible "DIC " index
// table. Two-phase use mirrors the format's general forward-reference
// idiom: WritePlaceholderOffset reserves a pointer site at the location
// that should eventually point at the table, and Write later emits the
// table wherever the caller has positioned the stream.
type DicWriter struct {
	tree *dicTree
}

func newDicWriter() *DicWriter {
	return &DicWriter{tree: newDicTree()}
}

// Insert adds a key. Keys must be unique within one DIC.
func (d *DicWriter) Insert(key string) {
	d.tree.insert(key)
}

// WritePlaceholderOffset reserves an 8-byte pointer site for this DIC's
// eventual location.
func (d *DicWriter) WritePlaceholderOffset(w *WriteStream) placeholder {
	return w.WritePlaceholderPtr()
}

// Write emits the index table at the stream's current position.
func (d *DicWriter) Write(w *WriteStream) {
	w.Write([]byte("DIC "))
	table := d.tree.indexTable()
	w.WriteU32(uint32(len(table) - 1))
	for _, e := range table {
		w.WriteU32(uint32(int32(e.compactBitIdx)))
		w.WriteU16(uint16(e.idx0))
		w.WriteU16(uint16(e.idx1))
		w.WriteStringRef(e.name, false)
	}
}

// readDic parses a "DIC " index table at the stream's current position
// and returns its non-root keys in table order.
func readDic(s *ReadStream) ([]string, error) {
	magic, err := s.readBytes(4)
	if err != nil {
		return nil, err
	}
	if string(magic) != "DIC " {
		return nil, wrap("readDic", KindInvariantViolated, nil)
	}
	numEntries, err := s.ReadU32()
	if err != nil {
		return nil, err
	}
	s.Skip(4 + 2 + 2 + 8) // root row
	items := make([]string, 0, numEntries)
	for i := uint32(0); i < numEntries; i++ {
		s.Skip(4 + 2 + 2)
		name, err := s.ReadStringRef()
		if err != nil {
			return nil, err
		}
		if name == "" {
			return nil, wrap("readDic", KindInvariantViolated, nil)
		}
		items = append(items, name)
	}
	return items, nil
}
