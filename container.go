package bfevfl

// ContainerValueKind discriminates the variant carried by a ContainerValue.
// Containers are a small closed set of scalar/array/nested shapes, so a
// tagged struct with a kind switch reads and writes more directly here
// than an interface with one implementation per variant would.
type ContainerValueKind int

const (
	ContainerInt ContainerValueKind = iota
	ContainerBool
	ContainerFloat
	ContainerString
	ContainerArgument
	ContainerActorIdentifier
	ContainerIntArray
	ContainerBoolArray
	ContainerFloatArray
	ContainerStringArray
	ContainerNested
)

// ContainerValue is one value stored in a Container. Exactly the field(s)
// matching Kind are meaningful.
type ContainerValue struct {
	Kind ContainerValueKind

	Int     int32
	Bool    bool
	Float   float32
	Str     string // ContainerString and ContainerArgument
	Actor   ActorIdentifier
	Nested  *Container

	IntArray    []int32
	BoolArray   []bool
	FloatArray  []float32
	StringArray []string
}

func IntValue(v int32) ContainerValue      { return ContainerValue{Kind: ContainerInt, Int: v} }
func BoolValue(v bool) ContainerValue      { return ContainerValue{Kind: ContainerBool, Bool: v} }
func FloatValue(v float32) ContainerValue  { return ContainerValue{Kind: ContainerFloat, Float: v} }
func StringValue(v string) ContainerValue  { return ContainerValue{Kind: ContainerString, Str: v} }
func ArgumentValue(v string) ContainerValue {
	return ContainerValue{Kind: ContainerArgument, Str: v}
}
func ActorIdentifierValue(v ActorIdentifier) ContainerValue {
	return ContainerValue{Kind: ContainerActorIdentifier, Actor: v}
}
func NestedValue(v *Container) ContainerValue {
	return ContainerValue{Kind: ContainerNested, Nested: v}
}

// ContainerEntry is one key/value pair, in the order it must round-trip in.
type ContainerEntry struct {
	Key   string
	Value ContainerValue
}

// Container is the format's polymorphic, ordered key/value store. Key
// order is preserved across round-trip; strings held inside a Container
// are written inline rather than through the shared string pool, an
// asymmetry the engine itself has (see writeContainerItem).
type Container struct {
	Entries []ContainerEntry
}

// Get returns the value for key and whether it was present.
func (c *Container) Get(key string) (ContainerValue, bool) {
	for _, e := range c.Entries {
		if e.Key == key {
			return e.Value, true
		}
	}
	return ContainerValue{}, false
}

// Set appends or replaces the value for key, preserving first-insertion
// position on replace.
func (c *Container) Set(key string, v ContainerValue) {
	for i, e := range c.Entries {
		if e.Key == key {
			c.Entries[i].Value = v
			return
		}
	}
	c.Entries = append(c.Entries, ContainerEntry{Key: key, Value: v})
}

func (c *Container) readFrom(s *ReadStream) error {
	dataType, err := s.ReadU8()
	if err != nil {
		return err
	}
	if containerDataType(dataType) != containerTypeContainer {
		return wrap("Container.read", KindUnknownTag, nil)
	}
	s.Skip(1)
	numItems, err := s.ReadU16()
	if err != nil {
		return err
	}
	if x4, err := s.ReadU32(); err != nil {
		return err
	} else if x4 != 0 {
		return wrap("Container.read", KindInvariantViolated, nil)
	}
	dicOffset, err := s.ReadU64()
	if err != nil {
		return err
	}
	entries, err := readContainerBody(s, int(numItems), dicOffset)
	if err != nil {
		return err
	}
	c.Entries = entries
	return nil
}

// readContainerBody reads the part of a Container's wire layout that
// follows its 16-byte header: a contiguous array of numItems u64 item
// pointers (read sequentially from the stream's current position), keyed
// by the names held in the DIC at dicOffset. It is shared between the
// top-level Container and a nested ContainerNested item, whose common
// 16-byte item header already doubles as that 16-byte Container header.
func readContainerBody(s *ReadStream, numItems int, dicOffset uint64) ([]ContainerEntry, error) {
	var names []string
	err := s.withSeek(int64(dicOffset), func() error {
		v, err := readDic(s)
		names = v
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(names) != numItems {
		return nil, wrap("readContainerBody", KindInvariantViolated, nil)
	}
	entries := make([]ContainerEntry, 0, numItems)
	for _, name := range names {
		ptr, err := s.ReadU64()
		if err != nil {
			return nil, err
		}
		var value ContainerValue
		err = s.withSeek(int64(ptr), func() error {
			v, err := readContainerItem(s)
			if err != nil {
				return err
			}
			value = v
			return nil
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, ContainerEntry{Key: name, Value: value})
	}
	return entries, nil
}

func readContainerItem(s *ReadStream) (ContainerValue, error) {
	rawType, err := s.ReadU8()
	if err != nil {
		return ContainerValue{}, err
	}
	dataType := containerDataType(rawType)
	s.Skip(1)
	numItems, err := s.ReadU16()
	if err != nil {
		return ContainerValue{}, err
	}
	if x4, err := s.ReadU32(); err != nil {
		return ContainerValue{}, err
	} else if x4 != 0 {
		return ContainerValue{}, wrap("Container.readItem", KindInvariantViolated, nil)
	}
	dicOffset, err := s.ReadU64()
	if err != nil {
		return ContainerValue{}, err
	}
	if dataType != containerTypeContainer && dicOffset != 0 {
		return ContainerValue{}, wrap("Container.readItem", KindInvariantViolated, nil)
	}

	switch dataType {
	case containerTypeInt:
		v, err := s.ReadS32()
		return ContainerValue{Kind: ContainerInt, Int: v}, err
	case containerTypeIntArray:
		out := make([]int32, numItems)
		for i := range out {
			if out[i], err = s.ReadS32(); err != nil {
				return ContainerValue{}, err
			}
		}
		return ContainerValue{Kind: ContainerIntArray, IntArray: out}, nil

	case containerTypeBool:
		v, err := s.ReadS32()
		return ContainerValue{Kind: ContainerBool, Bool: v != 0}, err
	case containerTypeBoolArray:
		out := make([]bool, numItems)
		for i := range out {
			v, err := s.ReadS32()
			if err != nil {
				return ContainerValue{}, err
			}
			out[i] = v != 0
		}
		return ContainerValue{Kind: ContainerBoolArray, BoolArray: out}, nil

	case containerTypeFloat:
		v, err := s.ReadF32()
		return ContainerValue{Kind: ContainerFloat, Float: v}, err
	case containerTypeFloatArray:
		out := make([]float32, numItems)
		for i := range out {
			if out[i], err = s.ReadF32(); err != nil {
				return ContainerValue{}, err
			}
		}
		return ContainerValue{Kind: ContainerFloatArray, FloatArray: out}, nil

	case containerTypeString:
		v, err := s.ReadStringRef()
		return ContainerValue{Kind: ContainerString, Str: v}, err
	case containerTypeStringArray:
		out := make([]string, numItems)
		for i := range out {
			if out[i], err = s.ReadStringRef(); err != nil {
				return ContainerValue{}, err
			}
		}
		return ContainerValue{Kind: ContainerStringArray, StringArray: out}, nil

	case containerTypeArgument:
		v, err := s.ReadStringRef()
		return ContainerValue{Kind: ContainerArgument, Str: v}, err

	case containerTypeActorIdentifier:
		var a ActorIdentifier
		if err := a.read(s); err != nil {
			return ContainerValue{}, err
		}
		return ContainerValue{Kind: ContainerActorIdentifier, Actor: a}, nil

	case containerTypeContainer:
		entries, err := readContainerBody(s, int(numItems), dicOffset)
		if err != nil {
			return ContainerValue{}, err
		}
		return ContainerValue{Kind: ContainerNested, Nested: &Container{Entries: entries}}, nil

	case containerTypeWString, containerTypeWStringArray:
		return ContainerValue{}, wrap("Container.readItem", KindUnknownTag, nil)

	default:
		return ContainerValue{}, wrap("Container.readItem", KindUnknownTag, nil)
	}
}

func (c *Container) write(w *WriteStream) {
	w.WriteU8(uint8(containerTypeContainer))
	w.WriteU8(0)
	w.WriteU16(uint16(len(c.Entries)))
	w.WriteU32(0)

	dic := newDicWriter()
	for _, e := range c.Entries {
		dic.Insert(e.Key)
	}
	dicPH := dic.WritePlaceholderOffset(w)

	itemPHs := make([]placeholder, len(c.Entries))
	for i := range c.Entries {
		itemPHs[i] = w.WritePlaceholderPtr()
	}

	dicPH.patchCurrentOffset(w)
	dic.Write(w)

	for i, e := range c.Entries {
		w.Align(8)
		itemPHs[i].patchCurrentOffset(w)
		writeContainerItem(w, e.Value)
	}
}

func writeItemHeader(w *WriteStream, dataType containerDataType, numItems int) {
	w.WriteU8(uint8(dataType))
	w.WriteU8(0)
	w.WriteU16(uint16(numItems))
	w.WriteU32(0)
	w.WriteU64(0)
}

func writeContainerItem(w *WriteStream, v ContainerValue) {
	switch v.Kind {
	case ContainerBool:
		writeItemHeader(w, containerTypeBool, 1)
		if v.Bool {
			w.WriteU32(0x80000001)
		} else {
			w.WriteU32(0)
		}

	case ContainerInt:
		writeItemHeader(w, containerTypeInt, 1)
		w.WriteS32(v.Int)

	case ContainerFloat:
		writeItemHeader(w, containerTypeFloat, 1)
		w.WriteF32(v.Float)

	case ContainerString, ContainerArgument:
		dataType := containerTypeString
		if v.Kind == ContainerArgument {
			dataType = containerTypeArgument
		}
		writeItemHeader(w, dataType, 1)
		ph := w.WritePlaceholderPtr()
		ph.patchCurrentOffset(w)
		w.Write(pascalStringBytes(v.Str))

	case ContainerActorIdentifier:
		writeItemHeader(w, containerTypeActorIdentifier, 2)
		ph1 := w.WritePlaceholderPtr()
		ph2 := w.WritePlaceholderPtr()
		ph1.patchCurrentOffset(w)
		w.Write(pascalStringBytes(v.Actor.Name))
		// Unlike every other inline string array, the two strings of an
		// ActorIdentifier are only 2-byte aligned between them.
		w.Align(2)
		ph2.patchCurrentOffset(w)
		w.Write(pascalStringBytes(v.Actor.SubName))

	case ContainerIntArray:
		writeItemHeader(w, containerTypeIntArray, len(v.IntArray))
		for _, x := range v.IntArray {
			w.WriteS32(x)
		}

	case ContainerBoolArray:
		writeItemHeader(w, containerTypeBoolArray, len(v.BoolArray))
		for _, x := range v.BoolArray {
			if x {
				w.WriteS32(1)
			} else {
				w.WriteS32(0)
			}
		}

	case ContainerFloatArray:
		writeItemHeader(w, containerTypeFloatArray, len(v.FloatArray))
		for _, x := range v.FloatArray {
			w.WriteF32(x)
		}

	case ContainerStringArray:
		writeItemHeader(w, containerTypeStringArray, len(v.StringArray))
		phs := make([]placeholder, len(v.StringArray))
		for i := range v.StringArray {
			phs[i] = w.WritePlaceholderPtr()
		}
		for i, s := range v.StringArray {
			w.Align(8)
			phs[i].patchCurrentOffset(w)
			w.Write(pascalStringBytes(s))
		}

	case ContainerNested:
		// A nested container reuses the top-level Container wire format
		// wholesale (its own 16-byte header, DIC, and item array), so it
		// is written directly rather than through writeItemHeader.
		v.Nested.write(w)
	}
}

// IsEmpty reports whether a params container should be omitted entirely
// (the format writes a null pointer rather than an empty container).
func (c *Container) IsEmpty() bool {
	return c == nil || len(c.Entries) == 0
}
