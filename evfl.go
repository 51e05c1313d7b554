package bfevfl

// EventFlow is the root of a parsed .bfevfl file: its display name, and
// exactly one of a Flowchart or a Timeline.
type EventFlow struct {
	Name      string
	Flowchart *Flowchart
	Timeline  *Timeline
}

// Parse decodes a complete .bfevfl file image.
func Parse(data []byte) (*EventFlow, error) {
	s := newReadStream(data)
	ef := &EventFlow{}

	magic, err := s.readBytes(8)
	if err != nil {
		return nil, err
	}
	if string(magic) != "BFEVFL\x00\x00" {
		return nil, wrap("Parse", KindMagicMismatch, nil)
	}
	version, err := s.ReadU16()
	if err != nil {
		return nil, err
	}
	if version != 0x0300 {
		return nil, wrap("Parse", KindVersionUnsupported, nil)
	}
	xa, err := s.ReadU8()
	if err != nil {
		return nil, err
	}
	if xa != 0 {
		return nil, wrap("Parse", KindInvariantViolated, nil)
	}
	s.Skip(1) // xb, unknown, never asserted by the engine's own reader either

	bom, err := s.ReadU16()
	if err != nil {
		return nil, err
	}
	if bom != 0xfeff {
		return nil, wrap("Parse", KindEndianUnsupported, nil)
	}
	s.Skip(2) // alignment (shifted), xf: neither affects how this reader decodes the file

	nameOffset, err := s.ReadU32()
	if err != nil {
		return nil, err
	}
	name, err := readCString(data, int(nameOffset))
	if err != nil {
		return nil, err
	}
	ef.Name = name
	logDebug("parsed header: name=%q", ef.Name)

	s.Skip(2) // is_relocated flag: meaningful only to the engine's own loader
	s.Skip(2) // first_block_offset: redundant once the pointer graph below is followed
	s.Skip(4) // relocation_table_offset: only needed by an in-place loader, not this one
	s.Skip(4) // file_size

	numFlowcharts, err := s.ReadU16()
	if err != nil {
		return nil, err
	}
	numTimelines, err := s.ReadU16()
	if err != nil {
		return nil, err
	}
	if numFlowcharts > 1 || numTimelines > 1 {
		return nil, wrap("Parse", KindInvariantViolated, nil)
	}
	x24, err := s.ReadU32()
	if err != nil {
		return nil, err
	}
	if x24 != 0 {
		return nil, wrap("Parse", KindInvariantViolated, nil)
	}

	flowchartArrayOffset, err := s.ReadU64()
	if err != nil {
		return nil, err
	}
	s.Skip(8) // flowchart name dic offset: the flowchart's own name is read again below
	if numFlowcharts == 1 {
		err = s.withSeek(int64(flowchartArrayOffset), func() error {
			fc, err := readPtrObject[Flowchart](s)
			ef.Flowchart = fc
			return err
		})
		if err != nil {
			return nil, err
		}
		logDebug("parsed flowchart: actors=%d events=%d entryPoints=%d",
			len(ef.Flowchart.Actors), len(ef.Flowchart.Events), len(ef.Flowchart.EntryPoints))
	}

	timelineArrayOffset, err := s.ReadU64()
	if err != nil {
		return nil, err
	}
	s.Skip(8) // timeline name dic offset
	if numTimelines == 1 {
		err = s.withSeek(int64(timelineArrayOffset), func() error {
			tl, err := readPtrObject[Timeline](s)
			ef.Timeline = tl
			return err
		})
		if err != nil {
			return nil, err
		}
		logDebug("parsed timeline: actors=%d clips=%d oneshots=%d",
			len(ef.Timeline.Actors), len(ef.Timeline.Clips), len(ef.Timeline.Oneshots))
	}

	return ef, nil
}

// Serialize encodes ef as a complete .bfevfl file image. Exactly one of
// Flowchart or Timeline must be set.
func (ef *EventFlow) Serialize() ([]byte, error) {
	if (ef.Flowchart == nil) == (ef.Timeline == nil) {
		return nil, wrap("Serialize", KindEmptyContent, nil)
	}

	w := newWriteStream()
	w.Write([]byte("BFEVFL\x00\x00"))
	w.WriteU16(0x0300)
	w.WriteU8(0)
	w.WriteU8(0)
	w.WriteU16(0xfeff)
	w.WriteU8(3) // alignment, shifted
	w.WriteU8(0)
	w.WriteStringRef(ef.Name, true)
	w.WriteU16(0) // is_relocated, only set by the engine's own loader after patching
	firstBlockOffsetPH := w.WritePlaceholderU16()
	relocationTableOffsetPH := w.WritePlaceholderU32()
	fileSizePH := w.WritePlaceholderU32()
	if ef.Flowchart != nil {
		w.WriteU16(1)
	} else {
		w.WriteU16(0)
	}
	if ef.Timeline != nil {
		w.WriteU16(1)
	} else {
		w.WriteU16(0)
	}
	w.WriteU32(0)

	flowchartArrayPH := w.WritePlaceholderPtrIf(ef.Flowchart != nil, true)
	flowchartDic := newDicWriter()
	if ef.Flowchart != nil {
		flowchartDic.Insert(ef.Flowchart.Name)
	}
	flowchartDicPH := flowchartDic.WritePlaceholderOffset(w)

	timelineArrayPH := w.WritePlaceholderPtrIf(ef.Timeline != nil, true)
	timelineDic := newDicWriter()
	if ef.Timeline != nil {
		timelineDic.Insert(ef.Timeline.Name)
	}
	timelineDicPH := timelineDic.WritePlaceholderOffset(w)

	// Both the flowchart and the timeline are referenced through a one-element
	// pointer array rather than directly, matching the double indirection the
	// reader follows (an array offset, then the single pointer stored there).
	var flowchartElemPH, timelineElemPH *placeholder
	if flowchartArrayPH != nil {
		flowchartArrayPH.patchCurrentOffset(w)
		p := w.WritePlaceholderPtr()
		flowchartElemPH = &p
	}
	flowchartDicPH.patchCurrentOffset(w)
	flowchartDic.Write(w)

	if timelineArrayPH != nil {
		timelineArrayPH.patchCurrentOffset(w)
		p := w.WritePlaceholderPtr()
		timelineElemPH = &p
	}
	timelineDicPH.patchCurrentOffset(w)
	timelineDic.Write(w)

	var firstBlockOffset int
	if ef.Flowchart != nil {
		firstBlockOffset = w.Tell()
		selfOffset, err := ef.Flowchart.write(w)
		if err != nil {
			return nil, err
		}
		flowchartElemPH.patchU64(w, uint64(selfOffset))
	} else {
		selfOffset, err := ef.Timeline.write(w)
		if err != nil {
			return nil, err
		}
		timelineElemPH.patchU64(w, uint64(selfOffset))
		firstBlockOffset = selfOffset
	}

	reltOffset := w.Finalise()
	firstBlockOffsetPH.patchU16(w, uint16(firstBlockOffset))
	fileSizePH.patchU32(w, uint32(w.Tell()))
	relocationTableOffsetPH.patchU32(w, uint32(reltOffset))
	logDebug("finalised: size=%d strings=%d relocationTableOffset=%d",
		w.Tell(), w.UniqueStringCount(), reltOffset)

	return w.Bytes(), nil
}
