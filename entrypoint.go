package bfevfl

// Variable is one slot of an entry point's local variable dictionary: a
// typed scalar keyed by name in the owning EntryPoint's Vars, carrying a
// slot number that the flowchart's bytecode uses to address it at runtime.
type Variable struct {
	Slot       uint16
	Type       variableType
	IntValue   int32
	FloatValue float32
}

// read decodes a 16-byte Variable record: the typed 4-byte value, a
// reserved word, the slot number, the type tag, and a second reserved word.
func (v *Variable) read(s *ReadStream) error {
	offset := s.Tell()
	s.Skip(8)
	num, err := s.ReadU16()
	if err != nil {
		return err
	}
	rawType, err := s.ReadU16()
	if err != nil {
		return err
	}
	vt := variableType(rawType)
	if vt != variableTypeInteger && vt != variableTypeFloat {
		return wrap("Variable.read", KindUnknownTag, nil)
	}
	s.Seek(offset)
	switch vt {
	case variableTypeInteger:
		iv, err := s.ReadS32()
		if err != nil {
			return err
		}
		v.IntValue = iv
	case variableTypeFloat:
		fv, err := s.ReadF32()
		if err != nil {
			return err
		}
		v.FloatValue = fv
	}
	v.Slot = num
	v.Type = vt
	s.Seek(offset + 16)
	return nil
}

func (v Variable) write(w *WriteStream) {
	switch v.Type {
	case variableTypeInteger:
		w.WriteS32(v.IntValue)
	case variableTypeFloat:
		w.WriteF32(v.FloatValue)
	}
	w.WriteU32(0)
	w.WriteU16(v.Slot)
	w.WriteU16(uint16(v.Type))
	w.WriteU32(0)
}

// EntryPointVar pairs a Variable with the name it is looked up by.
type EntryPointVar struct {
	Name     string
	Variable Variable
}

// EntryPoint is a named starting point into a Flowchart's Events, optionally
// carrying the set of SubFlow events reachable from it and a local variable
// dictionary.
type EntryPoint struct {
	Name                string
	MainEvent           RequiredRef[Event]
	SubFlowEventIndices []uint16
	Vars                []EntryPointVar

	subFlowPH   *placeholder
	varsDicPH   *placeholder
	varsArrayPH *placeholder
}

func (e *EntryPoint) readFrom(s *ReadStream) error {
	subFlowOffset, err := s.ReadU64()
	if err != nil {
		return err
	}
	varsDicOffset, err := s.ReadU64()
	if err != nil {
		return err
	}
	varsArrayOffset, err := s.ReadU64()
	if err != nil {
		return err
	}
	numSubFlow, err := s.ReadU16()
	if err != nil {
		return err
	}
	numVars, err := s.ReadU16()
	if err != nil {
		return err
	}
	mainIdx, err := s.ReadU16()
	if err != nil {
		return err
	}
	reserved, err := s.ReadU16()
	if err != nil {
		return err
	}
	if reserved != 0 {
		return wrap("EntryPoint.read", KindInvariantViolated, nil)
	}
	e.MainEvent.idx = mainIdx

	if numSubFlow > 0 {
		if subFlowOffset == 0 {
			return wrap("EntryPoint.read", KindInvariantViolated, nil)
		}
		err := s.withSeek(int64(subFlowOffset), func() error {
			out := make([]uint16, numSubFlow)
			for i := range out {
				v, err := s.ReadU16()
				if err != nil {
					return err
				}
				out[i] = v
			}
			e.SubFlowEventIndices = out
			return nil
		})
		if err != nil {
			return err
		}
	}

	if numVars > 0 {
		var names []string
		err := s.withSeek(int64(varsDicOffset), func() error {
			v, err := readDic(s)
			names = v
			return err
		})
		if err != nil {
			return err
		}
		if len(names) != int(numVars) {
			return wrap("EntryPoint.read", KindInvariantViolated, nil)
		}
		err = s.withSeek(int64(varsArrayOffset), func() error {
			for _, name := range names {
				var v Variable
				if err := v.read(s); err != nil {
					return err
				}
				e.Vars = append(e.Vars, EntryPointVar{Name: name, Variable: v})
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// write emits the 32-byte EntryPoint record. The variable dictionary is a
// genuine extension of the reference layout this format was built from,
// whose own writer never populated it; ours mirrors the placeholder/
// extra-data two-phase pattern used by every other deferred array here.
// The caller must have already called e.MainEvent.reindex beforehand; the
// entry point's name itself is not written here, since it lives in the
// flowchart's entry-point DIC.
func (e *EntryPoint) write(w *WriteStream) {
	e.subFlowPH = w.WritePlaceholderPtrIf(len(e.SubFlowEventIndices) > 0, true)
	e.varsDicPH = w.WritePlaceholderPtrIf(len(e.Vars) > 0, false)
	e.varsArrayPH = w.WritePlaceholderPtrIf(len(e.Vars) > 0, true)

	w.WriteU16(uint16(len(e.SubFlowEventIndices)))
	w.WriteU16(uint16(len(e.Vars)))
	w.WriteU16(e.MainEvent.idx)
	w.WriteU16(0)
}

func (e *EntryPoint) writeExtraData(w *WriteStream) {
	if e.subFlowPH != nil {
		e.subFlowPH.patchCurrentOffset(w)
		for _, idx := range e.SubFlowEventIndices {
			w.WriteU16(idx)
		}
		w.Align(8)
	}
	if len(e.Vars) > 0 {
		dic := newDicWriter()
		for _, v := range e.Vars {
			dic.Insert(v.Name)
		}
		e.varsDicPH.patchCurrentOffset(w)
		dic.Write(w)
		w.Align(8)
		e.varsArrayPH.patchCurrentOffset(w)
		for _, v := range e.Vars {
			v.Variable.write(w)
		}
	}
	w.Skip(0x18)
}
