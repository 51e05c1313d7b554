package bfevfl

// Actor is one entity a Flowchart or Timeline can dispatch actions and
// queries against. ArgumentEntryPoint, when resolved, names the entry point
// whose caller is expected to bind an ActorIdentifier argument to this
// actor; Actions and Queries are the ordered sets of method names the
// engine can look this actor up by.
type Actor struct {
	Identifier         ActorIdentifier
	ArgumentName       string
	ArgumentEntryPoint Ref[EntryPoint]
	Actions            []*StringHolder
	Queries            []*StringHolder
	Params             *Container
	// X36 is preserved verbatim: observed as 1 for flowchart actors and
	// other values for timeline actors, with no known meaning beyond that.
	X36 uint16

	actionsPH *placeholder
	queriesPH *placeholder
	paramsPH  *placeholder
}

func (a *Actor) readFrom(s *ReadStream) error {
	if err := a.Identifier.read(s); err != nil {
		return err
	}
	argName, err := s.ReadStringRef()
	if err != nil {
		return err
	}
	a.ArgumentName = argName

	actionsOffset, err := s.ReadU64()
	if err != nil {
		return err
	}
	queriesOffset, err := s.ReadU64()
	if err != nil {
		return err
	}
	params, err := readPtrObject[Container](s)
	if err != nil {
		return err
	}
	a.Params = params

	numActions, err := s.ReadU16()
	if err != nil {
		return err
	}
	numQueries, err := s.ReadU16()
	if err != nil {
		return err
	}
	argEntryPointIdx, err := s.ReadU16()
	if err != nil {
		return err
	}
	a.ArgumentEntryPoint.idx = argEntryPointIdx
	x36, err := s.ReadU16()
	if err != nil {
		return err
	}
	a.X36 = x36

	err = s.withSeek(int64(actionsOffset), func() error {
		for i := uint16(0); i < numActions; i++ {
			name, err := s.ReadStringRef()
			if err != nil {
				return err
			}
			a.Actions = append(a.Actions, &StringHolder{Name: name})
		}
		return nil
	})
	if err != nil {
		return err
	}

	return s.withSeek(int64(queriesOffset), func() error {
		for i := uint16(0); i < numQueries; i++ {
			name, err := s.ReadStringRef()
			if err != nil {
				return err
			}
			a.Queries = append(a.Queries, &StringHolder{Name: name})
		}
		return nil
	})
}

// write emits the 56-byte Actor record. The caller must have already
// called a.ArgumentEntryPoint.reindex beforehand.
func (a *Actor) write(w *WriteStream) {
	a.Identifier.write(w)
	w.WriteStringRef(a.ArgumentName, false)
	a.actionsPH = w.WritePlaceholderPtrIf(len(a.Actions) > 0, true)
	a.queriesPH = w.WritePlaceholderPtrIf(len(a.Queries) > 0, true)
	// Unlike actions/queries, an absent params pointer is not registered: a
	// null-pointer-site inconsistency that comes straight from the format
	// this was built from.
	a.paramsPH = w.WritePlaceholderPtrIf(!a.Params.IsEmpty(), false)
	w.WriteU16(uint16(len(a.Actions)))
	w.WriteU16(uint16(len(a.Queries)))
	w.WriteU16(a.ArgumentEntryPoint.idx)
	w.WriteU16(a.X36)
}

// writeExtraData writes the param container and the two string-ref arrays,
// in that order: params, then actions, then queries.
func (a *Actor) writeExtraData(w *WriteStream) {
	if a.paramsPH != nil && !a.Params.IsEmpty() {
		w.Align(8)
		a.paramsPH.patchCurrentOffset(w)
		a.Params.write(w)
	}
	if a.actionsPH != nil && len(a.Actions) > 0 {
		w.Align(8)
		a.actionsPH.patchCurrentOffset(w)
		for _, s := range a.Actions {
			w.WriteStringRef(s.Name, false)
		}
	}
	if a.queriesPH != nil && len(a.Queries) > 0 {
		w.Align(8)
		a.queriesPH.patchCurrentOffset(w)
		for _, s := range a.Queries {
			w.WriteStringRef(s.Name, false)
		}
	}
}
