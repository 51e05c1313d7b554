package bfevfl

// Flowchart is a complete, self-contained control graph: the actors it
// dispatches actions/queries against, every event node, and the named
// entry points callers can start execution from.
type Flowchart struct {
	Name        string
	Actors      []*Actor
	Events      []*Event
	EntryPoints []*EntryPoint
}

func (f *Flowchart) readFrom(s *ReadStream) error {
	magic, err := s.readBytes(4)
	if err != nil {
		return err
	}
	if string(magic) != "EVFL" {
		return wrap("Flowchart.read", KindMagicMismatch, nil)
	}
	s.Skip(4) // string pool rel offset, not needed once the file is fully in memory
	x8, err := s.ReadU32()
	if err != nil {
		return err
	}
	xc, err := s.ReadU32()
	if err != nil {
		return err
	}
	if x8 != 0 || xc != 0 {
		return wrap("Flowchart.read", KindInvariantViolated, nil)
	}
	numActors, err := s.ReadU16()
	if err != nil {
		return err
	}
	s.Skip(2) // num_actions, derived from the actors themselves
	s.Skip(2) // num_queries, ditto
	numEvents, err := s.ReadU16()
	if err != nil {
		return err
	}
	numEntryPoints, err := s.ReadU16()
	if err != nil {
		return err
	}
	x1a, err := s.ReadU16()
	if err != nil {
		return err
	}
	x1c, err := s.ReadU16()
	if err != nil {
		return err
	}
	x1e, err := s.ReadU16()
	if err != nil {
		return err
	}
	if x1a != 0 || x1c != 0 || x1e != 0 {
		return wrap("Flowchart.read", KindInvariantViolated, nil)
	}
	name, err := s.ReadStringRef()
	if err != nil {
		return err
	}
	f.Name = name

	actorsOffset, err := s.ReadU64()
	if err != nil {
		return err
	}
	err = s.withSeek(int64(actorsOffset), func() error {
		for i := uint16(0); i < numActors; i++ {
			a := &Actor{}
			if err := a.readFrom(s); err != nil {
				return err
			}
			f.Actors = append(f.Actors, a)
		}
		return nil
	})
	if err != nil {
		return err
	}

	eventsOffset, err := s.ReadU64()
	if err != nil {
		return err
	}
	err = s.withSeek(int64(eventsOffset), func() error {
		for i := uint16(0); i < numEvents; i++ {
			e := &Event{}
			if err := e.readFrom(s); err != nil {
				return err
			}
			f.Events = append(f.Events, e)
		}
		return nil
	})
	if err != nil {
		return err
	}

	entryPointDicOffset, err := s.ReadU64()
	if err != nil {
		return err
	}
	var entryPointNames []string
	err = s.withSeek(int64(entryPointDicOffset), func() error {
		v, err := readDic(s)
		entryPointNames = v
		return err
	})
	if err != nil {
		return err
	}
	if len(entryPointNames) != int(numEntryPoints) {
		return wrap("Flowchart.read", KindInvariantViolated, nil)
	}

	entryPointsOffset, err := s.ReadU64()
	if err != nil {
		return err
	}
	err = s.withSeek(int64(entryPointsOffset), func() error {
		for _, name := range entryPointNames {
			ep := &EntryPoint{Name: name}
			if err := ep.readFrom(s); err != nil {
				return err
			}
			f.EntryPoints = append(f.EntryPoints, ep)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return f.resolveReferences()
}

// resolveReferences turns every on-disk index into a live pointer, then
// recomputes each entry point's sub-flow event index list by walking its
// graph (the indices on disk are derived data that reindexReferences also
// recomputes on write; recomputing here is simpler and self-consistent than
// trusting them).
func (f *Flowchart) resolveReferences() error {
	for _, a := range f.Actors {
		a.ArgumentEntryPoint.resolve(f.EntryPoints)
	}
	for _, e := range f.Events {
		switch e.Kind {
		case EventAction:
			d := e.Action
			d.Next.resolve(f.Events)
			if err := d.Actor.resolve(f.Actors); err != nil {
				return err
			}
			if err := d.ActorAction.resolve(d.Actor.Value.Actions); err != nil {
				return err
			}
		case EventSwitch:
			d := e.Switch
			if err := d.Actor.resolve(f.Actors); err != nil {
				return err
			}
			if err := d.ActorQuery.resolve(d.Actor.Value.Queries); err != nil {
				return err
			}
			for i := range d.Cases {
				if err := d.Cases[i].Next.resolve(f.Events); err != nil {
					return err
				}
			}
		case EventFork:
			d := e.Fork
			if err := d.Join.resolve(f.Events); err != nil {
				return err
			}
			for i := range d.Forks {
				if err := d.Forks[i].resolve(f.Events); err != nil {
					return err
				}
			}
		case EventJoin:
			e.Join.Next.resolve(f.Events)
		case EventSubFlow:
			e.SubFlow.Next.resolve(f.Events)
		}
	}
	for _, ep := range f.EntryPoints {
		if err := ep.MainEvent.resolve(f.Events); err != nil {
			return err
		}
	}
	for _, ep := range f.EntryPoints {
		ep.SubFlowEventIndices = subFlowReachability(ep, f.Events)
	}
	return nil
}

// subFlowReachability returns the indices (into events) of every SubFlow
// event reachable from ep.MainEvent, in first-visit BFS order, recursing
// through Switch cases and Fork branches.
func subFlowReachability(ep *EntryPoint, events []*Event) []uint16 {
	idxOf := MakeIndexMap(events)
	visited := make(map[*Event]bool)
	var order []uint16
	queue := []*Event{}
	if ep.MainEvent.Value != nil {
		queue = append(queue, ep.MainEvent.Value)
	}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e == nil || visited[e] {
			continue
		}
		visited[e] = true

		switch e.Kind {
		case EventAction:
			if e.Action.Next.Value != nil {
				queue = append(queue, e.Action.Next.Value)
			}
		case EventSwitch:
			for _, c := range e.Switch.Cases {
				if c.Next.Value != nil {
					queue = append(queue, c.Next.Value)
				}
			}
		case EventFork:
			for _, fork := range e.Fork.Forks {
				if fork.Value != nil {
					queue = append(queue, fork.Value)
				}
			}
			if e.Fork.Join.Value != nil {
				queue = append(queue, e.Fork.Join.Value)
			}
		case EventJoin:
			if e.Join.Next.Value != nil {
				queue = append(queue, e.Join.Next.Value)
			}
		case EventSubFlow:
			order = append(order, uint16(idxOf[e]))
			if e.SubFlow.Next.Value != nil {
				queue = append(queue, e.SubFlow.Next.Value)
			}
		}
	}
	return order
}

// write emits the full Flowchart section and returns the byte offset it
// started at, for the owning EventFlow root to point its flowchart pointer
// at.
func (f *Flowchart) write(w *WriteStream) (int, error) {
	if err := f.reindexReferences(); err != nil {
		return 0, err
	}

	selfOffset := w.Tell()
	w.Write([]byte("EVFL"))
	stringPoolRelOffset := w.WritePlaceholderU32()
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteU16(uint16(len(f.Actors)))
	w.WriteU16(uint16(f.actionCount()))
	w.WriteU16(uint16(f.queryCount()))
	w.WriteU16(uint16(len(f.Events)))
	w.WriteU16(uint16(len(f.EntryPoints)))
	w.WriteU16(0)
	w.WriteU16(0)
	w.WriteU16(0)
	w.WriteStringRef(f.Name, false)

	actorsPH := w.WritePlaceholderPtrIf(len(f.Actors) > 0, true)
	eventsPH := w.WritePlaceholderPtrIf(len(f.Events) > 0, true)

	entryPointsDic := newDicWriter()
	entryPointsDicPH := entryPointsDic.WritePlaceholderOffset(w)
	entryPointsPH := w.WritePlaceholderPtrIf(len(f.EntryPoints) > 0, true)

	if actorsPH != nil {
		actorsPH.patchCurrentOffset(w)
		for _, a := range f.Actors {
			a.write(w)
		}
	}

	if eventsPH != nil {
		eventsPH.patchCurrentOffset(w)
		for _, e := range f.Events {
			e.write(w)
		}
	}

	for _, ep := range f.EntryPoints {
		entryPointsDic.Insert(ep.Name)
	}
	entryPointsDicPH.patchCurrentOffset(w)
	entryPointsDic.Write(w)
	w.Align(8)

	if entryPointsPH != nil {
		entryPointsPH.patchCurrentOffset(w)
		for _, ep := range f.EntryPoints {
			ep.write(w)
		}
	}

	for _, e := range f.Events {
		w.Align(8)
		e.writeExtraData(w)
	}
	for _, a := range f.Actors {
		w.Align(8)
		a.writeExtraData(w)
	}
	for _, ep := range f.EntryPoints {
		w.Align(8)
		ep.writeExtraData(w)
	}

	w.Align(8)
	stringPoolRelOffset.patchU32(w, uint32(w.Tell()-selfOffset))
	return selfOffset, nil
}

func (f *Flowchart) actionCount() int {
	n := 0
	for _, a := range f.Actors {
		n += len(a.Actions)
	}
	return n
}

func (f *Flowchart) queryCount() int {
	n := 0
	for _, a := range f.Actors {
		n += len(a.Queries)
	}
	return n
}

// reindexReferences derives every on-disk index from the current arena
// ordering and recomputes each entry point's sub-flow event list, so a
// caller that mutated the graph in place never has to do either by hand.
func (f *Flowchart) reindexReferences() error {
	actorIdx := MakeIndexMap(f.Actors)
	eventIdx := MakeIndexMap(f.Events)
	entryPointIdx := MakeIndexMap(f.EntryPoints)

	for _, a := range f.Actors {
		a.ArgumentEntryPoint.reindex(entryPointIdx)
	}
	for _, e := range f.Events {
		switch e.Kind {
		case EventAction:
			d := e.Action
			d.Next.reindex(eventIdx)
			if err := d.Actor.reindex(actorIdx); err != nil {
				return err
			}
			if d.Actor.Value == nil {
				return wrap("Flowchart.write", KindUnresolved, nil)
			}
			if err := d.ActorAction.reindex(MakeIndexMap(d.Actor.Value.Actions)); err != nil {
				return err
			}
		case EventSwitch:
			d := e.Switch
			if err := d.Actor.reindex(actorIdx); err != nil {
				return err
			}
			if d.Actor.Value == nil {
				return wrap("Flowchart.write", KindUnresolved, nil)
			}
			if err := d.ActorQuery.reindex(MakeIndexMap(d.Actor.Value.Queries)); err != nil {
				return err
			}
			for i := range d.Cases {
				if err := d.Cases[i].Next.reindex(eventIdx); err != nil {
					return err
				}
			}
		case EventFork:
			d := e.Fork
			if err := d.Join.reindex(eventIdx); err != nil {
				return err
			}
			for i := range d.Forks {
				if err := d.Forks[i].reindex(eventIdx); err != nil {
					return err
				}
			}
		case EventJoin:
			e.Join.Next.reindex(eventIdx)
		case EventSubFlow:
			e.SubFlow.Next.reindex(eventIdx)
		}
	}
	for _, ep := range f.EntryPoints {
		if err := ep.MainEvent.reindex(eventIdx); err != nil {
			return err
		}
		ep.SubFlowEventIndices = subFlowReachability(ep, f.Events)
	}
	return nil
}
