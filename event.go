package bfevfl

// EventKind discriminates the variant payload carried by an Event. A
// closed, Nintendo-defined set of five shapes, so a tagged struct with a
// kind switch is used rather than an interface with one type per variant.
type EventKind int

const (
	EventAction EventKind = iota
	EventSwitch
	EventFork
	EventJoin
	EventSubFlow
)

// ActionEventData calls one action method on an actor, then continues at
// Next (or terminates the flow if Next is unresolved).
type ActionEventData struct {
	Next        Ref[Event]
	Actor       RequiredRef[Actor]
	ActorAction RequiredRef[StringHolder]
	Params      *Container

	paramsPH *placeholder
}

// SwitchCase is one value/destination pair of a SwitchEventData's branch
// table, in on-disk order.
type SwitchCase struct {
	Value uint32
	Next  RequiredRef[Event]
}

// SwitchEventData evaluates one query method on an actor and branches to
// the case whose Value matches the result.
type SwitchEventData struct {
	Actor      RequiredRef[Actor]
	ActorQuery RequiredRef[StringHolder]
	Params     *Container
	Cases      []SwitchCase

	paramsPH *placeholder
	casesPH  *placeholder
}

// ForkEventData starts every event in Forks concurrently; each branch is
// expected to eventually reach Join.
type ForkEventData struct {
	Join  RequiredRef[Event]
	Forks []RequiredRef[Event]

	forksPH *placeholder
}

// JoinEventData is a fork's rendezvous point: control resumes at Next once
// every concurrent branch has reached a JoinEvent referencing it.
type JoinEventData struct {
	Next Ref[Event]
}

// SubFlowEventData invokes another flow's entry point and continues at
// Next once it returns. ResFlowchartName is empty for a same-file call and
// otherwise names the external resource to resolve EntryPointName in.
type SubFlowEventData struct {
	Next             Ref[Event]
	Params           *Container
	ResFlowchartName string
	EntryPointName   string

	paramsPH *placeholder
}

// Event is one node of a Flowchart's control graph: a name (often empty,
// used for matching against save state or debug overlays) and exactly one
// variant payload selected by Kind.
type Event struct {
	Name string
	Kind EventKind

	Action  *ActionEventData
	Switch  *SwitchEventData
	Fork    *ForkEventData
	Join    *JoinEventData
	SubFlow *SubFlowEventData
}

func (e *Event) readFrom(s *ReadStream) error {
	name, err := s.ReadStringRef()
	if err != nil {
		return err
	}
	e.Name = name
	rawType, err := s.ReadU8()
	if err != nil {
		return err
	}
	s.Skip(1)

	switch eventType(rawType) {
	case eventTypeAction:
		d := &ActionEventData{}
		if err := d.readFrom(s); err != nil {
			return err
		}
		e.Kind, e.Action = EventAction, d
	case eventTypeSwitch:
		d := &SwitchEventData{}
		if err := d.readFrom(s); err != nil {
			return err
		}
		e.Kind, e.Switch = EventSwitch, d
	case eventTypeFork:
		d := &ForkEventData{}
		if err := d.readFrom(s); err != nil {
			return err
		}
		e.Kind, e.Fork = EventFork, d
	case eventTypeJoin:
		d := &JoinEventData{}
		if err := d.readFrom(s); err != nil {
			return err
		}
		e.Kind, e.Join = EventJoin, d
	case eventTypeSubFlow:
		d := &SubFlowEventData{}
		if err := d.readFrom(s); err != nil {
			return err
		}
		e.Kind, e.SubFlow = EventSubFlow, d
	default:
		return wrap("Event.read", KindUnknownTag, nil)
	}
	return nil
}

func (d *ActionEventData) readFrom(s *ReadStream) error {
	next, err := s.ReadU16()
	if err != nil {
		return err
	}
	d.Next.idx = next
	actor, err := s.ReadU16()
	if err != nil {
		return err
	}
	d.Actor.idx = actor
	action, err := s.ReadU16()
	if err != nil {
		return err
	}
	d.ActorAction.idx = action
	params, err := readPtrObject[Container](s)
	if err != nil {
		return err
	}
	d.Params = params
	unused1, err := s.ReadU64()
	if err != nil {
		return err
	}
	unused2, err := s.ReadU64()
	if err != nil {
		return err
	}
	if unused1 != 0 || unused2 != 0 {
		return wrap("ActionEventData.read", KindInvariantViolated, nil)
	}
	return nil
}

func (d *SwitchEventData) readFrom(s *ReadStream) error {
	numCases, err := s.ReadU16()
	if err != nil {
		return err
	}
	actor, err := s.ReadU16()
	if err != nil {
		return err
	}
	d.Actor.idx = actor
	query, err := s.ReadU16()
	if err != nil {
		return err
	}
	d.ActorQuery.idx = query
	params, err := readPtrObject[Container](s)
	if err != nil {
		return err
	}
	d.Params = params
	casesOffset, err := s.ReadU64()
	if err != nil {
		return err
	}
	err = s.withSeek(int64(casesOffset), func() error {
		for i := uint16(0); i < numCases; i++ {
			value, err := s.ReadU32()
			if err != nil {
				return err
			}
			eventIdx, err := s.ReadU16()
			if err != nil {
				return err
			}
			c := SwitchCase{Value: value}
			c.Next.idx = eventIdx
			d.Cases = append(d.Cases, c)
			s.Align(8)
		}
		return nil
	})
	if err != nil {
		return err
	}
	unused, err := s.ReadU64()
	if err != nil {
		return err
	}
	if unused != 0 {
		return wrap("SwitchEventData.read", KindInvariantViolated, nil)
	}
	return nil
}

func (d *ForkEventData) readFrom(s *ReadStream) error {
	numForks, err := s.ReadU16()
	if err != nil {
		return err
	}
	join, err := s.ReadU16()
	if err != nil {
		return err
	}
	d.Join.idx = join
	unused, err := s.ReadU16()
	if err != nil {
		return err
	}
	if unused != 0 {
		return wrap("ForkEventData.read", KindInvariantViolated, nil)
	}
	forksOffset, err := s.ReadU64()
	if err != nil {
		return err
	}
	if numForks == 0 || forksOffset == 0 {
		return wrap("ForkEventData.read", KindCorrupt, nil)
	}
	err = s.withSeek(int64(forksOffset), func() error {
		d.Forks = make([]RequiredRef[Event], numForks)
		for i := range d.Forks {
			idx, err := s.ReadU16()
			if err != nil {
				return err
			}
			d.Forks[i].idx = idx
		}
		return nil
	})
	if err != nil {
		return err
	}
	unused1, err := s.ReadU64()
	if err != nil {
		return err
	}
	unused2, err := s.ReadU64()
	if err != nil {
		return err
	}
	if unused1 != 0 || unused2 != 0 {
		return wrap("ForkEventData.read", KindInvariantViolated, nil)
	}
	return nil
}

func (d *JoinEventData) readFrom(s *ReadStream) error {
	next, err := s.ReadU16()
	if err != nil {
		return err
	}
	d.Next.idx = next
	unused1, err := s.ReadU16()
	if err != nil {
		return err
	}
	unused2, err := s.ReadU16()
	if err != nil {
		return err
	}
	if unused1 != 0 || unused2 != 0 {
		return wrap("JoinEventData.read", KindInvariantViolated, nil)
	}
	for i := 0; i < 3; i++ {
		v, err := s.ReadU64()
		if err != nil {
			return err
		}
		if v != 0 {
			return wrap("JoinEventData.read", KindInvariantViolated, nil)
		}
	}
	return nil
}

func (d *SubFlowEventData) readFrom(s *ReadStream) error {
	next, err := s.ReadU16()
	if err != nil {
		return err
	}
	d.Next.idx = next
	unused1, err := s.ReadU16()
	if err != nil {
		return err
	}
	unused2, err := s.ReadU16()
	if err != nil {
		return err
	}
	if unused1 != 0 || unused2 != 0 {
		return wrap("SubFlowEventData.read", KindInvariantViolated, nil)
	}
	params, err := readPtrObject[Container](s)
	if err != nil {
		return err
	}
	d.Params = params
	resName, err := s.ReadStringRef()
	if err != nil {
		return err
	}
	d.ResFlowchartName = resName
	epName, err := s.ReadStringRef()
	if err != nil {
		return err
	}
	if epName == "" {
		return wrap("SubFlowEventData.read", KindCorrupt, nil)
	}
	d.EntryPointName = epName
	return nil
}

func (e *Event) write(w *WriteStream) {
	w.WriteStringRef(e.Name, false)
	switch e.Kind {
	case EventAction:
		w.WriteU8(uint8(eventTypeAction))
	case EventSwitch:
		w.WriteU8(uint8(eventTypeSwitch))
	case EventFork:
		w.WriteU8(uint8(eventTypeFork))
	case EventJoin:
		w.WriteU8(uint8(eventTypeJoin))
	case EventSubFlow:
		w.WriteU8(uint8(eventTypeSubFlow))
	}
	w.WriteU8(0)

	switch e.Kind {
	case EventAction:
		e.Action.write(w)
	case EventSwitch:
		e.Switch.write(w)
	case EventFork:
		e.Fork.write(w)
	case EventJoin:
		e.Join.write(w)
	case EventSubFlow:
		e.SubFlow.write(w)
	}
}

func (e *Event) writeExtraData(w *WriteStream) {
	switch e.Kind {
	case EventAction:
		e.Action.writeExtraData(w)
	case EventSwitch:
		e.Switch.writeExtraData(w)
	case EventFork:
		e.Fork.writeExtraData(w)
	case EventJoin:
		// No extra data.
	case EventSubFlow:
		e.SubFlow.writeExtraData(w)
	}
}

func (d *ActionEventData) write(w *WriteStream) {
	w.WriteU16(d.Next.idx)
	w.WriteU16(d.Actor.idx)
	w.WriteU16(d.ActorAction.idx)
	// Unlike most deferred pointers, an absent-params placeholder here is
	// never registered, matching the source layout this was built from.
	d.paramsPH = w.WritePlaceholderPtrIf(!d.Params.IsEmpty(), false)
	w.WriteU64(0)
	w.WriteU64(0)
}

func (d *ActionEventData) writeExtraData(w *WriteStream) {
	if d.paramsPH != nil && !d.Params.IsEmpty() {
		d.paramsPH.patchCurrentOffset(w)
		d.Params.write(w)
	}
}

func (d *SwitchEventData) write(w *WriteStream) {
	w.WriteU16(uint16(len(d.Cases)))
	w.WriteU16(d.Actor.idx)
	w.WriteU16(d.ActorQuery.idx)
	d.paramsPH = w.WritePlaceholderPtrIf(!d.Params.IsEmpty(), false)
	d.casesPH = w.WritePlaceholderPtrIf(len(d.Cases) > 0, true)
	w.WriteU64(0)
}

func (d *SwitchEventData) writeExtraData(w *WriteStream) {
	// The case table is written first, matching the reference layout.
	if d.casesPH != nil {
		w.Align(8)
		d.casesPH.patchCurrentOffset(w)
		for _, c := range d.Cases {
			w.WriteU32(c.Value)
			w.WriteU16(c.Next.idx)
			w.Align(8)
		}
	}
	if d.paramsPH != nil && !d.Params.IsEmpty() {
		d.paramsPH.patchCurrentOffset(w)
		d.Params.write(w)
	}
}

func (d *ForkEventData) write(w *WriteStream) {
	w.WriteU16(uint16(len(d.Forks)))
	w.WriteU16(d.Join.idx)
	w.WriteU16(0)
	p := w.WritePlaceholderPtr()
	d.forksPH = &p
	w.WriteU64(0)
	w.WriteU64(0)
}

func (d *ForkEventData) writeExtraData(w *WriteStream) {
	if d.forksPH != nil {
		d.forksPH.patchCurrentOffset(w)
		for _, fork := range d.Forks {
			w.WriteU16(fork.idx)
		}
		w.Align(8)
	}
}

func (d *JoinEventData) write(w *WriteStream) {
	w.WriteU16(d.Next.idx)
	w.WriteU16(0)
	w.WriteU16(0)
	w.WriteU64(0)
	w.WriteU64(0)
	w.WriteU64(0)
}

func (d *SubFlowEventData) write(w *WriteStream) {
	w.WriteU16(d.Next.idx)
	w.WriteU16(0)
	w.WriteU16(0)
	d.paramsPH = w.WritePlaceholderPtrIf(!d.Params.IsEmpty(), false)
	w.WriteStringRef(d.ResFlowchartName, false)
	w.WriteStringRef(d.EntryPointName, false)
}

func (d *SubFlowEventData) writeExtraData(w *WriteStream) {
	if d.paramsPH != nil && !d.Params.IsEmpty() {
		d.paramsPH.patchCurrentOffset(w)
		d.Params.write(w)
	}
}
