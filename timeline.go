package bfevfl

// Clip plays one action on an actor for [StartTime, StartTime+Duration),
// addressed by a Trigger elsewhere in the timeline.
type Clip struct {
	StartTime   float32
	Duration    float32
	Actor       RequiredRef[Actor]
	ActorAction RequiredRef[StringHolder]
	// Xc is preserved verbatim; its meaning is unknown.
	Xc     uint8
	Params *Container

	paramsPH *placeholder
}

func (c *Clip) readFrom(s *ReadStream) error {
	startTime, err := s.ReadF32()
	if err != nil {
		return err
	}
	c.StartTime = startTime
	duration, err := s.ReadF32()
	if err != nil {
		return err
	}
	c.Duration = duration
	actor, err := s.ReadU16()
	if err != nil {
		return err
	}
	c.Actor.idx = actor
	action, err := s.ReadU16()
	if err != nil {
		return err
	}
	c.ActorAction.idx = action
	xc, err := s.ReadU8()
	if err != nil {
		return err
	}
	c.Xc = xc
	s.Skip(3)
	params, err := readPtrObject[Container](s)
	if err != nil {
		return err
	}
	c.Params = params
	return nil
}

// write emits the 24-byte Clip record, deferring the params container to
// writeExtraData the same way an Action event defers its own params.
func (c *Clip) write(w *WriteStream) {
	w.WriteF32(c.StartTime)
	w.WriteF32(c.Duration)
	w.WriteU16(c.Actor.idx)
	w.WriteU16(c.ActorAction.idx)
	w.WriteU8(c.Xc)
	w.Skip(3)
	c.paramsPH = w.WritePlaceholderPtrIf(!c.Params.IsEmpty(), false)
}

func (c *Clip) writeExtraData(w *WriteStream) {
	if c.paramsPH != nil && !c.Params.IsEmpty() {
		w.Align(8)
		c.paramsPH.patchCurrentOffset(w)
		c.Params.write(w)
	}
}

// Oneshot fires one action on an actor instantaneously at Time.
type Oneshot struct {
	Time        float32
	Actor       RequiredRef[Actor]
	ActorAction RequiredRef[StringHolder]
	Params      *Container

	paramsPH *placeholder
}

func (o *Oneshot) readFrom(s *ReadStream) error {
	t, err := s.ReadF32()
	if err != nil {
		return err
	}
	o.Time = t
	actor, err := s.ReadU16()
	if err != nil {
		return err
	}
	o.Actor.idx = actor
	action, err := s.ReadU16()
	if err != nil {
		return err
	}
	o.ActorAction.idx = action
	s.Skip(8)
	params, err := readPtrObject[Container](s)
	if err != nil {
		return err
	}
	o.Params = params
	return nil
}

func (o *Oneshot) write(w *WriteStream) {
	w.WriteF32(o.Time)
	w.WriteU16(o.Actor.idx)
	w.WriteU16(o.ActorAction.idx)
	w.Skip(8)
	o.paramsPH = w.WritePlaceholderPtrIf(!o.Params.IsEmpty(), false)
}

func (o *Oneshot) writeExtraData(w *WriteStream) {
	if o.paramsPH != nil && !o.Params.IsEmpty() {
		w.Align(8)
		o.paramsPH.patchCurrentOffset(w)
		o.Params.write(w)
	}
}

// Cut names a point of the timeline, starting at StartTime, that external
// tooling (cutscene triggers, editors) can address by Name.
type Cut struct {
	// StartTime: the leading f32 was labeled both start_time and duration
	// across different revisions of the format this was built from; it is
	// carried through unchanged under the start_time reading.
	StartTime float32
	X4        uint32
	Name      string
	Params    *Container

	paramsPH *placeholder
}

func (c *Cut) readFrom(s *ReadStream) error {
	startTime, err := s.ReadF32()
	if err != nil {
		return err
	}
	c.StartTime = startTime
	x4, err := s.ReadU32()
	if err != nil {
		return err
	}
	c.X4 = x4
	name, err := s.ReadStringRef()
	if err != nil {
		return err
	}
	c.Name = name
	params, err := readPtrObject[Container](s)
	if err != nil {
		return err
	}
	c.Params = params
	return nil
}

func (c *Cut) write(w *WriteStream) {
	w.WriteF32(c.StartTime)
	w.WriteU32(c.X4)
	w.WriteStringRef(c.Name, false)
	c.paramsPH = w.WritePlaceholderPtrIf(!c.Params.IsEmpty(), false)
}

func (c *Cut) writeExtraData(w *WriteStream) {
	if c.paramsPH != nil && !c.Params.IsEmpty() {
		w.Align(8)
		c.paramsPH.patchCurrentOffset(w)
		c.Params.write(w)
	}
}

// Trigger fires Clip at some condition described by Type (engine-defined,
// preserved verbatim).
type Trigger struct {
	Clip RequiredRef[Clip]
	Type uint8
}

func (t *Trigger) readFrom(s *ReadStream) error {
	clip, err := s.ReadU16()
	if err != nil {
		return err
	}
	t.Clip.idx = clip
	typ, err := s.ReadU8()
	if err != nil {
		return err
	}
	t.Type = typ
	s.Skip(1)
	return nil
}

func (t *Trigger) write(w *WriteStream) {
	w.WriteU16(t.Clip.idx)
	w.WriteU8(t.Type)
	w.Skip(1)
}

// Subtimeline is a reference to another timeline resource by name, used to
// compose cutscenes out of smaller pieces.
type Subtimeline struct {
	Name string
}

func (s *Subtimeline) readFrom(r *ReadStream) error {
	name, err := r.ReadStringRef()
	if err != nil {
		return err
	}
	s.Name = name
	return nil
}

func (s *Subtimeline) write(w *WriteStream) {
	w.WriteStringRef(s.Name, false)
}

// Timeline is a complete cutscene description: its actor pool, the clips
// and oneshots that act on them, the triggers and cuts that structure
// playback, and any embedded sub-timelines.
type Timeline struct {
	Name         string
	Duration     float32
	Actors       []*Actor
	Clips        []*Clip
	Oneshots     []*Oneshot
	Triggers     []*Trigger
	Subtimelines []*Subtimeline
	Cuts         []*Cut
	Params       *Container
}

func (t *Timeline) readFrom(s *ReadStream) error {
	s.Skip(4) // magic, not validated by the engine's own reader either
	s.Skip(4) // string pool rel offset
	x8, err := s.ReadU32()
	if err != nil {
		return err
	}
	xc, err := s.ReadU32()
	if err != nil {
		return err
	}
	if x8 != 0 || xc != 0 {
		return wrap("Timeline.read", KindInvariantViolated, nil)
	}
	duration, err := s.ReadF32()
	if err != nil {
		return err
	}
	t.Duration = duration
	numActors, err := s.ReadU16()
	if err != nil {
		return err
	}
	s.Skip(2) // num_actions, derived from the actors themselves
	numClips, err := s.ReadU16()
	if err != nil {
		return err
	}
	numOneshots, err := s.ReadU16()
	if err != nil {
		return err
	}
	numSubtimelines, err := s.ReadU16()
	if err != nil {
		return err
	}
	numCuts, err := s.ReadU16()
	if err != nil {
		return err
	}
	name, err := s.ReadStringRef()
	if err != nil {
		return err
	}
	t.Name = name

	actors, err := readPtrObjects[Actor](s, int(numActors))
	if err != nil {
		return err
	}
	t.Actors = actors

	clips, err := readPtrObjects[Clip](s, int(numClips))
	if err != nil {
		return err
	}
	t.Clips = clips

	oneshots, err := readPtrObjects[Oneshot](s, int(numOneshots))
	if err != nil {
		return err
	}
	t.Oneshots = oneshots

	triggers, err := readPtrObjects[Trigger](s, 2*int(numClips))
	if err != nil {
		return err
	}
	t.Triggers = triggers
	s.Align(8)

	subtimelines, err := readPtrObjects[Subtimeline](s, int(numSubtimelines))
	if err != nil {
		return err
	}
	t.Subtimelines = subtimelines

	cuts, err := readPtrObjects[Cut](s, int(numCuts))
	if err != nil {
		return err
	}
	t.Cuts = cuts

	params, err := readPtrObject[Container](s)
	if err != nil {
		return err
	}
	t.Params = params

	return t.resolveReferences()
}

func (t *Timeline) resolveReferences() error {
	for _, c := range t.Clips {
		if err := c.Actor.resolve(t.Actors); err != nil {
			return err
		}
		if err := c.ActorAction.resolve(c.Actor.Value.Actions); err != nil {
			return err
		}
	}
	for _, o := range t.Oneshots {
		if err := o.Actor.resolve(t.Actors); err != nil {
			return err
		}
		if err := o.ActorAction.resolve(o.Actor.Value.Actions); err != nil {
			return err
		}
	}
	for _, tr := range t.Triggers {
		if err := tr.Clip.resolve(t.Clips); err != nil {
			return err
		}
	}
	return nil
}

// write emits the full Timeline section and returns the byte offset its
// magic-bearing header starts at. Per this format's one documented writer
// quirk, the top-level params container is emitted *before* that header
// rather than deferred to the end like every other container in this
// format, so the header's params pointer is already known when written.
func (t *Timeline) write(w *WriteStream) (int, error) {
	if err := t.reindexReferences(); err != nil {
		return 0, err
	}

	var paramsOffset int
	hasParams := !t.Params.IsEmpty()
	if hasParams {
		paramsOffset = w.Tell()
		t.Params.write(w)
		w.Align(8)
	}

	selfOffset := w.Tell()
	w.Write([]byte("EVTM"))
	stringPoolRelOffset := w.WritePlaceholderU32()
	w.WriteU32(0)
	w.WriteU32(0)
	w.WriteF32(t.Duration)
	w.WriteU16(uint16(len(t.Actors)))
	w.WriteU16(uint16(t.actionCount()))
	w.WriteU16(uint16(len(t.Clips)))
	w.WriteU16(uint16(len(t.Oneshots)))
	w.WriteU16(uint16(len(t.Subtimelines)))
	w.WriteU16(uint16(len(t.Cuts)))
	w.WriteStringRef(t.Name, false)

	actorsPH := w.WritePlaceholderPtrIf(len(t.Actors) > 0, true)
	clipsPH := w.WritePlaceholderPtrIf(len(t.Clips) > 0, true)
	oneshotsPH := w.WritePlaceholderPtrIf(len(t.Oneshots) > 0, true)
	triggersPH := w.WritePlaceholderPtrIf(len(t.Triggers) > 0, true)
	w.Align(8)
	subtimelinesPH := w.WritePlaceholderPtrIf(len(t.Subtimelines) > 0, true)
	cutsPH := w.WritePlaceholderPtrIf(len(t.Cuts) > 0, true)

	if hasParams {
		w.registerPointer(w.Tell())
		w.WriteU64(uint64(paramsOffset))
	} else {
		w.WriteNullPtr(false)
	}

	if actorsPH != nil {
		actorsPH.patchCurrentOffset(w)
		for _, a := range t.Actors {
			a.write(w)
		}
	}
	if clipsPH != nil {
		clipsPH.patchCurrentOffset(w)
		for _, c := range t.Clips {
			c.write(w)
		}
	}
	if oneshotsPH != nil {
		oneshotsPH.patchCurrentOffset(w)
		for _, o := range t.Oneshots {
			o.write(w)
		}
	}
	if triggersPH != nil {
		triggersPH.patchCurrentOffset(w)
		for _, tr := range t.Triggers {
			tr.write(w)
		}
	}
	w.Align(8)
	if subtimelinesPH != nil {
		subtimelinesPH.patchCurrentOffset(w)
		for _, st := range t.Subtimelines {
			st.write(w)
		}
	}
	if cutsPH != nil {
		cutsPH.patchCurrentOffset(w)
		for _, c := range t.Cuts {
			c.write(w)
		}
	}

	for _, c := range t.Clips {
		w.Align(8)
		c.writeExtraData(w)
	}
	for _, o := range t.Oneshots {
		w.Align(8)
		o.writeExtraData(w)
	}
	for _, c := range t.Cuts {
		w.Align(8)
		c.writeExtraData(w)
	}
	for _, a := range t.Actors {
		w.Align(8)
		a.writeExtraData(w)
	}

	w.Align(8)
	stringPoolRelOffset.patchU32(w, uint32(w.Tell()-selfOffset))
	return selfOffset, nil
}

func (t *Timeline) actionCount() int {
	n := 0
	for _, a := range t.Actors {
		n += len(a.Actions)
	}
	return n
}

func (t *Timeline) reindexReferences() error {
	actorIdx := MakeIndexMap(t.Actors)
	clipIdx := MakeIndexMap(t.Clips)

	for _, c := range t.Clips {
		if err := c.Actor.reindex(actorIdx); err != nil {
			return err
		}
		if c.Actor.Value == nil {
			return wrap("Timeline.write", KindUnresolved, nil)
		}
		if err := c.ActorAction.reindex(MakeIndexMap(c.Actor.Value.Actions)); err != nil {
			return err
		}
	}
	for _, o := range t.Oneshots {
		if err := o.Actor.reindex(actorIdx); err != nil {
			return err
		}
		if o.Actor.Value == nil {
			return wrap("Timeline.write", KindUnresolved, nil)
		}
		if err := o.ActorAction.reindex(MakeIndexMap(o.Actor.Value.Actions)); err != nil {
			return err
		}
	}
	for _, tr := range t.Triggers {
		if err := tr.Clip.reindex(clipIdx); err != nil {
			return err
		}
	}
	return nil
}
