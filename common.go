package bfevfl

// ActorIdentifier names an actor by its (name, sub_name) pair. sub_name is
// frequently empty; identity and container equality both compare the pair
// as a whole.
type ActorIdentifier struct {
	Name    string
	SubName string
}

func (a *ActorIdentifier) read(s *ReadStream) error {
	name, err := s.ReadStringRef()
	if err != nil {
		return err
	}
	subName, err := s.ReadStringRef()
	if err != nil {
		return err
	}
	a.Name, a.SubName = name, subName
	return nil
}

func (a ActorIdentifier) write(w *WriteStream) {
	w.WriteStringRef(a.Name, false)
	w.WriteStringRef(a.SubName, false)
}

// StringHolder wraps a name so it can be the target of a RequiredRef: an
// actor's actions/queries lists are addressed by position, same as any
// other arena, and a plain string isn't a pointer-identity-stable type on
// its own.
type StringHolder struct {
	Name string
}
