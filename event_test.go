package bfevfl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func writeEventsAndRead(t *testing.T, events []*Event) []*Event {
	t.Helper()
	w := newWriteStream()
	for _, e := range events {
		e.write(w)
	}
	for _, e := range events {
		w.Align(8)
		e.writeExtraData(w)
	}
	w.Finalise()

	s := newReadStream(w.Bytes())
	out := make([]*Event, len(events))
	for i := range events {
		out[i] = &Event{}
		require.NoError(t, out[i].readFrom(s))
		s.Align(8)
	}
	return out
}

func TestActionEventRoundTrip(t *testing.T) {
	e := &Event{Name: "act", Kind: EventAction, Action: &ActionEventData{
		Params: &Container{Entries: []ContainerEntry{{Key: "delay", Value: FloatValue(0.5)}}},
	}}
	e.Action.Next.idx = noIndex
	e.Action.Actor.idx = 0
	e.Action.ActorAction.idx = 0

	got := writeEventsAndRead(t, []*Event{e})[0]
	require.Equal(t, EventAction, got.Kind)
	require.Equal(t, "act", got.Name)
	require.False(t, got.Action.Next.Resolved())
	require.False(t, got.Action.Params.IsEmpty())
	v, ok := got.Action.Params.Get("delay")
	require.True(t, ok)
	require.Equal(t, FloatValue(0.5), v)
}

func TestSwitchEventRoundTripEmptyCases(t *testing.T) {
	e := &Event{Name: "sw", Kind: EventSwitch, Switch: &SwitchEventData{}}

	got := writeEventsAndRead(t, []*Event{e})[0]
	require.Equal(t, EventSwitch, got.Kind)
	require.Empty(t, got.Switch.Cases)
}

func TestSwitchEventRoundTripWithCases(t *testing.T) {
	e := &Event{Name: "sw", Kind: EventSwitch, Switch: &SwitchEventData{
		Cases: []SwitchCase{
			{Value: 1, Next: RequiredRef[Event]{idx: 0}},
			{Value: 2, Next: RequiredRef[Event]{idx: noIndex}},
		},
	}}

	got := writeEventsAndRead(t, []*Event{e})[0]
	require.Len(t, got.Switch.Cases, 2)
	require.Equal(t, uint32(1), got.Switch.Cases[0].Value)
	require.Equal(t, uint32(2), got.Switch.Cases[1].Value)
}

func TestForkEventRoundTrip(t *testing.T) {
	e := &Event{Name: "fk", Kind: EventFork, Fork: &ForkEventData{
		Join:  RequiredRef[Event]{idx: 3},
		Forks: []RequiredRef[Event]{{idx: 1}, {idx: 2}},
	}}

	got := writeEventsAndRead(t, []*Event{e})[0]
	require.Equal(t, uint16(3), got.Fork.Join.idx)
	require.Len(t, got.Fork.Forks, 2)
	require.Equal(t, uint16(1), got.Fork.Forks[0].idx)
	require.Equal(t, uint16(2), got.Fork.Forks[1].idx)
}

func TestJoinEventRoundTrip(t *testing.T) {
	e := &Event{Name: "jn", Kind: EventJoin, Join: &JoinEventData{Next: Ref[Event]{idx: 5}}}

	got := writeEventsAndRead(t, []*Event{e})[0]
	require.Equal(t, uint16(5), got.Join.Next.idx)
}

func TestSubFlowEventRoundTrip(t *testing.T) {
	e := &Event{Name: "sf", Kind: EventSubFlow, SubFlow: &SubFlowEventData{
		Next:             Ref[Event]{idx: noIndex},
		ResFlowchartName: "OtherFlow",
		EntryPointName:   "Start",
		Params:           &Container{Entries: []ContainerEntry{{Key: "n", Value: IntValue(4)}}},
	}}

	got := writeEventsAndRead(t, []*Event{e})[0]
	require.Equal(t, "OtherFlow", got.SubFlow.ResFlowchartName)
	require.Equal(t, "Start", got.SubFlow.EntryPointName)
	require.False(t, got.SubFlow.Params.IsEmpty())
}

func TestSubFlowEventRequiresEntryPointName(t *testing.T) {
	w := newWriteStream()
	e := &Event{Name: "sf", Kind: EventSubFlow, SubFlow: &SubFlowEventData{
		Next:           Ref[Event]{idx: noIndex},
		EntryPointName: "",
	}}
	e.write(w)
	e.writeExtraData(w)
	w.Finalise()

	s := newReadStream(w.Bytes())
	got := &Event{}
	err := got.readFrom(s)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindCorrupt, kind)
}

func TestMultipleEventsRoundTrip(t *testing.T) {
	events := []*Event{
		{Name: "a", Kind: EventJoin, Join: &JoinEventData{Next: Ref[Event]{idx: noIndex}}},
		{Name: "b", Kind: EventJoin, Join: &JoinEventData{Next: Ref[Event]{idx: 0}}},
	}
	got := writeEventsAndRead(t, events)
	require.Equal(t, "a", got[0].Name)
	require.Equal(t, "b", got[1].Name)
}
