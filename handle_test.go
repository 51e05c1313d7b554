package bfevfl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMakeIndexMap(t *testing.T) {
	a, b, c := &Actor{}, &Actor{}, &Actor{}
	values := []*Actor{a, b, c}
	m := MakeIndexMap(values)
	require.Equal(t, map[*Actor]int{a: 0, b: 1, c: 2}, m)
}

func TestRefResolveAndReindex(t *testing.T) {
	events := []*Event{{Name: "e0"}, {Name: "e1"}, {Name: "e2"}}

	var r Ref[Event]
	r.idx = noIndex
	r.resolve(events)
	require.False(t, r.Resolved())

	r.idx = 1
	r.resolve(events)
	require.True(t, r.Resolved())
	require.Same(t, events[1], r.Value)

	idxMap := MakeIndexMap(events)
	r.reindex(idxMap)
	require.Equal(t, uint16(1), r.idx)

	r.Value = nil
	r.reindex(idxMap)
	require.Equal(t, uint16(noIndex), r.idx)
}

func TestRequiredRefResolveOutOfRange(t *testing.T) {
	events := []*Event{{Name: "e0"}}
	var r RequiredRef[Event]
	r.idx = 5
	err := r.resolve(events)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindInvariantViolated, kind)
}

func TestRequiredRefReindexUnresolved(t *testing.T) {
	var r RequiredRef[Event]
	err := r.reindex(map[*Event]int{})
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindUnresolved, kind)
}

func TestRequiredRefReindexMissingFromArena(t *testing.T) {
	e := &Event{Name: "orphan"}
	r := MakeRequiredRef(e)
	err := r.reindex(map[*Event]int{})
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindUnresolved, kind)
}
