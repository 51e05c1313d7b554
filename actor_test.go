package bfevfl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func writeActorsAndRead(t *testing.T, actors []*Actor) []*Actor {
	t.Helper()
	w := newWriteStream()
	for _, a := range actors {
		a.write(w)
	}
	for _, a := range actors {
		w.Align(8)
		a.writeExtraData(w)
	}
	w.Finalise()

	s := newReadStream(w.Bytes())
	out := make([]*Actor, len(actors))
	for i := range actors {
		out[i] = &Actor{}
		require.NoError(t, out[i].readFrom(s))
	}
	return out
}

func TestActorRoundTripMinimal(t *testing.T) {
	a := &Actor{
		Identifier:   ActorIdentifier{Name: "Player", SubName: ""},
		ArgumentName: "",
		X36:          1,
	}
	a.ArgumentEntryPoint.idx = noIndex

	got := writeActorsAndRead(t, []*Actor{a})[0]
	require.Equal(t, a.Identifier, got.Identifier)
	require.Equal(t, a.ArgumentName, got.ArgumentName)
	require.Equal(t, a.X36, got.X36)
	require.Empty(t, got.Actions)
	require.Empty(t, got.Queries)
	require.True(t, got.Params.IsEmpty())
}

func TestActorRoundTripFull(t *testing.T) {
	a := &Actor{
		Identifier:   ActorIdentifier{Name: "Npc", SubName: "Guard"},
		ArgumentName: "TargetActor",
		Actions:      []*StringHolder{{Name: "Wait"}, {Name: "Attack"}},
		Queries:      []*StringHolder{{Name: "IsAlive"}},
		Params: &Container{Entries: []ContainerEntry{
			{Key: "speed", Value: FloatValue(2.5)},
		}},
		X36: 3,
	}
	a.ArgumentEntryPoint.idx = noIndex

	got := writeActorsAndRead(t, []*Actor{a})[0]
	require.Equal(t, a.Identifier, got.Identifier)
	require.Equal(t, a.ArgumentName, got.ArgumentName)
	require.Len(t, got.Actions, 2)
	require.Equal(t, "Wait", got.Actions[0].Name)
	require.Equal(t, "Attack", got.Actions[1].Name)
	require.Len(t, got.Queries, 1)
	require.Equal(t, "IsAlive", got.Queries[0].Name)
	require.False(t, got.Params.IsEmpty())
	v, ok := got.Params.Get("speed")
	require.True(t, ok)
	require.Equal(t, FloatValue(2.5), v)
	require.Equal(t, a.X36, got.X36)
}

func TestActorMultipleRoundTrip(t *testing.T) {
	actors := []*Actor{
		{Identifier: ActorIdentifier{Name: "A"}, Actions: []*StringHolder{{Name: "Go"}}},
		{Identifier: ActorIdentifier{Name: "B"}, Queries: []*StringHolder{{Name: "Ready"}}},
	}
	for i := range actors {
		actors[i].ArgumentEntryPoint.idx = noIndex
	}
	got := writeActorsAndRead(t, actors)
	require.Equal(t, "A", got[0].Identifier.Name)
	require.Equal(t, []string{"Go"}, []string{got[0].Actions[0].Name})
	require.Equal(t, "B", got[1].Identifier.Name)
	require.Equal(t, []string{"Ready"}, []string{got[1].Queries[0].Name})
}
