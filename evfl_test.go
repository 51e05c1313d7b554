package bfevfl

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func trivialFlowchartFlow() *EventFlow {
	event := &Event{Name: "j", Kind: EventJoin, Join: &JoinEventData{Next: Ref[Event]{idx: noIndex}}}
	ep := &EntryPoint{Name: "Start", MainEvent: MakeRequiredRef(event)}
	return &EventFlow{
		Name: "Root",
		Flowchart: &Flowchart{
			Name:        "Root",
			Events:      []*Event{event},
			EntryPoints: []*EntryPoint{ep},
		},
	}
}

func TestSerializeRejectsNeitherOrBoth(t *testing.T) {
	_, err := (&EventFlow{Name: "Empty"}).Serialize()
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindEmptyContent, kind)

	both := trivialFlowchartFlow()
	both.Timeline = &Timeline{Name: "T", Duration: 1}
	_, err = both.Serialize()
	require.Error(t, err)
	kind, ok = KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindEmptyContent, kind)
}

func TestParseSerializeFlowchartRoundTrip(t *testing.T) {
	ef := trivialFlowchartFlow()
	data, err := ef.Serialize()
	require.NoError(t, err)

	got, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, "Root", got.Name)
	require.NotNil(t, got.Flowchart)
	require.Nil(t, got.Timeline)
	require.Equal(t, "Root", got.Flowchart.Name)
	require.Len(t, got.Flowchart.EntryPoints, 1)
	require.Equal(t, "Start", got.Flowchart.EntryPoints[0].Name)
}

func TestParseSerializeTimelineRoundTrip(t *testing.T) {
	ef := &EventFlow{Name: "Cutscene", Timeline: &Timeline{Name: "Cutscene", Duration: 3}}
	data, err := ef.Serialize()
	require.NoError(t, err)

	got, err := Parse(data)
	require.NoError(t, err)
	require.Nil(t, got.Flowchart)
	require.NotNil(t, got.Timeline)
	require.Equal(t, "Cutscene", got.Timeline.Name)
	require.Equal(t, float32(3), got.Timeline.Duration)
}

func TestParseRejectsBadMagic(t *testing.T) {
	data, err := trivialFlowchartFlow().Serialize()
	require.NoError(t, err)
	corrupt := append([]byte(nil), data...)
	corrupt[0] ^= 0xff

	_, err = Parse(corrupt)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindMagicMismatch, kind)
}

func TestParseRejectsBadVersion(t *testing.T) {
	data, err := trivialFlowchartFlow().Serialize()
	require.NoError(t, err)
	corrupt := append([]byte(nil), data...)
	binary.LittleEndian.PutUint16(corrupt[8:10], 0x0200)

	_, err = Parse(corrupt)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindVersionUnsupported, kind)
}

func TestParseRejectsBadBOM(t *testing.T) {
	data, err := trivialFlowchartFlow().Serialize()
	require.NoError(t, err)
	corrupt := append([]byte(nil), data...)
	binary.LittleEndian.PutUint16(corrupt[12:14], 0xfffe)

	_, err = Parse(corrupt)
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindEndianUnsupported, kind)
}

func TestParseTruncatedHeader(t *testing.T) {
	_, err := Parse([]byte{0x42, 0x46, 0x45, 0x56, 0x46, 0x4c})
	require.Error(t, err)
}
