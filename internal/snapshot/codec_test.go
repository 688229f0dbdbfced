package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dspxio/dspx/dspxerr"
)

func TestWriterReaderPrimitivesRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteInt32(-7)
	w.WriteFloat(1.5)
	w.WriteDouble(2.25)
	w.WriteBool(true)
	w.WriteString("hello")
	w.WriteFloatArray([]float32{1, 2, 3})

	r := NewReader(w.Bytes())

	i, err := r.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, -7, i)

	f, err := r.ReadFloat()
	require.NoError(t, err)
	assert.InDelta(t, 1.5, f, 1e-9)

	d, err := r.ReadDouble()
	require.NoError(t, err)
	assert.InDelta(t, 2.25, d, 1e-9)

	b, err := r.ReadBool()
	require.NoError(t, err)
	assert.True(t, b)

	s, err := r.ReadString()
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	arr, err := r.ReadFloatArray()
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, arr)
}

func TestReaderTagMismatchIsCorrupt(t *testing.T) {
	w := NewWriter()
	w.WriteInt32(1)
	r := NewReader(w.Bytes())

	_, err := r.ReadString()
	require.Error(t, err)
	var derr *dspxerr.Error
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, dspxerr.KindCorruptSnapshot, derr.Kind)
}

func TestReaderTruncatedStreamIsCorrupt(t *testing.T) {
	w := NewWriter()
	w.WriteFloatArray([]float32{1, 2, 3})
	truncated := w.Bytes()[:len(w.Bytes())-2]
	r := NewReader(truncated)

	_, err := r.ReadFloatArray()
	require.Error(t, err)
}

func TestObjectArrayBracketsRoundTrip(t *testing.T) {
	w := NewWriter()
	w.WriteObjectStart()
	w.WriteArrayStart()
	w.WriteInt32(1)
	w.WriteInt32(2)
	w.WriteArrayEnd()
	w.WriteObjectEnd()

	r := NewReader(w.Bytes())
	require.NoError(t, r.ExpectObjectStart())
	require.NoError(t, r.ExpectArrayStart())
	v1, err := r.ReadInt32()
	require.NoError(t, err)
	v2, err := r.ReadInt32()
	require.NoError(t, err)
	assert.EqualValues(t, 1, v1)
	assert.EqualValues(t, 2, v2)
	require.NoError(t, r.ExpectArrayEnd())
	require.NoError(t, r.ExpectObjectEnd())
}

func TestDocumentEncodeDecodeRoundTrips(t *testing.T) {
	stageA := NewWriter()
	stageA.WriteObjectStart()
	stageA.WriteFloatArray([]float32{1, 2})
	stageA.WriteObjectEnd()

	stageB := NewWriter()
	stageB.WriteObjectStart()
	stageB.WriteInt32(42)
	stageB.WriteObjectEnd()

	doc := Document{
		Timestamp: 99.5,
		Stages: []StageState{
			{Type: "movingAverage", State: stageA.Bytes()},
			{Type: "rectify", State: stageB.Bytes()},
		},
	}

	data := Encode(doc)
	got, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, doc.Timestamp, got.Timestamp)
	require.Len(t, got.Stages, 2)
	assert.Equal(t, "movingAverage", got.Stages[0].Type)
	assert.Equal(t, stageA.Bytes(), got.Stages[0].State)
	assert.Equal(t, "rectify", got.Stages[1].Type)
	assert.Equal(t, stageB.Bytes(), got.Stages[1].State)
}

func TestDocumentDecodeEmptyStages(t *testing.T) {
	doc := Document{Timestamp: 1}
	data := Encode(doc)
	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 1.0, got.Timestamp)
	assert.Empty(t, got.Stages)
}

func TestDocumentDecodeCorruptDataFails(t *testing.T) {
	_, err := Decode([]byte{0xFF, 0xFF, 0xFF})
	require.Error(t, err)
}
