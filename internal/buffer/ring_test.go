package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dspxio/dspx/dspxerr"
)

func TestRingPushAndPop(t *testing.T) {
	r := NewRing(3)
	require.NoError(t, r.Push(1))
	require.NoError(t, r.Push(2))
	assert.Equal(t, 2, r.Len())

	v, err := r.Pop()
	require.NoError(t, err)
	assert.Equal(t, float32(1), v)
	assert.Equal(t, 1, r.Len())
}

func TestRingPushFailsWhenFull(t *testing.T) {
	r := NewRing(2)
	require.NoError(t, r.Push(1))
	require.NoError(t, r.Push(2))
	assert.ErrorIs(t, r.Push(3), dspxerr.Full)
}

func TestRingPopFailsWhenEmpty(t *testing.T) {
	r := NewRing(1)
	_, err := r.Pop()
	assert.ErrorIs(t, err, dspxerr.Empty)
}

func TestRingPushOverwriteEvictsOldest(t *testing.T) {
	r := NewRing(2)
	require.NoError(t, r.Push(1))
	require.NoError(t, r.Push(2))

	overwritten, did := r.PushOverwrite(3)
	assert.True(t, did)
	assert.Equal(t, float32(1), overwritten)
	assert.Equal(t, []float32{2, 3}, r.ToVector())
}

func TestRingPeekAndPeekNewest(t *testing.T) {
	r := NewRing(3)
	require.NoError(t, r.Push(1))
	require.NoError(t, r.Push(2))

	oldest, err := r.Peek()
	require.NoError(t, err)
	assert.Equal(t, float32(1), oldest)

	newest, err := r.PeekNewest()
	require.NoError(t, err)
	assert.Equal(t, float32(2), newest)
}

func TestRingAtIsChronological(t *testing.T) {
	r := NewRing(3)
	r.FromVector([]float32{1, 2, 3})
	assert.Equal(t, float32(1), r.At(0))
	assert.Equal(t, float32(3), r.At(2))
}

func TestRingClearResetsState(t *testing.T) {
	r := NewRing(2)
	require.NoError(t, r.Push(1))
	r.Clear()
	assert.True(t, r.Empty())
	assert.Equal(t, 0, r.Len())
}

func TestRingFromVectorOverwritesPastCapacity(t *testing.T) {
	r := NewRing(2)
	r.FromVector([]float32{1, 2, 3})
	assert.Equal(t, []float32{2, 3}, r.ToVector())
}

func TestTimedRingExpireOldDropsStaleEntries(t *testing.T) {
	r := NewTimedRing(4, 100)
	r.PushOverwrite(1, 0)
	r.PushOverwrite(2, 50)
	r.PushOverwrite(3, 200)

	// Both t=0 and t=50 are older than 200-100=100ms, so both expire.
	expired, err := r.ExpireOld(200)
	require.NoError(t, err)
	assert.Equal(t, 2, expired)
	assert.Equal(t, 1, r.Len())
}

func TestTimedRingExpireOldRequiresWindow(t *testing.T) {
	r := NewTimedRing(2, 0)
	_, err := r.ExpireOld(100)
	assert.ErrorIs(t, err, dspxerr.ConfigError)
}

func TestTimedRingPopReturnsValueAndTimestamp(t *testing.T) {
	r := NewTimedRing(2, 0)
	require.NoError(t, r.Push(5, 10))

	v, ts, err := r.Pop()
	require.NoError(t, err)
	assert.Equal(t, float32(5), v)
	assert.Equal(t, float32(10), ts)
}
