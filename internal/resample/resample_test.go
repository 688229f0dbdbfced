package resample

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolyphaseProcessFloorDecimates(t *testing.T) {
	p := NewPolyphase(3, 2, 0)
	in := make([]float32, 601)
	out := p.Process(in)
	assert.Len(t, out, 901) // floor(601*3/2) == 901, not ceil's 902
}

func TestPolyphaseProcessUnityRatioPassesCountThrough(t *testing.T) {
	p := NewPolyphase(1, 1, 0)
	in := make([]float32, 50)
	out := p.Process(in)
	assert.Len(t, out, 50)
}

func TestPolyphaseProcessAccumulatesAcrossCalls(t *testing.T) {
	p := NewPolyphase(3, 2, 0)
	total := 0
	for i := 0; i < 10; i++ {
		total += len(p.Process(make([]float32, 60)))
	}
	assert.Equal(t, 900, total) // floor(600*3/2) split across 10 calls of 60
}

func TestPolyphaseResetZeroesDelayLine(t *testing.T) {
	p := NewPolyphase(2, 1, 8)
	in := make([]float32, 20)
	for i := range in {
		in[i] = 1
	}
	p.Process(in)
	p.Reset()

	// After reset, a fresh impulse should produce the same leading output
	// as a brand-new Polyphase with the same parameters.
	fresh := NewPolyphase(2, 1, 8)
	impulse := make([]float32, 5)
	impulse[0] = 1

	got := p.Process(impulse)
	want := fresh.Process(impulse)
	assert.Equal(t, want, got)
}
