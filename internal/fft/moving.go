package fft

import "github.com/dspxio/dspx/internal/buffer"

// Mode selects whether Moving emits a spectrum every hop samples or only
// once a full frame has accumulated (spec §4.4).
type Mode string

const (
	ModeMoving  Mode = "moving"
	ModeBatched Mode = "batched"
)

// Moving owns a ring buffer of size N, a window, a hop size, and a mode; it
// accumulates samples and emits spectra as enough new data arrives.
type Moving struct {
	engine  *Engine
	ring    *buffer.Ring
	win     []float32
	hop     int
	mode    Mode
	sinceEmit int
	useRFFT bool
}

// NewMoving constructs a Moving FFT producer for frame size n, the given
// window, hop size, and mode. useRFFT selects rfft (real spectra, n/2+1
// bins) vs the full complex fft.
func NewMoving(n int, wt WindowType, hop int, mode Mode, useRFFT bool) *Moving {
	return &Moving{
		engine:  New(n),
		ring:    buffer.NewRing(n),
		win:     MakeWindow(wt, n),
		hop:     hop,
		mode:    mode,
		useRFFT: useRFFT,
	}
}

// Spectrum is one emitted frame.
type Spectrum struct {
	Bins []complex128
}

// AddSample enqueues one sample, returning an emitted spectrum when enough
// samples have accumulated.
func (m *Moving) AddSample(x float32) (Spectrum, bool) {
	m.ring.PushOverwrite(x)
	m.sinceEmit++

	threshold := m.hop
	if m.mode == ModeBatched {
		threshold = m.engine.Size()
	}
	if !m.ring.Full() || m.sinceEmit < threshold {
		return Spectrum{}, false
	}
	m.sinceEmit = 0

	frame := m.ring.ToVector()
	windowed := make([]float32, len(frame))
	for i := range frame {
		windowed[i] = frame[i] * m.win[i]
	}

	n := m.engine.Size()
	if m.useRFFT {
		out := make([]complex128, n/2+1)
		m.engine.RFFT(windowed, out)
		return Spectrum{Bins: out}, true
	}
	in := make([]complex128, n)
	for i, v := range windowed {
		in[i] = complex(float64(v), 0)
	}
	out := make([]complex128, n)
	m.engine.FFT(in, out)
	return Spectrum{Bins: out}, true
}

// AddSamples is a bulk driver: it feeds every sample in x through AddSample
// and returns every emitted spectrum in order.
func (m *Moving) AddSamples(x []float32) []Spectrum {
	var out []Spectrum
	for _, v := range x {
		if s, ok := m.AddSample(v); ok {
			out = append(out, s)
		}
	}
	return out
}

// Reset clears the ring and emission counter.
func (m *Moving) Reset() {
	m.ring.Clear()
	m.sinceEmit = 0
}

// SinceEmit reports how many samples have been pushed since the last
// emitted spectrum (or since construction, if none has emitted yet). Callers
// sizing an output buffer ahead of AddSamples need this to predict how many
// frames a short follow-up call will emit.
func (m *Moving) SinceEmit() int { return m.sinceEmit }

// Full reports whether the ring buffer has accumulated a full frame, the
// other precondition (besides SinceEmit reaching the hop) for an emission.
func (m *Moving) Full() bool { return m.ring.Full() }
