// Package resample implements the polyphase interpolator/decimator/
// rational-resampler cores (spec §4.6), grounded on the polyphase FIR
// up/downsample structure in thesyncim-gopus/silk/resample_libopus.go and
// silk/pitch_resampler.go, and the resampler shape of
// other_examples/58092357_ik5-audpbx__audio-resampler.go.go.
package resample

import "github.com/dspxio/dspx/internal/filter"

// DefaultOrder is the default windowed-sinc prototype filter order (spec
// §4.6).
const DefaultOrder = 51

// Polyphase implements rational-rate conversion by L/M: insert L-1 zeros,
// lowpass at cutoff pi/max(L,M), keep every M-th sample — but evaluated
// one phase at a time, so each output sample touches only one of the L
// phases (ceil((order+1)/L) taps of the length-(order+1) prototype), never
// materializing the zero-stuffed signal.
type Polyphase struct {
	L, M      int
	order     int
	phases    [][]float32 // L phases, each ceil((order+1)/L) taps
	delay     []float32   // shared FIR delay line, newest-first, length = max phase length
	phaseLen  int
	inputPos  int // total input samples consumed, for phase selection
}

// NewPolyphase builds the L-phase decomposition of a windowed-sinc
// prototype filter with the given order, for resampling by L/M.
func NewPolyphase(l, m, order int) *Polyphase {
	if order <= 0 {
		order = DefaultOrder
	}
	cutoff := 1.0 / float64(maxInt(l, m))
	proto := filter.DesignFIR(filter.FIRLowPass, order, cutoff, 0, filter.FIRHamming)
	// Scale by L so interpolation preserves amplitude after zero-stuffing.
	for i := range proto {
		proto[i] *= float32(l)
	}

	phaseLen := (len(proto) + l - 1) / l
	phases := make([][]float32, l)
	for p := 0; p < l; p++ {
		phases[p] = make([]float32, phaseLen)
		for k := 0; k < phaseLen; k++ {
			idx := k*l + p
			if idx < len(proto) {
				phases[p][k] = proto[idx]
			}
		}
	}
	return &Polyphase{
		L: l, M: m, order: order,
		phases:   phases,
		delay:    make([]float32, phaseLen),
		phaseLen: phaseLen,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// pushSample shifts x into the shared delay line.
func (p *Polyphase) pushSample(x float32) {
	copy(p.delay[1:], p.delay[:len(p.delay)-1])
	p.delay[0] = x
}

// evalPhase computes the dot product of a phase's taps with the current
// delay line.
func (p *Polyphase) evalPhase(phase int) float32 {
	taps := p.phases[phase]
	var sum float32
	for i, c := range taps {
		sum += c * p.delay[i]
	}
	return sum
}

// Reset zeroes the delay line and phase counter.
func (p *Polyphase) Reset() {
	for i := range p.delay {
		p.delay[i] = 0
	}
	p.inputPos = 0
}

// Process runs the polyphase filter over in, appending every produced
// output sample to the returned slice (length approx len(in)*L/M).
func (p *Polyphase) Process(in []float32) []float32 {
	out := make([]float32, 0, (len(in)*p.L)/p.M+2)
	for _, x := range in {
		// Conceptually: insert L-1 zeros after x, then the total
		// upsampled stream position advances by L per input sample.
		p.pushSample(x)
		base := p.inputPos * p.L
		for phase := 0; phase < p.L; phase++ {
			upPos := base + phase
			if upPos%p.M == p.M-1 {
				out = append(out, p.evalPhase(phase))
			}
		}
		p.inputPos++
	}
	return out
}
