package stage

import (
	"math"

	"github.com/dspxio/dspx/dspxerr"
	"github.com/dspxio/dspx/internal/fft"
	"github.com/dspxio/dspx/internal/filter"
	"github.com/dspxio/dspx/internal/snapshot"
	"github.com/dspxio/dspx/internal/window"
)

// fftStage runs one batch FFT/RFFT per call; input must be exactly size
// samples per channel.
type fftStage struct {
	base
	size    int
	useRFFT bool
	engine  *fft.Engine
}

// NewFFT builds the fft stage (batch: one buffer of exactly size samples in,
// size (or size/2+1 for rfft) complex values out, packed [re,im,...]).
func NewFFT(size int, useRFFT bool) Stage {
	return &fftStage{base: base{"fft"}, size: size, useRFFT: useRFFT, engine: fft.New(size)}
}

func (s *fftStage) Resizing() bool { return true }
func (s *fftStage) OutputChannelCount() int {
	return 0 // channel count unchanged; per-channel sample count changes
}
func (s *fftStage) OutputSampleCount(n int) int {
	if s.useRFFT {
		return (s.size/2 + 1) * 2
	}
	return s.size * 2
}
func (s *fftStage) TimeScaleFactor() float64 { return float64(s.size) / float64(s.OutputSampleCount(s.size)) }

func (s *fftStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in) != s.size*channels {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "fft: input must be exactly size samples per channel").WithStage(-1, s.typeName)
	}
	outPerChan := s.OutputSampleCount(s.size)
	if len(out) < outPerChan*channels {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "fft: output buffer too small").WithStage(-1, s.typeName)
	}
	for c := 0; c < channels; c++ {
		real := make([]float32, s.size)
		for i := 0; i < s.size; i++ {
			real[i] = in[i*channels+c]
		}
		var bins []complex128
		if s.useRFFT {
			bins = make([]complex128, s.size/2+1)
			s.engine.RFFT(real, bins)
		} else {
			cin := make([]complex128, s.size)
			for i, v := range real {
				cin[i] = complex(float64(v), 0)
			}
			bins = make([]complex128, s.size)
			s.engine.FFT(cin, bins)
		}
		for i, b := range bins {
			out[(i*2)*channels+c] = float32(real64c(b))
			out[(i*2+1)*channels+c] = float32(imag64c(b))
		}
	}
	return outPerChan, nil
}
func real64c(c complex128) float64 { return real(c) }
func imag64c(c complex128) float64 { return imag(c) }

func (s *fftStage) Reset()                            {}
func (s *fftStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *fftStage) LoadState(r *snapshot.Reader) error { return nil }

// stftStage wraps fft.Moving per channel: one output frame of
// windowSize/2+1 complex bins packed [re,im] per bin per hop.
type stftStage struct {
	base
	windowSize int
	hop        int
	winType    fft.WindowType
	producers  []*fft.Moving
	sinceEmit  int
	ringFull   bool
}

// NewSTFT builds the stft stage.
func NewSTFT(windowSize, hop int, winType fft.WindowType) Stage {
	return &stftStage{base: base{"stft"}, windowSize: windowSize, hop: hop, winType: winType}
}

func (s *stftStage) Resizing() bool          { return true }
func (s *stftStage) OutputChannelCount() int { return 0 }

// OutputSampleCount accounts for the moving FFT's carried sinceEmit/ring
// state: a call whose n alone looks too small to emit anything can still
// produce a frame if a prior call left the producer close to its hop
// boundary, so the hint simulates that carried state rather than just n/hop.
//
// Before the ring has ever filled, reaching fullness fires at most one
// emission (AddSample checks Full()+sinceEmit>=hop once per push, right as
// the ring completes, then resets its counter to 0 immediately) — it never
// retroactively credits windowSize/hop emissions for the samples spent
// filling the ring in the first place.
func (s *stftStage) OutputSampleCount(n int) int {
	bins := s.windowSize/2 + 1
	frameStride := bins * 2

	if !s.ringFull {
		toFull := s.windowSize - s.sinceEmit
		if toFull < 0 {
			toFull = 0
		}
		if n < toFull {
			return 0
		}
		remain := n - toFull
		fired := 0
		effectiveStart := s.windowSize
		if s.windowSize >= s.hop {
			fired = 1
			effectiveStart = 0
		}
		frames := fired + (effectiveStart+remain)/s.hop
		return frames * frameStride
	}

	frames := (s.sinceEmit + n) / s.hop
	return frames * frameStride
}
func (s *stftStage) TimeScaleFactor() float64 {
	return float64(s.hop) / float64((s.windowSize/2+1)*2)
}

func (s *stftStage) ensure(channels int) {
	if len(s.producers) == channels {
		return
	}
	s.producers = make([]*fft.Moving, channels)
	for c := range s.producers {
		s.producers[c] = fft.NewMoving(s.windowSize, s.winType, s.hop, fft.ModeMoving, true)
	}
}

func (s *stftStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in)%channels != 0 {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "stft: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(in) / channels
	bins := s.windowSize/2 + 1
	frameStride := bins * 2
	produced := 0
	for c := 0; c < channels; c++ {
		chanIn := make([]float32, n)
		for i := 0; i < n; i++ {
			chanIn[i] = in[i*channels+c]
		}
		spectra := s.producers[c].AddSamples(chanIn)
		if len(spectra) > produced {
			produced = len(spectra)
		}
		need := len(spectra) * frameStride
		if len(out) < need*channels {
			return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "stft: output buffer too small").WithStage(-1, s.typeName)
		}
		for fIdx, spec := range spectra {
			for b, v := range spec.Bins {
				out[(fIdx*frameStride+b*2)*channels+c] = float32(real64c(v))
				out[(fIdx*frameStride+b*2+1)*channels+c] = float32(imag64c(v))
			}
		}
	}
	if len(s.producers) > 0 {
		s.sinceEmit = s.producers[0].SinceEmit()
		s.ringFull = s.producers[0].Full()
	}
	return produced * frameStride, nil
}
func (s *stftStage) Reset() {
	for _, p := range s.producers {
		p.Reset()
	}
	s.sinceEmit = 0
	s.ringFull = false
}
func (s *stftStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *stftStage) LoadState(r *snapshot.Reader) error { return nil }

// melFilterbank / mfccStage share one rfft-then-matrix-projection core.
type melFilterbankStage struct {
	base
	fftSize         int
	filterbank      [][]float32 // [melBin][fftBin]
	engine          *fft.Engine
	mfcc            bool
	numCoefficients int
}

// NewMelSpectrogram builds the melSpectrogram stage from a precomputed
// filterbank matrix (melBins x (fftSize/2+1)).
func NewMelSpectrogram(fftSize int, filterbank [][]float32) Stage {
	return &melFilterbankStage{base: base{"melSpectrogram"}, fftSize: fftSize, filterbank: filterbank, engine: fft.New(fftSize)}
}

// NewMFCC builds the mfcc stage, adding a DCT-II projection of the mel
// log-energies down to numCoefficients cepstral coefficients.
func NewMFCC(fftSize int, filterbank [][]float32, numCoefficients int) Stage {
	return &melFilterbankStage{base: base{"mfcc"}, fftSize: fftSize, filterbank: filterbank, engine: fft.New(fftSize), mfcc: true, numCoefficients: numCoefficients}
}

func (s *melFilterbankStage) Resizing() bool          { return true }
func (s *melFilterbankStage) OutputChannelCount() int { return 0 }
func (s *melFilterbankStage) OutputSampleCount(n int) int {
	if s.mfcc {
		return s.numCoefficients
	}
	return len(s.filterbank)
}
func (s *melFilterbankStage) TimeScaleFactor() float64 {
	return float64(s.fftSize) / float64(s.OutputSampleCount(s.fftSize))
}

func (s *melFilterbankStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in) != s.fftSize*channels {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "melSpectrogram: input must be exactly fftSize samples per channel").WithStage(-1, s.typeName)
	}
	outN := s.OutputSampleCount(s.fftSize)
	if len(out) < outN*channels {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "melSpectrogram: output buffer too small").WithStage(-1, s.typeName)
	}
	melBins := len(s.filterbank)
	for c := 0; c < channels; c++ {
		real := make([]float32, s.fftSize)
		for i := 0; i < s.fftSize; i++ {
			real[i] = in[i*channels+c]
		}
		bins := make([]complex128, s.fftSize/2+1)
		s.engine.RFFT(real, bins)
		power := make([]float32, len(bins))
		fft.Power(bins, power, s.fftSize)

		melEnergies := make([]float64, melBins)
		for m := 0; m < melBins; m++ {
			var sum float64
			row := s.filterbank[m]
			for k := 0; k < len(row) && k < len(power); k++ {
				sum += float64(row[k]) * float64(power[k])
			}
			melEnergies[m] = math.Log(sum + 1e-10)
		}

		if !s.mfcc {
			for m, v := range melEnergies {
				out[m*channels+c] = float32(v)
			}
			continue
		}
		coeffs := dctII(melEnergies, s.numCoefficients)
		for i, v := range coeffs {
			out[i*channels+c] = float32(v)
		}
	}
	return outN, nil
}

// dctII computes the first numOut coefficients of a type-II discrete cosine
// transform of x.
func dctII(x []float64, numOut int) []float64 {
	n := len(x)
	out := make([]float64, numOut)
	for k := 0; k < numOut; k++ {
		var sum float64
		for i, v := range x {
			sum += v * math.Cos(math.Pi/float64(n)*(float64(i)+0.5)*float64(k))
		}
		out[k] = sum
	}
	return out
}

func (s *melFilterbankStage) Reset()                            {}
func (s *melFilterbankStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *melFilterbankStage) LoadState(r *snapshot.Reader) error { return nil }

// hilbertEnvelopeStage applies a windowed-sinc FIR Hilbert transformer then
// takes the analytic-signal magnitude, non-resizing.
type hilbertEnvelopeStage struct {
	base
	taps    int
	coeffs  []float32
	filters []*filter.FIR
	delayed []*filter.FIR // pure delay matching the Hilbert FIR's group delay, for the real part
}

// NewHilbertEnvelope builds the hilbertEnvelope stage.
func NewHilbertEnvelope(taps int) Stage {
	return &hilbertEnvelopeStage{base: base{"hilbertEnvelope"}, taps: taps, coeffs: filter.DesignHilbert(taps)}
}

func (s *hilbertEnvelopeStage) ensure(channels int) {
	if len(s.filters) == channels {
		return
	}
	s.filters = make([]*filter.FIR, channels)
	s.delayed = make([]*filter.FIR, channels)
	delay := make([]float32, s.taps)
	delay[s.taps/2] = 1
	for c := 0; c < channels; c++ {
		s.filters[c] = filter.NewFIR(s.coeffs)
		s.delayed[c] = filter.NewFIR(delay)
	}
}

func (s *hilbertEnvelopeStage) Process(samples []float32, channels int, timestamps []float32) error {
	if channels <= 0 || len(samples)%channels != 0 {
		return dspxerr.New(dspxerr.KindInvalidArgument, "hilbertEnvelope: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(samples) / channels
	for c := 0; c < channels; c++ {
		in := make([]float32, n)
		for i := 0; i < n; i++ {
			in[i] = samples[i*channels+c]
		}
		imagPart := make([]float32, n)
		realPart := make([]float32, n)
		s.filters[c].Process(in, imagPart, false)
		s.delayed[c].Process(in, realPart, false)
		for i := 0; i < n; i++ {
			samples[i*channels+c] = float32(math.Hypot(float64(realPart[i]), float64(imagPart[i])))
		}
	}
	return nil
}
func (s *hilbertEnvelopeStage) Reset() {
	for _, f := range s.filters {
		f.Reset()
	}
	for _, f := range s.delayed {
		f.Reset()
	}
}
func (s *hilbertEnvelopeStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *hilbertEnvelopeStage) LoadState(r *snapshot.Reader) error { return nil }

// ConvolutionMethod selects the convolution stage's implementation.
type ConvolutionMethod string

const (
	ConvDirect ConvolutionMethod = "direct"
	ConvFFT    ConvolutionMethod = "fft"
	ConvAuto   ConvolutionMethod = "auto"
)

// convolutionStage performs full linear convolution of the input against a
// fixed kernel, resizing by kernel length - 1. Method "direct" drives a
// window.Convolution policy per channel, the on-demand-dot-product path the
// policy documents itself as implementing; "fft"/"auto" above autoThreshold
// go through filter.FIR's newest-first delay line instead, standing in for
// an overlap-save FFT core that would compute the identical numbers faster.
type convolutionStage struct {
	base
	kernel        []float32
	method        ConvolutionMethod
	autoThreshold int
	firs          []*filter.FIR
	engines       []*window.Engine
	policies      []*window.Convolution
}

// NewConvolution builds the convolution stage.
func NewConvolution(kernel []float32, method ConvolutionMethod, autoThreshold int) Stage {
	return &convolutionStage{base: base{"convolution"}, kernel: kernel, method: method, autoThreshold: autoThreshold}
}

func (s *convolutionStage) Resizing() bool          { return true }
func (s *convolutionStage) OutputChannelCount() int { return 0 }
func (s *convolutionStage) OutputSampleCount(n int) int {
	return n + len(s.kernel) - 1
}
func (s *convolutionStage) TimeScaleFactor() float64 { return 1 }

func (s *convolutionStage) direct() bool {
	return s.method == ConvDirect || (s.method == ConvAuto && len(s.kernel) <= s.autoThreshold)
}

func (s *convolutionStage) reversedKernel() []float32 {
	reversed := make([]float32, len(s.kernel))
	for i, k := range s.kernel {
		reversed[len(s.kernel)-1-i] = k
	}
	return reversed
}

func (s *convolutionStage) ensure(channels int) {
	if s.direct() {
		if len(s.engines) == channels {
			return
		}
		s.engines = make([]*window.Engine, channels)
		s.policies = make([]*window.Convolution, channels)
		for c := range s.engines {
			s.policies[c] = &window.Convolution{ReversedKernel: s.reversedKernel()}
			s.engines[c] = window.NewEngine(len(s.kernel), s.policies[c])
		}
		return
	}
	if len(s.firs) == channels {
		return
	}
	s.firs = make([]*filter.FIR, channels)
	for c := range s.firs {
		s.firs[c] = filter.NewFIR(s.reversedKernel())
	}
}

func (s *convolutionStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in)%channels != 0 {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "convolution: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(in) / channels
	outN := n + len(s.kernel) - 1
	if len(out) < outN*channels {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "convolution: output buffer too small").WithStage(-1, s.typeName)
	}
	if s.direct() {
		for c := 0; c < channels; c++ {
			for i := 0; i < outN; i++ {
				var x float32
				if i < n {
					x = in[i*channels+c]
				}
				s.engines[c].AddSample(x)
				out[i*channels+c] = s.policies[c].ResultFromWindow(s.engines[c].Window())
			}
		}
		return outN, nil
	}
	padded := make([]float32, outN)
	for c := 0; c < channels; c++ {
		for i := 0; i < n; i++ {
			padded[i] = in[i*channels+c]
		}
		for i := n; i < outN; i++ {
			padded[i] = 0
		}
		full := make([]float32, outN)
		s.firs[c].Process(padded, full, true)
		for i := 0; i < outN; i++ {
			out[i*channels+c] = full[i]
		}
	}
	return outN, nil
}
func (s *convolutionStage) Reset() {
	for _, f := range s.firs {
		f.Reset()
	}
	for _, e := range s.engines {
		e.Reset()
	}
}
func (s *convolutionStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *convolutionStage) LoadState(r *snapshot.Reader) error { return nil }

// waveletTransformStage performs single-level DWT decomposition, resizing
// by ⌈N/2⌉; output is approx coefficients followed by detail coefficients
// concatenated per channel.
type waveletTransformStage struct {
	base
	kind    string
	wavelet *filter.Wavelet
}

// NewWaveletTransform builds the waveletTransform stage.
func NewWaveletTransform(kind string) Stage {
	return &waveletTransformStage{base: base{"waveletTransform"}, kind: kind, wavelet: filter.NewWavelet(kind)}
}

func (s *waveletTransformStage) Resizing() bool          { return true }
func (s *waveletTransformStage) OutputChannelCount() int { return 0 }
func (s *waveletTransformStage) OutputSampleCount(n int) int {
	half := (n + 1) / 2
	return half * 2
}
func (s *waveletTransformStage) TimeScaleFactor() float64 { return 1 }

func (s *waveletTransformStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in)%channels != 0 {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "waveletTransform: bad channel count").WithStage(-1, s.typeName)
	}
	n := len(in) / channels
	half := (n + 1) / 2
	if len(out) < half*2*channels {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "waveletTransform: output buffer too small").WithStage(-1, s.typeName)
	}
	for c := 0; c < channels; c++ {
		chanIn := make([]float32, n)
		for i := 0; i < n; i++ {
			chanIn[i] = in[i*channels+c]
		}
		approx, detail := s.wavelet.DecomposeLevel(chanIn)
		for i := 0; i < half; i++ {
			var a, d float32
			if i < len(approx) {
				a = approx[i]
			}
			if i < len(detail) {
				d = detail[i]
			}
			out[i*channels+c] = a
			out[(half+i)*channels+c] = d
		}
	}
	return half * 2, nil
}
func (s *waveletTransformStage) Reset()                            {}
func (s *waveletTransformStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *waveletTransformStage) LoadState(r *snapshot.Reader) error { return nil }
