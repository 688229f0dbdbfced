package stage

import (
	"github.com/dspxio/dspx/dspxerr"
	"github.com/dspxio/dspx/internal/filter"
	"github.com/dspxio/dspx/internal/snapshot"
)

// channelSelectStage keeps a fixed subset of channel indices.
type channelSelectStage struct {
	base
	indices []int
}

// NewChannelSelect builds the channelSelect stage.
func NewChannelSelect(indices []int) Stage {
	s := &channelSelectStage{base: base{"channelSelect"}, indices: indices}
	return s
}

func (s *channelSelectStage) Resizing() bool          { return true }
func (s *channelSelectStage) OutputChannelCount() int { return len(s.indices) }
func (s *channelSelectStage) OutputSampleCount(n int) int { return n }
func (s *channelSelectStage) TimeScaleFactor() float64    { return 1 }

func (s *channelSelectStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in)%channels != 0 {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "channelSelect: bad channel count").WithStage(-1, s.typeName)
	}
	for _, idx := range s.indices {
		if idx < 0 || idx >= channels {
			return 0, dspxerr.New(dspxerr.KindInvalidArgument, "channelSelect: index out of range").WithStage(-1, s.typeName).WithParam("indices")
		}
	}
	n := len(in) / channels
	need := n * len(s.indices)
	if len(out) < need {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "channelSelect: output buffer too small").WithStage(-1, s.typeName)
	}
	for i := 0; i < n; i++ {
		for k, idx := range s.indices {
			out[i*len(s.indices)+k] = in[i*channels+idx]
		}
	}
	return n, nil
}
func (s *channelSelectStage) Reset()                            {}
func (s *channelSelectStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *channelSelectStage) LoadState(r *snapshot.Reader) error { return nil }

// MergeMode selects how channelMerge combines channels down to one.
type MergeMode string

const (
	MergeSum     MergeMode = "sum"
	MergeAverage MergeMode = "average"
)

type channelMergeStage struct {
	base
	mode MergeMode
}

// NewChannelMerge builds the channelMerge stage.
func NewChannelMerge(mode MergeMode) Stage {
	return &channelMergeStage{base{"channelMerge"}, mode}
}

func (s *channelMergeStage) Resizing() bool              { return true }
func (s *channelMergeStage) OutputChannelCount() int     { return 1 }
func (s *channelMergeStage) OutputSampleCount(n int) int { return n }
func (s *channelMergeStage) TimeScaleFactor() float64    { return 1 }

func (s *channelMergeStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in)%channels != 0 {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "channelMerge: bad channel count").WithStage(-1, s.typeName)
	}
	n := len(in) / channels
	if len(out) < n {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "channelMerge: output buffer too small").WithStage(-1, s.typeName)
	}
	for i := 0; i < n; i++ {
		var sum float32
		for c := 0; c < channels; c++ {
			sum += in[i*channels+c]
		}
		if s.mode == MergeAverage {
			sum /= float32(channels)
		}
		out[i] = sum
	}
	return n, nil
}
func (s *channelMergeStage) Reset()                            {}
func (s *channelMergeStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *channelMergeStage) LoadState(r *snapshot.Reader) error { return nil }

// SelectorFunc picks, for a given buffer's sample index i and channel
// count, which channel index to emit — e.g. round-robin or a weighted
// pick — distinguishing channelSelector from channelSelect's fixed index
// list.
type SelectorFunc func(sampleIndex, channels int) int

// RoundRobinSelector cycles through channels 0..channels-1.
func RoundRobinSelector(sampleIndex, channels int) int { return sampleIndex % channels }

type channelSelectorStage struct {
	base
	pick SelectorFunc
}

// NewChannelSelector builds the channelSelector stage.
func NewChannelSelector(pick SelectorFunc) Stage {
	return &channelSelectorStage{base{"channelSelector"}, pick}
}

func (s *channelSelectorStage) Resizing() bool              { return true }
func (s *channelSelectorStage) OutputChannelCount() int     { return 1 }
func (s *channelSelectorStage) OutputSampleCount(n int) int { return n }
func (s *channelSelectorStage) TimeScaleFactor() float64    { return 1 }

func (s *channelSelectorStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in)%channels != 0 {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "channelSelector: bad channel count").WithStage(-1, s.typeName)
	}
	n := len(in) / channels
	if len(out) < n {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "channelSelector: output buffer too small").WithStage(-1, s.typeName)
	}
	for i := 0; i < n; i++ {
		ch := s.pick(i, channels)
		if ch < 0 || ch >= channels {
			ch = 0
		}
		out[i] = in[i*channels+ch]
	}
	return n, nil
}
func (s *channelSelectorStage) Reset()                            {}
func (s *channelSelectorStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *channelSelectorStage) LoadState(r *snapshot.Reader) error { return nil }

// filterBankStage replicates the input across N parallel sub-band IIR
// filters and concatenates the sub-band outputs as additional channels:
// output channel count = input channels * num bands.
type filterBankStage struct {
	base
	bandCoeffs [][2][]float32 // per band: {b, a}
	filters    [][]*filter.IIR // [band][channel]
}

// NewFilterBank builds the filterBank stage from a list of (b, a)
// coefficient pairs, one per band.
func NewFilterBank(bands [][2][]float32) Stage {
	return &filterBankStage{base: base{"filterBank"}, bandCoeffs: bands}
}

func (s *filterBankStage) Resizing() bool          { return true }
func (s *filterBankStage) OutputChannelCount() int { return 0 } // scales with input, set dynamically
func (s *filterBankStage) OutputSampleCount(n int) int { return n }
func (s *filterBankStage) TimeScaleFactor() float64    { return 1 }

func (s *filterBankStage) ensure(channels int) {
	if len(s.filters) == len(s.bandCoeffs) && len(s.filters) > 0 && len(s.filters[0]) == channels {
		return
	}
	s.filters = make([][]*filter.IIR, len(s.bandCoeffs))
	for b, bc := range s.bandCoeffs {
		s.filters[b] = make([]*filter.IIR, channels)
		for c := 0; c < channels; c++ {
			s.filters[b][c] = filter.NewIIR(bc[0], bc[1])
		}
	}
}

func (s *filterBankStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in)%channels != 0 {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "filterBank: bad channel count").WithStage(-1, s.typeName)
	}
	s.ensure(channels)
	n := len(in) / channels
	numBands := len(s.bandCoeffs)
	outChannels := channels * numBands
	need := n * outChannels
	if len(out) < need {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "filterBank: output buffer too small").WithStage(-1, s.typeName)
	}
	for c := 0; c < channels; c++ {
		chanIn := make([]float32, n)
		for i := 0; i < n; i++ {
			chanIn[i] = in[i*channels+c]
		}
		for b := 0; b < numBands; b++ {
			chanOut := make([]float32, n)
			s.filters[b][c].Process(chanIn, chanOut, false)
			outCh := c*numBands + b
			for i := 0; i < n; i++ {
				out[i*outChannels+outCh] = chanOut[i]
			}
		}
	}
	return n, nil
}
func (s *filterBankStage) Reset() {
	for _, band := range s.filters {
		for _, f := range band {
			f.Reset()
		}
	}
}
func (s *filterBankStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *filterBankStage) LoadState(r *snapshot.Reader) error { return nil }

// gscPreprocessorStage implements generalized sidelobe canceller
// preprocessing: a fixed beamformer (mean across channels) plus a blocking
// matrix of pairwise adjacent-channel differences, producing channels+1
// output channels (the extra channel is the beamformer output).
type gscPreprocessorStage struct{ base }

// NewGSCPreprocessor builds the gscPreprocessor stage.
func NewGSCPreprocessor() Stage { return &gscPreprocessorStage{base{"gscPreprocessor"}} }

func (s *gscPreprocessorStage) Resizing() bool          { return true }
func (s *gscPreprocessorStage) OutputChannelCount() int { return 0 } // input+1, set dynamically
func (s *gscPreprocessorStage) OutputSampleCount(n int) int { return n }
func (s *gscPreprocessorStage) TimeScaleFactor() float64    { return 1 }

func (s *gscPreprocessorStage) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	if channels <= 0 || len(in)%channels != 0 {
		return 0, dspxerr.New(dspxerr.KindInvalidArgument, "gscPreprocessor: bad channel count").WithStage(-1, s.typeName)
	}
	n := len(in) / channels
	outChannels := channels + 1
	if len(out) < n*outChannels {
		return 0, dspxerr.New(dspxerr.KindOutputTooSmall, "gscPreprocessor: output buffer too small").WithStage(-1, s.typeName)
	}
	for i := 0; i < n; i++ {
		var mean float32
		for c := 0; c < channels; c++ {
			mean += in[i*channels+c]
		}
		mean /= float32(channels)
		out[i*outChannels] = mean
		for c := 0; c < channels; c++ {
			next := in[i*channels+(c+1)%channels]
			out[i*outChannels+1+c] = in[i*channels+c] - next
		}
	}
	return n, nil
}
func (s *gscPreprocessorStage) Reset()                            {}
func (s *gscPreprocessorStage) SaveState(w *snapshot.Writer) error { return nil }
func (s *gscPreprocessorStage) LoadState(r *snapshot.Reader) error { return nil }
