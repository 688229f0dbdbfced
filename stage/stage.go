// Package stage defines the stage contract (spec §4.2/§9) and the concrete
// adapters over internal/window, internal/filter, internal/fft,
// internal/resample, internal/align, and internal/matrix. It is the public
// extension surface: a host binding layer constructs stages by name via
// the registry in registry.go.
package stage

import (
	"github.com/dspxio/dspx/internal/snapshot"
)

// Stage is the contract every pipeline element implements (spec §4.2).
type Stage interface {
	// Type returns the stage's registered type name.
	Type() string

	// Resizing reports whether this stage may change the number of
	// samples per channel between input and output.
	Resizing() bool

	// Process runs a non-resizing stage in place: samples is rewritten
	// with the stage's output, same length and channel count.
	Process(samples []float32, channels int, timestamps []float32) error

	// ProcessResizing runs a resizing stage: in/inTS are the input
	// buffer and its timestamps, out must be sized by the caller using
	// OutputSampleCount as an allocation hint. produced is the actual
	// sample count written, which may differ from the hint (§9 Open
	// Question 1).
	ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (produced int, err error)

	// OutputSampleCount is an allocation-sizing hint only; only
	// meaningful when Resizing() is true.
	OutputSampleCount(inputSamples int) int

	// OutputChannelCount returns the stage's fixed output channel count,
	// or 0 if it passes the input channel count through unchanged.
	OutputChannelCount() int

	// TimeScaleFactor returns the ratio of output to input timestamp
	// spacing for resizing stages, i.e. input samples per output sample
	// (e.g. 2 for a 2x decimator). The pipeline executor reinterpolates
	// timestamps across a resizing stage by reading output slot i at
	// fractional input index i*TimeScaleFactor.
	TimeScaleFactor() float64

	// Reset clears all accumulated state back to construction defaults.
	Reset()

	// SaveState/LoadState serialize/restore stage state (spec §4.10).
	SaveState(w *snapshot.Writer) error
	LoadState(r *snapshot.Reader) error
}

// base supplies the non-resizing defaults most stage adapters share, so
// each adapter only needs to override what actually applies to it.
type base struct {
	typeName string
}

func (b base) Type() string                { return b.typeName }
func (b base) Resizing() bool              { return false }
func (b base) OutputSampleCount(n int) int { return n }
func (b base) OutputChannelCount() int     { return 0 }
func (b base) TimeScaleFactor() float64    { return 1 }

func (b base) ProcessResizing(in []float32, channels int, inTS []float32, out []float32) (int, error) {
	panic("stage: ProcessResizing called on a non-resizing stage: " + b.typeName)
}

func (b base) Process(samples []float32, channels int, timestamps []float32) error {
	panic("stage: Process called on a resizing stage: " + b.typeName)
}
