package resample

// Interpolator upsamples by L: insert L-1 zeros per sample, lowpass at
// cutoff pi/L, keep every sample (i.e. M=1).
type Interpolator struct{ poly *Polyphase }

func NewInterpolator(l, order int) *Interpolator {
	return &Interpolator{poly: NewPolyphase(l, 1, order)}
}
func (i *Interpolator) Process(in []float32) []float32 { return i.poly.Process(in) }
func (i *Interpolator) Reset()                         { i.poly.Reset() }
func (i *Interpolator) L() int                         { return i.poly.L }
func (i *Interpolator) M() int                         { return i.poly.M }

// Decimator downsamples by M: lowpass at cutoff pi/M, keep every M-th
// sample (i.e. L=1).
type Decimator struct{ poly *Polyphase }

func NewDecimator(m, order int) *Decimator {
	return &Decimator{poly: NewPolyphase(1, m, order)}
}
func (d *Decimator) Process(in []float32) []float32 { return d.poly.Process(in) }
func (d *Decimator) Reset()                         { d.poly.Reset() }
func (d *Decimator) L() int                         { return d.poly.L }
func (d *Decimator) M() int                         { return d.poly.M }

// Resampler performs combined rational resampling by L/M via one
// polyphase structure.
type Resampler struct{ poly *Polyphase }

func NewResampler(l, m, order int) *Resampler {
	return &Resampler{poly: NewPolyphase(l, m, order)}
}
func (r *Resampler) Process(in []float32) []float32 { return r.poly.Process(in) }
func (r *Resampler) Reset()                         { r.poly.Reset() }
func (r *Resampler) L() int                         { return r.poly.L }
func (r *Resampler) M() int                         { return r.poly.M }
