// Package window implements the generic sliding-window statistics engine
// and its incremental policies (spec §4.2): the engine drives a Ring
// buffer and delegates onAdd/onRemove/result to a Policy, which carries
// only the scalar running state it needs.
package window

import "math"

// Policy computes a streaming statistic over a sliding window. Implementers
// must be able to rebuild their running state purely from replayed onAdd
// calls (needed when ExpireOld drops multiple elements at once).
type Policy interface {
	OnAdd(x float32)
	OnRemove(x float32)
	Result(count int) float32
	Clear()
}

// Mean computes the running arithmetic mean.
type Mean struct{ sum float64 }

func (p *Mean) OnAdd(x float32)    { p.sum += float64(x) }
func (p *Mean) OnRemove(x float32) { p.sum -= float64(x) }
func (p *Mean) Clear()             { p.sum = 0 }
func (p *Mean) Result(count int) float32 {
	if count == 0 {
		return 0
	}
	return float32(p.sum / float64(count))
}

// RMS computes the running root-mean-square.
type RMS struct{ sumSq float64 }

func (p *RMS) OnAdd(x float32)    { p.sumSq += float64(x) * float64(x) }
func (p *RMS) OnRemove(x float32) { p.sumSq -= float64(x) * float64(x) }
func (p *RMS) Clear()             { p.sumSq = 0 }
func (p *RMS) Result(count int) float32 {
	if count == 0 {
		return 0
	}
	v := p.sumSq / float64(count)
	if v < 0 {
		v = 0
	}
	return float32(math.Sqrt(v))
}

// MeanAbsoluteValue computes the running mean of |x|.
type MeanAbsoluteValue struct{ sum float64 }

func (p *MeanAbsoluteValue) OnAdd(x float32)    { p.sum += math.Abs(float64(x)) }
func (p *MeanAbsoluteValue) OnRemove(x float32) { p.sum -= math.Abs(float64(x)) }
func (p *MeanAbsoluteValue) Clear()             { p.sum = 0 }
func (p *MeanAbsoluteValue) Result(count int) float32 {
	if count == 0 {
		return 0
	}
	return float32(p.sum / float64(count))
}

// Variance computes the running (biased) variance, clamped to >= 0.
type Variance struct {
	sum   float64
	sumSq float64
}

func (p *Variance) OnAdd(x float32) {
	p.sum += float64(x)
	p.sumSq += float64(x) * float64(x)
}
func (p *Variance) OnRemove(x float32) {
	p.sum -= float64(x)
	p.sumSq -= float64(x) * float64(x)
}
func (p *Variance) Clear() { p.sum, p.sumSq = 0, 0 }
func (p *Variance) Result(count int) float32 {
	if count == 0 {
		return 0
	}
	n := float64(count)
	v := (p.sumSq - p.sum*p.sum/n) / n
	if v < 0 {
		v = 0
	}
	return float32(v)
}

// Mean exposes the current running mean, used by ZScore composite.
func (p *Variance) Mean(count int) float64 {
	if count == 0 {
		return 0
	}
	return p.sum / float64(count)
}

// Sum computes the running sum; used directly (SumPolicy) or fed |Δx| for
// waveform length.
type Sum struct{ sum float64 }

func (p *Sum) OnAdd(x float32)            { p.sum += float64(x) }
func (p *Sum) OnRemove(x float32)         { p.sum -= float64(x) }
func (p *Sum) Clear()                     { p.sum = 0 }
func (p *Sum) Result(count int) float32   { return float32(p.sum) }

// Counter counts how many "true" observations (passed as 1/0 via OnAdd) are
// currently in the window.
type Counter struct{ n int }

func (p *Counter) OnAdd(x float32) {
	if x != 0 {
		p.n++
	}
}
func (p *Counter) OnRemove(x float32) {
	if x != 0 {
		p.n--
	}
}
func (p *Counter) Clear()                   { p.n = 0 }
func (p *Counter) Result(count int) float32 { return float32(p.n) }

