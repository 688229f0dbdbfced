package filter

import "math"

// FIRWindowType names the window applied to a windowed-sinc FIR design.
type FIRWindowType string

const (
	FIRHamming  FIRWindowType = "hamming"
	FIRHann     FIRWindowType = "hann"
	FIRBlackman FIRWindowType = "blackman"
)

// FIRKind selects the frequency response shape for DesignFIR.
type FIRKind string

const (
	FIRLowPass  FIRKind = "lowpass"
	FIRHighPass FIRKind = "highpass"
	FIRBandPass FIRKind = "bandpass"
	FIRBandStop FIRKind = "bandstop"
)

// DesignFIR returns windowed-sinc coefficients of the given order+1 taps.
// cutoff and cutoff2 are normalized to Nyquist (0,1); cutoff2 is only used
// for bandpass/bandstop.
func DesignFIR(kind FIRKind, order int, cutoff, cutoff2 float64, win FIRWindowType) []float32 {
	n := order + 1
	taps := make([]float32, n)
	m := float64(order)
	for i := 0; i < n; i++ {
		k := float64(i) - m/2
		var h float64
		switch kind {
		case FIRHighPass:
			h = sinc(k) - cutoff*sinc(cutoff*k)
		case FIRBandPass:
			h = cutoff2*sinc(cutoff2*k) - cutoff*sinc(cutoff*k)
		case FIRBandStop:
			if k == 0 {
				h = 1 - (cutoff2 - cutoff)
			} else {
				h = sinc(k) - cutoff2*sinc(cutoff2*k) + cutoff*sinc(cutoff*k)
			}
		default: // FIRLowPass
			h = cutoff * sinc(cutoff*k)
		}
		w := windowCoeff(win, i, n)
		taps[i] = float32(h * w)
	}
	return taps
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

func windowCoeff(win FIRWindowType, i, n int) float64 {
	nm1 := float64(n - 1)
	switch win {
	case FIRHann:
		return 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/nm1)
	case FIRBlackman:
		x := 2 * math.Pi * float64(i) / nm1
		return 0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x)
	default: // FIRHamming
		return 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/nm1)
	}
}

// DesignFirstOrder returns the bilinear-transformed first-order IIR
// (low-pass or high-pass) coefficients for a given normalized cutoff.
func DesignFirstOrder(highPass bool, cutoff float64) (b, a []float32) {
	k := math.Tan(math.Pi * cutoff / 2)
	norm := 1 / (1 + k)
	if highPass {
		b0 := norm
		b1 := -norm
		a1 := (k - 1) * norm
		return []float32{float32(b0), float32(b1)}, []float32{1, float32(a1)}
	}
	b0 := k * norm
	b1 := b0
	a1 := (k - 1) * norm
	return []float32{float32(b0), float32(b1)}, []float32{1, float32(a1)}
}

// Biquad holds RFJ-cookbook biquad coefficients.
type Biquad struct {
	B, A []float32
}

// DesignBiquad implements the Audio EQ Cookbook formulas for lowpass,
// highpass, bandpass, notch, peaking, lowshelf, and highshelf biquads.
func DesignBiquad(kind string, normalizedFreq, q, gainDB float64) Biquad {
	w0 := math.Pi * normalizedFreq
	cosw0 := math.Cos(w0)
	sinw0 := math.Sin(w0)
	alpha := sinw0 / (2 * q)
	A := math.Pow(10, gainDB/40)

	var b0, b1, b2, a0, a1, a2 float64
	switch kind {
	case "highpass":
		b0 = (1 + cosw0) / 2
		b1 = -(1 + cosw0)
		b2 = (1 + cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "bandpass":
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "notch":
		b0 = 1
		b1 = -2 * cosw0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	case "peaking":
		b0 = 1 + alpha*A
		b1 = -2 * cosw0
		b2 = 1 - alpha*A
		a0 = 1 + alpha/A
		a1 = -2 * cosw0
		a2 = 1 - alpha/A
	case "lowshelf":
		sq := math.Sqrt(A) * alpha * 2
		b0 = A * ((A + 1) - (A-1)*cosw0 + sq)
		b1 = 2 * A * ((A - 1) - (A+1)*cosw0)
		b2 = A * ((A + 1) - (A-1)*cosw0 - sq)
		a0 = (A + 1) + (A-1)*cosw0 + sq
		a1 = -2 * ((A - 1) + (A+1)*cosw0)
		a2 = (A + 1) + (A-1)*cosw0 - sq
	case "highshelf":
		sq := math.Sqrt(A) * alpha * 2
		b0 = A * ((A + 1) + (A-1)*cosw0 + sq)
		b1 = -2 * A * ((A - 1) + (A+1)*cosw0)
		b2 = A * ((A + 1) + (A-1)*cosw0 - sq)
		a0 = (A + 1) - (A-1)*cosw0 + sq
		a1 = 2 * ((A - 1) - (A+1)*cosw0)
		a2 = (A + 1) - (A-1)*cosw0 - sq
	default: // lowpass
		b0 = (1 - cosw0) / 2
		b1 = 1 - cosw0
		b2 = (1 - cosw0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosw0
		a2 = 1 - alpha
	}
	return Biquad{
		B: []float32{float32(b0 / a0), float32(b1 / a0), float32(b2 / a0)},
		A: []float32{1, float32(a1 / a0), float32(a2 / a0)},
	}
}

// DesignButterworth returns cascaded-biquad second-order-section
// coefficients approximating an order-N Butterworth lowpass at the given
// normalized cutoff, via the bilinear transform of the analog prototype's
// pole pairs.
func DesignButterworth(order int, normalizedCutoff float64) []Biquad {
	warped := math.Tan(math.Pi * normalizedCutoff / 2)
	sections := (order + 1) / 2
	out := make([]Biquad, 0, sections)
	for k := 0; k < order/2; k++ {
		theta := math.Pi * (2*float64(k) + 1) / (2 * float64(order))
		q := 1 / (2 * math.Sin(theta))
		out = append(out, butterworthSection(warped, q))
	}
	if order%2 == 1 {
		out = append(out, butterworthFirstOrderSection(warped))
	}
	return out
}

func butterworthSection(wc, q float64) Biquad {
	k := wc
	k2 := k * k
	norm := 1 / (k2 + k/q + 1)
	b0 := k2 * norm
	b1 := 2 * b0
	b2 := b0
	a1 := 2 * (k2 - 1) * norm
	a2 := (k2 - k/q + 1) * norm
	return Biquad{B: []float32{float32(b0), float32(b1), float32(b2)}, A: []float32{1, float32(a1), float32(a2)}}
}

func butterworthFirstOrderSection(wc float64) Biquad {
	norm := 1 / (wc + 1)
	b0 := wc * norm
	b1 := b0
	a1 := (wc - 1) * norm
	return Biquad{B: []float32{float32(b0), float32(b1), 0}, A: []float32{1, float32(a1), 0}}
}

// DesignChebyshev1 returns cascaded biquad sections approximating an
// order-N Chebyshev Type-I lowpass with rippleDB passband ripple.
func DesignChebyshev1(order int, normalizedCutoff, rippleDB float64) []Biquad {
	eps := math.Sqrt(math.Pow(10, rippleDB/10) - 1)
	v0 := math.Asinh(1/eps) / float64(order)
	wc := math.Tan(math.Pi * normalizedCutoff / 2)

	sections := order / 2
	out := make([]Biquad, 0, sections+1)
	for k := 0; k < sections; k++ {
		theta := math.Pi * (2*float64(k) + 1) / (2 * float64(order))
		sinhV0 := math.Sinh(v0)
		coshV0 := math.Cosh(v0)
		realPart := -sinhV0 * math.Sin(theta)
		imagPart := coshV0 * math.Cos(theta)
		magSq := realPart*realPart + imagPart*imagPart
		q := math.Sqrt(magSq) / (-2 * realPart)
		wn := wc * math.Sqrt(magSq)
		out = append(out, butterworthSection(wn, q))
	}
	if order%2 == 1 {
		sinhV0 := math.Sinh(v0)
		wn := wc * sinhV0
		out = append(out, butterworthFirstOrderSection(wn))
	}
	return out
}
