package fft

import "math"

// WindowType names a window function usable by the moving-FFT and STFT
// adapters (spec §4.4).
type WindowType string

const (
	WindowNone     WindowType = "none"
	WindowHann     WindowType = "hann"
	WindowHamming  WindowType = "hamming"
	WindowBlackman WindowType = "blackman"
	WindowBartlett WindowType = "bartlett"
)

// MakeWindow returns a length-n window of the given type.
func MakeWindow(t WindowType, n int) []float32 {
	w := make([]float32, n)
	if n <= 1 {
		for i := range w {
			w[i] = 1
		}
		return w
	}
	nm1 := float64(n - 1)
	switch t {
	case WindowHann:
		for i := range w {
			w[i] = float32(0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/nm1))
		}
	case WindowHamming:
		for i := range w {
			w[i] = float32(0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/nm1))
		}
	case WindowBlackman:
		for i := range w {
			x := 2 * math.Pi * float64(i) / nm1
			w[i] = float32(0.42 - 0.5*math.Cos(x) + 0.08*math.Cos(2*x))
		}
	case WindowBartlett:
		for i := range w {
			w[i] = float32(1 - math.Abs((float64(i)-nm1/2)/(nm1/2)))
		}
	default: // WindowNone or unknown
		for i := range w {
			w[i] = 1
		}
	}
	return w
}
