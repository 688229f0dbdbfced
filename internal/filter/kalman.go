package filter

// Kalman is a scalar constant-velocity Kalman smoother: state
// [position, velocity], one instance per channel. Supplements the
// differentiable-filter family with a recursive Bayesian filter (spec
// SPEC_FULL, "the original does more than the distillation kept").
type Kalman struct {
	ProcessNoise     float64
	MeasurementNoise float64

	x  [2]float64    // state: position, velocity
	p  [2][2]float64 // covariance
	dt float64
	initialized bool
}

// NewKalman constructs a Kalman filter with the given per-step process and
// measurement noise variances.
func NewKalman(processNoise, measurementNoise, dt float64) *Kalman {
	if dt <= 0 {
		dt = 1
	}
	k := &Kalman{ProcessNoise: processNoise, MeasurementNoise: measurementNoise, dt: dt}
	k.p[0][0], k.p[1][1] = 1, 1
	return k
}

// Reset clears state back to uninitialized (next Update seeds from its
// measurement).
func (k *Kalman) Reset() {
	k.x = [2]float64{}
	k.p = [2][2]float64{{1, 0}, {0, 1}}
	k.initialized = false
}

// Update ingests one measurement and returns the filtered position
// estimate.
func (k *Kalman) Update(z float32) float32 {
	if !k.initialized {
		k.x[0] = float64(z)
		k.initialized = true
		return z
	}

	dt := k.dt
	// Predict.
	x0 := k.x[0] + k.x[1]*dt
	x1 := k.x[1]
	p00 := k.p[0][0] + dt*(k.p[1][0]+k.p[0][1]+dt*k.p[1][1]) + k.ProcessNoise
	p01 := k.p[0][1] + dt*k.p[1][1]
	p10 := k.p[1][0] + dt*k.p[1][1]
	p11 := k.p[1][1] + k.ProcessNoise

	// Update with measurement z of position.
	y := float64(z) - x0
	s := p00 + k.MeasurementNoise
	k0 := p00 / s
	k1 := p10 / s

	k.x[0] = x0 + k0*y
	k.x[1] = x1 + k1*y
	k.p[0][0] = (1 - k0) * p00
	k.p[0][1] = (1 - k0) * p01
	k.p[1][0] = p10 - k1*p00
	k.p[1][1] = p11 - k1*p01

	return float32(k.x[0])
}
