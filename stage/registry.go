package stage

import (
	"github.com/dspxio/dspx/dspxerr"
	"github.com/dspxio/dspx/internal/align"
	"github.com/dspxio/dspx/internal/fft"
	"github.com/dspxio/dspx/internal/filter"
)

// Construct builds a Stage by its registered type name from an options map
// (spec §4.11/§6: a host binding layer registers/constructs stages by
// name). Unknown type names and invalid/missing options are reported as
// *dspxerr.Error so the caller can surface them to its own binding layer.
func Construct(stageType string, options map[string]any) (Stage, error) {
	switch stageType {
	case "movingAverage":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		return NewMovingAverage(ws), nil
	case "rms":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		return NewRMS(ws), nil
	case "variance":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		return NewVariance(ws), nil
	case "meanAbsoluteValue":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		return NewMeanAbsoluteValue(ws), nil
	case "zScoreNormalize":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		eps := optFloat(options, "epsilon", 1e-8)
		return NewZScoreNormalize(ws, eps), nil
	case "waveformLength":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		return NewWaveformLength(ws), nil
	case "slopeSignChange":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		th := optFloat(options, "threshold", 0)
		return NewSlopeSignChange(ws, float32(th)), nil
	case "willisonAmplitude":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		th := optFloat(options, "threshold", 0)
		return NewWillisonAmplitude(ws, float32(th)), nil
	case "cumulativeMovingAverage":
		return NewCumulativeMovingAverage(), nil
	case "exponentialMovingAverage":
		alpha, err := reqFloat(stageType, options, "alpha")
		if err != nil {
			return nil, err
		}
		return NewExponentialMovingAverage(alpha), nil

	case "rectify":
		mode := RectifyMode(optString(options, "mode", string(RectifyFull)))
		return NewRectify(mode), nil
	case "differentiator":
		sr := optFloat(options, "sampleRate", 0)
		return NewDifferentiator(sr), nil
	case "integrator":
		leak := optFloat(options, "leak", 1)
		return NewIntegrator(leak), nil
	case "square":
		return NewSquare(), nil
	case "amplify":
		gain, err := reqFloat(stageType, options, "gain")
		if err != nil {
			return nil, err
		}
		return NewAmplify(gain), nil
	case "clipDetection":
		th, err := reqFloat(stageType, options, "threshold")
		if err != nil {
			return nil, err
		}
		return NewClipDetection(th), nil
	case "peakDetection":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		th := optFloat(options, "threshold", 0)
		minDist := optInt(options, "minPeakDistance", 1)
		return NewPeakDetection(ws, th, minDist), nil
	case "snr":
		vad := optFloat(options, "vadThreshold", 1e-4)
		alpha := optFloat(options, "alpha", 0.05)
		return NewSNR(vad, alpha), nil

	case "channelSelect":
		idx, err := reqIntSlice(stageType, options, "indices")
		if err != nil {
			return nil, err
		}
		return NewChannelSelect(idx), nil
	case "channelMerge":
		mode := MergeMode(optString(options, "mode", string(MergeAverage)))
		return NewChannelMerge(mode), nil
	case "channelSelector":
		return NewChannelSelector(RoundRobinSelector), nil
	case "filterBank":
		bands, err := reqBiquadBands(stageType, options)
		if err != nil {
			return nil, err
		}
		return NewFilterBank(bands), nil
	case "gscPreprocessor":
		return NewGSCPreprocessor(), nil

	case "filter:fir":
		coeffs, err := reqFloatSlice(stageType, options, "coefficients")
		if err != nil {
			return nil, err
		}
		return NewFIRFilter(coeffs), nil
	case "filter:iir":
		b, err := reqFloatSlice(stageType, options, "b")
		if err != nil {
			return nil, err
		}
		a, err := reqFloatSlice(stageType, options, "a")
		if err != nil {
			return nil, err
		}
		return NewIIRFilter(b, a), nil
	case "lmsFilter":
		taps, err := reqInt(stageType, options, "numTaps")
		if err != nil {
			return nil, err
		}
		mu, err := reqFloat(stageType, options, "mu")
		if err != nil {
			return nil, err
		}
		normalized := optBool(options, "normalized", false)
		lambda := optFloat(options, "lambda", 0.99)
		return NewLMSFilter(taps, mu, normalized, lambda), nil
	case "rlsFilter":
		taps, err := reqInt(stageType, options, "numTaps")
		if err != nil {
			return nil, err
		}
		lambda := optFloat(options, "lambda", 0.99)
		delta := optFloat(options, "delta", 1.0)
		return NewRLSFilter(taps, lambda, delta), nil
	case "kalmanFilter":
		pn := optFloat(options, "processNoise", 1e-4)
		mn := optFloat(options, "measurementNoise", 1e-2)
		dt := optFloat(options, "dt", 1.0)
		return NewKalmanFilter(pn, mn, dt), nil

	case "interpolate":
		l, err := reqInt(stageType, options, "factor")
		if err != nil {
			return nil, err
		}
		order := optInt(options, "order", 0)
		return NewInterpolate(l, order), nil
	case "decimate":
		m, err := reqInt(stageType, options, "factor")
		if err != nil {
			return nil, err
		}
		order := optInt(options, "order", 0)
		return NewDecimate(m, order), nil
	case "resample":
		l, err := reqInt(stageType, options, "l")
		if err != nil {
			return nil, err
		}
		m, err := reqInt(stageType, options, "m")
		if err != nil {
			return nil, err
		}
		order := optInt(options, "order", 0)
		return NewResample(l, m, order), nil
	case "timeAlignment":
		cfg := align.Config{
			TargetSampleRate: optFloat(options, "targetSampleRate", 1000),
			Interpolation:    align.Interpolation(optString(options, "interpolation", string(align.InterpLinear))),
			GapPolicy:        align.GapPolicy(optString(options, "gapPolicy", string(align.GapInterpolate))),
			GapThresholdMult: optFloat(options, "gapThresholdMultiplier", 2.0),
			Drift:            align.DriftCompensation(optString(options, "driftCompensation", string(align.DriftNone))),
			SincHalfWidth:    optInt(options, "sincHalfWidth", 4),
		}
		return NewTimeAlignment(cfg), nil
	case "convolution":
		kernel, err := reqFloatSlice(stageType, options, "kernel")
		if err != nil {
			return nil, err
		}
		method := ConvolutionMethod(optString(options, "method", string(ConvAuto)))
		threshold := optInt(options, "autoThreshold", 64)
		return NewConvolution(kernel, method, threshold), nil
	case "waveletTransform":
		kind := optString(options, "wavelet", "db1")
		switch kind {
		case "haar", "db1", "db2", "db3", "db4", "db5", "db6", "db7", "db8", "db9", "db10":
		default:
			return nil, dspxerr.New(dspxerr.KindInvalidArgument, "unknown wavelet").WithStage(-1, stageType).WithParam("wavelet")
		}
		return NewWaveletTransform(kind), nil
	case "hilbertEnvelope":
		taps := optInt(options, "taps", 65)
		return NewHilbertEnvelope(taps), nil
	case "stft":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		hop := optInt(options, "hop", ws/2)
		wt := fft.WindowType(optString(options, "window", string(fft.WindowHann)))
		return NewSTFT(ws, hop, wt), nil
	case "fft":
		size, err := reqInt(stageType, options, "size")
		if err != nil {
			return nil, err
		}
		useRFFT := optBool(options, "real", true)
		return NewFFT(size, useRFFT), nil
	case "melSpectrogram":
		size, err := reqInt(stageType, options, "fftSize")
		if err != nil {
			return nil, err
		}
		fb, err := reqFloatMatrix(stageType, options, "filterbankMatrix")
		if err != nil {
			return nil, err
		}
		return NewMelSpectrogram(size, fb), nil
	case "mfcc":
		size, err := reqInt(stageType, options, "fftSize")
		if err != nil {
			return nil, err
		}
		fb, err := reqFloatMatrix(stageType, options, "filterbankMatrix")
		if err != nil {
			return nil, err
		}
		numCoeff := optInt(options, "numCoefficients", 13)
		return NewMFCC(size, fb, numCoeff), nil
	case "linearRegressionSlope":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		return NewLinearRegressionSlope(ws), nil
	case "linearRegressionIntercept":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		return NewLinearRegressionIntercept(ws), nil
	case "linearRegressionResiduals":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		return NewLinearRegressionResiduals(ws), nil
	case "linearRegressionPredictions":
		ws, err := reqInt(stageType, options, "windowSize")
		if err != nil {
			return nil, err
		}
		return NewLinearRegressionPredictions(ws), nil
	case "matrix-transform":
		kind := MatrixTransformKind(optString(options, "kind", string(MatrixPCA)))
		components, err := reqFloatMatrixF64(stageType, options, "matrix")
		if err != nil {
			return nil, err
		}
		mean := optFloat64Slice(options, "mean")
		return NewMatrixTransform(kind, components, mean), nil
	case "csp":
		filters, err := reqFloatMatrixF64(stageType, options, "filters")
		if err != nil {
			return nil, err
		}
		return NewCSP(filters), nil

	default:
		return nil, dspxerr.New(dspxerr.KindUnknownStage, "unknown stage type: "+stageType)
	}
}

func reqBiquadBands(stageType string, options map[string]any) ([][2][]float32, error) {
	raw, ok := options["bands"]
	if !ok {
		return nil, dspxerr.New(dspxerr.KindInvalidArgument, "missing required option").WithStage(-1, stageType).WithParam("bands")
	}
	list, ok := raw.([]filter.Biquad)
	if ok {
		bands := make([][2][]float32, len(list))
		for i, bq := range list {
			bands[i] = [2][]float32{bq.B, bq.A}
		}
		return bands, nil
	}
	bands, ok := raw.([][2][]float32)
	if !ok {
		return nil, dspxerr.New(dspxerr.KindInvalidArgument, "bands must be []filter.Biquad or [][2][]float32").WithStage(-1, stageType).WithParam("bands")
	}
	return bands, nil
}
