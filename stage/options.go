package stage

import "github.com/dspxio/dspx/dspxerr"

func missing(stageType, name string) error {
	return dspxerr.New(dspxerr.KindInvalidArgument, "missing required option").WithStage(-1, stageType).WithParam(name)
}

func badType(stageType, name string) error {
	return dspxerr.New(dspxerr.KindInvalidArgument, "option has the wrong type").WithStage(-1, stageType).WithParam(name)
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	}
	return 0, false
}

func reqFloat(stageType string, options map[string]any, name string) (float64, error) {
	v, ok := options[name]
	if !ok {
		return 0, missing(stageType, name)
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, badType(stageType, name)
	}
	return f, nil
}

func optFloat(options map[string]any, name string, def float64) float64 {
	v, ok := options[name]
	if !ok {
		return def
	}
	if f, ok := toFloat(v); ok {
		return f
	}
	return def
}

func reqInt(stageType string, options map[string]any, name string) (int, error) {
	f, err := reqFloat(stageType, options, name)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func optInt(options map[string]any, name string, def int) int {
	return int(optFloat(options, name, float64(def)))
}

func optBool(options map[string]any, name string, def bool) bool {
	v, ok := options[name]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func optString(options map[string]any, name, def string) string {
	v, ok := options[name]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

func toFloat32Slice(v any) ([]float32, bool) {
	switch x := v.(type) {
	case []float32:
		return x, true
	case []float64:
		out := make([]float32, len(x))
		for i, f := range x {
			out[i] = float32(f)
		}
		return out, true
	case []any:
		out := make([]float32, len(x))
		for i, e := range x {
			f, ok := toFloat(e)
			if !ok {
				return nil, false
			}
			out[i] = float32(f)
		}
		return out, true
	}
	return nil, false
}

func reqFloatSlice(stageType string, options map[string]any, name string) ([]float32, error) {
	v, ok := options[name]
	if !ok {
		return nil, missing(stageType, name)
	}
	s, ok := toFloat32Slice(v)
	if !ok {
		return nil, badType(stageType, name)
	}
	return s, nil
}

func optFloat64Slice(options map[string]any, name string) []float64 {
	v, ok := options[name]
	if !ok {
		return nil
	}
	switch x := v.(type) {
	case []float64:
		return x
	case []float32:
		out := make([]float64, len(x))
		for i, f := range x {
			out[i] = float64(f)
		}
		return out
	}
	return nil
}

func reqIntSlice(stageType string, options map[string]any, name string) ([]int, error) {
	v, ok := options[name]
	if !ok {
		return nil, missing(stageType, name)
	}
	switch x := v.(type) {
	case []int:
		return x, nil
	case []any:
		out := make([]int, len(x))
		for i, e := range x {
			f, ok := toFloat(e)
			if !ok {
				return nil, badType(stageType, name)
			}
			out[i] = int(f)
		}
		return out, nil
	}
	return nil, badType(stageType, name)
}

func reqFloatMatrix(stageType string, options map[string]any, name string) ([][]float32, error) {
	v, ok := options[name]
	if !ok {
		return nil, missing(stageType, name)
	}
	switch x := v.(type) {
	case [][]float32:
		return x, nil
	case [][]float64:
		out := make([][]float32, len(x))
		for i, row := range x {
			out[i] = make([]float32, len(row))
			for j, f := range row {
				out[i][j] = float32(f)
			}
		}
		return out, nil
	}
	return nil, badType(stageType, name)
}

func reqFloatMatrixF64(stageType string, options map[string]any, name string) ([][]float64, error) {
	v, ok := options[name]
	if !ok {
		return nil, missing(stageType, name)
	}
	switch x := v.(type) {
	case [][]float64:
		return x, nil
	case [][]float32:
		out := make([][]float64, len(x))
		for i, row := range x {
			out[i] = make([]float64, len(row))
			for j, f := range row {
				out[i][j] = float64(f)
			}
		}
		return out, nil
	}
	return nil, badType(stageType, name)
}
