package params

import (
	"fmt"
	"sort"

	"github.com/san-kum/pairsim/internal/dynamo"
)

// Record is the key/value form of a parameter set, as decoded from YAML or
// built in code. Values are numeric scalars or lists of numeric scalars.
type Record map[string]any

// Keys returns the record keys in sorted order.
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Scalar extracts a required numeric value.
func Scalar(rec Record, family, key string) (float64, error) {
	v, ok := rec[key]
	if !ok {
		return 0, &dynamo.ConfigError{Family: family, Key: key, Reason: "required key is missing"}
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, &dynamo.ConfigError{Family: family, Key: key, Reason: fmt.Sprintf("expected a scalar, got %T", v)}
	}
	return f, nil
}

// Scalars extracts a required list of exactly n numeric values.
func Scalars(rec Record, family, key string, n int) ([]float64, error) {
	out, err := ScalarList(rec, family, key)
	if err != nil {
		return nil, err
	}
	if len(out) != n {
		return nil, &dynamo.ConfigError{Family: family, Key: key, Reason: fmt.Sprintf("expected %d values, got %d", n, len(out))}
	}
	return out, nil
}

// ScalarList extracts a required list of numeric values of any length.
func ScalarList(rec Record, family, key string) ([]float64, error) {
	v, ok := rec[key]
	if !ok {
		return nil, &dynamo.ConfigError{Family: family, Key: key, Reason: "required key is missing"}
	}

	switch list := v.(type) {
	case []float64:
		out := make([]float64, len(list))
		copy(out, list)
		return out, nil
	case []any:
		out := make([]float64, len(list))
		for i, item := range list {
			f, ok := toFloat(item)
			if !ok {
				return nil, &dynamo.ConfigError{Family: family, Key: key, Reason: fmt.Sprintf("element %d: expected a scalar, got %T", i, item)}
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, &dynamo.ConfigError{Family: family, Key: key, Reason: fmt.Sprintf("expected a list of scalars, got %T", v)}
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	default:
		return 0, false
	}
}
