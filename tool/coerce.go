package tool

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coerce converts v to the Go representation of kind:
//
//	string  -> string
//	integer -> int64
//	float   -> float64
//	boolean -> bool
//	list    -> []any
//	dict    -> map[string]any
//	any     -> v unchanged
//
// Lossless conversions are accepted (3.0 -> 3, "42" -> 42, 7 -> "7");
// everything else is an error.
func Coerce(kind Kind, v any) (any, error) {
	switch kind {
	case KindAny:
		return v, nil
	case KindString:
		return coerceString(v)
	case KindInteger:
		return coerceInteger(v)
	case KindFloat:
		return coerceFloat(v)
	case KindBoolean:
		return coerceBoolean(v)
	case KindList:
		return coerceList(v)
	case KindDict:
		return coerceDict(v)
	}
	return nil, fmt.Errorf("unsupported kind %d", kind)
}

func coerceString(v any) (any, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	return nil, mismatch(KindString, v)
}

func coerceInteger(v any) (any, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		if x == math.Trunc(x) && !math.IsInf(x, 0) && math.Abs(x) < 1<<63 {
			return int64(x), nil
		}
		return nil, fmt.Errorf("%v is not a whole number", x)
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", x)
		}
		return i, nil
	}
	return nil, mismatch(KindInteger, v)
}

func coerceFloat(v any) (any, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", x)
		}
		return f, nil
	}
	return nil, mismatch(KindFloat, v)
}

func coerceBoolean(v any) (any, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("%q is not a boolean", x)
	}
	return nil, mismatch(KindBoolean, v)
}

func coerceList(v any) (any, error) {
	switch x := v.(type) {
	case []any:
		return x, nil
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out, nil
	}
	return nil, mismatch(KindList, v)
}

func coerceDict(v any) (any, error) {
	switch x := v.(type) {
	case map[string]any:
		return x, nil
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, s := range x {
			out[k] = s
		}
		return out, nil
	}
	return nil, mismatch(KindDict, v)
}

func mismatch(kind Kind, v any) error {
	if v == nil {
		return fmt.Errorf("expected %s, got None", kind)
	}
	return fmt.Errorf("expected %s, got %T", kind, v)
}
