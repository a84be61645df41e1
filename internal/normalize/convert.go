package normalize

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"
)

// ToInt64 converts a scalar to int64. Floats are truncated; strings are
// parsed as integers first, then as floats.
func ToInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint:
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%d overflows int64", n)
		}
		return int64(n), nil
	case float32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	case []byte:
		return ToInt64(string(n))
	case string:
		s := strings.TrimSpace(n)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, nil
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), nil
		}
		return 0, fmt.Errorf("%q is not an integer", n)
	default:
		return 0, fmt.Errorf("cannot convert %T to integer", v)
	}
}

// ToFloat64 converts a scalar to float64.
func ToFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", n)
		}
		return f, nil
	case []byte:
		return ToFloat64(string(n))
	default:
		i, err := ToInt64(v)
		if err != nil {
			return 0, fmt.Errorf("cannot convert %T to float", v)
		}
		return float64(i), nil
	}
}

// ToBool converts a scalar to bool. Numbers are true when non-zero; strings
// accept 1/0, true/false, yes/no, on/off and the empty string.
func ToBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "1", "true", "yes", "on", "t", "y":
			return true, nil
		case "0", "false", "no", "off", "f", "n", "":
			return false, nil
		}
		return false, fmt.Errorf("%q is not a boolean", b)
	case []byte:
		return ToBool(string(b))
	default:
		f, err := ToFloat64(v)
		if err != nil {
			return false, fmt.Errorf("cannot convert %T to boolean", v)
		}
		return f != 0, nil
	}
}

// ToString converts a scalar to its text form. Booleans become "1" and "0".
func ToString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	case bool:
		if s {
			return "1", nil
		}
		return "0", nil
	case float32:
		return strconv.FormatFloat(float64(s), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		if i, err := ToInt64(v); err == nil {
			return strconv.FormatInt(i, 10), nil
		}
		return "", fmt.Errorf("cannot convert %T to string", v)
	}
}

// IsComposite reports whether v is an array, slice, map or struct (or a
// pointer to one). []byte is treated as a scalar.
func IsComposite(v any) bool {
	if v == nil {
		return false
	}
	if _, ok := v.([]byte); ok {
		return false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Array, reflect.Slice, reflect.Map, reflect.Struct:
		return true
	}
	return false
}
