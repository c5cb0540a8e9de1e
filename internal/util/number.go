package util

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToNumber coerces a loosely typed cell into a float.
// nil, "", "nan" (any case), unparseable text, NaN and ±Inf all yield nil; zero stays zero.
func ToNumber(value any) *float64 {
	switch v := value.(type) {
	case nil:
		return nil
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return FloatPtr(float64(v))
	case int32:
		return FloatPtr(float64(v))
	case int64:
		return FloatPtr(float64(v))
	case bool:
		if v {
			return FloatPtr(1)
		}
		return FloatPtr(0)
	case json.Number:
		return parseNumeric(string(v))
	case string:
		return parseNumeric(v)
	default:
		return nil
	}
}

// ToInt parses like ToNumber and truncates toward zero, so "2021.0" gives 2021.
func ToInt(value any) *int {
	f := ToNumber(value)
	if f == nil {
		return nil
	}
	// On 64-bit float64(math.MaxInt) rounds up to 2^63, which no int can hold.
	t := math.Trunc(*f)
	if t >= math.MaxInt || t < math.MinInt {
		return nil
	}
	return IntPtr(int(t))
}

// ToText stringifies scalar cells without trimming. nil and NaN yield nil.
func ToText(value any) *string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return StringPtr(v)
	case json.Number:
		return StringPtr(v.String())
	case float64:
		if math.IsNaN(v) {
			return nil
		}
		return StringPtr(FormatNumber(v))
	case float32:
		return ToText(float64(v))
	case int:
		return StringPtr(strconv.Itoa(v))
	case int64:
		return StringPtr(strconv.FormatInt(v, 10))
	case bool:
		if v {
			return StringPtr("True")
		}
		return StringPtr("False")
	default:
		return nil
	}
}

// FormatNumber renders whole floats without a fractional part.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parseNumeric(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, "nan") {
		return nil
	}
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return finite(parsed)
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return FloatPtr(v)
}
