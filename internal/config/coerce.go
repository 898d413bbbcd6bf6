package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

// kind is the target type a raw document value is coerced into.
type kind int

const (
	kindString kind = iota
	kindInt
	kindPositiveFloat
	kindList
)

func (k kind) String() string {
	switch k {
	case kindString:
		return "string"
	case kindInt:
		return "integer"
	case kindPositiveFloat:
		return "positive number"
	case kindList:
		return "list"
	default:
		return "unknown"
	}
}

// rule describes how a single key of a definition is read.
// A rule with a non-nil def is optional; a required rule has no default.
type rule struct {
	key      string
	kind     kind
	required bool
	def      any
}

// field is the result of applying a rule: either a coerced value or unset.
type field struct {
	value any
	set   bool
}

func (f field) String() string {
	s, _ := f.value.(string)
	return s
}

func (f field) Int() int {
	n, _ := f.value.(int)
	return n
}

func (f field) Float() float64 {
	x, _ := f.value.(float64)
	return x
}

func (f field) List() []any {
	l, _ := f.value.([]any)
	return l
}

// FloatPtr returns nil for an unset field.
func (f field) FloatPtr() *float64 {
	if !f.set {
		return nil
	}
	x := f.Float()
	return &x
}

var serviceRules = []rule{
	{key: "name", kind: kindString, required: true},
	{key: "base_url", kind: kindString, required: true},
	{key: "timeout_seconds", kind: kindPositiveFloat, def: DefaultTimeoutSeconds},
	{key: "endpoints", kind: kindList, required: true},
}

var endpointRules = []rule{
	{key: "name", kind: kindString, required: true},
	{key: "path", kind: kindString, required: true},
	{key: "method", kind: kindString, def: DefaultMethod},
	{key: "expected_status", kind: kindInt, def: DefaultExpectedStatus},
	// No default: an absent bound leaves the field unset.
	{key: "max_response_ms", kind: kindPositiveFloat},
}

// apply evaluates every rule against raw. Keys that are absent or null take
// the rule's default; required keys must be present and non-empty.
func apply(raw map[string]any, rules []rule) (map[string]field, error) {
	out := make(map[string]field, len(rules))
	for _, r := range rules {
		v, ok := raw[r.key]
		if !ok || v == nil {
			if r.required {
				return nil, fmt.Errorf("%s is required", r.key)
			}
			if r.def != nil {
				out[r.key] = field{value: r.def, set: true}
			} else {
				out[r.key] = field{}
			}
			continue
		}

		coerced, err := coerce(v, r.kind)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", r.key, err)
		}
		if r.required && isEmpty(coerced) {
			return nil, fmt.Errorf("%s is required", r.key)
		}
		out[r.key] = field{value: coerced, set: true}
	}
	return out, nil
}

func isEmpty(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case []any:
		return len(t) == 0
	}
	return false
}

func coerce(v any, k kind) (any, error) {
	switch k {
	case kindString:
		return toString(v)
	case kindInt:
		return toInt(v)
	case kindPositiveFloat:
		x, err := toFloat(v)
		if err != nil {
			return nil, err
		}
		if x <= 0 || math.IsInf(x, 0) || math.IsNaN(x) {
			return nil, fmt.Errorf("must be a positive number, got %v", x)
		}
		return x, nil
	case kindList:
		l, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("must be a list, got %T", v)
		}
		return l, nil
	}
	return nil, fmt.Errorf("unsupported kind %s", k)
}

func toString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	}
	return "", fmt.Errorf("must be a string, got %T", v)
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		if t < math.MinInt || t > math.MaxInt {
			return 0, fmt.Errorf("integer %d out of range", t)
		}
		return int(t), nil
	case uint64:
		if t > math.MaxInt {
			return 0, fmt.Errorf("integer %d out of range", t)
		}
		return int(t), nil
	case float64:
		return floatToInt(t)
	case json.Number:
		return parseInt(t.String())
	case string:
		return parseInt(strings.TrimSpace(t))
	}
	return 0, fmt.Errorf("must be an integer, got %T", v)
}

func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("must be an integer, got %q", s)
	}
	return floatToInt(x)
}

// floatToInt accepts only integral values that fit in an int.
func floatToInt(x float64) (int, error) {
	if x != math.Trunc(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("must be an integer, got %v", x)
	}
	if x < math.MinInt || x >= -math.MinInt {
		return 0, fmt.Errorf("integer %v out of range", x)
	}
	return int(x), nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	case json.Number:
		return parseFloat(t.String())
	case string:
		return parseFloat(strings.TrimSpace(t))
	}
	return 0, fmt.Errorf("must be a number, got %T", v)
}

func parseFloat(s string) (float64, error) {
	x, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("must be a number, got %q", s)
	}
	return x, nil
}
