package parameter

import (
	"fmt"
	"math"
)

// alignTolerance absorbs binary floating point error in the step check.
const alignTolerance = 1e-9

// Range is a numeric parameter bounded by [min, max] and aligned to step.
//
// A non-positive step makes the range continuous: any value within the
// bounds is accepted.
type Range struct {
	base
	min, max, step float64
	defaultValue   float64
	value          float64
}

// NewRange parses a "range" typology entry from minimumValue, maximumValue,
// incrementValue and defaultValue. The bounds are required; a missing step
// defaults to 1 and a missing default to the minimum.
func NewRange(key string, attrs map[string]any, group string) (*Range, error) {
	lo, err := ParseNumber(attrs["minimumValue"])
	if err != nil {
		return nil, fmt.Errorf("%w: %s minimumValue: %w", ErrMalformed, key, err)
	}
	hi, err := ParseNumber(attrs["maximumValue"])
	if err != nil {
		return nil, fmt.Errorf("%w: %s maximumValue: %w", ErrMalformed, key, err)
	}
	if hi < lo {
		return nil, fmt.Errorf("%w: %s maximum %s below minimum %s",
			ErrMalformed, key, FormatNumber(hi), FormatNumber(lo))
	}

	step := 1.0
	if raw, ok := attrs["incrementValue"]; ok {
		if step, err = ParseNumber(raw); err != nil {
			return nil, fmt.Errorf("%w: %s incrementValue: %w", ErrMalformed, key, err)
		}
	}

	def := lo
	if raw, ok := attrs["defaultValue"]; ok {
		if parsed, parseErr := ParseNumber(raw); parseErr == nil {
			def = parsed
		}
	}

	return &Range{
		base:         newBase(key, attrs, group),
		min:          lo,
		max:          hi,
		step:         step,
		defaultValue: def,
		value:        def,
	}, nil
}

func (r *Range) Kind() Kind { return KindRange }

// Value returns the current value as float64.
func (r *Range) Value() any { return r.value }

// Float returns the current value.
func (r *Range) Float() float64 { return r.value }

func (r *Range) String() string { return FormatNumber(r.value) }

func (r *Range) Min() float64  { return r.min }
func (r *Range) Max() float64  { return r.max }
func (r *Range) Step() float64 { return r.step }

// Default returns the parsed default value.
func (r *Range) Default() float64 { return r.defaultValue }

// SetValue commits v if it is numeric, within bounds and step-aligned.
func (r *Range) SetValue(v any) error {
	f, err := ParseNumber(v)
	if err != nil {
		return &ValidationError{Key: r.key, Value: v, Reason: err.Error()}
	}
	if !r.Accepts(f) {
		return &ValidationError{
			Key:   r.key,
			Value: v,
			Reason: fmt.Sprintf("allowed min %s max %s step %s",
				FormatNumber(r.min), FormatNumber(r.max), FormatNumber(r.step)),
		}
	}
	r.value = f
	r.fire(FormatNumber(f))
	return nil
}

// Accepts reports whether f lies within the bounds and on a step boundary.
// Alignment is tested on the rounded step quotient rather than a float modulo.
func (r *Range) Accepts(f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return false
	}
	if f < r.min || f > r.max {
		return false
	}
	if r.step <= 0 {
		return true
	}
	q := (f - r.min) / r.step
	return math.Abs(q-math.Round(q)) < alignTolerance
}

// Values enumerates every legal value from min to max by step.
//
// The cost is O((max-min)/step) in time and memory, which is large for wide
// or fine-grained ranges. Callers that only need the domain should read
// Min, Max, Step or Count instead.
func (r *Range) Values() []string {
	if r.step <= 0 {
		if r.min == r.max {
			return []string{FormatNumber(r.min)}
		}
		return []string{FormatNumber(r.min), FormatNumber(r.max)}
	}
	n := r.Count()
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, FormatNumber(r.min+float64(i)*r.step))
	}
	return out
}

// Count returns len(Values()) without enumerating.
func (r *Range) Count() int {
	if r.step <= 0 {
		if r.min == r.max {
			return 1
		}
		return 2
	}
	return int(math.Floor((r.max-r.min)/r.step+alignTolerance)) + 1
}

// SetBounds replaces min, max and step. A current value that no longer
// fits is moved to the new minimum.
func (r *Range) SetBounds(lo, hi, step float64) {
	r.min, r.max, r.step = lo, hi, step
	if !r.Accepts(r.value) {
		r.value = lo
	}
}

func (r *Range) AddTrigger(value string, fn TriggerFunc, payload any) {
	if f, err := ParseNumber(value); err == nil {
		value = FormatNumber(f)
	}
	r.addTrigger(r.String(), value, fn, payload)
}

func (r *Range) Reset() { r.value = r.defaultValue }

func (r *Range) Clone() Parameter {
	cpy := *r
	cpy.base = r.cloneBase()
	return &cpy
}
