package parameter

// Enum is a parameter whose value must be one of a closed set of options.
//
// Options are kept as supplied by the vendor and exposed through Values in
// normalised form (see Normalize). SetValue compares the candidate as given
// against the normalised list, so callers holding raw vendor strings must
// normalise them first.
type Enum struct {
	base
	defaultValue string
	value        string
	options      []string
}

// NewEnum parses an "enum" typology entry from enumValues and defaultValue.
// A default missing from the option list is appended to it.
func NewEnum(key string, attrs map[string]any, group string) *Enum {
	e := &Enum{
		base:    newBase(key, attrs, group),
		options: stringList(attrs["enumValues"]),
	}
	if v, ok := attrs["defaultValue"]; ok && v != nil {
		e.defaultValue = Stringify(v)
	}
	if e.defaultValue != "" && !contains(e.Values(), Normalize(e.defaultValue)) {
		e.options = append(e.options, e.defaultValue)
	}
	e.value = e.defaultValue
	return e
}

func (e *Enum) Kind() Kind { return KindEnum }

func (e *Enum) Value() any { return e.String() }

// String returns the normalised current value. With no default and no
// assignment it falls back to the first option, then to "0".
func (e *Enum) String() string {
	if e.value != "" {
		return Normalize(e.value)
	}
	if values := e.Values(); len(values) > 0 {
		return values[0]
	}
	return "0"
}

// SetValue commits v if it is a member of Values.
func (e *Enum) SetValue(v any) error {
	s := Stringify(v)
	values := e.Values()
	if !contains(values, s) {
		return &ValidationError{Key: e.key, Value: v, Allowed: values}
	}
	e.value = s
	e.fire(s)
	return nil
}

// Values returns the normalised options without duplicates, in vendor order.
func (e *Enum) Values() []string {
	out := make([]string, 0, len(e.options))
	seen := make(map[string]bool, len(e.options))
	for _, o := range e.options {
		n := Normalize(o)
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}

// SetValues replaces the legal domain. The current value is kept even if it
// is no longer listed; the next SetValue is checked against the new domain.
func (e *Enum) SetValues(values []string) {
	e.options = append([]string(nil), values...)
}

func (e *Enum) AddTrigger(value string, fn TriggerFunc, payload any) {
	e.addTrigger(e.String(), value, fn, payload)
}

func (e *Enum) Reset() { e.value = e.defaultValue }

func (e *Enum) Clone() Parameter {
	cpy := *e
	cpy.base = e.cloneBase()
	cpy.options = append([]string(nil), e.options...)
	return &cpy
}
