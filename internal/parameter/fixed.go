package parameter

// Fixed is a single-valued parameter. The vendor calls it fixed but sends
// other values for it in practice, so SetValue accepts anything.
type Fixed struct {
	base
	initial string
	value   string
}

// NewFixed parses a "fixed" typology entry. The value comes from fixedValue.
func NewFixed(key string, attrs map[string]any, group string) *Fixed {
	f := &Fixed{base: newBase(key, attrs, group)}
	if v, ok := attrs["fixedValue"]; ok && v != nil {
		f.initial = Stringify(v)
	}
	f.value = f.initial
	return f
}

// NewFixedValue builds a Fixed parameter that was not parsed from the catalog,
// such as the favourite marker.
func NewFixedValue(key, value, group string, mandatory bool) *Fixed {
	f := NewFixed(key, map[string]any{"fixedValue": value, "typology": TypologyFixed}, group)
	f.mandatory = mandatory
	return f
}

func (f *Fixed) Kind() Kind { return KindFixed }

// Value returns the stored value, or "0" when the catalog supplied none.
func (f *Fixed) Value() any { return f.String() }

func (f *Fixed) String() string {
	if f.value == "" {
		return "0"
	}
	return f.value
}

// SetValue accepts any value.
func (f *Fixed) SetValue(v any) error {
	f.value = Stringify(v)
	f.fire(f.value)
	return nil
}

func (f *Fixed) Values() []string { return []string{f.String()} }

func (f *Fixed) AddTrigger(value string, fn TriggerFunc, payload any) {
	f.addTrigger(f.String(), value, fn, payload)
}

func (f *Fixed) Reset() { f.value = f.initial }

func (f *Fixed) Clone() Parameter {
	cpy := *f
	cpy.base = f.cloneBase()
	return &cpy
}
