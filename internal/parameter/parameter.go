package parameter

import (
	"fmt"
	"strings"
)

// Kind discriminates the parameter variants.
type Kind int

const (
	// KindFixed is a single, overwritable value.
	KindFixed Kind = iota
	// KindEnum is a closed set of option strings.
	KindEnum
	// KindRange is a stepped numeric interval.
	KindRange
	// KindProgram selects between sibling categories.
	KindProgram
)

// String returns the vendor typology name for the kind.
func (k Kind) String() string {
	switch k {
	case KindFixed:
		return "fixed"
	case KindEnum:
		return "enum"
	case KindRange:
		return "range"
	case KindProgram:
		return "program"
	default:
		return "unknown"
	}
}

// Typology values as declared by the vendor catalog.
const (
	TypologyFixed = "fixed"
	TypologyEnum  = "enum"
	TypologyRange = "range"
)

// Well-known groups and parameter keys.
const (
	GroupParameters = "parameters"
	GroupAncillary  = "ancillaryParameters"
	GroupCustom     = "custom"

	KeyProgram   = "program"
	KeyCategory  = "category"
	KeyFavourite = "favourite"
	KeyPrCode    = "prCode"
	KeyPrStr     = "prStr"
	KeyZoneMap   = "zoneMap"
)

// TriggerFunc is invoked with the payload registered alongside it.
type TriggerFunc func(payload any)

// Parameter is the capability set shared by every variant.
type Parameter interface {
	// Key is the parameter name within its command.
	Key() string

	// Kind is the variant discriminant.
	Kind() Kind

	// Group is the parameter bag it belongs to ("parameters", "ancillaryParameters", ...).
	Group() string

	// Mandatory reports whether the parameter must accompany every send.
	Mandatory() bool

	// Category and Typology are the tags carried from the source schema.
	Category() string
	Typology() string

	// Value returns the current value in its natural type:
	// float64 for Range, string for every other variant.
	Value() any

	// String returns the current value in its outgoing wire form.
	String() string

	// SetValue validates and commits a candidate, then fires matching triggers.
	SetValue(v any) error

	// Values enumerates the legal values.
	Values() []string

	// AddTrigger registers fn for value. It fires immediately if the
	// current value already matches.
	AddTrigger(value string, fn TriggerFunc, payload any)

	// Triggers returns the registered payloads keyed by normalised value.
	Triggers() map[string][]any

	// Reset restores the freshly parsed default.
	Reset()

	// Clone returns an independent deep copy.
	Clone() Parameter
}

// New parses a catalog entry into the variant named by its typology.
//
// Entries without a recognised typology return ErrUnknownTypology; the
// caller keeps those as opaque data.
func New(key string, attrs map[string]any, group string) (Parameter, error) {
	typology, _ := attrs["typology"].(string)
	switch strings.ToLower(typology) {
	case TypologyRange:
		return NewRange(key, attrs, group)
	case TypologyEnum:
		return NewEnum(key, attrs, group), nil
	case TypologyFixed:
		return NewFixed(key, attrs, group), nil
	default:
		return nil, fmt.Errorf("%w: %q for %s", ErrUnknownTypology, typology, key)
	}
}

// base holds the fields and trigger registry common to all variants.
type base struct {
	key        string
	group      string
	category   string
	typology   string
	mandatory  bool
	attributes map[string]any
	triggers   map[string][]trigger
	order      []string
}

type trigger struct {
	fn      TriggerFunc
	payload any
}

func newBase(key string, attrs map[string]any, group string) base {
	category, _ := attrs["category"].(string)
	typology, _ := attrs["typology"].(string)
	return base{
		key:        key,
		group:      group,
		category:   category,
		typology:   typology,
		mandatory:  parseBool(attrs["mandatory"]),
		attributes: deepCopyMap(attrs),
		triggers:   make(map[string][]trigger),
	}
}

func (b *base) Key() string      { return b.key }
func (b *base) Group() string    { return b.group }
func (b *base) Mandatory() bool  { return b.mandatory }
func (b *base) Category() string { return b.category }
func (b *base) Typology() string { return b.typology }

// register stores a trigger under its case-folded value.
func (b *base) register(value string, fn TriggerFunc, payload any) {
	k := strings.ToLower(value)
	if _, ok := b.triggers[k]; !ok {
		b.order = append(b.order, k)
	}
	b.triggers[k] = append(b.triggers[k], trigger{fn: fn, payload: payload})
}

// fire runs the triggers bound to value in registration order.
// The slice is copied so callbacks cannot disturb the iteration.
func (b *base) fire(value string) {
	registered := b.triggers[strings.ToLower(value)]
	if len(registered) == 0 {
		return
	}
	pending := make([]trigger, len(registered))
	copy(pending, registered)
	for _, t := range pending {
		t.fn(t.payload)
	}
}

// addTrigger implements AddTrigger given the variant's current wire value.
func (b *base) addTrigger(current, value string, fn TriggerFunc, payload any) {
	if fn == nil {
		return
	}
	if strings.EqualFold(current, value) {
		fn(payload)
	}
	b.register(value, fn, payload)
}

func (b *base) Triggers() map[string][]any {
	result := make(map[string][]any, len(b.triggers))
	for _, k := range b.order {
		for _, t := range b.triggers[k] {
			result[k] = append(result[k], t.payload)
		}
	}
	return result
}

// cloneBase copies the base, giving the clone its own attribute map and
// trigger registry.
func (b *base) cloneBase() base {
	cpy := *b
	cpy.attributes = deepCopyMap(b.attributes)
	cpy.triggers = make(map[string][]trigger, len(b.triggers))
	for k, ts := range b.triggers {
		cpy.triggers[k] = append([]trigger(nil), ts...)
	}
	cpy.order = append([]string(nil), b.order...)
	return cpy
}
