package parameter

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// programFilter lists category families hidden from program selection.
var programFilter = []string{"iot_recipe", "iot_guided"}

// CategorySource is the command-side view a Program selects over.
// It is implemented by the command that owns the Program.
type CategorySource interface {
	// CategoryName is the raw name of the category the owner was parsed from.
	CategoryName() string

	// CategoryNames lists the cleaned names of all sibling categories.
	CategoryNames() []string

	// CategoryParameter looks up a parameter on a sibling category.
	CategoryParameter(category, key string) (Parameter, bool)

	// SelectCategory makes the named sibling the active command.
	SelectCategory(name string) error
}

// ProgramID pairs a vendor program code with its category name.
type ProgramID struct {
	Code int
	Name string
}

// Program is the synthetic selector attached to commands that have sibling
// categories. Its domain is the set of category names; setting it switches
// the owner's active category rather than changing a stored value.
type Program struct {
	base
	owner CategorySource
	value string
}

// NewProgram creates a Program bound to owner. Key is "program" for
// PROGRAM-style categories and "category" otherwise.
func NewProgram(key, group string, owner CategorySource) *Program {
	p := &Program{
		base: base{
			key:      key,
			group:    group,
			typology: TypologyEnum,
			triggers: make(map[string][]trigger),
		},
		owner: owner,
	}
	p.Reset()
	return p
}

func (p *Program) Kind() Kind { return KindProgram }

func (p *Program) Value() any { return p.value }

func (p *Program) String() string { return p.value }

// SetValue selects the named sibling category. The candidate must be one of
// Values. The value reported by this Program is unchanged: after selection
// the sibling's own Program is the one exposed under the command name.
func (p *Program) SetValue(v any) error {
	s := Stringify(v)
	values := p.Values()
	if !contains(values, s) {
		return &ValidationError{Key: p.key, Value: v, Allowed: values}
	}
	if p.owner == nil {
		return ErrNoCategorySource
	}
	if err := p.owner.SelectCategory(s); err != nil {
		return err
	}
	p.fire(s)
	return nil
}

// SetDisplayValue overrides the reported value without selecting anything.
// Favourites use it to report their own name.
func (p *Program) SetDisplayValue(name string) {
	p.value = name
}

// Values returns the sorted category names, excluding recipe and guided families.
func (p *Program) Values() []string {
	if p.owner == nil {
		return nil
	}
	var out []string
	for _, name := range p.owner.CategoryNames() {
		if filtered(name) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func filtered(name string) bool {
	for _, f := range programFilter {
		if strings.Contains(name, f) {
			return true
		}
	}
	return false
}

// IDs maps vendor program codes to category names.
//
// Categories prefixed "iot_", favourites, and categories without a numeric
// prCode are skipped. When two categories share a code the one whose name
// sorts first wins.
func (p *Program) IDs() map[int]string {
	ids := make(map[int]string)
	for _, id := range p.SortedIDs() {
		ids[id.Code] = id.Name
	}
	return ids
}

// SortedIDs returns IDs ordered by ascending code.
func (p *Program) SortedIDs() []ProgramID {
	if p.owner == nil {
		return nil
	}
	names := append([]string(nil), p.owner.CategoryNames()...)
	sort.Strings(names)

	seen := make(map[int]bool)
	var out []ProgramID
	for _, name := range names {
		if strings.HasPrefix(name, "iot_") {
			continue
		}
		if fav, ok := p.owner.CategoryParameter(name, KeyFavourite); ok && fav.String() == "1" {
			continue
		}
		pr, ok := p.owner.CategoryParameter(name, KeyPrCode)
		if !ok {
			continue
		}
		f, err := ParseNumber(pr.String())
		if err != nil {
			continue
		}
		code := int(f)
		if seen[code] {
			continue
		}
		seen[code] = true
		out = append(out, ProgramID{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// NameForCode returns the category name registered for a program code.
func (p *Program) NameForCode(code int) (string, bool) {
	name, ok := p.IDs()[code]
	return name, ok
}

func (p *Program) AddTrigger(value string, fn TriggerFunc, payload any) {
	p.addTrigger(p.value, value, fn, payload)
}

// Reset derives the value from the owner's category name.
func (p *Program) Reset() {
	if p.owner == nil {
		p.value = ""
		return
	}
	p.value = CleanCategoryName(p.owner.CategoryName())
}

// Clone returns a copy bound to the same owner. Commands that clone
// themselves use Rebind instead.
func (p *Program) Clone() Parameter {
	return p.Rebind(p.owner)
}

// Rebind returns a copy of p bound to owner, keeping the reported value.
func (p *Program) Rebind(owner CategorySource) *Program {
	cpy := *p
	cpy.base = p.cloneBase()
	cpy.owner = owner
	return &cpy
}

// CleanCategoryName reduces "PROGRAMS.WM.COTTONS" style names to their
// final segment in lower case. Other names are returned unchanged.
func CleanCategoryName(name string) string {
	if !strings.Contains(name, "PROGRAM") {
		return name
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// smallWords stay lower case inside formatted program names.
var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "by": true, "de": true,
	"for": true, "in": true, "of": true, "on": true, "or": true, "the": true,
	"to": true, "with": true,
}

// FormatProgramName turns a raw program identifier into a display name:
// vendor prefixes are removed, separators become spaces, and words are
// title-cased except for small connector words.
//
// Example: "PROGRAMS.WM.iot_wash_and_dry_59" becomes "Wash and Dry 59".
func FormatProgramName(raw string) string {
	name := raw
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimPrefix(strings.ToLower(name), "iot_")
	name = strings.NewReplacer("_", " ", "-", " ").Replace(name)

	words := strings.Fields(name)
	for i, w := range words {
		if i > 0 && smallWords[w] {
			continue
		}
		if _, err := strconv.Atoi(w); err == nil {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
