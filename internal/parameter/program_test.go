package parameter

import (
	"reflect"
	"sort"
	"testing"
)

// fakeSource is a CategorySource over plain parameter maps.
type fakeSource struct {
	name       string
	categories map[string]map[string]Parameter
	selected   string
}

func (f *fakeSource) CategoryName() string { return f.name }

func (f *fakeSource) CategoryNames() []string {
	names := make([]string, 0, len(f.categories))
	for n := range f.categories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (f *fakeSource) CategoryParameter(category, key string) (Parameter, bool) {
	p, ok := f.categories[category][key]
	return p, ok
}

func (f *fakeSource) SelectCategory(name string) error {
	f.selected = name
	return nil
}

func prCode(v string) map[string]Parameter {
	return map[string]Parameter{KeyPrCode: NewFixedValue(KeyPrCode, v, GroupParameters, true)}
}

func TestProgram_IDs(t *testing.T) {
	src := &fakeSource{
		name: "PROGRAMS.WM.COTTONS",
		categories: map[string]map[string]Parameter{
			"iot_wash_rapid_14": prCode("5"),
			"cottons":           prCode("1"),
		},
	}
	p := NewProgram(KeyProgram, GroupCustom, src)

	if got := p.IDs(); !reflect.DeepEqual(got, map[int]string{1: "cottons"}) {
		t.Errorf("IDs() = %v, want {1: cottons}", got)
	}
	if p.Value() != "cottons" {
		t.Errorf("Value() = %v, want cottons", p.Value())
	}
}

func TestProgram_IDsSkipsFavouritesAndMissingCodes(t *testing.T) {
	fav := prCode("7")
	fav[KeyFavourite] = NewFixedValue(KeyFavourite, "1", GroupCustom, true)

	src := &fakeSource{
		categories: map[string]map[string]Parameter{
			"synthetic": prCode("9"),
			"eco":       prCode("3"),
			"my eco":    fav,
			"no_code":   {},
			"bad_code":  prCode("x"),
		},
	}
	p := NewProgram(KeyProgram, GroupCustom, src)

	want := []ProgramID{{Code: 3, Name: "eco"}, {Code: 9, Name: "synthetic"}}
	if got := p.SortedIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("SortedIDs() = %v, want %v", got, want)
	}
	if name, ok := p.NameForCode(9); !ok || name != "synthetic" {
		t.Errorf("NameForCode(9) = %q, %v", name, ok)
	}
}

func TestProgram_SetValueSelectsCategory(t *testing.T) {
	src := &fakeSource{
		name: "PROGRAMS.WM.COTTONS",
		categories: map[string]map[string]Parameter{
			"cottons":         {},
			"delicate":        {},
			"iot_recipe_cake": {},
		},
	}
	p := NewProgram(KeyProgram, GroupCustom, src)

	if got := p.Values(); !reflect.DeepEqual(got, []string{"cottons", "delicate"}) {
		t.Fatalf("Values() = %v, recipe family must be hidden", got)
	}

	if err := p.SetValue("delicate"); err != nil {
		t.Fatalf("SetValue() error = %v", err)
	}
	if src.selected != "delicate" {
		t.Errorf("selected = %q, want delicate", src.selected)
	}
	if p.Value() != "cottons" {
		t.Errorf("Value() = %v, own category must still be reported", p.Value())
	}

	src.selected = ""
	if err := p.SetValue("unknown"); err == nil {
		t.Error("expected rejection of unknown category")
	}
	if src.selected != "" {
		t.Error("rejected value must not select anything")
	}
}

func TestProgram_RebindAndDisplayValue(t *testing.T) {
	a := &fakeSource{name: "PROGRAMS.WM.ECO"}
	b := &fakeSource{name: "other"}
	p := NewProgram(KeyProgram, GroupCustom, a)

	c := p.Rebind(b)
	c.SetDisplayValue("My favourite")

	if p.Value() != "eco" {
		t.Errorf("original Value() = %v", p.Value())
	}
	if c.Value() != "My favourite" {
		t.Errorf("rebound Value() = %v", c.Value())
	}
	c.Reset()
	if c.Value() != "other" {
		t.Errorf("rebound Reset() = %v, want owner category", c.Value())
	}
}

func TestCleanCategoryName(t *testing.T) {
	tests := []struct{ input, expected string }{
		{"PROGRAMS.WM.COTTONS", "cottons"},
		{"PROGRAMS.TD.IOT_DRY", "iot_dry"},
		{"setParameters", "setParameters"},
		{"PROGRAM", "program"},
	}
	for _, tt := range tests {
		if got := CleanCategoryName(tt.input); got != tt.expected {
			t.Errorf("CleanCategoryName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFormatProgramName(t *testing.T) {
	tests := []struct{ input, expected string }{
		{"PROGRAMS.WM.iot_wash_and_dry_59", "Wash and Dry 59"},
		{"iot_mix_of_colours", "Mix of Colours"},
		{"cottons", "Cottons"},
		{"the-best_program", "The Best Program"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := FormatProgramName(tt.input); got != tt.expected {
			t.Errorf("FormatProgramName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
