package appliance

import (
	"errors"
	"testing"

	"github.com/s-dimaio/JavahOn-sub000/internal/command"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	b := New(Config{Info: command.Info{MacAddress: "bb-00"}}, nil)
	a := New(Config{Info: command.Info{MacAddress: "AA-00"}}, nil)

	for _, app := range []*Appliance{b, a} {
		if err := r.Add(app); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
	}
	if err := r.Add(New(Config{Info: command.Info{MacAddress: "aa-00"}}, nil)); !errors.Is(err, ErrApplianceExists) {
		t.Errorf("duplicate Add() error = %v", err)
	}

	got, err := r.Get(" aa-00 ")
	if err != nil || got != a {
		t.Errorf("Get() = %v, %v", got, err)
	}
	if _, err := r.Get("cc"); !errors.Is(err, ErrApplianceNotFound) {
		t.Errorf("Get(cc) error = %v", err)
	}

	list := r.List()
	if len(list) != 2 || list[0] != a || list[1] != b {
		t.Errorf("List() order wrong")
	}
	if r.Len() != 2 {
		t.Errorf("Len() = %d", r.Len())
	}
	if a.Name() != "AA-00" {
		t.Errorf("Name() fallback = %q", a.Name())
	}
}
