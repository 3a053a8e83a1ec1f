package command

import (
	"context"
	"errors"
	"sync"
)

type memoryStore struct {
	mu       sync.Mutex
	values   map[string]string
	shielded map[string]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string]string), shielded: make(map[string]bool)}
}

func (s *memoryStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *memoryStore) Update(key, value string, shield bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.shielded[key] = shield
	return true
}

type fakeSender struct {
	requests []Request
	ack      Ack
	err      error
}

func (f *fakeSender) SendCommand(_ context.Context, req Request) (Ack, error) {
	f.requests = append(f.requests, req)
	return f.ack, f.err
}

type fakeRecorder struct {
	records []Record
	err     error
}

func (f *fakeRecorder) RecordSend(_ context.Context, rec Record) error {
	f.records = append(f.records, rec)
	return f.err
}

type fakeAppliance struct {
	mac      string
	zone     int
	store    *memoryStore
	sender   Sender
	localize map[string]string
}

func newFakeAppliance() *fakeAppliance {
	return &fakeAppliance{mac: "aa-bb-cc", store: newMemoryStore()}
}

func (a *fakeAppliance) Info() Info {
	return Info{MacAddress: a.mac, ApplianceType: "WM"}
}

func (a *fakeAppliance) Zone() int { return a.zone }

func (a *fakeAppliance) LocalizedProgramName(code, _ string) (string, bool) {
	name, ok := a.localize[code]
	return name, ok
}

func (a *fakeAppliance) Attributes() AttributeStore { return a.store }

func (a *fakeAppliance) Sender() Sender {
	if a.sender == nil {
		return nil
	}
	return a.sender
}

var errBoom = errors.New("boom")

// leaf builds a terminal command node with the given parameter groups.
func leaf(groups map[string]any) map[string]any {
	node := map[string]any{"description": "d", "protocolType": "p"}
	for k, v := range groups {
		node[k] = v
	}
	return node
}

func rangeAttrs(lo, hi, step, def string) map[string]any {
	return map[string]any{
		"typology":       "range",
		"minimumValue":   lo,
		"maximumValue":   hi,
		"incrementValue": step,
		"defaultValue":   def,
		"mandatory":      "1",
	}
}

func enumAttrs(def string, values ...string) map[string]any {
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return map[string]any{"typology": "enum", "enumValues": vs, "defaultValue": def}
}

func fixedAttrs(value string) map[string]any {
	return map[string]any{"typology": "fixed", "fixedValue": value, "mandatory": "1"}
}

// washTree is a startProgram node with two program categories.
func washTree() *Object {
	return ObjectFromMap(map[string]any{
		"startProgram": map[string]any{
			"PROGRAMS.WM.COTTONS": leaf(map[string]any{
				"parameters": map[string]any{
					"temp":   rangeAttrs("20", "90", "10", "40"),
					"spin":   enumAttrs("800", "400", "800", "1200"),
					"prCode": fixedAttrs("1"),
					"prStr":  fixedAttrs("x"),
				},
				"ancillaryParameters": map[string]any{
					"programRules": fixedAttrs("rules"),
					"remainingTime": map[string]any{
						"typology": "fixed", "fixedValue": "90",
					},
				},
			}),
			"PROGRAMS.WM.DELICATE": leaf(map[string]any{
				"parameters": map[string]any{
					"temp":   rangeAttrs("20", "40", "10", "30"),
					"spin":   fixedAttrs("400"),
					"prCode": fixedAttrs("2"),
				},
			}),
		},
	})
}
