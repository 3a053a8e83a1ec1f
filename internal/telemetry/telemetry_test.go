package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/s-dimaio/JavahOn-sub000/internal/appliance"
	"github.com/s-dimaio/JavahOn-sub000/internal/command"
)

type point struct {
	mac, key string
	value    float64
}

type fakePoints struct {
	mu         sync.Mutex
	attributes []point
	commands   []string
}

func (f *fakePoints) WriteAttribute(mac, _, key string, value float64, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attributes = append(f.attributes, point{mac: mac, key: key, value: value})
}

func (f *fakePoints) WriteCommand(mac, cmd string, success bool, _ time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, mac+"/"+cmd)
}

type fakeCounters struct {
	sends        map[bool]int
	catalogSize  int
	catalogFails int
	changes      int
}

func (f *fakeCounters) CommandSent(_, _ string, success bool) {
	if f.sends == nil {
		f.sends = make(map[bool]int)
	}
	f.sends[success]++
}

func (f *fakeCounters) CatalogLoaded(_ string, commands int, err error) {
	if err != nil {
		f.catalogFails++
		return
	}
	f.catalogSize = commands
}

func (f *fakeCounters) AttributesChanged(_ string, n int) { f.changes += n }

type fakeJournal struct {
	records []command.Record
	err     error
}

func (f *fakeJournal) RecordSend(_ context.Context, rec command.Record) error {
	f.records = append(f.records, rec)
	return f.err
}

func TestRecorder_RecordSend(t *testing.T) {
	points := &fakePoints{}
	counters := &fakeCounters{}
	journal := &fakeJournal{err: errors.New("disk full")}
	r := New(Options{Journal: journal, Points: points, Counters: counters})

	err := r.RecordSend(context.Background(), command.Record{MacAddress: "aa", Command: "stopProgram", Success: false})
	if err == nil {
		t.Error("journal failure not returned")
	}
	if counters.sends[false] != 1 || len(points.commands) != 1 || len(journal.records) != 1 {
		t.Errorf("sends = %v, points = %v, journal = %d", counters.sends, points.commands, len(journal.records))
	}
}

func TestRecorder_Optional(t *testing.T) {
	r := New(Options{})
	if err := r.RecordSend(context.Background(), command.Record{MacAddress: "aa"}); err != nil {
		t.Errorf("RecordSend() error = %v", err)
	}
	r.CatalogFailed("aa", errors.New("x"))
}

func TestRecorder_Watch(t *testing.T) {
	points := &fakePoints{}
	counters := &fakeCounters{}
	r := New(Options{Points: points, Counters: counters})

	a := appliance.New(appliance.Config{Info: command.Info{MacAddress: "aa", ApplianceType: "WM"}}, nil)
	r.Watch(a)

	a.Rebuild(command.ObjectFromMap(map[string]any{
		"stopProgram": map[string]any{"description": "d", "protocolType": "p", "parameters": map[string]any{}},
	}), nil, nil)
	if counters.catalogSize != 1 {
		t.Errorf("catalog size = %d, want 1", counters.catalogSize)
	}

	a.UpdateAttributes(map[string]any{"temp": "40", "prPhase": "wash", "remainingTime": "12.5"})
	if counters.changes != 3 {
		t.Errorf("changes = %d, want 3", counters.changes)
	}
	if len(points.attributes) != 2 {
		t.Fatalf("points = %+v, want the two numeric attributes", points.attributes)
	}
	for _, p := range points.attributes {
		if p.key == "prPhase" {
			t.Errorf("non-numeric attribute written: %+v", p)
		}
	}

	r.CatalogFailed("aa", errors.New("timeout"))
	r.CatalogFailed("aa", nil)
	if counters.catalogFails != 1 {
		t.Errorf("catalog failures = %d, want 1", counters.catalogFails)
	}
}
