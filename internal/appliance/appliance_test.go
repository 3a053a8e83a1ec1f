package appliance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/s-dimaio/JavahOn-sub000/internal/command"
)

type fakeAPI struct {
	mu         sync.Mutex
	tree       *command.Object
	favourites []command.Favourite
	history    []command.HistoryEntry
	attributes map[string]any

	commandsErr   error
	favouritesErr error
	sent          []command.Request
	ack           command.Ack
}

func (f *fakeAPI) LoadCommands(context.Context, command.Info) (*command.Object, error) {
	return f.tree, f.commandsErr
}

func (f *fakeAPI) LoadFavourites(context.Context, command.Info) ([]command.Favourite, error) {
	return f.favourites, f.favouritesErr
}

func (f *fakeAPI) LoadCommandHistory(context.Context, command.Info) ([]command.HistoryEntry, error) {
	return f.history, nil
}

func (f *fakeAPI) LoadAttributes(context.Context, command.Info) (map[string]any, error) {
	return f.attributes, nil
}

func (f *fakeAPI) SendCommand(_ context.Context, req command.Request) (command.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	return f.ack, nil
}

func rangeAttrs(lo, hi, step, def string) map[string]any {
	return map[string]any{
		"typology": "range", "minimumValue": lo, "maximumValue": hi,
		"incrementValue": step, "defaultValue": def, "mandatory": "1",
	}
}

func enumAttrs(def string, values ...any) map[string]any {
	return map[string]any{"typology": "enum", "enumValues": values, "defaultValue": def}
}

func leaf(params map[string]any) map[string]any {
	return map[string]any{"description": "d", "protocolType": "p", "parameters": params}
}

// testTree has startProgram (two programs) and settings sharing keys.
func testTree() *command.Object {
	return command.ObjectFromMap(map[string]any{
		"startProgram": map[string]any{
			"PROGRAMS.WM.COTTONS": leaf(map[string]any{
				"temp":   rangeAttrs("20", "90", "10", "40"),
				"spin":   enumAttrs("800", "400", "800", "1200"),
				"prCode": map[string]any{"typology": "fixed", "fixedValue": "1", "mandatory": "1"},
			}),
			"PROGRAMS.WM.DELICATE": leaf(map[string]any{
				"temp":   rangeAttrs("20", "40", "10", "30"),
				"prCode": map[string]any{"typology": "fixed", "fixedValue": "2", "mandatory": "1"},
			}),
		},
		"settings": leaf(map[string]any{
			"temp":  rangeAttrs("0", "50", "5", "0"),
			"spin":  enumAttrs("400", "400"),
			"light": enumAttrs("0", "0", "1"),
		}),
		"stopProgram": leaf(map[string]any{
			"spin": map[string]any{"typology": "fixed", "fixedValue": "0"},
			"temp": map[string]any{"typology": "fixed", "fixedValue": "30"},
		}),
	})
}

func newTestAppliance(t *testing.T) (*Appliance, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{tree: testTree(), ack: command.Ack{Success: true, TransactionID: "tx"}}
	a := New(Config{
		Info:     command.Info{MacAddress: "AA-BB", ApplianceType: "WM"},
		Name:     "Washer",
		Programs: map[string]string{"1": "Cotton"},
	}, api)
	if err := a.LoadCommands(context.Background()); err != nil {
		t.Fatalf("LoadCommands() error = %v", err)
	}
	return a, api
}

func TestAppliance_LoadCommands(t *testing.T) {
	a, _ := newTestAppliance(t)

	if got := a.Commands(); len(got) != 3 {
		t.Fatalf("Commands() = %v", got)
	}
	cmd, err := a.Command("startProgram")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	if cmd.Category() != "cottons" {
		t.Errorf("Category() = %q", cmd.Category())
	}
	if _, err := a.Command("nope"); !errors.Is(err, command.ErrUnknownCommand) {
		t.Errorf("Command(nope) error = %v", err)
	}
}

func TestAppliance_LoadCommandsFailures(t *testing.T) {
	api := &fakeAPI{tree: testTree(), favouritesErr: errors.New("favourites down")}
	a := New(Config{Info: command.Info{MacAddress: "m"}}, api)
	if err := a.LoadCommands(context.Background()); err != nil {
		t.Fatalf("favourite failure aborted load: %v", err)
	}
	if a.Catalog().Len() != 3 {
		t.Errorf("Len() = %d", a.Catalog().Len())
	}

	api.commandsErr = errors.New("commands down")
	if err := a.LoadCommands(context.Background()); err == nil {
		t.Fatal("expected error when commands cannot be loaded")
	}
	if a.Catalog().Len() != 3 {
		t.Error("previous catalog must survive a failed load")
	}

	if err := New(Config{}, nil).LoadCommands(context.Background()); !errors.Is(err, ErrNoAPI) {
		t.Errorf("LoadCommands() without API error = %v", err)
	}
}

func TestAppliance_SendPublishes(t *testing.T) {
	a, api := newTestAppliance(t)

	var events []Event
	a.Subscribe(func(ev Event) { events = append(events, ev) })

	res, err := a.Send(context.Background(), "startProgram", map[string]any{"temp": 60})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if res.Label != "Cotton" {
		t.Errorf("Label = %q, want localized Cotton", res.Label)
	}
	if len(api.sent) != 1 || api.sent[0].Appliance.MacAddress != "AA-BB" {
		t.Errorf("sent = %+v", api.sent)
	}
	if len(events) != 1 || events[0].Type != EventCommand || events[0].MacAddress != "AA-BB" {
		t.Errorf("events = %+v", events)
	}
	if v, _ := a.Store().Get("temp"); v != "60" {
		t.Errorf("attribute echo = %q", v)
	}
}

func TestAppliance_MissingCredentials(t *testing.T) {
	a := New(Config{Info: command.Info{MacAddress: "m"}}, nil)
	a.Rebuild(testTree(), nil, nil)

	if _, err := a.Send(context.Background(), "settings", nil); !errors.Is(err, command.ErrMissingCredentials) {
		t.Errorf("Send() error = %v, want ErrMissingCredentials", err)
	}
}

func TestAppliance_UpdateAndRefreshAttributes(t *testing.T) {
	a, api := newTestAppliance(t)
	api.attributes = map[string]any{"machMode": map[string]any{"parNewVal": "2"}}

	var got []Event
	a.Subscribe(func(ev Event) { got = append(got, ev) })

	changes, err := a.RefreshAttributes(context.Background())
	if err != nil {
		t.Fatalf("RefreshAttributes() error = %v", err)
	}
	if len(changes) != 1 || changes[0].Value != "2" {
		t.Errorf("changes = %+v", changes)
	}
	if len(got) != 1 || got[0].Type != EventAttributes {
		t.Errorf("events = %+v", got)
	}

	// Same value again: nothing published.
	a.UpdateAttributes(map[string]any{"machMode": "2"})
	if len(got) != 1 {
		t.Errorf("unchanged push published: %d events", len(got))
	}
}

func TestAppliance_AvailableSettings(t *testing.T) {
	a, _ := newTestAppliance(t)
	settings, err := a.AvailableSettings("startProgram")
	if err != nil {
		t.Fatal(err)
	}
	if settings["spin"] != "800" || settings["temp"] != 40.0 {
		t.Errorf("settings = %v", settings)
	}
}

func TestAppliance_ExclusiveSerialises(t *testing.T) {
	a, _ := newTestAppliance(t)
	var (
		wg      sync.WaitGroup
		active  int
		overlap bool
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = a.Exclusive(func() error {
				active++
				if active > 1 {
					overlap = true
				}
				a.Rebuild(testTree(), nil, nil)
				active--
				return nil
			})
		}()
	}
	wg.Wait()
	if overlap {
		t.Error("Exclusive sections overlapped")
	}
}

func TestLocalizedProgramName(t *testing.T) {
	a := New(Config{Programs: map[string]string{"1": "Cotton", "eco": "Eco 40-60"}}, nil)
	tests := []struct {
		code, label string
		want        string
		wantOK      bool
	}{
		{"1", "cottons", "Cotton", true},
		{"", "eco", "Eco 40-60", true},
		{"9", "eco", "Eco 40-60", true},
		{"9", "unknown", "", false},
	}
	for _, tt := range tests {
		got, ok := a.LocalizedProgramName(tt.code, tt.label)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("LocalizedProgramName(%q, %q) = %q, %v", tt.code, tt.label, got, ok)
		}
	}
}
