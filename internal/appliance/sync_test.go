package appliance

import (
	"errors"
	"reflect"
	"testing"

	"github.com/s-dimaio/JavahOn-sub000/internal/command"
	"github.com/s-dimaio/JavahOn-sub000/internal/parameter"
)

func param(t *testing.T, a *Appliance, cmdName, key string) parameter.Parameter {
	t.Helper()
	cmd, err := a.Command(cmdName)
	if err != nil {
		t.Fatalf("Command(%s) error = %v", cmdName, err)
	}
	p, ok := cmd.Parameter(key)
	if !ok {
		t.Fatalf("%s.%s missing", cmdName, key)
	}
	return p
}

func TestSyncCommandToParams(t *testing.T) {
	a, _ := newTestAppliance(t)
	a.Store().Update("temp", "20", false)
	a.Store().Update("doorStatus", "1", false)

	if err := a.SyncCommandToParams("startProgram"); err != nil {
		t.Fatalf("SyncCommandToParams() error = %v", err)
	}
	if v, _ := a.Store().Get("temp"); v != "40" {
		t.Errorf("temp = %q, want 40", v)
	}
	if !a.Store().Shielded("temp") {
		t.Error("echo must be shielded")
	}
	if v, _ := a.Store().Get("doorStatus"); v != "1" {
		t.Errorf("unrelated key changed: %q", v)
	}
	if _, ok := a.Store().Get("spin"); ok {
		t.Error("keys absent from the store must not be added")
	}

	if err := a.SyncCommandToParams("nope"); !errors.Is(err, command.ErrUnknownCommand) {
		t.Errorf("unknown command error = %v", err)
	}
}

func TestSyncParamsToCommand(t *testing.T) {
	a, _ := newTestAppliance(t)
	a.Store().Update("temp", "70", false)
	a.Store().Update("spin", "1200", false)
	a.Store().Update("light", "", false)

	failures, err := a.SyncParamsToCommand("startProgram")
	if err != nil {
		t.Fatalf("SyncParamsToCommand() error = %v", err)
	}
	if len(failures) != 0 {
		t.Errorf("failures = %v", failures)
	}
	if v := param(t, a, "startProgram", "temp").Value(); v != 70.0 {
		t.Errorf("temp = %v, want 70", v)
	}
	if v := param(t, a, "startProgram", "spin").Value(); v != "1200" {
		t.Errorf("spin = %v, want 1200", v)
	}
}

func TestSyncParamsToCommand_ReportsFailures(t *testing.T) {
	a, _ := newTestAppliance(t)
	a.Store().Update("temp", "65", false)
	a.Store().Update("spin", "1300", false)

	failures, err := a.SyncParamsToCommand("startProgram")
	if err != nil {
		t.Fatalf("SyncParamsToCommand() error = %v", err)
	}
	var keys []string
	for _, f := range failures {
		keys = append(keys, f.Key)
		if !errors.Is(f.Err, parameter.ErrInvalidValue) {
			t.Errorf("failure %s err = %v", f.Key, f.Err)
		}
	}
	if !reflect.DeepEqual(keys, []string{"spin", "temp"}) {
		t.Errorf("failed keys = %v", keys)
	}
	if v := param(t, a, "startProgram", "temp").Value(); v != 40.0 {
		t.Errorf("temp = %v, want default kept", v)
	}
}

func TestSyncCommand_AllTargets(t *testing.T) {
	a, _ := newTestAppliance(t)

	failures, err := a.SyncCommand("startProgram", SyncOptions{})
	if err != nil {
		t.Fatalf("SyncCommand() error = %v", err)
	}
	if len(failures) != 0 {
		t.Errorf("failures = %v", failures)
	}

	temp := param(t, a, "settings", "temp").(*parameter.Range)
	if temp.Min() != 20 || temp.Max() != 90 || temp.Step() != 10 || temp.Float() != 40 {
		t.Errorf("settings temp = [%v,%v]/%v value %v", temp.Min(), temp.Max(), temp.Step(), temp.Float())
	}
	spin := param(t, a, "settings", "spin")
	if !reflect.DeepEqual(spin.Values(), []string{"400", "800", "1200"}) || spin.Value() != "800" {
		t.Errorf("settings spin = %v / %v", spin.Values(), spin.Value())
	}
	if v := param(t, a, "stopProgram", "spin").Value(); v != "800" {
		t.Errorf("stopProgram spin = %v", v)
	}
	if v := param(t, a, "settings", "light").Value(); v != "0" {
		t.Errorf("light touched: %v", v)
	}
}

func TestSyncCommand_CollapsesRange(t *testing.T) {
	a, _ := newTestAppliance(t)

	if _, err := a.SyncCommand("stopProgram", SyncOptions{Targets: []string{"settings"}}); err != nil {
		t.Fatalf("SyncCommand() error = %v", err)
	}
	temp := param(t, a, "settings", "temp").(*parameter.Range)
	if temp.Min() != 30 || temp.Max() != 30 || temp.Float() != 30 {
		t.Errorf("settings temp = [%v,%v] value %v, want collapsed to 30", temp.Min(), temp.Max(), temp.Float())
	}
	spin := param(t, a, "settings", "spin")
	if !reflect.DeepEqual(spin.Values(), []string{"0"}) {
		t.Errorf("settings spin values = %v", spin.Values())
	}
	if v := param(t, a, "startProgram", "spin").Value(); v != "800" {
		t.Errorf("non-target changed: spin = %v", v)
	}
}

func TestSyncCommand_Restrictions(t *testing.T) {
	t.Run("key allow-list", func(t *testing.T) {
		a, _ := newTestAppliance(t)
		if _, err := a.SyncCommand("startProgram", SyncOptions{Keys: []string{"spin"}}); err != nil {
			t.Fatal(err)
		}
		if v := param(t, a, "settings", "spin").Value(); v != "800" {
			t.Errorf("spin = %v", v)
		}
		if v := param(t, a, "settings", "temp").(*parameter.Range).Max(); v != 50 {
			t.Errorf("temp max = %v, want untouched 50", v)
		}
	})

	t.Run("mandatory only", func(t *testing.T) {
		a, _ := newTestAppliance(t)
		if _, err := a.SyncCommand("startProgram", SyncOptions{MandatoryOnly: true}); err != nil {
			t.Fatal(err)
		}
		if v := param(t, a, "settings", "temp").Value(); v != 40.0 {
			t.Errorf("mandatory temp = %v, want 40", v)
		}
		if v := param(t, a, "settings", "spin").Value(); v != "400" {
			t.Errorf("optional spin = %v, want untouched", v)
		}
	})

	t.Run("unknown source", func(t *testing.T) {
		a, _ := newTestAppliance(t)
		if _, err := a.SyncCommand("nope", SyncOptions{}); !errors.Is(err, command.ErrUnknownCommand) {
			t.Errorf("error = %v", err)
		}
	})
}
