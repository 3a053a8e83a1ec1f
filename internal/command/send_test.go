package command

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/s-dimaio/JavahOn-sub000/internal/parameter"
)

func buildWash(t *testing.T, app *fakeAppliance, recorder Recorder) (*Catalog, *Command) {
	t.Helper()
	loader := NewLoader(app)
	loader.SetRecorder(recorder)
	cat := loader.Build(washTree(), nil, nil)
	cmd, err := cat.Lookup("startProgram")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	return cat, cmd
}

func TestSend_Success(t *testing.T) {
	app := newFakeAppliance()
	sender := &fakeSender{ack: Ack{Success: true, TransactionID: "aa-bb-cc_2024"}}
	app.sender = sender
	recorder := &fakeRecorder{}
	_, cmd := buildWash(t, app, recorder)

	res, err := cmd.Send(context.Background(), map[string]any{"temp": 60, "extra": 1.5})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(sender.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(sender.requests))
	}
	req := sender.requests[0]

	want := map[string]string{
		"temp":   "60",
		"spin":   "800",
		"prCode": "1",
		"prStr":  "PROGRAMS.WM.COTTONS",
		"extra":  "1.5",
	}
	for k, v := range want {
		if req.Parameters[k] != v {
			t.Errorf("parameters[%s] = %q, want %q", k, req.Parameters[k], v)
		}
	}
	if len(req.Parameters) != len(want) {
		t.Errorf("parameters = %v", req.Parameters)
	}
	if _, ok := req.Ancillary["programRules"]; ok {
		t.Error("programRules must not be sent")
	}
	if req.Ancillary["remainingTime"] != "90" {
		t.Errorf("ancillary = %v", req.Ancillary)
	}
	if req.Label != "COTTONS" || req.Program != "PROGRAMS.WM.COTTONS" {
		t.Errorf("label = %q program = %q", req.Label, req.Program)
	}
	if req.Appliance.MacAddress != "aa-bb-cc" {
		t.Errorf("appliance = %+v", req.Appliance)
	}

	if res.TransactionID != "aa-bb-cc_2024" || res.Parameters["temp"] != "60" {
		t.Errorf("result = %+v", res)
	}

	if v, _ := app.store.Get("temp"); v != "60" || !app.store.shielded["temp"] {
		t.Errorf("attribute echo temp = %q shielded = %v", v, app.store.shielded["temp"])
	}

	temp, _ := cmd.Parameter("temp")
	if temp.Value() != 40.0 {
		t.Errorf("override leaked into command: temp = %v", temp.Value())
	}

	if len(recorder.records) != 1 || !recorder.records[0].Success {
		t.Errorf("records = %+v", recorder.records)
	}
}

func TestSend_LocalizedLabel(t *testing.T) {
	app := newFakeAppliance()
	app.sender = &fakeSender{ack: Ack{Success: true}}
	app.localize = map[string]string{"1": "Cotton 60"}
	_, cmd := buildWash(t, app, nil)

	res, err := cmd.Send(context.Background(), nil)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if res.Label != "Cotton 60" {
		t.Errorf("Label = %q, want localized name", res.Label)
	}
}

func TestSend_ValidationErrorSendsNothing(t *testing.T) {
	app := newFakeAppliance()
	sender := &fakeSender{ack: Ack{Success: true}}
	app.sender = sender
	_, cmd := buildWash(t, app, nil)

	_, err := cmd.Send(context.Background(), map[string]any{"temp": 65})
	var verr *parameter.ValidationError
	if !errors.As(err, &verr) || verr.Key != "temp" {
		t.Fatalf("Send() error = %v, want temp ValidationError", err)
	}
	if len(sender.requests) != 0 {
		t.Error("invalid override was sent")
	}
	if _, ok := app.store.Get("temp"); ok {
		t.Error("invalid override echoed into attributes")
	}
}

func TestSend_MissingCredentials(t *testing.T) {
	app := newFakeAppliance()
	recorder := &fakeRecorder{}
	_, cmd := buildWash(t, app, recorder)

	_, err := cmd.Send(context.Background(), nil)
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("Send() error = %v, want ErrMissingCredentials", err)
	}
	if _, ok := app.store.Get("temp"); ok {
		t.Error("attributes echoed without a session")
	}
	if len(recorder.records) != 1 || recorder.records[0].Success {
		t.Errorf("records = %+v", recorder.records)
	}
}

func TestSend_TransmissionErrors(t *testing.T) {
	tests := []struct {
		name     string
		sender   *fakeSender
		wantCode string
		wantWrap error
	}{
		{name: "remote refused", sender: &fakeSender{ack: Ack{ResultCode: "13"}}, wantCode: "13"},
		{name: "transport failed", sender: &fakeSender{err: errBoom}, wantWrap: errBoom},
		{name: "session expired", sender: &fakeSender{err: ErrMissingCredentials}, wantWrap: ErrMissingCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newFakeAppliance()
			app.sender = tt.sender
			_, cmd := buildWash(t, app, nil)

			_, err := cmd.Send(context.Background(), nil)
			if err == nil {
				t.Fatal("Send() succeeded")
			}
			if tt.wantWrap != nil && !errors.Is(err, tt.wantWrap) {
				t.Errorf("error = %v, want wrapping %v", err, tt.wantWrap)
			}
			if tt.wantCode != "" {
				var terr *TransmissionError
				if !errors.As(err, &terr) || terr.ResultCode != tt.wantCode {
					t.Errorf("error = %v, want result code %s", err, tt.wantCode)
				}
				if !errors.Is(err, ErrTransmission) {
					t.Error("not matched by ErrTransmission")
				}
			}
		})
	}
}

func TestSend_ProgramOverrideUsesSibling(t *testing.T) {
	app := newFakeAppliance()
	sender := &fakeSender{ack: Ack{Success: true}}
	app.sender = sender
	cat, cmd := buildWash(t, app, nil)

	delicate := cmd.Categories()["delicate"]
	dt, _ := delicate.Parameter("temp")
	_ = dt.SetValue(40)

	if _, err := cmd.Send(context.Background(), map[string]any{"program": "delicate", "spin": "400"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	req := sender.requests[0]
	if req.Parameters["temp"] != "40" || req.Parameters["prCode"] != "2" {
		t.Errorf("parameters = %v, want delicate values", req.Parameters)
	}
	if _, ok := req.Parameters["program"]; ok {
		t.Error("program selector sent as a parameter")
	}
	if req.Program != "PROGRAMS.WM.DELICATE" {
		t.Errorf("Program = %q", req.Program)
	}
	if active, _ := cat.Get("startProgram"); active != delicate {
		t.Error("sibling not activated after a successful send")
	}

	if _, err := cmd.Send(context.Background(), map[string]any{"program": "unknown"}); !errors.Is(err, parameter.ErrInvalidValue) {
		t.Errorf("unknown program error = %v, want ErrInvalidValue", err)
	}
}

func TestSendSpecific(t *testing.T) {
	app := newFakeAppliance()
	sender := &fakeSender{ack: Ack{Success: true}}
	app.sender = sender
	_, cmd := buildWash(t, app, nil)

	if _, err := cmd.SendSpecific(context.Background(), []string{"spin"}); err != nil {
		t.Fatalf("SendSpecific() error = %v", err)
	}
	params := sender.requests[0].Parameters
	for _, k := range []string{"spin", "temp", "prCode", "prStr"} {
		if _, ok := params[k]; !ok {
			t.Errorf("%s missing from %v", k, params)
		}
	}

	if _, err := cmd.SendMandatory(context.Background(), nil); err != nil {
		t.Fatalf("SendMandatory() error = %v", err)
	}
	if _, ok := sender.requests[1].Parameters["spin"]; ok {
		t.Error("optional spin sent by SendMandatory")
	}
}

type checkingSender struct {
	*fakeSender
	credErr error
}

func (s checkingSender) CheckCredentials() error { return s.credErr }

func TestSend_CredentialsCheckedBeforeEcho(t *testing.T) {
	app := newFakeAppliance()
	sender := &fakeSender{ack: Ack{Success: true}}
	app.sender = checkingSender{fakeSender: sender, credErr: fmt.Errorf("%w: id token not set", ErrMissingCredentials)}
	recorder := &fakeRecorder{}
	_, cmd := buildWash(t, app, recorder)

	_, err := cmd.Send(context.Background(), map[string]any{"temp": 50})
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("Send() error = %v, want ErrMissingCredentials", err)
	}
	if len(sender.requests) != 0 {
		t.Error("request made without credentials")
	}
	if _, ok := app.store.Get("temp"); ok {
		t.Error("attributes echoed without credentials")
	}
	if len(recorder.records) != 1 || recorder.records[0].Success {
		t.Errorf("records = %+v", recorder.records)
	}

	app.sender = checkingSender{fakeSender: sender}
	if _, err := cmd.Send(context.Background(), map[string]any{"temp": 50}); err != nil {
		t.Fatalf("Send() with valid credentials error = %v", err)
	}
	if v, _ := app.store.Get("temp"); v != "50" {
		t.Errorf("attribute echo temp = %q, want 50", v)
	}
}

func TestSend_ProgramAliasOnCategorySelector(t *testing.T) {
	app := newFakeAppliance()
	sender := &fakeSender{ack: Ack{Success: true}}
	app.sender = sender
	cat := NewLoader(app).Build(ObjectFromMap(map[string]any{
		"setMode": map[string]any{
			"boost": leaf(map[string]any{"parameters": map[string]any{"mode": fixedAttrs("2")}}),
			"eco":   leaf(map[string]any{"parameters": map[string]any{"mode": fixedAttrs("1")}}),
		},
	}), nil, nil)
	cmd, err := cat.Lookup("setMode")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if _, ok := cmd.Parameter(parameter.KeyCategory); !ok {
		t.Fatal("setMode has no category selector")
	}

	if _, err := cmd.Send(context.Background(), map[string]any{"program": "eco"}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	params := sender.requests[0].Parameters
	if params["mode"] != "1" {
		t.Errorf("mode = %q, want eco value 1", params["mode"])
	}
	if _, ok := params["program"]; ok {
		t.Errorf("program alias sent as a parameter: %v", params)
	}
}
