package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/s-dimaio/JavahOn-sub000/internal/appliance"
	"github.com/s-dimaio/JavahOn-sub000/internal/command"
	"github.com/s-dimaio/JavahOn-sub000/internal/infrastructure/mqtt"
)

type published struct {
	topic    string
	payload  []byte
	retained bool
}

type mockMQTT struct {
	mu        sync.Mutex
	connected bool
	handlers  map[string]mqtt.MessageHandler
	messages  []published
}

func newMockMQTT() *mockMQTT {
	return &mockMQTT{connected: true, handlers: make(map[string]mqtt.MessageHandler)}
}

func (m *mockMQTT) PublishJSON(topic string, v any, retained bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, published{topic: topic, payload: data, retained: retained})
	return nil
}

func (m *mockMQTT) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = handler
	return nil
}

func (m *mockMQTT) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *mockMQTT) deliver(t *testing.T, pattern, topic string, payload string) error {
	t.Helper()
	m.mu.Lock()
	h, ok := m.handlers[pattern]
	m.mu.Unlock()
	if !ok {
		t.Fatalf("no handler subscribed for %s", pattern)
	}
	return h(topic, []byte(payload))
}

func (m *mockMQTT) lastOn(topic string) (published, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].topic == topic {
			return m.messages[i], true
		}
	}
	return published{}, false
}

type fakeAPI struct {
	mu   sync.Mutex
	sent []command.Request
}

func (f *fakeAPI) SendCommand(_ context.Context, req command.Request) (command.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, req)
	return command.Ack{Success: true, TransactionID: "tx-1", ResultCode: "0"}, nil
}

func (f *fakeAPI) LoadCommands(context.Context, command.Info) (*command.Object, error) {
	return nil, errors.New("not used")
}

func (f *fakeAPI) LoadFavourites(context.Context, command.Info) ([]command.Favourite, error) {
	return nil, nil
}

func (f *fakeAPI) LoadCommandHistory(context.Context, command.Info) ([]command.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeAPI) LoadAttributes(context.Context, command.Info) (map[string]any, error) {
	return nil, nil
}

func newTestBridge(t *testing.T) (*Bridge, *mockMQTT, *fakeAPI, *appliance.Appliance) {
	t.Helper()
	api := &fakeAPI{}
	a := appliance.New(appliance.Config{
		Info: command.Info{MacAddress: "aa-bb", ApplianceType: "WM"},
		Name: "Washer",
	}, api)
	a.Rebuild(command.ObjectFromMap(map[string]any{
		"settings": map[string]any{
			"description":  "settings",
			"protocolType": "mqtt",
			"parameters": map[string]any{
				"light": map[string]any{"typology": "enum", "enumValues": []any{"0", "1"}, "defaultValue": "0"},
			},
		},
	}), nil, nil)

	reg := appliance.NewRegistry()
	if err := reg.Add(a); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	m := newMockMQTT()
	b, err := New(Options{MQTT: m, Registry: reg, Topics: mqtt.Topics{Prefix: "hon"}, QoS: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := b.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(b.Stop)
	return b, m, api, a
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Options{Registry: appliance.NewRegistry()}); err == nil {
		t.Error("New() without MQTT client expected error")
	}
	if _, err := New(Options{MQTT: newMockMQTT()}); err == nil {
		t.Error("New() without registry expected error")
	}
}

func TestBridge_StartPublishesInitialState(t *testing.T) {
	b, m, _, _ := newTestBridge(t)

	msg, ok := m.lastOn("hon/aa-bb/state")
	if !ok || !msg.retained {
		t.Fatalf("initial state = %+v, %v", msg, ok)
	}
	if err := b.Start(); err == nil {
		t.Error("second Start() expected error")
	}
}

func TestBridge_AttributePush(t *testing.T) {
	_, m, _, a := newTestBridge(t)

	err := m.deliver(t, "hon/+/attributes", "hon/aa-bb/attributes",
		`{"machMode":{"parNewVal":"2","lastUpdate":"2024-01-01T00:00:00Z"},"temp":"40"}`)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}

	if v, _ := a.Store().Get("machMode"); v != "2" {
		t.Errorf("machMode = %q, want 2", v)
	}
	msg, ok := m.lastOn("hon/aa-bb/state")
	if !ok {
		t.Fatal("no state published")
	}
	var state StateMessage
	if err := json.Unmarshal(msg.payload, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Attributes["temp"] != "40" || state.Name != "Washer" {
		t.Errorf("state = %+v", state)
	}
}

func TestBridge_AttributePushErrors(t *testing.T) {
	_, m, _, _ := newTestBridge(t)

	tests := []struct {
		name    string
		topic   string
		payload string
		wantErr error
	}{
		{name: "unknown appliance", topic: "hon/ff-ff/attributes", payload: `{}`, wantErr: appliance.ErrApplianceNotFound},
		{name: "bad json", topic: "hon/aa-bb/attributes", payload: `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.deliver(t, "hon/+/attributes", tt.topic, tt.payload)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBridge_CommandRequest(t *testing.T) {
	_, m, api, _ := newTestBridge(t)

	err := m.deliver(t, "hon/+/commands/+/set", "hon/aa-bb/commands/settings/set", `{"parameters":{"light":"1"}}`)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}

	if len(api.sent) != 1 || api.sent[0].Parameters["light"] != "1" {
		t.Fatalf("sent = %+v", api.sent)
	}
	msg, ok := m.lastOn("hon/aa-bb/commands/settings")
	if !ok {
		t.Fatal("no command echo published")
	}
	if msg.retained {
		t.Error("command echo must not be retained")
	}
	var echo CommandEcho
	if err := json.Unmarshal(msg.payload, &echo); err != nil {
		t.Fatalf("decode echo: %v", err)
	}
	if echo.Command != "settings" || echo.TransactionID != "tx-1" || echo.Parameters["light"] != "1" {
		t.Errorf("echo = %+v", echo)
	}
}

func TestBridge_CommandRequestRejected(t *testing.T) {
	_, m, api, _ := newTestBridge(t)

	tests := []struct {
		name    string
		topic   string
		payload string
	}{
		{name: "unknown command", topic: "hon/aa-bb/commands/nope/set", payload: ``},
		{name: "invalid value", topic: "hon/aa-bb/commands/settings/set", payload: `{"parameters":{"light":"7"}}`},
		{name: "bad json", topic: "hon/aa-bb/commands/settings/set", payload: `[`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := m.deliver(t, "hon/+/commands/+/set", tt.topic, tt.payload); err == nil {
				t.Error("expected error")
			}
		})
	}
	if len(api.sent) != 0 {
		t.Errorf("rejected requests reached the cloud: %+v", api.sent)
	}
}

func TestBridge_StopSilencesEvents(t *testing.T) {
	b, m, _, a := newTestBridge(t)
	b.Stop()

	m.mu.Lock()
	before := len(m.messages)
	m.mu.Unlock()

	a.UpdateAttributes(map[string]any{"temp": "90"})

	m.mu.Lock()
	after := len(m.messages)
	m.mu.Unlock()
	if after != before {
		t.Errorf("published %d messages after Stop", after-before)
	}
}
