package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/s-dimaio/JavahOn-sub000/internal/appliance"
	"github.com/s-dimaio/JavahOn-sub000/internal/infrastructure/mqtt"
)

// commandTimeout bounds one send triggered by an MQTT request.
const commandTimeout = 15 * time.Second

// MQTTClient is the part of the MQTT client the bridge needs.
// *mqtt.Client satisfies it.
type MQTTClient interface {
	PublishJSON(topic string, v any, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	IsConnected() bool
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options holds configuration for creating a bridge.
type Options struct {
	// MQTT is the connected broker client.
	MQTT MQTTClient

	// Registry holds the appliances exposed on the broker.
	Registry *appliance.Registry

	// Topics builds and parses the topic hierarchy.
	Topics mqtt.Topics

	// QoS is used for subscriptions.
	QoS byte

	// Logger is optional.
	Logger Logger
}

// Bridge connects the appliance registry to the MQTT broker:
//   - attribute pushes received on {prefix}/{mac}/attributes update the live store
//   - command requests on {prefix}/{mac}/commands/{name}/set are sent to the cloud
//   - attribute changes are republished as a retained snapshot on {prefix}/{mac}/state
//   - successful sends are echoed on {prefix}/{mac}/commands/{name}
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	mqtt     MQTTClient
	registry *appliance.Registry
	topics   mqtt.Topics
	qos      byte
	logger   Logger

	ctx       context.Context
	ctxCancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
}

// CommandRequest is the optional JSON body of a command request.
// An empty body sends the command with its current values.
type CommandRequest struct {
	Parameters map[string]any `json:"parameters"`
}

// CommandEcho is published after a successful send.
type CommandEcho struct {
	MacAddress    string            `json:"mac_address"`
	Command       string            `json:"command"`
	Label         string            `json:"label"`
	Program       string            `json:"program,omitempty"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Parameters    map[string]string `json:"parameters"`
	Timestamp     time.Time         `json:"timestamp"`
}

// StateMessage is the retained attribute snapshot of one appliance.
type StateMessage struct {
	MacAddress string            `json:"mac_address"`
	Name       string            `json:"name"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
	Timestamp  time.Time         `json:"timestamp"`
}

// New creates a bridge. Call Start to begin operation.
func New(opts Options) (*Bridge, error) {
	if opts.MQTT == nil {
		return nil, errors.New("bridge: MQTT client is required")
	}
	if opts.Registry == nil {
		return nil, errors.New("bridge: appliance registry is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		mqtt:      opts.MQTT,
		registry:  opts.Registry,
		topics:    opts.Topics,
		qos:       opts.QoS,
		logger:    logger,
		ctx:       ctx,
		ctxCancel: cancel,
	}, nil
}

// Start subscribes to the inbound topics, hooks every registered appliance
// and publishes an initial state snapshot for each.
func (b *Bridge) Start() error {
	b.mu.Lock()
	if b.started {
		b.mu.Unlock()
		return errors.New("bridge: already started")
	}
	b.started = true
	b.mu.Unlock()

	if err := b.mqtt.Subscribe(b.topics.AllAttributes(), b.qos, b.handleAttributes); err != nil {
		return fmt.Errorf("subscribing to attribute pushes: %w", err)
	}
	if err := b.mqtt.Subscribe(b.topics.AllCommandRequests(), b.qos, b.handleCommandRequest); err != nil {
		return fmt.Errorf("subscribing to command requests: %w", err)
	}

	for _, a := range b.registry.List() {
		a.Subscribe(func(ev appliance.Event) { b.handleEvent(a, ev) })
		b.publishState(a)
	}

	b.logger.Info("mqtt bridge started",
		"appliances", b.registry.Len(),
		"attributes", b.topics.AllAttributes(),
		"commands", b.topics.AllCommandRequests(),
	)
	return nil
}

// Stop cancels in-flight sends and stops publishing. Subscriptions are
// released when the MQTT client is closed.
func (b *Bridge) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.stopped = true
	b.ctxCancel()
	b.logger.Info("mqtt bridge stopped")
}

func (b *Bridge) isStopped() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stopped
}

// handleAttributes applies a device push: a JSON object of key to either a
// plain value or {"parNewVal": ..., "lastUpdate": ...}.
func (b *Bridge) handleAttributes(topic string, payload []byte) error {
	mac, ok := b.topics.ParseAttributes(topic)
	if !ok {
		return fmt.Errorf("bridge: unexpected topic %q", topic)
	}
	a, err := b.registry.Get(mac)
	if err != nil {
		return err
	}

	var entries map[string]any
	if err := json.Unmarshal(payload, &entries); err != nil {
		return fmt.Errorf("bridge: decoding attributes for %s: %w", mac, err)
	}

	changes := a.UpdateAttributes(entries)
	b.logger.Debug("attribute push applied", "mac", mac, "entries", len(entries), "changes", len(changes))
	return nil
}

// handleCommandRequest sends the named command. The send holds the
// appliance lock so it cannot overlap a catalog reload.
func (b *Bridge) handleCommandRequest(topic string, payload []byte) error {
	mac, name, ok := b.topics.ParseCommandRequest(topic)
	if !ok {
		return fmt.Errorf("bridge: unexpected topic %q", topic)
	}
	if b.isStopped() {
		return nil
	}
	a, err := b.registry.Get(mac)
	if err != nil {
		return err
	}

	var req CommandRequest
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return fmt.Errorf("bridge: decoding command request for %s/%s: %w", mac, name, err)
		}
	}

	ctx, cancel := context.WithTimeout(b.ctx, commandTimeout)
	defer cancel()

	err = a.Exclusive(func() error {
		_, err := a.Send(ctx, name, req.Parameters)
		return err
	})
	if err != nil {
		return fmt.Errorf("bridge: sending %s to %s: %w", name, mac, err)
	}
	return nil
}

func (b *Bridge) handleEvent(a *appliance.Appliance, ev appliance.Event) {
	if b.isStopped() {
		return
	}
	switch ev.Type {
	case appliance.EventAttributes:
		b.publishState(a)
	case appliance.EventCommand:
		if ev.Result == nil {
			return
		}
		echo := CommandEcho{
			MacAddress:    ev.MacAddress,
			Command:       ev.Result.Command,
			Label:         ev.Result.Label,
			Program:       ev.Result.Program,
			TransactionID: ev.Result.TransactionID,
			Parameters:    ev.Result.Parameters,
			Timestamp:     ev.Timestamp,
		}
		if err := b.mqtt.PublishJSON(b.topics.CommandEcho(ev.MacAddress, ev.Result.Command), echo, false); err != nil {
			b.logger.Warn("publishing command echo failed", "mac", ev.MacAddress, "command", ev.Result.Command, "error", err)
		}
	}
}

func (b *Bridge) publishState(a *appliance.Appliance) {
	if !b.mqtt.IsConnected() {
		return
	}
	msg := StateMessage{
		MacAddress: a.MacAddress(),
		Name:       a.Name(),
		Type:       a.Type(),
		Attributes: a.Store().Values(),
		Timestamp:  time.Now().UTC(),
	}
	if err := b.mqtt.PublishJSON(b.topics.State(a.MacAddress()), msg, true); err != nil {
		b.logger.Warn("publishing state failed", "mac", a.MacAddress(), "error", err)
	}
}
