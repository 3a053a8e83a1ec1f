package appliance

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/s-dimaio/JavahOn-sub000/internal/attribute"
	"github.com/s-dimaio/JavahOn-sub000/internal/command"
)

// Logger defines the logging interface used by appliances and the registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// API is the remote collaborator an appliance loads from and sends through.
type API interface {
	command.Sender
	LoadCommands(ctx context.Context, info command.Info) (*command.Object, error)
	LoadFavourites(ctx context.Context, info command.Info) ([]command.Favourite, error)
	LoadCommandHistory(ctx context.Context, info command.Info) ([]command.HistoryEntry, error)
	LoadAttributes(ctx context.Context, info command.Info) (map[string]any, error)
}

// Config describes one appliance.
type Config struct {
	Info     command.Info
	Name     string
	Zone     int
	Programs map[string]string // program code or key → display name
	Shield   time.Duration
}

// EventType distinguishes published events.
type EventType string

const (
	EventAttributes EventType = "attributes"
	EventCommand    EventType = "command"
	EventCatalog    EventType = "catalog"
)

// Event is published to subscribers after attribute changes, successful
// sends and catalog rebuilds.
type Event struct {
	Type       EventType
	MacAddress string
	Changes    []attribute.Change
	Result     *command.Result
	Timestamp  time.Time
}

// Appliance owns the command catalog and live attributes of one device.
//
// Catalog replacement and sends are not synchronised with each other; use
// Lock/Unlock (or Exclusive) around operations that must not overlap a
// rebuild.
type Appliance struct {
	cfg        Config
	api        API
	attributes *attribute.Store
	logger     Logger
	recorder   command.Recorder

	catalog *command.Catalog
	opMu    sync.Mutex

	subMu       sync.RWMutex
	subscribers []func(Event)
}

// New creates an appliance. api may be nil, in which case sends fail with
// command.ErrMissingCredentials and loads return ErrNoAPI.
func New(cfg Config, api API) *Appliance {
	a := &Appliance{
		cfg:        cfg,
		api:        api,
		attributes: attribute.NewStore(cfg.Shield),
		logger:     noopLogger{},
		catalog:    command.NewCatalog(),
	}
	return a
}

// SetLogger sets the logger for the appliance and its commands.
func (a *Appliance) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	a.logger = logger
}

// SetRecorder sets the journal that receives every send attempt.
func (a *Appliance) SetRecorder(r command.Recorder) {
	a.recorder = r
}

// MacAddress returns the appliance identifier.
func (a *Appliance) MacAddress() string { return a.cfg.Info.MacAddress }

// Name returns the configured nickname, falling back to the MAC address.
func (a *Appliance) Name() string {
	if a.cfg.Name != "" {
		return a.cfg.Name
	}
	return a.cfg.Info.MacAddress
}

// Type returns the vendor appliance type.
func (a *Appliance) Type() string { return a.cfg.Info.ApplianceType }

// Info implements command.Appliance.
func (a *Appliance) Info() command.Info { return a.cfg.Info }

// Zone implements command.Appliance.
func (a *Appliance) Zone() int { return a.cfg.Zone }

// LocalizedProgramName implements command.Appliance. Codes are looked up
// before labels.
func (a *Appliance) LocalizedProgramName(code, label string) (string, bool) {
	if code != "" {
		if name, ok := a.cfg.Programs[code]; ok {
			return name, true
		}
	}
	name, ok := a.cfg.Programs[label]
	return name, ok
}

// Attributes implements command.Appliance.
func (a *Appliance) Attributes() command.AttributeStore { return a.attributes }

// Store returns the concrete attribute store.
func (a *Appliance) Store() *attribute.Store { return a.attributes }

// Sender implements command.Appliance.
func (a *Appliance) Sender() command.Sender {
	if a.api == nil {
		return nil
	}
	return a.api
}

// Lock serialises catalog rebuilds, sends and synchronisation.
func (a *Appliance) Lock() { a.opMu.Lock() }

// Unlock releases Lock.
func (a *Appliance) Unlock() { a.opMu.Unlock() }

// Exclusive runs fn while holding the appliance lock.
func (a *Appliance) Exclusive(fn func() error) error {
	a.opMu.Lock()
	defer a.opMu.Unlock()
	return fn()
}

// Catalog returns the current command catalog. Callers that may overlap a
// rebuild must hold the appliance lock while using it.
func (a *Appliance) Catalog() *command.Catalog { return a.catalog }

// Command returns the active command for name.
func (a *Appliance) Command(name string) (*command.Command, error) {
	return a.catalog.Lookup(name)
}

// LoadCommands fetches commands, favourites and history concurrently and
// replaces the catalog.
//
// A failed command fetch aborts the load and keeps the previous catalog.
// Favourites and history are conveniences: failures are logged and the
// catalog is built without them.
func (a *Appliance) LoadCommands(ctx context.Context) error {
	if a.api == nil {
		return ErrNoAPI
	}

	var (
		tree       *command.Object
		favourites []command.Favourite
		history    []command.HistoryEntry
	)
	info := a.cfg.Info

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		tree, err = a.api.LoadCommands(gctx, info)
		if err != nil {
			return fmt.Errorf("loading commands: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if favourites, err = a.api.LoadFavourites(gctx, info); err != nil {
			a.logger.Warn("loading favourites failed", "mac", info.MacAddress, "error", err)
			favourites = nil
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if history, err = a.api.LoadCommandHistory(gctx, info); err != nil {
			a.logger.Warn("loading command history failed", "mac", info.MacAddress, "error", err)
			history = nil
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	a.Rebuild(tree, favourites, history)
	return nil
}

// Rebuild replaces the catalog from already fetched data.
func (a *Appliance) Rebuild(tree *command.Object, favourites []command.Favourite, history []command.HistoryEntry) {
	loader := command.NewLoader(a)
	loader.SetLogger(a.logger)
	loader.SetRecorder(a.recorder)
	a.catalog = loader.Build(tree, favourites, history)

	a.logger.Info("command catalog loaded",
		"mac", a.MacAddress(),
		"commands", a.catalog.Len(),
		"favourites", len(favourites),
	)
	a.publish(Event{Type: EventCatalog})
}

// Send sends the named command with overrides and publishes the result.
func (a *Appliance) Send(ctx context.Context, name string, overrides map[string]any) (*command.Result, error) {
	cmd, err := a.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	res, err := cmd.Send(ctx, overrides)
	if err != nil {
		return nil, err
	}
	a.publish(Event{Type: EventCommand, Result: res})
	return res, nil
}

// AvailableSettings returns the settings union of the named command.
func (a *Appliance) AvailableSettings(name string) (map[string]any, error) {
	cmd, err := a.catalog.Lookup(name)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any)
	for key, p := range cmd.AvailableSettings() {
		out[key] = p.Value()
	}
	return out, nil
}

// UpdateAttributes applies a device push and publishes the changes.
func (a *Appliance) UpdateAttributes(entries map[string]any) []attribute.Change {
	changes := a.attributes.Apply(entries)
	if len(changes) > 0 {
		a.publish(Event{Type: EventAttributes, Changes: changes})
	}
	return changes
}

// RefreshAttributes pulls the current attribute snapshot from the API.
func (a *Appliance) RefreshAttributes(ctx context.Context) ([]attribute.Change, error) {
	if a.api == nil {
		return nil, ErrNoAPI
	}
	entries, err := a.api.LoadAttributes(ctx, a.cfg.Info)
	if err != nil {
		return nil, fmt.Errorf("loading attributes: %w", err)
	}
	return a.UpdateAttributes(entries), nil
}

// Subscribe registers fn for every published event. Callbacks run
// synchronously on the publishing goroutine.
func (a *Appliance) Subscribe(fn func(Event)) {
	a.subMu.Lock()
	defer a.subMu.Unlock()
	a.subscribers = append(a.subscribers, fn)
}

func (a *Appliance) publish(ev Event) {
	ev.MacAddress = a.MacAddress()
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	a.subMu.RLock()
	subs := slices.Clone(a.subscribers)
	a.subMu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
