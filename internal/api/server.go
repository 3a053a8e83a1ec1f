package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/s-dimaio/JavahOn-sub000/internal/appliance"
	"github.com/s-dimaio/JavahOn-sub000/internal/infrastructure/config"
	"github.com/s-dimaio/JavahOn-sub000/internal/infrastructure/logging"
	"github.com/s-dimaio/JavahOn-sub000/internal/infrastructure/metrics"
	"github.com/s-dimaio/JavahOn-sub000/internal/journal"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// JournalReader lists recorded sends. *journal.Journal satisfies it.
type JournalReader interface {
	List(ctx context.Context, mac string, limit int) ([]journal.Entry, error)
}

// ConnectionStatus reports whether an optional integration is connected.
// *mqtt.Client and *influxdb.Client satisfy it.
type ConnectionStatus interface {
	IsConnected() bool
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Registry *appliance.Registry

	// Optional collaborators.
	Journal  JournalReader
	Metrics  *metrics.Metrics
	DB       *sql.DB
	MQTT     ConnectionStatus
	InfluxDB ConnectionStatus

	Version string
}

// Server is the HTTP API server for hond.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	registry  *appliance.Registry
	journal   JournalReader
	metrics   *metrics.Metrics
	db        *sql.DB
	mqtt      ConnectionStatus
	influx    ConnectionStatus
	version   string
	startTime time.Time

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (logger, registry) and optional integrations
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("appliance registry is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger,
		registry:  deps.Registry,
		journal:   deps.Journal,
		metrics:   deps.Metrics,
		db:        deps.DB,
		mqtt:      deps.MQTT,
		influx:    deps.InfluxDB,
		version:   deps.Version,
		startTime: time.Now(),
	}
	s.hub = NewHub(s.wsCfg, s.logger)
	s.hub.metrics = s.metrics
	return s, nil
}

// Start begins listening for HTTP connections.
//
// It subscribes the WebSocket hub to appliance events and launches the
// HTTP listener in a background goroutine. The server can be stopped with
// Close().
//
// Parameters:
//   - ctx: Parent context for the hub; cancelling it disconnects WebSocket clients
//
// Returns:
//   - error: If the listen address cannot be bound
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)
	go s.hub.Run(srvCtx)

	s.subscribeApplianceEvents()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		return fmt.Errorf("listening on %s: %w", s.server.Addr, err)
	}
	s.logger.Info("API server listening", "address", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}

// Handler returns the fully wired router without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// subscribeApplianceEvents relays appliance events to WebSocket clients.
func (s *Server) subscribeApplianceEvents() {
	for _, a := range s.registry.List() {
		a.Subscribe(s.broadcastEvent)
	}
}

func (s *Server) broadcastEvent(ev appliance.Event) {
	switch ev.Type {
	case appliance.EventAttributes:
		changes := make([]attributeChange, 0, len(ev.Changes))
		for _, c := range ev.Changes {
			changes = append(changes, attributeChange{Key: c.Key, Value: c.Value, Previous: c.Previous})
		}
		s.hub.Broadcast(ChannelAttributes, map[string]any{
			"mac_address": ev.MacAddress,
			"changes":     changes,
		})
	case appliance.EventCommand:
		s.hub.Broadcast(ChannelCommands, map[string]any{
			"mac_address": ev.MacAddress,
			"result":      ev.Result,
		})
	case appliance.EventCatalog:
		s.hub.Broadcast(ChannelCatalog, map[string]any{
			"mac_address": ev.MacAddress,
		})
	}
}

type attributeChange struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	Previous string `json:"previous"`
}
