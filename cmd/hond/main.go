// hond - appliance command daemon
//
// hond loads the command catalogs of the configured appliances from the
// vendor cloud and exposes them over a REST/WebSocket API and, optionally,
// an MQTT broker. Sends are journaled to SQLite; attribute telemetry can be
// written to InfluxDB; Prometheus metrics are served at /metrics.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/s-dimaio/JavahOn-sub000/internal/api"
	"github.com/s-dimaio/JavahOn-sub000/internal/appliance"
	"github.com/s-dimaio/JavahOn-sub000/internal/bridge"
	"github.com/s-dimaio/JavahOn-sub000/internal/command"
	"github.com/s-dimaio/JavahOn-sub000/internal/hon"
	"github.com/s-dimaio/JavahOn-sub000/internal/infrastructure/config"
	"github.com/s-dimaio/JavahOn-sub000/internal/infrastructure/database"
	"github.com/s-dimaio/JavahOn-sub000/internal/infrastructure/influxdb"
	"github.com/s-dimaio/JavahOn-sub000/internal/infrastructure/logging"
	"github.com/s-dimaio/JavahOn-sub000/internal/infrastructure/metrics"
	"github.com/s-dimaio/JavahOn-sub000/internal/infrastructure/mqtt"
	"github.com/s-dimaio/JavahOn-sub000/internal/journal"
	"github.com/s-dimaio/JavahOn-sub000/internal/telemetry"
	"github.com/s-dimaio/JavahOn-sub000/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const (
	// defaultConfigPath is used when HOND_CONFIG is not set.
	defaultConfigPath = "configs/hond.yaml"

	// journalRetention is how long journaled sends are kept.
	journalRetention = 90 * 24 * time.Hour

	// loadTimeout bounds the catalog and attribute fetches of one appliance.
	loadTimeout = 30 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // linear startup sequence
	log := logging.Default()
	log.Info("starting hond",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log = logging.New(cfg.Logging, version)
	log.Info("configuration loaded",
		"path", configPath,
		"appliances", len(cfg.Appliances),
		"level", cfg.Logging.Level,
	)

	// Database and command journal
	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	applied, err := db.Migrate(ctx, migrations.FS)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	log.Info("database ready", "path", db.Path(), "migrations_applied", applied)

	cmdJournal := journal.New(db.DB)
	promMetrics := metrics.New()

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// MQTT (optional)
	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

	// Cloud client and appliances
	honClient, err := hon.NewClient(cfg.Hon)
	if err != nil {
		return fmt.Errorf("creating cloud client: %w", err)
	}
	honClient.SetLogger(log.Component("hon"))
	if exp, ok := honClient.Session().Expiry(); ok {
		log.Info("cloud session loaded", "expires", exp.UTC().Format(time.RFC3339))
	}

	recorderOpts := telemetry.Options{Journal: cmdJournal, Counters: promMetrics}
	if influxClient != nil {
		recorderOpts.Points = influxClient
	}
	recorder := telemetry.New(recorderOpts)

	registry, err := buildRegistry(cfg, honClient, recorder, log)
	if err != nil {
		return err
	}
	loadAll(ctx, registry, recorder, log)

	// MQTT bridge
	if mqttClient != nil {
		br, bridgeErr := bridge.New(bridge.Options{
			MQTT:     mqttClient,
			Registry: registry,
			Topics:   mqttClient.Topics(),
			QoS:      byte(cfg.MQTT.QoS),
			Logger:   log.Component("bridge"),
		})
		if bridgeErr != nil {
			return fmt.Errorf("creating MQTT bridge: %w", bridgeErr)
		}
		if startErr := br.Start(); startErr != nil {
			return fmt.Errorf("starting MQTT bridge: %w", startErr)
		}
		defer br.Stop()
	}

	// HTTP API
	deps := api.Deps{
		Config:   cfg.API,
		WS:       cfg.WebSocket,
		Logger:   log.Component("api"),
		Registry: registry,
		Journal:  cmdJournal,
		Metrics:  promMetrics,
		DB:       db.DB,
		Version:  version,
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	if influxClient != nil {
		deps.InfluxDB = influxClient
	}
	server, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for shutdown signal")

	go pollLoop(ctx, cfg.GetPollInterval(), registry, cmdJournal, log)

	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns HOND_CONFIG if set, otherwise the default path.
func getConfigPath() string {
	if path := os.Getenv("HOND_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// buildRegistry creates one appliance per configured entry.
func buildRegistry(cfg *config.Config, client *hon.Client, recorder *telemetry.Recorder, log *logging.Logger) (*appliance.Registry, error) {
	registry := appliance.NewRegistry()
	for _, ac := range cfg.Appliances {
		a := appliance.New(appliance.Config{
			Info: command.Info{
				MacAddress:      ac.MacAddress,
				ApplianceType:   ac.Type,
				ModelID:         ac.ModelID,
				Code:            ac.Code,
				FirmwareID:      ac.FirmwareID,
				FirmwareVersion: ac.FirmwareVersion,
				Series:          ac.Series,
				Options:         ac.Options,
			},
			Name:     ac.Name,
			Zone:     ac.Zone,
			Programs: ac.Programs,
		}, client)
		a.SetLogger(log.Appliance(ac.MacAddress))
		recorder.Watch(a)

		if err := registry.Add(a); err != nil {
			return nil, fmt.Errorf("registering appliance %s: %w", ac.MacAddress, err)
		}
	}
	return registry, nil
}

// loadAll fetches catalogs and attributes. Failures are logged; the API
// can retry through the reload endpoint.
func loadAll(ctx context.Context, registry *appliance.Registry, recorder *telemetry.Recorder, log *logging.Logger) {
	for _, a := range registry.List() {
		loadCtx, cancel := context.WithTimeout(ctx, loadTimeout)
		err := a.Exclusive(func() error { return a.LoadCommands(loadCtx) })
		if err != nil {
			recorder.CatalogFailed(a.MacAddress(), err)
			log.Warn("loading command catalog failed", "mac", a.MacAddress(), "error", err)
		}
		if _, err := a.RefreshAttributes(loadCtx); err != nil {
			log.Warn("loading attributes failed", "mac", a.MacAddress(), "error", err)
		}
		cancel()
	}
}

// pollLoop refreshes attributes on every tick and prunes the journal daily.
func pollLoop(ctx context.Context, interval time.Duration, registry *appliance.Registry, j *journal.Journal, log *logging.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	lastPrune := time.Time{}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		for _, a := range registry.List() {
			refreshCtx, cancel := context.WithTimeout(ctx, loadTimeout)
			if _, err := a.RefreshAttributes(refreshCtx); err != nil {
				log.Debug("attribute refresh failed", "mac", a.MacAddress(), "error", err)
			}
			cancel()
		}

		if time.Since(lastPrune) >= 24*time.Hour {
			lastPrune = time.Now()
			if n, err := j.Prune(ctx, journalRetention); err != nil {
				log.Warn("pruning journal failed", "error", err)
			} else if n > 0 {
				log.Info("journal pruned", "entries", n)
			}
		}
	}
}

// healthCheck verifies the infrastructure connections.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (nil if disabled)
//   - influxClient: InfluxDB client to check (nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
