// Block Energy Core
//
// This is the main entry point for the block energy core. It owns the
// capability registries, runs the furnace and lamp flow network, bridges
// host game events over MQTT and serves the admin API.
//
// Usage:
//
//	blockenergy                      run the core
//	blockenergy token -role operator issue an admin API token
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/blockenergy-core/internal/api"
	"github.com/nerrad567/blockenergy-core/internal/audit"
	"github.com/nerrad567/blockenergy-core/internal/autosave"
	"github.com/nerrad567/blockenergy-core/internal/blockdata"
	"github.com/nerrad567/blockenergy-core/internal/capability"
	"github.com/nerrad567/blockenergy-core/internal/energy"
	"github.com/nerrad567/blockenergy-core/internal/flow"
	"github.com/nerrad567/blockenergy-core/internal/hostbridge"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/config"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/database"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/logging"
	"github.com/nerrad567/blockenergy-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/blockenergy-core/migrations"
)

// Version information, set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// shutdownTimeout bounds the final flush and component shutdown.
const shutdownTimeout = 30 * time.Second

func main() {
	if len(os.Args) > 1 && os.Args[1] == "token" {
		if err := runToken(os.Args[2:], os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled.
func run(ctx context.Context) error { //nolint:gocognit,gocyclo // startup wiring is linear
	log := logging.Default()
	log.Info("starting blockenergy core",
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
	log.Info("configuration loaded", "path", configPath, "server_id", cfg.Server.ID)

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	codec, err := energy.NewCodec(cfg.Energy.Namespace)
	if err != nil {
		return fmt.Errorf("energy codec: %w", err)
	}
	regs := capability.NewRegistries(blockdata.NewSQLiteStore(db.DB), codec)
	regs.SetLogger(log.Component("capability"))
	banks, err := capability.Standard(regs)
	if err != nil {
		return fmt.Errorf("registering standard capability: %w", err)
	}

	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
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

	mqttClient, err := mqtt.Connect(cfg.MQTT)
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
	mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
	mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	events := &hostEvents{regs: regs}
	bridge, err := hostbridge.New(hostbridge.Options{
		Broker:    mqttClient,
		Callbacks: events.callbacks(),
		QoS:       byte(cfg.MQTT.QoS), //nolint:gosec // validated to 0..2
		Logger:    log.Component("hostbridge"),
	})
	if err != nil {
		return fmt.Errorf("creating host bridge: %w", err)
	}

	flowCfg := flow.DefaultConfig()
	var telemetry flow.Telemetry
	if influxClient != nil {
		telemetry = influxClient
	}
	network := flow.New(banks, flowCfg, bridge, telemetry)
	network.SetLogger(log.Component("flow"))
	if influxClient != nil && flowCfg.TelemetryEvery > 0 {
		network.OnTick(func(r flow.TickReport) {
			if r.Tick%flowCfg.TelemetryEvery == 0 {
				influxClient.RecordTick(r.Tick, r.Furnaces, r.Lamps, r.LitLamps, r.Generated)
			}
		})
	}
	events.network = network

	sched, err := autosave.New(cfg.Scheduler.Autosave, regs)
	switch {
	case errors.Is(err, autosave.ErrDisabled):
		log.Info("autosave disabled")
		sched = nil
	case err != nil:
		return fmt.Errorf("creating autosave: %w", err)
	default:
		sched.SetLogger(log.Component("autosave"))
	}

	if cfg.API.Enabled {
		health := map[string]api.HealthChecker{"database": db, "mqtt": mqttClient}
		if influxClient != nil {
			health["influxdb"] = influxClient
		}
		server, apiErr := api.New(api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			Security:   cfg.Security,
			Logger:     log.Component("api"),
			Registries: regs,
			Network:    network,
			Bridge:     bridge,
			Autosave:   sched,
			Audit:      audit.NewSQLiteRepository(db.DB),
			Health:     health,
			Version:    version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		events.feed = server
	} else {
		log.Info("API disabled")
	}

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("starting host bridge: %w", err)
	}

	tickDone := make(chan struct{})
	go func() {
		defer close(tickDone)
		network.Run(ctx, cfg.Scheduler.TickInterval)
	}()

	if sched != nil {
		sched.Start()
	}

	log.Info("initialisation complete, waiting for shutdown signal",
		"tick_interval", cfg.Scheduler.TickInterval,
		"namespace", cfg.Energy.Namespace,
	)
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	bridge.Stop()
	<-tickDone
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Warn("autosave did not stop cleanly", "error", err)
		}
	}

	written, err := regs.SaveAll(shutdownCtx)
	if err != nil {
		log.Error("final flush incomplete", "written", written, "error", err)
	} else {
		log.Info("final flush complete", "written", written)
	}

	log.Info("blockenergy core stopped")
	return nil
}

// getConfigPath returns BLOCKENERGY_CONFIG if set, otherwise the default.
func getConfigPath() string {
	if path := os.Getenv("BLOCKENERGY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies every infrastructure connection. influxClient may be
// nil when InfluxDB is disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
