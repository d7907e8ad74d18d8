// Lumen Bridge - MQTT device-to-HTTP state bridge
//
// This is the main entry point for the Lumen Bridge application.
// The bridge maintains one long-lived authenticated session with an MQTT
// broker, mirrors a single LED device's telemetry into an in-memory
// snapshot, and exposes that snapshot plus command dispatch over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nerrad567/lumen-bridge/internal/api"
	"github.com/nerrad567/lumen-bridge/internal/audit"
	"github.com/nerrad567/lumen-bridge/internal/bridge"
	"github.com/nerrad567/lumen-bridge/internal/history"
	"github.com/nerrad567/lumen-bridge/internal/infrastructure/config"
	"github.com/nerrad567/lumen-bridge/internal/infrastructure/database"
	"github.com/nerrad567/lumen-bridge/internal/infrastructure/logging"
	"github.com/nerrad567/lumen-bridge/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Lumen Bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath, "device_id", cfg.Device.ID)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	topics := mqtt.TopicsFor(cfg.Device.ID)
	cache := bridge.NewStateCache()

	// Command audit trail (optional)
	var auditRepo audit.Repository
	var recorder *audit.Recorder
	if cfg.Audit.Enabled {
		db, openErr := database.Open(cfg.Audit.Database)
		if openErr != nil {
			return fmt.Errorf("opening audit database: %w", openErr)
		}
		defer func() {
			log.Info("closing audit database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing audit database", "error", closeErr)
			}
		}()

		repo := audit.NewSQLiteRepository(db.DB)
		if schemaErr := repo.InitSchema(ctx); schemaErr != nil {
			return fmt.Errorf("initialising audit schema: %w", schemaErr)
		}
		auditRepo = repo
		recorder = audit.NewRecorder(repo, log)
		log.Info("command audit trail enabled", "path", cfg.Audit.Database.Path)
	} else {
		log.Info("command audit trail disabled")
	}

	// Telemetry history recorder (optional)
	var histClient *history.Client
	if cfg.InfluxDB.Enabled {
		histClient, err = history.Connect(cfg.InfluxDB, cfg.Device.ID)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := histClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		histClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("telemetry history enabled",
			"url", cfg.InfluxDB.URL,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("telemetry history disabled")
	}

	// The connector builds a fresh broker session per attempt. Each attempt
	// is a single dial; the supervisor owns the retry loop.
	connector := func() (bridge.Session, error) {
		client, connectErr := mqtt.Connect(cfg.MQTT)
		if connectErr != nil {
			return nil, connectErr
		}
		client.SetLogger(log)
		return client, nil
	}

	retryInterval := time.Duration(cfg.MQTT.Reconnect.InitialDelay) * time.Second
	qos := byte(cfg.MQTT.QoS)

	supervisor := bridge.NewSupervisor(connector, topics, cache, qos, retryInterval)
	supervisor.SetLogger(log)
	if histClient != nil {
		supervisor.SetTelemetryRecorder(histClient)
	}

	// Supervisor runs for the life of the process; it blocks until the
	// context is cancelled, retrying the broker connection indefinitely.
	supervisorDone := make(chan error, 1)
	go func() {
		supervisorDone <- supervisor.Run(ctx)
	}()
	log.Info("broker supervisor started",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
		"data_topic", topics.Data,
		"command_topic", topics.Command,
	)

	dispatcher := bridge.NewDispatcher(supervisor, topics, qos)
	dispatcher.SetLogger(log)
	if recorder != nil {
		dispatcher.SetCommandRecorder(recorder)
	}

	// HTTP facade
	server, err := api.New(api.Deps{
		Config:     cfg.API,
		Logger:     log,
		Cache:      cache,
		Dispatcher: dispatcher,
		Session:    supervisor,
		Audit:      auditRepo,
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		log.Info("shutting down API server")
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// The supervisor closes its broker session on the way out; wait for it
	// so the session disconnect is not cut off by process exit.
	if supErr := <-supervisorDone; supErr != nil {
		log.Error("supervisor exited with error", "error", supErr)
	}

	log.Info("Lumen Bridge stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses LUMEN_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("LUMEN_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
