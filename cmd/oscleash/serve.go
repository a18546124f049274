package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nerrad567/oscleash/internal/api"
	"github.com/nerrad567/oscleash/internal/audit"
	"github.com/nerrad567/oscleash/internal/bridges/osc"
	"github.com/nerrad567/oscleash/internal/infrastructure/config"
	"github.com/nerrad567/oscleash/internal/infrastructure/database"
	"github.com/nerrad567/oscleash/internal/infrastructure/influxdb"
	"github.com/nerrad567/oscleash/internal/infrastructure/logging"
	"github.com/nerrad567/oscleash/internal/infrastructure/mqtt"
	"github.com/nerrad567/oscleash/internal/leash"
	"github.com/nerrad567/oscleash/internal/settings"
	"github.com/nerrad567/oscleash/internal/status"
	"github.com/nerrad567/oscleash/migrations"
)

// auditWriteTimeout bounds audit writes made outside a request.
const auditWriteTimeout = 5 * time.Second

// run is the service itself, separated from main for testability.
//
// Parameters:
//   - ctx: Cancelled on shutdown signals
//   - configPath: YAML config path, or "" for defaults and environment only
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error { //nolint:gocognit,gocyclo // linear startup sequence
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting OSCLeash",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, err = logging.New(cfg.Logging, version)
	if err != nil {
		return fmt.Errorf("initialising logger: %w", err)
	}
	defer log.Close()
	log.Info("configuration loaded", "path", configPath, "instance", cfg.Instance.ID)

	// Leash settings
	store, err := settings.Open(cfg.Settings.Path)
	if err != nil {
		return fmt.Errorf("opening settings: %w", err)
	}
	store.SetLogger(log.Component("settings"))
	if loadErr := store.LoadError(); loadErr != nil {
		log.Error("settings file unreadable, running on defaults", "path", store.Path(), "error", loadErr)
	}
	defer func() {
		if saveErr := store.Save(); saveErr != nil {
			log.Error("error saving settings", "error", saveErr)
		}
	}()
	log.Info("settings loaded", "path", store.Path(), "ip", store.Current().IP)

	// Audit database
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
	auditRepo := audit.NewSQLiteRepository(db.DB)

	// Status fan-out. Sinks run on a context that outlives ctx so the final
	// disconnect is still delivered during shutdown.
	hub := status.NewHub()
	hub.SetLogger(log.Component("status"))
	sinkCtx, stopSinks := context.WithCancel(context.WithoutCancel(ctx))
	defer func() {
		stopSinks()
		hub.Wait()
	}()
	hub.Attach(sinkCtx, "audit", status.NewAuditSink(auditRepo, log.Component("audit")))

	checks := map[string]api.HealthChecker{"database": db}

	// MQTT (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT, cfg.Instance.ID)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		mqttClient.SetLogger(log.Component("mqtt"))
		mqttClient.SetOnConnect(func() {
			log.Debug("MQTT connection established")
		})
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		hub.Attach(sinkCtx, "mqtt", status.NewMQTTSink(mqttClient, mqttClient.Topics(), log.Component("mqtt")))

		topic := mqttClient.Topics().SettingsCommand()
		// #nosec G115 -- QoS is validated to 0..2
		if subErr := mqttClient.Subscribe(topic, byte(cfg.MQTT.QoS), settingsCommandHandler(store, auditRepo, log)); subErr != nil {
			return fmt.Errorf("subscribing to %s: %w", topic, subErr)
		}
		checks["mqtt"] = mqttClient
	} else {
		log.Info("MQTT disabled")
	}

	// InfluxDB (optional)
	var recorder osc.MovementRecorder
	if cfg.InfluxDB.Enabled {
		influxClient, influxErr := influxdb.Connect(cfg.InfluxDB, cfg.Instance.ID)
		if influxErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", influxErr)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		hub.Attach(sinkCtx, "influxdb", status.NewTelemetrySink(influxClient))
		recorder = influxClient
		checks["influxdb"] = influxClient
	} else {
		log.Info("InfluxDB disabled")
	}

	// Edits to the settings file are audited like API and MQTT changes.
	store.OnReload(func(next settings.Settings) {
		recordSettingsChange(auditRepo, log, audit.SourceFile, map[string]any{"settings": next})
	})
	go store.Watch(ctx, cfg.SettingsReloadInterval())

	// OSC bridge
	registry := leash.NewRegistry()
	bridge, err := osc.NewBridge(osc.Options{
		Config:   bridgeConfig(cfg),
		Settings: store,
		Registry: registry,
		Status:   hub,
		Recorder: recorder,
		Exit: func(code int) {
			log.Error("unrecoverable OSC receive error, exiting", "code", code)
			os.Exit(code)
		},
		Logger: log.Component("osc"),
	})
	if err != nil {
		return fmt.Errorf("creating OSC bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		if errors.Is(err, osc.ErrInvalidLocalIP) {
			return fmt.Errorf("starting OSC bridge (check ip in %s): %w", store.Path(), err)
		}
		return fmt.Errorf("starting OSC bridge: %w", err)
	}
	defer func() {
		log.Info("stopping OSC bridge")
		bridge.Stop()
		// Flush the final disconnect before MQTT and InfluxDB close.
		stopSinks()
		hub.Wait()
	}()

	// Status API (optional)
	if cfg.API.Enabled {
		server, apiErr := api.New(api.Deps{
			Config:   cfg.API,
			WS:       cfg.WebSocket,
			Security: cfg.Security,
			Logger:   log.Component("api"),
			Status:   hub,
			Bridge:   bridge,
			Registry: registry,
			Settings: store,
			Audit:    auditRepo,
			Checks:   checks,
			Version:  version,
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
		if cfg.Security.JWT.Secret == "" {
			log.Warn("API authentication disabled; set security.jwt.secret to require tokens")
		}
	} else {
		log.Info("API disabled")
	}

	log.Info("initialisation complete, waiting for a VRChat client")

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
	case <-bridge.Done():
		if err := bridge.Err(); err != nil {
			return fmt.Errorf("OSC bridge stopped: %w", err)
		}
	}

	// Deferred cleanup runs in reverse order: API, bridge and status sinks,
	// InfluxDB, MQTT, database, settings save.
	log.Info("OSCLeash stopped")
	return nil
}

// bridgeConfig maps the osc config section onto the bridge.
func bridgeConfig(cfg *config.Config) osc.Config {
	return osc.Config{
		Name:           cfg.OSC.ServiceName,
		ReceivePort:    cfg.OSC.ReceivePort,
		QueryPort:      cfg.OSC.QueryPort,
		ClientPrefix:   cfg.OSC.ClientPrefix,
		BrowseInterval: cfg.BrowseInterval(),
		DebounceWindow: cfg.DebounceWindow(),
	}
}

// settingsCommandHandler applies JSON settings patches received on the MQTT
// command topic. Invalid patches are rejected and logged; the current
// snapshot is kept.
func settingsCommandHandler(store *settings.Store, repo audit.Repository, log *logging.Logger) mqtt.MessageHandler {
	return func(topic string, payload []byte) error {
		next, err := store.Patch(payload)
		if err != nil {
			return fmt.Errorf("applying settings from %s: %w", topic, err)
		}
		if saveErr := store.Save(); saveErr != nil {
			log.Warn("failed to save settings file", "error", saveErr)
		}
		log.Info("settings updated via MQTT", "topic", topic)
		recordSettingsChange(repo, log, audit.SourceMQTT, map[string]any{"topic": topic, "settings": next})
		return nil
	}
}

// recordSettingsChange writes a settings_updated audit entry.
func recordSettingsChange(repo audit.Repository, log *logging.Logger, source string, details map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), auditWriteTimeout)
	defer cancel()
	err := repo.Create(ctx, &audit.AuditLog{
		Action:  audit.ActionSettingsUpdated,
		Source:  source,
		Details: details,
	})
	if err != nil {
		log.Error("audit log write failed", "action", audit.ActionSettingsUpdated, "source", source, "error", err)
	}
}
