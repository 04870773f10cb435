package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"qreport/backup"
	"qreport/config"
	"qreport/engine"
	"qreport/logging"
	"qreport/messaging"
	"qreport/notify"
	"qreport/store"
	"qreport/www"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "qreport.yaml", "path to config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	restorePath := flag.String("restore", "", "restore a backup zip before starting")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port > 0 {
		cfg.Web.Port = *port
	}

	level := cfg.Logging.Level
	if *debug {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Logging.Format, "qreportd")
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer logger.Sync()

	// Restore runs before the store opens; a live process never swaps
	// its own database.
	if *restorePath != "" {
		if cfg.Database.Driver == store.DriverPostgres {
			logger.Fatalf("restore only replaces the sqlite database, use pg_restore for postgres")
		}
		if err := backup.Restore(*restorePath, cfg.Database.SQLite.Path, cfg.Paths.PhotoDir, *configPath, logger); err != nil {
			logger.Fatalf("restore %s: %v", *restorePath, err)
		}
		// The archive carries its own config; pick up the restored file.
		cfg, err = config.Load(*configPath)
		if err != nil {
			logger.Fatalf("reload config after restore: %v", err)
		}
		if *port > 0 {
			cfg.Web.Port = *port
		}
	}

	// Open database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Create and start engine
	eng := engine.New(engine.Config{
		AppConfig:  cfg,
		ConfigPath: *configPath,
		DB:         db,
		Log:        logger,
	})
	eng.Start()
	defer eng.Stop()

	// Webhook notifier
	notifier := notify.New(&cfg.Notify, cfg.FieldID(), logger)
	if notifier.Enabled() {
		notifier.Attach(eng.Events)
	}

	// Back-office messaging link
	if cfg.Messaging.Backend != "" {
		if cfg.Messaging.MQTT.ClientID == "" {
			cfg.Messaging.MQTT.ClientID = cfg.FieldID()
		}

		msgClient := messaging.NewClient(&cfg.Messaging, logger)
		defer msgClient.Close()
		if err := msgClient.Connect(); err != nil {
			logger.Warnf("messaging connect: %v (outbox will hold reports)", err)
		}

		// Outbox drainer pushes queued reports whenever the link is up
		drainer := messaging.NewOutboxDrainer(db, msgClient, cfg, logger)
		drainer.Start()
		defer drainer.Stop()

		// Inbound assignments and recalls from the office
		fieldHandler := messaging.NewFieldHandler(db, eng.CheckUpManager(), logger)
		sub := messaging.NewSubscriber(msgClient, cfg, fieldHandler, logger)
		if err := sub.Start(); err != nil {
			logger.Warnf("inbound subscribe: %v", err)
		} else {
			logger.Infof("listening for office messages on %s (field=%s)", cfg.Messaging.InboundTopic, cfg.FieldID())
		}

		// Heartbeater (registration + periodic heartbeat)
		hb := messaging.NewHeartbeater(msgClient, db, cfg, version, logger)
		hb.Start()
		defer hb.Stop()

		// Progress reporter flushes digests for check-ups touched since
		// the last interval
		reporter := messaging.NewProgressReporter(msgClient, db, cfg, logger)
		eng.Events.SubscribeTypes(func(evt engine.Event) {
			switch p := evt.Payload.(type) {
			case engine.ItemStatusChangedEvent:
				reporter.RecordActivity(p.CheckUpID)
			case engine.SparePartLoggedEvent:
				reporter.RecordActivity(p.CheckUpID)
			case engine.PhotoAttachedEvent:
				reporter.RecordActivity(p.CheckUpID)
			}
		}, engine.EventItemStatusChanged, engine.EventSparePartLogged, engine.EventPhotoAttached)
		reporter.Start()
		defer reporter.Stop()
	}

	// Set up HTTP server
	router, stopWeb := www.NewRouter(eng)
	defer stopWeb()

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		logger.Infof("QReport %s listening on %s", version, addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Infof("shutting down...")

	// Stop SSE event hub first so long-lived connections close
	stopWeb()

	// Graceful HTTP shutdown with 10s deadline
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warnf("http server shutdown: %v", err)
	}
}
