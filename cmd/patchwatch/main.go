package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"bdo-watch/patchwatch/internal/analyze"
	"bdo-watch/patchwatch/internal/config"
	"bdo-watch/patchwatch/internal/database"
	"bdo-watch/patchwatch/internal/harvest"
	importsubs "bdo-watch/patchwatch/internal/import"
	"bdo-watch/patchwatch/internal/monitor"
	"bdo-watch/patchwatch/internal/notify"
	"bdo-watch/patchwatch/internal/reports"
	"bdo-watch/patchwatch/internal/server"
	"bdo-watch/patchwatch/internal/store"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}

func usage() {
	fmt.Println("Usage: patchwatch [command] [options]")
	fmt.Println("Commands: start, server, import, subscribe, reset")
	fmt.Println("\nFor command-specific options, use: patchwatch [command] -h")
}

func main() {
	cfg := config.DefaultConfig()

	startCmd := flag.NewFlagSet("start", flag.ExitOnError)
	addCommonFlags(startCmd, cfg)
	var checkMinutes, notifyMinutes int
	startCmd.IntVar(&checkMinutes, "check-interval", config.GetEnvInt("PATCHWATCH_CHECK_INTERVAL", config.DefaultCheckInterval),
		"Minutes between ingestion cycles, 0 for one-shot mode (env: PATCHWATCH_CHECK_INTERVAL)")
	startCmd.IntVar(&notifyMinutes, "notify-interval", config.GetEnvInt("PATCHWATCH_NOTIFY_INTERVAL", config.DefaultNotifyInterval),
		"Minutes between notification cycles (env: PATCHWATCH_NOTIFY_INTERVAL)")
	startCmd.IntVar(&cfg.HarvestLimit, "harvest-limit", config.GetEnvInt("PATCHWATCH_HARVEST_LIMIT", config.DefaultHarvestLimit),
		"Candidate notices per source per cycle (env: PATCHWATCH_HARVEST_LIMIT)")
	startCmd.StringVar(&cfg.ReportsDir, "reports", config.GetEnvString("PATCHWATCH_REPORTS_DIR", config.DefaultReportsDir),
		"Directory for generated report files (env: PATCHWATCH_REPORTS_DIR)")
	startCmd.StringVar(&cfg.SourcesPath, "sources", config.GetEnvString("PATCHWATCH_SOURCES_PATH", config.DefaultSourcesPath),
		"Path to the sources YAML file; built-in boards are used when absent (env: PATCHWATCH_SOURCES_PATH)")

	serverCmd := flag.NewFlagSet("server", flag.ExitOnError)
	addCommonFlags(serverCmd, cfg)
	serverCmd.StringVar(&cfg.ServerHost, "host", config.GetEnvString("PATCHWATCH_HOST", config.DefaultServerHost),
		"Host to bind the server to (env: PATCHWATCH_HOST)")
	serverCmd.IntVar(&cfg.ServerPort, "port", config.GetEnvInt("PATCHWATCH_PORT", config.DefaultServerPort),
		"Port to listen on (env: PATCHWATCH_PORT)")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	addCommonFlags(importCmd, cfg)
	var csvPath string
	importCmd.StringVar(&csvPath, "csv", config.GetEnvString("PATCHWATCH_CSV_PATH", "./subscriptions.csv"),
		"Path to the subscriptions CSV file (env: PATCHWATCH_CSV_PATH)")

	resetCmd := flag.NewFlagSet("reset", flag.ExitOnError)
	addCommonFlags(resetCmd, cfg)

	subscribeCmd := flag.NewFlagSet("subscribe", flag.ExitOnError)
	addCommonFlags(subscribeCmd, cfg)
	var guildID int64
	var webhookURL, language string
	subscribeCmd.Int64Var(&guildID, "guild", 0, "Guild identifier for the subscription")
	subscribeCmd.StringVar(&webhookURL, "webhook", "", "Webhook URL to deliver report announcements to")
	subscribeCmd.StringVar(&language, "language", "", "Preferred report language (optional)")

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "start":
		startCmd.Parse(os.Args[2:])
		applyLogLevel(cfg)
		cfg.CheckInterval = time.Duration(checkMinutes) * time.Minute
		cfg.NotifyInterval = time.Duration(notifyMinutes) * time.Minute
		err = runStart(cfg)

	case "server":
		serverCmd.Parse(os.Args[2:])
		applyLogLevel(cfg)
		err = runServer(cfg)

	case "import":
		importCmd.Parse(os.Args[2:])
		applyLogLevel(cfg)
		err = runImport(cfg, csvPath)

	case "reset":
		resetCmd.Parse(os.Args[2:])
		applyLogLevel(cfg)
		err = runReset(cfg)

	case "subscribe":
		subscribeCmd.Parse(os.Args[2:])
		applyLogLevel(cfg)
		err = runSubscribe(cfg, guildID, webhookURL, language)

	case "-h", "--help", "help":
		usage()
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		usage()
		os.Exit(1)
	}

	if err != nil {
		log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
		os.Exit(1)
	}
}

// logLevelStr is shared across the flag sets; each command parses only
// its own set.
var logLevelStr string

func addCommonFlags(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&cfg.DBPath, "db", config.GetEnvString("PATCHWATCH_DB_PATH", config.DefaultDBPath),
		"Path to the SQLite database file (env: PATCHWATCH_DB_PATH)")
	fs.StringVar(&logLevelStr, "log-level", config.GetEnvString("PATCHWATCH_LOG_LEVEL", config.DefaultLogLevel),
		"Log level: debug, info, warn, error (env: PATCHWATCH_LOG_LEVEL)")
}

func applyLogLevel(cfg *config.Config) {
	if level, err := zerolog.ParseLevel(logLevelStr); err == nil {
		cfg.LogLevel = level
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)
}

// runStart runs the ingestion and notification loops until a shutdown
// signal arrives. The two loops are scheduled independently and share
// only the database.
func runStart(cfg *config.Config) error {
	sources, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}

	dbCfg := database.NewConfig(cfg.DBPath)
	db, err := database.NewDB(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-shutdown
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	analyzer, err := analyze.NewGeminiAnalyzer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return fmt.Errorf("failed to initialize analyzer: %w", err)
	}

	blobs, err := reports.NewBlobStore(cfg.ReportsDir)
	if err != nil {
		return fmt.Errorf("failed to initialize report storage: %w", err)
	}

	reportStore := store.NewReportStore(db)
	subStore := store.NewSubscriptionStore(db)

	ingestor := monitor.NewIngestor(sources, harvest.NewHarvester(), analyzer, blobs,
		reportStore, cfg.HarvestLimit, cfg.GeminiModel)
	notifier := monitor.NewNotifier(reportStore, subStore, notify.NewWebhookSender(blobs))

	if cfg.CheckInterval <= 0 {
		log.Info().Msg("Running in one-shot mode")
		ingestor.RunCycle(ctx)
		notifier.RunCycle(ctx)
		return ctx.Err()
	}

	log.Info().
		Dur("check_interval", cfg.CheckInterval).
		Dur("notify_interval", cfg.NotifyInterval).
		Int("sources", len(sources)).
		Msg("Starting monitoring loops")

	done := make(chan struct{})
	go runLoop(ctx, "ingestion", cfg.CheckInterval, ingestor.RunCycle, done)
	go runLoop(ctx, "notification", cfg.NotifyInterval, notifier.RunCycle, done)

	<-done
	<-done
	log.Info().Msg("Monitoring loops stopped")

	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// runLoop runs one cycle immediately, then on every tick until the
// context is cancelled.
func runLoop(ctx context.Context, name string, interval time.Duration, cycle func(context.Context), done chan<- struct{}) {
	defer func() { done <- struct{}{} }()

	run := func() {
		start := time.Now()
		cycle(ctx)
		log.Debug().
			Str("loop", name).
			Dur("duration", time.Since(start)).
			Msg("Cycle finished")
	}

	run()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			run()
		case <-ctx.Done():
			log.Info().Str("loop", name).Msg("Loop shutting down")
			return
		}
	}
}

// runServer starts the read-only HTTP API with the provided configuration.
func runServer(cfg *config.Config) error {
	dbCfg := database.NewConfig(cfg.DBPath)
	dbCfg.ReadOnly = true

	db, err := database.NewDB(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	return server.RunServer(db, cfg.ListenAddr(), log.Logger, cfg.APIKey)
}

// runImport bulk-loads subscription targets from a CSV file.
func runImport(cfg *config.Config, csvPath string) error {
	dbCfg := database.NewConfig(cfg.DBPath)
	db, err := database.NewDB(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	importer := importsubs.NewImporter(store.NewSubscriptionStore(db))
	return importer.ImportSubscriptions(context.Background(), csvPath)
}

// runReset deletes the database file. Report blobs are untouched; the
// next ingestion cycle regenerates the report log from the boards.
func runReset(cfg *config.Config) error {
	if err := database.DeleteDB(cfg.DBPath); err != nil {
		return fmt.Errorf("failed to delete database: %w", err)
	}
	log.Info().Str("path", cfg.DBPath).Msg("Database deleted")
	return nil
}

// runSubscribe registers or updates a single subscription target.
func runSubscribe(cfg *config.Config, guildID int64, webhookURL, language string) error {
	if guildID == 0 {
		return fmt.Errorf("a non-zero -guild is required")
	}
	if webhookURL == "" && language == "" {
		return fmt.Errorf("at least one of -webhook or -language is required")
	}

	dbCfg := database.NewConfig(cfg.DBPath)
	db, err := database.NewDB(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	subStore := store.NewSubscriptionStore(db)
	ctx := context.Background()

	if webhookURL != "" {
		if err := subStore.SetWebhook(ctx, guildID, webhookURL); err != nil {
			return err
		}
		log.Info().Int64("guild_id", guildID).Msg("Webhook registered")
	}
	if language != "" {
		if err := subStore.SetLanguage(ctx, guildID, language); err != nil {
			return err
		}
		log.Info().Int64("guild_id", guildID).Str("language", language).Msg("Language set")
	}

	return nil
}
