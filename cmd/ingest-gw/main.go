package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/siteglance/ingest-gw/internal/api"
	"github.com/siteglance/ingest-gw/internal/config"
	"github.com/siteglance/ingest-gw/internal/lock"
	"github.com/siteglance/ingest-gw/internal/log"
	"github.com/siteglance/ingest-gw/internal/storage"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "start":
		os.Exit(runStart(args))
	case "lock-config":
		os.Exit(runLockConfig(args))
	case "version":
		fmt.Printf("ingest-gw version %s\n", version)
		os.Exit(0)
	case "help", "--help", "-h":
		printUsage()
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`ingest-gw - Analytics webhook ingestion gateway

Usage:
  ingest-gw <command> [flags]

Commands:
  start         Start the gateway in foreground
  lock-config   Authorize current config (write integrity checksum)
  version       Show version information
  help          Show this help message

Start flags:
  --config <path>   Path to configuration file (default ./config.yaml)
  --listen <addr>   Override ingest.listen from the config
`)
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configPath := fs.String("config", "./config.yaml", "Path to configuration file")
	listen := fs.String("listen", "", "Override listen address")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}
	if *listen != "" {
		cfg.Ingest.Listen = *listen
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("ingest-gw starting", "version", version, "config", *configPath)

	if cfg.Ingest.Secret == "" {
		// Deliberately not fatal: the endpoint fails closed per request, and
		// an operator fixing the env can restart without losing the port.
		logger.Warn("webhook secret is empty; all deliveries will be rejected")
	}

	if cfg.Service.LockPath != "" {
		pidLock, err := lock.Acquire(cfg.Service.LockPath)
		if err != nil {
			logger.Error("failed to acquire PID lock", "path", cfg.Service.LockPath, "error", err)
			return 1
		}
		defer pidLock.Release()
		logger.Info("acquired PID lock", "path", pidLock.Path())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := storage.OpenSQLite(ctx, cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.Store.Path, "error", err)
		return 1
	}
	defer db.Close()
	logger.Info("database opened", "path", cfg.Store.Path)

	maxBody, err := cfg.MaxBodyBytes()
	if err != nil {
		logger.Error("invalid max_body_size", "error", err)
		return 1
	}

	server := api.New(api.Config{
		Listen:          cfg.Ingest.Listen,
		SignatureHeader: cfg.Ingest.SignatureHeader,
		Secret:          cfg.Ingest.Secret,
		MaxBodySize:     maxBody,
	}, storage.NewEventStore(db), log.WithComponent("api"))

	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", "error", err)
		return 1
	}

	logger.Info("ingest-gw stopped")
	return 0
}

func runLockConfig(args []string) int {
	fs := flag.NewFlagSet("lock-config", flag.ExitOnError)
	configPath := fs.String("config", "./config.yaml", "Path to configuration file")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	if err := config.WriteSidecarChecksum(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write checksum: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote %s.sha\n", *configPath)
	return 0
}
