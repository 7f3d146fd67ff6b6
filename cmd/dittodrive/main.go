package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/config"
	"github.com/marmos91/dittodrive/pkg/server"
)

const usage = `DittoDrive - Document Manager

Usage:
  dittodrive <command> [flags]

Commands:
  init      Initialize a sample configuration file
  start     Start the server
  version   Show version information

Flags:
  --config string   Path to config file (default: $XDG_CONFIG_HOME/dittodrive/config.yaml)
  --force           Force overwrite existing config file (init only)

Examples:
  # Initialize config file
  dittodrive init

  # Start server with default config location
  dittodrive start

  # Start with custom config
  dittodrive start --config /etc/dittodrive/config.yaml

  # Use environment variables to override config
  DITTODRIVE_LOGGING_LEVEL=DEBUG dittodrive start
`

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "init":
		runInit(os.Args[2:])
	case "start":
		runStart(os.Args[2:])
	case "version":
		fmt.Printf("dittodrive %s\n", version)
	case "help", "--help", "-h":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to config file")
	force := fs.Bool("force", false, "Force overwrite existing config file")
	_ = fs.Parse(args)

	var (
		configPath string
		err        error
	)
	if *configFile != "" {
		configPath = *configFile
		err = config.InitConfigToPath(configPath, *force)
	} else {
		configPath, err = config.InitConfig(*force)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the users list and the storage sections")
	fmt.Printf("  2. Start the server with: dittodrive start --config %s\n", configPath)
}

func runStart(args []string) {
	fs := flag.NewFlagSet("start", flag.ExitOnError)
	configFile := fs.String("config", "", "Path to config file")
	_ = fs.Parse(args)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output); err != nil {
		log.Fatalf("Failed to configure logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg); err != nil {
		logger.Error("Server error: %v", err)
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// Cancelled on SIGINT/SIGTERM to initiate graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Println("DittoDrive - Document Manager")
	logger.Info("Log level: %s, format: %s", cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Catalog store: %s, content store: %s", cfg.Catalog.Type, cfg.Content.Type)

	m := config.InitializeMetrics(cfg)

	rt, err := config.InitializeRuntime(ctx, cfg, m)
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Error("Failed to close stores: %v", err)
		}
	}()

	srv := server.New(rt.Drive, cfg.Server.ShutdownTimeout)

	adapters, err := config.CreateAdapters(cfg, m.HTTP)
	if err != nil {
		return err
	}
	for _, a := range adapters {
		if err := srv.AddAdapter(a); err != nil {
			return fmt.Errorf("failed to add %s adapter: %w", a.Protocol(), err)
		}
		logger.Info("%s adapter enabled on port %d", a.Protocol(), a.Port())
	}

	if rt.Collector != nil {
		srv.AddService(rt.Collector)
		logger.Info("Garbage collection enabled: interval=%v grace=%v dry_run=%v",
			cfg.GC.Interval, cfg.GC.GracePeriod, cfg.GC.DryRun)
	}

	if m.Server != nil {
		go func() {
			if err := m.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}

	logger.Info("Server is running. Press Ctrl+C to stop.")

	err = srv.Serve(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("Server stopped gracefully")
		return nil
	}
	return err
}
