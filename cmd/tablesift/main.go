package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/paleodata/tablesift/internal/config"
	"github.com/paleodata/tablesift/internal/pipeline"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// logFileName is the run log written inside the output directory.
const logFileName = "tablesift.log"

// setupLogging creates the run logger, which writes to stderr and to a log
// file inside the output directory so skipped tables can be reviewed after
// the run.
func setupLogging(cfg *config.Config) (*log.Logger, func(), error) {
	path := filepath.Join(cfg.OutputDir, logFileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file %s: %w", path, err)
	}

	logger := log.New(io.MultiWriter(os.Stderr, f), "", log.LstdFlags)
	return logger, func() { _ = f.Close() }, nil
}

// run executes the pipeline with signal-driven cancellation.
func run(cfg *config.Config, logger *log.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(signalCh)

	runner := pipeline.NewRunner(cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		_, err := runner.Run(ctx)
		errCh <- err
	}()

	select {
	case sig := <-signalCh:
		logger.Printf("received signal: %s, stopping", sig)
		cancel()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			printVersion()
			return
		}
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger, closeLog, err := setupLogging(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()

	if cfg.IsDebug() {
		logger.Printf("starting with configuration: %s", cfg.String())
	}

	if err := run(cfg, logger); err != nil {
		logger.Printf("run failed: %v", err)
		closeLog()
		os.Exit(1)
	}
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("tablesift\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}
