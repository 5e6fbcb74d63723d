package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"genesisbridge/pkg/bridge"
	"genesisbridge/pkg/config"
	"genesisbridge/pkg/logger"
)

func main() {
	home, _ := os.UserHomeDir()
	defaultConfig := filepath.Join(home, ".genesis", "config.json")

	configPath := flag.String("config", defaultConfig, "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	if *debug || cfg.Logging.Debug {
		logger.SetLevel(logger.DEBUG)
	}
	if cfg.Logging.FileEnabled && cfg.Logging.FilePath != "" {
		if err := logger.EnableFileLogging(config.ExpandHome(cfg.Logging.FilePath), cfg.Logging.MaxSizeMB); err != nil {
			logger.WarnCF("main", "File logging disabled", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	b, err := bridge.New(cfg)
	if err != nil {
		logger.ErrorCF("main", "Bridge startup failed", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.InfoC("main", "Interrupt received, terminating guest...")
		b.Shutdown()
		cancel()
	}()

	go b.RunConsole(ctx)

	if err := b.Run(ctx); err != nil {
		logger.WarnCF("main", "Guest exited with error", map[string]interface{}{
			"error": err.Error(),
		})
	}
	logger.InfoC("main", "Bridge stopped")
}
