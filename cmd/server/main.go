package main

import (
	"fmt"
	"os"

	"github.com/coldread-dev/coldread/internal/config"
	"github.com/coldread-dev/coldread/internal/logger"
	"github.com/coldread-dev/coldread/internal/server"
)

var version = "dev" // Will be set during build with -ldflags

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.Init("coldread-api", cfg.Logging.Level, cfg.Logging.Format)

	srv, err := server.New(cfg, log, version)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create server")
	}

	log.Info().Str("version", version).Msg("Starting coldread API server...")

	// Start HTTP server (this blocks)
	if err := srv.Start(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
