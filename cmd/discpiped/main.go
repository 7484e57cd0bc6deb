package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"discpipe/internal/config"
	"discpipe/internal/daemon"
	"discpipe/internal/logging"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	sup, err := daemon.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("construct supervisor", "error", err)
		log.Fatalf("construct supervisor: %v", err)
	}

	if err := sup.Run(ctx); err != nil {
		logger.Error("supervisor exited with error", "error", err)
		log.Fatalf("supervisor run: %v", err)
	}

	logger.Info("discpiped shutting down")
}
