package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"sprout/internal/config"
	"sprout/internal/daemon"
	"sprout/internal/identify"
	"sprout/internal/logging"
	"sprout/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// A local .env can carry GEMINI_API_KEY during development.
	_ = godotenv.Load()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return
	}

	engine, err := identify.NewConfiguredEngine(ctx, cfg)
	if err != nil {
		logger.Error("create identification engine", logging.Error(err))
		_ = st.Close()
		return
	}

	d, err := daemon.New(cfg, st, engine, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = engine.Close()
		_ = st.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("sproutd shutting down")
}
