package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/fryholic/cctv-coordinator/internal/config"
	"github.com/fryholic/cctv-coordinator/internal/supervisor"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()

	dotenvPath := envOr("DOTENV_PATH", ".env")
	configPath := envOr("CONFIG_PATH", "config.json")

	cfg, err := config.Load(dotenvPath, configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}

	sup, err := supervisor.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init supervisor")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	if err := sup.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("supervisor exited")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
