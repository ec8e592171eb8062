// cmd/calorie-log/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"calorie-log/internal/oracle"
	"calorie-log/internal/platform/config"
	"calorie-log/internal/platform/logger"
	"calorie-log/internal/server"
)

const version = "1.0.0"

func main() {
	// .env first so flag defaults can read it
	config.LoadDotEnv()

	cfg := config.New()
	ollama := cfg.Prefix("OLLAMA_")
	def := oracle.DefaultConfig()

	var (
		port        = flag.Int("port", cfg.MayInt("PORT", 3001), "Port for HTTP transport")
		host        = flag.String("host", cfg.MayString("HOST", "0.0.0.0"), "Host address")
		dbPath      = flag.String("db-path", cfg.MayString("DB_PATH", "data/calorie.db"), "Database path")
		ollamaURL   = flag.String("ollama-url", ollama.MayString("URL", def.BaseURL), "Ollama base URL")
		model       = flag.String("model", ollama.MayString("MODEL", def.Model), "Text model used for calorie estimates")
		visionModel = flag.String("vision-model", ollama.MayString("VISION_MODEL", def.VisionModel), "Vision model used for food photos")
		timeout     = flag.Duration("ollama-timeout", ollama.MayDuration("TIMEOUT", def.Timeout), "Timeout for one model call")
		showVersion = flag.Bool("version", false, "Show version")
	)
	flag.Parse()

	if *showVersion {
		fmt.Println("calorie-log version " + version)
		os.Exit(0)
	}

	log := logger.Get()

	if dir := filepath.Dir(*dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal().Err(err).Str("dir", dir).Msg("failed to create data directory")
		}
	}

	srv, err := server.NewCalorieLogServer(&server.Config{
		Host:   *host,
		Port:   *port,
		DBPath: *dbPath,
		Oracle: oracle.Config{
			BaseURL:     *ollamaURL,
			Model:       *model,
			VisionModel: *visionModel,
			Timeout:     *timeout,
		},
		Location:    cfg.MayLocation("DAY_TIMEZONE", time.UTC),
		SlowRequest: cfg.MayDuration("SLOW_REQUEST", 0),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", fmt.Sprintf("%s:%d", *host, *port)).
			Str("db", *dbPath).
			Str("ollama", *ollamaURL).
			Str("model", *model).
			Str("vision_model", *visionModel).
			Msg("starting calorie log server")
		errCh <- srv.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("received shutdown signal")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}
