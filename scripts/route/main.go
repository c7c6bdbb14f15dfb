package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	appLogger "github.com/FACorreiaa/go-vibes-recommender/app/logger"
	"github.com/FACorreiaa/go-vibes-recommender/config"
	"github.com/FACorreiaa/go-vibes-recommender/internal/api/directions"
	"github.com/FACorreiaa/go-vibes-recommender/internal/api/recommend"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	input := flag.String("input", cfg.Export.Path, "recommended POIs CSV")
	stops := flag.Int("stops", cfg.Directions.MaxStops, "number of POIs to visit")
	flag.Parse()

	logger := appLogger.New(cfg.Mode, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rows, err := recommend.ReadCSVFile(*input)
	if err != nil {
		logger.Error("Failed to read recommendations", slog.Any("error", err))
		os.Exit(1)
	}

	client, err := directions.NewClient(directions.ClientConfig{
		BaseURL:          cfg.Directions.BaseURL,
		APIKey:           os.Getenv(cfg.Directions.APIKeyEnv),
		Mode:             cfg.Directions.Mode,
		Language:         cfg.Directions.Language,
		Timeout:          cfg.Directions.Timeout,
		FailureThreshold: cfg.Directions.FailureThreshold,
	}, logger)
	if err != nil {
		logger.Error("Failed to create directions client", slog.Any("error", err))
		os.Exit(1)
	}

	segments, err := directions.NewPlanner(client, logger).PlanRoute(ctx, directions.StopsFromRanked(rows, *stops))
	if err != nil {
		logger.Error("Failed to plan route", slog.Any("error", err))
		os.Exit(1)
	}
	directions.PrintRoute(os.Stdout, segments)
}
