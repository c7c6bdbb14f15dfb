package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	appLogger "github.com/FACorreiaa/go-vibes-recommender/app/logger"
	"github.com/FACorreiaa/go-vibes-recommender/config"
	"github.com/FACorreiaa/go-vibes-recommender/internal/api/augmentation"
	"github.com/FACorreiaa/go-vibes-recommender/internal/container"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	input := flag.String("input", cfg.Augmentation.OutputJSON, "augmented POI JSON file")
	flag.Parse()

	logger := appLogger.New(cfg.Mode, os.Stdout)
	ctx := context.Background()

	pois, err := augmentation.LoadAugmented(*input)
	if err != nil {
		logger.Error("Failed to load augmented POIs", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Loaded augmented POIs", slog.String("path", *input), slog.Int("count", len(pois)))

	c, err := container.NewContainer(ctx, &cfg, nil, logger)
	if err != nil {
		logger.Error("Failed to initialize container", slog.Any("error", err))
		os.Exit(1)
	}
	defer c.Close()

	report, err := c.POIService.Ingest(ctx, pois)
	if err != nil {
		logger.Error("Ingest failed", slog.Any("error", err))
		os.Exit(1)
	}

	color.Green("Ingested %d of %d POIs (%d skipped)", report.Inserted, report.Received, report.Skipped)
	color.Cyan("Collection size: %d", report.Total)
}
