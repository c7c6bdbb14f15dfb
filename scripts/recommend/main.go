package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	appLogger "github.com/FACorreiaa/go-vibes-recommender/app/logger"
	"github.com/FACorreiaa/go-vibes-recommender/config"
	"github.com/FACorreiaa/go-vibes-recommender/internal/api/profile"
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
	profileText := flag.String("profile", "", "tourist profile text (defaults to the saved interview profile)")
	flag.Parse()

	logger := appLogger.New(cfg.Mode, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	text := *profileText
	if text == "" {
		if text, err = profile.LoadProfile(cfg.Interview.ProfilePath); err != nil {
			logger.Error("No profile given and none saved", slog.Any("error", err))
			os.Exit(1)
		}
	}

	c, err := container.NewContainer(ctx, &cfg, nil, logger)
	if err != nil {
		logger.Error("Failed to initialize container", slog.Any("error", err))
		os.Exit(1)
	}
	defer c.Close()

	rec, err := c.RecommendService.RecommendAndExport(ctx, text, c.Exporter)
	if err != nil {
		logger.Error("Recommendation failed", slog.Any("error", err))
		os.Exit(1)
	}

	color.Cyan("Zonas: %v", rec.Zones)
	for _, p := range rec.POIs {
		color.New(color.FgYellow).Printf("%-20s", p.Zone)
		color.New(color.FgWhite).Printf(" %-14s %.4f  %s\n", p.FinalCategory, p.Distance, p.Name)
	}
	color.Green("%d POIs exported to %s", len(rec.POIs), c.Exporter.Path())
}
