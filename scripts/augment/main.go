package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	appLogger "github.com/FACorreiaa/go-vibes-recommender/app/logger"
	"github.com/FACorreiaa/go-vibes-recommender/config"
	"github.com/FACorreiaa/go-vibes-recommender/internal/api/augmentation"
	generativeAI "github.com/FACorreiaa/go-vibes-recommender/internal/api/generative_ai"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := appLogger.New(cfg.Mode, os.Stdout)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	promptTemplate, err := os.ReadFile(cfg.Augmentation.PromptTemplate)
	if err != nil {
		logger.Error("Failed to read prompt template", slog.Any("error", err))
		os.Exit(1)
	}
	expectedOutput, err := os.ReadFile(cfg.Augmentation.ExpectedOutputTemplate)
	if err != nil {
		logger.Error("Failed to read expected output template", slog.Any("error", err))
		os.Exit(1)
	}

	table, err := augmentation.ReadPlacesCSVFile(cfg.Augmentation.InputCSV)
	if err != nil {
		logger.Error("Failed to read places", slog.Any("error", err))
		os.Exit(1)
	}

	genaiClient, err := generativeAI.NewGenaiClient(ctx, cfg.LLM.APIKeyEnv)
	if err != nil {
		logger.Error("Failed to create Gemini client", slog.Any("error", err))
		os.Exit(1)
	}
	aiClient := generativeAI.NewAIClient(genaiClient, cfg.LLM.Model, cfg.LLM.Temperature)

	pipeline := augmentation.NewPipeline(aiClient, string(promptTemplate), string(expectedOutput), augmentation.Options{
		RequestInterval: cfg.Augmentation.RequestInterval,
		MaxAttempts:     cfg.Augmentation.MaxAttempts,
		RetryDelay:      cfg.Augmentation.RetryDelay,
	}, logger)

	report, err := pipeline.Run(ctx, table, cfg.Augmentation.OutputJSON)
	if report != nil {
		color.Cyan("Resumed at %d, processed %d, failed %d, saved %d of %d rows",
			report.Resumed, report.Processed, report.Failed, report.Total, len(table.Rows))
	}
	if err != nil {
		logger.Error("Augmentation stopped", slog.Any("error", err))
		os.Exit(1)
	}
	color.Green("Augmented POIs saved to %s", cfg.Augmentation.OutputJSON)
}
