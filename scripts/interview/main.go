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
	generativeAI "github.com/FACorreiaa/go-vibes-recommender/internal/api/generative_ai"
	"github.com/FACorreiaa/go-vibes-recommender/internal/api/profile"
)

const promptTemplatePath = "./data/input/templates/user_context/prompt_template.txt"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger := appLogger.New(cfg.Mode, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	template, err := os.ReadFile(promptTemplatePath)
	if err != nil {
		logger.Error("Failed to read prompt template", slog.Any("error", err))
		os.Exit(1)
	}

	genaiClient, err := generativeAI.NewGenaiClient(ctx, cfg.LLM.APIKeyEnv)
	if err != nil {
		logger.Error("Failed to create Gemini client", slog.Any("error", err))
		os.Exit(1)
	}
	aiClient := generativeAI.NewAIClient(genaiClient, cfg.LLM.Model, cfg.LLM.Temperature)

	session, err := aiClient.StartChatSession(ctx, "")
	if err != nil {
		logger.Error("Failed to start chat session", slog.Any("error", err))
		os.Exit(1)
	}

	interview := profile.NewInterview(session, string(template), cfg.Interview.Rounds, os.Stdin, os.Stdout, logger)
	text, err := interview.Run(ctx)
	if err != nil {
		logger.Error("Interview failed", slog.Any("error", err))
		os.Exit(1)
	}

	if err := profile.SaveProfile(cfg.Interview.ProfilePath, text); err != nil {
		logger.Error("Failed to save profile", slog.Any("error", err))
		os.Exit(1)
	}
	color.Green("Profile saved to %s", cfg.Interview.ProfilePath)
}
