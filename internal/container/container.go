package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	database "github.com/FACorreiaa/go-vibes-recommender/app/db"
	"github.com/FACorreiaa/go-vibes-recommender/app/observability/metrics"
	"github.com/FACorreiaa/go-vibes-recommender/config"
	generativeAI "github.com/FACorreiaa/go-vibes-recommender/internal/api/generative_ai"
	"github.com/FACorreiaa/go-vibes-recommender/internal/api/poi"
	"github.com/FACorreiaa/go-vibes-recommender/internal/api/recommend"
)

// Container holds all application dependencies
type Container struct {
	Config           *config.Config
	Logger           *slog.Logger
	Pool             *pgxpool.Pool
	AIClient         *generativeAI.AIClient
	Embedder         *generativeAI.EmbeddingService
	POIService       *poi.ServiceImpl
	POIHandler       *poi.POIHandler
	RecommendService *recommend.ServiceImpl
	RecommendHandler *recommend.HandlerImpl
	Exporter         *recommend.CSVExporter
}

// NewContainer runs migrations, opens the pool and wires the Gemini clients,
// the POI index and the recommendation engine.
func NewContainer(ctx context.Context, cfg *config.Config, m *metrics.AppMetrics, logger *slog.Logger) (*Container, error) {
	dbConfig, err := database.NewDatabaseConfig(cfg, logger)
	if err != nil {
		logger.Error("Failed to generate database config", slog.Any("error", err))
		return nil, err
	}

	if err = database.RunMigrations(dbConfig.ConnectionURL, logger); err != nil {
		logger.Error("Failed to run database migrations", slog.Any("error", err))
		return nil, err
	}

	pool, err := database.Init(dbConfig.ConnectionURL, logger)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.Any("error", err))
		return nil, err
	}

	c, err := newWithPool(ctx, cfg, pool, m, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return c, nil
}

func newWithPool(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool, m *metrics.AppMetrics, logger *slog.Logger) (*Container, error) {
	genaiClient, err := generativeAI.NewGenaiClient(ctx, cfg.LLM.APIKeyEnv)
	if err != nil {
		return nil, err
	}
	aiClient := generativeAI.NewAIClient(genaiClient, cfg.LLM.Model, cfg.LLM.Temperature)
	embedder := generativeAI.NewEmbeddingService(genaiClient, cfg.LLM.EmbeddingModel,
		cfg.LLM.EmbeddingDimension, cfg.LLM.EmbeddingCacheTTL, logger)

	poiRepository := poi.NewRepository(pool, m, logger)
	poiService := poi.NewServiceImpl(poiRepository, embedder, logger)
	poiHandler := poi.NewPOIHandler(poiService, logger)

	recommendService, err := recommend.NewServiceFromConfig(cfg.Recommend, cfg.Zones, poiService, m, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build recommendation service: %w", err)
	}
	recommendHandler := recommend.NewHandlerImpl(recommendService, logger)

	return &Container{
		Config:           cfg,
		Logger:           logger,
		Pool:             pool,
		AIClient:         aiClient,
		Embedder:         embedder,
		POIService:       poiService,
		POIHandler:       poiHandler,
		RecommendService: recommendService,
		RecommendHandler: recommendHandler,
		Exporter:         recommend.NewCSVExporter(cfg.Export.Path, logger),
	}, nil
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
}

// WaitForDB waits for the database to be ready
func (c *Container) WaitForDB(ctx context.Context) bool {
	return database.WaitForDB(ctx, c.Pool, c.Logger)
}
