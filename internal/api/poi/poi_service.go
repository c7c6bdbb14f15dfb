package poi

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

// DefaultIngestBatchSize is the number of POIs embedded and inserted per round trip.
const DefaultIngestBatchSize = 100

// Embedder turns text into vectors.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

var _ Service = (*ServiceImpl)(nil)

// Service is the similarity-search index over POI descriptions.
type Service interface {
	// Retrieve returns up to limit POIs of zone, most similar to queryText first.
	Retrieve(ctx context.Context, queryText, zone string, limit int) ([]types.POICandidate, error)
	Ingest(ctx context.Context, pois []types.AugmentedPOI) (*IngestReport, error)
	Count(ctx context.Context) (int, error)
	CountByZone(ctx context.Context) (map[string]int, error)
}

// IngestReport summarises an Ingest call.
type IngestReport struct {
	Received int `json:"received"`
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
	Total    int `json:"total"`
}

type ServiceImpl struct {
	logger        *slog.Logger
	poiRepository Repository
	embedder      Embedder
	validate      *validator.Validate
	batchSize     int
}

func NewServiceImpl(poiRepository Repository, embedder Embedder, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:        logger,
		poiRepository: poiRepository,
		embedder:      embedder,
		validate:      validator.New(),
		batchSize:     DefaultIngestBatchSize,
	}
}

func (s *ServiceImpl) Retrieve(ctx context.Context, queryText, zone string, limit int) ([]types.POICandidate, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "Retrieve", trace.WithAttributes(
		attribute.String("zone", zone),
		attribute.Int("limit", limit),
	))
	defer span.End()

	if strings.TrimSpace(queryText) == "" {
		return nil, types.ErrEmptyProfile
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", limit)
	}

	embedding, err := s.embedder.EmbedQuery(ctx, queryText)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to embed query")
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	pois, err := s.poiRepository.FindSimilarByZone(ctx, embedding, zone, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Similarity search failed")
		return nil, err
	}

	span.SetAttributes(attribute.Int("results.count", len(pois)))
	span.SetStatus(codes.Ok, "Retrieved")
	return pois, nil
}

// Ingest embeds the descriptions of pois and indexes them under fresh ids.
// Entries missing a description, name, category or valid coordinates are skipped.
func (s *ServiceImpl) Ingest(ctx context.Context, pois []types.AugmentedPOI) (*IngestReport, error) {
	ctx, span := otel.Tracer("POIService").Start(ctx, "Ingest", trace.WithAttributes(
		attribute.Int("pois.count", len(pois)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Ingest"))
	report := &IngestReport{Received: len(pois)}

	records := make([]Record, 0, len(pois))
	for i, p := range pois {
		id := uuid.New()
		if err := s.validate.Struct(candidateFromMetadata(id.String(), p.Description, p.Data)); err != nil {
			l.WarnContext(ctx, "Skipping invalid POI", slog.Int("index", i), slog.String("name", p.Data.Name), slog.Any("error", err))
			report.Skipped++
			continue
		}
		records = append(records, Record{ID: id, Document: strings.TrimSpace(p.Description), Metadata: p.Data})
	}

	for _, batch := range chunk(records, s.batchSize) {
		texts := make([]string, len(batch))
		for i, rec := range batch {
			texts[i] = rec.Document
		}
		vectors, err := s.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to embed documents")
			return report, fmt.Errorf("failed to embed documents: %w", err)
		}
		if len(vectors) != len(batch) {
			return report, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(batch))
		}
		for i := range batch {
			batch[i].Embedding = vectors[i]
		}

		inserted, err := s.poiRepository.InsertPOIs(ctx, batch)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to insert POIs")
			return report, err
		}
		report.Inserted += inserted
		l.InfoContext(ctx, "Batch ingested", slog.Int("inserted", report.Inserted), slog.Int("of", len(records)))
	}

	total, err := s.poiRepository.Count(ctx)
	if err != nil {
		return report, err
	}
	report.Total = total

	span.SetAttributes(attribute.Int("inserted", report.Inserted), attribute.Int("skipped", report.Skipped))
	span.SetStatus(codes.Ok, "Ingested")
	return report, nil
}

func (s *ServiceImpl) Count(ctx context.Context) (int, error) {
	count, err := s.poiRepository.Count(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count POIs", slog.Any("error", err))
		return 0, err
	}
	return count, nil
}

func (s *ServiceImpl) CountByZone(ctx context.Context) (map[string]int, error) {
	counts, err := s.poiRepository.CountByZone(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to count POIs by zone", slog.Any("error", err))
		return nil, err
	}
	return counts, nil
}
