package generativeAI

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"
)

const (
	taskRetrievalQuery    = "RETRIEVAL_QUERY"
	taskRetrievalDocument = "RETRIEVAL_DOCUMENT"

	// maxEmbedBatch is the API limit on contents per embedding request.
	maxEmbedBatch = 100
)

type contentEmbedder interface {
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// EmbeddingService turns text into vectors for the POI index.
// Query embeddings are cached since the same profile is embedded once per sampled zone.
type EmbeddingService struct {
	models    contentEmbedder
	model     string
	dimension int
	cache     *cache.Cache
	logger    *slog.Logger
}

func NewEmbeddingService(client *genai.Client, model string, dimension int, cacheTTL time.Duration, logger *slog.Logger) *EmbeddingService {
	return newEmbeddingService(client.Models, model, dimension, cacheTTL, logger)
}

func newEmbeddingService(models contentEmbedder, model string, dimension int, cacheTTL time.Duration, logger *slog.Logger) *EmbeddingService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Minute
	}
	return &EmbeddingService{
		models:    models,
		model:     model,
		dimension: dimension,
		cache:     cache.New(cacheTTL, 2*cacheTTL),
		logger:    logger,
	}
}

func (s *EmbeddingService) Dimension() int {
	return s.dimension
}

// EmbedQuery embeds a search text.
func (s *EmbeddingService) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	key := cacheKey(text)
	if cached, found := s.cache.Get(key); found {
		s.logger.DebugContext(ctx, "Query embedding cache hit")
		return cached.([]float32), nil
	}

	vectors, err := s.embed(ctx, []string{text}, taskRetrievalQuery)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, vectors[0], cache.DefaultExpiration)
	return vectors[0], nil
}

// EmbedDocuments embeds texts in API sized batches, keeping input order.
func (s *EmbeddingService) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))
		vectors, err := s.embed(ctx, texts[start:end], taskRetrievalDocument)
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", start, end, err)
		}
		out = append(out, vectors...)
	}
	return out, nil
}

func (s *EmbeddingService) embed(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "EmbedContent", trace.WithAttributes(
		attribute.String("model", s.model),
		attribute.String("task.type", taskType),
		attribute.Int("texts.count", len(texts)),
	))
	defer span.End()

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	config := &genai.EmbedContentConfig{TaskType: taskType}
	if s.dimension > 0 {
		config.OutputDimensionality = genai.Ptr(int32(s.dimension))
	}

	resp, err := s.models.EmbedContent(ctx, s.model, contents, config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Embedding request failed")
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if resp == nil || len(resp.Embeddings) != len(texts) {
		err = errors.New("embedding response does not match the request")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unexpected embedding response")
		return nil, err
	}

	vectors := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		if e == nil || len(e.Values) == 0 {
			err = fmt.Errorf("empty embedding at position %d", i)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Empty embedding")
			return nil, err
		}
		if s.dimension > 0 && len(e.Values) != s.dimension {
			err = fmt.Errorf("embedding at position %d has dimension %d, want %d", i, len(e.Values), s.dimension)
			span.RecordError(err)
			span.SetStatus(codes.Error, "Embedding dimension mismatch")
			return nil, err
		}
		vectors[i] = e.Values
	}

	span.SetStatus(codes.Ok, "Embedded")
	return vectors, nil
}

func cacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "query_embedding:" + hex.EncodeToString(sum[:])
}
