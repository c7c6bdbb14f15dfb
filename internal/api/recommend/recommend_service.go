package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-vibes-recommender/app/observability/metrics"
	"github.com/FACorreiaa/go-vibes-recommender/config"
	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

// DefaultRetrievalLimit is the number of candidates requested per zone.
const DefaultRetrievalLimit = 10

// Retriever is the similarity-search index. Results come most relevant first
// and may be fewer than limit.
type Retriever interface {
	Retrieve(ctx context.Context, queryText, zone string, limit int) ([]types.POICandidate, error)
}

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	Recommend(ctx context.Context, profile string) (*types.Recommendation, error)
	RecommendAndExport(ctx context.Context, profile string, exporter Exporter) (*types.Recommendation, error)
	Zones() []types.Zone
}

// Options tunes a ServiceImpl.
type Options struct {
	ZoneCount         int
	RetrievalLimit    int
	SkipFailedZones   bool
	ParallelRetrieval bool
}

type ServiceImpl struct {
	logger     *slog.Logger
	retriever  Retriever
	sampler    *ZoneSampler
	classifier *CategoryClassifier
	ranker     *Ranker
	validate   *validator.Validate
	metrics    *metrics.AppMetrics
	zones      []types.Zone
	opts       Options
}

// NewServiceImpl wires the engine. m may be nil.
func NewServiceImpl(
	retriever Retriever,
	zones []types.Zone,
	sampler *ZoneSampler,
	classifier *CategoryClassifier,
	ranker *Ranker,
	opts Options,
	m *metrics.AppMetrics,
	logger *slog.Logger,
) *ServiceImpl {
	if opts.RetrievalLimit <= 0 {
		opts.RetrievalLimit = DefaultRetrievalLimit
	}
	return &ServiceImpl{
		logger:     logger,
		retriever:  retriever,
		sampler:    sampler,
		classifier: classifier,
		ranker:     ranker,
		validate:   validator.New(),
		metrics:    m,
		zones:      slices.Clone(zones),
		opts:       opts,
	}
}

// NewServiceFromConfig builds the sampler, classifier and ranker from the
// recommend section. A zero seed draws from a time-based source.
func NewServiceFromConfig(cfg config.RecommendConfig, zones []types.Zone, retriever Retriever, m *metrics.AppMetrics, logger *slog.Logger) (*ServiceImpl, error) {
	seed := uint64(cfg.Seed)
	if cfg.Seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	sampler, err := NewZoneSampler(zones, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), cfg.MaxAttemptsFactor)
	if err != nil {
		return nil, err
	}
	if cfg.ZoneCount > sampler.Eligible() {
		return nil, fmt.Errorf("%w: zone count %d exceeds %d positively weighted zones",
			types.ErrInvalidConfiguration, cfg.ZoneCount, sampler.Eligible())
	}
	order, err := RankOrderByName(cfg.RankOrder)
	if err != nil {
		return nil, err
	}

	return NewServiceImpl(
		retriever,
		zones,
		sampler,
		NewCategoryClassifier(cfg.Categories),
		NewRanker(order, cfg.PerZoneLimit),
		Options{
			ZoneCount:         cfg.ZoneCount,
			RetrievalLimit:    cfg.RetrievalLimit,
			SkipFailedZones:   cfg.SkipFailedZones,
			ParallelRetrieval: cfg.ParallelRetrieval,
		},
		m,
		logger,
	), nil
}

// Zones returns a copy of the configured zone table.
func (s *ServiceImpl) Zones() []types.Zone {
	return slices.Clone(s.zones)
}

// Recommend samples zones, retrieves candidates for each, then classifies,
// deduplicates and truncates them.
func (s *ServiceImpl) Recommend(ctx context.Context, profile string) (*types.Recommendation, error) {
	ctx, span := otel.Tracer("RecommendService").Start(ctx, "Recommend", trace.WithAttributes(
		attribute.Int("zone.count", s.opts.ZoneCount),
		attribute.Int("retrieval.limit", s.opts.RetrievalLimit),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Recommend"))
	if s.metrics != nil {
		s.metrics.RecommendationRunsTotal.Add(ctx, 1)
	}

	rec, err := s.recommend(ctx, profile)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecommendationErrorsTotal.Add(ctx, 1)
		}
		l.ErrorContext(ctx, "Recommendation run failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Recommendation failed")
		return nil, err
	}

	l.InfoContext(ctx, "Recommendation run completed",
		slog.Any("zones", rec.Zones),
		slog.Int("pois", len(rec.POIs)))
	span.SetAttributes(
		attribute.StringSlice("zones", rec.Zones),
		attribute.Int("results.count", len(rec.POIs)),
	)
	span.SetStatus(codes.Ok, "Recommendation completed")
	return rec, nil
}

// RecommendAndExport runs Recommend and persists the table. Nothing is
// exported when the run fails.
func (s *ServiceImpl) RecommendAndExport(ctx context.Context, profile string, exporter Exporter) (*types.Recommendation, error) {
	rec, err := s.Recommend(ctx, profile)
	if err != nil {
		return nil, err
	}
	if err := exporter.Export(ctx, rec.POIs); err != nil {
		return nil, fmt.Errorf("failed to export recommendations: %w", err)
	}
	return rec, nil
}

func (s *ServiceImpl) recommend(ctx context.Context, profile string) (*types.Recommendation, error) {
	if strings.TrimSpace(profile) == "" {
		return nil, types.ErrEmptyProfile
	}

	zones, err := s.sampler.Sample(s.opts.ZoneCount)
	if err != nil {
		return nil, fmt.Errorf("failed to sample zones: %w", err)
	}
	s.logger.DebugContext(ctx, "Zones sampled", slog.Any("zones", zones))

	results, err := s.retrieveAll(ctx, profile, zones)
	if err != nil {
		return nil, err
	}

	rows := Aggregate(results, s.classifier)
	return &types.Recommendation{
		Profile: profile,
		Zones:   zones,
		POIs:    s.ranker.Rank(rows),
	}, nil
}

// retrieveAll issues one retrieval per zone. Each call writes its own slot,
// so results stay in sample order whatever the completion order.
func (s *ServiceImpl) retrieveAll(ctx context.Context, profile string, zones []string) ([]types.ZoneResult, error) {
	results := make([]types.ZoneResult, len(zones))
	g, gctx := errgroup.WithContext(ctx)
	if !s.opts.ParallelRetrieval {
		g.SetLimit(1)
	}

	for i, zone := range zones {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			candidates, err := s.retrieveZone(gctx, profile, zone)
			if err != nil {
				if s.opts.SkipFailedZones && !errors.Is(err, context.Canceled) {
					s.logger.WarnContext(gctx, "Skipping zone after retrieval failure",
						slog.String("zone", zone),
						slog.Any("error", err))
					results[i] = types.ZoneResult{Zone: zone}
					return nil
				}
				return err
			}
			results[i] = types.ZoneResult{Zone: zone, Candidates: candidates}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *ServiceImpl) retrieveZone(ctx context.Context, profile, zone string) ([]types.POICandidate, error) {
	ctx, span := otel.Tracer("RecommendService").Start(ctx, "RetrieveZone", trace.WithAttributes(
		attribute.String("zone", zone),
		attribute.Int("limit", s.opts.RetrievalLimit),
	))
	defer span.End()

	zoneAttr := metric.WithAttributes(attribute.String("zone", zone))
	start := time.Now()
	candidates, err := s.retriever.Retrieve(ctx, profile, zone, s.opts.RetrievalLimit)
	if s.metrics != nil {
		s.metrics.RetrievalDurationSeconds.Record(ctx, time.Since(start).Seconds(), zoneAttr)
	}
	if err == nil {
		err = s.validateCandidates(candidates)
	}
	if err != nil {
		if s.metrics != nil {
			s.metrics.RetrievalErrorsTotal.Add(ctx, 1, zoneAttr)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "Retrieval failed")
		return nil, fmt.Errorf("%w: zone %q: %w", types.ErrRetrievalFailed, zone, err)
	}

	if s.metrics != nil {
		s.metrics.RetrievedCandidatesTotal.Add(ctx, int64(len(candidates)), zoneAttr)
	}
	span.SetAttributes(attribute.Int("results.count", len(candidates)))
	span.SetStatus(codes.Ok, "Retrieved")
	return candidates, nil
}

func (s *ServiceImpl) validateCandidates(candidates []types.POICandidate) error {
	for i := range candidates {
		if err := s.validate.Struct(candidates[i]); err != nil {
			return fmt.Errorf("%w: candidate %d (%q): %w", types.ErrInvalidCandidate, i, candidates[i].ID, err)
		}
	}
	return nil
}
