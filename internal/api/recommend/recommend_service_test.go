package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-vibes-recommender/app/observability/metrics"
	"github.com/FACorreiaa/go-vibes-recommender/config"
	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

const testProfile = "Soy un turista que viaja con amigos. Disfruto visitando museos."

// MockRetriever is a mock implementation of Retriever
type MockRetriever struct {
	mock.Mock
}

func (m *MockRetriever) Retrieve(ctx context.Context, queryText, zone string, limit int) ([]types.POICandidate, error) {
	args := m.Called(ctx, queryText, zone, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.POICandidate), args.Error(1)
}

func candidate(id, zone, categories string, distance, rating float64) types.POICandidate {
	return types.POICandidate{
		ID:             id,
		Document:       "Descripción de " + id,
		Distance:       distance,
		Zone:           zone,
		Categories:     categories,
		Address:        "Calle 10 #43-12",
		Latitude:       6.25,
		Longitude:      -75.57,
		Name:           "Lugar " + id,
		PriceTier:      types.PriceTierMedium,
		BayesianRating: rating,
	}
}

func abcZones() []types.Zone {
	return []types.Zone{
		{Name: "A", Weight: 0.5},
		{Name: "B", Weight: 0.3},
		{Name: "C", Weight: 0.2},
	}
}

func setupRecommendServiceTest(t *testing.T, opts Options) (*ServiceImpl, *MockRetriever) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	retriever := new(MockRetriever)
	sampler, err := NewZoneSampler(abcZones(), seeded(11), DefaultMaxAttemptsFactor)
	require.NoError(t, err)

	service := NewServiceImpl(
		retriever,
		abcZones(),
		sampler,
		NewCategoryClassifier(nil),
		NewRanker(ReferenceOrder, DefaultPerZoneLimit),
		opts,
		metrics.InitAppMetrics(),
		logger,
	)
	return service, retriever
}

func defaultOptions() Options {
	return Options{ZoneCount: 3, RetrievalLimit: 10, ParallelRetrieval: true}
}

func TestRecommendServiceImpl_Recommend(t *testing.T) {
	ctx := context.Background()

	t.Run("success - every zone queried once with limit 10", func(t *testing.T) {
		service, retriever := setupRecommendServiceTest(t, defaultOptions())
		retriever.On("Retrieve", mock.Anything, testProfile, "A", 10).Return([]types.POICandidate{
			candidate("a1", "A", "Museo", 0.2, 4.5),
			candidate("a2", "A", "Museo de Arte", 0.3, 4.1),
			candidate("a3", "A", "Museo", 0.4, 3.9),
			candidate("a4", "A", "Bar", 0.25, 4.0),
			candidate("a5", "A", "Bar, Discoteca", 0.35, 4.2),
		}, nil).Once()
		retriever.On("Retrieve", mock.Anything, testProfile, "B", 10).Return([]types.POICandidate{
			candidate("b1", "El Poblado", "Restaurante", 0.1, 4.8),
			candidate("b2", "B", "Parque", 0.2, 4.0),
			candidate("b3", "B", "Cine", 0.3, 3.5),
			candidate("b4", "B", "Teatro", 0.4, 4.4),
		}, nil).Once()
		retriever.On("Retrieve", mock.Anything, testProfile, "C", 10).Return([]types.POICandidate{}, nil).Once()

		rec, err := service.Recommend(ctx, testProfile)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"A", "B", "C"}, rec.Zones)
		assert.Equal(t, testProfile, rec.Profile)

		perZone := make(map[string][]string)
		for _, p := range rec.POIs {
			perZone[p.Zone] = append(perZone[p.Zone], p.ID)
		}
		assert.Equal(t, []string{"a3", "a5"}, perZone["A"], "5 candidates over 2 categories give 2 rows")
		assert.Equal(t, []string{"b4", "b3", "b2"}, perZone["B"])
		assert.Empty(t, perZone["C"])
		assert.Empty(t, perZone["El Poblado"], "metadata zone never overrides the retrieval zone")
		assertRankInvariants(t, rec.POIs, DefaultPerZoneLimit)
		retriever.AssertExpectations(t)
	})

	t.Run("retrieval failure aborts the run", func(t *testing.T) {
		service, retriever := setupRecommendServiceTest(t, defaultOptions())
		retriever.On("Retrieve", mock.Anything, testProfile, "A", 10).Return([]types.POICandidate{}, nil).Maybe()
		retriever.On("Retrieve", mock.Anything, testProfile, "B", 10).Return(nil, errors.New("index unavailable")).Once()
		retriever.On("Retrieve", mock.Anything, testProfile, "C", 10).Return([]types.POICandidate{}, nil).Maybe()

		rec, err := service.Recommend(ctx, testProfile)
		require.Error(t, err)
		assert.Nil(t, rec)
		assert.True(t, errors.Is(err, types.ErrRetrievalFailed))
		assert.Contains(t, err.Error(), `zone "B"`)
		assert.Contains(t, err.Error(), "index unavailable")
	})

	t.Run("invalid candidate is a retrieval failure", func(t *testing.T) {
		service, retriever := setupRecommendServiceTest(t, Options{ZoneCount: 3, RetrievalLimit: 10})
		bad := candidate("a1", "A", "Museo", 0.2, 4.5)
		bad.Name = ""
		retriever.On("Retrieve", mock.Anything, testProfile, mock.Anything, 10).Return([]types.POICandidate{bad}, nil)

		_, err := service.Recommend(ctx, testProfile)
		require.Error(t, err)
		assert.True(t, errors.Is(err, types.ErrRetrievalFailed))
		assert.True(t, errors.Is(err, types.ErrInvalidCandidate))
	})

	t.Run("failed zones are skipped when configured", func(t *testing.T) {
		opts := defaultOptions()
		opts.SkipFailedZones = true
		service, retriever := setupRecommendServiceTest(t, opts)
		retriever.On("Retrieve", mock.Anything, testProfile, "A", 10).Return([]types.POICandidate{
			candidate("a1", "A", "Museo", 0.2, 4.5),
		}, nil).Once()
		retriever.On("Retrieve", mock.Anything, testProfile, "B", 10).Return(nil, errors.New("timeout")).Once()
		retriever.On("Retrieve", mock.Anything, testProfile, "C", 10).Return([]types.POICandidate{
			candidate("c1", "C", "Parque", 0.2, 4.5),
		}, nil).Once()

		rec, err := service.Recommend(ctx, testProfile)
		require.NoError(t, err)
		assert.Equal(t, []string{"c1", "a1"}, ids(rec.POIs))
	})

	t.Run("sequential retrieval follows sample order", func(t *testing.T) {
		service, retriever := setupRecommendServiceTest(t, Options{ZoneCount: 3, RetrievalLimit: 10})
		var order []string
		retriever.On("Retrieve", mock.Anything, testProfile, mock.Anything, 10).
			Run(func(args mock.Arguments) { order = append(order, args.String(2)) }).
			Return([]types.POICandidate{}, nil)

		rec, err := service.Recommend(ctx, testProfile)
		require.NoError(t, err)
		assert.Equal(t, rec.Zones, order)
		assert.Empty(t, rec.POIs)
	})

	t.Run("blank profile", func(t *testing.T) {
		service, retriever := setupRecommendServiceTest(t, defaultOptions())
		_, err := service.Recommend(ctx, "   ")
		assert.True(t, errors.Is(err, types.ErrEmptyProfile))
		retriever.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("zone count above the table fails before retrieval", func(t *testing.T) {
		service, retriever := setupRecommendServiceTest(t, Options{ZoneCount: 4, RetrievalLimit: 10})
		_, err := service.Recommend(ctx, testProfile)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
		retriever.AssertNotCalled(t, "Retrieve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRecommendServiceImpl_RecommendAndExport(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	t.Run("writes the ranked table", func(t *testing.T) {
		service, retriever := setupRecommendServiceTest(t, defaultOptions())
		retriever.On("Retrieve", mock.Anything, testProfile, mock.Anything, 10).Return([]types.POICandidate{
			candidate("x1", "", "Restaurante de Comida Rápida, Hamburguesería", 0.2, 4.5),
			candidate("x2", "", "Bar", 0.3, 4.0),
		}, nil)

		path := filepath.Join(t.TempDir(), "top3_places.csv")
		rec, err := service.RecommendAndExport(ctx, testProfile, NewCSVExporter(path, logger))
		require.NoError(t, err)
		require.Len(t, rec.POIs, 6)

		rows, err := ReadCSVFile(path)
		require.NoError(t, err)
		assert.Len(t, rows, 6)
		for _, r := range rows {
			assert.Contains(t, []types.Category{"restaurante", "bar"}, r.FinalCategory)
		}
	})

	t.Run("nothing is written on failure", func(t *testing.T) {
		service, retriever := setupRecommendServiceTest(t, Options{ZoneCount: 3, RetrievalLimit: 10})
		retriever.On("Retrieve", mock.Anything, testProfile, mock.Anything, 10).Return(nil, errors.New("boom"))

		path := filepath.Join(t.TempDir(), "top3_places.csv")
		_, err := service.RecommendAndExport(ctx, testProfile, NewCSVExporter(path, logger))
		require.Error(t, err)
		_, statErr := os.Stat(path)
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestNewServiceFromConfig(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	cfg := config.RecommendConfig{
		ZoneCount:         3,
		RetrievalLimit:    10,
		PerZoneLimit:      3,
		MaxAttemptsFactor: 100,
		Seed:              5,
		RankOrder:         "reference",
	}

	t.Run("builds from the zone table", func(t *testing.T) {
		service, err := NewServiceFromConfig(cfg, medellinZones(), new(MockRetriever), nil, logger)
		require.NoError(t, err)
		assert.Len(t, service.Zones(), 16)
	})

	t.Run("rejects more zones than the table holds", func(t *testing.T) {
		c := cfg
		c.ZoneCount = 4
		_, err := NewServiceFromConfig(c, abcZones(), new(MockRetriever), nil, logger)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
	})

	t.Run("rejects unknown rank order", func(t *testing.T) {
		c := cfg
		c.RankOrder = "alphabetical"
		_, err := NewServiceFromConfig(c, abcZones(), new(MockRetriever), nil, logger)
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
	})
}

func BenchmarkRecommend(b *testing.B) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	retriever := new(MockRetriever)
	var pois []types.POICandidate
	for i := 0; i < 10; i++ {
		pois = append(pois, candidate(fmt.Sprintf("p%d", i), "", string(types.DefaultCategories[i%len(types.DefaultCategories)]), float64(i)/10, 4))
	}
	retriever.On("Retrieve", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(pois, nil)

	service, err := NewServiceFromConfig(config.RecommendConfig{
		ZoneCount: 3, RetrievalLimit: 10, PerZoneLimit: 3, MaxAttemptsFactor: 100, Seed: 1, ParallelRetrieval: true,
	}, medellinZones(), retriever, nil, logger)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := service.Recommend(context.Background(), testProfile); err != nil {
			b.Fatal(err)
		}
	}
}
