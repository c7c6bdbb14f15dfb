package recommend

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

func rankedRow(id, zone string, category types.Category, distance, rating float64) types.RankedPOI {
	return types.RankedPOI{
		POICandidate: types.POICandidate{
			ID:             id,
			Zone:           zone,
			Distance:       distance,
			BayesianRating: rating,
			Categories:     string(category),
		},
		FinalCategory: category,
	}
}

func ids(rows []types.RankedPOI) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.ID
	}
	return out
}

func assertRankInvariants(t *testing.T, rows []types.RankedPOI, perZone int) {
	t.Helper()
	seen := make(map[string]bool)
	counts := make(map[string]int)
	for _, r := range rows {
		key := r.Zone + "|" + string(r.FinalCategory)
		assert.False(t, seen[key], "duplicate (zone, category) %s", key)
		seen[key] = true
		counts[r.Zone]++
	}
	for zone, n := range counts {
		assert.LessOrEqual(t, n, perZone, "zone %s has %d rows", zone, n)
	}
}

func TestRanker_Rank(t *testing.T) {
	ranker := NewRanker(ReferenceOrder, DefaultPerZoneLimit)

	t.Run("one row per category in a zone", func(t *testing.T) {
		rows := []types.RankedPOI{
			rankedRow("m1", "A", "museo", 0.30, 4.1),
			rankedRow("m2", "A", "museo", 0.50, 4.0),
			rankedRow("m3", "A", "museo", 0.40, 4.9),
			rankedRow("b1", "A", "bar", 0.20, 3.0),
			rankedRow("b2", "A", "bar", 0.60, 3.5),
		}

		got := ranker.Rank(rows)
		require.Len(t, got, 2)
		// descending distance puts the highest distance of each category first
		assert.Equal(t, []string{"b2", "m2"}, ids(got))
		assertRankInvariants(t, got, DefaultPerZoneLimit)
	})

	t.Run("at most three rows per zone", func(t *testing.T) {
		var rows []types.RankedPOI
		for i, cat := range types.DefaultCategories {
			rows = append(rows, rankedRow(fmt.Sprintf("z%d", i), "Z", cat, float64(i)/10, 4))
		}
		got := ranker.Rank(rows)
		require.Len(t, got, 3)
		assertRankInvariants(t, got, DefaultPerZoneLimit)
	})

	t.Run("zones sort descending by name", func(t *testing.T) {
		rows := []types.RankedPOI{
			rankedRow("a", "Aranjuez", "bar", 0.1, 4),
			rankedRow("c", "Castilla", "bar", 0.1, 4),
			rankedRow("b", "Belén", "bar", 0.1, 4),
		}
		assert.Equal(t, []string{"c", "b", "a"}, ids(ranker.Rank(rows)))
	})

	t.Run("rating breaks distance ties", func(t *testing.T) {
		rows := []types.RankedPOI{
			rankedRow("low", "A", "cine", 0.2, 3.0),
			rankedRow("high", "A", "cine", 0.2, 4.5),
		}
		assert.Equal(t, []string{"high"}, ids(ranker.Rank(rows)))
	})

	t.Run("full ties keep aggregation order", func(t *testing.T) {
		rows := []types.RankedPOI{
			rankedRow("first", "A", "parque", 0.2, 4),
			rankedRow("second", "A", "parque", 0.2, 4),
		}
		assert.Equal(t, []string{"first"}, ids(ranker.Rank(rows)))
	})

	t.Run("unclassified rows share one bucket", func(t *testing.T) {
		rows := []types.RankedPOI{
			rankedRow("u1", "A", types.CategoryUnclassified, 0.3, 4),
			rankedRow("u2", "A", types.CategoryUnclassified, 0.2, 4),
			rankedRow("r1", "A", "restaurante", 0.1, 4),
		}
		assert.Equal(t, []string{"u1", "r1"}, ids(ranker.Rank(rows)))
	})

	t.Run("input is not mutated", func(t *testing.T) {
		rows := []types.RankedPOI{
			rankedRow("x", "A", "bar", 0.1, 4),
			rankedRow("y", "B", "bar", 0.1, 4),
		}
		_ = ranker.Rank(rows)
		assert.Equal(t, []string{"x", "y"}, ids(rows))
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, ranker.Rank(nil))
	})
}

func TestRanker_RelevanceFirstOrder(t *testing.T) {
	ranker := NewRanker(RelevanceFirstOrder, DefaultPerZoneLimit)
	rows := []types.RankedPOI{
		rankedRow("far", "A", "museo", 0.9, 5),
		rankedRow("near", "A", "museo", 0.1, 3),
	}
	assert.Equal(t, []string{"near"}, ids(ranker.Rank(rows)))
}

func TestRankOrderByName(t *testing.T) {
	order, err := RankOrderByName("reference")
	require.NoError(t, err)
	assert.NotNil(t, order)

	order, err = RankOrderByName("relevance")
	require.NoError(t, err)
	assert.NotNil(t, order)

	_, err = RankOrderByName("random")
	assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
}
