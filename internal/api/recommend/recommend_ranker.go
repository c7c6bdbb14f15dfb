package recommend

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

// DefaultPerZoneLimit is the number of POIs kept per zone.
const DefaultPerZoneLimit = 3

// RankOrder compares two rows the way slices.SortStableFunc expects.
type RankOrder func(a, b types.RankedPOI) int

// ReferenceOrder sorts by zone name, retrieval distance and Bayesian rating,
// all descending. With a cosine distance this puts the least similar hit of
// each zone first; RelevanceFirstOrder is the alternative.
func ReferenceOrder(a, b types.RankedPOI) int {
	if c := cmp.Compare(b.Zone, a.Zone); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Distance, a.Distance); c != 0 {
		return c
	}
	return cmp.Compare(b.BayesianRating, a.BayesianRating)
}

// RelevanceFirstOrder sorts by zone name descending, then distance ascending
// (closest match first), then Bayesian rating descending.
func RelevanceFirstOrder(a, b types.RankedPOI) int {
	if c := cmp.Compare(b.Zone, a.Zone); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
		return c
	}
	return cmp.Compare(b.BayesianRating, a.BayesianRating)
}

// RankOrderByName resolves the configured order name.
func RankOrderByName(name string) (RankOrder, error) {
	switch name {
	case "", "reference":
		return ReferenceOrder, nil
	case "relevance":
		return RelevanceFirstOrder, nil
	default:
		return nil, fmt.Errorf("%w: unknown rank order %q", types.ErrInvalidConfiguration, name)
	}
}

// Ranker orders rows, keeps one row per (zone, category) and caps each zone.
type Ranker struct {
	order        RankOrder
	perZoneLimit int
}

func NewRanker(order RankOrder, perZoneLimit int) *Ranker {
	if order == nil {
		order = ReferenceOrder
	}
	if perZoneLimit <= 0 {
		perZoneLimit = DefaultPerZoneLimit
	}
	return &Ranker{order: order, perZoneLimit: perZoneLimit}
}

// Rank returns a new slice; rows is left untouched. The sort is stable so
// rows that compare equal keep their aggregation order.
func (r *Ranker) Rank(rows []types.RankedPOI) []types.RankedPOI {
	sorted := slices.Clone(rows)
	slices.SortStableFunc(sorted, r.order)
	return truncatePerZone(dedupByZoneCategory(sorted), r.perZoneLimit)
}

type zoneCategory struct {
	zone     string
	category types.Category
}

// Unclassified rows share one bucket per zone.
func dedupByZoneCategory(rows []types.RankedPOI) []types.RankedPOI {
	seen := make(map[zoneCategory]struct{}, len(rows))
	out := make([]types.RankedPOI, 0, len(rows))
	for _, row := range rows {
		key := zoneCategory{zone: row.Zone, category: row.FinalCategory}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, row)
	}
	return out
}

func truncatePerZone(rows []types.RankedPOI, limit int) []types.RankedPOI {
	counts := make(map[string]int)
	out := make([]types.RankedPOI, 0, len(rows))
	for _, row := range rows {
		if counts[row.Zone] >= limit {
			continue
		}
		counts[row.Zone]++
		out = append(out, row)
	}
	return out
}
