package recommend

import (
	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

// Aggregate flattens per-zone retrieval results into one list in sample order,
// keeping each zone's retrieval order. The zone recorded on every row is the
// zone it was retrieved for, whatever the stored metadata says.
func Aggregate(results []types.ZoneResult, classifier *CategoryClassifier) []types.RankedPOI {
	total := 0
	for _, r := range results {
		total += len(r.Candidates)
	}

	rows := make([]types.RankedPOI, 0, total)
	for _, r := range results {
		for i, c := range r.Candidates {
			c.Zone = r.Zone
			rows = append(rows, types.RankedPOI{
				POICandidate:  c,
				FinalCategory: classifier.Classify(c.Categories),
				RetrievalRank: i,
			})
		}
	}
	return rows
}
