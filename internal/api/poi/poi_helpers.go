package poi

import (
	"strings"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

// candidateFromMetadata builds the candidate shape used to validate a POI
// before it is indexed.
func candidateFromMetadata(id, document string, m types.POIMetadata) types.POICandidate {
	return types.POICandidate{
		ID:             id,
		Document:       strings.TrimSpace(document),
		Zone:           m.Zone,
		Categories:     m.Categories,
		Address:        m.Address,
		Latitude:       m.Latitude,
		Longitude:      m.Longitude,
		Name:           m.Name,
		PriceTier:      m.PriceTier,
		BayesianRating: m.BayesianRating,
	}
}

func chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		out = append(out, items[start:min(start+size, len(items))])
	}
	return out
}
