package types

// Zone is a comuna with its relative sampling weight.
type Zone struct {
	Name   string  `json:"name" mapstructure:"name" validate:"required"`
	Weight float64 `json:"weight" mapstructure:"weight" validate:"gte=0"`
}

// Category is one canonical POI category used for diversity dedup.
type Category string

// CategoryUnclassified marks a POI whose raw categories matched no canonical one.
const CategoryUnclassified Category = ""

// DefaultCategories is the canonical vocabulary in match priority order.
var DefaultCategories = []Category{
	"restaurante",
	"parque",
	"bar",
	"discoteca",
	"cine",
	"teatro",
	"jardin",
	"museo",
	"centro comercial",
}

// ZoneResult holds the raw retrieval output for one sampled zone.
type ZoneResult struct {
	Zone       string
	Candidates []POICandidate
}

// RecommendationRequest is the body of POST /api/v1/recommendations.
type RecommendationRequest struct {
	Profile string `json:"profile" validate:"required" example:"Soy un turista que viaja con amigos. Disfruto visitando museos."`
}

// Recommendation is the outcome of one engine run.
type Recommendation struct {
	Profile string      `json:"profile"`
	Zones   []string    `json:"zones"`
	POIs    []RankedPOI `json:"pois"`
}

// Response is the error envelope written by api.ErrorResponse.
type Response struct {
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}
