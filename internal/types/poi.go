package types

// PriceTier is the ordinal price symbol attached to a POI.
type PriceTier string

const (
	PriceTierLow      PriceTier = "$"
	PriceTierMedium   PriceTier = "$$"
	PriceTierHigh     PriceTier = "$$$"
	PriceTierVeryHigh PriceTier = "$$$$"
)

// POIMetadata is the attribute bundle stored next to each indexed POI document.
// JSON keys follow the augmented POI dataset.
type POIMetadata struct {
	Address        string    `json:"address"`
	Categories     string    `json:"categories"`
	Zone           string    `json:"comuna"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Name           string    `json:"name"`
	PriceTier      PriceTier `json:"precio"`
	BayesianRating float64   `json:"rating bayesian"`
}

// AugmentedPOI is one entry of the augmented POI dataset: an LLM written
// description plus the source metadata.
type AugmentedPOI struct {
	Description string      `json:"description"`
	Data        POIMetadata `json:"data"`
}

// POICandidate is a single similarity-search hit for a zone.
type POICandidate struct {
	ID             string    `json:"id" validate:"required"`
	Document       string    `json:"document" validate:"required"`
	Distance       float64   `json:"distance"`
	Zone           string    `json:"zone"`
	Categories     string    `json:"categories" validate:"required"`
	Address        string    `json:"address"`
	Latitude       float64   `json:"latitude" validate:"latitude"`
	Longitude      float64   `json:"longitude" validate:"longitude"`
	Name           string    `json:"name" validate:"required"`
	PriceTier      PriceTier `json:"price_tier" validate:"oneof=$ $$ $$$ $$$$"`
	BayesianRating float64   `json:"bayesian_rating" validate:"gte=0,lte=5"`
}

// RankedPOI is a candidate that went through classification and ranking.
type RankedPOI struct {
	POICandidate
	FinalCategory Category `json:"final_category"`
	// RetrievalRank is the position of the row in its zone's retrieval result.
	RetrievalRank int `json:"retrieval_rank"`
}
