package poi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-vibes-recommender/internal/api"
)

const maxSearchLimit = 50

type POIHandler struct {
	poiService Service
	logger     *slog.Logger
}

func NewPOIHandler(poiService Service, logger *slog.Logger) *POIHandler {
	return &POIHandler{
		poiService: poiService,
		logger:     logger,
	}
}

// IndexStats is the body of GET /api/v1/pois/stats.
type IndexStats struct {
	Total int            `json:"total"`
	Zones map[string]int `json:"zones"`
}

// SearchPOIs godoc
// @Summary      Search POIs in a zone
// @Description  Runs a single similarity search against the POI index.
// @Tags         POIs
// @Produce      json
// @Param        q     query string true  "Free-text query"
// @Param        zone  query string true  "Zone (comuna) name"
// @Param        limit query int    false "Maximum results (default 10)"
// @Success      200 {array}  types.POICandidate "Candidates"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /pois/search [get]
func (h *POIHandler) SearchPOIs(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("POIHandler").Start(r.Context(), "SearchPOIs", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/pois/search"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "SearchPOIs"))

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	zone := strings.TrimSpace(r.URL.Query().Get("zone"))
	if q == "" || zone == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "q and zone are required")
		return
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 || n > maxSearchLimit {
			api.ErrorResponse(w, r, http.StatusBadRequest, "limit must be between 1 and 50")
			return
		}
		limit = n
	}

	pois, err := h.poiService.Retrieve(ctx, q, zone, limit)
	if err != nil {
		l.ErrorContext(ctx, "Failed to search POIs", slog.Any("error", err))
		span.RecordError(err)
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to search POIs")
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, pois)
}

// GetStats godoc
// @Summary      POI index statistics
// @Tags         POIs
// @Produce      json
// @Success      200 {object} poi.IndexStats "Counts"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /pois/stats [get]
func (h *POIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	zones, err := h.poiService.CountByZone(ctx)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to count POIs")
		return
	}
	total := 0
	for _, n := range zones {
		total += n
	}
	api.WriteJSONResponse(w, r, http.StatusOK, IndexStats{Total: total, Zones: zones})
}
