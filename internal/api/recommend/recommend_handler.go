package recommend

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-vibes-recommender/internal/api"
	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

// Recommend godoc
// @Summary      Recommend POIs for a profile
// @Description  Samples zones, retrieves POIs similar to the profile in each one and returns at most three per zone with distinct categories.
// @Tags         Recommendations
// @Accept       json
// @Produce      json
// @Param        request body types.RecommendationRequest true "Tourist profile"
// @Success      200 {object} types.Recommendation "Recommendation"
// @Failure      400 {object} types.Response "Invalid Input"
// @Failure      502 {object} types.Response "Retrieval Failed"
// @Failure      500 {object} types.Response "Internal Server Error"
// @Router       /recommendations [post]
func (h *HandlerImpl) Recommend(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("RecommendHandler").Start(r.Context(), "Recommend", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/recommendations"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Recommend"))
	l.DebugContext(ctx, "Recommend handler invoked")

	var req types.RecommendationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Profile) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "profile is required")
		return
	}

	rec, err := h.service.Recommend(ctx, req.Profile)
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, types.ErrEmptyProfile):
			api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		case errors.Is(err, types.ErrRetrievalFailed):
			api.ErrorResponse(w, r, http.StatusBadGateway, err.Error())
		case errors.Is(err, types.ErrInvalidConfiguration):
			api.ErrorResponse(w, r, http.StatusInternalServerError, err.Error())
		default:
			api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to build recommendation")
		}
		return
	}

	l.InfoContext(ctx, "Recommendation served", slog.Int("pois", len(rec.POIs)))
	api.WriteJSONResponse(w, r, http.StatusOK, rec)
}

// GetZones godoc
// @Summary      List zones
// @Description  Returns the zone table with sampling weights.
// @Tags         Recommendations
// @Produce      json
// @Success      200 {array} types.Zone "Zones"
// @Router       /zones [get]
func (h *HandlerImpl) GetZones(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, h.service.Zones())
}
