package directions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrNoRoute is returned when the API answers with a status other than OK.
	ErrNoRoute = errors.New("no route found")
	// ErrMissingAPIKey is returned when no Directions API key is configured.
	ErrMissingAPIKey = errors.New("directions api key is not set")
)

const statusOK = "OK"

type Point struct {
	Latitude  float64
	Longitude float64
}

func (p Point) String() string {
	return strconv.FormatFloat(p.Latitude, 'f', -1, 64) + "," + strconv.FormatFloat(p.Longitude, 'f', -1, 64)
}

type TextValue struct {
	Text  string `json:"text"`
	Value int    `json:"value"`
}

type TransitStop struct {
	Name string `json:"name"`
}

type TransitLine struct {
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// Label prefers the short line name.
func (l TransitLine) Label() string {
	if l.ShortName != "" {
		return l.ShortName
	}
	return l.Name
}

type TransitDetails struct {
	Line          TransitLine `json:"line"`
	DepartureStop TransitStop `json:"departure_stop"`
	ArrivalStop   TransitStop `json:"arrival_stop"`
}

type Step struct {
	HTMLInstructions string          `json:"html_instructions"`
	TravelMode       string          `json:"travel_mode"`
	Duration         TextValue       `json:"duration"`
	Distance         TextValue       `json:"distance"`
	TransitDetails   *TransitDetails `json:"transit_details,omitempty"`
}

type Leg struct {
	Duration TextValue `json:"duration"`
	Distance TextValue `json:"distance"`
	Steps    []Step    `json:"steps"`
}

type Route struct {
	Summary string `json:"summary"`
	Legs    []Leg  `json:"legs"`
}

type Response struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Routes       []Route `json:"routes"`
}

type ClientConfig struct {
	BaseURL          string
	APIKey           string
	Mode             string
	Language         string
	Timeout          time.Duration
	FailureThreshold uint32
}

// Client calls the Google Directions API behind a circuit breaker.
type Client struct {
	httpClient *http.Client
	cfg        ClientConfig
	cb         *gobreaker.CircuitBreaker[*Response]
	logger     *slog.Logger
}

func NewClient(cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid directions base url: %w", err)
	}
	if cfg.Mode == "" {
		cfg.Mode = "transit"
	}
	if cfg.Language == "" {
		cfg.Language = "es"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger,
	}
	c.cb = gobreaker.NewCircuitBreaker[*Response](gobreaker.Settings{
		Name:        "google-directions",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		// A route the API cannot find is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoRoute)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state transition",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return c, nil
}

// Directions returns the first leg of the first route between origin and destination.
func (c *Client) Directions(ctx context.Context, origin, destination Point) (*Leg, error) {
	ctx, span := otel.Tracer("DirectionsClient").Start(ctx, "Directions", trace.WithAttributes(
		attribute.String("origin", origin.String()),
		attribute.String("destination", destination.String()),
		attribute.String("mode", c.cfg.Mode),
	))
	defer span.End()

	resp, err := c.cb.Execute(func() (*Response, error) {
		return c.fetch(ctx, origin, destination)
	})
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			span.SetStatus(codes.Error, "Circuit breaker rejected request")
			return nil, fmt.Errorf("directions api unavailable: %w", err)
		}
		span.SetStatus(codes.Error, "Directions request failed")
		return nil, err
	}

	if len(resp.Routes) == 0 || len(resp.Routes[0].Legs) == 0 {
		err = fmt.Errorf("%w: response has no legs", ErrNoRoute)
		span.RecordError(err)
		span.SetStatus(codes.Error, "Empty route")
		return nil, err
	}
	leg := resp.Routes[0].Legs[0]
	span.SetAttributes(attribute.Int("steps", len(leg.Steps)))
	span.SetStatus(codes.Ok, "Route found")
	return &leg, nil
}

func (c *Client) fetch(ctx context.Context, origin, destination Point) (*Response, error) {
	query := url.Values{}
	query.Set("origin", origin.String())
	query.Set("destination", destination.String())
	query.Set("mode", c.cfg.Mode)
	query.Set("language", c.cfg.Language)
	query.Set("key", c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build directions request: %w", err)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("directions request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, fmt.Errorf("directions api returned %d: %s", res.StatusCode, body)
	}

	var out Response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode directions response: %w", err)
	}
	if out.Status != statusOK {
		c.logger.DebugContext(ctx, "Directions API returned no route",
			slog.String("status", out.Status), slog.String("message", out.ErrorMessage))
		return nil, fmt.Errorf("%w: status %s", ErrNoRoute, out.Status)
	}
	return &out, nil
}

// State exposes the breaker state for health reporting.
func (c *Client) State() gobreaker.State {
	return c.cb.State()
}
