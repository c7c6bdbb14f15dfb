package directions

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

const okBody = `{
  "status": "OK",
  "routes": [{
    "summary": "Metro Línea A",
    "legs": [{
      "duration": {"text": "25 min", "value": 1500},
      "distance": {"text": "8,1 km", "value": 8100},
      "steps": [
        {"html_instructions": "Camina hasta Estación Poblado", "travel_mode": "WALKING"},
        {"html_instructions": "Metro hacia Niquía", "travel_mode": "TRANSIT",
         "transit_details": {
           "line": {"name": "Línea A", "short_name": "A"},
           "departure_stop": {"name": "Poblado"},
           "arrival_stop": {"name": "Parque Berrío"}
         }},
        {"html_instructions": "Bus hacia Belén", "travel_mode": "TRANSIT",
         "transit_details": {
           "line": {"name": "Circular Sur"},
           "departure_stop": {"name": "San Antonio"},
           "arrival_stop": {"name": "Belén Parque"}
         }}
      ]
    }]
  }]
}`

var (
	poblado  = Point{Latitude: 6.2087, Longitude: -75.5671}
	berrio   = Point{Latitude: 6.2500, Longitude: -75.5686}
	testLogs = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
)

// MockRouter is a mock implementation of Router
type MockRouter struct {
	mock.Mock
}

func (m *MockRouter) Directions(ctx context.Context, origin, destination Point) (*Leg, error) {
	args := m.Called(ctx, origin, destination)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Leg), args.Error(1)
}

func setupClientTest(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{
		BaseURL:          server.URL,
		APIKey:           "test-key",
		FailureThreshold: 2,
	}, testLogs)
	require.NoError(t, err)
	return client
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "http://localhost"}, testLogs)
	assert.True(t, errors.Is(err, ErrMissingAPIKey))
}

func TestClient_Directions(t *testing.T) {
	ctx := context.Background()

	t.Run("sends the query and decodes the first leg", func(t *testing.T) {
		client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			assert.Equal(t, "6.2087,-75.5671", q.Get("origin"))
			assert.Equal(t, "6.25,-75.5686", q.Get("destination"))
			assert.Equal(t, "transit", q.Get("mode"))
			assert.Equal(t, "es", q.Get("language"))
			assert.Equal(t, "test-key", q.Get("key"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(okBody))
		})

		leg, err := client.Directions(ctx, poblado, berrio)
		require.NoError(t, err)
		assert.Equal(t, "25 min", leg.Duration.Text)
		assert.Equal(t, 8100, leg.Distance.Value)
		require.Len(t, leg.Steps, 3)
		assert.Nil(t, leg.Steps[0].TransitDetails)
		require.NotNil(t, leg.Steps[1].TransitDetails)
		assert.Equal(t, "A", leg.Steps[1].TransitDetails.Line.Label())
		assert.Equal(t, "Circular Sur", leg.Steps[2].TransitDetails.Line.Label())
	})

	t.Run("non OK status is a missing route and keeps the breaker closed", func(t *testing.T) {
		client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "routes": []}`))
		})

		for i := 0; i < 3; i++ {
			_, err := client.Directions(ctx, poblado, berrio)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrNoRoute))
		}
		assert.Equal(t, gobreaker.StateClosed, client.State())
	})

	t.Run("server errors open the breaker", func(t *testing.T) {
		var calls atomic.Int32
		client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			http.Error(w, "backend down", http.StatusInternalServerError)
		})

		for i := 0; i < 2; i++ {
			_, err := client.Directions(ctx, poblado, berrio)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "500")
		}
		assert.Equal(t, gobreaker.StateOpen, client.State())

		_, err := client.Directions(ctx, poblado, berrio)
		require.Error(t, err)
		assert.True(t, errors.Is(err, gobreaker.ErrOpenState))
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("malformed body", func(t *testing.T) {
		client := setupClientTest(t, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"status": `))
		})

		_, err := client.Directions(ctx, poblado, berrio)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode")
	})
}

func TestPlanner_PlanRoute(t *testing.T) {
	ctx := context.Background()
	stops := []Stop{
		{Name: "Parque Lleras", Point: poblado},
		{Name: "Museo de Antioquia", Point: berrio},
		{Name: "Pueblito Paisa", Point: Point{Latitude: 6.2355, Longitude: -75.5806}},
	}

	t.Run("one segment per consecutive pair", func(t *testing.T) {
		router := new(MockRouter)
		leg := &Leg{Duration: TextValue{Text: "25 min"}}
		router.On("Directions", mock.Anything, stops[0].Point, stops[1].Point).Return(leg, nil).Once()
		router.On("Directions", mock.Anything, stops[1].Point, stops[2].Point).Return(nil, ErrNoRoute).Once()

		segments, err := NewPlanner(router, testLogs).PlanRoute(ctx, stops)
		require.NoError(t, err)
		require.Len(t, segments, 2)
		assert.Same(t, leg, segments[0].Leg)
		assert.Equal(t, "Museo de Antioquia", segments[0].To.Name)
		assert.Nil(t, segments[1].Leg)
		assert.True(t, errors.Is(segments[1].Err, ErrNoRoute))
		assert.Greater(t, segments[1].StraightKm, 0.0)
		router.AssertExpectations(t)
	})

	t.Run("transport failure aborts", func(t *testing.T) {
		router := new(MockRouter)
		router.On("Directions", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()

		_, err := NewPlanner(router, testLogs).PlanRoute(ctx, stops)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"Parque Lleras" -> "Museo de Antioquia"`)
		router.AssertNumberOfCalls(t, "Directions", 1)
	})

	t.Run("needs two stops", func(t *testing.T) {
		_, err := NewPlanner(new(MockRouter), testLogs).PlanRoute(ctx, stops[:1])
		assert.True(t, errors.Is(err, types.ErrInvalidConfiguration))
	})
}

func TestStopsFromRanked(t *testing.T) {
	rows := []types.RankedPOI{
		{POICandidate: types.POICandidate{Name: "A", Latitude: 1, Longitude: 2}},
		{POICandidate: types.POICandidate{Name: "B", Latitude: 3, Longitude: 4}},
		{POICandidate: types.POICandidate{Name: "C", Latitude: 5, Longitude: 6}},
		{POICandidate: types.POICandidate{Name: "D", Latitude: 7, Longitude: 8}},
	}

	stops := StopsFromRanked(rows, 3)
	require.Len(t, stops, 3)
	assert.Equal(t, Stop{Name: "B", Point: Point{Latitude: 3, Longitude: 4}}, stops[1])
	assert.Len(t, StopsFromRanked(rows, 0), 4)
}

func TestHaversine(t *testing.T) {
	assert.InDelta(t, 0.0, Haversine(poblado, poblado), 1e-9)
	assert.InDelta(t, 4.6, Haversine(poblado, berrio), 0.05)
	assert.InDelta(t, Haversine(poblado, berrio), Haversine(berrio, poblado), 1e-9)
}

func TestPrintRoute(t *testing.T) {
	var buf bytes.Buffer
	PrintRoute(&buf, []Segment{
		{
			From: Stop{Name: "Parque Lleras"},
			To:   Stop{Name: "Museo de Antioquia"},
			Leg: &Leg{
				Duration: TextValue{Text: "25 min"},
				Distance: TextValue{Text: "8,1 km"},
				Steps: []Step{{
					HTMLInstructions: "Metro hacia Niquía",
					TransitDetails: &TransitDetails{
						Line:          TransitLine{Name: "Línea A", ShortName: "A"},
						DepartureStop: TransitStop{Name: "Poblado"},
						ArrivalStop:   TransitStop{Name: "Parque Berrío"},
					},
				}},
			},
		},
		{From: Stop{Name: "Museo de Antioquia"}, To: Stop{Name: "Pueblito Paisa"}, StraightKm: 2.1, Err: ErrNoRoute},
	})

	out := buf.String()
	assert.Contains(t, out, "Desde : Parque Lleras")
	assert.Contains(t, out, "25 min")
	assert.Contains(t, out, "8,1 km")
	assert.Contains(t, out, "Línea: A")
	assert.Contains(t, out, "Desde: Poblado")
	assert.Contains(t, out, "Hasta: Parque Berrío")
	assert.Contains(t, out, "Sin ruta disponible (2.10 km")
}
