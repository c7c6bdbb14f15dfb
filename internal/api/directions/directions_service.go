package directions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/fatih/color"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

type Router interface {
	Directions(ctx context.Context, origin, destination Point) (*Leg, error)
}

var _ Router = (*Client)(nil)

type Stop struct {
	Name string
	Point
}

// Segment is the trip between two consecutive stops. Leg is nil when the API
// found no route, in which case Err says why.
type Segment struct {
	From, To   Stop
	StraightKm float64
	Leg        *Leg
	Err        error
}

// StopsFromRanked takes the first max rows of a ranked list as route stops.
func StopsFromRanked(rows []types.RankedPOI, max int) []Stop {
	if max > 0 && len(rows) > max {
		rows = rows[:max]
	}
	stops := make([]Stop, 0, len(rows))
	for _, row := range rows {
		stops = append(stops, Stop{
			Name:  row.Name,
			Point: Point{Latitude: row.Latitude, Longitude: row.Longitude},
		})
	}
	return stops
}

type Planner struct {
	router Router
	logger *slog.Logger
}

func NewPlanner(router Router, logger *slog.Logger) *Planner {
	return &Planner{router: router, logger: logger}
}

// PlanRoute asks for directions between each pair of consecutive stops.
// Missing routes are kept as segments with Err set; any other failure aborts.
func (p *Planner) PlanRoute(ctx context.Context, stops []Stop) ([]Segment, error) {
	if len(stops) < 2 {
		return nil, fmt.Errorf("%w: a route needs at least two stops, got %d", types.ErrInvalidConfiguration, len(stops))
	}

	segments := make([]Segment, 0, len(stops)-1)
	for i := 0; i < len(stops)-1; i++ {
		from, to := stops[i], stops[i+1]
		seg := Segment{From: from, To: to, StraightKm: Haversine(from.Point, to.Point)}

		leg, err := p.router.Directions(ctx, from.Point, to.Point)
		switch {
		case errors.Is(err, ErrNoRoute):
			p.logger.WarnContext(ctx, "No route between stops",
				slog.String("from", from.Name), slog.String("to", to.Name), slog.Any("error", err))
			seg.Err = err
		case err != nil:
			return nil, fmt.Errorf("route %q -> %q: %w", from.Name, to.Name, err)
		default:
			seg.Leg = leg
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

const earthRadiusKm = 6371

// Haversine returns the great-circle distance between a and b in kilometres.
func Haversine(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dlat := lat2 - lat1
	dlon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// PrintRoute writes a human readable itinerary.
func PrintRoute(w io.Writer, segments []Segment) {
	header := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgYellow)
	warn := color.New(color.FgRed)

	for _, seg := range segments {
		header.Fprintf(w, "\n---     Desde : %s    ---\n---     Hacia : %s    ---\n", seg.From.Name, seg.To.Name)
		if seg.Leg == nil {
			warn.Fprintf(w, "Sin ruta disponible (%.2f km en línea recta)\n", seg.StraightKm)
			continue
		}

		label.Fprint(w, "Duración total: ")
		fmt.Fprintln(w, seg.Leg.Duration.Text)
		label.Fprint(w, "Distancia total: ")
		fmt.Fprintln(w, seg.Leg.Distance.Text)

		fmt.Fprintln(w, "\nPasos del viaje:")
		for _, step := range seg.Leg.Steps {
			fmt.Fprintf(w, "\n- %s\n", step.HTMLInstructions)
			if td := step.TransitDetails; td != nil {
				fmt.Fprintf(w, "  Línea: %s\n", td.Line.Label())
				fmt.Fprintf(w, "  Desde: %s\n", td.DepartureStop.Name)
				fmt.Fprintf(w, "  Hasta: %s\n", td.ArrivalStop.Name)
			}
		}
	}
}
