package recommend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

// CSVColumns is the header of the exported recommendation table.
var CSVColumns = []string{
	"ids",
	"documents",
	"distances",
	"address",
	"categories",
	"comuna",
	"latitude",
	"longitude",
	"name",
	"precio",
	"rating bayesian",
	"final_category",
}

// Exporter persists a ranked recommendation table.
type Exporter interface {
	Export(ctx context.Context, rows []types.RankedPOI) error
}

var _ Exporter = (*CSVExporter)(nil)

// CSVExporter writes rows to a CSV file. The file is written to a temporary
// sibling first and renamed into place, so a failed export leaves no partial file.
type CSVExporter struct {
	path   string
	logger *slog.Logger
}

func NewCSVExporter(path string, logger *slog.Logger) *CSVExporter {
	return &CSVExporter{path: path, logger: logger}
}

func (e *CSVExporter) Path() string {
	return e.path
}

func (e *CSVExporter) Export(ctx context.Context, rows []types.RankedPOI) (err error) {
	_, span := otel.Tracer("RecommendExporter").Start(ctx, "Export", trace.WithAttributes(
		attribute.String("export.path", e.path),
		attribute.Int("rows.count", len(rows)),
	))
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Export failed")
		}
	}()

	dir := filepath.Dir(e.path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create export directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(e.path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary export file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if err = WriteCSV(tmp, rows); err != nil {
		_ = tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temporary export file: %w", err)
	}
	if err = os.Rename(tmp.Name(), e.path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}

	e.logger.InfoContext(ctx, "Recommendations exported",
		slog.String("path", e.path),
		slog.Int("rows", len(rows)))
	span.SetStatus(codes.Ok, "Exported")
	return nil
}

// WriteCSV writes the header and one record per row.
func WriteCSV(w io.Writer, rows []types.RankedPOI) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVColumns); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		if err := cw.Write(toRecord(row)); err != nil {
			return fmt.Errorf("failed to write csv row %s: %w", row.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// ReadCSV loads a table written by WriteCSV. Columns are matched by header name.
func ReadCSV(r io.Reader) ([]types.RankedPOI, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("csv is empty")
		}
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range CSVColumns {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("csv is missing column %q", name)
		}
	}

	var rows []types.RankedPOI
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}
		row, err := fromRecord(record, index)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadCSVFile opens path and calls ReadCSV.
func ReadCSVFile(path string) ([]types.RankedPOI, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadCSV(f)
}

func toRecord(row types.RankedPOI) []string {
	return []string{
		row.ID,
		row.Document,
		formatFloat(row.Distance),
		row.Address,
		row.Categories,
		row.Zone,
		formatFloat(row.Latitude),
		formatFloat(row.Longitude),
		row.Name,
		string(row.PriceTier),
		formatFloat(row.BayesianRating),
		string(row.FinalCategory),
	}
}

func fromRecord(record []string, index map[string]int) (types.RankedPOI, error) {
	field := func(name string) string { return record[index[name]] }

	var row types.RankedPOI
	var err error
	if row.Distance, err = parseFloat(field("distances"), "distances"); err != nil {
		return row, err
	}
	if row.Latitude, err = parseFloat(field("latitude"), "latitude"); err != nil {
		return row, err
	}
	if row.Longitude, err = parseFloat(field("longitude"), "longitude"); err != nil {
		return row, err
	}
	if row.BayesianRating, err = parseFloat(field("rating bayesian"), "rating bayesian"); err != nil {
		return row, err
	}
	row.ID = field("ids")
	row.Document = field("documents")
	row.Address = field("address")
	row.Categories = field("categories")
	row.Zone = field("comuna")
	row.Name = field("name")
	row.PriceTier = types.PriceTier(field("precio"))
	row.FinalCategory = types.Category(field("final_category"))
	return row, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func parseFloat(s, column string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", column, s, err)
	}
	return f, nil
}
