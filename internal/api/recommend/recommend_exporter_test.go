package recommend

import (
	"bytes"
	"context"
	"encoding/csv"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

func sampleRows() []types.RankedPOI {
	return []types.RankedPOI{
		{
			POICandidate: types.POICandidate{
				ID:             "7f6c",
				Document:       "Museo con colección de arte, \"moderno\"",
				Distance:       0.4321,
				Zone:           "Belén",
				Categories:     "Museo, Galería",
				Address:        "Cra. 44 #19a-100",
				Latitude:       6.2233,
				Longitude:      -75.5945,
				Name:           "Museo de Arte Moderno",
				PriceTier:      types.PriceTierMedium,
				BayesianRating: 4.62,
			},
			FinalCategory: "museo",
		},
		{
			POICandidate: types.POICandidate{
				ID:         "9a1b",
				Document:   "Iglesia",
				Zone:       "Belén",
				Categories: "Iglesia",
				Name:       "Parroquia",
				PriceTier:  types.PriceTierLow,
			},
			FinalCategory: types.CategoryUnclassified,
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{
		"ids", "documents", "distances", "address", "categories", "comuna",
		"latitude", "longitude", "name", "precio", "rating bayesian", "final_category",
	}, records[0])
	assert.Equal(t, "0.4321", records[1][2])
	assert.Equal(t, "Belén", records[1][5])
	assert.Equal(t, "$$", records[1][9])
	assert.Equal(t, "museo", records[1][11])
	assert.Equal(t, "", records[2][11], "unclassified renders as an empty cell")
}

func TestReadCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleRows()))

	rows, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, sampleRows(), rows)

	t.Run("missing column", func(t *testing.T) {
		_, err := ReadCSV(bytes.NewBufferString("ids,name\n1,x\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), `missing column "documents"`)
	})

	t.Run("bad number", func(t *testing.T) {
		var b bytes.Buffer
		require.NoError(t, WriteCSV(&b, nil))
		b.WriteString("1,d,notanumber,,,A,0,0,n,$,0,\n")
		_, err := ReadCSV(&b)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "line 2")
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSV(bytes.NewReader(nil))
		assert.Error(t, err)
	})
}

func TestCSVExporter_Export(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "top3_places.csv")
	exporter := NewCSVExporter(path, slog.New(slog.NewTextHandler(os.Stdout, nil)))

	require.NoError(t, exporter.Export(context.Background(), sampleRows()))

	rows, err := ReadCSVFile(path)
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary file must not be left behind")
}
