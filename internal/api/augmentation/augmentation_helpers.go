package augmentation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"

	"github.com/FACorreiaa/go-vibes-recommender/internal/types"
)

// ErrNoJSONObject is returned when a model response carries no JSON object.
var ErrNoJSONObject = errors.New("response contains no json object")

// PlacesTable is the scraped places dataset. The first CSV column is a row
// index and is dropped.
type PlacesTable struct {
	Columns []string
	Rows    [][]string
}

func ReadPlacesCSV(r io.Reader) (*PlacesTable, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read places csv: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("places csv is empty")
	}
	if len(records[0]) < 2 {
		return nil, errors.New("places csv needs an index column and at least one data column")
	}

	table := &PlacesTable{Columns: records[0][1:]}
	for _, rec := range records[1:] {
		table.Rows = append(table.Rows, rec[1:])
	}
	return table, nil
}

func ReadPlacesCSVFile(path string) (*PlacesTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return ReadPlacesCSV(f)
}

// BuildPrompt fills {columns}, {input_text} and {expected_output} in template.
// Doubled braces are unescaped.
func BuildPrompt(template string, columns, row []string, expectedOutput string) string {
	return strings.NewReplacer(
		"{columns}", strings.Join(columns, ", "),
		"{input_text}", strings.Join(row, ", "),
		"{expected_output}", expectedOutput,
		"{{", "{",
		"}}", "}",
	).Replace(template)
}

// ExtractJSON decodes the object between the first '{' and the last '}' of a
// model response, ignoring code fences and surrounding prose.
func ExtractJSON(response string) (types.AugmentedPOI, error) {
	var poi types.AugmentedPOI
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")

	first := strings.Index(response, "{")
	last := strings.LastIndex(response, "}")
	if first == -1 || last <= first {
		return poi, ErrNoJSONObject
	}
	if err := json.Unmarshal([]byte(response[first:last+1]), &poi); err != nil {
		return poi, fmt.Errorf("failed to decode model json: %w", err)
	}
	if strings.TrimSpace(poi.Description) == "" {
		return poi, errors.New("model json has no description")
	}
	return poi, nil
}

// LoadAugmented reads the output dataset; a missing file is an empty dataset.
func LoadAugmented(path string) ([]types.AugmentedPOI, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var pois []types.AugmentedPOI
	if err := json.Unmarshal(data, &pois); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return pois, nil
}

// SaveAugmented replaces the output dataset through a temporary file.
func SaveAugmented(path string, pois []types.AugmentedPOI) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	data, err := json.MarshalIndent(pois, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode augmented pois: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}
