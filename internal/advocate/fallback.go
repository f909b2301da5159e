package advocate

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"advocatehub/pkg/models"
)

//go:embed data/advocates.json
var fallbackJSON []byte

// FallbackDataset decodes the bundled directory. It is served when the store
// is unavailable and is what the seed endpoint writes into the store.
func FallbackDataset() ([]models.RawRecord, error) {
	dec := json.NewDecoder(bytes.NewReader(fallbackJSON))
	dec.UseNumber()

	var rows []models.RawRecord
	if err := dec.Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode fallback dataset: %w", err)
	}
	return rows, nil
}

// MustFallbackDataset is FallbackDataset for program start-up.
func MustFallbackDataset() []models.RawRecord {
	rows, err := FallbackDataset()
	if err != nil {
		panic(err)
	}
	return rows
}
