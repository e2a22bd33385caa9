package pricing

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"PriceSentinel/internal/model"
)

// fileState is the on-disk layout of the pricing state file.
type fileState struct {
	Products  map[string]*model.PricingState `json:"products"`
	UpdatedAt time.Time                      `json:"updated_at"`
}

// LoadState reads pricing states from a JSON file. A missing file yields an empty set.
func LoadState(filePath string) (map[string]*model.PricingState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*model.PricingState{}, nil
		}
		return nil, errors.Wrap(err, "read pricing state")
	}
	var fs fileState
	if len(data) > 0 {
		if err := json.Unmarshal(data, &fs); err != nil {
			return nil, errors.Wrap(err, "decode pricing state")
		}
	}
	if fs.Products == nil {
		fs.Products = map[string]*model.PricingState{}
	}
	return fs.Products, nil
}

// SaveState writes pricing states atomically via a temp file.
func SaveState(filePath string, states map[string]*model.PricingState) error {
	if filePath == "" {
		return nil
	}
	data, err := json.MarshalIndent(fileState{Products: states, UpdatedAt: time.Now()}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode pricing state")
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create pricing state dir")
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write pricing state temp file")
	}
	return errors.Wrap(os.Rename(tmp, filePath), "persist pricing state")
}
