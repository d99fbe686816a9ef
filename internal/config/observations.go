package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ObservationsFile is the on-disk layout of a data set.
type ObservationsFile struct {
	Observations []float64 `yaml:"observations"`
}

// LoadObservations reads a YAML document of the form
//
//	observations: [0.9, -1.1, ...]
func LoadObservations(path string) ([]float64, error) {
	if path == "" {
		return nil, fmt.Errorf("observations file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read observations file %s: %w", path, err)
	}
	return ParseObservations(data)
}

// ParseObservations decodes an observations document.
func ParseObservations(data []byte) ([]float64, error) {
	var file ObservationsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse observations: %w", err)
	}
	if len(file.Observations) == 0 {
		return nil, fmt.Errorf("no observations found")
	}
	for i, x := range file.Observations {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("observation %d is not finite: %v", i, x)
		}
	}
	return file.Observations, nil
}
