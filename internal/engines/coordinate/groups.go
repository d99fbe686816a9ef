package coordinate

import (
	"fmt"
	"strings"
)

// ParameterGroup names a set of coordinates updated together within one outer iteration.
type ParameterGroup string

const (
	// GroupResponsibilities is the per-observation class responsibility logits.
	GroupResponsibilities ParameterGroup = "responsibilities"
	// GroupMeans is the variational location of each component mean.
	GroupMeans ParameterGroup = "means"
	// GroupScales is the variational log-scale of each component mean.
	GroupScales ParameterGroup = "scales"
	// GroupEncoder is the amortized encoder weight matrix.
	GroupEncoder ParameterGroup = "encoder"
	// GroupDecoder is the amortized decoder weight matrix.
	GroupDecoder ParameterGroup = "decoder"
	// GroupLocation is the location of a single-parameter approximating family.
	GroupLocation ParameterGroup = "location"
	// GroupSpread is the log-scale (or log-rate) of a single-parameter approximating family.
	GroupSpread ParameterGroup = "spread"
)

var knownGroups = map[ParameterGroup]bool{
	GroupResponsibilities: true,
	GroupMeans:            true,
	GroupScales:           true,
	GroupEncoder:          true,
	GroupDecoder:          true,
	GroupLocation:         true,
	GroupSpread:           true,
}

// ParseOrder converts group names into an update order. Names are trimmed and
// lower-cased; empty names are skipped.
func ParseOrder(names []string) ([]ParameterGroup, error) {
	order := make([]ParameterGroup, 0, len(names))
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		g := ParameterGroup(name)
		if !knownGroups[g] {
			return nil, fmt.Errorf("unknown parameter group %q", name)
		}
		order = append(order, g)
	}
	return order, nil
}

// ValidateOrder checks that every group in order is supported by a model.
func ValidateOrder(order, supported []ParameterGroup) error {
	if len(order) == 0 {
		return fmt.Errorf("update order is empty")
	}
	allowed := make(map[ParameterGroup]bool, len(supported))
	for _, g := range supported {
		allowed[g] = true
	}
	for _, g := range order {
		if !allowed[g] {
			return fmt.Errorf("parameter group %q is not supported, expected one of %v", g, supported)
		}
	}
	return nil
}
