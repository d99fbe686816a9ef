package config

import (
	"fmt"
	"strconv"
	"strings"
)

// splitList splits a list given as a single string, such as "0.5,0.5",
// "[1 2 3]" or "a, b". Empty items are dropped.
func splitList(s string) []string {
	s = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(s), "["), "]")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	return fields
}

// stringList normalizes a list value from any configuration source.
func stringList(raw any) []string {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return splitList(v)
	case []string:
		out := make([]string, 0, len(v))
		for _, s := range v {
			out = append(out, splitList(s)...)
		}
		return out
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, fmt.Sprint(item))
		}
		return out
	default:
		return splitList(fmt.Sprint(v))
	}
}

// floatList normalizes a list of floats from any configuration source.
func floatList(raw any) ([]float64, error) {
	if v, ok := raw.([]float64); ok {
		return append([]float64(nil), v...), nil
	}
	items := stringList(raw)
	out := make([]float64, 0, len(items))
	for _, item := range items {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", item, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// uintList normalizes a list of non-negative integers from any configuration source.
func uintList(raw any) ([]uint64, error) {
	if v, ok := raw.([]uint64); ok {
		return append([]uint64(nil), v...), nil
	}
	items := stringList(raw)
	out := make([]uint64, 0, len(items))
	for _, item := range items {
		u, err := strconv.ParseUint(item, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed %q: %w", item, err)
		}
		out = append(out, u)
	}
	return out, nil
}
