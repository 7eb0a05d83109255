package embedding

import (
	"fmt"
	"strconv"
	"strings"

	"shopbot/constant"
)

// FixedDimension is the width of every stored vector.
const FixedDimension = constant.EmbeddingDimension

// ZeroVector returns the placeholder written when the provider is down. It
// satisfies the schema's fixed dimensionality but can never match a real
// query by cosine similarity.
func ZeroVector() []float64 {
	return make([]float64, FixedDimension)
}

// IsZeroVector reports whether every component is zero.
func IsZeroVector(vec []float64) bool {
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}

// VectorToString renders a float64 slice as a PostgreSQL vector literal.
// Format: [1.0,2.0,3.0]
func VectorToString(vec []float64) string {
	if len(vec) == 0 {
		return "[]"
	}

	var builder strings.Builder
	builder.WriteString("[")
	for i, v := range vec {
		if i > 0 {
			builder.WriteString(",")
		}
		builder.WriteString(fmt.Sprintf("%.6f", v))
	}
	builder.WriteString("]")
	return builder.String()
}

// VectorFromString parses a PostgreSQL vector literal back into a slice.
func VectorFromString(s string) ([]float64, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
		return nil, fmt.Errorf("not a vector literal: %q", s)
	}
	inner := strings.TrimSpace(s[1 : len(s)-1])
	if inner == "" {
		return nil, nil
	}
	parts := strings.Split(inner, ",")
	vec := make([]float64, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("bad vector component %q: %w", p, err)
		}
		vec = append(vec, v)
	}
	return vec, nil
}
