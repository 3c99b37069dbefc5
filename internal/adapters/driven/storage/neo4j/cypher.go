package neo4j

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docugraph/internal/core/domain"
)

// quote returns name as a backtick-quoted Cypher identifier.
func quote(name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", fmt.Errorf("empty identifier: %w", domain.ErrInvalidInput)
	}
	return "`" + strings.ReplaceAll(name, "`", "``") + "`", nil
}

func quoteAll(names ...string) ([]string, error) {
	out := make([]string, len(names))
	for i, n := range names {
		q, err := quote(n)
		if err != nil {
			return nil, err
		}
		out[i] = q
	}
	return out, nil
}

// similarityFunctions accepted by Neo4j vector indexes.
var similarityFunctions = map[string]bool{
	"cosine":    true,
	"euclidean": true,
}

// toFloat64s converts embeddings to the list type the driver encodes.
func toFloat64s(v []float32) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// encodeProps prepares a property map for the driver.
func encodeProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if vec, ok := v.([]float32); ok {
			if vec == nil {
				continue
			}
			v = toFloat64s(vec)
		}
		out[k] = v
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func asStrings(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
