// Package aggregate reduces fully fetched CRM entity lists into dashboard
// metrics. Every function is pure and total: empty input yields zero values,
// never an error or a panic, and every ratio has an explicit zero-denominator
// result.
package aggregate

import (
	"strings"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
)

// Unknown is the bucket for missing or empty keys.
const Unknown = "Unknown"

// NotAvailable replaces missing contact details in display projections.
const NotAvailable = "N/A"

// GroupBy counts items per key, in order of first occurrence. Empty keys are
// counted under Unknown, so the values always sum to len(items).
func GroupBy[T any](items []T, key func(T) string) []domain.NameValue {
	out := make([]domain.NameValue, 0)
	index := make(map[string]int)
	for _, item := range items {
		name := orDefault(key(item), Unknown)
		if i, ok := index[name]; ok {
			out[i].Value++
			continue
		}
		index[name] = len(out)
		out = append(out, domain.NameValue{Name: name, Value: 1})
	}
	return out
}

// Ratio returns part/total, or 0 when total is not positive.
func Ratio(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func orDefault(s, fallback string) string {
	if s = strings.TrimSpace(s); s == "" {
		return fallback
	}
	return s
}
