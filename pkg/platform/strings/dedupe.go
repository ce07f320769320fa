// Package strings holds small string-slice helpers.
package strings

import (
	"strings"
)

// DedupeAndTrim trims each value and drops empties and exact repeats. Order is
// preserved.
func DedupeAndTrim(values []string) []string {
	return dedupe(values, func(s string) string { return s })
}

// DedupeFold is DedupeAndTrim with case-insensitive comparison. The first
// spelling seen is the one kept.
//
//	DedupeFold([]string{" Cure ", "cure", "CURE", "治る"}) // ["Cure", "治る"]
func DedupeFold(values []string) []string {
	return dedupe(values, strings.ToLower)
}

func dedupe(values []string, key func(string) string) []string {
	if len(values) == 0 {
		return values
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		k := key(v)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, v)
	}
	return out
}
