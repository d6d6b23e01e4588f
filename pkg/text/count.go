// Package text provides text normalization and parsing helpers for catalog queries.
package text

import (
	"strconv"
	"strings"
)

const (
	thousand = 1_000
	million  = 1_000_000
)

// ParseCount converts a human-readable count string such as "55K+",
// "1.2M+", "<100" or "320" into a non-negative integer.
// Malformed input yields 0 rather than an error.
func ParseCount(s string) int {
	if s == "" {
		return 0
	}

	// "<100" means "fewer than 100"; keep the bound itself.
	s = strings.TrimPrefix(s, "<")
	s = strings.TrimSuffix(s, "+")
	if s == "" {
		return 0
	}

	switch {
	case strings.HasSuffix(s, "K"):
		return scaledCount(strings.TrimSuffix(s, "K"), thousand)
	case strings.HasSuffix(s, "M"):
		return scaledCount(strings.TrimSuffix(s, "M"), million)
	}

	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// scaledCount parses prefix as a float, scales it and truncates to int.
func scaledCount(prefix string, factor float64) int {
	f, err := strconv.ParseFloat(strings.TrimSpace(prefix), 64)
	if err != nil || f < 0 {
		return 0
	}
	return int(f * factor)
}
