// Package utils contains some common utilities used by all other packages.
package utils

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ParseIntList parses a comma separated list such as "1, 2,11".
// Empty elements are ignored.
func ParseIntList(s string) ([]int, error) {
	var out []int
	for part := range strings.SplitSeq(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		out = append(out, n)
	}
	return out, nil
}

// FormatIntList is the inverse of ParseIntList for sorted output.
func FormatIntList(ids []int) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	parts := make([]string, len(sorted))
	for i, n := range sorted {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
