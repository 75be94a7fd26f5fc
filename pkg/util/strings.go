package util

import (
	"strconv"
	"strings"
)

// ParseIntDefault parses string to int or returns default if empty/invalid.
func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// SplitCSV splits a comma separated list, trimming blanks.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// EqualFoldPrefix reports whether short (at least 3 chars) is a case-insensitive prefix of full.
func EqualFoldPrefix(full, short string) bool {
	if len(short) < 3 || len(short) > len(full) {
		return false
	}
	return strings.EqualFold(full[:len(short)], short)
}
