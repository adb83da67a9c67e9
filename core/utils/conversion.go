package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CleanCell trims a spreadsheet cell and folds non-breaking spaces into spaces.
func CleanCell(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(s)
}

// ToBool converts a cell to a bool.
// Blank, "0", "false", "no", "n" and "off" are false (case-insensitive); anything else is true.
func ToBool(s string) bool {
	switch strings.ToLower(CleanCell(s)) {
	case "", "0", "false", "no", "n", "off":
		return false
	default:
		return true
	}
}

// ToNumber converts a cell to a float64. Blank cells are 0.
// Thousands separators and surrounding whitespace are ignored.
func ToNumber(s string) (float64, error) {
	s = strings.ReplaceAll(CleanCell(s), ",", "")
	if s == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return f, nil
}

// ToString converts a numeric cell rendered in scientific or float form
// (e.g. "4.165551234E+09", "1234.0") back to its integer digits; other values are returned cleaned.
func ToString(s string) string {
	s = CleanCell(s)
	if s == "" || !strings.ContainsAny(s, ".eE") {
		return s
	}
	if strings.ContainsAny(s, "eE") && !strings.Contains(s, "+") {
		return s
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int64(f)) {
		return s
	}
	return strconv.FormatInt(int64(f), 10)
}

// ToList splits a cell into trimmed, non-empty items.
// An empty separator yields a single item holding the whole cell.
func ToList(s, sep string) []string {
	s = CleanCell(s)
	if s == "" {
		return []string{}
	}
	if sep == "" {
		return []string{s}
	}
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = CleanCell(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
