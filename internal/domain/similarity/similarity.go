// Package similarity provides the normalized scoring functions used by
// the reconciliation matcher.
//
// Each function is stateless and returns a score in [0, 1]:
//   - Value compares monetary amounts with a percentage tolerance
//   - Date compares calendar dates with a day tolerance
//   - Text compares free-text fields (exact, containment, word overlap)
package similarity

import (
	"math"
	"regexp"
	"strings"
	"time"
)

// Default tolerances used by the matcher
const (
	DefaultValueTolerance     = 0.05 // 5% difference
	DefaultDateToleranceDays  = 7
	FallbackDateToleranceDays = 30 // proximity to creation date when no due date exists

	// containmentScore is the fixed score when one text contains the
	// other. Coarser than exact equality, stronger than word overlap.
	containmentScore = 0.8
)

// wordPattern tokenizes over Unicode letters and digits, keeping
// accented names ("José", "Gonçalves") as single tokens. ASCII \w would
// split them at each accented rune.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Value scores how close two amounts are. Equal amounts score 1.0.
// Otherwise the relative difference |a-b|/max(a,b) is computed; within
// tolerance the score decays linearly, beyond it the score is 0.
func Value(a, b, tolerance float64) float64 {
	if a == b {
		return 1.0
	}

	larger := math.Max(a, b)
	if larger == 0 {
		return 0.0
	}

	diff := math.Abs(a-b) / larger
	if diff <= tolerance {
		return 1.0 - diff
	}

	return 0.0
}

// Date scores how close two dates are, ignoring time-of-day. Equal dates
// score 1.0; within tolerance the score decays linearly per day.
func Date(a, b time.Time, toleranceDays int) float64 {
	days := daysBetween(a, b)
	if days == 0 {
		return 1.0
	}

	if toleranceDays > 0 && days <= toleranceDays {
		return 1.0 - float64(days)/float64(toleranceDays)
	}

	return 0.0
}

// Text scores similarity between two free-text fields. Comparison is
// case-insensitive and ignores surrounding whitespace. Empty input on
// either side scores 0.
func Text(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))

	if a == "" || b == "" {
		return 0.0
	}

	if a == b {
		return 1.0
	}

	if strings.Contains(a, b) || strings.Contains(b, a) {
		return containmentScore
	}

	// Jaccard index over word tokens
	wordsA := tokenSet(a)
	wordsB := tokenSet(b)

	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range wordsA {
		if wordsB[w] {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection

	return float64(intersection) / float64(union)
}

// daysBetween returns the absolute whole-day distance between two dates.
func daysBetween(a, b time.Time) int {
	a = time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	b = time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)

	diff := a.Sub(b)
	if diff < 0 {
		diff = -diff
	}

	return int(diff / (24 * time.Hour))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(s, -1) {
		set[w] = true
	}
	return set
}
