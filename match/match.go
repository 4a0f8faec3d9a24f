// Package match decides which provider search results correspond to a title.
//
// An expected episode count of zero or less means the count is unknown.
package match

import (
	"math"
	"slices"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/nezuko-cli/nezuko/source"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Distance is the case-insensitive Levenshtein distance between a and b.
func Distance(a, b string) int {
	return levenshtein.Distance(strings.ToLower(a), strings.ToLower(b))
}

// Tolerance is the episode count band used for acceptance.
func Tolerance(expected int) int {
	if expected <= 10 {
		return 1
	}
	return max(1, int(math.Floor(float64(expected)*0.15)))
}

// verifyBand is looser than Tolerance for small counts. The two are kept
// apart on purpose: verification gates the early exit of the query loop,
// acceptance gates membership.
func verifyBand(expected int) float64 {
	return math.Max(2, float64(expected)*0.2)
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// Accept reports whether c plausibly belongs to the title searched with query.
func Accept(c *source.Candidate, query string, expected int) bool {
	if count := c.Count(); expected > 0 && count > 0 {
		if absDiff(count, expected) <= Tolerance(expected) {
			return true
		}
	}

	title, q := normalize(c.Title), normalize(query)
	if title == q || strings.Contains(title, q) || strings.Contains(q, title) {
		return true
	}

	d := levenshtein.Distance(title, q)
	return d <= 4 || float64(d) <= float64(len(q))*0.3
}

// Verified reports whether c's episode count is close enough to be trusted.
func Verified(c *source.Candidate, expected int) bool {
	count := c.Count()
	if expected <= 0 || count <= 0 {
		return false
	}
	return float64(absDiff(count, expected)) <= verifyBand(expected)
}

// Result is the outcome of Filter.
type Result struct {
	// Accepted is ordered by ascending distance to the query.
	Accepted []*source.Candidate

	// Verified is the first accepted candidate that passes Verified.
	Verified mo.Option[*source.Candidate]
}

// HasVerified reports whether a verified candidate was found.
func (r Result) HasVerified() bool {
	return r.Verified.IsPresent()
}

// Filter keeps the candidates accepted for query and ranks them. The input
// slice is not modified.
func Filter(results []*source.Candidate, query string, expected int) Result {
	accepted := lo.Filter(results, func(c *source.Candidate, _ int) bool {
		return c != nil && Accept(c, query, expected)
	})

	q := normalize(query)
	slices.SortStableFunc(accepted, func(a, b *source.Candidate) int {
		return levenshtein.Distance(normalize(a.Title), q) - levenshtein.Distance(normalize(b.Title), q)
	})

	r := Result{Accepted: accepted}
	if v, ok := lo.Find(accepted, func(c *source.Candidate) bool {
		return Verified(c, expected)
	}); ok {
		r.Verified = mo.Some(v)
	}

	return r
}
