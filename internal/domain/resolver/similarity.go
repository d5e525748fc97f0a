package resolver

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

// normalize lowercases and strips everything but letters and digits, so
// "My Blog!" and "my-blog" compare equal.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// similarity returns an edit-distance ratio in [0,1]: 1.0 for identical
// strings, near 0.0 for disjoint ones. Inputs are assumed normalized.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1.0 - float64(dist)/float64(longest)
}

// partialScore scores a query contained inside a candidate name. A
// containment covering more than 30% of the candidate maps onto the
// 0.7–1.0 band, so "blog" ranks highly against "myblog" without an exact
// match.
func partialScore(queryClean string, candidates ...string) (float64, bool) {
	longest := 1
	contained := false
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if len(c) > longest {
			longest = len(c)
		}
		if strings.Contains(c, queryClean) {
			contained = true
		}
	}
	if !contained || queryClean == "" {
		return 0, false
	}
	lenRatio := float64(len(queryClean)) / float64(longest)
	if lenRatio <= 0.3 {
		return 0, false
	}
	return 0.7 + lenRatio*0.3, true
}
