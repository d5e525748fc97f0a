package resolver

import "github.com/gamulti/ga-multi-mcp/internal/domain/registry"

// Match is one scored candidate for a property reference. Matches are
// computed fresh per resolution call and never cached, so registry
// refreshes are always reflected.
type Match struct {
	Property   registry.Property `json:"property"`
	Confidence float64           `json:"confidence"`
	// MatchedOn records how the match was made: "exact_id", "exact_name",
	// "display_name", "alias", "fuzzy", or "partial".
	MatchedOn string `json:"matched_on"`
}
