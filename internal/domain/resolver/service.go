package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/gamulti/ga-multi-mcp/internal/domain/registry"
)

// searchFloor is the relaxed confidence floor used by Search, which favors
// recall over precision since callers see the ranked list.
const searchFloor = 0.3

// defaultSearchResults caps Search output when the caller gives no limit.
const defaultSearchResults = 5

// PropertyLister is the registry surface the resolver consumes.
type PropertyLister interface {
	ListProperties(ctx context.Context, forceRefresh bool) ([]registry.Property, error)
}

// Service resolves free-text property references against the registry.
type Service struct {
	registry  PropertyLister
	threshold float64
	// aliases maps a canonical property name or ID to its accepted alias
	// strings.
	aliases map[string][]string
	logger  *slog.Logger
}

// NewService creates a resolver. threshold is the default minimum
// confidence for Resolve; aliases may be nil.
func NewService(reg PropertyLister, threshold float64, aliases map[string][]string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{registry: reg, threshold: threshold, aliases: aliases, logger: logger}
}

// Resolve scores query against every known property and returns matches at
// or above threshold, best confidence first. Exact ID, exact name, and
// alias matches short-circuit to a single result at confidence 1.0
// regardless of threshold. An empty query yields an empty result set.
func (s *Service) Resolve(ctx context.Context, query string, threshold float64) ([]Match, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil
	}

	props, err := s.registry.ListProperties(ctx, false)
	if err != nil {
		return nil, err
	}

	if m, ok := s.exactMatch(trimmed, props); ok {
		return []Match{m}, nil
	}

	queryClean := normalize(trimmed)
	var matches []Match
	for _, p := range props {
		conf, matchedOn := scoreCandidate(queryClean, p)
		if conf >= threshold {
			matches = append(matches, Match{Property: p, Confidence: conf, MatchedOn: matchedOn})
		}
	}
	sortMatches(matches)
	return matches, nil
}

// ResolveRequired resolves query with the default threshold and returns the
// single best match, or ErrPropertyNotFound when nothing qualifies. Callers
// needing to report ambiguity should use Resolve directly.
func (s *Service) ResolveRequired(ctx context.Context, query string) (registry.Property, error) {
	matches, err := s.Resolve(ctx, query, s.threshold)
	if err != nil {
		return registry.Property{}, err
	}
	if len(matches) == 0 {
		return registry.Property{}, fmt.Errorf("%w: %q", ErrPropertyNotFound, query)
	}
	return matches[0].Property, nil
}

// Search returns up to maxResults candidates above a relaxed floor,
// including exact matches, ranked by confidence. Used by the
// search_properties tool and for "did you mean" suggestions.
func (s *Service) Search(ctx context.Context, query string, maxResults int) ([]Match, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return nil, nil
	}
	if maxResults <= 0 {
		maxResults = defaultSearchResults
	}

	props, err := s.registry.ListProperties(ctx, false)
	if err != nil {
		return nil, err
	}

	queryClean := normalize(trimmed)
	var matches []Match
	for _, p := range props {
		if p.NumericID == trimmed || p.CleanName == queryClean {
			matches = append(matches, Match{Property: p, Confidence: 1.0, MatchedOn: "exact"})
			continue
		}
		conf, matchedOn := scoreCandidate(queryClean, p)
		if conf >= searchFloor {
			matches = append(matches, Match{Property: p, Confidence: conf, MatchedOn: matchedOn})
		}
	}
	sortMatches(matches)
	if len(matches) > maxResults {
		matches = matches[:maxResults]
	}
	return matches, nil
}

// exactMatch checks the short-circuit paths: numeric ID, normalized name,
// display name, then configured aliases.
func (s *Service) exactMatch(query string, props []registry.Property) (Match, bool) {
	queryLower := strings.ToLower(query)
	queryClean := normalize(query)

	for _, p := range props {
		if p.NumericID == query {
			return Match{Property: p, Confidence: 1.0, MatchedOn: "exact_id"}, true
		}
	}
	for _, p := range props {
		if p.CleanName != "" && p.CleanName == queryClean {
			return Match{Property: p, Confidence: 1.0, MatchedOn: "exact_name"}, true
		}
	}
	for _, p := range props {
		if strings.ToLower(p.DisplayName) == queryLower {
			return Match{Property: p, Confidence: 1.0, MatchedOn: "display_name"}, true
		}
	}

	for canonical, aliasList := range s.aliases {
		for _, alias := range aliasList {
			if strings.ToLower(alias) != queryLower {
				continue
			}
			canonicalLower := strings.ToLower(canonical)
			for _, p := range props {
				if p.NumericID == canonical || p.CleanName == normalize(canonical) ||
					strings.ToLower(p.DisplayName) == canonicalLower {
					return Match{Property: p, Confidence: 1.0, MatchedOn: "alias"}, true
				}
			}
		}
	}
	return Match{}, false
}

func scoreCandidate(queryClean string, p registry.Property) (float64, string) {
	displayClean := normalize(p.DisplayName)

	best := similarity(queryClean, p.CleanName)
	matchedOn := "fuzzy"
	if ds := similarity(queryClean, displayClean); ds > best {
		best = ds
	}
	if ps, ok := partialScore(queryClean, p.CleanName, displayClean); ok && ps > best {
		best = ps
		matchedOn = "partial"
	}
	return best, matchedOn
}

// sortMatches orders by confidence descending with deterministic
// tie-breaking: shorter display name first, then numeric ID.
func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Confidence != matches[j].Confidence {
			return matches[i].Confidence > matches[j].Confidence
		}
		li, lj := len(matches[i].Property.DisplayName), len(matches[j].Property.DisplayName)
		if li != lj {
			return li < lj
		}
		return matches[i].Property.NumericID < matches[j].Property.NumericID
	})
}
