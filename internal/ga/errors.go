// Package ga adapts the Google Analytics Admin and Data APIs to the domain
// interfaces and classifies their failures into a small taxonomy.
package ga

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"

	"github.com/gamulti/ga-multi-mcp/internal/ga/gaerrors"
)

var (
	// ErrAuth indicates the credentials were rejected (401/403).
	ErrAuth = gaerrors.ErrAuth
	// ErrQuotaExceeded indicates the API rate limit was hit (429).
	ErrQuotaExceeded = gaerrors.ErrQuotaExceeded
	// ErrInvalidRequest indicates a malformed query, e.g. an unknown
	// metric name (400).
	ErrInvalidRequest = gaerrors.ErrInvalidRequest
	// ErrNetwork covers transport failures that are none of the above.
	ErrNetwork = gaerrors.ErrNetwork
)

// classify maps a Google API error onto the sentinel taxonomy. Context
// deadline errors pass through so callers can report timeouts as such.
func classify(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401, 403:
			return fmt.Errorf("%w: %s", ErrAuth, apiErr.Message)
		case 429:
			return fmt.Errorf("%w: %s", ErrQuotaExceeded, apiErr.Message)
		case 400:
			return fmt.Errorf("%w: %s", ErrInvalidRequest, apiErr.Message)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
