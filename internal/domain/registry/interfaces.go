package registry

import "context"

// AdminAPI enumerates GA4 properties accessible to the configured
// credentials. Implemented by the Google Analytics Admin API adapter.
type AdminAPI interface {
	ListAccessibleProperties(ctx context.Context) ([]Property, error)
}
