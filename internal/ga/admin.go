package ga

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	analyticsadmin "google.golang.org/api/analyticsadmin/v1beta"
	"google.golang.org/api/option"

	"github.com/gamulti/ga-multi-mcp/internal/domain/registry"
)

// AdminClient discovers GA4 properties through the Analytics Admin API.
type AdminClient struct {
	svc    *analyticsadmin.Service
	logger *slog.Logger
}

// NewAdminClient builds an Admin API client from service-account JSON
// credentials.
func NewAdminClient(ctx context.Context, credentialsPath string, logger *slog.Logger) (*AdminClient, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	svc, err := analyticsadmin.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(analyticsadmin.AnalyticsReadonlyScope),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing analytics admin client: %w", err)
	}
	return &AdminClient{svc: svc, logger: logger}, nil
}

// ListAccessibleProperties enumerates every GA4 property under every
// account the credentials can see, flattened into registry records.
func (c *AdminClient) ListAccessibleProperties(ctx context.Context) ([]registry.Property, error) {
	var props []registry.Property

	err := c.svc.Accounts.List().PageSize(200).Pages(ctx,
		func(accounts *analyticsadmin.GoogleAnalyticsAdminV1betaListAccountsResponse) error {
			for _, account := range accounts.Accounts {
				accountProps, err := c.listAccountProperties(ctx, account.Name)
				if err != nil {
					return err
				}
				props = append(props, accountProps...)
			}
			return nil
		})
	if err != nil {
		return nil, classify(err)
	}

	c.logger.Debug("admin discovery complete", "properties", len(props))
	return props, nil
}

func (c *AdminClient) listAccountProperties(ctx context.Context, accountName string) ([]registry.Property, error) {
	accountID := trailingID(accountName)

	var props []registry.Property
	err := c.svc.Properties.List().Filter("parent:"+accountName).PageSize(200).Pages(ctx,
		func(resp *analyticsadmin.GoogleAnalyticsAdminV1betaListPropertiesResponse) error {
			for _, p := range resp.Properties {
				props = append(props, registry.Property{
					NumericID:    trailingID(p.Name),
					ResourceName: p.Name,
					DisplayName:  p.DisplayName,
					AccountID:    accountID,
					CleanName:    registry.CleanName(p.DisplayName),
				})
			}
			return nil
		})
	if err != nil {
		return nil, err
	}
	return props, nil
}

// trailingID extracts "123" from resource names like "accounts/123" or
// "properties/123".
func trailingID(resourceName string) string {
	if idx := strings.LastIndex(resourceName, "/"); idx >= 0 {
		return resourceName[idx+1:]
	}
	return resourceName
}
