package fetcher

import (
	"fmt"
	"time"

	"github.com/tekdi/user-microservice-sub001/config"
)

// Defaults is the one place fallback values live. Every placeholder or
// default the fetcher applies is read from here so the fallback behavior
// can be audited and tested in isolation.
type Defaults struct {
	PlaceholderFirstName string
	PlaceholderLastName  string
	// PlaceholderEmailFmt takes the userId.
	PlaceholderEmailFmt string

	TenantID       string
	OrganisationID string

	UpstreamTimeout time.Duration
}

// DefaultsFromConfig seeds the policy table from application configuration.
func DefaultsFromConfig(cfg *config.Config) Defaults {
	return Defaults{
		PlaceholderFirstName: "User",
		PlaceholderLastName:  "Name",
		PlaceholderEmailFmt:  "user-%s@example.com",
		TenantID:             cfg.DefaultTenantID,
		OrganisationID:       cfg.DefaultOrganisationID,
		UpstreamTimeout:      cfg.UpstreamTimeout,
	}
}

// PlaceholderEmail renders the placeholder address for a user.
func (d Defaults) PlaceholderEmail(userID string) string {
	return fmt.Sprintf(d.PlaceholderEmailFmt, userID)
}

// TenantOrDefault substitutes the configured tenant when the caller sent none.
func (d Defaults) TenantOrDefault(tenantID string) string {
	if tenantID == "" {
		return d.TenantID
	}
	return tenantID
}

// OrganisationOrDefault substitutes the configured organisation when the
// caller sent none.
func (d Defaults) OrganisationOrDefault(orgID string) string {
	if orgID == "" {
		return d.OrganisationID
	}
	return orgID
}
