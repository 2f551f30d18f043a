package fetcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tekdi/user-microservice-sub001/config"
)

func testDefaults() Defaults {
	return DefaultsFromConfig(&config.Config{
		DefaultTenantID:       "tenant-1",
		DefaultOrganisationID: "org-1",
		UpstreamTimeout:       5 * time.Second,
	})
}

func TestDefaultsPlaceholders(t *testing.T) {
	d := testDefaults()

	assert.Equal(t, "User", d.PlaceholderFirstName)
	assert.Equal(t, "Name", d.PlaceholderLastName)
	assert.Equal(t, "user-abc-123@example.com", d.PlaceholderEmail("abc-123"))
}

func TestDefaultsTenantAndOrganisationFallback(t *testing.T) {
	d := testDefaults()

	assert.Equal(t, "tenant-1", d.TenantOrDefault(""))
	assert.Equal(t, "tenant-9", d.TenantOrDefault("tenant-9"))
	assert.Equal(t, "org-1", d.OrganisationOrDefault(""))
	assert.Equal(t, "org-9", d.OrganisationOrDefault("org-9"))
}
