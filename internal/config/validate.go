package config

import (
	"errors"

	"github.com/boddenberg/crm-dashboard-go/internal/domain"
)

// Validate checks the settings the CRM client cannot run without.
func (c *Config) Validate() error {
	var errs []error

	if c.APIKey == "" {
		errs = append(errs, &domain.ErrValidation{Field: "CRM_API_KEY", Message: "required"})
	}
	if c.LocationID == "" {
		errs = append(errs, &domain.ErrValidation{Field: "CRM_LOCATION_ID", Message: "required"})
	}
	if c.APIVersion != APIVersionV1 && c.APIVersion != APIVersionV2 {
		errs = append(errs, &domain.ErrValidation{Field: "CRM_API_VERSION", Message: "must be v1 or v2"})
	}
	if c.PageSize <= 0 {
		errs = append(errs, &domain.ErrValidation{Field: "PAGE_SIZE", Message: "must be positive"})
	}

	return errors.Join(errs...)
}
