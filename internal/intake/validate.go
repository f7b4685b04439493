package intake

import (
	"fmt"

	"ticket-scout/internal/common/config"
	"ticket-scout/internal/common/validation"
	"ticket-scout/internal/models"
)

// ValidateRequest checks a search request before any network activity and
// collects every violation at once. Subject identity is required whenever a
// portal source is requested; an image-only request carries its identity
// inside the image.
func ValidateRequest(req models.SearchRequest, sources map[string]config.SourceConfig) *validation.ValidationResult {
	rules := []validation.Rule{
		{
			Field:   "request",
			Code:    "EMPTY_REQUEST",
			Message: "at least one of image or sources must be provided",
			Check: func() bool {
				return len(req.Image) > 0 || len(req.Sources) > 0
			},
		},
	}

	for _, id := range req.Sources {
		sourceID := id
		rules = append(rules, validation.Rule{
			Field:   "sources",
			Code:    "UNKNOWN_SOURCE",
			Message: fmt.Sprintf("unknown source %q", sourceID),
			Check: func() bool {
				_, known := sources[sourceID]
				return known
			},
		})
	}

	if len(req.Sources) > 0 {
		rules = append(rules,
			validation.Rule{
				Field:   "licenseNumber",
				Code:    "INVALID_LICENSE",
				Message: "license number must be 5-20 alphanumeric characters",
				Check: func() bool {
					return validation.ValidateLicenseNumber(req.Criteria.LicenseNumber)
				},
			},
			validation.Rule{
				Field:   "state",
				Code:    "INVALID_STATE",
				Message: "state must be a two-letter code",
				Check: func() bool {
					return validation.ValidateState(req.Criteria.State)
				},
			},
		)
	}

	if anyRequiresDOB(req.Sources, sources) {
		rules = append(rules, validation.Rule{
			Field:   "dob",
			Code:    "INVALID_DOB",
			Message: "date of birth must be YYYY-MM-DD for the requested sources",
			Check: func() bool {
				return validation.ValidateISODate(req.Criteria.DateOfBirth)
			},
		})
	}

	return validation.Apply(rules)
}

func anyRequiresDOB(requested []string, sources map[string]config.SourceConfig) bool {
	for _, id := range requested {
		if portal, ok := sources[id]; ok && portal.RequiresDOB {
			return true
		}
	}
	return false
}
