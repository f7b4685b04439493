package models

// SearchCriteria is the subject identity for one lookup. License number and
// issuing state are mandatory for any scrape-backed source; date of birth is
// additionally mandatory for portals that require it. Immutable after
// construction.
type SearchCriteria struct {
	Name          string  `json:"name,omitempty"`
	DateOfBirth   string  `json:"dob,omitempty"` // YYYY-MM-DD
	LicenseNumber string  `json:"licenseNumber"`
	State         string  `json:"state"`
	RadiusMiles   float64 `json:"radiusMiles,omitempty"`
}
