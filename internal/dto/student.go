package dto

// UpdateAvailabilityRequest toggles a student's placement availability.
type UpdateAvailabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}
