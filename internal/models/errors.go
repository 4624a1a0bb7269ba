package models

import "errors"

// Error kinds returned by the reservation and payment core.
// Callers wrap them with context and match with errors.Is.
var (
	ErrValidation       = errors.New("validation failed")
	ErrConflict         = errors.New("conflict")
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrDelivery         = errors.New("delivery failed")
)
