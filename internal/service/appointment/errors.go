package appointment

import "errors"

var (
	ErrNotFound          = errors.New("appointment not found")
	ErrValidation        = errors.New("invalid appointment")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrTherapistNotFound = errors.New("therapist not found")
	ErrInvalidOutcome    = errors.New("unrecognized outcome")
	ErrNoteRequired      = errors.New("a note is required for this outcome")
)
