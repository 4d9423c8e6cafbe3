package patient

import "errors"

var (
	ErrNotFound           = errors.New("patient not found")
	ErrValidation         = errors.New("first name, surname, email and phone are required")
	ErrPartialContact     = errors.New("primary contact requires name, email and phone together")
	ErrInvalidPhone       = errors.New("invalid phone number")
	ErrInvalidStatus      = errors.New("invalid patient status")
	ErrInvalidBillingMode = errors.New("invalid billing mode")
	ErrTherapistNotFound  = errors.New("primary therapist not found")
)
