package invoice

import "errors"

var (
	ErrNotFound            = errors.New("invoice not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrNoLineItems         = errors.New("invoice requires at least one line item")
	ErrAppointmentMismatch = errors.New("appointments must belong to the invoice patient")
	ErrAppointmentBilled   = errors.New("appointment is already referenced by another invoice")
	ErrVoid                = errors.New("invoice is void")
)
