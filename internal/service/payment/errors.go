package payment

import "errors"

var (
	ErrNotFound        = errors.New("payment not found")
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrValidation      = errors.New("invalid payment")
	ErrVoidInvoice     = errors.New("invoice is void")
	ErrNothingDue      = errors.New("invoice has no outstanding balance")
)
