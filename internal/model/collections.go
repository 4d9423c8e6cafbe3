// Package model defines the persisted document shapes and collection names.
// Field names mirror the store's JSON-schema validators, so documents written
// here remain readable by the reporting tooling that shares the database.
package model

const (
	ColUsers                  = "users"
	ColPatients               = "patients"
	ColAppointments           = "appointments"
	ColInvoices               = "invoices"
	ColPayments               = "payments"
	ColReceipts               = "receipts"
	ColServices               = "services"
	ColNotes                  = "notes"
	ColAuditLogs              = "auditlogs"
	ColCommunications         = "communications"
	ColClinicSettings         = "clinicsettings"
	ColDataSubjectRequests    = "datasubjectrequests"
	ColRefreshTokens          = "refreshtokens"
	ColCounters               = "counters"
	ColAvailabilities         = "therapistavailabilities"
	ColGPLetterTemplates      = "gp_letter_templates"
	ColTreatmentNoteTemplates = "treatment_note_templates"
	ColProfitLossEntries      = "profit_loss_entries"
)

// Counter keys, one monotonic sequence per aggregate type.
const (
	CounterEmployeeID      = "employee_id"
	CounterPatientID       = "patient_id"
	CounterAppointmentID   = "appointment_id"
	CounterInvoiceID       = "invoice_id"
	CounterInvoiceNumber   = "invoice_number"
	CounterPaymentID       = "payment_id"
	CounterReceiptID       = "receipt_id"
	CounterReceiptNumber   = "receipt_number"
	CounterServiceID       = "service_id"
	CounterDataRequestID   = "data_request_id"
	CounterProfitLossEntry = "profit_loss_entry_id"
	CounterCommunicationID = "communication_id"
)
