package authorize

// Role is one of the three fixed staff roles.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleTherapist    Role = "therapist"
	RoleReceptionist Role = "receptionist"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleAdmin, RoleTherapist, RoleReceptionist:
		return true
	}
	return false
}

// Resource identifies a protected API surface.
type Resource string

const (
	ResourceUser          Resource = "users"
	ResourcePatient       Resource = "patients"
	ResourceAppointment   Resource = "appointments"
	ResourceInvoice       Resource = "invoices"
	ResourcePayment       Resource = "payments"
	ResourceReceipt       Resource = "receipts"
	ResourceNote          Resource = "notes"
	ResourceCommunication Resource = "communications"
	ResourceSettings      Resource = "settings"
	ResourceAvailability  Resource = "availability"
	ResourceTemplate      Resource = "templates"
	ResourceReport        Resource = "reports"
	ResourceAudit         Resource = "audit"
	ResourceService       Resource = "services"
	ResourceDataRequest   Resource = "data_requests"
	ResourceProfitLoss    Resource = "profit_loss"
)

// Action is the operation attempted on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionSend   Action = "send"
)
