package authorize

import (
	"fmt"

	casbin "github.com/casbin/casbin/v2"
)

type rule struct {
	role     Role
	resource Resource
	action   Action
}

// seedPolicies installs the clinic's permission matrix. Admin is a pure
// wildcard; therapist and receptionist get the subset their workflows need.
// Row-level scoping (which patients a therapist sees) is applied separately
// at query time.
func seedPolicies(e *casbin.Enforcer) error {
	rules := []rule{
		{RoleAdmin, "*", "*"},

		// Receptionists run the front desk: directory, diary and billing.
		{RoleReceptionist, ResourcePatient, "*"},
		{RoleReceptionist, ResourceAppointment, "*"},
		{RoleReceptionist, ResourceInvoice, "*"},
		{RoleReceptionist, ResourcePayment, "*"},
		{RoleReceptionist, ResourceReceipt, "*"},
		{RoleReceptionist, ResourceCommunication, ActionRead},
		{RoleReceptionist, ResourceNote, ActionRead},
		{RoleReceptionist, ResourceService, ActionRead},
		{RoleReceptionist, ResourceUser, ActionRead},
		{RoleReceptionist, ResourceDataRequest, "*"},
		{RoleReceptionist, ResourceReport, ActionRead},
		{RoleReceptionist, ResourceSettings, ActionRead},
		{RoleReceptionist, ResourceAvailability, ActionRead},

		// Therapists see their own caseload and write clinical records.
		{RoleTherapist, ResourcePatient, ActionRead},
		{RoleTherapist, ResourcePatient, ActionUpdate},
		{RoleTherapist, ResourceAppointment, "*"},
		{RoleTherapist, ResourceInvoice, ActionRead},
		{RoleTherapist, ResourcePayment, ActionRead},
		{RoleTherapist, ResourceReceipt, ActionRead},
		{RoleTherapist, ResourceNote, "*"},
		{RoleTherapist, ResourceCommunication, ActionRead},
		{RoleTherapist, ResourceService, ActionRead},
		{RoleTherapist, ResourceUser, ActionRead},
		{RoleTherapist, ResourceTemplate, "*"},
		{RoleTherapist, ResourceAvailability, ActionRead},
		{RoleTherapist, ResourceSettings, ActionRead},
	}

	for _, r := range rules {
		if _, err := e.AddPolicy(string(r.role), string(r.resource), string(r.action)); err != nil {
			return fmt.Errorf("seed policy %v: %w", r, err)
		}
	}
	return nil
}
