package authorize

import (
	"context"
	"testing"
)

func TestPolicyMatrix(t *testing.T) {
	auth, err := NewAuthorization()
	if err != nil {
		t.Fatalf("NewAuthorization() error = %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name     string
		role     Role
		resource Resource
		action   Action
		want     bool
	}{
		{"admin can do anything", RoleAdmin, ResourceAudit, ActionRead, true},
		{"admin deletes invoices", RoleAdmin, ResourceInvoice, ActionDelete, true},
		{"admin manages users", RoleAdmin, ResourceUser, ActionCreate, true},

		{"receptionist creates invoices", RoleReceptionist, ResourceInvoice, ActionCreate, true},
		{"receptionist records payments", RoleReceptionist, ResourcePayment, ActionCreate, true},
		{"receptionist reads reports", RoleReceptionist, ResourceReport, ActionRead, true},
		{"receptionist cannot create users", RoleReceptionist, ResourceUser, ActionCreate, false},
		{"receptionist cannot read audit", RoleReceptionist, ResourceAudit, ActionRead, false},
		{"receptionist cannot update settings", RoleReceptionist, ResourceSettings, ActionUpdate, false},
		{"receptionist cannot manage templates", RoleReceptionist, ResourceTemplate, ActionCreate, false},

		{"therapist reads patients", RoleTherapist, ResourcePatient, ActionRead, true},
		{"therapist completes appointments", RoleTherapist, ResourceAppointment, ActionUpdate, true},
		{"therapist writes notes", RoleTherapist, ResourceNote, ActionCreate, true},
		{"therapist manages templates", RoleTherapist, ResourceTemplate, ActionUpdate, true},
		{"therapist cannot create invoices", RoleTherapist, ResourceInvoice, ActionCreate, false},
		{"therapist cannot record payments", RoleTherapist, ResourcePayment, ActionCreate, false},
		{"therapist cannot delete patients", RoleTherapist, ResourcePatient, ActionDelete, false},
		{"therapist cannot read reports", RoleTherapist, ResourceReport, ActionRead, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := auth.Can(ctx, tt.role, tt.resource, tt.action)
			if err != nil {
				t.Fatalf("Can() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Can(%s, %s, %s) = %v, want %v", tt.role, tt.resource, tt.action, got, tt.want)
			}
		})
	}
}

func TestMustEnforce(t *testing.T) {
	auth, err := NewAuthorization()
	if err != nil {
		t.Fatalf("NewAuthorization() error = %v", err)
	}
	ctx := context.Background()

	if err := auth.MustEnforce(ctx, RoleAdmin, ResourceAudit, ActionRead); err != nil {
		t.Errorf("MustEnforce(admin) error = %v", err)
	}
	if err := auth.MustEnforce(ctx, RoleTherapist, ResourceAudit, ActionRead); err != ErrForbidden {
		t.Errorf("MustEnforce(therapist, audit) error = %v, want ErrForbidden", err)
	}
}

func TestValidRole(t *testing.T) {
	for _, r := range []string{"admin", "therapist", "receptionist"} {
		if !ValidRole(r) {
			t.Errorf("ValidRole(%q) = false", r)
		}
	}
	if ValidRole("superuser") {
		t.Error("ValidRole(superuser) = true")
	}
}
