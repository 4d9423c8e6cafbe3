package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgesphysio/bridges_backend/internal/model"
)

func int64p(v int64) *int64 { return &v }

func TestInvoiceReferences(t *testing.T) {
	inv := &model.Invoice{
		AppointmentID:  int64p(10),
		AppointmentIDs: []int64{10, 11, 12},
	}

	assert.True(t, invoiceReferences(inv, 10))
	assert.True(t, invoiceReferences(inv, 12))
	assert.False(t, invoiceReferences(inv, 99))

	assert.False(t, invoiceReferences(&model.Invoice{}, 10))
}

func TestResolveAppointment(t *testing.T) {
	inv := &model.Invoice{
		AppointmentID:  int64p(10),
		AppointmentIDs: []int64{10, 11},
	}

	got := resolveAppointment(int64p(11), inv)
	require.NotNil(t, got)
	assert.Equal(t, int64(11), *got, "explicit id wins")

	got = resolveAppointment(nil, inv)
	require.NotNil(t, got)
	assert.Equal(t, int64(10), *got, "falls back to the invoice primary")

	got = resolveAppointment(nil, &model.Invoice{AppointmentIDs: []int64{42}})
	require.NotNil(t, got)
	assert.Equal(t, int64(42), *got, "then to the first linked appointment")

	assert.Nil(t, resolveAppointment(nil, &model.Invoice{}))
}

func TestReceiptGap(t *testing.T) {
	assert.False(t, receiptGap(nil), "empty listing triggers nothing")

	full := []View{
		{PaymentID: 1, Receipt: &ReceiptSummary{ReceiptNumber: "R-0001"}},
		{PaymentID: 2, Receipt: &ReceiptSummary{ReceiptNumber: "R-0002"}},
	}
	assert.False(t, receiptGap(full), "every payment already has a receipt")

	withGap := append(full, View{PaymentID: 3})
	assert.True(t, receiptGap(withGap), "a payment without a receipt marks a gap")
}

func TestValidMethodAndStatus(t *testing.T) {
	for _, m := range []string{model.MethodCash, model.MethodCard, model.MethodTransfer, model.MethodCheque, model.MethodInsurance, model.MethodOther} {
		assert.True(t, model.ValidMethod(m), m)
	}
	assert.False(t, model.ValidMethod("crypto"))

	for _, s := range []string{model.PaymentApplied, model.PaymentPending, model.PaymentRefunded} {
		assert.True(t, model.ValidPaymentStatus(s), s)
	}
	assert.False(t, model.ValidPaymentStatus("bounced"))
}
