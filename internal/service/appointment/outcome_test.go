package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bridgesphysio/bridges_backend/internal/model"
)

func TestResolveOutcome(t *testing.T) {
	tests := []struct {
		outcome        string
		wantCompleted  bool
		wantStatus     string
		wantCompletion string
		wantEvent      string
		wantCancelled  bool
		wantNote       bool
	}{
		{
			outcome:        OutcomeCompleted,
			wantEvent:      "appointment.complete",
			wantCompleted:  true,
			wantStatus:     model.AppointmentCompleted,
			wantCompletion: model.CompletionCompleted,
		},
		{
			outcome:        OutcomeCompletedManual,
			wantEvent:      "appointment.complete",
			wantCompleted:  true,
			wantStatus:     model.AppointmentCompleted,
			wantCompletion: model.CompletionCompletedManual,
		},
		{
			outcome:        OutcomeCancelledSameDay,
			wantEvent:      "appointment.cancel",
			wantStatus:     model.AppointmentCancelledSameDay,
			wantCompletion: model.CompletionCancelledSameDay,
			wantCancelled:  true,
		},
		{
			outcome:        OutcomeCancelledOnTheDay,
			wantEvent:      "appointment.cancel",
			wantStatus:     model.AppointmentCancelledSameDay,
			wantCompletion: model.CompletionCancelledSameDay,
			wantCancelled:  true,
		},
		{
			outcome:        OutcomeCancelledResched,
			wantEvent:      "appointment.cancel",
			wantStatus:     model.AppointmentCancelled,
			wantCompletion: model.CompletionCancelledReschedule,
			wantCancelled:  true,
			wantNote:       true,
		},
		{
			outcome:        OutcomeOther,
			wantEvent:      "appointment.update",
			wantStatus:     model.AppointmentOther,
			wantCompletion: model.CompletionOther,
			wantNote:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			tr, err := resolveOutcome(tt.outcome)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCompleted, tr.completed)
			assert.Equal(t, tt.wantStatus, tr.status)
			assert.Equal(t, tt.wantCompletion, tr.completion)
			assert.Equal(t, tt.wantEvent, tr.event)
			assert.Equal(t, tt.wantCancelled, tr.setCancelled)
			assert.Equal(t, tt.wantNote, tr.requireNote)
		})
	}
}

func TestResolveOutcomeUnknown(t *testing.T) {
	_, err := resolveOutcome("no_show")
	assert.ErrorIs(t, err, ErrInvalidOutcome)

	_, err = resolveOutcome("")
	assert.ErrorIs(t, err, ErrInvalidOutcome)
}
