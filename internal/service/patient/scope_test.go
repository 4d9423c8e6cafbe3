package patient

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bridgesphysio/bridges_backend/internal/model"
	"github.com/bridgesphysio/bridges_backend/pkg/authorize"
)

func TestArchiveEscape(t *testing.T) {
	archived := &model.Patient{Status: model.PatientStatusArchived}
	active := &model.Patient{Status: model.PatientStatusActive}

	// Receptionists may fetch an archived record by id even though their
	// listing scope hides it.
	assert.True(t, archiveEscape(authorize.RoleReceptionist, archived))
	assert.False(t, archiveEscape(authorize.RoleReceptionist, active))

	// A therapist's scope is ownership; archiving another clinician's
	// patient must not make it readable.
	assert.False(t, archiveEscape(authorize.RoleTherapist, archived))
	assert.False(t, archiveEscape(authorize.RoleTherapist, active))
}
