package postgres

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobat/booking-api/internal/model"
)

func TestAppointmentEventCarriesPatientContact(t *testing.T) {
	appt := &model.Appointment{
		Base:        model.Base{ID: uuid.New()},
		PatientID:   uuid.New(),
		DoctorID:    uuid.New(),
		ClinicID:    uuid.New(),
		Status:      model.AppointmentStatusConfirmed,
		Date:        time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		Time:        "09:00",
		QueueNumber: 3,
	}

	event := appointmentEvent(appt, "09121234567")
	assert.Equal(t, "09121234567", event.PatientPhone)

	body, err := json.Marshal(event)
	require.NoError(t, err)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "09121234567", payload["patient_phone"], "dispatch must not need a second lookup")
	assert.Equal(t, "2025-05-10", payload["date"])
	assert.Equal(t, "09:00", payload["time"])
}
