package appointment

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobat/booking-api/internal/model"
	"github.com/nobat/booking-api/internal/repository/repositorytest"
	apperrors "github.com/nobat/booking-api/pkg/errors"
	"github.com/nobat/booking-api/pkg/logger"
)

var (
	doctorID = uuid.New()
	clinicID = uuid.New()
)

var day = time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

type fixture struct {
	svc          *Service
	doctors      *repositorytest.DoctorRepo
	appointments *repositorytest.AppointmentRepo
}

func newFixture() *fixture {
	f := &fixture{
		doctors:      repositorytest.NewDoctorRepo(),
		appointments: repositorytest.NewAppointmentRepo(),
	}
	f.doctors.Doctors[doctorID] = &model.Doctor{
		Base:             model.Base{ID: doctorID},
		VisitDuration:    15,
		GapBetweenVisits: 5,
		MinCancelHours:   2,
		IsActive:         true,
	}
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	f.svc = NewService(f.appointments, f.doctors, log, nil)
	f.svc.now = func() time.Time { return day.Add(6 * time.Hour) } // 06:00
	return f
}

func (f *fixture) add(t *testing.T, slot string, status model.AppointmentStatus) *model.Appointment {
	t.Helper()
	appt := &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		PatientID: uuid.New(),
		DoctorID:  doctorID,
		ClinicID:  clinicID,
		Date:      day,
		Time:      slot,
		Status:    status,
	}
	require.NoError(t, f.appointments.Create(context.Background(), appt))
	return appt
}

func TestTransitionHappyPath(t *testing.T) {
	f := newFixture()
	appt := f.add(t, "09:00", model.AppointmentStatusPending)
	ctx := context.Background()

	for _, step := range []struct {
		action model.Action
		want   model.AppointmentStatus
	}{
		{model.ActionConfirm, model.AppointmentStatusConfirmed},
		{model.ActionMarkArrived, model.AppointmentStatusArrived},
		{model.ActionStartVisit, model.AppointmentStatusInProgress},
		{model.ActionEndVisit, model.AppointmentStatusVisited},
	} {
		got, err := f.svc.Transition(ctx, appt.ID, &model.TransitionRequest{Action: step.action})
		require.NoError(t, err, string(step.action))
		assert.Equal(t, step.want, got.Status)
	}

	assert.NotNil(t, appt.ArrivedAt)
	assert.NotNil(t, appt.VisitStartedAt)
	assert.NotNil(t, appt.VisitedAt)
}

func TestTransitionTerminalStatesAreClosed(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	terminals := []model.AppointmentStatus{
		model.AppointmentStatusVisited,
		model.AppointmentStatusCancelled,
		model.AppointmentStatusNoShow,
	}
	actions := []model.Action{
		model.ActionConfirm, model.ActionMarkArrived, model.ActionStartVisit,
		model.ActionEndVisit, model.ActionCancel, model.ActionNoShow,
	}
	slots := []string{"08:00", "08:20", "08:40"}
	for i, status := range terminals {
		appt := f.add(t, slots[i], status)
		for _, action := range actions {
			_, err := f.svc.Transition(ctx, appt.ID, &model.TransitionRequest{Action: action})
			assert.True(t, apperrors.Is(err, apperrors.ErrInvalidTransition),
				"%s from %s should be rejected", action, status)
		}
	}
}

func TestTransitionRejectsSkips(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	appt := f.add(t, "09:00", model.AppointmentStatusPending)
	_, err := f.svc.Transition(ctx, appt.ID, &model.TransitionRequest{Action: model.ActionEndVisit})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidTransition))

	arrived := f.add(t, "09:20", model.AppointmentStatusArrived)
	_, err = f.svc.Transition(ctx, arrived.ID, &model.TransitionRequest{Action: model.ActionCancel})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidTransition), "cancel is closed after arrival")
}

func TestStartVisitDemotesPreviousVisit(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	current := f.add(t, "09:00", model.AppointmentStatusInProgress)
	next := f.add(t, "09:20", model.AppointmentStatusArrived)

	got, err := f.svc.Transition(ctx, next.ID, &model.TransitionRequest{Action: model.ActionStartVisit})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusInProgress, got.Status)

	assert.Equal(t, model.AppointmentStatusVisited, current.Status)
	require.NotNil(t, current.VisitedAt)
}

func TestPatientCancelDeadline(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	appt := f.add(t, "09:00", model.AppointmentStatusConfirmed)

	// 07:30, ninety minutes before a 09:00 visit with a 2-hour deadline.
	f.svc.now = func() time.Time { return day.Add(7*time.Hour + 30*time.Minute) }
	_, err := f.svc.Transition(ctx, appt.ID, &model.TransitionRequest{Action: model.ActionCancel, ByPatient: true})
	assert.True(t, apperrors.Is(err, apperrors.ErrCancelDeadline))
	assert.Equal(t, model.AppointmentStatusConfirmed, appt.Status, "rejected cancel leaves the record unchanged")

	// Staff cancel ignores the deadline.
	_, err = f.svc.Transition(ctx, appt.ID, &model.TransitionRequest{Action: model.ActionCancel})
	assert.NoError(t, err)
}

func TestPatientCancelBeforeDeadline(t *testing.T) {
	f := newFixture()
	appt := f.add(t, "09:00", model.AppointmentStatusConfirmed)

	got, err := f.svc.Transition(context.Background(), appt.ID, &model.TransitionRequest{Action: model.ActionCancel, ByPatient: true})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, got.Status)
	assert.NotNil(t, got.CancelledAt)
}

func TestCancelRecordsActorAndReason(t *testing.T) {
	f := newFixture()
	appt := f.add(t, "09:00", model.AppointmentStatusPending)
	actor := uuid.New()

	got, err := f.svc.Transition(context.Background(), appt.ID, &model.TransitionRequest{
		Action: model.ActionCancel,
		Actor:  &actor,
		Reason: "patient requested",
	})
	require.NoError(t, err)
	assert.Equal(t, actor, *got.CancelledBy)
	assert.Equal(t, "patient requested", *got.CancelReason)

	history, err := f.svc.History(context.Background(), appt.ID)
	require.NoError(t, err)
	fields := make(map[string]bool)
	for _, h := range history {
		fields[h.FieldName] = true
	}
	assert.True(t, fields["status"])
	assert.True(t, fields["cancel_reason"])
}

func TestQueuePosition(t *testing.T) {
	f := newFixture()
	f.add(t, "08:00", model.AppointmentStatusConfirmed)
	f.add(t, "08:20", model.AppointmentStatusCancelled)
	f.add(t, "08:40", model.AppointmentStatusVisited)
	f.add(t, "09:00", model.AppointmentStatusArrived)
	mine := f.add(t, "09:20", model.AppointmentStatusConfirmed)

	pos, err := f.svc.QueuePosition(context.Background(), mine.ID)
	require.NoError(t, err)

	// Cancelled and visited entries ahead do not count.
	assert.Equal(t, 2, pos.AheadCount)
	assert.Equal(t, 40, pos.EstimatedWaitMinutes)
	assert.Equal(t, mine.QueueNumber, pos.QueueNumber)
}

func TestQueuePositionUsesClinicDuration(t *testing.T) {
	f := newFixture()
	override := 30
	f.doctors.Links = append(f.doctors.Links, &model.DoctorClinicLink{
		DoctorID:            doctorID,
		ClinicID:            clinicID,
		CustomVisitDuration: &override,
		IsActive:            true,
	})
	f.add(t, "09:00", model.AppointmentStatusConfirmed)
	mine := f.add(t, "09:20", model.AppointmentStatusConfirmed)

	pos, err := f.svc.QueuePosition(context.Background(), mine.ID)
	require.NoError(t, err)
	assert.Equal(t, 35, pos.EstimatedWaitMinutes)
}

func TestDaySummary(t *testing.T) {
	f := newFixture()
	f.add(t, "08:00", model.AppointmentStatusVisited)
	f.add(t, "08:20", model.AppointmentStatusInProgress)
	f.add(t, "08:40", model.AppointmentStatusArrived)
	f.add(t, "09:00", model.AppointmentStatusArrived)
	f.add(t, "09:20", model.AppointmentStatusConfirmed)
	f.add(t, "09:40", model.AppointmentStatusCancelled)

	summary, err := f.svc.DaySummary(context.Background(), doctorID, clinicID, day)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Waiting)
	require.NotNil(t, summary.InProgress)
	assert.Equal(t, "08:20", summary.InProgress.Time)
	assert.Equal(t, 1, summary.Counts[model.AppointmentStatusVisited])
	assert.Equal(t, 2, summary.Counts[model.AppointmentStatusArrived])
	assert.Equal(t, 1, summary.Counts[model.AppointmentStatusCancelled])
}
