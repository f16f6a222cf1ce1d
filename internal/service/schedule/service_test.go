package schedule

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

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

var (
	doctorID = uuid.New()
	clinicID = uuid.New()
)

// saturday is a fixed Saturday, business weekday 0.
var saturday = time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)

func newTestService() (*Service, *repositorytest.DoctorRepo, *repositorytest.ScheduleRepo, *repositorytest.ExceptionRepo, *repositorytest.AppointmentRepo) {
	doctors := repositorytest.NewDoctorRepo()
	schedules := repositorytest.NewScheduleRepo()
	exceptions := repositorytest.NewExceptionRepo()
	appointments := repositorytest.NewAppointmentRepo()

	doctors.Doctors[doctorID] = &model.Doctor{
		Base:                 model.Base{ID: doctorID},
		VisitDuration:        15,
		GapBetweenVisits:     5,
		MaxDailyAppointments: 20,
		MaxAdvanceDays:       14,
		IsActive:             true,
	}
	doctors.Links = append(doctors.Links, &model.DoctorClinicLink{
		DoctorID: doctorID,
		ClinicID: clinicID,
		IsActive: true,
	})

	svc := NewService(schedules, exceptions, doctors, appointments, testLogger(), nil)
	return svc, doctors, schedules, exceptions, appointments
}

func addWindow(schedules *repositorytest.ScheduleRepo, weekday int, start, end string) *model.WeeklySchedule {
	w := &model.WeeklySchedule{
		Base:      model.Base{ID: uuid.New()},
		DoctorID:  doctorID,
		ClinicID:  clinicID,
		Weekday:   weekday,
		StartTime: start,
		EndTime:   end,
		IsActive:  true,
	}
	schedules.Schedules = append(schedules.Schedules, w)
	return w
}

func TestGenerateSlotsWindowWalk(t *testing.T) {
	svc, _, schedules, _, _ := newTestService()
	addWindow(schedules, 0, "08:00", "10:00")
	svc.now = func() time.Time { return saturday.AddDate(0, 0, -1) }

	slots, err := svc.GenerateSlots(context.Background(), doctorID, clinicID, saturday)
	require.NoError(t, err)

	// 120 minutes, 15-minute visits with 5-minute gaps: starts every 20
	// minutes while a full visit still fits before 10:00.
	require.Len(t, slots, 6)
	assert.Equal(t, "08:00", slots[0].Time)
	assert.Equal(t, "08:20", slots[1].Time)
	assert.Equal(t, "09:40", slots[5].Time)
	for _, s := range slots {
		assert.True(t, s.IsAvailable)
	}
}

func TestGenerateSlotsDropsTrailingPartialSlot(t *testing.T) {
	svc, _, schedules, _, _ := newTestService()
	// A 10:00 start would run the visit past 10:05, so it is dropped.
	addWindow(schedules, 0, "09:00", "10:05")
	svc.now = func() time.Time { return saturday.AddDate(0, 0, -1) }

	slots, err := svc.GenerateSlots(context.Background(), doctorID, clinicID, saturday)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "09:20", slots[1].Time)
	assert.Equal(t, "09:40", slots[2].Time)
}

func TestGenerateSlotsMarksBookedAndPast(t *testing.T) {
	svc, _, schedules, _, appointments := newTestService()
	addWindow(schedules, 0, "08:00", "10:00")
	svc.now = func() time.Time {
		return time.Date(2025, 5, 10, 8, 30, 0, 0, time.UTC)
	}

	require.NoError(t, appointments.Create(context.Background(), &model.Appointment{
		DoctorID: doctorID,
		ClinicID: clinicID,
		Date:     saturday,
		Time:     "09:00",
		Status:   model.AppointmentStatusConfirmed,
	}))

	slots, err := svc.GenerateSlots(context.Background(), doctorID, clinicID, saturday)
	require.NoError(t, err)
	require.Len(t, slots, 6)

	byTime := make(map[string]*model.Slot)
	for _, s := range slots {
		byTime[s.Time] = s
	}

	assert.True(t, byTime["08:00"].IsPast)
	assert.False(t, byTime["08:00"].IsAvailable)
	assert.True(t, byTime["08:20"].IsPast)

	assert.True(t, byTime["09:00"].IsBooked)
	assert.False(t, byTime["09:00"].IsAvailable)

	assert.True(t, byTime["08:40"].IsAvailable)
	assert.True(t, byTime["09:40"].IsAvailable)
}

func TestGenerateSlotsPastAppliesOnlyToday(t *testing.T) {
	svc, _, schedules, _, _ := newTestService()
	addWindow(schedules, 0, "08:00", "09:00")

	// A week after the requested Saturday: not the same day, so no slot
	// is marked past even though the whole date is behind the clock.
	svc.now = func() time.Time {
		return time.Date(2025, 5, 17, 12, 0, 0, 0, time.UTC)
	}

	slots, err := svc.GenerateSlots(context.Background(), doctorID, clinicID, saturday)
	require.NoError(t, err)
	require.NotEmpty(t, slots)
	for _, s := range slots {
		assert.False(t, s.IsPast, "slot %s", s.Time)
		assert.True(t, s.IsAvailable, "slot %s", s.Time)
	}
}

func TestGenerateSlotsSlotStartingNowIsPast(t *testing.T) {
	svc, _, schedules, _, _ := newTestService()
	addWindow(schedules, 0, "08:00", "09:00")
	svc.now = func() time.Time {
		return time.Date(2025, 5, 10, 8, 20, 0, 0, time.UTC)
	}

	slots, err := svc.GenerateSlots(context.Background(), doctorID, clinicID, saturday)
	require.NoError(t, err)

	byTime := make(map[string]*model.Slot)
	for _, s := range slots {
		byTime[s.Time] = s
	}
	assert.True(t, byTime["08:20"].IsPast, "a slot starting right now cannot be booked")
	assert.False(t, byTime["08:40"].IsPast)
}

func TestGenerateSlotsCancelledDoesNotBlock(t *testing.T) {
	svc, _, schedules, _, appointments := newTestService()
	addWindow(schedules, 0, "08:00", "09:00")
	svc.now = func() time.Time { return saturday.AddDate(0, 0, -1) }

	require.NoError(t, appointments.Create(context.Background(), &model.Appointment{
		DoctorID: doctorID,
		ClinicID: clinicID,
		Date:     saturday,
		Time:     "08:00",
		Status:   model.AppointmentStatusCancelled,
	}))

	slots, err := svc.GenerateSlots(context.Background(), doctorID, clinicID, saturday)
	require.NoError(t, err)
	assert.False(t, slots[0].IsBooked)
	assert.True(t, slots[0].IsAvailable)
}

func TestGenerateSlotsMultipleWindows(t *testing.T) {
	svc, _, schedules, _, _ := newTestService()
	addWindow(schedules, 0, "08:00", "09:00")
	addWindow(schedules, 0, "16:00", "17:00")
	svc.now = func() time.Time { return saturday.AddDate(0, 0, -1) }

	slots, err := svc.GenerateSlots(context.Background(), doctorID, clinicID, saturday)
	require.NoError(t, err)
	require.Len(t, slots, 6)
	assert.Equal(t, "08:40", slots[2].Time)
	assert.Equal(t, "16:00", slots[3].Time)
}

func TestGenerateSlotsNoWindowForWeekday(t *testing.T) {
	svc, _, schedules, _, _ := newTestService()
	addWindow(schedules, 3, "08:00", "10:00")
	svc.now = func() time.Time { return saturday.AddDate(0, 0, -1) }

	slots, err := svc.GenerateSlots(context.Background(), doctorID, clinicID, saturday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestGenerateSlotsClinicDurationOverride(t *testing.T) {
	svc, doctors, schedules, _, _ := newTestService()
	addWindow(schedules, 0, "08:00", "09:00")
	override := 30
	doctors.Links[0].CustomVisitDuration = &override
	svc.now = func() time.Time { return saturday.AddDate(0, 0, -1) }

	slots, err := svc.GenerateSlots(context.Background(), doctorID, clinicID, saturday)
	require.NoError(t, err)
	// 30+5 stride in a 60-minute window.
	require.Len(t, slots, 1)
	assert.Equal(t, "08:00", slots[0].Time)
}

func TestCreateScheduleRejectsInvertedWindow(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.CreateSchedule(context.Background(), &model.CreateScheduleRequest{
		DoctorID:  doctorID,
		ClinicID:  clinicID,
		Weekday:   0,
		StartTime: "10:00",
		EndTime:   "08:00",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidWindow))
}

func TestCreateScheduleRejectsOverlap(t *testing.T) {
	svc, _, schedules, _, _ := newTestService()
	addWindow(schedules, 0, "08:00", "12:00")

	_, err := svc.CreateSchedule(context.Background(), &model.CreateScheduleRequest{
		DoctorID:  doctorID,
		ClinicID:  clinicID,
		Weekday:   0,
		StartTime: "11:00",
		EndTime:   "14:00",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrScheduleOverlap))

	// Touching windows are fine.
	_, err = svc.CreateSchedule(context.Background(), &model.CreateScheduleRequest{
		DoctorID:  doctorID,
		ClinicID:  clinicID,
		Weekday:   0,
		StartTime: "12:00",
		EndTime:   "14:00",
	})
	assert.NoError(t, err)
}

func TestCreateExceptionDuplicateScoping(t *testing.T) {
	svc, _, _, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateException(ctx, &model.CreateExceptionRequest{
		DoctorID: doctorID,
		Date:     "2025-05-10",
	})
	require.NoError(t, err)

	// Same global scope again is a duplicate.
	_, err = svc.CreateException(ctx, &model.CreateExceptionRequest{
		DoctorID: doctorID,
		Date:     "2025-05-10",
	})
	assert.True(t, apperrors.Is(err, apperrors.ErrDuplicateException))

	// A clinic-scoped row on the same date is a different scope.
	_, err = svc.CreateException(ctx, &model.CreateExceptionRequest{
		DoctorID: doctorID,
		ClinicID: &clinicID,
		Date:     "2025-05-10",
	})
	assert.NoError(t, err)
}

func TestListOpenDatesSkipsExceptionsAndFullDays(t *testing.T) {
	svc, _, schedules, exceptions, appointments := newTestService()
	// Working Saturdays and Mondays.
	addWindow(schedules, 0, "08:00", "12:00")
	addWindow(schedules, 2, "08:00", "12:00")
	svc.now = func() time.Time { return saturday }

	// Off next Saturday.
	nextSaturday := saturday.AddDate(0, 0, 7)
	exceptions.Exceptions = append(exceptions.Exceptions, &model.ScheduleException{
		ID:       uuid.New(),
		DoctorID: doctorID,
		Date:     nextSaturday,
		Category: model.ExceptionVacation,
	})

	// Fill Monday 2025-05-12 to its cap of 2.
	monday := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	dayCap := 2
	for _, w := range schedules.Schedules {
		if w.Weekday == 2 {
			w.MaxAppointments = &dayCap
		}
	}
	for _, tm := range []string{"08:00", "08:20"} {
		require.NoError(t, appointments.Create(context.Background(), &model.Appointment{
			Base:      model.Base{ID: uuid.New()},
			PatientID: uuid.New(),
			DoctorID:  doctorID,
			ClinicID:  clinicID,
			Date:      monday,
			Time:      tm,
			Status:    model.AppointmentStatusConfirmed,
		}))
	}

	open, err := svc.ListOpenDates(context.Background(), doctorID, clinicID, 0)
	require.NoError(t, err)

	dates := make(map[string]*model.OpenDate)
	for _, od := range open {
		dates[od.Date.Format(model.DateOnly)] = od
	}

	today := dates["2025-05-10"]
	require.NotNil(t, today)
	assert.True(t, today.IsToday)
	assert.Equal(t, 0, today.Weekday)
	assert.Equal(t, "Saturday", today.WeekdayName)

	assert.Nil(t, dates["2025-05-17"], "exception date should be closed")
	assert.Nil(t, dates["2025-05-12"], "full day should be closed")

	// Monday a week later has the cap but no bookings.
	later := dates["2025-05-19"]
	require.NotNil(t, later)
	assert.Equal(t, 2, later.MaxAppointments)
	assert.Equal(t, 2, later.Remaining)

	// Horizon bounded by the doctor's 14 advance days.
	for d := range dates {
		parsed, _ := time.Parse(model.DateOnly, d)
		assert.True(t, parsed.Before(saturday.AddDate(0, 0, 14)))
	}
}

func TestListOpenDatesHorizonNarrowing(t *testing.T) {
	svc, _, schedules, _, _ := newTestService()
	addWindow(schedules, 0, "08:00", "12:00")
	svc.now = func() time.Time { return saturday }

	open, err := svc.ListOpenDates(context.Background(), doctorID, clinicID, 7)
	require.NoError(t, err)
	// Only the first Saturday falls inside a 7-day horizon.
	require.Len(t, open, 1)
	assert.Equal(t, "2025-05-10", open[0].Date.Format(model.DateOnly))
}
