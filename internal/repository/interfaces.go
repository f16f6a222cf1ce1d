package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nobat/booking-api/internal/model"
)

// All repository interfaces in one file
type (
	// DoctorRepository reads doctor booking settings and clinic links.
	DoctorRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error)
		GetLink(ctx context.Context, doctorID, clinicID uuid.UUID) (*model.DoctorClinicLink, error)
		ListLinks(ctx context.Context, doctorID uuid.UUID) ([]*model.DoctorClinicLink, error)
		SetPrimaryLink(ctx context.Context, doctorID, clinicID uuid.UUID) error
	}

	// PatientRepository looks up the patient a booking request names.
	PatientRepository interface {
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
	}

	// ScheduleRepository holds recurring weekly availability windows.
	ScheduleRepository interface {
		Create(ctx context.Context, ws *model.WeeklySchedule) error
		Delete(ctx context.Context, id uuid.UUID) error
		ListForWeekday(ctx context.Context, doctorID, clinicID uuid.UUID, weekday int) ([]*model.WeeklySchedule, error)
		ListForDoctor(ctx context.Context, doctorID, clinicID uuid.UUID) ([]*model.WeeklySchedule, error)
	}

	// ExceptionRepository holds one-off non-availability dates.
	ExceptionRepository interface {
		Create(ctx context.Context, ex *model.ScheduleException) error
		Delete(ctx context.Context, id uuid.UUID) error
		// Covers reports whether an exception blocks the doctor at the
		// clinic on date, counting clinic-scoped and global rows.
		Covers(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) (bool, error)
		// CoveredDates returns the blocked dates within [from, to].
		CoveredDates(ctx context.Context, doctorID, clinicID uuid.UUID, from, to time.Time) (map[string]bool, error)
		// Exists checks for a duplicate row with the same clinic scope.
		Exists(ctx context.Context, doctorID uuid.UUID, clinicID *uuid.UUID, date time.Time) (bool, error)
	}

	// TariffRepository resolves priced rules with clinic shadowing.
	TariffRepository interface {
		Find(ctx context.Context, doctorID, serviceTypeID, insuranceTypeID uuid.UUID, clinicID *uuid.UUID) (*model.Tariff, error)
		ListForDoctor(ctx context.Context, doctorID uuid.UUID, clinicID *uuid.UUID) ([]*model.Tariff, error)
	}

	// AppointmentRepository is the appointment ledger. Create and
	// Transition run inside storage transactions; Create maps the
	// partial-unique-index violation on (doctor, date, time) to SlotTaken.
	AppointmentRepository interface {
		Create(ctx context.Context, appt *model.Appointment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
		ListForDay(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Appointment, error)
		// BookedTimes returns the HH:MM times held by blocking-status
		// appointments for the doctor at the clinic on date.
		BookedTimes(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) (map[string]bool, error)
		// CountForDay counts non-cancelled appointments against daily capacity.
		CountForDay(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) (int, error)
		// SlotHeld and PatientHolds mirror the uniqueness rules: any
		// non-cancelled row holds its slot, and a patient may hold at
		// most one non-cancelled booking per doctor and day.
		SlotHeld(ctx context.Context, doctorID uuid.UUID, date time.Time, slotTime string) (bool, error)
		PatientHolds(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time) (bool, error)
		// CountAhead counts non-cancelled, non-visited appointments
		// earlier in the day than slotTime.
		CountAhead(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time, slotTime string) (int, error)
		// Transition applies a lifecycle action with the row locked.
		// start_visit force-completes any other in_progress appointment
		// for the same doctor and day within the same transaction.
		Transition(ctx context.Context, id uuid.UUID, req *model.TransitionRequest, now time.Time) (*model.Appointment, error)
		ListHistory(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentHistory, error)
	}

	// OutboxRepository stores notification events written alongside
	// bookings and transitions, and feeds the relay worker.
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
