package model

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/nobat/booking-api/pkg/errors"
)

type AppointmentStatus string

const (
	AppointmentStatusPending    AppointmentStatus = "pending"
	AppointmentStatusConfirmed  AppointmentStatus = "confirmed"
	AppointmentStatusArrived    AppointmentStatus = "arrived"
	AppointmentStatusInProgress AppointmentStatus = "in_progress"
	AppointmentStatusVisited    AppointmentStatus = "visited"
	AppointmentStatusCancelled  AppointmentStatus = "cancelled"
	AppointmentStatusNoShow     AppointmentStatus = "no_show"
)

// BlockingStatuses are the statuses that hold a slot and count against
// daily capacity. visited is excluded: the occupant already completed.
var BlockingStatuses = []AppointmentStatus{
	AppointmentStatusPending,
	AppointmentStatusConfirmed,
	AppointmentStatusArrived,
	AppointmentStatusInProgress,
}

// IsTerminal reports whether no further transitions are allowed.
func (s AppointmentStatus) IsTerminal() bool {
	switch s {
	case AppointmentStatusVisited, AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusDeposit  PaymentStatus = "deposit"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type BookingSource string

const (
	BookingSourceOnline    BookingSource = "online"
	BookingSourcePhone     BookingSource = "phone"
	BookingSourceOnsite    BookingSource = "onsite"
	BookingSourceSecretary BookingSource = "secretary"
)

type Appointment struct {
	Base
	PatientID       uuid.UUID         `db:"patient_id" json:"patient_id"`
	DoctorID        uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	ClinicID        uuid.UUID         `db:"clinic_id" json:"clinic_id"`
	ServiceTypeID   *uuid.UUID        `db:"service_type_id" json:"service_type_id,omitempty"`
	InsuranceTypeID *uuid.UUID        `db:"insurance_type_id" json:"insurance_type_id,omitempty"`
	TariffID        *uuid.UUID        `db:"tariff_id" json:"tariff_id,omitempty"`
	TariffFee       int64             `db:"tariff_fee" json:"tariff_fee"`
	Date            time.Time         `db:"date" json:"date"`
	Time            string            `db:"time" json:"time"`
	QueueNumber     int               `db:"queue_number" json:"queue_number"`
	Status          AppointmentStatus `db:"status" json:"status"`
	BookingSource   BookingSource     `db:"booking_source" json:"booking_source"`
	PaymentStatus   PaymentStatus     `db:"payment_status" json:"payment_status"`
	PaymentAmount   int64             `db:"payment_amount" json:"payment_amount"`
	DepositAmount   int64             `db:"deposit_amount" json:"deposit_amount"`
	PaidAmount      int64             `db:"paid_amount" json:"paid_amount"`
	PatientNotes    *string           `db:"patient_notes" json:"patient_notes,omitempty"`
	CreatedBy       *uuid.UUID        `db:"created_by" json:"created_by,omitempty"`
	ArrivedAt       *time.Time        `db:"arrived_at" json:"arrived_at,omitempty"`
	VisitStartedAt  *time.Time        `db:"visit_started_at" json:"visit_started_at,omitempty"`
	VisitedAt       *time.Time        `db:"visited_at" json:"visited_at,omitempty"`
	CancelledAt     *time.Time        `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CancelledBy     *uuid.UUID        `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancelReason    *string           `db:"cancel_reason" json:"cancel_reason,omitempty"`
}

// Datetime combines the appointment date and HH:MM time in loc.
func (a *Appointment) Datetime(loc *time.Location) time.Time {
	t, err := time.Parse(TimeOfDay, a.Time)
	if err != nil {
		return a.Date
	}
	return time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), t.Hour(), t.Minute(), 0, 0, loc)
}

// Action is an operator- or patient-triggered lifecycle action.
type Action string

const (
	ActionConfirm     Action = "confirm"
	ActionMarkArrived Action = "mark_arrived"
	ActionStartVisit  Action = "start_visit"
	ActionEndVisit    Action = "end_visit"
	ActionCancel      Action = "cancel"
	ActionNoShow      Action = "no_show"
)

type transitionRule struct {
	from []AppointmentStatus
	to   AppointmentStatus
}

var transitionTable = map[Action]transitionRule{
	ActionConfirm:     {from: []AppointmentStatus{AppointmentStatusPending}, to: AppointmentStatusConfirmed},
	ActionMarkArrived: {from: []AppointmentStatus{AppointmentStatusConfirmed, AppointmentStatusPending}, to: AppointmentStatusArrived},
	ActionStartVisit:  {from: []AppointmentStatus{AppointmentStatusArrived, AppointmentStatusConfirmed}, to: AppointmentStatusInProgress},
	ActionEndVisit:    {from: []AppointmentStatus{AppointmentStatusInProgress}, to: AppointmentStatusVisited},
	ActionCancel:      {from: []AppointmentStatus{AppointmentStatusPending, AppointmentStatusConfirmed}, to: AppointmentStatusCancelled},
	ActionNoShow:      {from: []AppointmentStatus{AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusArrived}, to: AppointmentStatusNoShow},
}

// CanTransition reports whether action is allowed from the current status.
func (a *Appointment) CanTransition(action Action) bool {
	rule, ok := transitionTable[action]
	if !ok {
		return false
	}
	for _, s := range rule.from {
		if a.Status == s {
			return true
		}
	}
	return false
}

// FieldChange records one mutated field for the appointment history ledger.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// ApplyTransition mutates the appointment per the lifecycle table and stamps
// the transition side effects. The record is left unchanged on error.
func (a *Appointment) ApplyTransition(action Action, now time.Time, actor *uuid.UUID, reason string) ([]FieldChange, error) {
	rule, ok := transitionTable[action]
	if !ok || !a.CanTransition(action) {
		return nil, apperrors.InvalidTransition
	}

	changes := []FieldChange{{
		Field:    "status",
		OldValue: string(a.Status),
		NewValue: string(rule.to),
	}}
	a.Status = rule.to

	switch action {
	case ActionMarkArrived:
		a.ArrivedAt = &now
		changes = append(changes, FieldChange{Field: "arrived_at", NewValue: now.Format(time.RFC3339)})
	case ActionStartVisit:
		a.VisitStartedAt = &now
		changes = append(changes, FieldChange{Field: "visit_started_at", NewValue: now.Format(time.RFC3339)})
	case ActionEndVisit:
		a.VisitedAt = &now
		changes = append(changes, FieldChange{Field: "visited_at", NewValue: now.Format(time.RFC3339)})
	case ActionCancel:
		a.CancelledAt = &now
		a.CancelledBy = actor
		if reason != "" {
			a.CancelReason = &reason
			changes = append(changes, FieldChange{Field: "cancel_reason", NewValue: reason})
		}
		changes = append(changes, FieldChange{Field: "cancelled_at", NewValue: now.Format(time.RFC3339)})
	}

	a.UpdatedAt = now
	return changes, nil
}

// AppointmentHistory is one field-level change on an appointment.
type AppointmentHistory struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	AppointmentID uuid.UUID  `db:"appointment_id" json:"appointment_id"`
	ChangedBy     *uuid.UUID `db:"changed_by" json:"changed_by,omitempty"`
	FieldName     string     `db:"field_name" json:"field_name"`
	OldValue      *string    `db:"old_value" json:"old_value,omitempty"`
	NewValue      *string    `db:"new_value" json:"new_value,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// BookingRequest is the arbitrator input.
type BookingRequest struct {
	PatientID       uuid.UUID     `json:"patient_id" binding:"required"`
	DoctorID        uuid.UUID     `json:"doctor_id" binding:"required"`
	ClinicID        uuid.UUID     `json:"clinic_id" binding:"required"`
	ServiceTypeID   *uuid.UUID    `json:"service_type_id,omitempty"`
	InsuranceTypeID *uuid.UUID    `json:"insurance_type_id,omitempty"`
	Date            string        `json:"date" binding:"required,datetime=2006-01-02"`
	Time            string        `json:"time" binding:"required,datetime=15:04"`
	Source          BookingSource `json:"source,omitempty" binding:"omitempty,booking_source"`
	PatientNotes    string        `json:"patient_notes,omitempty" binding:"max=1000"`
	CreatedBy       *uuid.UUID    `json:"created_by,omitempty"`
}

// StaffBooked reports whether the booking was entered by staff, which
// starts the appointment at confirmed instead of pending.
func (r *BookingRequest) StaffBooked() bool {
	switch r.Source {
	case BookingSourceSecretary, BookingSourceOnsite, BookingSourcePhone:
		return true
	}
	return false
}

// TransitionRequest is the state-machine action input.
type TransitionRequest struct {
	Action Action     `json:"action" binding:"required,oneof=confirm mark_arrived start_visit end_visit cancel no_show"`
	Actor  *uuid.UUID `json:"actor,omitempty"`
	Reason string     `json:"reason,omitempty" binding:"max=500"`
	// ByPatient subjects cancellations to the doctor's cancel deadline.
	ByPatient bool `json:"by_patient,omitempty"`
}

// QueuePosition is a point-in-time estimate, recomputed on every read.
type QueuePosition struct {
	AppointmentID        uuid.UUID `json:"appointment_id"`
	QueueNumber          int       `json:"queue_number"`
	AheadCount           int       `json:"ahead_count"`
	EstimatedWaitMinutes int       `json:"estimated_wait_minutes"`
}

// DaySummary is the per-status snapshot a day-sheet or live-queue view reads.
type DaySummary struct {
	Date       time.Time                 `json:"date"`
	Counts     map[AppointmentStatus]int `json:"counts"`
	Waiting    int                       `json:"waiting"`
	InProgress *Appointment              `json:"in_progress,omitempty"`
}
