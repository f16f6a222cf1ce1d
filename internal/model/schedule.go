package model

import (
	"time"

	"github.com/google/uuid"
)

// WeeklySchedule is one recurring availability window at a clinic.
// A doctor may have several disjoint windows on the same weekday.
type WeeklySchedule struct {
	Base
	DoctorID        uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ClinicID        uuid.UUID `db:"clinic_id" json:"clinic_id"`
	Weekday         int       `db:"weekday" json:"weekday"`
	StartTime       string    `db:"start_time" json:"start_time"`
	EndTime         string    `db:"end_time" json:"end_time"`
	IsActive        bool      `db:"is_active" json:"is_active"`
	MaxAppointments *int      `db:"max_appointments" json:"max_appointments,omitempty"`
}

type ExceptionCategory string

const (
	ExceptionHoliday   ExceptionCategory = "holiday"
	ExceptionVacation  ExceptionCategory = "vacation"
	ExceptionEmergency ExceptionCategory = "emergency"
	ExceptionOther     ExceptionCategory = "other"
)

// ScheduleException is a one-off non-availability date. A nil ClinicID
// means the doctor is off at every clinic that day.
type ScheduleException struct {
	ID        uuid.UUID         `db:"id" json:"id"`
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	ClinicID  *uuid.UUID        `db:"clinic_id" json:"clinic_id,omitempty"`
	Date      time.Time         `db:"date" json:"date"`
	Category  ExceptionCategory `db:"category" json:"category"`
	Reason    *string           `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
}

// Slot is one fixed-width bookable interval derived from a schedule window.
type Slot struct {
	Time        string `json:"time"`
	IsAvailable bool   `json:"is_available"`
	IsBooked    bool   `json:"is_booked"`
	IsPast      bool   `json:"is_past"`
}

// OpenDate is one date with remaining coarse capacity, used to populate
// date pickers. Specific slots on it may still be taken.
type OpenDate struct {
	Date            time.Time `json:"date"`
	Weekday         int       `json:"weekday"`
	WeekdayName     string    `json:"weekday_name"`
	IsToday         bool      `json:"is_today"`
	BookedCount     int       `json:"booked_count"`
	MaxAppointments int       `json:"max_appointments"`
	Remaining       int       `json:"remaining"`
}

// CreateScheduleRequest creates one weekly window.
type CreateScheduleRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id" binding:"required"`
	ClinicID        uuid.UUID `json:"clinic_id" binding:"required"`
	Weekday         int       `json:"weekday" binding:"min=0,max=6"`
	StartTime       string    `json:"start_time" binding:"required,datetime=15:04"`
	EndTime         string    `json:"end_time" binding:"required,datetime=15:04"`
	MaxAppointments *int      `json:"max_appointments,omitempty"`
}

// CreateExceptionRequest declares a one-off off day.
type CreateExceptionRequest struct {
	DoctorID uuid.UUID         `json:"doctor_id" binding:"required"`
	ClinicID *uuid.UUID        `json:"clinic_id,omitempty"`
	Date     string            `json:"date" binding:"required,datetime=2006-01-02"`
	Category ExceptionCategory `json:"category" binding:"omitempty,oneof=holiday vacation emergency other"`
	Reason   string            `json:"reason,omitempty" binding:"max=200"`
}
