package model

import (
	"github.com/google/uuid"
)

// Doctor carries only the booking-relevant settings; profile CRUD lives
// in a separate collaborator service.
type Doctor struct {
	Base
	UserID               uuid.UUID `db:"user_id" json:"user_id"`
	Specialization       string    `db:"specialization" json:"specialization"`
	MedicalCode          string    `db:"medical_code" json:"medical_code"`
	VisitDuration        int       `db:"visit_duration" json:"visit_duration"`
	GapBetweenVisits     int       `db:"gap_between_visits" json:"gap_between_visits"`
	MaxDailyAppointments int       `db:"max_daily_appointments" json:"max_daily_appointments"`
	MaxAdvanceDays       int       `db:"max_advance_days" json:"max_advance_days"`
	MinCancelHours       int       `db:"min_cancel_hours" json:"min_cancel_hours"`
	VisitFee             int64     `db:"visit_fee" json:"visit_fee"`
	DepositPercent       int       `db:"deposit_percent" json:"deposit_percent"`
	IsActive             bool      `db:"is_active" json:"is_active"`
	AllowsOnlineBooking  bool      `db:"allows_online_booking" json:"allows_online_booking"`
}

// SlotWidth is the stride between consecutive slot starts at the given
// clinic, in minutes. A nil link means no clinic overrides apply.
func (d *Doctor) SlotWidth(link *DoctorClinicLink) int {
	return link.EffectiveVisitDuration(d) + d.GapBetweenVisits
}

// DoctorClinicLink ties a doctor to a clinic with optional per-clinic
// overrides of the doctor defaults.
type DoctorClinicLink struct {
	Base
	DoctorID            uuid.UUID `db:"doctor_id" json:"doctor_id"`
	ClinicID            uuid.UUID `db:"clinic_id" json:"clinic_id"`
	IsPrimary           bool      `db:"is_primary" json:"is_primary"`
	RoomNumber          *string   `db:"room_number" json:"room_number,omitempty"`
	CustomVisitFee      *int64    `db:"custom_visit_fee" json:"custom_visit_fee,omitempty"`
	CustomVisitDuration *int      `db:"custom_visit_duration" json:"custom_visit_duration,omitempty"`
	IsActive            bool      `db:"is_active" json:"is_active"`
}

// ClinicAssignment is the management view of one clinic link, carrying
// the effective values bookings at that clinic will use.
type ClinicAssignment struct {
	*DoctorClinicLink
	EffectiveVisitFee      int64 `json:"effective_visit_fee"`
	EffectiveVisitDuration int   `json:"effective_visit_duration"`
}

// EffectiveVisitFee returns the clinic override when set, else the doctor default.
func (l *DoctorClinicLink) EffectiveVisitFee(d *Doctor) int64 {
	if l != nil && l.CustomVisitFee != nil {
		return *l.CustomVisitFee
	}
	return d.VisitFee
}

// EffectiveVisitDuration returns the clinic override when set, else the doctor default.
func (l *DoctorClinicLink) EffectiveVisitDuration(d *Doctor) int {
	if l != nil && l.CustomVisitDuration != nil {
		return *l.CustomVisitDuration
	}
	return d.VisitDuration
}
