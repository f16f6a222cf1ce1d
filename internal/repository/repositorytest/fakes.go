// Package repositorytest provides map-backed implementations of the
// repository interfaces for service-level tests. The fakes mirror the
// postgres contracts: queue numbers are monotonic per doctor and day,
// the slot uniqueness rule ignores cancelled rows, and start_visit
// force-completes any other in-progress visit for the same doctor day.
package repositorytest

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/nobat/booking-api/internal/model"
	apperrors "github.com/nobat/booking-api/pkg/errors"
)

func dateKey(t time.Time) string { return t.Format(model.DateOnly) }

type DoctorRepo struct {
	Doctors map[uuid.UUID]*model.Doctor
	Links   []*model.DoctorClinicLink
}

func NewDoctorRepo() *DoctorRepo {
	return &DoctorRepo{Doctors: make(map[uuid.UUID]*model.Doctor)}
}

func (r *DoctorRepo) Get(_ context.Context, id uuid.UUID) (*model.Doctor, error) {
	d, ok := r.Doctors[id]
	if !ok {
		return nil, apperrors.NotFound("doctor", nil)
	}
	return d, nil
}

func (r *DoctorRepo) GetLink(_ context.Context, doctorID, clinicID uuid.UUID) (*model.DoctorClinicLink, error) {
	for _, l := range r.Links {
		if l.DoctorID == doctorID && l.ClinicID == clinicID && l.IsActive {
			return l, nil
		}
	}
	return nil, apperrors.NotFound("doctor clinic link", nil)
}

func (r *DoctorRepo) ListLinks(_ context.Context, doctorID uuid.UUID) ([]*model.DoctorClinicLink, error) {
	var out []*model.DoctorClinicLink
	for _, l := range r.Links {
		if l.DoctorID == doctorID && l.IsActive {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].IsPrimary && !out[j].IsPrimary
	})
	return out, nil
}

// SetPrimaryLink mirrors the transactional update: nothing changes when
// the target link does not exist.
func (r *DoctorRepo) SetPrimaryLink(_ context.Context, doctorID, clinicID uuid.UUID) error {
	var target *model.DoctorClinicLink
	for _, l := range r.Links {
		if l.DoctorID == doctorID && l.ClinicID == clinicID && l.IsActive {
			target = l
		}
	}
	if target == nil {
		return apperrors.NotFound("doctor clinic link", nil)
	}
	for _, l := range r.Links {
		if l.DoctorID == doctorID {
			l.IsPrimary = false
		}
	}
	target.IsPrimary = true
	return nil
}

type PatientRepo struct {
	Patients map[uuid.UUID]*model.Patient
}

func NewPatientRepo() *PatientRepo {
	return &PatientRepo{Patients: make(map[uuid.UUID]*model.Patient)}
}

func (r *PatientRepo) Get(_ context.Context, id uuid.UUID) (*model.Patient, error) {
	p, ok := r.Patients[id]
	if !ok {
		return nil, apperrors.NotFound("patient", nil)
	}
	return p, nil
}

type ScheduleRepo struct {
	Schedules []*model.WeeklySchedule
}

func NewScheduleRepo() *ScheduleRepo { return &ScheduleRepo{} }

func (r *ScheduleRepo) Create(_ context.Context, ws *model.WeeklySchedule) error {
	r.Schedules = append(r.Schedules, ws)
	return nil
}

func (r *ScheduleRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, w := range r.Schedules {
		if w.ID == id {
			r.Schedules = append(r.Schedules[:i], r.Schedules[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("schedule", nil)
}

func (r *ScheduleRepo) ListForWeekday(_ context.Context, doctorID, clinicID uuid.UUID, weekday int) ([]*model.WeeklySchedule, error) {
	var out []*model.WeeklySchedule
	for _, w := range r.Schedules {
		if w.DoctorID == doctorID && w.ClinicID == clinicID && w.Weekday == weekday && w.IsActive {
			out = append(out, w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r *ScheduleRepo) ListForDoctor(_ context.Context, doctorID, clinicID uuid.UUID) ([]*model.WeeklySchedule, error) {
	var out []*model.WeeklySchedule
	for _, w := range r.Schedules {
		if w.DoctorID == doctorID && w.ClinicID == clinicID && w.IsActive {
			out = append(out, w)
		}
	}
	return out, nil
}

type ExceptionRepo struct {
	Exceptions []*model.ScheduleException
}

func NewExceptionRepo() *ExceptionRepo { return &ExceptionRepo{} }

func (r *ExceptionRepo) Create(_ context.Context, ex *model.ScheduleException) error {
	r.Exceptions = append(r.Exceptions, ex)
	return nil
}

func (r *ExceptionRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, ex := range r.Exceptions {
		if ex.ID == id {
			r.Exceptions = append(r.Exceptions[:i], r.Exceptions[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("exception", nil)
}

func (r *ExceptionRepo) Covers(_ context.Context, doctorID, clinicID uuid.UUID, date time.Time) (bool, error) {
	for _, ex := range r.Exceptions {
		if ex.DoctorID != doctorID || dateKey(ex.Date) != dateKey(date) {
			continue
		}
		if ex.ClinicID == nil || *ex.ClinicID == clinicID {
			return true, nil
		}
	}
	return false, nil
}

func (r *ExceptionRepo) CoveredDates(_ context.Context, doctorID, clinicID uuid.UUID, from, to time.Time) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, ex := range r.Exceptions {
		if ex.DoctorID != doctorID {
			continue
		}
		if ex.ClinicID != nil && *ex.ClinicID != clinicID {
			continue
		}
		if ex.Date.Before(from) || ex.Date.After(to) {
			continue
		}
		out[dateKey(ex.Date)] = true
	}
	return out, nil
}

func (r *ExceptionRepo) Exists(_ context.Context, doctorID uuid.UUID, clinicID *uuid.UUID, date time.Time) (bool, error) {
	for _, ex := range r.Exceptions {
		if ex.DoctorID != doctorID || dateKey(ex.Date) != dateKey(date) {
			continue
		}
		if (ex.ClinicID == nil) != (clinicID == nil) {
			continue
		}
		if ex.ClinicID == nil || *ex.ClinicID == *clinicID {
			return true, nil
		}
	}
	return false, nil
}

type TariffRepo struct {
	Tariffs []*model.Tariff
}

func NewTariffRepo() *TariffRepo { return &TariffRepo{} }

// Find honors clinic shadowing: a clinic-specific row wins over a
// clinic-null row for the same triple.
func (r *TariffRepo) Find(_ context.Context, doctorID, serviceTypeID, insuranceTypeID uuid.UUID, clinicID *uuid.UUID) (*model.Tariff, error) {
	var global *model.Tariff
	for _, t := range r.Tariffs {
		if !t.IsActive || t.DoctorID != doctorID || t.ServiceTypeID != serviceTypeID || t.InsuranceTypeID != insuranceTypeID {
			continue
		}
		if t.ClinicID == nil {
			global = t
			continue
		}
		if clinicID != nil && *t.ClinicID == *clinicID {
			return t, nil
		}
	}
	if global != nil {
		return global, nil
	}
	return nil, apperrors.TariffNotFound
}

func (r *TariffRepo) ListForDoctor(_ context.Context, doctorID uuid.UUID, clinicID *uuid.UUID) ([]*model.Tariff, error) {
	var out []*model.Tariff
	for _, t := range r.Tariffs {
		if !t.IsActive || t.DoctorID != doctorID {
			continue
		}
		if clinicID != nil && t.ClinicID != nil && *t.ClinicID != *clinicID {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

type AppointmentRepo struct {
	Appointments map[uuid.UUID]*model.Appointment
	History      []*model.AppointmentHistory
}

func NewAppointmentRepo() *AppointmentRepo {
	return &AppointmentRepo{Appointments: make(map[uuid.UUID]*model.Appointment)}
}

func (r *AppointmentRepo) Create(_ context.Context, appt *model.Appointment) error {
	maxQueue := 0
	for _, a := range r.Appointments {
		if a.DoctorID != appt.DoctorID || dateKey(a.Date) != dateKey(appt.Date) {
			continue
		}
		if a.Time == appt.Time && a.Status != model.AppointmentStatusCancelled {
			return apperrors.SlotTaken
		}
		if a.QueueNumber > maxQueue {
			maxQueue = a.QueueNumber
		}
	}
	appt.QueueNumber = maxQueue + 1
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	r.Appointments[appt.ID] = appt
	return nil
}

func (r *AppointmentRepo) Get(_ context.Context, id uuid.UUID) (*model.Appointment, error) {
	a, ok := r.Appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}
	return a, nil
}

func (r *AppointmentRepo) ListForDay(_ context.Context, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, a := range r.Appointments {
		if a.DoctorID == doctorID && a.ClinicID == clinicID && dateKey(a.Date) == dateKey(date) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

func blocking(s model.AppointmentStatus) bool {
	for _, b := range model.BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

func (r *AppointmentRepo) BookedTimes(_ context.Context, doctorID, clinicID uuid.UUID, date time.Time) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, a := range r.Appointments {
		if a.DoctorID == doctorID && a.ClinicID == clinicID && dateKey(a.Date) == dateKey(date) && blocking(a.Status) {
			out[a.Time] = true
		}
	}
	return out, nil
}

func (r *AppointmentRepo) CountForDay(_ context.Context, doctorID, clinicID uuid.UUID, date time.Time) (int, error) {
	n := 0
	for _, a := range r.Appointments {
		if a.DoctorID == doctorID && a.ClinicID == clinicID && dateKey(a.Date) == dateKey(date) && a.Status != model.AppointmentStatusCancelled {
			n++
		}
	}
	return n, nil
}

func (r *AppointmentRepo) SlotHeld(_ context.Context, doctorID uuid.UUID, date time.Time, slotTime string) (bool, error) {
	for _, a := range r.Appointments {
		if a.DoctorID == doctorID && dateKey(a.Date) == dateKey(date) && a.Time == slotTime && a.Status != model.AppointmentStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *AppointmentRepo) PatientHolds(_ context.Context, patientID, doctorID uuid.UUID, date time.Time) (bool, error) {
	for _, a := range r.Appointments {
		if a.PatientID == patientID && a.DoctorID == doctorID && dateKey(a.Date) == dateKey(date) && a.Status != model.AppointmentStatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *AppointmentRepo) CountAhead(_ context.Context, doctorID, clinicID uuid.UUID, date time.Time, slotTime string) (int, error) {
	n := 0
	for _, a := range r.Appointments {
		if a.DoctorID != doctorID || a.ClinicID != clinicID || dateKey(a.Date) != dateKey(date) {
			continue
		}
		switch a.Status {
		case model.AppointmentStatusCancelled, model.AppointmentStatusVisited, model.AppointmentStatusNoShow:
			continue
		}
		if a.Time < slotTime {
			n++
		}
	}
	return n, nil
}

func (r *AppointmentRepo) Transition(ctx context.Context, id uuid.UUID, req *model.TransitionRequest, now time.Time) (*model.Appointment, error) {
	appt, ok := r.Appointments[id]
	if !ok {
		return nil, apperrors.NotFound("appointment", nil)
	}

	if req.Action == model.ActionStartVisit && appt.CanTransition(model.ActionStartVisit) {
		for _, other := range r.Appointments {
			if other.ID == id || other.DoctorID != appt.DoctorID || dateKey(other.Date) != dateKey(appt.Date) {
				continue
			}
			if other.Status == model.AppointmentStatusInProgress {
				other.Status = model.AppointmentStatusVisited
				other.VisitedAt = &now
				other.UpdatedAt = now
			}
		}
	}

	changes, err := appt.ApplyTransition(req.Action, now, req.Actor, req.Reason)
	if err != nil {
		return nil, err
	}
	for _, ch := range changes {
		h := &model.AppointmentHistory{
			ID:            uuid.New(),
			AppointmentID: id,
			ChangedBy:     req.Actor,
			FieldName:     ch.Field,
			CreatedAt:     now,
		}
		if ch.OldValue != "" {
			v := ch.OldValue
			h.OldValue = &v
		}
		if ch.NewValue != "" {
			v := ch.NewValue
			h.NewValue = &v
		}
		r.History = append(r.History, h)
	}
	return appt, nil
}

func (r *AppointmentRepo) ListHistory(_ context.Context, appointmentID uuid.UUID) ([]*model.AppointmentHistory, error) {
	var out []*model.AppointmentHistory
	for _, h := range r.History {
		if h.AppointmentID == appointmentID {
			out = append(out, h)
		}
	}
	return out, nil
}

type OutboxRepo struct {
	Events []*model.OutboxEvent
}

func NewOutboxRepo() *OutboxRepo { return &OutboxRepo{} }

func (r *OutboxRepo) Create(_ context.Context, event *model.OutboxEvent) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	r.Events = append(r.Events, event)
	return nil
}

func (r *OutboxRepo) GetPendingEventsWithLock(_ context.Context, limit int) ([]*model.OutboxEvent, error) {
	var out []*model.OutboxEvent
	for _, e := range r.Events {
		if e.Status == model.OutboxStatusPending {
			out = append(out, e)
			if len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func (r *OutboxRepo) MarkProcessed(_ context.Context, id uuid.UUID) error {
	for _, e := range r.Events {
		if e.ID == id {
			e.Status = model.OutboxStatusProcessed
			return nil
		}
	}
	return apperrors.NotFound("outbox event", nil)
}

func (r *OutboxRepo) MarkFailed(_ context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error {
	for _, e := range r.Events {
		if e.ID == id {
			if retryAt == nil {
				e.Status = model.OutboxStatusFailed
			} else {
				e.Status = model.OutboxStatusPending
				e.RetryAt = retryAt
			}
			e.RetryCount++
			e.ErrorMessage = &errMsg
			return nil
		}
	}
	return apperrors.NotFound("outbox event", nil)
}

func (r *OutboxRepo) DeleteProcessedBefore(_ context.Context, before time.Time) (int64, error) {
	kept := r.Events[:0]
	var n int64
	for _, e := range r.Events {
		if e.Status == model.OutboxStatusProcessed && e.CreatedAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, e)
	}
	r.Events = kept
	return n, nil
}
