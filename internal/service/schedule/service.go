package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nobat/booking-api/internal/model"
	"github.com/nobat/booking-api/internal/repository"
	apperrors "github.com/nobat/booking-api/pkg/errors"
	"github.com/nobat/booking-api/pkg/logger"
	"github.com/nobat/booking-api/pkg/metrics"
	"github.com/nobat/booking-api/pkg/weekday"
)

// Fallbacks applied when a doctor profile predates the settings columns.
const (
	DefaultVisitDuration = 15
	DefaultAdvanceDays   = 30
)

type Service struct {
	schedules    repository.ScheduleRepository
	exceptions   repository.ExceptionRepository
	doctors      repository.DoctorRepository
	appointments repository.AppointmentRepository
	logger       *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewService(schedules repository.ScheduleRepository, exceptions repository.ExceptionRepository, doctors repository.DoctorRepository, appointments repository.AppointmentRepository, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		schedules:    schedules,
		exceptions:   exceptions,
		doctors:      doctors,
		appointments: appointments,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

// CreateSchedule adds a weekly availability window after checking that it
// is well-formed and does not overlap an existing window on the same
// weekday at the same clinic.
func (s *Service) CreateSchedule(ctx context.Context, req *model.CreateScheduleRequest) (*model.WeeklySchedule, error) {
	start, err := parseMinutes(req.StartTime)
	if err != nil {
		return nil, apperrors.BadRequest("invalid start_time", err)
	}
	end, err := parseMinutes(req.EndTime)
	if err != nil {
		return nil, apperrors.BadRequest("invalid end_time", err)
	}
	if start >= end {
		return nil, apperrors.InvalidWindow
	}

	existing, err := s.schedules.ListForWeekday(ctx, req.DoctorID, req.ClinicID, req.Weekday)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	for _, w := range existing {
		ws, err := parseMinutes(w.StartTime)
		if err != nil {
			continue
		}
		we, err := parseMinutes(w.EndTime)
		if err != nil {
			continue
		}
		if start < we && ws < end {
			return nil, apperrors.ScheduleOverlap
		}
	}

	ws := &model.WeeklySchedule{
		DoctorID:        req.DoctorID,
		ClinicID:        req.ClinicID,
		Weekday:         req.Weekday,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		IsActive:        true,
		MaxAppointments: req.MaxAppointments,
	}
	ws.ID = uuid.New()
	if err := s.schedules.Create(ctx, ws); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	s.logger.Info("schedule window created",
		"doctor_id", req.DoctorID,
		"clinic_id", req.ClinicID,
		"weekday", weekday.Name(req.Weekday),
		"window", req.StartTime+"-"+req.EndTime,
	)
	return ws, nil
}

func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	return s.schedules.Delete(ctx, id)
}

func (s *Service) ListSchedules(ctx context.Context, doctorID, clinicID uuid.UUID) ([]*model.WeeklySchedule, error) {
	return s.schedules.ListForDoctor(ctx, doctorID, clinicID)
}

// CreateException marks a date off. Duplicate detection is scoped: a
// clinic-specific exception does not collide with a global one.
func (s *Service) CreateException(ctx context.Context, req *model.CreateExceptionRequest) (*model.ScheduleException, error) {
	date, err := time.Parse(model.DateOnly, req.Date)
	if err != nil {
		return nil, apperrors.BadRequest("invalid date", err)
	}

	exists, err := s.exceptions.Exists(ctx, req.DoctorID, req.ClinicID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check exception: %w", err)
	}
	if exists {
		return nil, apperrors.DuplicateException
	}

	category := req.Category
	if category == "" {
		category = model.ExceptionHoliday
	}
	ex := &model.ScheduleException{
		ID:       uuid.New(),
		DoctorID: req.DoctorID,
		ClinicID: req.ClinicID,
		Date:     date,
		Category: category,
	}
	if req.Reason != "" {
		ex.Reason = &req.Reason
	}
	if err := s.exceptions.Create(ctx, ex); err != nil {
		return nil, fmt.Errorf("failed to create exception: %w", err)
	}

	s.logger.Info("schedule exception created",
		"doctor_id", req.DoctorID,
		"date", req.Date,
		"category", string(category),
	)
	return ex, nil
}

func (s *Service) DeleteException(ctx context.Context, id uuid.UUID) error {
	return s.exceptions.Delete(ctx, id)
}

// GenerateSlots materializes the bookable slots for one doctor, clinic
// and date. Slot starts advance by visit duration plus gap; a slot whose
// full visit would not fit before the window end is dropped. An empty
// result means the doctor has no window on that weekday.
func (s *Service) GenerateSlots(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Slot, error) {
	begin := s.now()

	windows, err := s.schedules.ListForWeekday(ctx, doctorID, clinicID, weekday.FromDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	if len(windows) == 0 {
		return []*model.Slot{}, nil
	}

	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	link, err := s.doctors.GetLink(ctx, doctorID, clinicID)
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		link = nil
	}

	duration := link.EffectiveVisitDuration(doctor)
	if duration <= 0 {
		duration = DefaultVisitDuration
	}
	stride := duration + doctor.GapBetweenVisits

	booked, err := s.appointments.BookedTimes(ctx, doctorID, clinicID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked times: %w", err)
	}

	now := s.now()
	// Slots age out only on the current day; other dates are the
	// arbitrator's business.
	sameDay := date.Year() == now.Year() && date.Month() == now.Month() && date.Day() == now.Day()
	slots := make([]*model.Slot, 0, 32)
	for _, w := range windows {
		start, err := parseMinutes(w.StartTime)
		if err != nil {
			return nil, fmt.Errorf("malformed schedule window %s: %w", w.ID, err)
		}
		end, err := parseMinutes(w.EndTime)
		if err != nil {
			return nil, fmt.Errorf("malformed schedule window %s: %w", w.ID, err)
		}
		for m := start; m+duration <= end; m += stride {
			t := formatMinutes(m)
			slotStart := time.Date(date.Year(), date.Month(), date.Day(), m/60, m%60, 0, 0, date.Location())
			slot := &model.Slot{
				Time:     t,
				IsBooked: booked[t],
				IsPast:   sameDay && !slotStart.After(now),
			}
			slot.IsAvailable = !slot.IsBooked && !slot.IsPast
			slots = append(slots, slot)
		}
	}

	if s.metrics != nil {
		s.metrics.SlotGenerationTime.Observe(s.now().Sub(begin).Seconds())
	}
	return slots, nil
}

// ListOpenDates scans the booking horizon and returns the dates that
// still have coarse capacity. The horizon is capped by the doctor's
// max advance days; horizonDays below that narrows it further.
func (s *Service) ListOpenDates(ctx context.Context, doctorID, clinicID uuid.UUID, horizonDays int) ([]*model.OpenDate, error) {
	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	horizon := doctor.MaxAdvanceDays
	if horizon <= 0 {
		horizon = DefaultAdvanceDays
	}
	if horizonDays > 0 && horizonDays < horizon {
		horizon = horizonDays
	}

	all, err := s.schedules.ListForDoctor(ctx, doctorID, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	if len(all) == 0 {
		return []*model.OpenDate{}, nil
	}
	byWeekday := make(map[int][]*model.WeeklySchedule)
	for _, w := range all {
		byWeekday[w.Weekday] = append(byWeekday[w.Weekday], w)
	}

	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	blocked, err := s.exceptions.CoveredDates(ctx, doctorID, clinicID, today, today.AddDate(0, 0, horizon-1))
	if err != nil {
		return nil, fmt.Errorf("failed to load exceptions: %w", err)
	}

	open := make([]*model.OpenDate, 0, horizon)
	for i := 0; i < horizon; i++ {
		d := today.AddDate(0, 0, i)
		wd := weekday.FromDate(d)
		windows := byWeekday[wd]
		if len(windows) == 0 {
			continue
		}
		if blocked[d.Format(model.DateOnly)] {
			continue
		}

		max := dayCapacity(windows, doctor)
		bookedCount, err := s.appointments.CountForDay(ctx, doctorID, clinicID, d)
		if err != nil {
			return nil, fmt.Errorf("failed to count appointments: %w", err)
		}
		if max > 0 && bookedCount >= max {
			continue
		}

		od := &model.OpenDate{
			Date:            d,
			Weekday:         wd,
			WeekdayName:     weekday.Name(wd),
			IsToday:         i == 0,
			BookedCount:     bookedCount,
			MaxAppointments: max,
		}
		if max > 0 {
			od.Remaining = max - bookedCount
		}
		open = append(open, od)
	}
	return open, nil
}

// dayCapacity sums per-window overrides when present, else falls back to
// the doctor's daily cap. Zero means uncapped.
func dayCapacity(windows []*model.WeeklySchedule, doctor *model.Doctor) int {
	sum := 0
	overridden := false
	for _, w := range windows {
		if w.MaxAppointments != nil {
			sum += *w.MaxAppointments
			overridden = true
		}
	}
	if overridden {
		return sum
	}
	return doctor.MaxDailyAppointments
}

func parseMinutes(hhmm string) (int, error) {
	t, err := time.Parse(model.TimeOfDay, hhmm)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatMinutes(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
