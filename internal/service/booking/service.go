package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/nobat/booking-api/internal/model"
	"github.com/nobat/booking-api/internal/repository"
	"github.com/nobat/booking-api/internal/service/tariff"
	apperrors "github.com/nobat/booking-api/pkg/errors"
	"github.com/nobat/booking-api/pkg/logger"
	"github.com/nobat/booking-api/pkg/metrics"
	"github.com/nobat/booking-api/pkg/weekday"
)

// Service arbitrates booking requests. Validation runs optimistically
// outside the storage transaction; the partial unique index on
// (doctor, date, time) is the authority when two requests race, and the
// repository surfaces that as SlotTaken.
type Service struct {
	doctors      repository.DoctorRepository
	patients     repository.PatientRepository
	schedules    repository.ScheduleRepository
	exceptions   repository.ExceptionRepository
	appointments repository.AppointmentRepository
	tariffs      *tariff.Service
	logger       *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewService(doctors repository.DoctorRepository, patients repository.PatientRepository, schedules repository.ScheduleRepository, exceptions repository.ExceptionRepository, appointments repository.AppointmentRepository, tariffs *tariff.Service, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		doctors:      doctors,
		patients:     patients,
		schedules:    schedules,
		exceptions:   exceptions,
		appointments: appointments,
		tariffs:      tariffs,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

// Book validates and creates one appointment. The checks run in a fixed
// order so a request failing several rules always reports the same one.
func (s *Service) Book(ctx context.Context, req *model.BookingRequest) (*model.Appointment, error) {
	appt, err := s.book(ctx, req)
	if s.metrics != nil {
		s.metrics.BookingAttempts.WithLabelValues(outcomeLabel(err)).Inc()
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID,
		"doctor_id", appt.DoctorID,
		"patient_id", appt.PatientID,
		"date", appt.Date.Format(model.DateOnly),
		"time", appt.Time,
		"queue_number", appt.QueueNumber,
		"source", string(appt.BookingSource),
	)
	return appt, nil
}

func (s *Service) book(ctx context.Context, req *model.BookingRequest) (*model.Appointment, error) {
	source := req.Source
	if source == "" {
		source = model.BookingSourceOnline
	}

	doctor, err := s.doctors.Get(ctx, req.DoctorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.patients.Get(ctx, req.PatientID); err != nil {
		return nil, err
	}

	link, err := s.doctors.GetLink(ctx, req.DoctorID, req.ClinicID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ClinicNotLinked
		}
		return nil, err
	}

	date, err := time.Parse(model.DateOnly, req.Date)
	if err != nil {
		return nil, apperrors.BadRequest("invalid date", err)
	}
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if date.Before(today) {
		return nil, apperrors.PastDate
	}

	if source == model.BookingSourceOnline && !doctor.AllowsOnlineBooking {
		return nil, apperrors.DoctorUnavailable
	}

	blocked, err := s.exceptions.Covers(ctx, req.DoctorID, req.ClinicID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check exceptions: %w", err)
	}
	if blocked {
		return nil, apperrors.DoctorUnavailable
	}

	windows, err := s.schedules.ListForWeekday(ctx, req.DoctorID, req.ClinicID, weekday.FromDate(date))
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	if len(windows) == 0 {
		return nil, apperrors.NoScheduleForDay
	}

	held, err := s.appointments.SlotHeld(ctx, req.DoctorID, date, req.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to check slot: %w", err)
	}
	if held {
		return nil, apperrors.SlotTaken
	}

	count, err := s.appointments.CountForDay(ctx, req.DoctorID, req.ClinicID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to count appointments: %w", err)
	}
	if max := dayCapacity(windows, doctor); max > 0 && count >= max {
		return nil, apperrors.DayFull
	}

	duplicate, err := s.appointments.PatientHolds(ctx, req.PatientID, req.DoctorID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to check patient bookings: %w", err)
	}
	if duplicate {
		return nil, apperrors.DuplicatePatientBooking
	}

	quote, err := s.tariffs.Quote(ctx, doctor, link, req.ServiceTypeID, req.InsuranceTypeID, req.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to price booking: %w", err)
	}

	appt := &model.Appointment{
		PatientID:       req.PatientID,
		DoctorID:        req.DoctorID,
		ClinicID:        req.ClinicID,
		ServiceTypeID:   req.ServiceTypeID,
		InsuranceTypeID: req.InsuranceTypeID,
		TariffID:        quote.TariffID,
		TariffFee:       quote.Fee,
		Date:            date,
		Time:            req.Time,
		Status:          model.AppointmentStatusPending,
		BookingSource:   source,
		PaymentStatus:   model.PaymentStatusUnpaid,
		PaymentAmount:   quote.Fee,
		DepositAmount:   quote.DepositAmount,
		CreatedBy:       req.CreatedBy,
	}
	if req.StaffBooked() {
		appt.Status = model.AppointmentStatusConfirmed
	}
	if req.PatientNotes != "" {
		notes := req.PatientNotes
		appt.PatientNotes = &notes
	}
	appt.CreatedAt = now
	appt.UpdatedAt = now

	if err := s.appointments.Create(ctx, appt); err != nil {
		if apperrors.Is(err, apperrors.ErrSlotTaken) && s.metrics != nil {
			s.metrics.SlotConflictRetries.Inc()
		}
		return nil, err
	}
	return appt, nil
}

// outcomeLabel collapses an error into the metric label space.
func outcomeLabel(err error) string {
	if err == nil {
		return "created"
	}
	switch apperrors.Code(err) {
	case apperrors.ErrClinicNotLinked:
		return "clinic_not_linked"
	case apperrors.ErrPastDate:
		return "past_date"
	case apperrors.ErrDoctorUnavailable:
		return "doctor_unavailable"
	case apperrors.ErrNoScheduleForDay:
		return "no_schedule"
	case apperrors.ErrSlotTaken:
		return "slot_taken"
	case apperrors.ErrDayFull:
		return "day_full"
	case apperrors.ErrDuplicatePatientBooking:
		return "duplicate_patient"
	}
	return "error"
}

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
