package appointment

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
)

type Service struct {
	appointments repository.AppointmentRepository
	doctors      repository.DoctorRepository
	logger       *logger.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

func NewService(appointments repository.AppointmentRepository, doctors repository.DoctorRepository, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		appointments: appointments,
		doctors:      doctors,
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.appointments.Get(ctx, id)
}

func (s *Service) History(ctx context.Context, id uuid.UUID) ([]*model.AppointmentHistory, error) {
	return s.appointments.ListHistory(ctx, id)
}

// Transition applies one lifecycle action. Patient-initiated cancels are
// subject to the doctor's cancellation deadline; staff actions are not.
func (s *Service) Transition(ctx context.Context, id uuid.UUID, req *model.TransitionRequest) (*model.Appointment, error) {
	now := s.now()

	if req.Action == model.ActionCancel && req.ByPatient {
		if err := s.checkCancelDeadline(ctx, id, now); err != nil {
			s.countTransition(req.Action, "rejected")
			return nil, err
		}
	}

	appt, err := s.appointments.Transition(ctx, id, req, now)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrInvalidTransition) {
			s.countTransition(req.Action, "invalid")
		} else {
			s.countTransition(req.Action, "error")
		}
		return nil, err
	}
	s.countTransition(req.Action, "applied")

	s.logger.Info("appointment transitioned",
		"appointment_id", id,
		"action", string(req.Action),
		"status", string(appt.Status),
	)
	return appt, nil
}

func (s *Service) checkCancelDeadline(ctx context.Context, id uuid.UUID, now time.Time) error {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return err
	}
	doctor, err := s.doctors.Get(ctx, appt.DoctorID)
	if err != nil {
		return err
	}
	if doctor.MinCancelHours <= 0 {
		return nil
	}
	deadline := appt.Datetime(now.Location()).Add(-time.Duration(doctor.MinCancelHours) * time.Hour)
	if now.After(deadline) {
		return apperrors.CancelDeadline
	}
	return nil
}

func (s *Service) countTransition(action model.Action, result string) {
	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(action), result).Inc()
	}
}

// QueuePosition estimates the wait for one appointment from the live
// queue ahead of it. The estimate is recomputed on every call and holds
// no state.
func (s *Service) QueuePosition(ctx context.Context, id uuid.UUID) (*model.QueuePosition, error) {
	appt, err := s.appointments.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	ahead, err := s.appointments.CountAhead(ctx, appt.DoctorID, appt.ClinicID, appt.Date, appt.Time)
	if err != nil {
		return nil, fmt.Errorf("failed to count queue: %w", err)
	}

	doctor, err := s.doctors.Get(ctx, appt.DoctorID)
	if err != nil {
		return nil, err
	}
	var link *model.DoctorClinicLink
	if l, err := s.doctors.GetLink(ctx, appt.DoctorID, appt.ClinicID); err == nil {
		link = l
	}

	return &model.QueuePosition{
		AppointmentID:        id,
		QueueNumber:          appt.QueueNumber,
		AheadCount:           ahead,
		EstimatedWaitMinutes: ahead * doctor.SlotWidth(link),
	}, nil
}

// DaySummary aggregates one doctor day for a day-sheet view: per-status
// counts, waiting-room size and the visit currently in progress.
func (s *Service) DaySummary(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) (*model.DaySummary, error) {
	appts, err := s.appointments.ListForDay(ctx, doctorID, clinicID, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	summary := &model.DaySummary{
		Date:   date,
		Counts: make(map[model.AppointmentStatus]int),
	}
	for _, a := range appts {
		summary.Counts[a.Status]++
		switch a.Status {
		case model.AppointmentStatusArrived:
			summary.Waiting++
		case model.AppointmentStatusInProgress:
			summary.InProgress = a
		}
	}
	return summary, nil
}

func (s *Service) ListForDay(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	return s.appointments.ListForDay(ctx, doctorID, clinicID, date)
}
