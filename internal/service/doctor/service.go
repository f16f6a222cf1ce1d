package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/nobat/booking-api/internal/model"
	"github.com/nobat/booking-api/internal/repository"
	"github.com/nobat/booking-api/pkg/logger"
)

// Service exposes the doctor's booking settings and clinic assignments.
type Service struct {
	doctors repository.DoctorRepository
	logger  *logger.Logger
}

func NewService(doctors repository.DoctorRepository, logger *logger.Logger) *Service {
	return &Service{
		doctors: doctors,
		logger:  logger,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	return s.doctors.Get(ctx, id)
}

// ListClinics returns the doctor's active clinic links with the fee and
// duration each clinic resolves to, primary first.
func (s *Service) ListClinics(ctx context.Context, doctorID uuid.UUID) ([]*model.ClinicAssignment, error) {
	doctor, err := s.doctors.Get(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	links, err := s.doctors.ListLinks(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	assignments := make([]*model.ClinicAssignment, 0, len(links))
	for _, link := range links {
		assignments = append(assignments, &model.ClinicAssignment{
			DoctorClinicLink:       link,
			EffectiveVisitFee:      link.EffectiveVisitFee(doctor),
			EffectiveVisitDuration: link.EffectiveVisitDuration(doctor),
		})
	}
	return assignments, nil
}

// SetPrimaryClinic marks one clinic as the doctor's primary; the flag is
// cleared on every other link so exactly one link is primary.
func (s *Service) SetPrimaryClinic(ctx context.Context, doctorID, clinicID uuid.UUID) error {
	if _, err := s.doctors.Get(ctx, doctorID); err != nil {
		return err
	}
	if err := s.doctors.SetPrimaryLink(ctx, doctorID, clinicID); err != nil {
		return err
	}

	s.logger.Info("primary clinic changed",
		"doctor_id", doctorID,
		"clinic_id", clinicID,
	)
	return nil
}
