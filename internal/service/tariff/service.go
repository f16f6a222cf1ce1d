package tariff

import (
	"context"

	"github.com/google/uuid"

	"github.com/nobat/booking-api/internal/model"
	"github.com/nobat/booking-api/internal/repository"
	apperrors "github.com/nobat/booking-api/pkg/errors"
	"github.com/nobat/booking-api/pkg/logger"
	"github.com/nobat/booking-api/pkg/metrics"
)

type Service struct {
	tariffs repository.TariffRepository
	doctors repository.DoctorRepository
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewService(tariffs repository.TariffRepository, doctors repository.DoctorRepository, logger *logger.Logger, metrics *metrics.Metrics) *Service {
	return &Service{
		tariffs: tariffs,
		doctors: doctors,
		logger:  logger,
		metrics: metrics,
	}
}

// Resolve finds the tariff for a (doctor, service, insurance) triple at a
// clinic. A clinic-specific tariff shadows the doctor-wide one.
func (s *Service) Resolve(ctx context.Context, doctorID, serviceTypeID, insuranceTypeID uuid.UUID, clinicID *uuid.UUID) (*model.Tariff, error) {
	return s.tariffs.Find(ctx, doctorID, serviceTypeID, insuranceTypeID, clinicID)
}

// Quote prices a prospective booking. When no tariff matches, or the
// booking carries no service and insurance selection, pricing falls back
// to the doctor's flat visit fee with the profile deposit percentage.
func (s *Service) Quote(ctx context.Context, doctor *model.Doctor, link *model.DoctorClinicLink, serviceTypeID, insuranceTypeID *uuid.UUID, clinicID uuid.UUID) (*model.Quote, error) {
	if serviceTypeID != nil && insuranceTypeID != nil {
		tariff, err := s.Resolve(ctx, doctor.ID, *serviceTypeID, *insuranceTypeID, &clinicID)
		if err == nil {
			return &model.Quote{
				TariffID:              &tariff.ID,
				Fee:                   tariff.Fee,
				DepositAmount:         tariff.Deposit(),
				OnlinePaymentRequired: tariff.OnlinePaymentRequired,
			}, nil
		}
		if !apperrors.Is(err, apperrors.ErrTariffNotFound) {
			return nil, err
		}
		s.logger.Warn("no tariff matched, using flat visit fee",
			"doctor_id", doctor.ID,
			"service_type_id", *serviceTypeID,
			"insurance_type_id", *insuranceTypeID,
		)
		if s.metrics != nil {
			s.metrics.TariffFallbacks.Inc()
		}
	}

	fee := link.EffectiveVisitFee(doctor)
	quote := &model.Quote{Fee: fee, FlatFallback: true}
	if doctor.DepositPercent > 0 {
		quote.DepositAmount = fee * int64(doctor.DepositPercent) / 100
	}
	return quote, nil
}

// ListForDoctor returns the active tariffs configured for a doctor,
// optionally narrowed to one clinic scope.
func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, clinicID *uuid.UUID) ([]*model.Tariff, error) {
	return s.tariffs.ListForDoctor(ctx, doctorID, clinicID)
}
