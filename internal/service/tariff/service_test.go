package tariff

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nobat/booking-api/internal/model"
	"github.com/nobat/booking-api/internal/repository/repositorytest"
	apperrors "github.com/nobat/booking-api/pkg/errors"
	"github.com/nobat/booking-api/pkg/logger"
)

var (
	doctorID    = uuid.New()
	clinicID    = uuid.New()
	serviceID   = uuid.New()
	insuranceID = uuid.New()
)

func newTestService() (*Service, *repositorytest.TariffRepo, *repositorytest.DoctorRepo) {
	tariffs := repositorytest.NewTariffRepo()
	doctors := repositorytest.NewDoctorRepo()
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewService(tariffs, doctors, log, nil), tariffs, doctors
}

func addTariff(tariffs *repositorytest.TariffRepo, clinic *uuid.UUID, fee int64) *model.Tariff {
	t := &model.Tariff{
		Base:            model.Base{ID: uuid.New()},
		DoctorID:        doctorID,
		ClinicID:        clinic,
		ServiceTypeID:   serviceID,
		InsuranceTypeID: insuranceID,
		Fee:             fee,
		IsActive:        true,
	}
	tariffs.Tariffs = append(tariffs.Tariffs, t)
	return t
}

func TestResolveClinicShadowsGlobal(t *testing.T) {
	svc, tariffs, _ := newTestService()
	global := addTariff(tariffs, nil, 500_000)
	specific := addTariff(tariffs, &clinicID, 700_000)

	got, err := svc.Resolve(context.Background(), doctorID, serviceID, insuranceID, &clinicID)
	require.NoError(t, err)
	assert.Equal(t, specific.ID, got.ID)

	// Another clinic falls back to the doctor-wide row.
	other := uuid.New()
	got, err = svc.Resolve(context.Background(), doctorID, serviceID, insuranceID, &other)
	require.NoError(t, err)
	assert.Equal(t, global.ID, got.ID)
}

func TestResolveNotFound(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Resolve(context.Background(), doctorID, serviceID, insuranceID, &clinicID)
	assert.True(t, apperrors.Is(err, apperrors.ErrTariffNotFound))
}

func TestTariffDeposit(t *testing.T) {
	fixed := &model.Tariff{Fee: 900_000, DepositRequired: true, DepositAmount: 150_000, DepositPercent: 30}
	assert.Equal(t, int64(150_000), fixed.Deposit(), "fixed amount wins over percent")

	percent := &model.Tariff{Fee: 333_333, DepositRequired: true, DepositPercent: 30}
	assert.Equal(t, int64(99_999), percent.Deposit(), "percent deposit truncates")

	optional := &model.Tariff{Fee: 900_000, DepositAmount: 150_000}
	assert.Zero(t, optional.Deposit(), "no deposit when not required")
}

func TestQuoteUsesTariff(t *testing.T) {
	svc, tariffs, _ := newTestService()
	tr := addTariff(tariffs, &clinicID, 700_000)
	tr.DepositRequired = true
	tr.DepositPercent = 20
	tr.OnlinePaymentRequired = true

	doctor := &model.Doctor{Base: model.Base{ID: doctorID}, VisitFee: 400_000}
	quote, err := svc.Quote(context.Background(), doctor, nil, &serviceID, &insuranceID, clinicID)
	require.NoError(t, err)

	assert.Equal(t, tr.ID, *quote.TariffID)
	assert.Equal(t, int64(700_000), quote.Fee)
	assert.Equal(t, int64(140_000), quote.DepositAmount)
	assert.True(t, quote.OnlinePaymentRequired)
	assert.False(t, quote.FlatFallback)
}

func TestQuoteFlatFallback(t *testing.T) {
	svc, _, _ := newTestService()
	doctor := &model.Doctor{Base: model.Base{ID: doctorID}, VisitFee: 400_000, DepositPercent: 25}

	// No tariff configured for the selection.
	quote, err := svc.Quote(context.Background(), doctor, nil, &serviceID, &insuranceID, clinicID)
	require.NoError(t, err)
	assert.True(t, quote.FlatFallback)
	assert.Nil(t, quote.TariffID)
	assert.Equal(t, int64(400_000), quote.Fee)
	assert.Equal(t, int64(100_000), quote.DepositAmount)

	// No selection at all skips tariff lookup entirely.
	quote, err = svc.Quote(context.Background(), doctor, nil, nil, nil, clinicID)
	require.NoError(t, err)
	assert.True(t, quote.FlatFallback)
	assert.Equal(t, int64(400_000), quote.Fee)
}

func TestQuoteClinicFeeOverride(t *testing.T) {
	svc, _, _ := newTestService()
	doctor := &model.Doctor{Base: model.Base{ID: doctorID}, VisitFee: 400_000}
	customFee := int64(550_000)
	link := &model.DoctorClinicLink{DoctorID: doctorID, ClinicID: clinicID, CustomVisitFee: &customFee, IsActive: true}

	quote, err := svc.Quote(context.Background(), doctor, link, nil, nil, clinicID)
	require.NoError(t, err)
	assert.Equal(t, customFee, quote.Fee)
}
