package doctor

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
	doctorID = uuid.New()
	clinicA  = uuid.New()
	clinicB  = uuid.New()
)

func newFixture() (*Service, *repositorytest.DoctorRepo) {
	doctors := repositorytest.NewDoctorRepo()
	doctors.Doctors[doctorID] = &model.Doctor{
		Base:          model.Base{ID: doctorID},
		VisitDuration: 15,
		VisitFee:      400_000,
		IsActive:      true,
	}
	doctors.Links = append(doctors.Links,
		&model.DoctorClinicLink{
			Base:      model.Base{ID: uuid.New()},
			DoctorID:  doctorID,
			ClinicID:  clinicA,
			IsPrimary: true,
			IsActive:  true,
		},
		&model.DoctorClinicLink{
			Base:     model.Base{ID: uuid.New()},
			DoctorID: doctorID,
			ClinicID: clinicB,
			IsActive: true,
		},
	)

	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	return NewService(doctors, log), doctors
}

func TestListClinicsResolvesEffectiveValues(t *testing.T) {
	svc, doctors := newFixture()
	customFee := int64(550_000)
	customDuration := 30
	doctors.Links[1].CustomVisitFee = &customFee
	doctors.Links[1].CustomVisitDuration = &customDuration

	assignments, err := svc.ListClinics(context.Background(), doctorID)
	require.NoError(t, err)
	require.Len(t, assignments, 2)

	assert.Equal(t, clinicA, assignments[0].ClinicID, "primary clinic listed first")
	assert.Equal(t, int64(400_000), assignments[0].EffectiveVisitFee)
	assert.Equal(t, 15, assignments[0].EffectiveVisitDuration)

	assert.Equal(t, clinicB, assignments[1].ClinicID)
	assert.Equal(t, int64(550_000), assignments[1].EffectiveVisitFee, "clinic override shadows doctor default")
	assert.Equal(t, 30, assignments[1].EffectiveVisitDuration)
}

func TestListClinicsSkipsInactiveLinks(t *testing.T) {
	svc, doctors := newFixture()
	doctors.Links[1].IsActive = false

	assignments, err := svc.ListClinics(context.Background(), doctorID)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, clinicA, assignments[0].ClinicID)
}

func TestSetPrimaryClinicClearsOthers(t *testing.T) {
	svc, doctors := newFixture()

	err := svc.SetPrimaryClinic(context.Background(), doctorID, clinicB)
	require.NoError(t, err)

	for _, link := range doctors.Links {
		assert.Equal(t, link.ClinicID == clinicB, link.IsPrimary, "exactly the new clinic is primary")
	}
}

func TestSetPrimaryClinicUnknownLink(t *testing.T) {
	svc, doctors := newFixture()

	err := svc.SetPrimaryClinic(context.Background(), doctorID, uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
	assert.True(t, doctors.Links[0].IsPrimary, "existing primary untouched on failure")
}

func TestSetPrimaryClinicUnknownDoctor(t *testing.T) {
	svc, _ := newFixture()

	err := svc.SetPrimaryClinic(context.Background(), uuid.New(), clinicA)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
