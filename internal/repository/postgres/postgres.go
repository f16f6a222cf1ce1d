package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/nobat/booking-api/internal/repository"
)

type doctorRepository struct {
	BaseRepository
}

type patientRepository struct {
	BaseRepository
}

type scheduleRepository struct {
	BaseRepository
}

type exceptionRepository struct {
	BaseRepository
}

type tariffRepository struct {
	BaseRepository
}

type appointmentRepository struct {
	BaseRepository
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{NewBaseRepository(db)}
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{NewBaseRepository(db)}
}

func NewScheduleRepository(db *sqlx.DB) repository.ScheduleRepository {
	return &scheduleRepository{NewBaseRepository(db)}
}

func NewExceptionRepository(db *sqlx.DB) repository.ExceptionRepository {
	return &exceptionRepository{NewBaseRepository(db)}
}

func NewTariffRepository(db *sqlx.DB) repository.TariffRepository {
	return &tariffRepository{NewBaseRepository(db)}
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{NewBaseRepository(db)}
}
