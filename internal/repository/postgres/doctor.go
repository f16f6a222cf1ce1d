package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nobat/booking-api/internal/model"
	apperrors "github.com/nobat/booking-api/pkg/errors"
)

func (r *doctorRepository) Get(ctx context.Context, id uuid.UUID) (*model.Doctor, error) {
	query := `
		SELECT id, user_id, specialization, medical_code, visit_duration,
			   gap_between_visits, max_daily_appointments, max_advance_days,
			   min_cancel_hours, visit_fee, deposit_percent, is_active,
			   allows_online_booking, created_at, updated_at
		FROM doctors
		WHERE id = $1 AND is_active
	`
	var doctor model.Doctor
	err := r.db.GetContext(ctx, &doctor, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("doctor", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

const linkColumns = `
	id, doctor_id, clinic_id, is_primary, room_number,
	custom_visit_fee, custom_visit_duration, is_active, created_at, updated_at
`

func (r *doctorRepository) GetLink(ctx context.Context, doctorID, clinicID uuid.UUID) (*model.DoctorClinicLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM doctor_clinic_links
		WHERE doctor_id = $1 AND clinic_id = $2 AND is_active
	`
	var link model.DoctorClinicLink
	err := r.db.GetContext(ctx, &link, query, doctorID, clinicID)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("doctor clinic link", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clinic link: %w", err)
	}
	return &link, nil
}

func (r *doctorRepository) ListLinks(ctx context.Context, doctorID uuid.UUID) ([]*model.DoctorClinicLink, error) {
	query := `
		SELECT ` + linkColumns + `
		FROM doctor_clinic_links
		WHERE doctor_id = $1 AND is_active
		ORDER BY is_primary DESC, created_at ASC
	`
	var links []*model.DoctorClinicLink
	if err := r.db.SelectContext(ctx, &links, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list clinic links: %w", err)
	}
	return links, nil
}

// SetPrimaryLink marks one link primary and clears the flag on all the
// doctor's other links in the same transaction.
func (r *doctorRepository) SetPrimaryLink(ctx context.Context, doctorID, clinicID uuid.UUID) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`UPDATE doctor_clinic_links SET is_primary = false WHERE doctor_id = $1`,
			doctorID,
		); err != nil {
			return fmt.Errorf("failed to clear primary links: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE doctor_clinic_links SET is_primary = true WHERE doctor_id = $1 AND clinic_id = $2 AND is_active`,
			doctorID, clinicID,
		)
		if err != nil {
			return fmt.Errorf("failed to set primary link: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return apperrors.NotFound("doctor clinic link", nil)
		}
		return nil
	})
}

func (r *patientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Patient, error) {
	query := `
		SELECT id, first_name, last_name, phone, created_at, updated_at
		FROM patients
		WHERE id = $1
	`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("patient", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}
