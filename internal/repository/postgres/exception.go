package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nobat/booking-api/internal/model"
)

func (r *exceptionRepository) Create(ctx context.Context, ex *model.ScheduleException) error {
	query := `
		INSERT INTO schedule_exceptions (
			id, doctor_id, clinic_id, date, category, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	ex.ID = uuid.New()
	ex.CreatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		ex.ID,
		ex.DoctorID,
		ex.ClinicID,
		ex.Date,
		ex.Category,
		ex.Reason,
		ex.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create exception: %w", err)
	}
	return nil
}

func (r *exceptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM schedule_exceptions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete exception: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("exception not found")
	}
	return nil
}

func (r *exceptionRepository) Covers(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM schedule_exceptions
			WHERE doctor_id = $1 AND date = $2
			AND (clinic_id = $3 OR clinic_id IS NULL)
		)
	`
	var covered bool
	if err := r.db.GetContext(ctx, &covered, query, doctorID, date, clinicID); err != nil {
		return false, fmt.Errorf("failed to check exceptions: %w", err)
	}
	return covered, nil
}

func (r *exceptionRepository) CoveredDates(ctx context.Context, doctorID, clinicID uuid.UUID, from, to time.Time) (map[string]bool, error) {
	query := `
		SELECT to_char(date, 'YYYY-MM-DD')
		FROM schedule_exceptions
		WHERE doctor_id = $1 AND date >= $2 AND date <= $3
		AND (clinic_id = $4 OR clinic_id IS NULL)
	`
	var dates []string
	if err := r.db.SelectContext(ctx, &dates, query, doctorID, from, to, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list exception dates: %w", err)
	}

	covered := make(map[string]bool, len(dates))
	for _, d := range dates {
		covered[d] = true
	}
	return covered, nil
}

func (r *exceptionRepository) Exists(ctx context.Context, doctorID uuid.UUID, clinicID *uuid.UUID, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM schedule_exceptions
			WHERE doctor_id = $1 AND date = $2
			AND clinic_id IS NOT DISTINCT FROM $3
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, doctorID, date, clinicID); err != nil {
		return false, fmt.Errorf("failed to check duplicate exception: %w", err)
	}
	return exists, nil
}
