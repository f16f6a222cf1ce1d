package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/nobat/booking-api/internal/model"
	apperrors "github.com/nobat/booking-api/pkg/errors"
)

const tariffColumns = `
	id, doctor_id, clinic_id, service_type_id, insurance_type_id, fee,
	deposit_required, deposit_amount, deposit_percent,
	online_payment_required, is_active, created_at, updated_at
`

// Find resolves the applicable tariff. Ordering clinic-specific rows
// first makes them shadow the clinic-null row in a single query.
func (r *tariffRepository) Find(ctx context.Context, doctorID, serviceTypeID, insuranceTypeID uuid.UUID, clinicID *uuid.UUID) (*model.Tariff, error) {
	query := `
		SELECT ` + tariffColumns + `
		FROM tariffs
		WHERE doctor_id = $1 AND service_type_id = $2 AND insurance_type_id = $3
		AND is_active
		AND (clinic_id IS NULL OR clinic_id = $4)
		ORDER BY clinic_id NULLS LAST
		LIMIT 1
	`
	var tariff model.Tariff
	err := r.db.GetContext(ctx, &tariff, query, doctorID, serviceTypeID, insuranceTypeID, clinicID)
	if err == sql.ErrNoRows {
		return nil, apperrors.TariffNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find tariff: %w", err)
	}
	return &tariff, nil
}

func (r *tariffRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID, clinicID *uuid.UUID) ([]*model.Tariff, error) {
	query := `
		SELECT ` + tariffColumns + `
		FROM tariffs
		WHERE doctor_id = $1 AND is_active
	`
	args := []interface{}{doctorID}

	if clinicID != nil {
		query += ` AND (clinic_id = $2 OR clinic_id IS NULL)`
		args = append(args, *clinicID)
	}

	query += ` ORDER BY created_at ASC`

	var tariffs []*model.Tariff
	if err := r.db.SelectContext(ctx, &tariffs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list tariffs: %w", err)
	}
	return tariffs, nil
}
