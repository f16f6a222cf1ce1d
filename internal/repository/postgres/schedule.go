package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nobat/booking-api/internal/model"
)

func (r *scheduleRepository) Create(ctx context.Context, ws *model.WeeklySchedule) error {
	query := `
		INSERT INTO weekly_schedules (
			id, doctor_id, clinic_id, weekday, start_time, end_time,
			is_active, max_appointments, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	ws.ID = uuid.New()
	ws.CreatedAt = time.Now()
	ws.UpdatedAt = ws.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		ws.ID,
		ws.DoctorID,
		ws.ClinicID,
		ws.Weekday,
		ws.StartTime,
		ws.EndTime,
		ws.IsActive,
		ws.MaxAppointments,
		ws.CreatedAt,
		ws.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM weekly_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("schedule not found")
	}
	return nil
}

const scheduleColumns = `
	id, doctor_id, clinic_id, weekday,
	to_char(start_time, 'HH24:MI') AS start_time,
	to_char(end_time, 'HH24:MI') AS end_time,
	is_active, max_appointments, created_at, updated_at
`

func (r *scheduleRepository) ListForWeekday(ctx context.Context, doctorID, clinicID uuid.UUID, weekday int) ([]*model.WeeklySchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM weekly_schedules
		WHERE doctor_id = $1 AND clinic_id = $2 AND weekday = $3 AND is_active
		ORDER BY start_time ASC
	`
	var schedules []*model.WeeklySchedule
	if err := r.db.SelectContext(ctx, &schedules, query, doctorID, clinicID, weekday); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) ListForDoctor(ctx context.Context, doctorID, clinicID uuid.UUID) ([]*model.WeeklySchedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM weekly_schedules
		WHERE doctor_id = $1 AND clinic_id = $2 AND is_active
		ORDER BY weekday ASC, start_time ASC
	`
	var schedules []*model.WeeklySchedule
	if err := r.db.SelectContext(ctx, &schedules, query, doctorID, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}
