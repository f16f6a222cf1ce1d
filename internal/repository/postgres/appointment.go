package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/nobat/booking-api/internal/model"
	apperrors "github.com/nobat/booking-api/pkg/errors"
)

const appointmentColumns = `
	id, patient_id, doctor_id, clinic_id, service_type_id, insurance_type_id,
	tariff_id, tariff_fee, date, to_char(time, 'HH24:MI') AS time,
	queue_number, status, booking_source,
	payment_status, payment_amount, deposit_amount, paid_amount, patient_notes,
	created_by, arrived_at, visit_started_at, visited_at, cancelled_at,
	cancelled_by, cancel_reason, created_at, updated_at
`

// Create books the appointment inside one transaction. The doctor row is
// locked first so queue numbers are assigned serially per doctor; the
// partial unique index on (doctor_id, date, time) is the backstop for
// slot races and maps to SlotTaken.
func (r *appointmentRepository) Create(ctx context.Context, appt *model.Appointment) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		var doctorID uuid.UUID
		if err := tx.GetContext(ctx, &doctorID,
			`SELECT id FROM doctors WHERE id = $1 FOR UPDATE`, appt.DoctorID); err != nil {
			return fmt.Errorf("failed to lock doctor row: %w", err)
		}

		// Highest number ever assigned for the day, cancelled included:
		// ticket numbers stay stable and are never reused.
		var lastQueue int
		if err := tx.GetContext(ctx, &lastQueue, `
			SELECT COALESCE(MAX(queue_number), 0)
			FROM appointments
			WHERE doctor_id = $1 AND date = $2
		`, appt.DoctorID, appt.Date); err != nil {
			return fmt.Errorf("failed to compute queue number: %w", err)
		}
		appt.QueueNumber = lastQueue + 1

		appt.ID = uuid.New()
		appt.CreatedAt = time.Now()
		appt.UpdatedAt = appt.CreatedAt

		query := `
			INSERT INTO appointments (
				id, patient_id, doctor_id, clinic_id, service_type_id,
				insurance_type_id, tariff_id, tariff_fee, date, time,
				queue_number, status, booking_source, payment_status,
				payment_amount, deposit_amount, paid_amount, patient_notes,
				created_by, created_at, updated_at
			) VALUES (
				$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21
			)
		`
		_, err := tx.ExecContext(ctx, query,
			appt.ID,
			appt.PatientID,
			appt.DoctorID,
			appt.ClinicID,
			appt.ServiceTypeID,
			appt.InsuranceTypeID,
			appt.TariffID,
			appt.TariffFee,
			appt.Date,
			appt.Time,
			appt.QueueNumber,
			appt.Status,
			appt.BookingSource,
			appt.PaymentStatus,
			appt.PaymentAmount,
			appt.DepositAmount,
			appt.PaidAmount,
			appt.PatientNotes,
			appt.CreatedBy,
			appt.CreatedAt,
			appt.UpdatedAt,
		)
		if err != nil {
			if isSlotConflict(err) {
				return apperrors.SlotTaken
			}
			return fmt.Errorf("failed to create appointment: %w", err)
		}

		phone, err := r.patientPhone(ctx, tx, appt.PatientID)
		if err != nil {
			return err
		}
		return r.createOutboxEvent(ctx, tx, model.EventAppointmentBooked, appointmentEvent(appt, phone))
	})
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appt model.Appointment
	err := r.db.GetContext(ctx, &appt, query, id)
	if err == sql.ErrNoRows {
		return nil, apperrors.NotFound("appointment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appt, nil
}

func (r *appointmentRepository) ListForDay(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) ([]*model.Appointment, error) {
	query := `
		SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND clinic_id = $2 AND date = $3
		ORDER BY time ASC
	`
	var appts []*model.Appointment
	if err := r.db.SelectContext(ctx, &appts, query, doctorID, clinicID, date); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

func (r *appointmentRepository) BookedTimes(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) (map[string]bool, error) {
	query := `
		SELECT to_char(time, 'HH24:MI')
		FROM appointments
		WHERE doctor_id = $1 AND clinic_id = $2 AND date = $3
		AND status IN ('pending', 'confirmed', 'arrived', 'in_progress')
	`
	var times []string
	if err := r.db.SelectContext(ctx, &times, query, doctorID, clinicID, date); err != nil {
		return nil, fmt.Errorf("failed to get booked times: %w", err)
	}

	booked := make(map[string]bool, len(times))
	for _, t := range times {
		booked[t] = true
	}
	return booked, nil
}

func (r *appointmentRepository) CountForDay(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM appointments
		WHERE doctor_id = $1 AND clinic_id = $2 AND date = $3
		AND status != 'cancelled'
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, doctorID, clinicID, date); err != nil {
		return 0, fmt.Errorf("failed to count appointments: %w", err)
	}
	return count, nil
}

func (r *appointmentRepository) SlotHeld(ctx context.Context, doctorID uuid.UUID, date time.Time, slotTime string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE doctor_id = $1 AND date = $2 AND time = $3
			AND status != 'cancelled'
		)
	`
	var held bool
	if err := r.db.GetContext(ctx, &held, query, doctorID, date, slotTime); err != nil {
		return false, fmt.Errorf("failed to check slot: %w", err)
	}
	return held, nil
}

func (r *appointmentRepository) PatientHolds(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE patient_id = $1 AND doctor_id = $2 AND date = $3
			AND status != 'cancelled'
		)
	`
	var holds bool
	if err := r.db.GetContext(ctx, &holds, query, patientID, doctorID, date); err != nil {
		return false, fmt.Errorf("failed to check patient bookings: %w", err)
	}
	return holds, nil
}

func (r *appointmentRepository) CountAhead(ctx context.Context, doctorID, clinicID uuid.UUID, date time.Time, slotTime string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM appointments
		WHERE doctor_id = $1 AND clinic_id = $2 AND date = $3
		AND time < $4
		AND status NOT IN ('cancelled', 'visited', 'no_show')
	`
	var count int
	if err := r.db.GetContext(ctx, &count, query, doctorID, clinicID, date, slotTime); err != nil {
		return 0, fmt.Errorf("failed to count queue: %w", err)
	}
	return count, nil
}

// Transition applies a lifecycle action with the appointment row locked.
// start_visit first force-completes any other in_progress appointment for
// the same doctor and day so at most one patient is ever in progress.
func (r *appointmentRepository) Transition(ctx context.Context, id uuid.UUID, req *model.TransitionRequest, now time.Time) (*model.Appointment, error) {
	var appt model.Appointment

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &appt, query, id); err != nil {
			if err == sql.ErrNoRows {
				return apperrors.NotFound("appointment", err)
			}
			return fmt.Errorf("failed to lock appointment: %w", err)
		}

		if req.Action == model.ActionStartVisit {
			if err := r.demoteStaleInProgress(ctx, tx, &appt, now); err != nil {
				return err
			}
		}

		changes, err := appt.ApplyTransition(req.Action, now, req.Actor, req.Reason)
		if err != nil {
			return err
		}

		update := `
			UPDATE appointments
			SET status = $1, arrived_at = $2, visit_started_at = $3,
			    visited_at = $4, cancelled_at = $5, cancelled_by = $6,
			    cancel_reason = $7, updated_at = $8
			WHERE id = $9
		`
		if _, err := tx.ExecContext(ctx, update,
			appt.Status,
			appt.ArrivedAt,
			appt.VisitStartedAt,
			appt.VisitedAt,
			appt.CancelledAt,
			appt.CancelledBy,
			appt.CancelReason,
			appt.UpdatedAt,
			appt.ID,
		); err != nil {
			return fmt.Errorf("failed to update appointment: %w", err)
		}

		if err := r.insertHistory(ctx, tx, appt.ID, req.Actor, changes, now); err != nil {
			return err
		}

		phone, err := r.patientPhone(ctx, tx, appt.PatientID)
		if err != nil {
			return err
		}
		return r.createOutboxEvent(ctx, tx, model.EventAppointmentTransition, appointmentEvent(&appt, phone))
	})
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// demoteStaleInProgress force-transitions any other in_progress
// appointment for the doctor that day to visited.
func (r *appointmentRepository) demoteStaleInProgress(ctx context.Context, tx *sqlx.Tx, next *model.Appointment, now time.Time) error {
	var staleIDs []uuid.UUID
	query := `
		UPDATE appointments
		SET status = 'visited', visited_at = $1, updated_at = $1
		WHERE doctor_id = $2 AND date = $3 AND status = 'in_progress' AND id != $4
		RETURNING id
	`
	if err := tx.SelectContext(ctx, &staleIDs, query, now, next.DoctorID, next.Date, next.ID); err != nil {
		return fmt.Errorf("failed to complete stale visit: %w", err)
	}

	for _, staleID := range staleIDs {
		changes := []model.FieldChange{
			{Field: "status", OldValue: string(model.AppointmentStatusInProgress), NewValue: string(model.AppointmentStatusVisited)},
			{Field: "visited_at", NewValue: now.Format(time.RFC3339)},
		}
		if err := r.insertHistory(ctx, tx, staleID, nil, changes, now); err != nil {
			return err
		}
	}
	return nil
}

func (r *appointmentRepository) insertHistory(ctx context.Context, tx *sqlx.Tx, appointmentID uuid.UUID, actor *uuid.UUID, changes []model.FieldChange, now time.Time) error {
	query := `
		INSERT INTO appointment_history (
			id, appointment_id, changed_by, field_name, old_value, new_value, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	for _, ch := range changes {
		var oldVal, newVal *string
		if ch.OldValue != "" {
			v := ch.OldValue
			oldVal = &v
		}
		if ch.NewValue != "" {
			v := ch.NewValue
			newVal = &v
		}
		if _, err := tx.ExecContext(ctx, query,
			uuid.New(), appointmentID, actor, ch.Field, oldVal, newVal, now,
		); err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}
	}
	return nil
}

func (r *appointmentRepository) ListHistory(ctx context.Context, appointmentID uuid.UUID) ([]*model.AppointmentHistory, error) {
	query := `
		SELECT id, appointment_id, changed_by, field_name, old_value, new_value, created_at
		FROM appointment_history
		WHERE appointment_id = $1
		ORDER BY created_at DESC
	`
	var rows []*model.AppointmentHistory
	if err := r.db.SelectContext(ctx, &rows, query, appointmentID); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return rows, nil
}

// patientPhone reads the contact number notification payloads carry,
// within the booking or transition transaction.
func (r *appointmentRepository) patientPhone(ctx context.Context, tx *sqlx.Tx, patientID uuid.UUID) (string, error) {
	var phone string
	if err := tx.GetContext(ctx, &phone,
		`SELECT phone FROM patients WHERE id = $1`, patientID); err != nil {
		return "", fmt.Errorf("failed to read patient phone: %w", err)
	}
	return phone, nil
}

func appointmentEvent(appt *model.Appointment, patientPhone string) *model.AppointmentEvent {
	return &model.AppointmentEvent{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		DoctorID:      appt.DoctorID,
		ClinicID:      appt.ClinicID,
		Status:        appt.Status,
		Date:          appt.Date.Format(model.DateOnly),
		Time:          appt.Time,
		QueueNumber:   appt.QueueNumber,
		PatientPhone:  patientPhone,
	}
}
