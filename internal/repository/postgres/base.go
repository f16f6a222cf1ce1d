package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/nobat/booking-api/internal/model"
)

// Name of the partial unique index on (doctor_id, date, time) excluding
// cancelled rows. A violation here is a lost booking race, not a fault.
const slotConstraintName = "unique_appointment_slot"

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// isSlotConflict reports whether err is the slot uniqueness constraint
// firing at commit time.
func isSlotConflict(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == slotConstraintName
}

// createOutboxEvent writes a notification event within a transaction so
// dispatch never observes a booking that failed to commit.
func (r *BaseRepository) createOutboxEvent(ctx context.Context, tx *sqlx.Tx, eventType string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, retry_count, created_at, updated_at
		) VALUES ($1, $2, $3, $4, 0, $5, $5)
	`
	now := time.Now()
	_, err = tx.ExecContext(ctx, query,
		uuid.New(),
		eventType,
		body,
		model.OutboxStatusPending,
		now,
	)
	return err
}
