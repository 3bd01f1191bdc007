// internal/infra/database/postgres_notification_repository.go
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"supplement_tracker/internal/domain/notification"
)

// Custom errors specific to notification repository
var ErrRunNotFound = errors.New("notification run not found")
var ErrDeliveryExists = errors.New("notification already delivered (user_id, supplement_id, kind, event_date, channel)")

type PostgresNotificationRepository struct {
	db *sql.DB
}

func NewPostgresNotificationRepository(db *sql.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

// --- Run Methods ---

func (r *PostgresNotificationRepository) CreateRun(ctx context.Context, run *notification.Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	query := `INSERT INTO notification_runs (id, run_date, started_at)
               VALUES ($1, $2, $3)`
	_, err := r.db.ExecContext(ctx, query, run.ID, dateOnly(run.RunDate), run.StartedAt)
	if err != nil {
		return fmt.Errorf("error creating notification run: %w", err)
	}
	return nil
}

func (r *PostgresNotificationRepository) FinishRun(ctx context.Context, run *notification.Run) error {
	if run.FinishedAt == nil {
		now := time.Now()
		run.FinishedAt = &now
	}
	query := `UPDATE notification_runs
               SET finished_at = $1, sent_count = $2, skipped_count = $3, failed_count = $4, error = $5
               WHERE id = $6`
	res, err := r.db.ExecContext(ctx, query, *run.FinishedAt, run.SentCount, run.SkippedCount, run.FailedCount, run.Error, run.ID)
	if err != nil {
		return fmt.Errorf("error finishing notification run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRunNotFound
	}
	return nil
}

const runColumns = `id, run_date, started_at, finished_at, sent_count, skipped_count, failed_count, error`

func scanRun(row interface{ Scan(...any) error }) (*notification.Run, error) {
	run := &notification.Run{}
	var finished sql.NullTime
	if err := row.Scan(&run.ID, &run.RunDate, &run.StartedAt, &finished, &run.SentCount, &run.SkippedCount, &run.FailedCount, &run.Error); err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return run, nil
}

func (r *PostgresNotificationRepository) GetRun(ctx context.Context, id uuid.UUID) (*notification.Run, error) {
	run, err := scanRun(r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM notification_runs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("error getting notification run: %w", err)
	}
	return run, nil
}

func (r *PostgresNotificationRepository) ListRecentRuns(ctx context.Context, limit int) ([]*notification.Run, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+runColumns+` FROM notification_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("error listing notification runs: %w", err)
	}
	defer rows.Close()

	runs := make([]*notification.Run, 0, limit)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning notification run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification runs: %w", err)
	}
	return runs, nil
}

// --- Delivery Methods ---

func (r *PostgresNotificationRepository) HasDelivery(ctx context.Context, userID, supplementID int64, kind notification.Kind, eventDate time.Time, channel notification.Channel) (bool, error) {
	query := `SELECT EXISTS (
                 SELECT 1 FROM notification_deliveries
                 WHERE user_id = $1 AND supplement_id = $2 AND kind = $3 AND event_date = $4 AND channel = $5)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, userID, supplementID, kind, dateOnly(eventDate), channel).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking notification delivery: %w", err)
	}
	return exists, nil
}

func (r *PostgresNotificationRepository) RecordDelivery(ctx context.Context, d *notification.Delivery) error {
	query := `INSERT INTO notification_deliveries (run_id, user_id, supplement_id, kind, event_date, channel, sent_at)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING id`
	if d.SentAt.IsZero() {
		d.SentAt = time.Now()
	}
	err := r.db.QueryRowContext(ctx, query, d.RunID, d.UserID, d.SupplementID, d.Kind, dateOnly(d.EventDate), d.Channel, d.SentAt).Scan(&d.ID)
	if err != nil {
		if isUniqueViolation(err, "notification_deliveries_unique") {
			return ErrDeliveryExists
		}
		return fmt.Errorf("error recording notification delivery: %w", err)
	}
	return nil
}

// dateOnly formats a civil day for a DATE column so the driver never
// shifts it through a session timezone.
func dateOnly(t time.Time) string {
	return t.Format("2006-01-02")
}
