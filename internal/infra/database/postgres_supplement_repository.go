package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq" // For pq.Array

	"supplement_tracker/internal/domain/supplement"
)

var ErrSupplementNotFound = errors.New("supplement not found")

// Supplement rows are read together with the owner's timezone, which the
// document decoder needs to turn stored timestamps into calendar days.
const supplementSelect = `SELECT s.id, s.user_id, s.name, s.doc, u.timezone, s.created_at, s.updated_at
               FROM supplements s JOIN users u ON u.id = s.user_id`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface{ Scan(...any) error }

type PostgresSupplementRepository struct {
	db              *sql.DB
	defaultTimezone string
}

func NewPostgresSupplementRepository(db *sql.DB, defaultTimezone string) *PostgresSupplementRepository {
	return &PostgresSupplementRepository{db: db, defaultTimezone: defaultTimezone}
}

func (r *PostgresSupplementRepository) scan(row rowScanner) (*supplement.Supplement, error) {
	s := &supplement.Supplement{}
	var doc []byte
	var tz string
	if err := row.Scan(&s.ID, &s.UserID, &s.Name, &doc, &tz, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	if tz == "" {
		tz = r.defaultTimezone
	}
	decodeSupplementDoc(doc, tz, s)
	return s, nil
}

func (r *PostgresSupplementRepository) Create(ctx context.Context, s *supplement.Supplement) error {
	doc, err := encodeSupplementDoc(s)
	if err != nil {
		return err
	}
	query := `INSERT INTO supplements (user_id, name, doc)
               VALUES ($1, $2, $3)
               RETURNING id, created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query, s.UserID, s.Name, doc).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating supplement: %w", err)
	}
	return nil
}

func (r *PostgresSupplementRepository) GetByID(ctx context.Context, id int64) (*supplement.Supplement, error) {
	s, err := r.scan(r.db.QueryRowContext(ctx, supplementSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSupplementNotFound
		}
		return nil, fmt.Errorf("error getting supplement by ID: %w", err)
	}
	return s, nil
}

func (r *PostgresSupplementRepository) Update(ctx context.Context, s *supplement.Supplement) error {
	doc, err := encodeSupplementDoc(s)
	if err != nil {
		return err
	}
	query := `UPDATE supplements
               SET name = $1, doc = $2, updated_at = NOW()
               WHERE id = $3
               RETURNING updated_at`
	err = r.db.QueryRowContext(ctx, query, s.Name, doc, s.ID).Scan(&s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrSupplementNotFound
		}
		return fmt.Errorf("error updating supplement: %w", err)
	}
	return nil
}

func (r *PostgresSupplementRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM supplements WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting supplement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted supplement: %w", err)
	}
	if n == 0 {
		return ErrSupplementNotFound
	}
	return nil
}

func (r *PostgresSupplementRepository) ListByUser(ctx context.Context, userID int64) ([]*supplement.Supplement, error) {
	rows, err := r.db.QueryContext(ctx, supplementSelect+` WHERE s.user_id = $1 ORDER BY s.name, s.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing supplements by user: %w", err)
	}
	defer rows.Close()
	return r.scanAll(rows)
}

// ListByUsers loads the supplements of several users in one query, keyed by user ID.
func (r *PostgresSupplementRepository) ListByUsers(ctx context.Context, userIDs []int64) (map[int64][]*supplement.Supplement, error) {
	out := make(map[int64][]*supplement.Supplement, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}
	rows, err := r.db.QueryContext(ctx, supplementSelect+` WHERE s.user_id = ANY($1::bigint[]) ORDER BY s.user_id, s.name, s.id`, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("error listing supplements by users: %w", err)
	}
	defer rows.Close()

	list, err := r.scanAll(rows)
	if err != nil {
		return nil, err
	}
	for _, s := range list {
		out[s.UserID] = append(out[s.UserID], s)
	}
	return out, nil
}

func (r *PostgresSupplementRepository) scanAll(rows *sql.Rows) ([]*supplement.Supplement, error) {
	list := make([]*supplement.Supplement, 0)
	for rows.Next() {
		s, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning supplement row: %w", err)
		}
		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating supplement rows: %w", err)
	}
	return list, nil
}
