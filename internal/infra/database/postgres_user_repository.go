package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"supplement_tracker/internal/domain/user"
)

// Custom errors
var ErrUserNotFound = errors.New("user not found")
var ErrDuplicateEmail = errors.New("user with this email already exists")
var ErrDuplicateTelegramChat = errors.New("telegram chat is already linked to another user")

const userColumns = `id, email, display_name, timezone, notifications_enabled, telegram_chat_id, created_at, updated_at`

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

func scanUser(row interface{ Scan(...any) error }) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Timezone, &u.NotificationsEnabled, &u.TelegramChatID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (email, display_name, timezone, notifications_enabled, telegram_chat_id)
               VALUES ($1, $2, $3, $4, $5)
               RETURNING id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query, normalizeEmail(u.Email), u.DisplayName, u.Timezone, u.NotificationsEnabled, u.TelegramChatID).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return ErrDuplicateEmail
		}
		if isUniqueViolation(err, "users_telegram_chat_id_key") {
			return ErrDuplicateTelegramChat
		}
		return fmt.Errorf("error creating user: %w", err)
	}
	u.Email = normalizeEmail(u.Email)
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, normalizeEmail(email)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by email: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) GetByTelegramChatID(ctx context.Context, chatID int64) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE telegram_chat_id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, chatID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by Telegram chat ID: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u *user.User) error {
	query := `UPDATE users
               SET display_name = $1, timezone = $2, notifications_enabled = $3, telegram_chat_id = $4, updated_at = NOW()
               WHERE id = $5
               RETURNING updated_at`

	err := r.db.QueryRowContext(ctx, query, u.DisplayName, u.Timezone, u.NotificationsEnabled, u.TelegramChatID, u.ID).Scan(&u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		if isUniqueViolation(err, "users_telegram_chat_id_key") {
			return ErrDuplicateTelegramChat
		}
		return fmt.Errorf("error updating user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) ListNotifiable(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE notifications_enabled = TRUE ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing notifiable users: %w", err)
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning notifiable user: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifiable users: %w", err)
	}
	return users, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
