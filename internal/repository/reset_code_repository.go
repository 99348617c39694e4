package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cashflow/internal/models"
)

type ResetCodeRepository interface {
	Create(ctx context.Context, code *models.ResetCode) error
	// FindUnusedByCode returns the newest unused code with the given value,
	// expired or not.
	FindUnusedByCode(ctx context.Context, code string) (*models.ResetCode, error)
	// RetireAllForUser marks every code of the user as used and then removes
	// them, atomically. It returns the number of codes retired.
	RetireAllForUser(ctx context.Context, userID string) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type resetCodeRepository struct {
	db *sql.DB
}

func NewResetCodeRepository(db *sql.DB) ResetCodeRepository {
	return &resetCodeRepository{db: db}
}

func (r *resetCodeRepository) Create(ctx context.Context, code *models.ResetCode) error {
	query := `
		INSERT INTO reset_codes (id, user_id, email, code, expires_at, used, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err := r.db.QueryRowContext(ctx, query, code.ID, code.UserID, code.Email, code.Code, code.ExpiresAt, code.Used, code.CreatedAt).Scan(&code.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reset code: %w", err)
	}
	return nil
}

func (r *resetCodeRepository) FindUnusedByCode(ctx context.Context, code string) (*models.ResetCode, error) {
	query := `
		SELECT id, user_id, email, code, expires_at, used, created_at
		FROM reset_codes
		WHERE code = $1
		AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
	`

	var c models.ResetCode
	err := r.db.QueryRowContext(ctx, query, code).Scan(&c.ID, &c.UserID, &c.Email, &c.Code, &c.ExpiresAt, &c.Used, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to find reset code: %w", err)
	}
	return &c, nil
}

func (r *resetCodeRepository) RetireAllForUser(ctx context.Context, userID string) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE reset_codes SET used = TRUE WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("failed to mark reset codes used: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM reset_codes WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete reset codes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reset code retirement: %w", err)
	}
	return n, nil
}

func (r *resetCodeRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM reset_codes WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reset codes: %w", err)
	}
	return res.RowsAffected()
}
