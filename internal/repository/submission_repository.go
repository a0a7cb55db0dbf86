package repository

import (
	"context"
	"fmt"

	"doc-recognizer/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var submissionsSchema = []string{`
CREATE TABLE IF NOT EXISTS submissions (
	id               UUID PRIMARY KEY,
	telegram_user_id BIGINT NOT NULL,
	full_name        TEXT NOT NULL,
	passport_number  TEXT NOT NULL,
	bank_name        TEXT NOT NULL,
	phone_number     TEXT,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`,
	`CREATE INDEX IF NOT EXISTS submissions_user_created_idx
	ON submissions (telegram_user_id, created_at DESC)`,
}

var submissionColumns = []string{
	"id", "telegram_user_id", "full_name", "passport_number", "bank_name", "phone_number", "created_at",
}

type SubmissionRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewSubmissionRepository(db *pgxpool.Pool, logger *zap.Logger) *SubmissionRepository {
	return &SubmissionRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureSchema creates the submissions table when it does not exist yet.
func (r *SubmissionRepository) EnsureSchema(ctx context.Context) error {
	for _, stmt := range submissionsSchema {
		if _, err := r.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create submissions schema: %w", err)
		}
	}
	return nil
}

func insertSubmission(s *models.Submission) squirrel.InsertBuilder {
	return squirrel.Insert("submissions").
		Columns(submissionColumns...).
		Values(s.ID, s.TelegramUserID, s.FullName, s.PassportNumber, s.BankName, s.PhoneNumber, s.CreatedAt).
		PlaceholderFormat(squirrel.Dollar)
}

func selectSubmissionsByUser(telegramUserID int64, limit int) squirrel.SelectBuilder {
	return squirrel.Select(submissionColumns...).
		From("submissions").
		Where(squirrel.Eq{"telegram_user_id": telegramUserID}).
		OrderBy("created_at DESC").
		Limit(uint64(limit)).
		PlaceholderFormat(squirrel.Dollar)
}

func (r *SubmissionRepository) Create(ctx context.Context, s *models.Submission) error {
	sql, args, err := insertSubmission(s).ToSql()
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		r.logger.Error("Failed to store submission",
			zap.String("id", s.ID.String()),
			zap.Int64("telegram_user_id", s.TelegramUserID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// ListByUser returns the latest submissions of a Telegram user, newest first.
func (r *SubmissionRepository) ListByUser(ctx context.Context, telegramUserID int64, limit int) ([]*models.Submission, error) {
	sql, args, err := selectSubmissionsByUser(telegramUserID, limit).ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []*models.Submission
	for rows.Next() {
		var s models.Submission
		if err := rows.Scan(
			&s.ID, &s.TelegramUserID, &s.FullName, &s.PassportNumber, &s.BankName, &s.PhoneNumber, &s.CreatedAt,
		); err != nil {
			return nil, err
		}
		submissions = append(submissions, &s)
	}

	return submissions, rows.Err()
}
