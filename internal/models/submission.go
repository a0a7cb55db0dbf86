package models

import (
	"time"

	"github.com/google/uuid"
)

// Submission is one completed passport plus voice message exchange with the bot.
type Submission struct {
	ID             uuid.UUID `db:"id"`
	TelegramUserID int64     `db:"telegram_user_id"`
	FullName       string    `db:"full_name"`
	PassportNumber string    `db:"passport_number"`
	BankName       string    `db:"bank_name"`
	PhoneNumber    *string   `db:"phone_number"`
	CreatedAt      time.Time `db:"created_at"`
}

// SubmissionSummary is the JSON the bot sends back to the user.
type SubmissionSummary struct {
	FullName       string  `json:"full_name"`
	PassportNumber string  `json:"passport_number"`
	BankName       string  `json:"bank_name"`
	PhoneNumber    *string `json:"phone_number"`
}

func (s *Submission) Summary() SubmissionSummary {
	return SubmissionSummary{
		FullName:       s.FullName,
		PassportNumber: s.PassportNumber,
		BankName:       s.BankName,
		PhoneNumber:    s.PhoneNumber,
	}
}
