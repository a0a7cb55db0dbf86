package repository

import (
	"strings"
	"testing"
	"time"

	"doc-recognizer/internal/models"

	"github.com/google/uuid"
)

func TestInsertSubmissionQuery(t *testing.T) {
	phone := "9261234567"
	s := &models.Submission{
		ID:             uuid.New(),
		TelegramUserID: 42,
		FullName:       "ИВАНОВ ИВАН",
		PassportNumber: "9924621263",
		BankName:       "Сбербанк",
		PhoneNumber:    &phone,
		CreatedAt:      time.Now(),
	}

	sql, args, err := insertSubmission(s).ToSql()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.HasPrefix(sql, "INSERT INTO submissions (id,telegram_user_id,") {
		t.Fatalf("unexpected sql %q", sql)
	}
	if !strings.Contains(sql, "$7") || strings.Contains(sql, "?") {
		t.Fatalf("expected dollar placeholders, got %q", sql)
	}
	if len(args) != len(submissionColumns) {
		t.Fatalf("expected %d args, got %d", len(submissionColumns), len(args))
	}
	if args[1] != int64(42) {
		t.Fatalf("unexpected user id arg %v", args[1])
	}
}

func TestSelectSubmissionsByUserQuery(t *testing.T) {
	sql, args, err := selectSubmissionsByUser(7, 5).ToSql()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	want := "SELECT id, telegram_user_id, full_name, passport_number, bank_name, phone_number, created_at FROM submissions WHERE telegram_user_id = $1 ORDER BY created_at DESC LIMIT 5"
	if sql != want {
		t.Fatalf("unexpected sql:\n got %q\nwant %q", sql, want)
	}
	if len(args) != 1 || args[0] != int64(7) {
		t.Fatalf("unexpected args %v", args)
	}
}
