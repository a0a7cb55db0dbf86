package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"doc-recognizer/internal/models"
	"doc-recognizer/internal/normalize"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const historyLimit = 5

// Messenger is the part of *tgbotapi.BotAPI the bot needs.
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Recognizer calls the recognition functions.
type Recognizer interface {
	RecognizePassport(ctx context.Context, image []byte) (*PassportData, error)
	RecognizeAudio(ctx context.Context, audio []byte) (*AudioResult, error)
}

// SubmissionStore journals finished dialogs.
type SubmissionStore interface {
	Create(ctx context.Context, s *models.Submission) error
	ListByUser(ctx context.Context, telegramUserID int64, limit int) ([]*models.Submission, error)
}

type Bot struct {
	messenger      Messenger
	recognizer     Recognizer
	store          SubmissionStore
	sessions       *Sessions
	httpClient     *http.Client
	requestTimeout time.Duration
	logger         *zap.Logger
}

// New wires the bot. store may be nil, then nothing is journaled.
func New(messenger Messenger, recognizer Recognizer, store SubmissionStore, httpClient *http.Client, requestTimeout time.Duration, logger *zap.Logger) *Bot {
	return &Bot{
		messenger:      messenger,
		recognizer:     recognizer,
		store:          store,
		sessions:       NewSessions(),
		httpClient:     httpClient,
		requestTimeout: requestTimeout,
		logger:         logger,
	}
}

// Run handles updates until ctx is done or the channel closes.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				b.logger.Info("Updates channel closed")
				return
			}
			b.HandleUpdate(ctx, upd)
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.From == nil || msg.Chat == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Unhandled panic while processing update",
				zap.Int("update_id", upd.UpdateID),
				zap.Any("panic", r),
			)
		}
	}()

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		b.handlePhoto(ctx, msg)
	case msg.Voice != nil:
		b.handleVoice(ctx, msg)
	case msg.Text != "":
		b.send(msg.Chat.ID, "ℹ️ Используйте последовательность: /start → фото паспорта → голосовое сообщение.\n"+
			"Команды: /status для проверки этапа, /cancel для сброса.")
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sessions.Reset(userID)
		b.send(chatID, "🔄 Начинаем новую сессию распознавания.\n"+
			"1️⃣ Отправьте чёткое фото страницы паспорта (JPEG/PNG/GIF).\n"+
			"2️⃣ После успешного распознавания пришлите голосовое сообщение с номером телефона и названием банка.\n"+
			"Для отмены используйте /cancel, для статуса — /status.")
	case "cancel":
		b.sessions.Drop(userID)
		b.send(chatID, "❌ Сессия очищена. Используйте /start для новой попытки.")
	case "status":
		b.sendStatus(userID, chatID)
	case "history":
		b.sendHistory(ctx, userID, chatID)
	default:
		b.send(chatID, "Неизвестная команда. Доступны: /start, /status, /cancel, /history")
	}
}

func (b *Bot) sendStatus(userID, chatID int64) {
	session, ok := b.sessions.Get(userID)
	switch {
	case !ok:
		b.send(chatID, "ℹ️ Нет активной сессии. Используйте /start.")
	case session.State == StateAwaitingPassport:
		b.send(chatID, "🖼 Ожидаю фото паспорта.")
	case session.State == StateAwaitingAudio && session.Passport != nil:
		b.send(chatID, fmt.Sprintf("✅ Паспорт распознан. ФИО: %s. Теперь пришлите голосовое сообщение.",
			session.Passport.ComposeFullName()))
	default:
		b.send(chatID, "ℹ️ Состояние не определено. Перезапустите /start.")
	}
}

func (b *Bot) sendHistory(ctx context.Context, userID, chatID int64) {
	if b.store == nil {
		b.send(chatID, "ℹ️ История заявок не ведётся.")
		return
	}

	submissions, err := b.store.ListByUser(ctx, userID, historyLimit)
	if err != nil {
		b.logger.Error("Failed to load submissions", zap.Int64("user_id", userID), zap.Error(err))
		b.send(chatID, "❌ Не удалось загрузить историю. Попробуйте позже.")
		return
	}
	if len(submissions) == 0 {
		b.send(chatID, "ℹ️ Заявок пока нет.")
		return
	}

	var sb strings.Builder
	sb.WriteString("🗂 Последние заявки:")
	for i, s := range submissions {
		fmt.Fprintf(&sb, "\n%d. %s — %s, %s", i+1, s.CreatedAt.Format("02.01.2006 15:04"), s.FullName, s.BankName)
	}
	b.send(chatID, sb.String())
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	session, ok := b.sessions.Get(userID)
	if !ok || session.State != StateAwaitingPassport {
		b.send(chatID, "⚠️ Сейчас ожидается голосовое сообщение или нет активной сессии.\n"+
			"Используйте /start, чтобы начать заново.")
		return
	}

	// the last size is the largest one
	photo := msg.Photo[len(msg.Photo)-1]
	image, err := b.download(ctx, photo.FileID)
	if err != nil {
		b.logger.Error("Failed to download photo", zap.Int64("user_id", userID), zap.Error(err))
		b.send(chatID, "❌ Не удалось загрузить фото. Попробуйте ещё раз.")
		return
	}

	b.send(chatID, "⌛ Распознаю паспорт, пожалуйста подождите...")

	callCtx, cancel := context.WithTimeout(ctx, b.requestTimeout)
	defer cancel()

	passport, err := b.recognizer.RecognizePassport(callCtx, image)
	if err != nil {
		b.logger.Warn("Passport recognition failed", zap.Int64("user_id", userID), zap.Error(err))
		var fnErr *FunctionError
		if errors.As(err, &fnErr) {
			b.send(chatID, "❌ Ошибка распознавания: "+fnErr.Error())
			return
		}
		b.send(chatID, "❌ Не удалось обработать изображение. Попробуйте снова позже.")
		return
	}

	b.sessions.PassportRecognized(userID, passport)
	b.sendJSON(chatID, "✅ Паспорт распознан:", passport,
		"Теперь отправьте голосовое сообщение с номером телефона и банком.")
}

func (b *Bot) handleVoice(ctx context.Context, msg *tgbotapi.Message) {
	userID, chatID := msg.From.ID, msg.Chat.ID

	session, ok := b.sessions.Get(userID)
	if !ok || session.State != StateAwaitingAudio || session.Passport == nil {
		b.send(chatID, "⚠️ Сперва нужно отправить фото паспорта. Используйте /start.")
		return
	}

	audio, err := b.download(ctx, msg.Voice.FileID)
	if err != nil {
		b.logger.Error("Failed to download voice", zap.Int64("user_id", userID), zap.Error(err))
		b.send(chatID, "❌ Не удалось загрузить голосовое сообщение. Попробуйте ещё раз.")
		return
	}

	b.send(chatID, "⌛ Обрабатываю голосовое сообщение...")

	callCtx, cancel := context.WithTimeout(ctx, b.requestTimeout)
	defer cancel()

	result, err := b.recognizer.RecognizeAudio(callCtx, audio)
	if err != nil {
		b.logger.Warn("Audio recognition failed", zap.Int64("user_id", userID), zap.Error(err))
		var fnErr *FunctionError
		if errors.As(err, &fnErr) {
			b.send(chatID, "❌ Ошибка обработки аудио: "+fnErr.Error())
			return
		}
		b.send(chatID, "❌ Не удалось обработать голос. Попробуйте позже.")
		return
	}

	submission := &models.Submission{
		ID:             uuid.New(),
		TelegramUserID: userID,
		FullName:       session.Passport.FullName,
		PassportNumber: session.Passport.PassportNumber,
		BankName:       result.BankName,
		PhoneNumber:    summaryPhone(result.PhoneNumber),
		CreatedAt:      time.Now(),
	}
	if submission.BankName == "" {
		submission.BankName = normalize.NotSpecified
	}

	b.sendJSON(chatID, "🎉 Готово! Итоговый JSON:", submission.Summary(), "")
	b.sessions.Drop(userID)

	if b.store != nil {
		if err := b.store.Create(ctx, submission); err != nil {
			b.logger.Error("Failed to journal submission", zap.String("id", submission.ID.String()), zap.Error(err))
			return
		}
		b.logger.Info("Submission journaled", zap.String("id", submission.ID.String()), zap.Int64("user_id", userID))
	}
}

// summaryPhone re-applies the 10-digit rule to what the audio function sent.
func summaryPhone(p *string) *string {
	if p == nil || normalize.IsAbsent(*p) {
		return nil
	}
	if phone, ok := normalize.Phone(*p); ok {
		return &phone
	}
	digits := normalize.Digits(*p)
	return &digits
}

func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.messenger.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	return io.ReadAll(resp.Body)
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.messenger.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.logger.Warn("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) sendJSON(chatID int64, header string, v interface{}, footer string) {
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		b.logger.Error("Failed to render reply", zap.Error(err))
		return
	}

	text := header + "\n```json\n" + string(pretty) + "\n```"
	if footer != "" {
		text += "\n" + footer
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.messenger.Send(msg); err != nil {
		b.logger.Warn("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
