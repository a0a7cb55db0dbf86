package bot

import (
	"strings"
	"sync"

	"doc-recognizer/internal/normalize"
)

// State is the step a user's dialog is waiting on.
type State string

const (
	StateAwaitingPassport State = "awaiting_passport"
	StateAwaitingAudio    State = "awaiting_audio"
)

// PassportData is what the passport function recognized.
type PassportData struct {
	LastName       string `json:"last_name"`
	FirstName      string `json:"first_name"`
	MiddleName     string `json:"middle_name"`
	BirthDate      string `json:"birth_date"`
	BirthPlace     string `json:"birth_place"`
	PassportNumber string `json:"passport_number"`
	Citizenship    string `json:"citizenship"`
	FullName       string `json:"full_name"`
}

// ComposeFullName joins the present name parts, or returns "неизвестно".
func (p *PassportData) ComposeFullName() string {
	var parts []string
	for _, part := range []string{p.LastName, p.FirstName, p.MiddleName} {
		if !normalize.IsAbsent(part) {
			parts = append(parts, strings.TrimSpace(part))
		}
	}
	if len(parts) == 0 {
		return normalize.Unknown
	}
	return strings.Join(parts, " ")
}

// Session is an immutable snapshot; updates store a new value.
type Session struct {
	State    State
	Passport *PassportData
}

// Sessions keeps one dialog per Telegram user in memory.
type Sessions struct {
	m sync.Map
}

func NewSessions() *Sessions {
	return &Sessions{}
}

func (s *Sessions) Get(userID int64) (Session, bool) {
	v, ok := s.m.Load(userID)
	if !ok {
		return Session{}, false
	}
	return v.(Session), true
}

// Reset starts a new dialog waiting for the passport photo.
func (s *Sessions) Reset(userID int64) Session {
	session := Session{State: StateAwaitingPassport}
	s.m.Store(userID, session)
	return session
}

// PassportRecognized moves the dialog on to the voice message step.
func (s *Sessions) PassportRecognized(userID int64, passport *PassportData) Session {
	session := Session{State: StateAwaitingAudio, Passport: passport}
	s.m.Store(userID, session)
	return session
}

func (s *Sessions) Drop(userID int64) {
	s.m.Delete(userID)
}
