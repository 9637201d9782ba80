// Package session holds the per-visitor study context: one state block per
// feature plus the small state machines that drive quizzes and flashcards.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/pavelanni/studybuddy/internal/model"
)

var (
	// ErrBusy is returned when a feature is already generating.
	ErrBusy = errors.New("generation already in progress")
	// ErrInvalidTransition is returned when an action is not allowed in the current state.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrInvalidOption is returned when an answer cannot be scored against its item.
	ErrInvalidOption = errors.New("invalid quiz option")
	// ErrNotFound is returned by a Store for unknown or expired sessions.
	ErrNotFound = errors.New("session not found")
)

// Feature names one of the four study tools.
type Feature string

const (
	FeatureExplain    Feature = "explain"
	FeatureSummarize  Feature = "summarize"
	FeatureQuiz       Feature = "quiz"
	FeatureFlashcards Feature = "flashcards"
)

// Store persists sessions between requests.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}

// Session is everything one visitor has produced so far.
type Session struct {
	ID         string         `json:"id"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	Explain    ExplainState   `json:"explain"`
	Summary    SummaryState   `json:"summary"`
	Quiz       QuizState      `json:"quiz"`
	Flashcards FlashcardState `json:"flashcards"`
}

// New returns an empty session with every feature idle.
func New(id string, now time.Time) *Session {
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now}
}

// Status returns the phase block of feature f, or nil for an unknown feature.
func (s *Session) Status(f Feature) *Status {
	switch f {
	case FeatureExplain:
		return &s.Explain.Status
	case FeatureSummarize:
		return &s.Summary.Status
	case FeatureQuiz:
		return &s.Quiz.Status
	case FeatureFlashcards:
		return &s.Flashcards.Status
	}
	return nil
}

// Touch records an update.
func (s *Session) Touch(now time.Time) {
	s.UpdatedAt = now
}

// ExplainState is the explanation tool's state.
type ExplainState struct {
	Status
	Topic string      `json:"topic,omitempty"`
	Level model.Level `json:"level,omitempty"`
	Raw   string      `json:"raw,omitempty"`
	// Parsed is false when Raw lacked the section markers.
	Parsed bool `json:"parsed,omitempty"`
}

// Reset clears the explanation and returns the tool to idle.
func (e *ExplainState) Reset() {
	*e = ExplainState{}
}

// SummaryState is the summarizer's state.
type SummaryState struct {
	Status
	Style     model.SummaryStyle  `json:"style,omitempty"`
	Length    model.SummaryLength `json:"length,omitempty"`
	Highlight bool                `json:"highlight,omitempty"`
	Original  string              `json:"original,omitempty"`
	Text      string              `json:"text,omitempty"`
}

// Reset clears the summary and returns the tool to idle.
func (s *SummaryState) Reset() {
	*s = SummaryState{}
}

// Export returns the data behind the summary download.
func (s *SummaryState) Export() model.SummaryExport {
	return model.SummaryExport{Style: s.Style, Length: s.Length, Text: s.Text}
}

// QuizState is the quiz tool's state.
type QuizState struct {
	Status
	Topic      string      `json:"topic,omitempty"`
	Difficulty model.Level `json:"difficulty,omitempty"`
	Date       time.Time   `json:"date,omitempty"`
	Machine    QuizMachine `json:"machine"`
}

// Reset discards the quiz and returns the tool to idle.
func (q *QuizState) Reset() {
	*q = QuizState{}
}

// Export returns the data behind the quiz results download.
func (q *QuizState) Export() model.QuizExport {
	return model.QuizExport{
		Topic:      q.Topic,
		Difficulty: q.Difficulty,
		Date:       q.Date,
		Items:      q.Machine.Items,
		Answers:    q.Machine.Answers,
	}
}

// FlashcardState is the flashcard tool's state.
type FlashcardState struct {
	Status
	Topic string         `json:"topic,omitempty"`
	Mode  model.DeckMode `json:"mode,omitempty"`
	Deck  Carousel       `json:"deck"`
}

// Reset clears the deck and returns the tool to idle.
func (f *FlashcardState) Reset() {
	*f = FlashcardState{}
}
