package model

import (
	"context"
	"time"
)

// Level is the depth of an explanation or the difficulty of a quiz.
type Level string

const (
	LevelBasic        Level = "Basic"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
)

// Levels lists the selectable levels in display order.
var Levels = []Level{LevelBasic, LevelIntermediate, LevelAdvanced}

// SummaryStyle selects the shape of a summary.
type SummaryStyle string

const (
	StyleBullets   SummaryStyle = "Bullet Points"
	StyleParagraph SummaryStyle = "Paragraph"
	StyleBoth      SummaryStyle = "Both"
)

// SummaryStyles lists the selectable summary styles.
var SummaryStyles = []SummaryStyle{StyleBullets, StyleParagraph, StyleBoth}

// SummaryLength selects how long a summary should be.
type SummaryLength string

const (
	LengthShort    SummaryLength = "Short"
	LengthMedium   SummaryLength = "Medium"
	LengthDetailed SummaryLength = "Detailed"
)

// SummaryLengths lists the selectable summary lengths.
var SummaryLengths = []SummaryLength{LengthShort, LengthMedium, LengthDetailed}

// DeckMode controls how a flashcard deck is presented.
type DeckMode string

const (
	// DeckFlip shows one face at a time and lets the user flip the card.
	DeckFlip DeckMode = "flip"
	// DeckSimple shows question and answer together.
	DeckSimple DeckMode = "simple"
)

// Side is the visible face of a flashcard.
type Side string

const (
	SideQuestion Side = "Q"
	SideAnswer   Side = "A"
)

// QuizItem is one multiple-choice question as returned by the model.
type QuizItem struct {
	Question     string   `json:"question"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

// FlashcardItem is one question/answer card.
type FlashcardItem struct {
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
}

// AnswerRecord is the locked answer for one quiz item.
type AnswerRecord struct {
	Selected int  `json:"selected"`
	Correct  bool `json:"correct"`
}

// ExplainParams holds the form input for an explanation.
type ExplainParams struct {
	Topic string `validate:"mintrimmed=1"`
	Level Level  `validate:"required,oneof=Basic Intermediate Advanced"`
}

// SummarizeParams holds the form input for a summary.
type SummarizeParams struct {
	Text      string        `validate:"mintrimmed=50"`
	Style     SummaryStyle  `validate:"required,oneof='Bullet Points' Paragraph Both"`
	Length    SummaryLength `validate:"required,oneof=Short Medium Detailed"`
	Highlight bool
}

// QuizParams holds the form input for a quiz.
type QuizParams struct {
	Topic      string `validate:"mintrimmed=1"`
	Difficulty Level  `validate:"required,oneof=Basic Intermediate Advanced"`
	Count      int    `validate:"min=1,max=10"`
}

// FlashcardParams holds the form input for a flashcard deck.
type FlashcardParams struct {
	Topic string   `validate:"mintrimmed=1"`
	Count int      `validate:"min=1,max=20"`
	Mode  DeckMode `validate:"required,oneof=flip simple"`
}

// AppConfig holds runtime web parameters set via CLI flags.
type AppConfig struct {
	BasePath      string // URL prefix for sub-path deployments (e.g. "/study")
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	MaxUpload     int64  // Largest accepted upload in bytes
	SessionTTL    time.Duration
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}

type csrfCtxKey struct{}

// ContextWithCSRFToken stores the CSRF token in context.
func ContextWithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfCtxKey{}, token)
}

// CSRFTokenFromContext retrieves the CSRF token from context.
func CSRFTokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(csrfCtxKey{}).(string)
	return t
}

type sessionIDCtxKey struct{}

// ContextWithSessionID stores the visitor's session ID in context.
func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDCtxKey{}, id)
}

// SessionIDFromContext retrieves the session ID from context.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDCtxKey{}).(string)
	return id
}
