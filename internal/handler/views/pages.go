package views

import (
	"html/template"

	"github.com/a-h/templ"

	"github.com/pavelanni/studybuddy/internal/model"
	"github.com/pavelanni/studybuddy/internal/parse"
	"github.com/pavelanni/studybuddy/internal/session"
)

// Form is the shared part of every feature page: the feature phase and its
// latest notice.
type Form struct {
	Phase  session.Phase
	Notice *session.Notice
}

// Busy reports whether a generation is running.
func (f Form) Busy() bool { return f.Phase == session.PhaseGenerating }

// ExplainView is the data behind the explanation page.
type ExplainView struct {
	Form
	Levels   []model.Level
	Topic    string
	Level    model.Level
	Sections []parse.Section
	// Raw is shown instead of Sections when the answer had no markers.
	Raw       string
	HasResult bool
}

// SummaryView is the data behind the summarizer page.
type SummaryView struct {
	Form
	Styles      []model.SummaryStyle
	Lengths     []model.SummaryLength
	Notes       string
	Style       model.SummaryStyle
	Length      model.SummaryLength
	Highlight   bool
	MaxUploadMB int64
	Result      template.HTML
	Stats       parse.Stats
	HasResult   bool
}

// QuizReviewItem is one row of the finished-quiz review.
type QuizReviewItem struct {
	Item   model.QuizItem
	Answer *model.AnswerRecord
}

// QuizView is the data behind the quiz page.
type QuizView struct {
	Form
	Levels      []model.Level
	Topic       string
	Difficulty  model.Level
	Count       int
	Step        session.QuizStep
	Index       int
	Total       int
	Item        model.QuizItem
	Answer      *model.AnswerRecord
	Score       int
	Accuracy    int
	Performance string // i18n message ID
	Review      []QuizReviewItem
}

func (v QuizView) Started() bool    { return v.Step != session.QuizEmpty }
func (v QuizView) Answered() bool   { return v.Step == session.QuizAnswered }
func (v QuizView) Finished() bool   { return v.Step == session.QuizFinished }
func (v QuizView) LastItem() bool   { return v.Index == v.Total-1 }
func (v QuizView) Unanswered() bool { return v.Step == session.QuizUnanswered }

// FlashcardView is the data behind the flashcard page.
type FlashcardView struct {
	Form
	Topic string
	Count int
	Mode  model.DeckMode
	Card  model.FlashcardItem
	Index int
	Total int
	Side  model.Side
}

func (v FlashcardView) HasDeck() bool    { return v.Total > 0 }
func (v FlashcardView) Simple() bool     { return v.Mode == model.DeckSimple }
func (v FlashcardView) ShowAnswer() bool { return v.Simple() || v.Side == model.SideAnswer }

// ErrorView is the data behind the error page.
type ErrorView struct {
	Status    int
	MessageID string
}

func IndexPage() templ.Component {
	return page("index", "AppTitle", "", nil)
}

func ExplainPage(v ExplainView) templ.Component {
	return page("explain", "ExplainTitle", "explain", v)
}

func SummarizePage(v SummaryView) templ.Component {
	return page("summarize", "SummarizeTitle", "summarize", v)
}

func QuizPage(v QuizView) templ.Component {
	return page("quiz", "QuizTitle", "quiz", v)
}

func FlashcardsPage(v FlashcardView) templ.Component {
	return page("flashcards", "FlashcardsTitle", "flashcards", v)
}

func ErrorPage(v ErrorView) templ.Component {
	return page("error", "ErrorTitle", "", v)
}
