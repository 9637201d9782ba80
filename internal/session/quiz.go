package session

import (
	"math"

	"github.com/pavelanni/studybuddy/internal/model"
)

// QuizStep is the position of a quiz in its progression.
type QuizStep int

const (
	QuizEmpty QuizStep = iota
	QuizUnanswered
	QuizAnswered
	QuizFinished
)

func (s QuizStep) String() string {
	switch s {
	case QuizUnanswered:
		return "unanswered"
	case QuizAnswered:
		return "answered"
	case QuizFinished:
		return "finished"
	}
	return "empty"
}

// QuizMachine walks a visitor through a generated quiz one item at a time.
// Each item accepts exactly one answer; the first selection is final.
type QuizMachine struct {
	Items   []model.QuizItem      `json:"items,omitempty"`
	Answers []*model.AnswerRecord `json:"answers,omitempty"`
	Index   int                   `json:"index"`
	Done    bool                  `json:"done,omitempty"`
}

// Step reports the current position.
func (m *QuizMachine) Step() QuizStep {
	switch {
	case len(m.Items) == 0, len(m.Answers) != len(m.Items), m.Index < 0, m.Index >= len(m.Items):
		return QuizEmpty
	case m.Done:
		return QuizFinished
	case m.Answers[m.Index] != nil:
		return QuizAnswered
	}
	return QuizUnanswered
}

// Start loads a fresh set of items and positions the quiz on the first one.
func (m *QuizMachine) Start(items []model.QuizItem) error {
	if len(items) == 0 {
		return ErrInvalidTransition
	}
	*m = QuizMachine{
		Items:   items,
		Answers: make([]*model.AnswerRecord, len(items)),
	}
	return nil
}

// Current returns the item being shown.
func (m *QuizMachine) Current() (model.QuizItem, bool) {
	if s := m.Step(); s == QuizEmpty || s == QuizFinished {
		return model.QuizItem{}, false
	}
	return m.Items[m.Index], true
}

// SelectOption locks option idx as the answer to item i. Selecting again
// on an answered item changes nothing.
func (m *QuizMachine) SelectOption(i, idx int) (model.AnswerRecord, error) {
	switch m.Step() {
	case QuizAnswered:
		if i == m.Index {
			return *m.Answers[i], nil
		}
		return model.AnswerRecord{}, ErrInvalidTransition
	case QuizUnanswered:
		if i != m.Index {
			return model.AnswerRecord{}, ErrInvalidTransition
		}
	default:
		return model.AnswerRecord{}, ErrInvalidTransition
	}

	item := m.Items[i]
	if idx < 0 || idx >= len(item.Options) {
		return model.AnswerRecord{}, ErrInvalidOption
	}
	if item.CorrectIndex < 0 || item.CorrectIndex >= len(item.Options) {
		return model.AnswerRecord{}, ErrInvalidOption
	}

	rec := &model.AnswerRecord{Selected: idx, Correct: idx == item.CorrectIndex}
	m.Answers[i] = rec
	return *rec, nil
}

// Advance moves past an answered item. After the last item the quiz is finished.
func (m *QuizMachine) Advance() error {
	if m.Step() != QuizAnswered {
		return ErrInvalidTransition
	}
	if m.Index == len(m.Items)-1 {
		m.Done = true
		return nil
	}
	m.Index++
	return nil
}

// Score returns the number of correct answers.
func (m *QuizMachine) Score() int {
	n := 0
	for _, a := range m.Answers {
		if a != nil && a.Correct {
			n++
		}
	}
	return n
}

// Accuracy returns the share of correct answers over all items as a rounded percentage.
func (m *QuizMachine) Accuracy() int {
	if len(m.Items) == 0 {
		return 0
	}
	return int(math.Round(float64(m.Score()) / float64(len(m.Items)) * 100))
}

// Reset discards the quiz.
func (m *QuizMachine) Reset() {
	*m = QuizMachine{}
}
