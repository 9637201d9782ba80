package model

import "time"

// ExplanationExport is the data behind the explanation download.
type ExplanationExport struct {
	Topic string
	Level Level
	Raw   string
}

// QuizExport is the data behind the quiz results download.
type QuizExport struct {
	Topic      string
	Difficulty Level
	Date       time.Time
	Items      []QuizItem
	Answers    []*AnswerRecord // parallel to Items; nil entries are unanswered
}

// Correct returns the number of correctly answered items.
func (q QuizExport) Correct() int {
	n := 0
	for _, a := range q.Answers {
		if a != nil && a.Correct {
			n++
		}
	}
	return n
}

// SummaryExport is the data behind the summary download.
type SummaryExport struct {
	Style  SummaryStyle
	Length SummaryLength
	Text   string
}
