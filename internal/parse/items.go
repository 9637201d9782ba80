package parse

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pavelanni/studybuddy/internal/model"
)

// ErrEmptyResult means a payload decoded cleanly but held no usable records.
var ErrEmptyResult = errors.New("no usable items in response")

var validate = validator.New()

// DecodeQuiz decodes a quiz payload. Records are kept exactly as generated.
func DecodeQuiz(payload []byte) ([]model.QuizItem, error) {
	var items []*model.QuizItem
	if err := decodeStrict(payload, &items); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	out := make([]model.QuizItem, 0, len(items))
	for i, it := range items {
		if it == nil {
			return nil, fmt.Errorf("decode quiz: item %d is null", i)
		}
		out = append(out, *it)
	}
	if len(out) == 0 {
		return nil, ErrEmptyResult
	}
	return out, nil
}

// DecodeFlashcards decodes a flashcard payload and drops cards whose
// question or answer is empty.
func DecodeFlashcards(payload []byte) ([]model.FlashcardItem, error) {
	var cards []*model.FlashcardItem
	if err := decodeStrict(payload, &cards); err != nil {
		return nil, fmt.Errorf("decode flashcards: %w", err)
	}
	out := make([]model.FlashcardItem, 0, len(cards))
	for _, c := range cards {
		if c == nil {
			continue
		}
		card := model.FlashcardItem{
			Question: strings.TrimSpace(c.Question),
			Answer:   strings.TrimSpace(c.Answer),
		}
		if err := validate.Struct(card); err != nil {
			continue
		}
		out = append(out, card)
	}
	if len(out) == 0 {
		return nil, ErrEmptyResult
	}
	return out, nil
}

// decodeStrict decodes exactly one JSON value into v.
func decodeStrict(payload []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("trailing data after JSON value")
	}
	return nil
}
