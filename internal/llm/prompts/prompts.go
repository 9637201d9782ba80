package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"

	"github.com/pavelanni/studybuddy/internal/llm"
	"github.com/pavelanni/studybuddy/internal/model"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	maxTopicRunes = 500
	maxNotesRunes = 30000
)

var (
	userInputRegex          = regexp.MustCompile(`(?i)</?\s*user-input\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

var (
	loadOnce  sync.Once
	loadErr   error
	templates *template.Template
)

var lengthGuidance = map[model.SummaryLength]string{
	model.LengthShort:    "Be very concise. Aim for 3-5 sentences or 3-5 bullet points.",
	model.LengthMedium:   "Provide a balanced summary. Aim for 1-2 paragraphs or 5-8 bullet points.",
	model.LengthDetailed: "Give a comprehensive summary. Aim for 2-3 paragraphs or 8-12 bullet points.",
}

const (
	highlightOn  = "Highlight ONLY the 5-7 most critical key terms or concepts using **bold** markdown (e.g., **photosynthesis**). Be selective - do not bold common words or entire phrases, only the most important technical terms or concepts."
	highlightOff = "Do not use any bold formatting. Keep all text plain without any markdown."
)

// Load parses the prompt templates from fsys.
// It uses sync.Once to ensure templates are loaded only once; builders call
// it with the embedded templates when nothing was loaded before.
func Load(fsys fs.FS) error {
	loadOnce.Do(func() {
		templates, loadErr = template.New("prompts").ParseFS(fsys, "templates/*.tmpl")
		if loadErr != nil {
			loadErr = fmt.Errorf("parse prompt templates: %w", loadErr)
		}
	})
	return loadErr
}

func render(name string, data any) (string, error) {
	if err := Load(templateFS); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func renderPair(feature string, data any) (system, user string, err error) {
	if system, err = render(feature+"_system.tmpl", data); err != nil {
		return "", "", err
	}
	if user, err = render(feature+"_user.tmpl", data); err != nil {
		return "", "", err
	}
	return system, user, nil
}

// Explain builds the free-text request for a structured explanation.
func Explain(p model.ExplainParams) (llm.GenerationRequest, error) {
	if err := validateParams(p); err != nil {
		return llm.GenerationRequest{}, err
	}
	data := struct {
		Topic string
		Level model.Level
	}{sanitizeInput(p.Topic, maxTopicRunes), p.Level}

	system, user, err := renderPair("explain", data)
	if err != nil {
		return llm.GenerationRequest{}, err
	}
	return llm.GenerationRequest{
		SystemInstruction: system,
		UserInstruction:   user,
		Temperature:       llm.Float32(0.7),
		TopP:              llm.Float32(0.9),
		TopK:              llm.Int(40),
	}, nil
}

// Summarize builds the free-text request for a summary of p.Text.
func Summarize(p model.SummarizeParams) (llm.GenerationRequest, error) {
	if err := validateParams(p); err != nil {
		return llm.GenerationRequest{}, err
	}
	highlight := highlightOff
	if p.Highlight {
		highlight = highlightOn
	}
	data := struct {
		Text                 string
		Style                model.SummaryStyle
		Length               model.SummaryLength
		LengthGuidance       string
		HighlightInstruction string
	}{
		Text:                 sanitizeInput(p.Text, maxNotesRunes),
		Style:                p.Style,
		Length:               p.Length,
		LengthGuidance:       lengthGuidance[p.Length],
		HighlightInstruction: highlight,
	}

	system, user, err := renderPair("summarize", data)
	if err != nil {
		return llm.GenerationRequest{}, err
	}
	return llm.GenerationRequest{
		SystemInstruction: system,
		UserInstruction:   user,
		Temperature:       llm.Float32(0.3),
		TopP:              llm.Float32(0.8),
		TopK:              llm.Int(40),
	}, nil
}

// Quiz builds the schema-mode request for p.Count multiple-choice questions.
func Quiz(p model.QuizParams) (llm.GenerationRequest, error) {
	if err := validateParams(p); err != nil {
		return llm.GenerationRequest{}, err
	}
	data := struct {
		Topic      string
		Difficulty model.Level
		Count      int
	}{sanitizeInput(p.Topic, maxTopicRunes), p.Difficulty, p.Count}

	system, user, err := renderPair("quiz", data)
	if err != nil {
		return llm.GenerationRequest{}, err
	}
	return llm.GenerationRequest{
		SystemInstruction: system,
		UserInstruction:   user,
		Schema:            QuizSchema,
	}, nil
}

// Flashcards builds the schema-mode request for a deck of p.Count cards.
func Flashcards(p model.FlashcardParams) (llm.GenerationRequest, error) {
	if err := validateParams(p); err != nil {
		return llm.GenerationRequest{}, err
	}
	data := struct {
		Topic  string
		Count  int
		Simple bool
	}{sanitizeInput(p.Topic, maxTopicRunes), p.Count, p.Mode == model.DeckSimple}

	system, user, err := renderPair("flashcards", data)
	if err != nil {
		return llm.GenerationRequest{}, err
	}
	return llm.GenerationRequest{
		SystemInstruction: system,
		UserInstruction:   user,
		Schema:            FlashcardSchema,
	}, nil
}

func sanitizeInput(s string, limit int) string {
	s = userInputRegex.ReplaceAllString(s, "")
	s = systemInstructionsRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if utf8.RuneCountInString(s) > limit {
		runes := []rune(s)
		s = string(runes[:limit]) + "\n\n[Text truncated due to length]"
	}
	return s
}
