package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/pavelanni/studybuddy/internal/export"
	"github.com/pavelanni/studybuddy/internal/extract"
	"github.com/pavelanni/studybuddy/internal/handler/views"
	"github.com/pavelanni/studybuddy/internal/llm/prompts"
	"github.com/pavelanni/studybuddy/internal/model"
	"github.com/pavelanni/studybuddy/internal/parse"
	"github.com/pavelanni/studybuddy/internal/session"
)

const (
	defaultQuizCount      = 5
	defaultFlashcardCount = 10
)

// --- Explain ---

func (h *Handler) handleExplainPage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	st := &s.Explain
	v := views.ExplainView{
		Form:      h.formOf(st.Status),
		Levels:    model.Levels,
		Topic:     st.Topic,
		Level:     orDefault(st.Level, model.LevelBasic),
		HasResult: st.Phase == session.PhaseShowingResults && st.Raw != "",
	}
	if v.HasResult {
		if ex, err := parse.ParseExplanation(st.Raw); err == nil {
			v.Sections = ex.Sections()
		} else {
			v.Raw = st.Raw
		}
	}
	h.render(w, r, http.StatusOK, views.ExplainPage(v))
}

func (h *Handler) handleExplain(w http.ResponseWriter, r *http.Request) {
	p := model.ExplainParams{
		Topic: r.FormValue("topic"),
		Level: model.Level(r.FormValue("level")),
	}
	req, inputErr := prompts.Explain(p)

	h.generate(w, r, session.FeatureExplain, inputErr, func(ctx context.Context) (func(*session.Session) error, error) {
		text, err := h.llm.Call(ctx, req)
		if err != nil {
			return nil, err
		}
		return func(s *session.Session) error {
			s.Explain.Topic = strings.TrimSpace(p.Topic)
			s.Explain.Level = p.Level
			s.Explain.Raw = text
			_, err := parse.ParseExplanation(text)
			s.Explain.Parsed = err == nil
			if err != nil {
				slog.Warn("explanation without section markers", "error", err)
				s.Explain.Warn(session.Notice{Kind: session.NoticeWarning, MessageID: "NoticeMarkersMissing"})
			}
			return nil
		}, nil
	})
}

func (h *Handler) handleExplainDownload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	if s.Explain.Raw == "" {
		h.renderError(w, r, http.StatusNotFound, "ErrNothingToDownload")
		return
	}
	text := export.ExplanationText(model.ExplanationExport{
		Topic: s.Explain.Topic,
		Level: s.Explain.Level,
		Raw:   s.Explain.Raw,
	})
	h.download(w, export.ExplanationFilename(s.Explain.Topic), text)
}

// --- Summarize ---

func (h *Handler) handleSummarizePage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	st := &s.Summary
	v := views.SummaryView{
		Form:        h.formOf(st.Status),
		Styles:      model.SummaryStyles,
		Lengths:     model.SummaryLengths,
		Notes:       st.Original,
		Style:       orDefault(st.Style, model.StyleBullets),
		Length:      orDefault(st.Length, model.LengthMedium),
		Highlight:   st.Highlight,
		MaxUploadMB: h.config.MaxUpload >> 20,
		HasResult:   st.Phase == session.PhaseShowingResults && st.Text != "",
	}
	if v.HasResult {
		v.Result = parse.RenderSummary(st.Text, st.Highlight)
		v.Stats = parse.SummaryStats(st.Original, st.Text)
	}
	h.render(w, r, http.StatusOK, views.SummarizePage(v))
}

func (h *Handler) handleSummarize(w http.ResponseWriter, r *http.Request) {
	p := model.SummarizeParams{
		Text:      r.FormValue("text"),
		Style:     model.SummaryStyle(r.FormValue("style")),
		Length:    model.SummaryLength(r.FormValue("length")),
		Highlight: r.FormValue("highlight") != "",
	}

	text, inputErr := h.uploadedText(r)
	if inputErr == nil && text != "" {
		p.Text = text
	}
	req, err := prompts.Summarize(p)
	if inputErr == nil {
		inputErr = err
	}

	h.generate(w, r, session.FeatureSummarize, inputErr, func(ctx context.Context) (func(*session.Session) error, error) {
		summary, err := h.llm.Call(ctx, req)
		if err != nil {
			return nil, err
		}
		return func(s *session.Session) error {
			s.Summary.Original = p.Text
			s.Summary.Style = p.Style
			s.Summary.Length = p.Length
			s.Summary.Highlight = p.Highlight
			s.Summary.Text = summary
			return nil
		}, nil
	})
}

// uploadedText returns the text of the uploaded file, or "" when no file
// was sent.
func (h *Handler) uploadedText(r *http.Request) (string, error) {
	f, hdr, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	defer f.Close()

	text, err := extract.Text(f, h.config.MaxUpload)
	if err != nil {
		slog.Info("upload rejected", "filename", hdr.Filename, "size", hdr.Size, "error", err)
		return "", err
	}
	slog.Debug("upload extracted", "filename", hdr.Filename, "runes", len([]rune(text)))
	return text, nil
}

func (h *Handler) handleSummaryDownload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	if s.Summary.Text == "" {
		h.renderError(w, r, http.StatusNotFound, "ErrNothingToDownload")
		return
	}
	h.download(w, export.SummaryFilename, export.SummaryText(s.Summary.Export()))
}

// --- Quiz ---

func (h *Handler) handleQuizPage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	st := &s.Quiz
	m := &st.Machine
	v := views.QuizView{
		Form:       h.formOf(st.Status),
		Levels:     model.Levels,
		Topic:      st.Topic,
		Difficulty: orDefault(st.Difficulty, model.LevelBasic),
		Count:      defaultQuizCount,
		Step:       m.Step(),
		Index:      m.Index,
		Total:      len(m.Items),
	}
	if item, ok := m.Current(); ok {
		v.Item = item
		v.Answer = m.Answers[m.Index]
	}
	if v.Finished() {
		v.Score = m.Score()
		v.Accuracy = m.Accuracy()
		v.Performance = performanceID(m.Score(), len(m.Items))
		for i, item := range m.Items {
			v.Review = append(v.Review, views.QuizReviewItem{Item: item, Answer: m.Answers[i]})
		}
	}
	h.render(w, r, http.StatusOK, views.QuizPage(v))
}

func (h *Handler) handleQuizStart(w http.ResponseWriter, r *http.Request) {
	count, _ := strconv.Atoi(r.FormValue("count"))
	p := model.QuizParams{
		Topic:      r.FormValue("topic"),
		Difficulty: model.Level(r.FormValue("difficulty")),
		Count:      count,
	}
	req, inputErr := prompts.Quiz(p)

	h.generate(w, r, session.FeatureQuiz, inputErr, func(ctx context.Context) (func(*session.Session) error, error) {
		var raw json.RawMessage
		if err := h.llm.CallJSON(ctx, req, &raw); err != nil {
			return nil, err
		}
		items, err := parse.DecodeQuiz(raw)
		if err != nil {
			return nil, err
		}
		return func(s *session.Session) error {
			if err := s.Quiz.Machine.Start(items); err != nil {
				return err
			}
			s.Quiz.Topic = strings.TrimSpace(p.Topic)
			s.Quiz.Difficulty = p.Difficulty
			s.Quiz.Date = h.now()
			return nil
		}, nil
	})
}

func (h *Handler) handleQuizAnswer(w http.ResponseWriter, r *http.Request) {
	index, err1 := strconv.Atoi(r.FormValue("index"))
	option, err2 := strconv.Atoi(r.FormValue("option"))
	h.act(w, r, session.FeatureQuiz, func(s *session.Session) error {
		if err := errors.Join(err1, err2); err != nil {
			return session.ErrInvalidOption
		}
		_, err := s.Quiz.Machine.SelectOption(index, option)
		return err
	})
}

func (h *Handler) handleQuizNext(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, session.FeatureQuiz, func(s *session.Session) error {
		return s.Quiz.Machine.Advance()
	})
}

func (h *Handler) handleQuizDownload(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	if len(s.Quiz.Machine.Items) == 0 {
		h.renderError(w, r, http.StatusNotFound, "ErrNothingToDownload")
		return
	}
	h.download(w, export.QuizFilename(s.Quiz.Topic), export.QuizResultsText(s.Quiz.Export()))
}

// performanceID returns the message ID of the label for score out of total.
func performanceID(score, total int) string {
	if total == 0 {
		return "PerfKeepPracticing"
	}
	switch acc := float64(score) / float64(total) * 100; {
	case acc >= 80:
		return "PerfExcellent"
	case acc >= 60:
		return "PerfGood"
	}
	return "PerfKeepPracticing"
}

// --- Flashcards ---

func (h *Handler) handleFlashcardsPage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	st := &s.Flashcards
	v := views.FlashcardView{
		Form:  h.formOf(st.Status),
		Topic: st.Topic,
		Count: defaultFlashcardCount,
		Mode:  orDefault(st.Mode, model.DeckFlip),
		Index: st.Deck.Index,
		Total: st.Deck.Len(),
		Side:  st.Deck.Side,
	}
	if card, ok := st.Deck.Current(); ok {
		v.Card = card
	} else {
		v.Total = 0
	}
	h.render(w, r, http.StatusOK, views.FlashcardsPage(v))
}

func (h *Handler) handleFlashcards(w http.ResponseWriter, r *http.Request) {
	count, _ := strconv.Atoi(r.FormValue("count"))
	p := model.FlashcardParams{
		Topic: r.FormValue("topic"),
		Count: count,
		Mode:  model.DeckMode(r.FormValue("mode")),
	}
	req, inputErr := prompts.Flashcards(p)

	h.generate(w, r, session.FeatureFlashcards, inputErr, func(ctx context.Context) (func(*session.Session) error, error) {
		var raw json.RawMessage
		if err := h.llm.CallJSON(ctx, req, &raw); err != nil {
			return nil, err
		}
		cards, err := parse.DecodeFlashcards(raw)
		if err != nil {
			return nil, err
		}
		return func(s *session.Session) error {
			if err := s.Flashcards.Deck.Load(cards); err != nil {
				return err
			}
			s.Flashcards.Topic = strings.TrimSpace(p.Topic)
			s.Flashcards.Mode = p.Mode
			return nil
		}, nil
	})
}

// handleDeck applies a carousel move to the flashcard deck.
func (h *Handler) handleDeck(move func(*session.Carousel) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.act(w, r, session.FeatureFlashcards, func(s *session.Session) error {
			return move(&s.Flashcards.Deck)
		})
	}
}

// --- helpers ---

func (h *Handler) download(w http.ResponseWriter, filename, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	_, _ = w.Write([]byte(body))
}

func orDefault[T ~string](v, def T) T {
	if v == "" {
		return def
	}
	return v
}
