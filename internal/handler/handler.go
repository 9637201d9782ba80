package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pavelanni/studybuddy/internal/handler/views"
	"github.com/pavelanni/studybuddy/internal/llm"
	"github.com/pavelanni/studybuddy/internal/model"
	"github.com/pavelanni/studybuddy/internal/session"
)

// DefaultMaxUpload is the upload limit used when the config leaves it unset.
const DefaultMaxUpload = 10 << 20

// Generator runs prompts against the model. *llm.Client implements it.
type Generator interface {
	Call(ctx context.Context, req llm.GenerationRequest) (string, error)
	CallJSON(ctx context.Context, req llm.GenerationRequest, v any) error
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   session.Store
	llm     Generator
	config  model.AppConfig
	locks   *keyedMutex
	flights singleflight.Group
	now     func() time.Time
	newID   func() string
}

// New creates a new Handler.
func New(s session.Store, g Generator, cfg model.AppConfig) (*Handler, error) {
	if s == nil || g == nil {
		return nil, fmt.Errorf("handler needs a session store and a generator")
	}
	if cfg.MaxUpload <= 0 {
		cfg.MaxUpload = DefaultMaxUpload
	}
	return &Handler{
		store:  s,
		llm:    g,
		config: cfg,
		locks:  newKeyedMutex(),
		now:    time.Now,
		newID:  uuid.NewString,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/healthz", h.handleHealth)
	r.Handle("/static/*", http.StripPrefix(h.path("/static/"), views.StaticHandler()))

	r.Group(func(r chi.Router) {
		r.Use(h.sessionMiddleware)
		r.Use(h.csrfMiddleware)

		r.Get("/", h.handleIndex)

		r.Get("/explain", h.handleExplainPage)
		r.Post("/explain", h.handleExplain)
		r.Post("/explain/reset", h.handleReset(session.FeatureExplain))
		r.Get("/explain/download", h.handleExplainDownload)

		r.Get("/summarize", h.handleSummarizePage)
		r.Post("/summarize", h.handleSummarize)
		r.Post("/summarize/reset", h.handleReset(session.FeatureSummarize))
		r.Get("/summarize/download", h.handleSummaryDownload)

		r.Get("/quiz", h.handleQuizPage)
		r.Post("/quiz", h.handleQuizStart)
		r.Post("/quiz/answer", h.handleQuizAnswer)
		r.Post("/quiz/next", h.handleQuizNext)
		r.Post("/quiz/reset", h.handleReset(session.FeatureQuiz))
		r.Get("/quiz/download", h.handleQuizDownload)

		r.Get("/flashcards", h.handleFlashcardsPage)
		r.Post("/flashcards", h.handleFlashcards)
		r.Post("/flashcards/next", h.handleDeck((*session.Carousel).Next))
		r.Post("/flashcards/prev", h.handleDeck((*session.Carousel).Prev))
		r.Post("/flashcards/flip", h.handleDeck((*session.Carousel).Flip))
		r.Post("/flashcards/reset", h.handleReset(session.FeatureFlashcards))
	})
}

func (h *Handler) path(p string) string {
	return h.config.BasePath + p
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, views.IndexPage())
}

type pinger interface {
	Ping(ctx context.Context) error
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			slog.Error("health check failed", "error", err)
			http.Error(w, "session store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

// render buffers c so a failing template never leaves half a page behind.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	var buf bytes.Buffer
	if err := c.Render(r.Context(), &buf); err != nil {
		slog.Error("render error", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, msgID string) {
	h.render(w, r, status, views.ErrorPage(views.ErrorView{Status: status, MessageID: msgID}))
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed", "path", r.URL.Path, "error", err)
	h.renderError(w, r, http.StatusInternalServerError, "ErrInternal")
}

// loadSession returns the visitor's session, or a fresh one if the store
// has none.
func (h *Handler) loadSession(ctx context.Context, id string) (*session.Session, error) {
	s, err := h.store.Load(ctx, id)
	if errors.Is(err, session.ErrNotFound) {
		return session.New(id, h.now()), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return s, nil
}

// update runs fn on the session under its lock and saves the result. When fn
// fails nothing is saved.
func (h *Handler) update(ctx context.Context, id string, fn func(*session.Session) error) error {
	unlock := h.locks.Lock(id)
	defer unlock()

	s, err := h.loadSession(ctx, id)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	s.Touch(h.now())
	if err := h.store.Save(ctx, s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// currentSession loads the session of the request for read-only use.
func (h *Handler) currentSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.loadSession(r.Context(), model.SessionIDFromContext(r.Context()))
	if err != nil {
		h.serverError(w, r, err)
		return nil, false
	}
	return s, true
}

// generation performs the model call of one feature. On success it returns
// the change to apply to the session.
type generation func(ctx context.Context) (apply func(*session.Session) error, err error)

// generate drives one feature through Generating. inputErr, when set,
// rejects the input before any model call. The feature's saved state only
// changes through the apply func of a successful generation.
func (h *Handler) generate(w http.ResponseWriter, r *http.Request, f session.Feature,
	inputErr error, gen generation) {

	ctx := r.Context()
	id := model.SessionIDFromContext(ctx)
	target := h.path("/" + string(f))

	err := h.update(ctx, id, func(s *session.Session) error {
		st := s.Status(f)
		if st.Busy(h.now()) {
			return session.ErrBusy
		}
		if inputErr != nil {
			st.Reject(noticeFor(inputErr))
			return nil
		}
		return st.Begin(h.now())
	})
	switch {
	case errors.Is(err, session.ErrBusy):
		h.joinOrConflict(w, r, id, f)
		return
	case err != nil:
		h.serverError(w, r, err)
		return
	case inputErr != nil:
		slog.Info("input rejected", "feature", f, "error", inputErr)
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	// The result lands in the session even if the visitor navigates away.
	genCtx := context.WithoutCancel(ctx)
	_, err, _ = h.flights.Do(flightKey(id, f), func() (any, error) {
		start := h.now()
		apply, genErr := gen(genCtx)
		slog.Info("generation finished", "feature", f, "duration", h.now().Sub(start), "ok", genErr == nil)
		return nil, h.finish(genCtx, id, f, apply, genErr)
	})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (h *Handler) finish(ctx context.Context, id string, f session.Feature, apply func(*session.Session) error, genErr error) error {
	return h.update(ctx, id, func(s *session.Session) error {
		st := s.Status(f)
		if st.Phase != session.PhaseGenerating {
			slog.Info("discarding result of a reset feature", "feature", f)
			return nil
		}
		if genErr == nil {
			genErr = apply(s)
		}
		if genErr != nil {
			slog.Error("generation failed", "feature", f, "error", genErr)
			return st.Fail(noticeFor(genErr))
		}
		return st.Succeed()
	})
}

// joinOrConflict handles a submit for a busy feature. A generation running
// in this process is waited for; otherwise the request conflicts.
func (h *Handler) joinOrConflict(w http.ResponseWriter, r *http.Request, id string, f session.Feature) {
	_, err, _ := h.flights.Do(flightKey(id, f), func() (any, error) {
		return nil, session.ErrBusy
	})
	switch {
	case errors.Is(err, session.ErrBusy):
		slog.Warn("duplicate submit rejected", "feature", f)
		h.renderError(w, r, http.StatusConflict, "ErrBusy")
	case err != nil:
		h.serverError(w, r, err)
	default:
		http.Redirect(w, r, h.path("/"+string(f)), http.StatusSeeOther)
	}
}

func flightKey(id string, f session.Feature) string {
	return id + ":" + string(f)
}

// act applies a non-generating state change and redirects back to the
// feature page. State errors become a warning on the feature.
func (h *Handler) act(w http.ResponseWriter, r *http.Request, f session.Feature, fn func(*session.Session) error) {
	id := model.SessionIDFromContext(r.Context())
	err := h.update(r.Context(), id, func(s *session.Session) error {
		if err := fn(s); err != nil {
			slog.Info("action rejected", "feature", f, "error", err)
			s.Status(f).Warn(noticeFor(err))
		}
		return nil
	})
	if err != nil {
		h.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, h.path("/"+string(f)), http.StatusSeeOther)
}

func (h *Handler) handleReset(f session.Feature) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.act(w, r, f, func(s *session.Session) error {
			switch f {
			case session.FeatureExplain:
				s.Explain.Reset()
			case session.FeatureSummarize:
				s.Summary.Reset()
			case session.FeatureQuiz:
				s.Quiz.Reset()
			case session.FeatureFlashcards:
				s.Flashcards.Reset()
			}
			return nil
		})
	}
}

// formOf reports a generation abandoned past StaleAfter as configuring.
func (h *Handler) formOf(st session.Status) views.Form {
	phase := st.Phase
	if phase == session.PhaseGenerating && !st.Busy(h.now()) {
		phase = session.PhaseConfiguring
	}
	return views.Form{Phase: phase, Notice: st.Notice}
}
