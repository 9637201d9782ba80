package handler

import (
	"context"
	"errors"

	"github.com/pavelanni/studybuddy/internal/extract"
	"github.com/pavelanni/studybuddy/internal/llm"
	"github.com/pavelanni/studybuddy/internal/llm/prompts"
	"github.com/pavelanni/studybuddy/internal/parse"
	"github.com/pavelanni/studybuddy/internal/session"
)

// noticeFor maps an error to the localised notice shown on the feature.
// Input problems are warnings; failed generations are errors.
func noticeFor(err error) session.Notice {
	warn := func(id string) session.Notice {
		return session.Notice{Kind: session.NoticeWarning, MessageID: id}
	}
	fail := func(id string) session.Notice {
		return session.Notice{Kind: session.NoticeError, MessageID: id}
	}

	var invalid *prompts.ValidationError
	var malformed *llm.MalformedResponseError
	switch {
	case errors.As(err, &invalid):
		return warn(invalid.MessageID)
	case errors.Is(err, parse.ErrEmptyResult):
		return warn("ErrEmptyResult")
	case errors.Is(err, extract.ErrUnsupportedType):
		return warn("ErrUnsupportedFile")
	case errors.Is(err, extract.ErrTooLarge):
		return warn("ErrFileTooLarge")
	case errors.Is(err, extract.ErrUnreadable):
		return warn("ErrUnreadableFile")
	case errors.Is(err, session.ErrInvalidOption):
		return warn("ErrInvalidAnswer")
	case errors.Is(err, session.ErrInvalidTransition):
		return warn("ErrInvalidTransition")
	case errors.Is(err, session.ErrBusy):
		return warn("ErrBusy")
	case errors.Is(err, llm.ErrConfiguration):
		return fail("ErrConfiguration")
	case errors.As(err, &malformed):
		return fail("ErrMalformedResponse")
	case errors.Is(err, llm.ErrRetriesExhausted),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return fail("ErrGenerationFailed")
	}
	return fail("ErrInternal")
}
