package prompts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// mintrimmed=N: at least N characters once surrounding whitespace is removed.
	_ = v.RegisterValidation("mintrimmed", func(fl validator.FieldLevel) bool {
		n, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return utf8.RuneCountInString(strings.TrimSpace(fl.Field().String())) >= n
	})
	return v
}

// ValidationError reports form input that cannot be turned into a prompt.
// MessageID names the localised message shown to the user.
type ValidationError struct {
	Field     string
	MessageID string
	Err       error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", strings.ToLower(e.Field), e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// validateParams checks p's struct tags and returns the first failure as a
// *ValidationError.
func validateParams(p any) error {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Field: "input", MessageID: "ErrInvalidInput", Err: err}
	}
	fe := fieldErrs[0]
	return &ValidationError{Field: fe.Field(), MessageID: messageID(fe), Err: fe}
}

func messageID(fe validator.FieldError) string {
	switch fe.Field() {
	case "Topic":
		return "ErrTopicRequired"
	case "Text":
		return "ErrTextTooShort"
	case "Count":
		return "ErrInvalidCount"
	case "Level", "Difficulty":
		return "ErrInvalidLevel"
	case "Style", "Length", "Mode":
		return "ErrInvalidOption"
	}
	return "ErrInvalidInput"
}
