// Package errors defines the sentinel errors shared by the index, query and
// evaluation layers, plus an AppError wrapper that carries an HTTP status.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrParse           = errors.New("malformed query")
	ErrEval            = errors.New("malformed query program")
	ErrMissingJudgment = errors.New("no relevance judgments for query")
	ErrInvalidPhase    = errors.New("operation not valid in current index phase")
	ErrInvalidInput    = errors.New("invalid input")
	ErrRateLimited     = errors.New("rate limit exceeded")
	ErrInternal        = errors.New("internal error")
	ErrTimeout         = errors.New("operation timed out")
)

type AppError struct {
	Err        error
	Message    string
	StatusCode int
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(sentinel error, statusCode int, message string) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    message,
		StatusCode: statusCode,
	}
}

func Newf(sentinel error, statusCode int, format string, args ...any) *AppError {
	return &AppError{
		Err:        sentinel,
		Message:    fmt.Sprintf(format, args...),
		StatusCode: statusCode,
	}
}

// HTTPStatusCode maps err onto the status the search API responds with.
func HTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	switch {
	case errors.Is(err, ErrParse), errors.Is(err, ErrEval), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrMissingJudgment):
		return http.StatusNotFound
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInvalidPhase), errors.Is(err, ErrTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
