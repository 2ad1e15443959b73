package utils

import (
	"errors"
	"net/http"
)

// Domain-level errors used by the service layer to give controllers a
// fine-grained failure reason without leaking internals to clients.
var (
	ErrNotFound          = errors.New("not_found")
	ErrTokenExpired      = errors.New("token_expired")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrValidation        = errors.New("validation_error")
	ErrDependencyFailure = errors.New("dependency_failure")
	ErrAlreadyPaid       = errors.New("already_paid")

	// For optimistic-lock conflicts surfaced by repositories.
	ErrRowVersionConflict = errors.New("row_version_conflict")
)

// AppError is the structured error services hand to controllers.
type AppError struct {
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// HandleAppError centralizes responding to AppErrors.
func HandleAppError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		RespondErrorWithCode(w, appErr.StatusCode, appErr.Code, appErr.Message, nil, appErr.Err)
	} else {
		RespondErrorWithCode(w, http.StatusInternalServerError, ErrCodeInternal, "An unexpected error occurred", nil, err)
	}
}
