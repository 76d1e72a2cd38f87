package services

import (
	"errors"
	"log/slog"
	"net/http"

	"agriportal/portal/store"
)

type codedError struct {
	err  error
	code int
}

func (e *codedError) Error() string {
	return e.err.Error()
}

func (e *codedError) Unwrap() error {
	return e.err
}

func CodedError(err error, code int) error {
	return &codedError{err: err, code: code}
}

func GetResponseCode(err error) int {
	var cerr *codedError
	if errors.As(err, &cerr) {
		return cerr.code
	}
	slog.Error("non coded error passed to GetResponseCode", "error", err)
	return http.StatusInternalServerError
}

// storeErrorCode maps the gateway's sentinel errors onto http statuses so
// handlers don't repeat the same switch.
func storeErrorCode(err error) int {
	switch {
	case errors.Is(err, store.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
