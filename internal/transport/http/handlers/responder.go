package handlers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"
	derr "github.com/ozzus/fan-stay/internal/domain/errors"
)

const maxRequestBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeDomainError(w http.ResponseWriter, err error) {
	writeError(w, mapHTTPStatus(err), errorMessage(err))
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", derr.ErrInvalidQuery)
		}
		return fmt.Errorf("%w: malformed request body: %v", derr.ErrInvalidQuery, err)
	}
	return nil
}

func mapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, derr.ErrPaymentCaptureFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, derr.ErrInvalidQuery),
		errors.Is(err, derr.ErrInvalidDestination),
		errors.Is(err, derr.ErrGuestRosterInvalid):
		return http.StatusBadRequest
	case errors.Is(err, derr.ErrSessionNotFound),
		errors.Is(err, derr.ErrOrderNotFound),
		errors.Is(err, derr.ErrRatesNotFound),
		errors.Is(err, derr.ErrQueryNotFound),
		errors.Is(err, derr.ErrQuestNotFound):
		return http.StatusNotFound
	case errors.Is(err, derr.ErrInvalidTransition),
		errors.Is(err, derr.ErrBookingInProgress),
		errors.Is(err, derr.ErrOrderAlreadyCancelled),
		errors.Is(err, derr.ErrStaleResponse):
		return http.StatusConflict
	case errors.Is(err, derr.ErrRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, derr.ErrSourceTemporary):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage shows validation details to the caller and a generic line for
// everything else.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, derr.ErrStaleResponse):
		return "superseded by a newer request"
	case errors.Is(err, derr.ErrOrderAlreadyCancelled):
		return derr.UserMessage(err)
	case derr.KindOf(err) == derr.KindValidation,
		errors.Is(err, derr.ErrSessionNotFound):
		return err.Error()
	default:
		return derr.UserMessage(err)
	}
}
