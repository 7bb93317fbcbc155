package errors

import "errors"

var (
	ErrSourceTemporary       = errors.New("temporary source failure")
	ErrRejected              = errors.New("request rejected by booking service")
	ErrInvalidQuery          = errors.New("invalid search query")
	ErrInvalidDestination    = errors.New("exactly one destination selector must be set")
	ErrRatesNotFound         = errors.New("rates not found")
	ErrQueryNotFound         = errors.New("search query not found")
	ErrSessionNotFound       = errors.New("booking session not found")
	ErrInvalidTransition     = errors.New("invalid booking state transition")
	ErrBookingInProgress     = errors.New("booking stage already in progress")
	ErrGuestRosterInvalid    = errors.New("guest roster is incomplete or invalid")
	ErrPaymentCaptureFailed  = errors.New("payment capture failed")
	ErrOrderNotFound         = errors.New("order not found")
	ErrOrderAlreadyCancelled = errors.New("order already cancelled")
	ErrStaleResponse         = errors.New("response belongs to a superseded request")
	ErrQuestNotFound         = errors.New("quest not found")
)

// Kind groups errors by how callers are expected to react to them.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindRecoverable
	KindValidation
	KindBestEffort
)

func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrGuestRosterInvalid),
		errors.Is(err, ErrInvalidQuery),
		errors.Is(err, ErrInvalidDestination),
		errors.Is(err, ErrInvalidTransition):
		return KindValidation
	case errors.Is(err, ErrQuestNotFound):
		return KindBestEffort
	default:
		return KindRecoverable
	}
}

// UserMessage returns a single human-readable line for a stage error slot.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrPaymentCaptureFailed):
		return "Payment could not be captured. You have not been charged."
	case errors.Is(err, ErrOrderAlreadyCancelled):
		return "This order has already been cancelled."
	case errors.Is(err, ErrOrderNotFound), errors.Is(err, ErrRatesNotFound):
		return "The selected rate is no longer available."
	case errors.Is(err, ErrRejected):
		return "The booking service rejected the request."
	case errors.Is(err, ErrSourceTemporary):
		return "The booking service is temporarily unavailable. Please try again."
	case errors.Is(err, ErrBookingInProgress):
		return "Another booking step is still in progress."
	default:
		return "Something went wrong. Please try again."
	}
}
