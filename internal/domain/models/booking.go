package models

import (
	"fmt"
	"time"
)

type BookingState uint8

const (
	StateDraft BookingState = iota
	StatePreBooked
	StateInitialized
	StateGuestsCollected
	StateFinished
	StateCancelled
	StateAbandoned
)

func (s BookingState) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StatePreBooked:
		return "prebooked"
	case StateInitialized:
		return "initialized"
	case StateGuestsCollected:
		return "guests_collected"
	case StateFinished:
		return "finished"
	case StateCancelled:
		return "cancelled"
	case StateAbandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

func (s BookingState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *BookingState) UnmarshalText(text []byte) error {
	parsed, ok := ParseBookingState(string(text))
	if !ok {
		return fmt.Errorf("unknown booking state %q", text)
	}
	*s = parsed
	return nil
}

func ParseBookingState(value string) (BookingState, bool) {
	for s := StateDraft; s <= StateAbandoned; s++ {
		if s.String() == value {
			return s, true
		}
	}
	return StateDraft, false
}

func (s BookingState) Terminal() bool {
	return s == StateFinished || s == StateCancelled || s == StateAbandoned
}

type GuestCounts struct {
	Adults       int   `json:"adults" validate:"min=1"`
	ChildrenAges []int `json:"children_ages,omitempty" validate:"omitempty,dive,min=0,max=17"`
}

func (g GuestCounts) Total() int {
	return g.Adults + len(g.ChildrenAges)
}

type Guest struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	IsChild   bool   `json:"is_child"`
}

// PriceSnapshot is the authoritative pricing returned by pre-book. Payment is
// the primary payment type the amount is reconciled from; Breakdown is set
// once the orchestrator has reconciled it and Amount then equals its total.
type PriceSnapshot struct {
	Hash         string          `json:"hash"`
	Amount       float64         `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
	Changed      bool            `json:"changed"`
	Payment      *PaymentType    `json:"payment,omitempty"`
	Breakdown    *PriceBreakdown `json:"breakdown,omitempty"`
}

type PaymentCapture struct {
	Reference    string    `json:"reference"`
	Amount       float64   `json:"amount"`
	CurrencyCode string    `json:"currency_code"`
	CapturedAt   time.Time `json:"captured_at"`
}

// StageErrors keeps one user-facing message per booking stage.
type StageErrors struct {
	PreBook    string `json:"prebook,omitempty"`
	Initialize string `json:"initialize,omitempty"`
	Finish     string `json:"finish,omitempty"`
	Cancel     string `json:"cancel,omitempty"`
}

type BookingSession struct {
	ID         string          `json:"id"`
	UserID     string          `json:"user_id"`
	PropertyID string          `json:"property_id"`
	BookHash   string          `json:"book_hash"`
	Hash       string          `json:"hash,omitempty"`
	OrderID    string          `json:"order_id,omitempty"`
	State      BookingState    `json:"state"`
	Guests     GuestCounts     `json:"guests"`
	Roster     []Guest         `json:"roster,omitempty"`
	Snapshot   *PriceSnapshot  `json:"snapshot,omitempty"`
	Payment    *PaymentCapture `json:"payment,omitempty"`
	Errors     StageErrors     `json:"errors"`
	Loading    bool            `json:"loading"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderCancelled OrderStatus = "cancelled"
)

type Order struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	PropertyID string      `json:"property_id,omitempty"`
	Status     OrderStatus `json:"status"`
	UpdatedAt  time.Time   `json:"updated_at"`
}
