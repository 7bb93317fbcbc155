package models

import (
	"strconv"
	"strings"
	"time"
)

type RoomName struct {
	MainName    string `json:"main_name"`
	BeddingType string `json:"bedding_type"`
}

type RoomGroup struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Name      RoomName `json:"name"`
	Amenities []string `json:"amenities,omitempty"`
	Images    []string `json:"images,omitempty"`
	Capacity  int      `json:"capacity"`
}

type TaxEntry struct {
	Name         string  `json:"name,omitempty"`
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currency_code"`
	IncludedBy   string  `json:"included_by,omitempty"`
}

type CancellationPenalty struct {
	FreeCancellationBefore *time.Time `json:"free_cancellation_before,omitempty"`
}

// PaymentType is one way of paying for a rate. Optional amounts are nil when
// the booking service did not send them.
type PaymentType struct {
	Type                      string              `json:"type,omitempty"`
	Amount                    *float64            `json:"amount,omitempty"`
	CurrencyCode              string              `json:"currency_code"`
	CommissionInclusiveAmount *float64            `json:"commission_inclusive_amount,omitempty"`
	Taxes                     []TaxEntry          `json:"taxes,omitempty"`
	Cancellation              CancellationPenalty `json:"cancellation"`
}

func (p PaymentType) BaseAmount() float64 {
	if p.Amount == nil {
		return 0
	}
	return *p.Amount
}

type Meal struct {
	Value        string `json:"value,omitempty"`
	HasBreakfast bool   `json:"has_breakfast"`
}

type RateOffer struct {
	BookHash     string        `json:"book_hash"`
	RoomName     string        `json:"room_name"`
	BeddingType  string        `json:"bedding_type"`
	DailyPrices  []float64     `json:"daily_prices,omitempty"`
	Meal         Meal          `json:"meal"`
	Nights       int           `json:"nights,omitempty"`
	PaymentTypes []PaymentType `json:"payment_types,omitempty"`
}

// PrimaryPayment returns the payment type carrying the authoritative amounts.
func (r RateOffer) PrimaryPayment() (PaymentType, bool) {
	if len(r.PaymentTypes) == 0 {
		return PaymentType{}, false
	}
	return r.PaymentTypes[0], true
}

func (r RateOffer) HasFreeCancellation() bool {
	for _, p := range r.PaymentTypes {
		if p.Cancellation.FreeCancellationBefore != nil {
			return true
		}
	}
	return false
}

type PriceBreakdown struct {
	BaseAmount       float64 `json:"base_amount"`
	CommissionAmount float64 `json:"commission_amount"`
	TaxTotal         float64 `json:"tax_total"`
	DisplayTotal     float64 `json:"display_total"`
	CurrencyCode     string  `json:"currency_code"`
}

type RoomWithRates struct {
	Room  RoomGroup   `json:"room"`
	Rates []RateOffer `json:"rates"`
}

type FilterMode string

const (
	FilterAll     FilterMode = "all"
	FilterWith    FilterMode = "with"
	FilterWithout FilterMode = "without"
)

// Accepts reports whether a rate with or without the feature passes the filter.
func (m FilterMode) Accepts(has bool) bool {
	switch m {
	case FilterWith:
		return has
	case FilterWithout:
		return !has
	default:
		return true
	}
}

type RateFilters struct {
	Breakfast        FilterMode `json:"breakfast" validate:"omitempty,oneof=all with without"`
	FreeCancellation FilterMode `json:"free_cancellation" validate:"omitempty,oneof=all with without"`
}

type Stay struct {
	CheckIn  time.Time   `json:"checkin" validate:"required"`
	CheckOut time.Time   `json:"checkout" validate:"required,gtfield=CheckIn"`
	Guests   GuestCounts `json:"guests"`
}

func (s Stay) Nights() int {
	if !s.CheckOut.After(s.CheckIn) {
		return 0
	}
	return int(s.CheckOut.Sub(s.CheckIn).Hours() / 24)
}

// Key identifies the stay in cache keys.
func (s Stay) Key() string {
	ages := make([]string, 0, len(s.Guests.ChildrenAges))
	for _, age := range s.Guests.ChildrenAges {
		ages = append(ages, strconv.Itoa(age))
	}
	return strings.Join([]string{
		s.CheckIn.UTC().Format("2006-01-02"),
		s.CheckOut.UTC().Format("2006-01-02"),
		strconv.Itoa(s.Guests.Adults),
		strings.Join(ages, "-"),
	}, ":")
}
