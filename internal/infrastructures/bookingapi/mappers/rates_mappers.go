package mappers

import (
	"strconv"
	"strings"
	"time"

	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/tidwall/gjson"
)

var penaltyLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ExtractRates maps the loosely typed rates payload into typed offers. Amounts
// may arrive as numbers or strings; rates without a book hash are skipped.
func ExtractRates(payload []byte) []models.RateOffer {
	root := gjson.ParseBytes(payload)
	list := root.Get("rates")
	if !list.IsArray() {
		list = root.Get("hotels.0.rates")
	}
	if !list.IsArray() {
		return []models.RateOffer{}
	}

	offers := make([]models.RateOffer, 0, len(list.Array()))
	list.ForEach(func(_, item gjson.Result) bool {
		hash := strings.TrimSpace(item.Get("book_hash").String())
		if hash == "" {
			return true
		}
		offers = append(offers, mapRate(hash, item))
		return true
	})
	return offers
}

func mapRate(hash string, item gjson.Result) models.RateOffer {
	offer := models.RateOffer{
		BookHash:    hash,
		RoomName:    strings.TrimSpace(item.Get("room_name").String()),
		BeddingType: strings.TrimSpace(item.Get("room_data_trans.bedding_type").String()),
		Meal: models.Meal{
			Value:        item.Get("meal").String(),
			HasBreakfast: item.Get("meal_data.has_breakfast").Bool(),
		},
	}

	for _, p := range item.Get("daily_prices").Array() {
		if v := optionalAmount(p); v != nil {
			offer.DailyPrices = append(offer.DailyPrices, *v)
		}
	}
	offer.Nights = len(offer.DailyPrices)

	for _, p := range item.Get("payment_options.payment_types").Array() {
		offer.PaymentTypes = append(offer.PaymentTypes, MapPaymentType(p))
	}
	return offer
}

// MapPaymentType reads one payment type object. Missing amounts stay nil.
func MapPaymentType(p gjson.Result) models.PaymentType {
	pt := models.PaymentType{
		Type:                      p.Get("type").String(),
		Amount:                    optionalAmount(p.Get("amount")),
		CurrencyCode:              strings.ToUpper(strings.TrimSpace(p.Get("currency_code").String())),
		CommissionInclusiveAmount: optionalAmount(p.Get("commission_inclusive_amount")),
	}

	for _, tax := range p.Get("tax_data.taxes").Array() {
		amount := optionalAmount(tax.Get("amount"))
		if amount == nil {
			continue
		}
		pt.Taxes = append(pt.Taxes, models.TaxEntry{
			Name:         tax.Get("name").String(),
			Amount:       *amount,
			CurrencyCode: strings.ToUpper(strings.TrimSpace(tax.Get("currency_code").String())),
			IncludedBy:   tax.Get("included_by").String(),
		})
	}

	if ts, ok := parsePenaltyTime(p.Get("cancellation_penalties.free_cancellation_before").String()); ok {
		pt.Cancellation.FreeCancellationBefore = &ts
	}
	return pt
}

// ExtractPriceSnapshot reads the pre-book payload. Amount is the raw remote
// figure (commission inclusive when present, otherwise the base amount); the
// primary payment type is kept so the caller can reconcile taxes and fees.
func ExtractPriceSnapshot(payload []byte) models.PriceSnapshot {
	root := gjson.ParseBytes(payload)
	snapshot := models.PriceSnapshot{
		Hash:    strings.TrimSpace(root.Get("hash").String()),
		Changed: root.Get("changed").Bool(),
	}

	first := root.Get("payment_types.0")
	if !first.Exists() {
		first = root.Get("rate.payment_options.payment_types.0")
	}
	if !first.Exists() {
		return snapshot
	}

	pt := MapPaymentType(first)
	snapshot.Payment = &pt
	snapshot.CurrencyCode = pt.CurrencyCode
	switch {
	case pt.CommissionInclusiveAmount != nil:
		snapshot.Amount = *pt.CommissionInclusiveAmount
	case pt.Amount != nil:
		snapshot.Amount = *pt.Amount
	}
	return snapshot
}

func optionalAmount(r gjson.Result) *float64 {
	switch r.Type {
	case gjson.Number:
		v := r.Float()
		return &v
	case gjson.String:
		s := strings.TrimSpace(r.Str)
		if s == "" {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		return &v
	default:
		return nil
	}
}

func parsePenaltyTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range penaltyLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
