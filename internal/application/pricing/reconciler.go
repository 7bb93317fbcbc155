package pricing

import (
	"math"

	"github.com/ozzus/fan-stay/internal/domain/models"
)

const bpsDenominator = 10000

// Reconciler turns a rate's payment payload into the amounts shown to the
// user and submitted to checkout. It holds no state besides the fee.
type Reconciler struct {
	feeBps int
}

func NewReconciler(feeBps int) Reconciler {
	if feeBps < 0 {
		feeBps = 0
	}
	return Reconciler{feeBps: feeBps}
}

func (r Reconciler) FeeBps() int {
	return r.feeBps
}

// Breakdown returns the price breakdown of the offer's primary payment type.
// Offers without a usable payment payload yield a zero breakdown.
func (r Reconciler) Breakdown(offer models.RateOffer) models.PriceBreakdown {
	payment, ok := offer.PrimaryPayment()
	if !ok || (payment.Amount == nil && payment.CommissionInclusiveAmount == nil) {
		return models.PriceBreakdown{}
	}

	base := payment.BaseAmount()
	tax := sameCurrencyTaxes(payment)

	out := models.PriceBreakdown{
		BaseAmount:   round2(base),
		TaxTotal:     round2(tax),
		CurrencyCode: payment.CurrencyCode,
	}

	if payment.CommissionInclusiveAmount != nil {
		out.DisplayTotal = round2(*payment.CommissionInclusiveAmount)
		out.CommissionAmount = round2(out.DisplayTotal - out.BaseAmount - out.TaxTotal)
		return out
	}

	out.CommissionAmount = round2(r.commission(base))
	out.DisplayTotal = round2(out.BaseAmount + out.CommissionAmount + out.TaxTotal)
	return out
}

// Nightly returns the per-night display price. Per-night prices win over the
// total; nights falls back to the offer's own night count when not positive.
func (r Reconciler) Nightly(offer models.RateOffer, nights int) float64 {
	if len(offer.DailyPrices) > 0 {
		sum := 0.0
		for _, p := range offer.DailyPrices {
			sum += p
		}
		return round2(r.withCommission(sum / float64(len(offer.DailyPrices))))
	}

	if nights <= 0 {
		nights = offer.Nights
	}
	if nights <= 0 {
		return 0
	}

	return round2(r.Breakdown(offer).DisplayTotal / float64(nights))
}

func (r Reconciler) commission(amount float64) float64 {
	return amount * float64(r.feeBps) / bpsDenominator
}

func (r Reconciler) withCommission(amount float64) float64 {
	return amount * float64(bpsDenominator+r.feeBps) / bpsDenominator
}

// sameCurrencyTaxes sums taxes billed in the payment currency. Other
// currencies are left out since no conversion is performed.
func sameCurrencyTaxes(payment models.PaymentType) float64 {
	total := 0.0
	for _, tax := range payment.Taxes {
		if tax.CurrencyCode == payment.CurrencyCode {
			total += tax.Amount
		}
	}
	return total
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
