package mappers

import (
	"testing"
	"time"

	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/ozzus/fan-stay/internal/infrastructures/bookingapi/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ratesPayload = `{
	"rates": [
		{
			"book_hash": "bh-1",
			"room_name": "Deluxe Double",
			"room_data_trans": {"bedding_type": "double"},
			"daily_prices": ["100.00", 110],
			"meal": "breakfast",
			"meal_data": {"has_breakfast": true},
			"payment_options": {"payment_types": [
				{
					"type": "now",
					"amount": "210.00",
					"currency_code": "usd",
					"commission_inclusive_amount": 231,
					"tax_data": {"taxes": [
						{"name": "city_tax", "amount": "5.50", "currency_code": "USD", "included_by": "supplier"},
						{"name": "broken", "amount": "n/a", "currency_code": "USD"}
					]},
					"cancellation_penalties": {"free_cancellation_before": "2026-06-01T12:00:00"}
				}
			]}
		},
		{"room_name": "no hash"},
		{
			"book_hash": "bh-2",
			"room_name": "Standard",
			"payment_options": {"payment_types": [{"currency_code": "USD"}]}
		}
	]
}`

func TestExtractRates(t *testing.T) {
	got := ExtractRates([]byte(ratesPayload))
	require.Len(t, got, 2)

	first := got[0]
	assert.Equal(t, "bh-1", first.BookHash)
	assert.Equal(t, "Deluxe Double", first.RoomName)
	assert.Equal(t, "double", first.BeddingType)
	assert.Equal(t, []float64{100, 110}, first.DailyPrices)
	assert.Equal(t, 2, first.Nights)
	assert.True(t, first.Meal.HasBreakfast)
	assert.True(t, first.HasFreeCancellation())

	require.Len(t, first.PaymentTypes, 1)
	pt := first.PaymentTypes[0]
	require.NotNil(t, pt.Amount)
	require.NotNil(t, pt.CommissionInclusiveAmount)
	assert.Equal(t, 210.0, *pt.Amount)
	assert.Equal(t, 231.0, *pt.CommissionInclusiveAmount)
	assert.Equal(t, "USD", pt.CurrencyCode)
	require.Len(t, pt.Taxes, 1)
	assert.Equal(t, 5.5, pt.Taxes[0].Amount)
	assert.Equal(t, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC), *pt.Cancellation.FreeCancellationBefore)

	second := got[1]
	require.Len(t, second.PaymentTypes, 1)
	assert.Nil(t, second.PaymentTypes[0].Amount)
	assert.Nil(t, second.PaymentTypes[0].CommissionInclusiveAmount)
	assert.False(t, second.HasFreeCancellation())
}

func TestExtractRates_MissingList(t *testing.T) {
	got := ExtractRates([]byte(`{"hotels": []}`))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractPriceSnapshot(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    models.PriceSnapshot
	}{
		{
			name:    "commission inclusive amount wins",
			payload: `{"hash":"h-1","changed":true,"payment_types":[{"amount":"200","commission_inclusive_amount":"220","currency_code":"eur"}]}`,
			want:    models.PriceSnapshot{Hash: "h-1", Amount: 220, CurrencyCode: "EUR", Changed: true},
		},
		{
			name:    "falls back to base amount",
			payload: `{"hash":"h-2","rate":{"payment_options":{"payment_types":[{"amount":150,"currency_code":"USD"}]}}}`,
			want:    models.PriceSnapshot{Hash: "h-2", Amount: 150, CurrencyCode: "USD"},
		},
		{
			name:    "no payment types",
			payload: `{"hash":"h-3"}`,
			want:    models.PriceSnapshot{Hash: "h-3"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ExtractPriceSnapshot([]byte(tc.payload))
			got.Payment = nil
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractPriceSnapshot_KeepsPrimaryPayment(t *testing.T) {
	payload := `{"hash":"h-1","payment_types":[{"amount":"100","currency_code":"USD",
		"tax_data":{"taxes":[{"amount":"10","currency_code":"USD"}]}}]}`

	got := ExtractPriceSnapshot([]byte(payload))
	require.NotNil(t, got.Payment)
	assert.Equal(t, 100.0, got.Payment.BaseAmount())
	require.Len(t, got.Payment.Taxes, 1)
	assert.Equal(t, 10.0, got.Payment.Taxes[0].Amount)
	assert.Nil(t, got.Breakdown)
}

func TestSearchRequestFromQuery(t *testing.T) {
	base := models.SearchQuery{
		CheckIn:      time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut:     time.Date(2026, 7, 4, 0, 0, 0, 0, time.UTC),
		Adults:       2,
		ChildrenAges: []int{7},
	}

	unbounded := SearchRequestFromQuery(base.WithRegion(42).WithPage(1))
	assert.Nil(t, unbounded.MaxPrice)
	assert.Equal(t, int64(42), unbounded.RegionID)
	assert.Nil(t, unbounded.Geo)
	assert.Equal(t, models.PageSize, unbounded.Limit)
	assert.Equal(t, "2026-07-01", unbounded.CheckIn)
	assert.Equal(t, []dto.GuestRoom{{Adults: 2, Children: []int{7}}}, unbounded.Guests)

	capped := base.WithGeo(55.75, 37.61, 1500)
	capped.MaxPrice = 300
	req := SearchRequestFromQuery(capped)
	require.NotNil(t, req.MaxPrice)
	assert.Equal(t, 300.0, *req.MaxPrice)
	require.NotNil(t, req.Geo)
	assert.Equal(t, 1500, req.Geo.Radius)
	assert.Zero(t, req.RegionID)
	assert.Equal(t, models.PageSize, req.Limit)
}

func TestOrderFromDTO(t *testing.T) {
	assert.Equal(t, models.OrderConfirmed, OrderFromDTO(dto.Order{Status: "completed"}).Status)
	assert.Equal(t, models.OrderCancelled, OrderFromDTO(dto.Order{Status: "Canceled"}).Status)
	assert.Equal(t, models.OrderPending, OrderFromDTO(dto.Order{Status: "processing"}).Status)
}

func TestListingsFromDTO_SkipsMissingIDs(t *testing.T) {
	got := ListingsFromDTO([]dto.Listing{{ID: " "}, {ID: "l-1", Latitude: 1, Longitude: 2}})
	require.Len(t, got, 1)
	assert.Equal(t, models.GeoPoint{Lat: 1, Lon: 2}, got[0].Location)
}
