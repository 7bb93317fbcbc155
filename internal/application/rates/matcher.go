package rates

import (
	"sort"

	"github.com/ozzus/fan-stay/internal/domain/models"
)

// Match pairs every room with the offers that belong to it and pass filters.
// Offers are ordered by base payment amount; rooms left without offers are
// dropped.
func Match(rooms []models.RoomGroup, offers []models.RateOffer, filters models.RateFilters) []models.RoomWithRates {
	if len(rooms) == 0 || len(offers) == 0 {
		return []models.RoomWithRates{}
	}

	filtered := make([]models.RateOffer, 0, len(offers))
	for _, offer := range offers {
		if !filters.Breakfast.Accepts(offer.Meal.HasBreakfast) {
			continue
		}
		if !filters.FreeCancellation.Accepts(offer.HasFreeCancellation()) {
			continue
		}
		filtered = append(filtered, offer)
	}

	result := make([]models.RoomWithRates, 0, len(rooms))
	for _, room := range rooms {
		matched := make([]models.RateOffer, 0)
		for _, offer := range filtered {
			if belongsTo(offer, room) {
				matched = append(matched, offer)
			}
		}
		if len(matched) == 0 {
			continue
		}

		sort.SliceStable(matched, func(i, j int) bool {
			return baseAmount(matched[i]) < baseAmount(matched[j])
		})
		result = append(result, models.RoomWithRates{Room: room, Rates: matched})
	}

	return result
}

func belongsTo(offer models.RateOffer, room models.RoomGroup) bool {
	return offer.RoomName == room.Name.MainName && offer.BeddingType == room.Name.BeddingType
}

func baseAmount(offer models.RateOffer) float64 {
	payment, ok := offer.PrimaryPayment()
	if !ok {
		return 0
	}
	return payment.BaseAmount()
}
