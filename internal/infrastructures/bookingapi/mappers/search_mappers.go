package mappers

import (
	"strings"

	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/ozzus/fan-stay/internal/infrastructures/bookingapi/dto"
)

const dateLayout = "2006-01-02"

// SearchRequestFromQuery builds the wire request. A zero MaxPrice leaves the
// upper bound out so the search is unbounded.
func SearchRequestFromQuery(q models.SearchQuery) dto.SearchRequest {
	req := dto.SearchRequest{
		CheckIn:          q.CheckIn.UTC().Format(dateLayout),
		CheckOut:         q.CheckOut.UTC().Format(dateLayout),
		Guests:           GuestRooms(q.Guests()),
		Page:             q.Page,
		Limit:            q.Limit,
		Sort:             string(q.Sort),
		MinPrice:         q.MinPrice,
		Categories:       q.Categories,
		FreeCancellation: q.FreeCancellation,
	}
	if req.Limit <= 0 {
		req.Limit = models.PageSize
	}
	if q.HasPriceCap() {
		maxPrice := q.MaxPrice
		req.MaxPrice = &maxPrice
	}

	switch q.Destination.Kind() {
	case models.DestinationRegion:
		req.RegionID = q.Destination.RegionID
	case models.DestinationName:
		req.NameIncludes = strings.TrimSpace(q.Destination.NameIncludes)
	case models.DestinationGeo:
		geo := q.Destination.Geo
		req.Geo = &dto.GeoSelector{Latitude: geo.Lat, Longitude: geo.Lon, Radius: geo.RadiusMeters}
	}
	return req
}

func RatesRequestFromStay(stay models.Stay) dto.RatesRequest {
	return dto.RatesRequest{
		CheckIn:  stay.CheckIn.UTC().Format(dateLayout),
		CheckOut: stay.CheckOut.UTC().Format(dateLayout),
		Guests:   GuestRooms(stay.Guests),
	}
}

// GuestRooms puts every guest into a single room, which is all the client books.
func GuestRooms(counts models.GuestCounts) []dto.GuestRoom {
	children := make([]int, len(counts.ChildrenAges))
	copy(children, counts.ChildrenAges)
	return []dto.GuestRoom{{Adults: counts.Adults, Children: children}}
}

func ListingsFromDTO(items []dto.Listing) []models.Listing {
	out := make([]models.Listing, 0, len(items))
	for _, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			continue
		}
		out = append(out, models.Listing{
			ID:          id,
			Name:        item.Name,
			Address:     item.Address,
			RegionID:    item.RegionID,
			RegionName:  item.RegionName,
			Location:    models.GeoPoint{Lat: item.Latitude, Lon: item.Longitude},
			Images:      item.Images,
			Rating:      item.StarRating,
			ReviewCount: item.ReviewCount,
		})
	}
	return out
}

func RegionsFromDTO(items []dto.Region) []models.RegionSuggestion {
	out := make([]models.RegionSuggestion, 0, len(items))
	for _, item := range items {
		if item.ID <= 0 {
			continue
		}
		out = append(out, models.RegionSuggestion{
			RegionID: item.ID,
			Name:     item.Name,
			Country:  item.CountryCode,
			Type:     item.Type,
		})
	}
	return out
}

func RoomGroupsFromDTO(items []dto.RoomGroup) []models.RoomGroup {
	out := make([]models.RoomGroup, 0, len(items))
	for _, item := range items {
		out = append(out, models.RoomGroup{
			ID:        item.RoomGroupID,
			Title:     item.Name,
			Name:      models.RoomName{MainName: item.MainName, BeddingType: item.BeddingType},
			Amenities: item.Amenities,
			Images:    item.Images,
			Capacity:  item.Capacity,
		})
	}
	return out
}
