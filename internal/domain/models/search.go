package models

import (
	"strings"
	"time"
)

// PageSize is the fixed number of listings requested per search page.
const PageSize = 24

type SortKey string

const (
	SortRecommended SortKey = "recommended"
	SortPriceAsc    SortKey = "price_asc"
	SortPriceDesc   SortKey = "price_desc"
	SortRating      SortKey = "rating"
)

type DestinationKind uint8

const (
	DestinationNone DestinationKind = iota
	DestinationRegion
	DestinationName
	DestinationGeo
)

type GeoRadius struct {
	Lat          float64 `json:"lat" validate:"gte=-90,lte=90"`
	Lon          float64 `json:"lon" validate:"gte=-180,lte=180"`
	RadiusMeters int     `json:"radius_meters" validate:"gt=0"`
}

// Destination holds at most one populated selector. Use the SearchQuery
// setters to change it so the other selectors are cleared.
type Destination struct {
	RegionID     int64      `json:"region_id,omitempty"`
	NameIncludes string     `json:"name_includes,omitempty"`
	Geo          *GeoRadius `json:"geo,omitempty" validate:"omitempty"`
}

func (d Destination) Kind() DestinationKind {
	set := 0
	kind := DestinationNone
	if d.RegionID > 0 {
		set++
		kind = DestinationRegion
	}
	if strings.TrimSpace(d.NameIncludes) != "" {
		set++
		kind = DestinationName
	}
	if d.Geo != nil {
		set++
		kind = DestinationGeo
	}
	if set != 1 {
		return DestinationNone
	}
	return kind
}

type SearchQuery struct {
	Destination      Destination `json:"destination"`
	CheckIn          time.Time   `json:"checkin" validate:"required"`
	CheckOut         time.Time   `json:"checkout" validate:"required,gtfield=CheckIn"`
	Adults           int         `json:"adults" validate:"min=1"`
	ChildrenAges     []int       `json:"children_ages,omitempty" validate:"omitempty,dive,min=0,max=17"`
	Page             int         `json:"page" validate:"min=0"`
	Limit            int         `json:"limit" validate:"min=0"`
	Sort             SortKey     `json:"sort,omitempty" validate:"omitempty,oneof=recommended price_asc price_desc rating"`
	MinPrice         float64     `json:"min_price,omitempty" validate:"gte=0"`
	MaxPrice         float64     `json:"max_price,omitempty" validate:"gte=0"`
	Categories       []string    `json:"categories,omitempty"`
	FreeCancellation bool        `json:"free_cancellation,omitempty"`
}

func (q SearchQuery) WithRegion(regionID int64) SearchQuery {
	q.Destination = Destination{RegionID: regionID}
	return q
}

func (q SearchQuery) WithNameIncludes(text string) SearchQuery {
	q.Destination = Destination{NameIncludes: text}
	return q
}

func (q SearchQuery) WithGeo(lat, lon float64, radiusMeters int) SearchQuery {
	q.Destination = Destination{Geo: &GeoRadius{Lat: lat, Lon: lon, RadiusMeters: radiusMeters}}
	return q
}

// WithPage returns a copy of the query positioned at page with the fixed page size.
func (q SearchQuery) WithPage(page int) SearchQuery {
	q.Page = page
	q.Limit = PageSize
	return q
}

// HasPriceCap reports whether an upper price bound applies. A zero MaxPrice
// means the search is unbounded.
func (q SearchQuery) HasPriceCap() bool {
	return q.MaxPrice > 0
}

func (q SearchQuery) Nights() int {
	if q.CheckOut.Before(q.CheckIn) {
		return 0
	}
	return int(q.CheckOut.Sub(q.CheckIn).Hours() / 24)
}

func (q SearchQuery) Guests() GuestCounts {
	ages := make([]int, len(q.ChildrenAges))
	copy(ages, q.ChildrenAges)
	return GuestCounts{Adults: q.Adults, ChildrenAges: ages}
}

type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Listing struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Address     string      `json:"address,omitempty"`
	RegionID    int64       `json:"region_id,omitempty"`
	RegionName  string      `json:"region_name,omitempty"`
	Location    GeoPoint    `json:"location"`
	Images      []string    `json:"images,omitempty"`
	Rating      float64     `json:"rating"`
	ReviewCount int         `json:"review_count"`
	Rates       []RateOffer `json:"rates,omitempty"`
}

type SearchResultPage struct {
	Listings []Listing `json:"listings"`
	Page     int       `json:"page"`
	HasMore  bool      `json:"has_more"`
}

type RegionSuggestion struct {
	RegionID int64  `json:"region_id"`
	Name     string `json:"name"`
	Country  string `json:"country,omitempty"`
	Type     string `json:"type,omitempty"`
}
