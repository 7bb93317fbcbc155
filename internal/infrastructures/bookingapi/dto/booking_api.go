package dto

import (
	"time"

	"github.com/goccy/go-json"
)

// Envelope wraps every booking API response body.
type Envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error,omitempty"`
}

type SearchRequest struct {
	RegionID         int64        `json:"region_id,omitempty"`
	NameIncludes     string       `json:"name_includes,omitempty"`
	Geo              *GeoSelector `json:"geo,omitempty"`
	CheckIn          string       `json:"checkin"`
	CheckOut         string       `json:"checkout"`
	Guests           []GuestRoom  `json:"guests"`
	Page             int          `json:"page"`
	Limit            int          `json:"limit"`
	Sort             string       `json:"sort,omitempty"`
	MinPrice         float64      `json:"min_price,omitempty"`
	MaxPrice         *float64     `json:"max_price,omitempty"`
	Categories       []string     `json:"categories,omitempty"`
	FreeCancellation bool         `json:"free_cancellation,omitempty"`
}

type GeoSelector struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Radius    int     `json:"radius"`
}

type GuestRoom struct {
	Adults   int   `json:"adults"`
	Children []int `json:"children,omitempty"`
}

type Listing struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	RegionID    int64    `json:"region_id"`
	RegionName  string   `json:"region_name"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Images      []string `json:"images"`
	StarRating  float64  `json:"star_rating"`
	ReviewCount int      `json:"review_count"`
}

type Region struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code"`
	Type        string `json:"type"`
}

type RatesRequest struct {
	CheckIn  string      `json:"checkin"`
	CheckOut string      `json:"checkout"`
	Guests   []GuestRoom `json:"guests"`
}

type RoomGroup struct {
	RoomGroupID string   `json:"room_group_id"`
	Name        string   `json:"name"`
	MainName    string   `json:"main_name"`
	BeddingType string   `json:"bedding_type"`
	Amenities   []string `json:"amenities"`
	Images      []string `json:"images"`
	Capacity    int      `json:"capacity"`
}

type PreBookRequest struct {
	BookHash string `json:"book_hash"`
}

type CreateOrderRequest struct {
	PropertyID     string `json:"property_id"`
	Hash           string `json:"hash"`
	PartnerOrderID string `json:"partner_order_id"`
}

type CreateOrderResponse struct {
	OrderID string `json:"order_id"`
}

type FinishRequest struct {
	Guests  []Guest        `json:"guests"`
	Payment PaymentCapture `json:"payment"`
}

type Guest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	IsChild   bool   `json:"is_child,omitempty"`
}

type Order struct {
	OrderID    string    `json:"order_id"`
	PropertyID string    `json:"property_id"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type CaptureRequest struct {
	OrderID      string  `json:"order_id"`
	Token        string  `json:"token"`
	Amount       float64 `json:"amount"`
	CurrencyCode string  `json:"currency_code"`
}

type PaymentCapture struct {
	Reference    string    `json:"reference"`
	Amount       float64   `json:"amount"`
	CurrencyCode string    `json:"currency_code"`
	CapturedAt   time.Time `json:"captured_at"`
}

type Notification struct {
	UserID  string `json:"user_id"`
	Kind    string `json:"kind"`
	OrderID string `json:"order_id"`
	Content string `json:"content"`
}

type Quest struct {
	ID    string `json:"id"`
	Tag   string `json:"tag"`
	Title string `json:"title"`
}

type UserQuest struct {
	QuestID     string    `json:"quest_id"`
	CompletedAt time.Time `json:"completed_at"`
}

type GrantQuestRequest struct {
	QuestID string `json:"quest_id"`
}
