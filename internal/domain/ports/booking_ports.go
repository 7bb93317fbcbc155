package ports

import (
	"context"
	"time"

	"github.com/ozzus/fan-stay/internal/domain/models"
)

type RateSource interface {
	FetchRates(ctx context.Context, propertyID string, stay models.Stay) ([]models.RateOffer, error)
}

type RoomCatalog interface {
	FetchRoomGroups(ctx context.Context, propertyID string) ([]models.RoomGroup, error)
}

type RateCache interface {
	GetRates(ctx context.Context, propertyID string, stay models.Stay) ([]models.RateOffer, error)
	SetRates(ctx context.Context, propertyID string, stay models.Stay, offers []models.RateOffer, ttl time.Duration) error
}

type FinishRequest struct {
	OrderID        string
	IdempotencyKey string
	Guests         []models.Guest
	Payment        models.PaymentCapture
}

type BookingGateway interface {
	PreBook(ctx context.Context, bookHash string) (models.PriceSnapshot, error)
	// InitializeBooking creates the remote order. partnerOrderID identifies the
	// booking on our side so a retried call resolves to the same order.
	InitializeBooking(ctx context.Context, propertyID, hash, partnerOrderID string) (string, error)
	FinishBooking(ctx context.Context, req FinishRequest) (models.Order, error)
	CancelBooking(ctx context.Context, orderID string) (models.Order, error)
}

type CaptureRequest struct {
	OrderID      string
	Token        string
	Amount       float64
	CurrencyCode string
}

type PaymentCapturer interface {
	CapturePayment(ctx context.Context, req CaptureRequest) (models.PaymentCapture, error)
}

type SessionRepository interface {
	SaveSession(ctx context.Context, session models.BookingSession) error
	// LoadSession returns derr.ErrSessionNotFound when nothing is stored.
	LoadSession(ctx context.Context, sessionID string) (models.BookingSession, error)
	UpsertOrder(ctx context.Context, order models.Order) error
	ListOrders(ctx context.Context, userID string) ([]models.Order, error)
}

type NotificationSink interface {
	CreateNotification(ctx context.Context, notification models.Notification) error
}

type QuestStore interface {
	FindQuestByTag(ctx context.Context, tag string) (models.Quest, error)
	FetchUserQuests(ctx context.Context, userID string) ([]models.UserQuest, error)
	GrantQuest(ctx context.Context, userID, questID string) error
}
