package bookingapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/ozzus/fan-stay/internal/domain/ports"
	"github.com/ozzus/fan-stay/internal/infrastructures/bookingapi/dto"
	"github.com/ozzus/fan-stay/internal/infrastructures/bookingapi/mappers"
)

var (
	_ ports.ListingSearcher  = (*Client)(nil)
	_ ports.RegionSuggester  = (*Client)(nil)
	_ ports.RateSource       = (*Client)(nil)
	_ ports.RoomCatalog      = (*Client)(nil)
	_ ports.SavedListings    = (*Client)(nil)
	_ ports.BookingGateway   = (*Client)(nil)
	_ ports.PaymentCapturer  = (*Client)(nil)
	_ ports.NotificationSink = (*Client)(nil)
	_ ports.QuestStore       = (*Client)(nil)
)

func (c *Client) PreBook(ctx context.Context, bookHash string) (models.PriceSnapshot, error) {
	data, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/v1/bookings/prebook",
		body:     dto.PreBookRequest{BookHash: bookHash},
		notFound: derr.ErrRatesNotFound,
	})
	if err != nil {
		return models.PriceSnapshot{}, err
	}
	return mappers.ExtractPriceSnapshot(data), nil
}

// InitializeBooking sends partnerOrderID so the booking service can resolve a
// repeated call to the order it already created. An empty id gets a fresh one.
func (c *Client) InitializeBooking(ctx context.Context, propertyID, hash, partnerOrderID string) (string, error) {
	partnerOrderID = strings.TrimSpace(partnerOrderID)
	if partnerOrderID == "" {
		partnerOrderID = newPartnerOrderID()
	}

	data, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/v1/bookings/orders",
		body: dto.CreateOrderRequest{
			PropertyID:     propertyID,
			Hash:           hash,
			PartnerOrderID: partnerOrderID,
		},
		header: map[string]string{"Idempotency-Key": partnerOrderID},
		notFound: derr.ErrRatesNotFound,
	})
	if err != nil {
		return "", err
	}

	resp, err := decodeData[dto.CreateOrderResponse](data, "created order")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.OrderID), nil
}

func (c *Client) FinishBooking(ctx context.Context, req ports.FinishRequest) (models.Order, error) {
	r := request{
		method: http.MethodPost,
		path:   "/v1/bookings/orders/" + pathID(req.OrderID) + "/finish",
		body: dto.FinishRequest{
			Guests:  mappers.GuestsToDTO(req.Guests),
			Payment: mappers.CaptureToDTO(req.Payment),
		},
		notFound: derr.ErrOrderNotFound,
	}
	if req.IdempotencyKey != "" {
		r.header = map[string]string{"Idempotency-Key": req.IdempotencyKey}
	}

	data, err := c.do(ctx, r)
	if err != nil {
		return models.Order{}, err
	}
	return orderFromData(data, req.OrderID)
}

// CancelBooking maps a conflict response to ErrOrderAlreadyCancelled.
func (c *Client) CancelBooking(ctx context.Context, orderID string) (models.Order, error) {
	data, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/v1/bookings/orders/" + pathID(orderID) + "/cancel",
		notFound: derr.ErrOrderNotFound,
		conflict: derr.ErrOrderAlreadyCancelled,
	})
	if err != nil {
		return models.Order{}, err
	}
	return orderFromData(data, orderID)
}

func (c *Client) CapturePayment(ctx context.Context, req ports.CaptureRequest) (models.PaymentCapture, error) {
	data, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/v1/payments/capture",
		body: dto.CaptureRequest{
			OrderID:      req.OrderID,
			Token:        req.Token,
			Amount:       req.Amount,
			CurrencyCode: req.CurrencyCode,
		},
		notFound: derr.ErrOrderNotFound,
	})
	if err != nil {
		return models.PaymentCapture{}, err
	}

	resp, err := decodeData[dto.PaymentCapture](data, "payment capture")
	if err != nil {
		return models.PaymentCapture{}, err
	}
	if strings.TrimSpace(resp.Reference) == "" {
		return models.PaymentCapture{}, fmt.Errorf("%w: capture response without reference", derr.ErrRejected)
	}
	return mappers.CaptureFromDTO(resp), nil
}

func (c *Client) CreateNotification(ctx context.Context, notification models.Notification) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/v1/notifications",
		body:   mappers.NotificationToDTO(notification),
	})
	return err
}

func (c *Client) FindQuestByTag(ctx context.Context, tag string) (models.Quest, error) {
	q := url.Values{}
	q.Set("tag", tag)

	data, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/v1/quests",
		query:    q,
		notFound: derr.ErrQuestNotFound,
	})
	if err != nil {
		return models.Quest{}, err
	}

	items, err := decodeData[[]dto.Quest](data, "quests")
	if err != nil {
		return models.Quest{}, err
	}
	for _, item := range items {
		if item.Tag == tag && item.ID != "" {
			return mappers.QuestFromDTO(item), nil
		}
	}
	return models.Quest{}, fmt.Errorf("%w: tag %q", derr.ErrQuestNotFound, tag)
}

func (c *Client) FetchUserQuests(ctx context.Context, userID string) ([]models.UserQuest, error) {
	data, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/v1/users/" + pathID(userID) + "/quests",
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeData[[]dto.UserQuest](data, "user quests")
	if err != nil {
		return nil, err
	}
	return mappers.UserQuestsFromDTO(userID, items), nil
}

func (c *Client) GrantQuest(ctx context.Context, userID, questID string) error {
	_, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/v1/users/" + pathID(userID) + "/quests",
		body:     dto.GrantQuestRequest{QuestID: questID},
		notFound: derr.ErrQuestNotFound,
	})
	return err
}

func orderFromData(data []byte, fallbackID string) (models.Order, error) {
	resp, err := decodeData[dto.Order](data, "order")
	if err != nil {
		return models.Order{}, err
	}
	order := mappers.OrderFromDTO(resp)
	if order.ID == "" {
		order.ID = fallbackID
	}
	return order, nil
}
