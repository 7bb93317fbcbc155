package mappers

import (
	"strings"

	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/ozzus/fan-stay/internal/infrastructures/bookingapi/dto"
)

func GuestsToDTO(guests []models.Guest) []dto.Guest {
	out := make([]dto.Guest, 0, len(guests))
	for _, g := range guests {
		out = append(out, dto.Guest{FirstName: g.FirstName, LastName: g.LastName, IsChild: g.IsChild})
	}
	return out
}

func CaptureToDTO(c models.PaymentCapture) dto.PaymentCapture {
	return dto.PaymentCapture{
		Reference:    c.Reference,
		Amount:       c.Amount,
		CurrencyCode: c.CurrencyCode,
		CapturedAt:   c.CapturedAt,
	}
}

func CaptureFromDTO(c dto.PaymentCapture) models.PaymentCapture {
	return models.PaymentCapture{
		Reference:    c.Reference,
		Amount:       c.Amount,
		CurrencyCode: strings.ToUpper(c.CurrencyCode),
		CapturedAt:   c.CapturedAt.UTC(),
	}
}

// OrderFromDTO maps the remote order. Unknown statuses are kept as pending; a
// missing status stays empty so the caller can decide.
func OrderFromDTO(o dto.Order) models.Order {
	status := models.OrderStatus(strings.ToLower(strings.TrimSpace(o.Status)))
	switch status {
	case "", models.OrderPending, models.OrderConfirmed, models.OrderCancelled:
	case "completed", "ok":
		status = models.OrderConfirmed
	case "canceled":
		status = models.OrderCancelled
	default:
		status = models.OrderPending
	}
	return models.Order{
		ID:         o.OrderID,
		PropertyID: o.PropertyID,
		Status:     status,
		UpdatedAt:  o.UpdatedAt.UTC(),
	}
}

func QuestFromDTO(q dto.Quest) models.Quest {
	return models.Quest{ID: q.ID, Tag: q.Tag, Title: q.Title}
}

func UserQuestsFromDTO(userID string, items []dto.UserQuest) []models.UserQuest {
	out := make([]models.UserQuest, 0, len(items))
	for _, item := range items {
		out = append(out, models.UserQuest{UserID: userID, QuestID: item.QuestID, CompletedAt: item.CompletedAt.UTC()})
	}
	return out
}

func NotificationToDTO(n models.Notification) dto.Notification {
	return dto.Notification{
		UserID:  n.UserID,
		Kind:    string(n.Kind),
		OrderID: n.OrderID,
		Content: n.Content,
	}
}
