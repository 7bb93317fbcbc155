package booking

import (
	"strings"

	"github.com/ozzus/fan-stay/internal/domain/models"
)

const (
	placeholderFirstName = "Guest"
	placeholderAdult     = "Adult"
	placeholderChild     = "Child"
)

// FormatGuests returns the roster sent with finish. An explicit roster is
// used as is; otherwise one placeholder per adult and per child is built.
func FormatGuests(roster []models.Guest, counts models.GuestCounts) []models.Guest {
	if len(roster) > 0 {
		out := make([]models.Guest, len(roster))
		copy(out, roster)
		return out
	}

	out := make([]models.Guest, 0, counts.Total())
	for i := 0; i < counts.Adults; i++ {
		out = append(out, models.Guest{FirstName: placeholderFirstName, LastName: placeholderAdult})
	}
	for range counts.ChildrenAges {
		out = append(out, models.Guest{FirstName: placeholderFirstName, LastName: placeholderChild, IsChild: true})
	}
	return out
}

func normalizeRoster(roster []models.Guest) []models.Guest {
	out := make([]models.Guest, len(roster))
	for i, g := range roster {
		out[i] = models.Guest{
			FirstName: strings.TrimSpace(g.FirstName),
			LastName:  strings.TrimSpace(g.LastName),
			IsChild:   g.IsChild,
		}
	}
	return out
}

// ReplaceOrder swaps the order with the same id in place and reports whether
// one was found. The input slice is not modified.
func ReplaceOrder(orders []models.Order, updated models.Order) ([]models.Order, bool) {
	out := make([]models.Order, len(orders))
	copy(out, orders)
	for i := range out {
		if out[i].ID == updated.ID {
			out[i] = updated
			return out, true
		}
	}
	return out, false
}
