package handlers

import (
	"net/http"

	"github.com/ozzus/fan-stay/internal/application/pricing"
	"github.com/ozzus/fan-stay/internal/application/rates"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"go.uber.org/zap"
)

type RoomsHandler struct {
	log        *zap.Logger
	rates      *rates.Service
	reconciler pricing.Reconciler
}

func NewRoomsHandler(log *zap.Logger, rates *rates.Service, reconciler pricing.Reconciler) *RoomsHandler {
	return &RoomsHandler{log: log, rates: rates, reconciler: reconciler}
}

type roomsRequest struct {
	CheckIn          string            `json:"checkin"`
	CheckOut         string            `json:"checkout"`
	Adults           int               `json:"adults"`
	ChildrenAges     []int             `json:"children_ages"`
	Breakfast        models.FilterMode `json:"breakfast"`
	FreeCancellation models.FilterMode `json:"free_cancellation"`
}

type rateView struct {
	models.RateOffer
	Price       models.PriceBreakdown `json:"price"`
	NightlyRate float64               `json:"nightly_rate"`
}

type roomView struct {
	Room  models.RoomGroup `json:"room"`
	Rates []rateView       `json:"rates"`
}

func (h *RoomsHandler) PropertyRooms(w http.ResponseWriter, r *http.Request, _ string) {
	propertyID := r.PathValue("propertyID")

	var req roomsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	checkIn, checkOut, err := parseDates(req.CheckIn, req.CheckOut)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	stay := models.Stay{
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Guests:   models.GuestCounts{Adults: req.Adults, ChildrenAges: req.ChildrenAges},
	}
	filters := models.RateFilters{Breakfast: req.Breakfast, FreeCancellation: req.FreeCancellation}

	matched, err := h.rates.PropertyRooms(r.Context(), propertyID, stay, filters)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	nights := stay.Nights()
	out := make([]roomView, 0, len(matched))
	for _, m := range matched {
		view := roomView{Room: m.Room, Rates: make([]rateView, 0, len(m.Rates))}
		for _, offer := range m.Rates {
			view.Rates = append(view.Rates, rateView{
				RateOffer:   offer,
				Price:       h.reconciler.Breakdown(offer),
				NightlyRate: h.reconciler.Nightly(offer, nights),
			})
		}
		out = append(out, view)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"property_id":    propertyID,
		"nights":         nights,
		"commission_bps": h.reconciler.FeeBps(),
		"rooms":          out,
	})
}
