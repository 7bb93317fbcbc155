package handlers

import (
	"net/http"

	"go.uber.org/zap"
)

type Handlers struct {
	Search  *SearchHandler
	Rooms   *RoomsHandler
	Booking *BookingHandler
}

func NewRouter(log *zap.Logger, h Handlers) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthHandler)

	mux.HandleFunc("POST /v1/search", requireUser(h.Search.Search))
	mux.HandleFunc("POST /v1/search/more", requireUser(h.Search.LoadMore))
	mux.HandleFunc("GET /v1/search", requireUser(h.Search.Current))
	mux.HandleFunc("GET /v1/suggestions", requireUser(h.Search.Suggestions))
	mux.HandleFunc("POST /v1/favorites/{listingID}/toggle", requireUser(h.Search.ToggleFavorite))

	mux.HandleFunc("POST /v1/properties/{propertyID}/rooms", requireUser(h.Rooms.PropertyRooms))

	mux.HandleFunc("POST /v1/bookings", requireUser(h.Booking.Start))
	mux.HandleFunc("GET /v1/bookings/{id}", requireUser(h.Booking.Get))
	mux.HandleFunc("DELETE /v1/bookings/{id}", requireUser(h.Booking.Abandon))
	mux.HandleFunc("POST /v1/bookings/{id}/prebook", requireUser(h.Booking.PreBook))
	mux.HandleFunc("POST /v1/bookings/{id}/initialize", requireUser(h.Booking.Initialize))
	mux.HandleFunc("POST /v1/bookings/{id}/guests", requireUser(h.Booking.CollectGuests))
	mux.HandleFunc("POST /v1/bookings/{id}/finish", requireUser(h.Booking.Finish))
	mux.HandleFunc("POST /v1/bookings/{id}/cancel", requireUser(h.Booking.Cancel))
	mux.HandleFunc("GET /v1/orders", requireUser(h.Booking.Orders))

	return loggingMiddleware(log, recoveryMiddleware(log, mux))
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
