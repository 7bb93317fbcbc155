package handlers

import (
	"net/http"

	"github.com/ozzus/fan-stay/internal/application/booking"
	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"go.uber.org/zap"
)

type BookingHandler struct {
	log          *zap.Logger
	orchestrator *booking.Orchestrator
}

func NewBookingHandler(log *zap.Logger, orchestrator *booking.Orchestrator) *BookingHandler {
	return &BookingHandler{log: log, orchestrator: orchestrator}
}

type startBookingRequest struct {
	PropertyID   string `json:"property_id"`
	BookHash     string `json:"book_hash"`
	Adults       int    `json:"adults"`
	ChildrenAges []int  `json:"children_ages"`
}

type guestsRequest struct {
	Guests []models.Guest `json:"guests"`
}

type finishRequest struct {
	PaymentToken string `json:"payment_token"`
}

func (h *BookingHandler) Start(w http.ResponseWriter, r *http.Request, userID string) {
	var req startBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}

	session, err := h.orchestrator.Start(r.Context(), booking.StartRequest{
		UserID:     userID,
		PropertyID: req.PropertyID,
		BookHash:   req.BookHash,
		Guests:     models.GuestCounts{Adults: req.Adults, ChildrenAges: req.ChildrenAges},
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request, userID string) {
	session, ok := h.owned(w, r, userID)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *BookingHandler) PreBook(w http.ResponseWriter, r *http.Request, userID string) {
	if _, ok := h.owned(w, r, userID); !ok {
		return
	}
	session, err := h.orchestrator.PreBook(r.Context(), r.PathValue("id"))
	h.respond(w, session, err)
}

func (h *BookingHandler) Initialize(w http.ResponseWriter, r *http.Request, userID string) {
	if _, ok := h.owned(w, r, userID); !ok {
		return
	}
	session, err := h.orchestrator.Initialize(r.Context(), r.PathValue("id"))
	h.respond(w, session, err)
}

func (h *BookingHandler) CollectGuests(w http.ResponseWriter, r *http.Request, userID string) {
	if _, ok := h.owned(w, r, userID); !ok {
		return
	}
	var req guestsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	session, err := h.orchestrator.CollectGuests(r.Context(), r.PathValue("id"), req.Guests)
	h.respond(w, session, err)
}

func (h *BookingHandler) Finish(w http.ResponseWriter, r *http.Request, userID string) {
	if _, ok := h.owned(w, r, userID); !ok {
		return
	}
	var req finishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	session, err := h.orchestrator.Finish(r.Context(), r.PathValue("id"), req.PaymentToken)
	h.respond(w, session, err)
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, userID string) {
	if _, ok := h.owned(w, r, userID); !ok {
		return
	}
	session, err := h.orchestrator.Cancel(r.Context(), r.PathValue("id"))
	h.respond(w, session, err)
}

func (h *BookingHandler) Abandon(w http.ResponseWriter, r *http.Request, userID string) {
	if _, ok := h.owned(w, r, userID); !ok {
		return
	}
	if err := h.orchestrator.Abandon(r.Context(), r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *BookingHandler) Orders(w http.ResponseWriter, r *http.Request, userID string) {
	orders, err := h.orchestrator.Orders(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

// owned hides sessions of other users behind a not found response.
func (h *BookingHandler) owned(w http.ResponseWriter, r *http.Request, userID string) (models.BookingSession, bool) {
	session, err := h.orchestrator.Session(r.Context(), r.PathValue("id"))
	if err != nil || session.UserID != userID {
		writeError(w, http.StatusNotFound, derr.ErrSessionNotFound.Error())
		return models.BookingSession{}, false
	}
	return session, true
}

// respond returns the session with the stage error next to it when a stage
// failed after the session was loaded.
func (h *BookingHandler) respond(w http.ResponseWriter, session models.BookingSession, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, session)
		return
	}
	if session.ID == "" {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, mapHTTPStatus(err), map[string]interface{}{
		"error":   errorMessage(err),
		"session": session,
	})
}
