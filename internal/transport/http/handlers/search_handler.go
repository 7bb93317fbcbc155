package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ozzus/fan-stay/internal/application/favorites"
	"github.com/ozzus/fan-stay/internal/application/search"
	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type SearchHandler struct {
	log       *zap.Logger
	registry  *search.Registry
	favorites *favorites.Service
}

func NewSearchHandler(log *zap.Logger, registry *search.Registry, favorites *favorites.Service) *SearchHandler {
	return &SearchHandler{log: log, registry: registry, favorites: favorites}
}

type searchRequest struct {
	RegionID         int64             `json:"region_id"`
	NameIncludes     string            `json:"name_includes"`
	Geo              *models.GeoRadius `json:"geo"`
	CheckIn          string            `json:"checkin"`
	CheckOut         string            `json:"checkout"`
	Adults           int               `json:"adults"`
	ChildrenAges     []int             `json:"children_ages"`
	Sort             string            `json:"sort"`
	MinPrice         float64           `json:"min_price"`
	MaxPrice         float64           `json:"max_price"`
	Categories       []string          `json:"categories"`
	FreeCancellation bool              `json:"free_cancellation"`
}

// toQuery keeps every destination selector the caller sent so validation can
// reject ambiguous requests.
func (req searchRequest) toQuery() (models.SearchQuery, error) {
	checkIn, checkOut, err := parseDates(req.CheckIn, req.CheckOut)
	if err != nil {
		return models.SearchQuery{}, err
	}
	return models.SearchQuery{
		Destination: models.Destination{
			RegionID:     req.RegionID,
			NameIncludes: req.NameIncludes,
			Geo:          req.Geo,
		},
		CheckIn:          checkIn,
		CheckOut:         checkOut,
		Adults:           req.Adults,
		ChildrenAges:     req.ChildrenAges,
		Sort:             models.SortKey(req.Sort),
		MinPrice:         req.MinPrice,
		MaxPrice:         req.MaxPrice,
		Categories:       req.Categories,
		FreeCancellation: req.FreeCancellation,
	}, nil
}

type searchResponse struct {
	Listings    []listingView `json:"listings"`
	Page        int           `json:"page"`
	HasMore     bool          `json:"has_more"`
	Searching   bool          `json:"searching"`
	LoadingMore bool          `json:"loading_more"`
	SearchErr   string        `json:"search_error,omitempty"`
	LoadMoreErr string        `json:"load_more_error,omitempty"`
}

type listingView struct {
	models.Listing
	Saved bool `json:"saved"`
}

func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request, userID string) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDomainError(w, err)
		return
	}
	query, err := req.toQuery()
	if err != nil {
		writeDomainError(w, err)
		return
	}

	store := h.registry.Store(userID)
	if err := store.Search(r.Context(), query); err != nil {
		h.writeStoreError(w, userID, store, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(userID, store.Snapshot()))
}

func (h *SearchHandler) LoadMore(w http.ResponseWriter, r *http.Request, userID string) {
	store := h.registry.Store(userID)
	if err := store.LoadMore(r.Context()); err != nil {
		h.writeStoreError(w, userID, store, err)
		return
	}
	writeJSON(w, http.StatusOK, h.view(userID, store.Snapshot()))
}

// Current returns the user's search state. When the user has not searched
// yet, the last stored query is replayed.
func (h *SearchHandler) Current(w http.ResponseWriter, r *http.Request, userID string) {
	store := h.registry.Store(userID)
	if !store.Snapshot().HasQuery {
		if query, ok := store.RestoreQuery(r.Context()); ok {
			if err := store.Search(r.Context(), query); err != nil && !errors.Is(err, derr.ErrStaleResponse) {
				h.log.Warn("failed to replay stored query", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}
	writeJSON(w, http.StatusOK, h.view(userID, store.Snapshot()))
}

func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request, userID string) {
	text := r.URL.Query().Get("q")
	got, err := h.registry.Suggester(userID).Suggest(r.Context(), text)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":       strings.TrimSpace(text),
		"suggestions": got,
	})
}

func (h *SearchHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request, userID string) {
	listingID := r.PathValue("listingID")
	saved, err := h.favorites.Toggle(r.Context(), userID, listingID)
	if err != nil {
		writeJSON(w, mapHTTPStatus(err), map[string]interface{}{
			"error":      errorMessage(err),
			"listing_id": listingID,
			"saved":      saved,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"listing_id": listingID,
		"saved":      saved,
	})
}

// writeStoreError keeps the state in the body so the caller sees the error
// slots next to whatever listings are still valid.
func (h *SearchHandler) writeStoreError(w http.ResponseWriter, userID string, store *search.Store, err error) {
	if derr.KindOf(err) == derr.KindValidation {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, mapHTTPStatus(err), map[string]interface{}{
		"error": errorMessage(err),
		"state": h.view(userID, store.Snapshot()),
	})
}

func (h *SearchHandler) view(userID string, st search.State) searchResponse {
	listings := make([]listingView, 0, len(st.Listings))
	for _, l := range st.Listings {
		listings = append(listings, listingView{Listing: l, Saved: h.favorites.IsSaved(userID, l.ID)})
	}
	return searchResponse{
		Listings:    listings,
		Page:        st.Page,
		HasMore:     st.HasMore,
		Searching:   st.Searching,
		LoadingMore: st.LoadingMore,
		SearchErr:   st.SearchErr,
		LoadMoreErr: st.LoadMoreErr,
	}
}

func parseDates(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := time.Parse(dateLayout, strings.TrimSpace(checkIn))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: checkin must be YYYY-MM-DD", derr.ErrInvalidQuery)
	}
	out, err := time.Parse(dateLayout, strings.TrimSpace(checkOut))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: checkout must be YYYY-MM-DD", derr.ErrInvalidQuery)
	}
	return in, out, nil
}
