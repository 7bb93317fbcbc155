package ports

import (
	"context"
	"time"

	"github.com/ozzus/fan-stay/internal/domain/models"
)

type ListingSearcher interface {
	SearchListings(ctx context.Context, query models.SearchQuery) ([]models.Listing, error)
}

type RegionSuggester interface {
	SuggestRegions(ctx context.Context, text string) ([]models.RegionSuggestion, error)
}

type QueryCache interface {
	GetLastQuery(ctx context.Context, userID string) (models.SearchQuery, error)
	SetLastQuery(ctx context.Context, userID string, query models.SearchQuery, ttl time.Duration) error
}

type SavedListings interface {
	SaveListing(ctx context.Context, userID, listingID string) error
	UnsaveListing(ctx context.Context, userID, listingID string) error
}
