package bookingapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/ozzus/fan-stay/internal/infrastructures/bookingapi/dto"
	"github.com/ozzus/fan-stay/internal/infrastructures/bookingapi/mappers"
)

func (c *Client) SearchListings(ctx context.Context, query models.SearchQuery) ([]models.Listing, error) {
	data, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/v1/listings/search",
		body:   mappers.SearchRequestFromQuery(query),
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeData[[]dto.Listing](data, "listings")
	if err != nil {
		return nil, err
	}
	return mappers.ListingsFromDTO(items), nil
}

func (c *Client) SuggestRegions(ctx context.Context, text string) ([]models.RegionSuggestion, error) {
	q := url.Values{}
	q.Set("query", strings.TrimSpace(text))

	data, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/v1/regions/suggest",
		query:  q,
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeData[[]dto.Region](data, "regions")
	if err != nil {
		return nil, err
	}
	return mappers.RegionsFromDTO(items), nil
}

func (c *Client) FetchRates(ctx context.Context, propertyID string, stay models.Stay) ([]models.RateOffer, error) {
	data, err := c.do(ctx, request{
		method:   http.MethodPost,
		path:     "/v1/properties/" + pathID(propertyID) + "/rates",
		body:     mappers.RatesRequestFromStay(stay),
		notFound: derr.ErrRatesNotFound,
	})
	if err != nil {
		return nil, err
	}
	return mappers.ExtractRates(data), nil
}

func (c *Client) FetchRoomGroups(ctx context.Context, propertyID string) ([]models.RoomGroup, error) {
	data, err := c.do(ctx, request{
		method:   http.MethodGet,
		path:     "/v1/properties/" + pathID(propertyID) + "/room-groups",
		notFound: derr.ErrRatesNotFound,
	})
	if err != nil {
		return nil, err
	}

	items, err := decodeData[[]dto.RoomGroup](data, "room groups")
	if err != nil {
		return nil, err
	}
	return mappers.RoomGroupsFromDTO(items), nil
}

func (c *Client) SaveListing(ctx context.Context, userID, listingID string) error {
	_, err := c.do(ctx, request{
		method: http.MethodPut,
		path:   savedListingPath(userID, listingID),
	})
	return err
}

func (c *Client) UnsaveListing(ctx context.Context, userID, listingID string) error {
	_, err := c.do(ctx, request{
		method: http.MethodDelete,
		path:   savedListingPath(userID, listingID),
	})
	return err
}

func savedListingPath(userID, listingID string) string {
	return fmt.Sprintf("/v1/users/%s/saved-listings/%s", pathID(userID), pathID(listingID))
}
