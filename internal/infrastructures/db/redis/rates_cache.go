package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/redis/go-redis/v9"
)

// ratesKeyVersion is bumped whenever the stored entry layout changes, so old
// entries simply expire instead of failing to decode.
const ratesKeyVersion = "v2"

// ratesEntry is what is stored per property and stay. The identity fields
// guard against reading offers that were written for another stay.
type ratesEntry struct {
	PropertyID string             `json:"property_id"`
	Stay       string             `json:"stay"`
	FetchedAt  time.Time          `json:"fetched_at"`
	Offers     []models.RateOffer `json:"offers"`
}

// RatesCacheRepository keeps rate offers in redis for a short TTL.
type RatesCacheRepository struct {
	redis *redis.Client
	now   func() time.Time
}

func NewRatesCacheRepository(redisClient *redis.Client) *RatesCacheRepository {
	return &RatesCacheRepository{redis: redisClient, now: time.Now}
}

// GetRates returns ErrRatesNotFound on a miss and on an entry that does not
// belong to the requested property and stay; such an entry is dropped.
func (r *RatesCacheRepository) GetRates(ctx context.Context, propertyID string, stay models.Stay) ([]models.RateOffer, error) {
	key := ratesKey(propertyID, stay)
	data, err := r.redis.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, derr.ErrRatesNotFound
		}
		return nil, fmt.Errorf("redis get rates: %w", err)
	}

	offers, err := decodeRatesEntry(data, propertyID, stay)
	if err != nil {
		if delErr := r.redis.Del(ctx, key).Err(); delErr != nil {
			return nil, fmt.Errorf("%w: drop cache entry %s: %v", err, key, delErr)
		}
		return nil, err
	}

	return offers, nil
}

func (r *RatesCacheRepository) SetRates(ctx context.Context, propertyID string, stay models.Stay, offers []models.RateOffer, ttl time.Duration) error {
	if ttl <= 0 || len(offers) == 0 {
		return nil
	}

	data, err := encodeRatesEntry(propertyID, stay, offers, r.now())
	if err != nil {
		return err
	}

	if err := r.redis.Set(ctx, ratesKey(propertyID, stay), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set rates: %w", err)
	}

	return nil
}

func encodeRatesEntry(propertyID string, stay models.Stay, offers []models.RateOffer, fetchedAt time.Time) ([]byte, error) {
	data, err := json.Marshal(ratesEntry{
		PropertyID: strings.TrimSpace(propertyID),
		Stay:       stay.Key(),
		FetchedAt:  fetchedAt.UTC(),
		Offers:     offers,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal rates for cache: %w", err)
	}
	return data, nil
}

func decodeRatesEntry(data []byte, propertyID string, stay models.Stay) ([]models.RateOffer, error) {
	var entry ratesEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: undecodable cache entry: %v", derr.ErrRatesNotFound, err)
	}
	if entry.PropertyID != strings.TrimSpace(propertyID) || entry.Stay != stay.Key() {
		return nil, fmt.Errorf("%w: cache entry for %s/%s", derr.ErrRatesNotFound, entry.PropertyID, entry.Stay)
	}
	return entry.Offers, nil
}

func ratesKey(propertyID string, stay models.Stay) string {
	return fmt.Sprintf("rates:%s:%s:%s", ratesKeyVersion, strings.TrimSpace(propertyID), stay.Key())
}
