package rates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/ozzus/fan-stay/internal/domain/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Service struct {
	log      *zap.Logger
	source   ports.RateSource
	catalog  ports.RoomCatalog
	cache    ports.RateCache
	cacheTTL time.Duration
	group    singleflight.Group
}

func NewService(log *zap.Logger, source ports.RateSource, catalog ports.RoomCatalog, cache ports.RateCache, cacheTTL time.Duration) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	return &Service{
		log:      log,
		source:   source,
		catalog:  catalog,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Offers returns the property's rate offers for the stay. Concurrent calls for
// the same property and stay share one upstream fetch. A failed fetch yields
// an empty slice so callers render "no rooms available".
func (s *Service) Offers(ctx context.Context, propertyID string, stay models.Stay) []models.RateOffer {
	const op = "rates.Offers"
	tracer := otel.Tracer("fan-stay/rates")
	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("rates.property_id", propertyID))

	logger := s.log.With(
		zap.String("op", op),
		zap.String("property_id", propertyID),
		zap.Time("checkin", stay.CheckIn),
		zap.Time("checkout", stay.CheckOut),
	)

	if s.cache != nil {
		cached, err := s.cache.GetRates(ctx, propertyID, stay)
		if err == nil {
			logger.Debug("rates cache hit", zap.Int("offers_count", len(cached)))
			span.AddEvent("rates.cache.hit")
			return cached
		}
		if errors.Is(err, derr.ErrRatesNotFound) {
			span.AddEvent("rates.cache.miss")
		} else {
			logger.Warn("redis cache read failed", zap.Error(err))
			span.RecordError(err)
		}
	}

	if s.source == nil {
		return []models.RateOffer{}
	}

	v, err, shared := s.group.Do(flightKey(propertyID, stay), func() (interface{}, error) {
		return s.source.FetchRates(ctx, propertyID, stay)
	})
	if err != nil {
		logger.Warn("failed to fetch rates", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "rate fetch failed")
		return []models.RateOffer{}
	}

	offers, _ := v.([]models.RateOffer)
	if len(offers) == 0 {
		return []models.RateOffer{}
	}
	if shared {
		span.AddEvent("rates.fetch.shared")
	}

	if s.cache != nil && !shared {
		if err := s.cache.SetRates(ctx, propertyID, stay, offers, s.cacheTTL); err != nil {
			logger.Warn("redis cache write failed", zap.Error(err))
			span.RecordError(err)
		}
	}

	span.SetAttributes(attribute.Int("rates.offers_count", len(offers)))
	span.SetStatus(otelcodes.Ok, "ok")
	return offers
}

// RoomsWithRates matches the given room inventory against the property's offers.
func (s *Service) RoomsWithRates(ctx context.Context, propertyID string, rooms []models.RoomGroup, stay models.Stay, filters models.RateFilters) []models.RoomWithRates {
	return Match(rooms, s.Offers(ctx, propertyID, stay), filters)
}

// PropertyRooms loads the room inventory from the catalog and matches it.
func (s *Service) PropertyRooms(ctx context.Context, propertyID string, stay models.Stay, filters models.RateFilters) ([]models.RoomWithRates, error) {
	const op = "rates.PropertyRooms"

	if strings.TrimSpace(propertyID) == "" {
		return nil, fmt.Errorf("%s: %w: property id is required", op, derr.ErrInvalidQuery)
	}
	if err := stay.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := filters.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if s.catalog == nil {
		return []models.RoomWithRates{}, nil
	}

	rooms, err := s.catalog.FetchRoomGroups(ctx, propertyID)
	if err != nil {
		s.log.Warn("failed to fetch room groups",
			zap.String("op", op),
			zap.String("property_id", propertyID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.RoomsWithRates(ctx, propertyID, rooms, stay, filters), nil
}

func flightKey(propertyID string, stay models.Stay) string {
	return propertyID + ":" + stay.Key()
}
