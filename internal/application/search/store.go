package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/ozzus/fan-stay/internal/domain/ports"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// State is a point-in-time copy of the aggregated search results.
type State struct {
	Query       models.SearchQuery `json:"query"`
	HasQuery    bool               `json:"has_query"`
	Page        int                `json:"page"`
	Listings    []models.Listing   `json:"listings"`
	HasMore     bool               `json:"has_more"`
	Searching   bool               `json:"searching"`
	LoadingMore bool               `json:"loading_more"`
	SearchErr   string             `json:"search_error,omitempty"`
	LoadMoreErr string             `json:"load_more_error,omitempty"`
}

// Store owns paged search state for one user. Every Search starts a new
// generation; responses from an older generation are dropped.
type Store struct {
	log      *zap.Logger
	userID   string
	searcher ports.ListingSearcher
	cache    ports.QueryCache
	cacheTTL time.Duration

	mu         sync.Mutex
	generation uint64
	state      State
	seen       map[string]struct{}
}

func NewStore(log *zap.Logger, userID string, searcher ports.ListingSearcher, cache ports.QueryCache, cacheTTL time.Duration) *Store {
	if log == nil {
		log = zap.NewNop()
	}

	return &Store{
		log:      log,
		userID:   userID,
		searcher: searcher,
		cache:    cache,
		cacheTTL: cacheTTL,
		state:    State{Listings: []models.Listing{}},
		seen:     make(map[string]struct{}),
	}
}

func (s *Store) Search(ctx context.Context, query models.SearchQuery) error {
	const op = "search.Search"
	tracer := otel.Tracer("fan-stay/search")
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	logger := s.log.With(zap.String("op", op), zap.String("user_id", s.userID))

	if err := query.Validate(); err != nil {
		span.SetStatus(otelcodes.Error, "invalid query")
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.state = State{
		Query:     query,
		HasQuery:  true,
		Page:      1,
		Listings:  []models.Listing{},
		Searching: true,
	}
	s.seen = make(map[string]struct{})
	s.mu.Unlock()

	raw, err := s.searcher.SearchListings(ctx, query.WithPage(1))

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		logger.Debug("discarding superseded search response", zap.Uint64("generation", gen))
		span.AddEvent("search.stale")
		return derr.ErrStaleResponse
	}
	s.state.Searching = false
	if err != nil {
		s.state.SearchErr = derr.UserMessage(err)
		s.mu.Unlock()
		logger.Warn("search page fetch failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "search failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	fresh := s.appendUnseenLocked(raw)
	s.state.HasMore = len(raw) == models.PageSize
	count := len(s.state.Listings)
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("search.page_size", len(raw)), attribute.Int("search.listings", count))
	span.SetStatus(otelcodes.Ok, "ok")
	logger.Info("search applied", zap.Int("fetched", len(raw)), zap.Int("kept", fresh))

	s.persistQuery(ctx, logger, query)
	return nil
}

// LoadMore fetches the next page and appends listings not seen before. It is
// a no-op while nothing more is available or another fetch is running.
func (s *Store) LoadMore(ctx context.Context) error {
	const op = "search.LoadMore"
	tracer := otel.Tracer("fan-stay/search")
	ctx, span := tracer.Start(ctx, op)
	defer span.End()

	logger := s.log.With(zap.String("op", op), zap.String("user_id", s.userID))

	s.mu.Lock()
	if !s.state.HasQuery || !s.state.HasMore || s.state.LoadingMore || s.state.Searching {
		s.mu.Unlock()
		span.AddEvent("search.load_more.skipped")
		return nil
	}
	gen := s.generation
	next := s.state.Page + 1
	query := s.state.Query
	s.state.LoadingMore = true
	s.state.LoadMoreErr = ""
	s.mu.Unlock()

	span.SetAttributes(attribute.Int("search.page", next))

	raw, err := s.searcher.SearchListings(ctx, query.WithPage(next))

	s.mu.Lock()
	if gen != s.generation {
		s.mu.Unlock()
		logger.Debug("discarding load-more response after reset", zap.Int("page", next))
		span.AddEvent("search.stale")
		return derr.ErrStaleResponse
	}
	s.state.LoadingMore = false
	if err != nil {
		s.state.LoadMoreErr = derr.UserMessage(err)
		s.mu.Unlock()
		logger.Warn("load more failed", zap.Int("page", next), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(otelcodes.Error, "load more failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	fresh := s.appendUnseenLocked(raw)
	s.state.Page = next
	if len(raw) > 0 && fresh == 0 {
		// The service repeated a page it already sent; treat as exhausted.
		s.state.HasMore = false
	} else {
		s.state.HasMore = len(raw) == models.PageSize
	}
	hasMore := s.state.HasMore
	s.mu.Unlock()

	span.SetStatus(otelcodes.Ok, "ok")
	logger.Info("page appended",
		zap.Int("page", next),
		zap.Int("fetched", len(raw)),
		zap.Int("kept", fresh),
		zap.Bool("has_more", hasMore),
	)
	return nil
}

func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.state
	out.Listings = make([]models.Listing, len(s.state.Listings))
	copy(out.Listings, s.state.Listings)
	return out
}

// RestoreQuery loads the last query applied by this user, if one was stored.
func (s *Store) RestoreQuery(ctx context.Context) (models.SearchQuery, bool) {
	const op = "search.RestoreQuery"

	if s.cache == nil {
		return models.SearchQuery{}, false
	}

	query, err := s.cache.GetLastQuery(ctx, s.userID)
	if err != nil {
		if !errors.Is(err, derr.ErrQueryNotFound) {
			s.log.Warn("failed to restore last query", zap.String("op", op), zap.String("user_id", s.userID), zap.Error(err))
		}
		return models.SearchQuery{}, false
	}
	return query, true
}

func (s *Store) appendUnseenLocked(raw []models.Listing) int {
	added := 0
	for _, l := range raw {
		if _, ok := s.seen[l.ID]; ok {
			continue
		}
		s.seen[l.ID] = struct{}{}
		s.state.Listings = append(s.state.Listings, l)
		added++
	}
	return added
}

func (s *Store) persistQuery(ctx context.Context, logger *zap.Logger, query models.SearchQuery) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetLastQuery(ctx, s.userID, query, s.cacheTTL); err != nil {
		logger.Warn("failed to persist last query", zap.Error(err))
	}
}
