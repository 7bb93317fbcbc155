package search

import (
	"sync"
	"time"

	"github.com/ozzus/fan-stay/internal/domain/ports"
	"go.uber.org/zap"
)

// Registry hands out one Store and one Suggester per user.
type Registry struct {
	log       *zap.Logger
	searcher  ports.ListingSearcher
	suggester ports.RegionSuggester
	cache     ports.QueryCache
	cacheTTL  time.Duration

	mu         sync.Mutex
	stores     map[string]*Store
	suggesters map[string]*Suggester
}

func NewRegistry(log *zap.Logger, searcher ports.ListingSearcher, suggester ports.RegionSuggester, cache ports.QueryCache, cacheTTL time.Duration) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{
		log:        log,
		searcher:   searcher,
		suggester:  suggester,
		cache:      cache,
		cacheTTL:   cacheTTL,
		stores:     make(map[string]*Store),
		suggesters: make(map[string]*Suggester),
	}
}

func (r *Registry) Store(userID string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.stores[userID]
	if !ok {
		st = NewStore(r.log, userID, r.searcher, r.cache, r.cacheTTL)
		r.stores[userID] = st
	}
	return st
}

func (r *Registry) Suggester(userID string) *Suggester {
	r.mu.Lock()
	defer r.mu.Unlock()

	sg, ok := r.suggesters[userID]
	if !ok {
		sg = NewSuggester(r.log, r.suggester)
		r.suggesters[userID] = sg
	}
	return sg
}
