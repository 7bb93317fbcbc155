package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/ozzus/fan-stay/internal/domain/ports"
	"go.uber.org/zap"
)

// Suggester keeps region suggestions for the latest typed text. Each request
// takes a generation number and only the newest one may apply its result.
type Suggester struct {
	log    *zap.Logger
	source ports.RegionSuggester

	mu         sync.Mutex
	generation uint64
	text       string
	current    []models.RegionSuggestion
}

func NewSuggester(log *zap.Logger, source ports.RegionSuggester) *Suggester {
	if log == nil {
		log = zap.NewNop()
	}
	return &Suggester{log: log, source: source, current: []models.RegionSuggestion{}}
}

func (s *Suggester) Suggest(ctx context.Context, text string) ([]models.RegionSuggestion, error) {
	const op = "search.Suggest"

	text = strings.TrimSpace(text)

	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.text = text
	if text == "" {
		s.current = []models.RegionSuggestion{}
		s.mu.Unlock()
		return []models.RegionSuggestion{}, nil
	}
	s.mu.Unlock()

	got, err := s.source.SuggestRegions(ctx, text)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		s.log.Debug("dropping stale suggestions", zap.String("op", op), zap.String("text", text))
		return nil, derr.ErrStaleResponse
	}
	if err != nil {
		s.log.Warn("suggest regions failed", zap.String("op", op), zap.String("text", text), zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if got == nil {
		got = []models.RegionSuggestion{}
	}
	s.current = got

	out := make([]models.RegionSuggestion, len(got))
	copy(out, got)
	return out, nil
}

func (s *Suggester) Current() (string, []models.RegionSuggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.RegionSuggestion, len(s.current))
	copy(out, s.current)
	return s.text, out
}
