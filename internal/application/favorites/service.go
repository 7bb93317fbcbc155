package favorites

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/ports"
	"go.uber.org/zap"
)

type Service struct {
	log    *zap.Logger
	remote ports.SavedListings

	mu    sync.Mutex
	saved map[string]map[string]struct{}
}

func NewService(log *zap.Logger, remote ports.SavedListings) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		log:    log,
		remote: remote,
		saved:  make(map[string]map[string]struct{}),
	}
}

// Toggle flips the saved flag of a listing optimistically and rolls it back
// if the booking service refuses. It returns the resulting flag.
func (s *Service) Toggle(ctx context.Context, userID, listingID string) (bool, error) {
	const op = "favorites.Toggle"

	if strings.TrimSpace(userID) == "" || strings.TrimSpace(listingID) == "" {
		return false, fmt.Errorf("%s: %w: user and listing ids are required", op, derr.ErrInvalidQuery)
	}

	wasSaved := s.IsSaved(userID, listingID)
	cmd := s.toggleCommand(userID, listingID, wasSaved)

	if err := cmd.Execute(ctx); err != nil {
		s.log.Warn("saved listing toggle rolled back",
			zap.String("op", op),
			zap.String("user_id", userID),
			zap.String("listing_id", listingID),
			zap.Bool("was_saved", wasSaved),
			zap.Error(err),
		)
		return wasSaved, fmt.Errorf("%s: %w", op, err)
	}

	return !wasSaved, nil
}

func (s *Service) IsSaved(userID, listingID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.saved[userID][listingID]
	return ok
}

func (s *Service) Saved(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.saved[userID]))
	for id := range s.saved[userID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Service) toggleCommand(userID, listingID string, wasSaved bool) Command {
	save := func() { s.set(userID, listingID, true) }
	unsave := func() { s.set(userID, listingID, false) }

	if wasSaved {
		return Command{
			Name:       "unsave listing",
			Apply:      unsave,
			Remote:     func(ctx context.Context) error { return s.remoteCall(ctx, userID, listingID, false) },
			Compensate: save,
		}
	}
	return Command{
		Name:       "save listing",
		Apply:      save,
		Remote:     func(ctx context.Context) error { return s.remoteCall(ctx, userID, listingID, true) },
		Compensate: unsave,
	}
}

func (s *Service) remoteCall(ctx context.Context, userID, listingID string, save bool) error {
	if s.remote == nil {
		return nil
	}
	if save {
		return s.remote.SaveListing(ctx, userID, listingID)
	}
	return s.remote.UnsaveListing(ctx, userID, listingID)
}

func (s *Service) set(userID, listingID string, saved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if saved {
		if s.saved[userID] == nil {
			s.saved[userID] = make(map[string]struct{})
		}
		s.saved[userID][listingID] = struct{}{}
		return
	}
	delete(s.saved[userID], listingID)
}
