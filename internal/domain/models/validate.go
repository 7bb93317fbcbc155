package models

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	derr "github.com/ozzus/fan-stay/internal/domain/errors"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

func (q SearchQuery) Validate() error {
	if q.Destination.Kind() == DestinationNone {
		return derr.ErrInvalidDestination
	}
	if err := validatorInstance().Struct(q); err != nil {
		return fmt.Errorf("%w: %s", derr.ErrInvalidQuery, describe(err))
	}
	if q.HasPriceCap() && q.MinPrice > q.MaxPrice {
		return fmt.Errorf("%w: min_price exceeds max_price", derr.ErrInvalidQuery)
	}
	return nil
}

func (s Stay) Validate() error {
	if err := validatorInstance().Struct(s); err != nil {
		return fmt.Errorf("%w: %s", derr.ErrInvalidQuery, describe(err))
	}
	return nil
}

func (f RateFilters) Validate() error {
	if err := validatorInstance().Struct(f); err != nil {
		return fmt.Errorf("%w: %s", derr.ErrInvalidQuery, describe(err))
	}
	return nil
}

// ValidateRoster checks that roster has exactly one entry per expected guest
// and that every entry carries a non-blank first and last name.
func ValidateRoster(roster []Guest, counts GuestCounts) error {
	if len(roster) != counts.Total() {
		return fmt.Errorf("%w: got %d guests, want %d", derr.ErrGuestRosterInvalid, len(roster), counts.Total())
	}
	for i, g := range roster {
		g.FirstName = strings.TrimSpace(g.FirstName)
		g.LastName = strings.TrimSpace(g.LastName)
		if err := validatorInstance().Struct(g); err != nil {
			return fmt.Errorf("%w: guest %d: %s", derr.ErrGuestRosterInvalid, i, describe(err))
		}
	}
	return nil
}

func describe(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
	}
	return strings.Join(parts, ", ")
}
