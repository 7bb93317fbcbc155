package models

import (
	"errors"
	"testing"
	"time"

	derr "github.com/ozzus/fan-stay/internal/domain/errors"
)

func baseQuery() SearchQuery {
	checkIn := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	return SearchQuery{
		CheckIn:  checkIn,
		CheckOut: checkIn.AddDate(0, 0, 3),
		Adults:   2,
	}.WithRegion(6308866)
}

func TestSearchQuery_DestinationSettersClearOthers(t *testing.T) {
	q := baseQuery().WithNameIncludes("sea view").WithGeo(43.1, 131.9, 5000)

	if q.Destination.RegionID != 0 || q.Destination.NameIncludes != "" {
		t.Fatalf("expected region and name to be cleared, got %+v", q.Destination)
	}
	if q.Destination.Kind() != DestinationGeo {
		t.Fatalf("unexpected destination kind: got %v want %v", q.Destination.Kind(), DestinationGeo)
	}

	q = q.WithRegion(42)
	if q.Destination.Geo != nil {
		t.Fatalf("expected geo to be cleared, got %+v", q.Destination.Geo)
	}
	if q.Destination.Kind() != DestinationRegion {
		t.Fatalf("unexpected destination kind: got %v want %v", q.Destination.Kind(), DestinationRegion)
	}
}

func TestSearchQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(q SearchQuery) SearchQuery
		wantErr error
	}{
		{name: "valid", mutate: func(q SearchQuery) SearchQuery { return q }},
		{
			name:    "two selectors",
			mutate:  func(q SearchQuery) SearchQuery { q.Destination.NameIncludes = "x"; return q },
			wantErr: derr.ErrInvalidDestination,
		},
		{
			name:    "no selector",
			mutate:  func(q SearchQuery) SearchQuery { q.Destination = Destination{}; return q },
			wantErr: derr.ErrInvalidDestination,
		},
		{
			name:    "no adults",
			mutate:  func(q SearchQuery) SearchQuery { q.Adults = 0; return q },
			wantErr: derr.ErrInvalidQuery,
		},
		{
			name:    "child too old",
			mutate:  func(q SearchQuery) SearchQuery { q.ChildrenAges = []int{5, 18}; return q },
			wantErr: derr.ErrInvalidQuery,
		},
		{
			name:    "checkout before checkin",
			mutate:  func(q SearchQuery) SearchQuery { q.CheckOut = q.CheckIn.AddDate(0, 0, -1); return q },
			wantErr: derr.ErrInvalidQuery,
		},
		{
			name:   "zero max price is unbounded",
			mutate: func(q SearchQuery) SearchQuery { q.MinPrice = 500; q.MaxPrice = 0; return q },
		},
		{
			name:    "min above max",
			mutate:  func(q SearchQuery) SearchQuery { q.MinPrice = 500; q.MaxPrice = 100; return q },
			wantErr: derr.ErrInvalidQuery,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.mutate(baseQuery()).Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("unexpected error: got %v want %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateRoster(t *testing.T) {
	counts := GuestCounts{Adults: 1, ChildrenAges: []int{7}}

	ok := []Guest{{FirstName: "Anna", LastName: "Petrova"}, {FirstName: "Ilya", LastName: "Petrov", IsChild: true}}
	if err := ValidateRoster(ok, counts); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := ValidateRoster(ok[:1], counts); !errors.Is(err, derr.ErrGuestRosterInvalid) {
		t.Fatalf("expected roster length error, got %v", err)
	}

	blank := []Guest{{FirstName: "Anna", LastName: "Petrova"}, {FirstName: "  ", LastName: "Petrov"}}
	if err := ValidateRoster(blank, counts); !errors.Is(err, derr.ErrGuestRosterInvalid) {
		t.Fatalf("expected blank name error, got %v", err)
	}
}

func TestRateOffer_HasFreeCancellation(t *testing.T) {
	deadline := time.Date(2026, 6, 28, 12, 0, 0, 0, time.UTC)
	offer := RateOffer{PaymentTypes: []PaymentType{
		{CurrencyCode: "USD"},
		{CurrencyCode: "USD", Cancellation: CancellationPenalty{FreeCancellationBefore: &deadline}},
	}}
	if !offer.HasFreeCancellation() {
		t.Fatalf("expected free cancellation when any payment type has a deadline")
	}
	if (RateOffer{PaymentTypes: []PaymentType{{CurrencyCode: "USD"}}}).HasFreeCancellation() {
		t.Fatalf("expected no free cancellation without deadlines")
	}
}
