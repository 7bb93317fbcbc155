package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
)

func TestRatesKey(t *testing.T) {
	stay := models.Stay{
		CheckIn:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		Guests:   models.GuestCounts{Adults: 2, ChildrenAges: []int{4, 9}},
	}

	got := ratesKey(" p-1 ", stay)
	want := "rates:v2:p-1:2026-07-01:2026-07-03:2:4-9"
	if got != want {
		t.Fatalf("unexpected key: got %q want %q", got, want)
	}
}

func TestLastQueryKey(t *testing.T) {
	if got := lastQueryKey("u-1"); got != "last_query:u-1" {
		t.Fatalf("unexpected key: %q", got)
	}
}

func TestSet_SkipsNonPositiveTTL(t *testing.T) {
	// A nil client would panic if the write was attempted.
	rates := NewRatesCacheRepository(nil)
	offers := []models.RateOffer{{BookHash: "bh-1"}}
	if err := rates.SetRates(context.Background(), "p-1", models.Stay{}, offers, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := rates.SetRates(context.Background(), "p-1", models.Stay{}, nil, time.Minute); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	queries := NewQueryCache(nil)
	if err := queries.SetLastQuery(context.Background(), "u-1", models.SearchQuery{}, -time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRatesEntry_RejectsOtherStay(t *testing.T) {
	stay := models.Stay{
		CheckIn:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		Guests:   models.GuestCounts{Adults: 2},
	}
	offers := []models.RateOffer{{BookHash: "bh-1", RoomName: "Double"}}

	data, err := encodeRatesEntry(" p-1 ", stay, offers, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := decodeRatesEntry(data, "p-1", stay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].BookHash != "bh-1" {
		t.Fatalf("unexpected offers: %+v", got)
	}

	other := stay
	other.Guests = models.GuestCounts{Adults: 3}
	if _, err := decodeRatesEntry(data, "p-1", other); !errors.Is(err, derr.ErrRatesNotFound) {
		t.Fatalf("entry for another stay: got %v want %v", err, derr.ErrRatesNotFound)
	}
	if _, err := decodeRatesEntry(data, "p-2", stay); !errors.Is(err, derr.ErrRatesNotFound) {
		t.Fatalf("entry for another property: got %v want %v", err, derr.ErrRatesNotFound)
	}
	if _, err := decodeRatesEntry([]byte(`[{"book_hash":"bh-1"}]`), "p-1", stay); !errors.Is(err, derr.ErrRatesNotFound) {
		t.Fatalf("legacy layout: got %v want %v", err, derr.ErrRatesNotFound)
	}
}
