package bookingapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	derr "github.com/ozzus/fan-stay/internal/domain/errors"
	"github.com/ozzus/fan-stay/internal/domain/models"
	"github.com/ozzus/fan-stay/internal/domain/ports"
	"github.com/ozzus/fan-stay/internal/infrastructures/bookingapi/dto"
)

func TestSearchListings_SendsQueryAndMapsListings(t *testing.T) {
	var got dto.SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/listings/search" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer secret" {
			t.Errorf("missing bearer token")
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"data":[
			{"id":"l-1","name":"Nevsky Inn","latitude":59.93,"longitude":30.36,"star_rating":4},
			{"id":"","name":"broken"}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", time.Second)
	query := models.SearchQuery{
		CheckIn:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 7, 3, 0, 0, 0, 0, time.UTC),
		Adults:   2,
	}.WithNameIncludes("nevsky").WithPage(2)

	listings, err := c.SearchListings(context.Background(), query)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(listings) != 1 || listings[0].ID != "l-1" || listings[0].Location.Lat != 59.93 {
		t.Fatalf("unexpected listings: %+v", listings)
	}
	if got.NameIncludes != "nevsky" || got.Page != 2 || got.Limit != models.PageSize || got.MaxPrice != nil {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestClient_StatusClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		call   func(c *Client) error
		want   error
	}{
		{
			name:   "server error is temporary",
			status: http.StatusBadGateway,
			call: func(c *Client) error {
				_, err := c.SearchListings(context.Background(), models.SearchQuery{})
				return err
			},
			want: derr.ErrSourceTemporary,
		},
		{
			name:   "rate limit is temporary",
			status: http.StatusTooManyRequests,
			call: func(c *Client) error {
				_, err := c.SuggestRegions(context.Background(), "mos")
				return err
			},
			want: derr.ErrSourceTemporary,
		},
		{
			name:   "bad request is rejected",
			status: http.StatusBadRequest,
			call: func(c *Client) error {
				_, err := c.PreBook(context.Background(), "bh")
				return err
			},
			want: derr.ErrRejected,
		},
		{
			name:   "missing rates",
			status: http.StatusNotFound,
			call: func(c *Client) error {
				_, err := c.FetchRates(context.Background(), "p-1", models.Stay{})
				return err
			},
			want: derr.ErrRatesNotFound,
		},
		{
			name:   "cancel conflict",
			status: http.StatusConflict,
			call: func(c *Client) error {
				_, err := c.CancelBooking(context.Background(), "o-1")
				return err
			},
			want: derr.ErrOrderAlreadyCancelled,
		},
		{
			name:   "conflict outside cancel is rejected",
			status: http.StatusConflict,
			call: func(c *Client) error {
				_, err := c.FinishBooking(context.Background(), ports.FinishRequest{OrderID: "o-1"})
				return err
			},
			want: derr.ErrRejected,
		},
		{
			name:   "unknown order on finish",
			status: http.StatusNotFound,
			call: func(c *Client) error {
				_, err := c.FinishBooking(context.Background(), ports.FinishRequest{OrderID: "o-1"})
				return err
			},
			want: derr.ErrOrderNotFound,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(`{"error":"nope"}`))
			}))
			defer srv.Close()

			err := tc.call(NewClient(srv.URL, "", time.Second))
			if !errors.Is(err, tc.want) {
				t.Fatalf("unexpected error: got %v want %v", err, tc.want)
			}
			if !strings.Contains(err.Error(), "nope") {
				t.Fatalf("remote error detail missing: %v", err)
			}
		})
	}
}

func TestClient_TransportErrorIsTemporary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	_, err := NewClient(addr, "", time.Second).FetchRoomGroups(context.Background(), "p-1")
	if !errors.Is(err, derr.ErrSourceTemporary) {
		t.Fatalf("unexpected error: got %v want %v", err, derr.ErrSourceTemporary)
	}
}

func TestFetchRates_ParsesLooseAmounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.EscapedPath() != "/v1/properties/p%201/rates" {
			t.Errorf("unexpected path: %s", r.URL.EscapedPath())
		}
		_, _ = w.Write([]byte(`{"data":{"rates":[{"book_hash":"bh-1","room_name":"Double",
			"payment_options":{"payment_types":[{"amount":"99.90","currency_code":"USD"}]}}]}}`))
	}))
	defer srv.Close()

	stay := models.Stay{
		CheckIn:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		CheckOut: time.Date(2026, 7, 2, 0, 0, 0, 0, time.UTC),
		Guests:   models.GuestCounts{Adults: 1},
	}
	offers, err := NewClient(srv.URL, "", time.Second).FetchRates(context.Background(), "p 1", stay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(offers) != 1 || offers[0].PaymentTypes[0].BaseAmount() != 99.9 {
		t.Fatalf("unexpected offers: %+v", offers)
	}
}

func TestFinishBooking_SendsIdempotencyKey(t *testing.T) {
	var body dto.FinishRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Idempotency-Key") != "sess-1" {
			t.Errorf("unexpected idempotency key: %q", r.Header.Get("Idempotency-Key"))
		}
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = w.Write([]byte(`{"data":{"order_id":"o-1","status":"completed"}}`))
	}))
	defer srv.Close()

	order, err := NewClient(srv.URL, "", time.Second).FinishBooking(context.Background(), ports.FinishRequest{
		OrderID:        "o-1",
		IdempotencyKey: "sess-1",
		Guests:         []models.Guest{{FirstName: "Guest", LastName: "Adult"}},
		Payment:        models.PaymentCapture{Reference: "pay-1", Amount: 10},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order.ID != "o-1" || order.Status != models.OrderConfirmed {
		t.Fatalf("unexpected order: %+v", order)
	}
	if len(body.Guests) != 1 || body.Payment.Reference != "pay-1" {
		t.Fatalf("unexpected request body: %+v", body)
	}
}

func TestInitializeBooking_SendsPartnerOrderID(t *testing.T) {
	var (
		bodies []dto.CreateOrderRequest
		keys   []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body dto.CreateOrderRequest
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		bodies = append(bodies, body)
		keys = append(keys, r.Header.Get("Idempotency-Key"))
		_, _ = w.Write([]byte(`{"data":{"order_id":" o-7 "}}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	for i := 0; i < 2; i++ {
		orderID, err := c.InitializeBooking(context.Background(), "p-1", "h-1", "sess-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if orderID != "o-7" {
			t.Fatalf("unexpected order id: %q", orderID)
		}
	}

	if len(bodies) != 2 {
		t.Fatalf("unexpected calls: %d", len(bodies))
	}
	for i, body := range bodies {
		if body.PartnerOrderID != "sess-1" || keys[i] != "sess-1" || body.Hash != "h-1" || body.PropertyID != "p-1" {
			t.Fatalf("call %d: unexpected request: %+v key=%q", i, body, keys[i])
		}
	}
}

func TestInitializeBooking_GeneratesPartnerOrderIDWhenMissing(t *testing.T) {
	var body dto.CreateOrderRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		_, _ = w.Write([]byte(`{"data":{"order_id":"o-8"}}`))
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "", time.Second).InitializeBooking(context.Background(), "p-1", "h-1", " "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if body.PartnerOrderID == "" {
		t.Fatalf("partner order id must be generated")
	}
}

func TestCapturePayment_RequiresReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"amount":10}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).CapturePayment(context.Background(), ports.CaptureRequest{OrderID: "o-1"})
	if !errors.Is(err, derr.ErrRejected) {
		t.Fatalf("unexpected error: got %v want %v", err, derr.ErrRejected)
	}
}

func TestFindQuestByTag(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tag") == "first_booking" {
			_, _ = w.Write([]byte(`{"data":[{"id":"q-1","tag":"first_booking","title":"First trip"}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	quest, err := c.FindQuestByTag(context.Background(), "first_booking")
	if err != nil || quest.ID != "q-1" {
		t.Fatalf("unexpected result: %+v, %v", quest, err)
	}
	if _, err := c.FindQuestByTag(context.Background(), "other"); !errors.Is(err, derr.ErrQuestNotFound) {
		t.Fatalf("unexpected error: got %v want %v", err, derr.ErrQuestNotFound)
	}
}

func TestSavedListings_UsesPutAndDelete(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/users/u-1/saved-listings/l-1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		methods = append(methods, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	if err := c.SaveListing(context.Background(), "u-1", "l-1"); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	if err := c.UnsaveListing(context.Background(), "u-1", "l-1"); err != nil {
		t.Fatalf("unexpected unsave error: %v", err)
	}
	if len(methods) != 2 || methods[0] != http.MethodPut || methods[1] != http.MethodDelete {
		t.Fatalf("unexpected methods: %v", methods)
	}
}

func TestPing(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/health" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if !healthy {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", time.Second)
	if err := c.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	healthy = false
	if err := c.Ping(context.Background()); !errors.Is(err, derr.ErrSourceTemporary) {
		t.Fatalf("unexpected error: got %v want %v", err, derr.ErrSourceTemporary)
	}
}
