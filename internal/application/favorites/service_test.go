package favorites

import (
	"context"
	"errors"
	"testing"
)

type testSavedListings struct {
	saveErr   error
	unsaveErr error
	saves     int
	unsaves   int
	seenSaved bool
	svc       *Service
}

func (r *testSavedListings) SaveListing(ctx context.Context, userID, listingID string) error {
	r.saves++
	if r.svc != nil {
		r.seenSaved = r.svc.IsSaved(userID, listingID)
	}
	return r.saveErr
}

func (r *testSavedListings) UnsaveListing(ctx context.Context, userID, listingID string) error {
	r.unsaves++
	return r.unsaveErr
}

func TestCommand_CompensatesOnRemoteFailure(t *testing.T) {
	state := 0
	cmd := Command{
		Name:       "bump",
		Apply:      func() { state++ },
		Remote:     func(ctx context.Context) error { return errors.New("remote down") },
		Compensate: func() { state-- },
	}

	if err := cmd.Execute(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if state != 0 {
		t.Fatalf("unexpected state after compensation: got %d want 0", state)
	}
}

func TestToggle_SaveIsOptimistic(t *testing.T) {
	remote := &testSavedListings{}
	svc := NewService(nil, remote)
	remote.svc = svc

	saved, err := svc.Toggle(context.Background(), "u-1", "l-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !saved || !svc.IsSaved("u-1", "l-1") {
		t.Fatalf("expected listing to be saved")
	}
	if !remote.seenSaved {
		t.Fatalf("expected local state to be applied before the remote call")
	}
}

func TestToggle_RollsBackSaveOnFailure(t *testing.T) {
	remote := &testSavedListings{saveErr: errors.New("503")}
	svc := NewService(nil, remote)

	saved, err := svc.Toggle(context.Background(), "u-1", "l-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if saved || svc.IsSaved("u-1", "l-1") {
		t.Fatalf("expected save to be rolled back")
	}
}

func TestToggle_RollsBackUnsaveOnFailure(t *testing.T) {
	remote := &testSavedListings{}
	svc := NewService(nil, remote)

	if _, err := svc.Toggle(context.Background(), "u-1", "l-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	remote.unsaveErr = errors.New("503")
	saved, err := svc.Toggle(context.Background(), "u-1", "l-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !saved || !svc.IsSaved("u-1", "l-1") {
		t.Fatalf("expected unsave to be rolled back")
	}
	if remote.unsaves != 1 {
		t.Fatalf("unexpected unsave calls: got %d want 1", remote.unsaves)
	}
	if got := svc.Saved("u-1"); len(got) != 1 || got[0] != "l-1" {
		t.Fatalf("unexpected saved listings: %v", got)
	}
}
