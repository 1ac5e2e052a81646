package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/streampay"
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/types"
)

func newTestStream(payer, recipient id.AccountID, funds types.Amount) *stream.Stream {
	return &stream.Stream{
		Entity:          types.NewEntity(),
		Payer:           payer,
		Recipient:       recipient,
		OriginalBalance: funds,
		CurrentBalance:  funds,
		StartDate:       1000,
		EndDate:         2000,
	}
}

func TestCreateAssignsSequentialIDs(t *testing.T) {
	s := New()
	ctx := context.Background()
	payer, recipient := id.NewAccountID(), id.NewAccountID()

	for want := uint64(1); want <= 3; want++ {
		st := newTestStream(payer, recipient, 100)
		if err := s.CreateStream(ctx, st); err != nil {
			t.Fatalf("CreateStream failed: %v", err)
		}
		if st.ID != want {
			t.Errorf("stream ID = %d, want %d", st.ID, want)
		}
	}
}

func TestGetStream(t *testing.T) {
	s := New()
	ctx := context.Background()

	st := newTestStream(id.NewAccountID(), id.NewAccountID(), 500)
	if err := s.CreateStream(ctx, st); err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}

	got, err := s.GetStream(ctx, st.ID)
	if err != nil {
		t.Fatalf("GetStream failed: %v", err)
	}
	if got.OriginalBalance != 500 || !got.Payer.Equal(st.Payer) {
		t.Errorf("GetStream returned wrong stream: %+v", got)
	}

	_, err = s.GetStream(ctx, 999)
	if !errors.Is(err, streampay.ErrStreamNotFound) {
		t.Errorf("expected ErrStreamNotFound, got %v", err)
	}
}

func TestGetStreamReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	st := newTestStream(id.NewAccountID(), id.NewAccountID(), 500)
	if err := s.CreateStream(ctx, st); err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}

	got, _ := s.GetStream(ctx, st.ID)
	got.CurrentBalance = 0

	again, _ := s.GetStream(ctx, st.ID)
	if again.CurrentBalance != 500 {
		t.Error("mutating a returned stream changed persisted state")
	}
}

func TestUpdateStream(t *testing.T) {
	s := New()
	ctx := context.Background()

	st := newTestStream(id.NewAccountID(), id.NewAccountID(), 500)
	if err := s.CreateStream(ctx, st); err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}

	st.CurrentBalance = 250
	if err := s.UpdateStream(ctx, st); err != nil {
		t.Fatalf("UpdateStream failed: %v", err)
	}

	got, _ := s.GetStream(ctx, st.ID)
	if got.CurrentBalance != 250 {
		t.Errorf("CurrentBalance = %v, want 250", got.CurrentBalance)
	}

	missing := newTestStream(id.NewAccountID(), id.NewAccountID(), 1)
	missing.ID = 999
	if err := s.UpdateStream(ctx, missing); !errors.Is(err, streampay.ErrStreamNotFound) {
		t.Errorf("expected ErrStreamNotFound, got %v", err)
	}
}

func TestListStreams(t *testing.T) {
	s := New()
	ctx := context.Background()

	alice, bob, carol := id.NewAccountID(), id.NewAccountID(), id.NewAccountID()

	s1 := newTestStream(alice, bob, 100)
	s2 := newTestStream(alice, carol, 200)
	s3 := newTestStream(bob, carol, 300)
	s3drained := newTestStream(alice, bob, 400)
	s3drained.CurrentBalance = 0

	for _, st := range []*stream.Stream{s1, s2, s3, s3drained} {
		if err := s.CreateStream(ctx, st); err != nil {
			t.Fatalf("CreateStream failed: %v", err)
		}
	}

	tests := []struct {
		name    string
		opts    stream.ListOpts
		wantIDs []uint64
	}{
		{"all", stream.ListOpts{}, []uint64{1, 2, 3, 4}},
		{"by payer", stream.ListOpts{Payer: alice}, []uint64{1, 2, 4}},
		{"by recipient", stream.ListOpts{Recipient: carol}, []uint64{2, 3}},
		{"active only", stream.ListOpts{ActiveOnly: true}, []uint64{1, 2, 3}},
		{"payer and active", stream.ListOpts{Payer: alice, ActiveOnly: true}, []uint64{1, 2}},
		{"limit", stream.ListOpts{Limit: 2}, []uint64{1, 2}},
		{"limit and offset", stream.ListOpts{Limit: 2, Offset: 2}, []uint64{3, 4}},
		{"offset past end", stream.ListOpts{Limit: 2, Offset: 10}, []uint64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListStreams(ctx, tt.opts)
			if err != nil {
				t.Fatalf("ListStreams failed: %v", err)
			}
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d streams, want %d", len(got), len(tt.wantIDs))
			}
			for i, st := range got {
				if st.ID != tt.wantIDs[i] {
					t.Errorf("stream[%d].ID = %d, want %d", i, st.ID, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestCountStreams(t *testing.T) {
	s := New()
	ctx := context.Background()

	alice, bob := id.NewAccountID(), id.NewAccountID()
	for i := 0; i < 3; i++ {
		if err := s.CreateStream(ctx, newTestStream(alice, bob, 100)); err != nil {
			t.Fatalf("CreateStream failed: %v", err)
		}
	}

	count, err := s.CountStreams(ctx, stream.ListOpts{Payer: alice})
	if err != nil {
		t.Fatalf("CountStreams failed: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	count, _ = s.CountStreams(ctx, stream.ListOpts{Payer: bob})
	if count != 0 {
		t.Errorf("count = %d, want 0", count)
	}
}

func TestClosedStore(t *testing.T) {
	s := New()
	ctx := context.Background()

	if err := s.Ping(ctx); err != nil {
		t.Fatalf("Ping on open store failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	if err := s.Ping(ctx); !errors.Is(err, streampay.ErrStoreClosed) {
		t.Errorf("Ping after close: expected ErrStoreClosed, got %v", err)
	}
	if err := s.CreateStream(ctx, newTestStream(id.NewAccountID(), id.NewAccountID(), 1)); !errors.Is(err, streampay.ErrStoreClosed) {
		t.Errorf("CreateStream after close: expected ErrStoreClosed, got %v", err)
	}
	if _, err := s.GetStream(ctx, 1); !errors.Is(err, streampay.ErrStoreClosed) {
		t.Errorf("GetStream after close: expected ErrStoreClosed, got %v", err)
	}
}
