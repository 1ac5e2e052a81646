package stream

import (
	"testing"

	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/types"
)

func newStream(original, current types.Amount, start, end int64) *Stream {
	return &Stream{
		Entity:          types.NewEntity(),
		ID:              1,
		Payer:           id.NewAccountID(),
		Recipient:       id.NewAccountID(),
		OriginalBalance: original,
		CurrentBalance:  current,
		StartDate:       start,
		EndDate:         end,
	}
}

func TestVestedAt(t *testing.T) {
	tests := []struct {
		name     string
		original types.Amount
		start    int64
		end      int64
		now      int64
		want     types.Amount
	}{
		{"before start", 1000, 100, 1100, 50, 0},
		{"at start", 1000, 100, 1100, 100, 0},
		{"midpoint", 1000, 0, 1000, 500, 500},
		{"quarter", 1000, 0, 1000, 250, 250},
		{"at end", 1000, 0, 1000, 1000, 1000},
		{"past end saturates", 1000, 0, 1000, 5000, 1000},
		{"truncates toward zero", 10, 0, 3, 1, 3},
		{"one second window", 42, 100, 101, 101, 42},
		{"negative now before start", 1000, 0, 1000, -50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStream(tt.original, tt.original, tt.start, tt.end)
			if got := s.VestedAt(tt.now); got != tt.want {
				t.Errorf("VestedAt(%d) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestVestedAtMonotonic(t *testing.T) {
	s := newStream(123_456_789, 123_456_789, 0, 1000)
	var prev types.Amount
	for now := int64(-10); now <= 1010; now++ {
		got := s.VestedAt(now)
		if got < prev {
			t.Fatalf("VestedAt decreased at now=%d: %v < %v", now, got, prev)
		}
		if got > s.OriginalBalance {
			t.Fatalf("VestedAt exceeded original at now=%d: %v", now, got)
		}
		prev = got
	}
	if prev != s.OriginalBalance {
		t.Fatalf("VestedAt at end = %v, want %v", prev, s.OriginalBalance)
	}
}

func TestVestedAtLargeBalance(t *testing.T) {
	// Original balance large enough that original*elapsed overflows 64 bits.
	s := newStream(types.MaxAmount, types.MaxAmount, 0, 1_000_000)
	got := s.VestedAt(500_000)
	want := types.MaxAmount / 2
	if got != want {
		t.Errorf("VestedAt(500000) = %v, want %v", got, want)
	}
}

func TestWithdrawableAt(t *testing.T) {
	tests := []struct {
		name     string
		original types.Amount
		current  types.Amount
		now      int64
		want     types.Amount
	}{
		{"nothing withdrawn, midpoint", 1000, 1000, 500, 500},
		{"half withdrawn, midpoint", 1000, 500, 500, 0},
		{"half withdrawn, three quarters", 1000, 500, 750, 250},
		{"all withdrawn", 1000, 0, 1000, 0},
		{"withdrawn ahead of vesting clamps to zero", 1000, 400, 500, 0},
		{"before start", 1000, 1000, -5, 0},
		{"after end, untouched", 1000, 1000, 2000, 1000},
		{"after end, partially withdrawn", 1000, 300, 2000, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStream(tt.original, tt.current, 0, 1000)
			if got := s.WithdrawableAt(tt.now); got != tt.want {
				t.Errorf("WithdrawableAt(%d) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

func TestWithdrawn(t *testing.T) {
	s := newStream(1000, 600, 0, 1000)
	if got := s.Withdrawn(); got != 400 {
		t.Errorf("Withdrawn = %v, want 400", got)
	}
}

func TestIsDrained(t *testing.T) {
	s := newStream(1000, 0, 0, 1000)
	if !s.IsDrained() {
		t.Error("expected drained stream")
	}
	s.CurrentBalance = 1
	if s.IsDrained() {
		t.Error("expected live stream")
	}
}

func TestDuration(t *testing.T) {
	s := newStream(1, 1, 100, 400)
	if got := s.Duration(); got != 300 {
		t.Errorf("Duration = %v, want 300", got)
	}
}

func TestClone(t *testing.T) {
	s := newStream(1000, 1000, 0, 1000)
	cp := s.Clone()
	cp.CurrentBalance = 0
	if s.CurrentBalance != 1000 {
		t.Error("mutating the clone changed the original")
	}
}
