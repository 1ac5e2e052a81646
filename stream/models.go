// Package stream defines the payment stream model and its vesting math.
//
// A stream commits a fixed amount from a payer to a recipient and unlocks it
// linearly over a time window. All vesting computations here are pure: they
// read no clock, mutate nothing, and cannot fail.
package stream

import (
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/types"
)

// Stream is a single payment stream. Balances are denominated in the smallest
// indivisible unit of the native currency; dates are Unix seconds.
//
// CurrentBalance is the funds still held by the stream (original minus
// everything withdrawn so far). The invariant 0 <= CurrentBalance <=
// OriginalBalance holds at every commit point.
type Stream struct {
	types.Entity
	ID              uint64       `json:"id"`
	Payer           id.AccountID `json:"payer"`
	Recipient       id.AccountID `json:"recipient"`
	OriginalBalance types.Amount `json:"original_balance"`
	CurrentBalance  types.Amount `json:"current_balance"`
	StartDate       int64        `json:"start_date"`
	EndDate         int64        `json:"end_date"`
}

// Duration returns the stream window length in seconds.
func (s *Stream) Duration() int64 {
	return s.EndDate - s.StartDate
}

// Withdrawn returns the total amount already paid out to the recipient.
func (s *Stream) Withdrawn() types.Amount {
	return s.OriginalBalance.SaturatingSub(s.CurrentBalance)
}

// IsDrained reports whether the stream has paid out its entire balance.
func (s *Stream) IsDrained() bool {
	return s.CurrentBalance.IsZero()
}

// VestedAt returns the cumulative amount unlocked at the given instant:
// zero before StartDate, the full OriginalBalance at or after EndDate, and
// a linear share in between. The share truncates toward zero, so vested
// funds are never overstated mid-stream.
func (s *Stream) VestedAt(now int64) types.Amount {
	if now <= s.StartDate {
		return 0
	}
	if now >= s.EndDate {
		return s.OriginalBalance
	}

	elapsed := uint64(now - s.StartDate)
	total := uint64(s.EndDate - s.StartDate)

	return s.OriginalBalance.Prorate(elapsed, total)
}

// WithdrawableAt returns the amount the recipient may withdraw at the given
// instant: everything vested that has not already been paid out, clamped at
// zero.
func (s *Stream) WithdrawableAt(now int64) types.Amount {
	return s.VestedAt(now).SaturatingSub(s.Withdrawn())
}

// Clone returns a deep copy of the stream. Stores hand out clones so callers
// cannot mutate persisted state through a returned pointer.
func (s *Stream) Clone() *Stream {
	cp := *s

	return &cp
}
