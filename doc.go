// Package streampay provides a payment streaming ledger for Go applications.
//
// StreamPay is designed as a library, not a service. Import it directly into
// your Go application. A payer commits a fixed amount to a recipient up
// front; the amount unlocks linearly over a time window and the recipient
// withdraws whatever has vested, whenever they like. It provides:
//
//   - Linear vesting with integer-only arithmetic (no floating point)
//   - Atomic operations: a failed call leaves no partial stream state
//   - Pluggable custody via the Treasury interface
//   - Pluggable persistence (memory, Postgres, SQLite, MongoDB, BoltDB)
//   - Lifecycle plugins for metrics and audit trails
//
// # Quick Start
//
// Create a ledger instance with your preferred store:
//
//	import (
//	    "github.com/xraph/streampay"
//	    "github.com/xraph/streampay/store/memory"
//	)
//
//	l := streampay.New(memory.New())
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// A stream commits funds from a payer to a recipient over a window:
//
//	duration := int64(30 * 24 * 60 * 60) // 30 days in seconds
//	streamID, err := l.CreateStream(ctx, payer, streampay.CreateStreamParams{
//	    Recipient: recipient,
//	    Duration:  &duration,
//	    Funds:     1_000_000,
//	})
//
// Exactly one of EndDate and Duration must be set. The recipient withdraws
// unlocked funds at any time:
//
//	// Everything currently available (zero available is a no-op success).
//	paid, err := l.WithdrawAvailable(ctx, recipient, streamID)
//
//	// Or an explicit amount, which must not exceed what has vested.
//	paid, err = l.Withdraw(ctx, recipient, streamID, 250_000)
//
// Anyone may inspect a stream:
//
//	s, err := l.GetStream(ctx, streamID)
//	fmt.Println(s.WithdrawableAt(time.Now().Unix()))
//
// # Vesting
//
// At any instant, the vested amount is OriginalBalance * elapsed / duration,
// truncating toward zero, clamped to [0, OriginalBalance]. The computation
// uses a 128-bit intermediate product, so full-range uint64 balances never
// overflow. Withdrawable = vested - already withdrawn.
//
// # Custody
//
// The engine tracks entitlements; the Treasury interface owns the money.
// Collect is called when a stream is funded, Payout when a recipient
// withdraws. A payout failure aborts the withdrawal with no state change.
// The default treasury is a no-op for hosts that settle funds elsewhere.
//
// # Identity
//
// Payers and recipients are TypeID account identifiers:
//
//	acct_01h2xcejqtf2nbrexx3vqjhp41
//
// Stream IDs are dense uint64 sequence numbers allocated by the store,
// starting at 1 and never reused.
package streampay
