package streampay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/plugin"
	"github.com/xraph/streampay/store"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/types"
)

// DefaultMinimumDuration is the shortest stream window accepted by default.
// Streams shorter than this vest too fast to be meaningfully linear.
const DefaultMinimumDuration = 5 * time.Minute

// Clock supplies the current time as Unix seconds. Every operation reads the
// clock exactly once, so a single invocation sees one consistent instant.
type Clock interface {
	Now() int64
}

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() int64

// Now implements Clock.
func (f ClockFunc) Now() int64 { return f() }

// SystemClock reads the host wall clock.
func SystemClock() Clock {
	return ClockFunc(func() int64 { return time.Now().Unix() })
}

// Treasury is the custody layer that actually moves funds. The engine tracks
// entitlements; the treasury owns the money.
type Treasury interface {
	// Collect pulls funds from an account into custody when a stream is funded.
	Collect(ctx context.Context, from id.AccountID, amount types.Amount) error

	// Payout releases custody funds to an account on withdrawal.
	Payout(ctx context.Context, to id.AccountID, amount types.Amount) error
}

// TreasuryFuncs adapts plain functions to the Treasury interface.
// A nil function succeeds unconditionally.
type TreasuryFuncs struct {
	CollectFunc func(ctx context.Context, from id.AccountID, amount types.Amount) error
	PayoutFunc  func(ctx context.Context, to id.AccountID, amount types.Amount) error
}

// Collect implements Treasury.
func (t TreasuryFuncs) Collect(ctx context.Context, from id.AccountID, amount types.Amount) error {
	if t.CollectFunc == nil {
		return nil
	}
	return t.CollectFunc(ctx, from, amount)
}

// Payout implements Treasury.
func (t TreasuryFuncs) Payout(ctx context.Context, to id.AccountID, amount types.Amount) error {
	if t.PayoutFunc == nil {
		return nil
	}
	return t.PayoutFunc(ctx, to, amount)
}

// Ledger is the payment streaming engine. It validates requests, computes
// vesting, moves funds through the treasury, and persists stream state.
//
// Operations are individually atomic: a failed operation leaves no partial
// state in the store.
type Ledger struct {
	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	clock    Clock
	treasury Treasury

	// Configuration
	owner       id.AccountID
	minDuration time.Duration
}

// New creates a new Ledger instance backed by the given store.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:       s,
		plugins:     plugin.NewRegistry(),
		logger:      slog.Default(),
		clock:       SystemClock(),
		treasury:    TreasuryFuncs{},
		minDuration: DefaultMinimumDuration,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithClock sets the time source. Useful for deterministic tests and for
// hosts that already carry a block or batch timestamp.
func WithClock(c Clock) Option {
	return func(l *Ledger) {
		l.clock = c
	}
}

// WithTreasury sets the custody layer used to move funds.
func WithTreasury(t Treasury) Option {
	return func(l *Ledger) {
		l.treasury = t
	}
}

// WithOwner records the administrative owner account. The owner has no
// special powers over streams today; it is reserved for administrative
// surfaces layered on top of the engine.
func WithOwner(owner id.AccountID) Option {
	return func(l *Ledger) {
		l.owner = owner
	}
}

// WithMinimumDuration overrides the minimum stream window. Values below one
// second are ignored: a zero-length window has no linear vesting to compute.
func WithMinimumDuration(d time.Duration) Option {
	return func(l *Ledger) {
		if d >= time.Second {
			l.minDuration = d
		}
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("streampay started",
		"minimum_duration", l.minDuration,
		"plugins", l.plugins.Count(),
	)

	return nil
}

// Stop shuts down plugins and closes the store.
func (l *Ledger) Stop() error {
	l.plugins.EmitShutdown(context.Background())

	return l.store.Close()
}

// Owner returns the administrative owner account recorded at construction.
func (l *Ledger) Owner() id.AccountID {
	return l.owner
}

// Plugins exposes the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry {
	return l.plugins
}

// ──────────────────────────────────────────────────
// Stream creation
// ──────────────────────────────────────────────────

// CreateStreamParams describes a new stream. Exactly one of EndDate and
// Duration must be set: EndDate is an absolute Unix-seconds instant, Duration
// a window length in seconds anchored at the current clock reading.
type CreateStreamParams struct {
	Recipient id.AccountID
	EndDate   *int64
	Duration  *int64
	Funds     types.Amount
}

// CreateStream validates the request, collects the funds from the payer, and
// persists a new stream vesting linearly from now until the computed end
// date. It returns the allocated stream ID.
func (l *Ledger) CreateStream(ctx context.Context, payer id.AccountID, p CreateStreamParams) (uint64, error) {
	if payer.IsNil() || p.Recipient.IsNil() {
		return 0, ErrInvalidInput
	}
	if (p.EndDate == nil) == (p.Duration == nil) {
		return 0, ErrInvalidTimeParameters
	}
	if p.Funds.IsZero() {
		return 0, ErrZeroFunds
	}
	if payer.Equal(p.Recipient) {
		return 0, ErrSelfStream
	}

	now := l.clock.Now()

	var end int64
	if p.EndDate != nil {
		end = *p.EndDate
	} else {
		end = now + *p.Duration
	}

	if end-now < int64(l.minDuration/time.Second) {
		return 0, ErrInvalidTimeParameters
	}

	if err := l.treasury.Collect(ctx, payer, p.Funds); err != nil {
		return 0, fmt.Errorf("%w: collect %s from %s: %v", ErrTransferFailed, p.Funds, payer, err)
	}

	s := &stream.Stream{
		Entity:          types.NewEntity(),
		Payer:           payer,
		Recipient:       p.Recipient,
		OriginalBalance: p.Funds,
		CurrentBalance:  p.Funds,
		StartDate:       now,
		EndDate:         end,
	}

	if err := l.store.CreateStream(ctx, s); err != nil {
		// Funds were already collected; hand them back before reporting failure.
		if refundErr := l.treasury.Payout(ctx, payer, p.Funds); refundErr != nil {
			l.logger.Error("refund after failed stream insert",
				"payer", payer,
				"amount", p.Funds,
				"error", refundErr,
			)
		}

		return 0, err
	}

	l.plugins.EmitStreamCreated(ctx, s)

	l.logger.Info("stream created",
		"stream_id", s.ID,
		"payer", s.Payer,
		"recipient", s.Recipient,
		"funds", s.OriginalBalance,
		"start_date", s.StartDate,
		"end_date", s.EndDate,
	)

	return s.ID, nil
}

// ──────────────────────────────────────────────────
// Withdrawals
// ──────────────────────────────────────────────────

// Withdraw pays the given amount of unlocked funds out to the stream's
// recipient. Only the recipient may withdraw. The amount must be positive
// and no larger than what has vested and not yet been paid out.
func (l *Ledger) Withdraw(ctx context.Context, caller id.AccountID, streamID uint64, amount types.Amount) (types.Amount, error) {
	return l.withdraw(ctx, caller, streamID, &amount)
}

// WithdrawAvailable pays out everything currently unlocked. When nothing is
// available it succeeds and returns zero without touching the stream.
func (l *Ledger) WithdrawAvailable(ctx context.Context, caller id.AccountID, streamID uint64) (types.Amount, error) {
	return l.withdraw(ctx, caller, streamID, nil)
}

func (l *Ledger) withdraw(ctx context.Context, caller id.AccountID, streamID uint64, requested *types.Amount) (types.Amount, error) {
	s, err := l.store.GetStream(ctx, streamID)
	if err != nil {
		return 0, err
	}

	if !caller.Equal(s.Recipient) {
		l.plugins.EmitWithdrawalDenied(ctx, streamID, caller.String(), "caller is not the recipient")

		return 0, ErrUnauthorized
	}

	now := l.clock.Now()
	available := s.WithdrawableAt(now)

	var amount types.Amount
	if requested == nil {
		if available.IsZero() {
			return 0, nil
		}

		amount = available
	} else {
		amount = *requested
		if amount.IsZero() || amount > available {
			l.plugins.EmitWithdrawalDenied(ctx, streamID, caller.String(), "insufficient available balance")

			return 0, ErrInsufficientBalance
		}
	}

	// Move the money first; the stream is only debited once the payout
	// has actually happened.
	if err := l.treasury.Payout(ctx, s.Recipient, amount); err != nil {
		l.plugins.EmitTransferFailed(ctx, streamID, uint64(amount), err)

		return 0, fmt.Errorf("%w: payout %s to %s: %v", ErrTransferFailed, amount, s.Recipient, err)
	}

	s.CurrentBalance = s.CurrentBalance.SaturatingSub(amount)
	s.Touch()

	if err := l.store.UpdateStream(ctx, s); err != nil {
		return 0, err
	}

	l.plugins.EmitWithdrawal(ctx, s, uint64(amount))
	if s.IsDrained() {
		l.plugins.EmitStreamDrained(ctx, s)
	}

	l.logger.Info("withdrawal",
		"stream_id", s.ID,
		"recipient", s.Recipient,
		"amount", amount,
		"remaining", s.CurrentBalance,
	)

	return amount, nil
}

// ──────────────────────────────────────────────────
// Reads
// ──────────────────────────────────────────────────

// GetStream returns the stream with the given ID. Reads are unrestricted:
// any caller may inspect any stream.
func (l *Ledger) GetStream(ctx context.Context, streamID uint64) (*stream.Stream, error) {
	return l.store.GetStream(ctx, streamID)
}

// Withdrawable returns the amount the recipient could withdraw right now.
func (l *Ledger) Withdrawable(ctx context.Context, streamID uint64) (types.Amount, error) {
	s, err := l.store.GetStream(ctx, streamID)
	if err != nil {
		return 0, err
	}

	return s.WithdrawableAt(l.clock.Now()), nil
}

// ListStreams returns streams matching the given filter.
func (l *Ledger) ListStreams(ctx context.Context, opts stream.ListOpts) ([]*stream.Stream, error) {
	return l.store.ListStreams(ctx, opts)
}

// CountStreams returns the number of streams matching the given filter.
func (l *Ledger) CountStreams(ctx context.Context, opts stream.ListOpts) (int64, error) {
	return l.store.CountStreams(ctx, opts)
}
