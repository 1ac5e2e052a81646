package streampay_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/xraph/streampay"
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/store/memory"
	"github.com/xraph/streampay/types"
)

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now int64
}

func (c *fakeClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// recordingTreasury records every custody movement and can be told to fail.
type recordingTreasury struct {
	mu       sync.Mutex
	collects []types.Amount
	payouts  []types.Amount
	failNext error
}

func (t *recordingTreasury) Collect(_ context.Context, _ id.AccountID, amount types.Amount) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failNext != nil {
		err := t.failNext
		t.failNext = nil
		return err
	}
	t.collects = append(t.collects, amount)
	return nil
}

func (t *recordingTreasury) Payout(_ context.Context, _ id.AccountID, amount types.Amount) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.failNext != nil {
		err := t.failNext
		t.failNext = nil
		return err
	}
	t.payouts = append(t.payouts, amount)
	return nil
}

func ptr(v int64) *int64 { return &v }

type fixture struct {
	ledger    *streampay.Ledger
	clock     *fakeClock
	treasury  *recordingTreasury
	payer     id.AccountID
	recipient id.AccountID
}

func newFixture(t *testing.T, opts ...streampay.Option) *fixture {
	t.Helper()

	clock := &fakeClock{}
	treasury := &recordingTreasury{}

	all := append([]streampay.Option{
		streampay.WithClock(clock),
		streampay.WithTreasury(treasury),
		streampay.WithMinimumDuration(time.Second),
	}, opts...)

	l := streampay.New(memory.New(), all...)
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })

	return &fixture{
		ledger:    l,
		clock:     clock,
		treasury:  treasury,
		payer:     id.NewAccountID(),
		recipient: id.NewAccountID(),
	}
}

func (f *fixture) create(t *testing.T, funds types.Amount, duration int64) uint64 {
	t.Helper()

	streamID, err := f.ledger.CreateStream(context.Background(), f.payer, streampay.CreateStreamParams{
		Recipient: f.recipient,
		Duration:  ptr(duration),
		Funds:     funds,
	})
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}
	return streamID
}

func TestCreateStream(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(100)

	streamID := f.create(t, 1000, 1000)
	if streamID != 1 {
		t.Errorf("first stream ID = %d, want 1", streamID)
	}

	s, err := f.ledger.GetStream(context.Background(), streamID)
	if err != nil {
		t.Fatalf("GetStream failed: %v", err)
	}
	if !s.Payer.Equal(f.payer) || !s.Recipient.Equal(f.recipient) {
		t.Error("stream parties do not match request")
	}
	if s.OriginalBalance != 1000 || s.CurrentBalance != 1000 {
		t.Errorf("balances = %v/%v, want 1000/1000", s.OriginalBalance, s.CurrentBalance)
	}
	if s.StartDate != 100 || s.EndDate != 1100 {
		t.Errorf("window = [%d, %d], want [100, 1100]", s.StartDate, s.EndDate)
	}

	if len(f.treasury.collects) != 1 || f.treasury.collects[0] != 1000 {
		t.Errorf("treasury collects = %v, want [1000]", f.treasury.collects)
	}
}

func TestCreateStreamWithEndDate(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(500)

	streamID, err := f.ledger.CreateStream(context.Background(), f.payer, streampay.CreateStreamParams{
		Recipient: f.recipient,
		EndDate:   ptr(2500),
		Funds:     100,
	})
	if err != nil {
		t.Fatalf("CreateStream failed: %v", err)
	}

	s, _ := f.ledger.GetStream(context.Background(), streamID)
	if s.StartDate != 500 || s.EndDate != 2500 {
		t.Errorf("window = [%d, %d], want [500, 2500]", s.StartDate, s.EndDate)
	}
}

func TestCreateStreamIDsAreSequential(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(0)

	for want := uint64(1); want <= 3; want++ {
		if got := f.create(t, 10, 100); got != want {
			t.Errorf("stream ID = %d, want %d", got, want)
		}
	}
}

func TestCreateStreamValidation(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(1000)

	tests := []struct {
		name    string
		payer   id.AccountID
		params  streampay.CreateStreamParams
		wantErr error
	}{
		{
			"neither end date nor duration",
			f.payer,
			streampay.CreateStreamParams{Recipient: f.recipient, Funds: 100},
			streampay.ErrInvalidTimeParameters,
		},
		{
			"both end date and duration",
			f.payer,
			streampay.CreateStreamParams{Recipient: f.recipient, EndDate: ptr(2000), Duration: ptr(1000), Funds: 100},
			streampay.ErrInvalidTimeParameters,
		},
		{
			"end date in the past",
			f.payer,
			streampay.CreateStreamParams{Recipient: f.recipient, EndDate: ptr(500), Funds: 100},
			streampay.ErrInvalidTimeParameters,
		},
		{
			"end date equals now",
			f.payer,
			streampay.CreateStreamParams{Recipient: f.recipient, EndDate: ptr(1000), Funds: 100},
			streampay.ErrInvalidTimeParameters,
		},
		{
			"zero duration",
			f.payer,
			streampay.CreateStreamParams{Recipient: f.recipient, Duration: ptr(0), Funds: 100},
			streampay.ErrInvalidTimeParameters,
		},
		{
			"negative duration",
			f.payer,
			streampay.CreateStreamParams{Recipient: f.recipient, Duration: ptr(-100), Funds: 100},
			streampay.ErrInvalidTimeParameters,
		},
		{
			"zero funds",
			f.payer,
			streampay.CreateStreamParams{Recipient: f.recipient, Duration: ptr(1000), Funds: 0},
			streampay.ErrZeroFunds,
		},
		{
			"self stream",
			f.payer,
			streampay.CreateStreamParams{Recipient: f.payer, Duration: ptr(1000), Funds: 100},
			streampay.ErrSelfStream,
		},
		{
			"nil payer",
			id.Nil,
			streampay.CreateStreamParams{Recipient: f.recipient, Duration: ptr(1000), Funds: 100},
			streampay.ErrInvalidInput,
		},
		{
			"nil recipient",
			f.payer,
			streampay.CreateStreamParams{Recipient: id.Nil, Duration: ptr(1000), Funds: 100},
			streampay.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.CreateStream(context.Background(), tt.payer, tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateStream error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if len(f.treasury.collects) != 0 {
		t.Errorf("rejected requests moved funds: %v", f.treasury.collects)
	}
}

func TestCreateStreamMinimumDuration(t *testing.T) {
	clock := &fakeClock{}
	l := streampay.New(memory.New(),
		streampay.WithClock(clock),
		streampay.WithTreasury(&recordingTreasury{}),
	)
	payer, recipient := id.NewAccountID(), id.NewAccountID()
	ctx := context.Background()

	// Default minimum is five minutes.
	_, err := l.CreateStream(ctx, payer, streampay.CreateStreamParams{
		Recipient: recipient,
		Duration:  ptr(int64(299)),
		Funds:     100,
	})
	if !errors.Is(err, streampay.ErrInvalidTimeParameters) {
		t.Errorf("299s stream: error = %v, want ErrInvalidTimeParameters", err)
	}

	_, err = l.CreateStream(ctx, payer, streampay.CreateStreamParams{
		Recipient: recipient,
		Duration:  ptr(int64(300)),
		Funds:     100,
	})
	if err != nil {
		t.Errorf("300s stream: unexpected error %v", err)
	}
}

func TestCreateStreamCollectFailure(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(0)
	f.treasury.failNext = errors.New("custody offline")

	_, err := f.ledger.CreateStream(context.Background(), f.payer, streampay.CreateStreamParams{
		Recipient: f.recipient,
		Duration:  ptr(int64(1000)),
		Funds:     100,
	})
	if !errors.Is(err, streampay.ErrTransferFailed) {
		t.Fatalf("error = %v, want ErrTransferFailed", err)
	}

	if _, err := f.ledger.GetStream(context.Background(), 1); !errors.Is(err, streampay.ErrStreamNotFound) {
		t.Error("stream persisted despite failed funding")
	}
}

func TestWithdrawFullLifecycle(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(0)
	streamID := f.create(t, 1000, 1000)
	ctx := context.Background()

	// Nothing vested at the start.
	f.clock.Set(0)
	got, err := f.ledger.WithdrawAvailable(ctx, f.recipient, streamID)
	if err != nil {
		t.Fatalf("WithdrawAvailable at start failed: %v", err)
	}
	if got != 0 {
		t.Errorf("withdrew %v at start, want 0", got)
	}

	// Half vested at the midpoint.
	f.clock.Set(500)
	got, err = f.ledger.WithdrawAvailable(ctx, f.recipient, streamID)
	if err != nil {
		t.Fatalf("WithdrawAvailable at midpoint failed: %v", err)
	}
	if got != 500 {
		t.Errorf("withdrew %v at midpoint, want 500", got)
	}

	// Immediately again: nothing new has vested, no-op success.
	got, err = f.ledger.WithdrawAvailable(ctx, f.recipient, streamID)
	if err != nil {
		t.Fatalf("repeat WithdrawAvailable failed: %v", err)
	}
	if got != 0 {
		t.Errorf("repeat withdrawal paid %v, want 0", got)
	}

	// The remainder after the window closes.
	f.clock.Set(1500)
	got, err = f.ledger.WithdrawAvailable(ctx, f.recipient, streamID)
	if err != nil {
		t.Fatalf("WithdrawAvailable after end failed: %v", err)
	}
	if got != 500 {
		t.Errorf("withdrew %v after end, want 500", got)
	}

	s, _ := f.ledger.GetStream(ctx, streamID)
	if !s.IsDrained() {
		t.Errorf("stream not drained: balance %v", s.CurrentBalance)
	}
	if s.OriginalBalance != 1000 {
		t.Errorf("original balance changed: %v", s.OriginalBalance)
	}

	total := types.Amount(0)
	for _, p := range f.treasury.payouts {
		total += p
	}
	if total != 1000 {
		t.Errorf("total paid out %v, want 1000", total)
	}
}

func TestWithdrawExplicitAmount(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(0)
	streamID := f.create(t, 1000, 1000)
	ctx := context.Background()

	f.clock.Set(500)
	got, err := f.ledger.Withdraw(ctx, f.recipient, streamID, 200)
	if err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}
	if got != 200 {
		t.Errorf("withdrew %v, want 200", got)
	}

	s, _ := f.ledger.GetStream(ctx, streamID)
	if s.CurrentBalance != 800 {
		t.Errorf("CurrentBalance = %v, want 800", s.CurrentBalance)
	}

	// 300 still available (500 vested - 200 withdrawn).
	avail, err := f.ledger.Withdrawable(ctx, streamID)
	if err != nil {
		t.Fatalf("Withdrawable failed: %v", err)
	}
	if avail != 300 {
		t.Errorf("Withdrawable = %v, want 300", avail)
	}
}

func TestWithdrawDenied(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(0)
	streamID := f.create(t, 1000, 1000)
	ctx := context.Background()
	f.clock.Set(500)

	tests := []struct {
		name    string
		caller  id.AccountID
		amount  types.Amount
		wantErr error
	}{
		{"payer cannot withdraw", f.payer, 100, streampay.ErrUnauthorized},
		{"stranger cannot withdraw", id.NewAccountID(), 100, streampay.ErrUnauthorized},
		{"zero amount", f.recipient, 0, streampay.ErrInsufficientBalance},
		{"more than vested", f.recipient, 501, streampay.ErrInsufficientBalance},
		{"more than original", f.recipient, 2000, streampay.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.ledger.Withdraw(ctx, tt.caller, streamID, tt.amount)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Withdraw error = %v, want %v", err, tt.wantErr)
			}

			// Denied withdrawals never mutate the stream.
			s, _ := f.ledger.GetStream(ctx, streamID)
			if s.CurrentBalance != 1000 {
				t.Errorf("denied withdrawal changed balance to %v", s.CurrentBalance)
			}
		})
	}

	if len(f.treasury.payouts) != 0 {
		t.Errorf("denied withdrawals moved funds: %v", f.treasury.payouts)
	}
}

func TestWithdrawUnknownStream(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.Withdraw(context.Background(), f.recipient, 42, 1)
	if !errors.Is(err, streampay.ErrStreamNotFound) {
		t.Errorf("error = %v, want ErrStreamNotFound", err)
	}

	_, err = f.ledger.WithdrawAvailable(context.Background(), f.recipient, 42)
	if !errors.Is(err, streampay.ErrStreamNotFound) {
		t.Errorf("error = %v, want ErrStreamNotFound", err)
	}
}

func TestWithdrawTransferFailure(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(0)
	streamID := f.create(t, 1000, 1000)
	ctx := context.Background()

	f.clock.Set(500)
	f.treasury.failNext = errors.New("custody offline")

	_, err := f.ledger.Withdraw(ctx, f.recipient, streamID, 100)
	if !errors.Is(err, streampay.ErrTransferFailed) {
		t.Fatalf("error = %v, want ErrTransferFailed", err)
	}

	// The failed payout must not debit the stream.
	s, _ := f.ledger.GetStream(ctx, streamID)
	if s.CurrentBalance != 1000 {
		t.Errorf("CurrentBalance = %v after failed transfer, want 1000", s.CurrentBalance)
	}

	// The same withdrawal succeeds once custody recovers.
	got, err := f.ledger.Withdraw(ctx, f.recipient, streamID, 100)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if got != 100 {
		t.Errorf("retry withdrew %v, want 100", got)
	}
}

func TestGetStreamUnknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.ledger.GetStream(context.Background(), 1)
	if !errors.Is(err, streampay.ErrStreamNotFound) {
		t.Errorf("error = %v, want ErrStreamNotFound", err)
	}
}

func TestOwner(t *testing.T) {
	owner := id.NewAccountID()
	l := streampay.New(memory.New(), streampay.WithOwner(owner))
	if !l.Owner().Equal(owner) {
		t.Errorf("Owner = %v, want %v", l.Owner(), owner)
	}
}

func TestListAndCountStreams(t *testing.T) {
	f := newFixture(t)
	f.clock.Set(0)
	ctx := context.Background()

	f.create(t, 100, 1000)
	f.create(t, 200, 1000)

	streams, err := f.ledger.ListStreams(ctx, streampay.ListOpts{Payer: f.payer})
	if err != nil {
		t.Fatalf("ListStreams failed: %v", err)
	}
	if len(streams) != 2 {
		t.Fatalf("got %d streams, want 2", len(streams))
	}

	count, err := f.ledger.CountStreams(ctx, streampay.ListOpts{Recipient: f.recipient})
	if err != nil {
		t.Fatalf("CountStreams failed: %v", err)
	}
	if count != 2 {
		t.Errorf("count = %d, want 2", count)
	}
}

// capturingPlugin records every lifecycle event it sees.
type capturingPlugin struct {
	mu       sync.Mutex
	created  int
	paid     []uint64
	drained  int
	denied   []string
	failures int
}

func (p *capturingPlugin) Name() string { return "capture" }

func (p *capturingPlugin) OnStreamCreated(_ context.Context, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created++
	return nil
}

func (p *capturingPlugin) OnWithdrawal(_ context.Context, _ interface{}, amount uint64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paid = append(p.paid, amount)
	return nil
}

func (p *capturingPlugin) OnStreamDrained(_ context.Context, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.drained++
	return nil
}

func (p *capturingPlugin) OnWithdrawalDenied(_ context.Context, _ uint64, _ string, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.denied = append(p.denied, reason)
	return nil
}

func (p *capturingPlugin) OnTransferFailed(_ context.Context, _ uint64, _ uint64, _ error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures++
	return nil
}

func TestPluginEvents(t *testing.T) {
	capture := &capturingPlugin{}
	f := newFixture(t, streampay.WithPlugin(capture))
	f.clock.Set(0)
	ctx := context.Background()

	streamID := f.create(t, 1000, 1000)

	f.clock.Set(500)
	if _, err := f.ledger.Withdraw(ctx, f.payer, streamID, 100); !errors.Is(err, streampay.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	f.treasury.failNext = errors.New("custody offline")
	if _, err := f.ledger.Withdraw(ctx, f.recipient, streamID, 100); !errors.Is(err, streampay.ErrTransferFailed) {
		t.Fatalf("expected ErrTransferFailed, got %v", err)
	}

	if _, err := f.ledger.Withdraw(ctx, f.recipient, streamID, 500); err != nil {
		t.Fatalf("Withdraw failed: %v", err)
	}

	f.clock.Set(1500)
	if _, err := f.ledger.WithdrawAvailable(ctx, f.recipient, streamID); err != nil {
		t.Fatalf("WithdrawAvailable failed: %v", err)
	}

	capture.mu.Lock()
	defer capture.mu.Unlock()

	if capture.created != 1 {
		t.Errorf("created events = %d, want 1", capture.created)
	}
	if len(capture.paid) != 2 || capture.paid[0] != 500 || capture.paid[1] != 500 {
		t.Errorf("withdrawal events = %v, want [500 500]", capture.paid)
	}
	if capture.drained != 1 {
		t.Errorf("drained events = %d, want 1", capture.drained)
	}
	if len(capture.denied) != 1 {
		t.Errorf("denied events = %v, want one entry", capture.denied)
	}
	if capture.failures != 1 {
		t.Errorf("transfer failure events = %d, want 1", capture.failures)
	}
}
