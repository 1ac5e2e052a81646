// Package plugin provides an extensible plugin system for StreamPay.
// Plugins can hook into stream lifecycle events to extend functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, ledger interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Stream lifecycle hooks
// ──────────────────────────────────────────────────

// OnStreamCreated is called when a new stream is created and funded.
type OnStreamCreated interface {
	Plugin
	OnStreamCreated(ctx context.Context, s interface{}) error
}

// OnWithdrawal is called after a withdrawal has been transferred and committed.
type OnWithdrawal interface {
	Plugin
	OnWithdrawal(ctx context.Context, s interface{}, amount uint64) error
}

// OnStreamDrained is called when a withdrawal empties a stream's balance.
type OnStreamDrained interface {
	Plugin
	OnStreamDrained(ctx context.Context, s interface{}) error
}

// OnWithdrawalDenied is called when a withdrawal is rejected before any
// funds move (unauthorized caller or insufficient available balance).
type OnWithdrawalDenied interface {
	Plugin
	OnWithdrawalDenied(ctx context.Context, streamID uint64, caller string, reason string) error
}

// OnTransferFailed is called when the custody layer rejects a payout.
// The stream state is unchanged when this fires.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, streamID uint64, amount uint64, err error) error
}
