package extension

import (
	"time"

	"github.com/xraph/grove"

	streampay "github.com/xraph/streampay"
	"github.com/xraph/streampay/plugin"
	"github.com/xraph/streampay/store"
)

// Option configures the StreamPay Forge extension.
type Option func(*Extension)

// WithStore sets the store for the streaming engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB provides a grove.DB to back the store. The extension
// constructs the store matching the configured grove backend
// (postgres/sqlite/mongo). Ignored when WithStore was also called.
func WithGroveDB(db *grove.DB) Option {
	return func(e *Extension) {
		e.groveDB = db
	}
}

// WithLedgerOption passes a streampay.Option through to the underlying engine.
func WithLedgerOption(opt streampay.Option) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, opt)
	}
}

// WithPlugin registers an engine plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, streampay.WithPlugin(p))
	}
}

// WithTreasury sets the treasury the engine moves funds through.
func WithTreasury(t streampay.Treasury) Option {
	return func(e *Extension) {
		e.ledgerOpts = append(e.ledgerOpts, streampay.WithTreasury(t))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithMinimumDuration sets the shortest stream window the engine accepts.
func WithMinimumDuration(d time.Duration) Option {
	return func(e *Extension) { e.config.MinimumDuration = d }
}

// WithGroveBackend selects which Grove-backed store to construct when a
// grove.DB is provided: "postgres", "sqlite" or "mongo".
func WithGroveBackend(backend string) Option {
	return func(e *Extension) { e.config.GroveBackend = backend }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
