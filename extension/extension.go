// Package extension provides the Forge extension adapter for StreamPay.
//
// It implements the forge.Extension interface to integrate StreamPay
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.streampay" or
// "streampay" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	streampay "github.com/xraph/streampay"
	"github.com/xraph/streampay/store"
	"github.com/xraph/streampay/store/memory"
	mongostore "github.com/xraph/streampay/store/mongo"
	"github.com/xraph/streampay/store/postgres"
	"github.com/xraph/streampay/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "streampay"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Linear-vesting payment streaming engine"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts StreamPay as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config     Config
	engine     *streampay.Ledger
	store      store.Store
	groveDB    *grove.DB
	ledgerOpts []streampay.Option
}

// New creates a new StreamPay Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Ledger instance.
// This is nil until Register is called.
func (e *Extension) Engine() *streampay.Ledger { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the streaming engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if e.store == nil {
		if e.groveDB != nil {
			s, err := e.buildGroveStore()
			if err != nil {
				return err
			}
			e.store = s
		} else {
			// Fall back to the in-memory store.
			e.store = memory.New()
		}
	}

	opts := e.buildLedgerOpts()

	eng := streampay.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*streampay.Ledger, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("streampay: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("streampay: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildGroveStore constructs the Grove-backed store named by config.
func (e *Extension) buildGroveStore() (store.Store, error) {
	switch e.config.GroveBackend {
	case "", "postgres", "pg":
		return postgres.New(e.groveDB), nil
	case "sqlite":
		return sqlite.New(e.groveDB), nil
	case "mongo", "mongodb":
		return mongostore.New(e.groveDB), nil
	default:
		return nil, fmt.Errorf("streampay: unknown grove backend %q", e.config.GroveBackend)
	}
}

// buildLedgerOpts constructs streampay.Option values from the resolved config.
func (e *Extension) buildLedgerOpts() []streampay.Option {
	opts := make([]streampay.Option, 0, len(e.ledgerOpts)+1)

	if e.config.MinimumDuration > 0 {
		opts = append(opts, streampay.WithMinimumDuration(e.config.MinimumDuration))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.ledgerOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("streampay: configuration is required but not found in config files; " +
				"ensure 'extensions.streampay' or 'streampay' key exists in your config")
		}

		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML, merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("streampay: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("minimum_duration", e.config.MinimumDuration),
		forge.F("grove_backend", e.config.GroveBackend),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.streampay" first (namespaced pattern).
	if cm.IsSet("extensions.streampay") {
		if err := cm.Bind("extensions.streampay", &cfg); err == nil {
			e.Logger().Debug("streampay: loaded config from file",
				forge.F("key", "extensions.streampay"),
			)
			return cfg, true
		}
		e.Logger().Warn("streampay: failed to bind extensions.streampay config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "streampay" key.
	if cm.IsSet("streampay") {
		if err := cm.Bind("streampay", &cfg); err == nil {
			e.Logger().Debug("streampay: loaded config from file",
				forge.F("key", "streampay"),
			)
			return cfg, true
		}
		e.Logger().Warn("streampay: failed to bind streampay config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.MinimumDuration == 0 {
		cfg.MinimumDuration = defaults.MinimumDuration
	}
	if cfg.GroveBackend == "" {
		cfg.GroveBackend = defaults.GroveBackend
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String and duration fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.GroveBackend == "" && programmaticConfig.GroveBackend != "" {
		yamlConfig.GroveBackend = programmaticConfig.GroveBackend
	}
	if yamlConfig.MinimumDuration == 0 && programmaticConfig.MinimumDuration != 0 {
		yamlConfig.MinimumDuration = programmaticConfig.MinimumDuration
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
