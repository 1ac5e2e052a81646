package extension

import "time"

// Config holds the StreamPay extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.streampay" or "streampay" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// MinimumDuration is the shortest stream window accepted by the engine
	// (default: 5m).
	MinimumDuration time.Duration `json:"minimum_duration" mapstructure:"minimum_duration" yaml:"minimum_duration"`

	// GroveBackend selects which Grove-backed store to construct when a
	// grove.DB is provided via WithGroveDB: "postgres", "sqlite" or "mongo"
	// (default: "postgres"). Ignored when no grove.DB is provided.
	GroveBackend string `json:"grove_backend" mapstructure:"grove_backend" yaml:"grove_backend"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MinimumDuration: 5 * time.Minute,
		GroveBackend:    "postgres",
	}
}
