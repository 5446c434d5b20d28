package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/tendermint/lightcore/libs/log"
	tmmath "github.com/tendermint/lightcore/libs/math"
	"github.com/tendermint/lightcore/light"
)

// NOTE: Most of the structs & relevant comments + the
// default configuration options were used to manually
// generate the config.toml. Please reflect any changes
// made here in the defaultConfigTemplate constant in
// config/toml.go
// NOTE: libs/cli must know to look in the config dir!
var (
	DefaultLightcoreDir = ".lightcore"
	defaultConfigDir    = "config"
	defaultDataDir      = "data"

	defaultConfigFileName = "config.toml"

	defaultConfigFilePath = filepath.Join(defaultConfigDir, defaultConfigFileName)
)

// Config defines the top level configuration for the light client.
type Config struct {
	// Top level options use an anonymous struct
	BaseConfig `mapstructure:",squash"`

	// Options for services
	Light           *LightConfig           `mapstructure:"light"`
	Instrumentation *InstrumentationConfig `mapstructure:"instrumentation"`
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseConfig:      DefaultBaseConfig(),
		Light:           DefaultLightConfig(),
		Instrumentation: DefaultInstrumentationConfig(),
	}
}

// TestConfig returns a configuration that can be used for testing
func TestConfig() *Config {
	return &Config{
		BaseConfig:      TestBaseConfig(),
		Light:           TestLightConfig(),
		Instrumentation: TestInstrumentationConfig(),
	}
}

// SetRoot sets the RootDir for all Config structs
func (cfg *Config) SetRoot(root string) *Config {
	cfg.BaseConfig.RootDir = root
	return cfg
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *Config) ValidateBasic() error {
	if err := cfg.BaseConfig.ValidateBasic(); err != nil {
		return err
	}
	if err := cfg.Light.ValidateBasic(); err != nil {
		return pkgerrors.Wrap(err, "error in [light] section")
	}
	return pkgerrors.Wrap(
		cfg.Instrumentation.ValidateBasic(),
		"error in [instrumentation] section",
	)
}

//-----------------------------------------------------------------------------
// BaseConfig

// BaseConfig defines the base configuration for the light client.
type BaseConfig struct {
	// The root directory for all data.
	// This should be set in viper so it can unmarshal into this struct
	RootDir string `mapstructure:"home"`

	// Database backend: goleveldb | memdb
	DBBackend string `mapstructure:"db_backend"`

	// Database directory
	DBPath string `mapstructure:"db_dir"`

	// Output level for logging
	LogLevel string `mapstructure:"log_level"`

	// Output format: 'plain' (colored text) or 'json'
	LogFormat string `mapstructure:"log_format"`
}

// DefaultBaseConfig returns a default base configuration.
func DefaultBaseConfig() BaseConfig {
	return BaseConfig{
		DBBackend: "goleveldb",
		DBPath:    defaultDataDir,
		LogLevel:  log.LogLevelInfo,
		LogFormat: log.LogFormatPlain,
	}
}

// TestBaseConfig returns a base configuration for testing.
func TestBaseConfig() BaseConfig {
	cfg := DefaultBaseConfig()
	cfg.DBBackend = "memdb"
	cfg.LogLevel = log.LogLevelDebug
	return cfg
}

// DBDir returns the full path to the database directory
func (cfg BaseConfig) DBDir() string {
	return rootify(cfg.DBPath, cfg.RootDir)
}

// ConfigFile returns the full path to the config.toml file.
func (cfg BaseConfig) ConfigFile() string {
	return rootify(defaultConfigFilePath, cfg.RootDir)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg BaseConfig) ValidateBasic() error {
	switch cfg.LogFormat {
	case log.LogFormatPlain, log.LogFormatText, log.LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format (must be '%s', '%s' or '%s')",
			log.LogFormatPlain, log.LogFormatText, log.LogFormatJSON)
	}
	switch cfg.LogLevel {
	case log.LogLevelDebug, log.LogLevelInfo, log.LogLevelWarn, log.LogLevelError:
	default:
		return fmt.Errorf("unknown log level %q", cfg.LogLevel)
	}
	switch cfg.DBBackend {
	case "goleveldb", "memdb":
	default:
		return fmt.Errorf("unsupported db_backend %q (must be goleveldb or memdb)", cfg.DBBackend)
	}
	return nil
}

//-----------------------------------------------------------------------------
// LightConfig

// LightConfig defines the configuration options for header verification.
type LightConfig struct {
	// Chain the trusted states belong to.
	ChainID string `mapstructure:"chain_id"`

	// How long a trusted header can be relied upon.
	TrustingPeriod time.Duration `mapstructure:"trusting_period"`

	// Fraction of the trusted voting power that must sign a new header,
	// as "numerator/denominator".
	TrustLevel string `mapstructure:"trust_level"`

	// Hash function used for header hashes: sha256 | keccak256
	HashFunction string `mapstructure:"hash_function"`

	// Number of trusted states to keep. 0 keeps everything.
	MaxTrustedStates int `mapstructure:"max_trusted_states"`
}

// DefaultLightConfig returns a default configuration for header verification.
func DefaultLightConfig() *LightConfig {
	return &LightConfig{
		ChainID:          "",
		TrustingPeriod:   168 * time.Hour,
		TrustLevel:       light.DefaultTrustThreshold.String(),
		HashFunction:     light.HashSHA256,
		MaxTrustedStates: 1000,
	}
}

// TestLightConfig returns a configuration for testing.
func TestLightConfig() *LightConfig {
	cfg := DefaultLightConfig()
	cfg.ChainID = "test-chain"
	cfg.MaxTrustedStates = 10
	return cfg
}

// TrustThreshold parses TrustLevel.
func (cfg *LightConfig) TrustThreshold() (tmmath.Fraction, error) {
	return tmmath.ParseFraction(cfg.TrustLevel)
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *LightConfig) ValidateBasic() error {
	if cfg.TrustingPeriod <= 0 {
		return errors.New("trusting_period must be positive")
	}
	th, err := cfg.TrustThreshold()
	if err != nil {
		return fmt.Errorf("invalid trust_level: %w", err)
	}
	if err := light.ValidateTrustThreshold(th); err != nil {
		return err
	}
	if _, err := light.HeaderHasherByName(cfg.HashFunction); err != nil {
		return err
	}
	if cfg.MaxTrustedStates < 0 {
		return errors.New("max_trusted_states can't be negative")
	}
	return nil
}

//-----------------------------------------------------------------------------
// InstrumentationConfig

// InstrumentationConfig defines the configuration for metrics reporting.
type InstrumentationConfig struct {
	// When true, Prometheus metrics are written to PrometheusTextfile after
	// every command, in the format of the node exporter textfile collector.
	Prometheus bool `mapstructure:"prometheus"`

	// Path of the metrics file, relative to the home directory.
	PrometheusTextfile string `mapstructure:"prometheus_textfile"`

	// Instrumentation namespace
	Namespace string `mapstructure:"namespace"`
}

// DefaultInstrumentationConfig returns a default configuration for metrics
// reporting.
func DefaultInstrumentationConfig() *InstrumentationConfig {
	return &InstrumentationConfig{
		Prometheus:         false,
		PrometheusTextfile: filepath.Join(defaultDataDir, "metrics.prom"),
		Namespace:          "lightcore",
	}
}

// TestInstrumentationConfig returns a default configuration for metrics
// reporting.
func TestInstrumentationConfig() *InstrumentationConfig {
	return DefaultInstrumentationConfig()
}

// ValidateBasic performs basic validation (checking param bounds, etc.) and
// returns an error if any check fails.
func (cfg *InstrumentationConfig) ValidateBasic() error {
	if cfg.Prometheus && cfg.PrometheusTextfile == "" {
		return errors.New("prometheus_textfile can't be empty when prometheus is enabled")
	}
	if cfg.Namespace == "" {
		return errors.New("namespace can't be empty")
	}
	return nil
}

// TextfilePath returns the full path to the metrics file.
func (cfg BaseConfig) TextfilePath(instr *InstrumentationConfig) string {
	return rootify(instr.PrometheusTextfile, cfg.RootDir)
}

//-----------------------------------------------------------------------------
// Utils

// helper function to make config creation independent of root dir
func rootify(path, root string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(root, path)
}
