package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/creachadair/atomicfile"

	tmos "github.com/tendermint/lightcore/libs/os"
)

// defaultDirPerm is the default permissions used when creating directories.
const defaultDirPerm = 0700

var configTemplate *template.Template

func init() {
	var err error
	tmpl := template.New("configFileTemplate").Funcs(template.FuncMap{
		"StringsJoin": strings.Join,
	})
	if configTemplate, err = tmpl.Parse(defaultConfigTemplate); err != nil {
		panic(err)
	}
}

/****** these are for production settings ***********/

// EnsureRoot creates the root, config, and data directories if they don't exist,
// and panics if it fails.
func EnsureRoot(rootDir string) {
	if err := tmos.EnsureDir(rootDir, defaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultConfigDir), defaultDirPerm); err != nil {
		panic(err.Error())
	}
	if err := tmos.EnsureDir(filepath.Join(rootDir, defaultDataDir), defaultDirPerm); err != nil {
		panic(err.Error())
	}
}

// WriteConfigFile renders config using the template and writes it to
// configFilePath. This function is called by cmd/lightcore/commands/init.go
func WriteConfigFile(rootDir string, config *Config) error {
	return config.WriteToTemplate(filepath.Join(rootDir, defaultConfigFilePath))
}

// WriteToTemplate writes the config to the exact file specified by
// the path, in the default toml template and does not mangle the path
// or filename at all. The file is replaced atomically.
func (cfg *Config) WriteToTemplate(path string) error {
	var buffer bytes.Buffer

	if err := configTemplate.Execute(&buffer, cfg); err != nil {
		return err
	}

	_, err := atomicfile.WriteAll(path, &buffer, 0644)
	return err
}

// WriteDefaultConfigFileIfNone writes the default config unless a config
// file exists already.
func WriteDefaultConfigFileIfNone(rootDir string) error {
	configFilePath := filepath.Join(rootDir, defaultConfigFilePath)
	if !tmos.FileExists(configFilePath) {
		return WriteConfigFile(rootDir, DefaultConfig())
	}
	return nil
}

// Note: any changes to the comments/variables/mapstructure
// must be reflected in the appropriate struct in config/config.go
const defaultConfigTemplate = `# This is a TOML config file.
# For more information, see https://github.com/toml-lang/toml

# NOTE: Any path below can be absolute (e.g. "/var/lightcore/data") or
# relative to the home directory (e.g. "data"). The home directory is
# "$HOME/.lightcore" by default, but could be changed via $LCHOME env variable
# or --home cmd flag.

#######################################################################
###                   Main Base Config Options                      ###
#######################################################################

# Database backend: goleveldb | memdb
# * goleveldb (github.com/syndtr/goleveldb - most popular implementation)
#   - pure go
#   - stable
# * memdb
#   - nothing survives the process, useful for dry runs
db_backend = "{{ .BaseConfig.DBBackend }}"

# Database directory
db_dir = "{{ js .BaseConfig.DBPath }}"

# Output level for logging: debug | info | warn | error
log_level = "{{ .BaseConfig.LogLevel }}"

# Output format: 'plain' (colored text) or 'json'
log_format = "{{ .BaseConfig.LogFormat }}"

#######################################################################
###                 Header Verification Options                     ###
#######################################################################
[light]

# Chain the trusted states belong to
chain_id = "{{ .Light.ChainID }}"

# How long a trusted header can be relied upon. A header older than this
# must be replaced by a new subjective anchor.
trusting_period = "{{ .Light.TrustingPeriod }}"

# Fraction of the trusted voting power that must have signed a new header
# for it to be trusted, as "numerator/denominator". Must be within (0, 1].
trust_level = "{{ .Light.TrustLevel }}"

# Hash function used for header hashes: sha256 | keccak256
hash_function = "{{ .Light.HashFunction }}"

# Number of trusted states to keep. 0 keeps everything.
max_trusted_states = {{ .Light.MaxTrustedStates }}

#######################################################################
###                    Instrumentation Options                      ###
#######################################################################
[instrumentation]

# When true, Prometheus metrics are written to prometheus_textfile after
# every command, in the format of the node exporter textfile collector.
prometheus = {{ .Instrumentation.Prometheus }}

# Path of the metrics file
prometheus_textfile = "{{ js .Instrumentation.PrometheusTextfile }}"

# Instrumentation namespace
namespace = "{{ .Instrumentation.Namespace }}"
`
