package sigcheck

import (
	"fmt"
	"io"
	"os"
	"strconv"
)

import (
	"github.com/hashicorp/errwrap"
	"gopkg.in/yaml.v3"
)

// DefaultSignatureDir is where ClamAV keeps its signature databases on most
// distributions.
const DefaultSignatureDir = "/var/lib/clamav"

// Config is a data structure that encapsulates the configuration parameters
// used to run the check. It is built once and never modified afterwards.
type Config struct {
	SignatureDir  string
	CriticalDelta uint64
	WarningDelta  uint64
	DNSDomain     string
	Nameserver    string
	SigtoolPath   string
	Verbose       bool
}

// DefaultConfig returns the configuration used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		SignatureDir: DefaultSignatureDir,
		DNSDomain:    DefaultDNSDomain,
	}
}

// Environment variables read by ParseEnvVars.
const (
	EnvSignatureDir  = "CLAMAV_SIGNATURES_PATH"
	EnvCriticalDelta = "CLAMAV_SIGNATURES_CRITICAL"
	EnvWarningDelta  = "CLAMAV_SIGNATURES_WARNING"
	EnvDNSDomain     = "CLAMAV_DNS_DB_INFO_DOMAIN"
	EnvNameserver    = "CLAMAV_NAMESERVER"
	EnvSigtoolPath   = "SIGTOOL_PATH"
)

// ParseEnvVars parses environment variables for runtime configuration. Any
// variable that isn't set keeps its value from defaults.
func ParseEnvVars(defaults Config) (Config, error) {
	config := defaults

	if dir, present := os.LookupEnv(EnvSignatureDir); present {
		config.SignatureDir = dir
	}

	if critical, present := os.LookupEnv(EnvCriticalDelta); present {
		i, err := strconv.ParseUint(critical, 10, 64)

		if err != nil {
			return defaults, errwrap.Wrapf("Error parsing "+EnvCriticalDelta+
				" environment variable. {{err}}", err)
		}

		config.CriticalDelta = i
	}

	if warning, present := os.LookupEnv(EnvWarningDelta); present {
		i, err := strconv.ParseUint(warning, 10, 64)

		if err != nil {
			return defaults, errwrap.Wrapf("Error parsing "+EnvWarningDelta+
				" environment variable. {{err}}", err)
		}

		config.WarningDelta = i
	}

	if domain, present := os.LookupEnv(EnvDNSDomain); present {
		config.DNSDomain = domain
	}

	if nameserver, present := os.LookupEnv(EnvNameserver); present {
		config.Nameserver = nameserver
	}

	if sigtoolPath, present := os.LookupEnv(EnvSigtoolPath); present {
		config.SigtoolPath = sigtoolPath
	}

	return config, nil
}

// fileConfig mirrors Config for YAML decoding. Pointers distinguish keys that
// are absent from keys set to their zero value.
type fileConfig struct {
	Path        *string `yaml:"path"`
	Critical    *uint64 `yaml:"critical"`
	Warning     *uint64 `yaml:"warning"`
	DNSDomain   *string `yaml:"dns_domain"`
	Nameserver  *string `yaml:"nameserver"`
	SigtoolPath *string `yaml:"sigtool_path"`
}

// LoadConfigFile reads a YAML configuration file and applies the keys it
// sets on top of defaults.
func LoadConfigFile(configFilePath string, defaults Config) (Config, error) {
	reader, err := os.Open(configFilePath)

	if err != nil {
		msg := fmt.Sprintf("Unable to open config file [%v]. {{err}}", configFilePath)
		return defaults, errwrap.Wrapf(msg, err)
	}

	defer reader.Close()

	var parsed fileConfig
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)

	// An empty file decodes to io.EOF and changes nothing
	if err := decoder.Decode(&parsed); err != nil && err != io.EOF {
		msg := fmt.Sprintf("Unable to parse config file [%v]. {{err}}", configFilePath)
		return defaults, errwrap.Wrapf(msg, err)
	}

	config := defaults

	if parsed.Path != nil {
		config.SignatureDir = *parsed.Path
	}

	if parsed.Critical != nil {
		config.CriticalDelta = *parsed.Critical
	}

	if parsed.Warning != nil {
		config.WarningDelta = *parsed.Warning
	}

	if parsed.DNSDomain != nil {
		config.DNSDomain = *parsed.DNSDomain
	}

	if parsed.Nameserver != nil {
		config.Nameserver = *parsed.Nameserver
	}

	if parsed.SigtoolPath != nil {
		config.SigtoolPath = *parsed.SigtoolPath
	}

	return config, nil
}
