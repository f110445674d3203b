// Package config loads the resource server configuration from a TOML file
// and exposes it through a process-wide accessor.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"

	"github.com/kudocloud/kudo-internal/internal/resourcesrv/userdir"
)

// StoreConfig selects and parameterizes the key-value store backend.
type StoreConfig struct {
	// Backend is "memory" for single-node and test deployments, "postgres"
	// for anything durable.
	Backend      string `toml:"backend" validate:"required,oneof=memory postgres"`
	DSN          string `toml:"dsn" validate:"required_if=Backend postgres"`
	Table        string `toml:"table"`
	MaxOpenConns int    `toml:"max_open_conns" validate:"gte=0"`
	MaxAttempts  int    `toml:"max_attempts" validate:"gte=0"`
}

// LinkConfig parameterizes public share links.
type LinkConfig struct {
	SigningKey string `toml:"signing_key" validate:"required,min=32"`
	Validity   string `toml:"validity" validate:"required"`
}

// GetValidity returns the link validity as a time.Duration.
func (l *LinkConfig) GetValidity() (time.Duration, error) {
	return ParseDuration(l.Validity)
}

// DirectoryConfig holds the static user directory used when no account
// service is wired in.
type DirectoryConfig struct {
	Users         []userdir.User         `toml:"users"`
	Organizations []userdir.Organization `toml:"organizations"`
}

// ConfigParam holds all configuration parameters for the resource server.
type ConfigParam struct {
	FormatVersion string `toml:"format_version" validate:"required"`

	ServerHostName string `toml:"server_hostname"`
	ServerPort     string `toml:"server_port" validate:"required,numeric"`
	HandleCORS     bool   `toml:"handle_cors"`

	Store     StoreConfig     `toml:"store"`
	Link      LinkConfig      `toml:"link"`
	Directory DirectoryConfig `toml:"directory"`
}

// ConfigFormatVersion is the current version of the configuration file format.
const ConfigFormatVersion = "0.1.0"

var cfg *ConfigParam

// Config returns the current configuration.
func Config() *ConfigParam {
	return cfg
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// LoadConfig loads configuration from a file. An empty filename installs the
// built-in defaults, which back tests and local development.
func LoadConfig(filename string) error {
	if filename == "" {
		cfg = DefaultConfig()
		return nil
	}

	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading config file: %v", err)
	}

	cp := DefaultConfig()
	if _, err := toml.Decode(string(content), cp); err != nil {
		return fmt.Errorf("error parsing config file: %v", err)
	}
	if err := ValidateConfig(cp); err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	cfg = cp
	return nil
}

// ValidateConfig checks if all required configuration values are present and
// valid.
func ValidateConfig(cp *ConfigParam) error {
	if cp.FormatVersion != ConfigFormatVersion {
		return fmt.Errorf("unsupported config file format version: %s", cp.FormatVersion)
	}
	if err := validate.Struct(cp); err != nil {
		return err
	}
	if _, err := ParseDuration(cp.Link.Validity); err != nil {
		return fmt.Errorf("invalid link.validity: %v", err)
	}
	return nil
}

// DefaultConfig returns the built-in defaults: in-memory store, a throwaway
// signing key and two fixture users.
func DefaultConfig() *ConfigParam {
	return &ConfigParam{
		FormatVersion:  ConfigFormatVersion,
		ServerHostName: "localhost",
		ServerPort:     "8215",
		HandleCORS:     true,
		Store: StoreConfig{
			Backend:      "memory",
			Table:        "kudo_resources",
			MaxOpenConns: 16,
			MaxAttempts:  3,
		},
		Link: LinkConfig{
			SigningKey: "dev-only-signing-key-not-for-production",
			Validity:   "7d",
		},
		Directory: DirectoryConfig{
			Users: []userdir.User{
				{ID: "dev-user", DisplayName: "Dev User", Email: "dev@localhost", OrgID: "dev-org"},
			},
			Organizations: []userdir.Organization{
				{ID: "dev-org", DisplayName: "Dev Org"},
			},
		},
	}
}

// ParseDuration parses a duration string in the format "<number><unit>" where
// unit can be y, d, h or m.
func ParseDuration(input string) (time.Duration, error) {
	if len(input) < 2 {
		return 0, fmt.Errorf("invalid input format")
	}

	unit := input[len(input)-1:]
	valueStr := input[:len(input)-1]
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", err)
	}

	var duration time.Duration
	switch unit {
	case "d":
		duration = time.Duration(value) * 24 * time.Hour
	case "h":
		duration = time.Duration(value) * time.Hour
	case "m":
		duration = time.Duration(value) * time.Minute
	case "y":
		// Assuming 1 year = 365 days for simplicity
		duration = time.Duration(value) * 365 * 24 * time.Hour
	default:
		return 0, fmt.Errorf("unknown time unit: %s", unit)
	}

	return duration, nil
}

func init() {
	if err := LoadConfig(""); err != nil {
		panic(err)
	}
}
