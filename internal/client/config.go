// Package client implements the end-user side of the broker: a local
// credential store at ~/.dbgrant.json and operations to fill it from
// remote broker endpoints.
package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/dbgrant/internal/errors"
	customValidation "github.com/allisson/dbgrant/internal/validation"
)

// endpointURL validates that a remote endpoint is an absolute http(s) URL.
var endpointURL = validation.NewStringRuleWithError(
	func(s string) bool {
		u, err := url.Parse(s)
		return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	},
	validation.NewError("validation_endpoint_url", "must be an absolute http or https URL"),
)

// ConfigFileName is the local config file, stored in the home directory.
const ConfigFileName = ".dbgrant.json"

// Remote is a broker endpoint paired with a fetch token for it.
type Remote struct {
	Endpoint string `json:"endpoint"`
	Token    string `json:"token"`
}

// Validate implements validation for remote entries.
func (r Remote) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Endpoint, validation.Required, endpointURL),
		validation.Field(&r.Token, validation.Required),
	)
}

// Auth holds credentials for one role on one host database.
type Auth struct {
	Host     string `json:"host"`
	DB       string `json:"db"`
	Role     string `json:"role"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Validate implements validation for auth entries.
func (a Auth) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.Host, validation.Required, customValidation.Host),
		validation.Field(&a.DB, validation.Required, customValidation.NotBlank),
		validation.Field(&a.Role, validation.Required, customValidation.Role),
		validation.Field(&a.Username, validation.Required),
		validation.Field(&a.Password, validation.Required),
	)
}

// Config is the local client state: known brokers, host and database
// aliases, and cached credentials.
type Config struct {
	Remotes     []Remote          `json:"remotes"`
	HostAliases map[string]string `json:"host_aliases"`
	DBAliases   map[string]string `json:"db_aliases"`
	Auth        []Auth            `json:"auth"`
}

// NewConfig returns an empty config with initialized alias maps.
func NewConfig() *Config {
	return &Config{
		Remotes:     []Remote{},
		HostAliases: map[string]string{},
		DBAliases:   map[string]string{},
		Auth:        []Auth{},
	}
}

// Validate implements validation for the whole config.
func (c *Config) Validate() error {
	for i, remote := range c.Remotes {
		if err := remote.Validate(); err != nil {
			return apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("remote %d: %v", i, err))
		}
	}
	for i, auth := range c.Auth {
		if err := auth.Validate(); err != nil {
			return apperrors.Wrap(apperrors.ErrInvalidInput, fmt.Sprintf("auth %d: %v", i, err))
		}
	}
	return nil
}

// DefaultConfigPath returns the config location in the user's home directory.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrConfig, fmt.Sprintf("resolve home directory: %v", err))
	}
	return filepath.Join(home, ConfigFileName), nil
}

// LoadConfig reads and validates the config at path. A missing file yields
// an empty config so first use needs no setup step.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, apperrors.Wrap(apperrors.ErrConfig, fmt.Sprintf("read config: %v", err))
	}

	cfg := NewConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrConfig, fmt.Sprintf("parse config: %v", err))
	}
	if cfg.HostAliases == nil {
		cfg.HostAliases = map[string]string{}
	}
	if cfg.DBAliases == nil {
		cfg.DBAliases = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes the config to path with owner-only permissions. The
// file carries passwords, so group and world bits stay off.
func SaveConfig(path string, cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return apperrors.Wrap(apperrors.ErrConfig, fmt.Sprintf("marshal config: %v", err))
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return apperrors.Wrap(apperrors.ErrConfig, fmt.Sprintf("write config: %v", err))
	}
	return nil
}
