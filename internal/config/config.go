// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/BurntSushi/toml"
)

const (
	defaultShutDownTime = 5 // seconds
	defaultPollInterval = 400 * time.Millisecond
	defaultRPCTimeout   = 15 * time.Second
	defaultRedirectPath = "/auth/callback"

	defaultProfileDirName = ".tenantdesk"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv("TENANTDESK_CONFIG_JSON")

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config override from env")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// ResolveProfileDir returns the profile directory, falling back to
// ~/.tenantdesk when none is configured.
func (c *Config) ResolveProfileDir() (string, error) {
	if c.ProfileDir != "" {
		return c.ProfileDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "can't resolve user home for the profile dir")
	}

	return filepath.Join(home, defaultProfileDirName), nil
}

// validate minimal config settings and apply defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	// the redirect uri is derived from the base url
	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Interactive.Enabled {
		if c.Interactive.TenantID == "" {
			return errors.Wrap(ErrInteractiveTenantIDEmpty, invalidErrMessage)
		}

		if c.Interactive.ClientID == "" {
			return errors.Wrap(ErrInteractiveClientIDEmpty, invalidErrMessage)
		}
	}

	if c.Hosted.Enabled && c.Hosted.URL == "" {
		return errors.Wrap(ErrHostedURLEmpty, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Sync.PollInterval == 0 {
		c.Sync.PollInterval = defaultPollInterval
	}

	if c.SessionService.Timeout == 0 {
		c.SessionService.Timeout = defaultRPCTimeout
	}

	if c.Hosted.Timeout == 0 {
		c.Hosted.Timeout = defaultRPCTimeout
	}

	if c.Directory.Timeout == 0 {
		c.Directory.Timeout = defaultRPCTimeout
	}

	if c.Interactive.RedirectPath == "" {
		c.Interactive.RedirectPath = defaultRedirectPath
	}

	return nil
}
