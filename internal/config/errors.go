package config

import (
	"errors"
)

var (
	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrInteractiveTenantIDEmpty error if the interactive backend is enabled without a tenant id.
	ErrInteractiveTenantIDEmpty = errors.New("toml config interactive.tenantid can not be empty when interactive is enabled")

	// ErrInteractiveClientIDEmpty error if the interactive backend is enabled without a client id.
	ErrInteractiveClientIDEmpty = errors.New("toml config interactive.clientid can not be empty when interactive is enabled")

	// ErrHostedURLEmpty error if the hosted backend is enabled without a provider url.
	ErrHostedURLEmpty = errors.New("toml config hosted.url can not be empty when hosted is enabled")
)
