package config

import (
	"github.com/tenantdesk/tenantdesk/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode    bool   // enable dev mode for development
	ProfileDir string // profile directory holding session state, account cache and keys
	Title      string
	Log        logger.Log
	Webserver  Webserver

	Interactive    Interactive
	SessionService SessionService
	Hosted         Hosted
	Directory      Directory
	Sync           Sync
	Cache          Cache
}

// Webserver implement webserver settings.
type Webserver struct {
	BindAddress    string // listen address, loopback by default
	DisableRecover bool   // disable recover middleware
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown
	URL            string // base url for the webserver, used to build the redirect uri
}
