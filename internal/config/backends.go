package config

import (
	"time"
)

// Interactive holds the delegated interactive identity provider settings.
type Interactive struct {
	Enabled      bool
	Authority    string   // issuer base url, e.g. https://login.microsoftonline.com
	TenantID     string   // directory tenant the console signs in against
	ClientID     string   // public client application id
	Scopes       []string // requested scopes, openid/profile/email/offline_access by default
	RedirectPath string   // local webserver path completing the redirect flow
}

// SessionService holds the app-only session service settings.
// ClientID/TenantID/ClientSecret are the service credentials exchanged for a
// session by an explicit app-only login; they stay optional until that login
// is actually used.
type SessionService struct {
	URL          string
	ClientID     string
	TenantID     string
	ClientSecret string
	Timeout      time.Duration
}

// Hosted holds the hosted identity provider settings.
type Hosted struct {
	Enabled   bool
	URL       string
	ProjectID string
	Timeout   time.Duration
}

// Directory holds the tenant directory API settings. Requests to it carry
// whatever credentials the current auth mode provides.
type Directory struct {
	URL     string
	Timeout time.Duration
}

// Sync holds the cross context session sync settings.
type Sync struct {
	// PollInterval is the coarse re-read interval backing up the file
	// change notifications. Defaults to 400ms.
	PollInterval time.Duration
}

// Cache holds the local account cache settings.
type Cache struct {
	Path       string // sqlite file, defaults to accounts.db under the profile dir
	UseKeyring bool   // seal refresh tokens with the OS keyring when available
}
