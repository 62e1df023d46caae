// Package daemon wires the profile stores, the identity backends, the
// reconciler, the session watcher and the web service into one process.
package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/directory"
	"github.com/tenantdesk/tenantdesk/internal/hostedapi"
	"github.com/tenantdesk/tenantdesk/internal/session"
	"github.com/tenantdesk/tenantdesk/internal/sessionapi"
	"github.com/tenantdesk/tenantdesk/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	rec        *auth.Reconciler
	watcher    *session.Watcher
	webService *web.Service
}

// Start runs the daemon: the session watcher starts, every backend issues
// its initial resolution and the web service listens until a termination
// signal drains it. It blocks for the lifetime of the process.
func (d *Daemon) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := d.watcher.Run(ctx); err != nil {
			log.Error().Err(err).Msg("session watcher stopped")
		}
	}()

	d.rec.Start()

	go d.webService.WaitShutdown()

	addr := fmt.Sprintf("%s:%d", d.cfg.Webserver.BindAddress, d.cfg.Webserver.Port)

	return d.webService.Start(addr)
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) *Daemon {
	if cfg == nil {
		log.Fatal().Msg("config is nil")
		return nil
	}

	prof, err := PrepareProfile(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare profile directory")
		return nil
	}

	rec := auth.NewReconciler(prof.Store)

	watcher, err := session.NewWatcher(prof.Store, cfg.Sync.PollInterval)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to watch session store")
		return nil
	}

	watcher.OnChange(rec.OnSessionIDChanged)

	var sessions *sessionapi.Client
	if cfg.SessionService.URL != "" {
		if sessions, err = sessionapi.NewClient(cfg.SessionService.URL, cfg.SessionService.Timeout); err != nil {
			log.Fatal().Err(err).Msg("failed to create session service client")
			return nil
		}
	}

	var hosted *hostedapi.Client
	if cfg.Hosted.Enabled && cfg.Hosted.URL != "" {
		if hosted, err = hostedapi.NewClient(cfg.Hosted.URL, cfg.Hosted.Timeout); err != nil {
			log.Fatal().Err(err).Msg("failed to create hosting portal client")
			return nil
		}
	}

	// Backends write the session store themselves and poke the watcher, so
	// their own writes fan out through the same path an external write takes.
	// The daemon has no terminal, hence the nil device prompt.
	rec.Bind(
		auth.NewInteractive(cfg, prof.Accounts, prof.Secrets, prof.Store, rec, watcher.Poke, nil),
		auth.NewAppOnly(cfg, sessions, prof.Store, rec, watcher.Poke),
		auth.NewHosted(hosted, prof.Store, rec),
	)

	auth.RegisterMetrics()

	var dir *directory.Client
	if cfg.Directory.URL != "" {
		if dir, err = directory.NewClient(cfg.Directory.URL, cfg.Directory.Timeout, directory.NewProvider(rec)); err != nil {
			log.Fatal().Err(err).Msg("failed to create directory client")
			return nil
		}
	}

	return &Daemon{
		cfg:        cfg,
		rec:        rec,
		watcher:    watcher,
		webService: web.New(cfg, rec, dir),
	}
}
