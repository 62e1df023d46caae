package app

import (
	"context"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/daemon"
	"github.com/tenantdesk/tenantdesk/internal/hostedapi"
	"github.com/tenantdesk/tenantdesk/internal/sessionapi"
)

// newBackends assembles the reconciler with all three identity backends over
// the shared profile directory, the same way the daemon does, minus watcher
// and web service. One-shot commands drive the result directly; a running
// daemon picks their session writes up through the profile directory.
func newBackends(prompt auth.DevicePrompt) (*auth.Reconciler, error) {
	prof, err := daemon.PrepareProfile(&cfg)
	if err != nil {
		return nil, err
	}

	rec := auth.NewReconciler(prof.Store)

	var sessions *sessionapi.Client
	if cfg.SessionService.URL != "" {
		if sessions, err = sessionapi.NewClient(cfg.SessionService.URL, cfg.SessionService.Timeout); err != nil {
			return nil, err
		}
	}

	var hosted *hostedapi.Client
	if cfg.Hosted.Enabled && cfg.Hosted.URL != "" {
		if hosted, err = hostedapi.NewClient(cfg.Hosted.URL, cfg.Hosted.Timeout); err != nil {
			return nil, err
		}
	}

	rec.Bind(
		auth.NewInteractive(&cfg, prof.Accounts, prof.Secrets, prof.Store, rec, rec.Poke, prompt),
		auth.NewAppOnly(&cfg, sessions, prof.Store, rec, rec.Poke),
		auth.NewHosted(hosted, prof.Store, rec),
	)

	return rec, nil
}

// settle starts the backends and waits for the first reconciled state that
// is no longer loading. On timeout whatever resolved so far is returned.
func settle(ctx context.Context, rec *auth.Reconciler) auth.State {
	settled := make(chan auth.State, 1)

	rec.Subscribe(func(st auth.State) {
		if st.Loading {
			return
		}

		select {
		case settled <- st:
		default:
		}
	})

	rec.Start()

	select {
	case st := <-settled:
		return st
	case <-ctx.Done():
		return rec.State()
	}
}
