package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/session"
	"github.com/tenantdesk/tenantdesk/internal/sessionapi"
)

// AppOnly is the service-credential backend: a remote session service holds
// the actual session, and the probe mirrors the service's verdict on the
// stored session ID.
//
// Status queries run asynchronously. Every session ID change bumps an epoch;
// a query result whose epoch is no longer current is dropped, so a slow
// response for an old ID can never overwrite the verdict on a newer one.
type AppOnly struct {
	cfg    *config.Config
	client *sessionapi.Client
	store  *session.Store
	sink   Sink
	poke   func()

	seq   atomic.Uint64
	epoch atomic.Uint64

	mu    sync.Mutex
	ownID string
}

// NewAppOnly creates the service-credential backend. A nil client marks the
// backend unconfigured; its probe then always reports unauthenticated.
func NewAppOnly(cfg *config.Config, client *sessionapi.Client, store *session.Store, sink Sink, poke func()) *AppOnly {
	return &AppOnly{
		cfg:    cfg,
		client: client,
		store:  store,
		sink:   sink,
		poke:   poke,
	}
}

// Start issues the initial revalidation for whatever session ID is stored.
func (p *AppOnly) Start() {
	id, err := p.store.Get()
	if err != nil {
		log.Warn().Err(err).Msg("session store read failed")
		id = ""
	}

	p.OnSessionChanged(id)
}

// OnSessionChanged revalidates a session ID against the service. The one ID
// the probe itself just wrote during login is exempt: the service confirmed
// it moments ago, and re-querying would tear down the optimistic state.
func (p *AppOnly) OnSessionChanged(id string) {
	epoch := p.epoch.Add(1)

	p.mu.Lock()
	own := id != "" && id == p.ownID
	p.ownID = ""
	p.mu.Unlock()
	if own {
		return
	}

	if id == "" {
		p.report(Status{State: StateUnauthenticated, Reason: "no session id"})
		return
	}
	if p.client == nil {
		p.report(Status{State: StateUnauthenticated, Reason: "session service not configured"})
		return
	}

	p.report(Status{State: StateLoading})

	go p.query(epoch, id)
}

// Login configures a session from the app credentials in the profile config,
// signs it in, stores the minted session ID and reports the backend
// authenticated without waiting for the next status query.
func (p *AppOnly) Login(ctx context.Context) error {
	if p.client == nil {
		return ErrAppOnlyNotConfigured
	}

	creds := sessionapi.Credentials{
		ClientID:     p.cfg.SessionService.ClientID,
		TenantID:     p.cfg.SessionService.TenantID,
		ClientSecret: p.cfg.SessionService.ClientSecret,
	}
	if creds.ClientID == "" || creds.TenantID == "" || creds.ClientSecret == "" {
		return ErrCredentialsNotConfigured
	}

	id, err := p.client.Configure(ctx, creds)
	if err != nil {
		return fmt.Errorf("configure session: %w", err)
	}

	user, err := p.client.Login(ctx, id)
	if err != nil {
		return fmt.Errorf("app-only login: %w", err)
	}

	if err = p.store.Set(id); err != nil {
		return fmt.Errorf("store session id: %w", err)
	}

	// Supersede any in-flight revalidation and exempt our own write from the
	// change-triggered re-query.
	p.epoch.Add(1)
	p.mu.Lock()
	p.ownID = id
	p.mu.Unlock()

	p.report(Status{State: StateAuthenticated, Actor: actorForServiceUser(user), Grants: FullGrant()})

	log.Info().Str("session_id", id).Msg("app-only sign-in completed")

	if p.poke != nil {
		p.poke()
	}

	return nil
}

// Logout invalidates the session on the service, best effort, after locally
// reporting the backend unauthenticated. The caller clears the stored session
// ID regardless of the remote outcome.
func (p *AppOnly) Logout(ctx context.Context) error {
	id, err := p.store.Get()
	if err != nil || id == "" {
		return nil
	}

	p.epoch.Add(1)
	p.report(Status{State: StateUnauthenticated, Reason: "signed out"})

	if p.client == nil {
		return nil
	}
	if err = p.client.Logout(ctx, id); err != nil {
		return fmt.Errorf("remote logout: %w", err)
	}

	return nil
}

func (p *AppOnly) query(epoch uint64, id string) {
	status, err := p.client.Status(context.Background(), id)

	if p.epoch.Load() != epoch {
		log.Debug().Str("session_id", id).Msg("discarding superseded session status result")
		return
	}

	switch {
	case err == nil && status.Authenticated:
		p.report(Status{State: StateAuthenticated, Actor: actorForServiceUser(status.User), Grants: FullGrant()})
	case err == nil, errors.Is(err, sessionapi.ErrSessionNotFound):
		reason := "session rejected by the session service"
		if err == nil && status.Reason != "" {
			reason = status.Reason
		}
		p.clearRejected(id)
		p.report(Status{State: StateUnauthenticated, Reason: reason})
	default:
		log.Warn().Err(err).Msg("session status query failed")
		p.report(Status{State: StateUnauthenticated, Reason: "session service unreachable"})
	}
}

// clearRejected removes a session ID the service definitively rejected, so a
// dead ID does not linger. The stored ID is re-read first: if it moved on
// while the query was in flight, the newer ID is left alone.
func (p *AppOnly) clearRejected(id string) {
	current, err := p.store.Get()
	if err != nil || current != id {
		return
	}

	if err = p.store.Clear(); err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("failed to clear rejected session id")
		return
	}

	log.Info().Str("session_id", id).Msg("cleared session id rejected by the session service")

	if p.poke != nil {
		p.poke()
	}
}

func (p *AppOnly) report(st Status) {
	st.Backend = BackendAppOnly
	st.Seq = p.seq.Add(1)
	st.At = time.Now()

	p.sink.Apply(st)
}

func actorForServiceUser(user *sessionapi.User) *Actor {
	if user == nil {
		// The service vouched for the session but reported no identity.
		return &Actor{ID: "app-credentials", DisplayName: "App credentials", Backend: BackendAppOnly}
	}

	return &Actor{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Backend:     BackendAppOnly,
	}
}
