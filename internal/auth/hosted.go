package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/hostedapi"
	"github.com/tenantdesk/tenantdesk/internal/session"
)

// Hosted is the hosting portal backend. The portal owns the sign-in; the
// probe mirrors the portal's token and user primitives for the stored session
// reference and reports authenticated only when both resolve.
type Hosted struct {
	client *hostedapi.Client
	store  *session.Store
	sink   Sink

	seq   atomic.Uint64
	epoch atomic.Uint64

	mu    sync.Mutex
	ref   string
	token *hostedapi.Token
}

// NewHosted creates the hosting portal backend. A nil client marks the
// backend unconfigured; its probe then always reports unauthenticated.
func NewHosted(client *hostedapi.Client, store *session.Store, sink Sink) *Hosted {
	return &Hosted{
		client: client,
		store:  store,
		sink:   sink,
	}
}

// Start issues the initial portal lookup for whatever session ID is stored.
func (h *Hosted) Start() {
	id, err := h.store.Get()
	if err != nil {
		log.Warn().Err(err).Msg("session store read failed")
		id = ""
	}

	h.OnSessionChanged(id)
}

// OnSessionChanged re-resolves the portal's token and user for the new
// session reference. Lookups run asynchronously under an epoch so a slow
// result for an old reference is dropped.
func (h *Hosted) OnSessionChanged(id string) {
	epoch := h.epoch.Add(1)

	h.mu.Lock()
	h.ref = id
	h.token = nil
	h.mu.Unlock()

	if id == "" {
		h.report(Status{State: StateUnauthenticated, Reason: "no session id"})
		return
	}
	if h.client == nil {
		h.report(Status{State: StateUnauthenticated, Reason: "hosting portal not configured"})
		return
	}

	h.report(Status{State: StateLoading})

	go h.resolve(epoch, id)
}

// Token returns the portal's bearer token for the current session, fetching a
// fresh one when the cached token is missing or near expiry. The directory
// client uses it in hosted mode; it is never handed to browsers.
func (h *Hosted) Token(ctx context.Context) (*hostedapi.Token, error) {
	h.mu.Lock()
	ref := h.ref
	token := h.token
	h.mu.Unlock()

	if ref == "" {
		return nil, ErrNoHostedSession
	}
	if token != nil && time.Until(token.ExpiresAt) > tokenExpirySkew {
		return token, nil
	}
	if h.client == nil {
		return nil, ErrHostedNotConfigured
	}

	fresh, err := h.client.SessionToken(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("portal token: %w", err)
	}
	if fresh == nil {
		return nil, ErrNoHostedSession
	}

	h.mu.Lock()
	if h.ref == ref {
		h.token = fresh
	}
	h.mu.Unlock()

	return fresh, nil
}

// SignOut locally reports the backend unauthenticated, then forwards the
// sign-out to the portal, best effort.
func (h *Hosted) SignOut(ctx context.Context) error {
	h.mu.Lock()
	ref := h.ref
	h.token = nil
	h.mu.Unlock()

	h.epoch.Add(1)
	h.report(Status{State: StateUnauthenticated, Reason: "signed out"})

	if ref == "" || h.client == nil {
		return nil
	}
	if err := h.client.SignOut(ctx, ref); err != nil {
		return fmt.Errorf("portal sign-out: %w", err)
	}

	return nil
}

func (h *Hosted) resolve(epoch uint64, ref string) {
	ctx := context.Background()

	token, err := h.client.SessionToken(ctx, ref)
	if err != nil {
		h.finish(epoch, Status{State: StateUnauthenticated, Reason: portalFailureReason(err)}, err)
		return
	}

	user, err := h.client.CurrentUser(ctx, ref)
	if err != nil {
		h.finish(epoch, Status{State: StateUnauthenticated, Reason: portalFailureReason(err)}, err)
		return
	}

	if token == nil || user == nil {
		h.finish(epoch, Status{State: StateUnauthenticated, Reason: "not signed in at the hosting portal"}, nil)
		return
	}

	h.mu.Lock()
	if h.epoch.Load() == epoch {
		h.token = token
	}
	h.mu.Unlock()

	h.finish(epoch, Status{
		State: StateAuthenticated,
		Actor: &Actor{
			ID:          user.ID,
			DisplayName: user.Name,
			Email:       user.Email,
			Backend:     BackendHosted,
		},
		Grants: ClaimsGrant(user.Grants),
	}, nil)
}

func (h *Hosted) finish(epoch uint64, st Status, err error) {
	if h.epoch.Load() != epoch {
		log.Debug().Msg("discarding superseded hosting portal result")
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("hosting portal lookup failed")
	}

	h.report(st)
}

func (h *Hosted) report(st Status) {
	st.Backend = BackendHosted
	st.Seq = h.seq.Add(1)
	st.At = time.Now()

	h.sink.Apply(st)
}

func portalFailureReason(err error) string {
	if errors.Is(err, hostedapi.ErrSessionUnknown) {
		return "session not recognized by the hosting portal"
	}

	return "hosting portal unreachable"
}
