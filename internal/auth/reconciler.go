package auth

import (
	"context"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/tenantdesk/tenantdesk/internal/session"
)

// LoginMode selects which backend Reconciler.Login drives.
type LoginMode string

const (
	// LoginInteractive names the browser sign-in. It is started through the
	// authorize URL or the device flow, not through Login, so requesting it
	// there is a no-op.
	LoginInteractive LoginMode = "interactive"
	// LoginAppOnly signs in with the configured service credentials.
	LoginAppOnly LoginMode = "appOnly"
)

// sessionProbe is the part of a backend the reconciler drives: the initial
// resolution and re-resolution whenever the session ID changes.
type sessionProbe interface {
	Start()
	OnSessionChanged(id string)
}

// Reconciler merges the per-backend statuses into the single published
// authentication state. Backends push statuses through Apply; the session
// store watcher pushes ID changes through OnSessionIDChanged. Everything the
// rest of the console reads comes out of State.
type Reconciler struct {
	store *session.Store

	interactive *Interactive
	appOnly     *AppOnly
	hosted      *Hosted
	probes      []sessionProbe

	// pubMu serializes state publication so subscribers always see changes
	// in the order they happened.
	pubMu sync.Mutex

	mu       sync.Mutex
	session  string
	statuses map[BackendKind]Status
	seqs     map[BackendKind]uint64
	state    State
	subs     []func(State)
}

// NewReconciler creates a reconciler primed with the stored session ID. Until
// backends report, the published state is loading.
func NewReconciler(store *session.Store) *Reconciler {
	r := &Reconciler{
		store:    store,
		statuses: make(map[BackendKind]Status),
		seqs:     make(map[BackendKind]uint64),
	}

	id, err := store.Get()
	if err != nil {
		log.Warn().Err(err).Msg("session store read failed")
	}

	r.session = id
	r.state = reconcile(snapshot{sessionID: r.session, statuses: r.statuses})

	return r
}

// Bind attaches the backends. Binding is a separate step because the backends
// are constructed with the reconciler as their sink; it runs once during
// wiring, before Start.
func (r *Reconciler) Bind(interactive *Interactive, appOnly *AppOnly, hosted *Hosted) {
	r.interactive = interactive
	r.appOnly = appOnly
	r.hosted = hosted

	r.probes = nil
	if interactive != nil {
		r.probes = append(r.probes, interactive)
	}
	if appOnly != nil {
		r.probes = append(r.probes, appOnly)
	}
	if hosted != nil {
		r.probes = append(r.probes, hosted)
	}
}

// Start issues the initial resolution on every bound backend.
func (r *Reconciler) Start() {
	for _, p := range r.probes {
		p.Start()
	}
}

// Interactive returns the delegated browser backend, nil when unbound.
func (r *Reconciler) Interactive() *Interactive {
	return r.interactive
}

// AppOnly returns the service-credential backend, nil when unbound.
func (r *Reconciler) AppOnly() *AppOnly {
	return r.appOnly
}

// Hosted returns the hosting portal backend, nil when unbound.
func (r *Reconciler) Hosted() *Hosted {
	return r.hosted
}

// Apply ingests a backend status. Statuses arriving out of order are dropped:
// each backend's Seq is monotonic, so a completion that raced a newer report
// can never roll the published state back.
func (r *Reconciler) Apply(st Status) {
	r.mu.Lock()
	if st.Seq <= r.seqs[st.Backend] {
		r.mu.Unlock()
		log.Debug().
			Str("backend", string(st.Backend)).
			Uint64("seq", st.Seq).
			Msg("discarding stale backend status")

		return
	}

	r.seqs[st.Backend] = st.Seq
	r.statuses[st.Backend] = st
	r.mu.Unlock()

	r.publish()
}

// OnSessionIDChanged reconciles against a new session ID: the change is
// recorded, every backend re-resolves, and the merged state is republished.
// Repeats of the current ID are ignored, so watcher and poll delivering the
// same change twice is harmless.
func (r *Reconciler) OnSessionIDChanged(id string) {
	r.mu.Lock()
	if r.session == id {
		r.mu.Unlock()
		return
	}

	r.session = id
	r.mu.Unlock()

	log.Debug().Bool("present", id != "").Msg("session id changed")

	for _, p := range r.probes {
		p.OnSessionChanged(id)
	}

	// Backends usually republish during the fan-out above; this sweep covers
	// the ones that skipped, since applicability may still have changed.
	r.publish()
}

// Poke re-reads the session store and reconciles against its current value.
// Backends call it right after writing the store so their own change is
// picked up without waiting for the file watcher.
func (r *Reconciler) Poke() {
	id, err := r.store.Get()
	if err != nil {
		log.Warn().Err(err).Msg("session store read failed")
		return
	}

	r.OnSessionIDChanged(id)
}

// State returns the current merged authentication state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state
}

// SessionID returns the session ID the reconciler last reconciled against.
func (r *Reconciler) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.session
}

// Subscribe registers a callback for state changes and immediately delivers
// the current state. Callbacks run synchronously on the publishing goroutine
// and must not call back into the reconciler's mutating methods.
func (r *Reconciler) Subscribe(fn func(State)) {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	r.mu.Lock()
	r.subs = append(r.subs, fn)
	current := r.state
	r.mu.Unlock()

	fn(current)
}

// HasPermission reports whether the signed-in actor holds the permission.
// It is always false while signed out or loading.
func (r *Reconciler) HasPermission(p Permission) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state.IsAuthenticated && r.state.Permissions[p]
}

// AccessToken returns a delegated access token, or nil when the current mode
// is not interactive or no token can be produced. App-only and hosted
// sessions never hand out tokens here.
func (r *Reconciler) AccessToken(ctx context.Context) *oauth2.Token {
	r.mu.Lock()
	mode := r.state.AuthMode
	r.mu.Unlock()

	if mode != BackendInteractive || r.interactive == nil {
		return nil
	}

	return r.interactive.Token(ctx)
}

// Login drives a sign-in for the requested mode. Only the app-only mode is
// actionable here; for every other mode the call is a logged no-op kept for
// callers of the old parameterless login.
func (r *Reconciler) Login(ctx context.Context, mode LoginMode) error {
	switch mode {
	case LoginAppOnly:
		if r.appOnly == nil {
			return ErrAppOnlyNotConfigured
		}

		return r.appOnly.Login(ctx)
	default:
		log.Warn().Str("mode", string(mode)).Msg("login is a no-op for this mode")

		return nil
	}
}

// Logout signs out of the backend that currently provides the actor, then
// clears the stored session ID. Remote failures are logged but never block
// the local clear.
func (r *Reconciler) Logout(ctx context.Context) error {
	var remoteErr error

	switch r.State().AuthMode {
	case BackendInteractive:
		if r.interactive != nil {
			remoteErr = r.interactive.SignOut(ctx)
		}
	case BackendAppOnly:
		if r.appOnly != nil {
			remoteErr = r.appOnly.Logout(ctx)
		}
	case BackendHosted:
		if r.hosted != nil {
			remoteErr = r.hosted.SignOut(ctx)
		}
	}

	if remoteErr != nil {
		log.Warn().Err(remoteErr).Msg("remote logout failed, clearing local session anyway")
	}

	if err := r.store.Clear(); err != nil {
		return err
	}

	r.OnSessionIDChanged("")

	return nil
}

// publish recomputes the merged state and, when it changed, delivers it to
// all subscribers in order.
func (r *Reconciler) publish() {
	r.pubMu.Lock()
	defer r.pubMu.Unlock()

	r.mu.Lock()
	next := reconcile(snapshot{sessionID: r.session, statuses: r.statuses})
	if next.equal(r.state) {
		r.mu.Unlock()
		return
	}

	r.state = next
	subs := slices.Clone(r.subs)
	r.mu.Unlock()

	observeState(next)

	log.Info().
		Bool("authenticated", next.IsAuthenticated).
		Bool("loading", next.Loading).
		Str("authMode", string(next.AuthMode)).
		Str("reason", next.Reason).
		Msg("auth state changed")

	for _, fn := range subs {
		fn(next)
	}
}
