package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/tenantdesk/tenantdesk/internal/auth/cache"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/session"
)

// refreshTokenSecret is the secret store key the refresh token lives under.
const refreshTokenSecret = "refresh-token"

// sessionNamespace is the fixed UUIDv5 namespace synthesized session IDs are
// derived under, so the same cached account always maps to the same ID.
var sessionNamespace = uuid.MustParse("b6f84f6e-3d6a-4f0b-9a2e-1d9c7a0f5e42")

// DevicePrompt shows device-code verification instructions to the person
// signing in. The CLI prints them; the daemon has no terminal and leaves the
// prompt nil, which makes interactive challenges fail soft.
type DevicePrompt func(verificationURI, userCode string)

// Interactive is the delegated backend: the status probe over the local
// account cache, plus the OAuth2/OIDC flows that fill that cache.
//
// The probe itself works offline: a cached account counts as signed in, and
// token problems surface later through the acquirer. Identity provider
// discovery is deferred until a flow actually needs the network.
type Interactive struct {
	cfg     *config.Config
	db      *gorm.DB
	secrets *cache.SecretStore
	store   *session.Store
	sink    Sink
	poke    func()
	prompt  DevicePrompt

	acquirer *TokenAcquirer
	seq      atomic.Uint64

	mu        sync.Mutex
	provider  *oidc.Provider
	verifier  *oidc.IDTokenVerifier
	oauth2cfg oauth2.Config
	lastState ProbeState
}

// NewInteractive creates the delegated backend. The sink receives status
// reports; poke nudges the session watcher after the probe writes the store
// and may be nil in tests.
func NewInteractive(cfg *config.Config, db *gorm.DB, secrets *cache.SecretStore, store *session.Store, sink Sink, poke func(), prompt DevicePrompt) *Interactive {
	i := &Interactive{
		cfg:     cfg,
		db:      db,
		secrets: secrets,
		store:   store,
		sink:    sink,
		poke:    poke,
		prompt:  prompt,
	}
	i.acquirer = NewTokenAcquirer(i, i)

	return i
}

// Start performs the initial account resolution.
func (i *Interactive) Start() {
	i.resolve()
}

// OnSessionChanged re-reads the account cache. Another process may have
// signed in or out; the cache is the shared source of truth.
func (i *Interactive) OnSessionChanged(string) {
	i.resolve()
}

// Token returns the delegated access token via the acquirer. Nil means the
// caller should prompt for a fresh sign-in.
func (i *Interactive) Token(ctx context.Context) *oauth2.Token {
	return i.acquirer.Token(ctx)
}

// AuthCodeURL builds the browser sign-in URL. The caller keeps the state and
// PKCE verifier until the callback returns.
func (i *Interactive) AuthCodeURL(ctx context.Context, state, verifier string) (string, error) {
	oc, _, err := i.ensureProvider(ctx)
	if err != nil {
		return "", err
	}

	return oc.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// HandleCallback finishes the browser sign-in: it exchanges the code,
// verifies the ID token, persists the account and refresh token, and reports
// the backend authenticated.
func (i *Interactive) HandleCallback(ctx context.Context, code, verifier string) (*cache.Account, error) {
	oc, _, err := i.ensureProvider(ctx)
	if err != nil {
		return nil, err
	}

	token, err := oc.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	return i.completeSignIn(ctx, token)
}

// SignInDeviceCode runs the device-code sign-in end to end: the prompt shows
// the verification code, and the resolved account is cached and reported.
func (i *Interactive) SignInDeviceCode(ctx context.Context) (*cache.Account, error) {
	token, err := i.AcquireInteractive(ctx)
	if err != nil {
		return nil, err
	}

	return i.completeSignIn(ctx, token)
}

// SignOut removes the cached account, the stored refresh token and the cached
// access token, then reports the backend unauthenticated. The identity
// provider's own session is left alone; the next sign-in simply re-prompts.
func (i *Interactive) SignOut(_ context.Context) error {
	i.acquirer.Reset()

	if err := i.secrets.Delete(refreshTokenSecret); err != nil {
		log.Warn().Err(err).Msg("failed to delete stored refresh token")
	}

	if err := cache.Clear(i.db); err != nil {
		return fmt.Errorf("clear account cache: %w", err)
	}

	i.report(Status{State: StateUnauthenticated, Reason: "signed out"})

	return nil
}

// AcquireSilent redeems the stored refresh token for a fresh token set,
// persisting a rotated refresh token when the provider issues one.
func (i *Interactive) AcquireSilent(ctx context.Context) (*oauth2.Token, error) {
	oc, _, err := i.ensureProvider(ctx)
	if err != nil {
		return nil, err
	}

	refresh, err := i.secrets.Get(refreshTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("no stored refresh token: %w", err)
	}

	token, err := oc.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token grant: %w", err)
	}

	if token.RefreshToken != "" && token.RefreshToken != refresh {
		if err = i.secrets.Set(refreshTokenSecret, token.RefreshToken); err != nil {
			log.Warn().Err(err).Msg("failed to persist rotated refresh token")
		}
	}

	return token, nil
}

// AcquireInteractive runs one device-code challenge. Without a prompt there
// is nowhere to show the code and the challenge fails immediately.
func (i *Interactive) AcquireInteractive(ctx context.Context) (*oauth2.Token, error) {
	if i.prompt == nil {
		return nil, ErrNoInteractiveContext
	}

	oc, _, err := i.ensureProvider(ctx)
	if err != nil {
		return nil, err
	}

	da, err := oc.DeviceAuth(ctx)
	if err != nil {
		return nil, fmt.Errorf("device authorization: %w", err)
	}

	i.prompt(da.VerificationURI, da.UserCode)

	token, err := oc.DeviceAccessToken(ctx, da)
	if err != nil {
		return nil, fmt.Errorf("device token: %w", err)
	}

	i.persistRefreshToken(token)

	return token, nil
}

// ensureProvider lazily discovers the identity provider and builds the OAuth2
// configuration. Discovery happens at most once per process.
func (i *Interactive) ensureProvider(ctx context.Context) (oauth2.Config, *oidc.IDTokenVerifier, error) {
	if !i.cfg.Interactive.Enabled {
		return oauth2.Config{}, nil, ErrInteractiveDisabled
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.provider != nil {
		return i.oauth2cfg, i.verifier, nil
	}

	issuer := fmt.Sprintf("%s/%s/v2.0", strings.TrimRight(i.cfg.Interactive.Authority, "/"), i.cfg.Interactive.TenantID)

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return oauth2.Config{}, nil, fmt.Errorf("discover identity provider: %w", err)
	}

	scopes := i.cfg.Interactive.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email", "offline_access"}
	}

	i.provider = provider
	i.verifier = provider.Verifier(&oidc.Config{ClientID: i.cfg.Interactive.ClientID})
	i.oauth2cfg = oauth2.Config{
		ClientID:    i.cfg.Interactive.ClientID,
		Endpoint:    provider.Endpoint(),
		RedirectURL: strings.TrimRight(i.cfg.Webserver.URL, "/") + i.cfg.Interactive.RedirectPath,
		Scopes:      scopes,
	}

	return i.oauth2cfg, i.verifier, nil
}

// completeSignIn verifies the ID token, caches the account, persists the
// refresh token, seeds the acquirer and reports the backend authenticated.
func (i *Interactive) completeSignIn(ctx context.Context, token *oauth2.Token) (*cache.Account, error) {
	_, verifier, err := i.ensureProvider(ctx)
	if err != nil {
		return nil, err
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, ErrNoIDToken
	}

	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, fmt.Errorf("verify ID token: %w", err)
	}

	var claims struct {
		Sub               string `json:"sub"`
		ObjectID          string `json:"oid"`
		TenantID          string `json:"tid"`
		PreferredUsername string `json:"preferred_username"`
		Name              string `json:"name"`
		Email             string `json:"email"`
	}
	if err = idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	accountID := claims.ObjectID
	if accountID == "" {
		accountID = claims.Sub
	}
	email := claims.Email
	if email == "" {
		email = claims.PreferredUsername
	}

	account, err := cache.Save(i.db, &cache.Account{
		ID:          accountID,
		TenantID:    claims.TenantID,
		Subject:     claims.Sub,
		Username:    claims.PreferredUsername,
		DisplayName: claims.Name,
		Email:       email,
	})
	if err != nil {
		return nil, fmt.Errorf("cache account: %w", err)
	}

	i.persistRefreshToken(token)
	i.acquirer.Seed(token)
	i.reportAccount(account)

	log.Info().Str("account", account.Username).Msg("interactive sign-in completed")

	return account, nil
}

func (i *Interactive) persistRefreshToken(token *oauth2.Token) {
	if token.RefreshToken == "" {
		log.Warn().Msg("no refresh token issued, silent renewal will be unavailable")
		return
	}
	if err := i.secrets.Set(refreshTokenSecret, token.RefreshToken); err != nil {
		log.Warn().Err(err).Msg("failed to persist refresh token")
	}
}

// resolve re-reads the account cache and reports the backend's status. The
// read is local and synchronous, so reports are never stale against their own
// inputs.
func (i *Interactive) resolve() {
	if !i.cfg.Interactive.Enabled {
		i.report(Status{State: StateUnauthenticated, Reason: "interactive sign-in is disabled"})
		return
	}

	account, err := cache.One(i.db)
	switch {
	case errors.Is(err, cache.ErrAccountNotFound):
		i.report(Status{State: StateUnauthenticated, Reason: "no account signed in"})
		return
	case errors.Is(err, cache.ErrMultipleAccountsFound):
		log.Warn().Msg("account cache holds multiple accounts, ignoring all of them")
		i.report(Status{State: StateUnauthenticated, Reason: "account cache is ambiguous"})
		return
	case err != nil:
		log.Warn().Err(err).Msg("account cache read failed")
		i.report(Status{State: StateUnauthenticated, Reason: "account cache unavailable"})
		return
	}

	i.reportAccount(account)
}

// reportAccount reports the backend authenticated for the given account. On
// the transition into authenticated it also seeds the acquirer and, when no
// session ID exists yet, synthesizes one so interactive sign-ins share the
// session-identity space of the other backends. Synthesis is strictly
// edge-triggered: a session ID cleared later (for example by the app-only
// probe rejecting the synthesized ID) is not re-created until the account
// resolves afresh.
func (i *Interactive) reportAccount(account *cache.Account) {
	i.mu.Lock()
	entering := i.lastState != StateAuthenticated
	i.mu.Unlock()

	i.report(Status{
		State:  StateAuthenticated,
		Actor:  actorForAccount(account),
		Grants: FullGrant(),
	})

	if !entering {
		return
	}

	i.acquirer.Seed(nil)

	id, err := i.store.Get()
	if err != nil || id != "" {
		return
	}

	synthesized := synthesizeSessionID(account)
	if err = i.store.Set(synthesized); err != nil {
		log.Warn().Err(err).Msg("failed to write synthesized session id")
		return
	}

	log.Debug().Str("session_id", synthesized).Msg("synthesized session id for interactive account")

	if i.poke != nil {
		i.poke()
	}
}

func (i *Interactive) report(st Status) {
	st.Backend = BackendInteractive
	st.Seq = i.seq.Add(1)
	st.At = time.Now()

	i.mu.Lock()
	i.lastState = st.State
	i.mu.Unlock()

	i.sink.Apply(st)
}

// synthesizeSessionID derives a stable session ID from a cached account. The
// same account always yields the same ID.
func synthesizeSessionID(account *cache.Account) string {
	seed := account.ID + "|" + account.CreatedAt.UTC().Format(time.RFC3339)

	return uuid.NewSHA1(sessionNamespace, []byte(seed)).String()
}

func actorForAccount(account *cache.Account) *Actor {
	name := account.DisplayName
	if name == "" {
		name = account.Username
	}

	return &Actor{
		ID:          account.ID,
		DisplayName: name,
		Email:       account.Email,
		Backend:     BackendInteractive,
	}
}
