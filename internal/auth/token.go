package auth

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// tokenExpirySkew is how long before expiry a token stops counting as fresh.
const tokenExpirySkew = 2 * time.Minute

// SilentRenewer redeems stored credentials for a fresh token set without
// user interaction.
type SilentRenewer interface {
	AcquireSilent(ctx context.Context) (*oauth2.Token, error)
}

// InteractiveChallenger obtains a token set through a user-visible challenge.
type InteractiveChallenger interface {
	AcquireInteractive(ctx context.Context) (*oauth2.Token, error)
}

// TokenAcquirer hands out the delegated access token: cached while fresh,
// silently renewed when stale, with at most one interactive challenge per
// acquisition when silent renewal fails. It never returns an error; a nil
// token tells the caller to prompt for a fresh sign-in.
type TokenAcquirer struct {
	silent    SilentRenewer
	challenge InteractiveChallenger

	mu     sync.Mutex
	seeded bool
	token  *oauth2.Token
}

// NewTokenAcquirer creates an acquirer over the given renewal strategies.
func NewTokenAcquirer(silent SilentRenewer, challenge InteractiveChallenger) *TokenAcquirer {
	return &TokenAcquirer{silent: silent, challenge: challenge}
}

// Seed marks the interactive account as present, priming the cache when a
// token set is supplied. Seeding nil keeps any cached token. Until seeded,
// Token returns nil immediately: handing out tokens must never imply a
// sign-in.
func (a *TokenAcquirer) Seed(token *oauth2.Token) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seeded = true
	if token != nil {
		a.token = token
	}
}

// Reset forgets the account and the cached token. Token returns nil until the
// next Seed.
func (a *TokenAcquirer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.seeded = false
	a.token = nil
}

// Token returns the current access token, renewing it when needed.
// Concurrent callers are serialized so at most one renewal or challenge runs
// at a time; callers are expected to invoke it lazily, on demand.
func (a *TokenAcquirer) Token(ctx context.Context) *oauth2.Token {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.seeded {
		return nil
	}
	if fresh(a.token) {
		return a.token
	}

	if a.silent != nil {
		token, err := a.silent.AcquireSilent(ctx)
		if err == nil && token != nil {
			a.token = token
			return token
		}
		log.Warn().Err(err).Msg("silent token renewal failed, trying interactive challenge")
	}

	if a.challenge == nil {
		return nil
	}

	token, err := a.challenge.AcquireInteractive(ctx)
	if err != nil || token == nil {
		log.Warn().Err(err).Msg("interactive token challenge failed")
		return nil
	}
	a.token = token

	return token
}

func fresh(token *oauth2.Token) bool {
	return token != nil && token.AccessToken != "" && time.Until(token.Expiry) > tokenExpirySkew
}
