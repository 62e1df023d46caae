// Package callback completes the browser sign-in started by the login
// endpoint. The identity provider redirects here with an authorization code;
// the handler exchanges it, which caches the account and flips the
// interactive backend to authenticated.
package callback

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/auth/cache"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
)

const callbackTimeout = 30 * time.Second

// FlowStore releases the PKCE verifier parked when the sign-in URL was
// built. The login handler is the production implementation.
type FlowStore interface {
	Claim(state string) (verifier string, ok bool)
}

// Service is the sign-in callback handler service.
type Service struct {
	handler.Service
	cfg   *config.Config
	rec   *auth.Reconciler
	flows FlowStore
}

// Handler is the sign-in callback handler.
var Handler = Service{}

// Init initializes the callback handler on the configured redirect path.
func (s *Service) Init(app *fiber.App, cfg *config.Config, rec *auth.Reconciler, flows FlowStore) {
	if app == nil || cfg == nil || rec == nil || flows == nil {
		log.Fatal().Msg(handler.ErrNilACRFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.rec = rec
	s.flows = flows

	path := cfg.Interactive.RedirectPath
	if path == "" {
		path = "/auth/callback"
	}

	app.Get(path, s.Get)
}

// Get finishes the browser sign-in. The response is plain text aimed at the
// person looking at the popped-up tab, not at the UI.
func (s *Service) Get(c *fiber.Ctx) error {
	if providerErr := c.Query("error"); providerErr != "" {
		log.Warn().
			Str("error", providerErr).
			Str("description", c.Query("error_description")).
			Msg("identity provider declined the sign-in")

		return c.Status(fiber.StatusBadRequest).SendString("Sign-in failed: " + providerErr)
	}

	state := c.Query("state")
	code := c.Query("code")

	if state == "" || code == "" {
		return c.Status(fiber.StatusBadRequest).SendString("Missing code or state")
	}

	verifier, ok := s.flows.Claim(state)
	if !ok {
		return c.Status(fiber.StatusBadRequest).SendString("Unknown or expired sign-in attempt")
	}

	interactive := s.rec.Interactive()
	if interactive == nil {
		return c.Status(fiber.StatusConflict).SendString(auth.ErrInteractiveDisabled.Error())
	}

	ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
	defer cancel()

	account, err := interactive.HandleCallback(ctx, code, verifier)
	if err != nil {
		log.Error().Err(err).Msg("sign-in callback failed")

		return c.Status(fiber.StatusBadGateway).SendString("Sign-in failed, check the daemon log")
	}

	return c.SendString("Signed in as " + accountName(account) + ". You can close this tab.")
}

func accountName(account *cache.Account) string {
	switch {
	case account.DisplayName != "":
		return account.DisplayName
	case account.Username != "":
		return account.Username
	default:
		return account.ID
	}
}
