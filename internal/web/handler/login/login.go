package login

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/uniuri"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
)

const (
	// Path is the path to the login endpoint.
	Path = handler.APIPath + "/auth/login"

	// stateTokenLen is the length of the random state token protecting the
	// browser redirect flow.
	stateTokenLen = 32

	// flowTTL is how long a started browser sign-in may take before its
	// state token expires.
	flowTTL = 10 * time.Minute

	loginTimeout = 30 * time.Second
)

// Request is the login request payload.
type Request struct {
	// Mode selects the backend to sign in against.
	Mode string `json:"mode" validate:"required,oneof=interactive appOnly"`
}

// Response is the login response payload for the interactive mode. The
// browser is expected to navigate to RedirectURL and come back through the
// callback route.
type Response struct {
	RedirectURL string `json:"redirectUrl"`
}

// flow is a pending browser sign-in: the PKCE verifier parked between
// building the redirect URL and the provider calling back.
type flow struct {
	verifier string
	expires  time.Time
}

// Service is the login handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	rec *auth.Reconciler

	mu    sync.Mutex
	flows map[string]flow
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, rec *auth.Reconciler) {
	if app == nil || cfg == nil || rec == nil {
		log.Fatal().Msg(handler.ErrNilACRFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.rec = rec
	s.flows = make(map[string]flow)

	app.Post(Path, s.Post)
}

// Post starts a sign-in. App-only logins complete within the request; the
// interactive mode answers with a redirect URL and completes through the
// callback route.
func (s *Service) Post(c *fiber.Ctx) error {
	req := new(Request)

	if err := c.BodyParser(req); err != nil {
		log.Debug().Err(err).Msg("failed to parse login payload")

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": ErrInvalidLoginPayload.Error(),
		})
	}

	if validationErrors := (XValidator{}).Validate(req); len(validationErrors) > 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  ErrInvalidLoginPayload.Error(),
			"fields": validationErrors,
		})
	}

	if req.Mode == string(auth.LoginAppOnly) {
		return s.loginAppOnly(c)
	}

	return s.loginInteractive(c)
}

// loginAppOnly exchanges the configured service credentials for a session.
func (s *Service) loginAppOnly(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	if err := s.rec.Login(ctx, auth.LoginAppOnly); err != nil {
		if errors.Is(err, auth.ErrAppOnlyNotConfigured) || errors.Is(err, auth.ErrCredentialsNotConfigured) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}

		log.Error().Err(err).Msg("app-only login failed")

		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": ErrLoginFailed.Error()})
	}

	return c.JSON(s.rec.State())
}

// loginInteractive builds the browser sign-in URL and parks the PKCE
// verifier until the callback claims it.
func (s *Service) loginInteractive(c *fiber.Ctx) error {
	interactive := s.rec.Interactive()
	if interactive == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": auth.ErrInteractiveDisabled.Error(),
		})
	}

	state := uniuri.NewLen(stateTokenLen)
	verifier := oauth2.GenerateVerifier()

	ctx, cancel := context.WithTimeout(context.Background(), loginTimeout)
	defer cancel()

	redirectURL, err := interactive.AuthCodeURL(ctx, state, verifier)
	if err != nil {
		if errors.Is(err, auth.ErrInteractiveDisabled) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
		}

		log.Error().Err(err).Msg("failed to build sign-in URL")

		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": ErrLoginFailed.Error()})
	}

	s.stash(state, verifier)

	return c.JSON(Response{RedirectURL: redirectURL})
}

// stash parks a verifier under its state token, sweeping expired flows.
func (s *Service) stash(state, verifier string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, f := range s.flows {
		if now.After(f.expires) {
			delete(s.flows, key)
		}
	}

	s.flows[state] = flow{verifier: verifier, expires: now.Add(flowTTL)}
}

// Claim returns the verifier parked under a state token and consumes it. A
// state token is good for one callback only.
func (s *Service) Claim(state string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[state]
	if !ok || time.Now().After(f.expires) {
		return "", false
	}

	delete(s.flows, state)

	return f.verifier, true
}
