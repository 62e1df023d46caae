package directory

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/config"
	dirclient "github.com/tenantdesk/tenantdesk/internal/directory"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
)

const (
	// Path is the base path for the directory endpoints.
	Path = handler.APIPath + "/directory"

	// UsersPath lists and fetches directory users.
	UsersPath = Path + "/users"

	// OrganizationPath returns the signed-in tenant's organization.
	OrganizationPath = Path + "/organization"

	defaultTimeout = 15 * time.Second
)

// Service is the directory handler service. It fronts the tenant directory
// with whatever credentials the current auth mode provides.
type Service struct {
	handler.Service
	cfg    *config.Config
	rec    *auth.Reconciler
	client *dirclient.Client
}

// Handler is the directory handler.
var Handler = Service{}

// Init initializes the directory handler. The client is nil when no
// directory URL is configured; the routes then answer 503.
func (s *Service) Init(app *fiber.App, cfg *config.Config, rec *auth.Reconciler, client *dirclient.Client) {
	if app == nil || cfg == nil || rec == nil {
		log.Fatal().Msg(handler.ErrNilACRFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.rec = rec
	s.client = client

	// register routes with permission checks
	app.Get(UsersPath,
		auth.RequirePermission(rec, auth.PermUserManagement),
		s.ListUsers,
	)
	app.Get(UsersPath+"/:id",
		auth.RequirePermission(rec, auth.PermUserManagement),
		s.GetUser,
	)
	app.Get(OrganizationPath,
		auth.RequireAuthenticated(rec),
		s.Organization,
	)
}

// ListUsers returns the tenant's directory users.
func (s *Service) ListUsers(c *fiber.Ctx) error {
	if s.client == nil {
		return s.notConfigured(c)
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	users, err := s.client.ListUsers(ctx)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(fiber.Map{"users": users})
}

// GetUser returns a single directory user by ID.
func (s *Service) GetUser(c *fiber.Ctx) error {
	if s.client == nil {
		return s.notConfigured(c)
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	user, err := s.client.GetUser(ctx, c.Params("id"))
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(user)
}

// Organization returns the signed-in tenant's organization record.
func (s *Service) Organization(c *fiber.Ctx) error {
	if s.client == nil {
		return s.notConfigured(c)
	}

	ctx, cancel := s.requestContext()
	defer cancel()

	org, err := s.client.Organization(ctx)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(org)
}

func (s *Service) requestContext() (context.Context, context.CancelFunc) {
	timeout := s.cfg.Directory.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	return context.WithTimeout(context.Background(), timeout)
}

func (s *Service) notConfigured(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "directory is not configured",
	})
}

// fail maps client errors onto API status codes.
func (s *Service) fail(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, dirclient.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, dirclient.ErrNotSignedIn), errors.Is(err, dirclient.ErrNoAccessToken):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Error().Err(err).Msg("directory request failed")

		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "directory request failed"})
	}
}
