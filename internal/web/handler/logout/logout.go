package logout

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
)

const (
	// Path is the path to the logout endpoint.
	Path = handler.APIPath + "/auth/logout"

	logoutTimeout = 30 * time.Second
)

// Service is the logout handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	rec *auth.Reconciler
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, cfg *config.Config, rec *auth.Reconciler) {
	if app == nil || cfg == nil || rec == nil {
		log.Fatal().Msg(handler.ErrNilACRFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.rec = rec

	app.Post(Path, s.Post)
}

// Post signs the console out. Remote sign-out failures are absorbed by the
// reconciler; an error here means the local session could not be cleared.
func (s *Service) Post(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
	defer cancel()

	if err := s.rec.Logout(ctx); err != nil {
		log.Error().Err(err).Msg("failed to clear local session")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to clear local session",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}
