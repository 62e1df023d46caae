package state

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/web/handler"
)

const (
	// Path is the path to the auth state endpoint.
	Path = handler.APIPath + "/auth/state"
)

// Service is the auth state handler service.
type Service struct {
	handler.Service
	cfg *config.Config
	rec *auth.Reconciler
}

// Handler is the auth state handler.
var Handler = Service{}

// Init initializes the auth state handler. The endpoint stays reachable
// without authentication so a UI can find out whether to show a sign-in
// screen at all.
func (s *Service) Init(app *fiber.App, cfg *config.Config, rec *auth.Reconciler) {
	if app == nil || cfg == nil || rec == nil {
		log.Fatal().Msg(handler.ErrNilACRFatalLogMsg)
		return
	}

	s.cfg = cfg
	s.rec = rec

	app.Get(Path, s.Get)
}

// Get returns the reconciled authentication state.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.JSON(s.rec.State())
}
