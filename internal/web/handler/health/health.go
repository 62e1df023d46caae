package health

import (
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/tenantdesk/tenantdesk/internal/web/handler"
)

const (
	// Path is the path to the liveness endpoint.
	Path = "/healthz"

	// MetricsPath is the path to the Prometheus metrics endpoint.
	MetricsPath = "/metrics"
)

// Service is the health handler service.
type Service struct {
	handler.Service
	alive *atomic.Bool
}

// Handler is the health handler.
var Handler = Service{}

// Init initializes the health handler. The alive flag is owned by the web
// service; it flips to false while the daemon drains for shutdown.
func (s *Service) Init(app *fiber.App, alive *atomic.Bool) {
	if app == nil || alive == nil {
		log.Fatal().Msg("app or alive is nil")
		return
	}

	s.alive = alive

	app.Get(Path, s.Get)
	app.Get(MetricsPath, metricsHandler())
}

// Get reports daemon liveness.
func (s *Service) Get(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "draining"})
	}

	return c.JSON(fiber.Map{"status": "ok"})
}

// metricsHandler bridges the Prometheus handler onto the fasthttp engine.
func metricsHandler() fiber.Handler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.Handler())

	return func(c *fiber.Ctx) error {
		h(c.Context())
		return nil
	}
}
