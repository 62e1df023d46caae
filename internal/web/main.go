package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	recoverer "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"

	"github.com/tenantdesk/tenantdesk/internal/auth"
	"github.com/tenantdesk/tenantdesk/internal/config"
	"github.com/tenantdesk/tenantdesk/internal/directory"
	fiberlogger "github.com/tenantdesk/tenantdesk/internal/logger/adapter/fiber"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/callback"
	directoryhandler "github.com/tenantdesk/tenantdesk/internal/web/handler/directory"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/health"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/login"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/logout"
	"github.com/tenantdesk/tenantdesk/internal/web/handler/state"
	authmiddleware "github.com/tenantdesk/tenantdesk/internal/web/middleware/auth"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	rec          *auth.Reconciler
	fastShutDown bool
	alive        atomic.Bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for a termination signal and drains the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Flip the health endpoint to 503 first so anything watching it stops
	// sending work before the listener goes away.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: reporting unhealthy for %d seconds before stopping",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	// stop fiber http server
	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration. The directory
// client may be nil when no directory URL is configured.
func New(cfg *config.Config, rec *auth.Reconciler, dir *directory.Client) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if rec == nil {
		panic("reconciler cannot be nil")
	}

	// create fiber app
	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        "tenantdesk",
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
		},
	)

	if !cfg.Webserver.DisableRecover {
		app.Use(recoverer.New())
	}

	// access log, before the local-client gate so rejected peers show up too
	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:     cfg.Log,
		HealthzURI: health.Path,
	}))

	// local clients only
	app.Use(authmiddleware.Middleware)

	// init web service
	service := &Service{
		cfg:          cfg,
		App:          app,
		rec:          rec,
		fastShutDown: cfg.DevMode,
	}
	service.alive.Store(true)

	// init handlers (they register their own routes with permission checks)
	state.Handler.Init(app, cfg, rec)
	login.Handler.Init(app, cfg, rec)
	callback.Handler.Init(app, cfg, rec, &login.Handler)
	logout.Handler.Init(app, cfg, rec)
	directoryhandler.Handler.Init(app, cfg, rec, dir)
	health.Handler.Init(app, &service.alive)

	// redirect root to the auth state
	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(state.Path)
	})

	return service
}
