package server

import (
	"errors"
	"net"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/localnerve/aphrodite/internal/config"
	"github.com/localnerve/aphrodite/internal/handlers"
	"github.com/localnerve/aphrodite/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const (
	appName     = "aphrodite"
	MetricsPath = "/metrics"
)

// Server holds the service app and, when enabled, the metrics app.
type Server struct {
	App     *fiber.App
	Metrics *fiber.App
}

// New assembles the fiber apps for cfg. The service app routes only GET /.
func New(cfg *config.Config, db *gorm.DB) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		ErrorHandler:          handlers.ErrorHandler,
		DisableStartupMessage: true,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.AccessLog(log.Logger))

	s := &Server{App: app}

	if cfg.MetricsEnabled() {
		prom, err := newMetrics(db)
		if err != nil {
			return nil, err
		}
		app.Use(prom.Middleware)

		s.Metrics = fiber.New(fiber.Config{
			AppName:               appName + "-metrics",
			ErrorHandler:          handlers.ErrorHandler,
			DisableStartupMessage: true,
		})
		prom.RegisterAt(s.Metrics, MetricsPath)
	}

	welcome := handlers.NewWelcomeHandler(db, cfg.Backend)
	app.Get("/", welcome.GetWelcome)

	// 404 handler
	app.Use(handlers.NotFound)

	return s, nil
}

// newMetrics registers request metrics and pool stats on a private registry.
func newMetrics(db *gorm.DB) (*fiberprometheus.FiberPrometheus, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(sqlDB, appName),
	)

	return fiberprometheus.NewWithRegistry(registry, appName, "http", "", nil), nil
}

// Serve accepts connections for the service app until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	return s.App.Listener(ln)
}

// ServeMetrics accepts connections for the metrics app until Shutdown.
func (s *Server) ServeMetrics(ln net.Listener) error {
	if s.Metrics == nil {
		return errors.New("metrics are disabled")
	}
	return s.Metrics.Listener(ln)
}

// Shutdown stops both apps.
func (s *Server) Shutdown() error {
	err := s.App.Shutdown()
	if s.Metrics != nil {
		err = errors.Join(err, s.Metrics.Shutdown())
	}
	return err
}
