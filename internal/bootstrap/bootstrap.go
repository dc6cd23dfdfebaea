// Package bootstrap runs the startup sequence: open the pool, bind the
// listeners, then serve. Any failure before Serve is terminal and leaves
// nothing open behind it.
package bootstrap

import (
	"errors"
	"fmt"
	"net"

	"github.com/localnerve/aphrodite/internal/config"
	"github.com/localnerve/aphrodite/internal/database"
	"github.com/localnerve/aphrodite/internal/server"
	"github.com/localnerve/aphrodite/internal/types"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// openDB is replaced in tests to observe the pool lifecycle.
var openDB = database.Open

// Service is a started, not yet serving, aphrodite instance.
type Service struct {
	cfg             *config.Config
	db              *gorm.DB
	server          *server.Server
	listener        net.Listener
	metricsListener net.Listener
}

// Start opens the pool and binds the listeners. On failure everything opened
// so far is closed again.
func Start(cfg *config.Config) (*Service, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}

	svc := &Service{cfg: cfg, db: db}
	if err := svc.bind(); err != nil {
		svc.release()
		return nil, fmt.Errorf("%w: %w", types.ErrServe, err)
	}
	return svc, nil
}

func (s *Service) bind() error {
	srv, err := server.New(s.cfg, s.db)
	if err != nil {
		return err
	}
	s.server = srv

	if s.listener, err = net.Listen("tcp", s.cfg.Listen); err != nil {
		return err
	}
	if s.cfg.MetricsEnabled() {
		if s.metricsListener, err = net.Listen("tcp", s.cfg.MetricsListen); err != nil {
			return err
		}
	}
	return nil
}

// Serve blocks until the service listener stops.
func (s *Service) Serve() error {
	if s.metricsListener != nil {
		log.Info().Str("address", s.MetricsAddr()).Msg("Serving metrics")
		go func() {
			if err := s.server.ServeMetrics(s.metricsListener); err != nil {
				log.Error().Err(err).Msg("Metrics listener stopped")
			}
		}()
	}

	log.Info().
		Str("address", s.Addr()).
		Str("backend", string(s.cfg.Backend)).
		Msg("Starting server")

	if err := s.server.Serve(s.listener); err != nil {
		return fmt.Errorf("%w: %w", types.ErrServe, err)
	}
	return nil
}

// Addr is the bound service address.
func (s *Service) Addr() string {
	return s.listener.Addr().String()
}

// MetricsAddr is the bound metrics address, empty when metrics are disabled.
func (s *Service) MetricsAddr() string {
	if s.metricsListener == nil {
		return ""
	}
	return s.metricsListener.Addr().String()
}

// DB is the shared pool handle.
func (s *Service) DB() *gorm.DB {
	return s.db
}

// Close stops serving and closes the pool.
func (s *Service) Close() error {
	var err error
	if s.server != nil {
		err = s.server.Shutdown()
	}
	return errors.Join(err, s.release())
}

func (s *Service) release() error {
	var errs []error
	for _, ln := range []net.Listener{s.listener, s.metricsListener} {
		if ln == nil {
			continue
		}
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	if s.db != nil {
		errs = append(errs, database.Close(s.db))
	}
	return errors.Join(errs...)
}

// Run starts the service and serves until the process is killed.
func Run(cfg *config.Config) error {
	svc, err := Start(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	return svc.Serve()
}
