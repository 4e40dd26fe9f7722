package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"github.com/brettbedarf/webfiles/config"
	"github.com/brettbedarf/webfiles/internal/util"
	promMetrics "github.com/brettbedarf/webfiles/metrics/prometheus"
)

// Server owns the HTTP listeners: the file API on cfg.ListenAddr and, when
// configured, a Prometheus endpoint on cfg.MetricsAddr.
type Server struct {
	cfg     *config.Config
	http    *http.Server
	metrics *http.Server
	ln      net.Listener
	mln     net.Listener
	errs    chan error
	mu      sync.Mutex
	logger  util.Logger
}

// New creates a Server for handler. Nothing is bound until Serve.
func New(cfg *config.Config, handler http.Handler) *Server {
	s := &Server{
		cfg:    cfg,
		errs:   make(chan error, 2),
		logger: util.GetLogger("Server"),
	}
	s.http = &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ErrorLog:          util.NewLogLogger("HTTPServer", util.WarnLevel),
	}
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promMetrics.Handler())
		s.metrics = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: cfg.ReadHeaderTimeout,
			ErrorLog:          util.NewLogLogger("MetricsServer", util.WarnLevel),
		}
	}
	return s
}

// Serve binds the listeners and serves in the background. It returns once
// the listeners are bound; later serve failures are delivered on Errors.
func (s *Server) Serve() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln != nil {
		return errors.New("server already started")
	}

	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return err
	}
	var metricsLn net.Listener
	if s.metrics != nil {
		if metricsLn, err = net.Listen("tcp", s.cfg.MetricsAddr); err != nil {
			ln.Close() // nolint:errcheck
			return err
		}
	}
	s.ln, s.mln = ln, metricsLn

	go s.serve(s.http, ln)
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("File service listening")
	if metricsLn != nil {
		go s.serve(s.metrics, metricsLn)
		s.logger.Info().Str("addr", metricsLn.Addr().String()).Msg("Metrics listening")
	}
	return nil
}

// ServeAsync runs Serve on its own goroutine and reports its result.
func (s *Server) ServeAsync() <-chan error {
	done := make(chan error, 1)

	go func() {
		done <- s.Serve()
		close(done)
	}()

	return done
}

func (s *Server) serve(srv *http.Server, ln net.Listener) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error().Err(err).Str("addr", ln.Addr().String()).Msg("Listener failed")
		s.errs <- err
	}
}

// Errors reports listeners that stopped for any reason other than Shutdown.
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Addr is the bound file service address, or the configured one before Serve.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return s.cfg.ListenAddr
	}
	return s.ln.Addr().String()
}

// MetricsAddr is the bound metrics address, or "" when metrics are not served.
func (s *Server) MetricsAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mln == nil {
		return ""
	}
	return s.mln.Addr().String()
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	started := s.ln != nil
	s.mu.Unlock()
	if !started {
		return nil
	}

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if s.metrics != nil {
		if err := s.metrics.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
