package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/renatoramossilva/bindl-lib/logging"
)

// Server exposes a registry for scraping over HTTP. It serves the /metrics
// endpoint and runs independently of the instrumented application: once
// started, scrape requests are handled on a background goroutine for the life
// of the process.
type Server struct {
	mu        sync.RWMutex
	addr      string
	boundAddr string
	server    *http.Server
	registry  *Registry
	logger    *logging.Logger
}

// NewServer creates a metrics server for the given registry listening on addr.
// Use ":0" to bind an ephemeral port in tests.
func NewServer(addr string, registry *Registry, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Server{
		addr:     addr,
		registry: registry,
		logger:   logger,
	}
}

// Handler returns the scrape handler serving the exposition format. It can be
// mounted on an existing mux instead of running a dedicated server.
func (s *Server) Handler() http.Handler {
	return scrapeHandler(s.registry, s.logger)
}

func scrapeHandler(registry *Registry, logger *logging.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet && req.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", ContentType)
		if _, err := registry.WriteTo(w); err != nil {
			// The snapshot was already partially written; all we can do is log.
			logger.Warnf("failed to write scrape response", map[string]any{
				"error": err.Error(),
			})
		}
	})
}

// Start binds the listener and begins serving scrapes in the background.
// Bind failure is returned synchronously and means the server never started.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", s.Handler())

	s.server = &http.Server{
		Addr:         s.addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("metrics: bind %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.boundAddr = ln.Addr().String()
	s.mu.Unlock()

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Errorf("metrics server stopped", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	return nil
}

// Addr returns the actual bound address of the server, or the configured
// address if the server has not started yet.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.boundAddr != "" {
		return s.boundAddr
	}
	return s.addr
}

// Close shuts down the server, letting the in-flight scrape complete.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}
