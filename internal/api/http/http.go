package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/aquascene/waitlist/internal/dependency"
	"github.com/aquascene/waitlist/internal/middleware"
	"github.com/aquascene/waitlist/log"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config is the configuration for the http server
type Config struct {
	Port           string        `mapstructure:"port"`
	Address        string        `mapstructure:"address"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
}

// Server is the http server
type Server struct {
	hs       *http.Server
	c        *Config
	waitlist dependency.Waitlist
	handler  http.Handler
	done     chan struct{}
}

// New creates a new server
func New(config *Config, waitlist dependency.Waitlist) *Server {
	s := &Server{
		c:        config,
		waitlist: waitlist,
		done:     make(chan struct{}),
	}
	s.handler = s.setupHTTPAPI()
	return s
}

// Done returns a channel that is closed when the http server exits
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Handler returns the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) setupHTTPAPI() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(log.RequestLogger(slog.Default()))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowOriginFunc: func(r *http.Request, origin string) bool {
			return isOriginAllowed(origin, s.c.AllowedOrigins)
		},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Accept-Language", "X-Admin-Key"},
		ExposedHeaders: []string{"Retry-After", "X-RateLimit-Limit", "X-RateLimit-Window"},
		MaxAge:         300,
	}))
	r.Use(middleware.ClientIdentifier)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	r.Post("/api/waitlist", s.submitWaitlist)
	r.Get("/api/waitlist", s.waitlistStats)

	return r
}

// Start starts the server
func (s *Server) Start(ctx context.Context) error {
	listenerAddr := net.JoinHostPort(s.c.Address, s.c.Port)

	ln, err := net.Listen("tcp", listenerAddr)
	if err != nil {
		return fmt.Errorf("can't listen on %s: %w", listenerAddr, err)
	}

	s.hs = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.c.ReadTimeout,
		WriteTimeout: s.c.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	go func() {
		defer close(s.done)
		slog.Default().InfoContext(ctx, fmt.Sprintf("aquascene waitlist listener on: http://%v", ln.Addr()))
		err := s.hs.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			slog.Default().InfoContext(ctx, "http server returned")
		} else {
			slog.Default().ErrorContext(ctx, "http server exited with an error",
				slog.String("err", err.Error()),
			)
		}
	}()

	return nil
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	if s.hs == nil {
		return nil
	}
	return s.hs.Shutdown(ctx)
}

func isOriginAllowed(origin string, allowedOrigins []string) bool {
	// Always allow localhost origins
	if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "https://localhost:") {
		return true
	}

	for _, allowedOrigin := range allowedOrigins {
		if allowedOrigin == "*" || origin == allowedOrigin {
			return true
		}
	}

	return false
}
