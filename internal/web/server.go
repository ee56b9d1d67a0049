package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/constants"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/web/handlers"
	"github.com/kozaktomas/face-registry/internal/web/middleware"
)

// Server serves the face registry HTTP API over a loaded store.
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server
	store      *database.Store
	enroller   handlers.Enroller
	querier    handlers.Querier
}

// NewServer wires the router and HTTP server. The store must already be loaded.
func NewServer(cfg *config.Config, store *database.Store, enroller handlers.Enroller, querier handlers.Querier) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		store:    store,
		enroller: enroller,
		querier:  querier,
	}
	s.router.Use(s.middlewares()...)
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:    net.JoinHostPort(cfg.Web.Host, strconv.Itoa(cfg.Web.Port)),
		Handler: s.router,
		// uploads carry several images per request
		ReadTimeout:  time.Minute,
		WriteTimeout: constants.RequestTimeout + 10*time.Second,
		IdleTimeout:  time.Minute,
	}
	return s
}

func (s *Server) middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		chiMiddleware.RequestID,
		chiMiddleware.RealIP,
		chiMiddleware.Logger,
		chiMiddleware.Recoverer,
		chiMiddleware.Timeout(constants.RequestTimeout),
		middleware.CORS(s.config.Web.AllowedOrigins),
		middleware.SecurityHeaders(),
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	log.Printf("face registry listening on %s (%d labels)", s.httpServer.Addr, len(s.store.Labels()))
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return fmt.Errorf("serving http: %w", err)
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("face registry shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// Router exposes the handler tree, mostly for tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}
