package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"botadmin/internal/config"
	apierrors "botadmin/internal/http-server/handlers/errors"
	"botadmin/internal/http-server/handlers/broadcasts"
	"botadmin/internal/http-server/handlers/codes"
	"botadmin/internal/http-server/handlers/health"
	"botadmin/internal/http-server/handlers/users"
	"botadmin/internal/http-server/middleware/authenticate"
	"botadmin/internal/http-server/middleware/timeout"
	"botadmin/lib/sl"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type Server struct {
	conf       config.Listen
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	codes.Core
	users.Core
	broadcasts.Core
}

// NewRouter mounts the admin API; everything under /v1 requires the bearer token.
func NewRouter(log *slog.Logger, handler Handler) http.Handler {
	router := chi.NewRouter()
	router.Use(timeout.Timeout(5 * time.Second))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(apierrors.NotFound(log))
	router.MethodNotAllowed(apierrors.NotAllowed(log))

	router.Get("/health", health.Health())

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(authenticate.New(log, handler))
		rootApi.Route("/codes", func(c chi.Router) {
			c.Get("/", codes.List(log, handler))
			c.Post("/", codes.Generate(log, handler))
		})
		rootApi.Route("/users", func(u chi.Router) {
			u.Get("/", users.List(log, handler))
			u.Post("/{id}/ban", users.Ban(log, handler))
			u.Post("/{id}/unban", users.Unban(log, handler))
		})
		rootApi.Get("/access", users.Access(log, handler))
		rootApi.Route("/broadcasts", func(b chi.Router) {
			b.Get("/", broadcasts.List(log, handler))
			b.Delete("/{id}", broadcasts.Delete(log, handler))
		})
	})

	return router
}

func New(conf config.Listen, log *slog.Logger, handler Handler) *Server {
	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	return &Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
		httpServer: &http.Server{
			Handler:      NewRouter(log, handler),
			ErrorLog:     httpLog,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Start serves until Shutdown; a clean shutdown returns nil.
func (s *Server) Start() error {
	serverAddress := fmt.Sprintf("%s:%s", s.conf.BindIp, s.conf.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	s.log.Info("starting api server", slog.String("address", serverAddress))

	err = s.httpServer.Serve(listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
