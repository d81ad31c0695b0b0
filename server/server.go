package server

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"golang.org/x/net/http2"

	"github.com/hrygo/closetmind/internal/profile"
	"github.com/hrygo/closetmind/server/internal/observability"
	servermw "github.com/hrygo/closetmind/server/middleware"
	apiv1 "github.com/hrygo/closetmind/server/router/api/v1"
)

type Server struct {
	Profile    *profile.Profile
	Components *Components

	echoServer *echo.Echo
	metrics    *observability.Metrics
}

func NewServer(ctx context.Context, profile *profile.Profile) (*Server, error) {
	components, err := NewComponents(ctx, profile)
	if err != nil {
		return nil, err
	}

	s := &Server{
		Profile:    profile,
		Components: components,
		metrics:    observability.NewMetrics(1000),
	}

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = apiv1.HTTPErrorHandler
	echoServer.Use(middleware.Recover())
	echoServer.Use(servermw.RequestLogger(slog.Default(), s.metrics))
	s.echoServer = echoServer

	auth := servermw.NewAuthenticator(profile.JWTSecret)
	if !auth.Enabled() {
		slog.Warn("jwt secret is empty; trusting the owner header", "header", servermw.OwnerHeader)
	}

	service := apiv1.NewAPIV1Service(profile, s.metrics)
	// Assign only non-nil components so disabled AI leaves the interfaces nil.
	if components.Indexer != nil {
		service.Indexer = components.Indexer
		service.Searcher = components.Retriever
		service.Recommender = components.Recommender
		service.Dialogue = components.Dialogue
	}
	service.RegisterRoutes(echoServer, auth, servermw.NewRateLimiter(profile.RateLimit, profile.RateBurst))

	return s, nil
}

// Start serves HTTP/1.1 and cleartext HTTP/2 until Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	address := net.JoinHostPort(s.Profile.Addr, strconv.Itoa(s.Profile.Port))
	slog.Info("closetmind listening", "address", address, "mode", s.Profile.Mode, "driver", s.Profile.Driver)

	go func() {
		if err := s.echoServer.StartH2CServer(address, &http2.Server{}); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.Components.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}

	slog.Info("server stopped properly")
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}
