package server

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/scribehub/go-session-server/auth"
	"github.com/scribehub/go-session-server/internal/config"
	"github.com/scribehub/go-session-server/token"
)

type Server struct {
	env    string // Environment (e.g., "DEV", "PROD")
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.Service
}

func New(cfg config.Config, repos auth.Repos) (*Server, error) {
	if cfg.GetSecretKey() == "" {
		return nil, fmt.Errorf("[Server New] signing secret is not configured")
	}

	codec := token.NewCodec(token.NewHMACSigner(cfg.GetSecretKey()))

	authService, err := auth.NewService(repos, codec,
		auth.WithBcryptCost(cfg.GetBcryptCost()),
		auth.WithTokenTTL(cfg.GetTokenTTL()),
		auth.WithStoreTimeout(cfg.GetStoreTimeout()),
		auth.WithLogger(log.Logger),
	)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create auth service: %w", err)
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   authService,
		env:    cfg.GetEnv(),
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) initRoutes() {
	s.RegisterRouteFunc("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteStatus, ChainMiddleware(s.StatusHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		log.Info().Str("route", route).Msg("registered")
	}
}
