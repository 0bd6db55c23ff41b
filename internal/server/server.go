// Package server is the composition root: it opens the database, assembles
// services and handlers, declares the route tree, and runs the HTTP server
// with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/gamestock/internal/auth"
	"github.com/sakif/gamestock/internal/config"
	"github.com/sakif/gamestock/internal/handler"
	"github.com/sakif/gamestock/internal/middleware"
	sqliterepo "github.com/sakif/gamestock/internal/repository/sqlite"
	"github.com/sakif/gamestock/internal/service"
)

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	cfg    config.Config
	logger *slog.Logger
	db     *sqliterepo.DB
}

// New opens the database, wires the dependency chain, and registers routes.
// The handler layer never sees the database and the service layer never sees
// HTTP; this function is the only place the full chain is visible.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliterepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(chimw.Recoverer)
	s.router.Use(middleware.RequestLogger(s.logger))

	tokens, err := auth.NewTokenService(s.cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.cfg.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.cfg.GitHubClientID, s.cfg.GitHubClientSecret, s.cfg.GitHubCallbackURL)
	}

	authSvc := service.NewAuthService(s.db, tokens, passwords, s.logger)
	invSvc := service.NewInventoryService(s.db, s.db, s.logger)
	profSvc := service.NewProfileService(s.db, passwords, s.logger)

	authHandler := handler.NewAuthHandler(authSvc, github, s.cfg.Production(), s.logger)
	invHandler := handler.NewInventoryHandler(invSvc, s.logger)
	profHandler := handler.NewProfileHandler(profSvc, s.logger)
	uploadHandler, err := handler.NewUploadHandler(s.cfg.UploadDir, s.logger)
	if err != nil {
		return fmt.Errorf("upload handler: %w", err)
	}

	requireAuth := auth.RequireAuth(tokens)
	requireAdmin := auth.RequireAdmin()

	s.router.Route("/api", func(r chi.Router) {
		// Session endpoints. Login and register are necessarily anonymous.
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Post("/auth/register", authHandler.HandleRegister)
		r.With(requireAuth).Get("/auth/user", authHandler.HandleCurrentUser)

		// Catalogue reads are public; the storefront browses without a session.
		r.Get("/inventory", invHandler.HandleList)
		r.Get("/platforms", invHandler.HandlePlatforms)
		r.Get("/genres", invHandler.HandleGenres)

		// Inventory mutations and uploads are admin-only.
		r.Group(func(r chi.Router) {
			r.Use(requireAuth, requireAdmin)
			r.Post("/inventory", invHandler.HandleCreate)
			r.Put("/inventory/{id}", invHandler.HandleUpdate)
			r.Delete("/inventory/{id}", invHandler.HandleDelete)
			r.Put("/inventory/{id}/quantity", invHandler.HandleAdjustQuantity)
			r.Post("/upload", uploadHandler.HandleUpload)
		})

		r.With(requireAuth).Put("/user/update", profHandler.HandleUpdate)
	})

	if github != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	// Uploaded cover images. The directory holds only files the upload
	// handler verified and renamed.
	uploads := http.FileServer(http.Dir(s.cfg.UploadDir))
	s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", uploads))

	return nil
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests and
// closes the database so the WAL is flushed.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.cfg.Port),
			slog.String("env", s.cfg.Env),
			slog.String("database", s.cfg.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		s.logger.Info("server stopped")
	}
	return nil
}

// Handler exposes the assembled route tree, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
