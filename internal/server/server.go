// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It decides which URL patterns map to
// which handler, which middleware runs where, and how the server stops.
//
// DEPENDENCY INJECTION FLOW:
//
//	main.go loads config.Config and builds the logger
//	Server.New creates:
//	  sqlite.DB (repository.Store)
//	  storage.BlobStore (Supabase or local disk)
//	  auth.JWTProvider (JWT sessions, optional Google)
//	  services  <- store, provider, blobs
//	  handlers  <- services
//
// This is the "composition root" pattern: all dependencies are wired in one
// place (New/setupRoutes) rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/AmanCrafts/CraftBook/internal/auth"
	"github.com/AmanCrafts/CraftBook/internal/config"
	"github.com/AmanCrafts/CraftBook/internal/handler"
	"github.com/AmanCrafts/CraftBook/internal/middleware"
	sqliteRepo "github.com/AmanCrafts/CraftBook/internal/repository/sqlite"
	"github.com/AmanCrafts/CraftBook/internal/service"
	"github.com/AmanCrafts/CraftBook/internal/storage"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. Start closes it during graceful
// shutdown; code that builds a Server without starting it (tests) calls Close.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	blobs    storage.BlobStore
	provider *auth.JWTProvider
}

// New wires every layer from cfg. cfg is expected to have passed Validate.
//
// IMPORT ALIAS:
// repository/sqlite is imported as sqliteRepo so it is not confused with the
// modernc.org/sqlite driver.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	blobs, err := newBlobStore(cfg)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating blob store: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	var google *auth.GoogleProvider
	if cfg.GoogleEnabled() {
		google = auth.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		blobs:    blobs,
		provider: auth.NewJWTProvider(tokens, google),
	}
	s.setupRoutes()

	logger.Info("server configured",
		slog.String("env", cfg.Env),
		slog.String("database", cfg.DBPath),
		slog.Bool("supabase", cfg.UseSupabase()),
		slog.Bool("google", google != nil),
	)
	return s, nil
}

func newBlobStore(cfg *config.Config) (storage.BlobStore, error) {
	if cfg.UseSupabase() {
		return storage.NewSupabase(cfg.SupabaseURL, cfg.SupabaseKey, cfg.SupabaseBucket), nil
	}
	return storage.NewLocal(cfg.UploadDir, cfg.PublicBaseURL+"/uploads")
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the database.
func (s *Server) Close() error { return s.db.Close() }

// setupRoutes configures all middleware and route handlers.
//
// MIDDLEWARE ORDER MATTERS:
// 1. RequestID: assigns an id to each request, logged by Logger and by
// handlers on 5xx
// 2. RealIP: extracts the client IP from proxy headers
// 3. Logger: one line per request, level chosen by status
// 4. Recoverer: turns a panic into a 500 instead of a crash
// 5. CORS: answers preflight requests before they reach a route
//
// Routes that act on behalf of someone sit in groups behind
// auth.RequireAuth; the acting user always comes from the token.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(s.corsOptions()))

	opts := handler.Options{Logger: s.logger, Debug: s.config.IsDevelopment()}

	authService := service.NewAuthService(s.db, s.provider, auth.NewPasswordService(), s.logger)
	userService := service.NewUserService(s.db, s.logger)
	followService := service.NewFollowService(s.db, s.logger)
	postService := service.NewPostService(s.db, s.logger)
	likeService := service.NewLikeService(s.db, s.logger)
	commentService := service.NewCommentService(s.db, s.logger)
	uploadService := service.NewUploadService(s.db, s.blobs, s.logger)

	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(authService, s.provider.Google(), s.config.JWTTTL, !s.config.IsDevelopment(), opts)
	userHandler := handler.NewUserHandler(userService, opts)
	followHandler := handler.NewFollowHandler(followService, opts)
	postHandler := handler.NewPostHandler(postService, opts)
	likeHandler := handler.NewLikeHandler(likeService, opts)
	commentHandler := handler.NewCommentHandler(commentService, opts)
	uploadHandler := handler.NewUploadHandler(uploadService, s.config.MaxUploadBytes, opts)

	requireAuth := auth.RequireAuth(s.provider)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/health", healthHandler.HandleHealth)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/logout", authHandler.HandleLogout)
			r.Get("/google/login", authHandler.HandleGoogleLogin)
			r.Get("/google/callback", authHandler.HandleGoogleCallback)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Get("/me", authHandler.HandleMe)
				r.Put("/email", authHandler.HandleChangeEmail)
				r.Put("/password", authHandler.HandleChangePassword)
			})
		})

		r.Route("/users", func(r chi.Router) {
			r.Get("/", userHandler.HandleList)
			r.Post("/", userHandler.HandleCreate)
			r.Get("/google/{googleId}", userHandler.HandleGetByGoogleID)
			r.Post("/follow/check-batch", followHandler.HandleCheckBatch)

			r.Get("/{userId}", userHandler.HandleGet)
			r.Get("/{userId}/followers", followHandler.HandleFollowers)
			r.Get("/{userId}/following", followHandler.HandleFollowing)
			r.Get("/{userId}/follow-stats", followHandler.HandleStats)
			r.Get("/{userId}/follow/check/{followerId}", followHandler.HandleCheck)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Put("/{userId}", userHandler.HandleUpdate)
				r.Delete("/{userId}", userHandler.HandleDelete)
				r.Post("/{userId}/follow", followHandler.HandleToggle)
			})
		})

		r.Route("/posts", func(r chi.Router) {
			// static segments are registered before /{postId}
			r.Get("/", postHandler.HandleList)
			r.Get("/recent", postHandler.HandleRecent)
			r.Get("/popular", postHandler.HandlePopular)
			r.Get("/process", postHandler.HandleProcess)
			r.Get("/user/{userId}", postHandler.HandleByUser)
			r.Get("/tag/{tag}", postHandler.HandleByTag)
			r.Get("/tag/{tag}/medium/{medium}", postHandler.HandleByTagAndMedium)
			r.Get("/medium/{medium}", postHandler.HandleByMedium)
			r.Get("/search/title/{title}", postHandler.HandleSearchTitle)
			r.Get("/search/description/{description}", postHandler.HandleSearchDescription)

			r.Get("/{postId}", postHandler.HandleGet)
			r.Get("/{postId}/likes", likeHandler.HandleList)
			r.Get("/{postId}/likes/check/{userId}", likeHandler.HandleCheck)
			r.With(auth.OptionalAuth(s.provider)).Get("/{postId}/likes/check", likeHandler.HandleCheck)
			r.Get("/{postId}/comments", commentHandler.HandleList)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", postHandler.HandleCreate)
				r.Get("/following", postHandler.HandleFollowing)
				r.Put("/{postId}", postHandler.HandleUpdate)
				r.Delete("/{postId}", postHandler.HandleDelete)
				r.Post("/{postId}/like", likeHandler.HandleToggle)
				r.Post("/{postId}/comments", commentHandler.HandleCreate)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Put("/comments/{id}", commentHandler.HandleUpdate)
			r.Delete("/comments/{id}", commentHandler.HandleDelete)
			r.Post("/upload", uploadHandler.HandleUpload)
			r.Delete("/upload/{id}", uploadHandler.HandleDelete)
		})
	})

	// === Uploaded files ===
	// Only local storage needs serving; Supabase hands out its own public URLs.
	// GET /uploads/<key> -> {UPLOAD_DIR}/<key>
	if local, ok := s.blobs.(*storage.Local); ok {
		fileServer := http.FileServer(http.Dir(local.Dir()))
		s.router.Handle("/uploads/*", http.StripPrefix("/uploads/", fileServer))
	}
}

func (s *Server) corsOptions() cors.Options {
	origins := []string{"*"}
	if o := strings.TrimSpace(s.config.CORSOrigin); o != "" && o != "*" {
		origins = strings.Split(o, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		// credentials cannot be combined with a wildcard origin
		AllowCredentials: origins[0] != "*",
		MaxAge:           300,
	}
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.config.Port),
		Handler: s.router,
		// uploads of MAX_UPLOAD_BYTES need more than the usual 15s
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", s.config.PublicBaseURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
