package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/campdir/apiserver/config"
	"github.com/campdir/apiserver/internal/db"
	"github.com/campdir/apiserver/internal/handlers"
	"github.com/campdir/apiserver/internal/media"
	"github.com/campdir/apiserver/internal/mq"
	"github.com/campdir/apiserver/internal/services"
	"github.com/campdir/apiserver/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	events     *mq.MQ
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	mediaStore, err := NewMediaStore(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := mediaStore.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	events, err := NewEventQueue(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	campgroundRepo := store.NewCampgroundRepository(dbConn)
	userRepo := store.NewUserRepository(dbConn)
	commentRepo := store.NewCommentRepository(dbConn)
	reviewRepo := store.NewReviewRepository(dbConn)

	var publisher services.EventPublisher
	if events != nil {
		publisher = events
	}

	campgroundService := services.NewCampgroundService(campgroundRepo, commentRepo, reviewRepo, mediaStore, publisher)
	userService := services.NewUserService(userRepo, campgroundRepo)
	commentService := services.NewCommentService(commentRepo, campgroundRepo)
	reviewService := services.NewReviewService(reviewRepo, campgroundRepo)

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	authMiddleware := handlers.RequireAuth(jwtSecret)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/campgrounds", func(r chi.Router) {
		handlers.CampgroundRouter(r, campgroundService, userService, commentService, reviewService, authMiddleware, cfg.MaxUploadSize)
	})
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, userService, jwtSecret)
	})
	router.Route("/users", func(r chi.Router) {
		handlers.UserRouter(r, userService)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		events:     events,
	}, nil
}

// NewMediaStore selects and constructs the configured media backend.
func NewMediaStore(ctx context.Context, cfg config.Config) (*media.Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Media.Backend)) {
	case "", "minio":
		backend, err := media.NewMinioClient(cfg.Media.Minio)
		if err != nil {
			return nil, err
		}
		return media.NewStore(backend), nil
	case "gcs":
		backend, err := media.NewGCSClient(ctx, cfg.Media.GCS)
		if err != nil {
			return nil, err
		}
		return media.NewStore(backend), nil
	default:
		return nil, fmt.Errorf("unknown media backend %q", cfg.Media.Backend)
	}
}

// NewEventQueue selects and constructs the configured broker backend.
// It returns nil when event publishing is disabled.
func NewEventQueue(ctx context.Context, cfg config.Config) (*mq.MQ, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.MQ.Backend)) {
	case "", "none":
		return nil, nil
	case "rabbitmq":
		backend, err := mq.NewRabbitMQClient(cfg.MQ.RabbitMQ)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	case "pubsub":
		backend, err := mq.NewPubSubClient(ctx, cfg.MQ.PubSub)
		if err != nil {
			return nil, err
		}
		return mq.New(backend), nil
	default:
		return nil, fmt.Errorf("unknown mq backend %q", cfg.MQ.Backend)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.events != nil {
		_ = s.events.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
