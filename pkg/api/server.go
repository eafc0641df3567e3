package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jakechorley/locum-dental/internal/config"
	"github.com/jakechorley/locum-dental/pkg/core/messagegate"
	"github.com/jakechorley/locum-dental/pkg/core/services"
	"github.com/jakechorley/locum-dental/pkg/db"
	"github.com/jakechorley/locum-dental/pkg/session"
)

const shutdownTimeout = 10 * time.Second

// Sessions issues, parses and revokes bearer tokens. session.Manager implements it.
type Sessions interface {
	services.SessionIssuer
	services.SessionRevoker
	Parse(ctx context.Context, token string) (*session.Session, error)
}

// Dependencies are the collaborators every handler calls through
type Dependencies struct {
	Store    db.Database
	Sessions Sessions
	Geocoder services.Geocoder
	// Notifier may be nil when notifications are disabled
	Notifier services.Notifier
	Gate     *messagegate.Gate
	Config   *config.Config
	Logger   *zap.Logger
}

// Server is the JSON HTTP surface over the marketplace workflows
type Server struct {
	deps   Dependencies
	engine *gin.Engine
}

// NewServer builds the router with CORS, rate limiting, request logging and bearer sessions
func NewServer(deps Dependencies) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{deps: deps, engine: gin.New()}
	s.engine.Use(gin.Recovery(), requestLogger(deps.Logger))

	if len(deps.Config.Server.AllowedOrigins) > 0 {
		s.engine.Use(cors.New(cors.Config{
			AllowOrigins:     deps.Config.Server.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	s.engine.Use(newRateLimiter(deps.Config.Server.RequestsPerMinute).middleware(deps.Logger))

	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := s.engine.Group("/api/auth")
	{
		public.POST("/register", s.register)
		public.POST("/login", s.login)
	}

	api := s.engine.Group("/api")
	api.Use(requireSession(s.deps.Sessions))
	{
		api.POST("/auth/logout", s.logout)

		api.GET("/profile", s.getProfile)
		api.PUT("/profile", s.updateProfile)

		api.GET("/shifts", s.browseShifts)
		api.POST("/shifts", s.postShift)
		api.POST("/shifts/:id/enquiries", s.enquire)

		api.GET("/locums", s.browseLocums)

		api.GET("/bookings/:id", s.viewBooking)
		api.POST("/bookings/:id/accept", s.acceptBooking)
		api.POST("/bookings/:id/confirm", s.confirmBooking)
		api.GET("/bookings/:id/messages", s.listMessages)
		api.POST("/bookings/:id/messages", s.sendMessage)

		api.GET("/reviews/pending", s.pendingReviews)
		api.POST("/reviews", s.submitReview)

		api.GET("/dashboard", s.dashboard)
	}
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.deps.Config.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.deps.Logger.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.deps.Logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
