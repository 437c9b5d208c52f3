// Package server implements the coldread HTTP API consumed by the web app,
// the browser extension and the CLI.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/coldread-dev/coldread/internal/auth"
	"github.com/coldread-dev/coldread/internal/config"
	"github.com/coldread-dev/coldread/internal/metrics"
	"github.com/coldread-dev/coldread/internal/models"
)

// TaskEnqueuer queues background work. *asynq.Client implements it.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    *config.Config
	logger    zerolog.Logger
	validator *validator.Validate
	signer    *auth.Signer
	tasks     TaskEnqueuer
	metrics   *metrics.Metrics
	version   string
	now       func() time.Time
}

// Option configures a Server
type Option func(*Server)

// WithTaskEnqueuer replaces the Redis-backed task client
func WithTaskEnqueuer(q TaskEnqueuer) Option {
	return func(s *Server) {
		s.tasks = q
	}
}

// WithClock overrides the time source used for token expiry and usage periods
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string, opts ...Option) (*Server, error) {
	db, err := OpenDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	s := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: newValidator(),
		metrics:   metrics.New(),
		version:   version,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	settings, err := EnsureSettings(db, s.now())
	if err != nil {
		return nil, err
	}
	s.signer = auth.NewSigner(settings.JWTSecret)

	if s.tasks == nil {
		s.tasks = asynq.NewClient(asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		})
	}

	s.setupRouter()

	return s, nil
}

// OpenDatabase opens the SQLite database with production settings
func OpenDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8
		maxIdleConns    = 4
		connMaxLifetime = 5 * time.Minute
		busyTimeout     = 5000 // ms
	)

	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}
	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// EnsureSettings loads the settings row, creating it with a fresh JWT secret
// on first start.
func EnsureSettings(db *gorm.DB, now time.Time) (*models.Config, error) {
	var settings models.Config
	err := db.First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	secret, err := auth.GenerateSecret()
	if err != nil {
		return nil, err
	}
	settings = models.Config{
		JWTSecret:        secret,
		UsagePeriodStart: now.UTC(),
	}
	if err := db.Create(&settings).Error; err != nil {
		return nil, fmt.Errorf("failed to create settings: %w", err)
	}
	return &settings, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.metrics.Middleware())

	// The web app and the extension both call the API cross-origin
	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.NoRoute(func(c *gin.Context) {
		respondDetail(c, http.StatusNotFound, "Not found")
	})

	s.router.GET("/health", s.healthCheck)
	s.router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	// Public auth endpoints
	public := s.router.Group("/api/auth")
	{
		public.POST("/login", s.login)
		public.POST("/signup", s.signup)
		public.POST("/forgot-password", s.forgotPassword)
		public.POST("/reset-password", s.resetPassword)
		public.POST("/verify-email", s.verifyEmail)
	}

	// Authenticated API routes
	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.db, s.signer, s.metrics, s.logger))
	{
		api.GET("/auth/me", s.getCurrentUser)

		api.GET("/user/usage", s.getUsage)
		api.POST("/user/usage", s.recordAnalysis)
		api.POST("/user/onboarding", s.completeOnboarding)
		api.PATCH("/user/plan", s.updatePlan)
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": s.now().UTC(),
		"service":   "coldread-api",
		"version":   s.version,
	})
}

// Handler returns the HTTP handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Close releases the task client and the database
func (s *Server) Close() error {
	if err := s.tasks.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error closing task client")
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Start serves HTTP until SIGINT or SIGTERM, then shuts down gracefully
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.HTTP.Addr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return fmt.Errorf("http server: %w", err)
	case <-sigChan:
	}
	s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// Closing the database flushes WAL writes
	if err := s.Close(); err != nil {
		s.logger.Error().Err(err).Msg("Error closing database")
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
