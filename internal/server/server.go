// Package server implements the sponsor portal Auth API: admin and sponsor
// login, account lookups used to validate client sessions, sponsor creation
// and the participant list, which is kept fresh by a scheduled sync.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/auburnhacks/sponsor-portal/internal/auth"
	"github.com/auburnhacks/sponsor-portal/internal/config"
	"github.com/auburnhacks/sponsor-portal/internal/models"
	"github.com/auburnhacks/sponsor-portal/internal/participants"
)

// Server represents the HTTP server
type Server struct {
	router  *gin.Engine
	db      *gorm.DB
	config  *config.Config
	logger  zerolog.Logger
	version string

	// nil when no registration export is configured
	syncer    *participants.Syncer
	scheduler *participants.Scheduler
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret := cfg.Server.JWTSecret
	if secret == "" {
		// tokens will not survive a restart
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
		secret = hex.EncodeToString(b)
		zlog.Warn().Msg("JWT_SECRET not set - using a random secret for this process")
	}
	auth.InitializeJWT(secret)

	server := &Server{
		db:      db,
		config:  cfg,
		logger:  zlog,
		version: version,
	}

	if err := server.bootstrapAdmin(); err != nil {
		return nil, err
	}

	if err := server.setupParticipantSync(); err != nil {
		return nil, err
	}

	server.setupRouter()

	return server, nil
}

// initDatabase opens the sqlite database
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 4
		maxIdleConns    = 2
		connMaxLifetime = 5 * time.Minute
		busyTimeout     = 5000
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

// bootstrapAdmin creates the first admin from configuration when the
// database has none
func (s *Server) bootstrapAdmin() error {
	email, password := s.config.Server.BootstrapEmail, s.config.Server.BootstrapPass
	if email == "" || password == "" {
		return nil
	}

	var count int64
	if err := s.db.Model(&models.Admin{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &models.Admin{
		Name:         "Administrator",
		Email:        email,
		PasswordHash: hash,
		ACL:          auth.JoinACL([]string{auth.DefaultAdminACL, auth.CapParticipants, auth.CapAdmin}),
	}
	if err := s.db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create bootstrap admin: %w", err)
	}

	s.logger.Info().Str("admin_id", admin.ID).Str("email", email).Msg("Bootstrap admin created")
	return nil
}

// setupParticipantSync prepares the scheduled participant sync. It only
// starts running with Start.
func (s *Server) setupParticipantSync() error {
	pc := s.config.Participants
	if pc.SourceURL == "" {
		s.logger.Warn().Msg("PARTICIPANTS_SOURCE_URL not set - participant list will not be synced")
		return nil
	}

	for _, raw := range []string{pc.SourceURL, pc.ResumesURL} {
		if raw == "" {
			continue
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("invalid participant export URL %q: must be http or https", raw)
		}
	}

	log := s.logger.With().Str("component", "participant-sync").Logger()
	source := participants.NewHTTPSource(pc.SourceURL, pc.ResumesURL, pc.Timeout, log)
	s.syncer = participants.NewSyncer(s.db, source, pc.Timeout, log)

	scheduler, err := participants.NewScheduler(s.syncer, pc.Schedule, log)
	if err != nil {
		return err
	}
	s.scheduler = scheduler
	return nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.Server.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints
	s.router.POST("/admin/login", s.loginAdmin)
	s.router.POST("/sponsor/login", s.loginSponsor)

	// Authenticated routes
	api := s.router.Group("/")
	api.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		api.POST("/admin", AdminOnlyMiddleware(s.logger), s.createAdmin)
		api.GET("/admin/:id", AdminOnlyMiddleware(s.logger), s.getAdmin)
		api.PUT("/admin/:id", s.updateAdmin)
		api.DELETE("/admin/:id", AdminOnlyMiddleware(s.logger), s.deleteAdmin)

		api.GET("/sponsor/:id/info", s.getSponsorInfo)
		api.PUT("/sponsor/:id", s.updateSponsor)
		api.POST("/sponsor", AdminOnlyMiddleware(s.logger), s.createSponsor)

		api.GET("/companies", s.listCompanies)
		api.POST("/company", AdminOnlyMiddleware(s.logger), s.createCompany)

		api.GET("/participants", RequireCapability(s.logger, auth.CapParticipants), s.listParticipants)
		api.GET("/participants/sync", AdminOnlyMiddleware(s.logger), s.participantSyncStatus)
		api.POST("/participants/sync", AdminOnlyMiddleware(s.logger), s.syncParticipants)
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
			Str("request_id", c.GetHeader("X-Request-ID")).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "sponsor-api",
		"version":   s.version,
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Start serves HTTP until SIGINT or SIGTERM
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.Server.ListenAddr,
		Handler:           s.router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if s.scheduler != nil {
		s.scheduler.Start()
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
		if s.scheduler != nil {
			s.scheduler.Stop()
		}
		return fmt.Errorf("http server: %w", err)
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	// a sync in flight still needs the database
	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
		}
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
