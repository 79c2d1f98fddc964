package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/semmidev/sqlvault/internal/domain"
	"github.com/semmidev/sqlvault/internal/infrastructure/auth"
)

type BackupRunner interface {
	Execute(ctx context.Context) (domain.Snapshot, error)
}

type RestoreRunner interface {
	Execute(ctx context.Context, filename string) error
}

type Catalog interface {
	ListBackups(ctx context.Context) ([]domain.Snapshot, error)
}

type Logger interface {
	Infof(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

type Server struct {
	router *gin.Engine
	srv    *http.Server
	logger Logger
}

// NewServer builds the admin router. metrics may be nil.
func NewServer(
	addr string,
	tokens *auth.TokenService,
	backup BackupRunner,
	restore RestoreRunner,
	catalog Catalog,
	metrics http.Handler,
	logger Logger,
) *Server {
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	h := &handler{backup: backup, restore: restore, catalog: catalog}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	protected := router.Group("")
	protected.Use(AuthMiddleware(tokens))
	{
		protected.POST("/backup", h.createBackup)
		protected.GET("/backups", h.listBackups)
		protected.POST("/restore", h.restoreBackup)
	}

	return &Server{
		router: router,
		logger: logger,
		srv: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Infof("Admin API listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func requestLogger(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Infof("%s %s %d %s", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
