// Package web serves the panel's JSON view models over HTTP using
// Gin. Handlers only read service snapshots and forward form
// submissions; no panel logic lives here.
package web

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"signalpanel/internal/app"
	"signalpanel/internal/ports"
)

const (
	RequestIDContextKey = "request_id"
	RequestIDHeaderKey  = "X-Request-ID"
)

// Server wires the panel service to HTTP.
type Server struct {
	svc    *app.PanelService
	logger ports.Logger
}

// NewServer creates the HTTP layer.
func NewServer(svc *app.PanelService, logger ports.Logger) *Server {
	return &Server{svc: svc, logger: logger}
}

// Router configures all routes.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(requestIDMiddleware())
	router.Use(gin.Recovery())

	panel := router.Group("/api/panel")
	{
		panel.GET("/state", s.getState)
		panel.GET("/chart", s.getChart)
		panel.GET("/freshness", s.getFreshness)
		panel.GET("/trades", s.getTrades)
		panel.GET("/quick-balance", s.getQuickBalance)
		panel.GET("/equity", s.getEquity)
		panel.GET("/overview", s.getOverview)
		panel.GET("/symbols", s.getSymbols)
		panel.POST("/symbol", s.postSymbol)
		panel.POST("/preferences", s.postPreferences)
	}

	forms := router.Group("/api/forms")
	{
		forms.POST("/referral/verify", s.postReferralVerify)
		forms.POST("/referral/assignment", s.postReferralAssignment)
		forms.POST("/webhook/test", s.postWebhookTest)
		forms.GET("/test-status", s.getTestStatus)
	}

	router.GET("/health", s.healthCheck)
	router.GET("/status", s.getStatus)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return router
}

// Run starts the HTTP server with graceful shutdown on ctx cancel.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	s.logger.Info(ctx, "HTTP server listening", map[string]interface{}{"addr": addr})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeaderKey)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Header(RequestIDHeaderKey, requestID)
		c.Set(RequestIDContextKey, requestID)
		c.Next()
	}
}
