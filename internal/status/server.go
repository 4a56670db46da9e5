// Package status serves health, metrics and the latest run report while the suite runs
// on a schedule.
package status

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/ezyscribe/ezyscribe-e2e/internal/logger"
	"github.com/ezyscribe/ezyscribe-e2e/internal/metrics"
	"github.com/ezyscribe/ezyscribe-e2e/internal/report"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the scheduler state over HTTP
type Server struct {
	engine *gin.Engine
	http   *http.Server

	mu   sync.RWMutex
	last *report.Run
}

// NewServer builds the router. addr may be empty when only Handler is used.
func NewServer(addr string, m *metrics.Metrics) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{engine: gin.New()}
	s.engine.Use(gin.Recovery())

	s.engine.GET("/healthz", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})))

	api := s.engine.Group("/api/v1")
	{
		api.GET("/runs/last", s.lastRun)
	}

	s.http = &http.Server{Addr: addr, Handler: s.engine, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.engine
}

// SetLastRun publishes a finished run
func (s *Server) SetLastRun(r *report.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = r
}

func (s *Server) lastRunSnapshot() *report.Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

func (s *Server) health(c *gin.Context) {
	last := s.lastRunSnapshot()
	body := gin.H{"status": "ok", "service": "ezyscribe-e2e"}
	if last != nil {
		body["last_run_id"] = last.ID
		body["last_run_failed"] = last.Failed()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) lastRun(c *gin.Context) {
	last := s.lastRunSnapshot()
	if last == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "no run finished yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"id":       last.ID,
			"started":  last.Started,
			"duration": last.Duration.String(),
			"stats":    last.Stats(),
			"results":  last.Snapshot(),
		},
	})
}

// Serve listens until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("Status server listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
