package handler

import (
	"context"
	"net/http"
	"sync"
	"time"

	"change-aggregator/internal/core/ports"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

type dependencyStatus struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// HealthCheck handles GET /health. Dependencies are pinged concurrently; any
// failure turns the whole report degraded with 503.
func HealthCheck(checkers ...ports.HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		report := pingAll(c.Request.Context(), checkers)

		status, code := "healthy", http.StatusOK
		for _, dep := range report {
			if dep.Status != "healthy" {
				status, code = "degraded", http.StatusServiceUnavailable
				break
			}
		}

		c.JSON(code, gin.H{
			"status":       status,
			"dependencies": report,
		})
	}
}

func pingAll(ctx context.Context, checkers []ports.HealthChecker) map[string]dependencyStatus {
	var (
		mu     sync.Mutex
		g      errgroup.Group
		report = make(map[string]dependencyStatus, len(checkers))
	)
	for _, checker := range checkers {
		g.Go(func() error {
			start := time.Now()
			err := checker.Ping(ctx)
			dep := dependencyStatus{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				dep.Status, dep.Error = "unhealthy", err.Error()
			}
			mu.Lock()
			report[checker.Name()] = dep
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return report
}
