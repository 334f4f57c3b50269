// Package endpoint provides the health, liveness, and readiness handlers.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// ComponentHealth reports the health of one dependency.
type ComponentHealth struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthChecker returns health status for registered components.
type HealthChecker func(ctx context.Context) []ComponentHealth

// Health returns a handler that reports service health including component statuses.
func Health(serviceName string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := StatusHealthy
		var components []ComponentHealth

		if checker != nil {
			components = checker(c.Request.Context())
			for _, ch := range components {
				if ch.Status == StatusUnhealthy {
					status = StatusUnhealthy
					break
				}
				if ch.Status == StatusDegraded && status != StatusUnhealthy {
					status = StatusDegraded
				}
			}
		}

		httpStatus := http.StatusOK
		if status == StatusUnhealthy {
			httpStatus = http.StatusServiceUnavailable
		}

		c.JSON(httpStatus, gin.H{
			"status":     status,
			"service":    serviceName,
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"components": components,
		})
	}
}

// CheckFunc adapts a named error-returning probe into a HealthChecker entry.
func CheckFunc(name string, probe func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) []ComponentHealth {
		ch := ComponentHealth{Name: name, Status: StatusHealthy}
		if err := probe(ctx); err != nil {
			ch.Status = StatusUnhealthy
			ch.Error = err.Error()
		}
		return []ComponentHealth{ch}
	}
}

// Combine merges multiple checkers into one.
func Combine(checkers ...HealthChecker) HealthChecker {
	return func(ctx context.Context) []ComponentHealth {
		var out []ComponentHealth
		for _, checker := range checkers {
			if checker != nil {
				out = append(out, checker(ctx)...)
			}
		}
		return out
	}
}
