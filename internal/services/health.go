package services

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/localnerve/aris-backend/internal/config"
	"gorm.io/gorm"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Database     string            `json:"database"`
	Renderer     string            `json:"renderer"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// Pinger is implemented by collaborators that can report reachability
type Pinger interface {
	Ping() error
}

// HealthCheck performs a comprehensive health check of the service.
// An unconfigured renderer degrades rendering but does not make the service unhealthy.
func HealthCheck(cfg *config.Config, db *gorm.DB, renderer Renderer, log hclog.Logger) HealthCheckResult {
	result := HealthCheckResult{
		Status:  "healthy",
		Details: make(map[string]string),
	}

	fail := func(msg string) {
		result.Status = "unhealthy"
		if result.ErrorMessage == "" {
			result.ErrorMessage = msg
		} else {
			result.ErrorMessage += "; " + msg
		}
	}

	// Check database connectivity
	sqlDB, err := db.DB()
	if err != nil {
		result.Database = "error"
		result.Details["database_error"] = err.Error()
		fail(fmt.Sprintf("Database connection error: %v", err))
		log.Error("health check failed", "component", "database", "error", err)
	} else if err := sqlDB.Ping(); err != nil {
		result.Database = "unreachable"
		result.Details["database_ping_error"] = err.Error()
		fail(fmt.Sprintf("Database ping failed: %v", err))
		log.Error("health check failed", "component", "database", "error", err)
	} else {
		result.Database = "ok"
		result.Details["database_type"] = cfg.DBType
		result.Details["database_name"] = cfg.DBDatabase
	}

	// Check renderer reachability
	pinger, ok := renderer.(Pinger)
	switch {
	case isNilRenderer(renderer):
		result.Renderer = "not configured"
	case !ok:
		result.Renderer = "ok"
	default:
		if err := pinger.Ping(); err != nil {
			result.Renderer = "unreachable"
			result.Details["renderer_error"] = err.Error()
			fail(fmt.Sprintf("Renderer ping failed: %v", err))
			log.Error("health check failed", "component", "renderer", "error", err)
		} else {
			result.Renderer = "ok"
			result.Details["renderer_url"] = cfg.RenderURL
		}
	}

	if result.Status == "healthy" {
		log.Info("health check passed")
	}

	return result
}
