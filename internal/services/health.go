package services

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/aphrodite/internal/config"
	"github.com/localnerve/aphrodite/internal/handlers"
	"github.com/localnerve/aphrodite/internal/utils"
	"github.com/rs/zerolog/log"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status       string            `json:"status"`
	Listener     string            `json:"listener"`
	Welcome      string            `json:"welcome"`
	Details      map[string]string `json:"details,omitempty"`
	ErrorMessage string            `json:"error,omitempty"`
}

// Healthy reports whether every probe passed.
func (r HealthCheckResult) Healthy() bool {
	return r.Status == StatusHealthy
}

func (r *HealthCheckResult) fail(message string) {
	r.Status = StatusUnhealthy
	if r.ErrorMessage == "" {
		r.ErrorMessage = message
	} else {
		r.ErrorMessage += "; " + message
	}
}

// HealthCheck probes a running service from the outside. The listener must accept a TCP
// connection and GET serviceURL must answer 200. When backend is set the body must be
// exactly that backend's greeting.
func HealthCheck(serviceURL string, backend config.Backend, timeout time.Duration) HealthCheckResult {
	result := HealthCheckResult{
		Status:  StatusHealthy,
		Details: map[string]string{"url": serviceURL},
	}

	if err := utils.PingService(serviceURL, timeout); err != nil {
		result.Listener = "unreachable"
		result.Welcome = "skipped"
		result.Details["listener_error"] = err.Error()
		result.fail(fmt.Sprintf("Listener ping failed: %v", err))
		log.Warn().Err(err).Str("url", serviceURL).Msg("Health check failed - listener ping")
		return result
	}
	result.Listener = "ok"

	agent := fiber.Get(serviceURL)
	agent.Timeout(timeout)
	if err := agent.Parse(); err != nil {
		result.Welcome = "error"
		result.fail(fmt.Sprintf("Request setup failed: %v", err))
		return result
	}

	code, body, errs := agent.String()
	if len(errs) > 0 {
		result.Welcome = "error"
		result.Details["request_error"] = errs[0].Error()
		result.fail(fmt.Sprintf("Request failed: %v", errs[0]))
		log.Warn().Err(errs[0]).Str("url", serviceURL).Msg("Health check failed - request")
		return result
	}

	result.Details["status_code"] = fmt.Sprint(code)
	switch {
	case code != fiber.StatusOK:
		result.Welcome = "bad status"
		result.fail(fmt.Sprintf("Unexpected status %d", code))
	case backend != "" && body != handlers.Greeting(backend):
		result.Welcome = "bad greeting"
		result.Details["body"] = body
		result.fail(fmt.Sprintf("Unexpected greeting %q", body))
	default:
		result.Welcome = "ok"
	}

	if result.Healthy() {
		log.Debug().Str("url", serviceURL).Msg("Health check passed")
	} else {
		log.Warn().Str("url", serviceURL).Str("error", result.ErrorMessage).Msg("Health check failed")
	}

	return result
}
