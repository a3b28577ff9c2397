package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/recipe-admin/internal/observability"
	"github.com/spec-kit/recipe-admin/internal/persistence"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// OpsHandler exposes the operational endpoints: liveness, readiness,
// counters and the build version. The router puts them behind basic auth.
type OpsHandler struct {
	redis   *persistence.Redis
	pg      *persistence.Postgres
	metrics *observability.Metrics
	started time.Time
}

func NewOpsHandler(redis *persistence.Redis, pg *persistence.Postgres, metrics *observability.Metrics) *OpsHandler {
	return &OpsHandler{
		redis:   redis,
		pg:      pg,
		metrics: metrics,
		started: time.Now(),
	}
}

// Live reports that the process is up.
func (h *OpsHandler) Live(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Ready checks the backing stores. The session store is required; the
// audit database only degrades readiness when it is configured but gone.
func (h *OpsHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	checks := fiber.Map{}
	healthy := true

	if err := h.redis.Ping(ctx); err != nil {
		checks["redis"] = err.Error()
		healthy = false
	} else {
		checks["redis"] = "ok"
	}

	if pool := h.pg.PoolHandle(); pool != nil {
		if err := pool.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			healthy = false
		} else {
			checks["postgres"] = "ok"
		}
	} else {
		checks["postgres"] = "disabled"
	}

	status := "ok"
	code := fiber.StatusOK
	if !healthy {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{"status": status, "checks": checks})
}

// Metrics dumps the in-process request and error counters.
func (h *OpsHandler) Metrics(c *fiber.Ctx) error {
	requests, errors := h.metrics.Snapshot()
	return c.JSON(fiber.Map{
		"requests": requests,
		"errors":   errors,
	})
}

// Version reports the build stamp.
func (h *OpsHandler) Version(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"version": Version})
}
