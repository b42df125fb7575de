package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/surveychain/internal/service"
)

// HealthHandler reports liveness of the gateway's own dependencies.
type HealthHandler struct {
	pool    *pgxpool.Pool
	rdb     *redis.Client
	editors *service.EditorService
	started time.Time
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(pool *pgxpool.Pool, rdb *redis.Client, editors *service.EditorService) *HealthHandler {
	return &HealthHandler{pool: pool, rdb: rdb, editors: editors, started: time.Now()}
}

// Health godoc
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	if h.pool != nil {
		if err := h.pool.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["postgres"] = "ok"
		}
	}
	if h.rdb != nil {
		if err := h.rdb.Ping(ctx).Err(); err != nil {
			checks["redis"] = err.Error()
			status = http.StatusServiceUnavailable
		} else {
			checks["redis"] = "ok"
		}
	}

	c.JSON(status, gin.H{
		"status":         http.StatusText(status),
		"checks":         checks,
		"open_editors":   h.editors.Len(),
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	})
}
