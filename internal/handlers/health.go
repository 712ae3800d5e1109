package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"shelterstore/internal/repository"
)

// Pinger checks that the backing database connection is alive.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check requests.
type HealthHandler struct {
	repo   *repository.AnimalRepository
	pinger Pinger
}

// NewHealthHandler creates a new health handler. The pinger may be nil when
// the server started without a database connection.
func NewHealthHandler(repo *repository.AnimalRepository, pinger Pinger) *HealthHandler {
	return &HealthHandler{repo: repo, pinger: pinger}
}

// Handle responds with server health status. The server stays up without a
// database connection, so status degrades instead of failing; when a
// connection exists it is actively pinged rather than assumed alive.
func (h *HealthHandler) Handle(c *fiber.Ctx) error {
	alive := false
	if h.repo.Connected() && h.pinger != nil {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()
		alive = h.pinger.Ping(ctx) == nil
	}

	status := "healthy"
	if !alive {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":    status,
		"database":  alive,
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
