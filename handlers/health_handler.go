package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"math-log-server/models"
)

// Pinger is anything whose connection can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	db     Pinger
	stream Pinger // nil when the stream is disabled
}

func NewHealthHandler(db, stream Pinger) *HealthHandler {
	return &HealthHandler{db: db, stream: stream}
}

// Health godoc
// @Summary Health check
// @Description Reports database and stream connectivity. The stream never affects the status.
// @Tags info
// @Produce json
// @Success 200 {object} models.Envelope{data=models.HealthResponse}
// @Failure 503 {object} models.Envelope{data=models.HealthResponse}
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	resp := models.HealthResponse{Status: "UP", Database: "UP", Stream: "DISABLED"}

	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "DOWN"
		resp.Database = "DOWN"
	}

	if h.stream != nil {
		resp.Stream = "UP"
		if err := h.stream.Ping(ctx); err != nil {
			resp.Stream = "DOWN"
		}
	}

	if resp.Status != "UP" {
		c.Status(fiber.StatusServiceUnavailable)
	}
	return respond(c, resp)
}
