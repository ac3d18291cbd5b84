package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"

	"skillsync/internal/delivery/http/dto"
	"skillsync/internal/pkg/response"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports the database as required and everything else as optional.
type HealthHandler struct {
	db       Pinger
	optional map[string]Pinger
	timeout  time.Duration
}

func NewHealthHandler(db Pinger, optional map[string]Pinger) *HealthHandler {
	return &HealthHandler{db: db, optional: optional, timeout: 2 * time.Second}
}

func (h *HealthHandler) RegisterRoutes(r fiber.Router) {
	if r == nil {
		return
	}
	r.Get("/health", h.Health)
}

func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	out := dto.HealthResponse{Status: "ok", Dependencies: map[string]string{}}
	status := fiber.StatusOK

	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			out.Dependencies["database"] = "down"
			out.Status = "unavailable"
			status = fiber.StatusServiceUnavailable
		} else {
			out.Dependencies["database"] = "up"
		}
	}

	for name, p := range h.optional {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			out.Dependencies[name] = "down"
			if out.Status == "ok" {
				out.Status = "degraded"
			}
			continue
		}
		out.Dependencies[name] = "up"
	}

	if status != fiber.StatusOK {
		return response.Error(c, status, response.MessageServiceUnavailable, out)
	}
	return response.Success(c, status, response.MessageOK, out)
}
