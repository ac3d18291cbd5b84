package routes

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"skillsync/internal/delivery/http/handler"
	"skillsync/internal/delivery/http/middleware"
	"skillsync/internal/ws"
)

type Registry struct {
	health *handler.HealthHandler
	match  *handler.MatchHandler
	ws     *ws.Handler
	auth   *middleware.AuthMiddleware
}

func NewRegistry(health *handler.HealthHandler, match *handler.MatchHandler, wsHandler *ws.Handler, auth *middleware.AuthMiddleware) *Registry {
	return &Registry{health: health, match: match, ws: wsHandler, auth: auth}
}

func (r *Registry) Register(app *fiber.App) {
	if app == nil {
		return
	}

	r.registerHealth(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	r.registerAPI(app)
	r.registerWS(app)
}

func (r *Registry) registerHealth(app *fiber.App) {
	if r.health != nil {
		r.health.RegisterRoutes(app)
	}
}

func (r *Registry) registerAPI(app *fiber.App) {
	if r.match == nil || r.auth == nil {
		return
	}
	v1 := app.Group("/api/v1", r.auth.Middleware())
	r.match.RegisterRoutes(v1)
}

func (r *Registry) registerWS(app *fiber.App) {
	if r.ws == nil || r.auth == nil {
		return
	}
	app.Get("/ws/matches", r.auth.QueryTokenMiddleware(), r.ws.HandleMatchesWS)
}
