package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"skillsync/internal/config"
	"skillsync/internal/delivery/http/handler"
	"skillsync/internal/delivery/http/middleware"
	"skillsync/internal/delivery/http/routes"
	"skillsync/internal/pkg/jwt"
	"skillsync/internal/queue"
	"skillsync/internal/ws"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
	Worker    *queue.Worker

	logger *zap.Logger
	wg     sync.WaitGroup
}

// New builds the HTTP app and the feedback worker on top of a wired container.
func New(c *Container) *App {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	registerGlobalMiddleware(f, c.Logger)

	jwtSvc := jwt.NewHMACService(c.Config.JWT.Secret, c.Config.JWT.Issuer, 0)
	routes.NewRegistry(
		handler.NewHealthHandler(c.DB, map[string]handler.Pinger{"redis": c.Cache}),
		handler.NewMatchHandler(c.Matching, c.Logger),
		ws.NewHandler(c.Hub, c.Logger),
		middleware.NewAuthMiddleware(jwtSvc),
	).Register(f)

	worker := queue.NewWorker(c.Consumer, c.Matching.HandleFeedback, c.Logger).
		WithMaxAttempts(c.Config.Redis.FeedbackMaxAttempts)

	return &App{
		Fiber:     f,
		Container: c,
		Worker:    worker,
		logger:    c.Logger,
	}
}

// Start runs the hub and the feedback worker until ctx is cancelled.
func (a *App) Start(ctx context.Context) {
	a.wg.Add(2)
	go func() {
		defer a.wg.Done()
		a.Container.Hub.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		if err := a.Worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("feedback worker stopped", zap.Error(err))
		}
	}()
}

// Wait blocks until the goroutines started by Start have returned.
func (a *App) Wait() {
	a.wg.Wait()
}

func Bootstrap(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, func() error, error) {
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, nil, fmt.Errorf("JWT_SECRET is required")
	}
	c, err := NewContainer(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return New(c), c.Close, nil
}

func registerGlobalMiddleware(app *fiber.App, logger *zap.Logger) {
	if app == nil {
		return
	}

	app.Use(middleware.NewAccessLogMiddleware(logger).Middleware())
	app.Use(middleware.NewErrorMiddleware(logger).Middleware())
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
