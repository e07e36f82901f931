// Package monolith hosts the application's bounded-context modules and the
// service container they share.
package monolith

import (
	"context"
	"fmt"

	"github.com/fd1az/triscan/internal/asset"
	"github.com/fd1az/triscan/internal/config"
	"github.com/fd1az/triscan/internal/di"
	"github.com/fd1az/triscan/internal/logger"
)

// Monolith gives modules access to shared infrastructure during startup.
type Monolith interface {
	Config() *config.Config
	Logger() logger.LoggerInterface
	Services() di.ServiceRegistry
}

// Module is one bounded context. RegisterServices wires its factories into
// the container; Startup resolves dependencies and launches the module's
// goroutines.
type Module interface {
	RegisterServices(di.Container) error
	Startup(context.Context, Monolith) error
}

// App owns the service container and drives module lifecycle.
type App struct {
	cfg       *config.Config
	log       logger.LoggerInterface
	container di.Container
}

// New builds the container and registers the services every module relies
// on: config, logger, and the shared asset registry.
func New(cfg *config.Config, log logger.LoggerInterface) (*App, error) {
	container := di.NewContainer()
	container.Register("config", cfg)
	container.Register("logger", log)
	container.Register("assetRegistry", asset.DefaultRegistry())

	return &App{
		cfg:       cfg,
		log:       log,
		container: container,
	}, nil
}

func (a *App) Config() *config.Config         { return a.cfg }
func (a *App) Logger() logger.LoggerInterface { return a.log }
func (a *App) Services() di.ServiceRegistry   { return a.container }

// RegisterModules wires every module's factories before any module starts,
// so cross-module lookups resolve regardless of start order.
func (a *App) RegisterModules(modules ...Module) error {
	for _, m := range modules {
		if err := m.RegisterServices(a.container); err != nil {
			return fmt.Errorf("register module %T: %w", m, err)
		}
	}
	return nil
}

// StartModules starts modules in the order given.
func (a *App) StartModules(ctx context.Context, modules ...Module) error {
	for _, m := range modules {
		if err := m.Startup(ctx, a); err != nil {
			return fmt.Errorf("start module %T: %w", m, err)
		}
	}
	return nil
}
