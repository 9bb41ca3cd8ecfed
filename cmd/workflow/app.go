package main

import (
	"fmt"
	"time"

	"github.com/hacking-linux/workflow/pkg/capabilities"
	"github.com/hacking-linux/workflow/pkg/config"
	"github.com/hacking-linux/workflow/pkg/engine"
	"github.com/hacking-linux/workflow/pkg/logging"
	"github.com/hacking-linux/workflow/pkg/storage"
)

// app bundles the wired-up subsystems every command needs
type app struct {
	cfg      *config.Config
	logger   logging.Logger
	provider storage.StorageProvider
	store    storage.FlowStore
	executor *engine.Executor
}

// newApp loads configuration and connects storage, logging, the capability
// registry, and the executor
func newApp() (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	provider, err := storage.NewProvider(cfg.ProviderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create storage provider: %w", err)
	}
	if err := provider.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	store := provider.GetFlowStore()

	registry := engine.NewRegistry(logger)
	capabilities.RegisterBuiltins(registry)

	executor := engine.NewExecutor(store, registry, logger)
	if cfg.Engine.StepTimeoutMS > 0 {
		executor.SetStepTimeout(time.Duration(cfg.Engine.StepTimeoutMS) * time.Millisecond)
	}

	return &app{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		store:    store,
		executor: executor,
	}, nil
}

// Close releases storage resources
func (a *app) Close() {
	if err := a.provider.Close(); err != nil {
		a.logger.Warn("failed to close storage provider", logging.F("error", err.Error()))
	}
}
